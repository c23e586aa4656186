package fiscal

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/sun2dayo/portugal-compliance-sub001/internal/domain"
	"github.com/sun2dayo/portugal-compliance-sub001/pkg/at"
)

// QRInput datos ya resueltos del documento para construir el payload QR.
type QRInput struct {
	IssuerNIF         string
	CustomerNIF       string
	CustomerCountry   string
	ATDocumentType    string
	Submitted         bool
	PostingDate       time.Time
	DocumentID        string
	ATCUD             string
	Totals            BracketTotals
	StampDuty         decimal.Decimal
	GrandTotal        decimal.Decimal
	Withholding       decimal.Decimal
	PrintChars        string
	CertificateNumber string
}

// QRField par clave/valor del payload.
type QRField struct {
	Key   string
	Value string
}

// QRPayload payload QR con los campos en el orden obligatorio.
type QRPayload struct {
	Fields []QRField
}

// BuildQRPayload arma los campos A..R aplicando los valores por defecto:
// NIF 999999990 si falta el del emisor o si el adquirente no es un NIF portugués válido,
// país PT si no se informa, estado N si el documento está emitido y R en otro caso.
func BuildQRPayload(in QRInput) QRPayload {
	country := strings.ToUpper(strings.TrimSpace(in.CustomerCountry))
	if country == "" {
		country = at.CountryPortugal
	}
	status := at.StatusOther
	if in.Submitted {
		status = at.StatusNormal
	}
	totals := in.Totals
	if totals == nil {
		totals = BracketTotals{}
	}
	values := map[string]string{
		at.FieldIssuerNIF:        issuerNIF(in.IssuerNIF),
		at.FieldCustomerNIF:      customerNIF(in.CustomerNIF, country),
		at.FieldCustomerCountry:  country,
		at.FieldDocumentType:     in.ATDocumentType,
		at.FieldDocumentStatus:   status,
		at.FieldDocumentDate:     FormatDate(in.PostingDate),
		at.FieldDocumentID:       in.DocumentID,
		at.FieldATCUD:            in.ATCUD,
		at.FieldExemptBase:       FormatAmount(totals.Get(at.BracketExempt).Base),
		at.FieldReducedBase:      FormatAmount(totals.Get(at.BracketReduced).Base),
		at.FieldReducedTax:       FormatAmount(totals.Get(at.BracketReduced).Tax),
		at.FieldIntermediateBase: FormatAmount(totals.Get(at.BracketIntermediate).Base),
		at.FieldIntermediateTax:  FormatAmount(totals.Get(at.BracketIntermediate).Tax),
		at.FieldNormalBase:       FormatAmount(totals.Get(at.BracketNormal).Base),
		at.FieldNormalTax:        FormatAmount(totals.Get(at.BracketNormal).Tax),
		at.FieldStampDuty:        FormatAmount(in.StampDuty),
		at.FieldGrandTotal:       FormatAmount(in.GrandTotal),
		at.FieldWithholding:      FormatAmount(in.Withholding),
		at.FieldHashChars:        in.PrintChars,
		at.FieldCertificate:      in.CertificateNumber,
	}
	p := QRPayload{Fields: make([]QRField, 0, len(at.QRFieldOrder))}
	for _, k := range at.QRFieldOrder {
		p.Fields = append(p.Fields, QRField{Key: k, Value: values[k]})
	}
	return p
}

func issuerNIF(nif string) string {
	n := at.NormalizeNIF(nif)
	if n == "" {
		return at.ConsumerFinalNIF
	}
	return n
}

// customerNIF solo se informa para adquirentes portugueses con NIF válido.
func customerNIF(nif, country string) string {
	if country != at.CountryPortugal {
		return at.ConsumerFinalNIF
	}
	if at.ValidateNIF(nif) != nil {
		return at.ConsumerFinalNIF
	}
	return at.NormalizeNIF(nif)
}

// String serializa el payload: KEY:VALUE unidos por "*".
func (p QRPayload) String() string {
	parts := make([]string, len(p.Fields))
	for i, f := range p.Fields {
		parts[i] = f.Key + at.QRKeySeparator + f.Value
	}
	return strings.Join(parts, at.QRFieldSeparator)
}

// Get devuelve el valor del campo y si existe.
func (p QRPayload) Get(key string) (string, bool) {
	for _, f := range p.Fields {
		if f.Key == key {
			return f.Value, true
		}
	}
	return "", false
}

// ParseQRPayload interpreta un payload serializado conservando el orden de los campos.
func ParseQRPayload(s string) (QRPayload, error) {
	if s == "" {
		return QRPayload{}, domain.ErrEmptyPayload
	}
	raw := strings.Split(s, at.QRFieldSeparator)
	p := QRPayload{Fields: make([]QRField, 0, len(raw))}
	for _, f := range raw {
		k, v, ok := strings.Cut(f, at.QRKeySeparator)
		if !ok || k == "" {
			return QRPayload{}, fmt.Errorf("fiscal: campo QR mal formado %q", f)
		}
		p.Fields = append(p.Fields, QRField{Key: k, Value: v})
	}
	return p, nil
}
