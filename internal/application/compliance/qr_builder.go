package compliance

import (
	"github.com/sun2dayo/portugal-compliance-sub001/internal/domain"
	"github.com/sun2dayo/portugal-compliance-sub001/internal/domain/entity"
	"github.com/sun2dayo/portugal-compliance-sub001/internal/domain/fiscal"
)

// QRCodePayloadBuilder arma el payload QR AT y lo renderiza.
type QRCodePayloadBuilder struct {
	settings *Settings
	renderer QRRenderer
}

// NewQRCodePayloadBuilder construye el builder.
func NewQRCodePayloadBuilder(settings *Settings, renderer QRRenderer) *QRCodePayloadBuilder {
	return &QRCodePayloadBuilder{settings: settings, renderer: renderer}
}

// Build devuelve el payload "A:...*B:...*...*R:..." del documento. Las líneas de impuesto
// deben estar cargadas en doc.TaxLines; una tasa sin escalón es error.
func (b *QRCodePayloadBuilder) Build(doc *entity.FiscalDocument, atcud, printChars string) (string, error) {
	atType, err := b.settings.DocTypes.Code(doc.DocType, doc.IsReturn)
	if err != nil {
		return "", err
	}
	totals, err := b.settings.Brackets.Summarize(doc.TaxLines)
	if err != nil {
		return "", err
	}
	p := fiscal.BuildQRPayload(fiscal.QRInput{
		IssuerNIF:         doc.CompanyNIF,
		CustomerNIF:       doc.CustomerNIF,
		CustomerCountry:   doc.CustomerCountry,
		ATDocumentType:    atType,
		Submitted:         doc.Submitted(),
		PostingDate:       doc.PostingDate,
		DocumentID:        doc.ID,
		ATCUD:             atcud,
		Totals:            totals,
		StampDuty:         doc.StampDutyTotal,
		GrandTotal:        doc.GrandTotal,
		Withholding:       doc.WithholdingTotal,
		PrintChars:        printChars,
		CertificateNumber: b.settings.CertificateNumber,
	})
	return p.String(), nil
}

// RenderImage devuelve el PNG y su data URI. ErrEmptyPayload si el payload está vacío.
func (b *QRCodePayloadBuilder) RenderImage(payload string) ([]byte, string, error) {
	if payload == "" {
		return nil, "", domain.ErrEmptyPayload
	}
	png, err := b.renderer.RenderPNG(payload, 0)
	if err != nil {
		return nil, "", err
	}
	uri, err := b.renderer.DataURI(payload)
	if err != nil {
		return nil, "", err
	}
	return png, uri, nil
}
