package fiscal

import (
	"fmt"
	"sort"

	"github.com/sun2dayo/portugal-compliance-sub001/internal/domain"
	"github.com/sun2dayo/portugal-compliance-sub001/pkg/at"
)

// Tipos de documento del ERP.
const (
	DocTypeSalesInvoice       = "Sales Invoice"
	DocTypeSimplifiedInvoice  = "Simplified Invoice"
	DocTypeInvoiceReceipt     = "Invoice Receipt"
	DocTypeCreditNote         = "Credit Note"
	DocTypeDebitNote          = "Debit Note"
	DocTypeConsignmentInvoice = "Consignment Invoice"
)

// DocumentTypeMap tabla versionada tipo de documento del ERP -> código AT.
// Las devoluciones pueden tener un código propio (una factura devuelta es NC).
type DocumentTypeMap struct {
	version string
	codes   map[string]string
	returns map[string]string
}

// knownMaps tablas publicadas por versión.
var knownMaps = map[string]struct {
	codes   map[string]string
	returns map[string]string
}{
	"2023": {
		codes: map[string]string{
			DocTypeSalesInvoice:       at.DocTypeFatura,
			DocTypeSimplifiedInvoice:  at.DocTypeFaturaSimplif,
			DocTypeInvoiceReceipt:     at.DocTypeFaturaRecibo,
			DocTypeCreditNote:         at.DocTypeNotaCredito,
			DocTypeDebitNote:          at.DocTypeNotaDebito,
			DocTypeConsignmentInvoice: at.DocTypeFaturaConsignacao,
		},
		returns: map[string]string{
			DocTypeSalesInvoice:      at.DocTypeNotaCredito,
			DocTypeSimplifiedInvoice: at.DocTypeNotaCredito,
			DocTypeInvoiceReceipt:    at.DocTypeNotaCredito,
		},
	},
}

// NewDocumentTypeMap construye una tabla a medida. Todos los códigos deben ser códigos AT conocidos.
func NewDocumentTypeMap(version string, codes, returns map[string]string) (*DocumentTypeMap, error) {
	m := &DocumentTypeMap{version: version, codes: map[string]string{}, returns: map[string]string{}}
	for dt, code := range codes {
		if !at.IsValidDocumentTypeCode(code) {
			return nil, fmt.Errorf("fiscal: código AT desconocido %q para %q", code, dt)
		}
		m.codes[dt] = code
	}
	for dt, code := range returns {
		if !at.IsValidDocumentTypeCode(code) {
			return nil, fmt.Errorf("fiscal: código AT desconocido %q para devolución de %q", code, dt)
		}
		m.returns[dt] = code
	}
	return m, nil
}

// LoadDocumentTypeMap devuelve la tabla publicada para la versión dada.
func LoadDocumentTypeMap(version string) (*DocumentTypeMap, error) {
	km, ok := knownMaps[version]
	if !ok {
		return nil, fmt.Errorf("fiscal: versión de tabla de tipos de documento desconocida %q", version)
	}
	return NewDocumentTypeMap(version, km.codes, km.returns)
}

// Version versión de la tabla.
func (m *DocumentTypeMap) Version() string { return m.version }

// Code devuelve el código AT del tipo de documento.
func (m *DocumentTypeMap) Code(docType string, isReturn bool) (string, error) {
	if isReturn {
		if code, ok := m.returns[docType]; ok {
			return code, nil
		}
	}
	code, ok := m.codes[docType]
	if !ok {
		return "", domain.ErrUnknownDocumentType.With("doc_type", docType, "tipo mapeado en tabla "+m.version)
	}
	return code, nil
}

// DocTypes lista los tipos de documento mapeados, ordenados.
func (m *DocumentTypeMap) DocTypes() []string {
	out := make([]string, 0, len(m.codes))
	for dt := range m.codes {
		out = append(out, dt)
	}
	sort.Strings(out)
	return out
}
