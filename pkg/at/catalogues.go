// Package at contiene catálogos y validaciones alineados a la Portaria n.º 195/2020
// (ATCUD y código QR) y al regime de certificação de software da AT (Portugal).
package at

// =============================================================================
// Tipos de documento (SAF-T PT, campo InvoiceType)
// =============================================================================

const (
	DocTypeFatura            = "FT" // Fatura
	DocTypeFaturaSimplif     = "FS" // Fatura simplificada
	DocTypeFaturaRecibo      = "FR" // Fatura-recibo
	DocTypeNotaCredito       = "NC" // Nota de crédito
	DocTypeNotaDebito        = "ND" // Nota de débito
	DocTypeFaturaConsignacao = "FC" // Fatura de consignação
)

// ValidDocumentTypeCodes códigos AT aceptados en series y en el campo D del QR.
var ValidDocumentTypeCodes = map[string]bool{
	DocTypeFatura: true, DocTypeFaturaSimplif: true, DocTypeFaturaRecibo: true,
	DocTypeNotaCredito: true, DocTypeNotaDebito: true, DocTypeFaturaConsignacao: true,
}

// IsValidDocumentTypeCode indica si code es un tipo de documento AT soportado.
func IsValidDocumentTypeCode(code string) bool {
	return ValidDocumentTypeCodes[code]
}

// =============================================================================
// Estado del documento (campo E del QR, modelo simplificado de dos estados)
// =============================================================================

const (
	StatusNormal = "N" // Documento emitido
	StatusOther  = "R" // Borrador o equivalente
)

// =============================================================================
// Escalones de IVA (Código do IVA, art. 18.º)
// =============================================================================

const (
	BracketExempt       = "ISE" // Isento
	BracketReduced      = "RED" // Taxa reduzida
	BracketIntermediate = "INT" // Taxa intermédia
	BracketNormal       = "NOR" // Taxa normal
)

// Brackets en el orden en que se vuelcan al QR.
var Brackets = []string{BracketExempt, BracketReduced, BracketIntermediate, BracketNormal}

// Regiones fiscales con tasas propias.
const (
	RegionContinental = "PT"
	RegionAzores      = "PT-AC"
	RegionMadeira     = "PT-MA"
)

// =============================================================================
// Campos del código QR (orden obligatorio)
// =============================================================================

const (
	FieldIssuerNIF        = "A"
	FieldCustomerNIF      = "B"
	FieldCustomerCountry  = "C"
	FieldDocumentType     = "D"
	FieldDocumentStatus   = "E"
	FieldDocumentDate     = "F"
	FieldDocumentID       = "G"
	FieldATCUD            = "H"
	FieldExemptBase       = "I1"
	FieldReducedBase      = "I2"
	FieldReducedTax       = "I3"
	FieldIntermediateBase = "I4"
	FieldIntermediateTax  = "I5"
	FieldNormalBase       = "I6"
	FieldNormalTax        = "I7"
	FieldStampDuty        = "N"
	FieldGrandTotal       = "O"
	FieldWithholding      = "P"
	FieldHashChars        = "Q"
	FieldCertificate      = "R"
)

// QRFieldOrder orden exacto de los campos en el payload.
var QRFieldOrder = []string{
	FieldIssuerNIF, FieldCustomerNIF, FieldCustomerCountry, FieldDocumentType,
	FieldDocumentStatus, FieldDocumentDate, FieldDocumentID, FieldATCUD,
	FieldExemptBase, FieldReducedBase, FieldReducedTax, FieldIntermediateBase,
	FieldIntermediateTax, FieldNormalBase, FieldNormalTax,
	FieldStampDuty, FieldGrandTotal, FieldWithholding, FieldHashChars, FieldCertificate,
}

// Separadores del payload QR.
const (
	QRFieldSeparator = "*"
	QRKeySeparator   = ":"
)

// ConsumerFinalNIF NIF genérico de consumidor final.
const ConsumerFinalNIF = "999999990"

// CountryPortugal código ISO 3166-1 alfa-2 de Portugal.
const CountryPortugal = "PT"

// GenesisHash hash anterior del primer documento de cada ámbito.
const GenesisHash = "0"
