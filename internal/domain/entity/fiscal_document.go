package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados del documento en el ciclo de vida del ERP.
const (
	DocStatusDraft     = 0 // Borrador: sin campos fiscales
	DocStatusSubmitted = 1 // Emitido: campos fiscales inmutables
	DocStatusCancelled = 2 // Anulado (conserva su eslabón de la cadena)
)

// FiscalDocument documento fiscal firmado (factura, nota de crédito, etc.).
type FiscalDocument struct {
	ID               string // Identificador derivado de la serie (ej: "FT2025A/1")
	CompanyID        string
	CustomerID       string
	DocType          string // Tipo de documento del ERP (ej: "Sales Invoice")
	IsReturn         bool   // Devolución: se mapea a nota de crédito
	NamingSeries     string // Serie de numeración usada como ámbito de la cadena
	SeriesID         string // Serie AT resuelta al firmar
	PostingDate      time.Time
	EmissionAt       time.Time // Fecha/hora de emisión (SystemEntryDate)
	CreatedAt        time.Time
	GrandTotal       decimal.Decimal
	StampDutyTotal   decimal.Decimal
	WithholdingTotal decimal.Decimal
	CompanyNIF       string
	CustomerNIF      string // Snapshot del NIF del adquirente (vacío = usar el del cliente)
	CustomerCountry  string // Snapshot del país de facturación (vacío = usar el del cliente)
	DocStatus        int
	TaxLines         []TaxLine

	FiscalFields
}

// FiscalFields campos derivados producidos por la cadena de firma.
type FiscalFields struct {
	ATCUD        string
	Signature    string // Base64 RSA-SHA256
	ThisHash     string
	PreviousHash string
	PrintChars   string // 4 caracteres de la firma (posiciones 0, 10, 20, 30)
	QRPayload    string
	SignedAt     *time.Time
}

// Submitted indica si el documento ya fue emitido.
func (d *FiscalDocument) Submitted() bool {
	return d.DocStatus == DocStatusSubmitted
}

// Scope devuelve el ámbito de la cadena de hash del documento.
func (d *FiscalDocument) Scope() ScopeKey {
	return ScopeKey{CompanyID: d.CompanyID, NamingSeries: d.NamingSeries, DocType: d.DocType}
}
