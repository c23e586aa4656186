package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateDocumentRequest body para POST /api/documents (borrador).
// PostingDate en formato YYYY-MM-DD; EmissionAt en RFC 3339 o YYYY-MM-DDTHH:MM:SS (vacío = ahora).
// GrandTotal vacío = suma de bases y cuotas más el imposto do selo.
type CreateDocumentRequest struct {
	CustomerID   string           `json:"customer_id"`
	DocType      string           `json:"doc_type"`
	IsReturn     bool             `json:"is_return,omitempty"`
	NamingSeries string           `json:"naming_series"`
	PostingDate  string           `json:"posting_date"`
	EmissionAt   string           `json:"emission_at,omitempty"`
	GrandTotal   *decimal.Decimal `json:"grand_total,omitempty"`
	StampDuty    decimal.Decimal  `json:"stamp_duty,omitempty"`
	Withholding  decimal.Decimal  `json:"withholding,omitempty"`
	TaxLines     []TaxLineRequest `json:"tax_lines"`
}

// TaxLineRequest línea de impuesto: tasa (%), base neta y cuota.
type TaxLineRequest struct {
	Rate        decimal.Decimal `json:"rate"`
	NetBase     decimal.Decimal `json:"net_base"`
	TaxAmount   decimal.Decimal `json:"tax_amount"`
	Description string          `json:"description,omitempty"`
}

// DocumentResponse documento con campos fiscales.
type DocumentResponse struct {
	ID           string            `json:"id"`
	CompanyID    string            `json:"company_id"`
	CustomerID   string            `json:"customer_id"`
	DocType      string            `json:"doc_type"`
	IsReturn     bool              `json:"is_return"`
	NamingSeries string            `json:"naming_series"`
	SeriesID     string            `json:"series_id,omitempty"`
	PostingDate  string            `json:"posting_date"`
	EmissionAt   string            `json:"emission_at"`
	GrandTotal   decimal.Decimal   `json:"grand_total"`
	StampDuty    decimal.Decimal   `json:"stamp_duty"`
	Withholding  decimal.Decimal   `json:"withholding"`
	Status       string            `json:"status"` // draft, submitted, cancelled
	ATCUD        string            `json:"atcud,omitempty"`
	Signature    string            `json:"signature,omitempty"`
	ThisHash     string            `json:"this_hash,omitempty"`
	PreviousHash string            `json:"previous_hash,omitempty"`
	PrintChars   string            `json:"print_chars,omitempty"`
	QRPayload    string            `json:"qr_payload,omitempty"`
	SignedAt     *time.Time        `json:"signed_at,omitempty"`
	TaxLines     []TaxLineResponse `json:"tax_lines"`
}

// TaxLineResponse línea de impuesto en respuestas.
type TaxLineResponse struct {
	Rate        decimal.Decimal `json:"rate"`
	NetBase     decimal.Decimal `json:"net_base"`
	TaxAmount   decimal.Decimal `json:"tax_amount"`
	Description string          `json:"description,omitempty"`
}

// QRCodeDataURIResponse respuesta de GET /api/documents/:id/qrcode?format=datauri.
type QRCodeDataURIResponse struct {
	Payload string `json:"payload"`
	DataURI string `json:"data_uri"`
}

// CreateSeriesRequest body para POST /api/series.
type CreateSeriesRequest struct {
	DocumentType   string `json:"document_type"` // FT, FS, FR, NC, ND, FC
	Prefix         string `json:"prefix"`
	ValidFrom      string `json:"valid_from"`                // YYYY-MM-DD
	ValidationCode string `json:"validation_code,omitempty"` // si la serie ya fue comunicada
}

// AttachValidationCodeRequest body para POST /api/series/:id/validation-code.
type AttachValidationCodeRequest struct {
	ValidationCode string `json:"validation_code"`
}

// SeriesResponse serie AT en respuestas.
type SeriesResponse struct {
	ID             string     `json:"id"`
	CompanyID      string     `json:"company_id"`
	DocumentType   string     `json:"document_type"`
	Prefix         string     `json:"prefix"`
	ValidationCode string     `json:"validation_code,omitempty"`
	ValidFrom      string     `json:"valid_from"`
	IsActive       bool       `json:"is_active"`
	CommunicatedAt *time.Time `json:"communicated_at,omitempty"`
}

// SeriesResolutionResponse respuesta de GET /api/series/resolve.
type SeriesResolutionResponse struct {
	SeriesID       string `json:"series_id"`
	ValidationCode string `json:"validation_code"`
}

// ChainScopeRequest ámbito de cadena (la empresa sale del token).
type ChainScopeRequest struct {
	NamingSeries string `json:"naming_series" query:"naming_series"`
	DocType      string `json:"doc_type" query:"doc_type"`
}

// ChainReport resultado de la auditoría de un ámbito.
type ChainReport struct {
	CompanyID    string         `json:"company_id"`
	NamingSeries string         `json:"naming_series"`
	DocType      string         `json:"doc_type"`
	Documents    int            `json:"documents"`
	Valid        bool           `json:"valid"`
	Halted       bool           `json:"halted"`
	Error        *ErrorResponse `json:"error,omitempty"`
	CheckedAt    time.Time      `json:"checked_at"`
}
