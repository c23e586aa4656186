package entity

import "github.com/shopspring/decimal"

// TaxLine línea de impuesto del documento: base neta (con descuentos ya aplicados)
// y cuota liquidada a una tasa dada.
type TaxLine struct {
	ID          string
	DocumentID  string
	Rate        decimal.Decimal // Porcentaje (ej: 23, 13, 6, 0)
	NetBase     decimal.Decimal
	TaxAmount   decimal.Decimal
	Description string
}
