package entity

import "time"

// Customer representa el adquirente de los documentos fiscales.
type Customer struct {
	ID        string
	CompanyID string
	Name      string
	TaxID     string // NIF (PT) o identificador fiscal extranjero
	Country   string // País de la dirección de facturación principal (ISO 3166-1 alfa-2)
	Email     string
	CreatedAt time.Time
	UpdatedAt time.Time
}
