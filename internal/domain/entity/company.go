package entity

import "time"

// Company representa la empresa emisora (multi-empresa).
type Company struct {
	ID        string
	Name      string
	NIF       string // NIF portugués del emisor (campo A del QR)
	Address   string
	Phone     string
	Email     string
	Country   string // ISO 3166-1 alfa-2
	CreatedAt time.Time
	UpdatedAt time.Time
}
