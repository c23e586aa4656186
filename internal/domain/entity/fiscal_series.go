package entity

import "time"

// FiscalSeries serie legal de numeración comunicada a la AT.
// Cada empresa puede tener varias series por tipo de documento; solo una activa por
// (empresa, tipo, inicio de vigencia). El código de validación se asigna una única vez.
type FiscalSeries struct {
	ID             string
	CompanyID      string
	DocumentType   string     // Código AT: FT, FS, FR, NC, ND, FC
	Prefix         string     // Serie de numeración (ej: "FT2025A")
	ValidationCode string     // Código de validación AT; vacío mientras no se comunique
	ValidFrom      time.Time  // Inicio de vigencia
	IsActive       bool
	CommunicatedAt *time.Time // Momento en que se asignó el código de validación
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Communicated indica si la serie ya tiene código de validación AT.
func (s *FiscalSeries) Communicated() bool {
	return s.ValidationCode != ""
}
