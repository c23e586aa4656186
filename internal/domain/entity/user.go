package entity

import "time"

// Roles válidos para User.
const (
	RoleAdmin    = "admin"    // administra series y libera ámbitos bloqueados
	RoleOperator = "operator" // crea y emite documentos
	RoleAuditor  = "auditor"  // solo verificación de cadena
)

// User representa un usuario del sistema (pertenece a una Company).
type User struct {
	ID           string
	CompanyID    string
	Email        string
	PasswordHash string // bcrypt hash
	Name         string
	Role         string
	Status       string // active, inactive
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
