package entity

import (
	"strings"
	"time"
)

// ScopeKey ámbito de una cadena de hash: empresa + serie de numeración + tipo de documento.
type ScopeKey struct {
	CompanyID    string
	NamingSeries string
	DocType      string
}

// String clave estable del ámbito; se usa como clave de bloqueo.
func (k ScopeKey) String() string {
	return strings.Join([]string{k.CompanyID, k.NamingSeries, k.DocType}, "|")
}

// ChainLink eslabón (documento, hash anterior, hash propio) de la cadena de un ámbito.
type ChainLink struct {
	DocumentID   string
	PostingDate  time.Time
	CreatedAt    time.Time
	PreviousHash string
	ThisHash     string
}

// ChainHalt bloqueo de un ámbito tras un error de integridad; se libera manualmente.
type ChainHalt struct {
	Scope      ScopeKey
	Reason     string
	Code       string
	CreatedAt  time.Time
	ReleasedAt *time.Time
	ReleasedBy string
}
