package repository

import (
	"context"
	"time"

	"github.com/sun2dayo/portugal-compliance-sub001/internal/domain/entity"
)

// ChainHaltRepository persiste los bloqueos de ámbito por errores de integridad.
type ChainHaltRepository interface {
	// GetActive devuelve el bloqueo vigente (no liberado) del ámbito o (nil, nil).
	GetActive(ctx context.Context, scope entity.ScopeKey) (*entity.ChainHalt, error)
	// Create registra un bloqueo; si ya hay uno vigente no hace nada.
	Create(ctx context.Context, halt *entity.ChainHalt) error
	// Release libera el bloqueo vigente. domain.ErrNotFound si no existe.
	Release(ctx context.Context, scope entity.ScopeKey, releasedBy string, at time.Time) error
}
