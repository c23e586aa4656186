package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/sun2dayo/portugal-compliance-sub001/internal/domain"
	"github.com/sun2dayo/portugal-compliance-sub001/internal/domain/entity"
	"github.com/sun2dayo/portugal-compliance-sub001/internal/domain/repository"
)

var _ repository.ChainHaltRepository = (*ChainHaltRepo)(nil)

// ChainHaltRepo bloqueos de ámbito sobre PostgreSQL.
type ChainHaltRepo struct {
	q Querier
}

// NewChainHaltRepository construye el adaptador.
func NewChainHaltRepository(q Querier) *ChainHaltRepo {
	return &ChainHaltRepo{q: q}
}

func (r *ChainHaltRepo) GetActive(ctx context.Context, scope entity.ScopeKey) (*entity.ChainHalt, error) {
	query := `SELECT reason, code, created_at FROM chain_halts
		WHERE company_id = $1 AND naming_series = $2 AND doc_type = $3 AND released_at IS NULL`
	h := entity.ChainHalt{Scope: scope}
	err := r.q.QueryRow(ctx, query, scope.CompanyID, scope.NamingSeries, scope.DocType).
		Scan(&h.Reason, &h.Code, &h.CreatedAt)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get chain halt: %w", err)
	}
	return &h, nil
}

// Create el índice parcial único hace que un segundo bloqueo vigente sea un no-op.
func (r *ChainHaltRepo) Create(ctx context.Context, h *entity.ChainHalt) error {
	query := `INSERT INTO chain_halts (company_id, naming_series, doc_type, reason, code, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (company_id, naming_series, doc_type) WHERE released_at IS NULL DO NOTHING`
	_, err := r.q.Exec(ctx, query, h.Scope.CompanyID, h.Scope.NamingSeries, h.Scope.DocType, h.Reason, h.Code, h.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert chain halt: %w", err)
	}
	return nil
}

func (r *ChainHaltRepo) Release(ctx context.Context, scope entity.ScopeKey, releasedBy string, at time.Time) error {
	query := `UPDATE chain_halts SET released_at = $4, released_by = $5
		WHERE company_id = $1 AND naming_series = $2 AND doc_type = $3 AND released_at IS NULL`
	tag, err := r.q.Exec(ctx, query, scope.CompanyID, scope.NamingSeries, scope.DocType, at, releasedBy)
	if err != nil {
		return fmt.Errorf("release chain halt: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
