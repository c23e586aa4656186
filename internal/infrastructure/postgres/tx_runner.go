package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sun2dayo/portugal-compliance-sub001/internal/application/compliance"
	"github.com/sun2dayo/portugal-compliance-sub001/internal/domain/entity"
	"github.com/sun2dayo/portugal-compliance-sub001/internal/domain/repository"
)

var _ compliance.ScopeTxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL.
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner construye el runner con el pool.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// RunInScope inicia una transacción, toma el advisory lock del ámbito, ejecuta fn con
// repos atados a la tx y hace Commit o Rollback. El lock se libera con la tx.
func (r *TxRunner) RunInScope(ctx context.Context, scope entity.ScopeKey, fn func(
	docRepo repository.FiscalDocumentRepository,
	seriesRepo repository.FiscalSeriesRepository,
) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`, scope.String()); err != nil {
		return fmt.Errorf("lock scope %s: %w", scope, err)
	}

	if err := fn(NewFiscalDocumentRepository(tx), NewFiscalSeriesRepository(tx)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
