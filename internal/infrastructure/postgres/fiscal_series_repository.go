package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/sun2dayo/portugal-compliance-sub001/internal/domain"
	"github.com/sun2dayo/portugal-compliance-sub001/internal/domain/entity"
	"github.com/sun2dayo/portugal-compliance-sub001/internal/domain/repository"
)

var _ repository.FiscalSeriesRepository = (*FiscalSeriesRepo)(nil)

// FiscalSeriesRepo implementación de FiscalSeriesRepository sobre PostgreSQL.
type FiscalSeriesRepo struct {
	q Querier
}

// NewFiscalSeriesRepository construye el adaptador. Pasar pool o tx (Querier).
func NewFiscalSeriesRepository(q Querier) *FiscalSeriesRepo {
	return &FiscalSeriesRepo{q: q}
}

const seriesColumns = `id, company_id, document_type, prefix, validation_code, valid_from,
	is_active, communicated_at, created_at, updated_at`

func (r *FiscalSeriesRepo) Create(ctx context.Context, s *entity.FiscalSeries) error {
	query := `INSERT INTO fiscal_series (` + seriesColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := r.q.Exec(ctx, query,
		s.ID, s.CompanyID, s.DocumentType, s.Prefix, s.ValidationCode, s.ValidFrom,
		s.IsActive, s.CommunicatedAt, s.CreatedAt, s.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrSeriesConflict.With("valid_from", s.ValidFrom.Format("2006-01-02"), "única por empresa y tipo")
		}
		return fmt.Errorf("insert fiscal series: %w", err)
	}
	return nil
}

func (r *FiscalSeriesRepo) GetByID(ctx context.Context, id string) (*entity.FiscalSeries, error) {
	return r.getOne(ctx, `SELECT `+seriesColumns+` FROM fiscal_series WHERE id = $1`, id)
}

// GetActive serie activa más reciente vigente en onDate.
func (r *FiscalSeriesRepo) GetActive(ctx context.Context, companyID, documentType, prefix string, onDate time.Time) (*entity.FiscalSeries, error) {
	return r.getOne(ctx, `SELECT `+seriesColumns+` FROM fiscal_series
		WHERE company_id = $1 AND document_type = $2 AND prefix = $3 AND is_active AND valid_from <= $4
		ORDER BY valid_from DESC, id
		LIMIT 1`, companyID, documentType, prefix, onDate)
}

func (r *FiscalSeriesRepo) GetActiveByStart(ctx context.Context, companyID, documentType, prefix string, validFrom time.Time) (*entity.FiscalSeries, error) {
	return r.getOne(ctx, `SELECT `+seriesColumns+` FROM fiscal_series
		WHERE company_id = $1 AND document_type = $2 AND prefix = $3 AND is_active AND valid_from = $4`,
		companyID, documentType, prefix, validFrom)
}

func (r *FiscalSeriesRepo) GetActiveByPrefix(ctx context.Context, companyID, documentType, prefix string) (*entity.FiscalSeries, error) {
	return r.getOne(ctx, `SELECT `+seriesColumns+` FROM fiscal_series
		WHERE company_id = $1 AND document_type = $2 AND prefix = $3 AND is_active
		ORDER BY valid_from DESC, id
		LIMIT 1`, companyID, documentType, prefix)
}

func (r *FiscalSeriesRepo) ListByCompany(ctx context.Context, companyID string) ([]*entity.FiscalSeries, error) {
	rows, err := r.q.Query(ctx, `SELECT `+seriesColumns+` FROM fiscal_series
		WHERE company_id = $1 ORDER BY valid_from DESC, id`, companyID)
	if err != nil {
		return nil, fmt.Errorf("list fiscal series: %w", err)
	}
	defer rows.Close()
	var out []*entity.FiscalSeries
	for rows.Next() {
		s, err := scanSeries(rows)
		if err != nil {
			return nil, fmt.Errorf("scan fiscal series: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *FiscalSeriesRepo) Update(ctx context.Context, s *entity.FiscalSeries) error {
	query := `UPDATE fiscal_series SET prefix = $2, validation_code = $3, valid_from = $4,
		is_active = $5, communicated_at = $6, updated_at = $7
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, query, s.ID, s.Prefix, s.ValidationCode, s.ValidFrom, s.IsActive, s.CommunicatedAt, s.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrSeriesConflict
		}
		return fmt.Errorf("update fiscal series: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *FiscalSeriesRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM fiscal_series WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete fiscal series: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *FiscalSeriesRepo) getOne(ctx context.Context, query string, args ...any) (*entity.FiscalSeries, error) {
	s, err := scanSeries(r.q.QueryRow(ctx, query, args...))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get fiscal series: %w", err)
	}
	return s, nil
}

func scanSeries(row pgxScanner) (*entity.FiscalSeries, error) {
	var s entity.FiscalSeries
	err := row.Scan(&s.ID, &s.CompanyID, &s.DocumentType, &s.Prefix, &s.ValidationCode, &s.ValidFrom,
		&s.IsActive, &s.CommunicatedAt, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}
