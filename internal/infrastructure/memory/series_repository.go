package memory

import (
	"context"
	"sort"
	"time"

	"github.com/sun2dayo/portugal-compliance-sub001/internal/domain"
	"github.com/sun2dayo/portugal-compliance-sub001/internal/domain/entity"
	"github.com/sun2dayo/portugal-compliance-sub001/internal/domain/fiscal"
	"github.com/sun2dayo/portugal-compliance-sub001/internal/domain/repository"
)

var _ repository.FiscalSeriesRepository = (*SeriesRepo)(nil)

// SeriesRepo series AT en memoria.
type SeriesRepo struct {
	store *Store
	stage *staging
}

// NewSeriesRepository repositorio sin transacción.
func NewSeriesRepository(store *Store) *SeriesRepo {
	return &SeriesRepo{store: store}
}

func (r *SeriesRepo) view() []entity.FiscalSeries {
	r.store.mu.RLock()
	m := make(map[string]entity.FiscalSeries, len(r.store.series))
	for id, s := range r.store.series {
		m[id] = s
	}
	r.store.mu.RUnlock()
	if r.stage != nil {
		for id, s := range r.stage.series {
			m[id] = s
		}
		for id := range r.stage.deletedSeries {
			delete(m, id)
		}
	}
	out := make([]entity.FiscalSeries, 0, len(m))
	for _, s := range m {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].ValidFrom.Equal(out[j].ValidFrom) {
			return out[i].ValidFrom.After(out[j].ValidFrom)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (r *SeriesRepo) put(s entity.FiscalSeries) {
	if r.stage != nil {
		r.stage.series[s.ID] = s
		delete(r.stage.deletedSeries, s.ID)
		return
	}
	r.store.mu.Lock()
	r.store.series[s.ID] = s
	r.store.mu.Unlock()
}

func (r *SeriesRepo) Create(ctx context.Context, s *entity.FiscalSeries) error {
	if cur, _ := r.GetByID(ctx, s.ID); cur != nil {
		return domain.ErrDuplicate
	}
	r.put(*s)
	return nil
}

func (r *SeriesRepo) GetByID(_ context.Context, id string) (*entity.FiscalSeries, error) {
	for _, s := range r.view() {
		if s.ID == id {
			return cloneSeries(s), nil
		}
	}
	return nil, nil
}

// GetActive la vista ya viene ordenada por valid_from descendente.
func (r *SeriesRepo) GetActive(_ context.Context, companyID, documentType, prefix string, onDate time.Time) (*entity.FiscalSeries, error) {
	day := fiscal.FormatDate(onDate)
	for _, s := range r.view() {
		if matchesActive(&s, companyID, documentType, prefix) && fiscal.FormatDate(s.ValidFrom) <= day {
			return cloneSeries(s), nil
		}
	}
	return nil, nil
}

func (r *SeriesRepo) GetActiveByStart(_ context.Context, companyID, documentType, prefix string, validFrom time.Time) (*entity.FiscalSeries, error) {
	day := fiscal.FormatDate(validFrom)
	for _, s := range r.view() {
		if matchesActive(&s, companyID, documentType, prefix) && fiscal.FormatDate(s.ValidFrom) == day {
			return cloneSeries(s), nil
		}
	}
	return nil, nil
}

func (r *SeriesRepo) GetActiveByPrefix(_ context.Context, companyID, documentType, prefix string) (*entity.FiscalSeries, error) {
	for _, s := range r.view() {
		if matchesActive(&s, companyID, documentType, prefix) {
			return cloneSeries(s), nil
		}
	}
	return nil, nil
}

func matchesActive(s *entity.FiscalSeries, companyID, documentType, prefix string) bool {
	return s.IsActive && s.CompanyID == companyID && s.DocumentType == documentType && s.Prefix == prefix
}

func (r *SeriesRepo) ListByCompany(_ context.Context, companyID string) ([]*entity.FiscalSeries, error) {
	var out []*entity.FiscalSeries
	for _, s := range r.view() {
		if s.CompanyID == companyID {
			out = append(out, cloneSeries(s))
		}
	}
	return out, nil
}

func (r *SeriesRepo) Update(ctx context.Context, s *entity.FiscalSeries) error {
	if cur, _ := r.GetByID(ctx, s.ID); cur == nil {
		return domain.ErrNotFound
	}
	r.put(*s)
	return nil
}

func (r *SeriesRepo) Delete(ctx context.Context, id string) error {
	if cur, _ := r.GetByID(ctx, id); cur == nil {
		return domain.ErrNotFound
	}
	if r.stage != nil {
		delete(r.stage.series, id)
		r.stage.deletedSeries[id] = true
		return nil
	}
	r.store.mu.Lock()
	delete(r.store.series, id)
	r.store.mu.Unlock()
	return nil
}
