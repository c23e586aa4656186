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

var _ repository.FiscalDocumentRepository = (*DocumentRepo)(nil)

// DocumentRepo documentos fiscales en memoria. Con stage != nil escribe en la
// transacción en curso; si no, directamente en el store.
type DocumentRepo struct {
	store *Store
	stage *staging
}

// NewDocumentRepository repositorio sin transacción.
func NewDocumentRepository(store *Store) *DocumentRepo {
	return &DocumentRepo{store: store}
}

// view devuelve los documentos confirmados con las escrituras pendientes superpuestas.
func (r *DocumentRepo) view() map[string]entity.FiscalDocument {
	r.store.mu.RLock()
	out := make(map[string]entity.FiscalDocument, len(r.store.docs))
	for id, d := range r.store.docs {
		out[id] = d
	}
	r.store.mu.RUnlock()
	if r.stage != nil {
		for id, d := range r.stage.docs {
			out[id] = d
		}
	}
	return out
}

func (r *DocumentRepo) get(id string) (entity.FiscalDocument, bool) {
	if r.stage != nil {
		if d, ok := r.stage.docs[id]; ok {
			return d, true
		}
	}
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	d, ok := r.store.docs[id]
	return d, ok
}

func (r *DocumentRepo) put(d entity.FiscalDocument) {
	d.TaxLines = nil
	if r.stage != nil {
		r.stage.docs[d.ID] = d
		return
	}
	r.store.mu.Lock()
	r.store.docs[d.ID] = d
	r.store.mu.Unlock()
}

func (r *DocumentRepo) Create(_ context.Context, doc *entity.FiscalDocument) error {
	if _, ok := r.get(doc.ID); ok {
		return domain.ErrDuplicate
	}
	r.put(*doc)
	return nil
}

func (r *DocumentRepo) CreateTaxLine(_ context.Context, line *entity.TaxLine) error {
	if r.stage != nil {
		r.stage.lines[line.DocumentID] = append(r.stage.lines[line.DocumentID], *line)
		return nil
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.lines[line.DocumentID] = append(r.store.lines[line.DocumentID], *line)
	return nil
}

func (r *DocumentRepo) GetByID(_ context.Context, id string) (*entity.FiscalDocument, error) {
	d, ok := r.get(id)
	if !ok {
		return nil, nil
	}
	return cloneDoc(d), nil
}

func (r *DocumentRepo) GetTaxLines(_ context.Context, documentID string) ([]entity.TaxLine, error) {
	r.store.mu.RLock()
	out := append([]entity.TaxLine(nil), r.store.lines[documentID]...)
	r.store.mu.RUnlock()
	if r.stage != nil {
		out = append(out, r.stage.lines[documentID]...)
	}
	return out, nil
}

// NextSequence no participa de la transacción: un rollback deja un hueco en la numeración.
func (r *DocumentRepo) NextSequence(_ context.Context, namingSeries string) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.counters[namingSeries]++
	return r.store.counters[namingSeries], nil
}

func (r *DocumentRepo) QueryLatestSubmitted(_ context.Context, scope entity.ScopeKey, excludingID string, postingDate time.Time) (*entity.ChainLink, error) {
	day := fiscal.FormatDate(postingDate)
	var best *entity.FiscalDocument
	for _, d := range r.view() {
		if d.ID == excludingID || !inChain(d) || d.Scope() != scope || fiscal.FormatDate(d.PostingDate) > day {
			continue
		}
		if best == nil || chainBefore(best, &d) {
			best = cloneDoc(d)
		}
	}
	if best == nil {
		return nil, nil
	}
	return &entity.ChainLink{
		DocumentID:   best.ID,
		PostingDate:  best.PostingDate,
		CreatedAt:    best.CreatedAt,
		PreviousHash: best.PreviousHash,
		ThisHash:     best.ThisHash,
	}, nil
}

func (r *DocumentRepo) UpdateFiscalFields(_ context.Context, doc *entity.FiscalDocument) error {
	cur, ok := r.get(doc.ID)
	if !ok {
		return domain.ErrNotFound
	}
	cur.FiscalFields = doc.FiscalFields
	if doc.SignedAt != nil {
		t := *doc.SignedAt
		cur.SignedAt = &t
	}
	cur.SeriesID = doc.SeriesID
	cur.DocStatus = doc.DocStatus
	r.put(cur)
	return nil
}

func (r *DocumentRepo) FindByATCUD(_ context.Context, atcud, excludingID string) (*entity.FiscalDocument, error) {
	if atcud == "" {
		return nil, nil
	}
	for _, d := range r.view() {
		if d.ATCUD == atcud && d.ID != excludingID {
			return cloneDoc(d), nil
		}
	}
	return nil, nil
}

func (r *DocumentRepo) ListSubmittedInScope(_ context.Context, scope entity.ScopeKey) ([]*entity.FiscalDocument, error) {
	var out []*entity.FiscalDocument
	for _, d := range r.view() {
		if inChain(d) && d.Scope() == scope {
			out = append(out, cloneDoc(d))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if !a.SignedAt.Equal(*b.SignedAt) {
			return a.SignedAt.Before(*b.SignedAt)
		}
		return a.ID < b.ID
	})
	return out, nil
}

func (r *DocumentRepo) CountBySeries(_ context.Context, seriesID string) (int, error) {
	n := 0
	for _, d := range r.view() {
		if d.SeriesID == seriesID {
			n++
		}
	}
	return n, nil
}

// inChain documento emitido (o anulado tras emitirse) que forma parte de la cadena.
func inChain(d entity.FiscalDocument) bool {
	return d.DocStatus != entity.DocStatusDraft && d.SignedAt != nil
}

// chainBefore indica si a va antes que b en orden (posting_date, created_at, id).
func chainBefore(a, b *entity.FiscalDocument) bool {
	da, db := fiscal.FormatDate(a.PostingDate), fiscal.FormatDate(b.PostingDate)
	if da != db {
		return da < db
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return a.ID < b.ID
}
