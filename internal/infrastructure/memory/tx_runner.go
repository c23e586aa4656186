package memory

import (
	"context"

	"github.com/sun2dayo/portugal-compliance-sub001/internal/domain/entity"
	"github.com/sun2dayo/portugal-compliance-sub001/internal/domain/repository"
)

// TxRunner serializa las transacciones de un mismo ámbito con un mutex por ámbito.
// Las escrituras se acumulan y se aplican al store solo si fn no devuelve error.
type TxRunner struct {
	store *Store
}

// NewTxRunner construye el runner sobre el store.
func NewTxRunner(store *Store) *TxRunner {
	return &TxRunner{store: store}
}

// RunInScope bloquea el ámbito, ejecuta fn con repos que escriben en un área temporal y
// confirma al final. Si ctx se cancela antes de tomar el bloqueo devuelve ctx.Err().
func (r *TxRunner) RunInScope(ctx context.Context, scope entity.ScopeKey, fn func(
	docRepo repository.FiscalDocumentRepository,
	seriesRepo repository.FiscalSeriesRepository,
) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	lock := r.store.scopeLock(scope.String())
	lock.Lock()
	defer lock.Unlock()

	st := newStaging()
	if err := fn(&DocumentRepo{store: r.store, stage: st}, &SeriesRepo{store: r.store, stage: st}); err != nil {
		return err
	}
	r.store.commit(st)
	return nil
}

// staging escrituras pendientes de una transacción.
type staging struct {
	docs          map[string]entity.FiscalDocument
	lines         map[string][]entity.TaxLine
	series        map[string]entity.FiscalSeries
	deletedSeries map[string]bool
}

func newStaging() *staging {
	return &staging{
		docs:          make(map[string]entity.FiscalDocument),
		lines:         make(map[string][]entity.TaxLine),
		series:        make(map[string]entity.FiscalSeries),
		deletedSeries: make(map[string]bool),
	}
}

func (s *Store) commit(st *staging) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, d := range st.docs {
		s.docs[id] = d
	}
	for id, ls := range st.lines {
		s.lines[id] = append(s.lines[id], ls...)
	}
	for id, sr := range st.series {
		s.series[id] = sr
	}
	for id := range st.deletedSeries {
		delete(s.series, id)
	}
}
