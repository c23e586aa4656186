// Package memory implementa los puertos de persistencia en memoria. Se usa en tests y
// con AT_STORE=memory; no sobrevive al proceso.
package memory

import (
	"sync"

	"github.com/sun2dayo/portugal-compliance-sub001/internal/domain/entity"
)

// Store datos compartidos por todos los repositorios en memoria.
type Store struct {
	mu        sync.RWMutex
	companies map[string]entity.Company
	customers map[string]entity.Customer
	users     map[string]entity.User
	series    map[string]entity.FiscalSeries
	docs      map[string]entity.FiscalDocument
	lines     map[string][]entity.TaxLine
	counters  map[string]int64
	halts     []entity.ChainHalt

	locksMu sync.Mutex
	locks   map[string]*sync.Mutex
}

// NewStore crea un store vacío.
func NewStore() *Store {
	return &Store{
		companies: make(map[string]entity.Company),
		customers: make(map[string]entity.Customer),
		users:     make(map[string]entity.User),
		series:    make(map[string]entity.FiscalSeries),
		docs:      make(map[string]entity.FiscalDocument),
		lines:     make(map[string][]entity.TaxLine),
		counters:  make(map[string]int64),
		locks:     make(map[string]*sync.Mutex),
	}
}

// scopeLock devuelve el mutex del ámbito, creándolo si no existe.
func (s *Store) scopeLock(key string) *sync.Mutex {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()
	m, ok := s.locks[key]
	if !ok {
		m = &sync.Mutex{}
		s.locks[key] = m
	}
	return m
}

func cloneDoc(d entity.FiscalDocument) *entity.FiscalDocument {
	c := d
	c.TaxLines = nil
	if d.SignedAt != nil {
		t := *d.SignedAt
		c.SignedAt = &t
	}
	return &c
}

func cloneSeries(s entity.FiscalSeries) *entity.FiscalSeries {
	c := s
	if s.CommunicatedAt != nil {
		t := *s.CommunicatedAt
		c.CommunicatedAt = &t
	}
	return &c
}
