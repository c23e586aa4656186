package memory

import (
	"context"
	"strings"
	"time"

	"github.com/sun2dayo/portugal-compliance-sub001/internal/domain"
	"github.com/sun2dayo/portugal-compliance-sub001/internal/domain/entity"
	"github.com/sun2dayo/portugal-compliance-sub001/internal/domain/repository"
)

var (
	_ repository.CompanyRepository   = (*CompanyRepo)(nil)
	_ repository.CustomerRepository  = (*CustomerRepo)(nil)
	_ repository.UserRepository      = (*UserRepo)(nil)
	_ repository.ChainHaltRepository = (*ChainHaltRepo)(nil)
)

// CompanyRepo empresas en memoria.
type CompanyRepo struct{ store *Store }

func NewCompanyRepository(store *Store) *CompanyRepo { return &CompanyRepo{store: store} }

func (r *CompanyRepo) Create(_ context.Context, c *entity.Company) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.companies[c.ID]; ok {
		return domain.ErrDuplicate
	}
	for _, other := range r.store.companies {
		if other.NIF == c.NIF {
			return domain.ErrDuplicate
		}
	}
	r.store.companies[c.ID] = *c
	return nil
}

func (r *CompanyRepo) GetByID(_ context.Context, id string) (*entity.Company, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	c, ok := r.store.companies[id]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (r *CompanyRepo) GetByNIF(_ context.Context, nif string) (*entity.Company, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	for _, c := range r.store.companies {
		if c.NIF == nif {
			return &c, nil
		}
	}
	return nil, nil
}

// CustomerRepo clientes en memoria.
type CustomerRepo struct{ store *Store }

func NewCustomerRepository(store *Store) *CustomerRepo { return &CustomerRepo{store: store} }

func (r *CustomerRepo) Create(_ context.Context, c *entity.Customer) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.customers[c.ID]; ok {
		return domain.ErrDuplicate
	}
	r.store.customers[c.ID] = *c
	return nil
}

func (r *CustomerRepo) GetByID(_ context.Context, id string) (*entity.Customer, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	c, ok := r.store.customers[id]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (r *CustomerRepo) GetByCompanyAndTaxID(_ context.Context, companyID, taxID string) (*entity.Customer, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	for _, c := range r.store.customers {
		if c.CompanyID == companyID && c.TaxID == taxID {
			return &c, nil
		}
	}
	return nil, nil
}

// UserRepo usuarios en memoria; el email no distingue mayúsculas.
type UserRepo struct{ store *Store }

func NewUserRepository(store *Store) *UserRepo { return &UserRepo{store: store} }

func (r *UserRepo) Create(_ context.Context, u *entity.User) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, other := range r.store.users {
		if strings.EqualFold(other.Email, u.Email) {
			return domain.ErrDuplicate
		}
	}
	r.store.users[u.ID] = *u
	return nil
}

func (r *UserRepo) GetByEmail(_ context.Context, email string) (*entity.User, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	for _, u := range r.store.users {
		if strings.EqualFold(u.Email, email) {
			return &u, nil
		}
	}
	return nil, nil
}

func (r *UserRepo) GetByEmailAndCompany(ctx context.Context, email, companyID string) (*entity.User, error) {
	u, err := r.GetByEmail(ctx, email)
	if err != nil || u == nil || u.CompanyID != companyID {
		return nil, err
	}
	return u, nil
}

// ChainHaltRepo bloqueos de ámbito en memoria.
type ChainHaltRepo struct{ store *Store }

func NewChainHaltRepository(store *Store) *ChainHaltRepo { return &ChainHaltRepo{store: store} }

func (r *ChainHaltRepo) GetActive(_ context.Context, scope entity.ScopeKey) (*entity.ChainHalt, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	for _, h := range r.store.halts {
		if h.Scope == scope && h.ReleasedAt == nil {
			return &h, nil
		}
	}
	return nil, nil
}

func (r *ChainHaltRepo) Create(_ context.Context, halt *entity.ChainHalt) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, h := range r.store.halts {
		if h.Scope == halt.Scope && h.ReleasedAt == nil {
			return nil
		}
	}
	r.store.halts = append(r.store.halts, *halt)
	return nil
}

func (r *ChainHaltRepo) Release(_ context.Context, scope entity.ScopeKey, releasedBy string, at time.Time) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for i := range r.store.halts {
		h := &r.store.halts[i]
		if h.Scope == scope && h.ReleasedAt == nil {
			t := at
			h.ReleasedAt = &t
			h.ReleasedBy = releasedBy
			return nil
		}
	}
	return domain.ErrNotFound
}
