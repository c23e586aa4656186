package postgres_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sun2dayo/portugal-compliance-sub001/internal/domain/entity"
	"github.com/sun2dayo/portugal-compliance-sub001/internal/domain/repository"
	"github.com/sun2dayo/portugal-compliance-sub001/internal/infrastructure/postgres"
	"github.com/sun2dayo/portugal-compliance-sub001/pkg/config"
)

// dsnEnv base de datos desechable para las pruebas contra PostgreSQL real.
const dsnEnv = "PTFISCAL_TEST_DATABASE_URL"

type pgEnv struct {
	pool      *pgxpool.Pool
	companyID string
	customer  string
	series    string // serie de numeración propia de la prueba
}

// openPG conecta, migra y siembra empresa y cliente propios. Sin DSN la prueba se omite.
func openPG(t *testing.T) *pgEnv {
	t.Helper()
	dsn := os.Getenv(dsnEnv)
	if dsn == "" {
		t.Skipf("%s no definido", dsnEnv)
	}
	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, config.DBConfig{DatabaseURL: dsn})
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	require.NoError(t, postgres.Migrate(ctx, pool))

	id := uuid.New()
	env := &pgEnv{
		pool:      pool,
		companyID: id.String(),
		customer:  uuid.NewString(),
		series:    "IT" + strings.ToUpper(strings.ReplaceAll(id.String(), "-", "")[:10]),
	}
	now := time.Now().UTC()
	nif := fmt.Sprintf("%09d", id.ID()%1_000_000_000)
	require.NoError(t, postgres.NewCompanyRepository(pool).Create(ctx, &entity.Company{
		ID: env.companyID, Name: "Loja Lda", NIF: nif, Country: "PT", CreatedAt: now, UpdatedAt: now,
	}))
	require.NoError(t, postgres.NewCustomerRepository(pool).Create(ctx, &entity.Customer{
		ID: env.customer, CompanyID: env.companyID, Name: "Cliente", TaxID: "123456789", Country: "PT", CreatedAt: now, UpdatedAt: now,
	}))

	t.Cleanup(func() {
		ctx := context.Background()
		for _, q := range []string{
			`DELETE FROM fiscal_tax_lines WHERE document_id IN (SELECT id FROM fiscal_documents WHERE company_id = $1)`,
			`DELETE FROM fiscal_documents WHERE company_id = $1`,
			`DELETE FROM chain_halts WHERE company_id = $1`,
			`DELETE FROM fiscal_series WHERE company_id = $1`,
			`DELETE FROM customers WHERE company_id = $1`,
			`DELETE FROM companies WHERE id = $1`,
		} {
			_, _ = pool.Exec(ctx, q, env.companyID)
		}
		_, _ = pool.Exec(ctx, `DELETE FROM naming_counters WHERE naming_series LIKE $1`, env.series+"%")
	})
	return env
}

func (e *pgEnv) scope(series string) entity.ScopeKey {
	return entity.ScopeKey{CompanyID: e.companyID, NamingSeries: series, DocType: "Sales Invoice"}
}

func (e *pgEnv) document(id, posting string, created time.Time, submitted bool) *entity.FiscalDocument {
	pd, _ := time.Parse("2006-01-02", posting)
	d := &entity.FiscalDocument{
		ID: id, CompanyID: e.companyID, CustomerID: e.customer, DocType: "Sales Invoice",
		NamingSeries: e.series, PostingDate: pd, EmissionAt: created, CreatedAt: created,
		GrandTotal: decimal.RequireFromString("123.45"), CompanyNIF: "500000000", CustomerNIF: "123456789",
		CustomerCountry: "PT", DocStatus: entity.DocStatusDraft,
	}
	if submitted {
		signed := created
		d.DocStatus = entity.DocStatusSubmitted
		d.ThisHash = "hash-" + id
		d.PreviousHash = "0"
		d.SignedAt = &signed
	}
	return d
}

func noop(repository.FiscalDocumentRepository, repository.FiscalSeriesRepository) error { return nil }

func TestTxRunner_RunInScope_SerializaMismoAmbito(t *testing.T) {
	env := openPG(t)
	runner := postgres.NewTxRunner(env.pool)
	scope := env.scope(env.series)

	var active, maxActive atomic.Int32
	var wg sync.WaitGroup
	errs := make(chan error, 6)
	for i := 0; i < 6; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- runner.RunInScope(context.Background(), scope, func(repository.FiscalDocumentRepository, repository.FiscalSeriesRepository) error {
				n := active.Add(1)
				for {
					m := maxActive.Load()
					if n <= m || maxActive.CompareAndSwap(m, n) {
						break
					}
				}
				time.Sleep(30 * time.Millisecond)
				active.Add(-1)
				return nil
			})
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}
	assert.Equal(t, int32(1), maxActive.Load())
}

func TestTxRunner_RunInScope_LockPorAmbito(t *testing.T) {
	env := openPG(t)
	runner := postgres.NewTxRunner(env.pool)
	ctx := context.Background()

	entered := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- runner.RunInScope(ctx, env.scope(env.series), func(repository.FiscalDocumentRepository, repository.FiscalSeriesRepository) error {
			close(entered)
			<-release
			return nil
		})
	}()
	<-entered

	// Otro ámbito no espera.
	other, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	require.NoError(t, runner.RunInScope(other, env.scope(env.series+"B"), noop))

	// El mismo ámbito espera al lock hasta agotar el contexto sin ejecutar el callback.
	same, cancelSame := context.WithTimeout(ctx, 300*time.Millisecond)
	defer cancelSame()
	called := false
	err := runner.RunInScope(same, env.scope(env.series), func(repository.FiscalDocumentRepository, repository.FiscalSeriesRepository) error {
		called = true
		return nil
	})
	require.Error(t, err)
	assert.False(t, called)

	close(release)
	require.NoError(t, <-done)
}

func TestTxRunner_RunInScope_RollbackRevierteNumeracion(t *testing.T) {
	env := openPG(t)
	runner := postgres.NewTxRunner(env.pool)
	ctx := context.Background()
	boom := errors.New("fallo tras numerar")

	err := runner.RunInScope(ctx, env.scope(env.series), func(docs repository.FiscalDocumentRepository, _ repository.FiscalSeriesRepository) error {
		n, err := docs.NextSequence(ctx, env.series)
		require.NoError(t, err)
		require.NoError(t, docs.Create(ctx, env.document(fmt.Sprintf("%s/%d", env.series, n), "2025-01-10", time.Now().UTC(), false)))
		return boom
	})
	require.ErrorIs(t, err, boom)

	docs := postgres.NewFiscalDocumentRepository(env.pool)
	got, err := docs.GetByID(ctx, env.series+"/1")
	require.NoError(t, err)
	assert.Nil(t, got)
	n, err := docs.NextSequence(ctx, env.series)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestQueryLatestSubmitted_Orden(t *testing.T) {
	env := openPG(t)
	ctx := context.Background()
	docs := postgres.NewFiscalDocumentRepository(env.pool)
	at := func(h int) time.Time { return time.Date(2025, 1, 10, h, 0, 0, 0, time.UTC) }
	id := func(n int) string { return fmt.Sprintf("%s/%d", env.series, n) }

	for _, d := range []*entity.FiscalDocument{
		env.document(id(1), "2025-01-10", at(10), true),
		env.document(id(2), "2025-01-10", at(11), true),
		env.document(id(5), "2025-01-10", at(11), true), // mismo created_at que /2: desempata el id
		env.document(id(3), "2025-01-12", at(9), true),
		env.document(id(4), "2025-01-10", at(12), false), // borrador: no cuenta
	} {
		require.NoError(t, docs.Create(ctx, d))
	}
	scope := env.scope(env.series)
	day := func(s string) time.Time { tm, _ := time.Parse("2006-01-02", s); return tm }

	l, err := docs.QueryLatestSubmitted(ctx, scope, "", day("2025-01-11"))
	require.NoError(t, err)
	require.NotNil(t, l)
	assert.Equal(t, id(5), l.DocumentID)
	assert.Equal(t, "hash-"+id(5), l.ThisHash)

	l, err = docs.QueryLatestSubmitted(ctx, scope, id(5), day("2025-01-11"))
	require.NoError(t, err)
	assert.Equal(t, id(2), l.DocumentID)

	l, err = docs.QueryLatestSubmitted(ctx, scope, "", day("2025-01-12"))
	require.NoError(t, err)
	assert.Equal(t, id(3), l.DocumentID)

	l, err = docs.QueryLatestSubmitted(ctx, scope, "", day("2025-01-09"))
	require.NoError(t, err)
	assert.Nil(t, l)

	l, err = docs.QueryLatestSubmitted(ctx, env.scope(env.series+"B"), "", day("2025-01-12"))
	require.NoError(t, err)
	assert.Nil(t, l)
}
