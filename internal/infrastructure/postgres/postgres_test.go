package postgres_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sun2dayo/portugal-compliance-sub001/internal/domain"
	"github.com/sun2dayo/portugal-compliance-sub001/internal/domain/entity"
	"github.com/sun2dayo/portugal-compliance-sub001/internal/infrastructure/postgres"
)

// fakeQuerier registra los Exec y devuelve la respuesta configurada.
type fakeQuerier struct {
	execs []string
	args  [][]any
	tag   pgconn.CommandTag
	err   error
}

func (f *fakeQuerier) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.execs = append(f.execs, sql)
	f.args = append(f.args, args)
	return f.tag, f.err
}

func (f *fakeQuerier) Query(context.Context, string, ...any) (pgx.Rows, error) {
	return nil, errors.New("no implementado")
}

func (f *fakeQuerier) QueryRow(context.Context, string, ...any) pgx.Row {
	return nil
}

func TestMigrate_AplicaEsquema(t *testing.T) {
	q := &fakeQuerier{}
	require.NoError(t, postgres.Migrate(context.Background(), q))
	require.NotEmpty(t, q.execs)

	all := strings.Join(q.execs, "\n")
	for _, table := range []string{"companies", "users", "customers", "fiscal_series", "naming_counters", "fiscal_documents", "fiscal_tax_lines", "chain_halts"} {
		assert.Contains(t, all, "CREATE TABLE IF NOT EXISTS "+table, table)
	}
	for _, args := range q.args {
		assert.Empty(t, args)
	}
}

func TestMigrate_PropagaError(t *testing.T) {
	q := &fakeQuerier{err: errors.New("conexión cerrada")}
	err := postgres.Migrate(context.Background(), q)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "conexión cerrada")
}

func TestFiscalSeriesRepo_Create_Duplicada(t *testing.T) {
	q := &fakeQuerier{err: &pgconn.PgError{Code: "23505"}}
	repo := postgres.NewFiscalSeriesRepository(q)

	err := repo.Create(context.Background(), &entity.FiscalSeries{
		ID: "s1", CompanyID: "c1", DocumentType: "FT", Prefix: "FT2025A",
		ValidFrom: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), IsActive: true,
	})
	assert.True(t, errors.Is(err, domain.ErrSeriesConflict))
}

func TestChainHaltRepo_Release(t *testing.T) {
	scope := entity.ScopeKey{CompanyID: "c1", NamingSeries: "FT2025A", DocType: "Sales Invoice"}
	now := time.Now()

	q := &fakeQuerier{tag: pgconn.NewCommandTag("UPDATE 0")}
	err := postgres.NewChainHaltRepository(q).Release(context.Background(), scope, "u1", now)
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	q = &fakeQuerier{tag: pgconn.NewCommandTag("UPDATE 1")}
	require.NoError(t, postgres.NewChainHaltRepository(q).Release(context.Background(), scope, "u1", now))
	require.Len(t, q.args, 1)
	assert.Equal(t, []any{"c1", "FT2025A", "Sales Invoice", now, "u1"}, q.args[0])
}
