package compliance_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sun2dayo/portugal-compliance-sub001/internal/application/dto"
	"github.com/sun2dayo/portugal-compliance-sub001/internal/domain"
	"github.com/sun2dayo/portugal-compliance-sub001/internal/domain/entity"
)

func submitN(t *testing.T, f *fixture, n int) []*dto.DocumentResponse {
	t.Helper()
	f.withSeries(t, "FT")
	out := make([]*dto.DocumentResponse, 0, n)
	for i := 0; i < n; i++ {
		d, err := f.submit.Submit(context.Background(), companyID, f.createDraft(t, "2025-01-10", "").ID)
		require.NoError(t, err)
		out = append(out, d)
	}
	return out
}

func TestVerifyScope_AmbitoVacio(t *testing.T) {
	f := newFixture(t)
	f.signers.signer, f.signers.err = nil, domain.ErrKeyNotFound
	report, err := f.audit.VerifyScope(context.Background(), entity.ScopeKey{CompanyID: companyID, NamingSeries: "FT2025A", DocType: "Sales Invoice"})
	require.NoError(t, err)
	assert.True(t, report.Valid)
	assert.Zero(t, report.Documents)
}

func TestVerifyScope_HashAlteradoBloquea(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	docs := submitN(t, f, 3)

	stored, err := f.docs.GetByID(ctx, docs[1].ID)
	require.NoError(t, err)
	stored.ThisHash = "AAAA"
	require.NoError(t, f.docs.UpdateFiscalFields(ctx, stored))

	report, err := f.audit.VerifyScope(ctx, scopeOf(docs[0]))
	require.NoError(t, err)
	assert.False(t, report.Valid)
	assert.True(t, report.Halted)
	require.NotNil(t, report.Error)
	assert.Equal(t, string(domain.CodeBrokenChain), report.Error.Code)
	assert.Equal(t, "this_hash", report.Error.Field)
	assert.Equal(t, "AAAA", report.Error.Value)

	_, err = f.submit.Submit(ctx, companyID, f.createDraft(t, "2025-01-10", "").ID)
	require.ErrorIs(t, err, domain.ErrChainHalted)

	require.NoError(t, f.audit.Release(ctx, scopeOf(docs[0]), "admin@loja.pt"))
	h, _ := f.halts.GetActive(ctx, scopeOf(docs[0]))
	assert.Nil(t, h)
	assert.ErrorIs(t, f.audit.Release(ctx, scopeOf(docs[0]), "admin@loja.pt"), domain.ErrNotFound)
}

func TestVerifyScope_EnlaceRoto(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	docs := submitN(t, f, 3)

	stored, _ := f.docs.GetByID(ctx, docs[2].ID)
	stored.PreviousHash = docs[0].ThisHash
	require.NoError(t, f.docs.UpdateFiscalFields(ctx, stored))

	report, err := f.audit.VerifyScope(ctx, scopeOf(docs[0]))
	require.NoError(t, err)
	assert.False(t, report.Valid)
	assert.Equal(t, "previous_hash", report.Error.Field)
	assert.Equal(t, docs[1].ThisHash, report.Error.Expected)
}

func TestVerifyScope_FirmaAjena(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	docs := submitN(t, f, 2)

	stored, _ := f.docs.GetByID(ctx, docs[1].ID)
	stored.Signature = docs[0].Signature
	require.NoError(t, f.docs.UpdateFiscalFields(ctx, stored))

	report, err := f.audit.VerifyScope(ctx, scopeOf(docs[0]))
	require.NoError(t, err)
	assert.False(t, report.Valid)
	assert.Equal(t, string(domain.CodeSignatureVerification), report.Error.Code)
	assert.True(t, report.Halted)
}

func TestVerifyScope_ATCUDRepetido(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	docs := submitN(t, f, 2)

	stored, _ := f.docs.GetByID(ctx, docs[1].ID)
	stored.ATCUD = docs[0].ATCUD
	require.NoError(t, f.docs.UpdateFiscalFields(ctx, stored))

	report, err := f.audit.VerifyScope(ctx, scopeOf(docs[0]))
	require.NoError(t, err)
	assert.False(t, report.Valid)
	assert.Equal(t, string(domain.CodeDuplicateATCUD), report.Error.Code)
}

func TestVerifyScope_LlaveNoDisponible(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	docs := submitN(t, f, 1)
	f.signers.signer, f.signers.err = nil, domain.ErrKeyDecrypt

	_, err := f.audit.VerifyScope(ctx, scopeOf(docs[0]))
	assert.ErrorIs(t, err, domain.ErrKeyDecrypt)
	h, _ := f.halts.GetActive(ctx, scopeOf(docs[0]))
	assert.Nil(t, h)
}
