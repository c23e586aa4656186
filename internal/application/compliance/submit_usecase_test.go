package compliance_test

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sun2dayo/portugal-compliance-sub001/internal/application/dto"
	"github.com/sun2dayo/portugal-compliance-sub001/internal/domain"
	"github.com/sun2dayo/portugal-compliance-sub001/internal/domain/entity"
	"github.com/sun2dayo/portugal-compliance-sub001/internal/domain/fiscal"
)

func TestSubmit_EscenarioFT2025A(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	series := f.withSeries(t, "FT")
	draft := f.createDraft(t, "2025-01-10", "2025-01-10T10:00:00")
	require.Equal(t, "FT2025A/1", draft.ID)
	require.Equal(t, "draft", draft.Status)

	doc, err := f.submit.Submit(ctx, companyID, draft.ID)
	require.NoError(t, err)

	assert.Equal(t, "submitted", doc.Status)
	assert.Equal(t, "AAJFJMVNTN-1", doc.ATCUD)
	assert.Equal(t, series.ID, doc.SeriesID)
	assert.Equal(t, "0", doc.PreviousHash)
	assert.Equal(t, "mI/P6WstHJeBjdHkKc6japJBEv0zH9105506Mi9avH0=", doc.ThisHash)
	require.NotNil(t, doc.SignedAt)

	canonical := "2025-01-10;2025-01-10T10:00:00;FT2025A/1;123.45;0"
	require.NoError(t, f.signer.Verify([]byte(canonical), doc.Signature))

	chars, ok := fiscal.ExtractPrintCharacters(doc.Signature)
	require.True(t, ok)
	assert.Equal(t, chars, doc.PrintChars)

	want := "A:500000000*B:123456789*C:PT*D:FT*E:N*F:2025-01-10*G:FT2025A/1*H:AAJFJMVNTN-1" +
		"*I1:0.45*I2:0.00*I3:0.00*I4:0.00*I5:0.00*I6:100.00*I7:23.00" +
		"*N:0.00*O:123.45*P:0.00*Q:" + chars + "*R:9999"
	assert.Equal(t, want, doc.QRPayload)

	// Persistido.
	stored, err := f.docs.GetByID(ctx, draft.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.DocStatusSubmitted, stored.DocStatus)
	assert.Equal(t, doc.Signature, stored.Signature)
	assert.Equal(t, doc.QRPayload, stored.QRPayload)
}

func TestSubmit_PropiedadDeCadena(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.withSeries(t, "FT")

	var docs []*dto.DocumentResponse
	for i := 0; i < 5; i++ {
		draft := f.createDraft(t, "2025-01-10", "2025-01-10T10:00:00")
		doc, err := f.submit.Submit(ctx, companyID, draft.ID)
		require.NoError(t, err)
		docs = append(docs, doc)
	}
	assert.Equal(t, "0", docs[0].PreviousHash)
	for i := 1; i < len(docs); i++ {
		assert.Equal(t, docs[i-1].ThisHash, docs[i].PreviousHash, "documento %s", docs[i].ID)
		assert.Equal(t, "AAJFJMVNTN-"+strings.TrimPrefix(docs[i].ID, "FT2025A/"), docs[i].ATCUD)
	}

	report, err := f.audit.VerifyScope(ctx, scopeOf(docs[0]))
	require.NoError(t, err)
	assert.True(t, report.Valid)
	assert.False(t, report.Halted)
	assert.Equal(t, 5, report.Documents)
}

func TestSubmit_SegundaEmisionRechazada(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.withSeries(t, "FT")
	draft := f.createDraft(t, "2025-01-10", "2025-01-10T10:00:00")

	first, err := f.submit.Submit(ctx, companyID, draft.ID)
	require.NoError(t, err)
	_, err = f.submit.Submit(ctx, companyID, draft.ID)
	require.ErrorIs(t, err, domain.ErrAlreadySubmitted)

	stored, _ := f.docs.GetByID(ctx, draft.ID)
	assert.Equal(t, first.Signature, stored.Signature)
	assert.Equal(t, first.ThisHash, stored.ThisHash)
}

func TestSubmit_OtraEmpresaNoEncontrado(t *testing.T) {
	f := newFixture(t)
	f.withSeries(t, "FT")
	draft := f.createDraft(t, "2025-01-10", "")
	_, err := f.submit.Submit(context.Background(), "otra", draft.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func assertStillDraft(t *testing.T, f *fixture, id string) {
	t.Helper()
	stored, err := f.docs.GetByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, entity.DocStatusDraft, stored.DocStatus)
	assert.Empty(t, stored.Signature)
	assert.Empty(t, stored.ThisHash)
	assert.Empty(t, stored.PreviousHash)
	assert.Empty(t, stored.ATCUD)
	assert.Empty(t, stored.QRPayload)
}

func TestSubmit_SinSerieFallaCerrado(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	series := f.withSeries(t, "FT")
	draft := f.createDraft(t, "2025-01-10", "")
	require.NoError(t, f.registry.Deactivate(ctx, companyID, series.ID))

	_, err := f.submit.Submit(ctx, companyID, draft.ID)
	require.ErrorIs(t, err, domain.ErrNoActiveSeries)
	assertStillDraft(t, f, draft.ID)

	// Un error de configuración no bloquea el ámbito.
	h, _ := f.halts.GetActive(ctx, scopeOf(draft))
	assert.Nil(t, h)
}

func TestSubmit_SerieSinComunicar(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	_, err := f.registry.CreateSeries(ctx, companyID, dto.CreateSeriesRequest{DocumentType: "FT", Prefix: "FT2025A", ValidFrom: "2025-01-01"})
	require.NoError(t, err)
	draft := f.createDraft(t, "2025-01-10", "")

	_, err = f.submit.Submit(ctx, companyID, draft.ID)
	require.ErrorIs(t, err, domain.ErrSeriesNotCommunicated)
	assertStillDraft(t, f, draft.ID)
}

func TestSubmit_SerieFuturaNoAplica(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.withSeries(t, "FT")
	draft := f.createDraft(t, "2024-12-31", "")

	_, err := f.submit.Submit(ctx, companyID, draft.ID)
	require.ErrorIs(t, err, domain.ErrNoActiveSeries)
}

func TestSubmit_LlaveNoDisponible(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.withSeries(t, "FT")
	draft := f.createDraft(t, "2025-01-10", "")
	f.signers.signer, f.signers.err = nil, domain.ErrKeyNotFound.With("AT_KEY_PATH", "/no/existe.pem", "archivo legible")

	_, err := f.submit.Submit(ctx, companyID, draft.ID)
	require.ErrorIs(t, err, domain.ErrKeyNotFound)
	assertStillDraft(t, f, draft.ID)
}

func TestSubmit_SerieNoRegistradaRechazada(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.withSeries(t, "FT")

	a := f.createDraft(t, "2025-01-10", "")
	_, err := f.submit.Submit(ctx, companyID, a.ID)
	require.NoError(t, err)

	// FT2025B no tiene serie propia: no puede tomar el código de FT2025A.
	req := scenarioRequest("2025-01-10", "")
	req.NamingSeries = "FT2025B"
	_, err = f.documents.Create(ctx, companyID, req)
	require.ErrorIs(t, err, domain.ErrNoActiveSeries)
	assert.False(t, domain.IsFatalForScope(err))

	scope := entity.ScopeKey{CompanyID: companyID, NamingSeries: "FT2025B", DocType: "Sales Invoice"}
	halt, _ := f.halts.GetActive(ctx, scope)
	assert.Nil(t, halt)
	stray, _ := f.docs.GetByID(ctx, "FT2025B/1")
	assert.Nil(t, stray)

	b := f.createDraft(t, "2025-01-10", "")
	doc, err := f.submit.Submit(ctx, companyID, b.ID)
	require.NoError(t, err)
	assert.Equal(t, validationCode+"-2", doc.ATCUD)
}

func TestSubmit_ATCUDDuplicadoBloqueaAmbito(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.withSeries(t, "FT")
	// FT2025B registrada con el código de FT2025A por error del operador.
	_, err := f.registry.CreateSeries(ctx, companyID, dto.CreateSeriesRequest{
		DocumentType: "FT", Prefix: "FT2025B", ValidFrom: "2025-01-01", ValidationCode: validationCode,
	})
	require.NoError(t, err)

	a := f.createDraft(t, "2025-01-10", "")
	_, err = f.submit.Submit(ctx, companyID, a.ID)
	require.NoError(t, err)

	req := scenarioRequest("2025-01-10", "")
	req.NamingSeries = "FT2025B"
	b, err := f.documents.Create(ctx, companyID, req)
	require.NoError(t, err)
	require.Equal(t, "FT2025B/1", b.ID)

	_, err = f.submit.Submit(ctx, companyID, b.ID)
	require.ErrorIs(t, err, domain.ErrDuplicateATCUD)
	assert.True(t, domain.IsFatalForScope(err))
	assertStillDraft(t, f, b.ID)

	halt, _ := f.halts.GetActive(ctx, scopeOf(b))
	require.NotNil(t, halt)
	assert.Equal(t, string(domain.CodeDuplicateATCUD), halt.Code)

	c, err := f.documents.Create(ctx, companyID, req)
	require.NoError(t, err)
	_, err = f.submit.Submit(ctx, companyID, c.ID)
	require.ErrorIs(t, err, domain.ErrChainHalted)

	// El ámbito de FT2025A sigue operativo.
	d := f.createDraft(t, "2025-01-10", "")
	_, err = f.submit.Submit(ctx, companyID, d.ID)
	require.NoError(t, err)

	require.NoError(t, f.audit.Release(ctx, scopeOf(b), "admin@loja.pt"))
	// FT2025B/2 -> AAJFJMVNTN-2 ya lo usa FT2025A/2.
	_, err = f.submit.Submit(ctx, companyID, c.ID)
	require.ErrorIs(t, err, domain.ErrDuplicateATCUD)
}

func TestSubmit_DesempateMismaFecha(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.withSeries(t, "FT")
	a := f.createDraft(t, "2025-01-10", "")
	b := f.createDraft(t, "2025-01-10", "")

	// b se emite primero; a tiene la misma fecha y fue creado antes que b.
	sb, err := f.submit.Submit(ctx, companyID, b.ID)
	require.NoError(t, err)
	sa, err := f.submit.Submit(ctx, companyID, a.ID)
	require.NoError(t, err)

	assert.Equal(t, "0", sb.PreviousHash)
	assert.Equal(t, "0", sa.PreviousHash)

	report, err := f.audit.VerifyScope(ctx, scopeOf(a))
	require.NoError(t, err)
	assert.True(t, report.Valid)
}

func TestSubmit_FechaAnteriorNoEnlazaConPosterior(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.withSeries(t, "FT")

	d10, err := f.submit.Submit(ctx, companyID, f.createDraft(t, "2025-01-10", "").ID)
	require.NoError(t, err)
	d09, err := f.submit.Submit(ctx, companyID, f.createDraft(t, "2025-01-09", "").ID)
	require.NoError(t, err)
	d11, err := f.submit.Submit(ctx, companyID, f.createDraft(t, "2025-01-11", "").ID)
	require.NoError(t, err)

	assert.Equal(t, "0", d09.PreviousHash)
	assert.Equal(t, d10.ThisHash, d11.PreviousHash)

	report, err := f.audit.VerifyScope(ctx, scopeOf(d10))
	require.NoError(t, err)
	assert.True(t, report.Valid)
}

func TestSubmit_ConcurrenteMismoDocumento(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.withSeries(t, "FT")
	draft := f.createDraft(t, "2025-01-10", "")

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.submit.Submit(ctx, companyID, draft.ID)
		}(i)
	}
	wg.Wait()

	ok, already := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case assert.ErrorIs(t, err, domain.ErrAlreadySubmitted):
			already++
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, already)
}

func TestSubmit_ConcurrenteMismoAmbito(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.withSeries(t, "FT")

	const n = 6
	drafts := make([]*dto.DocumentResponse, n)
	for i := range drafts {
		drafts[i] = f.createDraft(t, "2025-01-10", "")
	}

	var wg sync.WaitGroup
	results := make([]*dto.DocumentResponse, n)
	errs := make([]error, n)
	for i := range drafts {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = f.submit.Submit(ctx, companyID, drafts[i].ID)
		}(i)
	}
	wg.Wait()

	atcuds := map[string]bool{}
	for i := range results {
		require.NoError(t, errs[i])
		assert.False(t, atcuds[results[i].ATCUD], "ATCUD repetido %s", results[i].ATCUD)
		atcuds[results[i].ATCUD] = true
	}

	// Cada hash propio es referenciado como anterior como mucho una vez: no hay bifurcaciones.
	seen := map[string]int{}
	for _, r := range results {
		if r.PreviousHash != "0" {
			seen[r.PreviousHash]++
		}
	}
	for h, c := range seen {
		assert.Equal(t, 1, c, "hash %s referenciado %d veces", h, c)
	}

	report, err := f.audit.VerifyScope(ctx, scopeOf(drafts[0]))
	require.NoError(t, err)
	assert.True(t, report.Valid)
	assert.Equal(t, n, report.Documents)
}

func TestSubmit_NotaDeCreditoUsaSerieNC(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.withSeries(t, "NC")
	req := scenarioRequest("2025-01-10", "")
	req.IsReturn = true
	req.NamingSeries = "NC2025A"
	draft, err := f.documents.Create(ctx, companyID, req)
	require.NoError(t, err)

	doc, err := f.submit.Submit(ctx, companyID, draft.ID)
	require.NoError(t, err)
	assert.Equal(t, "AAJFJMVNTN-1", doc.ATCUD)
	assert.Contains(t, doc.QRPayload, "*D:NC*")
}
