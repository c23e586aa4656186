package compliance_test

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/sun2dayo/portugal-compliance-sub001/internal/application/compliance"
	"github.com/sun2dayo/portugal-compliance-sub001/internal/application/dto"
	"github.com/sun2dayo/portugal-compliance-sub001/internal/domain/entity"
	"github.com/sun2dayo/portugal-compliance-sub001/internal/infrastructure/memory"
	"github.com/sun2dayo/portugal-compliance-sub001/internal/infrastructure/qrcode"
	"github.com/sun2dayo/portugal-compliance-sub001/internal/infrastructure/signer"
	"github.com/sun2dayo/portugal-compliance-sub001/pkg/at"
	"github.com/sun2dayo/portugal-compliance-sub001/pkg/logger"
)

const (
	companyID      = "c1"
	customerID     = "cu1"
	validationCode = "AAJFJMVNTN"
)

var (
	keyOnce sync.Once
	testKey *rsa.PrivateKey
)

func privateKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	keyOnce.Do(func() {
		k, err := rsa.GenerateKey(rand.Reader, 2048)
		if err != nil {
			panic(err)
		}
		testKey = k
	})
	return testKey
}

// staticSigners entrega siempre el mismo firmador (o el mismo error).
type staticSigners struct {
	signer at.Signer
	err    error
}

func (s staticSigners) Signer(context.Context) (at.Signer, error) {
	return s.signer, s.err
}

type fakePrinter struct {
	last *compliance.PrintDocument
}

func (p *fakePrinter) RenderDocument(_ context.Context, doc *compliance.PrintDocument) ([]byte, error) {
	p.last = doc
	return []byte("%PDF-1.4"), nil
}

type fixture struct {
	store     *memory.Store
	docs      *memory.DocumentRepo
	series    *memory.SeriesRepo
	halts     *memory.ChainHaltRepo
	signer    *signer.RSASigner
	signers   *staticSigners
	settings  *compliance.Settings
	printer   *fakePrinter
	registry  *compliance.SeriesRegistry
	documents *compliance.DocumentUseCase
	submit    *compliance.SubmitUseCase
	audit     *compliance.AuditUseCase
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore()
	f := &fixture{
		store:   store,
		docs:    memory.NewDocumentRepository(store),
		series:  memory.NewSeriesRepository(store),
		halts:   memory.NewChainHaltRepository(store),
		signer:  signer.NewRSASigner(privateKey(t)),
		printer: &fakePrinter{},
	}
	f.signers = &staticSigners{signer: f.signer}

	settings, err := compliance.NewSettings(compliance.SettingsInput{
		CertificateNumber: "9999",
		TaxRegion:         "PT",
		DocTypeMapVersion: "2023",
	})
	require.NoError(t, err)
	f.settings = settings

	companies := memory.NewCompanyRepository(store)
	customers := memory.NewCustomerRepository(store)
	now := time.Now()
	require.NoError(t, companies.Create(ctx, &entity.Company{ID: companyID, Name: "Loja Lda", NIF: "500000000", Country: "PT", CreatedAt: now}))
	require.NoError(t, customers.Create(ctx, &entity.Customer{ID: customerID, CompanyID: companyID, Name: "Cliente", TaxID: "123456789", Country: "PT", CreatedAt: now}))

	log := logger.Nop()
	runner := memory.NewTxRunner(store)
	qr := qrcode.NewRenderer(0)
	f.registry = compliance.NewSeriesRegistry(f.series, f.docs, log)
	f.documents = compliance.NewDocumentUseCase(runner, f.docs, companies, customers, settings, qr, f.printer, log)
	f.submit = compliance.NewSubmitUseCase(runner, f.docs, companies, customers, f.halts, f.signers, settings, qr, log)
	f.audit = compliance.NewAuditUseCase(f.docs, f.halts, f.signers, log)
	return f
}

// withSeries crea y comunica la serie FT de la empresa.
func (f *fixture) withSeries(t *testing.T, docType string) *dto.SeriesResponse {
	t.Helper()
	s, err := f.registry.CreateSeries(context.Background(), companyID, dto.CreateSeriesRequest{
		DocumentType:   docType,
		Prefix:         docType + "2025A",
		ValidFrom:      "2025-01-01",
		ValidationCode: validationCode,
	})
	require.NoError(t, err)
	return s
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// scenarioRequest borrador FT2025A de 123.45 con base exenta 0.45 y base normal 100.
func scenarioRequest(postingDate, emission string) dto.CreateDocumentRequest {
	return dto.CreateDocumentRequest{
		CustomerID:   customerID,
		DocType:      "Sales Invoice",
		NamingSeries: "FT2025A",
		PostingDate:  postingDate,
		EmissionAt:   emission,
		TaxLines: []dto.TaxLineRequest{
			{Rate: dec("23"), NetBase: dec("100"), TaxAmount: dec("23")},
			{Rate: dec("0"), NetBase: dec("0.45"), TaxAmount: dec("0")},
		},
	}
}

func (f *fixture) createDraft(t *testing.T, postingDate, emission string) *dto.DocumentResponse {
	t.Helper()
	d, err := f.documents.Create(context.Background(), companyID, scenarioRequest(postingDate, emission))
	require.NoError(t, err)
	return d
}

func scopeOf(d *dto.DocumentResponse) entity.ScopeKey {
	return entity.ScopeKey{CompanyID: d.CompanyID, NamingSeries: d.NamingSeries, DocType: d.DocType}
}
