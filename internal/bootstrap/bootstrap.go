// Package bootstrap arma las dependencias compartidas por cmd/api y cmd/ptfiscal:
// persistencia (PostgreSQL o memoria), custodia de la llave y casos de uso fiscales.
package bootstrap

import (
	"context"
	"fmt"

	"github.com/sun2dayo/portugal-compliance-sub001/internal/application/compliance"
	"github.com/sun2dayo/portugal-compliance-sub001/internal/domain/repository"
	"github.com/sun2dayo/portugal-compliance-sub001/internal/infrastructure/keystore"
	"github.com/sun2dayo/portugal-compliance-sub001/internal/infrastructure/memory"
	"github.com/sun2dayo/portugal-compliance-sub001/internal/infrastructure/pdf"
	"github.com/sun2dayo/portugal-compliance-sub001/internal/infrastructure/postgres"
	"github.com/sun2dayo/portugal-compliance-sub001/internal/infrastructure/qrcode"
	"github.com/sun2dayo/portugal-compliance-sub001/internal/infrastructure/signer"
	"github.com/sun2dayo/portugal-compliance-sub001/pkg/config"
	"github.com/sun2dayo/portugal-compliance-sub001/pkg/logger"
)

// Stores repositorios y runner transaccional del backend configurado (AT_STORE).
type Stores struct {
	Companies repository.CompanyRepository
	Customers repository.CustomerRepository
	Users     repository.UserRepository
	Documents repository.FiscalDocumentRepository
	Series    repository.FiscalSeriesRepository
	Halts     repository.ChainHaltRepository
	TxRunner  compliance.ScopeTxRunner
}

// OpenStores abre el backend. El close devuelto libera el pool (no-op en memoria).
func OpenStores(ctx context.Context, cfg *config.Config, log *logger.Logger) (*Stores, func(), error) {
	if cfg.AT.Store == "memory" {
		log.Warn().Msg("AT_STORE=memory: los documentos no sobreviven al reinicio")
		st := memory.NewStore()
		return &Stores{
			Companies: memory.NewCompanyRepository(st),
			Customers: memory.NewCustomerRepository(st),
			Users:     memory.NewUserRepository(st),
			Documents: memory.NewDocumentRepository(st),
			Series:    memory.NewSeriesRepository(st),
			Halts:     memory.NewChainHaltRepository(st),
			TxRunner:  memory.NewTxRunner(st),
		}, func() {}, nil
	}

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		return nil, nil, fmt.Errorf("conexión a PostgreSQL: %w", err)
	}
	if cfg.DB.AutoMigrate {
		if err := postgres.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, err
		}
		log.Info().Msg("migraciones aplicadas")
	}
	return &Stores{
		Companies: postgres.NewCompanyRepository(pool),
		Customers: postgres.NewCustomerRepository(pool),
		Users:     postgres.NewUserRepository(pool),
		Documents: postgres.NewFiscalDocumentRepository(pool),
		Series:    postgres.NewFiscalSeriesRepository(pool),
		Halts:     postgres.NewChainHaltRepository(pool),
		TxRunner:  postgres.NewTxRunner(pool),
	}, pool.Close, nil
}

// Fiscal casos de uso de la cadena de firma.
type Fiscal struct {
	Settings  *compliance.Settings
	Custody   *keystore.Custody
	Signers   *signer.Provider
	QR        *qrcode.Renderer
	Registry  *compliance.SeriesRegistry
	Documents *compliance.DocumentUseCase
	Submit    *compliance.SubmitUseCase
	Audit     *compliance.AuditUseCase
}

// NewFiscal valida la configuración AT y construye los casos de uso. Un error aquí
// impide arrancar: sin configuración válida no se firma nada.
func NewFiscal(cfg *config.Config, st *Stores, log *logger.Logger) (*Fiscal, error) {
	settings, err := compliance.NewSettings(compliance.SettingsInput{
		CertificateNumber: cfg.AT.CertificateNumber,
		TaxRegion:         cfg.AT.TaxRegion,
		TaxBrackets:       cfg.AT.TaxBrackets,
		DocTypeMapVersion: cfg.AT.DocTypeMapVersion,
	})
	if err != nil {
		return nil, err
	}
	custody := keystore.NewCustody(keystore.Config{
		Path:     cfg.AT.KeyPath,
		Password: cfg.AT.KeyPassword,
		Timeout:  cfg.AT.KeyLoadTimeout,
		Cache:    cfg.AT.KeyCache,
	})
	signers := signer.NewProvider(custody)
	qr := qrcode.NewRenderer(0)
	fiscalLog := log.Sub(log.With().Str("component", "fiscal"))

	return &Fiscal{
		Settings:  settings,
		Custody:   custody,
		Signers:   signers,
		QR:        qr,
		Registry:  compliance.NewSeriesRegistry(st.Series, st.Documents, fiscalLog),
		Documents: compliance.NewDocumentUseCase(st.TxRunner, st.Documents, st.Companies, st.Customers, settings, qr, pdf.NewMarotoRenderer(), fiscalLog),
		Submit:    compliance.NewSubmitUseCase(st.TxRunner, st.Documents, st.Companies, st.Customers, st.Halts, signers, settings, qr, fiscalLog),
		Audit:     compliance.NewAuditUseCase(st.Documents, st.Halts, signers, fiscalLog),
	}, nil
}
