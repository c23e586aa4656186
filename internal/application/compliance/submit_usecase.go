package compliance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sun2dayo/portugal-compliance-sub001/internal/application/dto"
	"github.com/sun2dayo/portugal-compliance-sub001/internal/domain"
	"github.com/sun2dayo/portugal-compliance-sub001/internal/domain/entity"
	"github.com/sun2dayo/portugal-compliance-sub001/internal/domain/fiscal"
	"github.com/sun2dayo/portugal-compliance-sub001/internal/domain/repository"
	"github.com/sun2dayo/portugal-compliance-sub001/pkg/logger"
)

var _ logger.ContextError = (*domain.FiscalError)(nil)

// SubmitUseCase emite un documento: firma, ATCUD y QR dentro de una transacción con el
// ámbito bloqueado. Cualquier fallo deja el documento en borrador sin campos fiscales.
type SubmitUseCase struct {
	txRunner     ScopeTxRunner
	docRepo      repository.FiscalDocumentRepository
	companyRepo  repository.CompanyRepository
	customerRepo repository.CustomerRepository
	haltRepo     repository.ChainHaltRepository
	signers      SignerProvider
	settings     *Settings
	qr           QRRenderer
	log          *logger.Logger
	now          func() time.Time
}

// NewSubmitUseCase construye el caso de uso.
func NewSubmitUseCase(
	txRunner ScopeTxRunner,
	docRepo repository.FiscalDocumentRepository,
	companyRepo repository.CompanyRepository,
	customerRepo repository.CustomerRepository,
	haltRepo repository.ChainHaltRepository,
	signers SignerProvider,
	settings *Settings,
	qr QRRenderer,
	log *logger.Logger,
) *SubmitUseCase {
	return &SubmitUseCase{
		txRunner:     txRunner,
		docRepo:      docRepo,
		companyRepo:  companyRepo,
		customerRepo: customerRepo,
		haltRepo:     haltRepo,
		signers:      signers,
		settings:     settings,
		qr:           qr,
		log:          log,
		now:          time.Now,
	}
}

// Submit emite el documento de la empresa. Errores:
//   - domain.ErrNotFound si no existe o es de otra empresa.
//   - domain.ErrAlreadySubmitted si ya fue emitido.
//   - domain.ErrChainHalted si el ámbito está bloqueado.
//   - errores de configuración (serie, llave) o de datos con su contexto.
//
// Los errores de integridad (ATCUD duplicado) bloquean el ámbito.
func (uc *SubmitUseCase) Submit(ctx context.Context, companyID, documentID string) (*dto.DocumentResponse, error) {
	doc, err := uc.docRepo.GetByID(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("submit: obtener documento: %w", err)
	}
	if doc == nil || doc.CompanyID != companyID {
		return nil, domain.ErrNotFound
	}
	if doc.DocStatus != entity.DocStatusDraft {
		return nil, domain.ErrAlreadySubmitted.With("document_id", doc.ID, "borrador")
	}
	scope := doc.Scope()
	log := uc.log.Sub(uc.log.With().Str("scope", scope.String()).Str("document_id", doc.ID))

	if err := uc.ensureNotHalted(ctx, scope); err != nil {
		logger.Fiscal(log.Warn(), err).Msg("emisión rechazada")
		return nil, err
	}
	if err := fiscal.ValidateForSigning(doc); err != nil {
		logger.Fiscal(log.Error(), err).Msg("documento incompleto")
		return nil, err
	}

	// La llave se carga antes de tomar el bloqueo del ámbito.
	signer, err := uc.signers.Signer(ctx)
	if err != nil {
		logger.Fiscal(log.Error(), err).Msg("llave de firma no disponible")
		return nil, err
	}

	var signed *entity.FiscalDocument
	err = uc.txRunner.RunInScope(ctx, scope, func(docRepo repository.FiscalDocumentRepository, seriesRepo repository.FiscalSeriesRepository) error {
		// Releer bajo bloqueo: otra emisión concurrente pudo ganar.
		cur, err := docRepo.GetByID(ctx, documentID)
		if err != nil {
			return fmt.Errorf("submit: releer documento: %w", err)
		}
		if cur == nil {
			return domain.ErrNotFound
		}
		if cur.DocStatus != entity.DocStatusDraft {
			return domain.ErrAlreadySubmitted.With("document_id", cur.ID, "borrador")
		}
		lines, err := docRepo.GetTaxLines(ctx, cur.ID)
		if err != nil {
			return fmt.Errorf("submit: obtener líneas: %w", err)
		}
		cur.TaxLines = lines
		if err := uc.fillSnapshots(ctx, cur); err != nil {
			return err
		}

		registry := NewSeriesRegistry(seriesRepo, docRepo, uc.log)
		atcuds := NewATCUDGenerator(registry, docRepo, uc.settings.DocTypes)
		// Resolver la serie antes de firmar: sin serie comunicada no se toca la cadena.
		gen, err := atcuds.Generate(ctx, cur)
		if err != nil {
			return err
		}
		if err := atcuds.EnsureUnique(ctx, gen.ATCUD, cur.ID); err != nil {
			return err
		}

		docSigner := NewDocumentSigner(NewHashChain(docRepo, uc.log), signer, docRepo, uc.log)
		docSigner.now = uc.now
		if _, err := docSigner.Process(ctx, cur); err != nil {
			return err
		}

		cur.ATCUD = gen.ATCUD
		cur.SeriesID = gen.SeriesID
		cur.DocStatus = entity.DocStatusSubmitted
		payload, err := NewQRCodePayloadBuilder(uc.settings, uc.qr).Build(cur, cur.ATCUD, cur.PrintChars)
		if err != nil {
			return err
		}
		cur.QRPayload = payload
		if err := docRepo.UpdateFiscalFields(ctx, cur); err != nil {
			return fmt.Errorf("submit: persistir campos fiscales: %w", err)
		}
		signed = cur
		return nil
	})
	if err != nil {
		logger.Fiscal(log.Error(), err).Msg("emisión abortada")
		if domain.IsFatalForScope(err) {
			uc.halt(ctx, scope, err)
		}
		return nil, err
	}

	log.Info().Str("atcud", signed.ATCUD).Str("this_hash", signed.ThisHash).
		Str("previous_hash", signed.PreviousHash).Msg("documento emitido")
	return ToDocumentResponse(signed), nil
}

func (uc *SubmitUseCase) ensureNotHalted(ctx context.Context, scope entity.ScopeKey) error {
	h, err := uc.haltRepo.GetActive(ctx, scope)
	if err != nil {
		return fmt.Errorf("submit: consultar bloqueo: %w", err)
	}
	if h != nil {
		return domain.ErrChainHalted.
			Msg("ámbito %s bloqueado desde %s: %s", scope.String(), h.CreatedAt.Format(time.RFC3339), h.Reason).
			With("scope", scope.String(), "liberación manual")
	}
	return nil
}

// fillSnapshots completa NIF del emisor y NIF/país del adquirente si el borrador no los trae.
func (uc *SubmitUseCase) fillSnapshots(ctx context.Context, doc *entity.FiscalDocument) error {
	if doc.CompanyNIF == "" {
		company, err := uc.companyRepo.GetByID(ctx, doc.CompanyID)
		if err != nil {
			return fmt.Errorf("submit: obtener empresa: %w", err)
		}
		if company != nil {
			doc.CompanyNIF = company.NIF
		}
	}
	if (doc.CustomerNIF == "" || doc.CustomerCountry == "") && doc.CustomerID != "" {
		customer, err := uc.customerRepo.GetByID(ctx, doc.CustomerID)
		if err != nil {
			return fmt.Errorf("submit: obtener cliente: %w", err)
		}
		if customer != nil {
			if doc.CustomerNIF == "" {
				doc.CustomerNIF = customer.TaxID
			}
			if doc.CustomerCountry == "" {
				doc.CustomerCountry = customer.Country
			}
		}
	}
	return nil
}

// halt registra el bloqueo fuera de la transacción abortada.
func (uc *SubmitUseCase) halt(ctx context.Context, scope entity.ScopeKey, cause error) {
	var fe *domain.FiscalError
	code := ""
	if errors.As(cause, &fe) {
		code = string(fe.Code)
	}
	h := &entity.ChainHalt{Scope: scope, Reason: cause.Error(), Code: code, CreatedAt: uc.now()}
	if err := uc.haltRepo.Create(context.WithoutCancel(ctx), h); err != nil {
		uc.log.Error().Err(err).Str("scope", scope.String()).Msg("no se pudo registrar el bloqueo del ámbito")
		return
	}
	uc.log.Error().Str("scope", scope.String()).Str("code", code).Msg("ámbito bloqueado hasta resolución manual")
}
