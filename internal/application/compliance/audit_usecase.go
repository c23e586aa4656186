package compliance

import (
	"context"
	"fmt"
	"time"

	"github.com/sun2dayo/portugal-compliance-sub001/internal/application/dto"
	"github.com/sun2dayo/portugal-compliance-sub001/internal/domain"
	"github.com/sun2dayo/portugal-compliance-sub001/internal/domain/entity"
	"github.com/sun2dayo/portugal-compliance-sub001/internal/domain/fiscal"
	"github.com/sun2dayo/portugal-compliance-sub001/internal/domain/repository"
	"github.com/sun2dayo/portugal-compliance-sub001/pkg/at"
	"github.com/sun2dayo/portugal-compliance-sub001/pkg/logger"
)

// AuditUseCase verifica la cadena de un ámbito y administra sus bloqueos.
type AuditUseCase struct {
	docRepo  repository.FiscalDocumentRepository
	haltRepo repository.ChainHaltRepository
	signers  SignerProvider
	log      *logger.Logger
	now      func() time.Time
}

// NewAuditUseCase construye el caso de uso.
func NewAuditUseCase(docRepo repository.FiscalDocumentRepository, haltRepo repository.ChainHaltRepository, signers SignerProvider, log *logger.Logger) *AuditUseCase {
	return &AuditUseCase{docRepo: docRepo, haltRepo: haltRepo, signers: signers, log: log, now: time.Now}
}

// VerifyScope recalcula hashes y enlaces del ámbito, verifica cada firma con la llave
// pública y comprueba formato y unicidad de los ATCUD. Una rotura bloquea el ámbito y se
// informa en el reporte (el error de retorno queda para fallos de E/S o de llave).
func (uc *AuditUseCase) VerifyScope(ctx context.Context, scope entity.ScopeKey) (*dto.ChainReport, error) {
	docs, err := uc.docRepo.ListSubmittedInScope(ctx, scope)
	if err != nil {
		return nil, fmt.Errorf("audit: listar documentos: %w", err)
	}
	report := &dto.ChainReport{
		CompanyID:    scope.CompanyID,
		NamingSeries: scope.NamingSeries,
		DocType:      scope.DocType,
		Documents:    len(docs),
		Valid:        true,
		CheckedAt:    uc.now(),
	}

	var signer at.Signer
	if len(docs) > 0 {
		if signer, err = uc.signers.Signer(ctx); err != nil {
			return nil, err
		}
	}
	if verr := check(docs, signer); verr != nil {
		report.Valid = false
		report.Error = ToErrorResponse(verr)
		logger.Fiscal(uc.log.Error(), verr).Str("scope", scope.String()).Msg("auditoría de cadena fallida")
		halt := &entity.ChainHalt{Scope: scope, Reason: verr.Error(), Code: string(domain.CodeBrokenChain), CreatedAt: uc.now()}
		if report.Error != nil {
			halt.Code = report.Error.Code
		}
		if err := uc.haltRepo.Create(ctx, halt); err != nil {
			return nil, fmt.Errorf("audit: registrar bloqueo: %w", err)
		}
	}

	h, err := uc.haltRepo.GetActive(ctx, scope)
	if err != nil {
		return nil, fmt.Errorf("audit: consultar bloqueo: %w", err)
	}
	report.Halted = h != nil
	if report.Valid {
		uc.log.Info().Str("scope", scope.String()).Int("documents", len(docs)).Bool("halted", report.Halted).
			Msg("cadena verificada")
	}
	return report, nil
}

// check devuelve el primer error de integridad del ámbito.
func check(docs []*entity.FiscalDocument, signer at.Signer) error {
	links := make([]fiscal.LinkCheck, 0, len(docs))
	for _, d := range docs {
		links = append(links, fiscal.LinkCheck{
			Input:        signingInput(d),
			CreatedAt:    d.CreatedAt,
			PreviousHash: d.PreviousHash,
			ThisHash:     d.ThisHash,
		})
	}
	if err := fiscal.VerifyChain(links); err != nil {
		return err
	}

	seen := make(map[string]string, len(docs))
	for _, d := range docs {
		if err := fiscal.ValidateATCUD(d.ATCUD); err != nil {
			return domain.ErrBrokenChain.Msg("ATCUD inválido en el documento %s", d.ID).Wrap(err).
				With("atcud", d.ATCUD, "^[A-Z0-9]{1,10}-\\d+$")
		}
		if other, ok := seen[d.ATCUD]; ok {
			return domain.ErrDuplicateATCUD.Msg("ATCUD %s repetido en %s y %s", d.ATCUD, other, d.ID).
				With("atcud", d.ATCUD, "único entre documentos fiscales")
		}
		seen[d.ATCUD] = d.ID
	}

	for _, d := range docs {
		canonical := fiscal.CanonicalSigningString(signingInput(d), d.PreviousHash)
		if err := signer.Verify([]byte(canonical), d.Signature); err != nil {
			return domain.ErrSignatureVerification.Msg("la firma del documento %s no verifica", d.ID).
				With("signature", d.Signature, "RSA-SHA256 sobre "+canonical)
		}
	}
	return nil
}

// Release libera el bloqueo vigente del ámbito.
func (uc *AuditUseCase) Release(ctx context.Context, scope entity.ScopeKey, releasedBy string) error {
	if err := uc.haltRepo.Release(ctx, scope, releasedBy, uc.now()); err != nil {
		return err
	}
	uc.log.Warn().Str("scope", scope.String()).Str("released_by", releasedBy).Msg("bloqueo de ámbito liberado")
	return nil
}
