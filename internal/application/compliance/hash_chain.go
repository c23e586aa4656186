package compliance

import (
	"context"
	"fmt"
	"time"

	"github.com/sun2dayo/portugal-compliance-sub001/internal/domain/entity"
	"github.com/sun2dayo/portugal-compliance-sub001/internal/domain/fiscal"
	"github.com/sun2dayo/portugal-compliance-sub001/internal/domain/repository"
	"github.com/sun2dayo/portugal-compliance-sub001/pkg/logger"
)

// HashChain resuelve el hash anterior dentro del ámbito del documento.
// Debe usarse con un docRepo ligado a la transacción que tiene el ámbito bloqueado.
type HashChain struct {
	docRepo repository.FiscalDocumentRepository
	log     *logger.Logger
}

// NewHashChain construye la cadena sobre el repositorio dado.
func NewHashChain(docRepo repository.FiscalDocumentRepository, log *logger.Logger) *HashChain {
	return &HashChain{docRepo: docRepo, log: log}
}

// PreviousHash devuelve el hash propio del último documento emitido del ámbito con
// fecha <= postingDate, o "0" si no hay predecesor.
func (h *HashChain) PreviousHash(ctx context.Context, scope entity.ScopeKey, excludingID string, postingDate, createdAt time.Time) (string, error) {
	candidate, err := h.docRepo.QueryLatestSubmitted(ctx, scope, excludingID, postingDate)
	if err != nil {
		return "", fmt.Errorf("hash chain: consultar predecesor: %w", err)
	}
	prev, tieBroken := fiscal.SelectPrevious(candidate, postingDate, createdAt)
	if tieBroken {
		h.log.Warn().
			Str("scope", scope.String()).
			Str("document_id", excludingID).
			Str("candidate_id", candidate.DocumentID).
			Time("candidate_created_at", candidate.CreatedAt).
			Time("created_at", createdAt).
			Msg("predecesor con misma fecha y creación no anterior: se usa hash génesis")
	}
	return prev, nil
}

// Digest base64(SHA-256(s)).
func (h *HashChain) Digest(s string) string {
	return fiscal.Digest(s)
}
