package compliance

import (
	"context"
	"fmt"

	"github.com/sun2dayo/portugal-compliance-sub001/internal/domain"
	"github.com/sun2dayo/portugal-compliance-sub001/internal/domain/entity"
	"github.com/sun2dayo/portugal-compliance-sub001/internal/domain/fiscal"
	"github.com/sun2dayo/portugal-compliance-sub001/internal/domain/repository"
)

// ATCUDResult ATCUD generado con la serie y el código AT usados.
type ATCUDResult struct {
	ATCUD          string
	SeriesID       string
	ATDocumentType string
}

// ATCUDGenerator compone el ATCUD a partir del código de validación de la serie y
// del número secuencial del documento.
type ATCUDGenerator struct {
	registry *SeriesRegistry
	docRepo  repository.FiscalDocumentRepository
	docTypes *fiscal.DocumentTypeMap
}

// NewATCUDGenerator construye el generador con la tabla de tipos inyectada.
func NewATCUDGenerator(registry *SeriesRegistry, docRepo repository.FiscalDocumentRepository, docTypes *fiscal.DocumentTypeMap) *ATCUDGenerator {
	return &ATCUDGenerator{registry: registry, docRepo: docRepo, docTypes: docTypes}
}

// Generate mapea el tipo de documento a código AT, resuelve la serie, extrae el número
// secuencial del identificador y compone "<validationCode>-<sequence>".
func (g *ATCUDGenerator) Generate(ctx context.Context, doc *entity.FiscalDocument) (*ATCUDResult, error) {
	atType, err := g.docTypes.Code(doc.DocType, doc.IsReturn)
	if err != nil {
		return nil, err
	}
	series, err := g.registry.Resolve(ctx, doc.CompanyID, atType, doc.NamingSeries, doc.PostingDate)
	if err != nil {
		return nil, err
	}
	seq, err := fiscal.ExtractSequence(doc.ID)
	if err != nil {
		return nil, err
	}
	atcud := fiscal.ComposeATCUD(series.ValidationCode, seq)
	if err := g.Validate(atcud); err != nil {
		return nil, err
	}
	return &ATCUDResult{ATCUD: atcud, SeriesID: series.SeriesID, ATDocumentType: atType}, nil
}

// Validate valida el formato ^[A-Z0-9]{1,10}-\d+$.
func (g *ATCUDGenerator) Validate(atcud string) error {
	return fiscal.ValidateATCUD(atcud)
}

// EnsureUnique devuelve ErrDuplicateATCUD si otro documento ya tiene el ATCUD.
func (g *ATCUDGenerator) EnsureUnique(ctx context.Context, atcud, documentID string) error {
	other, err := g.docRepo.FindByATCUD(ctx, atcud, documentID)
	if err != nil {
		return fmt.Errorf("atcud: verificar unicidad: %w", err)
	}
	if other != nil {
		return domain.ErrDuplicateATCUD.
			Msg("ATCUD %s ya asignado al documento %s", atcud, other.ID).
			With("atcud", atcud, "único entre documentos fiscales")
	}
	return nil
}
