package compliance

import (
	"context"

	"github.com/sun2dayo/portugal-compliance-sub001/internal/domain/entity"
	"github.com/sun2dayo/portugal-compliance-sub001/internal/domain/repository"
	"github.com/sun2dayo/portugal-compliance-sub001/pkg/at"
)

// ScopeTxRunner ejecuta fn en una transacción con el ámbito bloqueado: el bloqueo se toma
// antes de leer el hash anterior y se libera al confirmar o deshacer la transacción.
// Si fn devuelve error no queda ninguna escritura visible.
type ScopeTxRunner interface {
	RunInScope(ctx context.Context, scope entity.ScopeKey, fn func(
		docRepo repository.FiscalDocumentRepository,
		seriesRepo repository.FiscalSeriesRepository,
	) error) error
}

// SignerProvider entrega un firmador con la llave custodiada.
type SignerProvider interface {
	Signer(ctx context.Context) (at.Signer, error)
}

// QRRenderer renderiza el payload QR (infrastructure/qrcode).
type QRRenderer interface {
	RenderPNG(payload string, size int) ([]byte, error)
	DataURI(payload string) (string, error)
}

// PrintRenderer genera la representación impresa del documento (infrastructure/pdf).
type PrintRenderer interface {
	RenderDocument(ctx context.Context, doc *PrintDocument) ([]byte, error)
}
