package repository

import (
	"context"
	"time"

	"github.com/sun2dayo/portugal-compliance-sub001/internal/domain/entity"
)

// FiscalDocumentRepository define el puerto de persistencia para documentos fiscales.
type FiscalDocumentRepository interface {
	Create(ctx context.Context, doc *entity.FiscalDocument) error
	CreateTaxLine(ctx context.Context, line *entity.TaxLine) error
	// GetByID devuelve el documento sin líneas de impuesto; (nil, nil) si no existe.
	GetByID(ctx context.Context, id string) (*entity.FiscalDocument, error)
	GetTaxLines(ctx context.Context, documentID string) ([]entity.TaxLine, error)

	// NextSequence reserva el siguiente número de la serie de numeración.
	NextSequence(ctx context.Context, namingSeries string) (int64, error)

	// QueryLatestSubmitted devuelve el último documento emitido del ámbito con
	// posting_date <= postingDate e id distinto de excludingID, ordenado por
	// (posting_date, created_at, id) descendente; (nil, nil) si no hay ninguno.
	QueryLatestSubmitted(ctx context.Context, scope entity.ScopeKey, excludingID string, postingDate time.Time) (*entity.ChainLink, error)

	// UpdateFiscalFields escribe solo los campos fiscales, la serie AT y el docstatus.
	// No toca ningún otro campo del documento.
	UpdateFiscalFields(ctx context.Context, doc *entity.FiscalDocument) error

	// FindByATCUD devuelve otro documento (id != excludingID) con el mismo ATCUD.
	FindByATCUD(ctx context.Context, atcud, excludingID string) (*entity.FiscalDocument, error)

	// ListSubmittedInScope lista los documentos emitidos del ámbito en orden de firma
	// (signed_at, id) ascendente.
	ListSubmittedInScope(ctx context.Context, scope entity.ScopeKey) ([]*entity.FiscalDocument, error)

	// CountBySeries cuenta los documentos que referencian la serie AT.
	CountBySeries(ctx context.Context, seriesID string) (int, error)
}
