package repository

import (
	"context"
	"time"

	"github.com/sun2dayo/portugal-compliance-sub001/internal/domain/entity"
)

// FiscalSeriesRepository define el puerto de persistencia para series AT.
// Las lecturas sin resultado devuelven (nil, nil).
type FiscalSeriesRepository interface {
	Create(ctx context.Context, s *entity.FiscalSeries) error
	GetByID(ctx context.Context, id string) (*entity.FiscalSeries, error)

	// GetActive devuelve la serie activa con valid_from <= onDate más reciente para
	// la empresa, el código AT y el prefijo dados. Es la consulta crítica antes de firmar.
	GetActive(ctx context.Context, companyID, documentType, prefix string, onDate time.Time) (*entity.FiscalSeries, error)

	// GetActiveByStart devuelve la serie activa con exactamente ese inicio de vigencia.
	GetActiveByStart(ctx context.Context, companyID, documentType, prefix string, validFrom time.Time) (*entity.FiscalSeries, error)

	// GetActiveByPrefix devuelve la serie activa más reciente con ese prefijo, sin
	// importar la fecha ni si ya fue comunicada.
	GetActiveByPrefix(ctx context.Context, companyID, documentType, prefix string) (*entity.FiscalSeries, error)

	// ListByCompany lista todas las series de una empresa (activas e inactivas).
	ListByCompany(ctx context.Context, companyID string) ([]*entity.FiscalSeries, error)

	Update(ctx context.Context, s *entity.FiscalSeries) error
	Delete(ctx context.Context, id string) error
}
