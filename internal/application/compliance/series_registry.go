package compliance

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sun2dayo/portugal-compliance-sub001/internal/application/dto"
	"github.com/sun2dayo/portugal-compliance-sub001/internal/domain"
	"github.com/sun2dayo/portugal-compliance-sub001/internal/domain/entity"
	"github.com/sun2dayo/portugal-compliance-sub001/internal/domain/fiscal"
	"github.com/sun2dayo/portugal-compliance-sub001/internal/domain/repository"
	"github.com/sun2dayo/portugal-compliance-sub001/pkg/at"
	"github.com/sun2dayo/portugal-compliance-sub001/pkg/logger"
)

// SeriesResolution serie AT resuelta para firmar un documento.
type SeriesResolution struct {
	SeriesID       string
	ValidationCode string
}

// SeriesRegistry resuelve series AT y administra su ciclo de vida.
type SeriesRegistry struct {
	seriesRepo repository.FiscalSeriesRepository
	docRepo    repository.FiscalDocumentRepository
	log        *logger.Logger
	now        func() time.Time
}

// NewSeriesRegistry construye el registro. docRepo se usa para impedir borrar series referenciadas.
func NewSeriesRegistry(seriesRepo repository.FiscalSeriesRepository, docRepo repository.FiscalDocumentRepository, log *logger.Logger) *SeriesRegistry {
	return &SeriesRegistry{seriesRepo: seriesRepo, docRepo: docRepo, log: log, now: time.Now}
}

// Resolve devuelve la serie activa con ese prefijo más reciente con valid_from <= postingDate.
// Solo lectura. ErrNoActiveSeries si no hay serie; ErrSeriesNotCommunicated si aún no
// tiene código de validación.
func (r *SeriesRegistry) Resolve(ctx context.Context, companyID, documentType, prefix string, postingDate time.Time) (*SeriesResolution, error) {
	s, err := r.seriesRepo.GetActive(ctx, companyID, documentType, prefix, postingDate)
	if err != nil {
		return nil, fmt.Errorf("series: consultar serie activa: %w", err)
	}
	if s == nil {
		return nil, domain.ErrNoActiveSeries.
			Msg("no existe serie %s comunicada para la empresa %s, tipo de documento %s", prefix, companyID, documentType).
			With("naming_series", prefix, "serie "+documentType+" activa con valid_from <= "+fiscal.FormatDate(postingDate))
	}
	if !s.Communicated() {
		return nil, domain.ErrSeriesNotCommunicated.
			Msg("la serie %s (%s) de la empresa %s no fue comunicada a la AT", s.Prefix, documentType, companyID).
			With("series_id", s.ID, "código de validación AT")
	}
	return &SeriesResolution{SeriesID: s.ID, ValidationCode: s.ValidationCode}, nil
}

// RequireNamingSeries comprueba que el prefijo corresponde a una serie activa del tipo AT.
// No mira la fecha ni el código de validación: eso se decide al emitir.
func (r *SeriesRegistry) RequireNamingSeries(ctx context.Context, companyID, documentType, prefix string) error {
	s, err := r.seriesRepo.GetActiveByPrefix(ctx, companyID, documentType, prefix)
	if err != nil {
		return fmt.Errorf("series: consultar prefijo: %w", err)
	}
	if s == nil {
		return domain.ErrNoActiveSeries.
			Msg("la serie %s no está registrada como serie %s activa de la empresa %s", prefix, documentType, companyID).
			With("naming_series", prefix, "prefijo de una serie "+documentType+" activa")
	}
	return nil
}

// CreateSeries crea una serie. Solo puede haber una activa por (empresa, tipo, prefijo,
// inicio de vigencia).
func (r *SeriesRegistry) CreateSeries(ctx context.Context, companyID string, in dto.CreateSeriesRequest) (*dto.SeriesResponse, error) {
	docType := strings.ToUpper(strings.TrimSpace(in.DocumentType))
	if !at.IsValidDocumentTypeCode(docType) {
		return nil, domain.ErrUnknownDocumentType.With("document_type", in.DocumentType, "FT, FS, FR, NC, ND o FC")
	}
	prefix := strings.TrimSpace(in.Prefix)
	if err := fiscal.ValidateNamingSeries(prefix); err != nil {
		return nil, err
	}
	validFrom, err := time.Parse(fiscal.DateLayout, strings.TrimSpace(in.ValidFrom))
	if err != nil {
		return nil, fmt.Errorf("%w: valid_from debe tener formato YYYY-MM-DD", domain.ErrInvalidInput)
	}

	existing, err := r.seriesRepo.GetActiveByStart(ctx, companyID, docType, prefix, validFrom)
	if err != nil {
		return nil, fmt.Errorf("series: verificar conflicto: %w", err)
	}
	if existing != nil {
		return nil, domain.ErrSeriesConflict.With("valid_from", in.ValidFrom, "sin otra serie activa "+docType+" "+prefix+" desde esa fecha")
	}

	now := r.now()
	s := &entity.FiscalSeries{
		ID:           uuid.New().String(),
		CompanyID:    companyID,
		DocumentType: docType,
		Prefix:       prefix,
		ValidFrom:    validFrom,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if in.ValidationCode != "" {
		code := fiscal.NormalizeValidationCode(in.ValidationCode)
		if err := fiscal.ValidateValidationCode(code); err != nil {
			return nil, err
		}
		s.ValidationCode = code
		s.CommunicatedAt = &now
	}
	if err := r.seriesRepo.Create(ctx, s); err != nil {
		return nil, err
	}
	r.log.Info().Str("company_id", companyID).Str("series_id", s.ID).Str("document_type", docType).
		Str("prefix", prefix).Msg("serie AT creada")
	return toSeriesResponse(s), nil
}

// AttachValidationCode asigna el código de validación AT. Solo una vez: un código distinto
// sobre una serie ya comunicada devuelve ErrValidationCodeImmutable.
func (r *SeriesRegistry) AttachValidationCode(ctx context.Context, companyID, seriesID, code string) (*dto.SeriesResponse, error) {
	s, err := r.getOwned(ctx, companyID, seriesID)
	if err != nil {
		return nil, err
	}
	code = fiscal.NormalizeValidationCode(code)
	if err := fiscal.ValidateValidationCode(code); err != nil {
		return nil, err
	}
	if s.Communicated() {
		if s.ValidationCode == code {
			return toSeriesResponse(s), nil
		}
		return nil, domain.ErrValidationCodeImmutable.With("validation_code", code, s.ValidationCode)
	}
	now := r.now()
	s.ValidationCode = code
	s.CommunicatedAt = &now
	s.UpdatedAt = now
	if err := r.seriesRepo.Update(ctx, s); err != nil {
		return nil, err
	}
	r.log.Info().Str("series_id", s.ID).Str("validation_code", code).Msg("código de validación AT asignado")
	return toSeriesResponse(s), nil
}

// Deactivate desactiva la serie; los documentos ya emitidos la siguen referenciando.
func (r *SeriesRegistry) Deactivate(ctx context.Context, companyID, seriesID string) error {
	s, err := r.getOwned(ctx, companyID, seriesID)
	if err != nil {
		return err
	}
	if !s.IsActive {
		return nil
	}
	s.IsActive = false
	s.UpdatedAt = r.now()
	return r.seriesRepo.Update(ctx, s)
}

// Delete elimina la serie si ningún documento la referencia.
func (r *SeriesRegistry) Delete(ctx context.Context, companyID, seriesID string) error {
	s, err := r.getOwned(ctx, companyID, seriesID)
	if err != nil {
		return err
	}
	n, err := r.docRepo.CountBySeries(ctx, s.ID)
	if err != nil {
		return fmt.Errorf("series: contar documentos: %w", err)
	}
	if n > 0 {
		return domain.ErrSeriesInUse.With("series_id", s.ID, fmt.Sprintf("0 documentos (tiene %d)", n))
	}
	return r.seriesRepo.Delete(ctx, s.ID)
}

// List lista las series de la empresa.
func (r *SeriesRegistry) List(ctx context.Context, companyID string) ([]dto.SeriesResponse, error) {
	list, err := r.seriesRepo.ListByCompany(ctx, companyID)
	if err != nil {
		return nil, err
	}
	out := make([]dto.SeriesResponse, 0, len(list))
	for _, s := range list {
		out = append(out, *toSeriesResponse(s))
	}
	return out, nil
}

func (r *SeriesRegistry) getOwned(ctx context.Context, companyID, seriesID string) (*entity.FiscalSeries, error) {
	s, err := r.seriesRepo.GetByID(ctx, seriesID)
	if err != nil {
		return nil, err
	}
	if s == nil || s.CompanyID != companyID {
		return nil, domain.ErrNotFound
	}
	return s, nil
}

func toSeriesResponse(s *entity.FiscalSeries) *dto.SeriesResponse {
	return &dto.SeriesResponse{
		ID:             s.ID,
		CompanyID:      s.CompanyID,
		DocumentType:   s.DocumentType,
		Prefix:         s.Prefix,
		ValidationCode: s.ValidationCode,
		ValidFrom:      fiscal.FormatDate(s.ValidFrom),
		IsActive:       s.IsActive,
		CommunicatedAt: s.CommunicatedAt,
	}
}
