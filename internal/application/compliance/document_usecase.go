package compliance

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/sun2dayo/portugal-compliance-sub001/internal/application/dto"
	"github.com/sun2dayo/portugal-compliance-sub001/internal/domain"
	"github.com/sun2dayo/portugal-compliance-sub001/internal/domain/entity"
	"github.com/sun2dayo/portugal-compliance-sub001/internal/domain/fiscal"
	"github.com/sun2dayo/portugal-compliance-sub001/internal/domain/repository"
	"github.com/sun2dayo/portugal-compliance-sub001/pkg/logger"
)

// DocumentUseCase crea borradores y entrega las representaciones de documentos emitidos.
type DocumentUseCase struct {
	txRunner     ScopeTxRunner
	docRepo      repository.FiscalDocumentRepository
	companyRepo  repository.CompanyRepository
	customerRepo repository.CustomerRepository
	settings     *Settings
	qr           QRRenderer
	printer      PrintRenderer
	log          *logger.Logger
	now          func() time.Time
}

// NewDocumentUseCase construye el caso de uso.
func NewDocumentUseCase(
	txRunner ScopeTxRunner,
	docRepo repository.FiscalDocumentRepository,
	companyRepo repository.CompanyRepository,
	customerRepo repository.CustomerRepository,
	settings *Settings,
	qr QRRenderer,
	printer PrintRenderer,
	log *logger.Logger,
) *DocumentUseCase {
	return &DocumentUseCase{
		txRunner:     txRunner,
		docRepo:      docRepo,
		companyRepo:  companyRepo,
		customerRepo: customerRepo,
		settings:     settings,
		qr:           qr,
		printer:      printer,
		log:          log,
		now:          time.Now,
	}
}

// Create registra un borrador con sus líneas de impuesto. El identificador se deriva de la
// serie de numeración: "<naming_series>/<n>".
func (uc *DocumentUseCase) Create(ctx context.Context, companyID string, in dto.CreateDocumentRequest) (*dto.DocumentResponse, error) {
	namingSeries := strings.TrimSpace(in.NamingSeries)
	if err := fiscal.ValidateNamingSeries(namingSeries); err != nil {
		return nil, err
	}
	if len(in.TaxLines) == 0 {
		return nil, fmt.Errorf("%w: al menos una línea de impuesto", domain.ErrInvalidInput)
	}
	atType, err := uc.settings.DocTypes.Code(in.DocType, in.IsReturn)
	if err != nil {
		return nil, err
	}
	postingDate, err := time.Parse(fiscal.DateLayout, strings.TrimSpace(in.PostingDate))
	if err != nil {
		return nil, fmt.Errorf("%w: posting_date debe tener formato YYYY-MM-DD", domain.ErrInvalidInput)
	}
	now := uc.now()
	emission, err := parseEmission(in.EmissionAt, now)
	if err != nil {
		return nil, err
	}

	company, err := uc.companyRepo.GetByID(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("documents: obtener empresa: %w", err)
	}
	if company == nil {
		return nil, domain.ErrNotFound
	}
	customer, err := uc.customerRepo.GetByID(ctx, in.CustomerID)
	if err != nil {
		return nil, fmt.Errorf("documents: obtener cliente: %w", err)
	}
	if customer == nil {
		return nil, domain.ErrNotFound
	}
	if customer.CompanyID != companyID {
		return nil, domain.ErrForbidden
	}

	lines := make([]entity.TaxLine, 0, len(in.TaxLines))
	sum := decimal.Zero
	for _, l := range in.TaxLines {
		if l.NetBase.IsNegative() || l.TaxAmount.IsNegative() {
			return nil, fmt.Errorf("%w: bases y cuotas no pueden ser negativas", domain.ErrInvalidInput)
		}
		lines = append(lines, entity.TaxLine{
			ID:          uuid.New().String(),
			Rate:        l.Rate,
			NetBase:     l.NetBase,
			TaxAmount:   l.TaxAmount,
			Description: l.Description,
		})
		sum = sum.Add(l.NetBase).Add(l.TaxAmount)
	}
	// Tasas sin escalón se rechazan ya en el borrador.
	if _, err := uc.settings.Brackets.Summarize(lines); err != nil {
		return nil, err
	}
	grandTotal := sum.Add(in.StampDuty)
	if in.GrandTotal != nil {
		grandTotal = *in.GrandTotal
	}

	doc := &entity.FiscalDocument{
		CompanyID:        companyID,
		CustomerID:       customer.ID,
		DocType:          in.DocType,
		IsReturn:         in.IsReturn,
		NamingSeries:     namingSeries,
		PostingDate:      postingDate,
		EmissionAt:       emission,
		CreatedAt:        now,
		GrandTotal:       grandTotal.Round(2),
		StampDutyTotal:   in.StampDuty,
		WithholdingTotal: in.Withholding,
		CompanyNIF:       company.NIF,
		CustomerNIF:      customer.TaxID,
		CustomerCountry:  customer.Country,
		DocStatus:        entity.DocStatusDraft,
	}
	err = uc.txRunner.RunInScope(ctx, doc.Scope(), func(docRepo repository.FiscalDocumentRepository, seriesRepo repository.FiscalSeriesRepository) error {
		// Un prefijo sin serie propia tomaría el código de validación de otra serie del mismo tipo.
		if err := NewSeriesRegistry(seriesRepo, docRepo, uc.log).RequireNamingSeries(ctx, companyID, atType, namingSeries); err != nil {
			return err
		}
		n, err := docRepo.NextSequence(ctx, namingSeries)
		if err != nil {
			return fmt.Errorf("documents: reservar número: %w", err)
		}
		doc.ID = fmt.Sprintf("%s/%d", namingSeries, n)
		if err := docRepo.Create(ctx, doc); err != nil {
			return err
		}
		for i := range lines {
			lines[i].DocumentID = doc.ID
			if err := docRepo.CreateTaxLine(ctx, &lines[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	doc.TaxLines = lines
	uc.log.Info().Str("document_id", doc.ID).Str("company_id", companyID).Str("doc_type", doc.DocType).
		Msg("borrador creado")
	return ToDocumentResponse(doc), nil
}

// parseEmission acepta RFC 3339 o YYYY-MM-DDTHH:MM:SS; vacío = now.
func parseEmission(s string, now time.Time) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return now, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(fiscal.DateTimeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: emission_at debe ser RFC 3339 o YYYY-MM-DDTHH:MM:SS", domain.ErrInvalidInput)
	}
	return t, nil
}

// Get devuelve el documento con sus líneas.
func (uc *DocumentUseCase) Get(ctx context.Context, companyID, documentID string) (*dto.DocumentResponse, error) {
	doc, err := uc.load(ctx, companyID, documentID)
	if err != nil {
		return nil, err
	}
	return ToDocumentResponse(doc), nil
}

// QRCode devuelve el PNG y el payload del documento emitido.
func (uc *DocumentUseCase) QRCode(ctx context.Context, companyID, documentID string, size int) ([]byte, string, error) {
	doc, err := uc.loadSubmitted(ctx, companyID, documentID)
	if err != nil {
		return nil, "", err
	}
	if doc.QRPayload == "" {
		return nil, "", domain.ErrEmptyPayload.With("qr_payload", "", "payload generado al emitir")
	}
	png, err := uc.qr.RenderPNG(doc.QRPayload, size)
	if err != nil {
		return nil, "", err
	}
	return png, doc.QRPayload, nil
}

// QRCodeDataURI devuelve el payload y la imagen como data URI.
func (uc *DocumentUseCase) QRCodeDataURI(ctx context.Context, companyID, documentID string) (*dto.QRCodeDataURIResponse, error) {
	doc, err := uc.loadSubmitted(ctx, companyID, documentID)
	if err != nil {
		return nil, err
	}
	_, uri, err := NewQRCodePayloadBuilder(uc.settings, uc.qr).RenderImage(doc.QRPayload)
	if err != nil {
		return nil, err
	}
	return &dto.QRCodeDataURIResponse{Payload: doc.QRPayload, DataURI: uri}, nil
}

// PDF genera la representación impresa. Solo para documentos emitidos.
func (uc *DocumentUseCase) PDF(ctx context.Context, companyID, documentID string) ([]byte, string, error) {
	doc, err := uc.loadSubmitted(ctx, companyID, documentID)
	if err != nil {
		return nil, "", err
	}
	company, err := uc.companyRepo.GetByID(ctx, companyID)
	if err != nil || company == nil {
		return nil, "", fmt.Errorf("pdf: obtener empresa: %w", errOrNotFound(err))
	}
	customer, err := uc.customerRepo.GetByID(ctx, doc.CustomerID)
	if err != nil || customer == nil {
		return nil, "", fmt.Errorf("pdf: obtener cliente: %w", errOrNotFound(err))
	}
	atType, err := uc.settings.DocTypes.Code(doc.DocType, doc.IsReturn)
	if err != nil {
		return nil, "", err
	}
	totals, err := uc.settings.Brackets.Summarize(doc.TaxLines)
	if err != nil {
		return nil, "", err
	}
	pdf, err := uc.printer.RenderDocument(ctx, &PrintDocument{
		Company:        company,
		Customer:       customer,
		Document:       doc,
		ATDocumentType: atType,
		Brackets:       uc.settings.Brackets,
		Totals:         totals,
		QRPayload:      doc.QRPayload,
		Footer:         CertificationFooter(doc.PrintChars, uc.settings.CertificateNumber),
	})
	if err != nil {
		return nil, "", fmt.Errorf("pdf: generar: %w", err)
	}
	filename := strings.ReplaceAll(doc.ID, "/", "_") + ".pdf"
	return pdf, filename, nil
}

func (uc *DocumentUseCase) load(ctx context.Context, companyID, documentID string) (*entity.FiscalDocument, error) {
	doc, err := uc.docRepo.GetByID(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("documents: obtener documento: %w", err)
	}
	if doc == nil || doc.CompanyID != companyID {
		return nil, domain.ErrNotFound
	}
	lines, err := uc.docRepo.GetTaxLines(ctx, doc.ID)
	if err != nil {
		return nil, fmt.Errorf("documents: obtener líneas: %w", err)
	}
	doc.TaxLines = lines
	return doc, nil
}

func (uc *DocumentUseCase) loadSubmitted(ctx context.Context, companyID, documentID string) (*entity.FiscalDocument, error) {
	doc, err := uc.load(ctx, companyID, documentID)
	if err != nil {
		return nil, err
	}
	if doc.DocStatus == entity.DocStatusDraft {
		return nil, fmt.Errorf("%w: el documento %s aún no fue emitido", domain.ErrInvalidInput, doc.ID)
	}
	return doc, nil
}

func errOrNotFound(err error) error {
	if err != nil {
		return err
	}
	return domain.ErrNotFound
}
