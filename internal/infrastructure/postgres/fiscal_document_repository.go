package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/sun2dayo/portugal-compliance-sub001/internal/domain"
	"github.com/sun2dayo/portugal-compliance-sub001/internal/domain/entity"
	"github.com/sun2dayo/portugal-compliance-sub001/internal/domain/repository"
)

var _ repository.FiscalDocumentRepository = (*FiscalDocumentRepo)(nil)

// FiscalDocumentRepo implementación de FiscalDocumentRepository (usable con pool o tx).
type FiscalDocumentRepo struct {
	q Querier
}

// NewFiscalDocumentRepository construye el adaptador. Pasar pool o tx (Querier).
func NewFiscalDocumentRepository(q Querier) *FiscalDocumentRepo {
	return &FiscalDocumentRepo{q: q}
}

const documentColumns = `id, company_id, customer_id, doc_type, is_return, naming_series, series_id,
	posting_date, emission_at, created_at, grand_total, stamp_duty_total, withholding_total,
	company_nif, customer_nif, customer_country, docstatus,
	atcud, signature, this_hash, previous_hash, print_chars, qr_payload, signed_at`

// Create persiste la cabecera del documento (borrador).
func (r *FiscalDocumentRepo) Create(ctx context.Context, d *entity.FiscalDocument) error {
	query := `INSERT INTO fiscal_documents (` + documentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24)`
	_, err := r.q.Exec(ctx, query,
		d.ID, d.CompanyID, d.CustomerID, d.DocType, d.IsReturn, d.NamingSeries, nullIfEmpty(d.SeriesID),
		d.PostingDate, d.EmissionAt, d.CreatedAt, d.GrandTotal, d.StampDutyTotal, d.WithholdingTotal,
		d.CompanyNIF, d.CustomerNIF, d.CustomerCountry, d.DocStatus,
		nullIfEmpty(d.ATCUD), d.Signature, d.ThisHash, d.PreviousHash, d.PrintChars, d.QRPayload, d.SignedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert fiscal document: %w", err)
	}
	return nil
}

// CreateTaxLine persiste una línea de impuesto.
func (r *FiscalDocumentRepo) CreateTaxLine(ctx context.Context, l *entity.TaxLine) error {
	query := `INSERT INTO fiscal_tax_lines (id, document_id, rate, net_base, tax_amount, description)
		VALUES ($1, $2, $3, $4, $5, $6)`
	if _, err := r.q.Exec(ctx, query, l.ID, l.DocumentID, l.Rate, l.NetBase, l.TaxAmount, l.Description); err != nil {
		return fmt.Errorf("insert tax line: %w", err)
	}
	return nil
}

// GetByID obtiene la cabecera del documento.
func (r *FiscalDocumentRepo) GetByID(ctx context.Context, id string) (*entity.FiscalDocument, error) {
	d, err := scanDocument(r.q.QueryRow(ctx, `SELECT `+documentColumns+` FROM fiscal_documents WHERE id = $1`, id))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get fiscal document: %w", err)
	}
	return d, nil
}

// GetTaxLines lista las líneas de impuesto del documento.
func (r *FiscalDocumentRepo) GetTaxLines(ctx context.Context, documentID string) ([]entity.TaxLine, error) {
	rows, err := r.q.Query(ctx, `SELECT id, document_id, rate, net_base, tax_amount, description
		FROM fiscal_tax_lines WHERE document_id = $1 ORDER BY id`, documentID)
	if err != nil {
		return nil, fmt.Errorf("list tax lines: %w", err)
	}
	defer rows.Close()
	var out []entity.TaxLine
	for rows.Next() {
		var l entity.TaxLine
		if err := rows.Scan(&l.ID, &l.DocumentID, &l.Rate, &l.NetBase, &l.TaxAmount, &l.Description); err != nil {
			return nil, fmt.Errorf("scan tax line: %w", err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// NextSequence incrementa el contador de la serie de numeración. Dentro de una tx el
// número se revierte con ella; la fila queda bloqueada hasta el commit.
func (r *FiscalDocumentRepo) NextSequence(ctx context.Context, namingSeries string) (int64, error) {
	query := `INSERT INTO naming_counters (naming_series, last_value) VALUES ($1, 1)
		ON CONFLICT (naming_series) DO UPDATE SET last_value = naming_counters.last_value + 1
		RETURNING last_value`
	var n int64
	if err := r.q.QueryRow(ctx, query, namingSeries).Scan(&n); err != nil {
		return 0, fmt.Errorf("next sequence: %w", err)
	}
	return n, nil
}

// QueryLatestSubmitted último eslabón de la cadena del ámbito hasta postingDate.
func (r *FiscalDocumentRepo) QueryLatestSubmitted(ctx context.Context, scope entity.ScopeKey, excludingID string, postingDate time.Time) (*entity.ChainLink, error) {
	query := `SELECT id, posting_date, created_at, previous_hash, this_hash
		FROM fiscal_documents
		WHERE company_id = $1 AND naming_series = $2 AND doc_type = $3
		  AND docstatus <> 0 AND signed_at IS NOT NULL
		  AND posting_date <= $4 AND id <> $5
		ORDER BY posting_date DESC, created_at DESC, id DESC
		LIMIT 1`
	var l entity.ChainLink
	err := r.q.QueryRow(ctx, query, scope.CompanyID, scope.NamingSeries, scope.DocType, postingDate, excludingID).
		Scan(&l.DocumentID, &l.PostingDate, &l.CreatedAt, &l.PreviousHash, &l.ThisHash)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("query latest submitted: %w", err)
	}
	return &l, nil
}

// UpdateFiscalFields escribe solo los campos fiscales, la serie AT y el docstatus.
func (r *FiscalDocumentRepo) UpdateFiscalFields(ctx context.Context, d *entity.FiscalDocument) error {
	query := `UPDATE fiscal_documents SET
		atcud = $2, signature = $3, this_hash = $4, previous_hash = $5, print_chars = $6,
		qr_payload = $7, signed_at = $8, series_id = $9, docstatus = $10
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, query,
		d.ID, nullIfEmpty(d.ATCUD), d.Signature, d.ThisHash, d.PreviousHash, d.PrintChars,
		d.QRPayload, d.SignedAt, nullIfEmpty(d.SeriesID), d.DocStatus,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicateATCUD.With("atcud", d.ATCUD, "único")
		}
		return fmt.Errorf("update fiscal fields: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// FindByATCUD devuelve otro documento con el mismo ATCUD.
func (r *FiscalDocumentRepo) FindByATCUD(ctx context.Context, atcud, excludingID string) (*entity.FiscalDocument, error) {
	d, err := scanDocument(r.q.QueryRow(ctx,
		`SELECT `+documentColumns+` FROM fiscal_documents WHERE atcud = $1 AND id <> $2 LIMIT 1`, atcud, excludingID))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("find by atcud: %w", err)
	}
	return d, nil
}

// ListSubmittedInScope documentos del ámbito en orden de firma.
func (r *FiscalDocumentRepo) ListSubmittedInScope(ctx context.Context, scope entity.ScopeKey) ([]*entity.FiscalDocument, error) {
	query := `SELECT ` + documentColumns + ` FROM fiscal_documents
		WHERE company_id = $1 AND naming_series = $2 AND doc_type = $3
		  AND docstatus <> 0 AND signed_at IS NOT NULL
		ORDER BY signed_at, id`
	rows, err := r.q.Query(ctx, query, scope.CompanyID, scope.NamingSeries, scope.DocType)
	if err != nil {
		return nil, fmt.Errorf("list submitted: %w", err)
	}
	defer rows.Close()
	var out []*entity.FiscalDocument
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan fiscal document: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// CountBySeries cuenta los documentos que referencian la serie AT.
func (r *FiscalDocumentRepo) CountBySeries(ctx context.Context, seriesID string) (int, error) {
	var n int
	if err := r.q.QueryRow(ctx, `SELECT count(*) FROM fiscal_documents WHERE series_id = $1`, seriesID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count by series: %w", err)
	}
	return n, nil
}

func scanDocument(row pgxScanner) (*entity.FiscalDocument, error) {
	var d entity.FiscalDocument
	var seriesID, atcud *string
	err := row.Scan(
		&d.ID, &d.CompanyID, &d.CustomerID, &d.DocType, &d.IsReturn, &d.NamingSeries, &seriesID,
		&d.PostingDate, &d.EmissionAt, &d.CreatedAt, &d.GrandTotal, &d.StampDutyTotal, &d.WithholdingTotal,
		&d.CompanyNIF, &d.CustomerNIF, &d.CustomerCountry, &d.DocStatus,
		&atcud, &d.Signature, &d.ThisHash, &d.PreviousHash, &d.PrintChars, &d.QRPayload, &d.SignedAt,
	)
	if err != nil {
		return nil, err
	}
	d.SeriesID = derefStr(seriesID)
	d.ATCUD = derefStr(atcud)
	return &d, nil
}
