package fiscal

import (
	"errors"

	"github.com/sun2dayo/portugal-compliance-sub001/internal/domain"
	"github.com/sun2dayo/portugal-compliance-sub001/internal/domain/entity"
)

// ValidateForSigning comprueba que el documento tiene todo lo necesario para entrar en la cadena.
// Agrupa todos los campos faltantes en un único error.
func ValidateForSigning(doc *entity.FiscalDocument) error {
	if doc == nil {
		return domain.ErrInvalidDocument.Msg("documento nulo")
	}
	var errs []error
	missing := func(field string) {
		errs = append(errs, domain.ErrInvalidDocument.With(field, "", "valor obligatorio"))
	}
	if doc.ID == "" {
		missing("id")
	}
	if doc.CompanyID == "" {
		missing("company_id")
	}
	if doc.NamingSeries == "" {
		missing("naming_series")
	}
	if doc.DocType == "" {
		missing("doc_type")
	}
	if doc.PostingDate.IsZero() {
		missing("posting_date")
	}
	if doc.EmissionAt.IsZero() {
		missing("emission_at")
	}
	if doc.CreatedAt.IsZero() {
		missing("created_at")
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}
