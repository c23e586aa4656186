package compliance

import (
	"errors"

	"github.com/sun2dayo/portugal-compliance-sub001/internal/application/dto"
	"github.com/sun2dayo/portugal-compliance-sub001/internal/domain"
	"github.com/sun2dayo/portugal-compliance-sub001/internal/domain/entity"
	"github.com/sun2dayo/portugal-compliance-sub001/internal/domain/fiscal"
)

func statusName(s int) string {
	switch s {
	case entity.DocStatusSubmitted:
		return "submitted"
	case entity.DocStatusCancelled:
		return "cancelled"
	default:
		return "draft"
	}
}

// ToDocumentResponse convierte el documento (con sus líneas) en DTO.
func ToDocumentResponse(doc *entity.FiscalDocument) *dto.DocumentResponse {
	out := &dto.DocumentResponse{
		ID:           doc.ID,
		CompanyID:    doc.CompanyID,
		CustomerID:   doc.CustomerID,
		DocType:      doc.DocType,
		IsReturn:     doc.IsReturn,
		NamingSeries: doc.NamingSeries,
		SeriesID:     doc.SeriesID,
		PostingDate:  fiscal.FormatDate(doc.PostingDate),
		EmissionAt:   fiscal.FormatDateTime(doc.EmissionAt),
		GrandTotal:   doc.GrandTotal,
		StampDuty:    doc.StampDutyTotal,
		Withholding:  doc.WithholdingTotal,
		Status:       statusName(doc.DocStatus),
		ATCUD:        doc.ATCUD,
		Signature:    doc.Signature,
		ThisHash:     doc.ThisHash,
		PreviousHash: doc.PreviousHash,
		PrintChars:   doc.PrintChars,
		QRPayload:    doc.QRPayload,
		SignedAt:     doc.SignedAt,
		TaxLines:     make([]dto.TaxLineResponse, 0, len(doc.TaxLines)),
	}
	for _, l := range doc.TaxLines {
		out.TaxLines = append(out.TaxLines, dto.TaxLineResponse{
			Rate:        l.Rate,
			NetBase:     l.NetBase,
			TaxAmount:   l.TaxAmount,
			Description: l.Description,
		})
	}
	return out
}

// ToErrorResponse extrae código y contexto de un error fiscal; nil si no lo es.
func ToErrorResponse(err error) *dto.ErrorResponse {
	var fe *domain.FiscalError
	if !errors.As(err, &fe) {
		return nil
	}
	return &dto.ErrorResponse{
		Code:     string(fe.Code),
		Message:  fe.Message,
		Field:    fe.Field,
		Value:    fe.Value,
		Expected: fe.Expected,
	}
}
