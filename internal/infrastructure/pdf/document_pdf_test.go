package pdf_test

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sun2dayo/portugal-compliance-sub001/internal/application/compliance"
	"github.com/sun2dayo/portugal-compliance-sub001/internal/domain"
	"github.com/sun2dayo/portugal-compliance-sub001/internal/domain/entity"
	"github.com/sun2dayo/portugal-compliance-sub001/internal/domain/fiscal"
	"github.com/sun2dayo/portugal-compliance-sub001/internal/infrastructure/pdf"
)

func printDocument(t *testing.T) *compliance.PrintDocument {
	t.Helper()
	brackets, err := fiscal.DefaultBrackets("PT")
	require.NoError(t, err)

	lines := []entity.TaxLine{
		{Rate: decimal.NewFromInt(23), NetBase: decimal.NewFromInt(100), TaxAmount: decimal.NewFromInt(23)},
		{Rate: decimal.Zero, NetBase: decimal.RequireFromString("0.45"), TaxAmount: decimal.Zero},
	}
	totals, err := brackets.Summarize(lines)
	require.NoError(t, err)

	doc := &entity.FiscalDocument{
		ID:          "FT2025A/1",
		PostingDate: time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC),
		GrandTotal:  decimal.RequireFromString("123.45"),
		TaxLines:    lines,
	}
	doc.ATCUD = "AAJFJMVNTN-1"
	doc.PreviousHash = "0"

	return &compliance.PrintDocument{
		Company:        &entity.Company{Name: "Empresa Demo Lda", NIF: "500000000"},
		Customer:       &entity.Customer{Name: "Cliente", TaxID: "123456789", Country: "PT"},
		Document:       doc,
		ATDocumentType: "FT",
		Brackets:       brackets,
		Totals:         totals,
		QRPayload:      "A:500000000*B:123456789*C:PT*D:FT*E:N*F:2025-01-10*G:FT2025A/1*H:AAJFJMVNTN-1",
		Footer:         compliance.CertificationFooter("A-K-U-e", "9999"),
	}
}

func TestRenderDocument(t *testing.T) {
	out, err := pdf.NewMarotoRenderer().RenderDocument(context.Background(), printDocument(t))
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestRenderDocument_SinATCUD(t *testing.T) {
	p := printDocument(t)
	p.Document.ATCUD = ""
	_, err := pdf.NewMarotoRenderer().RenderDocument(context.Background(), p)
	assert.True(t, errors.Is(err, domain.ErrInvalidDocument))
}

func TestRenderDocument_SinQR(t *testing.T) {
	p := printDocument(t)
	p.QRPayload = ""
	_, err := pdf.NewMarotoRenderer().RenderDocument(context.Background(), p)
	assert.True(t, errors.Is(err, domain.ErrEmptyPayload))
}
