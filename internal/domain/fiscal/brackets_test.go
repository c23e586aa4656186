package fiscal_test

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sun2dayo/portugal-compliance-sub001/internal/domain"
	"github.com/sun2dayo/portugal-compliance-sub001/internal/domain/entity"
	"github.com/sun2dayo/portugal-compliance-sub001/internal/domain/fiscal"
	"github.com/sun2dayo/portugal-compliance-sub001/pkg/at"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestDefaultBrackets_PorRegion(t *testing.T) {
	cases := map[string][]string{
		"PT":    {"0", "6", "13", "23"},
		"PT-AC": {"0", "4", "9", "16"},
		"pt-ma": {"0", "4", "12", "22"},
	}
	for region, rates := range cases {
		tbl, err := fiscal.DefaultBrackets(region)
		require.NoError(t, err, region)
		for i, b := range at.Brackets {
			got, err := tbl.Classify(d(rates[i]))
			require.NoError(t, err)
			assert.Equal(t, b, got, region)
		}
	}
	_, err := fiscal.DefaultBrackets("ES")
	assert.Error(t, err)
}

func TestClassify_TasaDesconocidaEsError(t *testing.T) {
	tbl, err := fiscal.DefaultBrackets("PT")
	require.NoError(t, err)

	_, err = tbl.Classify(d("21"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrUnknownTaxRate))

	b, err := tbl.Classify(d("23.00"))
	require.NoError(t, err)
	assert.Equal(t, at.BracketNormal, b)
}

func TestParseBrackets(t *testing.T) {
	tbl, err := fiscal.ParseBrackets("PT", "ISE:0, RED:5, INT:12, NOR:22")
	require.NoError(t, err)
	assert.True(t, tbl.Rate(at.BracketReduced).Equal(d("5")))
	assert.Equal(t, "PT ISE:0,RED:5,INT:12,NOR:22", tbl.String())

	bad := []string{
		"ISE:0,RED:6,INT:13",          // falta NOR
		"ISE:0,RED:6,INT:13,NOR:x",    // tasa inválida
		"ISE:0,RED:6,INT:13,NOR:6",    // tasa repetida
		"ISE:0,RED:6,INT:13,XXX:23",   // escalón desconocido
		"ISE0,RED:6,INT:13,NOR:23",    // sin separador
		"ISE:0,RED:-6,INT:13,NOR:23",  // negativa
	}
	for _, s := range bad {
		_, err := fiscal.ParseBrackets("PT", s)
		assert.Error(t, err, s)
	}
}

func TestSummarize_AcumulaPorEscalon(t *testing.T) {
	tbl, err := fiscal.DefaultBrackets("PT")
	require.NoError(t, err)

	lines := []entity.TaxLine{
		{Rate: d("23"), NetBase: d("100.00"), TaxAmount: d("23.00")},
		{Rate: d("23"), NetBase: d("50.00"), TaxAmount: d("11.50")},
		{Rate: d("6"), NetBase: d("10.00"), TaxAmount: d("0.60")},
		{Rate: d("0"), NetBase: d("5.00"), TaxAmount: d("0")},
	}
	totals, err := tbl.Summarize(lines)
	require.NoError(t, err)

	assert.True(t, totals.Get(at.BracketNormal).Base.Equal(d("150")))
	assert.True(t, totals.Get(at.BracketNormal).Tax.Equal(d("34.50")))
	assert.True(t, totals.Get(at.BracketReduced).Base.Equal(d("10")))
	assert.True(t, totals.Get(at.BracketReduced).Tax.Equal(d("0.6")))
	assert.True(t, totals.Get(at.BracketIntermediate).Base.IsZero())
	assert.True(t, totals.Get(at.BracketExempt).Base.Equal(d("5")))

	_, err = tbl.Summarize([]entity.TaxLine{{Rate: d("18"), NetBase: d("1"), TaxAmount: d("0.18")}})
	assert.True(t, errors.Is(err, domain.ErrUnknownTaxRate))
}
