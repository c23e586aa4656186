package fiscal_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sun2dayo/portugal-compliance-sub001/internal/domain"
	"github.com/sun2dayo/portugal-compliance-sub001/internal/domain/entity"
	"github.com/sun2dayo/portugal-compliance-sub001/internal/domain/fiscal"
	"github.com/sun2dayo/portugal-compliance-sub001/pkg/at"
)

func scenarioQRInput(t *testing.T) fiscal.QRInput {
	t.Helper()
	tbl, err := fiscal.DefaultBrackets("PT")
	require.NoError(t, err)
	totals, err := tbl.Summarize([]entity.TaxLine{
		{Rate: d("23"), NetBase: d("100"), TaxAmount: d("23")},
		{Rate: d("0"), NetBase: d("0.45"), TaxAmount: d("0")},
	})
	require.NoError(t, err)
	return fiscal.QRInput{
		IssuerNIF:         "PT500000000",
		CustomerNIF:       "123456789",
		CustomerCountry:   "PT",
		ATDocumentType:    "FT",
		Submitted:         true,
		PostingDate:       time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC),
		DocumentID:        "FT2025A/1",
		ATCUD:             "AAJFJMVNTN-1",
		Totals:            totals,
		GrandTotal:        d("123.45"),
		PrintChars:        "A-K-U-e",
		CertificateNumber: "9999",
	}
}

func TestBuildQRPayload_VectorExacto(t *testing.T) {
	p := fiscal.BuildQRPayload(scenarioQRInput(t))
	assert.Equal(t,
		"A:500000000*B:123456789*C:PT*D:FT*E:N*F:2025-01-10*G:FT2025A/1*H:AAJFJMVNTN-1"+
			"*I1:0.45*I2:0.00*I3:0.00*I4:0.00*I5:0.00*I6:100.00*I7:23.00"+
			"*N:0.00*O:123.45*P:0.00*Q:A-K-U-e*R:9999",
		p.String())
}

func TestBuildQRPayload_OrdenDeCampos(t *testing.T) {
	p := fiscal.BuildQRPayload(scenarioQRInput(t))
	require.Len(t, p.Fields, len(at.QRFieldOrder))
	for i, k := range at.QRFieldOrder {
		assert.Equal(t, k, p.Fields[i].Key)
	}
	_, ok := p.Get("I8")
	assert.False(t, ok)
}

func TestBuildQRPayload_Fallbacks(t *testing.T) {
	in := scenarioQRInput(t)

	t.Run("adquirente extranjero", func(t *testing.T) {
		in := in
		in.CustomerCountry = "es"
		in.CustomerNIF = "B12345678"
		p := fiscal.BuildQRPayload(in)
		b, _ := p.Get(at.FieldCustomerNIF)
		c, _ := p.Get(at.FieldCustomerCountry)
		assert.Equal(t, "999999990", b)
		assert.Equal(t, "ES", c)
	})

	t.Run("NIF portugués con dígito de control inválido", func(t *testing.T) {
		in := in
		in.CustomerNIF = "123456780"
		b, _ := fiscal.BuildQRPayload(in).Get(at.FieldCustomerNIF)
		assert.Equal(t, "999999990", b)
	})

	t.Run("país vacío se asume PT", func(t *testing.T) {
		in := in
		in.CustomerCountry = ""
		p := fiscal.BuildQRPayload(in)
		c, _ := p.Get(at.FieldCustomerCountry)
		b, _ := p.Get(at.FieldCustomerNIF)
		assert.Equal(t, "PT", c)
		assert.Equal(t, "123456789", b)
	})

	t.Run("emisor sin NIF", func(t *testing.T) {
		in := in
		in.IssuerNIF = ""
		a, _ := fiscal.BuildQRPayload(in).Get(at.FieldIssuerNIF)
		assert.Equal(t, "999999990", a)
	})

	t.Run("documento no emitido", func(t *testing.T) {
		in := in
		in.Submitted = false
		e, _ := fiscal.BuildQRPayload(in).Get(at.FieldDocumentStatus)
		assert.Equal(t, "R", e)
	})

	t.Run("sin totales por escalón", func(t *testing.T) {
		in := in
		in.Totals = nil
		i6, _ := fiscal.BuildQRPayload(in).Get(at.FieldNormalBase)
		assert.Equal(t, "0.00", i6)
	})
}

func TestParseQRPayload_RoundTrip(t *testing.T) {
	p := fiscal.BuildQRPayload(scenarioQRInput(t))
	parsed, err := fiscal.ParseQRPayload(p.String())
	require.NoError(t, err)
	assert.Equal(t, p, parsed)
	assert.Equal(t, p.String(), parsed.String())
}

func TestParseQRPayload_Errores(t *testing.T) {
	_, err := fiscal.ParseQRPayload("")
	assert.True(t, errors.Is(err, domain.ErrEmptyPayload))

	_, err = fiscal.ParseQRPayload("A:500000000*B")
	assert.Error(t, err)

	_, err = fiscal.ParseQRPayload(":x")
	assert.Error(t, err)
}
