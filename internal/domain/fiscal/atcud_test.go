package fiscal_test

import (
	"errors"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sun2dayo/portugal-compliance-sub001/internal/domain"
	"github.com/sun2dayo/portugal-compliance-sub001/internal/domain/fiscal"
)

func TestExtractSequence(t *testing.T) {
	cases := map[string]string{
		"FT2025A/1":         "1",
		"FT2025A/00007":     "7",
		"FT 2025/123":       "123",
		"ACC-SINV-2025-042": "42",
		"FT/A/2025/0100":    "100",
		"NC2025-9":          "9",
		"000":               "0",
		"15":                "15",
	}
	for id, want := range cases {
		got, err := fiscal.ExtractSequence(id)
		require.NoError(t, err, id)
		assert.Equal(t, want, got, id)
	}
}

func TestExtractSequence_SegmentoNoNumerico(t *testing.T) {
	for _, id := range []string{"FT2025A/", "FT2025A/12a", "FT2025A/1-", "", "FT2025A/-3", "FT2025A/1.5"} {
		_, err := fiscal.ExtractSequence(id)
		require.Error(t, err, id)
		assert.True(t, errors.Is(err, domain.ErrSequenceExtraction), id)

		var fe *domain.FiscalError
		require.True(t, errors.As(err, &fe))
		assert.Equal(t, "document_id", fe.Field)
		assert.Equal(t, id, fe.Value)
		assert.Equal(t, domain.KindData, fe.Kind)
	}
}

func TestComposeATCUD_CumpleFormato(t *testing.T) {
	general := regexp.MustCompile(`^[A-Z0-9]+-\d+$`)
	for _, id := range []string{"FT2025A/1", "FT2025A/00007", "ACC-SINV-2025-00042"} {
		seq, err := fiscal.ExtractSequence(id)
		require.NoError(t, err)
		atcud := fiscal.ComposeATCUD("AAJFJMVNTN", seq)
		assert.Regexp(t, general, atcud)
		assert.NoError(t, fiscal.ValidateATCUD(atcud))
	}
	seq, _ := fiscal.ExtractSequence("FT2025A/00007")
	assert.Equal(t, "CSDF7T5H-7", fiscal.ComposeATCUD("CSDF7T5H", seq))
}

func TestValidateATCUD(t *testing.T) {
	valid := []string{"CSDF7T5H-1", "A-0", "ABCDEFGHIJ-123456"}
	for _, a := range valid {
		assert.NoError(t, fiscal.ValidateATCUD(a), a)
	}
	invalid := []string{"", "-1", "CSDF7T5H-", "csdf7t5h-1", "ABCDEFGHIJK-1", "CSDF 7T5H-1", "CSDF7T5H-1a", "CSDF7T5H_1", "ERRO_ATCUD"}
	for _, a := range invalid {
		err := fiscal.ValidateATCUD(a)
		require.Error(t, err, a)
		assert.True(t, errors.Is(err, domain.ErrInvalidATCUD), a)
	}
}

func TestValidateValidationCode(t *testing.T) {
	assert.NoError(t, fiscal.ValidateValidationCode("AAJFJMVNTN"))
	assert.NoError(t, fiscal.ValidateValidationCode(fiscal.NormalizeValidationCode(" csdf7t5h ")))
	assert.Error(t, fiscal.ValidateValidationCode(""))
	assert.Error(t, fiscal.ValidateValidationCode("ABCDEFGHIJK"))
	assert.Error(t, fiscal.ValidateValidationCode("AB-12"))
}

func TestValidateNamingSeries(t *testing.T) {
	for _, ok := range []string{"FT2025A", "nc1", "A"} {
		assert.NoError(t, fiscal.ValidateNamingSeries(ok), ok)
	}
	for _, bad := range []string{"", "FT/2025", "FT*2025", "FT 2025", "FT-2025", "FTÇ"} {
		assert.ErrorIs(t, fiscal.ValidateNamingSeries(bad), domain.ErrInvalidInput, bad)
	}
}
