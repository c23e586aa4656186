package fiscal

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/sun2dayo/portugal-compliance-sub001/internal/domain"
)

var (
	atcudPattern          = regexp.MustCompile(`^[A-Z0-9]{1,10}-\d+$`)
	validationCodePattern = regexp.MustCompile(`^[A-Z0-9]{1,10}$`)
	namingSeriesPattern   = regexp.MustCompile(`^[A-Za-z0-9]+$`)
)

const (
	atcudExpected          = `^[A-Z0-9]{1,10}-\d+$`
	validationCodeExpected = `^[A-Z0-9]{1,10}$`
	namingSeriesExpected   = `^[A-Za-z0-9]+$`
)

// ExtractSequence extrae el número secuencial del identificador del documento: el
// segmento tras el último "/" y, dentro de él, tras el último "-". Devuelve el número
// sin ceros a la izquierda ("FT2025A/00007" -> "7").
func ExtractSequence(documentID string) (string, error) {
	seg := documentID
	if i := strings.LastIndex(seg, "/"); i >= 0 {
		seg = seg[i+1:]
	}
	if i := strings.LastIndex(seg, "-"); i >= 0 {
		seg = seg[i+1:]
	}
	seg = strings.TrimSpace(seg)
	if seg == "" || !isDigits(seg) {
		return "", domain.ErrSequenceExtraction.With("document_id", documentID, "segmento final numérico")
	}
	seq := strings.TrimLeft(seg, "0")
	if seq == "" {
		seq = "0"
	}
	return seq, nil
}

// ComposeATCUD compone el ATCUD "<validationCode>-<sequence>".
func ComposeATCUD(validationCode, sequence string) string {
	return validationCode + "-" + sequence
}

// ValidateATCUD valida el formato textual del ATCUD.
func ValidateATCUD(atcud string) error {
	if !atcudPattern.MatchString(atcud) {
		return domain.ErrInvalidATCUD.With("atcud", atcud, atcudExpected)
	}
	return nil
}

// ValidateValidationCode valida un código de validación AT de serie.
func ValidateValidationCode(code string) error {
	if !validationCodePattern.MatchString(code) {
		return domain.ErrInvalidValidationCode.With("validation_code", code, validationCodeExpected)
	}
	return nil
}

// ValidateNamingSeries valida el prefijo de una serie. Solo alfanuméricos: "/" separa el
// número en el ID y "*" separa los campos del QR.
func ValidateNamingSeries(series string) error {
	if !namingSeriesPattern.MatchString(series) {
		return fmt.Errorf("%w: naming_series %q debe cumplir %s", domain.ErrInvalidInput, series, namingSeriesExpected)
	}
	return nil
}

// NormalizeValidationCode quita espacios y pasa a mayúsculas.
func NormalizeValidationCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
