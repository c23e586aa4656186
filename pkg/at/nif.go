package at

import (
	"fmt"
	"unicode"
)

// pesos del dígito de control del NIF (módulo 11), aplicados a los 8 primeros dígitos.
var nifWeights = [8]int{9, 8, 7, 6, 5, 4, 3, 2}

// ValidateNIF valida que el NIF tenga exactamente 9 dígitos y dígito de control correcto.
// Acepta el prefijo "PT" y espacios, que se descartan.
func ValidateNIF(nif string) error {
	digits := extractDigits(stripCountryPrefix(nif))
	if len(digits) != 9 {
		return fmt.Errorf("at: NIF debe tener 9 dígitos, se encontraron %d", len(digits))
	}
	expected, err := ComputeNIFCheckDigit(string(digits[:8]))
	if err != nil {
		return err
	}
	if digits[8] != expected {
		return fmt.Errorf("at: dígito de control del NIF inválido: esperado %c, recibido %c", expected, digits[8])
	}
	return nil
}

// ComputeNIFCheckDigit calcula el dígito de control para los 8 primeros dígitos del NIF.
func ComputeNIFCheckDigit(base string) (byte, error) {
	digits := extractDigits(base)
	if len(digits) < 8 {
		return 0, fmt.Errorf("at: se requieren 8 dígitos para calcular el dígito de control, se encontraron %d", len(digits))
	}
	var sum int
	for i, d := range digits[:8] {
		sum += int(d-'0') * nifWeights[i]
	}
	remainder := sum % 11
	if remainder < 2 {
		return '0', nil
	}
	return byte('0' + (11 - remainder)), nil
}

// NormalizeNIF devuelve solo los dígitos del NIF (sin prefijo PT, espacios ni puntos).
func NormalizeNIF(nif string) string {
	return string(extractDigits(stripCountryPrefix(nif)))
}

func stripCountryPrefix(s string) string {
	if len(s) >= 2 && (s[0] == 'P' || s[0] == 'p') && (s[1] == 'T' || s[1] == 't') {
		return s[2:]
	}
	return s
}

func extractDigits(s string) []byte {
	var out []byte
	for _, r := range s {
		if unicode.IsDigit(r) && r < unicode.MaxASCII {
			out = append(out, byte(r))
		}
	}
	return out
}
