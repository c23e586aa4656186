// Package fiscal contiene las reglas puras de certificación de software AT (Portugal):
// cadena de firma, ATCUD, mapeo de tipos de documento, escalones de IVA y payload QR.
// No hace E/S; la capa de aplicación aporta repositorios, llaves y logging.
package fiscal

import (
	"crypto/sha256"
	"encoding/base64"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/sun2dayo/portugal-compliance-sub001/internal/domain/entity"
	"github.com/sun2dayo/portugal-compliance-sub001/pkg/at"
)

const (
	// DateLayout formato de fecha de contabilización (ISO 8601, sin zona).
	DateLayout = "2006-01-02"
	// DateTimeLayout formato de fecha/hora de emisión (ISO 8601, sin zona ni fracción).
	DateTimeLayout = "2006-01-02T15:04:05"

	fieldSeparator = ";"
)

// SigningInput campos del documento que entran en la cadena de firma.
type SigningInput struct {
	PostingDate time.Time
	EmissionAt  time.Time
	DocumentID  string
	GrandTotal  decimal.Decimal
}

// Digest devuelve base64(SHA-256(s)) sobre los bytes UTF-8 de s.
func Digest(s string) string {
	sum := sha256.Sum256([]byte(s))
	return base64.StdEncoding.EncodeToString(sum[:])
}

// FormatAmount formatea un importe con exactamente 2 decimales, punto fijo,
// independiente del locale (ej: 123.45, 0.00, -10.50).
func FormatAmount(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// FormatDate fecha en formato YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// FormatDateTime fecha/hora en formato YYYY-MM-DDTHH:MM:SS.
func FormatDateTime(t time.Time) string {
	return t.Format(DateTimeLayout)
}

// CanonicalSigningString cadena a firmar:
//
//	postingDate;emissionDateTime;documentID;grandTotal;previousHash
func CanonicalSigningString(in SigningInput, previousHash string) string {
	return strings.Join([]string{
		FormatDate(in.PostingDate),
		FormatDateTime(in.EmissionAt),
		in.DocumentID,
		FormatAmount(in.GrandTotal),
		previousHash,
	}, fieldSeparator)
}

// ChainHashString cadena sobre la que se calcula el hash propio del documento.
// No incluye el hash anterior: identifica al documento, no a la cadena.
func ChainHashString(in SigningInput) string {
	return strings.Join([]string{
		FormatDate(in.PostingDate),
		FormatDateTime(in.EmissionAt),
		in.DocumentID,
		FormatAmount(in.GrandTotal),
	}, fieldSeparator)
}

// ThisHash es Digest(ChainHashString(in)).
func ThisHash(in SigningInput) string {
	return Digest(ChainHashString(in))
}

// printCharPositions posiciones de la firma que se imprimen en el documento.
var printCharPositions = [...]int{0, 10, 20, 30}

// MinSignatureLength longitud mínima de la firma para extraer los caracteres de impresión.
const MinSignatureLength = 31

// ExtractPrintCharacters devuelve los caracteres 0, 10, 20 y 30 de la firma unidos por "-".
// Si la firma tiene menos de 31 caracteres devuelve ("", false); el llamador decide si
// registrar un aviso o abortar.
func ExtractPrintCharacters(signature string) (string, bool) {
	if len(signature) < MinSignatureLength {
		return "", false
	}
	parts := make([]string, len(printCharPositions))
	for i, p := range printCharPositions {
		parts[i] = signature[p : p+1]
	}
	return strings.Join(parts, "-"), true
}

// SelectPrevious aplica la regla de desempate al candidato devuelto por el repositorio.
// Sin candidato devuelve el hash génesis "0". Si el candidato tiene la misma fecha de
// contabilización y no fue creado estrictamente antes que el documento actual, también
// devuelve "0" y tieBroken=true.
func SelectPrevious(candidate *entity.ChainLink, postingDate, createdAt time.Time) (hash string, tieBroken bool) {
	if candidate == nil {
		return at.GenesisHash, false
	}
	if sameDay(candidate.PostingDate, postingDate) && !candidate.CreatedAt.Before(createdAt) {
		return at.GenesisHash, true
	}
	return candidate.ThisHash, false
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
