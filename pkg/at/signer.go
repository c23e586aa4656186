// Package at: puerto de firma de documentos fiscales (RSA-SHA256, PKCS#1 v1.5).

package at

// Signer firma y verifica la cadena canónica de un documento.
// La firma se representa en Base64 estándar.
type Signer interface {
	// Sign devuelve la firma Base64 de data.
	Sign(data []byte) (string, error)
	// Verify comprueba la firma Base64 sobre data con la llave pública asociada.
	Verify(data []byte, signatureB64 string) error
}
