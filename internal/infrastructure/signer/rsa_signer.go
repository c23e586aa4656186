// Package signer firma la cadena canónica de los documentos con RSA-PKCS#1 v1.5 / SHA-256.
package signer

import (
	"context"
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"

	"github.com/sun2dayo/portugal-compliance-sub001/internal/domain"
	"github.com/sun2dayo/portugal-compliance-sub001/pkg/at"
)

var _ at.Signer = (*RSASigner)(nil)

// RSASigner implementa at.Signer. PKCS#1 v1.5 es determinista: mismos datos y misma
// llave producen la misma firma.
type RSASigner struct {
	priv *rsa.PrivateKey
}

// NewRSASigner crea el firmador con la llave dada.
func NewRSASigner(priv *rsa.PrivateKey) *RSASigner {
	return &RSASigner{priv: priv}
}

// Sign devuelve base64(RSA-PKCS1v15(SHA-256(data))).
func (s *RSASigner) Sign(data []byte) (string, error) {
	if s == nil || s.priv == nil {
		return "", domain.ErrKeyUnavailable
	}
	h := sha256.Sum256(data)
	sig, err := rsa.SignPKCS1v15(rand.Reader, s.priv, crypto.SHA256, h[:])
	if err != nil {
		return "", domain.ErrKeyUnavailable.Msg("fallo al firmar con la llave privada").Wrap(err)
	}
	return base64.StdEncoding.EncodeToString(sig), nil
}

// Verify comprueba una firma base64 con la llave pública.
func (s *RSASigner) Verify(data []byte, signatureB64 string) error {
	return VerifyWithPublicKey(&s.priv.PublicKey, data, signatureB64)
}

// PublicKey llave pública asociada.
func (s *RSASigner) PublicKey() *rsa.PublicKey {
	return &s.priv.PublicKey
}

// PublicKeyPEM llave pública en PEM (PKIX), la que se entrega a la AT.
func (s *RSASigner) PublicKeyPEM() (string, error) {
	der, err := x509.MarshalPKIXPublicKey(&s.priv.PublicKey)
	if err != nil {
		return "", err
	}
	return string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der})), nil
}

// VerifyWithPublicKey verifica sin necesidad de la llave privada (auditoría).
func VerifyWithPublicKey(pub *rsa.PublicKey, data []byte, signatureB64 string) error {
	sig, err := base64.StdEncoding.DecodeString(signatureB64)
	if err != nil {
		return domain.ErrSignatureVerification.With("signature", signatureB64, "base64").Wrap(err)
	}
	h := sha256.Sum256(data)
	if err := rsa.VerifyPKCS1v15(pub, crypto.SHA256, h[:], sig); err != nil {
		return domain.ErrSignatureVerification.Wrap(err)
	}
	return nil
}

// KeySource origen de la llave privada (keystore.Custody).
type KeySource interface {
	PrivateKey(ctx context.Context) (*rsa.PrivateKey, error)
}

// Provider construye firmadores a partir de la llave custodiada.
type Provider struct {
	keys KeySource
}

// NewProvider crea el proveedor.
func NewProvider(keys KeySource) *Provider {
	return &Provider{keys: keys}
}

// Signer devuelve un firmador con la llave actual. Los errores de custodia se propagan
// tal cual (ErrKeyNotFound, ErrKeyDecrypt, ErrKeyTimeout).
func (p *Provider) Signer(ctx context.Context) (at.Signer, error) {
	k, err := p.keys.PrivateKey(ctx)
	if err != nil {
		return nil, err
	}
	return NewRSASigner(k), nil
}
