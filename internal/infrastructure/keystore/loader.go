// Package keystore custodia de la llave privada RSA usada para firmar documentos.
// Soporta .p12/.pfx (PKCS#12), PEM PKCS#1/PKCS#8 y PEM cifrado tradicional (Proc-Type).
package keystore

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/crypto/pkcs12"

	"github.com/sun2dayo/portugal-compliance-sub001/internal/domain"
)

// LoadPrivateKey lee la llave privada RSA desde path.
// Errores: ErrKeyNotFound (ruta vacía o archivo inexistente), ErrKeyUnavailable (sin
// permisos o fallo de E/S) y ErrKeyDecrypt (contraseña incorrecta o material corrupto).
func LoadPrivateKey(path, password string) (*rsa.PrivateKey, error) {
	if strings.TrimSpace(path) == "" {
		return nil, domain.ErrKeyNotFound.With("AT_KEY_PATH", "", "ruta a la llave privada")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		switch {
		case errors.Is(err, fs.ErrNotExist):
			return nil, domain.ErrKeyNotFound.With("key_path", path, "archivo existente").Wrap(err)
		default:
			return nil, domain.ErrKeyUnavailable.With("key_path", path, "archivo legible").Wrap(err)
		}
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".p12", ".pfx":
		return parseP12(path, data, password)
	default:
		return parsePEMOrDER(path, data, password)
	}
}

func parseP12(path string, data []byte, password string) (*rsa.PrivateKey, error) {
	priv, _, err := pkcs12.Decode(data, password)
	if err != nil {
		// Contenedores con más de un certificado: convertir a PEM y buscar la llave.
		blocks, pemErr := pkcs12.ToPEM(data, password)
		if pemErr != nil {
			return nil, domain.ErrKeyDecrypt.With("key_path", path, "PKCS#12 con la contraseña configurada").Wrap(err)
		}
		for _, b := range blocks {
			if strings.HasSuffix(b.Type, "PRIVATE KEY") {
				return parseDER(path, b.Bytes)
			}
		}
		return nil, domain.ErrKeyDecrypt.Msg("el contenedor PKCS#12 no incluye llave privada").With("key_path", path, "")
	}
	return asRSA(path, priv)
}

func parsePEMOrDER(path string, data []byte, password string) (*rsa.PrivateKey, error) {
	rest := data
	for {
		var block *pem.Block
		block, rest = pem.Decode(rest)
		if block == nil {
			break
		}
		if !strings.HasSuffix(block.Type, "PRIVATE KEY") {
			continue // certificados u otros bloques del mismo archivo
		}
		if block.Type == "ENCRYPTED PRIVATE KEY" {
			return nil, domain.ErrKeyDecrypt.
				Msg("PKCS#8 cifrado no soportado; exportar como .p12 o PEM tradicional").
				With("key_path", path, "RSA PRIVATE KEY o PRIVATE KEY")
		}
		der := block.Bytes
		//nolint:staticcheck // PEM cifrado tradicional (DEK-Info) sigue siendo habitual en llaves de firma.
		if x509.IsEncryptedPEMBlock(block) {
			if password == "" {
				return nil, domain.ErrKeyDecrypt.Msg("llave cifrada sin contraseña configurada").With("AT_KEY_PASSWORD", "", "contraseña de la llave")
			}
			var err error
			//nolint:staticcheck
			der, err = x509.DecryptPEMBlock(block, []byte(password))
			if err != nil {
				return nil, domain.ErrKeyDecrypt.With("key_path", path, "contraseña correcta").Wrap(err)
			}
		}
		return parseDER(path, der)
	}
	// Sin bloques PEM: intentar DER crudo.
	return parseDER(path, data)
}

// parseDER acepta PKCS#1 o PKCS#8; pkcs12.ToPEM etiqueta como "PRIVATE KEY" bloques PKCS#1.
func parseDER(path string, der []byte) (*rsa.PrivateKey, error) {
	if k, err := x509.ParsePKCS1PrivateKey(der); err == nil {
		return k, nil
	}
	k, err := x509.ParsePKCS8PrivateKey(der)
	if err != nil {
		return nil, domain.ErrKeyDecrypt.Msg("material de llave corrupto o formato no soportado").With("key_path", path, "RSA PKCS#1 o PKCS#8").Wrap(err)
	}
	return asRSA(path, k)
}

func asRSA(path string, k any) (*rsa.PrivateKey, error) {
	rk, ok := k.(*rsa.PrivateKey)
	if !ok {
		return nil, domain.ErrKeyDecrypt.Msg("la llave no es RSA").With("key_path", path, "llave RSA")
	}
	if err := rk.Validate(); err != nil {
		return nil, domain.ErrKeyDecrypt.Msg("llave RSA inválida").With("key_path", path, "").Wrap(err)
	}
	return rk, nil
}
