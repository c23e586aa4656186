package signer_test

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sun2dayo/portugal-compliance-sub001/internal/domain"
	"github.com/sun2dayo/portugal-compliance-sub001/internal/domain/fiscal"
	"github.com/sun2dayo/portugal-compliance-sub001/internal/infrastructure/signer"
)

func newKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	k, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	return k
}

func TestRSASigner_RoundTrip(t *testing.T) {
	s := signer.NewRSASigner(newKey(t))
	inputs := []string{
		"2025-01-10;2025-01-10T10:00:00;FT2025A/1;123.45;0",
		"",
		"ação;çãõ;€",
	}
	for _, in := range inputs {
		sig, err := s.Sign([]byte(in))
		require.NoError(t, err)
		assert.NoError(t, s.Verify([]byte(in), sig), in)
		assert.NoError(t, signer.VerifyWithPublicKey(s.PublicKey(), []byte(in), sig))
	}
}

func TestRSASigner_Determinista(t *testing.T) {
	s := signer.NewRSASigner(newKey(t))
	data := []byte("2025-01-10;2025-01-10T10:00:00;FT2025A/1;123.45;0")
	a, err := s.Sign(data)
	require.NoError(t, err)
	b, err := s.Sign(data)
	require.NoError(t, err)
	assert.Equal(t, a, b)

	chars, ok := fiscal.ExtractPrintCharacters(a)
	assert.True(t, ok)
	assert.Len(t, chars, 7)
}

func TestRSASigner_VerifyFalla(t *testing.T) {
	s := signer.NewRSASigner(newKey(t))
	sig, err := s.Sign([]byte("original"))
	require.NoError(t, err)

	err = s.Verify([]byte("alterado"), sig)
	assert.True(t, errors.Is(err, domain.ErrSignatureVerification))

	err = s.Verify([]byte("original"), "%%%no-base64")
	assert.True(t, errors.Is(err, domain.ErrSignatureVerification))

	other := signer.NewRSASigner(newKey(t))
	assert.Error(t, other.Verify([]byte("original"), sig))
}

func TestRSASigner_SinLlave(t *testing.T) {
	var s *signer.RSASigner
	_, err := s.Sign([]byte("x"))
	assert.True(t, errors.Is(err, domain.ErrKeyUnavailable))
}

func TestRSASigner_PublicKeyPEM(t *testing.T) {
	s := signer.NewRSASigner(newKey(t))
	p, err := s.PublicKeyPEM()
	require.NoError(t, err)
	assert.Contains(t, p, "-----BEGIN PUBLIC KEY-----")
}

type keySourceFunc func(ctx context.Context) (*rsa.PrivateKey, error)

func (f keySourceFunc) PrivateKey(ctx context.Context) (*rsa.PrivateKey, error) { return f(ctx) }

func TestProvider_PropagaErrorDeCustodia(t *testing.T) {
	p := signer.NewProvider(keySourceFunc(func(context.Context) (*rsa.PrivateKey, error) {
		return nil, domain.ErrKeyNotFound
	}))
	_, err := p.Signer(context.Background())
	assert.True(t, errors.Is(err, domain.ErrKeyNotFound))

	k := newKey(t)
	p = signer.NewProvider(keySourceFunc(func(context.Context) (*rsa.PrivateKey, error) { return k, nil }))
	s, err := p.Signer(context.Background())
	require.NoError(t, err)
	sig, err := s.Sign([]byte("x"))
	require.NoError(t, err)
	assert.NoError(t, s.Verify([]byte("x"), sig))
}
