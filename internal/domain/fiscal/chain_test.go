package fiscal_test

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sun2dayo/portugal-compliance-sub001/internal/domain"
	"github.com/sun2dayo/portugal-compliance-sub001/internal/domain/fiscal"
)

// buildChain firma n documentos en orden, resolviendo el hash anterior como lo hace el flujo real.
func buildChain(n int) []fiscal.LinkCheck {
	base := time.Date(2025, 1, 10, 9, 0, 0, 0, time.UTC)
	links := make([]fiscal.LinkCheck, 0, n)
	prev := "0"
	for i := 1; i <= n; i++ {
		in := fiscal.SigningInput{
			PostingDate: time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC),
			EmissionAt:  base.Add(time.Duration(i) * time.Minute),
			DocumentID:  fmt.Sprintf("FT2025A/%d", i),
			GrandTotal:  decimal.NewFromInt(int64(i * 10)),
		}
		l := fiscal.LinkCheck{
			Input:        in,
			CreatedAt:    base.Add(time.Duration(i) * time.Minute),
			PreviousHash: prev,
			ThisHash:     fiscal.ThisHash(in),
		}
		links = append(links, l)
		prev = l.ThisHash
	}
	return links
}

func TestVerifyChain_PropiedadDeCadena(t *testing.T) {
	links := buildChain(25)
	require.NoError(t, fiscal.VerifyChain(links))

	assert.Equal(t, "0", links[0].PreviousHash)
	for k := 1; k < len(links); k++ {
		assert.Equal(t, links[k-1].ThisHash, links[k].PreviousHash)
	}
}

func TestVerifyChain_Vacia(t *testing.T) {
	assert.NoError(t, fiscal.VerifyChain(nil))
}

func TestVerifyChain_DetectaDocumentoAlterado(t *testing.T) {
	links := buildChain(5)
	links[2].Input.GrandTotal = decimal.RequireFromString("999.99")

	err := fiscal.VerifyChain(links)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrBrokenChain))

	var fe *domain.FiscalError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, "this_hash", fe.Field)
	assert.Equal(t, domain.KindIntegrity, fe.Kind)
}

func TestVerifyChain_DetectaEnlaceRoto(t *testing.T) {
	links := buildChain(5)
	links[3].PreviousHash = links[1].ThisHash

	err := fiscal.VerifyChain(links)
	require.Error(t, err)

	var fe *domain.FiscalError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, "previous_hash", fe.Field)
	assert.Equal(t, links[2].ThisHash, fe.Expected)
}

func TestVerifyChain_BifurcacionDetectada(t *testing.T) {
	// dos documentos firmados con el mismo predecesor (sin bloqueo de ámbito)
	links := buildChain(3)
	links[2].PreviousHash = links[0].ThisHash
	assert.True(t, errors.Is(fiscal.VerifyChain(links), domain.ErrBrokenChain))
}

func TestVerifyChain_DocumentoConFechaAnterior(t *testing.T) {
	links := buildChain(2)
	// documento con fecha del día anterior firmado después: no tiene predecesor elegible
	in := fiscal.SigningInput{
		PostingDate: time.Date(2025, 1, 9, 0, 0, 0, 0, time.UTC),
		EmissionAt:  time.Date(2025, 1, 10, 11, 0, 0, 0, time.UTC),
		DocumentID:  "FT2025A/3",
		GrandTotal:  decimal.NewFromInt(5),
	}
	links = append(links, fiscal.LinkCheck{
		Input:        in,
		CreatedAt:    time.Date(2025, 1, 10, 11, 0, 0, 0, time.UTC),
		PreviousHash: "0",
		ThisHash:     fiscal.ThisHash(in),
	})
	assert.NoError(t, fiscal.VerifyChain(links))
}

func TestVerifyChain_DesempateMismaFecha(t *testing.T) {
	links := buildChain(1)
	// borrador creado antes que FT2025A/1 pero firmado después: desempata a "0"
	in := fiscal.SigningInput{
		PostingDate: time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC),
		EmissionAt:  time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC),
		DocumentID:  "FT2025A/2",
		GrandTotal:  decimal.NewFromInt(7),
	}
	links = append(links, fiscal.LinkCheck{
		Input:        in,
		CreatedAt:    time.Date(2025, 1, 10, 8, 0, 0, 0, time.UTC),
		PreviousHash: "0",
		ThisHash:     fiscal.ThisHash(in),
	})
	assert.NoError(t, fiscal.VerifyChain(links))

	links[1].PreviousHash = links[0].ThisHash
	assert.Error(t, fiscal.VerifyChain(links))
}
