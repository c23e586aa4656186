package qrcode_test

import (
	"bytes"
	"encoding/base64"
	"errors"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sun2dayo/portugal-compliance-sub001/internal/domain"
	"github.com/sun2dayo/portugal-compliance-sub001/internal/infrastructure/qrcode"
)

const payload = "A:500000000*B:123456789*C:PT*D:FT*E:N*F:2025-01-10*G:FT2025A/1*H:AAJFJMVNTN-1" +
	"*I1:0.45*I2:0.00*I3:0.00*I4:0.00*I5:0.00*I6:100.00*I7:23.00" +
	"*N:0.00*O:123.45*P:0.00*Q:A-K-U-e*R:9999"

func TestRenderPNG(t *testing.T) {
	r := qrcode.NewRenderer(0)
	img, err := r.RenderPNG(payload, 240)
	require.NoError(t, err)

	decoded, err := png.Decode(bytes.NewReader(img))
	require.NoError(t, err)
	assert.Equal(t, 240, decoded.Bounds().Dx())
	assert.Equal(t, 240, decoded.Bounds().Dy())
}

func TestRenderPNG_Determinista(t *testing.T) {
	r := qrcode.NewRenderer(200)
	a, err := r.RenderPNG(payload, 0)
	require.NoError(t, err)
	b, err := r.RenderPNG(payload, 0)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestRenderPNG_PayloadVacio(t *testing.T) {
	r := qrcode.NewRenderer(0)
	_, err := r.RenderPNG("", 0)
	assert.True(t, errors.Is(err, domain.ErrEmptyPayload))

	_, err = r.DataURI("")
	assert.True(t, errors.Is(err, domain.ErrEmptyPayload))
}

func TestDataURI(t *testing.T) {
	r := qrcode.NewRenderer(0)
	uri, err := r.DataURI(payload)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(uri, qrcode.DataURIPrefix))

	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(uri, qrcode.DataURIPrefix))
	require.NoError(t, err)
	img, err := png.Decode(bytes.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, qrcode.DefaultSize, img.Bounds().Dx())
}
