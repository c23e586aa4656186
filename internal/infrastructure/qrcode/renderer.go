// Package qrcode renderiza el payload AT como imagen PNG (nivel de corrección M).
package qrcode

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image/png"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/qr"

	"github.com/sun2dayo/portugal-compliance-sub001/internal/domain"
)

// DataURIPrefix prefijo para incrustar el PNG en plantillas de impresión.
const DataURIPrefix = "data:image/png;base64,"

// DefaultSize lado del PNG en píxeles (la Portaria exige al menos 30x30 mm impresos).
const DefaultSize = 300

// Renderer genera imágenes QR a partir del payload. No hace E/S.
type Renderer struct {
	size int
}

// NewRenderer crea el renderer; size <= 0 usa DefaultSize.
func NewRenderer(size int) *Renderer {
	if size <= 0 {
		size = DefaultSize
	}
	return &Renderer{size: size}
}

// RenderPNG devuelve el PNG del payload. ErrEmptyPayload si está vacío.
func (r *Renderer) RenderPNG(payload string, size int) ([]byte, error) {
	if payload == "" {
		return nil, domain.ErrEmptyPayload
	}
	if size <= 0 {
		size = r.size
	}
	code, err := qr.Encode(payload, qr.M, qr.Auto)
	if err != nil {
		return nil, fmt.Errorf("qrcode: codificar payload: %w", err)
	}
	scaled, err := barcode.Scale(code, size, size)
	if err != nil {
		return nil, fmt.Errorf("qrcode: escalar a %dpx: %w", size, err)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, scaled); err != nil {
		return nil, fmt.Errorf("qrcode: codificar PNG: %w", err)
	}
	return buf.Bytes(), nil
}

// DataURI devuelve "data:image/png;base64,<png>" con el tamaño por defecto.
func (r *Renderer) DataURI(payload string) (string, error) {
	img, err := r.RenderPNG(payload, 0)
	if err != nil {
		return "", err
	}
	return DataURIPrefix + base64.StdEncoding.EncodeToString(img), nil
}
