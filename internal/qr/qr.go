// Package qr renders payment payloads as scannable images.
package qr

import (
	"encoding/base64"
	"errors"
	"fmt"

	qrcode "github.com/skip2/go-qrcode"
)

const dataURIPrefix = "data:image/png;base64,"

// Renderer encodes payloads as PNG QR codes.
type Renderer struct {
	size  int
	level qrcode.RecoveryLevel
}

// NewRenderer creates a Renderer producing size×size pixel images.
func NewRenderer(size int) *Renderer {
	if size <= 0 {
		size = 256
	}
	return &Renderer{size: size, level: qrcode.Medium}
}

// Render returns payload as a PNG QR code in a data URI.
func (r *Renderer) Render(payload []byte) (string, error) {
	if len(payload) == 0 {
		return "", errors.New("empty qr payload")
	}
	png, err := qrcode.Encode(string(payload), r.level, r.size)
	if err != nil {
		return "", fmt.Errorf("render qr: %w", err)
	}
	return dataURIPrefix + base64.StdEncoding.EncodeToString(png), nil
}
