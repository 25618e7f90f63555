// Package qr renders enrollment links as QR code images.
package qr

import (
	"encoding/base64"
	"errors"
	"html/template"

	qrcode "github.com/skip2/go-qrcode"
)

// DefaultSize is the PNG edge length in pixels.
const DefaultSize = 256

var ErrEmpty = errors.New("qr: empty content")

// PNG encodes content at medium error recovery.
func PNG(content string, size int) ([]byte, error) {
	if content == "" {
		return nil, ErrEmpty
	}
	if size <= 0 {
		size = DefaultSize
	}
	return qrcode.Encode(content, qrcode.Medium, size)
}

// DataURI returns the PNG as an inline image source.
func DataURI(content string) (template.URL, error) {
	png, err := PNG(content, DefaultSize)
	if err != nil {
		return "", err
	}
	return template.URL("data:image/png;base64," + base64.StdEncoding.EncodeToString(png)), nil
}
