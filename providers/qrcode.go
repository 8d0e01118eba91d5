package providers

import (
	"encoding/base64"

	qrcode "github.com/skip2/go-qrcode"
)

type QREncoder interface {
	// Encode returns the QR image for content as a data URL.
	Encode(content string) (string, error)
}

type PNGEncoder struct {
	Size int
}

func (e PNGEncoder) Encode(content string) (string, error) {
	size := e.Size
	if size == 0 {
		size = 256
	}
	png, err := qrcode.Encode(content, qrcode.Medium, size)
	if err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}
