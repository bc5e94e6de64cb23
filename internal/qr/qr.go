package qr

import (
	"encoding/base64"
	"fmt"

	qrcode "github.com/skip2/go-qrcode"
)

// size of generated QR images in pixels.
const size = 256

// PNG renders data as a QR code image.
func PNG(data string) ([]byte, error) {
	if data == "" {
		return nil, fmt.Errorf("qr: empty payload")
	}
	png, err := qrcode.Encode(data, qrcode.Low, size)
	if err != nil {
		return nil, fmt.Errorf("qr: encoding failed: %w", err)
	}
	return png, nil
}

// DataURL renders data as a base64 PNG data URL, ready for embedding in
// status responses and the kiosk UI.
func DataURL(data string) (string, error) {
	png, err := PNG(data)
	if err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}
