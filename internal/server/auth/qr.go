package auth

import qrcode "github.com/skip2/go-qrcode"

// QRCodePNG renders uri as a size x size PNG.
func QRCodePNG(uri string, size int) ([]byte, error) {
	return qrcode.Encode(uri, qrcode.Medium, size)
}
