package token

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/skip2/go-qrcode"
)

// MaxPayloadLength is the documented safe bound for payloads. Identifiers
// (36 bytes) and registration URLs stay far below it.
const MaxPayloadLength = 256

// Recovery is the error correction level used for every token.
const Recovery = qrcode.Medium

var ErrEncoding = errors.New("token encoding failed")

// Image is the QR rendering of a payload. The module grid includes the
// four-module quiet zone.
type Image struct {
	Payload string
	qr      *qrcode.QRCode
	modules [][]bool
}

// Encode renders payload as a QR code. The result is deterministic for a
// given payload.
func Encode(payload string) (*Image, error) {
	if payload == "" {
		return nil, fmt.Errorf("%w: empty payload", ErrEncoding)
	}
	if len(payload) > MaxPayloadLength {
		return nil, fmt.Errorf("%w: payload of %d bytes exceeds %d", ErrEncoding, len(payload), MaxPayloadLength)
	}

	qr, err := qrcode.New(payload, Recovery)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncoding, err)
	}

	return &Image{Payload: payload, qr: qr, modules: qr.Bitmap()}, nil
}

// Size is the width (and height) of the module grid.
func (i *Image) Size() int {
	return len(i.modules)
}

// Dark reports whether the module at column x, row y is set.
func (i *Image) Dark(x, y int) bool {
	if y < 0 || y >= len(i.modules) || x < 0 || x >= len(i.modules[y]) {
		return false
	}
	return i.modules[y][x]
}

// SVG renders the code as a single-path vector image, moduleSize pixels per module.
func (i *Image) SVG(moduleSize int) []byte {
	if moduleSize <= 0 {
		moduleSize = 10
	}
	n := i.Size()
	px := n * moduleSize

	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<?xml version="1.0" encoding="UTF-8"?>`+"\n")
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" version="1.1" width="%d" height="%d" viewBox="0 0 %d %d" shape-rendering="crispEdges">`, px, px, n, n)
	fmt.Fprintf(&buf, `<rect width="%d" height="%d" fill="#ffffff"/>`, n, n)
	buf.WriteString(`<path fill="#000000" d="`)
	for y := 0; y < n; y++ {
		// Runs of dark modules on a row become one rectangle.
		for x := 0; x < n; {
			if !i.modules[y][x] {
				x++
				continue
			}
			start := x
			for x < n && i.modules[y][x] {
				x++
			}
			fmt.Fprintf(&buf, "M%d %dh%dv1h-%dz", start, y, x-start, x-start)
		}
	}
	buf.WriteString(`"/></svg>`)

	return buf.Bytes()
}

// PNG renders the code as a size x size PNG.
func (i *Image) PNG(size int) ([]byte, error) {
	png, err := i.qr.PNG(size)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncoding, err)
	}
	return png, nil
}
