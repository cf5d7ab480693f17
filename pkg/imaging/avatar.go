// Package imaging normalizes uploaded profile pictures.
package imaging

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"strings"

	"golang.org/x/image/draw"
)

const (
	// MaxEncodedLen bounds the accepted base64 payload, data URI prefix included.
	MaxEncodedLen = 10_000_000
	AvatarSize    = 240
)

var (
	ErrTooLarge     = errors.New("image too large")
	ErrUndecodable  = errors.New("image could not be decoded")
	ErrInvalidInput = errors.New("image is not valid base64")
)

// Avatar decodes a base64 image (optionally a data URI), crops it to a centered
// square and scales it to AvatarSize. The result is PNG encoded.
func Avatar(encoded string) ([]byte, error) {
	if len(encoded) > MaxEncodedLen {
		return nil, ErrTooLarge
	}
	if i := strings.Index(encoded, ","); strings.HasPrefix(encoded, "data:") && i >= 0 {
		encoded = encoded[i+1:]
	}
	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(encoded))
	if err != nil {
		return nil, ErrInvalidInput
	}
	src, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUndecodable, err)
	}

	dst := image.NewRGBA(image.Rect(0, 0, AvatarSize, AvatarSize))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, squareCrop(src.Bounds()), draw.Over, nil)

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// squareCrop returns the largest centered square inside r.
func squareCrop(r image.Rectangle) image.Rectangle {
	w, h := r.Dx(), r.Dy()
	side := min(w, h)
	x0 := r.Min.X + (w-side)/2
	y0 := r.Min.Y + (h-side)/2
	return image.Rect(x0, y0, x0+side, y0+side)
}

// DataURI renders PNG bytes as an inline data URI.
func DataURI(pngBytes []byte) string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(pngBytes)
}
