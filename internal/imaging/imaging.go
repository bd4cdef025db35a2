// Package imaging serializes captured clipboard bitmaps into a storable byte
// form. Clipboard image data arrives in whatever pixel layout the source
// application produced, so a single encoder is not enough: encoding runs
// through a fixed fallback chain and the first encoder that yields bytes
// wins. When every encoder fails the capture is dropped whole — no partial
// blob is ever written.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/draw"
	"image/jpeg"
	"image/png"
	"time"

	"golang.org/x/image/bmp"
)

// ErrUnencodable is returned when every encoder in the chain failed.
var ErrUnencodable = errors.New("imaging: no encoder produced output")

// jpegQuality for the lossy fallback.
const jpegQuality = 95

// Encoder is one step of the fallback chain.
type Encoder struct {
	Name   string
	Encode func(*bytes.Buffer, image.Image) error
}

// Chain is the default encoder priority: lossless PNG, lossy JPEG, plain
// BMP, then a last-resort re-encode from a fresh NRGBA pixel buffer for
// images whose native representation trips up the direct encoders.
func Chain() []Encoder {
	return []Encoder{
		{Name: "png", Encode: encodePNG},
		{Name: "jpeg", Encode: encodeJPEG},
		{Name: "bmp", Encode: encodeBMP},
		{Name: "raw-png", Encode: encodeRawPNG},
	}
}

// Encode runs img through the default chain.
func Encode(img image.Image) ([]byte, error) {
	return EncodeWith(Chain(), img)
}

// EncodeWith runs img through the given chain, returning the first
// non-empty encoding. Individual encoder failures are not surfaced; only
// total failure is.
func EncodeWith(chain []Encoder, img image.Image) ([]byte, error) {
	if img == nil {
		return nil, ErrUnencodable
	}
	var buf bytes.Buffer
	for _, enc := range chain {
		buf.Reset()
		if err := enc.Encode(&buf, img); err != nil {
			continue
		}
		if buf.Len() > 0 {
			out := make([]byte, buf.Len())
			copy(out, buf.Bytes())
			return out, nil
		}
	}
	return nil, ErrUnencodable
}

// Decode parses encoded bytes back into an image. Importing the chain's
// encoder packages registers their decoders, so any format Encode can
// produce, Decode can read back.
func Decode(data []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("imaging: decode: %w", err)
	}
	return img, nil
}

// BlobName builds the content-addressed file name for an encoded image:
// capture timestamp plus the first 8 hex digits of the fingerprint. The
// extension is always .png regardless of which encoder won; readers sniff
// the real format from the bytes.
func BlobName(ts time.Time, fp string) string {
	short := fp
	if len(short) > 8 {
		short = short[:8]
	}
	return fmt.Sprintf("%s%03d_%s.png", ts.Format("20060102150405"), ts.Nanosecond()/1e6, short)
}

func encodePNG(buf *bytes.Buffer, img image.Image) error {
	return png.Encode(buf, img)
}

func encodeJPEG(buf *bytes.Buffer, img image.Image) error {
	return jpeg.Encode(buf, img, &jpeg.Options{Quality: jpegQuality})
}

func encodeBMP(buf *bytes.Buffer, img image.Image) error {
	return bmp.Encode(buf, img)
}

// encodeRawPNG copies the pixels into a plain NRGBA buffer first, shedding
// whatever exotic color model the clipboard handed over, then encodes that.
func encodeRawPNG(buf *bytes.Buffer, img image.Image) error {
	b := img.Bounds()
	flat := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(flat, flat.Bounds(), img, b.Min, draw.Src)
	return png.Encode(buf, flat)
}
