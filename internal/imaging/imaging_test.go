package imaging

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"strings"
	"testing"
	"time"
)

func testImage(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.NRGBA{R: uint8(x * 7), G: uint8(y * 13), B: 200, A: 255})
		}
	}
	return img
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	// WHAT: Encoding then decoding preserves pixel dimensions.
	// WHY: A blob that cannot be rendered back at original size is useless.
	src := testImage(17, 9)
	data, err := Encode(src)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := Decode(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Bounds().Dx() != 17 || got.Bounds().Dy() != 9 {
		t.Errorf("dimensions: got %dx%d, want 17x9", got.Bounds().Dx(), got.Bounds().Dy())
	}
}

func TestEncodeFallbackChain(t *testing.T) {
	// WHAT: A failing primary encoder falls through to the next in the chain.
	// WHY: Clipboard bitmaps sometimes defeat the direct PNG path; the
	// capture must still survive through a fallback terminus.
	chain := Chain()
	chain[0].Encode = func(*bytes.Buffer, image.Image) error {
		return errors.New("forced failure")
	}
	data, err := EncodeWith(chain, testImage(4, 4))
	if err != nil {
		t.Fatalf("encode with broken primary: %v", err)
	}
	if _, err := Decode(data); err != nil {
		t.Fatalf("fallback output not decodable: %v", err)
	}
}

func TestEncodeAllEncodersFail(t *testing.T) {
	// WHAT: Total chain failure reports ErrUnencodable and no bytes.
	// WHY: No file and no row may be written for an un-encodable capture.
	broken := func(*bytes.Buffer, image.Image) error { return errors.New("nope") }
	chain := []Encoder{{Name: "a", Encode: broken}, {Name: "b", Encode: broken}}
	data, err := EncodeWith(chain, testImage(2, 2))
	if !errors.Is(err, ErrUnencodable) {
		t.Fatalf("err: got %v, want ErrUnencodable", err)
	}
	if data != nil {
		t.Error("bytes returned despite failure")
	}
}

func TestEncodeNilImage(t *testing.T) {
	// WHAT: Nil input is rejected up front.
	// WHY: Clipboard reads can legitimately come back empty.
	if _, err := Encode(nil); !errors.Is(err, ErrUnencodable) {
		t.Errorf("err: got %v, want ErrUnencodable", err)
	}
}

func TestBlobName(t *testing.T) {
	// WHAT: Blob names combine millisecond timestamp and fingerprint prefix.
	// WHY: The name is the on-disk content address referenced by the row.
	ts := time.Date(2026, 3, 14, 15, 9, 26, 535_000_000, time.UTC)
	name := BlobName(ts, "deadbeefcafe0123")
	if name != "20260314150926535_deadbeef.png" {
		t.Errorf("name: got %q", name)
	}
	if !strings.HasSuffix(BlobName(ts, "ab"), "_ab.png") {
		t.Error("short fingerprint not kept whole")
	}
}
