package transform

import (
	"bytes"
	"image"
	"testing"
)

func TestResizeToFitKeepsSmallImage(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 100, 200))

	got := ResizeToFit(img, 4096)
	if got != image.Image(img) {
		t.Error("image within bounds should be returned unchanged")
	}
}

func TestResizeToFitScalesLongSide(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 4000, 2000))

	got := ResizeToFit(img, 1000)
	bounds := got.Bounds()
	if bounds.Dx() != 1000 {
		t.Errorf("long side should be scaled to 1000, got %d", bounds.Dx())
	}
	if bounds.Dy() != 500 {
		t.Errorf("aspect ratio should be preserved, short side got %d", bounds.Dy())
	}
}

func TestEncodeJPEGQualityOrdering(t *testing.T) {
	// A noisy gradient so quality actually affects output size.
	img := image.NewRGBA(image.Rect(0, 0, 256, 256))
	for y := 0; y < 256; y++ {
		for x := 0; x < 256; x++ {
			offset := img.PixOffset(x, y)
			img.Pix[offset] = uint8(x * y)
			img.Pix[offset+1] = uint8(x ^ y)
			img.Pix[offset+2] = uint8(x + y)
			img.Pix[offset+3] = 0xff
		}
	}

	high, err := EncodeJPEG(img, NormalJPEGQuality)
	if err != nil {
		t.Fatalf("encode at normal quality failed: %s", err)
	}
	low, err := EncodeJPEG(img, CompressJPEGQuality)
	if err != nil {
		t.Fatalf("encode at compress quality failed: %s", err)
	}

	if len(low) >= len(high) {
		t.Errorf("lower quality should produce smaller output: %d >= %d", len(low), len(high))
	}

	if !bytes.HasPrefix(high, []byte{0xff, 0xd8}) {
		t.Error("output is not a JPEG stream")
	}
}
