package imaging

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"
)

func solid(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func encodeJPEG(img image.Image) []byte {
	var buf bytes.Buffer
	jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90})
	return buf.Bytes()
}

func encodePNG(img image.Image) []byte {
	var buf bytes.Buffer
	png.Encode(&buf, img)
	return buf.Bytes()
}

func TestNormalizeJPEG(t *testing.T) {
	p, err := Normalize(bytes.NewReader(encodeJPEG(solid(100, 80, color.RGBA{255, 0, 0, 255}))))
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if p.MIME != OutputMIME {
		t.Errorf("expected %s, got %s", OutputMIME, p.MIME)
	}
	if p.Width != 100 || p.Height != 80 {
		t.Errorf("expected 100x80 to be kept, got %dx%d", p.Width, p.Height)
	}
}

func TestNormalizePNGBecomesJPEG(t *testing.T) {
	p, err := Normalize(bytes.NewReader(encodePNG(solid(40, 40, color.RGBA{0, 0, 255, 255}))))
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if _, err := jpeg.Decode(bytes.NewReader(p.Data)); err != nil {
		t.Errorf("expected JPEG output: %v", err)
	}
}

func TestNormalizeDownscales(t *testing.T) {
	n := Normalizer{MaxSide: 64}
	p, err := n.Normalize(bytes.NewReader(encodePNG(solid(256, 128, color.Black))))
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if p.Width != 64 || p.Height != 32 {
		t.Errorf("expected 64x32, got %dx%d", p.Width, p.Height)
	}

	img, err := jpeg.Decode(bytes.NewReader(p.Data))
	if err != nil {
		t.Fatalf("decoding output: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 64 || b.Dy() != 32 {
		t.Errorf("encoded image is %dx%d", b.Dx(), b.Dy())
	}
}

func TestNormalizeFlattensTransparency(t *testing.T) {
	p, err := Normalize(bytes.NewReader(encodePNG(solid(8, 8, color.RGBA{0, 0, 0, 0}))))
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	img, _ := jpeg.Decode(bytes.NewReader(p.Data))
	r, g, b, _ := img.At(4, 4).RGBA()
	if r>>8 < 240 || g>>8 < 240 || b>>8 < 240 {
		t.Errorf("expected white background, got %d,%d,%d", r>>8, g>>8, b>>8)
	}
}

func TestNormalizeRejectsNonImage(t *testing.T) {
	_, err := Normalize(bytes.NewReader([]byte("%PDF-1.4 not a photo")))
	if !errors.Is(err, ErrUnsupported) {
		t.Errorf("expected ErrUnsupported, got %v", err)
	}
}

func TestNormalizeRejectsCorruptImage(t *testing.T) {
	data := encodePNG(solid(10, 10, color.White))
	_, err := Normalize(bytes.NewReader(data[:20]))
	if err == nil {
		t.Error("expected error for truncated PNG")
	}
}

func TestFit(t *testing.T) {
	tests := []struct {
		w, h, max    int
		wantW, wantH int
	}{
		{100, 100, 1024, 100, 100},
		{2048, 1024, 1024, 1024, 512},
		{1024, 4096, 1024, 256, 1024},
		{5000, 1, 1000, 1000, 1},
		{1, 5000, 1000, 1, 1000},
	}
	for _, tt := range tests {
		w, h := fit(tt.w, tt.h, tt.max)
		if w != tt.wantW || h != tt.wantH {
			t.Errorf("fit(%d, %d, %d) = %dx%d, want %dx%d", tt.w, tt.h, tt.max, w, h, tt.wantW, tt.wantH)
		}
	}
}
