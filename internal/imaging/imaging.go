// Package imaging normalizes tool photos before they are stored: the format
// is sniffed from the bytes, large photos are scaled down and everything is
// re-encoded as JPEG so chat clients can show it inline.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"net/http"

	"golang.org/x/image/draw"
	"golang.org/x/image/webp"
)

// Defaults for Normalizer.
const (
	DefaultMaxSide = 1024
	DefaultQuality = 85
)

// OutputMIME is the type of every normalized photo.
const OutputMIME = "image/jpeg"

// ErrUnsupported is returned for inputs that are not a supported image.
var ErrUnsupported = errors.New("unsupported image format")

var decoders = map[string]func(io.Reader) (image.Image, error){
	"image/jpeg": jpeg.Decode,
	"image/png":  png.Decode,
	"image/gif":  gif.Decode,
	"image/webp": webp.Decode,
}

// Photo is a normalized photo.
type Photo struct {
	Data   []byte
	MIME   string
	Width  int
	Height int
}

// Normalizer re-encodes photos. The zero value uses the defaults.
type Normalizer struct {
	MaxSide int
	Quality int
}

// Normalize decodes the photo in r, fits it within MaxSide on both sides and
// encodes it as JPEG. Transparent areas become white.
func (n Normalizer) Normalize(r io.Reader) (*Photo, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading photo: %w", err)
	}

	detected := http.DetectContentType(data)
	decode, ok := decoders[detected]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, detected)
	}

	src, err := decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", detected, err)
	}

	maxSide := n.MaxSide
	if maxSide <= 0 {
		maxSide = DefaultMaxSide
	}
	quality := n.Quality
	if quality <= 0 || quality > 100 {
		quality = DefaultQuality
	}

	b := src.Bounds()
	w, h := fit(b.Dx(), b.Dy(), maxSide)
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	if w == b.Dx() && h == b.Dy() {
		draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Over)
	} else {
		draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("encoding JPEG: %w", err)
	}

	return &Photo{Data: buf.Bytes(), MIME: OutputMIME, Width: w, Height: h}, nil
}

// Normalize uses the default Normalizer.
func Normalize(r io.Reader) (*Photo, error) {
	return Normalizer{}.Normalize(r)
}

// fit scales w x h down so that neither side exceeds maxSide, keeping the
// aspect ratio. Sizes already within bounds are returned unchanged.
func fit(w, h, maxSide int) (int, int) {
	if w <= maxSide && h <= maxSide {
		return w, h
	}
	if w >= h {
		return maxSide, max(1, h*maxSide/w)
	}
	return max(1, w*maxSide/h), maxSide
}
