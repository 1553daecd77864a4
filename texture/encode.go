package texture

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"io"
	"path/filepath"
	"strings"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	"github.com/rwcarlsen/goexif/exif"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
)

// Format is an output encoding.
type Format string

const (
	PNG  Format = "png"
	JPEG Format = "jpg"
	WebP Format = "webp"
)

// FormatFromPath picks a format from a file extension.
func FormatFromPath(path string) (Format, error) {
	return ParseFormat(strings.TrimPrefix(filepath.Ext(path), "."))
}

// ParseFormat parses png, jpg/jpeg and webp.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "png":
		return PNG, nil
	case "jpg", "jpeg":
		return JPEG, nil
	case "webp":
		return WebP, nil
	}
	return "", fmt.Errorf("unsupported format %q", s)
}

// ErrEmptyImage is returned when encoding an image with no pixels. None of
// the supported formats can represent one.
var ErrEmptyImage = errors.New("cannot encode empty image")

// Encode writes img to w. quality applies to JPEG and WebP; zero selects the
// encoder default and WebP with quality 100 is lossless.
func Encode(w io.Writer, img image.Image, f Format, quality int) error {
	if img.Bounds().Empty() {
		return fmt.Errorf("%s: %w", f, ErrEmptyImage)
	}
	switch f {
	case PNG:
		return imaging.Encode(w, img, imaging.PNG)
	case JPEG:
		if quality <= 0 {
			quality = 90
		}
		return imaging.Encode(w, img, imaging.JPEG, imaging.JPEGQuality(quality))
	case WebP:
		opt := &webp.Options{Quality: 90}
		if quality > 0 {
			opt.Quality = float32(quality)
		}
		opt.Lossless = quality >= 100
		return webp.Encode(w, img, opt)
	}
	return fmt.Errorf("unsupported format %q", f)
}

// Decode decodes any format registered with the image package, including
// webp, bmp and tiff.
func Decode(r io.Reader) (image.Image, error) {
	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode image err, %w", err)
	}
	return img, nil
}

// DecodeConfig returns the dimensions of an encoded image without decoding
// its pixels. Width and height are swapped for JPEGs whose EXIF orientation
// transposes the image, so the result matches the bounds returned by Decode.
func DecodeConfig(r io.Reader) (image.Config, error) {
	var hdr bytes.Buffer
	cfg, format, err := image.DecodeConfig(io.TeeReader(r, &hdr))
	if err != nil {
		return image.Config{}, fmt.Errorf("decode image config err, %w", err)
	}
	// Decode only applies EXIF orientation to JPEGs.
	if format == "jpeg" && transposed(io.MultiReader(&hdr, r)) {
		cfg.Width, cfg.Height = cfg.Height, cfg.Width
	}
	return cfg, nil
}

// transposed reports whether the EXIF orientation in r is one of 5-8, the
// orientations that rotate by 90 or 270 degrees. Missing or broken EXIF data
// counts as no rotation, like in imaging.
func transposed(r io.Reader) bool {
	x, err := exif.Decode(r)
	if err != nil {
		return false
	}
	tag, err := x.Get(exif.Orientation)
	if err != nil {
		return false
	}
	o, err := tag.Int(0)
	if err != nil {
		return false
	}
	return o >= 5 && o <= 8
}
