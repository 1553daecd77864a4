// Package tiffx crops TIFF images.
//
// Unlike bmpx, TIFF strips may be compressed, so the whole image is decoded
// before the region is re-encoded. The header alone is enough to report the
// image dimensions.
package tiffx

import (
	"errors"
	"fmt"
	"image"
	"io"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/image/draw"
	"golang.org/x/image/tiff"

	"github.com/sebnyberg/cropfilter/internal/logging"
)

// Cropper crops a TIFF held by an io.ReadSeeker.
type Cropper struct {
	mtx sync.Mutex
	r   io.ReadSeeker
	opt *tiff.Options
}

// NewCropper returns a cropper for the TIFF in r, writing uncompressed TIFFs
// unless opt says otherwise.
func NewCropper(r io.ReadSeeker, opt *tiff.Options) *Cropper {
	return &Cropper{r: r, opt: opt}
}

// Config returns the dimensions found in the first image file directory.
func (c *Cropper) Config() (image.Config, error) {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	if _, err := c.r.Seek(0, io.SeekStart); err != nil {
		return image.Config{}, err
	}
	cfg, err := tiff.DecodeConfig(c.r)
	if err != nil {
		return image.Config{}, fmt.Errorf("decode tiff config err, %w", err)
	}
	return cfg, nil
}

// Crop decodes the TIFF and writes the pixels within region to out as a
// TIFF. The region is clamped to the image. An empty region produces a 0x0
// TIFF.
func (c *Cropper) Crop(region image.Rectangle, out io.Writer) error {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	if _, err := c.r.Seek(0, io.SeekStart); err != nil {
		return err
	}
	logging.Named("tiffx").Debug("crop", zap.Stringer("region", region))
	return Crop(c.r, out, region, c.opt)
}

// Crop crops region out of the TIFF in r and encodes the result to w.
func Crop(r io.Reader, w io.Writer, region image.Rectangle, opt *tiff.Options) error {
	img, err := tiff.Decode(r)
	if err != nil {
		return fmt.Errorf("decode tiff err, %w", err)
	}
	sub, err := subImage(img, region)
	if err != nil {
		return err
	}
	return tiff.Encode(w, sub, opt)
}

type subImager interface {
	SubImage(r image.Rectangle) image.Image
}

// subImage returns the part of img within region, translated so that its
// bounds start at (0,0).
func subImage(img image.Image, region image.Rectangle) (image.Image, error) {
	b := img.Bounds()
	region = region.Add(b.Min)
	if region.Empty() || !region.Overlaps(b) {
		return image.NewRGBA(image.Rectangle{}), nil
	}
	region = region.Intersect(b)
	s, ok := img.(subImager)
	if !ok {
		return nil, errors.New("image does not support sub-imaging")
	}
	sub := s.SubImage(region)
	if sub.Bounds().Min == (image.Point{}) {
		return sub, nil
	}
	// Copy so the encoded image starts at the origin.
	dst := image.NewRGBA64(image.Rect(0, 0, region.Dx(), region.Dy()))
	draw.Draw(dst, dst.Bounds(), sub, region.Min, draw.Src)
	return dst, nil
}
