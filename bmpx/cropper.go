package bmpx

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"io"
	"sync"

	"go.uber.org/zap"

	"github.com/sebnyberg/cropfilter/internal/logging"
)

// Cropper crops a BMP held by a reader. It reports the image dimensions from
// the header alone, so a crop region can be resolved before any pixel row is
// read.
type Cropper struct {
	cropCount int
	mtx       sync.Mutex
	r         io.Reader
	cfg       *image.Config
}

func NewCropper(r io.Reader) *Cropper {
	return &Cropper{r: r}
}

// Config returns the dimensions and color model found in the BMP header.
//
// For readers that are not io.Seekers, the header bytes are buffered and
// replayed to the following Crop.
func (c *Cropper) Config() (image.Config, error) {
	c.mtx.Lock()
	defer c.mtx.Unlock()

	if c.cfg != nil {
		return *c.cfg, nil
	}
	if c.cropCount > 0 {
		if err := c.rewind(); err != nil {
			return image.Config{}, err
		}
	}

	var hdr DecodeResult
	var err error
	if s, ok := c.r.(io.Seeker); ok {
		hdr, err = DecodeHeader(c.r)
		if _, serr := s.Seek(0, io.SeekStart); serr != nil && err == nil {
			err = serr
		}
	} else {
		var buf bytes.Buffer
		hdr, err = DecodeHeader(io.TeeReader(c.r, &buf))
		c.r = io.MultiReader(&buf, c.r)
	}
	if err != nil {
		return image.Config{}, fmt.Errorf("decode bmp header err, %w", err)
	}
	c.cfg = &hdr.Config
	return hdr.Config, nil
}

// Crop crops region out of the BMP into out, see Crop.
func (c *Cropper) Crop(region image.Rectangle, out io.Writer) error {
	c.mtx.Lock()
	defer c.mtx.Unlock()

	// Guard against re-cropping of the same image unless it has been provided
	// as an io.Seeker (can be reset)
	if c.cropCount > 0 {
		if err := c.rewind(); err != nil {
			return err
		}
	}
	c.cropCount++

	logging.Named("bmpx").Debug("crop", zap.Stringer("region", region))
	return Crop(c.r, out, region)
}

func (c *Cropper) rewind() error {
	s, ok := c.r.(io.Seeker)
	if !ok {
		return errors.New("re-cropping not supported for non-io.Seekers")
	}
	_, err := s.Seek(0, io.SeekStart)
	return err
}
