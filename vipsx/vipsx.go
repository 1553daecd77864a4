// Package vipsx crops images of any format libvips can load, exporting the
// region as TIFF.
package vipsx

import (
	"fmt"
	"image"
	"io"
	"sync"

	"github.com/davidbyttow/govips/v2/vips"
	"go.uber.org/zap"
	"golang.org/x/image/tiff"

	"github.com/sebnyberg/cropfilter/internal/logging"
)

var startOnce sync.Once

// Startup starts libvips with its messages routed to the cropfilter logger.
// It is safe to call more than once; crops call it on first use.
func Startup() {
	startOnce.Do(func() {
		vips.LoggingSettings(logHandler, vips.LogLevelWarning)
		vips.Startup(nil)
	})
}

func logHandler(domain string, level vips.LogLevel, msg string) {
	l := logging.Named("vipsx").With(zap.String("domain", domain))
	switch level {
	case vips.LogLevelError, vips.LogLevelCritical:
		l.Error(msg)
	case vips.LogLevelWarning:
		l.Warn(msg)
	case vips.LogLevelMessage, vips.LogLevelInfo:
		l.Info(msg)
	default:
		l.Debug(msg)
	}
}

// Cropper crops an encoded image. The encoded bytes are read once and kept,
// so the image can be cropped any number of times.
type Cropper struct {
	mtx sync.Mutex
	r   io.Reader
	buf []byte
}

func NewCropper(r io.Reader) *Cropper {
	return &Cropper{r: r}
}

func (c *Cropper) load() (*vips.ImageRef, error) {
	Startup()
	if c.buf == nil {
		b, err := io.ReadAll(c.r)
		if err != nil {
			return nil, fmt.Errorf("read image err, %w", err)
		}
		c.buf = b
	}
	img, err := vips.NewImageFromBuffer(c.buf)
	if err != nil {
		return nil, fmt.Errorf("load image err, %w", err)
	}
	return img, nil
}

// Config returns the image dimensions. libvips only reads the header here.
func (c *Cropper) Config() (image.Config, error) {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	img, err := c.load()
	if err != nil {
		return image.Config{}, err
	}
	defer img.Close()
	return image.Config{Width: img.Width(), Height: img.Height()}, nil
}

func (c *Cropper) Crop(cropArea image.Rectangle, out io.Writer) error {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	img, err := c.load()
	if err != nil {
		return err
	}
	defer img.Close()
	return crop(img, cropArea, out)
}

// Crop crops cropArea out of the image in r and writes it to out as TIFF.
func Crop(r io.Reader, cropArea image.Rectangle, out io.Writer) error {
	Startup()
	img, err := vips.NewImageFromReader(r)
	if err != nil {
		return err
	}
	defer img.Close()
	return crop(img, cropArea, out)
}

func crop(img *vips.ImageRef, cropArea image.Rectangle, out io.Writer) error {
	cropArea = cropArea.Intersect(image.Rect(0, 0, img.Width(), img.Height()))
	if cropArea.Empty() {
		// libvips has no zero-sized images.
		return writeEmpty(out)
	}
	logging.Named("vipsx").Debug("extract area", zap.Stringer("region", cropArea))
	err := img.ExtractArea(cropArea.Min.X, cropArea.Min.Y, cropArea.Dx(), cropArea.Dy())
	if err != nil {
		return fmt.Errorf("extract area err, %w", err)
	}
	b, _, err := img.ExportTiff(vips.NewTiffExportParams())
	if err != nil {
		return fmt.Errorf("export tiff err, %w", err)
	}
	_, err = out.Write(b)
	return err
}

func writeEmpty(out io.Writer) error {
	return tiff.Encode(out, image.NewRGBA(image.Rectangle{}), nil)
}
