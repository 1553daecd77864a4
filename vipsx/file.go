package vipsx

import (
	"fmt"
	"image"
	"os"

	"github.com/davidbyttow/govips/v2/vips"
	vipsimage "github.com/vipsimage/vips"
	"go.uber.org/zap"

	"github.com/sebnyberg/cropfilter/internal/logging"
)

// FileConfig returns the dimensions of the image at name.
func FileConfig(name string) (image.Config, error) {
	Startup()
	img, err := vips.NewImageFromFile(name)
	if err != nil {
		return image.Config{}, fmt.Errorf("open %q err, %w", name, err)
	}
	defer img.Close()
	return image.Config{Width: img.Width(), Height: img.Height()}, nil
}

// CropFile crops area out of the image at name and saves it as a TIFF at out.
// Files are opened by libvips directly, which avoids buffering the source in
// Go memory. The area must lie within the image, see FileConfig.
func CropFile(name string, area image.Rectangle, out string) error {
	if area.Empty() {
		f, err := os.OpenFile(out, os.O_WRONLY|os.O_TRUNC|os.O_CREATE, 0640)
		if err != nil {
			return fmt.Errorf("open file %q err, %w", out, err)
		}
		if err := writeEmpty(f); err != nil {
			f.Close()
			return err
		}
		return f.Close()
	}
	img, err := vipsimage.NewFromFile(name)
	if err != nil {
		return fmt.Errorf("open %q err, %w", name, err)
	}
	logging.Named("vipsx").Debug("crop file",
		zap.String("src", name),
		zap.Stringer("region", area),
	)
	err = img.Crop(area.Min.X, area.Min.Y, area.Dx(), area.Dy())
	if err != nil {
		return fmt.Errorf("crop %q err, %w", name, err)
	}
	return img.TIFFSave(out)
}
