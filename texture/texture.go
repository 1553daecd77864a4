// Package texture holds in-memory pixel extraction and encoding for crop
// outputs.
package texture

import (
	"image"

	"github.com/anthonynsimon/bild/transform"
	"github.com/disintegration/imaging"
	"golang.org/x/image/draw"
)

// Imaging extracts regions with disintegration/imaging into *image.NRGBA.
type Imaging struct{}

func (Imaging) Extract(src image.Image, r image.Rectangle) image.Image {
	if r.Empty() {
		return image.NewNRGBA(image.Rect(0, 0, r.Dx(), r.Dy()))
	}
	return imaging.Crop(src, r)
}

// Bild extracts regions with anthonynsimon/bild into *image.RGBA.
type Bild struct{}

func (Bild) Extract(src image.Image, r image.Rectangle) image.Image {
	if r.Empty() {
		return image.NewRGBA(image.Rect(0, 0, r.Dx(), r.Dy()))
	}
	if off := src.Bounds().Min; off != (image.Point{}) {
		// Rebase so bild sees the same coordinates however it clones src.
		b := src.Bounds()
		rebased := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		draw.Draw(rebased, rebased.Bounds(), src, off, draw.Src)
		src, r = rebased, r.Sub(off)
	}
	out := transform.Crop(src, r)
	// Sub-images of an *image.RGBA keep their parent's coordinates.
	out.Rect = out.Rect.Sub(out.Rect.Min)
	return out
}
