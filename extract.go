package cropfilter

import (
	"image"

	"golang.org/x/image/draw"
)

// drawExtractor copies pixels into an RGBA image with x/image/draw.
type drawExtractor struct{}

func (drawExtractor) Extract(src image.Image, r image.Rectangle) image.Image {
	dst := image.NewRGBA(image.Rect(0, 0, r.Dx(), r.Dy()))
	if r.Empty() {
		return dst
	}
	draw.Draw(dst, dst.Bounds(), src, r.Min, draw.Src)
	return dst
}
