// Package cropfilter implements the crop node of an image-filter graph.
//
// A Region describes the part of an image to keep, either in absolute pixels
// or in percent of the source extent. Resolve turns a region and a concrete
// source size into an integer pixel rectangle and the output size, without
// touching pixels. CropFilter wraps a region as a unary Filter so graph code
// can ask for output dimensions before rendering, then Apply the crop to an
// in-memory image or stream it through one of the Cropper backends (bmpx,
// tiffx, vipsx).
package cropfilter

import (
	"image"
	"io"

	"github.com/sebnyberg/cropfilter/bmpx"
	"github.com/sebnyberg/cropfilter/tiffx"
)

var _ Source = new(bmpx.Cropper)
var _ Source = new(tiffx.Cropper)

var _ Filter = new(CropFilter)
var _ Filter = new(Chain)

// Filter is a node with exactly one input image and one output image.
type Filter interface {
	// InputCount returns the number of input images, always 1.
	InputCount() int

	// OutputSize returns the output dimensions for an input of size in. It
	// never touches pixels, so graph code can allocate buffers before any
	// rendering takes place.
	OutputSize(in Size) (Size, error)

	// Apply renders the filter for src. The bounds of the result have size
	// OutputSize(src size).
	Apply(src image.Image) (image.Image, error)
}

type Cropper interface {
	// Crop crops the provided region out of an image and puts the result in
	// the provided writer
	Crop(r image.Rectangle, to io.Writer) error
}

// Source is an encoded image that can report its dimensions without decoding
// pixel data, and crop itself into a writer.
type Source interface {
	Cropper
	Config() (image.Config, error)
}

// Extractor copies the pixels within r out of src into a new image whose
// bounds start at (0,0).
type Extractor interface {
	Extract(src image.Image, r image.Rectangle) image.Image
}
