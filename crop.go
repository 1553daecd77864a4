package cropfilter

import (
	"fmt"
	"image"
	"io"
	"sync"

	"go.uber.org/zap"

	"github.com/sebnyberg/cropfilter/internal/logging"
)

// CropFilter is a unary filter that crops its input to a Region.
//
// The region may be replaced between resolution passes with SetRegion. Each
// call to OutputSize, Resolve, Apply or CropTo works on a single snapshot of
// the region, so an update never affects a pass that is already running.
type CropFilter struct {
	mtx      sync.Mutex
	region   Region
	rounding Rounding
	extract  Extractor
}

// Option configures a CropFilter.
type Option func(f *CropFilter)

// WithRounding sets how fractional edges snap to pixels. The default is
// RoundNearest.
func WithRounding(r Rounding) Option {
	return func(f *CropFilter) {
		f.rounding = r
	}
}

// WithExtractor sets the extractor used by Apply. The default copies into an
// *image.RGBA.
func WithExtractor(e Extractor) Option {
	return func(f *CropFilter) {
		if e != nil {
			f.extract = e
		}
	}
}

// New returns a filter cropping to region.
func New(region Region, opts ...Option) (*CropFilter, error) {
	if err := region.Validate(); err != nil {
		return nil, err
	}
	f := &CropFilter{
		region:  region,
		extract: drawExtractor{},
	}
	for _, opt := range opts {
		opt(f)
	}
	// Fail on an unknown rounding mode now rather than on the first pass.
	if _, err := ResolveRounded(region, Size{}, f.rounding); err != nil {
		return nil, err
	}
	return f, nil
}

// Region returns the current region.
func (f *CropFilter) Region() Region {
	f.mtx.Lock()
	defer f.mtx.Unlock()
	return f.region
}

// SetRegion replaces the region used by subsequent resolution passes. If r
// is invalid, the error is returned and the previous region is kept.
func (f *CropFilter) SetRegion(r Region) error {
	if err := r.Validate(); err != nil {
		logging.Named("cropfilter").Warn("rejected crop region",
			zap.Stringer("region", r),
			zap.Error(err),
		)
		return err
	}
	f.mtx.Lock()
	f.region = r
	f.mtx.Unlock()
	return nil
}

func (f *CropFilter) InputCount() int {
	return 1
}

// Resolve resolves the current region against a source of size in.
func (f *CropFilter) Resolve(in Size) (Resolved, error) {
	region := f.Region()
	res, err := ResolveRounded(region, in, f.rounding)
	if err != nil {
		return Resolved{}, err
	}
	logging.Named("cropfilter").Debug("resolved crop",
		zap.Stringer("region", region),
		zap.Stringer("source", in),
		zap.Stringer("rect", res.Rect),
	)
	return res, nil
}

func (f *CropFilter) OutputSize(in Size) (Size, error) {
	res, err := f.Resolve(in)
	if err != nil {
		return Size{}, err
	}
	return res.Size, nil
}

// Apply crops src. An empty crop yields an image with empty bounds.
func (f *CropFilter) Apply(src image.Image) (image.Image, error) {
	b := src.Bounds()
	res, err := f.Resolve(SizeOf(b))
	if err != nil {
		return nil, err
	}
	return f.extract.Extract(src, res.Rect.Add(b.Min)), nil
}

// CropTo resolves the current region against the dimensions reported by src
// and crops src into to.
func (f *CropFilter) CropTo(src Source, to io.Writer) (Resolved, error) {
	cfg, err := src.Config()
	if err != nil {
		return Resolved{}, fmt.Errorf("read source config err, %w", err)
	}
	res, err := f.Resolve(Size{Width: cfg.Width, Height: cfg.Height})
	if err != nil {
		return Resolved{}, err
	}
	if err := src.Crop(res.Rect, to); err != nil {
		return Resolved{}, fmt.Errorf("crop %v err, %w", res.Rect, err)
	}
	return res, nil
}
