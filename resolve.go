package cropfilter

import (
	"image"
	"math"
	"strconv"
)

// Size is a width and height in pixels.
type Size struct {
	Width, Height int
}

// SizeOf returns the size of r.
func SizeOf(r image.Rectangle) Size {
	return Size{Width: r.Dx(), Height: r.Dy()}
}

// Empty reports whether the size covers no pixels.
func (s Size) Empty() bool {
	return s.Width <= 0 || s.Height <= 0
}

// Point returns the size as an image.Point.
func (s Size) Point() image.Point {
	return image.Pt(s.Width, s.Height)
}

func (s Size) String() string {
	return strconv.Itoa(s.Width) + "x" + strconv.Itoa(s.Height)
}

// Rounding selects how clamped, fractional edges snap to the pixel grid.
type Rounding uint8

const (
	// RoundNearest rounds each edge to the nearest pixel, halves away from
	// zero.
	RoundNearest Rounding = iota
	// RoundInward keeps only pixels fully covered by the region.
	RoundInward
	// RoundOutward keeps every pixel the region touches.
	RoundOutward
)

func (r Rounding) String() string {
	switch r {
	case RoundNearest:
		return "nearest"
	case RoundInward:
		return "inward"
	case RoundOutward:
		return "outward"
	default:
		return "Rounding(" + strconv.Itoa(int(r)) + ")"
	}
}

// ParseRounding parses the names produced by Rounding.String.
func ParseRounding(s string) (Rounding, error) {
	switch s {
	case "", "nearest":
		return RoundNearest, nil
	case "inward":
		return RoundInward, nil
	case "outward":
		return RoundOutward, nil
	}
	return 0, &ConfigurationError{What: "rounding", Value: strconv.Quote(s)}
}

// Resolved is a region resolved against a concrete source size.
type Resolved struct {
	// Rect is the integer pixel rectangle to extract. It always lies within
	// [0,W]x[0,H] of the source it was resolved against.
	Rect image.Rectangle
	// Size is the output image size, equal to the size of Rect.
	Size Size
}

// Empty reports whether the crop produces an empty image.
func (r Resolved) Empty() bool {
	return r.Size.Empty()
}

// Resolve resolves region against a source of size src using RoundNearest.
func Resolve(region Region, src Size) (Resolved, error) {
	return ResolveRounded(region, src, RoundNearest)
}

// ResolveRounded converts region to source pixel space, clamps each edge into
// the source and snaps the clamped edges to the pixel grid.
//
// Clamping happens before rounding. Negative sizes count as zero, and an edge
// pair that would invert after rounding collapses onto its origin. Regions
// outside the source therefore resolve to an empty rectangle at the clamped
// origin rather than failing.
//
// ResolveRounded does not check for NaN or infinite bounds, see
// Region.Validate.
func ResolveRounded(region Region, src Size, rounding Rounding) (Resolved, error) {
	b := region.Bounds
	w := float64(src.Width)
	h := float64(src.Height)
	if w < 0 {
		w = 0
	}
	if h < 0 {
		h = 0
	}

	switch region.Unit {
	case Pixel:
	case Percentage:
		b = Rect{
			X:      b.X / 100 * w,
			Y:      b.Y / 100 * h,
			Width:  b.Width / 100 * w,
			Height: b.Height / 100 * h,
		}
	default:
		return Resolved{}, &ConfigurationError{What: "unit", Value: region.Unit}
	}

	var snapMin, snapMax func(float64) float64
	switch rounding {
	case RoundNearest:
		snapMin, snapMax = math.Round, math.Round
	case RoundInward:
		snapMin, snapMax = math.Ceil, math.Floor
	case RoundOutward:
		snapMin, snapMax = math.Floor, math.Ceil
	default:
		return Resolved{}, &ConfigurationError{What: "rounding", Value: rounding}
	}

	x0, x1 := clampSpan(b.X, b.Width, w)
	y0, y1 := clampSpan(b.Y, b.Height, h)

	minX, maxX := snapEdges(x0, x1, snapMin, snapMax)
	minY, maxY := snapEdges(y0, y1, snapMin, snapMax)

	rect := image.Rectangle{
		Min: image.Pt(minX, minY),
		Max: image.Pt(maxX, maxY),
	}
	return Resolved{Rect: rect, Size: SizeOf(rect)}, nil
}

// clampSpan returns the edges of [origin, origin+length] clamped into
// [0, limit]. A negative length counts as zero.
func clampSpan(origin, length, limit float64) (lo, hi float64) {
	if length < 0 {
		length = 0
	}
	return clampf(origin, 0, limit), clampf(origin+length, 0, limit)
}

func clampf(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// snapEdges snaps a clamped edge pair to integers, collapsing the far edge
// onto the origin if snapping would invert the pair.
func snapEdges(lo, hi float64, snapMin, snapMax func(float64) float64) (int, int) {
	a := int(snapMin(lo))
	b := int(snapMax(hi))
	if b < a {
		b = a
	}
	return a, b
}
