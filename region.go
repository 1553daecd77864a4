package cropfilter

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"go.uber.org/multierr"
)

// Unit is the coordinate system a Region is expressed in.
type Unit uint8

const (
	// Pixel regions are absolute source pixel coordinates.
	Pixel Unit = iota
	// Percentage regions are expressed in percent of the source extent, X and
	// Width relative to the source width, Y and Height to its height.
	Percentage
)

func (u Unit) String() string {
	switch u {
	case Pixel:
		return "px"
	case Percentage:
		return "pct"
	default:
		return "Unit(" + strconv.Itoa(int(u)) + ")"
	}
}

func (u Unit) valid() bool {
	return u == Pixel || u == Percentage
}

// MarshalText implements encoding.TextMarshaler.
func (u Unit) MarshalText() ([]byte, error) {
	if !u.valid() {
		return nil, &ConfigurationError{What: "unit", Value: u}
	}
	return []byte(u.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (u *Unit) UnmarshalText(b []byte) error {
	switch strings.ToLower(strings.TrimSpace(string(b))) {
	case "px", "pixel", "pixels":
		*u = Pixel
	case "pct", "percent", "percentage":
		*u = Percentage
	default:
		return &ConfigurationError{What: "unit", Value: strconv.Quote(string(b))}
	}
	return nil
}

// Rect is a rectangle given by its origin and size. Components may be
// fractional, negative or out of range; resolution deals with all of that.
type Rect struct {
	X, Y          float64
	Width, Height float64
}

// Region describes the part of a source image to crop.
type Region struct {
	Bounds Rect
	Unit   Unit
}

// NewRegion returns a region for the given bounds and unit. It performs no
// validation since validity depends on the source dimensions, which are not
// known until resolution.
func NewRegion(bounds Rect, unit Unit) Region {
	return Region{Bounds: bounds, Unit: unit}
}

// Validate reports every non-finite bounds component, and an unknown unit.
func (r Region) Validate() error {
	var err error
	for _, c := range []struct {
		name string
		v    float64
	}{
		{"x", r.Bounds.X},
		{"y", r.Bounds.Y},
		{"width", r.Bounds.Width},
		{"height", r.Bounds.Height},
	} {
		if math.IsNaN(c.v) || math.IsInf(c.v, 0) {
			err = multierr.Append(err, fmt.Errorf("%w: %s is %v", ErrInvalidRegion, c.name, c.v))
		}
	}
	if !r.Unit.valid() {
		err = multierr.Append(err, &ConfigurationError{What: "unit", Value: r.Unit})
	}
	return err
}

// String formats the region as "x,y,w,h" for pixel regions and
// "pct:x,y,w,h" for percentage regions. ParseRegion reads it back.
func (r Region) String() string {
	f := func(v float64) string {
		return strconv.FormatFloat(v, 'g', -1, 64)
	}
	s := f(r.Bounds.X) + "," + f(r.Bounds.Y) + "," + f(r.Bounds.Width) + "," + f(r.Bounds.Height)
	switch r.Unit {
	case Pixel:
		return s
	case Percentage:
		return "pct:" + s
	default:
		return r.Unit.String() + ":" + s
	}
}

// ParseRegion parses the IIIF-style region syntax "x,y,w,h" (pixels) or
// "pct:x,y,w,h" (percent of the source extent).
func ParseRegion(s string) (Region, error) {
	var r Region
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "pct:") {
		r.Unit = Percentage
		s = s[len("pct:"):]
	}
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return Region{}, fmt.Errorf("%w: want 4 comma-separated values, got %q", ErrInvalidRegion, s)
	}
	var vals [4]float64
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return Region{}, fmt.Errorf("%w: parse %q err, %v", ErrInvalidRegion, p, err)
		}
		vals[i] = v
	}
	r.Bounds = Rect{X: vals[0], Y: vals[1], Width: vals[2], Height: vals[3]}
	if err := r.Validate(); err != nil {
		return Region{}, err
	}
	return r, nil
}
