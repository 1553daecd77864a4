package cropfilter

import (
	"fmt"
	"image"
	"reflect"
)

// Chain applies unary filters in sequence, first to last.
type Chain struct {
	filters []Filter
}

// NewChain returns a chain of the given filters. Nil filters are skipped, see
// Add.
func NewChain(filters ...Filter) *Chain {
	c := &Chain{
		filters: make([]Filter, 0, len(filters)),
	}
	for _, f := range filters {
		c.Add(f)
	}
	return c
}

// Add appends a filter to the chain. Nil filters, including typed nil
// pointers such as (*CropFilter)(nil), are skipped.
func (c *Chain) Add(f Filter) {
	if isNil(f) {
		return
	}
	c.filters = append(c.filters, f)
}

func isNil(f Filter) bool {
	if f == nil {
		return true
	}
	v := reflect.ValueOf(f)
	switch v.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Func, reflect.Interface:
		return v.IsNil()
	}
	return false
}

// Len returns the number of filters in the chain.
func (c *Chain) Len() int {
	return len(c.filters)
}

func (c *Chain) InputCount() int {
	return 1
}

// OutputSize propagates in through every filter's OutputSize. An empty chain
// returns in unchanged.
func (c *Chain) OutputSize(in Size) (Size, error) {
	size := in
	for i, f := range c.filters {
		var err error
		size, err = f.OutputSize(size)
		if err != nil {
			return Size{}, fmt.Errorf("filter %d err, %w", i, err)
		}
	}
	return size, nil
}

// Apply runs src through every filter in order.
func (c *Chain) Apply(src image.Image) (image.Image, error) {
	img := src
	for i, f := range c.filters {
		var err error
		img, err = f.Apply(img)
		if err != nil {
			return nil, fmt.Errorf("filter %d err, %w", i, err)
		}
	}
	return img, nil
}
