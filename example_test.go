package cropfilter_test

import (
	"fmt"
	"image"

	"github.com/sebnyberg/cropfilter"
)

func ExampleResolve() {
	region := cropfilter.NewRegion(cropfilter.Rect{X: 90, Y: 90, Width: 50, Height: 50}, cropfilter.Percentage)
	res, err := cropfilter.Resolve(region, cropfilter.Size{Width: 100, Height: 100})
	if err != nil {
		panic(err)
	}
	fmt.Println(res.Rect, res.Size)
	// Output: (90,90)-(100,100) 10x10
}

func ExampleCropFilter_OutputSize() {
	region, err := cropfilter.ParseRegion("pct:0,0,50,50")
	if err != nil {
		panic(err)
	}
	f, err := cropfilter.New(region)
	if err != nil {
		panic(err)
	}
	size, _ := f.OutputSize(cropfilter.Size{Width: 200, Height: 100})
	fmt.Println(size)

	img, _ := f.Apply(image.NewRGBA(image.Rect(0, 0, 200, 100)))
	fmt.Println(img.Bounds())
	// Output:
	// 100x50
	// (0,0)-(100,50)
}
