package cropfilter

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"math"
	"math/rand"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"golang.org/x/image/bmp"

	"github.com/sebnyberg/cropfilter/bmpx"
	"github.com/sebnyberg/cropfilter/texture"
)

func randRGBA(rnd *rand.Rand, r image.Rectangle) *image.RGBA {
	img := image.NewRGBA(r)
	rnd.Read(img.Pix)
	for i := 3; i < len(img.Pix); i += 4 {
		img.Pix[i] = 0xff
	}
	return img
}

func requireCrop(t *testing.T, src image.Image, region image.Rectangle, got image.Image) {
	t.Helper()
	require.Equal(t, image.Rect(0, 0, region.Dx(), region.Dy()), got.Bounds())
	for y := 0; y < region.Dy(); y++ {
		for x := 0; x < region.Dx(); x++ {
			want := color.RGBAModel.Convert(src.At(region.Min.X+x, region.Min.Y+y))
			have := color.RGBAModel.Convert(got.At(x, y))
			require.Equal(t, want, have, "(%v,%v)", x, y)
		}
	}
}

func TestNew(t *testing.T) {
	_, err := New(NewRegion(Rect{math.NaN(), 0, 1, 1}, Pixel))
	require.ErrorIs(t, err, ErrInvalidRegion)

	_, err = New(NewRegion(Rect{0, 0, 1, 1}, Pixel), WithRounding(Rounding(42)))
	var cfgErr *ConfigurationError
	require.True(t, errors.As(err, &cfgErr))

	f, err := New(NewRegion(Rect{0, 0, 1, 1}, Pixel), WithExtractor(nil))
	require.NoError(t, err)
	require.Equal(t, 1, f.InputCount())
}

func TestCropFilter_OutputSize(t *testing.T) {
	f, err := New(NewRegion(Rect{0, 0, 50, 50}, Percentage))
	require.NoError(t, err)

	size, err := f.OutputSize(Size{200, 100})
	require.NoError(t, err)
	require.Equal(t, Size{100, 50}, size)

	size, err = f.OutputSize(Size{0, 0})
	require.NoError(t, err)
	require.Equal(t, Size{0, 0}, size)
}

func TestCropFilter_SetRegion(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	SetLogger(zap.New(core))
	defer SetLogger(nil)

	initial := NewRegion(Rect{10, 10, 20, 20}, Pixel)
	f, err := New(initial)
	require.NoError(t, err)

	err = f.SetRegion(NewRegion(Rect{0, math.Inf(1), 1, 1}, Percentage))
	require.ErrorIs(t, err, ErrInvalidRegion)
	require.Equal(t, initial, f.Region())
	require.Equal(t, 1, logs.FilterMessage("rejected crop region").Len())

	next := NewRegion(Rect{0, 0, 10, 10}, Percentage)
	require.NoError(t, f.SetRegion(next))
	require.Equal(t, next, f.Region())

	res, err := f.Resolve(Size{300, 300})
	require.NoError(t, err)
	require.Equal(t, image.Rect(0, 0, 30, 30), res.Rect)
}

func TestCropFilter_Apply(t *testing.T) {
	rnd := rand.New(rand.NewSource(1))
	for name, e := range map[string]Extractor{
		"draw":    drawExtractor{},
		"imaging": texture.Imaging{},
		"bild":    texture.Bild{},
	} {
		t.Run(name, func(t *testing.T) {
			for _, bounds := range []image.Rectangle{
				image.Rect(0, 0, 80, 60),
				image.Rect(-40, 25, 40, 85),
			} {
				src := randRGBA(rnd, bounds)
				f, err := New(NewRegion(Rect{25, 50, 50, 100}, Percentage), WithExtractor(e))
				require.NoError(t, err)

				got, err := f.Apply(src)
				require.NoError(t, err)
				requireCrop(t, src, image.Rect(20, 30, 60, 60).Add(bounds.Min), got)
			}
		})
	}
}

func TestCropFilter_ApplyEmpty(t *testing.T) {
	src := randRGBA(rand.New(rand.NewSource(2)), image.Rect(0, 0, 10, 10))
	f, err := New(NewRegion(Rect{200, 200, 10, 10}, Pixel))
	require.NoError(t, err)

	got, err := f.Apply(src)
	require.NoError(t, err)
	require.True(t, got.Bounds().Empty())
}

func TestCropFilter_CropTo(t *testing.T) {
	rnd := rand.New(rand.NewSource(3))
	src := randRGBA(rnd, image.Rect(0, 0, 120, 90))
	var buf bytes.Buffer
	require.NoError(t, bmp.Encode(&buf, src))

	f, err := New(NewRegion(Rect{10, 20, 30, 40}, Percentage))
	require.NoError(t, err)

	var out bytes.Buffer
	res, err := f.CropTo(bmpx.NewCropper(bytes.NewReader(buf.Bytes())), &out)
	require.NoError(t, err)
	require.Equal(t, image.Rect(12, 18, 48, 54), res.Rect)

	got, err := bmp.Decode(&out)
	require.NoError(t, err)
	requireCrop(t, src, res.Rect, got)

	_, err = f.CropTo(bmpx.NewCropper(bytes.NewReader([]byte("not a bmp at all"))), &out)
	require.Error(t, err)
}

func TestCropFilter_Concurrent(t *testing.T) {
	f, err := New(NewRegion(Rect{0, 0, 50, 50}, Percentage))
	require.NoError(t, err)

	regions := []Region{
		NewRegion(Rect{0, 0, 50, 50}, Percentage),
		NewRegion(Rect{0, 0, 100, 100}, Pixel),
	}
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			_ = f.SetRegion(regions[i%2])
		}
	}()
	for i := 0; i < 1000; i++ {
		size, err := f.OutputSize(Size{200, 200})
		require.NoError(t, err)
		// Both regions resolve to 100x100: a torn read would show up here.
		require.Equal(t, Size{100, 100}, size)
	}
	wg.Wait()
}
