package vipsx_test

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/image/tiff"

	"github.com/sebnyberg/cropfilter"
	"github.com/sebnyberg/cropfilter/vipsx"
)

var _ cropfilter.Source = new(vipsx.Cropper)

// gradient returns an opaque image where each pixel encodes its coordinates.
func gradient(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{uint8(x), uint8(y), uint8(x ^ y), 0xff})
		}
	}
	return img
}

func encodePNG(t *testing.T, img image.Image) []byte {
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func requireRegion(t *testing.T, src image.Image, region image.Rectangle, got image.Image) {
	t.Helper()
	require.Equal(t, region.Dx(), got.Bounds().Dx())
	require.Equal(t, region.Dy(), got.Bounds().Dy())
	for y := 0; y < region.Dy(); y++ {
		for x := 0; x < region.Dx(); x++ {
			want := color.NRGBAModel.Convert(src.At(region.Min.X+x, region.Min.Y+y)).(color.NRGBA)
			have := color.NRGBAModel.Convert(got.At(got.Bounds().Min.X+x, got.Bounds().Min.Y+y)).(color.NRGBA)
			require.Equal(t, [3]uint8{want.R, want.G, want.B}, [3]uint8{have.R, have.G, have.B}, "(%v,%v)", x, y)
		}
	}
}

func TestVips(t *testing.T) {
	img := gradient(64, 40)
	c := vipsx.NewCropper(bytes.NewReader(encodePNG(t, img)))

	cfg, err := c.Config()
	require.NoError(t, err)
	require.Equal(t, 64, cfg.Width)
	require.Equal(t, 40, cfg.Height)

	for _, region := range []image.Rectangle{
		image.Rect(0, 0, 10, 20),
		image.Rect(30, 5, 64, 40),
	} {
		var out bytes.Buffer
		require.NoError(t, c.Crop(region, &out), "crop")
		got, err := tiff.Decode(&out)
		require.NoError(t, err)
		requireRegion(t, img, region, got)
	}
}

func TestVips_Empty(t *testing.T) {
	c := vipsx.NewCropper(bytes.NewReader(encodePNG(t, gradient(8, 8))))
	var out bytes.Buffer
	require.NoError(t, c.Crop(image.Rect(8, 8, 8, 8), &out))
	require.NotZero(t, out.Len())
}

func TestCropFile(t *testing.T) {
	dir := t.TempDir()
	img := gradient(50, 30)
	src := filepath.Join(dir, "src.png")
	require.NoError(t, os.WriteFile(src, encodePNG(t, img), 0644))

	cfg, err := vipsx.FileConfig(src)
	require.NoError(t, err)
	require.Equal(t, 50, cfg.Width)
	require.Equal(t, 30, cfg.Height)

	region := image.Rect(5, 6, 25, 26)
	dst := filepath.Join(dir, "dst.tif")
	require.NoError(t, vipsx.CropFile(src, region, dst))

	f, err := os.Open(dst)
	require.NoError(t, err)
	defer f.Close()
	got, err := tiff.Decode(f)
	require.NoError(t, err)
	requireRegion(t, img, region, got)
}
