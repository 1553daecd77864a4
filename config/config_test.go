package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"

	"github.com/sebnyberg/cropfilter"
	"github.com/sebnyberg/cropfilter/texture"
)

const jobFile = `
log_level: debug
jobs:
  - input: in.bmp
    output: out.bmp
    backend: bmp
    region: "pct:10,10,50,50"
  - input: in.png
    output: out.webp
    backend: bild
    region: "0,0,64,64"
    rounding: outward
    quality: 100
  - input: in.jpg
    output: out.jpg
`

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "jobs.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadFromFile(t *testing.T) {
	cfg, err := LoadFromFile(writeFile(t, jobFile))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())
	require.Equal(t, "debug", cfg.LogLevel)
	require.Len(t, cfg.Jobs, 3)

	require.Equal(t, BackendBMP, cfg.Jobs[0].Backend)
	require.Equal(t, "nearest", cfg.Jobs[0].Rounding)
	require.Equal(t, 90, cfg.Jobs[0].Quality)

	require.Equal(t, 100, cfg.Jobs[1].Quality)
	f, err := cfg.Jobs[1].Filter()
	require.NoError(t, err)
	require.Equal(t, cropfilter.NewRegion(cropfilter.Rect{Width: 64, Height: 64}, cropfilter.Pixel), f.Region())
	format, err := cfg.Jobs[1].OutputFormat()
	require.NoError(t, err)
	require.Equal(t, texture.WebP, format)

	// Defaults fill unset fields.
	require.Equal(t, DefaultJob().Backend, cfg.Jobs[2].Backend)
	require.Equal(t, DefaultJob().Region, cfg.Jobs[2].Region)
	size, err := mustFilter(t, cfg.Jobs[2]).OutputSize(cropfilter.Size{Width: 30, Height: 20})
	require.NoError(t, err)
	require.Equal(t, cropfilter.Size{Width: 30, Height: 20}, size)
}

func mustFilter(t *testing.T, j Job) *cropfilter.CropFilter {
	t.Helper()
	f, err := j.Filter()
	require.NoError(t, err)
	return f
}

func TestLoadFromFile_Errors(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)

	_, err = LoadFromFile(writeFile(t, "jobs: [this is: not: valid"))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	require.Error(t, Default().Validate())

	cfg := &Config{Jobs: []Job{{
		Backend:  "gpu",
		Region:   "pct:NaN,0,1,1",
		Rounding: "banker",
		Quality:  101,
	}}}
	require.ErrorIs(t, cfg.Validate(), cropfilter.ErrInvalidRegion)
	// input, output, backend, region, rounding, quality
	require.Len(t, multierr.Errors(cfg.Jobs[0].Validate()), 6)

	job := DefaultJob()
	job.Input = "in.png"
	job.Output = "out.gif"
	require.Error(t, job.Validate())
	job.Format = "png"
	require.NoError(t, job.Validate())
}

func TestSaveToFile(t *testing.T) {
	cfg := Default()
	job := DefaultJob()
	job.Input = "a.tif"
	job.Output = "b.tif"
	job.Backend = BackendTIFF
	cfg.Jobs = append(cfg.Jobs, job)

	path := filepath.Join(t.TempDir(), "nested", "jobs.yaml")
	require.NoError(t, cfg.SaveToFile(path))
	got, err := LoadFromFile(path)
	require.NoError(t, err)
	require.Equal(t, cfg, got)
}
