// Package config loads crop jobs for the cropfilter command.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"github.com/sebnyberg/cropfilter"
	"github.com/sebnyberg/cropfilter/texture"
)

// Backend selects how a job reads, crops and writes its image.
type Backend string

const (
	// BackendBMP streams uncompressed BMP files, see bmpx.
	BackendBMP Backend = "bmp"
	// BackendBMPZstd streams BMPs stored in the seekable zstd format.
	BackendBMPZstd Backend = "bmp.zst"
	// BackendTIFF decodes and re-encodes TIFF files, see tiffx.
	BackendTIFF Backend = "tiff"
	// BackendVips crops through govips, writing TIFF.
	BackendVips Backend = "vips"
	// BackendVipsFile crops file to file through the vipsimage binding.
	BackendVipsFile Backend = "vipsfile"
	// BackendImaging decodes the image into memory and crops with imaging.
	BackendImaging Backend = "imaging"
	// BackendBild decodes the image into memory and crops with bild.
	BackendBild Backend = "bild"
	// BackendDraw decodes the image into memory and crops with x/image/draw.
	BackendDraw Backend = "draw"
)

var backends = map[Backend]bool{
	BackendBMP:      true,
	BackendBMPZstd:  true,
	BackendTIFF:     true,
	BackendVips:     true,
	BackendVipsFile: true,
	BackendImaging:  true,
	BackendBild:     true,
	BackendDraw:     true,
}

// InMemory reports whether the backend decodes the whole image and encodes
// the output with texture.Encode.
func (b Backend) InMemory() bool {
	return b == BackendImaging || b == BackendBild || b == BackendDraw
}

// Job is a single crop of Input into Output.
type Job struct {
	Input    string  `yaml:"input"`
	Output   string  `yaml:"output"`
	Backend  Backend `yaml:"backend"`
	Region   string  `yaml:"region"`
	Rounding string  `yaml:"rounding"`

	// Format of in-memory outputs. Empty means derived from Output.
	Format  string `yaml:"format"`
	Quality int    `yaml:"quality"`
}

// Config is the content of a job file.
type Config struct {
	LogLevel string `yaml:"log_level"`
	Jobs     []Job  `yaml:"jobs"`
}

// Default returns a config with no jobs.
func Default() *Config {
	return &Config{
		LogLevel: "info",
	}
}

// DefaultJob returns the values applied to unset job fields.
func DefaultJob() Job {
	return Job{
		Backend:  BackendDraw,
		Region:   "pct:0,0,100,100",
		Rounding: cropfilter.RoundNearest.String(),
		Quality:  90,
	}
}

// LoadFromFile reads a YAML job file. Unset job fields take the values of
// DefaultJob.
func LoadFromFile(filename string) (*Config, error) {
	data, err := os.ReadFile(filepath.Clean(filename))
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	for i := range cfg.Jobs {
		cfg.Jobs[i].fill()
	}
	return cfg, nil
}

// SaveToFile writes the config as YAML.
func (c *Config) SaveToFile(filename string) error {
	if err := os.MkdirAll(filepath.Dir(filename), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

func (j *Job) fill() {
	d := DefaultJob()
	if j.Backend == "" {
		j.Backend = d.Backend
	}
	if j.Region == "" {
		j.Region = d.Region
	}
	if j.Rounding == "" {
		j.Rounding = d.Rounding
	}
	if j.Quality == 0 {
		j.Quality = d.Quality
	}
}

// Validate reports every invalid field of every job.
func (c *Config) Validate() error {
	var err error
	if len(c.Jobs) == 0 {
		err = multierr.Append(err, errors.New("jobs cannot be empty"))
	}
	for i, j := range c.Jobs {
		if jerr := j.Validate(); jerr != nil {
			err = multierr.Append(err, fmt.Errorf("jobs[%d]: %w", i, jerr))
		}
	}
	return err
}

// Validate reports every invalid field of the job.
func (j Job) Validate() error {
	var err error
	if j.Input == "" {
		err = multierr.Append(err, errors.New("input is required"))
	}
	if j.Output == "" {
		err = multierr.Append(err, errors.New("output is required"))
	}
	if !backends[j.Backend] {
		err = multierr.Append(err, fmt.Errorf("unknown backend %q", j.Backend))
	}
	if _, rerr := cropfilter.ParseRegion(j.Region); rerr != nil {
		err = multierr.Append(err, fmt.Errorf("region: %w", rerr))
	}
	if _, rerr := cropfilter.ParseRounding(j.Rounding); rerr != nil {
		err = multierr.Append(err, fmt.Errorf("rounding: %w", rerr))
	}
	if j.Backend.InMemory() && j.Output != "" {
		if _, ferr := j.OutputFormat(); ferr != nil {
			err = multierr.Append(err, ferr)
		}
	}
	if j.Quality < 0 || j.Quality > 100 {
		err = multierr.Append(err, errors.New("quality must be between 0 and 100"))
	}
	return err
}

// Filter builds the crop filter described by the job.
func (j Job) Filter() (*cropfilter.CropFilter, error) {
	region, err := cropfilter.ParseRegion(j.Region)
	if err != nil {
		return nil, err
	}
	rounding, err := cropfilter.ParseRounding(j.Rounding)
	if err != nil {
		return nil, err
	}
	opts := []cropfilter.Option{cropfilter.WithRounding(rounding)}
	switch j.Backend {
	case BackendImaging:
		opts = append(opts, cropfilter.WithExtractor(texture.Imaging{}))
	case BackendBild:
		opts = append(opts, cropfilter.WithExtractor(texture.Bild{}))
	}
	return cropfilter.New(region, opts...)
}

// OutputFormat returns Format, or the format implied by the Output extension.
func (j Job) OutputFormat() (texture.Format, error) {
	if j.Format != "" {
		return texture.ParseFormat(j.Format)
	}
	return texture.FormatFromPath(j.Output)
}
