package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sebnyberg/cropfilter"
	"github.com/sebnyberg/cropfilter/bmpx"
	"github.com/sebnyberg/cropfilter/config"
	"github.com/sebnyberg/cropfilter/texture"
	"github.com/sebnyberg/cropfilter/tiffx"
	"github.com/sebnyberg/cropfilter/vipsx"
)

func main() {
	var cfgPath, logLevel string
	var dryRun bool
	job := config.DefaultJob()
	var backend string

	flag.StringVar(&cfgPath, "config", "", "YAML job file; other job flags are ignored when set")
	flag.StringVar(&job.Input, "in", "", "input image path")
	flag.StringVar(&job.Output, "out", "", "output image path")
	flag.StringVar(&backend, "backend", string(job.Backend), "bmp|bmp.zst|tiff|vips|vipsfile|imaging|bild|draw")
	flag.StringVar(&job.Region, "region", job.Region, "crop region: x,y,w,h in pixels or pct:x,y,w,h in percent")
	flag.StringVar(&job.Rounding, "rounding", job.Rounding, "edge rounding: nearest|inward|outward")
	flag.StringVar(&job.Format, "format", "", "output format for in-memory backends: png|jpg|webp (default from -out)")
	flag.IntVar(&job.Quality, "quality", job.Quality, "JPEG/WebP quality (1-100, 100 is lossless WebP)")
	flag.BoolVar(&dryRun, "dry-run", false, "only print the resolved crop and output size")
	flag.StringVar(&logLevel, "log", "", "log level: debug|info|warn|error")
	flag.Parse()
	job.Backend = config.Backend(backend)

	cfg := config.Default()
	if cfgPath != "" {
		var err error
		cfg, err = config.LoadFromFile(cfgPath)
		if err != nil {
			log.Fatalln(err)
		}
	} else {
		if job.Input == "" || (job.Output == "" && !dryRun) {
			log.Fatalf("usage: %s -in input -out output [-region pct:x,y,w,h] [-backend draw] | -config jobs.yaml",
				filepath.Base(os.Args[0]))
		}
		if dryRun && job.Output == "" {
			// Output is only needed to pick a format, which a dry run never uses.
			job.Output = os.DevNull
			job.Format = string(texture.PNG)
		}
		cfg.Jobs = []config.Job{job}
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalln(err)
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalln(err)
	}
	defer logger.Sync()
	cropfilter.SetLogger(logger)

	for _, j := range cfg.Jobs {
		res, err := run(j, dryRun)
		if err != nil {
			logger.Fatal("crop failed", zap.String("input", j.Input), zap.Error(err))
		}
		fmt.Printf("%s: %v -> %v\n", j.Input, res.Rect, res.Size)
	}
}

func newLogger(level string) (*zap.Logger, error) {
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}
	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(lvl)
	zcfg.Encoding = "console"
	zcfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return zcfg.Build()
}

func run(job config.Job, dryRun bool) (res cropfilter.Resolved, err error) {
	f, err := job.Filter()
	if err != nil {
		return res, err
	}

	switch {
	case job.Backend == config.BackendVipsFile:
		return runVipsFile(f, job, dryRun)
	case job.Backend.InMemory():
		return runInMemory(f, job, dryRun)
	}

	in, err := os.Open(job.Input)
	if err != nil {
		return res, fmt.Errorf("open file %q err, %w", job.Input, err)
	}
	defer multierr.AppendInvoke(&err, multierr.Close(in))

	var src cropfilter.Source
	switch job.Backend {
	case config.BackendBMP:
		src = bmpx.NewCropper(in)
	case config.BackendBMPZstd:
		var sc *bmpx.SeekableCropper
		sc, err = bmpx.OpenSeekable(in)
		if err != nil {
			return res, err
		}
		defer multierr.AppendInvoke(&err, multierr.Close(sc))
		src = sc
	case config.BackendTIFF:
		src = tiffx.NewCropper(in, nil)
	case config.BackendVips:
		src = vipsx.NewCropper(in)
	default:
		return res, fmt.Errorf("unknown backend %q", job.Backend)
	}

	if dryRun {
		imgCfg, err := src.Config()
		if err != nil {
			return res, err
		}
		return f.Resolve(cropfilter.Size{Width: imgCfg.Width, Height: imgCfg.Height})
	}

	out, err := os.OpenFile(job.Output, os.O_WRONLY|os.O_TRUNC|os.O_CREATE, 0640)
	if err != nil {
		return res, fmt.Errorf("open file %q err, %w", job.Output, err)
	}
	defer multierr.AppendInvoke(&err, multierr.Close(out))
	return f.CropTo(src, out)
}

func runVipsFile(f *cropfilter.CropFilter, job config.Job, dryRun bool) (cropfilter.Resolved, error) {
	imgCfg, err := vipsx.FileConfig(job.Input)
	if err != nil {
		return cropfilter.Resolved{}, err
	}
	res, err := f.Resolve(cropfilter.Size{Width: imgCfg.Width, Height: imgCfg.Height})
	if err != nil || dryRun {
		return res, err
	}
	return res, vipsx.CropFile(job.Input, res.Rect, job.Output)
}

func runInMemory(f *cropfilter.CropFilter, job config.Job, dryRun bool) (res cropfilter.Resolved, err error) {
	in, err := os.Open(job.Input)
	if err != nil {
		return res, fmt.Errorf("open file %q err, %w", job.Input, err)
	}
	defer multierr.AppendInvoke(&err, multierr.Close(in))

	if dryRun {
		imgCfg, err := texture.DecodeConfig(in)
		if err != nil {
			return res, err
		}
		return f.Resolve(cropfilter.Size{Width: imgCfg.Width, Height: imgCfg.Height})
	}

	img, err := texture.Decode(in)
	if err != nil {
		return res, err
	}
	res, err = f.Resolve(cropfilter.SizeOf(img.Bounds()))
	if err != nil {
		return res, err
	}
	cropped, err := f.Apply(img)
	if err != nil {
		return res, err
	}
	format, err := job.OutputFormat()
	if err != nil {
		return res, err
	}
	out, err := os.OpenFile(job.Output, os.O_WRONLY|os.O_TRUNC|os.O_CREATE, 0640)
	if err != nil {
		return res, fmt.Errorf("open file %q err, %w", job.Output, err)
	}
	defer multierr.AppendInvoke(&err, multierr.Close(out))
	return res, texture.Encode(out, cropped, format, job.Quality)
}
