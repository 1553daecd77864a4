package bmpx

import (
	"fmt"
	"io"

	seekable "github.com/SaveTheRbtz/zstd-seekable-format-go"
	"github.com/klauspost/compress/zstd"
)

// CompressSeekable compresses the BMP in src into dst using the seekable zstd
// format. Each write of io.Copy becomes an independent frame, which lets
// OpenSeekable skip rows outside a crop without decompressing them.
func CompressSeekable(dst io.Writer, src io.Reader) error {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedBestCompression))
	if err != nil {
		return err
	}
	defer enc.Close()
	w, err := seekable.NewWriter(dst, enc)
	if err != nil {
		return err
	}
	if _, err := io.Copy(w, src); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}

// SeekableCropper crops a BMP stored in the seekable zstd format.
type SeekableCropper struct {
	*Cropper
	dec *zstd.Decoder
	r   seekable.Reader
}

// OpenSeekable returns a cropper for the seekable-zstd compressed BMP in r.
// The returned cropper must be closed.
func OpenSeekable(r io.ReadSeeker) (*SeekableCropper, error) {
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, err
	}
	sr, err := seekable.NewReader(r, dec)
	if err != nil {
		dec.Close()
		return nil, fmt.Errorf("open seekable zstd err, %w", err)
	}
	return &SeekableCropper{
		Cropper: NewCropper(sr),
		dec:     dec,
		r:       sr,
	}, nil
}

func (c *SeekableCropper) Close() error {
	err := c.r.Close()
	c.dec.Close()
	return err
}
