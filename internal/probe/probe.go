// Package probe reads pixel extents from image headers without decoding
// the full raster.
package probe

import (
	"bytes"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"

	"github.com/AnyUserName/covercrop/internal/imagefile"
	"github.com/rwcarlsen/goexif/exif"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// GetDimensions returns the display-oriented size of src. The second value
// is false when the header cannot be decoded; callers treat that as Corrupt.
func GetDimensions(src imagefile.Source) (imagefile.Dims, bool) {
	r, closeFn, err := reader(src)
	if err != nil {
		return imagefile.Dims{}, false
	}
	cfg, format, err := image.DecodeConfig(r)
	closeFn()
	if err != nil {
		return imagefile.Dims{}, false
	}
	d := imagefile.Dims{Width: cfg.Width, Height: cfg.Height}
	if !d.Valid() {
		return imagefile.Dims{}, false
	}

	// Only JPEG orientation is applied at decode time, so only JPEG
	// extents are transposed here.
	if format == "jpeg" {
		if o := Orientation(src); o >= 5 && o <= 8 {
			d.Width, d.Height = d.Height, d.Width
		}
	}
	return d, true
}

// Orientation returns the EXIF orientation tag (1-8), or 0 when absent.
func Orientation(src imagefile.Source) int {
	r, closeFn, err := reader(src)
	if err != nil {
		return 0
	}
	defer closeFn()

	x, err := exif.Decode(r)
	if err != nil {
		return 0
	}
	tag, err := x.Get(exif.Orientation)
	if err != nil {
		return 0
	}
	v, err := tag.Int(0)
	if err != nil || v < 1 || v > 8 {
		return 0
	}
	return v
}

func reader(src imagefile.Source) (io.Reader, func(), error) {
	if src.Resident() {
		return bytes.NewReader(src.Data), func() {}, nil
	}
	if src.Open == nil {
		return nil, nil, imagefile.Errorf(imagefile.Corrupt, "source has no content")
	}
	rc, err := src.Open()
	if err != nil {
		return nil, nil, err
	}
	return rc, func() { rc.Close() }, nil
}
