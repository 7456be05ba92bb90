// Package normalize turns arbitrary decodable input into the canonical
// working encoding: resident bytes, upright orientation, JPEG or PNG.
package normalize

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"path/filepath"
	"strings"

	"github.com/AnyUserName/covercrop/internal/encoder"
	"github.com/AnyUserName/covercrop/internal/imagefile"
	"github.com/AnyUserName/covercrop/internal/probe"
	"github.com/disintegration/imaging"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// CanonicalQuality is the JPEG quality used when normalization must
// re-encode. It is high because the working image is encoded again later.
const CanonicalQuality = 95

// MaterializeFile returns a copy of src whose bytes are fully resident.
// A source that cannot be read or whose header does not decode fails
// with a Corrupt error rather than yielding an empty image.
func MaterializeFile(ctx context.Context, src imagefile.Source) (imagefile.Source, error) {
	if err := ctx.Err(); err != nil {
		return imagefile.Source{}, err
	}

	out := src
	if !src.Resident() {
		if src.Open == nil {
			return imagefile.Source{}, imagefile.Errorf(imagefile.Corrupt, "source has no content")
		}
		rc, err := src.Open()
		if err != nil {
			return imagefile.Source{}, imagefile.CorruptError("open", err)
		}
		defer rc.Close()

		data, err := io.ReadAll(rc)
		if err != nil {
			return imagefile.Source{}, imagefile.CorruptError("read", err)
		}
		out.Data = data
		out.Size = int64(len(data))
	}
	out.Open = nil

	if _, _, err := image.DecodeConfig(bytes.NewReader(out.Data)); err != nil {
		return imagefile.Source{}, imagefile.CorruptError("decode header", err)
	}
	return out, nil
}

// NormalizeFile re-encodes src into the canonical format with EXIF
// orientation applied, without resizing. JPEG files that are already
// upright and PNG files are returned unchanged to avoid a generation loss.
func NormalizeFile(ctx context.Context, src imagefile.Source) (imagefile.Source, error) {
	src, err := MaterializeFile(ctx, src)
	if err != nil {
		return imagefile.Source{}, err
	}

	actual := imagefile.DetectMIME(src.Data, "")
	orientation := probe.Orientation(src)
	switch {
	case actual == imagefile.MIMEPNG:
		src.MIMEType = actual
		return src, nil
	case actual == imagefile.MIMEJPEG && orientation <= 1:
		src.MIMEType = actual
		return src, nil
	}

	img, err := Decode(ctx, src)
	if err != nil {
		return imagefile.Source{}, err
	}

	var enc encoder.Encoder = &encoder.JPEGEncoder{}
	if imagefile.HasAlpha(img) {
		enc = &encoder.PNGEncoder{}
	}
	data, err := enc.Encode(img, CanonicalQuality)
	if err != nil {
		return imagefile.Source{}, fmt.Errorf("encode canonical: %w", err)
	}
	return imagefile.Source{
		Data:     data,
		MIMEType: enc.MIMEType(),
		FileName: RenameExt(src.FileName, enc.Extension()),
		Size:     int64(len(data)),
	}, nil
}

// Decode fully decodes a resident source with EXIF orientation applied.
// Any decode failure is reported as Corrupt.
func Decode(ctx context.Context, src imagefile.Source) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !src.Resident() {
		return nil, imagefile.Errorf(imagefile.Corrupt, "source not materialized")
	}
	img, err := imaging.Decode(bytes.NewReader(src.Data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, imagefile.CorruptError("decode", err)
	}
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, imagefile.Errorf(imagefile.InvalidDimensions, "decoded %dx%d", b.Dx(), b.Dy())
	}
	return img, nil
}

// RenameExt swaps the extension of name, keeping the base. An empty name
// yields "image.<ext>".
func RenameExt(name, ext string) string {
	if name == "" {
		return "image." + ext
	}
	return strings.TrimSuffix(name, filepath.Ext(name)) + "." + ext
}
