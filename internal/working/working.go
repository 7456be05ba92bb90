// Package working builds the bounded-resolution copy of an image that the
// interactive editor works on.
package working

import (
	"context"
	"fmt"
	"math"

	"github.com/AnyUserName/covercrop/internal/encoder"
	"github.com/AnyUserName/covercrop/internal/imagefile"
	"github.com/AnyUserName/covercrop/internal/normalize"
	"github.com/disintegration/imaging"
)

// MaxUpscale caps the scale factor when AllowUpscale is set.
const MaxUpscale = 4.0

// Options bounds the working image.
type Options struct {
	MaxSide int
	// MinSide is optional. With AllowUpscale, an image whose short side is
	// below MinSide is enlarged towards it.
	MinSide int
	// Quality in [0,1]; out-of-range values are clamped.
	Quality float64
	// MIMEType of the output; empty means JPEG.
	MIMEType     string
	AllowUpscale bool
}

// DefaultOptions suits the largest built-in cover target.
func DefaultOptions() Options {
	return Options{
		MaxSide:  2048,
		Quality:  0.92,
		MIMEType: imagefile.MIMEJPEG,
	}
}

// Validate checks the option invariants.
func (o Options) Validate() error {
	if o.MaxSide <= 0 {
		return fmt.Errorf("max side must be positive, got %d", o.MaxSide)
	}
	if o.MinSide < 0 {
		return fmt.Errorf("min side must not be negative, got %d", o.MinSide)
	}
	if o.MinSide > 0 && o.MinSide > o.MaxSide {
		return fmt.Errorf("min side %d exceeds max side %d", o.MinSide, o.MaxSide)
	}
	return nil
}

// ScaleFactor returns the uniform factor Prepare applies to an image of
// size d. It never exceeds 1 unless AllowUpscale is set, and never lets the
// long side exceed MaxSide.
func ScaleFactor(d imagefile.Dims, opts Options) float64 {
	long := float64(d.LongSide())
	if long <= 0 {
		return 1
	}
	fit := float64(opts.MaxSide) / long
	if !opts.AllowUpscale {
		return math.Min(1, fit)
	}

	k := math.Min(fit, MaxUpscale)
	if opts.MinSide > 0 {
		short := float64(min(d.Width, d.Height))
		k = math.Min(k, math.Max(1, float64(opts.MinSide)/short))
	}
	return k
}

// TargetDims applies ScaleFactor and rounds, keeping both sides >= 1 and
// the long side <= MaxSide.
func TargetDims(d imagefile.Dims, opts Options) imagefile.Dims {
	k := ScaleFactor(d, opts)
	if k == 1 {
		return d
	}
	w := max(1, int(math.Round(float64(d.Width)*k)))
	h := max(1, int(math.Round(float64(d.Height)*k)))
	if w > opts.MaxSide {
		w = opts.MaxSide
	}
	if h > opts.MaxSide {
		h = opts.MaxSide
	}
	return imagefile.Dims{Width: w, Height: h}
}

// Prepare returns the working copy of src: decoded upright, uniformly
// scaled per opts and re-encoded. An input that already satisfies opts and
// is already in the requested type is returned unchanged, so Prepare is
// idempotent on its own output.
func Prepare(ctx context.Context, src imagefile.Source, opts Options) (imagefile.Source, error) {
	return PrepareWith(ctx, src, opts, encoder.Default)
}

// PrepareWith is Prepare with an explicit encoder registry.
func PrepareWith(ctx context.Context, src imagefile.Source, opts Options, reg *encoder.Registry) (imagefile.Source, error) {
	if err := opts.Validate(); err != nil {
		return imagefile.Source{}, fmt.Errorf("working options: %w", err)
	}
	if opts.MIMEType == "" {
		opts.MIMEType = imagefile.MIMEJPEG
	}

	src, err := normalize.MaterializeFile(ctx, src)
	if err != nil {
		return imagefile.Source{}, err
	}
	img, err := normalize.Decode(ctx, src)
	if err != nil {
		return imagefile.Source{}, err
	}

	b := img.Bounds()
	in := imagefile.Dims{Width: b.Dx(), Height: b.Dy()}
	out := TargetDims(in, opts)
	actual := imagefile.DetectMIME(src.Data, src.FileName)
	if out == in && actual == opts.MIMEType {
		src.MIMEType = actual
		return src, nil
	}

	if out != in {
		img = imaging.Resize(img, out.Width, out.Height, imaging.Lanczos)
	}
	if err := ctx.Err(); err != nil {
		return imagefile.Source{}, err
	}

	enc, err := reg.Resolve(opts.MIMEType, imagefile.HasAlpha(img))
	if err != nil {
		return imagefile.Source{}, err
	}
	data, err := enc.Encode(img, encoder.QualityFromUnit(opts.Quality))
	if err != nil {
		return imagefile.Source{}, fmt.Errorf("encode working image: %w", err)
	}
	return imagefile.Source{
		Data:     data,
		MIMEType: enc.MIMEType(),
		FileName: normalize.RenameExt(src.FileName, enc.Extension()),
		Size:     int64(len(data)),
	}, nil
}
