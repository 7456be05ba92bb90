// Package export rasterizes the final cover from a working image, an edit
// state and a target. Steps run in a fixed order so that the same inputs
// always produce the same pixels: rotate, crop, resample, color, dither.
package export

import (
	"context"
	"fmt"
	"image"

	"github.com/AnyUserName/covercrop/internal/editstate"
	"github.com/AnyUserName/covercrop/internal/encoder"
	"github.com/AnyUserName/covercrop/internal/hasher"
	"github.com/AnyUserName/covercrop/internal/imagefile"
	"github.com/AnyUserName/covercrop/internal/normalize"
	"github.com/AnyUserName/covercrop/internal/target"
	"github.com/disintegration/imaging"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

// DefaultQuality is the [0,1] encode quality when Options.Quality is 0.
const DefaultQuality = 0.9

var tracer = otel.Tracer("github.com/AnyUserName/covercrop/internal/export")

// Options controls encoding of the exported raster.
type Options struct {
	// MIMEType of the output. Empty means PNG for dithered output and
	// JPEG otherwise.
	MIMEType string
	// Quality in [0,1]; 0 selects DefaultQuality.
	Quality float64
	// Name is the stem of the suggested file name, e.g. a format id.
	Name     string
	Registry *encoder.Registry
}

// Result is one exported cover.
type Result struct {
	File imagefile.Source
	// State is the edit state actually rendered, with clamped translation.
	State editstate.CoverCropState
	// Crop is the visible rectangle in the rotated frame.
	Crop  image.Rectangle
	Frame imagefile.Dims
	// Dims of the encoded cover.
	Dims imagefile.Dims
}

// Rendered is the raster produced by Render before encoding.
type Rendered struct {
	Image image.Image
	State editstate.CoverCropState
	Crop  image.Rectangle
	Frame imagefile.Dims
}

// Export decodes the working image, renders it and encodes the result.
// It neither writes to storage nor touches shared state, so a canceled ctx
// simply discards the work.
func Export(ctx context.Context, working imagefile.Source, state editstate.CoverCropState, tg target.CropTarget, opts Options) (Result, error) {
	working, err := normalize.MaterializeFile(ctx, working)
	if err != nil {
		return Result{}, err
	}
	img, err := normalize.Decode(ctx, working)
	if err != nil {
		return Result{}, err
	}
	r, err := Render(ctx, img, state, tg)
	if err != nil {
		return Result{}, err
	}
	file, err := Encode(ctx, r, opts)
	if err != nil {
		return Result{}, err
	}
	b := r.Image.Bounds()
	return Result{
		File:  file,
		State: r.State,
		Crop:  r.Crop,
		Frame: r.Frame,
		Dims:  imagefile.Dims{Width: b.Dx(), Height: b.Dy()},
	}, nil
}

// Render applies the edit state to a decoded working image.
func Render(ctx context.Context, img image.Image, state editstate.CoverCropState, tg target.CropTarget) (Rendered, error) {
	if err := tg.Validate(); err != nil {
		return Rendered{}, err
	}
	if err := state.Validate(); err != nil {
		return Rendered{}, fmt.Errorf("edit state: %w", err)
	}
	state = state.Normalized()

	ctx, span := tracer.Start(ctx, "export.render")
	defer span.End()
	span.SetAttributes(
		attribute.Int("target.width", tg.Width),
		attribute.Int("target.height", tg.Height),
		attribute.String("target.output", string(tg.Output)),
		attribute.String("color_mode", state.ColorMode().String()),
	)

	// 1. rotate
	rotated := Rotate(img, state)
	if err := ctx.Err(); err != nil {
		return Rendered{}, err
	}

	// 2. crop
	b := rotated.Bounds()
	frame := imagefile.Dims{Width: b.Dx(), Height: b.Dy()}
	rect, effective := CropRect(frame, state, tg)
	out := image.Image(imaging.Crop(rotated, rect.Add(b.Min)))

	// 3. resample
	if tg.Output == target.OutputTarget {
		ob := out.Bounds()
		if ob.Dx() != tg.Width || ob.Dy() != tg.Height {
			out = imaging.Resize(out, tg.Width, tg.Height, imaging.Lanczos)
		}
	}
	if err := ctx.Err(); err != nil {
		return Rendered{}, err
	}

	// 4. color, then dither
	out = AdjustColor(out, state)
	if state.ColorMode() == editstate.GrayscaleDither {
		if err := ctx.Err(); err != nil {
			return Rendered{}, err
		}
		out = Dither(out)
	}

	return Rendered{Image: out, State: effective, Crop: rect, Frame: frame}, nil
}

// Encode serializes a rendered cover and suggests a content-addressed name.
func Encode(ctx context.Context, r Rendered, opts Options) (imagefile.Source, error) {
	if err := ctx.Err(); err != nil {
		return imagefile.Source{}, err
	}
	reg := opts.Registry
	if reg == nil {
		reg = encoder.Default
	}
	mimeType := opts.MIMEType
	if mimeType == "" {
		mimeType = imagefile.MIMEJPEG
		if r.State.ColorMode() == editstate.GrayscaleDither {
			mimeType = imagefile.MIMEPNG
		}
	}
	quality := opts.Quality
	if quality == 0 {
		quality = DefaultQuality
	}

	enc, err := reg.Resolve(mimeType, imagefile.HasAlpha(r.Image))
	if err != nil {
		return imagefile.Source{}, err
	}
	data, err := enc.Encode(r.Image, encoder.QualityFromUnit(quality))
	if err != nil {
		return imagefile.Source{}, fmt.Errorf("encode cover: %w", err)
	}

	b := r.Image.Bounds()
	return imagefile.Source{
		Data:     data,
		MIMEType: enc.MIMEType(),
		FileName: SuggestName(opts.Name, b.Dx(), b.Dy(), data, enc.Extension()),
		Size:     int64(len(data)),
	}, nil
}

// SuggestName builds "<stem>.<w>x<h>.<hash>.<ext>". The hash is the first
// 8 hex chars of the content hash, so re-exports of identical pixels share
// a name.
func SuggestName(stem string, w, h int, data []byte, ext string) string {
	if stem == "" {
		stem = "cover"
	}
	return fmt.Sprintf("%s.%dx%d.%s.%s", stem, w, h, hasher.ContentHash(data, 8), ext)
}
