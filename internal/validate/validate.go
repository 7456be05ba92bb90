// Package validate runs the cheap checks on a raw image file before any
// pixel decoding happens.
package validate

import (
	"fmt"
	"strings"

	"github.com/AnyUserName/covercrop/internal/imagefile"
)

// DefaultMaxBytes is the process-wide byte ceiling.
const DefaultMaxBytes = 25 << 20

// DefaultMaxPixels bounds width*height of a decodable source. Decoding
// allocates roughly 4 bytes per pixel, and a tiny compressed file can
// declare an enormous raster.
const DefaultMaxPixels = 50_000_000

// Options configures Basic and Dims.
type Options struct {
	MaxBytes         int64
	AllowedMIMETypes map[string]bool
	// AllowedExtensions is optional; nil skips the extension check.
	AllowedExtensions map[string]bool
	// MaxPixels bounds width*height; 0 disables the check.
	MaxPixels int64
	// MinSide is the smallest accepted width or height; 0 means 1.
	MinSide int
}

// DefaultOptions accepts JPEG, PNG and WebP up to DefaultMaxBytes and
// DefaultMaxPixels.
func DefaultOptions() Options {
	return Options{
		MaxBytes:  DefaultMaxBytes,
		MaxPixels: DefaultMaxPixels,
		AllowedMIMETypes: map[string]bool{
			imagefile.MIMEJPEG: true,
			imagefile.MIMEPNG:  true,
			imagefile.MIMEWebP: true,
		},
	}
}

// WithMIMETypes returns a copy of o accepting exactly the given types.
func (o Options) WithMIMETypes(types ...string) Options {
	o.AllowedMIMETypes = make(map[string]bool, len(types))
	for _, t := range types {
		o.AllowedMIMETypes[strings.ToLower(strings.TrimSpace(t))] = true
	}
	return o
}

// WithExtensions returns a copy of o that also checks file extensions.
func (o Options) WithExtensions(exts ...string) Options {
	o.AllowedExtensions = make(map[string]bool, len(exts))
	for _, e := range exts {
		e = strings.ToLower(strings.TrimSpace(e))
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		o.AllowedExtensions[e] = true
	}
	return o
}

// Result is the outcome of a validation. When Valid is false, Kind is set.
type Result struct {
	Valid   bool           `json:"valid"`
	Kind    imagefile.Kind `json:"error,omitempty"`
	Details string         `json:"details,omitempty"`
}

// Err converts a failed result to a tagged error, nil when valid.
func (r Result) Err() error {
	if r.Valid {
		return nil
	}
	return &imagefile.Error{Kind: r.Kind, Details: r.Details}
}

func fail(kind imagefile.Kind, format string, args ...any) Result {
	return Result{Kind: kind, Details: fmt.Sprintf(format, args...)}
}

// Basic checks type then size, failing fast. It never decodes pixels, so a
// passing file may still turn out Corrupt downstream.
func Basic(src imagefile.Source, opts Options) Result {
	mimeType := strings.ToLower(strings.TrimSpace(src.MIMEType))
	if !opts.AllowedMIMETypes[mimeType] {
		return fail(imagefile.UnsupportedType, "mime type %q not allowed", src.MIMEType)
	}
	if opts.AllowedExtensions != nil {
		ext := src.Ext()
		if !opts.AllowedExtensions[ext] {
			return fail(imagefile.UnsupportedType, "extension %q not allowed", ext)
		}
	}

	if opts.MaxBytes > 0 && src.Len() > opts.MaxBytes {
		return fail(imagefile.TooLarge, "%d bytes exceeds limit of %d", src.Len(), opts.MaxBytes)
	}
	return Result{Valid: true}
}

// Dims checks header dimensions before anything decodes the raster.
// Failures are InvalidDimensions.
func Dims(d imagefile.Dims, opts Options) Result {
	minSide := max(opts.MinSide, 1)
	if d.Width < minSide || d.Height < minSide {
		return fail(imagefile.InvalidDimensions, "%s is below the minimum side of %d", d, minSide)
	}
	if opts.MaxPixels > 0 {
		if px := int64(d.Width) * int64(d.Height); px > opts.MaxPixels {
			return fail(imagefile.InvalidDimensions, "%s is %d pixels, limit is %d", d, px, opts.MaxPixels)
		}
	}
	return Result{Valid: true}
}
