package encoder

import (
	"fmt"
	"strings"

	"github.com/AnyUserName/covercrop/internal/imagefile"
)

// Registry holds the available encoders keyed by MIME type.
type Registry struct {
	encoders map[string]Encoder
}

// NewRegistry creates a registry, probing all encoders for availability.
func NewRegistry() *Registry {
	r := &Registry{
		encoders: make(map[string]Encoder),
	}

	all := []Encoder{
		&WebPEncoder{},
		&JPEGEncoder{},
		&PNGEncoder{},
	}
	for _, enc := range all {
		if enc.Available() {
			r.encoders[enc.MIMEType()] = enc
		}
	}
	return r
}

// Default is the shared registry used when a caller does not supply one.
var Default = NewRegistry()

// Get returns an encoder for the given MIME type, or nil if unavailable.
func (r *Registry) Get(mimeType string) Encoder {
	return r.encoders[strings.ToLower(mimeType)]
}

// Available returns all available MIME types in priority order.
func (r *Registry) Available() []string {
	var result []string
	for _, m := range []string{imagefile.MIMEWebP, imagefile.MIMEJPEG, imagefile.MIMEPNG} {
		if _, ok := r.encoders[m]; ok {
			result = append(result, m)
		}
	}
	return result
}

// Resolve picks the encoder for a requested type. An empty or unavailable
// request falls back to PNG for images with alpha and JPEG otherwise.
func (r *Registry) Resolve(requested string, hasAlpha bool) (Encoder, error) {
	if enc := r.Get(requested); enc != nil {
		if !(hasAlpha && enc.MIMEType() == imagefile.MIMEJPEG) {
			return enc, nil
		}
	}
	fallback := imagefile.MIMEJPEG
	if hasAlpha {
		fallback = imagefile.MIMEPNG
	}
	if enc := r.Get(fallback); enc != nil {
		return enc, nil
	}
	return nil, fmt.Errorf("no encoder for %q", requested)
}

// String returns a summary of available encoders.
func (r *Registry) String() string {
	avail := r.Available()
	if len(avail) == 0 {
		return "no encoders available"
	}
	return fmt.Sprintf("encoders: %s", strings.Join(avail, ", "))
}
