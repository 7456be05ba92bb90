package encoder

import (
	"bytes"
	"image"
	"image/png"

	"github.com/AnyUserName/covercrop/internal/imagefile"
)

// PNGEncoder encodes images to PNG using Go's standard library.
// Used for images with alpha and for dithered e-ink output, where a
// paletted image must survive byte-exact.
type PNGEncoder struct{}

func (e *PNGEncoder) MIMEType() string  { return imagefile.MIMEPNG }
func (e *PNGEncoder) Extension() string { return "png" }
func (e *PNGEncoder) Available() bool   { return true }

func (e *PNGEncoder) Encode(img image.Image, _ int) ([]byte, error) {
	var buf bytes.Buffer
	buf.Grow(512 * 1024)

	enc := &png.Encoder{CompressionLevel: png.BestCompression}
	if err := enc.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
