package encoder

import (
	"image"
	"math"
)

// Encoder turns a raster into file bytes of one MIME type.
type Encoder interface {
	// MIMEType returns the produced type, e.g. "image/jpeg".
	MIMEType() string

	// Encode converts the image to bytes at the given quality (1-100).
	// Lossless encoders ignore quality.
	Encode(img image.Image, quality int) ([]byte, error)

	// Available returns true if the encoder is ready to use.
	// cwebp may not be installed.
	Available() bool

	// Extension returns the file extension without dot.
	Extension() string
}

// DefaultQuality is used when a caller passes an out-of-range quality.
const DefaultQuality = 90

// QualityFromUnit maps a [0,1] quality onto the 1-100 scale encoders use.
// Values outside [0,1] are clamped.
func QualityFromUnit(q float64) int {
	if math.IsNaN(q) {
		return DefaultQuality
	}
	q = math.Max(0, math.Min(1, q))
	n := int(math.Round(q * 100))
	if n < 1 {
		n = 1
	}
	return n
}
