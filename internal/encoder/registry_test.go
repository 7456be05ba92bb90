package encoder

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/AnyUserName/covercrop/internal/imagefile"
)

func TestQualityFromUnit(t *testing.T) {
	cases := map[float64]int{0: 1, 0.5: 50, 0.92: 92, 1: 100, 3: 100, -1: 1}
	for in, want := range cases {
		if got := QualityFromUnit(in); got != want {
			t.Errorf("QualityFromUnit(%v) = %d, want %d", in, got, want)
		}
	}
}

func TestResolve_Fallbacks(t *testing.T) {
	r := NewRegistry()

	enc, err := r.Resolve("", false)
	if err != nil || enc.MIMEType() != imagefile.MIMEJPEG {
		t.Errorf("opaque fallback: got %v, %v", enc, err)
	}
	enc, err = r.Resolve(imagefile.MIMEJPEG, true)
	if err != nil || enc.MIMEType() != imagefile.MIMEPNG {
		t.Errorf("alpha images must not be encoded as JPEG: got %v, %v", enc, err)
	}
	enc, err = r.Resolve("image/png", false)
	if err != nil || enc.MIMEType() != imagefile.MIMEPNG {
		t.Errorf("explicit png: got %v, %v", enc, err)
	}
}

func TestEncodersRoundTrip(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 16, 12))
	for y := 0; y < 12; y++ {
		for x := 0; x < 16; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x * 16), G: uint8(y * 20), B: 60, A: 255})
		}
	}

	data, err := (&JPEGEncoder{}).Encode(img, 0)
	if err != nil {
		t.Fatalf("jpeg: %v", err)
	}
	if cfg, err := jpeg.DecodeConfig(bytes.NewReader(data)); err != nil || cfg.Width != 16 {
		t.Errorf("jpeg decode config: %v %+v", err, cfg)
	}

	data, err = (&PNGEncoder{}).Encode(img, 50)
	if err != nil {
		t.Fatalf("png: %v", err)
	}
	if cfg, err := png.DecodeConfig(bytes.NewReader(data)); err != nil || cfg.Height != 12 {
		t.Errorf("png decode config: %v %+v", err, cfg)
	}
}
