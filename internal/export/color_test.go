package export

import (
	"image"
	"image/color"
	"testing"

	"github.com/AnyUserName/covercrop/internal/editstate"
)

func onePixel(c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, 1, 1))
	img.SetNRGBA(0, 0, c)
	return img
}

func adjusted(c color.NRGBA, st editstate.CoverCropState) color.NRGBA {
	out := AdjustColor(onePixel(c), st)
	return color.NRGBAModel.Convert(out.At(0, 0)).(color.NRGBA)
}

func TestAdjustColor_NeutralIsIdentity(t *testing.T) {
	img := onePixel(color.NRGBA{R: 10, G: 200, B: 77, A: 255})
	if AdjustColor(img, editstate.Neutral()) != image.Image(img) {
		t.Error("neutral adjustment should return the input")
	}
}

func TestAdjustColor_Brightness(t *testing.T) {
	base := color.NRGBA{R: 100, G: 100, B: 100, A: 255}
	prev := -1
	for _, b := range []float64{-100, -50, 0, 20, 100} {
		got := adjusted(base, editstate.Neutral().WithAdjustments(b, 0, 0))
		if int(got.R) < prev {
			t.Errorf("brightness not monotonic at %v: %d < %d", b, got.R, prev)
		}
		prev = int(got.R)
	}
	if got := adjusted(base, editstate.Neutral().WithAdjustments(20, 0, 0)); got.R != 151 {
		t.Errorf("brightness +20: got %d, want 151", got.R)
	}
	if got := adjusted(base, editstate.Neutral().WithAdjustments(-100, 0, 0)); got.R != 0 {
		t.Errorf("brightness -100: got %d, want 0", got.R)
	}
}

func TestAdjustColor_Contrast(t *testing.T) {
	dark := color.NRGBA{R: 64, G: 64, B: 64, A: 255}
	if got := adjusted(dark, editstate.Neutral().WithAdjustments(0, -100, 0)); got.R != 128 {
		t.Errorf("contrast -100 flattens to mid gray, got %d", got.R)
	}
	if got := adjusted(dark, editstate.Neutral().WithAdjustments(0, 50, 0)); got.R != 0 {
		t.Errorf("contrast +50 doubles distance from 128, got %d", got.R)
	}
}

func TestAdjustColor_SaturationAndGray(t *testing.T) {
	red := color.NRGBA{R: 200, G: 50, B: 50, A: 200}
	got := adjusted(red, editstate.Neutral().WithAdjustments(0, 0, -100))
	if got.R != got.G || got.G != got.B {
		t.Errorf("saturation -100 should be gray, got %v", got)
	}
	if got.A != 200 {
		t.Errorf("alpha changed: %d", got.A)
	}

	bw := editstate.Neutral().WithColorMode(editstate.Grayscale)
	got = adjusted(red, bw)
	// 0.299*200 + 0.587*50 + 0.114*50 = 94.85
	if got.R != 95 || got.G != 95 || got.B != 95 {
		t.Errorf("grayscale: got %v, want 95", got)
	}
}

func TestAdjustColor_DitherFlagAloneIsColor(t *testing.T) {
	st := editstate.CoverCropState{Scale: 1, Dither: true}
	c := color.NRGBA{R: 200, G: 50, B: 50, A: 255}
	if got := adjusted(c, st); got != c {
		t.Errorf("dither without bw must not change color: %v", got)
	}
}

func TestGrayPalette(t *testing.T) {
	p := GrayPalette(16)
	if len(p) != 16 {
		t.Fatalf("len %d", len(p))
	}
	if p[0].(color.Gray).Y != 0 || p[15].(color.Gray).Y != 255 || p[1].(color.Gray).Y != 17 {
		t.Errorf("levels: %v %v %v", p[0], p[1], p[15])
	}
}
