package export

import (
	"image"
	"image/color"
	"math"

	"github.com/AnyUserName/covercrop/internal/editstate"
	"github.com/disintegration/imaging"
	xdraw "golang.org/x/image/draw"
)

// FormulaVersion identifies the color formulas below. Persisted edit states
// replay against it; any change to the math must bump it.
const FormulaVersion = 1

// DitherLevels is the number of gray levels of the dithered palette
// (4-bit e-ink panels).
const DitherLevels = 16

// Rec. 601 luma weights, used for saturation and grayscale.
const (
	lumaR = 0.299
	lumaG = 0.587
	lumaB = 0.114
)

// AdjustColor applies, per channel value v in [0,255] and clamping after
// each step:
//
//	brightness b: v + 255*b/100
//	contrast   c: (v-128)*f + 128, f = 1+c/100 for c <= 0, 100/(100-c) for c > 0 (c capped at 99)
//	saturation s: L + (v-L)*(1+s/100), L = luma of the pixel
//	grayscale:    luma, when bw is set
//
// Alpha is untouched. A neutral state returns img unchanged.
func AdjustColor(img image.Image, state editstate.CoverCropState) image.Image {
	if state.NeutralColor() {
		return img
	}
	bOff := 255 * state.Brightness / 100
	cf := contrastFactor(state.Contrast)
	sf := 1 + state.Saturation/100
	gray := state.ColorMode() != editstate.Color

	return imaging.AdjustFunc(img, func(c color.NRGBA) color.NRGBA {
		r, g, b := float64(c.R), float64(c.G), float64(c.B)

		if bOff != 0 {
			r, g, b = clamp255(r+bOff), clamp255(g+bOff), clamp255(b+bOff)
		}
		if cf != 1 {
			r = clamp255((r-128)*cf + 128)
			g = clamp255((g-128)*cf + 128)
			b = clamp255((b-128)*cf + 128)
		}
		if sf != 1 {
			l := luma(r, g, b)
			r, g, b = clamp255(l+(r-l)*sf), clamp255(l+(g-l)*sf), clamp255(l+(b-l)*sf)
		}
		if gray {
			l := clamp255(luma(r, g, b))
			r, g, b = l, l, l
		}
		return color.NRGBA{R: round8(r), G: round8(g), B: round8(b), A: c.A}
	})
}

func contrastFactor(c float64) float64 {
	if c <= 0 {
		return 1 + c/100
	}
	return 100 / (100 - math.Min(c, 99))
}

func luma(r, g, b float64) float64 { return lumaR*r + lumaG*g + lumaB*b }

func clamp255(v float64) float64 { return math.Max(0, math.Min(255, v)) }

func round8(v float64) uint8 { return uint8(math.Round(clamp255(v))) }

// GrayPalette returns n evenly spaced gray levels from black to white.
func GrayPalette(n int) color.Palette {
	if n < 2 {
		n = 2
	}
	p := make(color.Palette, n)
	for i := range p {
		p[i] = color.Gray{Y: uint8(math.Round(float64(i) * 255 / float64(n-1)))}
	}
	return p
}

// Dither reduces img to DitherLevels grays with Floyd-Steinberg error
// diffusion. The result is paletted so it encodes losslessly as PNG.
func Dither(img image.Image) *image.Paletted {
	b := img.Bounds()
	dst := image.NewPaletted(image.Rect(0, 0, b.Dx(), b.Dy()), GrayPalette(DitherLevels))
	xdraw.FloydSteinberg.Draw(dst, dst.Bounds(), img, b.Min)
	return dst
}
