package export

import (
	"image"
	"image/color"
	"math"

	"github.com/AnyUserName/covercrop/internal/editstate"
	"github.com/AnyUserName/covercrop/internal/imagefile"
	"github.com/AnyUserName/covercrop/internal/target"
	"github.com/disintegration/imaging"
)

// FreeRotationBackground fills the corners exposed by a non-right-angle
// rotation.
var FreeRotationBackground = color.White

// Rotate turns img clockwise by state.Rot. Right angles are exact pixel
// permutations; other angles grow the frame to the rotated bounding box.
func Rotate(img image.Image, state editstate.CoverCropState) image.Image {
	if q, ok := state.RightAngle(); ok {
		switch q {
		case 1:
			return imaging.Rotate270(img)
		case 2:
			return imaging.Rotate180(img)
		case 3:
			return imaging.Rotate90(img)
		}
		return img
	}
	// imaging rotates counter-clockwise.
	return imaging.Rotate(img, 360-editstate.NormalizeAngle(state.Rot), FreeRotationBackground)
}

// CropRect computes the visible rectangle in the rotated frame.
//
// The base rectangle is the largest one with the target's aspect ratio,
// centered in the frame. Scale shrinks it around its center; a scale below
// 1 cannot grow it past the base. The center is then offset by (-TX, -TY)
// and the rectangle is slid back inside the frame, adjusting translation
// and never scale. The returned state carries the effective translation.
func CropRect(frame imagefile.Dims, state editstate.CoverCropState, tg target.CropTarget) (image.Rectangle, editstate.CoverCropState) {
	fw, fh := float64(frame.Width), float64(frame.Height)
	aspect := tg.Aspect()

	baseW, baseH := fw, fh
	if fw/fh > aspect {
		baseW = fh * aspect
	} else {
		baseH = fw / aspect
	}

	zoom := math.Max(state.Scale, 1)
	cw := clampInt(int(math.Round(baseW/zoom)), 1, frame.Width)
	ch := clampInt(int(math.Round(baseH/zoom)), 1, frame.Height)

	cx := fw/2 - state.TX
	cy := fh/2 - state.TY
	x0 := clampInt(int(math.Round(cx-float64(cw)/2)), 0, frame.Width-cw)
	y0 := clampInt(int(math.Round(cy-float64(ch)/2)), 0, frame.Height-ch)

	effective := state
	effective.TX = fw/2 - (float64(x0) + float64(cw)/2)
	effective.TY = fh/2 - (float64(y0) + float64(ch)/2)
	return image.Rect(x0, y0, x0+cw, y0+ch), effective
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
