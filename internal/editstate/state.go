// Package editstate is the serializable description of a user's cover
// edits. Values are replaced, never mutated: every With method returns a
// new state, so retaining an old value is a snapshot.
package editstate

import (
	"fmt"
	"math"
)

// Adjustment bounds. All three color adjustments are signed percentage
// offsets with neutral 0.
const (
	MinAdjust = -100
	MaxAdjust = 100
)

// CoverCropState describes crop geometry and color adjustments relative to
// the working image's own coordinate frame.
type CoverCropState struct {
	// Scale is the zoom factor over the cover-fit crop; must be > 0.
	Scale float64 `json:"scale"`
	// TX and TY pan the image inside the crop frame, in working-image
	// pixels of the rotated frame. Positive TX moves the image right.
	TX float64 `json:"tx"`
	TY float64 `json:"ty"`

	Brightness float64 `json:"brightness"`
	Saturation float64 `json:"saturation"`
	Contrast   float64 `json:"contrast"`

	BW     bool `json:"bw"`
	Dither bool `json:"dither"`

	// Rot is a clockwise rotation in degrees, normalized to [0,360).
	Rot float64 `json:"rot"`
}

// Neutral is the identity edit.
func Neutral() CoverCropState {
	return CoverCropState{Scale: 1}
}

// Validate checks the state invariants.
func (s CoverCropState) Validate() error {
	for name, v := range map[string]float64{
		"scale": s.Scale, "tx": s.TX, "ty": s.TY, "rot": s.Rot,
		"brightness": s.Brightness, "saturation": s.Saturation, "contrast": s.Contrast,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%s is not a finite number", name)
		}
	}
	if s.Scale <= 0 {
		return fmt.Errorf("scale must be positive, got %v", s.Scale)
	}
	for name, v := range map[string]float64{
		"brightness": s.Brightness, "saturation": s.Saturation, "contrast": s.Contrast,
	} {
		if v < MinAdjust || v > MaxAdjust {
			return fmt.Errorf("%s %v outside [%d, %d]", name, v, MinAdjust, MaxAdjust)
		}
	}
	return nil
}

// Normalized returns s with Rot folded into [0,360).
func (s CoverCropState) Normalized() CoverCropState {
	s.Rot = NormalizeAngle(s.Rot)
	return s
}

// NormalizeAngle folds degrees into [0,360).
func NormalizeAngle(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	if deg >= 360 {
		deg = 0
	}
	return deg
}

// RightAngle reports whether Rot is a multiple of 90 degrees, returning the
// number of clockwise quarter turns.
func (s CoverCropState) RightAngle() (int, bool) {
	r := NormalizeAngle(s.Rot)
	q := math.Round(r / 90)
	if math.Abs(r-q*90) > 1e-9 {
		return 0, false
	}
	return int(q) % 4, true
}

// NeutralColor reports whether the color pipeline is the identity.
func (s CoverCropState) NeutralColor() bool {
	return s.Brightness == 0 && s.Contrast == 0 && s.Saturation == 0 && !s.BW
}

// WithScale returns a copy with a new zoom.
func (s CoverCropState) WithScale(scale float64) CoverCropState {
	s.Scale = scale
	return s
}

// WithTranslation returns a copy panned to (tx, ty).
func (s CoverCropState) WithTranslation(tx, ty float64) CoverCropState {
	s.TX, s.TY = tx, ty
	return s
}

// WithRotation returns a copy rotated to deg, normalized.
func (s CoverCropState) WithRotation(deg float64) CoverCropState {
	s.Rot = NormalizeAngle(deg)
	return s
}

// RotateRight returns a copy turned a further 90 degrees clockwise.
func (s CoverCropState) RotateRight() CoverCropState {
	return s.WithRotation(s.Rot + 90)
}

// WithAdjustments returns a copy with new color offsets, clamped to range.
func (s CoverCropState) WithAdjustments(brightness, contrast, saturation float64) CoverCropState {
	s.Brightness = clampAdjust(brightness)
	s.Contrast = clampAdjust(contrast)
	s.Saturation = clampAdjust(saturation)
	return s
}

// WithColorMode returns a copy whose BW/Dither flags encode m.
func (s CoverCropState) WithColorMode(m ColorMode) CoverCropState {
	s.BW = m != Color
	s.Dither = m == GrayscaleDither
	return s
}

func clampAdjust(v float64) float64 {
	return math.Max(MinAdjust, math.Min(MaxAdjust, v))
}
