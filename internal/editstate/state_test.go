package editstate

import (
	"encoding/json"
	"math"
	"testing"
)

func TestNeutralIsValid(t *testing.T) {
	s := Neutral()
	if err := s.Validate(); err != nil {
		t.Fatalf("neutral state invalid: %v", err)
	}
	if !s.NeutralColor() {
		t.Error("neutral state should have neutral color")
	}
	if q, ok := s.RightAngle(); !ok || q != 0 {
		t.Errorf("RightAngle: %d %v", q, ok)
	}
}

func TestValidate(t *testing.T) {
	bad := []CoverCropState{
		Neutral().WithScale(0),
		Neutral().WithScale(-2),
		Neutral().WithScale(math.NaN()),
		Neutral().WithTranslation(math.Inf(1), 0),
		{Scale: 1, Brightness: 101},
		{Scale: 1, Contrast: -150},
	}
	for i, s := range bad {
		if err := s.Validate(); err == nil {
			t.Errorf("case %d: %+v should be invalid", i, s)
		}
	}
}

func TestNormalizeAngle(t *testing.T) {
	cases := map[float64]float64{0: 0, 90: 90, 360: 0, 450: 90, -90: 270, -720: 0, 359.5: 359.5}
	for in, want := range cases {
		if got := NormalizeAngle(in); got != want {
			t.Errorf("NormalizeAngle(%v) = %v, want %v", in, got, want)
		}
	}
}

func TestRightAngle(t *testing.T) {
	s := Neutral()
	for want := 1; want <= 4; want++ {
		s = s.RotateRight()
		q, ok := s.RightAngle()
		if !ok || q != want%4 {
			t.Errorf("after %d turns: q=%d ok=%v rot=%v", want, q, ok, s.Rot)
		}
	}
	if _, ok := Neutral().WithRotation(12.5).RightAngle(); ok {
		t.Error("12.5 degrees is not a right angle")
	}
}

func TestWithDoesNotMutate(t *testing.T) {
	base := Neutral()
	next := base.WithAdjustments(20, -10, 300).WithTranslation(5, 6)
	if base != Neutral() {
		t.Error("With methods must not modify the receiver")
	}
	if next.Saturation != MaxAdjust {
		t.Errorf("saturation should clamp to %d, got %v", MaxAdjust, next.Saturation)
	}
}

func TestColorMode(t *testing.T) {
	cases := []struct {
		bw, dither bool
		want       ColorMode
	}{
		{false, false, Color},
		{false, true, Color},
		{true, false, Grayscale},
		{true, true, GrayscaleDither},
	}
	for _, c := range cases {
		s := CoverCropState{Scale: 1, BW: c.bw, Dither: c.dither}
		if got := s.ColorMode(); got != c.want {
			t.Errorf("bw=%v dither=%v: got %s, want %s", c.bw, c.dither, got, c.want)
		}
	}
	s := Neutral().WithColorMode(GrayscaleDither)
	if !s.BW || !s.Dither {
		t.Errorf("WithColorMode: %+v", s)
	}
}

func TestJSONFieldNames(t *testing.T) {
	raw := `{"scale":1.5,"tx":-3,"ty":4,"brightness":10,"saturation":-5,"contrast":2,"bw":true,"dither":true,"rot":90}`
	var s CoverCropState
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		t.Fatal(err)
	}
	want := CoverCropState{Scale: 1.5, TX: -3, TY: 4, Brightness: 10, Saturation: -5, Contrast: 2, BW: true, Dither: true, Rot: 90}
	if s != want {
		t.Errorf("got %+v", s)
	}
}
