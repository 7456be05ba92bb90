package editstate

// ColorMode is the tagged view of the BW and Dither flags. The persisted
// state keeps both flags so a dither choice made before enabling BW
// survives, but renderers only ever look at the mode.
type ColorMode int

const (
	Color ColorMode = iota
	Grayscale
	GrayscaleDither
)

func (m ColorMode) String() string {
	switch m {
	case Grayscale:
		return "grayscale"
	case GrayscaleDither:
		return "grayscale+dither"
	}
	return "color"
}

// ColorMode derives the effective mode. Dither without BW is Color.
func (s CoverCropState) ColorMode() ColorMode {
	switch {
	case s.BW && s.Dither:
		return GrayscaleDither
	case s.BW:
		return Grayscale
	}
	return Color
}
