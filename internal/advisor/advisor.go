// Package advisor flags source images too small for a cover target.
package advisor

import (
	"math"

	"github.com/AnyUserName/covercrop/internal/imagefile"
	"github.com/AnyUserName/covercrop/internal/target"
)

// DefaultMaxUpscale is the largest enlargement accepted without a warning.
// 1.0 means any upscaling warns.
const DefaultMaxUpscale = 1.0

// SmallImageWarnParams reports the source size and the minimum size that
// would satisfy the target within the tolerated enlargement.
type SmallImageWarnParams struct {
	ImgW int `json:"imgW"`
	ImgH int `json:"imgH"`
	MinW int `json:"minW"`
	MinH int `json:"minH"`
}

// GetSmallWarnParams is Advise with DefaultMaxUpscale.
func GetSmallWarnParams(original imagefile.Dims, tg target.CropTarget) *SmallImageWarnParams {
	return Advise(original, tg, DefaultMaxUpscale)
}

// Advise returns nil when original can fill tg with an enlargement of at
// most maxUpscale. Otherwise it returns the smallest dimensions with the
// source's aspect ratio that Advise would accept. With maxUpscale 1 that is
// the no-upscale size, never below the target; a larger tolerance may
// report a minimum below the target.
func Advise(original imagefile.Dims, tg target.CropTarget, maxUpscale float64) *SmallImageWarnParams {
	if !original.Valid() || tg.Width <= 0 || tg.Height <= 0 {
		return nil
	}
	if maxUpscale < 1 {
		maxUpscale = 1
	}

	// The strictest crop is the cover fit: the source must span the target
	// on both axes, so the required factor is the larger of the two.
	need := math.Max(
		float64(tg.Width)/float64(original.Width),
		float64(tg.Height)/float64(original.Height),
	)
	if need <= maxUpscale {
		return nil
	}

	k := need / maxUpscale
	return &SmallImageWarnParams{
		ImgW: original.Width,
		ImgH: original.Height,
		MinW: int(math.Ceil(float64(original.Width)*k - 1e-9)),
		MinH: int(math.Ceil(float64(original.Height)*k - 1e-9)),
	}
}
