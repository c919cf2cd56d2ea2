package composition

import (
	"fmt"

	"github.com/menta2k/autocrop/pkg/types"
)

// DefaultProtection is the share of the focus kept clear around the subject.
const DefaultProtection = 0.15

// ContentAwareBorder expands the focus so subject extremities are not
// clipped, then fits the result to the target aspect inside the image.
func ContentAwareBorder(focus types.Rect, imgW, imgH float64, target types.AspectSpec, protection float64) types.Rect {
	bounds := types.BoundsOf(imgW, imgH)
	expanded := focus.Pad(protection).Intersect(bounds)
	if expanded.Empty() {
		expanded = focus.ClampInside(imgW, imgH)
	}
	if target.IsFree() {
		return expanded
	}
	return expanded.FitAspect(target.Ratio(), imgW, imgH)
}

// Platform identifies a social platform with on-screen UI chrome.
type Platform string

const (
	Instagram Platform = "instagram"
	TikTok    Platform = "tiktok"
	YouTube   Platform = "youtube"
)

// bands are the top and bottom unsafe fractions per platform.
var bands = map[Platform][2]float64{
	Instagram: {0.15, 0.20},
	TikTok:    {0.10, 0.15},
	YouTube:   {0.08, 0.12},
}

// SafeZones are the bands covered by platform UI; captions belong between them.
type SafeZones struct {
	Top    types.Rect `json:"top"`
	Bottom types.Rect `json:"bottom"`
}

// SafeTextZones returns the unsafe top and bottom bands of a w×h frame.
func SafeTextZones(w, h float64, platform Platform) (SafeZones, error) {
	b, ok := bands[platform]
	if !ok {
		return SafeZones{}, fmt.Errorf("%w: %q", types.ErrUnknownPlatform, platform)
	}
	top := h * b[0]
	bottom := h * b[1]
	return SafeZones{
		Top:    types.Rect{X: 0, Y: 0, Width: w, Height: top},
		Bottom: types.Rect{X: 0, Y: h - bottom, Width: w, Height: bottom},
	}, nil
}
