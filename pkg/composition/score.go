package composition

import (
	"math"

	"github.com/menta2k/autocrop/pkg/types"
)

const (
	thirdLow     = 0.33
	thirdHigh    = 0.67
	thirdFalloff = 0.4
	axisWeight   = 40.0
	centralBonus = 20.0
	aspectBonus  = 20.0
	aspectSlack  = 0.2
	centralLow   = 0.4
	centralHigh  = 0.6
)

// Score rates a crop from 0 to 100: proximity of the focus center to the
// third lines on each axis, a bonus for a centered subject, and a bonus when
// the crop and focus shapes agree.
func Score(focus, crop types.Rect, imgW, imgH float64) int {
	if imgW <= 0 || imgH <= 0 {
		return 0
	}
	c := focus.Center()
	cx, cy := c.X/imgW, c.Y/imgH

	score := axisScore(cx) + axisScore(cy)
	if cx > centralLow && cx < centralHigh && cy > centralLow && cy < centralHigh {
		score += centralBonus
	}
	if math.Abs(crop.Aspect()-focus.Aspect()) < aspectSlack {
		score += aspectBonus
	}
	return int(math.Round(types.Clamp(score, 0, 100)))
}

// axisScore decays linearly from axisWeight on a third line to 0 at thirdFalloff.
func axisScore(v float64) float64 {
	d := math.Min(math.Abs(v-thirdLow), math.Abs(v-thirdHigh))
	if math.IsNaN(d) {
		return 0
	}
	return axisWeight * math.Max(0, 1-d/thirdFalloff)
}
