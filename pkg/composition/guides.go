// Package composition provides framing guides for overlays and a heuristic
// score of how well a crop follows classical composition rules. Everything
// here is a pure function of its arguments.
package composition

import (
	"fmt"

	"github.com/menta2k/autocrop/pkg/types"
)

// GoldenRatio is the section used by the golden guide.
const GoldenRatio = 0.618

// Kind names a guide.
type Kind string

const (
	Thirds   Kind = "thirds"
	Golden   Kind = "golden"
	Diagonal Kind = "diagonal"
	Center   Kind = "center"
	EyeLine  Kind = "eyeline"
)

// Kinds lists every guide kind in display order.
func Kinds() []Kind {
	return []Kind{Thirds, Golden, Diagonal, Center, EyeLine}
}

// Orientation of a guide line.
type Orientation string

const (
	Vertical   Orientation = "vertical"
	Horizontal Orientation = "horizontal"
	Slanted    Orientation = "diagonal"
)

// Line is a guide segment in container coordinates.
type Line struct {
	Orientation Orientation `json:"orientation"`
	From        types.Point `json:"from"`
	To          types.Point `json:"to"`
}

// X is the position of a vertical line.
func (l Line) X() float64 { return l.From.X }

// Y is the position of a horizontal line.
func (l Line) Y() float64 { return l.From.Y }

// Guide is an ordered set of lines of one kind.
type Guide struct {
	Kind  Kind   `json:"kind"`
	Lines []Line `json:"lines"`
}

func vline(x, h float64) Line {
	return Line{Orientation: Vertical, From: types.Point{X: x}, To: types.Point{X: x, Y: h}}
}

func hline(y, w float64) Line {
	return Line{Orientation: Horizontal, From: types.Point{Y: y}, To: types.Point{X: w, Y: y}}
}

// RuleOfThirds splits the container into thirds both ways.
func RuleOfThirds(w, h float64) Guide {
	return Guide{Kind: Thirds, Lines: []Line{
		vline(w/3, h), vline(2*w/3, h),
		hline(h/3, w), hline(2*h/3, w),
	}}
}

// GoldenRatioGuide places lines at the golden sections.
func GoldenRatioGuide(w, h float64) Guide {
	return Guide{Kind: Golden, Lines: []Line{
		vline(w*GoldenRatio, h), vline(w*(1-GoldenRatio), h),
		hline(h*GoldenRatio, w), hline(h*(1-GoldenRatio), w),
	}}
}

// DiagonalGuide connects opposite corners.
func DiagonalGuide(w, h float64) Guide {
	return Guide{Kind: Diagonal, Lines: []Line{
		{Orientation: Slanted, From: types.Point{}, To: types.Point{X: w, Y: h}},
		{Orientation: Slanted, From: types.Point{X: w}, To: types.Point{Y: h}},
	}}
}

// CenterGuide is a crosshair through the middle.
func CenterGuide(w, h float64) Guide {
	return Guide{Kind: Center, Lines: []Line{vline(w/2, h), hline(h/2, w)}}
}

// EyeLineGuide marks the portrait eye level with its top and bottom bounds.
func EyeLineGuide(w, h float64) Guide {
	return Guide{Kind: EyeLine, Lines: []Line{
		hline(0.4*h, w),
		hline(0.1*h, w),
		hline(0.7*h, w),
	}}
}

// ForKind returns the guide of the given kind.
func ForKind(kind Kind, w, h float64) (Guide, error) {
	switch kind {
	case Thirds:
		return RuleOfThirds(w, h), nil
	case Golden:
		return GoldenRatioGuide(w, h), nil
	case Diagonal:
		return DiagonalGuide(w, h), nil
	case Center:
		return CenterGuide(w, h), nil
	case EyeLine:
		return EyeLineGuide(w, h), nil
	default:
		return Guide{}, fmt.Errorf("unknown guide %q", kind)
	}
}

// Translate moves every line by (dx, dy), e.g. from crop to image space.
func (g Guide) Translate(dx, dy float64) Guide {
	out := Guide{Kind: g.Kind, Lines: make([]Line, len(g.Lines))}
	for i, l := range g.Lines {
		l.From.X += dx
		l.From.Y += dy
		l.To.X += dx
		l.To.Y += dy
		out.Lines[i] = l
	}
	return out
}
