package types

import "math"

// Point is a location in image pixel space.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Finite reports whether both coordinates are finite numbers.
func (p Point) Finite() bool {
	return finite(p.X) && finite(p.Y)
}

// Rect is an axis-aligned rectangle in image pixel space.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// BoundsOf returns the rectangle covering a whole image.
func BoundsOf(w, h float64) Rect {
	return Rect{Width: w, Height: h}
}

// CenteredRect builds a w×h rectangle centered at c.
func CenteredRect(c Point, w, h float64) Rect {
	return Rect{X: c.X - w/2, Y: c.Y - h/2, Width: w, Height: h}
}

// Center returns the center point of the rectangle
func (r Rect) Center() Point {
	return Point{X: r.X + r.Width/2, Y: r.Y + r.Height/2}
}

// MaxX returns the right edge.
func (r Rect) MaxX() float64 { return r.X + r.Width }

// MaxY returns the bottom edge.
func (r Rect) MaxY() float64 { return r.Y + r.Height }

// Aspect returns width/height, or 0 for a degenerate rectangle.
func (r Rect) Aspect() float64 {
	if r.Height <= 0 {
		return 0
	}
	return r.Width / r.Height
}

// Empty reports whether the rectangle has no area.
func (r Rect) Empty() bool {
	return !(r.Width > 0) || !(r.Height > 0)
}

// Finite reports whether every component is a finite number.
func (r Rect) Finite() bool {
	return finite(r.X) && finite(r.Y) && finite(r.Width) && finite(r.Height)
}

// Pad grows the rectangle by pct of its own size on every side, keeping its center.
func (r Rect) Pad(pct float64) Rect {
	dx, dy := r.Width*pct, r.Height*pct
	return Rect{X: r.X - dx, Y: r.Y - dy, Width: r.Width + 2*dx, Height: r.Height + 2*dy}
}

// Union returns the smallest rectangle containing both r and o.
func (r Rect) Union(o Rect) Rect {
	x0 := math.Min(r.X, o.X)
	y0 := math.Min(r.Y, o.Y)
	x1 := math.Max(r.MaxX(), o.MaxX())
	y1 := math.Max(r.MaxY(), o.MaxY())
	return Rect{X: x0, Y: y0, Width: x1 - x0, Height: y1 - y0}
}

// Intersect clips r to o. The result may be Empty.
func (r Rect) Intersect(o Rect) Rect {
	x0 := math.Max(r.X, o.X)
	y0 := math.Max(r.Y, o.Y)
	x1 := math.Min(r.MaxX(), o.MaxX())
	y1 := math.Min(r.MaxY(), o.MaxY())
	if x1 < x0 {
		x1 = x0
	}
	if y1 < y0 {
		y1 = y0
	}
	return Rect{X: x0, Y: y0, Width: x1 - x0, Height: y1 - y0}
}

// ClampInside shrinks r to at most w×h and translates it so it lies fully
// inside [0,w]×[0,h]. Translation never shrinks the rectangle.
func (r Rect) ClampInside(w, h float64) Rect {
	out := r
	if out.Width > w {
		out.Width = w
	}
	if out.Height > h {
		out.Height = h
	}
	out.X = Clamp(out.X, 0, w-out.Width)
	out.Y = Clamp(out.Y, 0, h-out.Height)
	return out
}

// FitAspect reshapes r to aspect a (width/height) around its own center,
// keeping the longer side relative to a, then scales it down uniformly to
// fit a w×h image and translates it inside the image bounds.
func (r Rect) FitAspect(a, w, h float64) Rect {
	if !(a > 0) || math.IsInf(a, 0) {
		return r.ClampInside(w, h)
	}
	cw, ch := r.Width, r.Height
	if r.Aspect() >= a {
		ch = cw / a
	} else {
		cw = ch * a
	}
	if scale := math.Min(1, math.Min(w/cw, h/ch)); scale < 1 {
		cw *= scale
		ch *= scale
	}
	return CenteredRect(r.Center(), cw, ch).ClampInside(w, h)
}

// Round snaps every coordinate to the nearest integer.
func (r Rect) Round() Rect {
	return Rect{X: math.Round(r.X), Y: math.Round(r.Y), Width: math.Round(r.Width), Height: math.Round(r.Height)}
}

// Inside reports whether r satisfies the rect invariants for a w×h image,
// allowing eps of floating point slack.
func (r Rect) Inside(w, h, eps float64) bool {
	return r.Width > 0 && r.Height > 0 &&
		r.X >= -eps && r.Y >= -eps &&
		r.MaxX() <= w+eps && r.MaxY() <= h+eps
}

// Lerp interpolates linearly between a and b by t.
func Lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

// Clamp ensures a value is within the given bounds
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
