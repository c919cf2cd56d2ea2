package types

import (
	"fmt"
	"strconv"
	"strings"
)

// FreeLabel is the ratio string meaning "no aspect constraint".
const FreeLabel = "FREE"

// AspectSpec is a positive rational aspect ratio. The zero value is FREE.
type AspectSpec struct {
	Numerator   int
	Denominator int
}

// Free is the unconstrained aspect.
var Free = AspectSpec{}

// IsFree reports whether the spec carries no constraint.
func (a AspectSpec) IsFree() bool {
	return a.Numerator <= 0 || a.Denominator <= 0
}

// Ratio returns numerator/denominator, or 0 when free.
func (a AspectSpec) Ratio() float64 {
	if a.IsFree() {
		return 0
	}
	return float64(a.Numerator) / float64(a.Denominator)
}

func (a AspectSpec) String() string {
	if a.IsFree() {
		return FreeLabel
	}
	return fmt.Sprintf("%d:%d", a.Numerator, a.Denominator)
}

// ParseAspect parses "<int>:<int>" or "FREE". Anything else, including zero
// or negative parts, yields Free; ok is false in that case unless the input
// was literally FREE.
func ParseAspect(s string) (spec AspectSpec, ok bool) {
	s = strings.TrimSpace(s)
	if s == FreeLabel {
		return Free, true
	}
	num, den, found := strings.Cut(s, ":")
	if !found {
		return Free, false
	}
	n, err := strconv.Atoi(strings.TrimSpace(num))
	if err != nil || n <= 0 {
		return Free, false
	}
	d, err := strconv.Atoi(strings.TrimSpace(den))
	if err != nil || d <= 0 {
		return Free, false
	}
	return AspectSpec{Numerator: n, Denominator: d}, true
}
