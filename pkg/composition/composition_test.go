package composition

import (
	"errors"
	"math"
	"testing"

	"github.com/menta2k/autocrop/pkg/types"
)

func near(a, b float64) bool { return math.Abs(a-b) < 1e-6 }

func positions(g Guide, o Orientation) []float64 {
	var out []float64
	for _, l := range g.Lines {
		switch {
		case l.Orientation != o:
		case o == Vertical:
			out = append(out, l.X())
		default:
			out = append(out, l.Y())
		}
	}
	return out
}

func assertPositions(t *testing.T, name string, got, want []float64) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("%s: got %v, want %v", name, got, want)
	}
	for i := range want {
		if !near(got[i], want[i]) {
			t.Errorf("%s[%d] = %f, want %f", name, i, got[i], want[i])
		}
	}
}

func TestGuides(t *testing.T) {
	const w, h = 1080, 1920
	tests := []struct {
		guide Guide
		vert  []float64
		horiz []float64
	}{
		{RuleOfThirds(w, h), []float64{360, 720}, []float64{640, 1280}},
		{GoldenRatioGuide(w, h), []float64{667.44, 412.56}, []float64{1186.56, 733.44}},
		{CenterGuide(w, h), []float64{540}, []float64{960}},
		{EyeLineGuide(w, h), nil, []float64{768, 192, 1344}},
	}
	for _, tt := range tests {
		t.Run(string(tt.guide.Kind), func(t *testing.T) {
			assertPositions(t, "vertical", positions(tt.guide, Vertical), tt.vert)
			assertPositions(t, "horizontal", positions(tt.guide, Horizontal), tt.horiz)
		})
	}
}

func TestDiagonalGuide(t *testing.T) {
	g := DiagonalGuide(300, 200)
	if len(g.Lines) != 2 {
		t.Fatalf("Expected 2 diagonals, got %d", len(g.Lines))
	}
	if g.Lines[0].To != (types.Point{X: 300, Y: 200}) || g.Lines[1].From != (types.Point{X: 300}) {
		t.Errorf("Unexpected diagonals %+v", g.Lines)
	}
}

func TestForKind(t *testing.T) {
	for _, k := range Kinds() {
		g, err := ForKind(k, 100, 100)
		if err != nil {
			t.Errorf("ForKind(%s) failed: %v", k, err)
		}
		if g.Kind != k || len(g.Lines) == 0 {
			t.Errorf("ForKind(%s) returned %+v", k, g)
		}
	}
	if _, err := ForKind("spiral", 100, 100); err == nil {
		t.Error("Expected error for unknown guide")
	}
}

func TestTranslate(t *testing.T) {
	g := CenterGuide(100, 50).Translate(10, 20)
	if g.Lines[0].From != (types.Point{X: 60, Y: 20}) || g.Lines[1].To != (types.Point{X: 110, Y: 45}) {
		t.Errorf("Unexpected translated guide %+v", g.Lines)
	}
}

func TestSafeTextZones(t *testing.T) {
	z, err := SafeTextZones(1080, 1920, Instagram)
	if err != nil {
		t.Fatalf("SafeTextZones failed: %v", err)
	}
	if want := (types.Rect{X: 0, Y: 0, Width: 1080, Height: 288}); z.Top != want {
		t.Errorf("Top zone = %+v, want %+v", z.Top, want)
	}
	if want := (types.Rect{X: 0, Y: 1536, Width: 1080, Height: 384}); z.Bottom != want {
		t.Errorf("Bottom zone = %+v, want %+v", z.Bottom, want)
	}

	z, err = SafeTextZones(1000, 1000, YouTube)
	if err != nil || !near(z.Top.Height, 80) || !near(z.Bottom.Y, 880) {
		t.Errorf("Unexpected youtube zones %+v (%v)", z, err)
	}

	if _, err := SafeTextZones(1080, 1920, "myspace"); !errors.Is(err, types.ErrUnknownPlatform) {
		t.Errorf("Expected ErrUnknownPlatform, got %v", err)
	}
}

func TestContentAwareBorder(t *testing.T) {
	const imgW, imgH = 1080.0, 1920.0
	focuses := []types.Rect{
		{X: 100, Y: 100, Width: 400, Height: 300},
		{X: 0, Y: 0, Width: 1080, Height: 1920},
		{X: 1000, Y: 1800, Width: 80, Height: 120},
	}
	ratios := []types.AspectSpec{{Numerator: 1, Denominator: 1}, {Numerator: 16, Denominator: 9}, {Numerator: 9, Denominator: 16}}

	for _, f := range focuses {
		for _, r := range ratios {
			got := ContentAwareBorder(f, imgW, imgH, r, DefaultProtection)
			if !got.Inside(imgW, imgH, 1e-9) {
				t.Errorf("%+v %s: %+v outside image", f, r, got)
			}
			if math.Abs(got.Aspect()-r.Ratio()) > 1e-3 {
				t.Errorf("%+v %s: aspect %f", f, r, got.Aspect())
			}
		}
	}

	free := ContentAwareBorder(focuses[0], imgW, imgH, types.Free, DefaultProtection)
	if want := (types.Rect{X: 40, Y: 55, Width: 520, Height: 390}); !near(free.X, want.X) || !near(free.Y, want.Y) || !near(free.Width, want.Width) || !near(free.Height, want.Height) {
		t.Errorf("Free border = %+v, want %+v", free, want)
	}
}

func TestScore(t *testing.T) {
	const imgW, imgH = 1000.0, 1000.0
	at := func(cx, cy, w, h float64) types.Rect {
		return types.CenteredRect(types.Point{X: cx * imgW, Y: cy * imgH}, w, h)
	}

	focus := at(0.33, 0.33, 100, 100)
	crop := types.Rect{Width: 500, Height: 500}
	if s := Score(focus, crop, imgW, imgH); s < 80 {
		t.Errorf("Score on third line = %d, want >= 80", s)
	}
	if s := Score(focus, crop, imgW, imgH); s != 100 {
		t.Errorf("Score on third line with matching aspect = %d, want 100", s)
	}

	// Center: d=0.17 per axis, 40*(1-0.425)=23 each, plus both bonuses.
	if s := Score(at(0.5, 0.5, 100, 100), crop, imgW, imgH); s != 86 {
		t.Errorf("Centered score = %d, want 86", s)
	}

	// Corner: d=0.33 per axis, 40*(1-0.825)=7 each, mismatched aspect.
	if s := Score(at(0, 0, 10, 100), crop, imgW, imgH); s != 14 {
		t.Errorf("Corner score = %d, want 14", s)
	}

	if s := Score(focus, crop, 0, 0); s != 0 {
		t.Errorf("Expected 0 for empty image, got %d", s)
	}
}

func TestScoreMonotonic(t *testing.T) {
	const imgW, imgH = 1000.0, 1000.0
	crop := types.Rect{Width: 10, Height: 100}
	prev := 101
	// Move away from the 0.67 line towards the edge, outside the central band.
	for x := 0.67; x <= 1.0; x += 0.01 {
		focus := types.CenteredRect(types.Point{X: x * imgW, Y: 0.33 * imgH}, 50, 50)
		s := Score(focus, crop, imgW, imgH)
		if s > prev {
			t.Fatalf("Score increased from %d to %d at x=%f", prev, s, x)
		}
		if s < 0 || s > 100 {
			t.Fatalf("Score %d out of range", s)
		}
		prev = s
	}
}

func BenchmarkScore(b *testing.B) {
	focus := types.Rect{X: 300, Y: 300, Width: 100, Height: 100}
	crop := types.Rect{Width: 500, Height: 500}
	for i := 0; i < b.N; i++ {
		Score(focus, crop, 1000, 1000)
	}
}
