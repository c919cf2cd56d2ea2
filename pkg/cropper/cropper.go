package cropper

import (
	"context"

	"k8s.io/klog/v2"

	"github.com/menta2k/autocrop/pkg/detection"
	"github.com/menta2k/autocrop/pkg/types"
)

// DefaultPadPct is the padding applied around the focus before fitting a ratio.
const DefaultPadPct = 0.12

// AspectRatio represents a named aspect ratio
type AspectRatio struct {
	Width  int
	Height int
	Name   string
}

// Label returns the ratio string understood by SuggestCrops.
func (a AspectRatio) Label() string {
	return types.AspectSpec{Numerator: a.Width, Denominator: a.Height}.String()
}

// Common aspect ratios
var (
	Square     = AspectRatio{1, 1, "square"}
	Portrait   = AspectRatio{3, 4, "portrait"}
	Landscape  = AspectRatio{4, 3, "landscape"}
	Widescreen = AspectRatio{16, 9, "widescreen"}
	Instagram  = AspectRatio{4, 5, "instagram"}
	Story      = AspectRatio{9, 16, "story"}
)

// CommonAspectRatios returns a list of commonly used aspect ratios
func CommonAspectRatios() []AspectRatio {
	return []AspectRatio{Square, Portrait, Landscape, Widescreen, Instagram, Story}
}

// CommonLabels returns the ratio strings of CommonAspectRatios.
func CommonLabels() []string {
	ratios := CommonAspectRatios()
	labels := make([]string, len(ratios))
	for i, r := range ratios {
		labels[i] = r.Label()
	}
	return labels
}

// Options configure SuggestCrops.
type Options struct {
	Detect detection.Options
	PadPct float64
}

// DefaultOptions returns the composer defaults.
func DefaultOptions() Options {
	return Options{Detect: detection.DefaultOptions(), PadPct: DefaultPadPct}
}

// Detector finds the focus of an image.
type Detector interface {
	Detect(ctx context.Context, ref types.ImageRef, opts detection.Options) *types.Focus
}

// Composer turns a detected focus into one crop per requested ratio
type Composer struct {
	detector Detector
}

// New creates a new Composer
func New(detector Detector) *Composer {
	return &Composer{detector: detector}
}

// SuggestCrops detects the focus once and returns one suggestion per ratio,
// in request order. It returns nil when the image is unreadable.
func (c *Composer) SuggestCrops(ctx context.Context, ref types.ImageRef, ratios []string, opts Options) []types.Suggestion {
	focus := c.detector.Detect(ctx, ref, opts.Detect)
	if focus == nil {
		return nil
	}
	return Compose(*focus, ratios, opts.PadPct)
}

// Compose builds suggestions for an already detected focus.
func Compose(focus types.Focus, ratios []string, padPct float64) []types.Suggestion {
	out := make([]types.Suggestion, 0, len(ratios))
	for _, ratio := range ratios {
		aspect, ok := types.ParseAspect(ratio)
		if !ok {
			klog.V(1).Infof("ratio %q is not N:M, treating as %s", ratio, types.FreeLabel)
		}
		out = append(out, types.Suggestion{
			Aspect: aspect.String(),
			Focus:  focus.Rect,
			Crop:   CropForRatio(focus.Rect, focus.ImageSize, aspect, padPct),
			Method: focus.Method,
		})
	}
	return out
}

// CropForRatio pads the focus, fits it to the aspect and keeps it inside the
// image. A free aspect returns the padded focus.
func CropForRatio(focus types.Rect, size types.ImageSize, aspect types.AspectSpec, padPct float64) types.Rect {
	imgW, imgH := float64(size.W), float64(size.H)
	padded := focus.Pad(padPct).Intersect(types.BoundsOf(imgW, imgH))
	if padded.Empty() {
		padded = focus.ClampInside(imgW, imgH)
	}
	if aspect.IsFree() {
		return padded
	}
	return padded.FitAspect(aspect.Ratio(), imgW, imgH)
}
