package detection

import (
	"context"
	"math"

	"k8s.io/klog/v2"

	"github.com/menta2k/autocrop/pkg/client"
	"github.com/menta2k/autocrop/pkg/types"
)

const (
	// headFraction scales the face union down to natural head framing.
	headFraction = 0.55
	// facePad is applied to face-derived focus rects regardless of Options.PadPct.
	facePad = 0.18
	// fallbackAspect is the width/height of the heuristic subject box (4:5).
	fallbackAspect = 0.8
	// fallbackLift moves the heuristic box up by this fraction of image height.
	fallbackLift = 0.06
	// minUpwardBias is the smallest upward shift, in pixels, of the eye line.
	minUpwardBias = 8.0
)

// Options tune a single detection.
type Options struct {
	// EyeWeight blends the focus center from the face union (0) towards the eyes (1).
	EyeWeight float64
	// PadPct pads the heuristic fallback focus.
	PadPct float64
}

// DefaultOptions returns the detector defaults.
func DefaultOptions() Options {
	return Options{EyeWeight: 0.55, PadPct: 0.18}
}

// Detector finds the photographic subject of an image
type Detector struct {
	sizes client.SizeProvider
	faces client.FaceDetector
}

// NewDetector creates a detector. faces may be nil when no face detection
// capability is available; every image then takes the heuristic path.
func NewDetector(sizes client.SizeProvider, faces client.FaceDetector) *Detector {
	return &Detector{sizes: sizes, faces: faces}
}

// HasFaceDetector reports whether the face detection capability is present.
func (d *Detector) HasFaceDetector() bool {
	return d.faces != nil
}

// Detect returns the focus of the image, or nil when the image is unreadable.
// Face detection failures never surface; they degrade to the fallback.
func (d *Detector) Detect(ctx context.Context, ref types.ImageRef, opts Options) *types.Focus {
	size, err := d.sizes.Size(ctx, ref)
	if err != nil || size.Unreadable() {
		klog.V(1).Infof("detect %s: unreadable image (%v)", ref, err)
		return nil
	}

	faces := d.detectFaces(ctx, ref)
	focus := Compute(size, faces, opts)
	klog.V(1).Infof("detect %s: %s focus %+v", ref, focus.Method, focus.Rect)
	return &focus
}

func (d *Detector) detectFaces(ctx context.Context, ref types.ImageRef) []types.Face {
	if d.faces == nil {
		return nil
	}
	faces, err := d.faces.DetectFaces(ctx, ref)
	if err != nil {
		klog.Warningf("face detection failed for %s, using fallback: %v", ref, err)
		return nil
	}
	return faces
}

// Compute derives the focus for an image of the given size from detected
// faces. size must be readable.
func Compute(size types.ImageSize, faces []types.Face, opts Options) types.Focus {
	imgW, imgH := float64(size.W), float64(size.H)
	bounds := types.BoundsOf(imgW, imgH)
	faces = usableFaces(faces)

	if len(faces) > 0 {
		base := faceUnion(faces)
		if lm := collectLandmarks(faces); lm.available {
			if r, ok := eyesWeighted(base, lm.eyes, imgW, imgH, opts.EyeWeight); ok {
				return types.Focus{Rect: r, Method: types.EyesWeighted, ImageSize: size}
			}
		}
		if r := base.Pad(facePad).Intersect(bounds); !r.Empty() {
			return types.Focus{Rect: r, Method: types.FaceBounds, ImageSize: size}
		}
	}

	return types.Focus{Rect: fallbackRect(imgW, imgH, opts.PadPct), Method: types.Fallback, ImageSize: size}
}

// landmarks is computed once per detection: either every face has both
// eyes, or landmarks are unavailable for the whole set.
type landmarks struct {
	available bool
	eyes      []types.Point
}

func collectLandmarks(faces []types.Face) landmarks {
	eyes := make([]types.Point, 0, 2*len(faces))
	for _, f := range faces {
		if f.LeftEye == nil || f.RightEye == nil {
			return landmarks{}
		}
		eyes = append(eyes, *f.LeftEye, *f.RightEye)
	}
	return landmarks{available: true, eyes: eyes}
}

func eyesWeighted(base types.Rect, eyes []types.Point, imgW, imgH, weight float64) (types.Rect, bool) {
	eyesRect, ok := pointBounds(eyes)
	if !ok {
		return types.Rect{}, false
	}

	weight = types.Clamp(weight, 0, 1)
	bc, ec := base.Center(), eyesRect.Center()
	upwardBias := math.Max(minUpwardBias, base.Height*0.08)
	center := types.Point{
		X: types.Lerp(bc.X, ec.X, weight),
		Y: types.Lerp(bc.Y, ec.Y-upwardBias, weight),
	}

	r := types.CenteredRect(center, base.Width*headFraction, base.Height*headFraction).
		ClampInside(imgW, imgH).
		Pad(facePad).
		Intersect(types.BoundsOf(imgW, imgH))
	if r.Empty() || !r.Finite() {
		return types.Rect{}, false
	}
	return r, true
}

// pointBounds returns the bounding box of pts; it rejects non-finite input.
func pointBounds(pts []types.Point) (types.Rect, bool) {
	if len(pts) == 0 {
		return types.Rect{}, false
	}
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, p := range pts {
		if !p.Finite() {
			return types.Rect{}, false
		}
		minX, maxX = math.Min(minX, p.X), math.Max(maxX, p.X)
		minY, maxY = math.Min(minY, p.Y), math.Max(maxY, p.Y)
	}
	return types.Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}, true
}

func faceUnion(faces []types.Face) types.Rect {
	u := faces[0].BoundingBox
	for _, f := range faces[1:] {
		u = u.Union(f.BoundingBox)
	}
	return u
}

func usableFaces(faces []types.Face) []types.Face {
	out := make([]types.Face, 0, len(faces))
	for _, f := range faces {
		if f.BoundingBox.Finite() && !f.BoundingBox.Empty() {
			out = append(out, f)
		}
	}
	return out
}

// fallbackRect frames a 4:5 box centered horizontally and lifted slightly
// above the middle, where subjects usually sit.
func fallbackRect(imgW, imgH, padPct float64) types.Rect {
	w := math.Min(imgW*0.7, imgH*fallbackAspect*0.9)
	h := w / fallbackAspect
	r := types.Rect{
		X:      (imgW - w) / 2,
		Y:      (imgH-h)/2 - imgH*fallbackLift,
		Width:  w,
		Height: h,
	}
	bounds := types.BoundsOf(imgW, imgH)
	if padded := r.Pad(padPct).Intersect(bounds); !padded.Empty() {
		return padded
	}
	return r.Intersect(bounds)
}
