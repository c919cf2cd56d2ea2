// Package thumbnail renders crop suggestions through an image manipulator.
// Unlike detection, every manipulator failure is returned to the caller.
package thumbnail

import (
	"context"

	"k8s.io/klog/v2"

	"github.com/menta2k/autocrop/pkg/client"
	"github.com/menta2k/autocrop/pkg/types"
)

const (
	// DefaultSize is the thumbnail width in pixels.
	DefaultSize = 240
	// DefaultQuality is the thumbnail encoding quality.
	DefaultQuality = 0.9
	// ApplyQuality is the encoding quality of a full-size crop.
	ApplyQuality = 1.0
)

// Options configure MakeThumbnails.
type Options struct {
	Size    int
	Quality float64
}

// DefaultOptions returns the thumbnail defaults.
func DefaultOptions() Options {
	return Options{Size: DefaultSize, Quality: DefaultQuality}
}

// Adapter turns crop rectangles into manipulator calls
type Adapter struct {
	m        client.Manipulator
	format   string
	lossless bool
}

// New creates an adapter encoding to format ("" keeps the processor default).
func New(m client.Manipulator, format string, lossless bool) *Adapter {
	return &Adapter{m: m, format: format, lossless: lossless}
}

// MakeThumbnails crops and resizes every suggestion and returns copies with
// ThumbnailRef set. The first failure aborts and is returned as is.
func (a *Adapter) MakeThumbnails(ctx context.Context, ref types.ImageRef, suggestions []types.Suggestion, opts Options) ([]types.Suggestion, error) {
	if opts.Size <= 0 {
		opts.Size = DefaultSize
	}
	if opts.Quality <= 0 {
		opts.Quality = DefaultQuality
	}

	out := make([]types.Suggestion, len(suggestions))
	for i, s := range suggestions {
		ops := []client.Op{cropOp(s.Crop), client.ResizeOp{Width: opts.Size}}
		thumb, err := a.m.Manipulate(ctx, ref, ops, a.processing(opts.Quality))
		if err != nil {
			return nil, &types.ManipulationError{Op: "thumbnail " + s.Aspect, Ref: ref, Err: err}
		}
		klog.V(2).Infof("thumbnail %s %s -> %s", ref, s.Aspect, thumb)
		s.ThumbnailRef = thumb
		out[i] = s
	}
	return out, nil
}

// ApplyCrop writes the rounded crop of ref to a new image. quality <= 0
// selects ApplyQuality.
func (a *Adapter) ApplyCrop(ctx context.Context, ref types.ImageRef, rect types.Rect, quality float64) (types.ImageRef, error) {
	if quality <= 0 {
		quality = ApplyQuality
	}
	out, err := a.m.Manipulate(ctx, ref, []client.Op{cropOp(rect)}, a.processing(quality))
	if err != nil {
		return "", &types.ManipulationError{Op: "crop", Ref: ref, Err: err}
	}
	return out, nil
}

func (a *Adapter) processing(quality float64) types.ProcessingOptions {
	return types.ProcessingOptions{Format: a.format, Quality: quality, Lossless: a.lossless}
}

func cropOp(r types.Rect) client.CropOp {
	r = r.Round()
	return client.CropOp{X: int(r.X), Y: int(r.Y), Width: int(r.Width), Height: int(r.Height)}
}
