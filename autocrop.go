// Package autocrop finds the photographic subject of an image and suggests
// crops for any set of aspect ratios that keep it well framed.
//
// Basic usage:
//
//	package main
//
//	import (
//		"context"
//		"fmt"
//		"log"
//
//		"github.com/menta2k/autocrop"
//		"github.com/menta2k/autocrop/pkg/cropper"
//	)
//
//	func main() {
//		ctx := context.Background()
//		ac := autocrop.New(autocrop.Options{OutputDir: "./out"})
//
//		suggestions := ac.SuggestCrops(ctx, "photo.jpg", []string{"1:1", "4:5"}, cropper.DefaultOptions())
//		for _, s := range suggestions {
//			fmt.Printf("%s: %+v (%s)\n", s.Aspect, s.Crop, s.Method)
//		}
//
//		out, err := ac.ApplyCrop(ctx, "photo.jpg", suggestions[0].Crop, 0)
//		if err != nil {
//			log.Fatal(err)
//		}
//		fmt.Println("saved", out)
//	}
//
// The package wires together:
//
//  1. Detection (pkg/detection): eyes-weighted, face-bounds or heuristic focus
//  2. Cropper (pkg/cropper): one crop per ratio around the focus
//  3. Thumbnail (pkg/thumbnail): renders crops through pkg/processing
//  4. Batch (pkg/batch): bounded worker pool over many images
//  5. Composition (pkg/composition): guides and a framing score
//
// Face detection is optional. Without a face detector every image gets the
// heuristic focus.
package autocrop

import (
	"context"
	"fmt"
	"image"

	"github.com/menta2k/autocrop/pkg/analyzer"
	"github.com/menta2k/autocrop/pkg/batch"
	"github.com/menta2k/autocrop/pkg/client"
	"github.com/menta2k/autocrop/pkg/composition"
	"github.com/menta2k/autocrop/pkg/cropper"
	"github.com/menta2k/autocrop/pkg/detection"
	"github.com/menta2k/autocrop/pkg/processing"
	"github.com/menta2k/autocrop/pkg/thumbnail"
	"github.com/menta2k/autocrop/pkg/types"
)

// Version of the autocrop library
const Version = "2.0.0"

// Options configure an AutoCrop. Nil collaborators get the local defaults.
type Options struct {
	// OutputDir receives thumbnails and crops.
	OutputDir string
	// Format of written images: jpg, png or webp.
	Format   string
	Lossless bool

	// Sizes overrides the metadata provider (e.g. analyzer.ExifProvider).
	Sizes client.SizeProvider
	// Faces is the optional face detection capability.
	Faces client.FaceDetector
	// Manipulator overrides the local image processor.
	Manipulator client.Manipulator
}

// AutoCrop provides a high-level interface for subject-aware cropping
type AutoCrop struct {
	processor *processing.Processor
	detector  *detection.Detector
	composer  *cropper.Composer
	adapter   *thumbnail.Adapter
	batch     *batch.Processor
}

// New creates an AutoCrop from opts
func New(opts Options) *AutoCrop {
	outputDir := opts.OutputDir
	if outputDir == "" {
		outputDir = "./output"
	}
	processor := processing.NewProcessor(outputDir)

	sizes := opts.Sizes
	if sizes == nil {
		sizes = analyzer.New(processor)
	}
	var manipulator client.Manipulator = processor
	if opts.Manipulator != nil {
		manipulator = opts.Manipulator
	}

	detector := detection.NewDetector(sizes, opts.Faces)
	composer := cropper.New(detector)
	adapter := thumbnail.New(manipulator, opts.Format, opts.Lossless)

	return &AutoCrop{
		processor: processor,
		detector:  detector,
		composer:  composer,
		adapter:   adapter,
		batch:     batch.NewProcessor(composer, adapter),
	}
}

// Processor returns the local image processor used for loading and overlays.
func (a *AutoCrop) Processor() *processing.Processor {
	return a.processor
}

// HasFaceDetector reports whether faces are detected or every image falls back.
func (a *AutoCrop) HasFaceDetector() bool {
	return a.detector.HasFaceDetector()
}

// Detect returns the focus of an image, or nil when it is unreadable.
func (a *AutoCrop) Detect(ctx context.Context, ref types.ImageRef, opts detection.Options) *types.Focus {
	return a.detector.Detect(ctx, ref, opts)
}

// SuggestCrops returns one suggestion per ratio, in order. An unreadable
// image yields no suggestions.
func (a *AutoCrop) SuggestCrops(ctx context.Context, ref types.ImageRef, ratios []string, opts cropper.Options) []types.Suggestion {
	return a.composer.SuggestCrops(ctx, ref, ratios, opts)
}

// MakeThumbnails renders each suggestion; the first failure is returned.
func (a *AutoCrop) MakeThumbnails(ctx context.Context, ref types.ImageRef, suggestions []types.Suggestion, opts thumbnail.Options) ([]types.Suggestion, error) {
	return a.adapter.MakeThumbnails(ctx, ref, suggestions, opts)
}

// ApplyCrop writes the crop of ref and returns the new image.
func (a *AutoCrop) ApplyCrop(ctx context.Context, ref types.ImageRef, rect types.Rect, quality float64) (types.ImageRef, error) {
	return a.adapter.ApplyCrop(ctx, ref, rect, quality)
}

// BatchAutoCrop crops every item to ratio concurrently. Results are sorted
// by item ID, or source when the ID is empty.
func (a *AutoCrop) BatchAutoCrop(ctx context.Context, items []types.BatchItem, ratio string, opts batch.Options) []types.BatchResult {
	return a.batch.Run(ctx, items, ratio, opts)
}

// DebugOverlay draws the suggestion's focus and crop over the source image,
// with the guide of the given kind laid inside the crop. An empty kind draws
// no guide.
func (a *AutoCrop) DebugOverlay(ctx context.Context, ref types.ImageRef, s types.Suggestion, kind composition.Kind) (image.Image, error) {
	img, err := a.processor.LoadImageSmart(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("failed to load image: %w", err)
	}

	var lines []processing.GuideLine
	if kind != "" {
		g, err := composition.ForKind(kind, s.Crop.Width, s.Crop.Height)
		if err != nil {
			return nil, err
		}
		for _, l := range g.Translate(s.Crop.X, s.Crop.Y).Lines {
			lines = append(lines, processing.GuideLine{From: l.From, To: l.To})
		}
	}
	return a.processor.CreateDebugOverlay(img, s.Focus, s.Crop, lines), nil
}

// Guides returns the composition guide of kind for a w×h container.
func Guides(kind composition.Kind, w, h float64) (composition.Guide, error) {
	return composition.ForKind(kind, w, h)
}

// Score rates how well crop frames focus in a w×h image, from 0 to 100.
func Score(focus, crop types.Rect, imgW, imgH float64) int {
	return composition.Score(focus, crop, imgW, imgH)
}
