package processing

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/menta2k/autocrop/pkg/client"
	"github.com/menta2k/autocrop/pkg/types"
)

// createTestImage creates a simple test image with a bright central subject
func createTestImage(width, height int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if x > width/3 && x < 2*width/3 && y > height/3 && y < 2*height/3 {
				img.Set(x, y, color.RGBA{255, 255, 255, 255})
			} else {
				img.Set(x, y, color.RGBA{64, 64, 64, 255})
			}
		}
	}
	return img
}

func writeTestPNG(t *testing.T, dir string, width, height int) types.ImageRef {
	t.Helper()
	path := filepath.Join(dir, "source.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	defer f.Close()
	if err := png.Encode(f, createTestImage(width, height)); err != nil {
		t.Fatalf("encode: %v", err)
	}
	return types.ImageRef(path)
}

func TestManipulateCropAndResize(t *testing.T) {
	dir := t.TempDir()
	src := writeTestPNG(t, dir, 400, 300)
	p := NewProcessor(filepath.Join(dir, "out"))

	out, err := p.Manipulate(context.Background(), src, []client.Op{
		client.CropOp{X: 100, Y: 50, Width: 200, Height: 200},
		client.ResizeOp{Width: 50},
	}, types.ProcessingOptions{Format: "png"})
	if err != nil {
		t.Fatalf("Manipulate failed: %v", err)
	}
	if !strings.HasPrefix(string(out), p.OutputDir()) || filepath.Ext(string(out)) != ".png" {
		t.Errorf("Unexpected output path %s", out)
	}

	img, err := p.LoadImage(string(out))
	if err != nil {
		t.Fatalf("LoadImage failed: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 50 || b.Dy() != 50 {
		t.Errorf("Expected 50x50, got %dx%d", b.Dx(), b.Dy())
	}

	// Source untouched
	orig, err := p.LoadImage(string(src))
	if err != nil {
		t.Fatalf("LoadImage source failed: %v", err)
	}
	if b := orig.Bounds(); b.Dx() != 400 || b.Dy() != 300 {
		t.Errorf("Source modified: %dx%d", b.Dx(), b.Dy())
	}
}

func TestManipulateUniqueOutputs(t *testing.T) {
	dir := t.TempDir()
	src := writeTestPNG(t, dir, 64, 64)
	p := NewProcessor(dir)
	ops := []client.Op{client.CropOp{X: 0, Y: 0, Width: 32, Height: 32}}

	a, err := p.Manipulate(context.Background(), src, ops, types.ProcessingOptions{Quality: 0.8})
	if err != nil {
		t.Fatalf("Manipulate failed: %v", err)
	}
	b, err := p.Manipulate(context.Background(), src, ops, types.ProcessingOptions{Quality: 0.8})
	if err != nil {
		t.Fatalf("Manipulate failed: %v", err)
	}
	if a == b {
		t.Errorf("Expected distinct output handles, got %s twice", a)
	}
	if filepath.Ext(string(a)) != ".jpg" {
		t.Errorf("Expected jpg default, got %s", a)
	}
}

func TestManipulateWebP(t *testing.T) {
	dir := t.TempDir()
	src := writeTestPNG(t, dir, 80, 60)
	p := NewProcessor(dir)

	out, err := p.Manipulate(context.Background(), src, []client.Op{client.CropOp{X: 10, Y: 10, Width: 40, Height: 30}},
		types.ProcessingOptions{Format: "webp", Quality: 0.9})
	if err != nil {
		t.Fatalf("Manipulate failed: %v", err)
	}
	img, err := p.LoadImage(string(out))
	if err != nil {
		t.Fatalf("LoadImage webp failed: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 40 || b.Dy() != 30 {
		t.Errorf("Expected 40x30, got %dx%d", b.Dx(), b.Dy())
	}
}

func TestManipulateErrors(t *testing.T) {
	dir := t.TempDir()
	src := writeTestPNG(t, dir, 50, 50)
	p := NewProcessor(dir)

	_, err := p.Manipulate(context.Background(), src, []client.Op{client.CropOp{X: 100, Y: 100, Width: 10, Height: 10}}, types.ProcessingOptions{})
	if !errors.Is(err, types.ErrEmptyCrop) {
		t.Errorf("Expected ErrEmptyCrop, got %v", err)
	}

	if _, err := p.Manipulate(context.Background(), types.ImageRef(filepath.Join(dir, "missing.png")), nil, types.ProcessingOptions{}); err == nil {
		t.Error("Expected error for missing source")
	}
}

func TestQualityPercent(t *testing.T) {
	tests := map[float64]int{0: 90, 0.9: 90, 1: 100, 2: 100, 0.5: 50}
	for in, want := range tests {
		if got := QualityPercent(in); got != want {
			t.Errorf("QualityPercent(%v) = %d, want %d", in, got, want)
		}
	}
}

func TestCreateDebugOverlay(t *testing.T) {
	p := NewProcessor(t.TempDir())
	img := createTestImage(100, 100)
	focus := types.Rect{X: 20, Y: 20, Width: 40, Height: 40}
	crop := types.Rect{X: 10, Y: 10, Width: 80, Height: 80}
	guide := []GuideLine{{From: types.Point{X: 0, Y: 0}, To: types.Point{X: 99, Y: 99}}}

	out := p.CreateDebugOverlay(img, focus, crop, guide)
	if out.Bounds() != img.Bounds() {
		t.Fatalf("Expected same bounds, got %v", out.Bounds())
	}

	// Diagonal guide pixel
	if r, g, b, _ := out.At(5, 5).RGBA(); r>>8 != 0 || g>>8 != 170 || b>>8 != 255 {
		t.Errorf("Expected guide color at (5,5), got %d,%d,%d", r>>8, g>>8, b>>8)
	}
	// Focus outline pixel
	if _, g, _, _ := out.At(20, 30).RGBA(); g>>8 != 255 {
		t.Errorf("Expected focus outline at (20,30)")
	}
}
