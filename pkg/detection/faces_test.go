package detection

import (
	"context"
	"errors"
	"image"
	"testing"

	"github.com/menta2k/autocrop/pkg/types"
)

type fakeLoader struct {
	w, h int
	err  error
}

func (f fakeLoader) LoadImageSmart(context.Context, types.ImageRef) (image.Image, error) {
	if f.err != nil {
		return nil, f.err
	}
	return image.NewRGBA(image.Rect(0, 0, f.w, f.h)), nil
}

func (f fakeLoader) PrepareImageForModel(image.Image, string, int, int) (string, error) {
	return "aGVsbG8=", nil
}

type fakeVision struct {
	analysis *types.FaceAnalysis
	err      error
	probeErr error
	model    string
}

func (f *fakeVision) SimpleQuery(_ context.Context, model, _, _ string) (string, error) {
	f.model = model
	return "a black square", f.probeErr
}

func (f *fakeVision) LocateFaces(_ context.Context, model, _, _ string) (*types.FaceAnalysis, error) {
	f.model = model
	return f.analysis, f.err
}

func TestVisionFaceDetectorDetectFaces(t *testing.T) {
	vc := &fakeVision{analysis: &types.FaceAnalysis{Faces: []types.AnalysisFace{
		{
			Box:      types.Box{X: 0.25, Y: 0.25, W: 0.5, H: 0.5},
			LeftEye:  &types.NormPos{X: 0.4, Y: 0.4},
			RightEye: &types.NormPos{X: 0.6, Y: 0.4},
		},
		{Box: types.Box{X: 0, Y: 0, W: 0.1, H: 0.1}},
	}}}
	d := NewVisionFaceDetector(vc, fakeLoader{w: 400, h: 200}, VisionConfig{Model: "face-model"})

	faces, err := d.DetectFaces(context.Background(), "x.jpg")
	if err != nil {
		t.Fatalf("DetectFaces failed: %v", err)
	}
	if len(faces) != 2 {
		t.Fatalf("Expected 2 faces, got %d", len(faces))
	}
	if want := (types.Rect{X: 100, Y: 50, Width: 200, Height: 100}); faces[0].BoundingBox != want {
		t.Errorf("Expected %+v, got %+v", want, faces[0].BoundingBox)
	}
	if faces[0].LeftEye == nil || *faces[0].LeftEye != (types.Point{X: 160, Y: 80}) {
		t.Errorf("Unexpected left eye %+v", faces[0].LeftEye)
	}
	if faces[1].LeftEye != nil || faces[1].RightEye != nil {
		t.Error("Expected no landmarks on second face")
	}
	if vc.model != "face-model" {
		t.Errorf("Expected model to be forwarded, got %q", vc.model)
	}
}

func TestVisionFaceDetectorErrors(t *testing.T) {
	d := NewVisionFaceDetector(&fakeVision{err: errors.New("boom")}, fakeLoader{w: 10, h: 10}, VisionConfig{})
	if _, err := d.DetectFaces(context.Background(), "x.jpg"); err == nil {
		t.Error("Expected client error to propagate")
	}

	d = NewVisionFaceDetector(&fakeVision{}, fakeLoader{err: errors.New("no file")}, VisionConfig{})
	if _, err := d.DetectFaces(context.Background(), "x.jpg"); err == nil {
		t.Error("Expected load error to propagate")
	}
}

func TestResolveFaceDetector(t *testing.T) {
	if fd := ResolveFaceDetector(context.Background(), nil); fd != nil {
		t.Error("Expected nil capability for nil backend")
	}

	down := NewVisionFaceDetector(&fakeVision{probeErr: errors.New("connection refused")}, fakeLoader{}, VisionConfig{})
	if fd := ResolveFaceDetector(context.Background(), down); fd != nil {
		t.Error("Expected nil capability when the probe fails")
	}

	up := NewVisionFaceDetector(&fakeVision{}, fakeLoader{}, VisionConfig{})
	if fd := ResolveFaceDetector(context.Background(), up); fd == nil {
		t.Error("Expected capability when the probe succeeds")
	}
}

func TestDetectorWithVisionBackend(t *testing.T) {
	vc := &fakeVision{analysis: &types.FaceAnalysis{Faces: []types.AnalysisFace{
		{Box: types.Box{X: 0.4, Y: 0.3, W: 0.2, H: 0.2}},
	}}}
	fd := NewVisionFaceDetector(vc, fakeLoader{w: 1000, h: 1000}, VisionConfig{})
	d := NewDetector(fakeSizes{size: types.ImageSize{W: 1000, H: 1000}}, fd)

	focus := d.Detect(context.Background(), "x.jpg", DefaultOptions())
	if focus == nil || focus.Method != types.FaceBounds {
		t.Fatalf("Expected face-bounds focus, got %+v", focus)
	}
}
