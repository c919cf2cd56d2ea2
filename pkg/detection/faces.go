package detection

import (
	"context"
	"fmt"
	"image"

	"k8s.io/klog/v2"

	"github.com/menta2k/autocrop/pkg/client"
	"github.com/menta2k/autocrop/pkg/types"
)

// ImageLoader loads decoded images.
type ImageLoader interface {
	LoadImageSmart(ctx context.Context, ref types.ImageRef) (image.Image, error)
	PrepareImageForModel(img image.Image, format string, maxDim int, quality int) (string, error)
}

// VisionConfig controls how images are sent to the vision model.
type VisionConfig struct {
	Model    string
	SendFmt  string
	SendSize int
	SendQ    int
}

// VisionFaceDetector locates faces with a vision language model.
type VisionFaceDetector struct {
	client client.VisionClient
	loader ImageLoader
	config VisionConfig
}

// NewVisionFaceDetector creates a face detector backed by a vision client
func NewVisionFaceDetector(vc client.VisionClient, loader ImageLoader, config VisionConfig) *VisionFaceDetector {
	if config.SendFmt == "" {
		config.SendFmt = "jpg"
	}
	if config.SendQ <= 0 {
		config.SendQ = 85
	}
	return &VisionFaceDetector{client: vc, loader: loader, config: config}
}

// DetectFaces implements client.FaceDetector.
func (d *VisionFaceDetector) DetectFaces(ctx context.Context, ref types.ImageRef) ([]types.Face, error) {
	img, err := d.loader.LoadImageSmart(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	b := img.Bounds()
	size := types.ImageSize{W: b.Dx(), H: b.Dy()}

	imgB64, err := d.loader.PrepareImageForModel(img, d.config.SendFmt, d.config.SendSize, d.config.SendQ)
	if err != nil {
		return nil, fmt.Errorf("prepare: %w", err)
	}

	analysis, err := d.client.LocateFaces(ctx, d.config.Model, client.FacePrompt, imgB64)
	if err != nil {
		return nil, fmt.Errorf("locate faces: %w", err)
	}

	faces := make([]types.Face, 0, len(analysis.Faces))
	for _, f := range analysis.Faces {
		faces = append(faces, types.Face{
			BoundingBox: f.Box.ToRect(size),
			LeftEye:     toPixel(f.LeftEye, size),
			RightEye:    toPixel(f.RightEye, size),
		})
	}
	klog.V(1).Infof("%s: model found %d face(s)", ref, len(faces))
	return faces, nil
}

// Probe tests if the model can actually see an image.
func (d *VisionFaceDetector) Probe(ctx context.Context) error {
	probe := image.NewRGBA(image.Rect(0, 0, 32, 32))
	imgB64, err := d.loader.PrepareImageForModel(probe, d.config.SendFmt, 0, d.config.SendQ)
	if err != nil {
		return err
	}
	_, err = d.client.SimpleQuery(ctx, d.config.Model, client.SimpleTestPrompt, imgB64)
	return err
}

// ResolveFaceDetector probes the backend once and returns it when it answers.
// It returns nil, meaning the capability is absent, when vd is nil or the
// probe fails. Hosts call this once at startup and share the result.
func ResolveFaceDetector(ctx context.Context, vd *VisionFaceDetector) client.FaceDetector {
	if vd == nil {
		return nil
	}
	if err := vd.Probe(ctx); err != nil {
		klog.Warningf("face detection unavailable, using heuristic framing: %v", err)
		return nil
	}
	klog.Infof("face detection available (model %s)", vd.config.Model)
	return vd
}

func toPixel(p *types.NormPos, size types.ImageSize) *types.Point {
	if p == nil {
		return nil
	}
	return &types.Point{X: p.X * float64(size.W), Y: p.Y * float64(size.H)}
}
