package client

import (
	"context"

	"github.com/menta2k/autocrop/pkg/types"
)

// VisionClient is a chat-style vision model backend.
type VisionClient interface {
	SimpleQuery(ctx context.Context, model, prompt, imgB64 string) (string, error)
	LocateFaces(ctx context.Context, model, prompt, imgB64 string) (*types.FaceAnalysis, error)
}

// SizeProvider reports the pixel size of an image. An unreadable image
// reports the zero ImageSize or an error.
type SizeProvider interface {
	Size(ctx context.Context, ref types.ImageRef) (types.ImageSize, error)
}

// FaceDetector finds faces and, when available, eye landmarks.
// A nil FaceDetector means the capability is absent.
type FaceDetector interface {
	DetectFaces(ctx context.Context, ref types.ImageRef) ([]types.Face, error)
}

// Op is one step of a manipulation pipeline.
type Op interface {
	isOp()
}

// CropOp cuts the integer rectangle out of the image.
type CropOp struct {
	X, Y, Width, Height int
}

// ResizeOp scales the image to Width, keeping its aspect.
type ResizeOp struct {
	Width int
}

func (CropOp) isOp()   {}
func (ResizeOp) isOp() {}

// Manipulator applies ops to a source image and returns a handle to the result.
// The source is never modified.
type Manipulator interface {
	Manipulate(ctx context.Context, ref types.ImageRef, ops []Op, opts types.ProcessingOptions) (types.ImageRef, error)
}
