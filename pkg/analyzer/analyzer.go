package analyzer

import (
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"strings"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
	"k8s.io/klog/v2"

	"github.com/menta2k/autocrop/pkg/types"
)

// Opener opens an image source for reading.
type Opener interface {
	Open(ctx context.Context, ref types.ImageRef) (io.ReadCloser, error)
}

// ImageAnalyzer reports image metadata without decoding pixels
type ImageAnalyzer struct {
	opener Opener
	config Config
}

// Config holds configuration for the image analyzer
type Config struct {
	SupportedFormats []string
	MinImageSize     int
}

// New creates a new ImageAnalyzer with default configuration
func New(opener Opener) *ImageAnalyzer {
	return &ImageAnalyzer{
		opener: opener,
		config: Config{
			SupportedFormats: []string{"jpeg", "png", "gif", "webp", "bmp"},
			MinImageSize:     1,
		},
	}
}

// NewWithConfig creates a new ImageAnalyzer with custom configuration
func NewWithConfig(opener Opener, config Config) *ImageAnalyzer {
	return &ImageAnalyzer{opener: opener, config: config}
}

// ImageInfo contains basic image metadata
type ImageInfo struct {
	Width       int
	Height      int
	Format      string
	AspectRatio float64
}

// GetImageInfo reads the header of an image
func (a *ImageAnalyzer) GetImageInfo(ctx context.Context, ref types.ImageRef) (ImageInfo, error) {
	rc, err := a.opener.Open(ctx, ref)
	if err != nil {
		return ImageInfo{}, fmt.Errorf("failed to open image: %w", err)
	}
	defer rc.Close()

	cfg, format, err := image.DecodeConfig(rc)
	if err != nil {
		return ImageInfo{}, fmt.Errorf("failed to decode image header: %w", err)
	}
	if !a.isFormatSupported(format) {
		return ImageInfo{}, fmt.Errorf("unsupported image format: %s", format)
	}

	info := ImageInfo{Width: cfg.Width, Height: cfg.Height, Format: format}
	if cfg.Height > 0 {
		info.AspectRatio = float64(cfg.Width) / float64(cfg.Height)
	}
	return info, nil
}

// Size implements client.SizeProvider. Unreadable, unsupported or too small
// images report the zero size together with the cause.
func (a *ImageAnalyzer) Size(ctx context.Context, ref types.ImageRef) (types.ImageSize, error) {
	info, err := a.GetImageInfo(ctx, ref)
	if err != nil {
		klog.V(1).Infof("size %s: %v", ref, err)
		return types.ImageSize{}, fmt.Errorf("%w: %v", types.ErrUnreadableImage, err)
	}
	if err := a.validate(info); err != nil {
		return types.ImageSize{}, fmt.Errorf("%w: %v", types.ErrUnreadableImage, err)
	}
	return types.ImageSize{W: info.Width, H: info.Height}, nil
}

func (a *ImageAnalyzer) isFormatSupported(format string) bool {
	for _, supported := range a.config.SupportedFormats {
		if strings.EqualFold(format, supported) {
			return true
		}
	}
	return false
}

func (a *ImageAnalyzer) validate(info ImageInfo) error {
	if info.Width < a.config.MinImageSize || info.Height < a.config.MinImageSize {
		return fmt.Errorf("image too small: %dx%d (minimum: %d)",
			info.Width, info.Height, a.config.MinImageSize)
	}
	return nil
}
