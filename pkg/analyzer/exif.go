package analyzer

import (
	"context"
	"fmt"
	"sync"

	"github.com/barasher/go-exiftool"
	"k8s.io/klog/v2"

	"github.com/menta2k/autocrop/pkg/client"
	"github.com/menta2k/autocrop/pkg/types"
)

// ExifProvider reads image sizes with exiftool, which also covers RAW and
// HEIC files the Go decoders cannot parse. Lookups that exiftool cannot
// answer are delegated to the fallback provider.
type ExifProvider struct {
	mu       sync.Mutex // exiftool talks to a single child process
	et       *exiftool.Exiftool
	fallback client.SizeProvider
}

// NewExifProvider starts an exiftool process. It fails when the exiftool
// binary is not installed.
func NewExifProvider(fallback client.SizeProvider) (*ExifProvider, error) {
	et, err := exiftool.NewExiftool()
	if err != nil {
		return nil, fmt.Errorf("exiftool: %w", err)
	}
	return &ExifProvider{et: et, fallback: fallback}, nil
}

// Size implements client.SizeProvider.
func (p *ExifProvider) Size(ctx context.Context, ref types.ImageRef) (types.ImageSize, error) {
	size, err := p.extract(string(ref))
	if err == nil {
		return size, nil
	}
	klog.V(1).Infof("exif size %s: %v", ref, err)
	if p.fallback == nil {
		return types.ImageSize{}, fmt.Errorf("%w: %v", types.ErrUnreadableImage, err)
	}
	return p.fallback.Size(ctx, ref)
}

func (p *ExifProvider) extract(path string) (types.ImageSize, error) {
	p.mu.Lock()
	fis := p.et.ExtractMetadata(path)
	p.mu.Unlock()

	if len(fis) == 0 {
		return types.ImageSize{}, fmt.Errorf("no metadata for %q", path)
	}
	fi := fis[0]
	if fi.Err != nil {
		return types.ImageSize{}, fmt.Errorf("extract fail for %q: %w", path, fi.Err)
	}

	w, err := fi.GetInt("ImageWidth")
	if err != nil {
		return types.ImageSize{}, fmt.Errorf("get ImageWidth: %w", err)
	}
	h, err := fi.GetInt("ImageHeight")
	if err != nil {
		return types.ImageSize{}, fmt.Errorf("get ImageHeight: %w", err)
	}
	if w <= 0 || h <= 0 {
		return types.ImageSize{}, fmt.Errorf("invalid size %dx%d", w, h)
	}
	return types.ImageSize{W: int(w), H: int(h)}, nil
}

// Close stops the exiftool process.
func (p *ExifProvider) Close() error {
	return p.et.Close()
}
