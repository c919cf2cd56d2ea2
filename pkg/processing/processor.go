package processing

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"math"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
	"k8s.io/klog/v2"

	"github.com/menta2k/autocrop/pkg/client"
	"github.com/menta2k/autocrop/pkg/types"
)

// Processor handles image loading, manipulation and encoding
type Processor struct {
	outputDir  string
	httpClient *http.Client
}

// NewProcessor creates a new image processor writing its outputs to outputDir
func NewProcessor(outputDir string) *Processor {
	return &Processor{
		outputDir:  outputDir,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// OutputDir returns the directory outputs are written to
func (p *Processor) OutputDir() string {
	return p.outputDir
}

// Open returns a reader for a file path or http(s) URL
func (p *Processor) Open(ctx context.Context, ref types.ImageRef) (io.ReadCloser, error) {
	source := string(ref)
	if !isURL(source) {
		return os.Open(source)
	}

	parsedURL, err := url.Parse(source)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return nil, fmt.Errorf("unsupported URL scheme: %s (only http and https are supported)", parsedURL.Scheme)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "autocrop/1.0")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download image: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("failed to download image: HTTP %d %s", resp.StatusCode, resp.Status)
	}
	if contentType := resp.Header.Get("Content-Type"); !strings.HasPrefix(contentType, "image/") {
		resp.Body.Close()
		return nil, fmt.Errorf("URL does not point to an image (Content-Type: %s)", contentType)
	}
	return resp.Body, nil
}

// LoadImageSmart loads an image from either a file path or URL
func (p *Processor) LoadImageSmart(ctx context.Context, ref types.ImageRef) (image.Image, error) {
	if !isURL(string(ref)) {
		return p.LoadImage(string(ref))
	}
	rc, err := p.Open(ctx, ref)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}
	return decodeImageFromBytes(data)
}

// LoadImage loads an image from a file path with WebP support
func (p *Processor) LoadImage(path string) (image.Image, error) {
	// No auto-orientation: crop rectangles are in stored pixel space, the
	// same space the size providers report.
	if img, err := imaging.Open(path); err == nil {
		return img, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	img, err := decodeImageFromBytes(data)
	if err != nil {
		return nil, fmt.Errorf("%w for %s", err, path)
	}
	return img, nil
}

// decodeImageFromBytes decodes an image from byte data with WebP support
func decodeImageFromBytes(data []byte) (image.Image, error) {
	if img, _, err := image.Decode(bytes.NewReader(data)); err == nil {
		return img, nil
	}
	if img, err := webp.Decode(bytes.NewReader(data)); err == nil {
		return img, nil
	}
	return nil, fmt.Errorf("image: unknown or unsupported format")
}

// Manipulate applies ops to the source image and writes the result into the
// output directory under a fresh name. The returned ref is the output path.
func (p *Processor) Manipulate(ctx context.Context, ref types.ImageRef, ops []client.Op, opts types.ProcessingOptions) (types.ImageRef, error) {
	img, err := p.LoadImageSmart(ctx, ref)
	if err != nil {
		return "", fmt.Errorf("load: %w", err)
	}

	for _, op := range ops {
		img, err = apply(img, op)
		if err != nil {
			return "", err
		}
	}

	if err := os.MkdirAll(p.outputDir, 0o755); err != nil {
		return "", fmt.Errorf("mkdir: %w", err)
	}

	format := normalizeFormat(opts.Format)
	out := filepath.Join(p.outputDir, fmt.Sprintf("%s_%s.%s", baseName(string(ref)), uuid.NewString(), format))
	if err := p.SaveImage(img, out, format, QualityPercent(opts.Quality), opts.Lossless); err != nil {
		return "", fmt.Errorf("save: %w", err)
	}
	klog.V(1).Infof("wrote %s (%dx%d)", out, img.Bounds().Dx(), img.Bounds().Dy())
	return types.ImageRef(out), nil
}

func apply(img image.Image, op client.Op) (image.Image, error) {
	switch o := op.(type) {
	case client.CropOp:
		b := img.Bounds()
		rect := image.Rect(o.X, o.Y, o.X+o.Width, o.Y+o.Height).Add(b.Min).Intersect(b)
		if rect.Empty() {
			return nil, types.ErrEmptyCrop
		}
		return imaging.Crop(img, rect), nil
	case client.ResizeOp:
		if o.Width <= 0 {
			return nil, fmt.Errorf("invalid resize width %d", o.Width)
		}
		return imaging.Resize(img, o.Width, 0, imaging.Lanczos), nil
	default:
		return nil, fmt.Errorf("unsupported op %T", op)
	}
}

// PrepareImageForModel converts an image to base64 for sending to vision models
func (p *Processor) PrepareImageForModel(img image.Image, format string, maxDim int, quality int) (string, error) {
	if maxDim > 0 {
		b := img.Bounds()
		w, h := b.Dx(), b.Dy()
		if w > maxDim || h > maxDim {
			if w >= h {
				img = imaging.Resize(img, maxDim, 0, imaging.Lanczos)
			} else {
				img = imaging.Resize(img, 0, maxDim, imaging.Lanczos)
			}
		}
	}

	var buf bytes.Buffer
	switch strings.ToLower(format) {
	case "png":
		enc := png.Encoder{CompressionLevel: png.BestCompression}
		if err := enc.Encode(&buf, img); err != nil {
			return "", err
		}
	default: // jpg
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
			return "", err
		}
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// SaveImage saves an image to a file with the specified format and quality
func (p *Processor) SaveImage(img image.Image, path, format string, quality int, lossless bool) error {
	switch normalizeFormat(format) {
	case "webp":
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		opts := &webp.Options{Lossless: lossless, Quality: float32(quality)}
		if err := webp.Encode(f, img, opts); err != nil {
			f.Close()
			return err
		}
		return f.Close()
	case "png":
		return imaging.Save(img, path)
	default: // jpg/jpeg
		return imaging.Save(img, path, imaging.JPEGQuality(quality))
	}
}

// QualityPercent maps a [0,1] quality to the 1..100 encoder scale
func QualityPercent(q float64) int {
	if q <= 0 {
		return 90
	}
	return int(math.Round(types.Clamp(q, 0.01, 1) * 100))
}

func normalizeFormat(format string) string {
	switch strings.ToLower(format) {
	case "png":
		return "png"
	case "webp":
		return "webp"
	default:
		return "jpg"
	}
}

func isURL(source string) bool {
	return strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://")
}

func baseName(source string) string {
	if isURL(source) {
		if u, err := url.Parse(source); err == nil {
			source = u.Path
		}
	}
	base := strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
	if base == "" || base == "." || base == "/" {
		return "image"
	}
	return base
}
