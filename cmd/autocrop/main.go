package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"k8s.io/klog/v2"

	"github.com/menta2k/autocrop"
	"github.com/menta2k/autocrop/internal/config"
	"github.com/menta2k/autocrop/internal/utils"
	"github.com/menta2k/autocrop/pkg/analyzer"
	"github.com/menta2k/autocrop/pkg/batch"
	"github.com/menta2k/autocrop/pkg/client"
	"github.com/menta2k/autocrop/pkg/composition"
	"github.com/menta2k/autocrop/pkg/cropper"
	"github.com/menta2k/autocrop/pkg/detection"
	"github.com/menta2k/autocrop/pkg/llamacpp"
	"github.com/menta2k/autocrop/pkg/ollama"
	"github.com/menta2k/autocrop/pkg/processing"
	"github.com/menta2k/autocrop/pkg/thumbnail"
	"github.com/menta2k/autocrop/pkg/types"
)

var (
	inFlag      = flag.String("in", "", "input image path or URL, or a directory for batch mode")
	configFlag  = flag.String("config", "", "config file (default: ~/.config/autocrop/config.json if present)")
	envFlag     = flag.String("env", ".env", "optional env file with AUTOCROP_* variables")
	outFlag     = flag.String("out", "", "output directory")
	backendFlag = flag.String("backend", "", "face detection backend: none|ollama|llamacpp")
	urlFlag     = flag.String("url", "", "backend server URL (defaults: ollama=http://localhost:11434, llamacpp=http://localhost:8080)")
	modelFlag   = flag.String("model", "", "vision model name")
	exifFlag    = flag.Bool("exif", false, "read image sizes with exiftool")
	sendSize    = flag.Int("sendsize", 0, "max long side sent to the model (px), 0=original")

	ratiosFlag  = flag.String("ratios", "", "comma separated ratios for suggestions, e.g. 1:1,4:5,FREE")
	padFlag     = flag.Float64("pad", 0, "padding around the focus before fitting a ratio")
	eyeWeight   = flag.Float64("eye-weight", 0, "blend of focus center towards the eyes (0..1)")
	thumbsFlag  = flag.Bool("thumbs", false, "write a thumbnail per suggestion")
	thumbSize   = flag.Int("thumbsize", 0, "thumbnail width in pixels")
	applyFlag   = flag.Bool("apply", false, "write a full-size crop per suggestion")
	debugFlag   = flag.Bool("debug", false, "write debug overlays per suggestion")
	guideFlag   = flag.String("guide", string(composition.Thirds), "guide drawn on debug overlays: thirds|golden|diagonal|center|eyeline or empty")
	platformArg = flag.String("platform", "", "report caption safe zones for instagram|tiktok|youtube")

	ratioFlag   = flag.String("ratio", "", "batch mode target ratio")
	concurrency = flag.Int("concurrency", 0, "batch mode workers")

	extFlag      = flag.String("ext", "", "output format: jpg|png|webp")
	qualityFlag  = flag.Float64("quality", 0, "output quality (0..1]")
	losslessFlag = flag.Bool("lossless", false, "WebP lossless output")
)

func main() {
	klog.InitFlags(nil)
	flag.Parse()
	defer klog.Flush()

	if *inFlag == "" {
		klog.Exitf("usage: %s -in photo.jpg|URL|dir [-backend none|ollama|llamacpp] [-ratios 1:1,4:5] [-out dir] [-debug]", filepath.Base(os.Args[0]))
	}

	cfg, err := loadConfig()
	if err != nil {
		klog.Exitf("config: %v", err)
	}

	ctx := context.Background()
	processor := processing.NewProcessor(cfg.Output.Dir)

	var sizes client.SizeProvider = analyzer.New(processor)
	if cfg.Backend.UseExif {
		ep, err := analyzer.NewExifProvider(sizes)
		if err != nil {
			klog.Warningf("exiftool unavailable, decoding headers instead: %v", err)
		} else {
			defer ep.Close()
			sizes = ep
		}
	}

	faces := resolveFaces(ctx, cfg, processor)
	ac := autocrop.New(autocrop.Options{
		OutputDir:   cfg.Output.Dir,
		Format:      cfg.Output.Format,
		Lossless:    cfg.Output.Lossless,
		Sizes:       sizes,
		Faces:       faces,
		Manipulator: processor,
	})
	klog.Infof("autocrop %s: face detection %v, output %s", autocrop.Version, ac.HasFaceDetector(), cfg.Output.Dir)

	if utils.DirExists(*inFlag) {
		if failed := runBatch(ctx, ac, cfg, *inFlag); failed > 0 {
			klog.Flush()
			os.Exit(1)
		}
		return
	}
	if err := runSuggest(ctx, ac, cfg, types.ImageRef(*inFlag)); err != nil {
		klog.Exitf("%s: %v", *inFlag, err)
	}
}

// loadConfig layers defaults, the config file, the environment and finally
// explicitly set flags.
func loadConfig() (*config.Config, error) {
	cfg := config.Default()
	path := *configFlag
	if path == "" && utils.FileExists(config.GetConfigPath()) {
		path = config.GetConfigPath()
	}
	if path != "" {
		loaded, err := config.LoadFromFile(path)
		if err != nil {
			return nil, err
		}
		klog.V(1).Infof("loaded config %s", path)
		cfg = loaded
	}
	if err := cfg.ApplyEnv(*envFlag); err != nil {
		return nil, err
	}

	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "out":
			cfg.Output.Dir = *outFlag
		case "backend":
			cfg.Backend.Kind = *backendFlag
		case "url":
			cfg.Backend.URL = *urlFlag
		case "model":
			cfg.Backend.Model = *modelFlag
		case "exif":
			cfg.Backend.UseExif = *exifFlag
		case "sendsize":
			cfg.Backend.SendSize = *sendSize
		case "ratios":
			cfg.Cropper.Ratios = strings.Split(*ratiosFlag, ",")
		case "pad":
			cfg.Cropper.PadPct = *padFlag
			cfg.Batch.PadPct = *padFlag
		case "eye-weight":
			cfg.Detection.EyeWeight = *eyeWeight
			cfg.Batch.EyeWeight = *eyeWeight
		case "thumbsize":
			cfg.Thumbnail.Size = *thumbSize
		case "ratio":
			cfg.Batch.Ratio = *ratioFlag
		case "concurrency":
			cfg.Batch.Concurrency = *concurrency
		case "ext":
			cfg.Output.Format = *extFlag
		case "quality":
			cfg.Output.Quality = *qualityFlag
		case "lossless":
			cfg.Output.Lossless = *losslessFlag
		}
	})
	return cfg, cfg.Validate()
}

// resolveFaces probes the configured backend once. Any failure leaves the
// capability absent so every image uses the heuristic focus.
func resolveFaces(ctx context.Context, cfg *config.Config, loader detection.ImageLoader) client.FaceDetector {
	var (
		vc  client.VisionClient
		err error
	)
	switch cfg.Backend.Kind {
	case config.BackendOllama:
		url := cfg.Backend.URL
		if url == "" {
			url = "http://localhost:11434"
		}
		vc, err = ollama.NewClient(url)
	case config.BackendLlamaCpp:
		vc, err = llamacpp.NewClient(cfg.Backend.URL)
	default:
		return nil
	}
	if err != nil {
		klog.Warningf("%s backend unavailable: %v", cfg.Backend.Kind, err)
		return nil
	}

	vd := detection.NewVisionFaceDetector(vc, loader, detection.VisionConfig{
		Model:    cfg.Backend.Model,
		SendFmt:  cfg.Backend.SendFmt,
		SendSize: cfg.Backend.SendSize,
		SendQ:    cfg.Backend.SendQ,
	})
	return detection.ResolveFaceDetector(ctx, vd)
}

// suggestionReport is one entry of the suggest mode JSON report.
type suggestionReport struct {
	types.Suggestion
	Score     int                    `json:"score"`
	Border    types.Rect             `json:"content_aware_border"`
	SafeZones *composition.SafeZones `json:"safe_zones,omitempty"`
	Output    types.ImageRef         `json:"output,omitempty"`
	Debug     string                 `json:"debug,omitempty"`
}

type report struct {
	Source      types.ImageRef     `json:"source"`
	Size        types.ImageSize    `json:"size"`
	Method      string             `json:"method"`
	Focus       types.Rect         `json:"focus"`
	Suggestions []suggestionReport `json:"suggestions"`
}

func runSuggest(ctx context.Context, ac *autocrop.AutoCrop, cfg *config.Config, ref types.ImageRef) error {
	focus := ac.Detect(ctx, ref, detection.Options{EyeWeight: cfg.Detection.EyeWeight, PadPct: cfg.Detection.PadPct})
	if focus == nil {
		return types.ErrUnreadableImage
	}
	klog.Infof("%s: %dx%d, %s focus %+v", ref, focus.ImageSize.W, focus.ImageSize.H, focus.Method, focus.Rect)

	suggestions := cropper.Compose(*focus, cfg.Cropper.Ratios, cfg.Cropper.PadPct)
	if *thumbsFlag {
		var err error
		suggestions, err = ac.MakeThumbnails(ctx, ref, suggestions, thumbnail.Options{Size: cfg.Thumbnail.Size, Quality: cfg.Thumbnail.Quality})
		if err != nil {
			return err
		}
	}

	imgW, imgH := float64(focus.ImageSize.W), float64(focus.ImageSize.H)
	rep := report{Source: ref, Size: focus.ImageSize, Method: focus.Method.String(), Focus: focus.Rect}
	for i, s := range suggestions {
		aspect, _ := types.ParseAspect(s.Aspect)
		entry := suggestionReport{
			Suggestion: s,
			Score:      composition.Score(s.Focus, s.Crop, imgW, imgH),
			Border:     composition.ContentAwareBorder(s.Focus, imgW, imgH, aspect, composition.DefaultProtection),
		}

		if *platformArg != "" {
			zones, err := composition.SafeTextZones(s.Crop.Width, s.Crop.Height, composition.Platform(*platformArg))
			if err != nil {
				return err
			}
			entry.SafeZones = &zones
		}

		if *applyFlag {
			out, err := ac.ApplyCrop(ctx, ref, s.Crop, cfg.Output.Quality)
			if err != nil {
				return err
			}
			entry.Output = out
		}

		if *debugFlag {
			path, err := writeDebug(ctx, ac, ref, s, i, cfg.Output.Dir)
			if err != nil {
				return err
			}
			entry.Debug = path
		}

		klog.Infof("%-6s crop %+v score %d", s.Aspect, s.Crop, entry.Score)
		rep.Suggestions = append(rep.Suggestions, entry)
	}

	js, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return err
	}
	if err := utils.EnsureDir(cfg.Output.Dir); err != nil {
		return err
	}
	reportPath := utils.GenerateOutputFilename(string(ref), cfg.Output.Dir, "", "_suggestions", "json")
	if err := os.WriteFile(reportPath, js, 0o644); err != nil {
		return err
	}
	klog.Infof("wrote %s", reportPath)
	fmt.Println(string(js))
	return nil
}

func writeDebug(ctx context.Context, ac *autocrop.AutoCrop, ref types.ImageRef, s types.Suggestion, i int, outDir string) (string, error) {
	overlay, err := ac.DebugOverlay(ctx, ref, s, composition.Kind(*guideFlag))
	if err != nil {
		return "", err
	}
	if err := utils.EnsureDir(outDir); err != nil {
		return "", err
	}
	suffix := "_debug_" + strings.ReplaceAll(s.Aspect, ":", "x")
	path := utils.GenerateOutputFilename(string(ref), outDir, fmt.Sprintf("%02d_", i+1), suffix, "png")
	if err := ac.Processor().SaveImage(overlay, path, "png", 100, false); err != nil {
		return "", fmt.Errorf("debug save %s failed: %w", path, err)
	}
	return path, nil
}

type batchEntry struct {
	Source types.ImageRef `json:"source"`
	ID     string         `json:"id,omitempty"`
	Output types.ImageRef `json:"output,omitempty"`
	Error  string         `json:"error,omitempty"`
}

// runBatch crops every image under dir and returns the number of failures.
func runBatch(ctx context.Context, ac *autocrop.AutoCrop, cfg *config.Config, dir string) int {
	files, err := utils.ListImageFiles(dir)
	if err != nil {
		klog.Exitf("list %s: %v", dir, err)
	}
	if len(files) == 0 {
		klog.Warningf("no images found under %s", dir)
		return 0
	}

	items := make([]types.BatchItem, len(files))
	for i, f := range files {
		id, err := filepath.Rel(dir, f)
		if err != nil {
			id = f
		}
		items[i] = types.BatchItem{Source: types.ImageRef(f), ID: id}
	}

	klog.Infof("batch: %d images, ratio %s, %d workers", len(items), cfg.Batch.Ratio, cfg.Batch.Concurrency)
	results := ac.BatchAutoCrop(ctx, items, cfg.Batch.Ratio, batch.Options{
		EyeWeight:   cfg.Batch.EyeWeight,
		PadPct:      cfg.Batch.PadPct,
		Concurrency: cfg.Batch.Concurrency,
		Quality:     cfg.Output.Quality,
		OnProgress: func(done, total int, r types.BatchResult) {
			klog.Infof("[%d/%d] %s", done, total, r.Input.SortKey())
		},
	})

	failed := 0
	entries := make([]batchEntry, len(results))
	for i, r := range results {
		entries[i] = batchEntry{Source: r.Input.Source, ID: r.Input.ID, Output: r.Output}
		if !r.OK() {
			failed++
			entries[i].Error = r.Err.Error()
		}
	}
	klog.Infof("batch done: %d ok, %d failed", len(results)-failed, failed)

	js, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		klog.Errorf("marshal batch report: %v", err)
		return failed
	}
	if err := utils.EnsureDir(cfg.Output.Dir); err != nil {
		klog.Errorf("%v", err)
		return failed
	}
	reportPath := filepath.Join(cfg.Output.Dir, "batch.json")
	if err := os.WriteFile(reportPath, js, 0o644); err != nil {
		klog.Errorf("write %s: %v", reportPath, err)
		return failed
	}
	klog.Infof("wrote %s", reportPath)
	return failed
}
