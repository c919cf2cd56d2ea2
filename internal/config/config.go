package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"k8s.io/klog/v2"
)

// Backend kinds
const (
	BackendNone     = "none"
	BackendOllama   = "ollama"
	BackendLlamaCpp = "llamacpp"
)

// Config holds the application configuration
type Config struct {
	Detection DetectionConfig `json:"detection"`
	Cropper   CropperConfig   `json:"cropper"`
	Thumbnail ThumbnailConfig `json:"thumbnail"`
	Batch     BatchConfig     `json:"batch"`
	Backend   BackendConfig   `json:"backend"`
	Output    OutputConfig    `json:"output"`
}

// DetectionConfig holds configuration for subject detection
type DetectionConfig struct {
	EyeWeight float64 `json:"eye_weight"`
	PadPct    float64 `json:"pad_pct"`
}

// CropperConfig holds configuration for crop suggestions
type CropperConfig struct {
	PadPct float64  `json:"pad_pct"`
	Ratios []string `json:"ratios"`
}

// ThumbnailConfig holds configuration for suggestion thumbnails
type ThumbnailConfig struct {
	Size    int     `json:"size"`
	Quality float64 `json:"quality"`
}

// BatchConfig holds configuration for directory auto-cropping
type BatchConfig struct {
	EyeWeight   float64 `json:"eye_weight"`
	PadPct      float64 `json:"pad_pct"`
	Concurrency int     `json:"concurrency"`
	Ratio       string  `json:"ratio"`
}

// BackendConfig selects the face detection backend
type BackendConfig struct {
	Kind     string `json:"kind"`
	URL      string `json:"url"`
	Model    string `json:"model"`
	SendSize int    `json:"send_size"`
	SendFmt  string `json:"send_format"`
	SendQ    int    `json:"send_quality"`
	UseExif  bool   `json:"use_exif"`
}

// OutputConfig holds configuration for output generation
type OutputConfig struct {
	Dir      string  `json:"dir"`
	Format   string  `json:"format"`
	Quality  float64 `json:"quality"`
	Lossless bool    `json:"lossless"`
}

// Default returns a configuration with default values
func Default() *Config {
	return &Config{
		Detection: DetectionConfig{
			EyeWeight: 0.55,
			PadPct:    0.18,
		},
		Cropper: CropperConfig{
			PadPct: 0.12,
			Ratios: []string{"1:1", "4:5", "3:4", "16:9", "9:16"},
		},
		Thumbnail: ThumbnailConfig{
			Size:    240,
			Quality: 0.9,
		},
		Batch: BatchConfig{
			EyeWeight:   0.6,
			PadPct:      0.16,
			Concurrency: 2,
			Ratio:       "4:5",
		},
		Backend: BackendConfig{
			Kind:     BackendNone,
			SendSize: 1024,
			SendFmt:  "jpeg",
			SendQ:    90,
		},
		Output: OutputConfig{
			Dir:     "./output",
			Format:  "jpg",
			Quality: 1.0,
		},
	}
}

// LoadFromFile loads configuration from a JSON file. Missing keys keep
// their defaults.
func LoadFromFile(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := Default()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveToFile saves configuration to a JSON file
func (c *Config) SaveToFile(filename string) error {
	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ApplyEnv loads envFiles (default .env) if present and overlays AUTOCROP_*
// variables. Variables already in the environment win over the files.
func (c *Config) ApplyEnv(envFiles ...string) error {
	if err := godotenv.Load(envFiles...); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load env file: %w", err)
		}
		klog.V(2).Infof("no env file loaded: %v", err)
	}

	c.Detection.EyeWeight = getEnvAsFloatOrDefault("AUTOCROP_EYE_WEIGHT", c.Detection.EyeWeight)
	c.Detection.PadPct = getEnvAsFloatOrDefault("AUTOCROP_DETECT_PAD", c.Detection.PadPct)
	c.Cropper.PadPct = getEnvAsFloatOrDefault("AUTOCROP_PAD", c.Cropper.PadPct)
	if v := os.Getenv("AUTOCROP_RATIOS"); v != "" {
		c.Cropper.Ratios = splitList(v)
	}
	c.Thumbnail.Size = getEnvAsIntOrDefault("AUTOCROP_THUMB_SIZE", c.Thumbnail.Size)
	c.Batch.Concurrency = getEnvAsIntOrDefault("AUTOCROP_CONCURRENCY", c.Batch.Concurrency)
	c.Batch.Ratio = getEnvOrDefault("AUTOCROP_BATCH_RATIO", c.Batch.Ratio)
	c.Backend.Kind = getEnvOrDefault("AUTOCROP_BACKEND", c.Backend.Kind)
	c.Backend.URL = getEnvOrDefault("AUTOCROP_BACKEND_URL", c.Backend.URL)
	c.Backend.Model = getEnvOrDefault("AUTOCROP_MODEL", c.Backend.Model)
	c.Backend.UseExif = getEnvAsBoolOrDefault("AUTOCROP_EXIF", c.Backend.UseExif)
	c.Output.Dir = getEnvOrDefault("AUTOCROP_OUTPUT_DIR", c.Output.Dir)
	c.Output.Format = getEnvOrDefault("AUTOCROP_FORMAT", c.Output.Format)
	c.Output.Quality = getEnvAsFloatOrDefault("AUTOCROP_QUALITY", c.Output.Quality)
	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Detection.EyeWeight < 0 || c.Detection.EyeWeight > 1 {
		return fmt.Errorf("detection.eye_weight must be between 0 and 1")
	}

	if c.Batch.EyeWeight < 0 || c.Batch.EyeWeight > 1 {
		return fmt.Errorf("batch.eye_weight must be between 0 and 1")
	}

	for name, pad := range map[string]float64{
		"detection.pad_pct": c.Detection.PadPct,
		"cropper.pad_pct":   c.Cropper.PadPct,
		"batch.pad_pct":     c.Batch.PadPct,
	} {
		if pad < 0 || pad > 1 {
			return fmt.Errorf("%s must be between 0 and 1", name)
		}
	}

	if len(c.Cropper.Ratios) == 0 {
		return fmt.Errorf("cropper.ratios cannot be empty")
	}

	if c.Thumbnail.Size < 1 {
		return fmt.Errorf("thumbnail.size must be positive")
	}

	if c.Batch.Concurrency < 1 {
		return fmt.Errorf("batch.concurrency must be positive")
	}

	switch c.Backend.Kind {
	case BackendNone, BackendOllama, BackendLlamaCpp:
	default:
		return fmt.Errorf("backend.kind must be one of %s, %s, %s", BackendNone, BackendOllama, BackendLlamaCpp)
	}
	if c.Backend.Kind == BackendOllama && c.Backend.Model == "" {
		return fmt.Errorf("backend.model is required for %s", c.Backend.Kind)
	}

	switch strings.ToLower(c.Output.Format) {
	case "jpg", "jpeg", "png", "webp":
	default:
		return fmt.Errorf("output.format must be jpg, png or webp")
	}

	for name, q := range map[string]float64{"thumbnail.quality": c.Thumbnail.Quality, "output.quality": c.Output.Quality} {
		if q < 0 || q > 1 {
			return fmt.Errorf("%s must be between 0 and 1", name)
		}
	}

	return nil
}

// GetConfigPath returns the default configuration file path
func GetConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./config.json"
	}
	return filepath.Join(home, ".config", "autocrop", "config.json")
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
		klog.Warningf("ignoring %s=%q: not an integer", key, value)
	}
	return defaultValue
}

func getEnvAsFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
		klog.Warningf("ignoring %s=%q: not a number", key, value)
	}
	return defaultValue
}

func getEnvAsBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
