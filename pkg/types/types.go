package types

// ImageRef is an opaque handle to an image: a file path or an http(s) URL.
// Outputs produced by the manipulation provider are ImageRefs as well.
type ImageRef string

// Box represents a normalized bounding box with coordinates in [0,1] range
type Box struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// ToRect converts a normalized box to pixel space.
func (b Box) ToRect(size ImageSize) Rect {
	fw, fh := float64(size.W), float64(size.H)
	return Rect{X: b.X * fw, Y: b.Y * fh, Width: b.W * fw, Height: b.H * fh}
}

// ImageSize is the pixel size of an image. The zero value means the image
// could not be read.
type ImageSize struct {
	W int `json:"w"`
	H int `json:"h"`
}

// Unreadable reports whether the size is the unreadable sentinel.
func (s ImageSize) Unreadable() bool {
	return s.W <= 0 || s.H <= 0
}

// DetectionMethod tags how a focus rectangle was derived.
type DetectionMethod int

const (
	Fallback DetectionMethod = iota
	FaceBounds
	EyesWeighted
)

func (m DetectionMethod) String() string {
	switch m {
	case EyesWeighted:
		return "eyes-weighted"
	case FaceBounds:
		return "face-bounds"
	default:
		return "fallback"
	}
}

// MarshalText makes the method readable in JSON reports.
func (m DetectionMethod) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// Face is a single detection from a face detector, in pixel space.
type Face struct {
	BoundingBox Rect   `json:"bounding_box"`
	LeftEye     *Point `json:"left_eye,omitempty"`
	RightEye    *Point `json:"right_eye,omitempty"`
}

// Focus is the rectangle identifying the photographic subject.
type Focus struct {
	Rect      Rect            `json:"rect"`
	Method    DetectionMethod `json:"method"`
	ImageSize ImageSize       `json:"image_size"`
}

// Suggestion is a per-ratio crop derived from a focus.
type Suggestion struct {
	Aspect       string          `json:"aspect"`
	Focus        Rect            `json:"focus"`
	Crop         Rect            `json:"crop"`
	ThumbnailRef ImageRef        `json:"thumbnail_ref,omitempty"`
	Method       DetectionMethod `json:"method"`
}

// BatchItem is one caller-supplied input of a batch.
type BatchItem struct {
	Source ImageRef `json:"source"`
	ID     string   `json:"id,omitempty"`
}

// SortKey is the key batch results are ordered by.
func (i BatchItem) SortKey() string {
	if i.ID != "" {
		return i.ID
	}
	return string(i.Source)
}

// BatchResult is the terminal outcome of one batch item. Exactly one of
// Output and Err is set.
type BatchResult struct {
	Input  BatchItem `json:"input"`
	Output ImageRef  `json:"output,omitempty"`
	Err    error     `json:"-"`
}

// OK reports whether the item succeeded.
func (r BatchResult) OK() bool {
	return r.Err == nil
}

// AnalysisFace is one face as returned by a vision model, normalized to [0,1].
type AnalysisFace struct {
	Box        Box      `json:"box"`
	LeftEye    *NormPos `json:"left_eye,omitempty"`
	RightEye   *NormPos `json:"right_eye,omitempty"`
	Confidence float64  `json:"confidence"`
}

// NormPos is a normalized point.
type NormPos struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// FaceAnalysis contains the face locator output of a vision model
type FaceAnalysis struct {
	Faces []AnalysisFace `json:"faces"`
}

// ProcessingOptions contains options for image output
type ProcessingOptions struct {
	Format   string
	Quality  float64
	Lossless bool
}
