package client

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/menta2k/autocrop/pkg/types"
)

// SimpleTestPrompt for testing if the model can see images
const SimpleTestPrompt = `What do you see in this image? Describe it briefly.`

// FacePrompt asks a vision model for face boxes and eye landmarks.
const FacePrompt = `You are a face locator.

Return JSON only:
{
  "faces": [
    {
      "box": {"x": 0.0, "y": 0.0, "w": 0.0, "h": 0.0},
      "left_eye": {"x": 0.0, "y": 0.0},
      "right_eye": {"x": 0.0, "y": 0.0},
      "confidence": 0.0
    }
  ]
}

HARD RULES
- All coordinates are normalized to [0,1] (NOT pixels).
- One entry per visible human face. The box tightly covers the face.
- Omit left_eye/right_eye when the eye is not clearly visible.
- If there are no faces, return {"faces": []}.
- JSON only. No markdown, no code fences, no comments, no trailing commas.`

var (
	reBlock    = regexp.MustCompile(`(?s)/\*.*?\*/`)
	reLine     = regexp.MustCompile(`(?m)^\s*//.*$`)
	reInline   = regexp.MustCompile(`(?m)//.*$`)
	reTrailing = regexp.MustCompile(`,(\s*[}\]])`)
)

// ParseFaceAnalysis parses the model response. Responses without a JSON
// object yield zero faces rather than an error.
func ParseFaceAnalysis(raw string) (*types.FaceAnalysis, error) {
	raw = SanitizeModelJSON(raw)
	if !strings.HasPrefix(raw, "{") {
		return &types.FaceAnalysis{}, nil
	}

	var result types.FaceAnalysis
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return nil, fmt.Errorf("failed to parse face analysis: %w", err)
	}

	faces := result.Faces[:0]
	for _, f := range result.Faces {
		if !validBox(f.Box) {
			continue
		}
		f.Box = clampBox(f.Box)
		if f.LeftEye != nil && !validPos(*f.LeftEye) {
			f.LeftEye = nil
		}
		if f.RightEye != nil && !validPos(*f.RightEye) {
			f.RightEye = nil
		}
		faces = append(faces, f)
	}
	result.Faces = faces
	return &result, nil
}

// SanitizeModelJSON removes code fences, comments, and trailing commas from JSON response
func SanitizeModelJSON(raw string) string {
	raw = strings.TrimSpace(raw)

	// Strip triple-backtick fences if present
	if strings.HasPrefix(raw, "```") {
		if i := strings.Index(raw, "\n"); i >= 0 {
			raw = raw[i+1:]
		}
		if j := strings.LastIndex(raw, "```"); j >= 0 {
			raw = raw[:j]
		}
	}
	raw = strings.Trim(strings.TrimSpace(raw), "`")

	raw = reBlock.ReplaceAllString(raw, "")
	raw = reLine.ReplaceAllString(raw, "")
	raw = reInline.ReplaceAllString(raw, "")
	raw = reTrailing.ReplaceAllString(raw, "$1")

	// Keep only the outermost {...}
	if start := strings.Index(raw, "{"); start >= 0 {
		if end := strings.LastIndex(raw, "}"); end > start {
			raw = raw[start : end+1]
		}
	}
	return strings.TrimSpace(raw)
}

func validBox(b types.Box) bool {
	for _, v := range []float64{b.X, b.Y, b.W, b.H} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return b.W > 0 && b.H > 0
}

func validPos(p types.NormPos) bool {
	return !math.IsNaN(p.X) && !math.IsInf(p.X, 0) && !math.IsNaN(p.Y) && !math.IsInf(p.Y, 0)
}

func clampBox(b types.Box) types.Box {
	x := types.Clamp(b.X, 0, 1)
	y := types.Clamp(b.Y, 0, 1)
	return types.Box{
		X: x,
		Y: y,
		W: types.Clamp(b.W, 0, 1-x),
		H: types.Clamp(b.H, 0, 1-y),
	}
}
