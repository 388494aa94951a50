package pipeline

import (
	"github.com/quadra-ocr/quadra/internal/crop"
	"github.com/quadra-ocr/quadra/internal/detector"
)

// RecognizedText is what the downstream recognizer returns for one crop.
// This pipeline never interprets it.
type RecognizedText struct {
	Text            string
	Confidence      float64
	CharConfidences []float64
}

// Recognizer is the out-of-process boundary to the CTC text recognizer.
// Implementations receive recognizer-ready crops and return decoded text.
type Recognizer interface {
	Recognize(crop.Result) (RecognizedText, error)
}

// BoxResult is the JSON-friendly form of one detected box.
type BoxResult struct {
	Points     [4]PointResult `json:"points"`
	Confidence float64        `json:"confidence"`
}

// PointResult is a JSON-friendly 2D point.
type PointResult struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// DetectionOutput is the serializable result of one Detect call.
type DetectionOutput struct {
	Width  int         `json:"width"`
	Height int         `json:"height"`
	Boxes  []BoxResult `json:"boxes"`
}

// NewDetectionOutput converts detected boxes for serialization.
func NewDetectionOutput(boxes []detector.DetectedBox, width, height int) DetectionOutput {
	out := DetectionOutput{Width: width, Height: height, Boxes: make([]BoxResult, len(boxes))}
	for i, b := range boxes {
		br := BoxResult{Confidence: b.Confidence}
		for j, p := range b.Quad {
			br.Points[j] = PointResult{X: p.X, Y: p.Y}
		}
		out.Boxes[i] = br
	}
	return out
}
