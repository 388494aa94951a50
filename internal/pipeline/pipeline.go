// Package pipeline wires the detection-geometry stages into the two
// operations the host calls: probability map in, ordered boxes out; and
// boxes plus source image in, recognizer-ready crops out.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"time"

	"github.com/quadra-ocr/quadra/internal/crop"
	"github.com/quadra-ocr/quadra/internal/detector"
)

// Config holds pipeline configuration.
type Config struct {
	Detector detector.Config `mapstructure:"detector" yaml:"detector" json:"detector"`
	// RotateAspect is the crop height/width ratio above which crops are
	// rotated 90 degrees for vertical text lines.
	RotateAspect float64 `mapstructure:"rotate_aspect" yaml:"rotate_aspect" json:"rotate_aspect"`
}

// DefaultConfig returns a pipeline config with component defaults.
func DefaultConfig() Config {
	return Config{
		Detector:     detector.DefaultConfig(),
		RotateAspect: crop.DefaultRotateAspect,
	}
}

// Validate validates the configuration.
func (c Config) Validate() error {
	if err := c.Detector.Validate(); err != nil {
		return err
	}
	if c.RotateAspect <= 0 {
		return fmt.Errorf("invalid rotate aspect: %.2f (must be positive)", c.RotateAspect)
	}
	return nil
}

// Pipeline runs DB detection post-processing and crop extraction. It holds
// no per-call state and is safe for concurrent use.
type Pipeline struct {
	cfg Config
}

// New creates a pipeline with the given configuration.
func New(cfg Config) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid pipeline config: %w", err)
	}
	return &Pipeline{cfg: cfg}, nil
}

// Config returns a copy of the pipeline's configuration.
func (p *Pipeline) Config() Config { return p.cfg }

// Detect converts a probability map into detected boxes in original-image
// coordinates, sorted into reading order. origW/origH are the original
// image dimensions the upstream resize started from; the scale back is
// origW/mapW and origH/mapH. An empty result is a valid outcome for blank
// maps, not an error.
func (p *Pipeline) Detect(ctx context.Context, m *detector.ProbabilityMap, origW, origH int) ([]detector.DetectedBox, error) {
	if m == nil {
		return nil, errors.New("probability map is nil")
	}
	if origW <= 0 || origH <= 0 {
		return nil, fmt.Errorf("invalid original dimensions: %dx%d", origW, origH)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()
	boxes := detector.PostProcessContext(ctx, m, p.cfg.Detector)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	boxes = detector.ScaleToOriginal(boxes, m.Width, m.Height, origW, origH)
	// Line tolerance is specified in map pixels; keep it proportional when
	// scaling up to the original image.
	tol := p.cfg.Detector.LineTolerance * float64(origH) / float64(m.Height)
	boxes = detector.SortBoxes(boxes, tol)
	slog.Debug("detection post-processing completed",
		"boxes", len(boxes), "duration_ms", time.Since(start).Milliseconds())
	return boxes, nil
}

// CropBoxes extracts each detected box from the original image. Degenerate
// quads are skipped, matching the per-candidate error policy of the rest of
// the pipeline; the returned slice holds one entry per successful crop, in
// box order.
func (p *Pipeline) CropBoxes(ctx context.Context, img image.Image, boxes []detector.DetectedBox) ([]crop.Result, error) {
	if img == nil {
		return nil, errors.New("input image is nil")
	}
	results := make([]crop.Result, 0, len(boxes))
	for _, b := range boxes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		res, err := crop.Extract(img, b.Quad, p.cfg.RotateAspect)
		if err != nil {
			slog.Debug("skipping crop", "reason", err)
			continue
		}
		results = append(results, res)
	}
	return results, nil
}
