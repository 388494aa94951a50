package detector

import (
	"context"
	"log/slog"
	"sync"

	"github.com/quadra-ocr/quadra/internal/geometry"
	"github.com/quadra-ocr/quadra/internal/mempool"
)

// DetectedBox is one detected text region: an oriented quadrilateral plus
// the masked-mean probability it scored. Coordinates are in whatever space
// the producing stage used; PostProcess emits map coordinates and
// ScaleToOriginal converts to original-image pixels.
type DetectedBox struct {
	Quad       geometry.Quad
	Confidence float64
}

// PostProcess converts a probability map into unordered detected boxes in
// map coordinates:
//  1. threshold to a binary mask
//  2. 8-connected components (capped at cfg.MaxComponents)
//  3. per component: convex hull -> minimum-area rectangle -> score
//     (reject below cfg.BoxScoreThreshold) -> unclip -> clamp -> size filter
//
// Degenerate candidates are dropped silently; a blank map yields an empty
// slice. Components may be processed in parallel (cfg.Workers > 1); each
// writes only its own output slot, so results stay in component order.
func PostProcess(m *ProbabilityMap, cfg Config) []DetectedBox {
	return PostProcessContext(context.Background(), m, cfg)
}

// PostProcessContext is PostProcess with cancellation checked between
// components (sequential mode) or between job dispatches (parallel mode).
func PostProcessContext(ctx context.Context, m *ProbabilityMap, cfg Config) []DetectedBox {
	if m == nil || len(m.Data) == 0 {
		return nil
	}
	mask := binarize(m, cfg.BinaryThreshold)
	defer mempool.PutBool(mask)

	comps := connectedComponents(mask, m.Width, m.Height, cfg.MaxComponents)
	if len(comps) == 0 {
		return nil
	}
	slog.Debug("post-processing components", "count", len(comps), "map_w", m.Width, "map_h", m.Height)

	slots := make([]*DetectedBox, len(comps))
	if cfg.Workers > 1 && len(comps) > 1 {
		processParallel(ctx, m, comps, cfg, slots)
	} else {
		for i := range comps {
			if ctx.Err() != nil {
				break
			}
			if box, ok := processComponent(m, &comps[i], cfg); ok {
				slots[i] = &box
			}
		}
	}

	boxes := make([]DetectedBox, 0, len(comps))
	for _, b := range slots {
		if b != nil {
			boxes = append(boxes, *b)
		}
	}
	return boxes
}

// processParallel fans components out over a bounded worker pool. The
// shared probability map is read-only; each worker writes only its own
// slot, so no synchronization beyond the WaitGroup is needed.
func processParallel(ctx context.Context, m *ProbabilityMap, comps []component, cfg Config, slots []*DetectedBox) {
	jobs := make(chan int, len(comps))
	var wg sync.WaitGroup
	for range cfg.Workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				if box, ok := processComponent(m, &comps[i], cfg); ok {
					slots[i] = &box
				}
			}
		}()
	}
	for i := range comps {
		if ctx.Err() != nil {
			break
		}
		jobs <- i
	}
	close(jobs)
	wg.Wait()
}

// processComponent runs the per-component geometry chain. Returns ok=false
// when the candidate is rejected at any stage.
func processComponent(m *ProbabilityMap, c *component, cfg Config) (DetectedBox, bool) {
	if c.size() < minComponentSize {
		return DetectedBox{}, false
	}
	rect, ok := geometry.MinAreaRect(c.points)
	if !ok {
		return DetectedBox{}, false
	}
	score := scoreQuad(m, rect)
	if score < cfg.BoxScoreThreshold {
		return DetectedBox{}, false
	}
	expanded, ok := geometry.Unclip(rect, cfg.UnclipRatio)
	if !ok {
		return DetectedBox{}, false
	}
	clamped := geometry.ClampToBounds(expanded, m.Width, m.Height)
	if clamped.MinSide() < cfg.MinBoxSide {
		return DetectedBox{}, false
	}
	return DetectedBox{Quad: clamped, Confidence: score}, true
}

// ScaleToOriginal maps boxes from probability-map coordinates into
// original-image pixel coordinates and canonicalizes each quad's vertex
// order (clockwise, top-left first).
func ScaleToOriginal(boxes []DetectedBox, mapW, mapH, origW, origH int) []DetectedBox {
	if mapW == 0 || mapH == 0 {
		return boxes
	}
	sx := float64(origW) / float64(mapW)
	sy := float64(origH) / float64(mapH)
	out := make([]DetectedBox, len(boxes))
	for i, b := range boxes {
		out[i] = DetectedBox{
			Quad:       geometry.OrderClockwise(geometry.ScaleQuad(b.Quad, sx, sy)),
			Confidence: b.Confidence,
		}
	}
	return out
}
