package detector

import (
	"context"
	"math"
	"testing"

	"github.com/quadra-ocr/quadra/internal/geometry"
	"github.com/quadra-ocr/quadra/internal/testutil"
)

func mapFromProbs(t *testing.T, data []float32, w, h int) *ProbabilityMap {
	t.Helper()
	m, err := NewProbabilityMap(data, w, h)
	if err != nil {
		t.Fatal(err)
	}
	return m
}

// longEdgeAngle returns the orientation of the quad's longest edge in
// degrees, normalized to [0, 180).
func longEdgeAngle(q geometry.Quad) float64 {
	var bestDX, bestDY, bestLen float64
	for i := range q {
		j := (i + 1) % 4
		dx, dy := q[j].X-q[i].X, q[j].Y-q[i].Y
		if l := math.Hypot(dx, dy); l > bestLen {
			bestDX, bestDY, bestLen = dx, dy, l
		}
	}
	return math.Mod(math.Atan2(bestDY, bestDX)*180/math.Pi+180, 180)
}

func TestPostProcess_BlankMap(t *testing.T) {
	m := mapFromProbs(t, make([]float32, 64*64), 64, 64)

	boxes := PostProcess(m, DefaultConfig())

	if len(boxes) != 0 {
		t.Errorf("expected no boxes, got %d", len(boxes))
	}
}

func TestPostProcess_NilMap(t *testing.T) {
	if boxes := PostProcess(nil, DefaultConfig()); boxes != nil {
		t.Errorf("expected nil for nil map, got %v", boxes)
	}
}

func TestPostProcess_SingleRegion(t *testing.T) {
	data := testutil.UniformProbs(64, 64, 0)
	testutil.FillRect(data, 64, 64, 8, 24, 40, 36, 0.9)
	m := mapFromProbs(t, data, 64, 64)

	boxes := PostProcess(m, DefaultConfig())

	if len(boxes) != 1 {
		t.Fatalf("expected 1 box, got %d", len(boxes))
	}
	box := boxes[0]
	if box.Confidence < 0.85 {
		t.Errorf("expected confidence near 0.9, got %f", box.Confidence)
	}
	// Unclip grows the tight rectangle; the region must stay covered and
	// the clamp must keep every vertex inside the map.
	b := box.Quad.Bounds()
	if b.MinX > 8 || b.MinY > 24 || b.MaxX < 39 || b.MaxY < 35 {
		t.Errorf("box %+v does not cover the region", b)
	}
	for _, p := range box.Quad {
		if p.X < 0 || p.X > 63 || p.Y < 0 || p.Y > 63 {
			t.Errorf("vertex %v outside map bounds", p)
		}
	}
}

func TestPostProcess_RotatedBand(t *testing.T) {
	const angle = 30.0
	data := testutil.UniformProbs(200, 200, 0)
	testutil.FillRotatedBand(data, 200, 200, 100, 100, 120, 16, angle, 0.9)
	m := mapFromProbs(t, data, 200, 200)

	boxes := PostProcess(m, DefaultConfig())

	if len(boxes) != 1 {
		t.Fatalf("expected 1 box, got %d", len(boxes))
	}
	got := longEdgeAngle(boxes[0].Quad)
	if math.Abs(got-angle) > 5 {
		t.Errorf("expected orientation ~%v degrees, got %f", angle, got)
	}
}

func TestPostProcess_TinyNoiseRejected(t *testing.T) {
	// A 2x2 blob survives the component-size check but its expanded
	// rectangle is far below the minimum side length.
	data := testutil.UniformProbs(50, 50, 0)
	testutil.FillRect(data, 50, 50, 20, 20, 22, 22, 1.0)
	m := mapFromProbs(t, data, 50, 50)

	boxes := PostProcess(m, DefaultConfig())

	if len(boxes) != 0 {
		t.Errorf("expected 2x2 noise to be rejected, got %d boxes", len(boxes))
	}
}

func TestPostProcess_IsolatedPixelsRejected(t *testing.T) {
	data := testutil.UniformProbs(40, 40, 0)
	testutil.SpecklePixels(data, 40, 1.0, [2]int{5, 5}, [2]int{20, 8}, [2]int{33, 30})
	m := mapFromProbs(t, data, 40, 40)

	boxes := PostProcess(m, DefaultConfig())

	if len(boxes) != 0 {
		t.Errorf("expected isolated pixels to be rejected, got %d boxes", len(boxes))
	}
}

func TestPostProcess_LowScoreRejected(t *testing.T) {
	// Above the binarization threshold but below the box score threshold.
	data := testutil.UniformProbs(64, 64, 0)
	testutil.FillRect(data, 64, 64, 10, 10, 40, 30, 0.4)
	m := mapFromProbs(t, data, 64, 64)

	boxes := PostProcess(m, DefaultConfig())

	if len(boxes) != 0 {
		t.Errorf("expected low-score region to be rejected, got %d boxes", len(boxes))
	}
}

func TestPostProcess_TwoRegions(t *testing.T) {
	data := testutil.UniformProbs(100, 40, 0)
	testutil.FillRect(data, 100, 40, 5, 10, 35, 22, 0.95)
	testutil.FillRect(data, 100, 40, 55, 12, 85, 24, 0.95)
	m := mapFromProbs(t, data, 100, 40)

	boxes := PostProcess(m, DefaultConfig())

	if len(boxes) != 2 {
		t.Fatalf("expected 2 boxes, got %d", len(boxes))
	}
}

func TestPostProcess_ParallelMatchesSequential(t *testing.T) {
	data := testutil.UniformProbs(120, 80, 0)
	testutil.FillRect(data, 120, 80, 5, 5, 45, 20, 0.9)
	testutil.FillRect(data, 120, 80, 60, 8, 110, 24, 0.9)
	testutil.FillRect(data, 120, 80, 10, 40, 60, 60, 0.9)
	m := mapFromProbs(t, data, 120, 80)

	seqCfg := DefaultConfig()
	parCfg := DefaultConfig()
	parCfg.Workers = 4

	seq := PostProcess(m, seqCfg)
	par := PostProcess(m, parCfg)

	if len(seq) != len(par) {
		t.Fatalf("sequential found %d boxes, parallel found %d", len(seq), len(par))
	}
	for i := range seq {
		if seq[i].Quad != par[i].Quad || seq[i].Confidence != par[i].Confidence {
			t.Errorf("box %d differs: %+v vs %+v", i, seq[i], par[i])
		}
	}
}

func TestPostProcessContext_Cancelled(t *testing.T) {
	data := testutil.UniformProbs(64, 64, 0)
	testutil.FillRect(data, 64, 64, 8, 8, 50, 30, 0.9)
	m := mapFromProbs(t, data, 64, 64)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	boxes := PostProcessContext(ctx, m, DefaultConfig())

	if len(boxes) != 0 {
		t.Errorf("expected no boxes after cancellation, got %d", len(boxes))
	}
}

func TestScaleToOriginal(t *testing.T) {
	boxes := []DetectedBox{{
		Quad:       geometry.Quad{{X: 10, Y: 5}, {X: 30, Y: 5}, {X: 30, Y: 15}, {X: 10, Y: 15}},
		Confidence: 0.9,
	}}

	scaled := ScaleToOriginal(boxes, 100, 50, 200, 100)

	want := geometry.Quad{{X: 20, Y: 10}, {X: 60, Y: 10}, {X: 60, Y: 30}, {X: 20, Y: 30}}
	if scaled[0].Quad != want {
		t.Errorf("got %v, want %v", scaled[0].Quad, want)
	}
	if scaled[0].Confidence != 0.9 {
		t.Errorf("confidence changed: %f", scaled[0].Confidence)
	}
}
