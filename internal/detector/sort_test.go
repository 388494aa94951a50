package detector

import (
	"testing"

	"github.com/quadra-ocr/quadra/internal/geometry"
)

func boxAt(x, y, w, h float64) DetectedBox {
	return DetectedBox{
		Quad:       geometry.Quad{{X: x, Y: y}, {X: x + w, Y: y}, {X: x + w, Y: y + h}, {X: x, Y: y + h}},
		Confidence: 0.9,
	}
}

func TestSortBoxes_TwoWordsSameLine(t *testing.T) {
	right := boxAt(100, 12, 40, 14)
	left := boxAt(10, 10, 40, 14)

	sorted := SortBoxes([]DetectedBox{right, left}, 10)

	if sorted[0].Quad != left.Quad || sorted[1].Quad != right.Quad {
		t.Errorf("expected left-to-right order, got %v", sorted)
	}
}

func TestSortBoxes_MultipleLines(t *testing.T) {
	boxes := []DetectedBox{
		boxAt(80, 42, 30, 12), // second line, right
		boxAt(60, 10, 30, 12), // first line, right
		boxAt(5, 40, 30, 12),  // second line, left
		boxAt(5, 12, 30, 12),  // first line, left (slightly lower top)
	}

	sorted := SortBoxes(boxes, 10)

	wantX := []float64{5, 60, 5, 80}
	wantY := []float64{12, 10, 40, 42}
	for i := range sorted {
		if sorted[i].Quad[0].X != wantX[i] || sorted[i].Quad[0].Y != wantY[i] {
			t.Errorf("position %d: got (%v,%v), want (%v,%v)",
				i, sorted[i].Quad[0].X, sorted[i].Quad[0].Y, wantX[i], wantY[i])
		}
	}
}

func TestSortBoxes_BeyondToleranceSplitsLines(t *testing.T) {
	upper := boxAt(50, 10, 30, 12)
	lower := boxAt(5, 25, 30, 12) // 15px below, outside the 10px tolerance

	sorted := SortBoxes([]DetectedBox{lower, upper}, 10)

	if sorted[0].Quad != upper.Quad {
		t.Errorf("expected the upper box first despite larger x, got %v", sorted[0].Quad)
	}
}

func TestSortBoxes_StableOnTies(t *testing.T) {
	a := boxAt(20, 10, 30, 12)
	b := boxAt(20, 10, 30, 12)
	a.Confidence = 0.7
	b.Confidence = 0.8

	sorted := SortBoxes([]DetectedBox{a, b}, 10)

	if sorted[0].Confidence != 0.7 || sorted[1].Confidence != 0.8 {
		t.Errorf("tie broke detection order: %v", sorted)
	}
}

func TestSortBoxes_InputUnmodified(t *testing.T) {
	boxes := []DetectedBox{boxAt(50, 20, 30, 12), boxAt(5, 18, 30, 12)}
	orig := make([]DetectedBox, len(boxes))
	copy(orig, boxes)

	_ = SortBoxes(boxes, 10)

	for i := range boxes {
		if boxes[i] != orig[i] {
			t.Errorf("input slice modified at %d", i)
		}
	}
}

func TestSortBoxes_SmallInputs(t *testing.T) {
	if got := SortBoxes(nil, 10); len(got) != 0 {
		t.Errorf("expected empty result, got %v", got)
	}
	one := []DetectedBox{boxAt(5, 5, 10, 10)}
	if got := SortBoxes(one, 10); len(got) != 1 || got[0] != one[0] {
		t.Errorf("expected single box unchanged, got %v", got)
	}
}
