package detector

import (
	"math"
	"testing"

	"github.com/quadra-ocr/quadra/internal/geometry"
)

func uniformMap(t *testing.T, w, h int, v float32) *ProbabilityMap {
	t.Helper()
	data := make([]float32, w*h)
	for i := range data {
		data[i] = v
	}
	m, err := NewProbabilityMap(data, w, h)
	if err != nil {
		t.Fatal(err)
	}
	return m
}

func TestScoreQuad_UniformMap(t *testing.T) {
	m := uniformMap(t, 20, 20, 0.8)
	q := geometry.Quad{{X: 2, Y: 2}, {X: 15, Y: 2}, {X: 15, Y: 10}, {X: 2, Y: 10}}

	got := scoreQuad(m, q)

	if math.Abs(got-0.8) > 1e-6 {
		t.Errorf("expected 0.8, got %f", got)
	}
}

func TestScoreQuad_MasksOutsidePixels(t *testing.T) {
	// High region inside a diamond, zero elsewhere. A bounding-box mean
	// would be dragged down by the zero corners; the masked mean must not.
	m := uniformMap(t, 21, 21, 0)
	diamond := geometry.Quad{{X: 10, Y: 2}, {X: 18, Y: 10}, {X: 10, Y: 18}, {X: 2, Y: 10}}
	for y := 0; y < 21; y++ {
		for x := 0; x < 21; x++ {
			if quadContains(diamond, geometry.Point{X: float64(x), Y: float64(y)}) {
				m.Data[y*21+x] = 1.0
			}
		}
	}

	got := scoreQuad(m, diamond)

	if math.Abs(got-1.0) > 1e-6 {
		t.Errorf("expected masked mean 1.0, got %f", got)
	}
}

func TestScoreQuad_OutsideMap(t *testing.T) {
	m := uniformMap(t, 10, 10, 0.5)
	q := geometry.Quad{{X: 100, Y: 100}, {X: 110, Y: 100}, {X: 110, Y: 110}, {X: 100, Y: 110}}

	if got := scoreQuad(m, q); got != 0 {
		t.Errorf("expected 0 for a quad outside the map, got %f", got)
	}
}

func TestQuadContains(t *testing.T) {
	q := geometry.Quad{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}, {X: 0, Y: 10}}

	cases := []struct {
		p    geometry.Point
		want bool
	}{
		{geometry.Point{X: 5, Y: 5}, true},
		{geometry.Point{X: 0, Y: 0}, true},   // corner counts as inside
		{geometry.Point{X: 10, Y: 5}, true},  // edge counts as inside
		{geometry.Point{X: 11, Y: 5}, false},
		{geometry.Point{X: -1, Y: -1}, false},
	}
	for _, tc := range cases {
		if got := quadContains(q, tc.p); got != tc.want {
			t.Errorf("quadContains(%v) = %v, want %v", tc.p, got, tc.want)
		}
	}
}
