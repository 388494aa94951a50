package detector

import (
	"math"

	"github.com/quadra-ocr/quadra/internal/geometry"
)

// scoreQuad computes the mean probability over the pixels strictly inside
// the quad: the integer bounding box is clamped to the map, and every pixel
// center in it is tested against the quad before contributing. Masking to
// the true interior (instead of averaging the whole bounding box) keeps
// scores accurate for rotated and skewed quads. Returns 0 when no pixel
// lies inside.
func scoreQuad(m *ProbabilityMap, q geometry.Quad) float64 {
	b := q.Bounds()
	x0 := clampInt(int(math.Floor(b.MinX)), 0, m.Width-1)
	y0 := clampInt(int(math.Floor(b.MinY)), 0, m.Height-1)
	x1 := clampInt(int(math.Ceil(b.MaxX)), 0, m.Width-1)
	y1 := clampInt(int(math.Ceil(b.MaxY)), 0, m.Height-1)
	if x1 < x0 || y1 < y0 {
		return 0
	}

	var sum float64
	var count int
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			if quadContains(q, geometry.Point{X: float64(x), Y: float64(y)}) {
				sum += float64(m.At(x, y))
				count++
			}
		}
	}
	if count == 0 {
		return 0
	}
	return sum / float64(count)
}

// quadContains reports whether p lies inside or on the convex quad. The
// point is inside iff the cross products against all four edges share a
// sign (zeros, meaning on-edge, are allowed).
func quadContains(q geometry.Quad, p geometry.Point) bool {
	pos, neg := false, false
	for i := range q {
		a := q[i]
		b := q[(i+1)%4]
		c := (b.X-a.X)*(p.Y-a.Y) - (b.Y-a.Y)*(p.X-a.X)
		if c > 0 {
			pos = true
		} else if c < 0 {
			neg = true
		}
		if pos && neg {
			return false
		}
	}
	return true
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
