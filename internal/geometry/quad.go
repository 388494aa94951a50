package geometry

import (
	"math"
	"sort"
)

// Quad is an oriented quadrilateral. The vertex order is defined by the
// producing stage; OrderClockwise establishes the canonical clockwise
// order starting at the top-left vertex.
type Quad [4]Point

// Points returns the vertices as a slice.
func (q Quad) Points() []Point {
	return []Point{q[0], q[1], q[2], q[3]}
}

// Centroid returns the average of the four vertices.
func (q Quad) Centroid() Point {
	return Point{
		X: (q[0].X + q[1].X + q[2].X + q[3].X) / 4,
		Y: (q[0].Y + q[1].Y + q[2].Y + q[3].Y) / 4,
	}
}

// Area returns the absolute area via the shoelace formula.
func (q Quad) Area() float64 {
	var s float64
	for i := range q {
		j := (i + 1) % 4
		s += q[i].X*q[j].Y - q[j].X*q[i].Y
	}
	return math.Abs(s) / 2
}

// MinSide returns the shortest of the four side lengths.
func (q Quad) MinSide() float64 {
	m := Dist(q[0], q[1])
	for i := 1; i < 4; i++ {
		d := Dist(q[i], q[(i+1)%4])
		if d < m {
			m = d
		}
	}
	return m
}

// Bounds returns the axis-aligned bounding box of the quad.
func (q Quad) Bounds() Box {
	return BoundingBox(q.Points())
}

// OrderClockwise canonicalizes the vertex order: clockwise in image
// coordinates (y grows downward), starting from the vertex with the
// minimum x+y sum. Exact ties are broken by the original vertex index,
// so the result is stable.
func OrderClockwise(q Quad) Quad {
	c := q.Centroid()
	idx := []int{0, 1, 2, 3}
	angle := [4]float64{}
	for i, p := range q {
		angle[i] = math.Atan2(p.Y-c.Y, p.X-c.X)
	}
	// Ascending polar angle with y down is clockwise on screen.
	sort.SliceStable(idx, func(a, b int) bool {
		if angle[idx[a]] != angle[idx[b]] {
			return angle[idx[a]] < angle[idx[b]]
		}
		return idx[a] < idx[b]
	})
	var cyc Quad
	for i, id := range idx {
		cyc[i] = q[id]
	}
	// Rotate so the top-left vertex (minimum x+y) comes first.
	start := 0
	best := cyc[0].X + cyc[0].Y
	for i := 1; i < 4; i++ {
		if s := cyc[i].X + cyc[i].Y; s < best {
			best = s
			start = i
		}
	}
	var out Quad
	for i := range out {
		out[i] = cyc[(start+i)%4]
	}
	return out
}

// Unclip expands the quad outward by an offset derived from its area and
// perimeter (offset = area*ratio/perimeter), the expansion distance used by
// DB-style detectors. The expansion is exact for rectangles and a close
// approximation for near-rectangular quads. Returns ok=false for degenerate
// input (near-zero width, height, or perimeter); callers skip such boxes.
func Unclip(q Quad, ratio float64) (Quad, bool) {
	const eps = 1e-6
	w := Dist(q[0], q[1])
	h := Dist(q[0], q[3])
	perimeter := 2 * (w + h)
	if w < eps || h < eps || perimeter < eps {
		return q, false
	}
	if ratio == 0 {
		return q, true
	}
	offset := w * h * ratio / perimeter
	hw := w/2 + offset
	hh := h/2 + offset

	// Local axes of the quad from its own edges.
	ux := Point{X: (q[1].X - q[0].X) / w, Y: (q[1].Y - q[0].Y) / w}
	uy := Point{X: (q[3].X - q[0].X) / h, Y: (q[3].Y - q[0].Y) / h}
	c := q.Centroid()
	return Quad{
		{X: c.X - ux.X*hw - uy.X*hh, Y: c.Y - ux.Y*hw - uy.Y*hh},
		{X: c.X + ux.X*hw - uy.X*hh, Y: c.Y + ux.Y*hw - uy.Y*hh},
		{X: c.X + ux.X*hw + uy.X*hh, Y: c.Y + ux.Y*hw + uy.Y*hh},
		{X: c.X - ux.X*hw + uy.X*hh, Y: c.Y - ux.Y*hw + uy.Y*hh},
	}, true
}

// ClampToBounds clips every vertex to [0, width-1] x [0, height-1].
func ClampToBounds(q Quad, width, height int) Quad {
	maxX := float64(width - 1)
	maxY := float64(height - 1)
	var out Quad
	for i, p := range q {
		out[i] = Point{X: clamp(p.X, 0, maxX), Y: clamp(p.Y, 0, maxY)}
	}
	return out
}

// ScaleQuad scales every vertex by sx, sy.
func ScaleQuad(q Quad, sx, sy float64) Quad {
	var out Quad
	for i, p := range q {
		out[i] = ScalePoint(p, sx, sy)
	}
	return out
}
