package geometry

import "math"

// minRectSideEps rejects candidate orientations whose projected extent
// collapses to near zero; floating noise otherwise lets degenerate
// slivers win the area comparison.
const minRectSideEps = 1e-3

// MinAreaRect computes the minimum-area enclosing rectangle of a point set
// using rotating calipers over the convex hull: every hull edge is tested
// as a candidate orientation, all hull points are projected onto the edge
// direction and its normal, and the smallest-area candidate wins. Falls
// back to the axis-aligned bounding box when every candidate is degenerate.
// The corners are emitted in consistent winding order but are not
// canonicalized; OrderClockwise does that.
func MinAreaRect(pts []Point) (Quad, bool) {
	if len(pts) == 0 {
		return Quad{}, false
	}
	hull := ConvexHull(pts)
	if len(hull) < 3 {
		return aabbQuad(BoundingBox(hull)), true
	}

	bestArea := math.Inf(1)
	var bestU, bestV Point
	var bestMinS, bestMaxS, bestMinT, bestMaxT float64
	found := false

	for i := range hull {
		a := hull[i]
		b := hull[(i+1)%len(hull)]
		dx := b.X - a.X
		dy := b.Y - a.Y
		length := math.Hypot(dx, dy)
		if length == 0 {
			continue
		}
		ux, uy := dx/length, dy/length
		vx, vy := -uy, ux // perpendicular
		minS, maxS := math.Inf(1), math.Inf(-1)
		minT, maxT := math.Inf(1), math.Inf(-1)
		for _, p := range hull {
			s := p.X*ux + p.Y*uy
			t := p.X*vx + p.Y*vy
			if s < minS {
				minS = s
			}
			if s > maxS {
				maxS = s
			}
			if t < minT {
				minT = t
			}
			if t > maxT {
				maxT = t
			}
		}
		w := maxS - minS
		h := maxT - minT
		if w <= minRectSideEps || h <= minRectSideEps {
			continue
		}
		if area := w * h; area < bestArea {
			bestArea = area
			bestU = Point{X: ux, Y: uy}
			bestV = Point{X: vx, Y: vy}
			bestMinS, bestMaxS, bestMinT, bestMaxT = minS, maxS, minT, maxT
			found = true
		}
	}
	if !found {
		return aabbQuad(BoundingBox(hull)), true
	}

	// Reconstruct rectangle corners in world coordinates.
	corner := func(s, t float64) Point {
		return Point{X: bestU.X*s + bestV.X*t, Y: bestU.Y*s + bestV.Y*t}
	}
	return Quad{
		corner(bestMinS, bestMinT),
		corner(bestMaxS, bestMinT),
		corner(bestMaxS, bestMaxT),
		corner(bestMinS, bestMaxT),
	}, true
}

func aabbQuad(b Box) Quad {
	return Quad{
		{X: b.MinX, Y: b.MinY},
		{X: b.MaxX, Y: b.MinY},
		{X: b.MaxX, Y: b.MaxY},
		{X: b.MinX, Y: b.MaxY},
	}
}
