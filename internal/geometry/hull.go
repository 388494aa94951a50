package geometry

// ConvexHull computes the convex hull of a set of points using the
// monotone chain algorithm. Returns the hull in CCW order without
// duplicating the first point at the end. Inputs with fewer than three
// points are returned unchanged.
func ConvexHull(pts []Point) []Point {
	n := len(pts)
	if n < 3 {
		return append([]Point(nil), pts...)
	}
	// Copy and sort by X then Y so the hull is stable regardless of the
	// order the component scan produced the pixels in.
	p := make([]Point, n)
	copy(p, pts)
	sortPoints(p)
	p = removeDuplicatePoints(p)
	n = len(p)
	if n < 3 {
		return append([]Point(nil), p...)
	}
	lower := buildLowerHull(p)
	upper := buildUpperHull(p)
	// Concatenate lower and upper to get full hull, excluding last point of each (duplicate)
	hull := make([]Point, 0, len(lower)+len(upper)-2)
	hull = append(hull, lower[:len(lower)-1]...)
	hull = append(hull, upper[:len(upper)-1]...)
	return hull
}

func removeDuplicatePoints(p []Point) []Point {
	q := p[:0]
	var last Point
	hasLast := false
	for _, pt := range p {
		if !hasLast || pt.X != last.X || pt.Y != last.Y {
			q = append(q, pt)
			last = pt
			hasLast = true
		}
	}
	return q
}

func buildLowerHull(p []Point) []Point {
	lower := make([]Point, 0, len(p))
	for _, pt := range p {
		for len(lower) >= 2 && cross(lower[len(lower)-2], lower[len(lower)-1], pt) <= 0 {
			lower = lower[:len(lower)-1]
		}
		lower = append(lower, pt)
	}
	return lower
}

func buildUpperHull(p []Point) []Point {
	upper := make([]Point, 0, len(p))
	for i := len(p) - 1; i >= 0; i-- {
		pt := p[i]
		for len(upper) >= 2 && cross(upper[len(upper)-2], upper[len(upper)-1], pt) <= 0 {
			upper = upper[:len(upper)-1]
		}
		upper = append(upper, pt)
	}
	return upper
}

func sortPoints(p []Point) {
	// simple insertion sort since n is usually small
	for i := 1; i < len(p); i++ {
		v := p[i]
		j := i - 1
		for j >= 0 && (p[j].X > v.X || (p[j].X == v.X && p[j].Y > v.Y)) {
			p[j+1] = p[j]
			j--
		}
		p[j+1] = v
	}
}
