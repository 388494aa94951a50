package geometry

import (
	"testing"
)

func containsPoint(pts []Point, p Point) bool {
	for _, q := range pts {
		if q.X == p.X && q.Y == p.Y {
			return true
		}
	}
	return false
}

func TestConvexHull_SquareWithInterior(t *testing.T) {
	pts := []Point{
		{0, 0}, {10, 0}, {10, 10}, {0, 10},
		{5, 5}, {3, 7}, {6, 2},
	}

	hull := ConvexHull(pts)

	if len(hull) != 4 {
		t.Fatalf("expected 4 hull points, got %d: %v", len(hull), hull)
	}
	for _, corner := range []Point{{0, 0}, {10, 0}, {10, 10}, {0, 10}} {
		if !containsPoint(hull, corner) {
			t.Errorf("hull missing corner %v", corner)
		}
	}
	if containsPoint(hull, Point{5, 5}) {
		t.Error("interior point should not be on the hull")
	}
}

func TestConvexHull_FewerThanThreePoints(t *testing.T) {
	pts := []Point{{1, 2}, {3, 4}}

	hull := ConvexHull(pts)

	if len(hull) != 2 {
		t.Fatalf("expected input returned unchanged, got %v", hull)
	}
	if hull[0] != pts[0] || hull[1] != pts[1] {
		t.Errorf("expected %v, got %v", pts, hull)
	}
}

func TestConvexHull_CollinearPoints(t *testing.T) {
	pts := []Point{{0, 0}, {1, 1}, {2, 2}, {3, 3}}

	hull := ConvexHull(pts)

	// Collinear interior points are dropped, only the endpoints remain.
	if len(hull) != 2 {
		t.Fatalf("expected 2 hull points, got %d: %v", len(hull), hull)
	}
	if !containsPoint(hull, Point{0, 0}) || !containsPoint(hull, Point{3, 3}) {
		t.Errorf("expected endpoints, got %v", hull)
	}
}

func TestConvexHull_DuplicatePoints(t *testing.T) {
	pts := []Point{
		{0, 0}, {0, 0}, {4, 0}, {4, 0}, {4, 4}, {0, 4}, {0, 4},
	}

	hull := ConvexHull(pts)

	if len(hull) != 4 {
		t.Fatalf("expected 4 hull points, got %d: %v", len(hull), hull)
	}
}

func TestConvexHull_InputOrderIndependent(t *testing.T) {
	a := []Point{{0, 0}, {8, 1}, {7, 9}, {1, 8}, {4, 4}}
	b := []Point{{4, 4}, {1, 8}, {0, 0}, {7, 9}, {8, 1}}

	ha := ConvexHull(a)
	hb := ConvexHull(b)

	if len(ha) != len(hb) {
		t.Fatalf("hull sizes differ: %d vs %d", len(ha), len(hb))
	}
	for _, p := range ha {
		if !containsPoint(hb, p) {
			t.Errorf("hulls differ: %v not in %v", p, hb)
		}
	}
}
