package detector

import "sort"

// SortBoxes orders boxes into reading order: boxes are first sorted by
// their top edge (min y), then consecutive boxes whose top edges are within
// lineTolerance pixels are grouped into one text line, and each line is
// sorted left to right by min x. This two-level sort handles slightly
// skewed lines that a single (y, x) key would interleave. Both sorts are
// stable, so exact ties keep the original detection order. Returns a new
// slice; the input is not modified.
func SortBoxes(boxes []DetectedBox, lineTolerance float64) []DetectedBox {
	out := make([]DetectedBox, len(boxes))
	copy(out, boxes)
	if len(out) < 2 {
		return out
	}

	sort.SliceStable(out, func(i, j int) bool {
		return minY(out[i]) < minY(out[j])
	})

	// Group consecutive boxes into lines and order each line by min x.
	lineStart := 0
	for i := 1; i <= len(out); i++ {
		if i < len(out) && minY(out[i])-minY(out[i-1]) <= lineTolerance {
			continue
		}
		line := out[lineStart:i]
		sort.SliceStable(line, func(a, b int) bool {
			return minX(line[a]) < minX(line[b])
		})
		lineStart = i
	}
	return out
}

func minY(b DetectedBox) float64 {
	m := b.Quad[0].Y
	for _, p := range b.Quad[1:] {
		if p.Y < m {
			m = p.Y
		}
	}
	return m
}

func minX(b DetectedBox) float64 {
	m := b.Quad[0].X
	for _, p := range b.Quad[1:] {
		if p.X < m {
			m = p.X
		}
	}
	return m
}
