package detector

import (
	"container/list"

	"github.com/quadra-ocr/quadra/internal/geometry"
)

// minComponentSize is the smallest pixel count that can still form a
// rectangle; anything smaller is noise.
const minComponentSize = 4

// component is one 8-connected pixel cluster of the binary mask.
type component struct {
	points []geometry.Point
	minX   int
	minY   int
	maxX   int
	maxY   int
}

// eight-connected neighborhood
var neighborDirs = [8][2]int{
	{1, 0}, {-1, 0}, {0, 1}, {0, -1},
	{1, 1}, {1, -1}, {-1, 1}, {-1, -1},
}

// connectedComponents finds 8-connected components in the mask using an
// iterative BFS, so deep regions cannot overflow the stack. Components are
// emitted in row-major order of their first (seed) pixel, which gives a
// stable order independent of anything but the mask itself. maxComponents
// caps the number of clusters collected; 0 means unlimited.
func connectedComponents(mask []bool, w, h, maxComponents int) []component {
	visited := make([]bool, w*h)
	var comps []component

	for y := range h {
		for x := range w {
			idx := y*w + x
			if !mask[idx] || visited[idx] {
				continue
			}
			comps = append(comps, componentBFS(mask, visited, w, h, x, y))
			if maxComponents > 0 && len(comps) >= maxComponents {
				return comps
			}
		}
	}
	return comps
}

// componentBFS collects one connected component starting from a seed pixel.
func componentBFS(mask []bool, visited []bool, w, h, startX, startY int) component {
	startIdx := startY*w + startX
	c := component{minX: startX, minY: startY, maxX: startX, maxY: startY}

	q := list.New()
	q.PushBack(startIdx)
	visited[startIdx] = true

	for q.Len() > 0 {
		e := q.Front()
		q.Remove(e)
		ci, ok := e.Value.(int)
		if !ok {
			continue // skip invalid
		}
		cx, cy := ci%w, ci/w
		c.add(cx, cy)
		for _, d := range neighborDirs {
			nx, ny := cx+d[0], cy+d[1]
			if nx < 0 || nx >= w || ny < 0 || ny >= h {
				continue
			}
			ni := ny*w + nx
			if mask[ni] && !visited[ni] {
				visited[ni] = true
				q.PushBack(ni)
			}
		}
	}
	return c
}

func (c *component) add(x, y int) {
	c.points = append(c.points, geometry.Point{X: float64(x), Y: float64(y)})
	if x < c.minX {
		c.minX = x
	}
	if y < c.minY {
		c.minY = y
	}
	if x > c.maxX {
		c.maxX = x
	}
	if y > c.maxY {
		c.maxY = y
	}
}

func (c *component) size() int { return len(c.points) }
