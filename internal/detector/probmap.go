package detector

import (
	"fmt"
	"image"

	"github.com/quadra-ocr/quadra/internal/mempool"
)

// ProbabilityMap is the dense per-pixel text probability grid produced by
// the upstream DB detector network. Row-major, values conceptually in [0,1].
// Immutable once constructed, until Release.
type ProbabilityMap struct {
	Data   []float32
	Width  int
	Height int
}

// NewProbabilityMap wraps raw network output into a ProbabilityMap.
func NewProbabilityMap(data []float32, width, height int) (*ProbabilityMap, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid map dimensions: %dx%d", width, height)
	}
	if len(data) != width*height {
		return nil, fmt.Errorf("map data length %d does not match %dx%d", len(data), width, height)
	}
	return &ProbabilityMap{Data: data, Width: width, Height: height}, nil
}

// ProbabilityMapFromGray builds a map from a grayscale image, mapping pixel
// values to [0,1]. Used by the CLI and server; the in-process path receives
// raw float data from the network. The data buffer comes from the shared
// pool; callers processing many images should Release the map when done.
func ProbabilityMapFromGray(img image.Image) *ProbabilityMap {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	data := mempool.GetFloat32(w * h)
	for y := range h {
		for x := range w {
			r, g, bl, _ := img.At(b.Min.X+x, b.Min.Y+y).RGBA()
			// 16-bit channel average back to [0,1]
			data[y*w+x] = float32(r+g+bl) / 3 / 65535
		}
	}
	return &ProbabilityMap{Data: data, Width: w, Height: h}
}

// Release returns the map's data buffer to the pool. The map must not be
// read afterwards.
func (m *ProbabilityMap) Release() {
	mempool.PutFloat32(m.Data)
	m.Data = nil
}

// At returns the probability at (x, y). No bounds check; callers iterate
// within the map dimensions.
func (m *ProbabilityMap) At(x, y int) float32 {
	return m.Data[y*m.Width+x]
}

// binarize creates a binary mask from the probability map with strict
// threshold comparison (value > t). The mask comes from the buffer pool;
// the caller returns it via mempool.PutBool.
func binarize(m *ProbabilityMap, t float32) []bool {
	mask := mempool.GetBool(m.Width * m.Height)
	for i, p := range m.Data {
		if p > t {
			mask[i] = true
		}
	}
	return mask
}
