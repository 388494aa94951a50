package testutil

import (
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

// UniformProbs returns a w*h probability buffer filled with value.
func UniformProbs(w, h int, value float32) []float32 {
	data := make([]float32, w*h)
	for i := range data {
		data[i] = value
	}
	return data
}

// FillRect sets every pixel inside [x0,x1)x[y0,y1) to value, clipped to the
// buffer bounds.
func FillRect(data []float32, w, h, x0, y0, x1, y1 int, value float32) {
	for y := max(y0, 0); y < min(y1, h); y++ {
		for x := max(x0, 0); x < min(x1, w); x++ {
			data[y*w+x] = value
		}
	}
}

// FillRotatedBand sets probabilities inside a rotated rectangle centered at
// (cx, cy) with the given length, thickness and angle in degrees. A pixel is
// inside when its center falls within the rectangle in the band's local
// frame.
func FillRotatedBand(data []float32, w, h int, cx, cy, length, thickness, angleDeg float64, value float32) {
	rad := angleDeg * math.Pi / 180
	cos, sin := math.Cos(rad), math.Sin(rad)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			dx := float64(x) - cx
			dy := float64(y) - cy
			// Project onto the band axes.
			u := dx*cos + dy*sin
			v := -dx*sin + dy*cos
			if math.Abs(u) <= length/2 && math.Abs(v) <= thickness/2 {
				data[y*w+x] = value
			}
		}
	}
}

// SpecklePixels sets individual pixels to value, for isolated-noise cases.
func SpecklePixels(data []float32, w int, value float32, points ...[2]int) {
	for _, p := range points {
		data[p[1]*w+p[0]] = value
	}
}

// GrayFromProbs renders a probability buffer as an 8-bit grayscale image,
// mapping 1.0 to 255.
func GrayFromProbs(data []float32, w, h int) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := data[y*w+x]
			if v < 0 {
				v = 0
			} else if v > 1 {
				v = 1
			}
			img.SetGray(x, y, color.Gray{Y: uint8(math.Round(float64(v) * 255))})
		}
	}
	return img
}

// SavePNG writes an image to path, failing the test on error.
func SavePNG(t *testing.T, img image.Image, path string) {
	t.Helper()

	f, err := os.Create(path)
	require.NoError(t, err, "Failed to create %s", path)
	defer func() { _ = f.Close() }()

	require.NoError(t, png.Encode(f, img), "Failed to encode %s", path)
}
