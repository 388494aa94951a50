package crop

import (
	"image"
	"math"
)

// cubicWeight is the cubic Hermite convolution kernel with a = -0.5
// (Catmull-Rom), the kernel OpenCV's INTER_CUBIC uses.
func cubicWeight(t float64) float64 {
	const a = -0.5
	t = math.Abs(t)
	switch {
	case t <= 1:
		return (a+2)*t*t*t - (a+3)*t*t + 1
	case t < 2:
		return a*t*t*t - 5*a*t*t + 8*a*t - 4*a
	default:
		return 0
	}
}

// bicubicSample resamples src at the fractional coordinate (x, y) using a
// 4x4 neighborhood with per-axis cubic Hermite convolution. Neighborhood
// coordinates are clamped to the image bounds (replicate-border semantics),
// so sampling near or past the edge never indexes out of bounds.
func bicubicSample(src *image.NRGBA, x, y float64) [4]uint8 {
	w := src.Rect.Dx()
	h := src.Rect.Dy()
	x0 := int(math.Floor(x))
	y0 := int(math.Floor(y))
	fx := x - float64(x0)
	fy := y - float64(y0)

	var wx, wy [4]float64
	for i := range 4 {
		wx[i] = cubicWeight(float64(i-1) - fx)
		wy[i] = cubicWeight(float64(i-1) - fy)
	}

	var acc [4]float64
	for j := range 4 {
		sy := clampIndex(y0+j-1, h)
		rowW := wy[j]
		if rowW == 0 {
			continue
		}
		for i := range 4 {
			sx := clampIndex(x0+i-1, w)
			weight := rowW * wx[i]
			if weight == 0 {
				continue
			}
			off := src.PixOffset(src.Rect.Min.X+sx, src.Rect.Min.Y+sy)
			acc[0] += weight * float64(src.Pix[off])
			acc[1] += weight * float64(src.Pix[off+1])
			acc[2] += weight * float64(src.Pix[off+2])
			acc[3] += weight * float64(src.Pix[off+3])
		}
	}

	var out [4]uint8
	for i, v := range acc {
		out[i] = uint8(math.Round(math.Min(255, math.Max(0, v))))
	}
	return out
}

func clampIndex(v, n int) int {
	if v < 0 {
		return 0
	}
	if v >= n {
		return n - 1
	}
	return v
}
