// Package crop extracts detected text quadrilaterals from a source image
// via perspective-correct resampling, producing upright patches for the
// downstream recognizer.
package crop

import (
	"errors"
	"image"
	"math"

	"github.com/disintegration/imaging"
	"github.com/quadra-ocr/quadra/internal/geometry"
)

// DefaultRotateAspect is the height/width ratio at which a crop is assumed
// to contain a vertical text line and is rotated 90 degrees.
const DefaultRotateAspect = 1.5

// ErrDegenerateQuad is returned when the quad has no area and no transform
// can be computed. Callers are expected to pre-filter such quads.
var ErrDegenerateQuad = errors.New("crop: degenerate quad")

// Result is one extracted patch: the resampled pixels and whether a
// 90-degree rotation was applied to make the text roughly horizontal.
type Result struct {
	Img     *image.NRGBA
	Rotated bool
}

// Extract warps the clockwise-ordered quad out of img into an axis-aligned
// patch. The target dimensions use the maximum of each pair of opposing
// sides, so imperfectly rectangular quads never truncate content. Every
// destination pixel is inverse-mapped through the projective transform and
// resampled bicubically with replicate-border clamping. If the resulting
// patch is much taller than wide (aspect >= rotateAspect), it is rotated 90
// degrees; pass rotateAspect <= 0 for the default of 1.5.
func Extract(img image.Image, quad geometry.Quad, rotateAspect float64) (Result, error) {
	if img == nil {
		return Result{}, errors.New("crop: input image is nil")
	}
	if rotateAspect <= 0 {
		rotateAspect = DefaultRotateAspect
	}

	dstW := int(math.Round(math.Max(geometry.Dist(quad[0], quad[1]), geometry.Dist(quad[2], quad[3]))))
	dstH := int(math.Round(math.Max(geometry.Dist(quad[0], quad[3]), geometry.Dist(quad[1], quad[2]))))
	if dstW < 1 || dstH < 1 || quad.Area() == 0 {
		return Result{}, ErrDegenerateQuad
	}

	// Map destination rectangle corners straight onto the quad; the
	// resulting matrix is the inverse transform the sampler needs.
	d := [4]geometry.Point{
		{X: 0, Y: 0},
		{X: float64(dstW - 1), Y: 0},
		{X: float64(dstW - 1), Y: float64(dstH - 1)},
		{X: 0, Y: float64(dstH - 1)},
	}
	h, ok := computeHomography(d, [4]geometry.Point{quad[0], quad[1], quad[2], quad[3]})
	if !ok {
		return Result{}, ErrDegenerateQuad
	}

	src := imaging.Clone(img)
	out := image.NewNRGBA(image.Rect(0, 0, dstW, dstH))
	for y := range dstH {
		for x := range dstW {
			sx, sy := applyHomography(h, float64(x), float64(y))
			px := bicubicSample(src, sx, sy)
			off := out.PixOffset(x, y)
			out.Pix[off] = px[0]
			out.Pix[off+1] = px[1]
			out.Pix[off+2] = px[2]
			out.Pix[off+3] = px[3]
		}
	}

	if float64(dstH)/float64(dstW) >= rotateAspect {
		return Result{Img: imaging.Rotate90(out), Rotated: true}, nil
	}
	return Result{Img: out, Rotated: false}, nil
}
