package pipeline

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/quadra-ocr/quadra/internal/detector"
	"github.com/quadra-ocr/quadra/internal/geometry"
)

// Overlay renders detected quads onto a copy of the source image for
// debugging and CLI output.
func Overlay(img image.Image, boxes []detector.DetectedBox) *image.RGBA {
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	col := color.RGBA{R: 0, G: 255, B: 0, A: 255}
	for _, box := range boxes {
		geometry.DrawPolygon(dst, box.Quad.Points(), col, 2)
	}
	return dst
}
