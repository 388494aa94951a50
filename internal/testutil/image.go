package testutil

import (
	"image"
	"image/color"
	"image/draw"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// TestImageConfig holds configuration for generating test images.
type TestImageConfig struct {
	Text       string
	Width      int
	Height     int
	Background color.Color
	Foreground color.Color
	FontFace   font.Face
	Rotation   float64 // rotation in degrees
}

// DefaultTestImageConfig returns a default configuration for test images.
func DefaultTestImageConfig() TestImageConfig {
	return TestImageConfig{
		Text:       "Sample Text",
		Width:      320,
		Height:     240,
		Background: color.White,
		Foreground: color.Black,
		FontFace:   basicfont.Face7x13,
		Rotation:   0,
	}
}

// GenerateTextImage creates a synthetic text image with the given
// configuration, centering the text and optionally rotating the result.
func GenerateTextImage(config TestImageConfig) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, config.Width, config.Height))
	draw.Draw(img, img.Bounds(), &image.Uniform{config.Background}, image.Point{}, draw.Src)

	drawer := &font.Drawer{
		Dst:  img,
		Src:  &image.Uniform{config.Foreground},
		Face: config.FontFace,
	}
	width := drawer.MeasureString(config.Text)
	drawer.Dot = fixed.Point26_6{
		X: (fixed.I(config.Width) - width) / 2,
		Y: fixed.I(config.Height / 2),
	}
	drawer.DrawString(config.Text)

	if config.Rotation != 0 {
		return imaging.Rotate(img, config.Rotation, config.Background)
	}
	return img
}

// CheckerboardImage builds a checkerboard pattern, useful for verifying
// resampling behavior.
func CheckerboardImage(width, height, cell int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			c := color.NRGBA{255, 255, 255, 255}
			if ((x/cell)+(y/cell))%2 == 0 {
				c = color.NRGBA{0, 0, 0, 255}
			}
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

// LoadImage opens an image file, failing the test on error.
func LoadImage(t *testing.T, path string) image.Image {
	t.Helper()

	img, err := imaging.Open(path)
	require.NoError(t, err, "Failed to open %s", path)
	return img
}
