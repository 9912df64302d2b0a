package scanner

import (
	"image"

	"github.com/anthonynsimon/bild/adjust"
	"github.com/anthonynsimon/bild/effect"
	"github.com/anthonynsimon/bild/segment"
	"github.com/disintegration/imaging"
)

const (
	preprocessContrast  = 0.4
	preprocessThreshold = 128
)

// FitFrame scales img down to fit the requested constraints. Smaller frames are returned as is.
func FitFrame(img image.Image, c Constraints) image.Image {
	if c.Width <= 0 || c.Height <= 0 {
		return img
	}
	b := img.Bounds()
	if b.Dx() <= c.Width && b.Dy() <= c.Height {
		return img
	}
	return imaging.Fit(img, c.Width, c.Height, imaging.Lanczos)
}

// Preprocess binarizes a frame so the digits printed under a barcode read cleanly.
func Preprocess(img image.Image) *image.Gray {
	sharp := imaging.Sharpen(img, 0.8)
	gray := effect.Grayscale(sharp)
	contrasted := adjust.Contrast(gray, preprocessContrast)
	return segment.Threshold(contrasted, preprocessThreshold)
}
