package imagesim

import (
	"image"

	"golang.org/x/image/draw"
)

// scale resamples img onto a w x h RGBA canvas.
func scale(img image.Image, w, h int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Over, nil)
	return dst
}
