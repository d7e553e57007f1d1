package imagesim

import (
	"image"
	"math"
)

const (
	histogramSize = 64
	binsPerColor  = 8
)

// ColorHistogram downsamples img to 64x64 and returns 8 bins per channel,
// concatenated R, G, B and normalized by pixel count.
func ColorHistogram(img image.Image) []float64 {
	small := scale(img, histogramSize, histogramSize)

	hist := make([]float64, 3*binsPerColor)
	b := small.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			off := small.PixOffset(x, y)
			hist[int(small.Pix[off])/32]++
			hist[binsPerColor+int(small.Pix[off+1])/32]++
			hist[2*binsPerColor+int(small.Pix[off+2])/32]++
		}
	}

	total := float64(b.Dx() * b.Dy())
	for i := range hist {
		hist[i] /= total
	}
	return hist
}

// CosineSimilarity of two equal-length vectors; 0 for zero or mismatched vectors.
func CosineSimilarity(a, b []float64) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}

	sim := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	return math.Min(1, math.Max(0, sim))
}
