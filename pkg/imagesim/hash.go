package imagesim

import (
	"image"
	"math"
	"strings"
)

// Luminance returns the Rec. 601 luma of an 8-bit RGB triple
func Luminance(r, g, b uint8) float64 {
	return 0.299*float64(r) + 0.587*float64(g) + 0.114*float64(b)
}

// AverageHash downsamples img to 8x8 and sets a bit for every pixel brighter than the mean.
func AverageHash(img image.Image) string {
	small := scale(img, 8, 8)
	gray := grayscale(small)
	return thresholdBits(gray, mean(gray))
}

// PerceptualHash downsamples img to 32x32, takes a 2D DCT and thresholds
// the 64 lowest non-DC coefficients at their mean.
func PerceptualHash(img image.Image) string {
	const size = 32
	const block = 9

	gray := grayscale(scale(img, size, size))

	coeffs := make([]float64, 0, block*block)
	for u := 0; u < block; u++ {
		for v := 0; v < block; v++ {
			coeffs = append(coeffs, dct(gray, size, u, v))
		}
	}

	lowFreq := coeffs[1:65]
	return thresholdBits(lowFreq, mean(lowFreq))
}

// HammingDistance counts differing positions. Hashes of different length
// are maximally distant.
func HammingDistance(hash1, hash2 string) int {
	if len(hash1) != len(hash2) {
		return max(len(hash1), len(hash2))
	}
	distance := 0
	for i := 0; i < len(hash1); i++ {
		if hash1[i] != hash2[i] {
			distance++
		}
	}
	return distance
}

// HashSimilarity returns 1 - distance/length, or 0 for empty or mismatched hashes.
func HashSimilarity(hash1, hash2 string) float64 {
	if len(hash1) == 0 || len(hash1) != len(hash2) {
		return 0
	}
	return 1 - float64(HammingDistance(hash1, hash2))/float64(len(hash1))
}

func dct(gray []float64, size, u, v int) float64 {
	var sum float64
	for i := 0; i < size; i++ {
		cu := math.Cos(float64(2*i+1) * float64(u) * math.Pi / float64(2*size))
		for j := 0; j < size; j++ {
			sum += gray[i*size+j] * cu * math.Cos(float64(2*j+1)*float64(v)*math.Pi/float64(2*size))
		}
	}
	au, av := 1.0, 1.0
	if u == 0 {
		au = 1 / math.Sqrt2
	}
	if v == 0 {
		av = 1 / math.Sqrt2
	}
	return au * av * sum * 2 / float64(size)
}

func grayscale(img *image.RGBA) []float64 {
	b := img.Bounds()
	gray := make([]float64, 0, b.Dx()*b.Dy())
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			off := img.PixOffset(x, y)
			gray = append(gray, Luminance(img.Pix[off], img.Pix[off+1], img.Pix[off+2]))
		}
	}
	return gray
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func thresholdBits(values []float64, threshold float64) string {
	var b strings.Builder
	b.Grow(len(values))
	for _, v := range values {
		if v > threshold {
			b.WriteByte('1')
		} else {
			b.WriteByte('0')
		}
	}
	return b.String()
}
