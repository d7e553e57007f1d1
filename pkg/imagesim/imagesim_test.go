package imagesim

import (
	"context"
	"errors"
	"image"
	"image/color"
	"math/rand"
	"strings"
	"sync"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func solid(c color.RGBA) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, 64, 64))
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

func halves(left, right color.RGBA) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, 64, 64))
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			if x < 32 {
				img.SetRGBA(x, y, left)
			} else {
				img.SetRGBA(x, y, right)
			}
		}
	}
	return img
}

var (
	white = color.RGBA{255, 255, 255, 255}
	black = color.RGBA{0, 0, 0, 255}
	muted = color.RGBA{200, 40, 100, 255}
)

type fakeLoader struct {
	mu     sync.Mutex
	images map[string]image.Image
	calls  map[string]int
}

func newFakeLoader(images map[string]image.Image) *fakeLoader {
	return &fakeLoader{images: images, calls: map[string]int{}}
}

func (f *fakeLoader) Load(_ context.Context, url string) (image.Image, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[url]++
	img, ok := f.images[url]
	if !ok {
		return nil, errors.New("not found")
	}
	return img, nil
}

func (f *fakeLoader) total() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

type memoryCache struct {
	mu    sync.Mutex
	items map[string]*Fingerprint
}

func (m *memoryCache) Get(_ context.Context, mode HashMode, url string) (*Fingerprint, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	fp, ok := m.items[fingerprintKey(mode, url)]
	return fp, ok
}

func (m *memoryCache) Set(_ context.Context, mode HashMode, url string, fp *Fingerprint) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[fingerprintKey(mode, url)] = fp
}

func testLogger() ectologger.Logger {
	return ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
}

func TestAverageHash(t *testing.T) {
	t.Run("solid image has no bits above mean", func(t *testing.T) {
		hash := AverageHash(solid(muted))
		assert.Equal(t, strings.Repeat("0", 64), hash)
	})

	t.Run("bright left half", func(t *testing.T) {
		hash := AverageHash(halves(white, black))
		require.Len(t, hash, 64)
		assert.Equal(t, 32, strings.Count(hash, "1"))
		assert.Equal(t, strings.Repeat("11110000", 8), hash)
	})
}

func TestPerceptualHash(t *testing.T) {
	hash := PerceptualHash(halves(white, black))
	require.Len(t, hash, 64)
	assert.Equal(t, hash, PerceptualHash(halves(white, black)))
	assert.NotEqual(t, hash, PerceptualHash(halves(black, white)))
}

func TestHammingDistance(t *testing.T) {
	tests := []struct {
		name     string
		a, b     string
		expected int
	}{
		{name: "identical", a: "1010", b: "1010", expected: 0},
		{name: "all different", a: "1111", b: "0000", expected: 4},
		{name: "one different", a: "1011", b: "1010", expected: 1},
		{name: "length mismatch", a: "10", b: "1010", expected: 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, HammingDistance(tt.a, tt.b))
		})
	}
}

func TestHashSimilarity(t *testing.T) {
	assert.Equal(t, 1.0, HashSimilarity("1010", "1010"))
	assert.Equal(t, 0.75, HashSimilarity("1011", "1010"))
	assert.Equal(t, 0.0, HashSimilarity("10", "1010"))
	assert.Equal(t, 0.0, HashSimilarity("", ""))
}

func TestColorHistogram(t *testing.T) {
	hist := ColorHistogram(solid(muted))
	require.Len(t, hist, 24)

	expected := make([]float64, 24)
	expected[6] = 1    // red 200
	expected[8+1] = 1  // green 40
	expected[16+3] = 1 // blue 100
	assert.InDeltaSlice(t, expected, hist, 1e-9)
}

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name     string
		a, b     []float64
		expected float64
	}{
		{name: "identical", a: []float64{1, 2, 3}, b: []float64{1, 2, 3}, expected: 1},
		{name: "orthogonal", a: []float64{1, 0}, b: []float64{0, 1}, expected: 0},
		{name: "zero vector", a: []float64{0, 0}, b: []float64{1, 1}, expected: 0},
		{name: "length mismatch", a: []float64{1}, b: []float64{1, 1}, expected: 0},
		{name: "empty", a: nil, b: nil, expected: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, CosineSimilarity(tt.a, tt.b), 1e-9)
		})
	}
}

func TestEngine_Similarity(t *testing.T) {
	loader := newFakeLoader(map[string]image.Image{
		"a": halves(white, black),
		"b": halves(white, black),
		"c": halves(black, white),
	})
	engine := NewEngine(loader, nil, DefaultConfig(), testLogger())
	ctx := context.Background()

	t.Run("identical images", func(t *testing.T) {
		result := engine.Similarity(ctx, "a", "b")
		assert.Equal(t, Result{Overall: 1, HashScore: 1, ColorScore: 1, HasImages: true}, result)
	})

	t.Run("mirrored images share colors but not layout", func(t *testing.T) {
		result := engine.Similarity(ctx, "a", "c")
		assert.True(t, result.HasImages)
		assert.Equal(t, 0.0, result.HashScore)
		assert.Equal(t, 1.0, result.ColorScore)
		assert.Equal(t, 0.4, result.Overall)
	})

	t.Run("empty reference", func(t *testing.T) {
		assert.Equal(t, Result{}, engine.Similarity(ctx, "", "a"))
		assert.Equal(t, Result{}, engine.Similarity(ctx, "a", ""))
	})

	t.Run("load failure still reports images", func(t *testing.T) {
		assert.Equal(t, Result{HasImages: true}, engine.Similarity(ctx, "a", "missing"))
	})
}

func noise(seed int64, w, h int) image.Image {
	rng := rand.New(rand.NewSource(seed))
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, color.RGBA{uint8(rng.Intn(256)), uint8(rng.Intn(256)), uint8(rng.Intn(256)), 255})
		}
	}
	return img
}

func gradient(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, color.RGBA{uint8(x * 255 / w), uint8(y * 255 / h), 90, 255})
		}
	}
	return img
}

func TestEngine_SimilarityIsSymmetric(t *testing.T) {
	images := map[string]image.Image{
		"noise-small": noise(1, 17, 23),
		"noise-wide":  noise(2, 320, 48),
		"noise-tall":  noise(3, 40, 300),
		"gradient":    gradient(128, 96),
		"halves":      halves(white, muted),
		"solid":       solid(black),
	}
	urls := make([]string, 0, len(images))
	for u := range images {
		urls = append(urls, u)
	}
	ctx := context.Background()

	for _, mode := range []HashMode{HashModeAverage, HashModePerceptual} {
		t.Run(string(mode), func(t *testing.T) {
			config := DefaultConfig()
			config.HashMode = mode
			engine := NewEngine(newFakeLoader(images), nil, config, testLogger())

			for _, a := range urls {
				for _, b := range urls {
					forward := engine.Similarity(ctx, a, b)
					backward := engine.Similarity(ctx, b, a)
					assert.Equal(t, forward, backward, "%s vs %s", a, b)

					for _, score := range []float64{forward.Overall, forward.HashScore, forward.ColorScore} {
						assert.GreaterOrEqual(t, score, 0.0, "%s vs %s", a, b)
						assert.LessOrEqual(t, score, 1.0, "%s vs %s", a, b)
					}
					if a == b {
						assert.Equal(t, 1.0, forward.Overall, a)
					}
				}
			}

			assert.Equal(t,
				engine.CompareSets(ctx, []string{"noise-small", "gradient"}, []string{"noise-wide", "halves"}),
				engine.CompareSets(ctx, []string{"noise-wide", "halves"}, []string{"noise-small", "gradient"}),
			)
		})
	}
}

func TestEngine_CompareSets(t *testing.T) {
	ctx := context.Background()

	t.Run("empty side scores zero without loading", func(t *testing.T) {
		loader := newFakeLoader(nil)
		engine := NewEngine(loader, nil, DefaultConfig(), testLogger())

		assert.Equal(t, 0.0, engine.CompareSets(ctx, nil, []string{"a"}))
		assert.Equal(t, 0.0, engine.CompareSets(ctx, []string{"a"}, []string{}))
		assert.Equal(t, 0, loader.total())
	})

	t.Run("best pair wins", func(t *testing.T) {
		loader := newFakeLoader(map[string]image.Image{
			"lost-1":  solid(muted),
			"lost-2":  halves(white, black),
			"found-1": halves(black, white),
			"found-2": halves(white, black),
		})
		engine := NewEngine(loader, nil, DefaultConfig(), testLogger())

		score := engine.CompareSets(ctx, []string{"lost-1", "lost-2"}, []string{"found-1", "found-2"})
		assert.Equal(t, 1.0, score)
	})

	t.Run("only the first three per side are fetched", func(t *testing.T) {
		images := map[string]image.Image{}
		for _, u := range []string{"l1", "l2", "l3", "l4", "l5", "f1", "f2", "f3", "f4"} {
			images[u] = solid(muted)
		}
		loader := newFakeLoader(images)
		engine := NewEngine(loader, nil, DefaultConfig(), testLogger())

		engine.CompareSets(ctx, []string{"l1", "l2", "l3", "l4", "l5"}, []string{"f1", "f2", "f3", "f4"})

		assert.Equal(t, 6, loader.total())
		assert.Zero(t, loader.calls["l4"])
		assert.Zero(t, loader.calls["f4"])
	})

	t.Run("shared image is fetched once", func(t *testing.T) {
		loader := newFakeLoader(map[string]image.Image{"same": solid(muted)})
		engine := NewEngine(loader, nil, DefaultConfig(), testLogger())

		assert.Equal(t, 1.0, engine.CompareSets(ctx, []string{"same"}, []string{"same"}))
		assert.Equal(t, 1, loader.calls["same"])
	})

	t.Run("failed loads score zero", func(t *testing.T) {
		loader := newFakeLoader(map[string]image.Image{"ok": solid(muted)})
		engine := NewEngine(loader, nil, DefaultConfig(), testLogger())

		assert.Equal(t, 0.0, engine.CompareSets(ctx, []string{"ok"}, []string{"gone"}))
	})
}

func TestEngine_FingerprintCache(t *testing.T) {
	ctx := context.Background()
	loader := newFakeLoader(map[string]image.Image{"a": halves(white, black)})
	cache := &memoryCache{items: map[string]*Fingerprint{}}
	engine := NewEngine(loader, cache, DefaultConfig(), testLogger())

	first, err := engine.Fingerprint(ctx, "a")
	require.NoError(t, err)
	second, err := engine.Fingerprint(ctx, "a")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, loader.calls["a"])

	// perceptual fingerprints are cached separately
	cfg := DefaultConfig()
	cfg.HashMode = HashModePerceptual
	perceptual := NewEngine(loader, cache, cfg, testLogger())
	_, err = perceptual.Fingerprint(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, 2, loader.calls["a"])
}

func TestFingerprintKey(t *testing.T) {
	key := fingerprintKey(HashModeAverage, "https://example.com/a.jpg")
	assert.True(t, strings.HasPrefix(key, "fern:fp:ahash:"))
	assert.Len(t, key, len("fern:fp:ahash:")+64)
	assert.NotEqual(t, key, fingerprintKey(HashModePerceptual, "https://example.com/a.jpg"))
}
