// Package imagesim scores visual similarity between report images using a
// compact brightness hash combined with a coarse color histogram.
package imagesim

import (
	"context"
	"image"

	"github.com/Gobusters/ectologger"
	"github.com/Ramsey-B/fern/pkg/metrics"
	"github.com/Ramsey-B/fern/pkg/scoring"
	"github.com/Ramsey-B/fern/pkg/tracing"
	"golang.org/x/sync/errgroup"
)

type HashMode string

const (
	HashModeAverage    HashMode = "ahash"
	HashModePerceptual HashMode = "phash"
)

// Fingerprint is the reduced form of an image used for comparison.
type Fingerprint struct {
	Hash      string    `json:"hash"`
	Histogram []float64 `json:"histogram"`
}

type Result struct {
	Overall    float64 `json:"overall"`
	HashScore  float64 `json:"hashScore"`
	ColorScore float64 `json:"colorScore"`
	HasImages  bool    `json:"hasImages"`
}

type Config struct {
	HashWeight  float64
	ColorWeight float64
	HashMode    HashMode
	// MaxPerSide bounds how many images of each report are compared.
	MaxPerSide int
	// Concurrency bounds parallel image fetches.
	Concurrency int
}

func DefaultConfig() Config {
	return Config{
		HashWeight:  0.6,
		ColorWeight: 0.4,
		HashMode:    HashModeAverage,
		MaxPerSide:  3,
		Concurrency: 4,
	}
}

type Engine struct {
	loader Loader
	cache  Cache
	config Config
	logger ectologger.Logger
}

// NewEngine creates an engine. cache may be nil.
func NewEngine(loader Loader, cache Cache, config Config, logger ectologger.Logger) *Engine {
	if config.MaxPerSide <= 0 {
		config.MaxPerSide = DefaultConfig().MaxPerSide
	}
	if config.Concurrency <= 0 {
		config.Concurrency = 1
	}
	if config.HashMode == "" {
		config.HashMode = HashModeAverage
	}
	return &Engine{
		loader: loader,
		cache:  cache,
		config: config,
		logger: logger,
	}
}

// Compute fingerprints a decoded image with the engine's hash mode.
func (e *Engine) Compute(img image.Image) *Fingerprint {
	var hash string
	if e.config.HashMode == HashModePerceptual {
		hash = PerceptualHash(img)
	} else {
		hash = AverageHash(img)
	}
	return &Fingerprint{Hash: hash, Histogram: ColorHistogram(img)}
}

// Fingerprint loads and fingerprints the image at url, consulting the cache first.
func (e *Engine) Fingerprint(ctx context.Context, url string) (*Fingerprint, error) {
	ctx, span := tracing.StartSpan(ctx, "imagesim.Engine.Fingerprint")
	defer span.End()

	if e.cache != nil {
		if fp, ok := e.cache.Get(ctx, e.config.HashMode, url); ok {
			metrics.ImageFingerprintsTotal.WithLabelValues("cache").Inc()
			return fp, nil
		}
	}

	img, err := e.loader.Load(ctx, url)
	if err != nil {
		metrics.ImageFingerprintsTotal.WithLabelValues("failed").Inc()
		return nil, err
	}

	fp := e.Compute(img)
	metrics.ImageFingerprintsTotal.WithLabelValues("computed").Inc()

	if e.cache != nil {
		e.cache.Set(ctx, e.config.HashMode, url, fp)
	}
	return fp, nil
}

// Similarity compares two single images. An empty reference yields a zero
// result without images; a load failure yields a zero score with images.
func (e *Engine) Similarity(ctx context.Context, url1, url2 string) Result {
	ctx, span := tracing.StartSpan(ctx, "imagesim.Engine.Similarity")
	defer span.End()

	if url1 == "" || url2 == "" {
		return Result{}
	}

	fp1, err := e.Fingerprint(ctx, url1)
	if err != nil {
		e.logger.WithContext(ctx).WithError(err).WithField("url", url1).Warn("Failed to load image for comparison")
	}
	fp2, err := e.Fingerprint(ctx, url2)
	if err != nil {
		e.logger.WithContext(ctx).WithError(err).WithField("url", url2).Warn("Failed to load image for comparison")
	}

	return e.compare(fp1, fp2)
}

// CompareSets returns the best pairwise score among the first MaxPerSide
// images of each set. Each distinct image is fetched once.
func (e *Engine) CompareSets(ctx context.Context, images1, images2 []string) float64 {
	ctx, span := tracing.StartSpan(ctx, "imagesim.Engine.CompareSets")
	defer span.End()

	if len(images1) == 0 || len(images2) == 0 {
		return 0
	}

	set1 := firstN(images1, e.config.MaxPerSide)
	set2 := firstN(images2, e.config.MaxPerSide)

	fingerprints := e.fingerprintAll(ctx, append(append([]string{}, set1...), set2...))

	best := 0.0
	for _, u1 := range set1 {
		for _, u2 := range set2 {
			if u1 == "" || u2 == "" {
				continue
			}
			if score := e.compare(fingerprints[u1], fingerprints[u2]).Overall; score > best {
				best = score
			}
		}
	}
	return best
}

func (e *Engine) fingerprintAll(ctx context.Context, urls []string) map[string]*Fingerprint {
	unique := make([]string, 0, len(urls))
	seen := make(map[string]struct{}, len(urls))
	for _, u := range urls {
		if u == "" {
			continue
		}
		if _, ok := seen[u]; ok {
			continue
		}
		seen[u] = struct{}{}
		unique = append(unique, u)
	}

	results := make([]*Fingerprint, len(unique))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.config.Concurrency)
	for i, u := range unique {
		g.Go(func() error {
			fp, err := e.Fingerprint(gctx, u)
			if err != nil {
				e.logger.WithContext(gctx).WithError(err).WithField("url", u).Warn("Failed to load image for comparison")
				return nil
			}
			results[i] = fp
			return nil
		})
	}
	_ = g.Wait()

	out := make(map[string]*Fingerprint, len(unique))
	for i, u := range unique {
		out[u] = results[i]
	}
	return out
}

func (e *Engine) compare(fp1, fp2 *Fingerprint) Result {
	if fp1 == nil || fp2 == nil {
		return Result{HasImages: true}
	}

	hashScore := HashSimilarity(fp1.Hash, fp2.Hash)
	colorScore := CosineSimilarity(fp1.Histogram, fp2.Histogram)
	overall := e.config.HashWeight*hashScore + e.config.ColorWeight*colorScore

	return Result{
		Overall:    scoring.Round2(overall),
		HashScore:  scoring.Round2(hashScore),
		ColorScore: scoring.Round2(colorScore),
		HasImages:  true,
	}
}

func firstN(values []string, n int) []string {
	if len(values) > n {
		return values[:n]
	}
	return values
}
