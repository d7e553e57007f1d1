package imagesim

import (
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"time"

	"github.com/Ramsey-B/fern/pkg/metrics"
	"github.com/Ramsey-B/fern/pkg/tracing"
	_ "golang.org/x/image/webp"
)

// Loader fetches and decodes an image by reference.
type Loader interface {
	Load(ctx context.Context, url string) (image.Image, error)
}

// HTTPLoader downloads images over HTTP(S).
type HTTPLoader struct {
	client   *http.Client
	maxBytes int64
}

func NewHTTPLoader(timeout time.Duration, maxBytes int64) *HTTPLoader {
	return &HTTPLoader{
		client:   &http.Client{Timeout: timeout},
		maxBytes: maxBytes,
	}
}

func (l *HTTPLoader) Load(ctx context.Context, url string) (image.Image, error) {
	ctx, span := tracing.StartSpan(ctx, "imagesim.HTTPLoader.Load")
	defer span.End()

	start := time.Now()
	defer func() {
		metrics.ImageFetchDuration.Observe(time.Since(start).Seconds())
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build image request: %w", err)
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch image: unexpected status %d", resp.StatusCode)
	}

	var body io.Reader = resp.Body
	if l.maxBytes > 0 {
		body = io.LimitReader(resp.Body, l.maxBytes)
	}

	img, _, err := image.Decode(body)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return img, nil
}
