package imagesim

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/Ramsey-B/fern/pkg/redis"
)

// Cache stores computed fingerprints keyed by hash mode and image URL.
type Cache interface {
	Get(ctx context.Context, mode HashMode, url string) (*Fingerprint, bool)
	Set(ctx context.Context, mode HashMode, url string, fp *Fingerprint)
}

// RedisCache keeps fingerprints in Redis as JSON.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

func fingerprintKey(mode HashMode, url string) string {
	sum := sha256.Sum256([]byte(url))
	return "fern:fp:" + string(mode) + ":" + hex.EncodeToString(sum[:])
}

// Get treats Redis errors and undecodable entries as misses.
func (c *RedisCache) Get(ctx context.Context, mode HashMode, url string) (*Fingerprint, bool) {
	raw, ok, err := c.client.Get(ctx, fingerprintKey(mode, url))
	if err != nil || !ok {
		return nil, false
	}

	var fp Fingerprint
	if err := json.Unmarshal(raw, &fp); err != nil {
		return nil, false
	}
	return &fp, true
}

func (c *RedisCache) Set(ctx context.Context, mode HashMode, url string, fp *Fingerprint) {
	raw, err := json.Marshal(fp)
	if err != nil {
		return
	}
	_ = c.client.Set(ctx, fingerprintKey(mode, url), raw, c.ttl)
}
