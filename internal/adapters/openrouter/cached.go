package openrouter

import (
	"context"
	"crypto/sha256"
	"encoding/hex"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/jggl/kb-assist/internal/domain/ports"
)

// DefaultCacheSize bounds the embedding cache. Repeated questions are
// common in an onboarding bot, and a cached hit skips one external
// call per query.
const DefaultCacheSize = 1000

// CachedEmbedder wraps an Embedder with an LRU cache keyed by the
// text's hash. The embedding model is fixed per process (index
// invariant), so the text alone identifies the vector.
type CachedEmbedder struct {
	inner ports.Embedder
	cache *lru.Cache[string, []float32]
}

// NewCachedEmbedder wraps inner with a cache of the given size.
func NewCachedEmbedder(inner ports.Embedder, size int) *CachedEmbedder {
	if size <= 0 {
		size = DefaultCacheSize
	}
	cache, _ := lru.New[string, []float32](size)
	return &CachedEmbedder{inner: inner, cache: cache}
}

// Embed returns a cached vector when available, otherwise delegates
// and caches the result. Errors are never cached.
func (c *CachedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	key := cacheKey(text)
	if vec, ok := c.cache.Get(key); ok {
		return vec, nil
	}
	vec, err := c.inner.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	c.cache.Add(key, vec)
	return vec, nil
}

func cacheKey(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
