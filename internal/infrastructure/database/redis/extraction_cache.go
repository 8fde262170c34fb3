package redis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/turtacn/Tender-Intelligence/pkg/types/tender"
)

// extractionKeyPrefix scopes extraction result entries inside the cache.
const extractionKeyPrefix = "extraction:"

// DocumentKey derives the cache key for a document from the SHA-256 of its
// normalized text. Two byte-identical documents always share one entry, so a
// re-submitted document never re-runs the pipeline while the entry lives.
func DocumentKey(text string) string {
	sum := sha256.Sum256([]byte(text))
	return extractionKeyPrefix + hex.EncodeToString(sum[:])
}

// ExtractionCache stores complete pipeline results keyed by document hash.
type ExtractionCache struct {
	cache Cache
	ttl   time.Duration
}

// NewExtractionCache builds an ExtractionCache with the given entry TTL.
// A zero ttl falls back to the cache's default.
func NewExtractionCache(cache Cache, ttl time.Duration) *ExtractionCache {
	return &ExtractionCache{cache: cache, ttl: ttl}
}

// Get returns the cached result for the document text, or ErrCacheMiss.
func (c *ExtractionCache) Get(ctx context.Context, text string) (*tender.ExtractionResult, error) {
	var result tender.ExtractionResult
	if err := c.cache.Get(ctx, DocumentKey(text), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Put stores the result for the document text.
func (c *ExtractionCache) Put(ctx context.Context, text string, result *tender.ExtractionResult) error {
	return c.cache.Set(ctx, DocumentKey(text), result, c.ttl)
}

// Invalidate drops the entry for the document text.
func (c *ExtractionCache) Invalidate(ctx context.Context, text string) error {
	return c.cache.Delete(ctx, DocumentKey(text))
}

// InvalidateAll drops every extraction entry.
func (c *ExtractionCache) InvalidateAll(ctx context.Context) (int64, error) {
	return c.cache.DeleteByPrefix(ctx, extractionKeyPrefix)
}

//Personal.AI order the ending
