package redis

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/turtacn/Tender-Intelligence/internal/infrastructure/monitoring/logging"
)

func newTestCache(opts ...CacheOption) *redisCache {
	return NewRedisCache(nil, logging.NewNopLogger(), opts...).(*redisCache)
}

func TestFullKey_DefaultPrefix(t *testing.T) {
	t.Parallel()

	c := newTestCache()
	assert.Equal(t, "tenderintel:extraction:abc", c.fullKey("extraction:abc"))
}

func TestFullKey_CustomPrefix(t *testing.T) {
	t.Parallel()

	c := newTestCache(WithPrefix("tn:"))
	assert.Equal(t, "tn:k", c.fullKey("k"))
}

func TestJitterTTL_StaysWithinTenPercent(t *testing.T) {
	t.Parallel()

	c := newTestCache()
	base := time.Hour
	for i := 0; i < 100; i++ {
		got := c.jitterTTL(base)
		assert.GreaterOrEqual(t, got, time.Duration(float64(base)*0.9))
		assert.LessOrEqual(t, got, time.Duration(float64(base)*1.1))
	}
}

func TestJitterTTL_ZeroMeansNoExpiry(t *testing.T) {
	t.Parallel()

	c := newTestCache()
	assert.Equal(t, time.Duration(0), c.jitterTTL(0))
}

func TestCacheOptions(t *testing.T) {
	t.Parallel()

	c := newTestCache(WithDefaultTTL(time.Minute), WithNullCacheTTL(5*time.Second))
	assert.Equal(t, time.Minute, c.defaultTTL)
	assert.Equal(t, 5*time.Second, c.nullCacheTTL)
}

func TestDocumentKey_DeterministicAndDistinct(t *testing.T) {
	t.Parallel()

	k1 := DocumentKey("APPEL D'OFFRES 2024-R001")
	k2 := DocumentKey("APPEL D'OFFRES 2024-R001")
	k3 := DocumentKey("APPEL D'OFFRES 2024-R002")

	assert.Equal(t, k1, k2)
	assert.NotEqual(t, k1, k3)
	assert.True(t, strings.HasPrefix(k1, "extraction:"))
	// sha256 hex digest
	assert.Len(t, strings.TrimPrefix(k1, "extraction:"), 64)
}

func TestBuildLockKey(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "tenderintel:lock:doc-42", buildLockKey("doc-42"))
}

//Personal.AI order the ending
