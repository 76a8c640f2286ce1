package cachemanager

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/dlclark/regexp2"

	"github.com/zjrosen/lexkit/internal/log"
)

// PatternKey identifies a compiled pattern: its source and compile flags.
type PatternKey string

// PatternCache compiles regexp2 patterns once and shares them between
// grammar builds. Compiled patterns are safe for concurrent use.
type PatternCache struct {
	cache    CacheManager[PatternKey, *regexp2.Regexp]
	ttl      time.Duration
	compiles atomic.Int64
}

// NewPatternCache creates a pattern cache whose entries live for ttl after
// their last use.
func NewPatternCache(ttl, cleanupInterval time.Duration) *PatternCache {
	if ttl <= 0 {
		ttl = DefaultExpiration
	}
	return &PatternCache{
		cache: NewInMemoryCacheManager[PatternKey, *regexp2.Regexp]("patterns", ttl, cleanupInterval),
		ttl:   ttl,
	}
}

// Compile returns the compiled pattern, compiling it on a miss.
func (c *PatternCache) Compile(ctx context.Context, pattern string, flags regexp2.RegexOptions) (*regexp2.Regexp, error) {
	key := PatternKey(fmt.Sprintf("%d:%s", flags, pattern))
	if re, ok := c.cache.GetWithRefresh(ctx, key, c.ttl); ok {
		return re, nil
	}

	re, err := regexp2.Compile(pattern, flags)
	if err != nil {
		log.ErrorErr(log.CatCache, "pattern does not compile", err, "pattern", pattern)
		return nil, fmt.Errorf("compiling %q: %w", pattern, err)
	}
	c.compiles.Add(1)
	c.cache.Set(ctx, key, re, c.ttl)
	return re, nil
}

// Compiles returns how many patterns were compiled (cache misses that succeeded).
func (c *PatternCache) Compiles() int64 {
	return c.compiles.Load()
}
