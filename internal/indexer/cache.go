package indexer

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/maypok86/otter"
	"github.com/mvp-joe/project-indexer/internal/grammar"
	"github.com/mvp-joe/project-indexer/internal/indexer/extraction"
)

// DefaultCacheCapacity bounds how many distinct file contents are remembered.
const DefaultCacheCapacity = 4096

// ExtractionCache remembers extraction results by content so duplicated
// files (vendored copies, generated twins) are parsed once per run.
// Cached results are shared between paths and must not be mutated.
type ExtractionCache struct {
	cache otter.Cache[string, *extraction.FileResult]
}

// NewExtractionCache creates a cache holding up to capacity results.
func NewExtractionCache(capacity int) (*ExtractionCache, error) {
	if capacity <= 0 {
		capacity = DefaultCacheCapacity
	}
	cache, err := otter.MustBuilder[string, *extraction.FileResult](capacity).Build()
	if err != nil {
		return nil, fmt.Errorf("failed to create extraction cache: %w", err)
	}
	return &ExtractionCache{cache: cache}, nil
}

// Get returns the cached result for key.
func (c *ExtractionCache) Get(key string) (*extraction.FileResult, bool) {
	if c == nil {
		return nil, false
	}
	return c.cache.Get(key)
}

// Set stores a result. Nil results are not cached.
func (c *ExtractionCache) Set(key string, result *extraction.FileResult) {
	if c == nil || result == nil {
		return
	}
	c.cache.Set(key, result)
}

// Close releases the cache.
func (c *ExtractionCache) Close() {
	if c == nil {
		return
	}
	c.cache.Close()
}

// cacheKey identifies an extraction by content, language and import mode.
func cacheKey(content []byte, tag grammar.Tag, imports bool) string {
	hash := sha256.Sum256(content)
	return fmt.Sprintf("%s:%s:%t", hex.EncodeToString(hash[:]), tag, imports)
}
