// Package embedcache provides a capacity-bounded cache of text embeddings.
//
// The cache maps a hash of the exact input text to a previously computed
// embedding vector, so repeated embedding of identical text never reaches the
// external embedding service. Eviction is least-recently-used; the entry
// count never exceeds the configured capacity.
package embedcache

import (
	"crypto/md5"
	"encoding/hex"
	"errors"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCapacity is the default maximum number of cached embeddings.
const DefaultCapacity = 1000

// Cache is an LRU cache of text embeddings. It is safe for concurrent use.
type Cache struct {
	entries *lru.Cache[string, []float32]
}

// New creates a cache holding at most capacity embeddings. A capacity of 0
// or less falls back to DefaultCapacity.
func New(capacity int) (*Cache, error) {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}

	entries, err := lru.New[string, []float32](capacity)
	if err != nil {
		return nil, errors.New("embedcache: " + err.Error())
	}
	return &Cache{entries: entries}, nil
}

// Get returns the cached embedding for the given text, if present. A hit
// marks the entry as recently used.
func (c *Cache) Get(text string) ([]float32, bool) {
	return c.entries.Get(hashKey(text))
}

// Set stores the embedding for the given text, evicting the least-recently-
// used entry if the cache is at capacity.
func (c *Cache) Set(text string, embedding []float32) {
	c.entries.Add(hashKey(text), embedding)
}

// Len returns the current number of cached entries.
func (c *Cache) Len() int {
	return c.entries.Len()
}

// hashKey derives the cache key from the exact text bytes, so identical text
// always hits regardless of how the string was produced.
func hashKey(text string) string {
	sum := md5.Sum([]byte(text))
	return hex.EncodeToString(sum[:])
}
