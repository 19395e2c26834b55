package resolver

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheSize bounds the number of memoised resolved sets.
const DefaultCacheSize = 64

// Cache memoises resolved sets by input hash. It is safe for concurrent use.
type Cache struct {
	lru *lru.Cache[string, *ResolvedSet]
}

// NewCache creates a cache holding at most size sets.
func NewCache(size int) *Cache {
	if size <= 0 {
		size = DefaultCacheSize
	}
	// lru.New only errors on non-positive size which we guard above.
	c, _ := lru.New[string, *ResolvedSet](size)
	return &Cache{lru: c}
}

// Get returns the memoised set for hash.
func (c *Cache) Get(hash string) (*ResolvedSet, bool) {
	return c.lru.Get(hash)
}

// Add stores rs under hash.
func (c *Cache) Add(hash string, rs *ResolvedSet) {
	c.lru.Add(hash, rs)
}

// Len returns the number of memoised sets.
func (c *Cache) Len() int { return c.lru.Len() }

// Purge drops every memoised set.
func (c *Cache) Purge() { c.lru.Purge() }
