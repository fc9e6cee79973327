package cache

import (
	"fmt"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// URLCache maps resolved thumbnail and avatar URLs by target id and render
// parameters. A resolved image URL for a given id does not change within a
// session, so entries never expire; the LRU bound only caps memory.
type URLCache struct {
	lru *expirable.LRU[string, string]
}

// NewURLCache creates a URL cache holding at most size entries.
func NewURLCache(size int) *URLCache {
	return &URLCache{
		lru: expirable.NewLRU[string, string](size, nil, 0),
	}
}

// Key builds the cache key for one render request.
func (c *URLCache) Key(targetID int64, size, format string) string {
	return fmt.Sprintf("%d:%s:%s", targetID, size, format)
}

// Get returns the cached URL for one render request.
func (c *URLCache) Get(targetID int64, size, format string) (string, bool) {
	return c.lru.Get(c.Key(targetID, size, format))
}

// Add stores a resolved URL.
func (c *URLCache) Add(targetID int64, size, format, url string) {
	c.lru.Add(c.Key(targetID, size, format), url)
}

// Clear removes all entries.
func (c *URLCache) Clear() {
	c.lru.Purge()
}
