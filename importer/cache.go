package importer

import (
	"sync"
	"sync/atomic"

	"github.com/golang/groupcache/lru"
	"github.com/golang/groupcache/singleflight"

	"github.com/lvillar/pdftpl/reader"
)

// DefaultCacheEntries bounds a Cache created with a non-positive size.
const DefaultCacheEntries = 64

// Cache holds parsed templates keyed by source identity.
//
// An entry is populated once and then only read: parsed documents are immutable,
// so a cached document may be shared by any number of importers and goroutines.
// Concurrent loads of the same key are collapsed into a single parse. Entries
// leave the cache through Invalidate, Purge, or least-recently-used eviction.
type Cache struct {
	mu     sync.Mutex
	lru    *lru.Cache
	group  singleflight.Group
	parses atomic.Int64
}

// NewCache returns a cache holding at most maxEntries parsed templates.
func NewCache(maxEntries int) *Cache {
	if maxEntries <= 0 {
		maxEntries = DefaultCacheEntries
	}
	return &Cache{lru: lru.New(maxEntries)}
}

// get returns the document cached under key, calling parse on a miss.
func (c *Cache) get(key string, parse func() (*reader.Document, error)) (*reader.Document, bool, error) {
	if doc, ok := c.lookup(key); ok {
		return doc, true, nil
	}
	v, err := c.group.Do(key, func() (interface{}, error) {
		if doc, ok := c.lookup(key); ok {
			return doc, nil
		}
		doc, err := parse()
		if err != nil {
			return nil, err
		}
		c.parses.Add(1)
		c.mu.Lock()
		c.lru.Add(key, doc)
		c.mu.Unlock()
		return doc, nil
	})
	if err != nil {
		return nil, false, err
	}
	return v.(*reader.Document), false, nil
}

func (c *Cache) lookup(key string) (*reader.Document, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.lru.Get(key)
	if !ok {
		return nil, false
	}
	return v.(*reader.Document), true
}

// Invalidate drops the entry for key, if any.
func (c *Cache) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lru.Remove(key)
}

// Purge drops every entry.
func (c *Cache) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lru.Clear()
}

// Len returns the number of cached templates.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}

// Parses returns how many templates the cache has parsed since it was created.
func (c *Cache) Parses() int64 {
	return c.parses.Load()
}
