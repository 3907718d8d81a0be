package datacard

import "sync"

// Cache memoizes analyses per document key and revision. A lookup with a
// revision different from the stored one recomputes the analysis, so results
// always match a fresh scan of the document passed in.
type Cache struct {
	mu       sync.Mutex
	entries  map[string]*cacheEntry
	capacity int
	tick     uint64
}

type cacheEntry struct {
	revision uint64
	analysis *Analysis
	used     uint64
}

// NewCache creates a cache holding at most capacity documents.
// A capacity below 1 defaults to 64.
func NewCache(capacity int) *Cache {
	if capacity < 1 {
		capacity = 64
	}
	return &Cache{
		entries:  make(map[string]*cacheEntry),
		capacity: capacity,
	}
}

// Get returns the analysis of doc for key at revision, computing it when the
// cached entry is missing or stale.
func (c *Cache) Get(key string, revision uint64, doc Document) *Analysis {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.tick++
	if e, ok := c.entries[key]; ok && e.revision == revision {
		e.used = c.tick
		return e.analysis
	}

	a := Analyze(doc)
	c.entries[key] = &cacheEntry{revision: revision, analysis: a, used: c.tick}
	c.evict()
	return a
}

// Invalidate drops the entry for key.
func (c *Cache) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// Len returns the number of cached documents.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// evict removes least recently used entries beyond capacity.
// Caller must hold c.mu.
func (c *Cache) evict() {
	for len(c.entries) > c.capacity {
		var oldestKey string
		var oldest uint64
		first := true
		for k, e := range c.entries {
			if first || e.used < oldest {
				oldestKey, oldest, first = k, e.used, false
			}
		}
		delete(c.entries, oldestKey)
	}
}
