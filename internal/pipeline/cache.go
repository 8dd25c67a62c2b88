package pipeline

import (
	"sync"

	"github.com/jinzhu/copier"
)

// Cache remembers the last import result of each source, keyed by source
// path and validated by the digest of the source bytes.
type Cache struct {
	data map[string]*Result
	mu   sync.RWMutex

	// Stats
	hits   int
	misses int
}

// NewCache creates a new cache.
func NewCache() *Cache {
	return &Cache{
		data: make(map[string]*Result),
	}
}

// Get returns the cached result of source if its digest still matches.
func (c *Cache) Get(source, digest string) (*Result, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	res, ok := c.data[source]
	if ok && res.Digest == digest {
		if out, err := clone(res); err == nil {
			c.hits++
			return out, true
		}
	}
	c.misses++
	return nil, false
}

// Set stores the result of an import. A result that cannot be copied is
// not cached.
func (c *Cache) Set(res *Result) {
	out, err := clone(res)
	if err != nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[res.Source] = out
}

// Delete forgets a source.
func (c *Cache) Delete(source string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, source)
}

// Results returns every cached result.
func (c *Cache) Results() []*Result {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]*Result, 0, len(c.data))
	for _, res := range c.data {
		if cp, err := clone(res); err == nil {
			out = append(out, cp)
		}
	}
	return out
}

// Len returns the number of cached sources.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.data)
}

// Clear clears the cache.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = make(map[string]*Result)
	c.hits = 0
	c.misses = 0
}

// Stats returns cache statistics.
func (c *Cache) Stats() (hits, misses int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hits, c.misses
}

func clone(res *Result) (*Result, error) {
	out := new(Result)
	if err := copier.CopyWithOption(out, res, copier.Option{DeepCopy: true}); err != nil {
		return nil, err
	}
	return out, nil
}
