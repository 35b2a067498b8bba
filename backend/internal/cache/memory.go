package cache

import (
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// MemoryCache is the process-local L1 tier. Entries expire lazily on read
// and are swept periodically until Close is called.
type MemoryCache struct {
	store     sync.Map
	size      atomic.Int64
	stop      chan struct{}
	closeOnce sync.Once
}

type cacheItem struct {
	value      interface{}
	expiration time.Time
}

func NewMemoryCache() *MemoryCache {
	return newMemoryCache(time.Minute)
}

func newMemoryCache(sweepEvery time.Duration) *MemoryCache {
	cache := &MemoryCache{stop: make(chan struct{})}

	go cache.cleanup(sweepEvery)

	return cache
}

func (c *MemoryCache) Set(key string, value interface{}, ttl time.Duration) {
	if _, loaded := c.store.Swap(key, &cacheItem{value: value, expiration: time.Now().Add(ttl)}); !loaded {
		c.size.Add(1)
	}
}

func (c *MemoryCache) Get(key string) (interface{}, bool) {
	item, exists := c.store.Load(key)
	if !exists {
		return nil, false
	}

	entry := item.(*cacheItem)
	if time.Now().After(entry.expiration) {
		c.Delete(key)
		return nil, false
	}

	return entry.value, true
}

func (c *MemoryCache) Delete(key string) {
	if _, loaded := c.store.LoadAndDelete(key); loaded {
		c.size.Add(-1)
	}
}

func (c *MemoryCache) DeletePattern(pattern string) {
	c.store.Range(func(key, _ interface{}) bool {
		if matchPattern(key.(string), pattern) {
			c.Delete(key.(string))
		}
		return true
	})
}

func (c *MemoryCache) Len() int {
	return int(c.size.Load())
}

func (c *MemoryCache) Stats() map[string]interface{} {
	return map[string]interface{}{
		"items": c.Len(),
		"type":  "memory",
	}
}

func (c *MemoryCache) cleanup(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case now := <-ticker.C:
			c.store.Range(func(key, value interface{}) bool {
				if now.After(value.(*cacheItem).expiration) {
					c.Delete(key.(string))
				}
				return true
			})
		}
	}
}

func (c *MemoryCache) Close() error {
	c.closeOnce.Do(func() { close(c.stop) })
	return nil
}

// matchPattern supports "*" and trailing-wildcard prefixes, the subset of
// Redis glob syntax the cache uses.
func matchPattern(text, pattern string) bool {
	if pattern == "*" {
		return true
	}

	if prefix, ok := strings.CutSuffix(pattern, "*"); ok {
		return strings.HasPrefix(text, prefix)
	}

	return text == pattern
}
