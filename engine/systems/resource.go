package systems

import (
	"sync"

	"github.com/lwjglgamedev/vulkanbook-go/engine/core"
)

// ResourceCache is a keyed cache of GPU-backed resources with single
// cleanup semantics. GetOrCreate runs the factory at most once per key;
// Cleanup destroys every entry exactly once and poisons the cache, after
// which all operations fail with core.ErrCacheDestroyed.
type ResourceCache[T any] struct {
	mu        sync.Mutex
	entries   map[string]T
	order     []string
	destroy   func(T)
	destroyed bool
}

// NewResourceCache builds a cache that releases entries with destroy
// during Cleanup and Remove. destroy may be nil for resources without
// teardown.
func NewResourceCache[T any](destroy func(T)) *ResourceCache[T] {
	return &ResourceCache[T]{
		entries: make(map[string]T),
		destroy: destroy,
	}
}

// GetOrCreate returns the cached value for key, invoking factory to
// build it on first use. A factory error is not cached.
func (c *ResourceCache[T]) GetOrCreate(key string, factory func() (T, error)) (T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero T
	if c.destroyed {
		return zero, core.ErrCacheDestroyed
	}
	if v, ok := c.entries[key]; ok {
		return v, nil
	}
	v, err := factory()
	if err != nil {
		return zero, err
	}
	c.entries[key] = v
	c.order = append(c.order, key)
	return v, nil
}

// Get returns the cached value without creating it.
func (c *ResourceCache[T]) Get(key string) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero T
	if c.destroyed {
		return zero, false
	}
	v, ok := c.entries[key]
	if !ok {
		return zero, false
	}
	return v, true
}

// Remove destroys and forgets one entry.
func (c *ResourceCache[T]) Remove(key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.destroyed {
		return core.ErrCacheDestroyed
	}
	v, ok := c.entries[key]
	if !ok {
		return nil
	}
	if c.destroy != nil {
		c.destroy(v)
	}
	delete(c.entries, key)
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	return nil
}

// Len reports the number of live entries; zero after cleanup.
func (c *ResourceCache[T]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Cleanup destroys every entry in insertion order. It is idempotent:
// only the first call destroys; later calls are no-ops. All subsequent
// cache operations return core.ErrCacheDestroyed.
func (c *ResourceCache[T]) Cleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.destroyed {
		return
	}
	c.destroyed = true
	if c.destroy != nil {
		for _, key := range c.order {
			c.destroy(c.entries[key])
		}
	}
	c.entries = nil
	c.order = nil
}
