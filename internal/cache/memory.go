// Package cache implements the interfaces.Cache contract used to skip
// repeat LLM calls for identical (prompt, input) pairs across pipeline
// runs (spec §4.2).
package cache

import (
	"context"
	"path"
	"sync"

	"github.com/rinarakaki/graphrag/internal/types/interfaces"
)

// MemoryCache is an in-process Cache, used by tests and single-shot runs
// where no durable cache is configured.
type MemoryCache struct {
	mu     sync.RWMutex
	prefix string
	data   map[string][]byte
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{data: make(map[string][]byte)}
}

func (c *MemoryCache) key(k string) string {
	if c.prefix == "" {
		return k
	}
	return path.Join(c.prefix, k)
}

func (c *MemoryCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.data[c.key(key)]
	return v, ok, nil
}

func (c *MemoryCache) Set(ctx context.Context, key string, value []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[c.key(key)] = value
	return nil
}

func (c *MemoryCache) Has(ctx context.Context, key string) (bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.data[c.key(key)]
	return ok, nil
}

func (c *MemoryCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, c.key(key))
	return nil
}

func (c *MemoryCache) Clear(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k := range c.data {
		if len(k) >= len(c.prefix) && k[:len(c.prefix)] == c.prefix {
			delete(c.data, k)
		}
	}
	return nil
}

func (c *MemoryCache) Child(name string) interfaces.Cache {
	return &MemoryCache{prefix: path.Join(c.prefix, name), data: c.data}
}

var _ interfaces.Cache = (*MemoryCache)(nil)
