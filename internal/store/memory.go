package store

import (
	"context"
	"path"
	"sort"
	"sync"
	"time"

	"github.com/rinarakaki/graphrag/internal/pipelineerr"
	"github.com/rinarakaki/graphrag/internal/types/interfaces"
)

type memoryEntry struct {
	value   []byte
	created time.Time
}

// MemoryStorage is an in-process Storage, used by tests and by the basic
// search path when no durable output is configured.
type MemoryStorage struct {
	mu     sync.RWMutex
	prefix string
	data   map[string]memoryEntry
}

// NewMemoryStorage creates an empty root MemoryStorage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{data: make(map[string]memoryEntry)}
}

func (s *MemoryStorage) key(k string) string {
	if s.prefix == "" {
		return k
	}
	return path.Join(s.prefix, k)
}

func (s *MemoryStorage) Find(ctx context.Context, pattern string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []string
	for k := range s.data {
		if !hasPrefix(k, s.prefix) {
			continue
		}
		rel := stripPrefix(k, s.prefix)
		ok, err := path.Match(pattern, rel)
		if err != nil {
			return nil, pipelineerr.Wrap(pipelineerr.StorageError, "matching pattern", err)
		}
		if ok {
			out = append(out, rel)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (s *MemoryStorage) Get(ctx context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.data[s.key(key)]
	if !ok {
		return nil, pipelineerr.New(pipelineerr.StorageError, "key not found", map[string]any{"key": key})
	}
	return e.value, nil
}

func (s *MemoryStorage) Set(ctx context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[s.key(key)] = memoryEntry{value: value, created: time.Now()}
	return nil
}

func (s *MemoryStorage) Has(ctx context.Context, key string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.data[s.key(key)]
	return ok, nil
}

func (s *MemoryStorage) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, s.key(key))
	return nil
}

func (s *MemoryStorage) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k := range s.data {
		if hasPrefix(k, s.prefix) {
			delete(s.data, k)
		}
	}
	return nil
}

func (s *MemoryStorage) Child(name string) interfaces.Storage {
	return &MemoryStorage{prefix: path.Join(s.prefix, name), data: s.data}
}

func (s *MemoryStorage) Keys(ctx context.Context) ([]string, error) {
	return s.Find(ctx, "*")
}

func (s *MemoryStorage) CreationDate(ctx context.Context, key string) (time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.data[s.key(key)]
	if !ok {
		return time.Time{}, pipelineerr.New(pipelineerr.StorageError, "key not found", map[string]any{"key": key})
	}
	return e.created, nil
}

func hasPrefix(key, prefix string) bool {
	if prefix == "" {
		return true
	}
	return len(key) >= len(prefix) && key[:len(prefix)] == prefix
}

func stripPrefix(key, prefix string) string {
	if prefix == "" {
		return key
	}
	rel := key[len(prefix):]
	for len(rel) > 0 && rel[0] == '/' {
		rel = rel[1:]
	}
	return rel
}

var _ interfaces.Storage = (*MemoryStorage)(nil)
