package cache

import (
	"context"

	"github.com/rinarakaki/graphrag/internal/store"
	"github.com/rinarakaki/graphrag/internal/types/interfaces"
)

// FileCache adapts a FileStorage into a best-effort Cache: Get misses
// translate a storage-not-found condition into (nil, false, nil) rather
// than surfacing a pipelineerr.StorageError, since cache misses are a
// normal outcome and not a failure.
type FileCache struct {
	storage *store.FileStorage
}

func NewFileCache(dir string) (*FileCache, error) {
	s, err := store.NewFileStorage(dir)
	if err != nil {
		return nil, err
	}
	return &FileCache{storage: s}, nil
}

func (c *FileCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	has, err := c.storage.Has(ctx, key)
	if err != nil || !has {
		return nil, false, err
	}
	v, err := c.storage.Get(ctx, key)
	if err != nil {
		return nil, false, err
	}
	return v, true, nil
}

func (c *FileCache) Set(ctx context.Context, key string, value []byte) error {
	return c.storage.Set(ctx, key, value)
}

func (c *FileCache) Has(ctx context.Context, key string) (bool, error) {
	return c.storage.Has(ctx, key)
}

func (c *FileCache) Delete(ctx context.Context, key string) error {
	return c.storage.Delete(ctx, key)
}

func (c *FileCache) Clear(ctx context.Context) error {
	return c.storage.Clear(ctx)
}

func (c *FileCache) Child(name string) interfaces.Cache {
	return &FileCache{storage: c.storage.Child(name).(*store.FileStorage)}
}

var _ interfaces.Cache = (*FileCache)(nil)
