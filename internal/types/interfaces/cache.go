package interfaces

import "context"

// Cache is a namespaced, best-effort key/value cache (spec §4.2, capability
// C2). Unlike Storage, callers must tolerate Get misses and must not rely
// on Set being durable across process restarts for file/memory backends.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Has(ctx context.Context, key string) (bool, error)
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
	Child(name string) Cache
}
