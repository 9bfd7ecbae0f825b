// Package interfaces holds the capability contracts shared across pipeline
// packages. Keeping them here, rather than next to a single implementation,
// lets storage/cache/llm/vectorstore/graph packages depend on the contract
// without importing each other.
package interfaces

import (
	"context"
	"io"
	"time"
)

// Storage is a namespaced key/value blob store (spec §4.1, capability C1).
// A Storage instance is rooted at some prefix; Child scopes a new prefix
// beneath it without affecting the parent.
type Storage interface {
	Find(ctx context.Context, pattern string) ([]string, error)
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Has(ctx context.Context, key string) (bool, error)
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
	Child(name string) Storage
	Keys(ctx context.Context) ([]string, error)
	CreationDate(ctx context.Context, key string) (time.Time, error)
}

// TableStorage is the columnar extension of Storage used by pipeline
// workflows to persist and reload typed record sets (spec §3, §4.1).
// Implementations encode rows with parquet-go against the struct tags on
// the types package's record structs.
type TableStorage interface {
	Storage
	WriteTable(ctx context.Context, name string, rows any) error
	ReadTable(ctx context.Context, name string, out any) error
}

// BlobReader exposes streaming access for storage backends that front an
// object store (e.g. minio) rather than a local filesystem.
type BlobReader interface {
	OpenReader(ctx context.Context, key string) (io.ReadCloser, error)
}
