package store

import (
	"context"
	"strconv"
	"sync"

	"github.com/rinarakaki/graphrag/internal/types/interfaces"
)

// IDAllocator hands out the monotonically increasing human_readable_id
// column (spec §3) for one table, one counter per table name (SPEC_FULL.md
// C.1). Seed resumes a counter from a prior snapshot's highest id so ids
// already handed out are not reused. The indexing stages in
// internal/workflow do not use it; they number rows by position.
type IDAllocator struct {
	storage interfaces.Storage
	mu      sync.Mutex
	next    map[string]int64
}

// NewIDAllocator creates an allocator persisting its counters under
// storage's "id_counters" child namespace.
func NewIDAllocator(storage interfaces.Storage) *IDAllocator {
	return &IDAllocator{storage: storage.Child("id_counters"), next: make(map[string]int64)}
}

// Seed sets the next id for table to at least highest+1, used to resume
// counting from a prior snapshot during an incremental run.
func (a *IDAllocator) Seed(table string, highest int64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if highest+1 > a.next[table] {
		a.next[table] = highest + 1
	}
}

// Next returns the next id for table and persists the updated counter.
func (a *IDAllocator) Next(ctx context.Context, table string) (int64, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	id := a.next[table]
	a.next[table] = id + 1
	if a.storage != nil {
		if err := a.storage.Set(ctx, table, []byte(strconv.FormatInt(id+1, 10))); err != nil {
			return 0, err
		}
	}
	return id, nil
}

// Load restores a previously persisted counter for table, if any.
func (a *IDAllocator) Load(ctx context.Context, table string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	has, err := a.storage.Has(ctx, table)
	if err != nil {
		return err
	}
	if !has {
		return nil
	}
	data, err := a.storage.Get(ctx, table)
	if err != nil {
		return err
	}
	v, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return err
	}
	a.next[table] = v
	return nil
}
