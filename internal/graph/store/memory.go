package store

import (
	"context"
	"sync"

	"github.com/rinarakaki/graphrag/internal/types"
	"github.com/rinarakaki/graphrag/internal/types/interfaces"
)

// MemoryGraphStore is an in-process GraphStore used by tests and the
// default configuration when no Neo4j URI is set.
type MemoryGraphStore struct {
	mu            sync.RWMutex
	entities      map[string]map[string]types.Entity // namespace -> title -> entity
	relationships map[string][]types.Relationship     // namespace -> relationships
}

func NewMemoryGraphStore() *MemoryGraphStore {
	return &MemoryGraphStore{
		entities:      make(map[string]map[string]types.Entity),
		relationships: make(map[string][]types.Relationship),
	}
}

func (s *MemoryGraphStore) MergeEntities(ctx context.Context, namespace string, entities []types.Entity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ns, ok := s.entities[namespace]
	if !ok {
		ns = make(map[string]types.Entity)
		s.entities[namespace] = ns
	}
	for _, e := range entities {
		ns[e.Title] = e
	}
	return nil
}

func (s *MemoryGraphStore) MergeRelationships(ctx context.Context, namespace string, relationships []types.Relationship) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing := s.relationships[namespace]
	index := make(map[string]int, len(existing))
	for i, r := range existing {
		index[r.Source+"\x00"+r.Target] = i
	}
	for _, r := range relationships {
		key := r.Source + "\x00" + r.Target
		if i, dup := index[key]; dup {
			existing[i] = r
			continue
		}
		index[key] = len(existing)
		existing = append(existing, r)
	}
	s.relationships[namespace] = existing
	return nil
}

func (s *MemoryGraphStore) Neighbours(ctx context.Context, namespace string, entityTitle string, hops int) ([]types.Entity, []types.Relationship, error) {
	if hops <= 0 {
		hops = 1
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	frontier := map[string]struct{}{entityTitle: {}}
	visited := map[string]struct{}{}
	var relOut []types.Relationship

	for hop := 0; hop < hops; hop++ {
		next := map[string]struct{}{}
		for _, r := range s.relationships[namespace] {
			if _, ok := frontier[r.Source]; ok {
				if _, seen := visited[r.Target]; !seen {
					next[r.Target] = struct{}{}
				}
				relOut = append(relOut, r)
			}
			if _, ok := frontier[r.Target]; ok {
				if _, seen := visited[r.Source]; !seen {
					next[r.Source] = struct{}{}
				}
				relOut = append(relOut, r)
			}
		}
		for t := range frontier {
			visited[t] = struct{}{}
		}
		frontier = next
		if len(frontier) == 0 {
			break
		}
	}
	for t := range frontier {
		visited[t] = struct{}{}
	}
	delete(visited, entityTitle)

	entitiesOut := make([]types.Entity, 0, len(visited))
	ns := s.entities[namespace]
	for title := range visited {
		if e, ok := ns[title]; ok {
			entitiesOut = append(entitiesOut, e)
		}
	}
	return entitiesOut, relOut, nil
}

func (s *MemoryGraphStore) DropNamespace(ctx context.Context, namespace string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entities, namespace)
	delete(s.relationships, namespace)
	return nil
}

var _ interfaces.GraphStore = (*MemoryGraphStore)(nil)
