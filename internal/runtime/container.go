// Package runtime provides a scoped dependency-injection container for the
// pipeline process. Unlike a single package-level singleton, containers are
// keyed by scope so multiple pipeline runs (or a run and a query server)
// embedded in the same process do not share LLM-manager or cache state.
package runtime

import (
	"sync"

	"go.uber.org/dig"
)

const defaultScope = "default"

var (
	mu         sync.Mutex
	containers = map[string]*dig.Container{}
)

// GetContainer returns the dig container for the default scope, creating it
// on first use.
func GetContainer() *dig.Container {
	return GetScopedContainer(defaultScope)
}

// GetScopedContainer returns the dig container registered under scope,
// creating an empty one on first use. Two distinct scopes never share a
// registration, which is what lets a host process run more than one
// pipeline (or a pipeline alongside a query server) concurrently.
func GetScopedContainer(scope string) *dig.Container {
	mu.Lock()
	defer mu.Unlock()
	c, ok := containers[scope]
	if !ok {
		c = dig.New()
		containers[scope] = c
	}
	return c
}

// ResetScope discards the container registered under scope. Intended for
// tests and for incremental-update runs that rebuild the container between
// the full pass and the delta pass.
func ResetScope(scope string) {
	mu.Lock()
	defer mu.Unlock()
	delete(containers, scope)
}
