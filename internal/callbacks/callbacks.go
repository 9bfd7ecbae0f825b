// Package callbacks implements the WorkflowCallbacks capability set (spec
// §4.3), grounded on the teacher's chat-pipeline EventManager: multiple
// independent listeners (structured logging, tracing, a progress bar) are
// registered once and invoked in registration order on every lifecycle
// event a running workflow emits.
package callbacks

import (
	"sync"

	"github.com/rinarakaki/graphrag/internal/types"
)

// Multiplexer fans every WorkflowCallbacks call out to its registered
// listeners. A panicking or slow listener must not be allowed to wedge the
// pipeline; callers needing isolation should wrap a listener accordingly
// before registering it.
type Multiplexer struct {
	mu        sync.Mutex
	listeners []types.WorkflowCallbacks
}

func NewMultiplexer(listeners ...types.WorkflowCallbacks) *Multiplexer {
	return &Multiplexer{listeners: listeners}
}

// Register adds a listener that will receive every subsequent event.
func (m *Multiplexer) Register(l types.WorkflowCallbacks) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, l)
}

func (m *Multiplexer) each(fn func(types.WorkflowCallbacks)) {
	m.mu.Lock()
	listeners := append([]types.WorkflowCallbacks(nil), m.listeners...)
	m.mu.Unlock()
	for _, l := range listeners {
		fn(l)
	}
}

func (m *Multiplexer) PipelineStart(workflowNames []string) {
	m.each(func(l types.WorkflowCallbacks) { l.PipelineStart(workflowNames) })
}

func (m *Multiplexer) PipelineEnd(results []types.PipelineRunResult) {
	m.each(func(l types.WorkflowCallbacks) { l.PipelineEnd(results) })
}

func (m *Multiplexer) WorkflowStart(name string) {
	m.each(func(l types.WorkflowCallbacks) { l.WorkflowStart(name) })
}

func (m *Multiplexer) WorkflowEnd(name string) {
	m.each(func(l types.WorkflowCallbacks) { l.WorkflowEnd(name) })
}

func (m *Multiplexer) Progress(p types.Progress) {
	m.each(func(l types.WorkflowCallbacks) { l.Progress(p) })
}

func (m *Multiplexer) Error(msg string, cause error, stack string, details map[string]any) {
	m.each(func(l types.WorkflowCallbacks) { l.Error(msg, cause, stack, details) })
}

func (m *Multiplexer) Warning(msg string, details map[string]any) {
	m.each(func(l types.WorkflowCallbacks) { l.Warning(msg, details) })
}

func (m *Multiplexer) Log(msg string, details map[string]any) {
	m.each(func(l types.WorkflowCallbacks) { l.Log(msg, details) })
}

var _ types.WorkflowCallbacks = (*Multiplexer)(nil)
