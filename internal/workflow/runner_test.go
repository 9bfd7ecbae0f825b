package workflow

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rinarakaki/graphrag/internal/config"
	"github.com/rinarakaki/graphrag/internal/store"
	"github.com/rinarakaki/graphrag/internal/types"
)

type recordingCallbacks struct {
	started, ended []string
	warnings       []string
	errors         []string
	pipelineEnds   int
}

func (c *recordingCallbacks) PipelineStart(names []string)                 {}
func (c *recordingCallbacks) PipelineEnd(results []types.PipelineRunResult) { c.pipelineEnds++ }
func (c *recordingCallbacks) WorkflowStart(name string)                    { c.started = append(c.started, name) }
func (c *recordingCallbacks) WorkflowEnd(name string)                      { c.ended = append(c.ended, name) }
func (c *recordingCallbacks) Progress(p types.Progress)                    {}
func (c *recordingCallbacks) Error(msg string, cause error, stack string, details map[string]any) {
	c.errors = append(c.errors, msg)
}
func (c *recordingCallbacks) Warning(msg string, details map[string]any) { c.warnings = append(c.warnings, msg) }
func (c *recordingCallbacks) Log(msg string, details map[string]any)    {}

func TestRunnerExecutesWorkflowsInOrderAndPersistsState(t *testing.T) {
	tables := store.NewParquetTables(store.NewMemoryStorage())
	cb := &recordingCallbacks{}
	r := New(tables, nil, cb)

	var order []string
	workflows := []Workflow{
		{Name: "a", Run: func(ctx context.Context, cfg *config.Config, rc *PipelineRunContext) (map[string]any, error) {
			order = append(order, "a")
			return map[string]any{"a_done": true}, nil
		}},
		{Name: "b", Run: func(ctx context.Context, cfg *config.Config, rc *PipelineRunContext) (map[string]any, error) {
			order = append(order, "b")
			assert.Equal(t, true, rc.State["a_done"])
			return map[string]any{"b_done": true}, nil
		}},
	}

	results, err := r.Run(context.Background(), &config.Config{}, workflows)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, order)
	assert.Len(t, results, 2)
	assert.Equal(t, 1, cb.pipelineEnds)
	assert.Empty(t, cb.errors)

	ok, err := tables.Has(context.Background(), "context.json")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = tables.Has(context.Background(), "stats.json")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRunnerHaltsOnWorkflowError(t *testing.T) {
	tables := store.NewParquetTables(store.NewMemoryStorage())
	cb := &recordingCallbacks{}
	r := New(tables, nil, cb)

	var ran []string
	workflows := []Workflow{
		{Name: "a", Run: func(ctx context.Context, cfg *config.Config, rc *PipelineRunContext) (map[string]any, error) {
			ran = append(ran, "a")
			return nil, errors.New("boom")
		}},
		{Name: "b", Run: func(ctx context.Context, cfg *config.Config, rc *PipelineRunContext) (map[string]any, error) {
			ran = append(ran, "b")
			return nil, nil
		}},
	}

	results, err := r.Run(context.Background(), &config.Config{}, workflows)
	require.Error(t, err)
	assert.Equal(t, []string{"a"}, ran)
	require.Len(t, results, 1)
	assert.Equal(t, "a", results[0].WorkflowName)
	assert.Len(t, results[0].Errors, 1)
	assert.Len(t, cb.errors, 1)
}

func TestRunnerRecoversWorkflowPanic(t *testing.T) {
	tables := store.NewParquetTables(store.NewMemoryStorage())
	cb := &recordingCallbacks{}
	r := New(tables, nil, cb)

	workflows := []Workflow{
		{Name: "panics", Run: func(ctx context.Context, cfg *config.Config, rc *PipelineRunContext) (map[string]any, error) {
			panic("unexpected")
		}},
	}

	results, err := r.Run(context.Background(), &config.Config{}, workflows)
	require.Error(t, err)
	require.Len(t, results, 1)
	assert.Len(t, results[0].Errors, 1)
}

func TestIncrementalEmptyDeltaWarnsAndDoesNotRun(t *testing.T) {
	tables := store.NewParquetTables(store.NewMemoryStorage())
	priorDocs := []types.Document{{ID: "doc-1"}}
	require.NoError(t, tables.WriteTable(context.Background(), "documents", priorDocs))

	cb := &recordingCallbacks{}
	r := New(tables, nil, cb)

	ran := false
	workflows := []Workflow{
		{Name: "only", Run: func(ctx context.Context, cfg *config.Config, rc *PipelineRunContext) (map[string]any, error) {
			ran = true
			return nil, nil
		}},
	}

	results, err := r.RunIncremental(context.Background(), &config.Config{}, priorDocs, workflows, nil, nil)
	require.NoError(t, err)
	assert.Nil(t, results)
	assert.False(t, ran)
	require.Len(t, cb.warnings, 1)
	assert.Contains(t, cb.warnings[0], "no new documents")
}

func TestIncrementalNonEmptyDeltaRunsWorkflows(t *testing.T) {
	tables := store.NewParquetTables(store.NewMemoryStorage())
	priorDocs := []types.Document{{ID: "doc-1"}}
	require.NoError(t, tables.WriteTable(context.Background(), "documents", priorDocs))

	cb := &recordingCallbacks{}
	r := New(tables, nil, cb)

	ran := false
	workflows := []Workflow{
		{Name: "only", Run: func(ctx context.Context, cfg *config.Config, rc *PipelineRunContext) (map[string]any, error) {
			ran = true
			return nil, nil
		}},
	}

	dataset := []types.Document{{ID: "doc-1"}, {ID: "doc-2"}}
	results, err := r.RunIncremental(context.Background(), &config.Config{}, dataset, workflows, nil, nil)
	require.NoError(t, err)
	assert.True(t, ran)
	assert.Len(t, results, 1)
	assert.Empty(t, cb.warnings)
}
