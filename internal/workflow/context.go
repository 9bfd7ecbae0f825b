package workflow

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rinarakaki/graphrag/internal/pipelineerr"
	"github.com/rinarakaki/graphrag/internal/types"
	"github.com/rinarakaki/graphrag/internal/types/interfaces"
)

// WorkflowStats records the timing of one completed workflow stage.
type WorkflowStats struct {
	Overall time.Duration `json:"overall"`
}

// RunStats is the per-run accounting persisted to stats.json (spec §4.12,
// §6 filesystem layout).
type RunStats struct {
	TotalRuntime  time.Duration            `json:"total_runtime"`
	NumDocuments  int                      `json:"num_documents"`
	InputLoadTime time.Duration            `json:"input_load_time"`
	Workflows     map[string]WorkflowStats `json:"workflows"`
}

func newRunStats() *RunStats {
	return &RunStats{Workflows: map[string]WorkflowStats{}}
}

// PipelineRunContext is the bundle a workflow function is handed: the
// stats accumulator, the table/blob storage root for this run, the shared
// cache, the callback bus, and an arbitrary state map workflows use to
// pass data forward without widening every function signature (spec
// §4.12's `PipelineRunContext{stats, storage, cache, callbacks, state}`).
type PipelineRunContext struct {
	Stats     *RunStats
	Storage   interfaces.TableStorage
	Cache     interfaces.Cache
	Callbacks types.WorkflowCallbacks
	State     map[string]any
}

const (
	contextStateKey = "context.json"
	statsKey        = "stats.json"
)

// newRunContext builds a fresh PipelineRunContext, loading a prior
// context.json/stats.json from storage if present so a resumed run picks
// up where a crash left off.
func newRunContext(ctx context.Context, storage interfaces.TableStorage, cache interfaces.Cache, callbacks types.WorkflowCallbacks) (*PipelineRunContext, error) {
	rc := &PipelineRunContext{
		Stats:     newRunStats(),
		Storage:   storage,
		Cache:     cache,
		Callbacks: callbacks,
		State:     map[string]any{},
	}

	if ok, err := storage.Has(ctx, contextStateKey); err == nil && ok {
		data, err := storage.Get(ctx, contextStateKey)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(data, &rc.State); err != nil {
			return nil, pipelineerr.Wrap(pipelineerr.StorageError, "decoding prior context.json", err)
		}
	}
	if ok, err := storage.Has(ctx, statsKey); err == nil && ok {
		data, err := storage.Get(ctx, statsKey)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(data, rc.Stats); err != nil {
			return nil, pipelineerr.Wrap(pipelineerr.StorageError, "decoding prior stats.json", err)
		}
	}
	return rc, nil
}

// persist writes context.json and stats.json, the crash-resumable
// snapshot the runner refreshes after every workflow stage.
func (rc *PipelineRunContext) persist(ctx context.Context) error {
	stateData, err := json.Marshal(rc.State)
	if err != nil {
		return pipelineerr.Wrap(pipelineerr.StorageError, "encoding context.json", err)
	}
	if err := rc.Storage.Set(ctx, contextStateKey, stateData); err != nil {
		return err
	}

	statsData, err := json.Marshal(rc.Stats)
	if err != nil {
		return pipelineerr.Wrap(pipelineerr.StorageError, "encoding stats.json", err)
	}
	return rc.Storage.Set(ctx, statsKey, statsData)
}
