// Package workflow implements the pipeline runner (spec §4.12, capability
// C12): an ordered list of named workflow functions executed sequentially
// against a shared PipelineRunContext, with a crash-resumable context.json/
// stats.json snapshot persisted after every stage. Grounded on the
// teacher's task-dispatch shape in internal/common/asyncq.go (a named
// handler registry driven to completion by a server loop), adapted from
// asynchronous queue consumption to a synchronous, ordered workflow list
// since spec §4.12 requires declared-order sequential execution rather
// than queue-fair dispatch.
package workflow

import (
	"context"
	"time"

	"github.com/rinarakaki/graphrag/internal/config"
	"github.com/rinarakaki/graphrag/internal/pipelineerr"
	"github.com/rinarakaki/graphrag/internal/types"
	"github.com/rinarakaki/graphrag/internal/types/interfaces"
)

// Workflow is one named pipeline stage. Run receives the resolved config
// and the shared run context and returns the state it contributes (merged
// into PipelineRunContext.State) or an error that halts the pipeline.
type Workflow struct {
	Name string
	Run  func(ctx context.Context, cfg *config.Config, rc *PipelineRunContext) (map[string]any, error)
}

// Runner drives an ordered workflow list to completion (spec §4.12).
type Runner struct {
	Storage   interfaces.TableStorage
	Cache     interfaces.Cache
	Callbacks types.WorkflowCallbacks
}

func New(storage interfaces.TableStorage, cache interfaces.Cache, callbacks types.WorkflowCallbacks) *Runner {
	return &Runner{Storage: storage, Cache: cache, Callbacks: callbacks}
}

// Run executes workflows in declared order, persisting context.json and
// stats.json after each one. It halts on the first workflow error,
// returning the results gathered so far including the terminal failure
// (spec §4.12 point 4).
func (r *Runner) Run(ctx context.Context, cfg *config.Config, workflows []Workflow) ([]types.PipelineRunResult, error) {
	rc, err := newRunContext(ctx, r.Storage, r.Cache, r.Callbacks)
	if err != nil {
		return nil, err
	}

	names := make([]string, len(workflows))
	for i, wf := range workflows {
		names[i] = wf.Name
	}
	r.Callbacks.PipelineStart(names)

	runStart := time.Now()
	var results []types.PipelineRunResult

	for _, wf := range workflows {
		r.Callbacks.WorkflowStart(wf.Name)
		stageStart := time.Now()

		output, err := runStage(ctx, cfg, rc, wf)
		elapsed := time.Since(stageStart)
		rc.Stats.Workflows[wf.Name] = WorkflowStats{Overall: elapsed}

		if err != nil {
			r.Callbacks.Error("workflow failed", err, "", map[string]any{"workflow": wf.Name})
			result := types.PipelineRunResult{WorkflowName: wf.Name, Errors: []error{err}}
			results = append(results, result)
			rc.Stats.TotalRuntime = time.Since(runStart)
			_ = rc.persist(ctx)
			r.Callbacks.WorkflowEnd(wf.Name)
			r.Callbacks.PipelineEnd(results)
			return results, err
		}

		for k, v := range output {
			rc.State[k] = v
		}
		results = append(results, types.PipelineRunResult{WorkflowName: wf.Name, State: output})

		if err := rc.persist(ctx); err != nil {
			return results, err
		}
		r.Callbacks.WorkflowEnd(wf.Name)
	}

	rc.Stats.TotalRuntime = time.Since(runStart)
	if err := rc.persist(ctx); err != nil {
		return results, err
	}
	r.Callbacks.PipelineEnd(results)
	return results, nil
}

// runStage runs one workflow, converting a panic into a terminal
// pipelineerr.Error instead of crashing the whole runner (spec §4.12 point
// 4 treats any exception inside a workflow as a halting failure, panics
// included).
func runStage(ctx context.Context, cfg *config.Config, rc *PipelineRunContext, wf Workflow) (output map[string]any, err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			err = pipelineerr.New(pipelineerr.StorageError, "workflow panicked", map[string]any{"recovered": recovered})
		}
	}()
	return wf.Run(ctx, cfg, rc)
}
