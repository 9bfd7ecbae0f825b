package workflow

import (
	"context"
	"fmt"
	"time"

	"github.com/rinarakaki/graphrag/internal/config"
	"github.com/rinarakaki/graphrag/internal/pipelineerr"
	"github.com/rinarakaki/graphrag/internal/types"
	"github.com/rinarakaki/graphrag/internal/types/interfaces"
)

// Delta is the set of newly-seen documents an incremental run must index,
// computed as dataset \ prior.documents.by_id (spec §4.12 "Incremental
// mode").
type Delta struct {
	NewDocuments []types.Document
}

// computeDelta compares the freshly-loaded dataset against the documents
// table already present in priorStorage (empty/missing table ⇒ every
// document is new).
func computeDelta(ctx context.Context, priorStorage interfaces.TableStorage, dataset []types.Document) (Delta, error) {
	var prior []types.Document
	if ok, err := priorStorage.Has(ctx, "documents.parquet"); err == nil && ok {
		if err := priorStorage.ReadTable(ctx, "documents", &prior); err != nil {
			return Delta{}, err
		}
	}

	priorIDs := make(map[string]bool, len(prior))
	for _, d := range prior {
		priorIDs[d.ID] = true
	}

	var delta Delta
	for _, d := range dataset {
		if !priorIDs[d.ID] {
			delta.NewDocuments = append(delta.NewDocuments, d)
		}
	}
	return delta, nil
}

// RunIncremental is the update path of spec §4.12's incremental mode. It
// computes the delta of dataset against the documents table in r.Storage.
// An empty delta warns and returns without mutating any files (the S5
// scenario: "Re-run update over identical inputs ⇒ pipeline emits a
// single warning 'no new documents', exit code 0, no files mutated.").
//
// For a non-empty delta it calls snapshotStorage (when non-nil) with a UTC
// timestamp and discards the storage it returns, runs workflows via Run
// against r.Storage, and then calls mergeFn (when non-nil) with the run's
// results. The delta is used only for the emptiness check: the workflows
// run on whatever documents they were built with, and RunIncremental
// itself copies no prior output, writes no separate delta folder, and
// reassigns no ids; any snapshot or merge work is done by the two
// caller-supplied functions.
func (r *Runner) RunIncremental(
	ctx context.Context,
	cfg *config.Config,
	dataset []types.Document,
	workflows []Workflow,
	snapshotStorage func(timestamp string) (interfaces.TableStorage, error),
	mergeFn func(ctx context.Context, delta []types.PipelineRunResult) error,
) ([]types.PipelineRunResult, error) {
	delta, err := computeDelta(ctx, r.Storage, dataset)
	if err != nil {
		return nil, err
	}

	if len(delta.NewDocuments) == 0 {
		r.Callbacks.Warning("no new documents", nil)
		return nil, nil
	}

	if snapshotStorage != nil {
		if _, err := snapshotStorage(time.Now().UTC().Format("20060102T150405Z")); err != nil {
			return nil, pipelineerr.Wrap(pipelineerr.StorageError, "snapshotting prior output", err)
		}
	}

	results, err := r.Run(ctx, cfg, workflows)
	if err != nil {
		return results, err
	}

	if mergeFn != nil {
		if err := mergeFn(ctx, results); err != nil {
			return results, fmt.Errorf("merging delta into live output: %w", err)
		}
	}
	return results, nil
}
