package workflow

import (
	"context"
	"encoding/json"

	"github.com/hibiken/asynq"

	"github.com/rinarakaki/graphrag/internal/config"
	"github.com/rinarakaki/graphrag/internal/pipelineerr"
)

// TypeReembedField is the asynq task type for a background re-embedding
// job: re-run the embedder for one field (e.g. "entity.description") over
// the rows named by ids. Tasks are enqueued only through
// Dispatcher.EnqueueReembedField; RunIncremental does not enqueue any.
const TypeReembedField = "workflow:reembed_field"

// ReembedFieldPayload is the JSON body of a TypeReembedField task.
type ReembedFieldPayload struct {
	IndexName string   `json:"index_name"`
	IDs       []string `json:"ids"`
}

// Dispatcher wraps an asynq.Client for enqueuing background re-embedding
// jobs, grounded on the teacher's internal/common/asyncq.go client/server
// pair. A nil Dispatcher (cfg.Asynq.Addr unset) means the caller should run
// re-embedding inline instead of enqueuing it.
type Dispatcher struct {
	client *asynq.Client
}

// NewDispatcher returns nil, nil when cfg.Addr is empty: background
// dispatch is optional, and callers must fall back to inline re-embedding.
func NewDispatcher(cfg config.AsynqConfig) (*Dispatcher, error) {
	if cfg.Addr == "" {
		return nil, nil
	}
	client := asynq.NewClient(asynq.RedisClientOpt{
		Addr:         cfg.Addr,
		Username:     cfg.Username,
		Password:     cfg.Password,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})
	return &Dispatcher{client: client}, nil
}

// EnqueueReembedField submits one field's delta ids for background
// re-embedding and returns immediately; the task is consumed by a server
// started with RunServer.
func (d *Dispatcher) EnqueueReembedField(ctx context.Context, indexName string, ids []string) error {
	payload, err := json.Marshal(ReembedFieldPayload{IndexName: indexName, IDs: ids})
	if err != nil {
		return pipelineerr.Wrap(pipelineerr.StorageError, "encoding reembed task payload", err)
	}
	task := asynq.NewTask(TypeReembedField, payload)
	if _, err := d.client.EnqueueContext(ctx, task); err != nil {
		return pipelineerr.Wrap(pipelineerr.StorageError, "enqueuing reembed task", err)
	}
	return nil
}

func (d *Dispatcher) Close() error {
	return d.client.Close()
}

// RunServer starts an asynq server consuming TypeReembedField tasks with
// handler until ctx is cancelled, the same mux-then-serve shape as the
// teacher's internal/common/asyncq.go run(), generalized to a single
// caller-supplied handler instead of a global handler registry since this
// repo has exactly one background task type.
func RunServer(cfg config.AsynqConfig, handler asynq.HandlerFunc) error {
	srv := asynq.NewServer(
		asynq.RedisClientOpt{
			Addr:         cfg.Addr,
			Username:     cfg.Username,
			Password:     cfg.Password,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
		},
		asynq.Config{
			Concurrency: cfg.Concurrency,
			Queues: map[string]int{
				"critical": 6,
				"default":  3,
				"low":      1,
			},
		},
	)
	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeReembedField, handler)
	return srv.Run(mux)
}
