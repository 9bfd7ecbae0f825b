package llm

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v5"
	"golang.org/x/time/rate"

	"github.com/rinarakaki/graphrag/internal/pipelineerr"
	"github.com/rinarakaki/graphrag/internal/types"
)

// Limiter bounds both requests-per-minute and concurrent-in-flight calls to
// one model endpoint, and retries llm_transient failures under exponential
// backoff (spec §4.4). It replaces the teacher's hand-rolled sleep loop
// with the two libraries the rest of the pack reaches for this job.
type Limiter struct {
	requests *rate.Limiter
	inflight chan struct{}
	cfg      types.ModelConfig
}

// NewLimiter builds a Limiter from a model's ModelConfig. A zero
// RequestsPerMinute/ConcurrentRequests means "unbounded".
func NewLimiter(cfg types.ModelConfig) *Limiter {
	l := &Limiter{cfg: cfg}
	if cfg.RequestsPerMinute > 0 {
		l.requests = rate.NewLimiter(rate.Limit(float64(cfg.RequestsPerMinute)/60.0), cfg.RequestsPerMinute)
	}
	if cfg.ConcurrentRequests > 0 {
		l.inflight = make(chan struct{}, cfg.ConcurrentRequests)
	}
	return l
}

// Do runs fn under the configured rate limit, concurrency cap, and retry
// policy. fn must classify its own errors via pipelineerr so Do knows
// which failures are worth retrying.
func (l *Limiter) Do(ctx context.Context, fn func(context.Context) error) error {
	if l.requests != nil {
		if err := l.requests.Wait(ctx); err != nil {
			return pipelineerr.Wrap(pipelineerr.Cancelled, "waiting for rate limiter", err)
		}
	}
	if l.inflight != nil {
		select {
		case l.inflight <- struct{}{}:
			defer func() { <-l.inflight }()
		case <-ctx.Done():
			return pipelineerr.Wrap(pipelineerr.Cancelled, "waiting for concurrency slot", ctx.Err())
		}
	}

	maxWait := time.Duration(l.cfg.MaxRetryWait*float64(time.Second))
	if maxWait <= 0 {
		maxWait = 30 * time.Second
	}

	operation := func(ctx context.Context) (struct{}, error) {
		err := fn(ctx)
		if err == nil {
			return struct{}{}, nil
		}
		if pipelineerr.IsKind(err, pipelineerr.LLMTransient) {
			return struct{}{}, err
		}
		return struct{}{}, backoff.Permanent(err)
	}

	retryOpts := []backoff.RetryOption{
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxElapsedTime(maxWait),
	}
	if l.cfg.MaxRetries >= 0 {
		retryOpts = append(retryOpts, backoff.WithMaxTries(uint(l.cfg.MaxRetries)+1))
	}

	_, err := backoff.Retry(ctx, func() (struct{}, error) { return operation(ctx) }, retryOpts...)
	return err
}
