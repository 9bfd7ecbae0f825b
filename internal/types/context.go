// Package types defines the data model and capability contracts shared
// across the indexing pipeline and the query-time search orchestrators:
// the table row types of spec §3, the context keys threaded through
// context.Context, and the event/progress vocabulary of the callback bus.
package types

// ContextKey namespaces values stored on a context.Context so unrelated
// packages never collide on a bare string key.
type ContextKey string

const (
	// LoggerContextKey carries the *logrus.Entry for the current run/request.
	LoggerContextKey ContextKey = "logger"
	// RunIDContextKey carries the pipeline run id or query request id.
	RunIDContextKey ContextKey = "run_id"
)
