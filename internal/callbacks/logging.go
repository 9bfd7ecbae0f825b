package callbacks

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/rinarakaki/graphrag/internal/logger"
	"github.com/rinarakaki/graphrag/internal/types"
)

// LoggingCallbacks renders every workflow lifecycle event through the
// package logger, so a run's console/log-file output needs no separate
// progress-bar implementation.
type LoggingCallbacks struct {
	ctx context.Context
}

func NewLoggingCallbacks(ctx context.Context) *LoggingCallbacks {
	return &LoggingCallbacks{ctx: ctx}
}

func (l *LoggingCallbacks) PipelineStart(workflowNames []string) {
	logger.Infof(l.ctx, "pipeline starting: %v", workflowNames)
}

func (l *LoggingCallbacks) PipelineEnd(results []types.PipelineRunResult) {
	failed := 0
	for _, r := range results {
		if len(r.Errors) > 0 {
			failed++
		}
	}
	logger.Infof(l.ctx, "pipeline finished: %d workflows, %d with errors", len(results), failed)
}

func (l *LoggingCallbacks) WorkflowStart(name string) {
	logger.Infof(l.ctx, "workflow %s starting", name)
}

func (l *LoggingCallbacks) WorkflowEnd(name string) {
	logger.Infof(l.ctx, "workflow %s finished", name)
}

func (l *LoggingCallbacks) Progress(p types.Progress) {
	if p.Completed != nil && p.Total != nil {
		logger.Debugf(l.ctx, "%s (%d/%d)", p.Description, *p.Completed, *p.Total)
		return
	}
	logger.Debug(l.ctx, p.Description)
}

func (l *LoggingCallbacks) Error(msg string, cause error, stack string, details map[string]any) {
	fields := logrus.Fields{}
	for k, v := range details {
		fields[k] = v
	}
	if stack != "" {
		fields["stack"] = stack
	}
	logger.ErrorWithFields(l.ctx, cause, fields)
	_ = msg
}

func (l *LoggingCallbacks) Warning(msg string, details map[string]any) {
	logger.Warnf(l.ctx, "%s %v", msg, details)
}

func (l *LoggingCallbacks) Log(msg string, details map[string]any) {
	logger.Infof(l.ctx, "%s %v", msg, details)
}

var _ types.WorkflowCallbacks = (*LoggingCallbacks)(nil)
