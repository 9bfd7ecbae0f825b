package types

// Progress reports fractional or counted progress of a long-running step.
type Progress struct {
	Percent     *float64
	Description string
	Total       *int
	Completed   *int
}

// PipelineRunResult is emitted once per workflow execution, successful or
// not, and accumulated into the overall pipeline run result.
type PipelineRunResult struct {
	WorkflowName string
	State        map[string]any
	Errors       []error
}

// WorkflowCallbacks is the capability set a workflow uses to report
// lifecycle events; listeners must not block the pipeline (spec §4.3).
type WorkflowCallbacks interface {
	PipelineStart(workflowNames []string)
	PipelineEnd(results []PipelineRunResult)
	WorkflowStart(name string)
	WorkflowEnd(name string)
	Progress(p Progress)
	Error(msg string, cause error, stack string, details map[string]any)
	Warning(msg string, details map[string]any)
	Log(msg string, details map[string]any)
}
