// internal/models/run.go
package models

// RunState is the pipeline state recorded on the run record.
type RunState string

const (
	RunStateScheduled       RunState = "scheduled"
	RunStateGenerating      RunState = "generating"
	RunStatePublishing      RunState = "publishing"
	RunStateConfiguringPage RunState = "configuring_pages"
	RunStateResolvingCommit RunState = "resolving_commit"
	RunStateNotifying       RunState = "notifying"
	RunStateDone            RunState = "done"
	RunStateFailed          RunState = "failed"
)

// RunRecord is the persisted status of one background pipeline run.
type RunRecord struct {
	RunID     string            `json:"runId"`
	Task      string            `json:"task"`
	Round     int               `json:"round"`
	State     RunState          `json:"state"`
	ErrorCode string            `json:"errorCode,omitempty"`
	Error     string            `json:"error,omitempty"`
	Result    *EvaluationResult `json:"result,omitempty"`
	CreatedAt string            `json:"createdAt"`
	UpdatedAt string            `json:"updatedAt"`
}
