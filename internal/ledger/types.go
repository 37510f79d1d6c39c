// Package ledger implements the append-only run ledger (§4.2).
package ledger

import "time"

// RunID is a universally unique, stringly-equatable run identifier.
type RunID string

// RunStatus is the current lifecycle state of a run.
type RunStatus string

const (
	StatusRunning   RunStatus = "running"
	StatusCompleted RunStatus = "completed"
	StatusFailed    RunStatus = "failed"
	StatusCancelled RunStatus = "cancelled"
)

// IsTerminal reports whether s is one of the three terminal states.
func (s RunStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusCancelled
}

// RunMetadata describes the agent and context that produced a run.
type RunMetadata struct {
	GitSHA    string            `json:"git_sha,omitempty"`
	AgentName string            `json:"agent_name"`
	Tags      map[string]string `json:"tags,omitempty"`
}

// RunSummary is attached to a run on its terminal transition.
type RunSummary struct {
	TotalEvents int   `json:"total_events"`
	DurationMs  int64 `json:"duration_ms"`
	Success     bool  `json:"success"`
}

// RunRecord is the ledger's record of a single run. Once Status is
// terminal, the record is immutable.
type RunRecord struct {
	RunID       RunID       `json:"run_id"`
	SpecDigest  string      `json:"spec_digest"`
	Metadata    RunMetadata `json:"metadata"`
	Status      RunStatus   `json:"status"`
	Summary     *RunSummary `json:"summary,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
	CompletedAt *time.Time  `json:"completed_at,omitempty"`
}

// RunEvent is a single append-only entry in a run's event stream.
type RunEvent struct {
	Seq       uint64                 `json:"seq"`
	Kind      string                 `json:"kind"`
	Payload   map[string]interface{} `json:"payload"`
	Timestamp time.Time              `json:"timestamp"`
}

// Well-known event kinds observed by the CI gate and diff engine (§6).
const (
	KindToolCalled        = "tool_called"
	KindToolReturned      = "tool_returned"
	KindToolFailed        = "tool_failed"
	KindGraphStarted      = "graph_started"
	KindGraphCompleted    = "graph_completed"
	KindGraphFailed       = "graph_failed"
	KindNodeEntered       = "node_entered"
	KindNodeExited        = "node_exited"
	KindNodeFailed        = "node_failed"
	KindCheckpointSaved   = "checkpoint_saved"
	KindCheckpointRestore = "checkpoint_restored"
	KindStateUpdated      = "state_updated"
)
