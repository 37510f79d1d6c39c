package hitl

import "time"

// InterventionActionKind is the tag of an InterventionAction.
type InterventionActionKind string

const (
	InterventionPause    InterventionActionKind = "pause"
	InterventionContinue InterventionActionKind = "continue"
	InterventionAbort    InterventionActionKind = "abort"
	InterventionEdit     InterventionActionKind = "edit"
)

// InterventionAction is the operator action applied to a paused checkpoint.
// Abort carries Reason; Edit carries Patch.
type InterventionAction struct {
	Kind   InterventionActionKind
	Reason string
	Patch  string
}

// Intervention is an operator's manual action against a run or checkpoint.
type Intervention struct {
	RunID        string
	CheckpointID *string
	RequestedBy  string
	Action       InterventionAction
	Comment      *string
	At           time.Time
}

// NewIntervention constructs an Intervention.
func NewIntervention(runID string, checkpointID *string, requestedBy string, action InterventionAction, comment *string, at time.Time) Intervention {
	return Intervention{RunID: runID, CheckpointID: checkpointID, RequestedBy: requestedBy, Action: action, Comment: comment, At: at}
}
