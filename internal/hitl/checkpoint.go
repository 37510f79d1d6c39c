package hitl

import "time"

// ExplainabilitySummary is the human-readable explanation attached to a
// checkpoint, shown to reviewers before they vote.
type ExplainabilitySummary struct {
	ActionDescription string
	ChangesSummary    string
	FlagReason        string
}

// StatusKind is the tag of a CheckpointStatus.
type StatusKind string

const (
	StatusPending  StatusKind = "pending"
	StatusApproved StatusKind = "approved"
	StatusRejected StatusKind = "rejected"
	StatusExpired  StatusKind = "expired"
	StatusPaused   StatusKind = "paused"
)

// CheckpointStatus is the current lifecycle state of an ApprovalCheckpoint.
// Rejected carries a reason; all other kinds ignore it.
type CheckpointStatus struct {
	Kind   StatusKind
	Reason string
}

// IsTerminal reports whether no further vote or intervention can change
// this status.
func (s CheckpointStatus) IsTerminal() bool {
	return s.Kind == StatusApproved || s.Kind == StatusRejected || s.Kind == StatusExpired
}

func rejected(reason string) CheckpointStatus { return CheckpointStatus{Kind: StatusRejected, Reason: reason} }

// ApprovalCheckpoint is a single point in a run where execution pauses for
// human review before a high-risk action proceeds.
type ApprovalCheckpoint struct {
	CheckpointID string
	RunID        string
	RiskTier     RiskTier
	Explanation  ExplainabilitySummary
	Status       CheckpointStatus
	CreatedAt    time.Time
	ExpiresAt    *time.Time
}

// NewApprovalCheckpoint constructs a Pending checkpoint. timeoutSecs, when
// non-nil, sets ExpiresAt relative to createdAt.
func NewApprovalCheckpoint(checkpointID, runID string, tier RiskTier, explanation ExplainabilitySummary, timeoutSecs *uint64, createdAt time.Time) ApprovalCheckpoint {
	cp := ApprovalCheckpoint{
		CheckpointID: checkpointID,
		RunID:        runID,
		RiskTier:     tier,
		Explanation:  explanation,
		Status:       CheckpointStatus{Kind: StatusPending},
		CreatedAt:    createdAt,
	}
	if timeoutSecs != nil {
		expires := createdAt.Add(time.Duration(*timeoutSecs) * time.Second)
		cp.ExpiresAt = &expires
	}
	return cp
}

// IsExpiredAt reports whether now is at or past ExpiresAt.
func (c ApprovalCheckpoint) IsExpiredAt(now time.Time) bool {
	return c.ExpiresAt != nil && !now.Before(*c.ExpiresAt)
}
