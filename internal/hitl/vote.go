package hitl

import "time"

// VoteDecision is a single reviewer's decision on a checkpoint.
type VoteDecision string

const (
	VoteApprove VoteDecision = "approve"
	VoteReject  VoteDecision = "reject"
	VoteAbstain VoteDecision = "abstain"
)

// IsApproval reports whether this decision counts toward the tier's
// required approval count.
func (d VoteDecision) IsApproval() bool { return d == VoteApprove }

// IsBlocking reports whether this decision immediately rejects the
// checkpoint, regardless of other votes.
func (d VoteDecision) IsBlocking() bool { return d == VoteReject }

// ApprovalVote is a single voter's decision on a specific checkpoint.
type ApprovalVote struct {
	Voter        string
	CheckpointID string
	Decision     VoteDecision
	Comment      *string
	VotedAt      time.Time
}

// NewApprovalVote constructs a vote.
func NewApprovalVote(voter, checkpointID string, decision VoteDecision, comment *string, votedAt time.Time) ApprovalVote {
	return ApprovalVote{Voter: voter, CheckpointID: checkpointID, Decision: decision, Comment: comment, VotedAt: votedAt}
}
