package hitl

import (
	"fmt"
	"time"

	aerr "github.com/R3E-Network/aivcs/infrastructure/errors"
)

// SubmitVote validates vote against checkpoint and the voter's existing
// votes, without mutating checkpoint beyond marking it Expired when the
// deadline has passed. Callers persist a validated vote themselves.
func SubmitVote(checkpoint *ApprovalCheckpoint, vote ApprovalVote, existingVotes []ApprovalVote, now time.Time) error {
	if vote.CheckpointID != checkpoint.CheckpointID {
		return aerr.PolicyDenied(fmt.Sprintf("checkpoint not found: %s", vote.CheckpointID))
	}

	if checkpoint.Status.IsTerminal() {
		state := "finalized"
		if checkpoint.Status.Kind == StatusExpired {
			state = "expired"
		}
		return aerr.PolicyDenied(fmt.Sprintf("checkpoint %s not found (already %s)", checkpoint.CheckpointID, state))
	}

	if checkpoint.IsExpiredAt(now) {
		checkpoint.Status = CheckpointStatus{Kind: StatusExpired}
		timeoutSecs := uint64(0)
		if checkpoint.ExpiresAt != nil {
			timeoutSecs = uint64(checkpoint.ExpiresAt.Sub(checkpoint.CreatedAt).Seconds())
		}
		return aerr.PolicyDenied(fmt.Sprintf("checkpoint expired after %ds", timeoutSecs))
	}

	for _, existing := range existingVotes {
		if existing.Voter == vote.Voter {
			return aerr.PolicyDenied(fmt.Sprintf("duplicate vote by %s on checkpoint %s", vote.Voter, checkpoint.CheckpointID))
		}
	}

	return nil
}

// EvaluateCheckpoint determines whether checkpoint should transition given
// the votes accumulated so far, returning the new status or nil if no
// transition applies yet.
func EvaluateCheckpoint(checkpoint ApprovalCheckpoint, votes []ApprovalVote, now time.Time) *CheckpointStatus {
	if checkpoint.Status.IsTerminal() {
		return nil
	}

	if checkpoint.IsExpiredAt(now) {
		status := CheckpointStatus{Kind: StatusExpired}
		return &status
	}

	for _, v := range votes {
		if v.Decision.IsBlocking() {
			reason := fmt.Sprintf("rejected by %s", v.Voter)
			if v.Comment != nil && *v.Comment != "" {
				reason = *v.Comment
			}
			status := rejected(reason)
			return &status
		}
	}

	var approvals uint32
	for _, v := range votes {
		if v.Decision.IsApproval() {
			approvals++
		}
	}
	required := checkpoint.RiskTier.MinApprovals()

	if required > 0 && approvals >= required {
		status := CheckpointStatus{Kind: StatusApproved}
		return &status
	}

	if !checkpoint.RiskTier.RequiresApproval() {
		status := CheckpointStatus{Kind: StatusApproved}
		return &status
	}

	return nil
}

// ApplyIntervention applies an operator intervention to checkpoint,
// mutating its status in place.
func ApplyIntervention(checkpoint *ApprovalCheckpoint, intervention Intervention) error {
	switch intervention.Action.Kind {
	case InterventionPause:
		checkpoint.Status = CheckpointStatus{Kind: StatusPaused}
	case InterventionContinue:
		if checkpoint.Status.Kind != StatusPaused {
			return aerr.PolicyDenied("can only continue from paused state")
		}
		checkpoint.Status = CheckpointStatus{Kind: StatusPending}
	case InterventionAbort:
		checkpoint.Status = rejected(fmt.Sprintf("aborted: %s", intervention.Action.Reason))
	case InterventionEdit:
		checkpoint.Status = CheckpointStatus{Kind: StatusPaused}
	}
	return nil
}
