package hitl

import (
	"time"

	"github.com/google/uuid"
)

// Gate is the policy-table approval gate consulted before a high-risk
// action (e.g. Rollback, PatchForward beyond a configurable blast radius)
// proceeds, keyed by action class rather than a full vote-based checkpoint.
type Gate struct {
	policy map[string]bool
}

// NewGate constructs a Gate from an action-class → approval-required table.
func NewGate(policy map[string]bool) Gate {
	table := make(map[string]bool, len(policy))
	for k, v := range policy {
		table[k] = v
	}
	return Gate{policy: table}
}

// DefaultGate requires approval for rollback and any patch-forward beyond
// the default blast radius; retries and escalation are unsupervised.
func DefaultGate() Gate {
	return NewGate(map[string]bool{
		"rollback":            true,
		"patch_forward_blast": true,
		"retry":               false,
		"escalate":            false,
	})
}

// RequireApproval reports whether actionClass needs human sign-off before
// it may proceed. An action class absent from the policy table defaults to
// requiring approval (fail closed).
func (g Gate) RequireApproval(actionClass string) bool {
	required, ok := g.policy[actionClass]
	if !ok {
		return true
	}
	return required
}

// ApprovalRecord is a single requested/decided approval, persisted by
// ApprovalStore.
type ApprovalRecord struct {
	ID          string
	Action      string
	RequestedBy string
	DecidedBy   *string
	Decision    *VoteDecision
	DecidedAt   *time.Time
	RequestedAt time.Time
}

// ApprovalStore records approval requests and their eventual decisions.
type ApprovalStore struct {
	records map[string]ApprovalRecord
}

// NewApprovalStore constructs an empty store.
func NewApprovalStore() *ApprovalStore {
	return &ApprovalStore{records: make(map[string]ApprovalRecord)}
}

// Request records a pending approval for action, returning its id.
func (s *ApprovalStore) Request(action, requestedBy string, requestedAt time.Time) string {
	id := uuid.NewString()
	s.records[id] = ApprovalRecord{ID: id, Action: action, RequestedBy: requestedBy, RequestedAt: requestedAt}
	return id
}

// Decide records decidedBy's decision on a pending request.
func (s *ApprovalStore) Decide(id, decidedBy string, decision VoteDecision, decidedAt time.Time) bool {
	record, ok := s.records[id]
	if !ok {
		return false
	}
	record.DecidedBy = &decidedBy
	record.Decision = &decision
	record.DecidedAt = &decidedAt
	s.records[id] = record
	return true
}

// Get returns the record for id.
func (s *ApprovalStore) Get(id string) (ApprovalRecord, bool) {
	record, ok := s.records[id]
	return record, ok
}

// ForAction returns every record requested for action.
func (s *ApprovalStore) ForAction(action string) []ApprovalRecord {
	var matched []ApprovalRecord
	for _, r := range s.records {
		if r.Action == action {
			matched = append(matched, r)
		}
	}
	return matched
}
