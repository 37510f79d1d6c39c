// Package roles implements the role vocabulary, content-addressed handoff
// tokens, and templates of the multi-role orchestration pipeline (§4.9).
package roles

import (
	"encoding/json"

	"github.com/google/uuid"

	aerr "github.com/R3E-Network/aivcs/infrastructure/errors"
	"github.com/R3E-Network/aivcs/internal/digest"
)

// AgentRole is one of the five role archetypes in a multi-agent
// collaboration.
type AgentRole string

const (
	RolePlanner  AgentRole = "planner"
	RoleCoder    AgentRole = "coder"
	RoleReviewer AgentRole = "reviewer"
	RoleTester   AgentRole = "tester"
	RoleFixer    AgentRole = "fixer"
)

// RoleOutput is the typed output produced by a completed role. Each
// implementation carries the fields required by the next role in the
// pipeline; ProducingRole identifies which role variant this is, and is
// serialized as the "kind" discriminant folded into the handoff digest —
// so any field change causes a digest mismatch.
type RoleOutput interface {
	ProducingRole() AgentRole
	Kind() string
}

// PlanOutput is produced by the Planner.
type PlanOutput struct {
	TaskBreakdown []string `json:"task_breakdown"`
	EstimatedSteps uint32  `json:"estimated_steps"`
	// RequiredStatePointers are RFC 6901 JSON pointers downstream roles
	// must read.
	RequiredStatePointers []string `json:"required_state_pointers"`
}

func (PlanOutput) ProducingRole() AgentRole { return RolePlanner }
func (PlanOutput) Kind() string             { return "plan" }

// CodeOutput is produced by the Coder.
type CodeOutput struct {
	PatchDigest   string   `json:"patch_digest"`
	FilesModified []string `json:"files_modified"`
	Notes         string   `json:"notes,omitempty"`
}

func (CodeOutput) ProducingRole() AgentRole { return RoleCoder }
func (CodeOutput) Kind() string             { return "code" }

// ReviewOutput is produced by the Reviewer.
type ReviewOutput struct {
	Approved bool     `json:"approved"`
	Comments []string `json:"comments"`
	// RequiresFix, if true, means Fixer must be invoked before Tester.
	RequiresFix bool `json:"requires_fix"`
}

func (ReviewOutput) ProducingRole() AgentRole { return RoleReviewer }
func (ReviewOutput) Kind() string             { return "review" }

// TestReportOutput is produced by the Tester.
type TestReportOutput struct {
	Passed      bool     `json:"passed"`
	TotalCases  uint32   `json:"total_cases"`
	FailedCases []string `json:"failed_cases"`
	// DiagnosticDigest, if set, names a CAS blob retrieved by Fixer.
	DiagnosticDigest string `json:"diagnostic_digest,omitempty"`
}

func (TestReportOutput) ProducingRole() AgentRole { return RoleTester }
func (TestReportOutput) Kind() string             { return "test_report" }

// FixOutput is produced by the Fixer.
type FixOutput struct {
	PatchDigest    string   `json:"patch_digest"`
	ResolvedIssues []string `json:"resolved_issues"`
}

func (FixOutput) ProducingRole() AgentRole { return RoleFixer }
func (FixOutput) Kind() string             { return "fix" }

// marshalOutput serializes output with its "kind" discriminant folded in
// first, matching the field order of the source's serde(tag = "kind")
// representation so the digest is stable across equivalent payloads.
func marshalOutput(output RoleOutput) ([]byte, error) {
	switch o := output.(type) {
	case PlanOutput:
		return json.Marshal(struct {
			Kind string `json:"kind"`
			PlanOutput
		}{Kind: o.Kind(), PlanOutput: o})
	case CodeOutput:
		return json.Marshal(struct {
			Kind string `json:"kind"`
			CodeOutput
		}{Kind: o.Kind(), CodeOutput: o})
	case ReviewOutput:
		return json.Marshal(struct {
			Kind string `json:"kind"`
			ReviewOutput
		}{Kind: o.Kind(), ReviewOutput: o})
	case TestReportOutput:
		return json.Marshal(struct {
			Kind string `json:"kind"`
			TestReportOutput
		}{Kind: o.Kind(), TestReportOutput: o})
	case FixOutput:
		return json.Marshal(struct {
			Kind string `json:"kind"`
			FixOutput
		}{Kind: o.Kind(), FixOutput: o})
	default:
		return nil, aerr.SchemaViolation("handoff_token", "marshal", "output")
	}
}

// computeOutputDigest hashes output's canonical JSON form, matching the
// SHA-256(canonical_json(output)) discipline used for every other
// content-addressed identity in the system.
func computeOutputDigest(output RoleOutput) (string, error) {
	raw, err := marshalOutput(output)
	if err != nil {
		return "", err
	}
	value, err := digest.DecodeJSON(raw)
	if err != nil {
		return "", err
	}
	return digest.ComputeDigest(value)
}

// HandoffToken is a validated, content-addressed handoff token passed
// between roles.
type HandoffToken struct {
	TokenID      string
	FromRole     AgentRole
	Output       RoleOutput
	OutputDigest string
}

// NewHandoffToken constructs a token, computing and embedding the digest.
func NewHandoffToken(output RoleOutput) (*HandoffToken, error) {
	digest, err := computeOutputDigest(output)
	if err != nil {
		return nil, err
	}
	return &HandoffToken{
		TokenID:      uuid.NewString(),
		FromRole:     output.ProducingRole(),
		Output:       output,
		OutputDigest: digest,
	}, nil
}

// Verify re-derives the output digest and compares it to OutputDigest,
// returning DigestMismatch if the token has been tampered with.
func (t *HandoffToken) Verify() error {
	computed, err := computeOutputDigest(t.Output)
	if err != nil {
		return err
	}
	if computed != t.OutputDigest {
		return aerr.DigestMismatch(t.OutputDigest, computed)
	}
	return nil
}

// RoleTemplate describes what a role accepts as input and what it
// produces. Templates are static definitions — they do not execute.
type RoleTemplate struct {
	Role        AgentRole
	AcceptsFrom []AgentRole
	Description string
}

// StandardPipeline returns the canonical set of five templates: planner →
// coder → reviewer/tester → fixer.
func StandardPipeline() []RoleTemplate {
	return []RoleTemplate{
		{Role: RolePlanner, AcceptsFrom: nil, Description: "Decomposes a task into an ordered step plan"},
		{Role: RoleCoder, AcceptsFrom: []AgentRole{RolePlanner, RoleFixer}, Description: "Implements the plan or applies a fix"},
		{Role: RoleReviewer, AcceptsFrom: []AgentRole{RoleCoder}, Description: "Reviews code output and gates merge readiness"},
		{Role: RoleTester, AcceptsFrom: []AgentRole{RoleCoder, RoleFixer}, Description: "Executes the test suite and produces a TestReport"},
		{Role: RoleFixer, AcceptsFrom: []AgentRole{RoleReviewer, RoleTester}, Description: "Resolves review comments or test failures"},
	}
}
