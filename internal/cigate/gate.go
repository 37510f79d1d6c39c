package cigate

import "fmt"

// StageStatus is the pass/fail outcome of a single CI stage.
type StageStatus string

const (
	StagePassed StageStatus = "passed"
	StageFailed StageStatus = "failed"
)

// StageResult is one stage's outcome within a CI run.
type StageResult struct {
	Stage            string
	Command          string
	Status           StageStatus
	DurationMs       uint64
	DiagnosticsCount uint32
}

// CIResult is the full outcome of a CI run, as consumed by gate rules.
type CIResult struct {
	RunID             string
	Stages            []StageResult
	TotalDurationMs   uint64
}

// Rule is a single CI gate rule that can block promotion.
type Rule interface {
	describe() string
	check(result CIResult) (string, bool)
}

// AllStagesPassRule requires every stage to have passed.
type AllStagesPassRule struct{}

func (AllStagesPassRule) describe() string { return "all_stages_pass" }

func (AllStagesPassRule) check(result CIResult) (string, bool) {
	var failedNames []string
	for _, s := range result.Stages {
		if s.Status == StageFailed {
			failedNames = append(failedNames, s.Stage)
		}
	}
	if len(failedNames) == 0 {
		return "", false
	}
	return fmt.Sprintf("%d stage(s) failed: %v", len(failedNames), failedNames), true
}

// RequireStageRule requires a specific named stage to be present and
// passing.
type RequireStageRule struct{ Stage string }

func (r RequireStageRule) describe() string { return "require_stage:" + r.Stage }

func (r RequireStageRule) check(result CIResult) (string, bool) {
	for _, s := range result.Stages {
		if s.Stage == r.Stage {
			if s.Status == StagePassed {
				return "", false
			}
			return fmt.Sprintf("required stage '%s' has status %s", r.Stage, s.Status), true
		}
	}
	return fmt.Sprintf("required stage '%s' not found in results", r.Stage), true
}

// MaxDurationRule rejects runs whose total duration exceeds MaxMs.
type MaxDurationRule struct{ MaxMs uint64 }

func (r MaxDurationRule) describe() string { return "max_duration" }

func (r MaxDurationRule) check(result CIResult) (string, bool) {
	if result.TotalDurationMs > r.MaxMs {
		return fmt.Sprintf("total duration %dms > max allowed %dms", result.TotalDurationMs, r.MaxMs), true
	}
	return "", false
}

// MaxDiagnosticsRule rejects runs whose summed diagnostics count exceeds
// MaxCount.
type MaxDiagnosticsRule struct{ MaxCount uint32 }

func (r MaxDiagnosticsRule) describe() string { return "max_diagnostics" }

func (r MaxDiagnosticsRule) check(result CIResult) (string, bool) {
	var total uint32
	for _, s := range result.Stages {
		total += s.DiagnosticsCount
	}
	if total > r.MaxCount {
		return fmt.Sprintf("total diagnostics %d > max allowed %d", total, r.MaxCount), true
	}
	return "", false
}

// RuleSet is a set of gate rules plus a fail-fast flag.
type RuleSet struct {
	Rules    []Rule
	FailFast bool
}

// StandardRuleSet requires every stage to pass, with fail_fast off.
func StandardRuleSet() RuleSet {
	return RuleSet{Rules: []Rule{AllStagesPassRule{}}}
}

// GateViolation is a single rule violation.
type GateViolation struct {
	Rule   string
	Reason string
}

// GateVerdict is the outcome of evaluating a RuleSet against a CIResult.
type GateVerdict struct {
	Passed     bool
	Violations []GateViolation
}

// Evaluate checks result against ruleSet, halting at the first violation
// when FailFast is set.
func Evaluate(ruleSet RuleSet, result CIResult) GateVerdict {
	var violations []GateViolation
	for _, rule := range ruleSet.Rules {
		if reason, violated := rule.check(result); violated {
			violations = append(violations, GateViolation{Rule: rule.describe(), Reason: reason})
			if ruleSet.FailFast {
				return GateVerdict{Passed: false, Violations: violations}
			}
		}
	}
	if len(violations) == 0 {
		return GateVerdict{Passed: true}
	}
	return GateVerdict{Passed: false, Violations: violations}
}
