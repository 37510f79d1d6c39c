package cigate_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/R3E-Network/aivcs/internal/cigate"
	"github.com/R3E-Network/aivcs/internal/ledger"
)

func TestScanEventsAllCompletedPasses(t *testing.T) {
	events := []ledger.RunEvent{
		{Kind: ledger.KindToolCalled, Payload: map[string]interface{}{"tool_name": "build"}},
		{Kind: ledger.KindToolReturned, Payload: map[string]interface{}{"tool_name": "build", "exit_code": 0}},
	}
	verdict := cigate.ScanEvents(events)
	assert.True(t, verdict.Passed)
	assert.Empty(t, verdict.Violations)
}

func TestScanEventsNonZeroExitRecordsViolation(t *testing.T) {
	events := []ledger.RunEvent{
		{Kind: ledger.KindToolCalled, Payload: map[string]interface{}{"tool_name": "build"}},
		{Kind: ledger.KindToolReturned, Payload: map[string]interface{}{"tool_name": "build", "exit_code": 2}},
	}
	verdict := cigate.ScanEvents(events)
	assert.False(t, verdict.Passed)
	require.Len(t, verdict.Violations, 1)
	assert.Contains(t, verdict.Violations[0], "non-zero exit code: 2")
}

func TestScanEventsToolFailedRecordsViolation(t *testing.T) {
	events := []ledger.RunEvent{
		{Kind: ledger.KindToolCalled, Payload: map[string]interface{}{"tool_name": "deploy"}},
		{Kind: ledger.KindToolFailed, Payload: map[string]interface{}{"tool_name": "deploy", "error": "timeout"}},
	}
	verdict := cigate.ScanEvents(events)
	assert.False(t, verdict.Passed)
	assert.Contains(t, verdict.Violations[0], "deploy' failed: timeout")
}

func TestScanEventsCalledButNeverCompleted(t *testing.T) {
	events := []ledger.RunEvent{
		{Kind: ledger.KindToolCalled, Payload: map[string]interface{}{"tool_name": "lint"}},
	}
	verdict := cigate.ScanEvents(events)
	assert.False(t, verdict.Passed)
	assert.Contains(t, verdict.Violations[0], "'lint' was called but never completed")
}

func TestScanEventsExactNameMatchNoSubstringSuppression(t *testing.T) {
	events := []ledger.RunEvent{
		{Kind: ledger.KindToolCalled, Payload: map[string]interface{}{"tool_name": "test"}},
		{Kind: ledger.KindToolReturned, Payload: map[string]interface{}{"tool_name": "test", "exit_code": 1}},
		{Kind: ledger.KindToolCalled, Payload: map[string]interface{}{"tool_name": "integration-test"}},
	}
	verdict := cigate.ScanEvents(events)
	require.Len(t, verdict.Violations, 2)
	foundNeverCompleted := false
	for _, v := range verdict.Violations {
		if v == "tool 'integration-test' was called but never completed" {
			foundNeverCompleted = true
		}
	}
	assert.True(t, foundNeverCompleted)
}

func passingResult() cigate.CIResult {
	return cigate.CIResult{
		Stages: []cigate.StageResult{
			{Stage: "fmt", Status: cigate.StagePassed, DurationMs: 100},
			{Stage: "clippy", Status: cigate.StagePassed, DurationMs: 500},
			{Stage: "test", Status: cigate.StagePassed, DurationMs: 2000},
		},
		TotalDurationMs: 2600,
	}
}

func failingResult() cigate.CIResult {
	r := passingResult()
	r.Stages[1].Status = cigate.StageFailed
	return r
}

func TestEvaluateAllStagesPassPasses(t *testing.T) {
	verdict := cigate.Evaluate(cigate.StandardRuleSet(), passingResult())
	assert.True(t, verdict.Passed)
}

func TestEvaluateAllStagesPassFails(t *testing.T) {
	verdict := cigate.Evaluate(cigate.StandardRuleSet(), failingResult())
	require.False(t, verdict.Passed)
	require.Len(t, verdict.Violations, 1)
	assert.Contains(t, verdict.Violations[0].Reason, "clippy")
}

func TestEvaluateRequireStageFailsWhenMissing(t *testing.T) {
	rules := cigate.RuleSet{Rules: []cigate.Rule{cigate.RequireStageRule{Stage: "audit"}}}
	verdict := cigate.Evaluate(rules, passingResult())
	require.False(t, verdict.Passed)
	assert.Contains(t, verdict.Violations[0].Reason, "not found")
}

func TestEvaluateMaxDurationFails(t *testing.T) {
	rules := cigate.RuleSet{Rules: []cigate.Rule{cigate.MaxDurationRule{MaxMs: 100}}}
	verdict := cigate.Evaluate(rules, passingResult())
	require.False(t, verdict.Passed)
	assert.Contains(t, verdict.Violations[0].Reason, "duration")
}

func TestEvaluateFailFastStopsEarly(t *testing.T) {
	rules := cigate.RuleSet{
		Rules:    []cigate.Rule{cigate.AllStagesPassRule{}, cigate.MaxDurationRule{MaxMs: 1}},
		FailFast: true,
	}
	verdict := cigate.Evaluate(rules, failingResult())
	require.False(t, verdict.Passed)
	assert.Len(t, verdict.Violations, 1)
}

func TestEvaluateMultipleViolationsWithoutFailFast(t *testing.T) {
	rules := cigate.RuleSet{
		Rules: []cigate.Rule{cigate.AllStagesPassRule{}, cigate.MaxDurationRule{MaxMs: 1}},
	}
	verdict := cigate.Evaluate(rules, failingResult())
	require.False(t, verdict.Passed)
	assert.Len(t, verdict.Violations, 2)
}
