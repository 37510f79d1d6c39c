// Package recovery implements failure classification and the bounded,
// policy-controlled self-healing loop (§4.8).
package recovery

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	aerr "github.com/R3E-Network/aivcs/infrastructure/errors"
	"github.com/R3E-Network/aivcs/infrastructure/metrics"
	"github.com/R3E-Network/aivcs/internal/digest"
)

// FailureClass is the coarse failure taxonomy used by the recovery planner.
type FailureClass string

const (
	ClassBuild       FailureClass = "build"
	ClassTest        FailureClass = "test"
	ClassRuntime     FailureClass = "runtime"
	ClassIntegration FailureClass = "integration"
	ClassUnknown     FailureClass = "unknown"
)

// FailureSignal is a structured failure report from a verification stage.
type FailureSignal struct {
	Stage     string `json:"stage"`
	Message   string `json:"message"`
	ExitCode  *int   `json:"exit_code,omitempty"`
	FlakyHint bool   `json:"flaky_hint"`
}

// Action is the recovery action chosen for a given attempt.
type Action string

const (
	ActionRetry        Action = "retry"
	ActionPatchForward Action = "patch_forward"
	ActionRollback     Action = "rollback"
	ActionEscalate     Action = "escalate"
)

// Outcome is the recovery loop's final state.
type Outcome string

const (
	OutcomeRecovered Outcome = "recovered"
	OutcomeFailed    Outcome = "failed"
)

// Policy bounds the recovery loop.
type Policy struct {
	MaxAttempts       uint32
	MaxFlakyRetries   uint32
	AllowPatchForward bool
	AllowRollback     bool
}

// DefaultPolicy mirrors the conservative defaults used elsewhere in the
// system: three attempts, one flaky retry, both repair actions enabled.
func DefaultPolicy() Policy {
	return Policy{MaxAttempts: 3, MaxFlakyRetries: 1, AllowPatchForward: true, AllowRollback: true}
}

// Decision is one auditable step in the recovery timeline.
type Decision struct {
	Attempt      uint32       `json:"attempt"`
	FailureClass FailureClass `json:"failure_class"`
	Action       Action       `json:"action"`
	Rationale    string       `json:"rationale"`
}

// AttemptResult is what an applied action reported back.
type AttemptResult struct {
	Success      bool
	NextFailure  *FailureSignal
}

// ApplyActionFunc performs one recovery action and reports whether it
// resolved the failure.
type ApplyActionFunc func(attempt uint32, action Action, current FailureSignal) AttemptResult

// Log is the full recovery timeline, suitable for audit and memory
// indexing.
type Log struct {
	RunID           string         `json:"run_id"`
	Policy          Policy         `json:"policy"`
	InitialFailure  FailureSignal  `json:"initial_failure"`
	Decisions       []Decision     `json:"decisions"`
	Outcome         Outcome        `json:"outcome"`
	AttemptsUsed    uint32         `json:"attempts_used"`
	FinalFailure    *FailureSignal `json:"final_failure,omitempty"`
	EvaluatedAt     time.Time      `json:"evaluated_at"`
}

// ClassifyFailure buckets a failure signal into a coarse category by
// scanning its stage and message for well-known substrings.
func ClassifyFailure(signal FailureSignal) FailureClass {
	stage := strings.ToLower(signal.Stage)
	msg := strings.ToLower(signal.Message)

	switch {
	case strings.Contains(stage, "build"), strings.Contains(stage, "compile"),
		strings.Contains(msg, "compil"), strings.Contains(msg, "linker error"):
		return ClassBuild
	case strings.Contains(stage, "test"), strings.Contains(msg, "assertion"),
		strings.Contains(msg, "test failed"), strings.Contains(msg, "snapshot mismatch"):
		return ClassTest
	case strings.Contains(stage, "runtime"), strings.Contains(msg, "panic"),
		strings.Contains(msg, "segmentation fault"), strings.Contains(msg, "null pointer"):
		return ClassRuntime
	case strings.Contains(stage, "integration"), strings.Contains(msg, "contract"),
		strings.Contains(msg, "handshake"), strings.Contains(msg, "dependency unavailable"):
		return ClassIntegration
	default:
		return ClassUnknown
	}
}

func decideAction(class FailureClass, signal FailureSignal, policy Policy, flakyRetriesUsed uint32) (Action, string) {
	if class == ClassTest && signal.FlakyHint && flakyRetriesUsed < policy.MaxFlakyRetries {
		return ActionRetry, "flaky signal detected; bounded retry permitted"
	}
	if policy.AllowPatchForward && (class == ClassBuild || class == ClassTest) {
		return ActionPatchForward, "build/test failure; patch-forward is enabled"
	}
	if policy.AllowRollback && (class == ClassRuntime || class == ClassIntegration) {
		return ActionRollback, "runtime/integration failure; rollback is enabled"
	}
	return ActionEscalate, "no safe automated action available under policy"
}

// ExecuteRecoveryLoop runs a bounded, policy-controlled recovery loop,
// invoking applyAction for every non-escalating decision until either the
// failure resolves, the policy escalates, or max_attempts is exhausted.
func ExecuteRecoveryLoop(runID string, initialFailure FailureSignal, policy Policy, applyAction ApplyActionFunc) Log {
	return ExecuteRecoveryLoopWithMetrics(runID, initialFailure, policy, applyAction, nil)
}

// ExecuteRecoveryLoopWithMetrics is ExecuteRecoveryLoop with recovery-action
// Prometheus metrics recorded per decision. m may be nil, in which case no
// metrics are recorded.
func ExecuteRecoveryLoopWithMetrics(runID string, initialFailure FailureSignal, policy Policy, applyAction ApplyActionFunc, m *metrics.Metrics) Log {
	current := initialFailure
	var decisions []Decision
	var flakyRetriesUsed uint32
	var attemptsUsed uint32

	recordAction := func(action Action, status string) {
		if m != nil {
			m.RecordRecoveryAction("aivcsd", string(action), status)
		}
	}

	for attempt := uint32(1); attempt <= policy.MaxAttempts; attempt++ {
		attemptsUsed = attempt
		class := ClassifyFailure(current)
		action, rationale := decideAction(class, current, policy, flakyRetriesUsed)
		if action == ActionRetry && current.FlakyHint {
			flakyRetriesUsed++
		}

		decisions = append(decisions, Decision{Attempt: attempt, FailureClass: class, Action: action, Rationale: rationale})

		if action == ActionEscalate {
			recordAction(action, "escalated")
			return Log{
				RunID: runID, Policy: policy, InitialFailure: initialFailure, Decisions: decisions,
				Outcome: OutcomeFailed, AttemptsUsed: attemptsUsed, FinalFailure: &current, EvaluatedAt: time.Now().UTC(),
			}
		}

		result := applyAction(attempt, action, current)
		if result.Success {
			recordAction(action, "recovered")
			return Log{
				RunID: runID, Policy: policy, InitialFailure: initialFailure, Decisions: decisions,
				Outcome: OutcomeRecovered, AttemptsUsed: attemptsUsed, EvaluatedAt: time.Now().UTC(),
			}
		}
		recordAction(action, "retrying")
		if result.NextFailure != nil {
			current = *result.NextFailure
		}
	}

	recordAction(ActionEscalate, "exhausted")
	return Log{
		RunID: runID, Policy: policy, InitialFailure: initialFailure, Decisions: decisions,
		Outcome: OutcomeFailed, AttemptsUsed: attemptsUsed, FinalFailure: &current, EvaluatedAt: time.Now().UTC(),
	}
}

// WriteArtifact persists <dir>/<run_id>/recovery.json and a companion
// recovery.digest holding its content digest.
func WriteArtifact(log Log, dir string) (string, error) {
	runDir := filepath.Join(dir, log.RunID)
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return "", aerr.IO("mkdir", err)
	}

	artifactPath := filepath.Join(runDir, "recovery.json")
	digestPath := filepath.Join(runDir, "recovery.digest")

	raw, err := json.MarshalIndent(log, "", "  ")
	if err != nil {
		return "", aerr.Serialization(err)
	}
	contentDigest := digest.FromBytes(raw)

	if err := os.WriteFile(artifactPath, raw, 0o644); err != nil {
		return "", aerr.IO("write_artifact", err)
	}
	if err := os.WriteFile(digestPath, []byte(contentDigest.String()), 0o644); err != nil {
		return "", aerr.IO("write_digest", err)
	}
	return artifactPath, nil
}

// ReadArtifact loads and integrity-verifies <dir>/<run_id>/recovery.json
// against its companion recovery.digest.
func ReadArtifact(runID, dir string) (Log, error) {
	runDir := filepath.Join(dir, runID)
	artifactPath := filepath.Join(runDir, "recovery.json")
	digestPath := filepath.Join(runDir, "recovery.digest")

	raw, err := os.ReadFile(artifactPath)
	if err != nil {
		return Log{}, aerr.IO("read_artifact", err)
	}
	storedDigest, err := os.ReadFile(digestPath)
	if err != nil {
		return Log{}, aerr.IO("read_digest", err)
	}

	actual := digest.FromBytes(raw).String()
	expected := strings.TrimSpace(string(storedDigest))
	if expected != actual {
		return Log{}, aerr.DigestMismatch(expected, actual)
	}

	var log Log
	if err := json.Unmarshal(raw, &log); err != nil {
		return Log{}, aerr.Serialization(err)
	}
	return log, nil
}

// RegressionRecommendation is the output of regression analysis.
type RegressionRecommendation string

const (
	RecommendProceedNormally    RegressionRecommendation = "proceed_normally"
	RecommendTryAlternateAction RegressionRecommendation = "try_alternate_action"
	RecommendEscalateImmediately RegressionRecommendation = "escalate_immediately"
)

// RegressionCheck reports whether a failure has recurred after a prior
// recovery attempt.
type RegressionCheck struct {
	IsRegression   bool
	PriorOutcome   *Outcome
	PriorRunID     string
	Recommendation RegressionRecommendation
}

// CheckRegression compares signal against priorLogs with the same stage
// and failure class. The single most recent match (by EvaluatedAt)
// determines the recommendation; two or more matches escalate
// unconditionally regardless of whether the most recent one recovered.
func CheckRegression(signal FailureSignal, priorLogs []Log) RegressionCheck {
	currentClass := ClassifyFailure(signal)

	var matching []Log
	for _, log := range priorLogs {
		if ClassifyFailure(log.InitialFailure) == currentClass && log.InitialFailure.Stage == signal.Stage {
			matching = append(matching, log)
		}
	}
	sort.Slice(matching, func(i, j int) bool { return matching[i].EvaluatedAt.After(matching[j].EvaluatedAt) })

	switch len(matching) {
	case 0:
		return RegressionCheck{Recommendation: RecommendProceedNormally}
	case 1:
		prior := matching[0]
		outcome := prior.Outcome
		rec := RecommendTryAlternateAction
		if prior.Outcome != OutcomeRecovered {
			rec = RecommendEscalateImmediately
		}
		return RegressionCheck{IsRegression: true, PriorOutcome: &outcome, PriorRunID: prior.RunID, Recommendation: rec}
	default:
		prior := matching[0]
		outcome := prior.Outcome
		return RegressionCheck{IsRegression: true, PriorOutcome: &outcome, PriorRunID: prior.RunID, Recommendation: RecommendEscalateImmediately}
	}
}

// RecoveryLogToMemoryFields converts a Log into the (summary, tags,
// token_estimate) triple used to construct a memory entry (§4.13).
func RecoveryLogToMemoryFields(log Log) (string, []string, int) {
	lastAction := "none"
	if len(log.Decisions) > 0 {
		lastAction = string(log.Decisions[len(log.Decisions)-1].Action)
	}
	outcomeWord := "Successful"
	if log.Outcome != OutcomeRecovered {
		outcomeWord = "Failed"
	}
	class := ClassifyFailure(log.InitialFailure)
	summary := fmt.Sprintf("%s recovery for %s failure in stage '%s': %s in %d attempt(s)",
		outcomeWord, class, log.InitialFailure.Stage, lastAction, log.AttemptsUsed)

	tags := []string{
		"recovery:" + strings.ToLower(string(log.Outcome)),
		"failure:" + string(class),
		"stage:" + log.InitialFailure.Stage,
		"run:" + log.RunID,
	}
	if log.InitialFailure.FlakyHint {
		tags = append(tags, "flaky:true")
	}

	tokenEstimate := len(summary) / 4
	if tokenEstimate < 1 {
		tokenEstimate = 1
	}
	return summary, tags, tokenEstimate
}
