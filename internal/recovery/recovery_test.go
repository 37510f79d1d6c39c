package recovery_test

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	aerr "github.com/R3E-Network/aivcs/infrastructure/errors"
	"github.com/R3E-Network/aivcs/internal/recovery"
)

func fixedTime() time.Time {
	return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
}

func TestClassifyFailureBuild(t *testing.T) {
	sig := recovery.FailureSignal{Stage: "compile", Message: "undefined symbol"}
	assert.Equal(t, recovery.ClassBuild, recovery.ClassifyFailure(sig))
}

func TestClassifyFailureRuntime(t *testing.T) {
	sig := recovery.FailureSignal{Stage: "exec", Message: "panic: nil pointer dereference"}
	assert.Equal(t, recovery.ClassRuntime, recovery.ClassifyFailure(sig))
}

func TestFlakyTestRetriesBeforeEscalating(t *testing.T) {
	sig := recovery.FailureSignal{Stage: "test", Message: "assertion failed", FlakyHint: true}
	policy := recovery.Policy{MaxAttempts: 3, MaxFlakyRetries: 1, AllowPatchForward: true, AllowRollback: true}

	calls := 0
	log := recovery.ExecuteRecoveryLoop("run-1", sig, policy, func(attempt uint32, action recovery.Action, current recovery.FailureSignal) recovery.AttemptResult {
		calls++
		return recovery.AttemptResult{Success: false, NextFailure: &current}
	})

	require.Len(t, log.Decisions, 3)
	assert.Equal(t, recovery.ActionRetry, log.Decisions[0].Action)
	assert.Equal(t, recovery.ActionPatchForward, log.Decisions[1].Action)
	assert.Equal(t, recovery.OutcomeFailed, log.Outcome)
}

func TestRecoveryLoopStopsOnSuccess(t *testing.T) {
	sig := recovery.FailureSignal{Stage: "build", Message: "compile error"}
	policy := recovery.DefaultPolicy()

	log := recovery.ExecuteRecoveryLoop("run-2", sig, policy, func(attempt uint32, action recovery.Action, current recovery.FailureSignal) recovery.AttemptResult {
		return recovery.AttemptResult{Success: true}
	})

	assert.Equal(t, recovery.OutcomeRecovered, log.Outcome)
	assert.Equal(t, uint32(1), log.AttemptsUsed)
}

func TestRecoveryLoopEscalatesWhenNoActionAvailable(t *testing.T) {
	sig := recovery.FailureSignal{Stage: "unknown-stage", Message: "mystery error"}
	policy := recovery.Policy{MaxAttempts: 3, AllowPatchForward: false, AllowRollback: false}

	calls := 0
	log := recovery.ExecuteRecoveryLoop("run-3", sig, policy, func(attempt uint32, action recovery.Action, current recovery.FailureSignal) recovery.AttemptResult {
		calls++
		return recovery.AttemptResult{Success: false}
	})

	assert.Equal(t, 0, calls)
	assert.Equal(t, recovery.OutcomeFailed, log.Outcome)
	assert.Equal(t, recovery.ActionEscalate, log.Decisions[0].Action)
}

func TestWriteAndReadArtifactRoundtrip(t *testing.T) {
	dir := t.TempDir()
	sig := recovery.FailureSignal{Stage: "build", Message: "compile error"}
	log := recovery.ExecuteRecoveryLoop("run-4", sig, recovery.DefaultPolicy(), func(attempt uint32, action recovery.Action, current recovery.FailureSignal) recovery.AttemptResult {
		return recovery.AttemptResult{Success: true}
	})

	path, err := recovery.WriteArtifact(log, dir)
	require.NoError(t, err)
	assert.FileExists(t, path)

	loaded, err := recovery.ReadArtifact("run-4", dir)
	require.NoError(t, err)
	assert.Equal(t, log.RunID, loaded.RunID)
	assert.Equal(t, log.Outcome, loaded.Outcome)
}

func TestReadArtifactDigestMismatchRejected(t *testing.T) {
	dir := t.TempDir()
	sig := recovery.FailureSignal{Stage: "build", Message: "compile error"}
	log := recovery.ExecuteRecoveryLoop("run-5", sig, recovery.DefaultPolicy(), func(attempt uint32, action recovery.Action, current recovery.FailureSignal) recovery.AttemptResult {
		return recovery.AttemptResult{Success: true}
	})
	_, err := recovery.WriteArtifact(log, dir)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(dir+"/run-5/recovery.digest", []byte("0000000000000000000000000000000000000000000000000000000000000000"), 0o644))

	_, err = recovery.ReadArtifact("run-5", dir)
	require.Error(t, err)
	assert.True(t, aerr.Is(err, aerr.ErrCodeDigestMismatch))
}

func TestCheckRegressionSingleMatchRecommendsAlternate(t *testing.T) {
	sig := recovery.FailureSignal{Stage: "test", Message: "assertion failed"}
	prior := []recovery.Log{
		{RunID: "prior-1", InitialFailure: sig, Outcome: recovery.OutcomeRecovered, EvaluatedAt: fixedTime()},
	}
	check := recovery.CheckRegression(sig, prior)
	assert.True(t, check.IsRegression)
	assert.Equal(t, recovery.RecommendTryAlternateAction, check.Recommendation)
}

func TestCheckRegressionMultipleMatchesEscalates(t *testing.T) {
	sig := recovery.FailureSignal{Stage: "test", Message: "assertion failed"}
	prior := []recovery.Log{
		{RunID: "prior-1", InitialFailure: sig, Outcome: recovery.OutcomeRecovered, EvaluatedAt: fixedTime()},
		{RunID: "prior-2", InitialFailure: sig, Outcome: recovery.OutcomeRecovered, EvaluatedAt: fixedTime()},
	}
	check := recovery.CheckRegression(sig, prior)
	assert.Equal(t, recovery.RecommendEscalateImmediately, check.Recommendation)
}

func TestCheckRegressionNoMatchProceedsNormally(t *testing.T) {
	sig := recovery.FailureSignal{Stage: "test", Message: "assertion failed"}
	check := recovery.CheckRegression(sig, nil)
	assert.False(t, check.IsRegression)
	assert.Equal(t, recovery.RecommendProceedNormally, check.Recommendation)
}
