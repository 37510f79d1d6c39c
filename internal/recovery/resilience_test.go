package recovery_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/R3E-Network/aivcs/infrastructure/resilience"
	"github.com/R3E-Network/aivcs/internal/recovery"
)

func TestApplyActionWithResilienceRetriesUnderlyingActionUntilSuccess(t *testing.T) {
	attempts := 0
	inner := func(attempt uint32, action recovery.Action, current recovery.FailureSignal) recovery.AttemptResult {
		attempts++
		if attempts < 3 {
			return recovery.AttemptResult{Success: false, NextFailure: &current}
		}
		return recovery.AttemptResult{Success: true}
	}

	cfg := resilience.RetryConfig{MaxAttempts: 5, InitialDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond, Multiplier: 1.5}
	wrapped := recovery.ApplyActionWithResilience(nil, cfg, inner)

	sig := recovery.FailureSignal{Stage: "build", Message: "undefined symbol"}
	result := wrapped(1, recovery.ActionPatchForward, sig)

	assert.True(t, result.Success)
	assert.Equal(t, 3, attempts)
}

func TestApplyActionWithResilienceSkipsWrapperForEscalateAndRollback(t *testing.T) {
	calls := 0
	inner := func(attempt uint32, action recovery.Action, current recovery.FailureSignal) recovery.AttemptResult {
		calls++
		return recovery.AttemptResult{Success: false, NextFailure: &current}
	}
	wrapped := recovery.ApplyActionWithResilience(nil, resilience.DefaultRetryConfig(), inner)

	sig := recovery.FailureSignal{Stage: "runtime", Message: "panic"}
	result := wrapped(1, recovery.ActionRollback, sig)

	require.False(t, result.Success)
	assert.Equal(t, 1, calls)
}

func TestApplyActionWithResilienceOpensCircuitAfterRepeatedFailure(t *testing.T) {
	inner := func(attempt uint32, action recovery.Action, current recovery.FailureSignal) recovery.AttemptResult {
		return recovery.AttemptResult{Success: false, NextFailure: &current}
	}

	cb := resilience.New(resilience.Config{MaxFailures: 2, Timeout: time.Minute, HalfOpenMax: 1})
	cfg := resilience.RetryConfig{MaxAttempts: 4, InitialDelay: time.Millisecond, MaxDelay: time.Millisecond, Multiplier: 1}
	wrapped := recovery.ApplyActionWithResilience(cb, cfg, inner)

	sig := recovery.FailureSignal{Stage: "build", Message: "undefined symbol"}
	result := wrapped(1, recovery.ActionRetry, sig)

	require.False(t, result.Success)
	assert.Equal(t, resilience.StateOpen, cb.State())
}
