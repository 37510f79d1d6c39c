package recovery

import (
	"context"
	"errors"

	"github.com/R3E-Network/aivcs/infrastructure/resilience"
)

// ErrActionNotResolved signals to the retry/circuit-breaker wrapper that an
// applied action ran without error but did not actually resolve the
// failure, so the wrapper should keep retrying under its own policy.
var ErrActionNotResolved = errors.New("recovery action did not resolve failure")

// ApplyActionWithResilience wraps inner so that Retry and PatchForward
// actions run through a circuit breaker and exponential-backoff retry
// before reporting back to the recovery loop, matching the per-tool
// failure-counter model of the concurrency design. Escalate and Rollback
// bypass the wrapper since they are terminal/destructive and should not be
// silently retried. cb may be nil to skip circuit-breaker protection.
func ApplyActionWithResilience(cb *resilience.CircuitBreaker, retryCfg resilience.RetryConfig, inner ApplyActionFunc) ApplyActionFunc {
	return func(attempt uint32, action Action, current FailureSignal) AttemptResult {
		if action != ActionRetry && action != ActionPatchForward {
			return inner(attempt, action, current)
		}

		var result AttemptResult
		invoke := func() error {
			result = inner(attempt, action, current)
			if !result.Success {
				return ErrActionNotResolved
			}
			return nil
		}

		run := invoke
		if cb != nil {
			run = func() error {
				return cb.Execute(context.Background(), invoke)
			}
		}

		_ = resilience.Retry(context.Background(), retryCfg, run)
		return result
	}
}
