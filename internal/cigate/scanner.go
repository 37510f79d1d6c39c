// Package cigate implements the CI gate evaluator (§4.7): a low-level
// event-stream scanner plus a higher-level rule-set verdict engine.
package cigate

import (
	"fmt"

	"github.com/R3E-Network/aivcs/internal/ledger"
)

// Verdict is the pass/fail decision produced by scanning a run's events.
type Verdict struct {
	Passed     bool
	Violations []string
	Message    string
}

// ScanEvents reads a run's event sequence and produces a Verdict. It tracks
// three sets keyed by exact tool name — called, completed, failed — and
// flags any tool that was called but neither completed nor failed.
// Membership checks use exact equality; a failing tool named "test" must
// never suppress the "never completed" violation for "integration-test".
func ScanEvents(events []ledger.RunEvent) Verdict {
	called := make(map[string]struct{})
	completed := make(map[string]struct{})
	failed := make(map[string]struct{})
	var violations []string

	for _, event := range events {
		name, _ := event.Payload["tool_name"].(string)

		switch event.Kind {
		case ledger.KindToolCalled:
			called[name] = struct{}{}
		case ledger.KindToolReturned:
			exitCode := payloadExitCode(event.Payload)
			if exitCode == 0 {
				completed[name] = struct{}{}
			} else {
				violations = append(violations, fmt.Sprintf("tool '%s' returned non-zero exit code: %d", name, exitCode))
				failed[name] = struct{}{}
			}
		case ledger.KindToolFailed:
			errMsg, _ := event.Payload["error"].(string)
			violations = append(violations, fmt.Sprintf("tool '%s' failed: %s", name, errMsg))
			failed[name] = struct{}{}
		}
	}

	for name := range called {
		if _, ok := completed[name]; ok {
			continue
		}
		if _, ok := failed[name]; ok {
			continue
		}
		violations = append(violations, fmt.Sprintf("tool '%s' was called but never completed", name))
	}

	if len(violations) == 0 {
		return Verdict{Passed: true}
	}
	return Verdict{Passed: false, Violations: violations, Message: fmt.Sprintf("%d violation(s)", len(violations))}
}

func payloadExitCode(payload map[string]interface{}) int {
	switch v := payload["exit_code"].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}
