package roles

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/R3E-Network/aivcs/infrastructure/metrics"
)

// RoleExecutor runs one role to completion and returns its typed output.
type RoleExecutor func(ctx context.Context, runID string, role AgentRole) (RoleOutput, error)

// DispatchResult pairs a dispatched role with its outcome.
type DispatchResult struct {
	Role   AgentRole
	RunID  string
	Output RoleOutput
	Err    error
}

// DispatchParallel runs executor once per role concurrently, each under its
// own freshly minted run id, and collects results preserving the
// caller-supplied roles ordering in the returned slice regardless of
// completion order. A failing executor never cancels its siblings.
func DispatchParallel(ctx context.Context, parentRunID string, rolesToRun []AgentRole, executor RoleExecutor) []DispatchResult {
	return DispatchParallelWithMetrics(ctx, parentRunID, rolesToRun, executor, nil)
}

// DispatchParallelWithMetrics is DispatchParallel with role-dispatch
// Prometheus metrics recorded per role. m may be nil, in which case no
// metrics are recorded.
func DispatchParallelWithMetrics(ctx context.Context, parentRunID string, rolesToRun []AgentRole, executor RoleExecutor, m *metrics.Metrics) []DispatchResult {
	results := make([]DispatchResult, len(rolesToRun))

	var wg sync.WaitGroup
	wg.Add(len(rolesToRun))
	for i, role := range rolesToRun {
		i, role := i, role
		go func() {
			defer wg.Done()
			runID := parentRunID + ":" + role.String() + ":" + uuid.NewString()
			start := time.Now()
			output, err := executor(ctx, runID, role)
			if m != nil {
				status := "ok"
				if err != nil {
					status = "error"
				}
				m.RecordRoleDispatch("aivcsd", role.String(), status, time.Since(start))
			}
			results[i] = DispatchResult{Role: role, RunID: runID, Output: output, Err: err}
		}()
	}
	wg.Wait()

	return results
}

// String renders the role as its lowercase name.
func (r AgentRole) String() string {
	return string(r)
}
