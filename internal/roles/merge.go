package roles

import (
	aerr "github.com/R3E-Network/aivcs/infrastructure/errors"
)

// RoleConflict is a conflict detected when merging two role outputs.
type RoleConflict struct {
	Aspect      string
	FromRoleA   AgentRole
	ValueA      map[string]interface{}
	FromRoleB   AgentRole
	ValueB      map[string]interface{}
	Remediation string
}

// MergedRoleOutput is the result of merging two parallel role outputs.
type MergedRoleOutput struct {
	// Resolved holds a clean merged output when all conflicts resolved.
	Resolved RoleOutput
	// Conflicts require human or LLM arbitration.
	Conflicts []RoleConflict
	// AutoResolvedCount is how many conflicts were auto-resolved.
	AutoResolvedCount int
}

// IsClean is true only when no unresolved conflicts remain.
func (m MergedRoleOutput) IsClean() bool {
	return len(m.Conflicts) == 0
}

// MergeParallelOutputs merges two HandoffTokens produced by parallel role
// runs. Only the Reviewer+Tester pair is supported (in either order); all
// other combinations return SchemaViolation. Both tokens are
// integrity-verified before any merging takes place.
func MergeParallelOutputs(tokenA, tokenB *HandoffToken) (MergedRoleOutput, error) {
	if err := tokenA.Verify(); err != nil {
		return MergedRoleOutput{}, err
	}
	if err := tokenB.Verify(); err != nil {
		return MergedRoleOutput{}, err
	}

	if review, ok := tokenA.Output.(ReviewOutput); ok {
		if test, ok := tokenB.Output.(TestReportOutput); ok {
			return mergeReviewAndTest(review, test), nil
		}
	}
	if review, ok := tokenB.Output.(ReviewOutput); ok {
		if test, ok := tokenA.Output.(TestReportOutput); ok {
			return mergeReviewAndTest(review, test), nil
		}
	}

	return MergedRoleOutput{}, aerr.SchemaViolation("role_merge", "merge_parallel_outputs",
		"cannot merge outputs from "+string(tokenA.FromRole)+" and "+string(tokenB.FromRole)+" — only Reviewer+Tester pair is supported")
}

func mergeReviewAndTest(review ReviewOutput, test TestReportOutput) MergedRoleOutput {
	var conflicts []RoleConflict
	autoResolvedCount := 0

	// Rule 1: tests fail and reviewer approved -> unresolvable conflict.
	if review.Approved && !test.Passed {
		conflicts = append(conflicts, RoleConflict{
			Aspect:    "approval_vs_test_result",
			FromRoleA: RoleReviewer,
			ValueA:    map[string]interface{}{"approved": true},
			FromRoleB: RoleTester,
			ValueB:    map[string]interface{}{"passed": false, "failed_cases": test.FailedCases},
			Remediation: "Reviewer approved code that does not pass all tests. " +
				"Invoke Fixer with the diagnostic_digest before re-running Tester.",
		})
	}

	// Rule 2: both reviewer and tests indicate non-ready outcome -> conflict.
	if !review.Approved && !test.Passed {
		conflicts = append(conflicts, RoleConflict{
			Aspect:    "review_rejected_and_tests_failed",
			FromRoleA: RoleReviewer,
			ValueA:    map[string]interface{}{"approved": false, "requires_fix": review.RequiresFix},
			FromRoleB: RoleTester,
			ValueB:    map[string]interface{}{"passed": false, "failed_cases": test.FailedCases},
			Remediation: "Both review and tests rejected the change. " +
				"Invoke Fixer before rerunning Reviewer/Tester.",
		})
	}

	// Reviewer requires fix but tests pass -> auto-resolve (trust Reviewer).
	if review.RequiresFix && test.Passed && len(conflicts) == 0 {
		autoResolvedCount++
	}

	if len(conflicts) == 0 {
		var resolvedApproved, resolvedRequiresFix bool
		switch {
		case review.RequiresFix && test.Passed:
			resolvedApproved, resolvedRequiresFix = false, true
		case !review.Approved && test.Passed:
			// Tests can override an outright review rejection when no
			// requires_fix is set.
			autoResolvedCount++
			resolvedApproved, resolvedRequiresFix = true, false
		default:
			resolvedApproved, resolvedRequiresFix = review.Approved, review.RequiresFix
		}

		return MergedRoleOutput{
			Resolved: ReviewOutput{
				Approved:    resolvedApproved,
				RequiresFix: resolvedRequiresFix,
				Comments:    review.Comments,
			},
			Conflicts:         conflicts,
			AutoResolvedCount: autoResolvedCount,
		}
	}

	return MergedRoleOutput{Conflicts: conflicts, AutoResolvedCount: autoResolvedCount}
}
