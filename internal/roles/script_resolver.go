package roles

import (
	"fmt"

	"github.com/dop251/goja"

	aerr "github.com/R3E-Network/aivcs/infrastructure/errors"
)

// ScriptResolver lets an operator override the built-in Reviewer+Tester
// conflict-resolution rules in mergeReviewAndTest with a JavaScript
// function, without a redeploy. The script must define a top-level
// function `resolve(review, test)` returning `{approved, requires_fix}`.
//
// Each Resolve call runs in a fresh goja.Runtime: resolver scripts are
// short and pure, so isolation is worth more than reusing a VM across
// calls.
type ScriptResolver struct {
	program *goja.Program
}

// NewScriptResolver compiles source so syntax errors surface at
// configuration time rather than on the first merge.
func NewScriptResolver(source string) (*ScriptResolver, error) {
	program, err := goja.Compile("resolver.js", source, true)
	if err != nil {
		return nil, aerr.Serialization(fmt.Errorf("compile resolver script: %w", err))
	}
	return &ScriptResolver{program: program}, nil
}

// Resolve runs the script's resolve(review, test) function against the
// given outcomes and returns the approved/requires_fix verdict it chose.
func (s *ScriptResolver) Resolve(review ReviewOutput, test TestReportOutput) (approved bool, requiresFix bool, err error) {
	vm := goja.New()
	if _, runErr := vm.RunProgram(s.program); runErr != nil {
		return false, false, aerr.Serialization(fmt.Errorf("run resolver script: %w", runErr))
	}

	resolveFn, ok := goja.AssertFunction(vm.Get("resolve"))
	if !ok {
		return false, false, aerr.Serialization(fmt.Errorf("resolver script does not define resolve(review, test)"))
	}

	reviewArg := vm.ToValue(map[string]interface{}{
		"approved":     review.Approved,
		"requires_fix": review.RequiresFix,
		"comments":     review.Comments,
	})
	testArg := vm.ToValue(map[string]interface{}{
		"passed":       test.Passed,
		"failed_cases": test.FailedCases,
	})

	result, callErr := resolveFn(goja.Undefined(), reviewArg, testArg)
	if callErr != nil {
		return false, false, aerr.Serialization(fmt.Errorf("resolver script failed: %w", callErr))
	}

	exported, ok := result.Export().(map[string]interface{})
	if !ok {
		return false, false, aerr.Serialization(fmt.Errorf("resolver script must return an object with approved/requires_fix"))
	}
	approved, _ = exported["approved"].(bool)
	requiresFix, _ = exported["requires_fix"].(bool)
	return approved, requiresFix, nil
}

// MergeParallelOutputsWithResolver behaves like MergeParallelOutputs, but
// when the built-in rules would leave conflicts unresolved, it defers to
// resolver instead of returning them as unresolved conflicts.
func MergeParallelOutputsWithResolver(tokenA, tokenB *HandoffToken, resolver *ScriptResolver) (MergedRoleOutput, error) {
	merged, err := MergeParallelOutputs(tokenA, tokenB)
	if err != nil {
		return MergedRoleOutput{}, err
	}
	if merged.IsClean() || resolver == nil {
		return merged, nil
	}

	var review ReviewOutput
	var test TestReportOutput
	if r, ok := tokenA.Output.(ReviewOutput); ok {
		review = r
		test, _ = tokenB.Output.(TestReportOutput)
	} else {
		review, _ = tokenB.Output.(ReviewOutput)
		test, _ = tokenA.Output.(TestReportOutput)
	}

	approved, requiresFix, err := resolver.Resolve(review, test)
	if err != nil {
		return merged, err
	}
	return MergedRoleOutput{
		Resolved: ReviewOutput{
			Approved:    approved,
			RequiresFix: requiresFix,
			Comments:    review.Comments,
		},
		Conflicts:         nil,
		AutoResolvedCount: merged.AutoResolvedCount + len(merged.Conflicts),
	}, nil
}
