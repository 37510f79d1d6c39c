package cigate

import (
	"fmt"

	"github.com/PaesslerAG/gval"
)

// ExprRule is a gate rule defined by an operator-supplied boolean
// expression rather than compiled Go, so a rule set can be extended
// without a redeploy. The expression is evaluated against a flattened
// view of the CIResult; a true result means the rule is violated.
type ExprRule struct {
	Name       string
	Expression string
}

func (r ExprRule) describe() string { return "expr:" + r.Name }

func (r ExprRule) check(result CIResult) (string, bool) {
	params := exprParams(result)
	out, err := gval.Evaluate(r.Expression, params)
	if err != nil {
		return fmt.Sprintf("expression %q failed to evaluate: %v", r.Expression, err), true
	}
	violated, ok := out.(bool)
	if !ok {
		return fmt.Sprintf("expression %q did not evaluate to a bool (got %v)", r.Expression, out), true
	}
	if !violated {
		return "", false
	}
	return fmt.Sprintf("expression %q matched", r.Expression), true
}

// exprParams flattens a CIResult into the variables an ExprRule
// expression can reference: failed_stages, total_duration_ms,
// total_diagnostics, and stage_count.
func exprParams(result CIResult) map[string]interface{} {
	var failed, diagnostics uint32
	for _, s := range result.Stages {
		if s.Status == StageFailed {
			failed++
		}
		diagnostics += s.DiagnosticsCount
	}
	return map[string]interface{}{
		"failed_stages":     failed,
		"total_duration_ms": result.TotalDurationMs,
		"total_diagnostics": diagnostics,
		"stage_count":       len(result.Stages),
	}
}
