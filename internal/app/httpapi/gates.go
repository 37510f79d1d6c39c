package httpapi

import (
	"net/http"

	"github.com/R3E-Network/aivcs/internal/cigate"
	"github.com/R3E-Network/aivcs/internal/publish"
)

func (s *Service) registerGateRoutes() {
	s.router.HandleFunc("/v1/ci-gate/evaluate", s.handleEvaluateCIGate).Methods(http.MethodPost)
	s.router.HandleFunc("/v1/publish-gate/evaluate", s.handleEvaluatePublishGate).Methods(http.MethodPost)
}

type ciGateRequest struct {
	Result cigate.CIResult      `json:"result"`
	Rules  []ciGateExprRuleSpec `json:"extra_rules"`
}

// ciGateExprRuleSpec lets a caller extend the standard rule set with
// operator-defined boolean expressions, evaluated via cigate.ExprRule.
type ciGateExprRuleSpec struct {
	Name       string `json:"name"`
	Expression string `json:"expression"`
}

func (s *Service) handleEvaluateCIGate(w http.ResponseWriter, r *http.Request) {
	var req ciGateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	ruleSet := cigate.StandardRuleSet()
	for _, spec := range req.Rules {
		ruleSet.Rules = append(ruleSet.Rules, cigate.ExprRule{Name: spec.Name, Expression: spec.Expression})
	}
	verdict := cigate.Evaluate(ruleSet, req.Result)
	s.metrics.RecordGateEvaluation("aivcsd", "ci", gateVerdictLabel(verdict.Passed))
	writeJSON(w, http.StatusOK, verdict)
}

func gateVerdictLabel(passed bool) string {
	if passed {
		return "passed"
	}
	return "blocked"
}

func (s *Service) handleEvaluatePublishGate(w http.ResponseWriter, r *http.Request) {
	var candidate publish.PublishCandidate
	if err := decodeJSON(r, &candidate); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	verdict := publish.Evaluate(publish.StandardRuleSet(), candidate)
	s.metrics.RecordGateEvaluation("aivcsd", "publish", gateVerdictLabel(verdict.Passed))
	writeJSON(w, http.StatusOK, verdict)
}
