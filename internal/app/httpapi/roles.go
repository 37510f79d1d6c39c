package httpapi

import (
	"net/http"

	"github.com/R3E-Network/aivcs/internal/roles"
)

func (s *Service) registerRoleRoutes() {
	s.router.HandleFunc("/v1/roles/pipeline", s.handleRolePipeline).Methods(http.MethodGet)
}

// handleRolePipeline reports the standard planner/coder/reviewer/tester/
// fixer template set. Actually dispatching roles requires a live
// RoleExecutor wired to an agent runtime, which is out of scope for this
// HTTP surface — dispatch is driven in-process via
// roles.DispatchParallelWithMetrics.
func (s *Service) handleRolePipeline(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, roles.StandardPipeline())
}
