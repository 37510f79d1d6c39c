package httpapi

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/R3E-Network/aivcs/internal/registry"
)

func (s *Service) registerReleaseRoutes() {
	s.router.HandleFunc("/v1/releases/{name}/promote", s.handlePromoteRelease).Methods(http.MethodPost)
	s.router.HandleFunc("/v1/releases/{name}/rollback", s.handleRollbackRelease).Methods(http.MethodPost)
	s.router.HandleFunc("/v1/releases/{name}/current", s.handleCurrentRelease).Methods(http.MethodGet)
	s.router.HandleFunc("/v1/releases/{name}/history", s.handleReleaseHistory).Methods(http.MethodGet)
}

func (s *Service) handlePromoteRelease(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	if s.app.ApprovalGate.RequireApproval("promote") {
		id, ok := r.URL.Query()["approval_id"]
		if !ok || len(id) == 0 {
			writeError(w, http.StatusForbidden, "promotion requires an approved approval_id")
			return
		}
		record, found := s.app.Approvals.Get(id[0])
		if !found || record.Decision == nil || !record.Decision.IsApproval() {
			writeError(w, http.StatusForbidden, "approval not granted")
			return
		}
	}

	var req struct {
		SpecDigest string                   `json:"spec_digest" validate:"required"`
		Metadata   registry.ReleaseMetadata `json:"metadata"`
	}
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	record, err := s.app.PromoteRelease(r.Context(), name, req.SpecDigest, req.Metadata)
	if err != nil {
		s.metrics.RecordReleaseAction("aivcsd", "promote", "error")
		writeServiceError(w, err)
		return
	}
	s.metrics.RecordReleaseAction("aivcsd", "promote", "ok")
	writeJSON(w, http.StatusCreated, record)
}

func (s *Service) handleRollbackRelease(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	if s.app.ApprovalGate.RequireApproval("rollback") {
		id, ok := r.URL.Query()["approval_id"]
		if !ok || len(id) == 0 {
			writeError(w, http.StatusForbidden, "rollback requires an approved approval_id")
			return
		}
		record, found := s.app.Approvals.Get(id[0])
		if !found || record.Decision == nil || !record.Decision.IsApproval() {
			writeError(w, http.StatusForbidden, "approval not granted")
			return
		}
	}

	record, err := s.app.RollbackRelease(r.Context(), name)
	if err != nil {
		s.metrics.RecordReleaseAction("aivcsd", "rollback", "error")
		writeServiceError(w, err)
		return
	}
	s.metrics.RecordReleaseAction("aivcsd", "rollback", "ok")
	writeJSON(w, http.StatusOK, record)
}

func (s *Service) handleCurrentRelease(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	record, err := s.app.CurrentRelease(r.Context(), name)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if record == nil {
		writeError(w, http.StatusNotFound, "no release for "+name)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

func (s *Service) handleReleaseHistory(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	history, err := s.app.ReleaseHistory(r.Context(), name)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, history)
}
