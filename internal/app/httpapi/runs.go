package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	aerr "github.com/R3E-Network/aivcs/infrastructure/errors"
	"github.com/R3E-Network/aivcs/internal/ledger"
)

func (s *Service) registerRunRoutes() {
	s.router.HandleFunc("/v1/runs", s.handleCreateRun).Methods(http.MethodPost)
	s.router.HandleFunc("/v1/runs", s.handleListRuns).Methods(http.MethodGet)
	s.router.HandleFunc("/v1/runs/{id}", s.handleGetRun).Methods(http.MethodGet)
	s.router.HandleFunc("/v1/runs/{id}/events", s.handleAppendEvent).Methods(http.MethodPost)
	s.router.HandleFunc("/v1/runs/{id}/events", s.handleListEvents).Methods(http.MethodGet)
	s.router.HandleFunc("/v1/runs/{id}/complete", s.handleCompleteRun).Methods(http.MethodPost)
	s.router.HandleFunc("/v1/runs/{id}/fail", s.handleFailRun).Methods(http.MethodPost)
	s.router.HandleFunc("/v1/runs/{id}/cancel", s.handleCancelRun).Methods(http.MethodPost)
}

type createRunRequest struct {
	SpecDigest string             `json:"spec_digest" validate:"required"`
	Metadata   ledger.RunMetadata `json:"metadata"`
}

func (s *Service) handleCreateRun(w http.ResponseWriter, r *http.Request) {
	var req createRunRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	runID, err := s.app.CreateRun(r.Context(), req.SpecDigest, req.Metadata)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	s.refreshActiveRuns(r.Context())
	writeJSON(w, http.StatusCreated, map[string]string{"run_id": string(runID)})
}

// refreshActiveRuns recomputes the runs_active gauge from the ledger's
// current state. Called after any run-lifecycle transition.
func (s *Service) refreshActiveRuns(ctx context.Context) {
	runs, err := s.app.ListRuns(ctx, "")
	if err != nil {
		return
	}
	active := 0
	for _, run := range runs {
		if run.Status == ledger.StatusRunning {
			active++
		}
	}
	s.metrics.SetActiveRuns(active)
}

func (s *Service) handleListRuns(w http.ResponseWriter, r *http.Request) {
	specDigest := r.URL.Query().Get("spec_digest")
	runs, err := s.app.ListRuns(r.Context(), specDigest)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, runs)
}

func (s *Service) handleGetRun(w http.ResponseWriter, r *http.Request) {
	runID := ledger.RunID(mux.Vars(r)["id"])
	record, err := s.app.GetRun(r.Context(), runID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

type appendEventRequest struct {
	Kind    string                 `json:"kind" validate:"required"`
	Payload map[string]interface{} `json:"payload"`
}

func (s *Service) handleAppendEvent(w http.ResponseWriter, r *http.Request) {
	runID := ledger.RunID(mux.Vars(r)["id"])
	var req appendEventRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	event := ledger.RunEvent{Kind: req.Kind, Payload: req.Payload}
	if err := s.app.AppendEvent(r.Context(), runID, event); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "appended"})
}

func (s *Service) handleListEvents(w http.ResponseWriter, r *http.Request) {
	runID := ledger.RunID(mux.Vars(r)["id"])
	events, err := s.app.GetEvents(r.Context(), runID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, events)
}

func (s *Service) handleCompleteRun(w http.ResponseWriter, r *http.Request) {
	runID := ledger.RunID(mux.Vars(r)["id"])
	var summary ledger.RunSummary
	if err := decodeJSON(r, &summary); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.app.CompleteRun(r.Context(), runID, summary); err != nil {
		writeServiceError(w, err)
		return
	}
	s.metrics.RecordRunTerminal("aivcsd", "completed", time.Duration(summary.DurationMs)*time.Millisecond)
	s.refreshActiveRuns(r.Context())
	writeJSON(w, http.StatusOK, map[string]string{"status": "completed"})
}

func (s *Service) handleFailRun(w http.ResponseWriter, r *http.Request) {
	runID := ledger.RunID(mux.Vars(r)["id"])
	var summary ledger.RunSummary
	if err := decodeJSON(r, &summary); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.app.FailRun(r.Context(), runID, summary); err != nil {
		writeServiceError(w, err)
		return
	}
	s.metrics.RecordRunTerminal("aivcsd", "failed", time.Duration(summary.DurationMs)*time.Millisecond)
	s.refreshActiveRuns(r.Context())
	writeJSON(w, http.StatusOK, map[string]string{"status": "failed"})
}

func (s *Service) handleCancelRun(w http.ResponseWriter, r *http.Request) {
	runID := ledger.RunID(mux.Vars(r)["id"])
	var summary ledger.RunSummary
	if err := decodeJSON(r, &summary); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.app.CancelRun(r.Context(), runID, summary); err != nil {
		writeServiceError(w, err)
		return
	}
	s.metrics.RecordRunTerminal("aivcsd", "cancelled", time.Duration(summary.DurationMs)*time.Millisecond)
	s.refreshActiveRuns(r.Context())
	writeJSON(w, http.StatusOK, map[string]string{"status": "cancelled"})
}

func writeServiceError(w http.ResponseWriter, err error) {
	status := aerr.GetHTTPStatus(err)
	writeError(w, status, err.Error())
}
