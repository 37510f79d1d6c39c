// Package httpapi exposes the application over HTTP (§6.1): run lifecycle,
// release promotion/rollback, role dispatch, and CI/publish gate evaluation.
package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/R3E-Network/aivcs/infrastructure/logging"
	"github.com/R3E-Network/aivcs/infrastructure/metrics"
	"github.com/R3E-Network/aivcs/infrastructure/middleware"
	"github.com/R3E-Network/aivcs/internal/app"
)

// Service is the HTTP server binding application routes to app.App.
type Service struct {
	app     *app.App
	logger  *logging.Logger
	router  *mux.Router
	metrics *metrics.Metrics
}

// NewService builds a router with the full route table and the teacher's
// standard logging/recovery/metrics middleware chain attached.
func NewService(a *app.App, logger *logging.Logger, m *metrics.Metrics) *Service {
	svc := &Service{app: a, logger: logger, router: mux.NewRouter(), metrics: m}

	svc.router.Use(middleware.LoggingMiddleware(logger))
	svc.router.Use(middleware.MetricsMiddleware("aivcsd", m))
	recovery := middleware.NewRecoveryMiddleware(logger)
	svc.router.Use(recovery.Handler)

	health := middleware.NewHealthChecker("aivcsd")
	svc.router.Handle("/healthz", health.Handler()).Methods(http.MethodGet)
	svc.router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	svc.registerRunRoutes()
	svc.registerStreamRoutes()
	svc.registerReleaseRoutes()
	svc.registerGateRoutes()
	svc.registerRoleRoutes()

	return svc
}

// Handler returns the root http.Handler for this service.
func (s *Service) Handler() http.Handler { return s.router }

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func decodeJSON(r *http.Request, dst interface{}) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(dst)
}
