package httpapi

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/R3E-Network/aivcs/internal/ledger"
)

const (
	streamWriteTimeout = 10 * time.Second
	streamPingInterval = 30 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Run events carry no session cookies or credentials beyond the run ID
	// in the path, so any origin may open a tail connection.
	CheckOrigin: func(r *http.Request) bool { return true },
}

func (s *Service) registerStreamRoutes() {
	s.router.HandleFunc("/v1/runs/{id}/events/stream", s.handleStreamEvents).Methods(http.MethodGet)
}

// handleStreamEvents upgrades to a websocket connection and tails runID's
// event stream, sending one JSON-encoded ledger.RunEvent per frame until the
// run reaches a terminal state or the client disconnects.
func (s *Service) handleStreamEvents(w http.ResponseWriter, r *http.Request) {
	runID := ledger.RunID(mux.Vars(r)["id"])

	if _, err := s.app.GetRun(r.Context(), runID); err != nil {
		writeServiceError(w, err)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.WithError(err).Warn("websocket upgrade failed")
		return
	}
	defer conn.Close()

	events, unsubscribe := s.app.Stream.Subscribe(runID)
	defer unsubscribe()

	ticker := time.NewTicker(streamPingInterval)
	defer ticker.Stop()

	for {
		select {
		case event, ok := <-events:
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "run terminated"),
					time.Now().Add(streamWriteTimeout))
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(streamWriteTimeout))
			if err := conn.WriteJSON(event); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(streamWriteTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-r.Context().Done():
			return
		}
	}
}
