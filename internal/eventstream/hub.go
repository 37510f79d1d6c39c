// Package eventstream fans out run-ledger events to live subscribers (the
// websocket tail endpoint in internal/app/httpapi). It is the hot path of
// the system — one Publish call per appended event, potentially many
// subscribers per run — so it logs through zap rather than the request-path
// logrus logger the rest of the server uses.
package eventstream

import (
	"sync"

	"go.uber.org/zap"

	"github.com/R3E-Network/aivcs/internal/ledger"
)

const subscriberBuffer = 64

// Hub holds one fan-out broadcaster per run and the zap logger used to
// record subscribe/publish/drop activity without the allocation overhead a
// structured logrus entry would add on every event.
type Hub struct {
	mu          sync.Mutex
	subscribers map[ledger.RunID]map[chan ledger.RunEvent]struct{}
	log         *zap.Logger
}

// NewHub builds a Hub. A nil *zap.Logger falls back to zap.NewNop.
func NewHub(log *zap.Logger) *Hub {
	if log == nil {
		log = zap.NewNop()
	}
	return &Hub{
		subscribers: make(map[ledger.RunID]map[chan ledger.RunEvent]struct{}),
		log:         log,
	}
}

// Subscribe registers a new listener for runID and returns a channel of its
// future events plus an unsubscribe func the caller must invoke exactly
// once. The channel carries only events published after Subscribe returns;
// callers that need history should read it via ledger.GetEvents first.
func (h *Hub) Subscribe(runID ledger.RunID) (<-chan ledger.RunEvent, func()) {
	ch := make(chan ledger.RunEvent, subscriberBuffer)

	h.mu.Lock()
	set, ok := h.subscribers[runID]
	if !ok {
		set = make(map[chan ledger.RunEvent]struct{})
		h.subscribers[runID] = set
	}
	set[ch] = struct{}{}
	h.mu.Unlock()

	h.log.Debug("stream subscribed", zap.String("run_id", string(runID)), zap.Int("subscribers", len(set)))

	unsubscribe := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if set, ok := h.subscribers[runID]; ok {
			if _, present := set[ch]; present {
				delete(set, ch)
				close(ch)
			}
			if len(set) == 0 {
				delete(h.subscribers, runID)
			}
		}
	}
	return ch, unsubscribe
}

// Publish fans event out to every live subscriber of runID. A subscriber
// whose buffer is full misses this event rather than back-pressuring the
// ledger write path; it stays subscribed, and the dropped event is logged
// at warn.
func (h *Hub) Publish(runID ledger.RunID, event ledger.RunEvent) {
	h.mu.Lock()
	set, ok := h.subscribers[runID]
	if !ok || len(set) == 0 {
		h.mu.Unlock()
		return
	}
	chans := make([]chan ledger.RunEvent, 0, len(set))
	for ch := range set {
		chans = append(chans, ch)
	}
	h.mu.Unlock()

	for _, ch := range chans {
		select {
		case ch <- event:
		default:
			h.log.Warn("stream subscriber slow, dropping event",
				zap.String("run_id", string(runID)),
				zap.Uint64("seq", event.Seq),
			)
		}
	}
}

// Close closes every subscriber channel for runID, signalling stream
// termination (called on the run's terminal transition).
func (h *Hub) Close(runID ledger.RunID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subscribers[runID] {
		close(ch)
	}
	delete(h.subscribers, runID)
}
