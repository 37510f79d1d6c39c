package ledger

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	aerr "github.com/R3E-Network/aivcs/infrastructure/errors"
)

// RunLedger is the append-only run ledger contract of §4.2.
type RunLedger interface {
	CreateRun(ctx context.Context, specDigest string, metadata RunMetadata) (RunID, error)
	AppendEvent(ctx context.Context, runID RunID, event RunEvent) error
	CompleteRun(ctx context.Context, runID RunID, summary RunSummary) error
	FailRun(ctx context.Context, runID RunID, summary RunSummary) error
	CancelRun(ctx context.Context, runID RunID, summary RunSummary) error
	GetRun(ctx context.Context, runID RunID) (RunRecord, error)
	GetEvents(ctx context.Context, runID RunID) ([]RunEvent, error)
	ListRuns(ctx context.Context, specDigest string) ([]RunRecord, error)
}

type runState struct {
	record RunRecord
	events map[uint64]RunEvent
}

// MemLedger is an in-memory RunLedger. A single ledger-wide RWMutex guards
// the run index and every run's state, so writes to any run are serialized.
type MemLedger struct {
	mu   sync.RWMutex
	runs map[RunID]*runState
}

var _ RunLedger = (*MemLedger)(nil)

// NewMemLedger constructs an empty in-memory ledger.
func NewMemLedger() *MemLedger {
	return &MemLedger{runs: make(map[RunID]*runState)}
}

func (l *MemLedger) CreateRun(_ context.Context, specDigest string, metadata RunMetadata) (RunID, error) {
	id := RunID(uuid.NewString())
	l.mu.Lock()
	defer l.mu.Unlock()
	l.runs[id] = &runState{
		record: RunRecord{
			RunID:      id,
			SpecDigest: specDigest,
			Metadata:   metadata,
			Status:     StatusRunning,
			CreatedAt:  time.Now().UTC(),
		},
		events: make(map[uint64]RunEvent),
	}
	return id, nil
}

func (l *MemLedger) lookup(runID RunID) (*runState, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	st, ok := l.runs[runID]
	if !ok {
		return nil, aerr.RunNotFound(string(runID))
	}
	return st, nil
}

func (l *MemLedger) AppendEvent(_ context.Context, runID RunID, event RunEvent) error {
	st, err := l.lookup(runID)
	if err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if st.record.Status != StatusRunning {
		return aerr.InvalidRunState(string(runID), string(st.record.Status), "append_event")
	}
	if _, exists := st.events[event.Seq]; exists {
		return aerr.DuplicateTool("seq already recorded")
	}
	st.events[event.Seq] = event
	return nil
}

func (l *MemLedger) terminalTransition(runID RunID, status RunStatus, summary RunSummary) error {
	st, err := l.lookup(runID)
	if err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if st.record.Status != StatusRunning {
		return aerr.InvalidRunState(string(runID), string(st.record.Status), string(status))
	}
	now := time.Now().UTC()
	st.record.Status = status
	st.record.Summary = &summary
	st.record.CompletedAt = &now
	return nil
}

func (l *MemLedger) CompleteRun(_ context.Context, runID RunID, summary RunSummary) error {
	return l.terminalTransition(runID, StatusCompleted, summary)
}

func (l *MemLedger) FailRun(_ context.Context, runID RunID, summary RunSummary) error {
	return l.terminalTransition(runID, StatusFailed, summary)
}

func (l *MemLedger) CancelRun(_ context.Context, runID RunID, summary RunSummary) error {
	return l.terminalTransition(runID, StatusCancelled, summary)
}

func (l *MemLedger) GetRun(_ context.Context, runID RunID) (RunRecord, error) {
	st, err := l.lookup(runID)
	if err != nil {
		return RunRecord{}, err
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	return st.record, nil
}

func (l *MemLedger) GetEvents(_ context.Context, runID RunID) ([]RunEvent, error) {
	st, err := l.lookup(runID)
	if err != nil {
		return nil, err
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	events := make([]RunEvent, 0, len(st.events))
	for _, e := range st.events {
		events = append(events, e)
	}
	sort.Slice(events, func(i, j int) bool { return events[i].Seq < events[j].Seq })
	return events, nil
}

func (l *MemLedger) ListRuns(_ context.Context, specDigest string) ([]RunRecord, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]RunRecord, 0)
	for _, st := range l.runs {
		if specDigest != "" && st.record.SpecDigest != specDigest {
			continue
		}
		out = append(out, st.record)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}
