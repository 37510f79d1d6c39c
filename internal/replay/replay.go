// Package replay implements the deterministic replay engine (§4.5).
package replay

import (
	"context"
	"encoding/json"

	aerr "github.com/R3E-Network/aivcs/infrastructure/errors"
	"github.com/R3E-Network/aivcs/internal/digest"
	"github.com/R3E-Network/aivcs/internal/ledger"
)

// ReplaySummary is produced after replaying a run's events.
type ReplaySummary struct {
	RunID        string
	AgentName    string
	Status       ledger.RunStatus
	EventCount   int
	ReplayDigest string
	SpecDigest   string
}

// ResumePoint is extracted from the last checkpoint event in a run.
type ResumePoint struct {
	CheckpointID string
	CheckpointSeq uint64
	NodeID        string
	EventsBefore  []ledger.RunEvent
}

// VerifySpecDigest is a required pre-flight gate before any replay that
// claims deterministic equivalence: it fails with DigestMismatch if the
// run's recorded spec_digest differs from expected.
func VerifySpecDigest(ctx context.Context, l ledger.RunLedger, runID ledger.RunID, expected string) error {
	record, err := l.GetRun(ctx, runID)
	if err != nil {
		return err
	}
	if record.SpecDigest != expected {
		return aerr.DigestMismatch(expected, record.SpecDigest)
	}
	return nil
}

// FindResumePoint scans a run's events in reverse for the last checkpoint
// marker and returns everything up to and including it. Returns (nil, nil)
// if no checkpoint exists.
func FindResumePoint(ctx context.Context, l ledger.RunLedger, runID ledger.RunID) (*ResumePoint, error) {
	events, err := l.GetEvents(ctx, runID)
	if err != nil {
		return nil, err
	}

	pos := -1
	for i := len(events) - 1; i >= 0; i-- {
		if events[i].Kind == ledger.KindCheckpointSaved {
			pos = i
			break
		}
	}
	if pos < 0 {
		return nil, nil
	}

	cp := events[pos]
	checkpointID, _ := cp.Payload["checkpoint_id"].(string)
	nodeID, _ := cp.Payload["node_id"].(string)

	eventsBefore := make([]ledger.RunEvent, pos+1)
	copy(eventsBefore, events[:pos+1])

	return &ResumePoint{
		CheckpointID:  checkpointID,
		CheckpointSeq: cp.Seq,
		NodeID:        nodeID,
		EventsBefore:  eventsBefore,
	}, nil
}

// RunReplay fetches a run's record and events (ascending seq order,
// guaranteed by the ledger) and computes a deterministic replay digest
// over the event sequence, for golden-equality testing. It fails with the
// ledger's NotFound error if the run does not exist ("missing artifact
// rejection").
func RunReplay(ctx context.Context, l ledger.RunLedger, runID ledger.RunID) ([]ledger.RunEvent, ReplaySummary, error) {
	record, err := l.GetRun(ctx, runID)
	if err != nil {
		return nil, ReplaySummary{}, err
	}

	events, err := l.GetEvents(ctx, runID)
	if err != nil {
		return nil, ReplaySummary{}, err
	}

	replayDigest, err := computeEventsDigest(events)
	if err != nil {
		return nil, ReplaySummary{}, err
	}

	summary := ReplaySummary{
		RunID:        string(record.RunID),
		AgentName:    record.Metadata.AgentName,
		Status:       record.Status,
		EventCount:   len(events),
		ReplayDigest: replayDigest,
		SpecDigest:   record.SpecDigest,
	}
	return events, summary, nil
}

// computeEventsDigest hashes the canonical JSON serialization of events,
// matching the original's SHA-256(serde_json::to_vec(&events)) discipline
// by canonicalizing through internal/digest rather than relying on Go's
// default (and RFC-8785-agnostic) encoding/json key ordering.
func computeEventsDigest(events []ledger.RunEvent) (string, error) {
	raw, err := json.Marshal(events)
	if err != nil {
		return "", aerr.Serialization(err)
	}
	value, err := digest.DecodeJSON(raw)
	if err != nil {
		return "", err
	}
	return digest.ComputeDigest(value)
}
