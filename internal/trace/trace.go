// Package trace persists run trace artifacts to disk and prunes them
// according to a retention policy (§4.6).
package trace

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"time"

	aerr "github.com/R3E-Network/aivcs/infrastructure/errors"
	"github.com/R3E-Network/aivcs/infrastructure/redaction"
	"github.com/R3E-Network/aivcs/internal/ledger"
)

const (
	traceFileName  = "trace.json"
	digestFileName = "trace.digest"
)

// RunTraceArtifact is a self-contained, integrity-checked record of a
// completed run: the full event sequence plus the provenance fields from
// its RunRecord and a replay digest for out-of-band verification.
type RunTraceArtifact struct {
	RunID        string             `json:"run_id"`
	SpecDigest   string             `json:"spec_digest"`
	AgentName    string             `json:"agent_name"`
	Status       string             `json:"status"`
	CreatedAt    time.Time          `json:"created_at"`
	CompletedAt  *time.Time         `json:"completed_at,omitempty"`
	Events       []ledger.RunEvent  `json:"events"`
	ReplayDigest string             `json:"replay_digest"`
	EventCount   int                `json:"event_count"`
}

// FromReplay builds a RunTraceArtifact from a run record, its events, and a
// pre-computed replay digest.
func FromReplay(record ledger.RunRecord, events []ledger.RunEvent, replayDigest string) RunTraceArtifact {
	return RunTraceArtifact{
		RunID:        string(record.RunID),
		SpecDigest:   record.SpecDigest,
		AgentName:    record.Metadata.AgentName,
		Status:       string(record.Status),
		CreatedAt:    record.CreatedAt,
		CompletedAt:  record.CompletedAt,
		Events:       events,
		ReplayDigest: replayDigest,
		EventCount:   len(events),
	}
}

// digestFn computes the replay digest of an event slice the same way the
// rest of the system does; callers supply it, so this package does not
// import internal/replay.
type digestFn func(events []ledger.RunEvent) (string, error)

// Write persists artifact to <dir>/<run_id>/trace.json, plus a companion
// <dir>/<run_id>/trace.digest holding the replay digest, and returns the
// path to trace.json. Event payloads are scrubbed through the standard
// redactor before persistence; since that can change the serialized bytes,
// the replay digest is recomputed from the redacted events via
// computeDigest so Read's later integrity check stays self-consistent with
// what actually landed on disk.
func Write(artifact RunTraceArtifact, dir string, computeDigest digestFn) (string, error) {
	runDir := filepath.Join(dir, artifact.RunID)
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return "", aerr.IO("mkdir", err)
	}

	redactor := redaction.NewRedactor(redaction.DefaultConfig())
	redactedEvents := make([]ledger.RunEvent, len(artifact.Events))
	for i, e := range artifact.Events {
		if e.Payload != nil {
			e.Payload = redactor.RedactMap(e.Payload)
		}
		redactedEvents[i] = e
	}
	artifact.Events = redactedEvents

	if replayDigest, err := computeDigest(redactedEvents); err == nil {
		artifact.ReplayDigest = replayDigest
	}

	tracePath := filepath.Join(runDir, traceFileName)
	digestPath := filepath.Join(runDir, digestFileName)

	raw, err := json.MarshalIndent(artifact, "", "  ")
	if err != nil {
		return "", aerr.Serialization(err)
	}
	if err := os.WriteFile(tracePath, raw, 0o644); err != nil {
		return "", aerr.IO("write_trace", err)
	}
	if err := os.WriteFile(digestPath, []byte(artifact.ReplayDigest), 0o644); err != nil {
		return "", aerr.IO("write_digest", err)
	}
	return tracePath, nil
}

// Read loads and integrity-verifies <dir>/<run_id>/trace.json, recomputing
// the digest via computeDigest and comparing it to the artifact's stored
// replay_digest. Returns DigestMismatch on divergence.
func Read(runID string, dir string, computeDigest digestFn) (RunTraceArtifact, error) {
	tracePath := filepath.Join(dir, runID, traceFileName)

	raw, err := os.ReadFile(tracePath)
	if err != nil {
		return RunTraceArtifact{}, aerr.IO("read_trace", err)
	}

	var artifact RunTraceArtifact
	if err := json.Unmarshal(raw, &artifact); err != nil {
		return RunTraceArtifact{}, aerr.Serialization(err)
	}

	actual, err := computeDigest(artifact.Events)
	if err != nil {
		return RunTraceArtifact{}, err
	}
	if actual != artifact.ReplayDigest {
		return RunTraceArtifact{}, aerr.DigestMismatch(artifact.ReplayDigest, actual)
	}
	return artifact, nil
}

// RetentionPolicy prunes run trace artifact directories by age and/or count.
type RetentionPolicy struct {
	// MaxAgeDays, if non-nil, removes runs older than this many days.
	MaxAgeDays *int64
	// MaxRuns, if non-nil, keeps at most this many runs, newest first.
	MaxRuns *int
}

type pruneEntry struct {
	createdAt time.Time
	path      string
}

// Prune scans <dir>/*/trace.json, applies age pruning then count pruning
// (in that order), deleting whole run directories that exceed the policy.
// Returns the number of pruned entries. A missing dir prunes zero, not an
// error.
func (p RetentionPolicy) Prune(dir string) (int, error) {
	children, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, aerr.IO("read_dir", err)
	}

	var entries []pruneEntry
	for _, child := range children {
		if !child.IsDir() {
			continue
		}
		runPath := filepath.Join(dir, child.Name())
		tracePath := filepath.Join(runPath, traceFileName)
		raw, err := os.ReadFile(tracePath)
		if err != nil {
			continue
		}
		var artifact RunTraceArtifact
		if err := json.Unmarshal(raw, &artifact); err != nil {
			continue
		}
		entries = append(entries, pruneEntry{createdAt: artifact.CreatedAt, path: runPath})
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].createdAt.After(entries[j].createdAt) })

	pruned := 0
	now := time.Now().UTC()

	if p.MaxAgeDays != nil {
		cutoff := now.Add(-time.Duration(*p.MaxAgeDays) * 24 * time.Hour)
		kept := entries[:0]
		for _, e := range entries {
			if e.createdAt.Before(cutoff) {
				if os.RemoveAll(e.path) == nil {
					pruned++
				}
				continue
			}
			kept = append(kept, e)
		}
		entries = kept
	}

	if p.MaxRuns != nil && len(entries) > *p.MaxRuns {
		for _, e := range entries[*p.MaxRuns:] {
			if os.RemoveAll(e.path) == nil {
				pruned++
			}
		}
	}

	return pruned, nil
}
