package trace_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	aerr "github.com/R3E-Network/aivcs/infrastructure/errors"
	"github.com/R3E-Network/aivcs/internal/digest"
	"github.com/R3E-Network/aivcs/internal/ledger"
	"github.com/R3E-Network/aivcs/internal/trace"
)

func computeDigest(events []ledger.RunEvent) (string, error) {
	raw, err := json.Marshal(events)
	if err != nil {
		return "", err
	}
	value, err := digest.DecodeJSON(raw)
	if err != nil {
		return "", err
	}
	return digest.ComputeDigest(value)
}

func makeRecord(runID string, createdAt time.Time) ledger.RunRecord {
	return ledger.RunRecord{
		RunID:      ledger.RunID(runID),
		SpecDigest: "spec",
		Metadata:   ledger.RunMetadata{AgentName: "agent"},
		Status:     ledger.StatusCompleted,
		CreatedAt:  createdAt,
	}
}

func makeEvents(ts time.Time) []ledger.RunEvent {
	return []ledger.RunEvent{{Seq: 1, Kind: ledger.KindGraphStarted, Payload: map[string]interface{}{}, Timestamp: ts}}
}

func TestWriteAndReadTraceArtifactRoundtrip(t *testing.T) {
	dir := t.TempDir()
	ts := time.Now().UTC()
	events := makeEvents(ts)
	dig, err := computeDigest(events)
	require.NoError(t, err)

	record := makeRecord("run-abc", ts)
	artifact := trace.FromReplay(record, events, dig)

	path, err := trace.Write(artifact, dir, computeDigest)
	require.NoError(t, err)
	assert.FileExists(t, path)

	loaded, err := trace.Read("run-abc", dir, computeDigest)
	require.NoError(t, err)
	assert.Equal(t, "run-abc", loaded.RunID)
	assert.Equal(t, "agent", loaded.AgentName)
	assert.Equal(t, dig, loaded.ReplayDigest)
	assert.Equal(t, 1, loaded.EventCount)
}

func TestReadTraceArtifactDigestMismatchRejected(t *testing.T) {
	dir := t.TempDir()
	ts := time.Now().UTC()
	events := makeEvents(ts)

	record := makeRecord("run-xyz", ts)
	artifact := trace.FromReplay(record, events, "a0000000000000000000000000000000000000000000000000000000000000")

	runDir := filepath.Join(dir, "run-xyz")
	require.NoError(t, os.MkdirAll(runDir, 0o755))
	raw, err := json.Marshal(artifact)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(runDir, "trace.json"), raw, 0o644))

	_, err = trace.Read("run-xyz", dir, computeDigest)
	require.Error(t, err)
	assert.True(t, aerr.Is(err, aerr.ErrCodeDigestMismatch))
}

func TestRetentionPolicyPrunesOldRuns(t *testing.T) {
	dir := t.TempDir()
	now := time.Now().UTC()

	for id, daysAgo := range map[string]int64{"run-new": 0, "run-old1": 10, "run-old2": 20} {
		ts := now.Add(-time.Duration(daysAgo) * 24 * time.Hour)
		events := makeEvents(ts)
		dig, err := computeDigest(events)
		require.NoError(t, err)
		record := makeRecord(id, ts)
		artifact := trace.FromReplay(record, events, dig)
		_, err = trace.Write(artifact, dir, computeDigest)
		require.NoError(t, err)
	}

	maxAge := int64(5)
	policy := trace.RetentionPolicy{MaxAgeDays: &maxAge}
	pruned, err := policy.Prune(dir)
	require.NoError(t, err)
	assert.Equal(t, 2, pruned)

	assert.FileExists(t, filepath.Join(dir, "run-new", "trace.json"))
	assert.NoDirExists(t, filepath.Join(dir, "run-old1"))
	assert.NoDirExists(t, filepath.Join(dir, "run-old2"))
}

func TestRetentionPolicyMaxRuns(t *testing.T) {
	dir := t.TempDir()
	now := time.Now().UTC()

	order := []string{"run-1", "run-2", "run-3", "run-4"}
	for i, id := range order {
		ts := now.Add(-time.Duration(i) * 24 * time.Hour)
		events := makeEvents(ts)
		dig, err := computeDigest(events)
		require.NoError(t, err)
		record := makeRecord(id, ts)
		artifact := trace.FromReplay(record, events, dig)
		_, err = trace.Write(artifact, dir, computeDigest)
		require.NoError(t, err)
	}

	maxRuns := 2
	policy := trace.RetentionPolicy{MaxRuns: &maxRuns}
	pruned, err := policy.Prune(dir)
	require.NoError(t, err)
	assert.Equal(t, 2, pruned)

	assert.FileExists(t, filepath.Join(dir, "run-1", "trace.json"))
	assert.FileExists(t, filepath.Join(dir, "run-2", "trace.json"))
	assert.NoDirExists(t, filepath.Join(dir, "run-3"))
	assert.NoDirExists(t, filepath.Join(dir, "run-4"))
}
