package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"

	aerr "github.com/R3E-Network/aivcs/infrastructure/errors"
	"github.com/R3E-Network/aivcs/internal/ledger"
)

type runRow struct {
	RunID       string         `db:"run_id"`
	SpecDigest  string         `db:"spec_digest"`
	AgentName   string         `db:"agent_name"`
	GitSHA      sql.NullString `db:"git_sha"`
	Tags        []byte         `db:"tags"`
	Status      string         `db:"status"`
	Summary     []byte         `db:"summary"`
	CreatedAt   time.Time      `db:"created_at"`
	CompletedAt sql.NullTime   `db:"completed_at"`
}

func (r runRow) toRecord() (ledger.RunRecord, error) {
	record := ledger.RunRecord{
		RunID:      ledger.RunID(r.RunID),
		SpecDigest: r.SpecDigest,
		Status:     ledger.RunStatus(r.Status),
		CreatedAt:  r.CreatedAt,
		Metadata: ledger.RunMetadata{
			AgentName: r.AgentName,
			GitSHA:    r.GitSHA.String,
		},
	}
	if len(r.Tags) > 0 {
		if err := json.Unmarshal(r.Tags, &record.Metadata.Tags); err != nil {
			return ledger.RunRecord{}, aerr.Serialization(err)
		}
	}
	if len(r.Summary) > 0 {
		var summary ledger.RunSummary
		if err := json.Unmarshal(r.Summary, &summary); err != nil {
			return ledger.RunRecord{}, aerr.Serialization(err)
		}
		record.Summary = &summary
	}
	if r.CompletedAt.Valid {
		t := r.CompletedAt.Time
		record.CompletedAt = &t
	}
	return record, nil
}

// CreateRun inserts a new run row in the running state.
func (s *Store) CreateRun(ctx context.Context, specDigest string, metadata ledger.RunMetadata) (ledger.RunID, error) {
	id := ledger.RunID(uuid.NewString())
	tags, err := json.Marshal(metadata.Tags)
	if err != nil {
		return "", aerr.Serialization(err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO runs (run_id, spec_digest, agent_name, git_sha, tags, status, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		string(id), specDigest, metadata.AgentName, metadata.GitSHA, tags, string(ledger.StatusRunning), time.Now().UTC(),
	)
	if err != nil {
		return "", aerr.Backend("postgres: create run", err)
	}
	return id, nil
}

func (s *Store) runStatus(ctx context.Context, runID ledger.RunID) (string, error) {
	var status string
	err := s.db.GetContext(ctx, &status, `SELECT status FROM runs WHERE run_id = $1`, string(runID))
	if errors.Is(err, sql.ErrNoRows) {
		return "", aerr.RunNotFound(string(runID))
	}
	if err != nil {
		return "", aerr.Backend("postgres: lookup run status", err)
	}
	return status, nil
}

// AppendEvent inserts event into runID's append-only event log.
func (s *Store) AppendEvent(ctx context.Context, runID ledger.RunID, event ledger.RunEvent) error {
	status, err := s.runStatus(ctx, runID)
	if err != nil {
		return err
	}
	if status != string(ledger.StatusRunning) {
		return aerr.InvalidRunState(string(runID), status, "append_event")
	}

	payload, err := json.Marshal(event.Payload)
	if err != nil {
		return aerr.Serialization(err)
	}
	ts := event.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO run_events (run_id, seq, kind, payload, ts) VALUES ($1, $2, $3, $4, $5)`,
		string(runID), event.Seq, event.Kind, payload, ts,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return aerr.DuplicateTool("seq already recorded")
		}
		return aerr.Backend("postgres: append event", err)
	}
	return nil
}

func (s *Store) terminalTransition(ctx context.Context, runID ledger.RunID, status ledger.RunStatus, summary ledger.RunSummary) error {
	current, err := s.runStatus(ctx, runID)
	if err != nil {
		return err
	}
	if current != string(ledger.StatusRunning) {
		return aerr.InvalidRunState(string(runID), current, string(status))
	}

	encoded, err := json.Marshal(summary)
	if err != nil {
		return aerr.Serialization(err)
	}
	_, err = s.db.ExecContext(ctx,
		`UPDATE runs SET status = $1, summary = $2, completed_at = $3 WHERE run_id = $4`,
		string(status), encoded, time.Now().UTC(), string(runID),
	)
	if err != nil {
		return aerr.Backend("postgres: terminal transition", err)
	}
	return nil
}

// CompleteRun transitions runID to Completed.
func (s *Store) CompleteRun(ctx context.Context, runID ledger.RunID, summary ledger.RunSummary) error {
	return s.terminalTransition(ctx, runID, ledger.StatusCompleted, summary)
}

// FailRun transitions runID to Failed.
func (s *Store) FailRun(ctx context.Context, runID ledger.RunID, summary ledger.RunSummary) error {
	return s.terminalTransition(ctx, runID, ledger.StatusFailed, summary)
}

// CancelRun transitions runID to Cancelled.
func (s *Store) CancelRun(ctx context.Context, runID ledger.RunID, summary ledger.RunSummary) error {
	return s.terminalTransition(ctx, runID, ledger.StatusCancelled, summary)
}

// GetRun returns runID's current record.
func (s *Store) GetRun(ctx context.Context, runID ledger.RunID) (ledger.RunRecord, error) {
	var row runRow
	err := s.db.GetContext(ctx, &row, `SELECT run_id, spec_digest, agent_name, git_sha, tags, status, summary, created_at, completed_at
		FROM runs WHERE run_id = $1`, string(runID))
	if errors.Is(err, sql.ErrNoRows) {
		return ledger.RunRecord{}, aerr.RunNotFound(string(runID))
	}
	if err != nil {
		return ledger.RunRecord{}, aerr.Backend("postgres: get run", err)
	}
	return row.toRecord()
}

// GetEvents returns runID's full event sequence, ordered by seq.
func (s *Store) GetEvents(ctx context.Context, runID ledger.RunID) ([]ledger.RunEvent, error) {
	if _, err := s.runStatus(ctx, runID); err != nil {
		return nil, err
	}

	type eventRow struct {
		Seq     int64     `db:"seq"`
		Kind    string    `db:"kind"`
		Payload []byte    `db:"payload"`
		Ts      time.Time `db:"ts"`
	}
	var rows []eventRow
	err := s.db.SelectContext(ctx, &rows,
		`SELECT seq, kind, payload, ts FROM run_events WHERE run_id = $1 ORDER BY seq ASC`, string(runID))
	if err != nil {
		return nil, aerr.Backend("postgres: list events", err)
	}

	events := make([]ledger.RunEvent, 0, len(rows))
	for _, r := range rows {
		var payload map[string]interface{}
		if len(r.Payload) > 0 {
			if err := json.Unmarshal(r.Payload, &payload); err != nil {
				return nil, aerr.Serialization(err)
			}
		}
		events = append(events, ledger.RunEvent{
			Seq:       uint64(r.Seq),
			Kind:      r.Kind,
			Payload:   payload,
			Timestamp: r.Ts,
		})
	}
	return events, nil
}

// ListRuns lists runs, optionally filtered by specDigest, newest first.
func (s *Store) ListRuns(ctx context.Context, specDigest string) ([]ledger.RunRecord, error) {
	var rows []runRow
	var err error
	if specDigest == "" {
		err = s.db.SelectContext(ctx, &rows,
			`SELECT run_id, spec_digest, agent_name, git_sha, tags, status, summary, created_at, completed_at
			 FROM runs ORDER BY created_at DESC`)
	} else {
		err = s.db.SelectContext(ctx, &rows,
			`SELECT run_id, spec_digest, agent_name, git_sha, tags, status, summary, created_at, completed_at
			 FROM runs WHERE spec_digest = $1 ORDER BY created_at DESC`, specDigest)
	}
	if err != nil {
		return nil, aerr.Backend("postgres: list runs", err)
	}

	records := make([]ledger.RunRecord, 0, len(rows))
	for _, r := range rows {
		record, err := r.toRecord()
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, nil
}
