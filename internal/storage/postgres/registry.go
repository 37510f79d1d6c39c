package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	aerr "github.com/R3E-Network/aivcs/infrastructure/errors"
	"github.com/R3E-Network/aivcs/internal/registry"
)

type releaseRow struct {
	Name         string         `db:"name"`
	SpecDigest   string         `db:"spec_digest"`
	VersionLabel sql.NullString `db:"version_label"`
	PromotedBy   string         `db:"promoted_by"`
	Notes        sql.NullString `db:"notes"`
	CreatedAt    time.Time      `db:"created_at"`
}

func (r releaseRow) toRecord() registry.ReleaseRecord {
	return registry.ReleaseRecord{
		Name:       r.Name,
		SpecDigest: r.SpecDigest,
		CreatedAt:  r.CreatedAt,
		Metadata: registry.ReleaseMetadata{
			VersionLabel: r.VersionLabel.String,
			PromotedBy:   r.PromotedBy,
			Notes:        r.Notes.String,
		},
	}
}

// Promote appends a new release record for name.
func (s *Store) Promote(ctx context.Context, name, specDigest string, metadata registry.ReleaseMetadata) (registry.ReleaseRecord, error) {
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO releases (name, spec_digest, version_label, promoted_by, notes, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		name, specDigest, metadata.VersionLabel, metadata.PromotedBy, metadata.Notes, now,
	)
	if err != nil {
		return registry.ReleaseRecord{}, aerr.Backend("postgres: promote release", err)
	}
	return registry.ReleaseRecord{Name: name, SpecDigest: specDigest, Metadata: metadata, CreatedAt: now}, nil
}

// Rollback re-promotes the release immediately preceding the current one,
// mirroring MemRegistry's append-only rollback semantics and errors. The
// re-appended record's notes are prefixed with "rollback: ".
func (s *Store) Rollback(ctx context.Context, name string) (registry.ReleaseRecord, error) {
	var rows []releaseRow
	err := s.db.SelectContext(ctx, &rows,
		`SELECT name, spec_digest, version_label, promoted_by, notes, created_at
		 FROM releases WHERE name = $1 ORDER BY created_at DESC LIMIT 2`, name)
	if err != nil {
		return registry.ReleaseRecord{}, aerr.Backend("postgres: rollback lookup", err)
	}
	if len(rows) == 0 {
		return registry.ReleaseRecord{}, aerr.ReleaseNotFound(name)
	}
	if len(rows) < 2 {
		return registry.ReleaseRecord{}, aerr.NoPreviousRelease(name)
	}

	previous := rows[1].toRecord()
	return s.Promote(ctx, name, previous.SpecDigest, registry.ReleaseMetadata{
		VersionLabel: previous.Metadata.VersionLabel,
		PromotedBy:   previous.Metadata.PromotedBy,
		Notes:        "rollback: " + previous.Metadata.Notes,
	})
}

// Current returns name's most recently promoted release, or nil if none
// exists.
func (s *Store) Current(ctx context.Context, name string) (*registry.ReleaseRecord, error) {
	var row releaseRow
	err := s.db.GetContext(ctx, &row,
		`SELECT name, spec_digest, version_label, promoted_by, notes, created_at
		 FROM releases WHERE name = $1 ORDER BY created_at DESC LIMIT 1`, name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, aerr.Backend("postgres: current release", err)
	}
	record := row.toRecord()
	return &record, nil
}

// History returns name's full release history, newest first.
func (s *Store) History(ctx context.Context, name string) ([]registry.ReleaseRecord, error) {
	var rows []releaseRow
	err := s.db.SelectContext(ctx, &rows,
		`SELECT name, spec_digest, version_label, promoted_by, notes, created_at
		 FROM releases WHERE name = $1 ORDER BY created_at DESC`, name)
	if err != nil {
		return nil, aerr.Backend("postgres: release history", err)
	}
	records := make([]registry.ReleaseRecord, 0, len(rows))
	for _, r := range rows {
		records = append(records, r.toRecord())
	}
	return records, nil
}
