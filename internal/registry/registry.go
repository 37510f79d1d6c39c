// Package registry implements the append-only release registry (§4.4).
package registry

import (
	"context"
	"sort"
	"sync"
	"time"

	aerr "github.com/R3E-Network/aivcs/infrastructure/errors"
)

// ReleaseMetadata carries the operator-facing details of a promotion.
type ReleaseMetadata struct {
	VersionLabel string `json:"version_label,omitempty"`
	PromotedBy   string `json:"promoted_by"`
	Notes        string `json:"notes,omitempty"`
}

// ReleaseRecord is one append-only entry in a release's history. Multiple
// records may share Name; the "current" one is the record with the
// greatest CreatedAt.
type ReleaseRecord struct {
	Name       string          `json:"name"`
	SpecDigest string          `json:"spec_digest"`
	Metadata   ReleaseMetadata `json:"metadata"`
	CreatedAt  time.Time       `json:"created_at"`
}

// Registry is the append-only release registry contract of §4.4.
type Registry interface {
	Promote(ctx context.Context, name, specDigest string, metadata ReleaseMetadata) (ReleaseRecord, error)
	Rollback(ctx context.Context, name string) (ReleaseRecord, error)
	Current(ctx context.Context, name string) (*ReleaseRecord, error)
	History(ctx context.Context, name string) ([]ReleaseRecord, error)
}

// MemRegistry is an in-memory Registry.
type MemRegistry struct {
	mu       sync.Mutex
	byName   map[string][]ReleaseRecord
	clockSeq int64
}

var _ Registry = (*MemRegistry)(nil)

// NewMemRegistry constructs an empty in-memory registry.
func NewMemRegistry() *MemRegistry {
	return &MemRegistry{byName: make(map[string][]ReleaseRecord)}
}

// nextTimestamp guarantees strictly increasing CreatedAt values even when
// promote/rollback calls land within the same wall-clock tick, so that
// "newest" is always well-defined.
func (r *MemRegistry) nextTimestamp() time.Time {
	r.clockSeq++
	return time.Now().UTC().Add(time.Duration(r.clockSeq) * time.Nanosecond)
}

func (r *MemRegistry) Promote(_ context.Context, name, specDigest string, metadata ReleaseMetadata) (ReleaseRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec := ReleaseRecord{Name: name, SpecDigest: specDigest, Metadata: metadata, CreatedAt: r.nextTimestamp()}
	r.byName[name] = append(r.byName[name], rec)
	return rec, nil
}

// Rollback reads the second-newest record for name and re-promotes it with
// a new CreatedAt. This never deletes history — it appends a fresh record
// carrying the old content, preserving a complete audit trail.
func (r *MemRegistry) Rollback(_ context.Context, name string) (ReleaseRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	history := r.sortedLocked(name)
	if len(history) == 0 {
		return ReleaseRecord{}, aerr.ReleaseNotFound(name)
	}
	if len(history) < 2 {
		return ReleaseRecord{}, aerr.NoPreviousRelease(name)
	}
	previous := history[1]
	reappended := ReleaseRecord{
		Name:       previous.Name,
		SpecDigest: previous.SpecDigest,
		Metadata:   previous.Metadata,
		CreatedAt:  r.nextTimestamp(),
	}
	r.byName[name] = append(r.byName[name], reappended)
	return reappended, nil
}

func (r *MemRegistry) Current(_ context.Context, name string) (*ReleaseRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	history := r.sortedLocked(name)
	if len(history) == 0 {
		return nil, nil
	}
	cur := history[0]
	return &cur, nil
}

func (r *MemRegistry) History(_ context.Context, name string) ([]ReleaseRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sortedLocked(name), nil
}

// sortedLocked returns name's records newest-first. Caller must hold r.mu.
func (r *MemRegistry) sortedLocked(name string) []ReleaseRecord {
	records := r.byName[name]
	out := make([]ReleaseRecord, len(records))
	copy(out, records)
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}
