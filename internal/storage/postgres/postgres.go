// Package postgres is a persistent reference implementation of the
// cas.Store, ledger.RunLedger, and registry.Registry contracts, backed by a
// single Postgres database. It exists alongside the in-memory defaults for
// deployments that need durability beyond one process's lifetime.
package postgres

import (
	"context"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	aerr "github.com/R3E-Network/aivcs/infrastructure/errors"
	"github.com/R3E-Network/aivcs/internal/cas"
	"github.com/R3E-Network/aivcs/internal/ledger"
	"github.com/R3E-Network/aivcs/internal/registry"
)

// Store bundles the three append-only backends behind one *sqlx.DB
// connection pool. Its three facets are also obtainable individually via
// CasStore, RunLedger, and ReleaseRegistry for callers that only want to
// swap out one backend.
type Store struct {
	db *sqlx.DB
}

var (
	_ cas.Store         = (*Store)(nil)
	_ ledger.RunLedger  = (*Store)(nil)
	_ registry.Registry = (*Store)(nil)
)

// Open connects to dsn (a standard "postgres://" URL) and applies any
// pending schema migrations before returning.
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", dsn)
	if err != nil {
		return nil, aerr.Backend("postgres: connect", err)
	}
	if err := Migrate(db.DB); err != nil {
		_ = db.Close()
		return nil, aerr.Backend("postgres: migrate", err)
	}
	return &Store{db: db}, nil
}

// NewWithDB wraps an already-open *sqlx.DB without running migrations,
// primarily for tests that drive a sqlmock connection directly.
func NewWithDB(db *sqlx.DB) *Store {
	return &Store{db: db}
}

// Close releases the underlying connection pool.
func (s *Store) Close() error { return s.db.Close() }

// CasStore returns the cas.Store facet of s.
func (s *Store) CasStore() cas.Store { return s }

// RunLedger returns the ledger.RunLedger facet of s.
func (s *Store) RunLedger() ledger.RunLedger { return s }

// ReleaseRegistry returns the registry.Registry facet of s.
func (s *Store) ReleaseRegistry() registry.Registry { return s }
