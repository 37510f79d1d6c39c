// Package app wires the domain packages (ledger, registry, gates, roles,
// hitl) into a single application object that the HTTP server and CLI both
// drive.
package app

import (
	"context"

	"go.uber.org/zap"

	"github.com/R3E-Network/aivcs/internal/eventstream"
	"github.com/R3E-Network/aivcs/internal/hitl"
	"github.com/R3E-Network/aivcs/internal/ledger"
	"github.com/R3E-Network/aivcs/internal/registry"
)

// App bundles the stores and policy objects that back the HTTP API and CLI.
// Its stores are in-memory by default; a persistent backend can be swapped
// in by constructing App with different Ledger/Registry implementations.
type App struct {
	Ledger       ledger.RunLedger
	Registry     registry.Registry
	ApprovalGate hitl.Gate
	Approvals    *hitl.ApprovalStore
	Stream       *eventstream.Hub
}

// New constructs an App with in-memory ledger and registry backends and the
// default approval policy.
func New() *App {
	return &App{
		Ledger:       ledger.NewMemLedger(),
		Registry:     registry.NewMemRegistry(),
		ApprovalGate: hitl.DefaultGate(),
		Approvals:    hitl.NewApprovalStore(),
		Stream:       eventstream.NewHub(zap.NewNop()),
	}
}

// CreateRun starts a new run under specDigest.
func (a *App) CreateRun(ctx context.Context, specDigest string, metadata ledger.RunMetadata) (ledger.RunID, error) {
	return a.Ledger.CreateRun(ctx, specDigest, metadata)
}

// AppendEvent appends event to runID's ledger and fans it out to any live
// stream subscribers.
func (a *App) AppendEvent(ctx context.Context, runID ledger.RunID, event ledger.RunEvent) error {
	if err := a.Ledger.AppendEvent(ctx, runID, event); err != nil {
		return err
	}
	if a.Stream != nil {
		a.Stream.Publish(runID, event)
	}
	return nil
}

// CompleteRun transitions runID to Completed and closes its event stream.
func (a *App) CompleteRun(ctx context.Context, runID ledger.RunID, summary ledger.RunSummary) error {
	if err := a.Ledger.CompleteRun(ctx, runID, summary); err != nil {
		return err
	}
	a.closeStream(runID)
	return nil
}

// FailRun transitions runID to Failed and closes its event stream.
func (a *App) FailRun(ctx context.Context, runID ledger.RunID, summary ledger.RunSummary) error {
	if err := a.Ledger.FailRun(ctx, runID, summary); err != nil {
		return err
	}
	a.closeStream(runID)
	return nil
}

// CancelRun transitions runID to Cancelled and closes its event stream.
func (a *App) CancelRun(ctx context.Context, runID ledger.RunID, summary ledger.RunSummary) error {
	if err := a.Ledger.CancelRun(ctx, runID, summary); err != nil {
		return err
	}
	a.closeStream(runID)
	return nil
}

func (a *App) closeStream(runID ledger.RunID) {
	if a.Stream != nil {
		a.Stream.Close(runID)
	}
}

// GetRun returns runID's current record.
func (a *App) GetRun(ctx context.Context, runID ledger.RunID) (ledger.RunRecord, error) {
	return a.Ledger.GetRun(ctx, runID)
}

// GetEvents returns runID's full event sequence.
func (a *App) GetEvents(ctx context.Context, runID ledger.RunID) ([]ledger.RunEvent, error) {
	return a.Ledger.GetEvents(ctx, runID)
}

// ListRuns lists runs, optionally filtered by specDigest.
func (a *App) ListRuns(ctx context.Context, specDigest string) ([]ledger.RunRecord, error) {
	return a.Ledger.ListRuns(ctx, specDigest)
}

// PromoteRelease promotes a new release for name.
func (a *App) PromoteRelease(ctx context.Context, name, specDigest string, metadata registry.ReleaseMetadata) (registry.ReleaseRecord, error) {
	return a.Registry.Promote(ctx, name, specDigest, metadata)
}

// RollbackRelease rolls name back to its previous release.
func (a *App) RollbackRelease(ctx context.Context, name string) (registry.ReleaseRecord, error) {
	return a.Registry.Rollback(ctx, name)
}

// CurrentRelease returns name's active release, if any.
func (a *App) CurrentRelease(ctx context.Context, name string) (*registry.ReleaseRecord, error) {
	return a.Registry.Current(ctx, name)
}

// ReleaseHistory returns name's full release history.
func (a *App) ReleaseHistory(ctx context.Context, name string) ([]registry.ReleaseRecord, error) {
	return a.Registry.History(ctx, name)
}
