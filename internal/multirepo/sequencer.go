package multirepo

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/R3E-Network/aivcs/internal/ledger"
)

// RepoReleaseStatus is the lifecycle state of one repo's release within a
// sequence.
type RepoReleaseStatus string

const (
	StatusPending    RepoReleaseStatus = "pending"
	StatusInProgress RepoReleaseStatus = "in_progress"
	StatusSucceeded  RepoReleaseStatus = "succeeded"
	StatusFailed     RepoReleaseStatus = "failed"
	StatusSkipped    RepoReleaseStatus = "skipped"
)

// SequenceItem is one entry in a cross-repo release sequence.
type SequenceItem struct {
	RepoID       string
	VersionLabel string
	SpecDigest   string
	PromotedBy   string
	Status       RepoReleaseStatus
	RunID        string
	FailReason   string
}

// SequencePlan is a topologically-ordered cross-repo release plan.
type SequencePlan struct {
	PlanID            string
	Items             []SequenceItem
	OriginatingRunID  string
}

// SequenceOutcome is the result of executing a SequencePlan.
type SequenceOutcome struct {
	PlanID    string
	Succeeded []string
	Failed    []FailedRepo
	Skipped   []string
}

// FailedRepo pairs a repo id with its failure reason.
type FailedRepo struct {
	RepoID string
	Reason string
}

// OverallSuccess reports true when no failures occurred.
func (o SequenceOutcome) OverallSuccess() bool { return len(o.Failed) == 0 }

// ReleaseDescriptor is one requested release, keyed by repo id.
type ReleaseDescriptor struct {
	RepoID       string
	VersionLabel string
	SpecDigest   string
	PromotedBy   string
}

// Releaser performs the actual per-repo release, returning a run id.
type Releaser interface {
	Release(ctx context.Context, repoID, versionLabel, specDigest, promotedBy string) (string, error)
}

// Sequencer orchestrates cross-repo release sequencing over a
// DependencyGraph, recording NodeEntered/NodeExited/NodeFailed events to
// the ledger as it goes.
type Sequencer struct {
	graph  *DependencyGraph
	ledger ledger.RunLedger
}

// NewSequencer constructs a Sequencer over graph, recording progress to l.
func NewSequencer(graph *DependencyGraph, l ledger.RunLedger) *Sequencer {
	return &Sequencer{graph: graph, ledger: l}
}

// BuildPlan produces a topologically-ordered SequencePlan. Repos present in
// the graph but absent from releases are included as pre-Skipped items, to
// preserve the dependency-ordering invariant of the plan's item list.
func (s *Sequencer) BuildPlan(releases []ReleaseDescriptor, originatingRunID string) (SequencePlan, error) {
	topo, err := s.graph.TopologicalOrder()
	if err != nil {
		return SequencePlan{}, err
	}

	byRepo := make(map[string]ReleaseDescriptor, len(releases))
	for _, r := range releases {
		byRepo[r.RepoID] = r
	}

	items := make([]SequenceItem, len(topo))
	for i, node := range topo {
		if d, ok := byRepo[node.RepoID]; ok {
			items[i] = SequenceItem{
				RepoID:       d.RepoID,
				VersionLabel: d.VersionLabel,
				SpecDigest:   d.SpecDigest,
				PromotedBy:   d.PromotedBy,
				Status:       StatusPending,
			}
		} else {
			items[i] = SequenceItem{RepoID: node.RepoID, VersionLabel: "skipped", Status: StatusSkipped}
		}
	}

	return SequencePlan{
		PlanID:           "seq-" + uuid.NewString()[:8],
		Items:            items,
		OriginatingRunID: originatingRunID,
	}, nil
}

// ExecutePlan runs plan's items in order. On a repo's failure, all of its
// transitive dependents are marked Skipped and never invoked.
func (s *Sequencer) ExecutePlan(ctx context.Context, plan SequencePlan, releaser Releaser) (SequenceOutcome, error) {
	runID, err := s.ledger.CreateRun(ctx, fmt.Sprintf("sequence:%s", plan.OriginatingRunID),
		ledger.RunMetadata{AgentName: "release-sequencer", Tags: map[string]string{"plan_id": plan.PlanID}})
	if err != nil {
		return SequenceOutcome{}, err
	}

	var outcome SequenceOutcome
	outcome.PlanID = plan.PlanID
	skipSet := make(map[string]struct{})
	var seq uint64 = 1

	for i := range plan.Items {
		item := &plan.Items[i]

		if item.Status == StatusSkipped {
			outcome.Skipped = append(outcome.Skipped, item.RepoID)
			continue
		}
		if _, skip := skipSet[item.RepoID]; skip {
			item.Status = StatusSkipped
			outcome.Skipped = append(outcome.Skipped, item.RepoID)
			continue
		}

		_ = s.ledger.AppendEvent(ctx, runID, ledger.RunEvent{
			Seq: seq, Kind: ledger.KindNodeEntered,
			Payload:   map[string]interface{}{"node_id": item.RepoID, "version": item.VersionLabel},
			Timestamp: time.Now().UTC(),
		})
		seq++

		item.Status = StatusInProgress
		releaseRunID, relErr := releaser.Release(ctx, item.RepoID, item.VersionLabel, item.SpecDigest, item.PromotedBy)
		if relErr == nil {
			item.Status = StatusSucceeded
			item.RunID = releaseRunID
			outcome.Succeeded = append(outcome.Succeeded, item.RepoID)

			_ = s.ledger.AppendEvent(ctx, runID, ledger.RunEvent{
				Seq: seq, Kind: ledger.KindNodeExited,
				Payload:   map[string]interface{}{"node_id": item.RepoID, "run_id": releaseRunID},
				Timestamp: time.Now().UTC(),
			})
			seq++
			continue
		}

		item.Status = StatusFailed
		item.FailReason = relErr.Error()
		outcome.Failed = append(outcome.Failed, FailedRepo{RepoID: item.RepoID, Reason: relErr.Error()})

		_ = s.ledger.AppendEvent(ctx, runID, ledger.RunEvent{
			Seq: seq, Kind: ledger.KindNodeFailed,
			Payload:   map[string]interface{}{"node_id": item.RepoID, "error": relErr.Error()},
			Timestamp: time.Now().UTC(),
		})
		seq++

		if transitive, terr := s.graph.TransitiveDependentsOf(item.RepoID); terr == nil {
			for _, depID := range transitive {
				skipSet[depID] = struct{}{}
			}
		}
	}

	summary := ledger.RunSummary{TotalEvents: int(seq - 1), Success: outcome.OverallSuccess()}
	if outcome.OverallSuccess() {
		_ = s.ledger.CompleteRun(ctx, runID, summary)
	} else {
		_ = s.ledger.FailRun(ctx, runID, summary)
	}

	return outcome, nil
}
