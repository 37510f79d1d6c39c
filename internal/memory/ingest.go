package memory

import "fmt"

// IngestRationale constructs a MemoryEntry from entry (id =
// "rat-{run_id}-{event_seq}"), inserts it into index, and records its
// provenance. Returns the generated id.
func IngestRationale(index *Index, provenance *ProvenanceStore, entry RationaleEntry, agentSpecDigest string) (string, error) {
	id := fmt.Sprintf("rat-%s-%d", entry.RunID, entry.EventSeq)

	memEntry := Entry{
		ID:            id,
		Kind:          KindRationale,
		Summary:       fmt.Sprintf("%s: %s", entry.Rationale.Decision, entry.Rationale.Reasoning),
		ContentDigest: fmt.Sprintf("rationale_%s", id),
		CreatedAt:     entry.DecidedAt,
		Tags:          append([]string(nil), entry.Tags...),
		TokenEstimate: entry.TokenEstimate(),
		Relevance:     entry.Rationale.Confidence,
	}

	if err := index.Insert(memEntry); err != nil {
		return "", err
	}

	record := NewProvenanceRecord(id, entry.RunID, entry.EventSeq, agentSpecDigest, entry.DecidedAt)
	if entry.Outcome != nil {
		record = record.WithOutcome(*entry.Outcome)
	}
	provenance.Record(record)

	return id, nil
}

// FinalizeRunOutcome marks every memory entry produced by runID with
// outcome. Failed runs get their relevance boosted by failureRelevanceBoost
// (clamped to [0,1]) and tagged "outcome:failure" so they surface in future
// context; successful runs are tagged "outcome:success" without a boost.
// Returns the number of provenance records updated.
func FinalizeRunOutcome(index *Index, provenance *ProvenanceStore, runID string, outcome Outcome, failureRelevanceBoost float64) int {
	updated := provenance.UpdateRunOutcome(runID, outcome)

	entryIDs := make([]string, 0, len(provenance.ForRun(runID)))
	for _, r := range provenance.ForRun(runID) {
		entryIDs = append(entryIDs, r.EntryID)
	}

	switch outcome {
	case OutcomeFailure:
		for _, id := range entryIDs {
			index.Mutate(id, func(e *Entry) {
				e.Relevance = clamp01(e.Relevance + failureRelevanceBoost)
				if !hasTag(e.Tags, "outcome:failure") {
					e.Tags = append(e.Tags, "outcome:failure")
				}
			})
		}
	case OutcomeSuccess:
		for _, id := range entryIDs {
			index.Mutate(id, func(e *Entry) {
				if !hasTag(e.Tags, "outcome:success") {
					e.Tags = append(e.Tags, "outcome:success")
				}
			})
		}
	}

	return updated
}
