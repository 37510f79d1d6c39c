package memory

import "math"

// DecisionHistory summarizes historical decision outcomes for a tag
// category.
type DecisionHistory struct {
	Category    string
	Total       int
	Successes   int
	Failures    int
	Partial     int
	Skipped     int
	Pending     int
	FailureRate float64
}

// IsRisky reports whether the failure rate meets or exceeds threshold.
func (h DecisionHistory) IsRisky(threshold float64) bool {
	return !math.IsNaN(h.FailureRate) && !math.IsInf(h.FailureRate, 0) && h.FailureRate >= threshold
}

// QueryDecisionHistory queries index for rationale entries tagged
// categoryTag and computes outcome statistics from provenance.
func QueryDecisionHistory(index *Index, provenance *ProvenanceStore, categoryTag string) DecisionHistory {
	kind := KindRationale
	result := index.Query(Query{Kind: &kind}.WithTag(categoryTag))

	var successes, failures, partial, skipped, pending int
	for _, entry := range result.Entries {
		record, ok := provenance.ForEntry(entry.ID)
		if !ok || record.Outcome == nil {
			pending++
			continue
		}
		switch *record.Outcome {
		case OutcomeSuccess:
			successes++
		case OutcomeFailure:
			failures++
		case OutcomePartial:
			partial++
		case OutcomeSkipped:
			skipped++
		default:
			pending++
		}
	}

	resolved := successes + failures + partial
	failureRate := 0.0
	if resolved > 0 {
		failureRate = float64(failures) / float64(resolved)
	}

	return DecisionHistory{
		Category:    categoryTag,
		Total:       result.TotalMatches,
		Successes:   successes,
		Failures:    failures,
		Partial:     partial,
		Skipped:     skipped,
		Pending:     pending,
		FailureRate: failureRate,
	}
}

// BoostRiskyDecisions boosts the relevance of every entry tagged
// categoryTag by boost, when that category's failure rate meets or exceeds
// riskThreshold. Returns the number of entries boosted.
func BoostRiskyDecisions(index *Index, provenance *ProvenanceStore, categoryTag string, riskThreshold, boost float64) int {
	history := QueryDecisionHistory(index, provenance, categoryTag)
	if !history.IsRisky(riskThreshold) {
		return 0
	}

	kind := KindRationale
	result := index.Query(Query{Kind: &kind}.WithTag(categoryTag))

	boosted := 0
	for _, entry := range result.Entries {
		if index.Mutate(entry.ID, func(e *Entry) {
			e.Relevance = clamp01(e.Relevance + boost)
		}) {
			boosted++
		}
	}
	return boosted
}
