package memory

import "sort"

// AssembledContext is a bounded context window selected from a memory
// index, sized against a token budget.
type AssembledContext struct {
	Entries      []Entry
	TotalTokens  int
	Budget       int
	DroppedCount int
}

// AssembleContext selects entries from index carrying at least one of tags,
// sorts them by relevance descending then CreatedAt descending, and
// greedily accepts entries until tokenBudget is exhausted.
func AssembleContext(index *Index, tags []string, tokenBudget int) AssembledContext {
	var candidates []Entry
	seen := make(map[string]struct{})
	for _, tag := range tags {
		for _, entry := range index.Query(Query{}.WithTag(tag)).Entries {
			if _, ok := seen[entry.ID]; ok {
				continue
			}
			seen[entry.ID] = struct{}{}
			candidates = append(candidates, entry)
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Relevance != candidates[j].Relevance {
			return candidates[i].Relevance > candidates[j].Relevance
		}
		return candidates[i].CreatedAt.After(candidates[j].CreatedAt)
	})

	var included []Entry
	totalTokens := 0
	dropped := 0
	for _, entry := range candidates {
		if totalTokens+entry.TokenEstimate <= tokenBudget {
			totalTokens += entry.TokenEstimate
			included = append(included, entry)
		} else {
			dropped++
		}
	}

	return AssembledContext{
		Entries:      included,
		TotalTokens:  totalTokens,
		Budget:       tokenBudget,
		DroppedCount: dropped,
	}
}
