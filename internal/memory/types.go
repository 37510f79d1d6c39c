// Package memory implements the memory index, provenance tracking, and
// cross-run learning described in §4.13, plus the bounded context assembly
// of §4.16.
package memory

import "time"

// EntryKind classifies a memory entry for filtered retrieval.
type EntryKind string

const (
	KindRationale   EntryKind = "rationale"
	KindObservation EntryKind = "observation"
	KindConstraint  EntryKind = "constraint"
)

// Entry is a single indexed unit of memory.
type Entry struct {
	ID            string
	Kind          EntryKind
	Summary       string
	ContentDigest string
	CreatedAt     time.Time
	Tags          []string
	TokenEstimate int
	Relevance     float64
}

func hasTag(tags []string, tag string) bool {
	for _, t := range tags {
		if t == tag {
			return true
		}
	}
	return false
}
