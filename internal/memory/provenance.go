package memory

import (
	"sync"
	"time"
)

// ProvenanceRecord links a memory entry to the run and event that produced
// it, and tracks the eventual outcome of that run.
type ProvenanceRecord struct {
	EntryID         string
	SourceRunID     string
	SourceEventSeq  uint64
	AgentSpecDigest string
	RecordedAt      time.Time
	Outcome         *Outcome
}

// NewProvenanceRecord constructs a record with RecordedAt set to recordedAt.
func NewProvenanceRecord(entryID, sourceRunID string, sourceEventSeq uint64, agentSpecDigest string, recordedAt time.Time) ProvenanceRecord {
	return ProvenanceRecord{
		EntryID:         entryID,
		SourceRunID:     sourceRunID,
		SourceEventSeq:  sourceEventSeq,
		AgentSpecDigest: agentSpecDigest,
		RecordedAt:      recordedAt,
	}
}

// WithOutcome attaches an outcome.
func (r ProvenanceRecord) WithOutcome(outcome Outcome) ProvenanceRecord {
	r.Outcome = &outcome
	return r
}

// ProvenanceStore tracks provenance records for all memory entries.
type ProvenanceStore struct {
	mu      sync.Mutex
	records []ProvenanceRecord
}

// NewProvenanceStore constructs an empty store.
func NewProvenanceStore() *ProvenanceStore {
	return &ProvenanceStore{}
}

// Record appends a provenance record.
func (s *ProvenanceStore) Record(record ProvenanceRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, record)
}

// ForRun returns every record produced by runID.
func (s *ProvenanceStore) ForRun(runID string) []ProvenanceRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	var matched []ProvenanceRecord
	for _, r := range s.records {
		if r.SourceRunID == runID {
			matched = append(matched, r)
		}
	}
	return matched
}

// ForEntry returns the most recently recorded record for entryID, if
// present.
func (s *ProvenanceStore) ForEntry(entryID string) (ProvenanceRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.records) - 1; i >= 0; i-- {
		if s.records[i].EntryID == entryID {
			return s.records[i], true
		}
	}
	return ProvenanceRecord{}, false
}

// UpdateRunOutcome sets outcome on every record produced by runID, returning
// the count updated.
func (s *ProvenanceStore) UpdateRunOutcome(runID string, outcome Outcome) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for i := range s.records {
		if s.records[i].SourceRunID == runID {
			s.records[i].Outcome = &outcome
			count++
		}
	}
	return count
}

// Len returns the number of recorded records.
func (s *ProvenanceStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}
