package memory

import (
	"net/http"
	"sync"

	aerr "github.com/R3E-Network/aivcs/infrastructure/errors"
)

// Query filters an Index lookup by kind and/or tag set (an entry matches
// when it carries every requested tag).
type Query struct {
	Kind *EntryKind
	Tags []string
}

// All returns an unrestricted query.
func All() Query { return Query{} }

// WithKind restricts the query to entries of the given kind.
func (q Query) WithKind(kind EntryKind) Query {
	q.Kind = &kind
	return q
}

// WithTag adds a required tag to the query.
func (q Query) WithTag(tag string) Query {
	q.Tags = append(q.Tags, tag)
	return q
}

func (q Query) matches(entry Entry) bool {
	if q.Kind != nil && entry.Kind != *q.Kind {
		return false
	}
	for _, tag := range q.Tags {
		if !hasTag(entry.Tags, tag) {
			return false
		}
	}
	return true
}

// QueryResult is the outcome of querying an Index.
type QueryResult struct {
	Entries      []Entry
	TotalMatches int
}

// Index is an in-process memory index keyed by entry id.
type Index struct {
	mu      sync.Mutex
	entries map[string]Entry
	order   []string
}

// NewIndex constructs an empty Index.
func NewIndex() *Index {
	return &Index{entries: make(map[string]Entry)}
}

// Insert adds entry, rejecting a duplicate id.
func (idx *Index) Insert(entry Entry) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if _, exists := idx.entries[entry.ID]; exists {
		return aerr.New(aerr.ErrCodeDuplicateTool, "duplicate memory entry id", http.StatusConflict).
			WithDetails("id", entry.ID)
	}
	idx.entries[entry.ID] = entry
	idx.order = append(idx.order, entry.ID)
	return nil
}

// Get returns the entry for id, if present.
func (idx *Index) Get(id string) (Entry, bool) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	entry, ok := idx.entries[id]
	return entry, ok
}

// Len returns the number of indexed entries.
func (idx *Index) Len() int {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	return len(idx.entries)
}

// Query returns all entries matching q, in insertion order.
func (idx *Index) Query(q Query) QueryResult {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	var matched []Entry
	for _, id := range idx.order {
		entry := idx.entries[id]
		if q.matches(entry) {
			matched = append(matched, entry)
		}
	}
	return QueryResult{Entries: matched, TotalMatches: len(matched)}
}

// Mutate applies fn to the entry for id under the index lock, persisting
// the result. Returns false if id is not present.
func (idx *Index) Mutate(id string, fn func(entry *Entry)) bool {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	entry, ok := idx.entries[id]
	if !ok {
		return false
	}
	fn(&entry)
	idx.entries[id] = entry
	return true
}
