// Package graph implements the commit/branch/snapshot DAG (§3, §4.14).
//
// Commit identity is content-derived (a SHA-256 over the concatenation of
// whichever of logic/state/env hashes are present), so cycles cannot arise
// by construction: a cycle would require a commit to be its own ancestor,
// which would require identical content for both, which collapses to the
// same commit id rather than two distinct nodes.
package graph

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"

	aerr "github.com/R3E-Network/aivcs/infrastructure/errors"
)

// CommitID is the composite, content-derived identity of a commit.
type CommitID struct {
	Hash      string
	LogicHash string
	StateHash string
	EnvHash   string
}

// NewCommitID derives Hash from whichever of logicHash/stateHash/envHash
// are non-empty, concatenated in that fixed order. When only stateHash is
// supplied, Hash equals stateHash.
func NewCommitID(logicHash, stateHash, envHash string) CommitID {
	if logicHash == "" && envHash == "" {
		return CommitID{Hash: stateHash, StateHash: stateHash}
	}
	h := sha256.New()
	h.Write([]byte(logicHash))
	h.Write([]byte(stateHash))
	h.Write([]byte(envHash))
	return CommitID{
		Hash:      hex.EncodeToString(h.Sum(nil)),
		LogicHash: logicHash,
		StateHash: stateHash,
		EnvHash:   envHash,
	}
}

// EdgeType classifies a parent edge.
type EdgeType string

const (
	EdgeNormal EdgeType = "normal"
	EdgeMerge  EdgeType = "merge"
	EdgeFork   EdgeType = "fork"
)

// Edge is a directed parent edge: Child's history includes Parent.
type Edge struct {
	ChildID  string
	ParentID string
	Type     EdgeType
}

// SnapshotRecord is the persisted agent state for a commit.
type SnapshotRecord struct {
	CommitID  string
	State     map[string]interface{}
	SizeBytes int64
	CreatedAt time.Time
}

// BranchRecord is a named, movable pointer into the commit DAG.
type BranchRecord struct {
	Name          string
	HeadCommitID  string
	IsDefault     bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Graph is the commit/branch/snapshot DAG store.
type Graph struct {
	mu        sync.RWMutex
	commits   map[string]struct{}
	snapshots map[string]SnapshotRecord
	parents   map[string][]Edge // childID -> edges to its parents
	children  map[string][]string
	branches  map[string]*BranchRecord
}

// New constructs an empty Graph.
func New() *Graph {
	return &Graph{
		commits:   make(map[string]struct{}),
		snapshots: make(map[string]SnapshotRecord),
		parents:   make(map[string][]Edge),
		children:  make(map[string][]string),
		branches:  make(map[string]*BranchRecord),
	}
}

// CreateCommit registers commitID with the given parents and snapshot.
// Rejects CommitNotFound if any parent is not already known. A commit with
// zero parents is a root.
func (g *Graph) CreateCommit(commitID CommitID, parentIDs []string, snapshot SnapshotRecord) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	for _, p := range parentIDs {
		if _, ok := g.commits[p]; !ok {
			return aerr.CommitNotFound(p)
		}
	}

	g.commits[commitID.Hash] = struct{}{}
	g.snapshots[commitID.Hash] = snapshot

	edgeType := EdgeNormal
	if len(parentIDs) > 1 {
		edgeType = EdgeMerge
	}
	for _, p := range parentIDs {
		g.parents[commitID.Hash] = append(g.parents[commitID.Hash], Edge{ChildID: commitID.Hash, ParentID: p, Type: edgeType})
		g.children[p] = append(g.children[p], commitID.Hash)
	}
	return nil
}

// GetCommit returns the snapshot for commitID.
func (g *Graph) GetCommit(commitID string) (SnapshotRecord, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	snap, ok := g.snapshots[commitID]
	if !ok {
		return SnapshotRecord{}, aerr.CommitNotFound(commitID)
	}
	return snap, nil
}

// Parents returns commitID's direct parent edges.
func (g *Graph) Parents(commitID string) []Edge {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return append([]Edge(nil), g.parents[commitID]...)
}

// Children returns commitID's direct children.
func (g *Graph) Children(commitID string) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return append([]string(nil), g.children[commitID]...)
}

// CreateBranch registers a named pointer. Creating a second branch with
// isDefault=true demotes the previous default — is_default is a
// pointer-swap, not a uniqueness constraint enforced by rejection.
func (g *Graph) CreateBranch(name, headCommitID string, isDefault bool) (BranchRecord, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.commits[headCommitID]; !ok {
		return BranchRecord{}, aerr.CommitNotFound(headCommitID)
	}

	now := time.Now().UTC()
	if isDefault {
		for _, b := range g.branches {
			b.IsDefault = false
		}
	}
	rec := &BranchRecord{Name: name, HeadCommitID: headCommitID, IsDefault: isDefault, CreatedAt: now, UpdatedAt: now}
	g.branches[name] = rec
	return *rec, nil
}

// UpdateBranchHead moves name's pointer to commitID. Ancestry is not
// validated here — fast-forward policy belongs to the caller.
func (g *Graph) UpdateBranchHead(name, commitID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	b, ok := g.branches[name]
	if !ok {
		return aerr.BranchNotFound(name)
	}
	if _, ok := g.commits[commitID]; !ok {
		return aerr.CommitNotFound(commitID)
	}
	b.HeadCommitID = commitID
	b.UpdatedAt = time.Now().UTC()
	return nil
}

// DeleteBranch removes name. The default branch cannot be deleted.
func (g *Graph) DeleteBranch(name string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	b, ok := g.branches[name]
	if !ok {
		return aerr.BranchNotFound(name)
	}
	if b.IsDefault {
		return aerr.PolicyDenied("cannot delete the default branch")
	}
	delete(g.branches, name)
	return nil
}

// GetBranch returns name's current record.
func (g *Graph) GetBranch(name string) (BranchRecord, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	b, ok := g.branches[name]
	if !ok {
		return BranchRecord{}, aerr.BranchNotFound(name)
	}
	return *b, nil
}

// ListBranches returns all registered branches.
func (g *Graph) ListBranches() []BranchRecord {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]BranchRecord, 0, len(g.branches))
	for _, b := range g.branches {
		out = append(out, *b)
	}
	return out
}
