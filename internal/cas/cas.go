// Package cas implements the content-addressed blob store (§4.3).
package cas

import (
	"context"
	"sync"

	aerr "github.com/R3E-Network/aivcs/infrastructure/errors"
	"github.com/R3E-Network/aivcs/internal/digest"
)

// Store is the content-addressed blob storage contract. Put is pure and
// idempotent: identical bytes always yield the same digest, and putting the
// same bytes twice is a no-op the second time.
type Store interface {
	Put(ctx context.Context, data []byte) (digest.ContentDigest, error)
	Get(ctx context.Context, d digest.ContentDigest) ([]byte, error)
	Contains(ctx context.Context, d digest.ContentDigest) (bool, error)
	Delete(ctx context.Context, d digest.ContentDigest) error
}

// MemStore is an in-memory map-backed Store, suitable for tests and for
// single-process deployments that do not need durability beyond the
// process lifetime.
type MemStore struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

var _ Store = (*MemStore)(nil)

// NewMemStore constructs an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{blobs: make(map[string][]byte)}
}

func (s *MemStore) Put(_ context.Context, data []byte) (digest.ContentDigest, error) {
	d := digest.FromBytes(data)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.blobs[d.String()]; !ok {
		cp := make([]byte, len(data))
		copy(cp, data)
		s.blobs[d.String()] = cp
	}
	return d, nil
}

func (s *MemStore) Get(_ context.Context, d digest.ContentDigest) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.blobs[d.String()]
	if !ok {
		return nil, aerr.CasMissing(d.String())
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	return cp, nil
}

func (s *MemStore) Contains(_ context.Context, d digest.ContentDigest) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.blobs[d.String()]
	return ok, nil
}

func (s *MemStore) Delete(_ context.Context, d digest.ContentDigest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.blobs, d.String())
	return nil
}
