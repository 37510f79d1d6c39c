package cas

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/R3E-Network/aivcs/internal/digest"
)

// CachingStore wraps a backing Store with an in-process LRU cache of
// recently read blobs. Blobs are content-addressed and therefore
// immutable once written, so a cached entry never needs invalidation —
// only eviction once the cache is full.
type CachingStore struct {
	backing Store
	cache   *lru.Cache[string, []byte]
}

var _ Store = (*CachingStore)(nil)

// NewCachingStore wraps backing with an LRU cache holding up to size
// blobs.
func NewCachingStore(backing Store, size int) (*CachingStore, error) {
	cache, err := lru.New[string, []byte](size)
	if err != nil {
		return nil, err
	}
	return &CachingStore{backing: backing, cache: cache}, nil
}

func (c *CachingStore) Put(ctx context.Context, data []byte) (digest.ContentDigest, error) {
	d, err := c.backing.Put(ctx, data)
	if err != nil {
		return digest.ContentDigest{}, err
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	c.cache.Add(d.String(), cp)
	return d, nil
}

func (c *CachingStore) Get(ctx context.Context, d digest.ContentDigest) ([]byte, error) {
	if cached, ok := c.cache.Get(d.String()); ok {
		cp := make([]byte, len(cached))
		copy(cp, cached)
		return cp, nil
	}
	data, err := c.backing.Get(ctx, d)
	if err != nil {
		return nil, err
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	c.cache.Add(d.String(), cp)
	return data, nil
}

func (c *CachingStore) Contains(ctx context.Context, d digest.ContentDigest) (bool, error) {
	if c.cache.Contains(d.String()) {
		return true, nil
	}
	return c.backing.Contains(ctx, d)
}

func (c *CachingStore) Delete(ctx context.Context, d digest.ContentDigest) error {
	c.cache.Remove(d.String())
	return c.backing.Delete(ctx, d)
}
