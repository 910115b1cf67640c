package store

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/dimitrije/jsoncrack-api/internal/models"
)

// CachedStore fronts another ShareStore with a bounded, expiring LRU of
// records read or written through this process. Writes made by other
// processes become visible once the entry expires.
type CachedStore struct {
	next  ShareStore
	cache *expirable.LRU[string, *models.Share]
}

func NewCachedStore(next ShareStore, size int, ttl time.Duration) *CachedStore {
	return &CachedStore{
		next:  next,
		cache: expirable.NewLRU[string, *models.Share](size, nil, ttl),
	}
}

func (s *CachedStore) FindOne(ctx context.Context, slug string) (*models.Share, error) {
	if share, ok := s.cache.Get(slug); ok {
		return share.Clone(), nil
	}
	share, err := s.next.FindOne(ctx, slug)
	if err != nil {
		return nil, err
	}
	s.cache.Add(slug, share.Clone())
	return share, nil
}

func (s *CachedStore) InsertUnique(ctx context.Context, share *models.Share) error {
	if err := s.next.InsertUnique(ctx, share); err != nil {
		return err
	}
	s.cache.Add(share.Slug, share.Clone())
	return nil
}

func (s *CachedStore) ReplaceExpired(ctx context.Context, share *models.Share, cutoff time.Time) error {
	if err := s.next.ReplaceExpired(ctx, share, cutoff); err != nil {
		return err
	}
	s.cache.Add(share.Slug, share.Clone())
	return nil
}

func (s *CachedStore) UpdateSet(ctx context.Context, slug string, update ShareUpdate) (*models.Share, error) {
	share, err := s.next.UpdateSet(ctx, slug, update)
	if err != nil {
		s.cache.Remove(slug)
		return nil, err
	}
	s.cache.Add(slug, share.Clone())
	return share, nil
}

func (s *CachedStore) DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	removed, err := s.next.DeleteExpired(ctx, cutoff)
	if removed > 0 {
		s.cache.Purge()
	}
	return removed, err
}

func (s *CachedStore) Len() int {
	return s.cache.Len()
}
