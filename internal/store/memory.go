package store

import (
	"context"
	"sync"
	"time"

	"github.com/dimitrije/jsoncrack-api/internal/models"
)

// MemoryStore keeps shares in a map guarded by an RWMutex. It is meant for
// development and tests; nothing survives a restart.
type MemoryStore struct {
	mu     sync.RWMutex
	shares map[string]*models.Share
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{shares: make(map[string]*models.Share)}
}

func (m *MemoryStore) FindOne(_ context.Context, slug string) (*models.Share, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	share, ok := m.shares[slug]
	if !ok {
		return nil, ErrNotFound
	}
	return share.Clone(), nil
}

func (m *MemoryStore) InsertUnique(_ context.Context, share *models.Share) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.shares[share.Slug]; exists {
		return ErrDuplicateSlug
	}
	m.shares[share.Slug] = share.Clone()
	return nil
}

func (m *MemoryStore) ReplaceExpired(_ context.Context, share *models.Share, cutoff time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, exists := m.shares[share.Slug]; exists && existing.CreatedAt.After(cutoff) {
		return ErrDuplicateSlug
	}
	m.shares[share.Slug] = share.Clone()
	return nil
}

func (m *MemoryStore) UpdateSet(_ context.Context, slug string, update ShareUpdate) (*models.Share, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	share, ok := m.shares[slug]
	if !ok {
		return nil, ErrNotFound
	}
	update.Apply(share)
	return share.Clone(), nil
}

func (m *MemoryStore) DeleteExpired(_ context.Context, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var removed int64
	for slug, share := range m.shares {
		if share.CreatedAt.Before(cutoff) {
			delete(m.shares, slug)
			removed++
		}
	}
	return removed, nil
}
