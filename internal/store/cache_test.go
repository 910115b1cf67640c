package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dimitrije/jsoncrack-api/internal/models"
)

type countingStore struct {
	*MemoryStore
	finds int
}

func (c *countingStore) FindOne(ctx context.Context, slug string) (*models.Share, error) {
	c.finds++
	return c.MemoryStore.FindOne(ctx, slug)
}

func TestCachedStore_ServesRepeatReadsFromCache(t *testing.T) {
	backing := &countingStore{MemoryStore: NewMemoryStore()}
	s := NewCachedStore(backing, 16, time.Minute)
	ctx := context.Background()
	require.NoError(t, backing.MemoryStore.InsertUnique(ctx, newShare("abcdef1234", time.Now())))

	_, err := s.FindOne(ctx, "abcdef1234")
	require.NoError(t, err)
	_, err = s.FindOne(ctx, "abcdef1234")
	require.NoError(t, err)

	assert.Equal(t, 1, backing.finds)
	assert.Equal(t, 1, s.Len())
}

func TestCachedStore_UpdateRefreshesEntry(t *testing.T) {
	backing := &countingStore{MemoryStore: NewMemoryStore()}
	s := NewCachedStore(backing, 16, time.Minute)
	ctx := context.Background()
	require.NoError(t, s.InsertUnique(ctx, newShare("abcdef1234", time.Now())))

	content := "changed"
	_, err := s.UpdateSet(ctx, "abcdef1234", ShareUpdate{Content: &content})
	require.NoError(t, err)

	share, err := s.FindOne(ctx, "abcdef1234")
	require.NoError(t, err)
	assert.Equal(t, "changed", share.Content)
	assert.Equal(t, 0, backing.finds)
}

func TestCachedStore_MissIsNotCached(t *testing.T) {
	backing := &countingStore{MemoryStore: NewMemoryStore()}
	s := NewCachedStore(backing, 16, time.Minute)
	ctx := context.Background()

	_, err := s.FindOne(ctx, "missing123")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 0, s.Len())
}

func TestCachedStore_DeleteExpiredPurges(t *testing.T) {
	backing := &countingStore{MemoryStore: NewMemoryStore()}
	s := NewCachedStore(backing, 16, time.Minute)
	ctx := context.Background()
	now := time.Now()
	require.NoError(t, s.InsertUnique(ctx, newShare("oldshare01", now.Add(-40*24*time.Hour))))

	removed, err := s.DeleteExpired(ctx, now.Add(-30*24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)
	assert.Equal(t, 0, s.Len())

	_, err = s.FindOne(ctx, "oldshare01")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCachedStore_ReplaceExpiredRefreshesEntry(t *testing.T) {
	backing := &countingStore{MemoryStore: NewMemoryStore()}
	s := NewCachedStore(backing, 16, time.Minute)
	ctx := context.Background()
	now := time.Now()
	require.NoError(t, s.InsertUnique(ctx, newShare("oldshare01", now.Add(-40*24*time.Hour))))

	fresh := newShare("oldshare01", now)
	fresh.Content = "fresh"
	require.NoError(t, s.ReplaceExpired(ctx, fresh, now.Add(-30*24*time.Hour)))

	share, err := s.FindOne(ctx, "oldshare01")
	require.NoError(t, err)
	assert.Equal(t, "fresh", share.Content)
	assert.Equal(t, 0, backing.finds)
}
