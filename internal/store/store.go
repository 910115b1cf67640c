// Package store holds the persistence collaborators for share records. Every
// implementation enforces slug uniqueness atomically on insert.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/dimitrije/jsoncrack-api/internal/models"
)

var (
	ErrNotFound      = errors.New("share not found")
	ErrDuplicateSlug = errors.New("slug already exists")
)

// ShareUpdate lists the fields an update may set. Nil pointers are left
// untouched. ClearPassword removes the stored digest and wins over PasswordHash.
type ShareUpdate struct {
	Type          *models.ShareType
	Content       *string
	Mode          *models.Mode
	IsPrivate     *bool
	AccessType    *models.AccessType
	PasswordHash  *string
	ClearPassword bool
	UpdatedAt     time.Time
}

type ShareStore interface {
	FindOne(ctx context.Context, slug string) (*models.Share, error)
	InsertUnique(ctx context.Context, share *models.Share) error
	// ReplaceExpired inserts share, overwriting a record under the same slug
	// whose lease started at or before cutoff. A live record yields
	// ErrDuplicateSlug.
	ReplaceExpired(ctx context.Context, share *models.Share, cutoff time.Time) error
	UpdateSet(ctx context.Context, slug string, update ShareUpdate) (*models.Share, error)
	DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error)
}

// Apply writes the update onto share in place.
func (u ShareUpdate) Apply(share *models.Share) {
	if u.Type != nil {
		share.Type = *u.Type
	}
	if u.Content != nil {
		share.Content = *u.Content
	}
	if u.Mode != nil {
		share.Mode = *u.Mode
	}
	if u.IsPrivate != nil {
		share.IsPrivate = *u.IsPrivate
	}
	if u.AccessType != nil {
		share.AccessType = *u.AccessType
	}
	if u.ClearPassword {
		share.PasswordHash = nil
	} else if u.PasswordHash != nil {
		hash := *u.PasswordHash
		share.PasswordHash = &hash
	}
	if !u.UpdatedAt.IsZero() {
		share.UpdatedAt = u.UpdatedAt
	}
}
