package testutil

import (
	"time"

	"github.com/google/uuid"

	"github.com/dimitrije/jsoncrack-api/internal/models"
)

// NewShare returns a public text share with a unique alphanumeric slug.
func NewShare() *models.Share {
	now := time.Now().UTC().Truncate(time.Millisecond)
	slug := uuid.New().String()
	slug = slug[:8] + slug[9:13]
	return &models.Share{
		Slug:       slug,
		Type:       models.ShareTypeText,
		Content:    "hello",
		Mode:       models.ModeFormatter,
		AccessType: models.AccessViewer,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// NewPrivateShare returns a private JSON share protected by hash.
func NewPrivateShare(hash string) *models.Share {
	s := NewShare()
	s.Type = models.ShareTypeJSON
	s.Content = `{"a":1}`
	s.Mode = models.ModeTree
	s.IsPrivate = true
	s.PasswordHash = &hash
	return s
}
