package handlers

import (
	"context"

	"github.com/dimitrije/jsoncrack-api/internal/hub"
	"github.com/dimitrije/jsoncrack-api/internal/models"
	"github.com/dimitrije/jsoncrack-api/internal/services"
)

// ShareServiceInterface defines the methods used by handlers from ShareService
type ShareServiceInterface interface {
	Create(ctx context.Context, in services.ShareInput) (*models.Share, error)
	GetRaw(ctx context.Context, slug, password string) (any, error)
	GetMetadata(ctx context.Context, slug string) (*services.ShareView, error)
	Unlock(ctx context.Context, slug, password string) (*services.ShareView, error)
	Update(ctx context.Context, slug string, in services.ShareInput) (bool, error)
	CreateFromUpload(ctx context.Context, data []byte, shareType models.ShareType) (*models.Share, error)
}

// HubInterface defines the methods used by handlers from the Hub
type HubInterface interface {
	Register(client *hub.Client)
	Unregister(clientID string)
	Join(clientID, room string) error
	Leave(clientID, room string)
	RelayEdit(clientID, room, content string) error
	Send(clientID string, event hub.Event) error
}
