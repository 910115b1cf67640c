package testutil

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/dimitrije/jsoncrack-api/internal/hub"
	"github.com/dimitrije/jsoncrack-api/internal/models"
	"github.com/dimitrije/jsoncrack-api/internal/services"
)

// MockShareService mocks the ShareService
type MockShareService struct {
	mock.Mock
}

func (m *MockShareService) Create(ctx context.Context, in services.ShareInput) (*models.Share, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Share), args.Error(1)
}

func (m *MockShareService) GetRaw(ctx context.Context, slug, password string) (any, error) {
	args := m.Called(ctx, slug, password)
	return args.Get(0), args.Error(1)
}

func (m *MockShareService) GetMetadata(ctx context.Context, slug string) (*services.ShareView, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.ShareView), args.Error(1)
}

func (m *MockShareService) Unlock(ctx context.Context, slug, password string) (*services.ShareView, error) {
	args := m.Called(ctx, slug, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.ShareView), args.Error(1)
}

func (m *MockShareService) Update(ctx context.Context, slug string, in services.ShareInput) (bool, error) {
	args := m.Called(ctx, slug, in)
	return args.Bool(0), args.Error(1)
}

func (m *MockShareService) CreateFromUpload(ctx context.Context, data []byte, shareType models.ShareType) (*models.Share, error) {
	args := m.Called(ctx, data, shareType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Share), args.Error(1)
}

// MockHub mocks the collaboration Hub
type MockHub struct {
	mock.Mock
}

func (m *MockHub) Register(client *hub.Client) {
	m.Called(client)
}

func (m *MockHub) Unregister(clientID string) {
	m.Called(clientID)
}

func (m *MockHub) Join(clientID, room string) error {
	args := m.Called(clientID, room)
	return args.Error(0)
}

func (m *MockHub) Leave(clientID, room string) {
	m.Called(clientID, room)
}

func (m *MockHub) RelayEdit(clientID, room, content string) error {
	args := m.Called(clientID, room, content)
	return args.Error(0)
}

func (m *MockHub) Send(clientID string, event hub.Event) error {
	args := m.Called(clientID, event)
	return args.Error(0)
}
