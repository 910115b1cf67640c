package handlers

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
	"github.com/m1z23r/drift/pkg/websocket"
	"go.uber.org/zap"

	"github.com/dimitrije/jsoncrack-api/internal/hub"
	"github.com/dimitrije/jsoncrack-api/pkg/dto"
)

const (
	collabPingInterval = 30 * time.Second
	collabWriteTimeout = 10 * time.Second
	collabReadTimeout  = 60 * time.Second
)

const (
	eventJoinRoom   = "join-room"
	eventLeaveRoom  = "leave-room"
	eventCodeChange = "code-change"
)

type CollabHandler struct {
	hub    HubInterface
	logger *zap.Logger
}

func NewCollabHandler(hub HubInterface, logger *zap.Logger) *CollabHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CollabHandler{hub: hub, logger: logger}
}

func (h *CollabHandler) Connect(c *drift.Context) {
	conn, err := websocket.Upgrade(c)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	client := hub.NewClient(uuid.New().String())
	h.hub.Register(client)
	_ = h.hub.Send(client.ID, hub.Event{Type: hub.EventConnected, Data: map[string]string{"client_id": client.ID}})

	done := make(chan struct{})

	// Write pump
	go func() {
		ticker := time.NewTicker(collabPingInterval)
		defer ticker.Stop()
		defer func() {
			if err := conn.Close(websocket.CloseNormalClosure, ""); err != nil {
				h.logger.Debug("websocket close error", zap.Error(err))
			}
		}()

		for {
			select {
			case msg, ok := <-client.Send:
				if !ok {
					return
				}
				_ = conn.SetWriteDeadline(time.Now().Add(collabWriteTimeout))
				if err := conn.WriteText(string(msg)); err != nil {
					return
				}
			case <-ticker.C:
				if err := conn.Ping(nil); err != nil {
					return
				}
			case <-done:
				return
			}
		}
	}()

	// Read pump (blocks until disconnect)
	defer func() {
		close(done)
		h.hub.Unregister(client.ID)
	}()

	for {
		_ = conn.SetReadDeadline(time.Now().Add(collabReadTimeout))
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		if msgType != websocket.TextMessage {
			continue
		}
		h.handleMessage(client.ID, data)
	}
}

// handleMessage applies one inbound event. Problems are reported back to the
// sender only.
func (h *CollabHandler) handleMessage(clientID string, data []byte) {
	var msg dto.CollabMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		h.reply(clientID, "invalid message format")
		return
	}
	if msg.Slug == "" {
		h.reply(clientID, "slug is required")
		return
	}

	switch msg.Event {
	case eventJoinRoom:
		if err := h.hub.Join(clientID, msg.Slug); err != nil {
			h.logger.Warn("join failed", zap.String("client_id", clientID), zap.Error(err))
		}
	case eventLeaveRoom:
		h.hub.Leave(clientID, msg.Slug)
	case eventCodeChange:
		err := h.hub.RelayEdit(clientID, msg.Slug, msg.Content())
		// the hub already notified the sender
		if err != nil && !errors.Is(err, hub.ErrRateLimited) {
			h.logger.Warn("relay failed", zap.String("client_id", clientID), zap.Error(err))
		}
	default:
		h.reply(clientID, "unknown event")
	}
}

func (h *CollabHandler) reply(clientID, message string) {
	_ = h.hub.Send(clientID, hub.Event{Type: hub.EventError, Message: message})
}
