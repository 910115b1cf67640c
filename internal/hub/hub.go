package hub

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	EventConnected  = "connected"
	EventCodeChange = "code-change"
	EventError      = "error"

	RateLimitMessage = "Too many updates. Please slow down."
)

var (
	ErrUnknownClient = errors.New("client not registered")
	ErrRateLimited   = errors.New("rate limit exceeded")
	ErrHubClosed     = errors.New("hub is closed")
)

type Event struct {
	Type    string `json:"type"`
	Slug    string `json:"slug,omitempty"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

type Client struct {
	ID    string
	Rooms map[string]bool
	Send  chan []byte
}

func NewClient(id string) *Client {
	return &Client{
		ID:    id,
		Rooms: make(map[string]bool),
		Send:  make(chan []byte, 256),
	}
}

type Config struct {
	Points        int
	Window        time.Duration
	SweepInterval time.Duration
}

type roomMessage struct {
	sender string
	room   string
	data   []byte
}

// Hub tracks room membership for live connections and relays edits to
// everyone in a room except the sender. Relays pass through a single queue
// drained by Run, so edits from one sender are delivered in order.
type Hub struct {
	clients   map[string]*Client
	rooms     map[string]map[string]*Client
	broadcast chan *roomMessage
	limiter   *RateLimiter
	sweep     time.Duration
	logger    *zap.Logger
	mu        sync.RWMutex
	done      chan struct{}
}

func NewHub(cfg Config, logger *zap.Logger) *Hub {
	if cfg.Points <= 0 {
		cfg.Points = 10
	}
	if cfg.Window <= 0 {
		cfg.Window = time.Second
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		clients:   make(map[string]*Client),
		rooms:     make(map[string]map[string]*Client),
		broadcast: make(chan *roomMessage, 256),
		limiter:   NewRateLimiter(cfg.Points, cfg.Window),
		sweep:     cfg.SweepInterval,
		logger:    logger,
		done:      make(chan struct{}),
	}
}

// Run delivers queued relays and sweeps idle limiter entries until ctx is
// cancelled. On return every remaining client's Send channel is closed.
func (h *Hub) Run(ctx context.Context) {
	ticker := time.NewTicker(h.sweep)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			h.shutdown()
			return

		case msg := <-h.broadcast:
			h.deliver(msg)

		case <-ticker.C:
			if removed := h.limiter.Sweep(); removed > 0 {
				h.logger.Debug("swept rate limiter entries", zap.Int("removed", removed))
			}
		}
	}
}

func (h *Hub) shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()

	close(h.done)
	for id, client := range h.clients {
		close(client.Send)
		delete(h.clients, id)
	}
	h.rooms = make(map[string]map[string]*Client)
}

func (h *Hub) deliver(msg *roomMessage) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for id, client := range h.rooms[msg.room] {
		if id == msg.sender {
			continue
		}
		select {
		case client.Send <- msg.data:
		default:
			// Client buffer full, skip
		}
	}
}

func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	select {
	case <-h.done:
		close(client.Send)
		return
	default:
	}
	if client.Rooms == nil {
		client.Rooms = make(map[string]bool)
	}
	h.clients[client.ID] = client
	h.logger.Debug("client connected", zap.String("client_id", client.ID))
}

// Unregister removes the client from every room, closes its Send channel and
// discards its rate limiter entry.
func (h *Hub) Unregister(clientID string) {
	h.mu.Lock()
	client, ok := h.clients[clientID]
	if ok {
		for room := range client.Rooms {
			h.removeFromRoomLocked(client, room)
		}
		delete(h.clients, clientID)
		close(client.Send)
	}
	h.mu.Unlock()

	h.limiter.Forget(clientID)
	if ok {
		h.logger.Debug("client disconnected", zap.String("client_id", clientID))
	}
}

// Join adds the client to room. Joining a room twice has no further effect.
func (h *Hub) Join(clientID, room string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	client, ok := h.clients[clientID]
	if !ok {
		return ErrUnknownClient
	}
	members, ok := h.rooms[room]
	if !ok {
		members = make(map[string]*Client)
		h.rooms[room] = members
	}
	members[clientID] = client
	client.Rooms[room] = true
	return nil
}

// Leave removes the client from room. Leaving a room the client is not in is
// a no-op.
func (h *Hub) Leave(clientID, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if client, ok := h.clients[clientID]; ok {
		h.removeFromRoomLocked(client, room)
	}
}

func (h *Hub) removeFromRoomLocked(client *Client, room string) {
	delete(client.Rooms, room)
	if members, ok := h.rooms[room]; ok {
		delete(members, client.ID)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
}

// RelayEdit queues content for every other member of room. When the sender is
// over its rate limit the edit is dropped, the sender alone gets an error
// event, and ErrRateLimited is returned.
func (h *Hub) RelayEdit(clientID, room, content string) error {
	h.mu.RLock()
	client, ok := h.clients[clientID]
	if !ok {
		h.mu.RUnlock()
		return ErrUnknownClient
	}
	if !h.limiter.Allow(clientID) {
		notice, _ := json.Marshal(Event{Type: EventError, Message: RateLimitMessage})
		select {
		case client.Send <- notice:
		default:
		}
		h.mu.RUnlock()
		h.logger.Warn("edit rate limited", zap.String("client_id", clientID), zap.String("slug", room))
		return ErrRateLimited
	}
	h.mu.RUnlock()

	data, err := json.Marshal(Event{Type: EventCodeChange, Slug: room, Data: content})
	if err != nil {
		return err
	}

	// A stopped hub must refuse even while the broadcast buffer has room.
	select {
	case <-h.done:
		return ErrHubClosed
	default:
	}
	select {
	case h.broadcast <- &roomMessage{sender: clientID, room: room, data: data}:
		return nil
	case <-h.done:
		return ErrHubClosed
	}
}

// Send queues an event for a single client.
func (h *Hub) Send(clientID string, event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	client, ok := h.clients[clientID]
	if !ok {
		return ErrUnknownClient
	}
	select {
	case client.Send <- data:
	default:
	}
	return nil
}

func (h *Hub) RoomSize(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
