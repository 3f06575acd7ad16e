package websocket

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/dukerupert/studiopass/internal/model"
)

// Message is a ledger change pushed to dashboards.
type Message struct {
	Type    string         `json:"type"`
	Entity  string         `json:"entity"`
	Action  string         `json:"action"`
	ID      string         `json:"id,omitempty"`
	OwnerID string         `json:"owner_id,omitempty"`
	Extra   map[string]any `json:"extra,omitempty"`
}

func NewMessage(e model.LedgerEvent) Message {
	return Message{
		Type:    fmt.Sprintf("%s_%s", e.Entity, e.Action),
		Entity:  e.Entity,
		Action:  e.Action,
		ID:      e.ID,
		OwnerID: e.OwnerID,
		Extra:   e.Extra,
	}
}

// Hub fans ledger events out to connected dashboards.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
	logger  *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients: make(map[*Client]struct{}),
		logger:  logger.With("component", "websocket"),
	}
}

func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
}

// Unregister removes a client and closes its send channel. Safe to call twice.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
}

// Publish implements ledger.Publisher.
func (h *Hub) Publish(e model.LedgerEvent) {
	h.Broadcast(NewMessage(e))
}

// Broadcast sends msg to every client watching all owners or msg's owner.
// Clients with a full buffer miss the message.
func (h *Hub) Broadcast(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("marshal broadcast", "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.clients {
		if c.ownerID != "" && c.ownerID != msg.OwnerID {
			continue
		}
		select {
		case c.send <- data:
		default:
			h.logger.Debug("dropping message for slow client", "type", msg.Type)
		}
	}
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
