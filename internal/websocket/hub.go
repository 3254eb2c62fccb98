package websocket

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
)

// Message is a change-feed notification pushed to a family's clients.
type Message struct {
	Type   string         `json:"type"`
	Entity string         `json:"entity"`
	Action string         `json:"action"`
	ID     int64          `json:"id,omitempty"`
	Extra  map[string]any `json:"extra,omitempty"`
}

// NewMessage creates a Message with the Type field derived from entity and action.
func NewMessage(entity, action string, id int64, extra map[string]any) Message {
	return Message{
		Type:   fmt.Sprintf("%s_%s", entity, action),
		Entity: entity,
		Action: action,
		ID:     id,
		Extra:  extra,
	}
}

// Hub maintains the active clients grouped by family and fans messages out
// to the owning family only. One household's mission traffic never reaches
// another's clients.
type Hub struct {
	mu      sync.RWMutex
	clients map[int64]map[*Client]struct{}
	logger  *slog.Logger
}

// NewHub creates a new Hub.
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients: make(map[int64]map[*Client]struct{}),
		logger:  logger,
	}
}

// Register adds a client under its family.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	if h.clients[c.familyID] == nil {
		h.clients[c.familyID] = make(map[*Client]struct{})
	}
	h.clients[c.familyID][c] = struct{}{}
	h.mu.Unlock()
}

// Unregister removes a client and closes its send channel.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	family := h.clients[c.familyID]
	if _, ok := family[c]; ok {
		delete(family, c)
		close(c.send)
		if len(family) == 0 {
			delete(h.clients, c.familyID)
		}
	}
	h.mu.Unlock()
}

// Broadcast sends a message to every client of the given family.
func (h *Hub) Broadcast(familyID int64, msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("marshal broadcast", "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.clients[familyID] {
		select {
		case c.send <- data:
		default:
			// Client buffer full, drop rather than block the hub
		}
	}
}

// ClientCount returns the number of connected clients for a family.
func (h *Hub) ClientCount(familyID int64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[familyID])
}
