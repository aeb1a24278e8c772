package websocket

import (
	"encoding/json"
	"sync"

	"github.com/google/uuid"

	"github.com/adityakumar841208/virtual-deal-room/internal/logger"
)

// Event names exchanged over the socket
const (
	EventJoinChat        = "join chat"
	EventLeaveChat       = "leave chat"
	EventTyping          = "typing"
	EventStopTyping      = "stop typing"
	EventMessageReceived = "message received"
	EventError           = "error"
)

var log = logger.New("websocket")

// Event is the envelope for everything that crosses a connection.
// Data carries the payload for durable events; ephemeral events
// (typing, stop typing) only need ChatID.
type Event struct {
	Event  string          `json:"event"`
	ChatID uuid.UUID       `json:"chat_id,omitempty"`
	Data   json.RawMessage `json:"data,omitempty"`
}

// Hub tracks which connections are subscribed to which chat and fans
// events out to them. It is a pure in-memory index, rebuilt as clients
// rejoin after a restart; joining an unknown chat id is accepted silently.
type Hub struct {
	mu    sync.RWMutex
	rooms map[uuid.UUID]map[*Client]bool
}

// NewHub creates an empty hub
func NewHub() *Hub {
	return &Hub{
		rooms: make(map[uuid.UUID]map[*Client]bool),
	}
}

// Join subscribes client to chatID. Idempotent.
func (h *Hub) Join(client *Client, chatID uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.rooms[chatID] == nil {
		h.rooms[chatID] = make(map[*Client]bool)
	}
	h.rooms[chatID][client] = true
	log.Debug("Client %s joined chat %s", client.UserID, chatID)
}

// Leave removes client from chatID. No-op if absent.
func (h *Hub) Leave(client *Client, chatID uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.remove(client, chatID)
}

// Disconnect removes client from every room it had joined and closes
// its send channel. Safe to call more than once.
func (h *Hub) Disconnect(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for chatID := range h.rooms {
		h.remove(client, chatID)
	}
	client.closeSend()
}

// remove must be called with h.mu held.
func (h *Hub) remove(client *Client, chatID uuid.UUID) {
	clients, ok := h.rooms[chatID]
	if !ok {
		return
	}
	delete(clients, client)
	if len(clients) == 0 {
		delete(h.rooms, chatID)
	}
}

// RoomSize returns the number of connections subscribed to chatID
func (h *Hub) RoomSize(chatID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[chatID])
}

// Publish fans an event out to every subscriber of chatID except
// connections owned by excludeUserID. Delivery is best-effort and
// non-blocking per recipient: a subscriber whose send buffer is full is
// dropped and disconnected rather than stalling the rest of the room.
func (h *Hub) Publish(chatID uuid.UUID, event string, payload interface{}, excludeUserID uuid.UUID) {
	evt := Event{Event: event, ChatID: chatID}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			log.Error("Failed to marshal %q payload for chat %s: %v", event, chatID, err)
			return
		}
		evt.Data = data
	}

	raw, err := json.Marshal(evt)
	if err != nil {
		log.Error("Failed to marshal %q event for chat %s: %v", event, chatID, err)
		return
	}

	var stale []*Client

	h.mu.RLock()
	for client := range h.rooms[chatID] {
		if client.UserID == excludeUserID {
			continue
		}
		select {
		case client.send <- raw:
		default:
			stale = append(stale, client)
		}
	}
	h.mu.RUnlock()

	for _, client := range stale {
		log.Warn("Dropping slow client %s from chat %s", client.UserID, chatID)
		h.Disconnect(client)
	}
}
