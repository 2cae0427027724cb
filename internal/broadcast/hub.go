package broadcast

import (
	"sync"

	"auction-house/utils"
)

// Event names pushed to realtime clients.
const (
	EventNewBid          = "new_bid"
	EventAuctionClosed   = "auction_closed"
	EventNewNotification = "new_notification"
)

// Event is a single realtime message scoped to a room.
type Event struct {
	Name string `json:"event"`
	Room string `json:"room"`
	Data any    `json:"data"`
}

// Subscriber receives events for the rooms it has joined. Send must not
// block indefinitely; a failed send marks the subscriber dead.
type Subscriber interface {
	ID() string
	Send(event Event) error
}

// Publisher is the write side of the hub, injected into services so they
// never touch process-wide state.
type Publisher interface {
	Publish(room string, event Event)
}

// Hub is a room-scoped publish/subscribe broker. Rooms are keyed by auction
// ID (or user ID for notification pushes). Delivery is best-effort,
// at-most-once per connected subscriber, no replay.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]map[string]Subscriber // key: room -> subscriberID -> subscriber
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{rooms: make(map[string]map[string]Subscriber)}
}

// Subscribe adds a subscriber to a room. Idempotent.
func (h *Hub) Subscribe(room string, s Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()

	members, ok := h.rooms[room]
	if !ok {
		members = make(map[string]Subscriber)
		h.rooms[room] = members
	}
	members[s.ID()] = s
}

// Unsubscribe removes a subscriber from a room. Idempotent.
func (h *Hub) Unsubscribe(room string, subscriberID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(room, subscriberID)
}

// Drop removes a subscriber from every room. Called on client disconnect.
func (h *Hub) Drop(subscriberID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for room := range h.rooms {
		h.removeLocked(room, subscriberID)
	}
}

// Publish delivers an event to every subscriber currently in the room. A
// delivery failure to one subscriber never blocks the others; the failing
// subscriber is dropped from all rooms.
func (h *Hub) Publish(room string, event Event) {
	event.Room = room

	h.mu.RLock()
	members := make([]Subscriber, 0, len(h.rooms[room]))
	for _, s := range h.rooms[room] {
		members = append(members, s)
	}
	h.mu.RUnlock()

	for _, s := range members {
		if err := s.Send(event); err != nil {
			utils.Warn("broadcast: dropping subscriber after failed delivery", map[string]any{
				"room":          room,
				"subscriber_id": s.ID(),
				"event":         event.Name,
				"error":         err.Error(),
			})
			h.Drop(s.ID())
		}
	}
}

// RoomSize returns the current subscriber count of a room.
func (h *Hub) RoomSize(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}

// removeLocked deletes a subscriber from a room and prunes the room when it
// empties. Caller must hold the write lock.
func (h *Hub) removeLocked(room, subscriberID string) {
	members, ok := h.rooms[room]
	if !ok {
		return
	}
	delete(members, subscriberID)
	if len(members) == 0 {
		delete(h.rooms, room)
	}
}
