// Package realtime implements room-scoped fanout of event notifications.
// Rooms are named by event id, created on first join and garbage-collected
// when the last subscriber leaves. Delivery is at-most-once: a subscriber
// that cannot keep up loses messages rather than blocking the publisher.
package realtime

import (
	"sync"

	"github.com/gatherly/eventhub/pkg/logger"
)

// Server-to-room message types.
const (
	MessageEventUpdate    = "eventUpdate"
	MessageAttendeeUpdate = "attendeeUpdate"
)

type Message struct {
	Room    string
	Type    string
	Payload any
}

// subscriberBuffer bounds the per-client queue between publish and transport.
const subscriberBuffer = 16

// Subscriber is one connected client session. It may join any number of
// rooms; closing it leaves them all.
type Subscriber struct {
	hub   *Hub
	ch    chan Message
	rooms map[string]struct{}
}

// C is the stream of messages from every room the subscriber has joined.
func (s *Subscriber) C() <-chan Message {
	return s.ch
}

// Close removes the subscriber from all rooms and closes its channel.
// Safe to call once per subscriber.
func (s *Subscriber) Close() {
	s.hub.unsubscribe(s)
}

type Hub struct {
	mu    sync.RWMutex
	rooms map[string]map[*Subscriber]struct{}
}

func NewHub() *Hub {
	return &Hub{rooms: make(map[string]map[*Subscriber]struct{})}
}

// Subscribe registers a new client session with no room memberships yet.
func (h *Hub) Subscribe() *Subscriber {
	return &Subscriber{
		hub:   h,
		ch:    make(chan Message, subscriberBuffer),
		rooms: make(map[string]struct{}),
	}
}

// Join adds the subscriber to a room, creating the room if needed.
// Joining a room twice is a no-op.
func (h *Hub) Join(s *Subscriber, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	members, ok := h.rooms[room]
	if !ok {
		members = make(map[*Subscriber]struct{})
		h.rooms[room] = members
	}
	members[s] = struct{}{}
	s.rooms[room] = struct{}{}
}

// Leave removes the subscriber from a room; no error if absent. Empty rooms
// are deleted.
func (h *Hub) Leave(s *Subscriber, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.leaveLocked(s, room)
}

func (h *Hub) leaveLocked(s *Subscriber, room string) {
	members, ok := h.rooms[room]
	if !ok {
		return
	}
	delete(members, s)
	delete(s.rooms, room)
	if len(members) == 0 {
		delete(h.rooms, room)
	}
}

func (h *Hub) unsubscribe(s *Subscriber) {
	h.mu.Lock()
	for room := range s.rooms {
		h.leaveLocked(s, room)
	}
	h.mu.Unlock()
	close(s.ch)
}

// Publish delivers the payload to every current subscriber of the room.
// Within a room, delivery order follows publish call order. A subscriber
// whose buffer is full misses the message.
func (h *Hub) Publish(room, messageType string, payload any) {
	msg := Message{Room: room, Type: messageType, Payload: payload}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for s := range h.rooms[room] {
		select {
		case s.ch <- msg:
		default:
			logger.Warn("dropping realtime message for slow subscriber",
				"room", room, "type", messageType)
		}
	}
}

// RoomSize reports the current number of subscribers in a room.
func (h *Hub) RoomSize(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}
