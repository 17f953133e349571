// Package realtime pushes project events to connected websocket clients.
//
// Events are grouped into rooms, one per project. A Bus publishes either
// straight into the local Hub or, when NATS is configured, through a NATS
// subject so every instance behind the load balancer delivers the event
// to its own clients. Publishing never blocks or fails the caller.
package realtime

import (
	"sync"

	"go.uber.org/zap"
)

// sendBuffer is the per-subscriber queue; a subscriber that falls this
// far behind misses events.
const sendBuffer = 32

// Hub fans messages out to subscribers of a room.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]map[*Subscription]struct{}
	log   *zap.Logger
}

func NewHub(log *zap.Logger) *Hub {
	return &Hub{rooms: make(map[string]map[*Subscription]struct{}), log: log}
}

// Subscription receives messages for one room until Close is called.
type Subscription struct {
	C    <-chan []byte
	ch   chan []byte
	room string
	hub  *Hub
	once sync.Once
}

// Subscribe joins room.
func (h *Hub) Subscribe(room string) *Subscription {
	ch := make(chan []byte, sendBuffer)
	s := &Subscription{C: ch, ch: ch, room: room, hub: h}

	h.mu.Lock()
	subs, ok := h.rooms[room]
	if !ok {
		subs = make(map[*Subscription]struct{})
		h.rooms[room] = subs
	}
	subs[s] = struct{}{}
	h.mu.Unlock()
	return s
}

// Close leaves the room and closes C. Safe to call more than once.
func (s *Subscription) Close() {
	s.once.Do(func() {
		h := s.hub
		h.mu.Lock()
		if subs, ok := h.rooms[s.room]; ok {
			delete(subs, s)
			if len(subs) == 0 {
				delete(h.rooms, s.room)
			}
		}
		close(s.ch)
		h.mu.Unlock()
	})
}

// Broadcast delivers msg to every subscriber of room without blocking.
func (h *Hub) Broadcast(room string, msg []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for s := range h.rooms[room] {
		select {
		case s.ch <- msg:
		default:
			h.log.Warn("realtime subscriber lagging, dropping event", zap.String("room", room))
		}
	}
}

// Subscribers returns the number of subscribers in room.
func (h *Hub) Subscribers(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}
