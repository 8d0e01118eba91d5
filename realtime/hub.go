package realtime

import (
	"context"
	"sync"
)

// Hub is the in-process room registry behind the SSE endpoint.
type Hub struct {
	mu     sync.RWMutex
	rooms  map[string]map[chan Event]struct{}
	buffer int
	closed bool
}

func NewHub(buffer int) *Hub {
	if buffer <= 0 {
		buffer = 16
	}
	return &Hub{rooms: make(map[string]map[chan Event]struct{}), buffer: buffer}
}

// Subscribe returns a channel of room events and a func that closes it.
func (h *Hub) Subscribe(room string) (<-chan Event, func()) {
	ch := make(chan Event, h.buffer)

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	if h.rooms[room] == nil {
		h.rooms[room] = make(map[chan Event]struct{})
	}
	h.rooms[room][ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if _, ok := h.rooms[room][ch]; !ok {
				return
			}
			delete(h.rooms[room], ch)
			if len(h.rooms[room]) == 0 {
				delete(h.rooms, room)
			}
			close(ch)
		})
	}
}

// Publish never blocks: a subscriber whose buffer is full misses the event.
func (h *Hub) Publish(_ context.Context, room string, evt Event) error {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for ch := range h.rooms[room] {
		select {
		case ch <- evt:
		default:
		}
	}
	return nil
}

func (h *Hub) Subscribers(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}

// Close ends every subscription; streams see their channel close and return.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for room, subs := range h.rooms {
		for ch := range subs {
			close(ch)
		}
		delete(h.rooms, room)
	}
	h.closed = true
}
