package workflow

import (
	"sync"
	"time"
)

// StatusEvent is emitted for every accepted transition.
type StatusEvent struct {
	SessionID string    `json:"session_id"`
	FromStep  string    `json:"from_step"`
	ToStep    string    `json:"to_step"`
	Channel   string    `json:"channel"`
	At        time.Time `json:"at"`
}

// Hub fans status events out to websocket subscribers. Publishing never
// blocks a transition: a subscriber that cannot keep up loses events.
type Hub struct {
	mu   sync.RWMutex
	subs map[chan StatusEvent]struct{}
}

func NewHub() *Hub {
	return &Hub{subs: make(map[chan StatusEvent]struct{})}
}

func (h *Hub) Subscribe() (chan StatusEvent, func()) {
	ch := make(chan StatusEvent, 16)

	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		if _, ok := h.subs[ch]; ok {
			delete(h.subs, ch)
			close(ch)
		}
		h.mu.Unlock()
	}
	return ch, cancel
}

func (h *Hub) Publish(ev StatusEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for ch := range h.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}
