package bus

import (
	"log/slog"
	"sync"
)

const (
	EventCartUpdated      = "cart_updated"
	EventShowConfirmation = "show_confirmation"
	EventBadge            = "badge"
	EventNudge            = "nudge"
	EventModeChanged      = "mode_changed"
)

// Event is one broadcast message fanned out to UI observers. TabID is empty
// for process-wide events such as cart updates.
type Event struct {
	Type  string      `json:"type"`
	TabID string      `json:"tab_id,omitempty"`
	Data  interface{} `json:"data"`
}

// Hub fans events out to subscribers over buffered channels. Delivery is
// fire-and-forget: a subscriber that cannot keep up has events dropped rather
// than blocking the publisher.
type Hub struct {
	mu          sync.Mutex
	subscribers map[int]chan Event
	nextID      int
}

func NewHub() *Hub {
	return &Hub{
		subscribers: make(map[int]chan Event),
	}
}

// Subscribe registers an observer. The returned cancel function must be called
// when the observer goes away; the channel is closed by cancel.
func (h *Hub) Subscribe() (<-chan Event, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	id := h.nextID
	h.nextID++

	ch := make(chan Event, 32)
	h.subscribers[id] = ch

	cancel := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if sub, ok := h.subscribers[id]; ok {
			delete(h.subscribers, id)
			close(sub)
		}
	}

	return ch, cancel
}

func (h *Hub) Publish(event Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, ch := range h.subscribers {
		select {
		case ch <- event:
		default:
			slog.Debug("Dropping event for slow subscriber", "type", event.Type)
		}
	}
}

func (h *Hub) SubscriberCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subscribers)
}
