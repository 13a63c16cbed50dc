package loudness

import (
	"sync"
	"time"
)

// Sample is one normalized loudness measurement of the microphone input.
type Sample struct {
	Level  float64 // 0..1
	At     time.Time
	Buffer []byte // raw capture chunk, opaque to consumers
}

// Source delivers samples in arrival order.
type Source interface {
	Subscribe(fn func(Sample)) Subscription
}

type Subscription interface {
	// Unsubscribe stops delivery. When it returns the handler will not be
	// called again. It must not be called from inside the handler itself.
	Unsubscribe()
}

// Hub fans published samples out to subscribers, one sample at a time.
type Hub struct {
	deliverMu sync.Mutex

	mu   sync.Mutex
	next int
	subs map[int]*subscription
	ord  []int
}

func NewHub() *Hub {
	return &Hub{subs: make(map[int]*subscription)}
}

type subscription struct {
	hub *Hub
	id  int
	fn  func(Sample)
}

func (h *Hub) Subscribe(fn func(Sample)) Subscription {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.next++
	s := &subscription{hub: h, id: h.next, fn: fn}
	h.subs[s.id] = s
	h.ord = append(h.ord, s.id)
	return s
}

// Publish delivers s to every current subscriber in subscription order.
// Concurrent publishers are serialized.
func (h *Hub) Publish(s Sample) {
	h.deliverMu.Lock()
	defer h.deliverMu.Unlock()

	h.mu.Lock()
	fns := make([]func(Sample), 0, len(h.ord))
	for _, id := range h.ord {
		fns = append(fns, h.subs[id].fn)
	}
	h.mu.Unlock()

	for _, fn := range fns {
		fn(s)
	}
}

// Len returns the number of active subscriptions.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

func (s *subscription) Unsubscribe() {
	h := s.hub
	// Waiting for any in-flight fan-out makes the stop synchronous.
	h.deliverMu.Lock()
	defer h.deliverMu.Unlock()

	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.subs[s.id]; !ok {
		return
	}
	delete(h.subs, s.id)
	for i, id := range h.ord {
		if id == s.id {
			h.ord = append(h.ord[:i], h.ord[i+1:]...)
			break
		}
	}
}
