package realtime

import (
	"sync"

	"github.com/google/uuid"

	"storefront/internal/models/db_models"
	"storefront/pkg/metrics"
)

const subscriberBuffer = 16

// Hub fans notifications out to the open streams of their owner.
type Hub struct {
	mu     sync.RWMutex
	subs   map[uuid.UUID]map[chan db_models.Notification]struct{}
	closed bool
}

func NewHub() *Hub {
	return &Hub{subs: make(map[uuid.UUID]map[chan db_models.Notification]struct{})}
}

// Subscribe registers a stream for userID. The returned cancel func is safe to
// call more than once and closes the channel.
func (h *Hub) Subscribe(userID uuid.UUID) (<-chan db_models.Notification, func()) {
	ch := make(chan db_models.Notification, subscriberBuffer)

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	set, ok := h.subs[userID]
	if !ok {
		set = make(map[chan db_models.Notification]struct{})
		h.subs[userID] = set
	}
	set[ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if set, ok := h.subs[userID]; ok {
				if _, ok := set[ch]; ok {
					delete(set, ch)
					close(ch)
				}
				if len(set) == 0 {
					delete(h.subs, userID)
				}
			}
		})
	}
}

// Publish delivers n to every stream of n.UserID. Slow streams drop the event
// instead of blocking the listener; clients resync through the list endpoint.
func (h *Hub) Publish(n db_models.Notification) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered := 0
	for ch := range h.subs[n.UserID] {
		select {
		case ch <- n:
			delivered++
			metrics.NotificationsPublished.WithLabelValues("delivered").Inc()
		default:
			metrics.NotificationsPublished.WithLabelValues("dropped").Inc()
		}
	}
	return delivered
}

func (h *Hub) Subscribers(userID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[userID])
}

// Close ends every open stream.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for _, set := range h.subs {
		for ch := range set {
			close(ch)
		}
	}
	h.subs = make(map[uuid.UUID]map[chan db_models.Notification]struct{})
}
