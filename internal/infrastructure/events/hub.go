// Package events fans progress events out to every connected observer.
package events

import (
	"sync"

	"github.com/nvman/backend/internal/domain"
	"github.com/nvman/backend/internal/infrastructure/logger"
)

const subscriberBuffer = 64

// Hub broadcasts progress events to all subscribers. Publish fans out under
// the lock, so events published by one worker reach every subscriber in the
// order the worker emitted them.
type Hub struct {
	mu     sync.Mutex
	subs   map[chan domain.ProgressEvent]struct{}
	logger *logger.Logger
}

func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		subs:   make(map[chan domain.ProgressEvent]struct{}),
		logger: log,
	}
}

// Subscribe registers a new observer. The returned cancel func must be
// called when the observer goes away.
func (h *Hub) Subscribe() (<-chan domain.ProgressEvent, func()) {
	ch := make(chan domain.ProgressEvent, subscriberBuffer)

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

// Publish delivers the event to every subscriber. A subscriber that cannot
// keep up loses the event rather than blocking the worker.
func (h *Hub) Publish(ev domain.ProgressEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for ch := range h.subs {
		select {
		case ch <- ev:
		default:
			h.logger.Warnw("event_dropped_slow_subscriber", "task_id", ev.ID)
		}
	}
}

// SubscriberCount is used by the health endpoint and tests.
func (h *Hub) SubscriberCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}
