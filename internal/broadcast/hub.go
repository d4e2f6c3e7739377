// Package broadcast fans timesheet events out to live viewers.
//
// Delivery is at most once per subscriber. A subscriber that cannot take an
// event immediately is removed; the others are not affected.
package broadcast

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/yasinhessnawi1/timeguard/internal/constants"
	"github.com/yasinhessnawi1/timeguard/internal/metrics"
)

// Event is a named message pushed to subscribers.
type Event struct {
	Name string      `json:"event"`
	Data interface{} `json:"data,omitempty"`
}

// Subscriber receives events. Send must not block; it reports false when the
// event could not be queued. Close is called once when the hub drops it.
type Subscriber interface {
	ID() string
	Send(ev Event) bool
	Close()
}

// Hub holds the set of subscribers.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[string]Subscriber
	heartbeat   time.Duration
}

// NewHub creates a hub that pings subscribers every heartbeat once Run is called.
func NewHub(heartbeat time.Duration) *Hub {
	if heartbeat <= 0 {
		heartbeat = constants.DefaultHeartbeatInterval
	}
	return &Hub{
		subscribers: make(map[string]Subscriber),
		heartbeat:   heartbeat,
	}
}

// Subscribe adds sub to the fan-out set.
func (h *Hub) Subscribe(sub Subscriber) {
	h.mu.Lock()
	h.subscribers[sub.ID()] = sub
	n := len(h.subscribers)
	h.mu.Unlock()

	metrics.StreamSubscribers.Set(float64(n))
	log.Debug().Str("subscriber_id", sub.ID()).Int("subscribers", n).Msg("Stream subscriber added")
}

// Unsubscribe removes a subscriber and closes it. Unknown ids are ignored.
func (h *Hub) Unsubscribe(id string) {
	h.mu.Lock()
	sub, ok := h.subscribers[id]
	if ok {
		delete(h.subscribers, id)
	}
	n := len(h.subscribers)
	h.mu.Unlock()

	if !ok {
		return
	}
	sub.Close()
	metrics.StreamSubscribers.Set(float64(n))
	log.Debug().Str("subscriber_id", id).Int("subscribers", n).Msg("Stream subscriber removed")
}

// Publish sends ev to every subscriber and returns the number that accepted it.
func (h *Hub) Publish(ev Event) int {
	h.mu.RLock()
	targets := make([]Subscriber, 0, len(h.subscribers))
	for _, sub := range h.subscribers {
		targets = append(targets, sub)
	}
	h.mu.RUnlock()

	delivered := 0
	for _, sub := range targets {
		if sub.Send(ev) {
			delivered++
			continue
		}
		log.Warn().Str("subscriber_id", sub.ID()).Str("event", ev.Name).Msg("Dropping unresponsive stream subscriber")
		metrics.BroadcastDrops.Inc()
		h.Unsubscribe(sub.ID())
	}
	return delivered
}

// Count returns the number of subscribers.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers)
}

// Run sends heartbeats until ctx is cancelled, then closes every subscriber.
func (h *Hub) Run(ctx context.Context) {
	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case <-ticker.C:
			h.Publish(Event{Name: constants.EventHeartbeat})
		}
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	subs := h.subscribers
	h.subscribers = make(map[string]Subscriber)
	h.mu.Unlock()

	for _, sub := range subs {
		sub.Close()
	}
	metrics.StreamSubscribers.Set(0)
}
