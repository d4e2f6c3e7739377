package broadcast

import (
	"sync"

	"github.com/google/uuid"

	"github.com/yasinhessnawi1/timeguard/internal/constants"
)

// ChannelSubscriber queues events on a buffered channel for a connection
// handler to drain. Both the SSE and the WebSocket handlers use it.
type ChannelSubscriber struct {
	id       string
	username string
	events   chan Event
	done     chan struct{}
	once     sync.Once
}

// NewChannelSubscriber creates a subscriber with a fresh id.
// A non-positive buffer uses the default size.
func NewChannelSubscriber(username string, buffer int) *ChannelSubscriber {
	if buffer <= 0 {
		buffer = constants.SubscriberBufferSize
	}
	return &ChannelSubscriber{
		id:       uuid.New().String(),
		username: username,
		events:   make(chan Event, buffer),
		done:     make(chan struct{}),
	}
}

// ID returns the subscriber id.
func (s *ChannelSubscriber) ID() string { return s.id }

// Username returns the viewer the stream belongs to.
func (s *ChannelSubscriber) Username() string { return s.username }

// Send queues ev without blocking. It fails when the buffer is full or the
// subscriber is closed.
func (s *ChannelSubscriber) Send(ev Event) bool {
	select {
	case <-s.done:
		return false
	default:
	}

	select {
	case s.events <- ev:
		return true
	default:
		return false
	}
}

// Close signals the connection handler to stop. Safe to call more than once.
func (s *ChannelSubscriber) Close() {
	s.once.Do(func() { close(s.done) })
}

// Events is the queue drained by the connection handler.
func (s *ChannelSubscriber) Events() <-chan Event { return s.events }

// Done is closed when the hub drops the subscriber.
func (s *ChannelSubscriber) Done() <-chan struct{} { return s.done }
