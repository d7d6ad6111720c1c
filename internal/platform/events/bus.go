// Package events provides a lightweight in-process publish/subscribe bus used
// to decouple domain services from side effects such as notification delivery.
package events

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Topic names carried on the bus.
const (
	TopicInvitationCreated  = "family.invitation.created"
	TopicInvitationAccepted = "family.invitation.accepted"
	TopicInvitationRejected = "family.invitation.rejected"
	TopicInvitationExpired  = "family.invitation.expired"
	TopicMemberRemoved      = "family.member.removed"
	TopicEmergencyAlert     = "emergency.alert.created"
	TopicEmergencyResolved  = "emergency.alert.resolved"
)

// Event is a single message published on the bus.
type Event struct {
	ID         string            `json:"id"`
	Topic      string            `json:"topic"`
	OccurredAt time.Time         `json:"occurred_at"`
	Payload    map[string]string `json:"payload"`
}

// Handler consumes a published event. Handlers run synchronously on the
// publisher's goroutine and must not block for long; anything slow should
// hand off to its own worker.
type Handler func(ctx context.Context, evt Event)

type subscription struct {
	id      string
	handler Handler
}

// Bus is an in-memory topic-based event bus. Subscriptions and publishes are
// safe for concurrent use.
type Bus struct {
	mu     sync.RWMutex
	subs   map[string][]subscription
	closed bool
	logger zerolog.Logger
}

// NewBus creates an empty Bus.
func NewBus(logger zerolog.Logger) *Bus {
	return &Bus{
		subs:   make(map[string][]subscription),
		logger: logger.With().Str("component", "events").Logger(),
	}
}

// Subscribe registers a handler for the given topic and returns a cancel
// function that removes the subscription.
func (b *Bus) Subscribe(topic string, h Handler) func() {
	id := uuid.New().String()

	b.mu.Lock()
	b.subs[topic] = append(b.subs[topic], subscription{id: id, handler: h})
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		list := b.subs[topic]
		for i, s := range list {
			if s.id == id {
				b.subs[topic] = append(list[:i], list[i+1:]...)
				return
			}
		}
	}
}

// Publish delivers the event to every subscriber of its topic. A panicking
// handler is recovered and logged so one subscriber cannot take down the
// publisher or starve its peers.
func (b *Bus) Publish(ctx context.Context, topic string, payload map[string]string) {
	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return
	}
	handlers := make([]subscription, len(b.subs[topic]))
	copy(handlers, b.subs[topic])
	b.mu.RUnlock()

	evt := Event{
		ID:         uuid.New().String(),
		Topic:      topic,
		OccurredAt: time.Now().UTC(),
		Payload:    payload,
	}

	for _, s := range handlers {
		b.deliver(ctx, s, evt)
	}
}

func (b *Bus) deliver(ctx context.Context, s subscription, evt Event) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error().
				Str("topic", evt.Topic).
				Str("event_id", evt.ID).
				Interface("panic", r).
				Msg("event handler panicked")
		}
	}()
	s.handler(ctx, evt)
}

// Close stops the bus. Subsequent publishes are dropped.
func (b *Bus) Close() {
	b.mu.Lock()
	b.closed = true
	b.subs = make(map[string][]subscription)
	b.mu.Unlock()
}
