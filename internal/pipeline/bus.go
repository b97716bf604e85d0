// Package pipeline provides the in-process event bus that decouples the
// email delivery pipeline (C9) from its observers: suppression handling,
// webhook fanout, and analytics roll-ups. The worker-side pipeline publishes
// state-transition events; it never holds a reference back to any
// subscriber, breaking the cyclic engine<->service wiring called out by
// spec.md's design notes.
package pipeline

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Event is a single observable occurrence in the delivery pipeline,
// mirroring spec.md's "Analytics event" shape: (tenant_id, domain_id?,
// email_id?, type, occurred_at, metadata).
type Event struct {
	ID         uuid.UUID
	TeamID     uuid.UUID
	DomainID   *uuid.UUID
	EmailID    *uuid.UUID
	Type       string
	OccurredAt time.Time
	Metadata   map[string]interface{}
}

// Handler processes one published event. Handlers run synchronously on the
// publishing goroutine (the worker task that owns the transition); a slow or
// panicking handler must not be allowed to take down the caller, so Bus
// recovers panics and logs them rather than propagating.
type Handler func(ctx context.Context, evt Event)

// Bus is a minimal, in-process publish/subscribe dispatcher. Subscribers are
// registered once at startup (one per observer: suppression, webhooks,
// analytics) and never change concurrently with Publish, but the mutex
// guards against tests or future dynamic subscription.
type Bus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
	logger   *slog.Logger
}

// NewBus creates an empty event bus.
func NewBus(logger *slog.Logger) *Bus {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bus{
		handlers: make(map[string][]Handler),
		logger:   logger,
	}
}

// Subscribe registers a handler for eventType. Use "*" to receive every
// event type (used by the analytics aggregator, which rolls up all of
// them).
func (b *Bus) Subscribe(eventType string, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[eventType] = append(b.handlers[eventType], h)
}

// Publish delivers evt to every handler subscribed to evt.Type and to every
// wildcard ("*") subscriber, in registration order. Each handler is
// recovered individually so one observer's failure never affects another's.
func (b *Bus) Publish(ctx context.Context, evt Event) {
	if evt.ID == uuid.Nil {
		evt.ID = uuid.New()
	}
	if evt.OccurredAt.IsZero() {
		evt.OccurredAt = time.Now().UTC()
	}

	b.mu.RLock()
	handlers := append(append([]Handler{}, b.handlers[evt.Type]...), b.handlers["*"]...)
	b.mu.RUnlock()

	for _, h := range handlers {
		b.dispatch(ctx, h, evt)
	}
}

func (b *Bus) dispatch(ctx context.Context, h Handler, evt Event) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("pipeline: event handler panicked",
				"event_type", evt.Type,
				"team_id", evt.TeamID,
				"panic", r,
			)
		}
	}()
	h(ctx, evt)
}
