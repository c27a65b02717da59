package testutil

import (
	"context"
	"sync"

	"github.com/erp/accounting/internal/domain/shared"
)

// EventRecorder is a shared.EventHandler that keeps every event it receives
type EventRecorder struct {
	mu         sync.Mutex
	eventTypes []string
	handled    []shared.DomainEvent
}

// NewEventRecorder records the given event types; none records everything
func NewEventRecorder(eventTypes ...string) *EventRecorder {
	return &EventRecorder{eventTypes: eventTypes}
}

// EventTypes implements shared.EventHandler
func (r *EventRecorder) EventTypes() []string {
	return r.eventTypes
}

// Handle implements shared.EventHandler
func (r *EventRecorder) Handle(_ context.Context, event shared.DomainEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handled = append(r.handled, event)
	return nil
}

// Publish lets the recorder stand in for an event publisher
func (r *EventRecorder) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	for _, e := range events {
		_ = r.Handle(ctx, e)
	}
	return nil
}

// Types lists the recorded event types in order
func (r *EventRecorder) Types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.handled))
	for i, e := range r.handled {
		out[i] = e.EventType()
	}
	return out
}

// Events returns a copy of the recorded events
func (r *EventRecorder) Events() []shared.DomainEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]shared.DomainEvent, len(r.handled))
	copy(out, r.handled)
	return out
}
