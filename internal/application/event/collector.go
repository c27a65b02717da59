package event

import (
	"context"

	"github.com/erp/accounting/internal/domain/shared"
	"go.uber.org/zap"
)

// Collector gathers the pending events of the aggregates written in one unit of work.
// Events are published only after the transaction commits.
type Collector struct {
	events []shared.DomainEvent
}

// NewCollector creates an empty collector
func NewCollector() *Collector {
	return &Collector{events: make([]shared.DomainEvent, 0, 4)}
}

// Collect takes the pending events off the aggregates
func (c *Collector) Collect(aggregates ...shared.AggregateRoot) {
	for _, agg := range aggregates {
		if agg == nil {
			continue
		}
		c.events = append(c.events, agg.GetDomainEvents()...)
		agg.ClearDomainEvents()
	}
}

// Add appends events that were not raised by an aggregate
func (c *Collector) Add(events ...shared.DomainEvent) {
	c.events = append(c.events, events...)
}

// Events returns the collected events in the order they were raised
func (c *Collector) Events() []shared.DomainEvent {
	return c.events
}

// Reset drops collected events, used when a transaction is retried or rolled back
func (c *Collector) Reset() {
	c.events = c.events[:0]
}

// Publish sends the collected events. A publishing failure is logged and never fails the request
// because the data is already committed.
func (c *Collector) Publish(ctx context.Context, publisher shared.EventPublisher, logger *zap.Logger) {
	if publisher == nil || len(c.events) == 0 {
		return
	}
	if err := publisher.Publish(ctx, c.events...); err != nil && logger != nil {
		logger.Warn("Failed to publish domain events",
			zap.Int("count", len(c.events)),
			zap.Error(err))
	}
	c.Reset()
}
