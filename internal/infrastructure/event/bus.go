package event

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/erp/accounting/internal/domain/shared"
	"go.uber.org/zap"
)

// ErrBusStopped is returned when publishing to a stopped asynchronous bus
var ErrBusStopped = errors.New("event bus is stopped")

// DeliveryObserver is told the outcome of every handler invocation
type DeliveryObserver interface {
	ObserveDelivery(eventType string, duration time.Duration, err error)
}

// Option configures a Bus
type Option func(*Bus)

// WithAsync dispatches events from a bounded queue on background workers.
// Publish then only fails when the queue is full or the bus is stopped.
func WithAsync(workers, queueSize int) Option {
	return func(b *Bus) {
		if workers < 1 {
			workers = 1
		}
		if queueSize < 1 {
			queueSize = 1
		}
		b.workers = workers
		b.queue = make(chan delivery, queueSize)
	}
}

// WithObserver reports deliveries to o
func WithObserver(o DeliveryObserver) Option {
	return func(b *Bus) { b.observer = o }
}

// WithHandlerTimeout bounds every handler call
func WithHandlerTimeout(d time.Duration) Option {
	return func(b *Bus) { b.timeout = d }
}

type delivery struct {
	ctx   context.Context
	event shared.DomainEvent
}

// Bus is an in-process publish/subscribe bus for domain events published after commit.
// Handler failures are logged and never reach the publisher, since the data is already committed.
type Bus struct {
	logger   *zap.Logger
	observer DeliveryObserver
	timeout  time.Duration

	mu       sync.RWMutex
	byType   map[string][]shared.EventHandler
	wildcard []shared.EventHandler

	workers int
	queue   chan delivery
	state   sync.Mutex
	started bool
	stopped bool
	wg      sync.WaitGroup
}

// NewBus creates a bus that dispatches synchronously unless WithAsync is given
func NewBus(logger *zap.Logger, opts ...Option) *Bus {
	if logger == nil {
		logger = zap.NewNop()
	}
	b := &Bus{
		logger: logger,
		byType: make(map[string][]shared.EventHandler),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Subscribe registers a handler. Without explicit types the handler's own EventTypes are used,
// and a handler with no types at all receives every event.
func (b *Bus) Subscribe(handler shared.EventHandler, eventTypes ...string) {
	if len(eventTypes) == 0 {
		eventTypes = handler.EventTypes()
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(eventTypes) == 0 {
		b.wildcard = append(b.wildcard, handler)
		return
	}
	for _, t := range eventTypes {
		b.byType[t] = append(b.byType[t], handler)
	}
	b.logger.Debug("Event handler subscribed", zap.Strings("event_types", eventTypes))
}

// Unsubscribe removes a handler from every event type
func (b *Bus) Unsubscribe(handler shared.EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.wildcard = without(b.wildcard, handler)
	for t, handlers := range b.byType {
		if rest := without(handlers, handler); len(rest) > 0 {
			b.byType[t] = rest
		} else {
			delete(b.byType, t)
		}
	}
}

// Publish delivers events to their handlers
func (b *Bus) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	if b.queue == nil {
		for _, e := range events {
			b.dispatch(ctx, e)
		}
		return nil
	}

	b.state.Lock()
	defer b.state.Unlock()
	if b.stopped {
		return ErrBusStopped
	}
	// Handlers run after the request returns, so they must not inherit its cancellation
	detached := context.WithoutCancel(ctx)
	for i, e := range events {
		select {
		case b.queue <- delivery{ctx: detached, event: e}:
		default:
			b.logger.Error("Event queue full, dropping events",
				zap.String("event_type", e.EventType()),
				zap.Int("dropped", len(events)-i))
			return fmt.Errorf("event queue full, dropped %d events", len(events)-i)
		}
	}
	return nil
}

// Start launches the workers of an asynchronous bus
func (b *Bus) Start(_ context.Context) error {
	b.state.Lock()
	defer b.state.Unlock()
	if b.started || b.queue == nil {
		b.started = true
		return nil
	}
	b.started = true
	for i := 0; i < b.workers; i++ {
		b.wg.Add(1)
		go b.work()
	}
	b.logger.Info("Event bus started", zap.Int("workers", b.workers))
	return nil
}

// Stop refuses new events and waits for queued ones to be delivered
func (b *Bus) Stop(ctx context.Context) error {
	b.state.Lock()
	if b.stopped {
		b.state.Unlock()
		return nil
	}
	b.stopped = true
	if b.queue != nil {
		close(b.queue)
		if !b.started {
			b.started = true
			for i := 0; i < b.workers; i++ {
				b.wg.Add(1)
				go b.work()
			}
		}
	}
	b.state.Unlock()

	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		b.logger.Info("Event bus stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (b *Bus) work() {
	defer b.wg.Done()
	for d := range b.queue {
		b.dispatch(d.ctx, d.event)
	}
}

func (b *Bus) handlers(eventType string) []shared.EventHandler {
	b.mu.RLock()
	defer b.mu.RUnlock()
	typed := b.byType[eventType]
	out := make([]shared.EventHandler, 0, len(typed)+len(b.wildcard))
	out = append(out, typed...)
	return append(out, b.wildcard...)
}

func (b *Bus) dispatch(ctx context.Context, e shared.DomainEvent) {
	for _, h := range b.handlers(e.EventType()) {
		start := time.Now()
		err := b.call(ctx, h, e)
		if b.observer != nil {
			b.observer.ObserveDelivery(e.EventType(), time.Since(start), err)
		}
		if err != nil {
			b.logger.Error("Event handler failed",
				zap.String("event_type", e.EventType()),
				zap.String("event_id", e.EventID().String()),
				zap.String("tenant_id", e.TenantID().String()),
				zap.Error(err))
		}
	}
}

func (b *Bus) call(ctx context.Context, h shared.EventHandler, e shared.DomainEvent) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panicked: %v", r)
		}
	}()
	if b.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.timeout)
		defer cancel()
	}
	return h.Handle(ctx, e)
}

func without(handlers []shared.EventHandler, target shared.EventHandler) []shared.EventHandler {
	out := make([]shared.EventHandler, 0, len(handlers))
	for _, h := range handlers {
		if h != target {
			out = append(out, h)
		}
	}
	return out
}

var _ shared.EventBus = (*Bus)(nil)
