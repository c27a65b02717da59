package event

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/erp/accounting/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEvent struct {
	shared.BaseDomainEvent
}

func newTestEvent(eventType string) *testEvent {
	return &testEvent{BaseDomainEvent: shared.NewBaseDomainEvent(eventType, "Test", uuid.New(), uuid.New())}
}

type testHandler struct {
	types []string
	err   error
	panic bool
	block chan struct{}

	mu      sync.Mutex
	handled []string
}

func (h *testHandler) EventTypes() []string { return h.types }

func (h *testHandler) Handle(_ context.Context, e shared.DomainEvent) error {
	if h.block != nil {
		<-h.block
	}
	if h.panic {
		panic("handler exploded")
	}
	h.mu.Lock()
	h.handled = append(h.handled, e.EventType())
	h.mu.Unlock()
	return h.err
}

func (h *testHandler) seen() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.handled...)
}

type observer struct {
	mu       sync.Mutex
	ok, fail int
}

func (o *observer) ObserveDelivery(_ string, _ time.Duration, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if err != nil {
		o.fail++
	} else {
		o.ok++
	}
}

func TestBus_RoutesByType(t *testing.T) {
	ctx := context.Background()
	bus := NewBus(nil)

	posted := &testHandler{types: []string{"JournalEntryPosted"}}
	everything := &testHandler{}
	explicit := &testHandler{types: []string{"ignored"}}
	bus.Subscribe(posted)
	bus.Subscribe(everything)
	bus.Subscribe(explicit, "InvoiceCreated")

	require.NoError(t, bus.Publish(ctx, newTestEvent("JournalEntryPosted"), newTestEvent("InvoiceCreated")))

	assert.Equal(t, []string{"JournalEntryPosted"}, posted.seen())
	assert.Equal(t, []string{"InvoiceCreated"}, explicit.seen())
	assert.Equal(t, []string{"JournalEntryPosted", "InvoiceCreated"}, everything.seen())

	bus.Unsubscribe(posted)
	bus.Unsubscribe(everything)
	require.NoError(t, bus.Publish(ctx, newTestEvent("JournalEntryPosted")))
	assert.Len(t, posted.seen(), 1)
	assert.Len(t, everything.seen(), 2)
}

func TestBus_HandlerFailuresAreContained(t *testing.T) {
	ctx := context.Background()
	obs := &observer{}
	bus := NewBus(nil, WithObserver(obs))

	failing := &testHandler{types: []string{"E"}, err: errors.New("cache down")}
	panicking := &testHandler{types: []string{"E"}, panic: true}
	healthy := &testHandler{types: []string{"E"}}
	bus.Subscribe(failing)
	bus.Subscribe(panicking)
	bus.Subscribe(healthy)

	require.NoError(t, bus.Publish(ctx, newTestEvent("E")))
	assert.Len(t, healthy.seen(), 1)
	assert.Equal(t, 1, obs.ok)
	assert.Equal(t, 2, obs.fail)
}

func TestBus_AsyncDrainsOnStop(t *testing.T) {
	ctx := context.Background()
	bus := NewBus(nil, WithAsync(2, 16))
	h := &testHandler{types: []string{"E"}}
	bus.Subscribe(h)
	require.NoError(t, bus.Start(ctx))

	for i := 0; i < 10; i++ {
		require.NoError(t, bus.Publish(ctx, newTestEvent("E")))
	}
	require.NoError(t, bus.Stop(ctx))
	assert.Len(t, h.seen(), 10)

	assert.ErrorIs(t, bus.Publish(ctx, newTestEvent("E")), ErrBusStopped)
	assert.NoError(t, bus.Stop(ctx))
}

func TestBus_AsyncQueueFull(t *testing.T) {
	ctx := context.Background()
	release := make(chan struct{})
	bus := NewBus(nil, WithAsync(1, 1))
	h := &testHandler{types: []string{"E"}, block: release}
	bus.Subscribe(h)
	require.NoError(t, bus.Start(ctx))

	require.NoError(t, bus.Publish(ctx, newTestEvent("E")))
	// The worker holds at most one event, the queue one more
	var err error
	for i := 0; i < 3 && err == nil; i++ {
		err = bus.Publish(ctx, newTestEvent("E"))
	}
	assert.Error(t, err)

	close(release)
	require.NoError(t, bus.Stop(ctx))
}

func TestBus_AsyncIgnoresPublisherCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	bus := NewBus(nil, WithAsync(1, 4))

	var got error
	done := make(chan struct{})
	bus.Subscribe(handlerFunc(func(ctx context.Context, _ shared.DomainEvent) error {
		got = ctx.Err()
		close(done)
		return nil
	}), "E")

	require.NoError(t, bus.Publish(ctx, newTestEvent("E")))
	cancel()
	require.NoError(t, bus.Start(context.Background()))
	<-done
	assert.NoError(t, got)
	require.NoError(t, bus.Stop(context.Background()))
}

type handlerFunc func(context.Context, shared.DomainEvent) error

func (f handlerFunc) Handle(ctx context.Context, e shared.DomainEvent) error { return f(ctx, e) }
func (f handlerFunc) EventTypes() []string                                   { return nil }
