package event

import (
	"context"
	"testing"

	"github.com/erp/accounting/internal/domain/catalog"
	"github.com/erp/accounting/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type recordingPublisher struct {
	events []shared.DomainEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, events ...shared.DomainEvent) error {
	p.events = append(p.events, events...)
	return p.err
}

func newProduct(t *testing.T) *catalog.Product {
	t.Helper()
	p, err := catalog.NewProduct(uuid.New(), uuid.New(), "P-1", "Widget", decimal.NewFromInt(10), decimal.NewFromInt(6))
	require.NoError(t, err)
	return p
}

func TestCollector(t *testing.T) {
	t.Run("takes events off aggregates", func(t *testing.T) {
		p := newProduct(t)
		c := NewCollector()
		c.Collect(p, nil)

		assert.Len(t, c.Events(), 1)
		assert.Empty(t, p.GetDomainEvents())
	})

	t.Run("publishes once and resets", func(t *testing.T) {
		pub := &recordingPublisher{}
		c := NewCollector()
		c.Collect(newProduct(t), newProduct(t))

		c.Publish(context.Background(), pub, zap.NewNop())
		c.Publish(context.Background(), pub, zap.NewNop())

		assert.Len(t, pub.events, 2)
		assert.Empty(t, c.Events())
	})

	t.Run("logs publishing failures", func(t *testing.T) {
		core, logs := observer.New(zap.WarnLevel)
		pub := &recordingPublisher{err: assert.AnError}
		c := NewCollector()
		c.Collect(newProduct(t))

		c.Publish(context.Background(), pub, zap.New(core))

		require.Equal(t, 1, logs.Len())
		assert.Equal(t, "Failed to publish domain events", logs.All()[0].Message)
	})

	t.Run("nil publisher is a no-op", func(t *testing.T) {
		c := NewCollector()
		c.Collect(newProduct(t))
		c.Publish(context.Background(), nil, nil)
		assert.Len(t, c.Events(), 1)
	})
}
