package catalog

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProduct(t *testing.T) {
	tenantID, companyID := uuid.New(), uuid.New()

	t.Run("creates product", func(t *testing.T) {
		p, err := NewProduct(tenantID, companyID, "wid-1", "Widget", decimal.NewFromInt(12), decimal.NewFromInt(7))

		require.NoError(t, err)
		assert.Equal(t, "WID-1", p.Code)
		assert.True(t, p.IsActive())
		assert.True(t, p.Margin().Equal(decimal.NewFromInt(5)))
		assert.Len(t, p.GetDomainEvents(), 1)
	})

	t.Run("rejects negative price", func(t *testing.T) {
		_, err := NewProduct(tenantID, companyID, "W", "Widget", decimal.NewFromInt(-1), decimal.Zero)
		assert.Contains(t, err.Error(), "negative")
	})

	t.Run("rejects missing company", func(t *testing.T) {
		_, err := NewProduct(tenantID, uuid.Nil, "W", "Widget", decimal.Zero, decimal.Zero)
		assert.Error(t, err)
	})

	t.Run("rejects empty code and name", func(t *testing.T) {
		_, err := NewProduct(tenantID, companyID, " ", "Widget", decimal.Zero, decimal.Zero)
		assert.Error(t, err)
		_, err = NewProduct(tenantID, companyID, "W", "", decimal.Zero, decimal.Zero)
		assert.Error(t, err)
	})
}

func TestProduct_UpdatePrices(t *testing.T) {
	p, err := NewProduct(uuid.New(), uuid.New(), "W", "Widget", decimal.NewFromInt(10), decimal.NewFromInt(5))
	require.NoError(t, err)
	p.ClearDomainEvents()

	require.NoError(t, p.UpdatePrices(decimal.RequireFromString("11.123456"), decimal.NewFromInt(6)))
	assert.Equal(t, "11.1235", p.SalesPrice.String())
	assert.Equal(t, 2, p.Version)
	assert.Len(t, p.GetDomainEvents(), 1)

	assert.Error(t, p.UpdatePrices(decimal.NewFromInt(1), decimal.NewFromInt(-1)))
}

func TestProduct_Status(t *testing.T) {
	p, _ := NewProduct(uuid.New(), uuid.New(), "W", "Widget", decimal.Zero, decimal.Zero)

	require.NoError(t, p.Deactivate())
	assert.False(t, p.IsActive())
	assert.Error(t, p.Deactivate())
	require.NoError(t, p.Activate())
	assert.Error(t, p.Activate())
}
