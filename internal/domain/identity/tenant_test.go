package identity

import (
	"strings"
	"testing"

	"github.com/erp/accounting/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTenant(t *testing.T) {
	t.Run("creates tenant successfully", func(t *testing.T) {
		tenant, err := NewTenant("acme", "Acme Holdings")

		require.NoError(t, err)
		assert.Equal(t, "ACME", tenant.Code)
		assert.Equal(t, "Acme Holdings", tenant.Name)
		assert.Equal(t, TenantStatusActive, tenant.Status)
		assert.Equal(t, 1, tenant.Version)
		assert.Equal(t, tenant.ID, tenant.GetTenantID())
		require.Len(t, tenant.GetDomainEvents(), 1)
		assert.Equal(t, EventTypeTenantCreated, tenant.GetDomainEvents()[0].EventType())
	})

	t.Run("fails with invalid code characters", func(t *testing.T) {
		tenant, err := NewTenant("AC ME", "Acme")

		assert.Nil(t, tenant)
		assert.ErrorIs(t, err, shared.NewDomainError("INVALID_CODE", ""))
	})

	t.Run("fails with code exceeding max length", func(t *testing.T) {
		_, err := NewTenant(strings.Repeat("A", 51), "Acme")
		assert.Contains(t, err.Error(), "cannot exceed 50 characters")
	})

	t.Run("fails with blank name", func(t *testing.T) {
		_, err := NewTenant("ACME", "   ")
		assert.Contains(t, err.Error(), "name cannot be empty")
	})
}

func TestTenant_StatusTransitions(t *testing.T) {
	tenant, err := NewTenant("ACME", "Acme")
	require.NoError(t, err)
	tenant.ClearDomainEvents()

	require.NoError(t, tenant.Deactivate())
	assert.False(t, tenant.IsActive())
	assert.Equal(t, 2, tenant.Version)

	err = tenant.Deactivate()
	assert.Contains(t, err.Error(), "already inactive")

	require.NoError(t, tenant.Activate())
	assert.True(t, tenant.IsActive())

	events := tenant.GetDomainEvents()
	require.Len(t, events, 2)
	changed := events[1].(*TenantStatusChangedEvent)
	assert.Equal(t, TenantStatusInactive, changed.OldStatus)
	assert.Equal(t, TenantStatusActive, changed.NewStatus)
}

func TestTenant_Rename(t *testing.T) {
	tenant, err := NewTenant("ACME", "Acme")
	require.NoError(t, err)

	require.NoError(t, tenant.Rename("  Acme Group "))
	assert.Equal(t, "Acme Group", tenant.Name)
	assert.Error(t, tenant.Rename(""))
}
