package company

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCompany(t *testing.T) {
	tenantID := uuid.New()

	t.Run("creates company with defaults", func(t *testing.T) {
		c, err := NewCompany(tenantID, "mfg-01", "Northwind Manufacturing", CompanyTypeManufacturer, Profile{})

		require.NoError(t, err)
		assert.Equal(t, "MFG-01", c.Code)
		assert.Equal(t, DefaultCurrency, c.Currency)
		assert.True(t, c.IsActive)
		assert.Len(t, c.GetDomainEvents(), 1)
	})

	t.Run("normalises phone to E.164", func(t *testing.T) {
		c, err := NewCompany(tenantID, "DIST", "Northwind Distribution", CompanyTypeDistributor, Profile{
			Phone:    "(650) 253-0000",
			Currency: "eur",
			Email:    "books@northwind.example",
		})

		require.NoError(t, err)
		assert.Equal(t, "+16502530000", c.Phone)
		assert.Equal(t, "EUR", c.Currency)
	})

	t.Run("rejects invalid phone", func(t *testing.T) {
		_, err := NewCompany(tenantID, "P1", "Plant", CompanyTypePlant, Profile{Phone: "12"})
		assert.Contains(t, err.Error(), "Phone number")
	})

	t.Run("rejects unknown type", func(t *testing.T) {
		_, err := NewCompany(tenantID, "X", "Retail", CompanyType("retailer"), Profile{})
		assert.Contains(t, err.Error(), "Company type")
	})

	t.Run("rejects bad currency and email", func(t *testing.T) {
		_, err := NewCompany(tenantID, "X", "X Co", CompanyTypePlant, Profile{Currency: "US"})
		assert.Contains(t, err.Error(), "Currency")

		_, err = NewCompany(tenantID, "X", "X Co", CompanyTypePlant, Profile{Email: "not-an-email"})
		assert.Contains(t, err.Error(), "Email")
	})
}

func TestCompany_UpdateAndDeactivate(t *testing.T) {
	c, err := NewCompany(uuid.New(), "P1", "Plant One", CompanyTypePlant, Profile{})
	require.NoError(t, err)

	require.NoError(t, c.Update("Plant One West", CompanyTypeManufacturer, Profile{Currency: "CAD"}))
	assert.Equal(t, "Plant One West", c.Name)
	assert.Equal(t, CompanyTypeManufacturer, c.Type)
	assert.Equal(t, "CAD", c.Currency)
	assert.Equal(t, 2, c.Version)

	require.NoError(t, c.Deactivate())
	assert.Error(t, c.Deactivate())
	require.NoError(t, c.Activate())
}

func TestNormalizePhone(t *testing.T) {
	got, err := NormalizePhone("")
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = NormalizePhone("+44 20 7031 3000")
	require.NoError(t, err)
	assert.Equal(t, "+442070313000", got)
}
