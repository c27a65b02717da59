package ledger

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAccount(t *testing.T) {
	tenantID, companyID := uuid.New(), uuid.New()

	t.Run("creates root account", func(t *testing.T) {
		a, err := NewAccount(tenantID, companyID, " 1010 ", "Cash", AccountTypeAsset, nil)

		require.NoError(t, err)
		assert.Equal(t, "1010", a.Code)
		assert.True(t, a.Balance.IsZero())
		assert.True(t, a.IsActive)
		assert.Nil(t, a.ParentID)
	})

	t.Run("attaches to parent of same type and company", func(t *testing.T) {
		parent, err := NewHeaderAccount(tenantID, companyID, "1000", "Assets", AccountTypeAsset, nil)
		require.NoError(t, err)

		child, err := NewAccount(tenantID, companyID, "1010", "Cash", AccountTypeAsset, parent)
		require.NoError(t, err)
		assert.Equal(t, parent.ID, *child.ParentID)
	})

	t.Run("rejects parent with different type", func(t *testing.T) {
		parent, _ := NewHeaderAccount(tenantID, companyID, "2000", "Liabilities", AccountTypeLiability, nil)
		_, err := NewAccount(tenantID, companyID, "1010", "Cash", AccountTypeAsset, parent)
		assert.Contains(t, err.Error(), "same account type")
	})

	t.Run("rejects parent from another company", func(t *testing.T) {
		parent, _ := NewHeaderAccount(tenantID, uuid.New(), "1000", "Assets", AccountTypeAsset, nil)
		_, err := NewAccount(tenantID, companyID, "1010", "Cash", AccountTypeAsset, parent)
		assert.Contains(t, err.Error(), "another company")
	})

	t.Run("rejects unknown type", func(t *testing.T) {
		_, err := NewAccount(tenantID, companyID, "9", "X", AccountType("CONTRA"), nil)
		assert.Error(t, err)
	})
}

func TestAccount_Apply(t *testing.T) {
	tests := []struct {
		name     string
		typ      AccountType
		debit    string
		credit   string
		expected string
	}{
		{"asset increases on debit", AccountTypeAsset, "100", "0", "100"},
		{"asset decreases on credit", AccountTypeAsset, "0", "40", "-40"},
		{"liability increases on credit", AccountTypeLiability, "0", "75.5", "75.5"},
		{"revenue increases on credit", AccountTypeRevenue, "0", "10", "10"},
		{"expense increases on debit", AccountTypeExpense, "12", "0", "12"},
		{"equity decreases on debit", AccountTypeEquity, "5", "0", "-5"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := NewAccount(uuid.New(), uuid.New(), "X1", "X", tt.typ, nil)
			require.NoError(t, err)

			a.Apply(decimal.RequireFromString(tt.debit), decimal.RequireFromString(tt.credit))
			assert.True(t, decimal.RequireFromString(tt.expected).Equal(a.Balance), "got %s", a.Balance)
		})
	}
}

func TestAccount_CheckDeletable(t *testing.T) {
	a, _ := NewAccount(uuid.New(), uuid.New(), "6000", "Misc", AccountTypeExpense, nil)

	assert.NoError(t, a.CheckDeletable(false, false))
	assert.Error(t, a.CheckDeletable(true, false))
	assert.Error(t, a.CheckDeletable(false, true))

	a.Balance = decimal.NewFromInt(1)
	assert.Contains(t, a.CheckDeletable(false, false).Error(), "zero")

	a.Balance = decimal.Zero
	a.IsSystem = true
	assert.Contains(t, a.CheckDeletable(false, false).Error(), "System")
	assert.Error(t, a.SetActive(false))
}

func TestAccountType_NormalBalance(t *testing.T) {
	assert.Equal(t, NormalBalanceDebit, AccountTypeAsset.NormalBalance())
	assert.Equal(t, NormalBalanceCredit, AccountTypeLiability.NormalBalance())
	assert.Equal(t, NormalBalanceCredit, AccountTypeEquity.NormalBalance())
	assert.Equal(t, NormalBalanceCredit, AccountTypeRevenue.NormalBalance())
	assert.Equal(t, NormalBalanceDebit, AccountTypeExpense.NormalBalance())
	assert.Len(t, AllAccountTypes(), 5)
	assert.True(t, AccountTypeEquity.IsBalanceSheet())
	assert.False(t, AccountTypeRevenue.IsBalanceSheet())
}
