package ledger

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AccountMovement is the sum of posted debits and credits on one account
type AccountMovement struct {
	AccountID uuid.UUID
	Debit     decimal.Decimal
	Credit    decimal.Decimal
}

// WithMovements returns a copy of the chart whose balances are the given movements.
// Accounts without movement end up at zero.
func WithMovements(accounts []Account, movements []AccountMovement) []Account {
	byID := make(map[uuid.UUID]AccountMovement, len(movements))
	for _, m := range movements {
		byID[m.AccountID] = m
	}

	out := make([]Account, len(accounts))
	for i, a := range accounts {
		a.Balance = decimal.Zero
		if m, ok := byID[a.ID]; ok {
			if a.Type.NormalBalance() == NormalBalanceDebit {
				a.Balance = m.Debit.Sub(m.Credit)
			} else {
				a.Balance = m.Credit.Sub(m.Debit)
			}
		}
		out[i] = a
	}
	return out
}
