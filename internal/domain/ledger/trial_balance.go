package ledger

import (
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TrialBalanceLine is one account's balance expressed as a debit or credit
type TrialBalanceLine struct {
	AccountID uuid.UUID
	Code      string
	Name      string
	Type      AccountType
	Debit     decimal.Decimal
	Credit    decimal.Decimal
}

// TrialBalance lists every postable account and checks debits equal credits
type TrialBalance struct {
	CompanyID   uuid.UUID
	Lines       []TrialBalanceLine
	TotalDebit  decimal.Decimal
	TotalCredit decimal.Decimal
}

// IsBalanced reports whether total debits equal total credits
func (tb *TrialBalance) IsBalanced() bool {
	return tb.TotalDebit.Equal(tb.TotalCredit)
}

// Difference returns debits minus credits
func (tb *TrialBalance) Difference() decimal.Decimal {
	return tb.TotalDebit.Sub(tb.TotalCredit)
}

// BuildTrialBalance computes the trial balance of one company's chart.
// Header accounts are skipped, zero balances are kept so the listing is complete.
func BuildTrialBalance(companyID uuid.UUID, accounts []Account) *TrialBalance {
	tb := &TrialBalance{
		CompanyID:   companyID,
		Lines:       make([]TrialBalanceLine, 0, len(accounts)),
		TotalDebit:  decimal.Zero,
		TotalCredit: decimal.Zero,
	}

	for _, a := range accounts {
		if a.IsHeader {
			continue
		}
		line := TrialBalanceLine{
			AccountID: a.ID,
			Code:      a.Code,
			Name:      a.Name,
			Type:      a.Type,
			Debit:     decimal.Zero,
			Credit:    decimal.Zero,
		}
		debitSide := a.Type.NormalBalance() == NormalBalanceDebit
		if a.Balance.IsNegative() {
			debitSide = !debitSide
		}
		if debitSide {
			line.Debit = a.Balance.Abs()
		} else {
			line.Credit = a.Balance.Abs()
		}
		tb.TotalDebit = tb.TotalDebit.Add(line.Debit)
		tb.TotalCredit = tb.TotalCredit.Add(line.Credit)
		tb.Lines = append(tb.Lines, line)
	}

	sort.Slice(tb.Lines, func(i, j int) bool { return tb.Lines[i].Code < tb.Lines[j].Code })
	return tb
}
