package report

import (
	"time"

	"github.com/erp/accounting/internal/domain/ledger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Elimination removes a balance that only exists between group companies
type Elimination struct {
	Description string          `json:"description"`
	DebitCode   string          `json:"debit_code"`
	CreditCode  string          `json:"credit_code"`
	Amount      decimal.Decimal `json:"amount"`
	// Residual is what is left on either side when the two balances disagree
	Residual decimal.Decimal `json:"residual"`
}

// eliminationPairs lists the mirrored account pairs netted out on consolidation.
// The first code is debited by the elimination entry.
var eliminationPairs = []struct {
	debit, credit, description string
	debitType, creditType      ledger.AccountType
}{
	{ledger.CodeIntercompanyPayable, ledger.CodeIntercompanyReceivable, "Intercompany receivables and payables",
		ledger.AccountTypeLiability, ledger.AccountTypeAsset},
	{ledger.CodeIntercompanyRevenue, ledger.CodeIntercompanyPurchases, "Intercompany revenue and purchases",
		ledger.AccountTypeRevenue, ledger.AccountTypeExpense},
}

// BuildConsolidatedBalanceSheet sums the charts of several companies by account code
// and eliminates intercompany balances. Accounts sharing a code and a type are merged
// into one row; a code used with different types keeps one row per type.
func BuildConsolidatedBalanceSheet(tenantID uuid.UUID, asOf time.Time, charts map[uuid.UUID][]ledger.Account) *BalanceSheet {
	merged := mergeCharts(charts)
	eliminations := eliminate(merged)

	bs := newBalanceSheet(tenantID, asOf, merged)
	bs.Consolidated = true
	bs.Eliminations = eliminations
	bs.CompanyIDs = make([]uuid.UUID, 0, len(charts))
	for id := range charts {
		bs.CompanyIDs = append(bs.CompanyIDs, id)
	}
	sortIDs(bs.CompanyIDs)
	return bs
}

// mergeKey identifies one consolidated row
type mergeKey struct {
	code string
	typ  ledger.AccountType
}

func (k mergeKey) id() uuid.UUID {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte("consolidated:"+k.code+":"+string(k.typ)))
}

// mergeCharts collapses accounts with the same code and type into one synthetic account.
// The first occurrence fixes its name and parent.
func mergeCharts(charts map[uuid.UUID][]ledger.Account) []ledger.Account {
	ids := make([]uuid.UUID, 0, len(charts))
	for id := range charts {
		ids = append(ids, id)
	}
	sortIDs(ids)

	byKey := make(map[mergeKey]*ledger.Account)
	parentKey := make(map[mergeKey]mergeKey)
	order := make([]mergeKey, 0)

	for _, companyID := range ids {
		chart := charts[companyID]
		keyByID := make(map[uuid.UUID]mergeKey, len(chart))
		for _, a := range chart {
			keyByID[a.ID] = mergeKey{code: a.Code, typ: a.Type}
		}
		for _, a := range chart {
			key := mergeKey{code: a.Code, typ: a.Type}
			if existing, ok := byKey[key]; ok {
				existing.Balance = existing.Balance.Add(a.Balance)
				continue
			}
			acc := ledger.Account{
				Code:     a.Code,
				Name:     a.Name,
				Type:     a.Type,
				Balance:  a.Balance,
				IsHeader: a.IsHeader,
				IsSystem: a.IsSystem,
				IsActive: a.IsActive,
			}
			acc.ID = key.id()
			byKey[key] = &acc
			order = append(order, key)
			if a.ParentID != nil {
				if pk, ok := keyByID[*a.ParentID]; ok {
					parentKey[key] = pk
				}
			}
		}
	}

	out := make([]ledger.Account, 0, len(order))
	for _, key := range order {
		acc := *byKey[key]
		if pk, ok := parentKey[key]; ok {
			if parent, ok := byKey[pk]; ok {
				pid := parent.ID
				acc.ParentID = &pid
			}
		}
		out = append(out, acc)
	}
	return out
}

// eliminate nets each mirrored pair down to its residual in place
func eliminate(accounts []ledger.Account) []Elimination {
	index := make(map[mergeKey]int, len(accounts))
	for i, a := range accounts {
		index[mergeKey{code: a.Code, typ: a.Type}] = i
	}

	result := make([]Elimination, 0, len(eliminationPairs))
	for _, pair := range eliminationPairs {
		di, dok := index[mergeKey{code: pair.debit, typ: pair.debitType}]
		ci, cok := index[mergeKey{code: pair.credit, typ: pair.creditType}]
		if !dok || !cok {
			continue
		}
		d, c := &accounts[di], &accounts[ci]
		amount := decimal.Min(d.Balance, c.Balance)
		if !amount.IsPositive() {
			continue
		}
		residual := d.Balance.Sub(c.Balance).Abs()
		d.Balance = d.Balance.Sub(amount)
		c.Balance = c.Balance.Sub(amount)
		result = append(result, Elimination{
			Description: pair.description,
			DebitCode:   pair.debit,
			CreditCode:  pair.credit,
			Amount:      amount,
			Residual:    residual,
		})
	}
	return result
}
