package report

import (
	"time"

	"github.com/erp/accounting/internal/domain/ledger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LineItem is one account row of a financial statement
type LineItem struct {
	AccountID uuid.UUID       `json:"account_id,omitempty"`
	Code      string          `json:"code"`
	Name      string          `json:"name"`
	Depth     int             `json:"depth"`
	IsHeader  bool            `json:"is_header"`
	Amount    decimal.Decimal `json:"amount"` // Rolled up for header rows
}

// Section groups the rows of one account type
type Section struct {
	Type  ledger.AccountType `json:"type"`
	Lines []LineItem         `json:"lines"`
	Total decimal.Decimal    `json:"total"`
}

// BalanceSheet is a read model for a statement of financial position
type BalanceSheet struct {
	TenantID                  uuid.UUID       `json:"tenant_id"`
	CompanyIDs                []uuid.UUID     `json:"company_ids"`
	AsOf                      time.Time       `json:"as_of"`
	Assets                    Section         `json:"assets"`
	Liabilities               Section         `json:"liabilities"`
	Equity                    Section         `json:"equity"`
	CurrentEarnings           decimal.Decimal `json:"current_earnings"` // Revenue - Expense not yet closed to equity
	TotalAssets               decimal.Decimal `json:"total_assets"`
	TotalLiabilities          decimal.Decimal `json:"total_liabilities"`
	TotalEquity               decimal.Decimal `json:"total_equity"` // Includes current earnings
	TotalLiabilitiesAndEquity decimal.Decimal `json:"total_liabilities_and_equity"`
	Balanced                  bool            `json:"balanced"`
	Consolidated              bool            `json:"consolidated"`
	Eliminations              []Elimination   `json:"eliminations,omitempty"`
}

// Difference returns assets minus liabilities and equity
func (bs *BalanceSheet) Difference() decimal.Decimal {
	return bs.TotalAssets.Sub(bs.TotalLiabilitiesAndEquity)
}

// BuildBalanceSheet computes one company's balance sheet from its chart.
// Balances are taken as stored on the accounts.
func BuildBalanceSheet(tenantID, companyID uuid.UUID, asOf time.Time, accounts []ledger.Account) *BalanceSheet {
	bs := newBalanceSheet(tenantID, asOf, accounts)
	bs.CompanyIDs = []uuid.UUID{companyID}
	return bs
}

func newBalanceSheet(tenantID uuid.UUID, asOf time.Time, accounts []ledger.Account) *BalanceSheet {
	roots := ledger.BuildTree(accounts)
	bs := &BalanceSheet{
		TenantID:    tenantID,
		AsOf:        asOf,
		Assets:      buildSection(ledger.AccountTypeAsset, roots),
		Liabilities: buildSection(ledger.AccountTypeLiability, roots),
		Equity:      buildSection(ledger.AccountTypeEquity, roots),
	}

	revenue, expense := decimal.Zero, decimal.Zero
	for _, a := range accounts {
		switch a.Type {
		case ledger.AccountTypeRevenue:
			revenue = revenue.Add(a.Balance)
		case ledger.AccountTypeExpense:
			expense = expense.Add(a.Balance)
		}
	}
	bs.CurrentEarnings = revenue.Sub(expense)
	bs.totalize()
	return bs
}

func (bs *BalanceSheet) totalize() {
	bs.TotalAssets = bs.Assets.Total
	bs.TotalLiabilities = bs.Liabilities.Total
	bs.TotalEquity = bs.Equity.Total.Add(bs.CurrentEarnings)
	bs.TotalLiabilitiesAndEquity = bs.TotalLiabilities.Add(bs.TotalEquity)
	bs.Balanced = bs.TotalAssets.Equal(bs.TotalLiabilitiesAndEquity)
}

// buildSection flattens the subtrees of one type in code order.
// The total sums root nodes only since their balances are already rolled up.
func buildSection(t ledger.AccountType, roots []*ledger.AccountNode) Section {
	s := Section{Type: t, Lines: make([]LineItem, 0), Total: decimal.Zero}
	for _, root := range roots {
		if root.Account.Type != t {
			continue
		}
		s.Total = s.Total.Add(root.RolledBalance)
		appendLines(&s.Lines, root, 0)
	}
	return s
}

func appendLines(lines *[]LineItem, node *ledger.AccountNode, depth int) {
	*lines = append(*lines, LineItem{
		AccountID: node.Account.ID,
		Code:      node.Account.Code,
		Name:      node.Account.Name,
		Depth:     depth,
		IsHeader:  node.Account.IsHeader,
		Amount:    node.RolledBalance,
	})
	for _, child := range node.Children {
		appendLines(lines, child, depth+1)
	}
}
