package report

import (
	"time"

	"github.com/erp/accounting/internal/domain/ledger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// IncomeStatement is a read model for profit and loss over a period
type IncomeStatement struct {
	TenantID     uuid.UUID       `json:"tenant_id"`
	CompanyID    uuid.UUID       `json:"company_id"`
	PeriodStart  *time.Time      `json:"period_start,omitempty"`
	PeriodEnd    *time.Time      `json:"period_end,omitempty"`
	Revenue      Section         `json:"revenue"`
	Expenses     Section         `json:"expenses"`
	TotalRevenue decimal.Decimal `json:"total_revenue"`
	TotalExpense decimal.Decimal `json:"total_expense"`
	NetIncome    decimal.Decimal `json:"net_income"`
	NetMargin    decimal.Decimal `json:"net_margin"` // NetIncome / TotalRevenue * 100, zero without revenue
}

// BuildIncomeStatement computes revenue, expense and net income from the chart.
// Pass a chart rebuilt with ledger.WithMovements to restrict it to a period.
func BuildIncomeStatement(tenantID, companyID uuid.UUID, from, to time.Time, accounts []ledger.Account) *IncomeStatement {
	roots := ledger.BuildTree(accounts)
	is := &IncomeStatement{
		TenantID:  tenantID,
		CompanyID: companyID,
		Revenue:   buildSection(ledger.AccountTypeRevenue, roots),
		Expenses:  buildSection(ledger.AccountTypeExpense, roots),
		NetMargin: decimal.Zero,
	}
	if !from.IsZero() {
		is.PeriodStart = &from
	}
	if !to.IsZero() {
		is.PeriodEnd = &to
	}
	is.TotalRevenue = is.Revenue.Total
	is.TotalExpense = is.Expenses.Total
	is.NetIncome = is.TotalRevenue.Sub(is.TotalExpense)
	if !is.TotalRevenue.IsZero() {
		is.NetMargin = is.NetIncome.Div(is.TotalRevenue).Mul(decimal.NewFromInt(100)).Round(2)
	}
	return is
}
