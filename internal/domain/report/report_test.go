package report

import (
	"fmt"
	"testing"
	"time"

	"github.com/erp/accounting/internal/domain/ledger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type book struct {
	tenantID  uuid.UUID
	companyID uuid.UUID
	byCode    map[string]*ledger.Account
	seq       int
}

func newBook(t *testing.T, tenantID uuid.UUID) *book {
	t.Helper()
	companyID := uuid.New()
	accounts, err := ledger.DefaultChartTemplate().Instantiate(tenantID, companyID)
	require.NoError(t, err)
	b := &book{tenantID: tenantID, companyID: companyID, byCode: make(map[string]*ledger.Account)}
	for _, a := range accounts {
		b.byCode[a.Code] = a
	}
	return b
}

func (b *book) post(t *testing.T, debit, credit string, amount int64) {
	t.Helper()
	entry, err := ledger.NewJournalEntry(b.tenantID, b.companyID, time.Now(), "test", ledger.SourceManual, nil)
	require.NoError(t, err)
	b.seq++
	entry.EntryNumber = fmt.Sprintf("JE-TEST-%03d", b.seq)
	require.NoError(t, entry.Debit(debit, decimal.NewFromInt(amount), ""))
	require.NoError(t, entry.Credit(credit, decimal.NewFromInt(amount), ""))
	_, err = ledger.Post(entry, b.byCode, time.Now())
	require.NoError(t, err)
}

func (b *book) chart() []ledger.Account {
	out := make([]ledger.Account, 0, len(b.byCode))
	for _, a := range b.byCode {
		out = append(out, *a)
	}
	return out
}

func amount(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func TestBuildBalanceSheet(t *testing.T) {
	b := newBook(t, uuid.New())
	b.post(t, ledger.CodeCash, ledger.CodeOwnersEquity, 10000)
	b.post(t, ledger.CodeAccountsReceivable, ledger.CodeSalesRevenue, 1500)
	b.post(t, ledger.CodeInventory, ledger.CodeAccountsPayable, 700)
	b.post(t, ledger.CodeCostOfGoodsSold, ledger.CodeInventory, 400)
	b.post(t, ledger.CodeCash, ledger.CodeAccountsReceivable, 500)

	bs := BuildBalanceSheet(b.tenantID, b.companyID, time.Now(), b.chart())

	assert.True(t, bs.TotalAssets.Equal(amount(10000+1500+700-400)))
	assert.True(t, bs.TotalLiabilities.Equal(amount(700)))
	assert.True(t, bs.CurrentEarnings.Equal(amount(1100)))
	assert.True(t, bs.TotalEquity.Equal(amount(11100)))
	assert.True(t, bs.Balanced)
	assert.True(t, bs.Difference().IsZero())

	require.NotEmpty(t, bs.Assets.Lines)
	assert.Equal(t, ledger.CodeAssets, bs.Assets.Lines[0].Code)
	assert.True(t, bs.Assets.Lines[0].IsHeader)
	assert.Equal(t, 0, bs.Assets.Lines[0].Depth)
	assert.True(t, bs.Assets.Lines[0].Amount.Equal(bs.TotalAssets))
	assert.Equal(t, 1, bs.Assets.Lines[1].Depth)
}

func TestBuildBalanceSheet_DetectsOneSidedBalance(t *testing.T) {
	b := newBook(t, uuid.New())
	b.byCode[ledger.CodeCash].Balance = amount(50)

	bs := BuildBalanceSheet(b.tenantID, b.companyID, time.Now(), b.chart())

	assert.False(t, bs.Balanced)
	assert.True(t, bs.Difference().Equal(amount(50)))
}

func TestBuildConsolidatedBalanceSheet(t *testing.T) {
	tenantID := uuid.New()
	plant := newBook(t, tenantID)
	distributor := newBook(t, tenantID)

	plant.post(t, ledger.CodeCash, ledger.CodeOwnersEquity, 5000)
	distributor.post(t, ledger.CodeCash, ledger.CodeOwnersEquity, 3000)

	// plant sells 800 to distributor, distributor pays 300
	plant.post(t, ledger.CodeIntercompanyReceivable, ledger.CodeIntercompanyRevenue, 800)
	distributor.post(t, ledger.CodeIntercompanyPurchases, ledger.CodeIntercompanyPayable, 800)
	distributor.post(t, ledger.CodeIntercompanyPayable, ledger.CodeCash, 300)
	plant.post(t, ledger.CodeCash, ledger.CodeIntercompanyReceivable, 300)

	charts := map[uuid.UUID][]ledger.Account{
		plant.companyID:       plant.chart(),
		distributor.companyID: distributor.chart(),
	}
	bs := BuildConsolidatedBalanceSheet(tenantID, time.Now(), charts)

	assert.True(t, bs.Consolidated)
	assert.Len(t, bs.CompanyIDs, 2)
	assert.True(t, bs.Balanced)
	assert.True(t, bs.TotalAssets.Equal(amount(8000)), bs.TotalAssets.String())
	assert.True(t, bs.TotalLiabilities.IsZero())
	assert.True(t, bs.CurrentEarnings.IsZero())

	require.Len(t, bs.Eliminations, 2)
	assert.True(t, bs.Eliminations[0].Amount.Equal(amount(500)))
	assert.True(t, bs.Eliminations[0].Residual.IsZero())
	assert.True(t, bs.Eliminations[1].Amount.Equal(amount(800)))

	for _, line := range bs.Assets.Lines {
		if line.Code == ledger.CodeIntercompanyReceivable {
			assert.True(t, line.Amount.IsZero())
		}
	}
}

func TestBuildConsolidatedBalanceSheet_SameCodeDifferentType(t *testing.T) {
	tenantID := uuid.New()
	a := newBook(t, tenantID)
	b := newBook(t, tenantID)

	deposit, err := ledger.NewAccount(tenantID, a.companyID, "6000", "Deposits", ledger.AccountTypeAsset, nil)
	require.NoError(t, err)
	a.byCode[deposit.Code] = deposit
	loan, err := ledger.NewAccount(tenantID, b.companyID, "6000", "Shareholder loan", ledger.AccountTypeLiability, nil)
	require.NoError(t, err)
	b.byCode[loan.Code] = loan

	a.post(t, "6000", ledger.CodeOwnersEquity, 100)
	b.post(t, ledger.CodeCash, "6000", 50)
	require.True(t, BuildBalanceSheet(tenantID, a.companyID, time.Now(), a.chart()).Balanced)
	require.True(t, BuildBalanceSheet(tenantID, b.companyID, time.Now(), b.chart()).Balanced)

	bs := BuildConsolidatedBalanceSheet(tenantID, time.Now(), map[uuid.UUID][]ledger.Account{
		a.companyID: a.chart(),
		b.companyID: b.chart(),
	})

	assert.True(t, bs.Balanced, "assets=%s L+E=%s", bs.TotalAssets, bs.TotalLiabilitiesAndEquity)
	assert.True(t, bs.TotalAssets.Equal(amount(150)), bs.TotalAssets.String())
	assert.True(t, bs.TotalLiabilities.Equal(amount(50)), bs.TotalLiabilities.String())

	var assetRows, liabilityRows int
	for _, line := range bs.Assets.Lines {
		if line.Code == "6000" {
			assetRows++
			assert.True(t, line.Amount.Equal(amount(100)))
		}
	}
	for _, line := range bs.Liabilities.Lines {
		if line.Code == "6000" {
			liabilityRows++
			assert.True(t, line.Amount.Equal(amount(50)))
		}
	}
	assert.Equal(t, 1, assetRows)
	assert.Equal(t, 1, liabilityRows)
}

func TestBuildIncomeStatement(t *testing.T) {
	b := newBook(t, uuid.New())
	b.post(t, ledger.CodeAccountsReceivable, ledger.CodeSalesRevenue, 2000)
	b.post(t, ledger.CodeCostOfGoodsSold, ledger.CodeInventory, 1500)

	is := BuildIncomeStatement(b.tenantID, b.companyID, time.Time{}, time.Time{}, b.chart())

	assert.True(t, is.TotalRevenue.Equal(amount(2000)))
	assert.True(t, is.TotalExpense.Equal(amount(1500)))
	assert.True(t, is.NetIncome.Equal(amount(500)))
	assert.True(t, is.NetMargin.Equal(amount(25)))
	assert.Nil(t, is.PeriodStart)
}

func TestBuildIncomeStatement_FromMovements(t *testing.T) {
	b := newBook(t, uuid.New())
	b.post(t, ledger.CodeAccountsReceivable, ledger.CodeSalesRevenue, 2000)
	sales := b.byCode[ledger.CodeSalesRevenue]

	chart := ledger.WithMovements(b.chart(), []ledger.AccountMovement{
		{AccountID: sales.ID, Debit: decimal.Zero, Credit: amount(600)},
	})
	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	is := BuildIncomeStatement(b.tenantID, b.companyID, from, time.Time{}, chart)

	assert.True(t, is.TotalRevenue.Equal(amount(600)))
	require.NotNil(t, is.PeriodStart)
	assert.Nil(t, is.PeriodEnd)
}
