package report

import (
	"bytes"
	"context"
	"testing"
	"time"

	appcompany "github.com/erp/accounting/internal/application/company"
	appic "github.com/erp/accounting/internal/application/intercompany"
	appledger "github.com/erp/accounting/internal/application/ledger"
	"github.com/erp/accounting/internal/application/txscope"
	"github.com/erp/accounting/internal/domain/ledger"
	domainreport "github.com/erp/accounting/internal/domain/report"
	"github.com/erp/accounting/internal/domain/shared"
	"github.com/erp/accounting/internal/infrastructure/cache"
	"github.com/erp/accounting/tests/testutil"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func amt(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func post(t *testing.T, books *testutil.Books, companyCode string, date time.Time, debit, credit string, amount int64) *ledger.JournalEntry {
	t.Helper()
	ctx := context.Background()
	entry, err := appledger.Transfer(books.TenantID, books.CompanyID(t, companyCode), date, "test posting",
		ledger.SourceManual, uuid.New(), debit, credit, amt(amount))
	require.NoError(t, err)
	require.NoError(t, books.Scope.Execute(ctx, func(repos txscope.Repositories) error {
		return appledger.NewPoster().Post(ctx, repos, entry)
	}))
	return entry
}

func TestReportService_BalanceSheet(t *testing.T) {
	ctx := context.Background()
	books := testutil.NewBooks(t, "MFG")
	mfg := books.CompanyID(t, "MFG")
	svc := NewReportService(books.Repos, nil, 0, nil)

	old := time.Now().AddDate(0, 0, -10)
	post(t, books, "MFG", old, ledger.CodeCash, ledger.CodeOwnersEquity, 1000)
	post(t, books, "MFG", time.Now(), ledger.CodeAccountsReceivable, ledger.CodeSalesRevenue, 500)

	t.Run("current balances", func(t *testing.T) {
		bs, err := svc.BalanceSheet(ctx, books.TenantID, mfg, time.Time{})
		require.NoError(t, err)
		assert.True(t, bs.Balanced)
		assert.True(t, amt(1500).Equal(bs.TotalAssets))
		assert.True(t, amt(500).Equal(bs.CurrentEarnings))
		assert.True(t, amt(1500).Equal(bs.TotalLiabilitiesAndEquity))
		assert.Equal(t, []uuid.UUID{mfg}, bs.CompanyIDs)
	})

	t.Run("as of a past date", func(t *testing.T) {
		asOf := time.Date(old.Year(), old.Month(), old.Day(), 0, 0, 0, 0, old.Location())
		bs, err := svc.BalanceSheet(ctx, books.TenantID, mfg, asOf)
		require.NoError(t, err)
		assert.True(t, bs.Balanced)
		assert.True(t, amt(1000).Equal(bs.TotalAssets), "postings later that day are included, later days are not")
		assert.True(t, bs.CurrentEarnings.IsZero())
	})

	t.Run("unknown company", func(t *testing.T) {
		_, err := svc.BalanceSheet(ctx, books.TenantID, uuid.New(), time.Time{})
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("another tenant's company", func(t *testing.T) {
		_, err := svc.BalanceSheet(ctx, uuid.New(), mfg, time.Time{})
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestReportService_IncomeStatement(t *testing.T) {
	ctx := context.Background()
	books := testutil.NewBooks(t, "MFG")
	mfg := books.CompanyID(t, "MFG")
	svc := NewReportService(books.Repos, nil, 0, nil)

	lastMonth := time.Now().AddDate(0, -1, 0)
	post(t, books, "MFG", lastMonth, ledger.CodeCash, ledger.CodeSalesRevenue, 400)
	post(t, books, "MFG", time.Now(), ledger.CodeCash, ledger.CodeSalesRevenue, 1000)
	post(t, books, "MFG", time.Now(), ledger.CodeCostOfGoodsSold, ledger.CodeCash, 600)

	all, err := svc.IncomeStatement(ctx, books.TenantID, mfg, time.Time{}, time.Time{})
	require.NoError(t, err)
	assert.True(t, amt(1400).Equal(all.TotalRevenue))
	assert.True(t, amt(800).Equal(all.NetIncome))
	assert.Nil(t, all.PeriodStart)

	from := time.Now().AddDate(0, 0, -7)
	recent, err := svc.IncomeStatement(ctx, books.TenantID, mfg, from, time.Now())
	require.NoError(t, err)
	assert.True(t, amt(1000).Equal(recent.TotalRevenue))
	assert.True(t, amt(600).Equal(recent.TotalExpense))
	assert.True(t, amt(400).Equal(recent.NetIncome))
	assert.True(t, amt(40).Equal(recent.NetMargin))
	require.NotNil(t, recent.PeriodStart)

	_, err = svc.IncomeStatement(ctx, books.TenantID, mfg, time.Now(), from)
	var de *shared.DomainError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "INVALID_PERIOD", de.Code)
}

func TestReportService_ConsolidatedBalanceSheet(t *testing.T) {
	ctx := context.Background()
	books := testutil.NewBooks(t, "MFG", "PLANT", "DIST")
	mfg, plant := books.CompanyID(t, "MFG"), books.CompanyID(t, "PLANT")
	svc := NewReportService(books.Repos, nil, 0, nil)

	post(t, books, "MFG", time.Now(), ledger.CodeCash, ledger.CodeOwnersEquity, 1000)
	post(t, books, "MFG", time.Now(), ledger.CodeIntercompanyReceivable, ledger.CodeIntercompanyRevenue, 300)
	post(t, books, "PLANT", time.Now(), ledger.CodeIntercompanyPurchases, ledger.CodeIntercompanyPayable, 300)

	t.Run("eliminates the intercompany pair", func(t *testing.T) {
		bs, err := svc.ConsolidatedBalanceSheet(ctx, books.TenantID, []uuid.UUID{plant, mfg, plant}, time.Time{})
		require.NoError(t, err)
		assert.True(t, bs.Consolidated)
		assert.Len(t, bs.CompanyIDs, 2)
		assert.True(t, bs.Balanced)
		assert.True(t, amt(1000).Equal(bs.TotalAssets))
		assert.True(t, bs.TotalLiabilities.IsZero())
		assert.True(t, bs.CurrentEarnings.IsZero())
		require.Len(t, bs.Eliminations, 2)
		for _, e := range bs.Eliminations {
			assert.True(t, amt(300).Equal(e.Amount))
			assert.True(t, e.Residual.IsZero())
		}
	})

	t.Run("whole tenant by default", func(t *testing.T) {
		bs, err := svc.ConsolidatedBalanceSheet(ctx, books.TenantID, nil, time.Time{})
		require.NoError(t, err)
		assert.Len(t, bs.CompanyIDs, 3)
		assert.True(t, bs.Balanced)
	})

	t.Run("unknown company in scope", func(t *testing.T) {
		_, err := svc.ConsolidatedBalanceSheet(ctx, books.TenantID, []uuid.UUID{mfg, uuid.New()}, time.Time{})
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestReportService_CacheAndInvalidation(t *testing.T) {
	ctx := context.Background()
	books := testutil.NewBooks(t, "MFG", "PLANT")
	mfg := books.CompanyID(t, "MFG")
	store := cache.NewMemoryReportCache()
	svc := NewReportService(books.Repos, store, time.Minute, nil)
	invalidator := NewCacheInvalidator(store, nil)

	post(t, books, "MFG", time.Now(), ledger.CodeCash, ledger.CodeOwnersEquity, 100)
	first, err := svc.BalanceSheet(ctx, books.TenantID, mfg, time.Time{})
	require.NoError(t, err)
	_, err = svc.ConsolidatedBalanceSheet(ctx, books.TenantID, nil, time.Time{})
	require.NoError(t, err)

	entry := post(t, books, "MFG", time.Now(), ledger.CodeCash, ledger.CodeOwnersEquity, 50)

	stale, err := svc.BalanceSheet(ctx, books.TenantID, mfg, time.Time{})
	require.NoError(t, err)
	assert.True(t, first.TotalAssets.Equal(stale.TotalAssets), "served from cache until invalidated")

	assert.Contains(t, invalidator.EventTypes(), ledger.EventTypeJournalEntryPosted)
	require.NoError(t, invalidator.Handle(ctx, ledger.NewJournalEntryPostedEvent(entry)))

	fresh, err := svc.BalanceSheet(ctx, books.TenantID, mfg, time.Time{})
	require.NoError(t, err)
	assert.True(t, amt(150).Equal(fresh.TotalAssets))

	consolidated, err := svc.ConsolidatedBalanceSheet(ctx, books.TenantID, nil, time.Time{})
	require.NoError(t, err)
	assert.True(t, amt(150).Equal(consolidated.TotalAssets))
}

// dispatcher hands published events straight to one handler
type dispatcher struct {
	handler shared.EventHandler
}

func (d dispatcher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	for _, e := range events {
		for _, typ := range d.handler.EventTypes() {
			if typ == e.EventType() {
				if err := d.handler.Handle(ctx, e); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func TestCacheInvalidator_ChartAndCompanyChanges(t *testing.T) {
	ctx := context.Background()
	books := testutil.NewBooks(t, "MFG", "PLANT")
	mfg := books.CompanyID(t, "MFG")
	store := cache.NewMemoryReportCache()
	svc := NewReportService(books.Repos, store, time.Minute, nil)
	publisher := dispatcher{handler: NewCacheInvalidator(store, nil)}

	accounts := appledger.NewAccountService(books.Scope, books.Repos, nil)
	accounts.SetEventPublisher(publisher)
	companies := appcompany.NewCompanyService(books.Scope, books.Repos.Companies(), nil, nil)
	companies.SetEventPublisher(publisher)

	post(t, books, "MFG", time.Now(), ledger.CodeCash, ledger.CodeOwnersEquity, 100)

	cashName := func(bs *domainreport.BalanceSheet) string {
		for _, line := range bs.Assets.Lines {
			if line.Code == ledger.CodeCash {
				return line.Name
			}
		}
		return ""
	}

	t.Run("renamed account", func(t *testing.T) {
		first, err := svc.BalanceSheet(ctx, books.TenantID, mfg, time.Time{})
		require.NoError(t, err)
		require.Equal(t, "Cash", cashName(first))

		cash, err := books.Repos.Accounts().FindByCodesForUpdate(ctx, books.TenantID, mfg, []string{ledger.CodeCash})
		require.NoError(t, err)
		require.Len(t, cash, 1)
		name := "Cash at bank"
		_, err = accounts.Update(ctx, books.TenantID, mfg, cash[0].ID, appledger.UpdateAccountRequest{Name: &name})
		require.NoError(t, err)

		fresh, err := svc.BalanceSheet(ctx, books.TenantID, mfg, time.Time{})
		require.NoError(t, err)
		assert.Equal(t, name, cashName(fresh))
	})

	t.Run("company status change", func(t *testing.T) {
		_, err := svc.BalanceSheet(ctx, books.TenantID, mfg, time.Time{})
		require.NoError(t, err)
		post(t, books, "MFG", time.Now(), ledger.CodeCash, ledger.CodeOwnersEquity, 50)

		_, err = companies.Deactivate(ctx, books.TenantID, mfg)
		require.NoError(t, err)

		fresh, err := svc.BalanceSheet(ctx, books.TenantID, mfg, time.Time{})
		require.NoError(t, err)
		assert.True(t, amt(150).Equal(fresh.TotalAssets), fresh.TotalAssets.String())
	})
}

func TestReportService_Exports(t *testing.T) {
	ctx := context.Background()
	books := testutil.NewBooks(t, "MFG")
	mfg := books.CompanyID(t, "MFG")
	svc := NewReportService(books.Repos, nil, 0, nil)
	post(t, books, "MFG", time.Now(), ledger.CodeCash, ledger.CodeOwnersEquity, 1250)

	t.Run("balance sheet", func(t *testing.T) {
		sheet, err := svc.ExportBalanceSheetXLSX(ctx, books.TenantID, mfg, time.Time{})
		require.NoError(t, err)
		assert.Regexp(t, `^balance-sheet-mfg-\d{8}\.xlsx$`, sheet.Filename)

		f, err := excelize.OpenReader(bytes.NewReader(sheet.Data))
		require.NoError(t, err)
		defer func() { _ = f.Close() }()

		title, err := f.GetCellValue("Balance Sheet", "A1")
		require.NoError(t, err)
		assert.Equal(t, "Balance Sheet - Company MFG (MFG)", title)

		rows, err := f.GetRows("Balance Sheet", excelize.Options{RawCellValue: true})
		require.NoError(t, err)
		assert.Contains(t, rows, []string{"", "Total assets", "1250"})
		assert.Contains(t, rows, []string{"Balanced: yes"})
	})

	t.Run("trial balance", func(t *testing.T) {
		sheet, err := svc.ExportTrialBalanceXLSX(ctx, books.TenantID, mfg, time.Time{})
		require.NoError(t, err)

		f, err := excelize.OpenReader(bytes.NewReader(sheet.Data))
		require.NoError(t, err)
		defer func() { _ = f.Close() }()

		rows, err := f.GetRows("Trial Balance", excelize.Options{RawCellValue: true})
		require.NoError(t, err)
		assert.Contains(t, rows, []string{"Code", "Account", "Type", "Debit", "Credit"})
		assert.Contains(t, rows, []string{"", "Total", "", "1250", "1250"})
	})

	t.Run("unknown company", func(t *testing.T) {
		_, err := svc.ExportTrialBalanceXLSX(ctx, books.TenantID, uuid.New(), time.Time{})
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

type countingRecorder struct {
	balanced, unbalanced int
	mismatches           int
}

func (r *countingRecorder) RecordBalanceCheck(_, _ uuid.UUID, balanced bool) {
	if balanced {
		r.balanced++
	} else {
		r.unbalanced++
	}
}

func (r *countingRecorder) RecordReconciliation(_ uuid.UUID, mismatches int) {
	r.mismatches += mismatches
}

func TestSnapshotService(t *testing.T) {
	ctx := context.Background()
	books := testutil.NewBooks(t, "MFG", "PLANT", "DIST")
	post(t, books, "MFG", time.Now(), ledger.CodeCash, ledger.CodeOwnersEquity, 100)

	reconciler := appic.NewIntercompanyService(books.Scope, books.Repos, nil, nil, nil, nil)
	recorder := &countingRecorder{}
	svc := NewSnapshotService(books.Repos, reconciler, recorder, nil)

	snaps, err := svc.RunAll(ctx)
	require.NoError(t, err)
	require.Len(t, snaps, 1)
	assert.True(t, snaps[0].Healthy())
	assert.Len(t, snaps[0].Companies, 3)
	assert.Empty(t, snaps[0].Pairs, "pairs without intercompany trade are skipped")
	assert.Equal(t, 3, recorder.balanced)

	// A balance written outside the poster breaks the books
	require.NoError(t, books.DB.Exec("UPDATE accounts SET balance = ? WHERE company_id = ? AND code = ?",
		"999", books.CompanyID(t, "DIST"), ledger.CodeCash).Error)

	snap, err := svc.Run(ctx, books.TenantID)
	require.NoError(t, err)
	assert.False(t, snap.Healthy())
	assert.Equal(t, 1, recorder.unbalanced)
}
