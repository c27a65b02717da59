//go:build integration

package integration

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/erp/accounting/internal/app"
	"github.com/erp/accounting/internal/application/billing"
	"github.com/erp/accounting/internal/application/catalog"
	"github.com/erp/accounting/internal/application/company"
	"github.com/erp/accounting/internal/application/identity"
	"github.com/erp/accounting/internal/application/intercompany"
	"github.com/erp/accounting/internal/application/trade"
	"github.com/erp/accounting/internal/domain/ledger"
	"github.com/erp/accounting/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func amount(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// group is a tenant with a manufacturer and a plant seeded through the services
type group struct {
	svc      *app.Services
	tenantID uuid.UUID
	mfg      uuid.UUID
	plant    uuid.UUID
	widget   *catalog.ProductResponse
}

func newGroup(t *testing.T, svc *app.Services) *group {
	t.Helper()
	ctx := context.Background()

	tenant, err := svc.Tenants.Create(ctx, identity.CreateTenantRequest{
		Code: "IT" + uuid.NewString()[:8],
		Name: "Integration Group",
	})
	require.NoError(t, err)

	g := &group{svc: svc, tenantID: tenant.ID}
	for code, kind := range map[string]string{"MFG": "manufacturer", "PLANT": "plant"} {
		c, err := svc.Companies.Create(ctx, tenant.ID, company.CreateCompanyRequest{Code: code, Name: code + " Ltd", Type: kind})
		require.NoError(t, err)
		if code == "MFG" {
			g.mfg = c.ID
		} else {
			g.plant = c.ID
		}
	}

	g.widget, err = svc.Products.Create(ctx, tenant.ID, g.mfg, catalog.CreateProductRequest{
		Code: "W-1", Name: "Widget", Unit: "pcs",
		SalesPrice: amount("100"), PurchasePrice: amount("60"),
	})
	require.NoError(t, err)
	return g
}

func (g *group) trade(t *testing.T, qty int64, key string) *intercompany.TransactionResponse {
	t.Helper()
	txn, err := g.svc.Intercompany.Create(context.Background(), g.tenantID, intercompany.CreateTransactionRequest{
		SourceCompanyID: g.mfg,
		TargetCompanyID: g.plant,
		Items:           []trade.OrderItemInput{{ProductID: g.widget.ID, Quantity: decimal.NewFromInt(qty)}},
		IdempotencyKey:  key,
	})
	require.NoError(t, err)
	return txn
}

func (g *group) balance(t *testing.T, companyID uuid.UUID, code string) decimal.Decimal {
	t.Helper()
	accounts, err := g.svc.Repos.Accounts().FindByCodesForUpdate(context.Background(), g.tenantID, companyID, []string{code})
	require.NoError(t, err)
	require.Len(t, accounts, 1)
	return accounts[0].Balance
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal, msgAndArgs ...interface{}) {
	t.Helper()
	assert.True(t, amount(want).Equal(got), append([]interface{}{"want %s, got %s", want, got}, msgAndArgs...)...)
}

func TestIntercompany_PostgresCycle(t *testing.T) {
	tdb := NewSharedTestDB(t)
	g := newGroup(t, tdb.Services(nil))
	ctx := context.Background()

	txn := g.trade(t, 6, "")
	assertDecimal(t, "600", txn.Amount)

	txn, err := g.svc.Intercompany.Invoice(ctx, g.tenantID, txn.ID, intercompany.InvoiceTransactionRequest{})
	require.NoError(t, err)
	require.NotNil(t, txn.InvoiceID)
	require.NotNil(t, txn.BillID)

	assertDecimal(t, "600", g.balance(t, g.mfg, ledger.CodeIntercompanyReceivable))
	assertDecimal(t, "600", g.balance(t, g.mfg, ledger.CodeIntercompanyRevenue))
	assertDecimal(t, "600", g.balance(t, g.plant, ledger.CodeIntercompanyPayable))
	assertDecimal(t, "600", g.balance(t, g.plant, ledger.CodeIntercompanyPurchases))

	rec, err := g.svc.Intercompany.Reconcile(ctx, g.tenantID, intercompany.ReconcileRequest{CompanyA: g.mfg, CompanyB: g.plant})
	require.NoError(t, err)
	assert.True(t, rec.Reconciled)

	txn, err = g.svc.Intercompany.Settle(ctx, g.tenantID, txn.ID, intercompany.SettleTransactionRequest{Amount: amount("250.50")})
	require.NoError(t, err)
	assert.Equal(t, "partially_settled", string(txn.Status))
	assertDecimal(t, "349.50", txn.Outstanding)

	txn, err = g.svc.Intercompany.Settle(ctx, g.tenantID, txn.ID, intercompany.SettleTransactionRequest{Amount: txn.Outstanding})
	require.NoError(t, err)
	assert.Equal(t, "settled", string(txn.Status))
	assert.Len(t, txn.Settlements, 2)

	assertDecimal(t, "0", g.balance(t, g.mfg, ledger.CodeIntercompanyReceivable))
	assertDecimal(t, "600", g.balance(t, g.mfg, ledger.CodeCash))
	assertDecimal(t, "0", g.balance(t, g.plant, ledger.CodeIntercompanyPayable))
	assertDecimal(t, "-600", g.balance(t, g.plant, ledger.CodeCash))

	invoice, err := g.svc.Invoices.GetByID(ctx, g.tenantID, g.mfg, *txn.InvoiceID)
	require.NoError(t, err)
	assert.Equal(t, "paid", string(invoice.Status))
	bill, err := g.svc.Bills.GetByID(ctx, g.tenantID, g.plant, *txn.BillID)
	require.NoError(t, err)
	assert.Equal(t, "paid", string(bill.Status))

	consolidated, err := g.svc.Reports.ConsolidatedBalanceSheet(ctx, g.tenantID, nil, txn.TransactionDate)
	require.NoError(t, err)
	assert.True(t, consolidated.Balanced)

	snap, err := g.svc.Snapshots.Run(ctx, g.tenantID)
	require.NoError(t, err)
	assert.True(t, snap.Healthy())
	assert.Len(t, snap.Companies, 2)
}

func TestIntercompany_ConcurrentSettlesWithRedisLocks(t *testing.T) {
	tdb := NewSharedTestDB(t)
	backends := NewRedis(t)
	// Two instances sharing the database and Redis
	first := tdb.Services(backends)
	second := tdb.Services(backends)
	g := newGroup(t, first)
	ctx := context.Background()

	txn := g.trade(t, 6, "create-1")
	replay, err := second.Intercompany.Create(ctx, g.tenantID, intercompany.CreateTransactionRequest{
		SourceCompanyID: g.mfg,
		TargetCompanyID: g.plant,
		Items:           []trade.OrderItemInput{{ProductID: g.widget.ID, Quantity: decimal.NewFromInt(6)}},
		IdempotencyKey:  "create-1",
	})
	require.NoError(t, err)
	assert.Equal(t, txn.ID, replay.ID, "the key replays on the other instance")

	_, err = first.Intercompany.Invoice(ctx, g.tenantID, txn.ID, intercompany.InvoiceTransactionRequest{})
	require.NoError(t, err)

	const attempts = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		rejected  int
		unexpect  []error
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			svc := first
			if i%2 == 1 {
				svc = second
			}
			_, err := svc.Intercompany.Settle(ctx, g.tenantID, txn.ID, intercompany.SettleTransactionRequest{
				Amount:         amount("100"),
				IdempotencyKey: fmt.Sprintf("settle-%d", i),
			})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, shared.ErrExceedsOutstanding):
				rejected++
			default:
				unexpect = append(unexpect, err)
			}
		}(i)
	}
	wg.Wait()

	require.Empty(t, unexpect)
	assert.Equal(t, 6, succeeded)
	assert.Equal(t, 2, rejected)

	final, err := first.Intercompany.GetByID(ctx, g.tenantID, txn.ID)
	require.NoError(t, err)
	assert.Equal(t, "settled", string(final.Status))
	assert.Len(t, final.Settlements, 6)
	assertDecimal(t, "600", final.SettledAmount)
	assertDecimal(t, "600", g.balance(t, g.mfg, ledger.CodeCash))
	assertDecimal(t, "0", g.balance(t, g.plant, ledger.CodeIntercompanyPayable))

	receipts, err := first.Invoices.ListReceipts(ctx, g.tenantID, g.mfg, *final.InvoiceID)
	require.NoError(t, err)
	assert.Len(t, receipts, 6)
}

func TestSalesCycle_Postgres(t *testing.T) {
	tdb := NewSharedTestDB(t)
	g := newGroup(t, tdb.Services(nil))
	ctx := context.Background()

	order, err := g.svc.SalesOrders.Create(ctx, g.tenantID, g.mfg, trade.CreateOrderRequest{
		Items: []trade.OrderItemInput{{ProductID: g.widget.ID, Quantity: decimal.NewFromInt(3)}},
	})
	require.NoError(t, err)
	_, err = g.svc.SalesOrders.Confirm(ctx, g.tenantID, g.mfg, order.ID)
	require.NoError(t, err)

	invoice, err := g.svc.Invoices.CreateFromOrder(ctx, g.tenantID, g.mfg, billing.CreateFromOrderRequest{OrderID: order.ID})
	require.NoError(t, err)
	_, err = g.svc.Invoices.CreateFromOrder(ctx, g.tenantID, g.mfg, billing.CreateFromOrderRequest{OrderID: order.ID})
	assert.Error(t, err, "an order is invoiced once")

	_, err = g.svc.Invoices.Issue(ctx, g.tenantID, g.mfg, invoice.ID)
	require.NoError(t, err)

	_, err = g.svc.Invoices.RecordReceipt(ctx, g.tenantID, g.mfg, invoice.ID, billing.RecordPaymentRequest{Amount: amount("300.01")})
	assert.ErrorIs(t, err, shared.ErrExceedsOutstanding)

	result, err := g.svc.Invoices.RecordReceipt(ctx, g.tenantID, g.mfg, invoice.ID, billing.RecordPaymentRequest{Amount: amount("300")})
	require.NoError(t, err)
	assert.Equal(t, "paid", string(result.Document.Status))

	tb, err := g.svc.Accounts.TrialBalance(ctx, g.tenantID, g.mfg, invoice.IssueDate)
	require.NoError(t, err)
	assert.True(t, tb.Balanced)
	assertDecimal(t, "300", g.balance(t, g.mfg, ledger.CodeCash))
	assertDecimal(t, "0", g.balance(t, g.mfg, ledger.CodeAccountsReceivable))
	assertDecimal(t, "300", g.balance(t, g.mfg, ledger.CodeSalesRevenue))
}

func TestTenantIsolation_Postgres(t *testing.T) {
	tdb := NewSharedTestDB(t)
	svc := tdb.Services(nil)
	a := newGroup(t, svc)
	b := newGroup(t, svc)
	ctx := context.Background()
	txn := a.trade(t, 1, "")

	_, err := svc.Companies.GetByID(ctx, b.tenantID, a.mfg)
	assert.ErrorIs(t, err, shared.ErrNotFound)

	_, err = svc.Products.GetByID(ctx, b.tenantID, a.mfg, a.widget.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)

	_, err = svc.Intercompany.GetByID(ctx, b.tenantID, txn.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)

	_, err = svc.Intercompany.Create(ctx, b.tenantID, intercompany.CreateTransactionRequest{
		SourceCompanyID: a.mfg,
		TargetCompanyID: b.plant,
		Items:           []trade.OrderItemInput{{ProductID: a.widget.ID, Quantity: decimal.NewFromInt(1)}},
	})
	assert.Error(t, err, "companies of another tenant cannot trade")

	list, total, err := svc.Intercompany.List(ctx, b.tenantID, intercompany.TransactionListFilter{})
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.Zero(t, total)

	companies, total, err := svc.Companies.List(ctx, b.tenantID, company.CompanyListFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	for _, c := range companies {
		assert.Equal(t, b.tenantID, c.TenantID)
	}

	_, err = svc.Companies.Create(ctx, a.tenantID, company.CreateCompanyRequest{Code: "MFG", Name: "Again", Type: "manufacturer"})
	assert.ErrorIs(t, err, shared.ErrAlreadyExists, "company codes are unique within a tenant")
}

func TestOptimisticLocking_Postgres(t *testing.T) {
	tdb := NewSharedTestDB(t)
	g := newGroup(t, tdb.Services(nil))
	ctx := context.Background()
	products := g.svc.Repos.Products()

	first, err := products.FindByIDForTenant(ctx, g.tenantID, g.widget.ID)
	require.NoError(t, err)
	stale, err := products.FindByIDForTenant(ctx, g.tenantID, g.widget.ID)
	require.NoError(t, err)

	require.NoError(t, first.Update("Widget Mk II", "", "pcs"))
	require.NoError(t, products.SaveWithLock(ctx, first))

	require.NoError(t, stale.UpdatePrices(amount("120"), amount("70")))
	err = products.SaveWithLock(ctx, stale)
	assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)

	stored, err := g.svc.Products.GetByID(ctx, g.tenantID, g.mfg, g.widget.ID)
	require.NoError(t, err)
	assert.Equal(t, "Widget Mk II", stored.Name)
	assertDecimal(t, "100", stored.SalesPrice)

	_, err = g.svc.Products.Update(ctx, g.tenantID, g.mfg, g.widget.ID, catalog.UpdateProductRequest{SalesPrice: decPtr("130")})
	require.NoError(t, err, "a fresh read writes cleanly")
}

func decPtr(s string) *decimal.Decimal {
	d := amount(s)
	return &d
}
