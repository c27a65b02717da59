package billing

import (
	"context"
	"testing"
	"time"

	"github.com/erp/accounting/internal/domain/billing"
	"github.com/erp/accounting/internal/domain/ledger"
	"github.com/erp/accounting/internal/domain/shared"
	"github.com/erp/accounting/internal/domain/trade"
	"github.com/erp/accounting/tests/testutil"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	types []string
}

func (p *recordingPublisher) Publish(_ context.Context, events ...shared.DomainEvent) error {
	for _, e := range events {
		p.types = append(p.types, e.EventType())
	}
	return nil
}

func amount(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func confirmedSalesOrder(t *testing.T, books *testutil.Books, companyCode string, qty int64) *trade.SalesOrder {
	t.Helper()
	ctx := context.Background()
	product := books.Product(t, companyCode, "SKU-"+uuid.NewString()[:8], 100, 60)
	number, err := books.Repos.SalesOrders().GenerateOrderNumber(ctx, books.TenantID, books.CompanyID(t, companyCode))
	require.NoError(t, err)
	order, err := trade.NewSalesOrder(books.TenantID, books.CompanyID(t, companyCode), number, time.Now())
	require.NoError(t, err)
	_, err = order.AddItem(product.ID, product.Code, product.Name, decimal.NewFromInt(qty), product.SalesPrice)
	require.NoError(t, err)
	require.NoError(t, order.Confirm())
	require.NoError(t, books.Repos.SalesOrders().Save(ctx, order))
	return order
}

func confirmedPurchaseOrder(t *testing.T, books *testutil.Books, companyCode string, qty int64) *trade.PurchaseOrder {
	t.Helper()
	ctx := context.Background()
	product := books.Product(t, companyCode, "PART-"+uuid.NewString()[:8], 100, 60)
	number, err := books.Repos.PurchaseOrders().GenerateOrderNumber(ctx, books.TenantID, books.CompanyID(t, companyCode))
	require.NoError(t, err)
	order, err := trade.NewPurchaseOrder(books.TenantID, books.CompanyID(t, companyCode), number, time.Now())
	require.NoError(t, err)
	_, err = order.AddItem(product.ID, product.Code, product.Name, decimal.NewFromInt(qty), product.PurchasePrice)
	require.NoError(t, err)
	require.NoError(t, order.Confirm())
	require.NoError(t, books.Repos.PurchaseOrders().Save(ctx, order))
	return order
}

func TestInvoiceService_FullSettlement(t *testing.T) {
	ctx := context.Background()
	books := testutil.NewBooks(t, "MFG")
	pub := &recordingPublisher{}
	svc := NewInvoiceService(books.Scope, books.Repos, nil, nil)
	svc.SetEventPublisher(pub)
	mfg := books.CompanyID(t, "MFG")
	order := confirmedSalesOrder(t, books, "MFG", 5)

	invoice, err := svc.CreateFromOrder(ctx, books.TenantID, mfg, CreateFromOrderRequest{OrderID: order.ID})
	require.NoError(t, err)
	assert.Regexp(t, `^INV-\d{4}-\d{5}$`, invoice.Number)
	assert.True(t, amount("500").Equal(invoice.TotalAmount), "invoice carries the order total")
	assert.Equal(t, billing.DocumentStatusPending, invoice.Status)
	assert.Equal(t, invoice.IssueDate.AddDate(0, 0, billing.DefaultPaymentTermDays).Unix(), invoice.DueDate.Unix())
	assert.True(t, amount("500").Equal(books.Balance(t, "MFG", ledger.CodeAccountsReceivable)))
	assert.True(t, amount("500").Equal(books.Balance(t, "MFG", ledger.CodeSalesRevenue)))
	assert.Contains(t, pub.types, billing.EventTypeInvoiceCreated)
	assert.Contains(t, pub.types, ledger.EventTypeJournalEntryPosted)

	stored, err := books.Repos.SalesOrders().FindByIDForTenant(ctx, books.TenantID, order.ID)
	require.NoError(t, err)
	assert.Equal(t, trade.OrderStatusInvoiced, stored.Status)

	_, err = svc.CreateFromOrder(ctx, books.TenantID, mfg, CreateFromOrderRequest{OrderID: order.ID})
	var de *shared.DomainError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "ALREADY_INVOICED", de.Code)

	_, err = svc.RecordReceipt(ctx, books.TenantID, mfg, invoice.ID, RecordPaymentRequest{Amount: amount("100")})
	assert.ErrorIs(t, err, shared.ErrInvalidState, "pending invoices do not accept receipts")

	_, err = svc.Issue(ctx, books.TenantID, mfg, invoice.ID)
	require.NoError(t, err)

	partial, err := svc.RecordReceipt(ctx, books.TenantID, mfg, invoice.ID, RecordPaymentRequest{Amount: amount("200"), Method: "cash"})
	require.NoError(t, err)
	assert.Equal(t, billing.DocumentStatusPartial, partial.Document.Status)
	assert.True(t, amount("300").Equal(partial.Document.Outstanding))
	assert.Regexp(t, `^RCT-\d{4}-\d{5}$`, partial.Payment.Number)

	_, err = svc.RecordReceipt(ctx, books.TenantID, mfg, invoice.ID, RecordPaymentRequest{Amount: amount("300.01")})
	assert.ErrorIs(t, err, shared.ErrExceedsOutstanding)
	assert.True(t, amount("300").Equal(books.Balance(t, "MFG", ledger.CodeAccountsReceivable)), "rejected receipt leaves the ledger untouched")

	_, err = svc.RecordReceipt(ctx, books.TenantID, mfg, invoice.ID, RecordPaymentRequest{Amount: decimal.Zero})
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "INVALID_AMOUNT", de.Code)

	_, err = svc.RecordReceipt(ctx, books.TenantID, mfg, invoice.ID, RecordPaymentRequest{Amount: amount("299.995")})
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "INVALID_AMOUNT", de.Code)
	assert.True(t, amount("300").Equal(books.Balance(t, "MFG", ledger.CodeAccountsReceivable)))

	paid, err := svc.RecordReceipt(ctx, books.TenantID, mfg, invoice.ID, RecordPaymentRequest{Amount: amount("300")})
	require.NoError(t, err)
	assert.Equal(t, billing.DocumentStatusPaid, paid.Document.Status)
	assert.True(t, paid.Document.Outstanding.IsZero())

	assert.True(t, books.Balance(t, "MFG", ledger.CodeAccountsReceivable).IsZero())
	assert.True(t, amount("500").Equal(books.Balance(t, "MFG", ledger.CodeCash)))

	receipts, err := svc.ListReceipts(ctx, books.TenantID, mfg, invoice.ID)
	require.NoError(t, err)
	require.Len(t, receipts, 2)

	summary, err := svc.Summary(ctx, books.TenantID, mfg)
	require.NoError(t, err)
	assert.Equal(t, int64(1), summary.Count)
	assert.True(t, amount("500").Equal(summary.Paid))
	assert.True(t, summary.Outstanding.IsZero())
}

func TestInvoiceService_Guards(t *testing.T) {
	ctx := context.Background()
	books := testutil.NewBooks(t, "MFG", "DIST")
	svc := NewInvoiceService(books.Scope, books.Repos, nil, nil)
	mfg := books.CompanyID(t, "MFG")

	t.Run("draft orders cannot be invoiced", func(t *testing.T) {
		number, err := books.Repos.SalesOrders().GenerateOrderNumber(ctx, books.TenantID, mfg)
		require.NoError(t, err)
		draft, err := trade.NewSalesOrder(books.TenantID, mfg, number, time.Now())
		require.NoError(t, err)
		require.NoError(t, books.Repos.SalesOrders().Save(ctx, draft))

		_, err = svc.CreateFromOrder(ctx, books.TenantID, mfg, CreateFromOrderRequest{OrderID: draft.ID})
		assert.ErrorIs(t, err, shared.ErrInvalidState)
		assert.True(t, books.Balance(t, "MFG", ledger.CodeAccountsReceivable).IsZero())
	})

	t.Run("orders of another company are hidden", func(t *testing.T) {
		order := confirmedSalesOrder(t, books, "DIST", 1)
		_, err := svc.CreateFromOrder(ctx, books.TenantID, mfg, CreateFromOrderRequest{OrderID: order.ID})
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("intercompany orders are billed through their transaction", func(t *testing.T) {
		order := confirmedSalesOrder(t, books, "MFG", 1)
		order.LinkIntercompany(uuid.New())
		require.NoError(t, books.Repos.SalesOrders().Save(ctx, order))

		_, err := svc.CreateFromOrder(ctx, books.TenantID, mfg, CreateFromOrderRequest{OrderID: order.ID})
		var de *shared.DomainError
		require.ErrorAs(t, err, &de)
		assert.Equal(t, "INTERCOMPANY_DOCUMENT", de.Code)
		assert.True(t, books.Balance(t, "MFG", ledger.CodeAccountsReceivable).IsZero())
	})

	t.Run("due date before issue date", func(t *testing.T) {
		order := confirmedSalesOrder(t, books, "MFG", 1)
		issue := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
		_, err := svc.CreateFromOrder(ctx, books.TenantID, mfg, CreateFromOrderRequest{
			OrderID: order.ID, IssueDate: issue, DueDate: issue.AddDate(0, 0, -1),
		})
		var de *shared.DomainError
		require.ErrorAs(t, err, &de)
		assert.Equal(t, "INVALID_DUE_DATE", de.Code)
	})
}

func TestInvoiceService_Overdue(t *testing.T) {
	ctx := context.Background()
	books := testutil.NewBooks(t, "MFG")
	svc := NewInvoiceService(books.Scope, books.Repos, nil, nil)
	svc.now = func() time.Time { return time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC) }
	mfg := books.CompanyID(t, "MFG")

	late := confirmedSalesOrder(t, books, "MFG", 1)
	current := confirmedSalesOrder(t, books, "MFG", 2)
	issued := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)

	lateInv, err := svc.CreateFromOrder(ctx, books.TenantID, mfg, CreateFromOrderRequest{OrderID: late.ID, IssueDate: issued, DueDate: issued.AddDate(0, 0, 14)})
	require.NoError(t, err)
	currentInv, err := svc.CreateFromOrder(ctx, books.TenantID, mfg, CreateFromOrderRequest{OrderID: current.ID, IssueDate: issued, DueDate: issued.AddDate(0, 2, 0)})
	require.NoError(t, err)

	_, err = svc.Issue(ctx, books.TenantID, mfg, lateInv.ID)
	require.NoError(t, err)
	_, err = svc.Issue(ctx, books.TenantID, mfg, currentInv.ID)
	require.NoError(t, err)

	list, total, err := svc.List(ctx, books.TenantID, mfg, DocumentListFilter{Overdue: true})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, list, 1)
	assert.Equal(t, lateInv.ID, list[0].ID)
	assert.True(t, list[0].Overdue)

	summary, err := svc.Summary(ctx, books.TenantID, mfg)
	require.NoError(t, err)
	assert.Equal(t, int64(1), summary.OverdueCount)
	assert.True(t, amount("300").Equal(summary.Outstanding))
}

func TestBillService_FullSettlement(t *testing.T) {
	ctx := context.Background()
	books := testutil.NewBooks(t, "DIST")
	svc := NewBillService(books.Scope, books.Repos, nil, nil)
	dist := books.CompanyID(t, "DIST")
	order := confirmedPurchaseOrder(t, books, "DIST", 3)

	bill, err := svc.CreateFromOrder(ctx, books.TenantID, dist, CreateFromOrderRequest{OrderID: order.ID})
	require.NoError(t, err)
	assert.Regexp(t, `^BILL-\d{4}-\d{5}$`, bill.Number)
	assert.True(t, amount("180").Equal(bill.TotalAmount))
	assert.True(t, amount("180").Equal(books.Balance(t, "DIST", ledger.CodeInventory)))
	assert.True(t, amount("180").Equal(books.Balance(t, "DIST", ledger.CodeAccountsPayable)))

	stored, err := books.Repos.PurchaseOrders().FindByIDForTenant(ctx, books.TenantID, order.ID)
	require.NoError(t, err)
	assert.Equal(t, trade.OrderStatusBilled, stored.Status)

	_, err = svc.Issue(ctx, books.TenantID, dist, bill.ID)
	require.NoError(t, err)

	result, err := svc.RecordPayment(ctx, books.TenantID, dist, bill.ID, RecordPaymentRequest{Amount: amount("180"), Method: "check", Reference: "CHK-1001"})
	require.NoError(t, err)
	assert.Equal(t, billing.DocumentStatusPaid, result.Document.Status)
	assert.Equal(t, billing.PaymentMethodCheck, result.Payment.Method)
	assert.Regexp(t, `^PAY-\d{4}-\d{5}$`, result.Payment.Number)

	assert.True(t, books.Balance(t, "DIST", ledger.CodeAccountsPayable).IsZero())
	assert.True(t, amount("-180").Equal(books.Balance(t, "DIST", ledger.CodeCash)))

	payments, err := svc.ListPayments(ctx, books.TenantID, dist, bill.ID)
	require.NoError(t, err)
	assert.Len(t, payments, 1)

	_, err = svc.RecordPayment(ctx, books.TenantID, dist, bill.ID, RecordPaymentRequest{Amount: amount("1")})
	assert.ErrorIs(t, err, shared.ErrInvalidState, "paid bills take no more payments")
}
