package billing

import (
	"testing"
	"time"

	"github.com/erp/accounting/internal/domain/shared"
	"github.com/erp/accounting/internal/domain/trade"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func confirmedSalesOrder(t *testing.T, amount int64) *trade.SalesOrder {
	t.Helper()
	o, err := trade.NewSalesOrder(uuid.New(), uuid.New(), "SO-2026-00001", time.Now())
	require.NoError(t, err)
	_, err = o.AddItem(uuid.New(), "W1", "Widget", decimal.NewFromInt(1), decimal.NewFromInt(amount))
	require.NoError(t, err)
	require.NoError(t, o.Confirm())
	return o
}

func confirmedPurchaseOrder(t *testing.T, amount int64) *trade.PurchaseOrder {
	t.Helper()
	o, err := trade.NewPurchaseOrder(uuid.New(), uuid.New(), "PO-2026-00001", time.Now())
	require.NoError(t, err)
	_, err = o.AddItem(uuid.New(), "W1", "Widget", decimal.NewFromInt(2), decimal.NewFromInt(amount/2))
	require.NoError(t, err)
	require.NoError(t, o.Confirm())
	return o
}

func TestNewInvoiceFromOrder(t *testing.T) {
	t.Run("carries the order total", func(t *testing.T) {
		order := confirmedSalesOrder(t, 500)
		issue := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

		inv, err := NewInvoiceFromOrder(order, "INV-2026-00001", issue, time.Time{})

		require.NoError(t, err)
		assert.Equal(t, DocumentStatusPending, inv.Status)
		assert.True(t, inv.TotalAmount.Equal(order.TotalAmount))
		assert.NoError(t, inv.MatchesOrderTotal(order.TotalAmount))
		assert.Equal(t, issue.AddDate(0, 0, DefaultPaymentTermDays), inv.DueDate)
		assert.Equal(t, order.ID, inv.OrderID)
		assert.Equal(t, order.CompanyID, inv.CompanyID)
	})

	t.Run("rejects draft order", func(t *testing.T) {
		o, _ := trade.NewSalesOrder(uuid.New(), uuid.New(), "SO-1", time.Now())
		_, err := NewInvoiceFromOrder(o, "INV-1", time.Now(), time.Time{})
		assert.Contains(t, err.Error(), "confirmed")
	})

	t.Run("rejects due date before issue date", func(t *testing.T) {
		order := confirmedSalesOrder(t, 10)
		now := time.Now()
		_, err := NewInvoiceFromOrder(order, "INV-1", now, now.AddDate(0, 0, -1))
		assert.Error(t, err)
	})

	t.Run("rejects nil order", func(t *testing.T) {
		_, err := NewInvoiceFromOrder(nil, "INV-1", time.Now(), time.Time{})
		assert.Error(t, err)
	})
}

func TestRecordReceipt(t *testing.T) {
	newOpenInvoice := func(t *testing.T) *Invoice {
		inv, err := NewInvoiceFromOrder(confirmedSalesOrder(t, 300), "INV-1", time.Now(), time.Time{})
		require.NoError(t, err)
		require.NoError(t, inv.Issue())
		return inv
	}

	t.Run("pending invoices do not accept receipts", func(t *testing.T) {
		inv, _ := NewInvoiceFromOrder(confirmedSalesOrder(t, 300), "INV-1", time.Now(), time.Time{})
		_, err := RecordReceipt(inv, PaymentInput{Number: "RCT-1", Amount: decimal.NewFromInt(1)})
		assert.Contains(t, err.Error(), "does not accept payments")
	})

	t.Run("partial then paid", func(t *testing.T) {
		inv := newOpenInvoice(t)

		r, err := RecordReceipt(inv, PaymentInput{Number: "RCT-1", Amount: decimal.NewFromInt(100)})
		require.NoError(t, err)
		assert.Equal(t, DocumentStatusPartial, inv.Status)
		assert.Equal(t, PaymentMethodBankTransfer, r.Method)
		assert.Equal(t, inv.ID, r.DocumentID)
		assert.True(t, inv.Outstanding().Equal(decimal.NewFromInt(200)))

		_, err = RecordReceipt(inv, PaymentInput{Number: "RCT-2", Amount: decimal.NewFromInt(200), Method: PaymentMethodCash})
		require.NoError(t, err)
		assert.Equal(t, DocumentStatusPaid, inv.Status)
		assert.NotNil(t, inv.PaidAt)
		assert.True(t, inv.Outstanding().IsZero())
	})

	t.Run("receipts never exceed the invoice total", func(t *testing.T) {
		inv := newOpenInvoice(t)

		_, err := RecordReceipt(inv, PaymentInput{Number: "RCT-1", Amount: decimal.RequireFromString("300.01")})
		assert.ErrorIs(t, err, shared.ErrExceedsOutstanding)
		assert.Equal(t, DocumentStatusOpen, inv.Status)
		assert.True(t, inv.PaidAmount.IsZero())
	})

	t.Run("rejects amounts finer than cents", func(t *testing.T) {
		inv := newOpenInvoice(t)

		_, err := RecordReceipt(inv, PaymentInput{Number: "RCT-1", Amount: decimal.RequireFromString("299.995")})
		var de *shared.DomainError
		require.ErrorAs(t, err, &de)
		assert.Equal(t, "INVALID_AMOUNT", de.Code)
		assert.Equal(t, DocumentStatusOpen, inv.Status)
		assert.True(t, inv.PaidAmount.IsZero())

		_, err = RecordReceipt(inv, PaymentInput{Number: "RCT-2", Amount: decimal.RequireFromString("299.990")})
		require.NoError(t, err, "trailing zeros are not extra precision")
		assert.True(t, inv.Outstanding().Equal(decimal.RequireFromString("0.01")))
	})

	t.Run("rejects zero amount and unknown method", func(t *testing.T) {
		inv := newOpenInvoice(t)

		_, err := RecordReceipt(inv, PaymentInput{Number: "RCT-1", Amount: decimal.Zero})
		assert.Error(t, err)
		_, err = RecordReceipt(inv, PaymentInput{Number: "RCT-1", Amount: decimal.NewFromInt(1), Method: "barter"})
		assert.Error(t, err)
	})
}

func TestRecordBillPayment(t *testing.T) {
	bill, err := NewBillFromOrder(confirmedPurchaseOrder(t, 80), "BILL-1", time.Now(), time.Time{})
	require.NoError(t, err)
	require.NoError(t, bill.Issue())
	assert.Error(t, bill.Issue())

	bp, err := RecordBillPayment(bill, PaymentInput{Number: "PAY-1", Amount: decimal.NewFromInt(80), Reference: " wire 42 "})
	require.NoError(t, err)
	assert.Equal(t, PaymentKindBillPayment, bp.Kind)
	assert.Equal(t, "wire 42", bp.Reference)
	assert.Equal(t, DocumentStatusPaid, bill.Status)

	_, err = RecordBillPayment(bill, PaymentInput{Number: "PAY-2", Amount: decimal.NewFromInt(1)})
	assert.Error(t, err)
}

func TestDocument_IsOverdue(t *testing.T) {
	issue := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	inv, err := NewInvoiceFromOrder(confirmedSalesOrder(t, 10), "INV-1", issue, issue.AddDate(0, 0, 10))
	require.NoError(t, err)

	assert.False(t, inv.IsOverdue(issue.AddDate(0, 0, 20)), "pending documents are not overdue")
	require.NoError(t, inv.Issue())
	assert.False(t, inv.IsOverdue(issue.AddDate(0, 0, 5)))
	assert.True(t, inv.IsOverdue(issue.AddDate(0, 0, 20)))
}
