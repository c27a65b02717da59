package intercompany

import (
	"testing"
	"time"

	"github.com/erp/accounting/internal/domain/billing"
	"github.com/erp/accounting/internal/domain/shared"
	"github.com/erp/accounting/internal/domain/trade"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	tenantID uuid.UUID
	source   uuid.UUID
	target   uuid.UUID
	so       *trade.SalesOrder
	po       *trade.PurchaseOrder
	txn      *Transaction
}

func newFixture(t *testing.T, soAmount, poAmount int64) *fixture {
	t.Helper()
	f := &fixture{tenantID: uuid.New(), source: uuid.New(), target: uuid.New()}

	so, err := trade.NewSalesOrder(f.tenantID, f.source, "SO-2026-00001", time.Now())
	require.NoError(t, err)
	require.NoError(t, so.SetCounterparty(f.target))
	_, err = so.AddItem(uuid.New(), "P1", "Part", decimal.NewFromInt(1), decimal.NewFromInt(soAmount))
	require.NoError(t, err)
	require.NoError(t, so.Confirm())

	po, err := trade.NewPurchaseOrder(f.tenantID, f.target, "PO-2026-00001", time.Now())
	require.NoError(t, err)
	require.NoError(t, po.SetCounterparty(f.source))
	_, err = po.AddItem(uuid.New(), "P1", "Part", decimal.NewFromInt(1), decimal.NewFromInt(poAmount))
	require.NoError(t, err)
	require.NoError(t, po.Confirm())

	f.so, f.po = so, po
	f.txn, err = NewTransaction(f.tenantID, f.source, f.target, "IC-2026-00001", time.Now())
	require.NoError(t, err)
	return f
}

func (f *fixture) invoice(t *testing.T) (*billing.Invoice, *billing.Bill) {
	t.Helper()
	require.NoError(t, f.txn.AttachOrders(f.so, f.po))
	inv, err := billing.NewInvoiceFromOrder(f.so, "INV-2026-00001", time.Now(), time.Time{})
	require.NoError(t, err)
	bill, err := billing.NewBillFromOrder(f.po, "BILL-2026-00001", time.Now(), time.Time{})
	require.NoError(t, err)
	require.NoError(t, inv.Issue())
	require.NoError(t, bill.Issue())
	require.NoError(t, f.txn.AttachDocuments(inv, bill))
	return inv, bill
}

func settle(t *testing.T, inv *billing.Invoice, bill *billing.Bill, amount int64) (*billing.Receipt, *billing.BillPayment) {
	t.Helper()
	r, err := billing.RecordReceipt(inv, billing.PaymentInput{Number: "RCT-1", Amount: decimal.NewFromInt(amount)})
	require.NoError(t, err)
	p, err := billing.RecordBillPayment(bill, billing.PaymentInput{Number: "PAY-1", Amount: decimal.NewFromInt(amount)})
	require.NoError(t, err)
	return r, p
}

func TestNewTransaction(t *testing.T) {
	t.Run("rejects same company", func(t *testing.T) {
		id := uuid.New()
		_, err := NewTransaction(uuid.New(), id, id, "IC-1", time.Now())
		require.Error(t, err)
		var de *shared.DomainError
		require.ErrorAs(t, err, &de)
		assert.Equal(t, "SAME_COMPANY", de.Code)
	})

	t.Run("starts ordered", func(t *testing.T) {
		txn, err := NewTransaction(uuid.New(), uuid.New(), uuid.New(), "IC-1", time.Time{})
		require.NoError(t, err)
		assert.Equal(t, StatusOrdered, txn.Status)
		assert.False(t, txn.TransactionDate.IsZero())
	})
}

func TestTransaction_AttachOrders(t *testing.T) {
	t.Run("links both orders", func(t *testing.T) {
		f := newFixture(t, 1000, 1000)
		require.NoError(t, f.txn.AttachOrders(f.so, f.po))

		assert.True(t, f.txn.Amount.Equal(decimal.NewFromInt(1000)))
		assert.Equal(t, f.txn.ID, *f.so.IntercompanyID)
		assert.Equal(t, f.txn.ID, *f.po.IntercompanyID)
		assert.Len(t, f.txn.GetDomainEvents(), 1)
	})

	t.Run("rejects differing totals", func(t *testing.T) {
		f := newFixture(t, 1000, 999)
		err := f.txn.AttachOrders(f.so, f.po)
		assert.ErrorIs(t, err, shared.ErrAmountMismatch)
	})

	t.Run("rejects swapped companies", func(t *testing.T) {
		f := newFixture(t, 10, 10)
		swapped, err := NewTransaction(f.tenantID, f.target, f.source, "IC-2", time.Now())
		require.NoError(t, err)
		assert.Error(t, swapped.AttachOrders(f.so, f.po))
	})
}

func TestTransaction_Lifecycle(t *testing.T) {
	f := newFixture(t, 600, 600)
	inv, bill := f.invoice(t)
	assert.Equal(t, StatusInvoiced, f.txn.Status)

	r, p := settle(t, inv, bill, 200)
	require.NoError(t, f.txn.RecordSettlement(r, p))
	assert.Equal(t, StatusPartiallySettled, f.txn.Status)
	assert.True(t, f.txn.Outstanding().Equal(decimal.NewFromInt(400)))

	r, p = settle(t, inv, bill, 400)
	require.NoError(t, f.txn.RecordSettlement(r, p))
	assert.Equal(t, StatusSettled, f.txn.Status)
	assert.Len(t, f.txn.Settlements, 2)
	assert.True(t, f.txn.Outstanding().IsZero())
}

func TestTransaction_RecordSettlement_Errors(t *testing.T) {
	t.Run("rejects unequal halves", func(t *testing.T) {
		f := newFixture(t, 600, 600)
		inv, bill := f.invoice(t)
		r, _ := settle(t, inv, bill, 100)
		_, p := settle(t, inv, bill, 50)
		assert.ErrorIs(t, f.txn.RecordSettlement(r, p), shared.ErrAmountMismatch)
	})

	t.Run("requires invoicing first", func(t *testing.T) {
		f := newFixture(t, 600, 600)
		require.NoError(t, f.txn.AttachOrders(f.so, f.po))
		r := &billing.Receipt{}
		p := &billing.BillPayment{}
		err := f.txn.RecordSettlement(r, p)
		assert.ErrorIs(t, err, shared.ErrInvalidState)
	})
}

func TestTransaction_Cancel(t *testing.T) {
	t.Run("ordered can be cancelled", func(t *testing.T) {
		f := newFixture(t, 10, 10)
		require.NoError(t, f.txn.AttachOrders(f.so, f.po))
		require.NoError(t, f.txn.Cancel())
		assert.Equal(t, StatusCancelled, f.txn.Status)
	})

	t.Run("invoiced cannot be cancelled", func(t *testing.T) {
		f := newFixture(t, 10, 10)
		f.invoice(t)
		assert.Error(t, f.txn.Cancel())
	})
}

func TestReconcile(t *testing.T) {
	f := newFixture(t, 600, 600)
	inv, bill := f.invoice(t)
	r, p := settle(t, inv, bill, 100)
	require.NoError(t, f.txn.RecordSettlement(r, p))

	amounts := DocumentAmounts{
		SalesOrderTotal:    f.so.TotalAmount,
		PurchaseOrderTotal: f.po.TotalAmount,
		InvoiceTotal:       inv.TotalAmount,
		BillTotal:          bill.TotalAmount,
		InvoicePaid:        inv.PaidAmount,
		BillPaid:           bill.PaidAmount,
	}

	t.Run("matching sides reconcile", func(t *testing.T) {
		rec := Reconcile(f.source, f.target, []ReconcileItem{{Transaction: f.txn, Amounts: amounts}})
		assert.True(t, rec.IsReconciled())
		assert.Equal(t, 1, rec.Transactions)
		assert.True(t, rec.ReceivableAB.Equal(decimal.NewFromInt(500)))
		assert.True(t, rec.PayableBA.Equal(decimal.NewFromInt(500)))
	})

	t.Run("reports drift", func(t *testing.T) {
		drifted := amounts
		drifted.BillPaid = decimal.Zero
		rec := Reconcile(f.target, f.source, []ReconcileItem{{Transaction: f.txn, Amounts: drifted}})
		assert.False(t, rec.IsReconciled())
		require.Len(t, rec.Mismatches, 1)
		assert.Equal(t, "receipts_vs_bill_payments", rec.Mismatches[0].Check)
		assert.True(t, rec.ReceivableBA.Equal(decimal.NewFromInt(500)))
		assert.True(t, rec.PayableAB.Equal(decimal.NewFromInt(600)))
	})
}
