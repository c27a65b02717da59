package intercompany

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DocumentAmounts are the totals of the four mirrored documents of one transaction
type DocumentAmounts struct {
	SalesOrderTotal    decimal.Decimal
	PurchaseOrderTotal decimal.Decimal
	InvoiceTotal       decimal.Decimal
	BillTotal          decimal.Decimal
	InvoicePaid        decimal.Decimal
	BillPaid           decimal.Decimal
}

// ReconcileItem pairs a transaction with the amounts read from its documents
type ReconcileItem struct {
	Transaction *Transaction
	Amounts     DocumentAmounts
}

// Mismatch is one disagreement between the two sides of a transaction
type Mismatch struct {
	TransactionID uuid.UUID       `json:"transaction_id"`
	Number        string          `json:"number"`
	Check         string          `json:"check"`
	Expected      decimal.Decimal `json:"expected"`
	Actual        decimal.Decimal `json:"actual"`
}

// Reconciliation compares what two companies have recorded about each other
type Reconciliation struct {
	CompanyA     uuid.UUID
	CompanyB     uuid.UUID
	Transactions int
	// ReceivableAB is what A is still owed by B on open intercompany invoices
	ReceivableAB decimal.Decimal
	// PayableBA is what B still owes A on open intercompany bills
	PayableBA    decimal.Decimal
	ReceivableBA decimal.Decimal
	PayableAB    decimal.Decimal
	Mismatches   []Mismatch
}

// IsReconciled reports whether both sides agree
func (r *Reconciliation) IsReconciled() bool {
	return len(r.Mismatches) == 0 && r.ReceivableAB.Equal(r.PayableBA) && r.ReceivableBA.Equal(r.PayableAB)
}

// Reconcile checks every mirrored pair between companies a and b.
// Cancelled transactions are ignored.
func Reconcile(a, b uuid.UUID, items []ReconcileItem) *Reconciliation {
	r := &Reconciliation{
		CompanyA:     a,
		CompanyB:     b,
		ReceivableAB: decimal.Zero,
		PayableBA:    decimal.Zero,
		ReceivableBA: decimal.Zero,
		PayableAB:    decimal.Zero,
		Mismatches:   make([]Mismatch, 0),
	}

	for _, item := range items {
		t := item.Transaction
		if t.Status == StatusCancelled || !t.Involves(a) || !t.Involves(b) {
			continue
		}
		r.Transactions++
		amt := item.Amounts

		r.check(t, "sales_order_vs_purchase_order", amt.SalesOrderTotal, amt.PurchaseOrderTotal)
		r.check(t, "transaction_vs_sales_order", t.Amount, amt.SalesOrderTotal)

		if t.InvoiceID != nil {
			r.check(t, "invoice_vs_bill", amt.InvoiceTotal, amt.BillTotal)
			r.check(t, "invoice_vs_sales_order", amt.SalesOrderTotal, amt.InvoiceTotal)
			r.check(t, "receipts_vs_bill_payments", amt.InvoicePaid, amt.BillPaid)
			r.check(t, "settled_vs_receipts", t.SettledAmount, amt.InvoicePaid)

			receivable := amt.InvoiceTotal.Sub(amt.InvoicePaid)
			payable := amt.BillTotal.Sub(amt.BillPaid)
			if t.SourceCompanyID == a {
				r.ReceivableAB = r.ReceivableAB.Add(receivable)
				r.PayableBA = r.PayableBA.Add(payable)
			} else {
				r.ReceivableBA = r.ReceivableBA.Add(receivable)
				r.PayableAB = r.PayableAB.Add(payable)
			}
		}
	}
	return r
}

func (r *Reconciliation) check(t *Transaction, name string, expected, actual decimal.Decimal) {
	if expected.Equal(actual) {
		return
	}
	r.Mismatches = append(r.Mismatches, Mismatch{
		TransactionID: t.ID,
		Number:        t.Number,
		Check:         name,
		Expected:      expected,
		Actual:        actual,
	})
}
