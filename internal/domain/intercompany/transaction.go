package intercompany

import (
	"strings"
	"time"

	"github.com/erp/accounting/internal/domain/billing"
	"github.com/erp/accounting/internal/domain/shared"
	"github.com/erp/accounting/internal/domain/trade"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Status is the lifecycle status of an intercompany transaction
type Status string

const (
	StatusOrdered          Status = "ordered"
	StatusInvoiced         Status = "invoiced"
	StatusPartiallySettled Status = "partially_settled"
	StatusSettled          Status = "settled"
	StatusCancelled        Status = "cancelled"
)

// IsValid checks if the status is valid
func (s Status) IsValid() bool {
	switch s {
	case StatusOrdered, StatusInvoiced, StatusPartiallySettled, StatusSettled, StatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of Status
func (s Status) String() string {
	return string(s)
}

// Settlement is one matched receipt and bill payment pair
type Settlement struct {
	ID            uuid.UUID
	ReceiptID     uuid.UUID
	BillPaymentID uuid.UUID
	Amount        decimal.Decimal
	SettledOn     time.Time
}

// Transaction is one real-world trade between two companies of a tenant,
// recorded as mirrored documents in both ledgers.
// The source company sells, the target company buys.
type Transaction struct {
	shared.TenantAggregateRoot
	Number          string
	SourceCompanyID uuid.UUID
	TargetCompanyID uuid.UUID
	SalesOrderID    uuid.UUID
	PurchaseOrderID uuid.UUID
	InvoiceID       *uuid.UUID
	BillID          *uuid.UUID
	Amount          decimal.Decimal
	SettledAmount   decimal.Decimal
	Status          Status
	TransactionDate time.Time
	Description     string
	IdempotencyKey  string
	Settlements     []Settlement
}

// NewTransaction opens a transaction between two distinct companies
func NewTransaction(tenantID, sourceCompanyID, targetCompanyID uuid.UUID, number string, date time.Time) (*Transaction, error) {
	if sourceCompanyID == uuid.Nil || targetCompanyID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_COMPANY", "Source and target companies are required")
	}
	if sourceCompanyID == targetCompanyID {
		return nil, shared.NewDomainError("SAME_COMPANY", "Source and target companies must differ")
	}
	if strings.TrimSpace(number) == "" {
		return nil, shared.NewDomainError("INVALID_NUMBER", "Transaction number cannot be empty")
	}
	if date.IsZero() {
		date = time.Now()
	}
	return &Transaction{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Number:              number,
		SourceCompanyID:     sourceCompanyID,
		TargetCompanyID:     targetCompanyID,
		Amount:              decimal.Zero,
		SettledAmount:       decimal.Zero,
		Status:              StatusOrdered,
		TransactionDate:     date,
		Settlements:         make([]Settlement, 0),
	}, nil
}

// AttachOrders binds the mirrored sales and purchase orders.
// Both orders must be confirmed, point at each other's company and carry the same total.
func (t *Transaction) AttachOrders(so *trade.SalesOrder, po *trade.PurchaseOrder) error {
	if t.SalesOrderID != uuid.Nil {
		return shared.NewDomainError("INVALID_STATE", "Orders are already attached")
	}
	if err := MatchOrders(t.SourceCompanyID, t.TargetCompanyID, so, po); err != nil {
		return err
	}
	so.LinkIntercompany(t.ID)
	po.LinkIntercompany(t.ID)
	t.SalesOrderID = so.ID
	t.PurchaseOrderID = po.ID
	t.Amount = so.TotalAmount
	t.Touch()
	t.AddDomainEvent(NewTransactionEvent(EventTypeOrdered, t, t.Amount))
	return nil
}

// AttachDocuments binds the mirrored invoice and bill
func (t *Transaction) AttachDocuments(inv *billing.Invoice, bill *billing.Bill) error {
	if t.Status != StatusOrdered {
		return shared.NewDomainError("INVALID_STATE", "Only ordered transactions can be invoiced")
	}
	if inv.OrderID != t.SalesOrderID || bill.OrderID != t.PurchaseOrderID {
		return shared.NewDomainError("INVALID_DOCUMENT", "Invoice and bill must come from this transaction's orders")
	}
	if !inv.TotalAmount.Equal(t.Amount) || !bill.TotalAmount.Equal(t.Amount) {
		return shared.NewDomainError(shared.ErrAmountMismatch.Code, "Invoice and bill must both equal the transaction amount")
	}
	invID, billID := inv.ID, bill.ID
	t.InvoiceID = &invID
	t.BillID = &billID
	t.Status = StatusInvoiced
	t.Touch()
	t.IncrementVersion()
	t.AddDomainEvent(NewTransactionEvent(EventTypeInvoiced, t, t.Amount))
	return nil
}

// RecordSettlement binds a receipt on the source side and a bill payment on the target side
func (t *Transaction) RecordSettlement(receipt *billing.Receipt, payment *billing.BillPayment) error {
	if t.Status != StatusInvoiced && t.Status != StatusPartiallySettled {
		return shared.NewDomainError("INVALID_STATE", "Transaction must be invoiced before settlement")
	}
	if !receipt.Amount.Equal(payment.Amount) {
		return shared.NewDomainError(shared.ErrAmountMismatch.Code, "Receipt and payment amounts must match")
	}
	if t.InvoiceID == nil || receipt.DocumentID != *t.InvoiceID || t.BillID == nil || payment.DocumentID != *t.BillID {
		return shared.NewDomainError("INVALID_DOCUMENT", "Receipt and payment must settle this transaction's invoice and bill")
	}
	if receipt.Amount.GreaterThan(t.Outstanding()) {
		return shared.NewDomainError(shared.ErrExceedsOutstanding.Code, "Settlement exceeds the outstanding intercompany balance")
	}

	t.Settlements = append(t.Settlements, Settlement{
		ID:            uuid.New(),
		ReceiptID:     receipt.ID,
		BillPaymentID: payment.ID,
		Amount:        receipt.Amount,
		SettledOn:     receipt.PaymentDate,
	})
	t.SettledAmount = t.SettledAmount.Add(receipt.Amount)
	if t.SettledAmount.Equal(t.Amount) {
		t.Status = StatusSettled
	} else {
		t.Status = StatusPartiallySettled
	}
	t.Touch()
	t.IncrementVersion()
	t.AddDomainEvent(NewTransactionEvent(EventTypeSettled, t, receipt.Amount))
	return nil
}

// Cancel cancels a transaction that has not been invoiced yet
func (t *Transaction) Cancel() error {
	if t.Status != StatusOrdered {
		return shared.NewDomainError("INVALID_STATE", "Only transactions that are not yet invoiced can be cancelled")
	}
	t.Status = StatusCancelled
	t.Touch()
	t.IncrementVersion()
	t.AddDomainEvent(NewTransactionEvent(EventTypeCancelled, t, t.Amount))
	return nil
}

// Outstanding returns the amount still to be settled
func (t *Transaction) Outstanding() decimal.Decimal {
	return t.Amount.Sub(t.SettledAmount)
}

// Involves reports whether the company is on either side
func (t *Transaction) Involves(companyID uuid.UUID) bool {
	return t.SourceCompanyID == companyID || t.TargetCompanyID == companyID
}

// MatchOrders checks that a sales order and a purchase order mirror each other
func MatchOrders(sourceCompanyID, targetCompanyID uuid.UUID, so *trade.SalesOrder, po *trade.PurchaseOrder) error {
	if so == nil || po == nil {
		return shared.NewDomainError("INVALID_ORDER", "Both orders are required")
	}
	if so.CompanyID != sourceCompanyID || po.CompanyID != targetCompanyID {
		return shared.NewDomainError("INVALID_ORDER", "Sales order must belong to the source company and purchase order to the target")
	}
	if so.CounterpartyCompanyID == nil || *so.CounterpartyCompanyID != targetCompanyID ||
		po.CounterpartyCompanyID == nil || *po.CounterpartyCompanyID != sourceCompanyID {
		return shared.NewDomainError("INVALID_ORDER", "Orders must name each other's company as counterparty")
	}
	if so.Status != trade.OrderStatusConfirmed || po.Status != trade.OrderStatusConfirmed {
		return shared.NewDomainError("INVALID_STATE", "Both orders must be confirmed")
	}
	if !so.TotalAmount.Equal(po.TotalAmount) {
		return shared.NewDomainError(shared.ErrAmountMismatch.Code,
			"Sales order total "+so.TotalAmount.StringFixed(2)+" differs from purchase order total "+po.TotalAmount.StringFixed(2))
	}
	if !so.TotalAmount.IsPositive() {
		return shared.NewDomainError("INVALID_AMOUNT", "Intercompany amount must be positive")
	}
	return nil
}
