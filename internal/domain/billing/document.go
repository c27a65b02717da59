package billing

import (
	"strings"
	"time"

	"github.com/erp/accounting/internal/domain/shared"
	"github.com/erp/accounting/internal/domain/trade"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DocumentKind tells invoices and bills apart
type DocumentKind string

const (
	DocumentKindInvoice DocumentKind = "invoice"
	DocumentKindBill    DocumentKind = "bill"
)

// DocumentStatus is the settlement status of an invoice or bill
type DocumentStatus string

const (
	DocumentStatusPending DocumentStatus = "pending"
	DocumentStatusOpen    DocumentStatus = "open"
	DocumentStatusPartial DocumentStatus = "partial"
	DocumentStatusPaid    DocumentStatus = "paid"
)

// IsValid checks if the status is a valid DocumentStatus
func (s DocumentStatus) IsValid() bool {
	switch s {
	case DocumentStatusPending, DocumentStatusOpen, DocumentStatusPartial, DocumentStatusPaid:
		return true
	}
	return false
}

// String returns the string representation of DocumentStatus
func (s DocumentStatus) String() string {
	return string(s)
}

// AcceptsPayment reports whether payments may be applied in this status
func (s DocumentStatus) AcceptsPayment() bool {
	return s == DocumentStatusOpen || s == DocumentStatusPartial
}

// DefaultPaymentTermDays is used when no due date is given
const DefaultPaymentTermDays = 30

// Document holds what invoices and bills have in common
type Document struct {
	shared.CompanyAggregateRoot
	Kind                  DocumentKind
	Number                string
	CounterpartyCompanyID *uuid.UUID
	OrderID               uuid.UUID
	IssueDate             time.Time
	DueDate               time.Time
	TotalAmount           decimal.Decimal
	PaidAmount            decimal.Decimal
	Status                DocumentStatus
	IntercompanyID        *uuid.UUID
	IssuedAt              *time.Time
	PaidAt                *time.Time
	Notes                 string
}

func newDocument(kind DocumentKind, order *trade.Order, number string, issueDate, dueDate time.Time) (Document, error) {
	if order == nil {
		return Document{}, shared.NewDomainError("INVALID_ORDER", "Order is required")
	}
	if order.Status != trade.OrderStatusConfirmed {
		return Document{}, shared.NewDomainError("INVALID_STATE", "Only confirmed orders can receive a new "+string(kind))
	}
	if !order.TotalAmount.IsPositive() {
		return Document{}, shared.NewDomainError("INVALID_AMOUNT", "Order total must be positive")
	}
	if strings.TrimSpace(number) == "" {
		return Document{}, shared.NewDomainError("INVALID_NUMBER", "Document number cannot be empty")
	}
	if issueDate.IsZero() {
		issueDate = time.Now()
	}
	if dueDate.IsZero() {
		dueDate = issueDate.AddDate(0, 0, DefaultPaymentTermDays)
	}
	if dueDate.Before(issueDate) {
		return Document{}, shared.NewDomainError("INVALID_DUE_DATE", "Due date cannot be before issue date")
	}

	doc := Document{
		CompanyAggregateRoot: shared.NewCompanyAggregateRoot(order.TenantID, order.CompanyID),
		Kind:                 kind,
		Number:               number,
		OrderID:              order.ID,
		IssueDate:            issueDate,
		DueDate:              dueDate,
		TotalAmount:          order.TotalAmount,
		PaidAmount:           decimal.Zero,
		Status:               DocumentStatusPending,
	}
	if order.CounterpartyCompanyID != nil {
		id := *order.CounterpartyCompanyID
		doc.CounterpartyCompanyID = &id
	}
	if order.IntercompanyID != nil {
		id := *order.IntercompanyID
		doc.IntercompanyID = &id
	}
	return doc, nil
}

// issue moves the document from pending to open
func (d *Document) issue() error {
	if d.Status != DocumentStatusPending {
		return shared.NewDomainError("INVALID_STATE", "Only pending documents can be issued")
	}
	now := time.Now()
	d.Status = DocumentStatusOpen
	d.IssuedAt = &now
	d.Touch()
	d.IncrementVersion()
	return nil
}

// applyPayment adds a settled amount. The paid amount never exceeds the total.
func (d *Document) applyPayment(amount decimal.Decimal, paidOn time.Time) error {
	if !amount.IsPositive() {
		return shared.NewDomainError("INVALID_AMOUNT", "Payment amount must be positive")
	}
	if !d.Status.AcceptsPayment() {
		return shared.NewDomainError("INVALID_STATE", "Document in status "+d.Status.String()+" does not accept payments")
	}
	if d.PaidAmount.Add(amount).GreaterThan(d.TotalAmount) {
		return shared.NewDomainError(shared.ErrExceedsOutstanding.Code,
			"Payment of "+amount.StringFixed(2)+" exceeds outstanding "+d.Outstanding().StringFixed(2))
	}

	d.PaidAmount = d.PaidAmount.Add(amount)
	if d.PaidAmount.Equal(d.TotalAmount) {
		d.Status = DocumentStatusPaid
		d.PaidAt = &paidOn
	} else {
		d.Status = DocumentStatusPartial
	}
	d.Touch()
	d.IncrementVersion()
	return nil
}

// Outstanding returns total minus paid
func (d *Document) Outstanding() decimal.Decimal {
	return d.TotalAmount.Sub(d.PaidAmount)
}

// IsOverdue reports whether an unpaid, issued document is past its due date
func (d *Document) IsOverdue(now time.Time) bool {
	return d.Status.AcceptsPayment() && now.After(d.DueDate)
}

// MatchesOrderTotal checks that the document carries exactly the order total
func (d *Document) MatchesOrderTotal(orderTotal decimal.Decimal) error {
	if !d.TotalAmount.Equal(orderTotal) {
		return shared.NewDomainError(shared.ErrAmountMismatch.Code,
			"Document total "+d.TotalAmount.StringFixed(2)+" differs from order total "+orderTotal.StringFixed(2))
	}
	return nil
}
