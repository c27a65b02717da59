package billing

import (
	"time"

	"github.com/erp/accounting/internal/domain/shared"
	"github.com/erp/accounting/internal/domain/trade"
)

var errOrderRequired = shared.NewDomainError("INVALID_ORDER", "Order is required")

// Bill is a payable recorded from a confirmed purchase order
type Bill struct {
	Document
}

// NewBillFromOrder creates a pending bill for the full order total
func NewBillFromOrder(order *trade.PurchaseOrder, number string, issueDate, dueDate time.Time) (*Bill, error) {
	if order == nil {
		return nil, errOrderRequired
	}
	doc, err := newDocument(DocumentKindBill, &order.Order, number, issueDate, dueDate)
	if err != nil {
		return nil, err
	}
	b := &Bill{Document: doc}
	b.AddDomainEvent(NewDocumentCreatedEvent(&b.Document))
	return b, nil
}

// Issue records the bill as received, it becomes open for payments
func (b *Bill) Issue() error {
	if err := b.issue(); err != nil {
		return err
	}
	b.AddDomainEvent(NewDocumentStatusChangedEvent(&b.Document, DocumentStatusPending))
	return nil
}
