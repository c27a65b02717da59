package billing

import (
	"time"

	"github.com/erp/accounting/internal/domain/trade"
)

// Invoice is a receivable raised from a confirmed sales order
type Invoice struct {
	Document
}

// NewInvoiceFromOrder creates a pending invoice for the full order total
func NewInvoiceFromOrder(order *trade.SalesOrder, number string, issueDate, dueDate time.Time) (*Invoice, error) {
	if order == nil {
		return nil, errOrderRequired
	}
	doc, err := newDocument(DocumentKindInvoice, &order.Order, number, issueDate, dueDate)
	if err != nil {
		return nil, err
	}
	inv := &Invoice{Document: doc}
	inv.AddDomainEvent(NewDocumentCreatedEvent(&inv.Document))
	return inv, nil
}

// Issue sends the invoice, it becomes open for receipts
func (i *Invoice) Issue() error {
	if err := i.issue(); err != nil {
		return err
	}
	i.AddDomainEvent(NewDocumentStatusChangedEvent(&i.Document, DocumentStatusPending))
	return nil
}
