package trade

import (
	"time"

	"github.com/google/uuid"
)

// SalesOrder is an order a company receives from a customer or a sister company
type SalesOrder struct {
	Order
}

// NewSalesOrder creates a draft sales order
func NewSalesOrder(tenantID, companyID uuid.UUID, orderNumber string, orderDate time.Time) (*SalesOrder, error) {
	core, err := newOrder(OrderKindSales, tenantID, companyID, orderNumber, orderDate)
	if err != nil {
		return nil, err
	}
	o := &SalesOrder{Order: core}
	o.AddDomainEvent(NewOrderCreatedEvent(&o.Order))
	return o, nil
}

// Confirm confirms the order so it can be invoiced
func (o *SalesOrder) Confirm() error {
	if err := o.confirm(); err != nil {
		return err
	}
	o.AddDomainEvent(NewOrderStatusChangedEvent(&o.Order, OrderStatusDraft))
	return nil
}

// Cancel cancels a draft or confirmed order
func (o *SalesOrder) Cancel(reason string) error {
	old := o.Status
	if err := o.cancel(reason, false); err != nil {
		return err
	}
	o.AddDomainEvent(NewOrderStatusChangedEvent(&o.Order, old))
	return nil
}

// CancelIntercompany cancels one side of an intercompany pair
func (o *SalesOrder) CancelIntercompany() error {
	old := o.Status
	if err := o.cancel(IntercompanyCancelReason, true); err != nil {
		return err
	}
	o.AddDomainEvent(NewOrderStatusChangedEvent(&o.Order, old))
	return nil
}

// MarkInvoiced records that an invoice now carries this order's total
func (o *SalesOrder) MarkInvoiced() error {
	if err := o.transition(OrderStatusInvoiced); err != nil {
		return err
	}
	o.AddDomainEvent(NewOrderStatusChangedEvent(&o.Order, OrderStatusConfirmed))
	return nil
}
