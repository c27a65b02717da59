package trade

import (
	"time"

	"github.com/google/uuid"
)

// PurchaseOrder is an order a company places with a supplier or a sister company
type PurchaseOrder struct {
	Order
}

// NewPurchaseOrder creates a draft purchase order
func NewPurchaseOrder(tenantID, companyID uuid.UUID, orderNumber string, orderDate time.Time) (*PurchaseOrder, error) {
	core, err := newOrder(OrderKindPurchase, tenantID, companyID, orderNumber, orderDate)
	if err != nil {
		return nil, err
	}
	o := &PurchaseOrder{Order: core}
	o.AddDomainEvent(NewOrderCreatedEvent(&o.Order))
	return o, nil
}

// Confirm confirms the order so it can be billed
func (o *PurchaseOrder) Confirm() error {
	if err := o.confirm(); err != nil {
		return err
	}
	o.AddDomainEvent(NewOrderStatusChangedEvent(&o.Order, OrderStatusDraft))
	return nil
}

// Cancel cancels a draft or confirmed order
func (o *PurchaseOrder) Cancel(reason string) error {
	old := o.Status
	if err := o.cancel(reason, false); err != nil {
		return err
	}
	o.AddDomainEvent(NewOrderStatusChangedEvent(&o.Order, old))
	return nil
}

// CancelIntercompany cancels one side of an intercompany pair
func (o *PurchaseOrder) CancelIntercompany() error {
	old := o.Status
	if err := o.cancel(IntercompanyCancelReason, true); err != nil {
		return err
	}
	o.AddDomainEvent(NewOrderStatusChangedEvent(&o.Order, old))
	return nil
}

// MarkBilled records that a bill now carries this order's total
func (o *PurchaseOrder) MarkBilled() error {
	if err := o.transition(OrderStatusBilled); err != nil {
		return err
	}
	o.AddDomainEvent(NewOrderStatusChangedEvent(&o.Order, OrderStatusConfirmed))
	return nil
}
