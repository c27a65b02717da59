package trade

import (
	"github.com/erp/accounting/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	AggregateTypeSalesOrder    = "SalesOrder"
	AggregateTypePurchaseOrder = "PurchaseOrder"
)

const (
	EventTypeSalesOrderCreated          = "SalesOrderCreated"
	EventTypeSalesOrderStatusChanged    = "SalesOrderStatusChanged"
	EventTypePurchaseOrderCreated       = "PurchaseOrderCreated"
	EventTypePurchaseOrderStatusChanged = "PurchaseOrderStatusChanged"
)

func aggregateType(kind OrderKind) string {
	if kind == OrderKindPurchase {
		return AggregateTypePurchaseOrder
	}
	return AggregateTypeSalesOrder
}

// OrderCreatedEvent is published when a sales or purchase order is created
type OrderCreatedEvent struct {
	shared.BaseDomainEvent
	CompanyID   uuid.UUID `json:"company_id"`
	OrderNumber string    `json:"order_number"`
}

// NewOrderCreatedEvent creates a new OrderCreatedEvent for the order's kind
func NewOrderCreatedEvent(o *Order) *OrderCreatedEvent {
	eventType := EventTypeSalesOrderCreated
	if o.Kind == OrderKindPurchase {
		eventType = EventTypePurchaseOrderCreated
	}
	return &OrderCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, aggregateType(o.Kind), o.ID, o.TenantID),
		CompanyID:       o.CompanyID,
		OrderNumber:     o.OrderNumber,
	}
}

// OrderStatusChangedEvent is published on every status transition
type OrderStatusChangedEvent struct {
	shared.BaseDomainEvent
	CompanyID   uuid.UUID       `json:"company_id"`
	OrderNumber string          `json:"order_number"`
	OldStatus   OrderStatus     `json:"old_status"`
	NewStatus   OrderStatus     `json:"new_status"`
	TotalAmount decimal.Decimal `json:"total_amount"`
}

// NewOrderStatusChangedEvent creates a new OrderStatusChangedEvent
func NewOrderStatusChangedEvent(o *Order, oldStatus OrderStatus) *OrderStatusChangedEvent {
	eventType := EventTypeSalesOrderStatusChanged
	if o.Kind == OrderKindPurchase {
		eventType = EventTypePurchaseOrderStatusChanged
	}
	return &OrderStatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, aggregateType(o.Kind), o.ID, o.TenantID),
		CompanyID:       o.CompanyID,
		OrderNumber:     o.OrderNumber,
		OldStatus:       oldStatus,
		NewStatus:       o.Status,
		TotalAmount:     o.TotalAmount,
	}
}
