package trade

import (
	"strings"
	"time"

	"github.com/erp/accounting/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderKind tells sales orders and purchase orders apart
type OrderKind string

const (
	OrderKindSales    OrderKind = "sales"
	OrderKindPurchase OrderKind = "purchase"
)

// OrderStatus represents the lifecycle status of an order
type OrderStatus string

const (
	OrderStatusDraft     OrderStatus = "draft"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusInvoiced  OrderStatus = "invoiced"
	OrderStatusBilled    OrderStatus = "billed"
	OrderStatusClosed    OrderStatus = "closed"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// IsValid checks if the status is a valid OrderStatus
func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusDraft, OrderStatusConfirmed, OrderStatusInvoiced, OrderStatusBilled, OrderStatusClosed, OrderStatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of OrderStatus
func (s OrderStatus) String() string {
	return string(s)
}

// CanTransitionTo checks if the status can move to target
func (s OrderStatus) CanTransitionTo(target OrderStatus) bool {
	switch s {
	case OrderStatusDraft:
		return target == OrderStatusConfirmed || target == OrderStatusCancelled
	case OrderStatusConfirmed:
		return target == OrderStatusInvoiced || target == OrderStatusBilled || target == OrderStatusCancelled
	case OrderStatusInvoiced, OrderStatusBilled:
		return target == OrderStatusClosed
	}
	return false
}

// IsTerminal reports whether no further transitions are possible
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusClosed || s == OrderStatusCancelled
}

// OrderItem is a line on a sales or purchase order
type OrderItem struct {
	ID          uuid.UUID
	OrderID     uuid.UUID
	ProductID   uuid.UUID
	ProductCode string
	ProductName string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
	Amount      decimal.Decimal
	LineNo      int
}

// Order holds what sales and purchase orders have in common
type Order struct {
	shared.CompanyAggregateRoot
	Kind                  OrderKind
	OrderNumber           string
	CounterpartyCompanyID *uuid.UUID
	OrderDate             time.Time
	Status                OrderStatus
	TotalAmount           decimal.Decimal
	IntercompanyID        *uuid.UUID
	Notes                 string
	Items                 []OrderItem
	ConfirmedAt           *time.Time
	CancelledAt           *time.Time
	CancelReason          string
}

func newOrder(kind OrderKind, tenantID, companyID uuid.UUID, orderNumber string, orderDate time.Time) (Order, error) {
	if companyID == uuid.Nil {
		return Order{}, shared.NewDomainError("INVALID_COMPANY", "Company ID cannot be empty")
	}
	if strings.TrimSpace(orderNumber) == "" {
		return Order{}, shared.NewDomainError("INVALID_ORDER_NUMBER", "Order number cannot be empty")
	}
	if orderDate.IsZero() {
		orderDate = time.Now()
	}
	return Order{
		CompanyAggregateRoot: shared.NewCompanyAggregateRoot(tenantID, companyID),
		Kind:                 kind,
		OrderNumber:          orderNumber,
		OrderDate:            orderDate,
		Status:               OrderStatusDraft,
		TotalAmount:          decimal.Zero,
		Items:                make([]OrderItem, 0),
	}, nil
}

// SetCounterparty links the order to another company of the same tenant
func (o *Order) SetCounterparty(companyID uuid.UUID) error {
	if !o.CanModify() {
		return shared.NewDomainError("INVALID_STATE", "Counterparty can only be changed on a draft order")
	}
	if companyID == o.CompanyID {
		return shared.NewDomainError("SAME_COMPANY", "Counterparty must be a different company")
	}
	if companyID == uuid.Nil {
		o.CounterpartyCompanyID = nil
		return nil
	}
	id := companyID
	o.CounterpartyCompanyID = &id
	return nil
}

// AddItem appends a line and recalculates the total
func (o *Order) AddItem(productID uuid.UUID, productCode, productName string, quantity, unitPrice decimal.Decimal) (*OrderItem, error) {
	if !o.CanModify() {
		return nil, shared.NewDomainError("INVALID_STATE", "Items can only be changed on a draft order")
	}
	if productID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PRODUCT", "Product ID cannot be empty")
	}
	if !quantity.IsPositive() {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}
	if unitPrice.IsNegative() {
		return nil, shared.NewDomainError("INVALID_PRICE", "Unit price cannot be negative")
	}

	item := OrderItem{
		ID:          uuid.New(),
		OrderID:     o.ID,
		ProductID:   productID,
		ProductCode: productCode,
		ProductName: productName,
		Quantity:    quantity,
		UnitPrice:   unitPrice,
		Amount:      quantity.Mul(unitPrice).Round(2),
		LineNo:      len(o.Items) + 1,
	}
	o.Items = append(o.Items, item)
	o.recalculateTotal()
	return &o.Items[len(o.Items)-1], nil
}

// RemoveItem deletes a line from a draft order
func (o *Order) RemoveItem(itemID uuid.UUID) error {
	if !o.CanModify() {
		return shared.NewDomainError("INVALID_STATE", "Items can only be changed on a draft order")
	}
	for i := range o.Items {
		if o.Items[i].ID == itemID {
			o.Items = append(o.Items[:i], o.Items[i+1:]...)
			for j := range o.Items {
				o.Items[j].LineNo = j + 1
			}
			o.recalculateTotal()
			return nil
		}
	}
	return shared.NewDomainError("ITEM_NOT_FOUND", "Order item not found")
}

func (o *Order) recalculateTotal() {
	total := decimal.Zero
	for _, item := range o.Items {
		total = total.Add(item.Amount)
	}
	o.TotalAmount = total
	o.Touch()
}

func (o *Order) transition(target OrderStatus) error {
	if !o.Status.CanTransitionTo(target) {
		return shared.NewDomainError("INVALID_STATE",
			"Cannot move "+string(o.Kind)+" order from "+o.Status.String()+" to "+target.String())
	}
	o.Status = target
	o.Touch()
	o.IncrementVersion()
	return nil
}

func (o *Order) confirm() error {
	if len(o.Items) == 0 {
		return shared.NewDomainError("EMPTY_ORDER", "Order needs at least one item")
	}
	if err := o.transition(OrderStatusConfirmed); err != nil {
		return err
	}
	now := time.Now()
	o.ConfirmedAt = &now
	return nil
}

func (o *Order) cancel(reason string, viaIntercompany bool) error {
	if o.IntercompanyID != nil && !viaIntercompany {
		return shared.NewDomainError("INTERCOMPANY_ORDER", "Intercompany orders are cancelled through their intercompany transaction")
	}
	if err := o.transition(OrderStatusCancelled); err != nil {
		return err
	}
	now := time.Now()
	o.CancelledAt = &now
	o.CancelReason = reason
	return nil
}

// Close marks the order fully settled
func (o *Order) Close() error {
	return o.transition(OrderStatusClosed)
}

// LinkIntercompany records the intercompany transaction that owns this order
func (o *Order) LinkIntercompany(txnID uuid.UUID) {
	id := txnID
	o.IntercompanyID = &id
}

// CanModify reports whether lines may still change
func (o *Order) CanModify() bool {
	return o.Status == OrderStatusDraft
}

// IsIntercompany reports whether the order is one side of an intercompany pair
func (o *Order) IsIntercompany() bool {
	return o.IntercompanyID != nil
}

// TotalQuantity sums the quantities of all lines
func (o *Order) TotalQuantity() decimal.Decimal {
	total := decimal.Zero
	for _, item := range o.Items {
		total = total.Add(item.Quantity)
	}
	return total
}

// IntercompanyCancelReason is recorded on both orders when their intercompany pair is cancelled
const IntercompanyCancelReason = "intercompany transaction cancelled"
