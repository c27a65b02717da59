package models

import (
	"time"

	"github.com/erp/accounting/internal/domain/trade"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderModel stores sales and purchase orders, told apart by Kind
type OrderModel struct {
	CompanyAggregateModel
	Kind                  trade.OrderKind   `gorm:"type:varchar(20);not null;index"`
	OrderNumber           string            `gorm:"type:varchar(50);not null;index"`
	CounterpartyCompanyID *uuid.UUID        `gorm:"type:uuid;index"`
	OrderDate             time.Time         `gorm:"not null"`
	Status                trade.OrderStatus `gorm:"type:varchar(20);not null;default:'draft';index"`
	TotalAmount           decimal.Decimal   `gorm:"type:decimal(18,4);not null;default:0"`
	IntercompanyID        *uuid.UUID        `gorm:"type:uuid;index"`
	Notes                 string            `gorm:"type:text"`
	ConfirmedAt           *time.Time
	CancelledAt           *time.Time
	CancelReason          string           `gorm:"type:varchar(500)"`
	Items                 []OrderItemModel `gorm:"foreignKey:OrderID"`
}

// TableName returns the table name for GORM
func (OrderModel) TableName() string {
	return "orders"
}

// OrderItemModel is one line of an order
type OrderItemModel struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey"`
	OrderID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductCode string          `gorm:"type:varchar(50);not null"`
	ProductName string          `gorm:"type:varchar(200);not null"`
	Quantity    decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Amount      decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	LineNo      int             `gorm:"not null"`
}

// TableName returns the table name for GORM
func (OrderItemModel) TableName() string {
	return "order_items"
}

// ToDomain converts the persistence model to a domain Order
func (m *OrderModel) ToDomain() trade.Order {
	o := trade.Order{
		CompanyAggregateRoot:  m.ToCompanyAggregate(),
		Kind:                  m.Kind,
		OrderNumber:           m.OrderNumber,
		CounterpartyCompanyID: m.CounterpartyCompanyID,
		OrderDate:             m.OrderDate,
		Status:                m.Status,
		TotalAmount:           m.TotalAmount,
		IntercompanyID:        m.IntercompanyID,
		Notes:                 m.Notes,
		ConfirmedAt:           m.ConfirmedAt,
		CancelledAt:           m.CancelledAt,
		CancelReason:          m.CancelReason,
		Items:                 make([]trade.OrderItem, 0, len(m.Items)),
	}
	for _, it := range m.Items {
		o.Items = append(o.Items, trade.OrderItem{
			ID:          it.ID,
			OrderID:     it.OrderID,
			ProductID:   it.ProductID,
			ProductCode: it.ProductCode,
			ProductName: it.ProductName,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			Amount:      it.Amount,
			LineNo:      it.LineNo,
		})
	}
	return o
}

// OrderModelFromDomain creates a persistence model from a domain Order
func OrderModelFromDomain(o *trade.Order) *OrderModel {
	m := &OrderModel{
		Kind:                  o.Kind,
		OrderNumber:           o.OrderNumber,
		CounterpartyCompanyID: o.CounterpartyCompanyID,
		OrderDate:             o.OrderDate,
		Status:                o.Status,
		TotalAmount:           o.TotalAmount,
		IntercompanyID:        o.IntercompanyID,
		Notes:                 o.Notes,
		ConfirmedAt:           o.ConfirmedAt,
		CancelledAt:           o.CancelledAt,
		CancelReason:          o.CancelReason,
		Items:                 make([]OrderItemModel, 0, len(o.Items)),
	}
	m.FromCompanyAggregate(o.CompanyAggregateRoot)
	for _, it := range o.Items {
		m.Items = append(m.Items, OrderItemModel{
			ID:          it.ID,
			OrderID:     o.ID,
			ProductID:   it.ProductID,
			ProductCode: it.ProductCode,
			ProductName: it.ProductName,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			Amount:      it.Amount,
			LineNo:      it.LineNo,
		})
	}
	return m
}
