package catalog

import (
	"github.com/erp/accounting/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const AggregateTypeProduct = "Product"

const (
	EventTypeProductCreated      = "ProductCreated"
	EventTypeProductPriceChanged = "ProductPriceChanged"
)

// ProductCreatedEvent is published when a product is created
type ProductCreatedEvent struct {
	shared.BaseDomainEvent
	CompanyID uuid.UUID `json:"company_id"`
	Code      string    `json:"code"`
	Name      string    `json:"name"`
}

// NewProductCreatedEvent creates a new ProductCreatedEvent
func NewProductCreatedEvent(p *Product) *ProductCreatedEvent {
	return &ProductCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeProductCreated, AggregateTypeProduct, p.ID, p.TenantID),
		CompanyID:       p.CompanyID,
		Code:            p.Code,
		Name:            p.Name,
	}
}

// ProductPriceChangedEvent is published when list prices change
type ProductPriceChangedEvent struct {
	shared.BaseDomainEvent
	CompanyID     uuid.UUID       `json:"company_id"`
	SalesPrice    decimal.Decimal `json:"sales_price"`
	PurchasePrice decimal.Decimal `json:"purchase_price"`
}

// NewProductPriceChangedEvent creates a new ProductPriceChangedEvent
func NewProductPriceChangedEvent(p *Product) *ProductPriceChangedEvent {
	return &ProductPriceChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeProductPriceChanged, AggregateTypeProduct, p.ID, p.TenantID),
		CompanyID:       p.CompanyID,
		SalesPrice:      p.SalesPrice,
		PurchasePrice:   p.PurchasePrice,
	}
}
