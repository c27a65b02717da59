package catalog

import (
	"strings"

	"github.com/erp/accounting/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductStatus represents whether a product can be ordered
type ProductStatus string

const (
	ProductStatusActive   ProductStatus = "active"
	ProductStatusInactive ProductStatus = "inactive"
)

// Product is an item a company sells or buys
type Product struct {
	shared.CompanyAggregateRoot
	Code          string
	Name          string
	Description   string
	Unit          string
	SalesPrice    decimal.Decimal
	PurchasePrice decimal.Decimal
	Status        ProductStatus
}

// NewProduct creates a product with its two list prices
func NewProduct(tenantID, companyID uuid.UUID, code, name string, salesPrice, purchasePrice decimal.Decimal) (*Product, error) {
	if companyID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_COMPANY", "Company ID cannot be empty")
	}
	if err := validateProductCode(code); err != nil {
		return nil, err
	}
	if err := validateProductName(name); err != nil {
		return nil, err
	}

	p := &Product{
		CompanyAggregateRoot: shared.NewCompanyAggregateRoot(tenantID, companyID),
		Code:                 strings.ToUpper(strings.TrimSpace(code)),
		Name:                 strings.TrimSpace(name),
		Unit:                 "pcs",
		Status:               ProductStatusActive,
	}
	if err := p.setPrices(salesPrice, purchasePrice); err != nil {
		return nil, err
	}
	p.AddDomainEvent(NewProductCreatedEvent(p))
	return p, nil
}

// Update changes descriptive fields
func (p *Product) Update(name, description, unit string) error {
	if err := validateProductName(name); err != nil {
		return err
	}
	p.Name = strings.TrimSpace(name)
	p.Description = strings.TrimSpace(description)
	if u := strings.TrimSpace(unit); u != "" {
		p.Unit = u
	}
	p.Touch()
	p.IncrementVersion()
	return nil
}

// UpdatePrices changes both list prices
func (p *Product) UpdatePrices(salesPrice, purchasePrice decimal.Decimal) error {
	if err := p.setPrices(salesPrice, purchasePrice); err != nil {
		return err
	}
	p.Touch()
	p.IncrementVersion()
	p.AddDomainEvent(NewProductPriceChangedEvent(p))
	return nil
}

func (p *Product) setPrices(salesPrice, purchasePrice decimal.Decimal) error {
	if salesPrice.IsNegative() || purchasePrice.IsNegative() {
		return shared.NewDomainError("INVALID_PRICE", "Prices cannot be negative")
	}
	p.SalesPrice = salesPrice.Round(4)
	p.PurchasePrice = purchasePrice.Round(4)
	return nil
}

// Deactivate stops the product from being ordered
func (p *Product) Deactivate() error {
	if p.Status == ProductStatusInactive {
		return shared.NewDomainError("ALREADY_INACTIVE", "Product is already inactive")
	}
	p.Status = ProductStatusInactive
	p.Touch()
	p.IncrementVersion()
	return nil
}

// Activate makes the product orderable again
func (p *Product) Activate() error {
	if p.Status == ProductStatusActive {
		return shared.NewDomainError("ALREADY_ACTIVE", "Product is already active")
	}
	p.Status = ProductStatusActive
	p.Touch()
	p.IncrementVersion()
	return nil
}

// IsActive reports whether the product can be ordered
func (p *Product) IsActive() bool {
	return p.Status == ProductStatusActive
}

// Margin returns sales price minus purchase price
func (p *Product) Margin() decimal.Decimal {
	return p.SalesPrice.Sub(p.PurchasePrice)
}

func validateProductCode(code string) error {
	code = strings.TrimSpace(code)
	if code == "" {
		return shared.NewDomainError("INVALID_CODE", "Product code cannot be empty")
	}
	if len(code) > 50 {
		return shared.NewDomainError("INVALID_CODE", "Product code cannot exceed 50 characters")
	}
	return nil
}

func validateProductName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return shared.NewDomainError("INVALID_NAME", "Product name cannot be empty")
	}
	if len(name) > 200 {
		return shared.NewDomainError("INVALID_NAME", "Product name cannot exceed 200 characters")
	}
	return nil
}
