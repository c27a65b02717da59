package models

import (
	"github.com/erp/accounting/internal/domain/catalog"
	"github.com/shopspring/decimal"
)

// ProductModel is the persistence model for the Product aggregate
type ProductModel struct {
	CompanyAggregateModel
	Code          string                `gorm:"type:varchar(50);not null;index"`
	Name          string                `gorm:"type:varchar(200);not null"`
	Description   string                `gorm:"type:text"`
	Unit          string                `gorm:"type:varchar(20);not null"`
	SalesPrice    decimal.Decimal       `gorm:"type:decimal(18,4);not null;default:0"`
	PurchasePrice decimal.Decimal       `gorm:"type:decimal(18,4);not null;default:0"`
	Status        catalog.ProductStatus `gorm:"type:varchar(20);not null;default:'active'"`
}

// TableName returns the table name for GORM
func (ProductModel) TableName() string {
	return "products"
}

// ToDomain converts the persistence model to a domain Product
func (m *ProductModel) ToDomain() *catalog.Product {
	return &catalog.Product{
		CompanyAggregateRoot: m.ToCompanyAggregate(),
		Code:                 m.Code,
		Name:                 m.Name,
		Description:          m.Description,
		Unit:                 m.Unit,
		SalesPrice:           m.SalesPrice,
		PurchasePrice:        m.PurchasePrice,
		Status:               m.Status,
	}
}

// ProductModelFromDomain creates a persistence model from a domain Product
func ProductModelFromDomain(p *catalog.Product) *ProductModel {
	m := &ProductModel{
		Code:          p.Code,
		Name:          p.Name,
		Description:   p.Description,
		Unit:          p.Unit,
		SalesPrice:    p.SalesPrice,
		PurchasePrice: p.PurchasePrice,
		Status:        p.Status,
	}
	m.FromCompanyAggregate(p.CompanyAggregateRoot)
	return m
}
