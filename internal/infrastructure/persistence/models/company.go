package models

import "github.com/erp/accounting/internal/domain/company"

// CompanyModel is the persistence model for the Company aggregate
type CompanyModel struct {
	TenantAggregateModel
	Code     string              `gorm:"type:varchar(50);not null;index"`
	Name     string              `gorm:"type:varchar(200);not null"`
	Type     company.CompanyType `gorm:"type:varchar(20);not null"`
	Currency string              `gorm:"type:varchar(3);not null"`
	Phone    string              `gorm:"type:varchar(30)"`
	Email    string              `gorm:"type:varchar(200)"`
	Address  string              `gorm:"type:text"`
	IsActive bool                `gorm:"not null;default:true"`
}

// TableName returns the table name for GORM
func (CompanyModel) TableName() string {
	return "companies"
}

// ToDomain converts the persistence model to a domain Company
func (m *CompanyModel) ToDomain() *company.Company {
	return &company.Company{
		TenantAggregateRoot: m.ToTenantAggregate(),
		Code:                m.Code,
		Name:                m.Name,
		Type:                m.Type,
		Currency:            m.Currency,
		Phone:               m.Phone,
		Email:               m.Email,
		Address:             m.Address,
		IsActive:            m.IsActive,
	}
}

// CompanyModelFromDomain creates a persistence model from a domain Company
func CompanyModelFromDomain(c *company.Company) *CompanyModel {
	m := &CompanyModel{
		Code:     c.Code,
		Name:     c.Name,
		Type:     c.Type,
		Currency: c.Currency,
		Phone:    c.Phone,
		Email:    c.Email,
		Address:  c.Address,
		IsActive: c.IsActive,
	}
	m.FromTenantAggregate(c.TenantAggregateRoot)
	return m
}
