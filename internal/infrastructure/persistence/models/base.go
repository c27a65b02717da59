package models

import (
	"time"

	"github.com/erp/accounting/internal/domain/shared"
	"github.com/google/uuid"
)

// BaseModel provides common persistence fields for all models
type BaseModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// AggregateModel extends BaseModel with the optimistic locking version
type AggregateModel struct {
	BaseModel
	Version int `gorm:"not null;default:1"`
}

// FromAggregate copies identity, timestamps and version from a domain aggregate
func (m *AggregateModel) FromAggregate(a shared.BaseAggregateRoot) {
	m.ID = a.ID
	m.CreatedAt = a.CreatedAt
	m.UpdatedAt = a.UpdatedAt
	m.Version = a.Version
}

// ToAggregate rebuilds the domain aggregate base, marked as stored at the row's version
func (m *AggregateModel) ToAggregate() shared.BaseAggregateRoot {
	a := shared.BaseAggregateRoot{
		BaseEntity: shared.BaseEntity{ID: m.ID, CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		Version:    m.Version,
	}
	a.MarkStored()
	return a
}

// TenantAggregateModel is an aggregate owned by a tenant
type TenantAggregateModel struct {
	AggregateModel
	TenantID uuid.UUID `gorm:"type:uuid;not null;index"`
}

// FromTenantAggregate copies a tenant-scoped aggregate base
func (m *TenantAggregateModel) FromTenantAggregate(a shared.TenantAggregateRoot) {
	m.FromAggregate(a.BaseAggregateRoot)
	m.TenantID = a.TenantID
}

// ToTenantAggregate rebuilds a tenant-scoped aggregate base
func (m *TenantAggregateModel) ToTenantAggregate() shared.TenantAggregateRoot {
	return shared.TenantAggregateRoot{BaseAggregateRoot: m.ToAggregate(), TenantID: m.TenantID}
}

// CompanyAggregateModel is an aggregate that lives in one company's books
type CompanyAggregateModel struct {
	TenantAggregateModel
	CompanyID uuid.UUID `gorm:"type:uuid;not null;index"`
}

// FromCompanyAggregate copies a company-scoped aggregate base
func (m *CompanyAggregateModel) FromCompanyAggregate(a shared.CompanyAggregateRoot) {
	m.FromTenantAggregate(a.TenantAggregateRoot)
	m.CompanyID = a.CompanyID
}

// ToCompanyAggregate rebuilds a company-scoped aggregate base
func (m *CompanyAggregateModel) ToCompanyAggregate() shared.CompanyAggregateRoot {
	return shared.CompanyAggregateRoot{TenantAggregateRoot: m.ToTenantAggregate(), CompanyID: m.CompanyID}
}
