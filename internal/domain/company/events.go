package company

import (
	"github.com/erp/accounting/internal/domain/shared"
	"github.com/google/uuid"
)

// AggregateTypeCompany is the aggregate type for company events
const AggregateTypeCompany = "Company"

// EventTypeCompanyCreated is raised after a company is registered
const EventTypeCompanyCreated = "CompanyCreated"

// CompanyCreatedEvent is published when a company is created
type CompanyCreatedEvent struct {
	shared.BaseDomainEvent
	Code string      `json:"code"`
	Name string      `json:"name"`
	Type CompanyType `json:"type"`
}

// NewCompanyCreatedEvent creates a new CompanyCreatedEvent
func NewCompanyCreatedEvent(c *Company) *CompanyCreatedEvent {
	return &CompanyCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeCompanyCreated, AggregateTypeCompany, c.ID, c.TenantID),
		Code:            c.Code,
		Name:            c.Name,
		Type:            c.Type,
	}
}

// AffectedCompanies implements shared.CompanyEvent
func (e *CompanyCreatedEvent) AffectedCompanies() []uuid.UUID {
	return []uuid.UUID{e.AggregateID()}
}

const (
	EventTypeCompanyUpdated       = "CompanyUpdated"
	EventTypeCompanyStatusChanged = "CompanyStatusChanged"
)

// CompanyUpdatedEvent is published when a company's name, type or profile changes
type CompanyUpdatedEvent struct {
	shared.BaseDomainEvent
	Name string      `json:"name"`
	Type CompanyType `json:"type"`
}

// NewCompanyUpdatedEvent creates a new CompanyUpdatedEvent
func NewCompanyUpdatedEvent(c *Company) *CompanyUpdatedEvent {
	return &CompanyUpdatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeCompanyUpdated, AggregateTypeCompany, c.ID, c.TenantID),
		Name:            c.Name,
		Type:            c.Type,
	}
}

// AffectedCompanies implements shared.CompanyEvent
func (e *CompanyUpdatedEvent) AffectedCompanies() []uuid.UUID {
	return []uuid.UUID{e.AggregateID()}
}

// CompanyStatusChangedEvent is published when a company is activated or deactivated
type CompanyStatusChangedEvent struct {
	shared.BaseDomainEvent
	IsActive bool `json:"is_active"`
}

// NewCompanyStatusChangedEvent creates a new CompanyStatusChangedEvent
func NewCompanyStatusChangedEvent(c *Company) *CompanyStatusChangedEvent {
	return &CompanyStatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeCompanyStatusChanged, AggregateTypeCompany, c.ID, c.TenantID),
		IsActive:        c.IsActive,
	}
}

// AffectedCompanies implements shared.CompanyEvent
func (e *CompanyStatusChangedEvent) AffectedCompanies() []uuid.UUID {
	return []uuid.UUID{e.AggregateID()}
}
