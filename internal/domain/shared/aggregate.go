package shared

import (
	"github.com/google/uuid"
)

// AggregateRoot is the base interface for all aggregate roots
type AggregateRoot interface {
	Entity
	GetVersion() int
	IncrementVersion()
	AddDomainEvent(event DomainEvent)
	GetDomainEvents() []DomainEvent
	ClearDomainEvents()
}

// BaseAggregateRoot adds an optimistic locking version and pending events
type BaseAggregateRoot struct {
	BaseEntity
	Version      int
	domainEvents []DomainEvent
	// storedVersion is the version last read from or written to storage
	storedVersion int
}

// StoredVersion returns the version last read from or written to storage.
// For an aggregate that never touched storage it is the current version.
func (a *BaseAggregateRoot) StoredVersion() int {
	if a.storedVersion == 0 {
		return a.Version
	}
	return a.storedVersion
}

// MarkStored records the current version as the stored one. Repositories call it after reads and writes.
func (a *BaseAggregateRoot) MarkStored() {
	a.storedVersion = a.Version
}

// NextStoredVersion returns the version to write on an optimistic update.
// It always moves past the stored version even if no domain method bumped it.
func (a *BaseAggregateRoot) NextStoredVersion() int {
	if a.Version > a.StoredVersion() {
		return a.Version
	}
	return a.StoredVersion() + 1
}

// GetVersion returns the aggregate version
func (a *BaseAggregateRoot) GetVersion() int {
	return a.Version
}

// IncrementVersion increments the version number
func (a *BaseAggregateRoot) IncrementVersion() {
	a.Version++
}

// AddDomainEvent queues an event to be published after commit
func (a *BaseAggregateRoot) AddDomainEvent(event DomainEvent) {
	a.domainEvents = append(a.domainEvents, event)
}

// GetDomainEvents returns all pending domain events
func (a *BaseAggregateRoot) GetDomainEvents() []DomainEvent {
	return a.domainEvents
}

// ClearDomainEvents clears the pending domain events
func (a *BaseAggregateRoot) ClearDomainEvents() {
	a.domainEvents = nil
}

// NewBaseAggregateRoot creates a new base aggregate root at version 1
func NewBaseAggregateRoot() BaseAggregateRoot {
	return BaseAggregateRoot{
		BaseEntity:   NewBaseEntity(),
		Version:      1,
		domainEvents: make([]DomainEvent, 0),
	}
}

// TenantAggregateRoot is an aggregate root owned by a tenant
type TenantAggregateRoot struct {
	BaseAggregateRoot
	TenantID uuid.UUID
}

// NewTenantAggregateRoot creates a new tenant-scoped aggregate root
func NewTenantAggregateRoot(tenantID uuid.UUID) TenantAggregateRoot {
	return TenantAggregateRoot{
		BaseAggregateRoot: NewBaseAggregateRoot(),
		TenantID:          tenantID,
	}
}

// CompanyAggregateRoot is an aggregate root that lives inside one company's books
type CompanyAggregateRoot struct {
	TenantAggregateRoot
	CompanyID uuid.UUID
}

// NewCompanyAggregateRoot creates a new company-scoped aggregate root
func NewCompanyAggregateRoot(tenantID, companyID uuid.UUID) CompanyAggregateRoot {
	return CompanyAggregateRoot{
		TenantAggregateRoot: NewTenantAggregateRoot(tenantID),
		CompanyID:           companyID,
	}
}
