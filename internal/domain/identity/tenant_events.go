package identity

import (
	"github.com/erp/accounting/internal/domain/shared"
)

// AggregateTypeTenant is the aggregate type for tenant events
const AggregateTypeTenant = "Tenant"

const (
	EventTypeTenantCreated       = "TenantCreated"
	EventTypeTenantStatusChanged = "TenantStatusChanged"
)

// TenantCreatedEvent is published when a new tenant is created
type TenantCreatedEvent struct {
	shared.BaseDomainEvent
	Code string `json:"code"`
	Name string `json:"name"`
}

// NewTenantCreatedEvent creates a new TenantCreatedEvent
func NewTenantCreatedEvent(tenant *Tenant) *TenantCreatedEvent {
	return &TenantCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeTenantCreated, AggregateTypeTenant, tenant.ID, tenant.ID),
		Code:            tenant.Code,
		Name:            tenant.Name,
	}
}

// TenantStatusChangedEvent is published when a tenant is activated or deactivated
type TenantStatusChangedEvent struct {
	shared.BaseDomainEvent
	OldStatus TenantStatus `json:"old_status"`
	NewStatus TenantStatus `json:"new_status"`
}

// NewTenantStatusChangedEvent creates a new TenantStatusChangedEvent
func NewTenantStatusChangedEvent(tenant *Tenant, oldStatus, newStatus TenantStatus) *TenantStatusChangedEvent {
	return &TenantStatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeTenantStatusChanged, AggregateTypeTenant, tenant.ID, tenant.ID),
		OldStatus:       oldStatus,
		NewStatus:       newStatus,
	}
}
