package identity

import (
	"strings"

	"github.com/erp/accounting/internal/domain/shared"
	"github.com/google/uuid"
)

// TenantStatus represents the lifecycle status of a tenant
type TenantStatus string

const (
	TenantStatusActive   TenantStatus = "active"
	TenantStatusInactive TenantStatus = "inactive"
)

// IsValid reports whether the status is known
func (s TenantStatus) IsValid() bool {
	return s == TenantStatusActive || s == TenantStatusInactive
}

// Tenant is the top-level isolation boundary. It owns companies.
type Tenant struct {
	shared.BaseAggregateRoot
	Code   string
	Name   string
	Status TenantStatus
}

// NewTenant creates a new active tenant
func NewTenant(code, name string) (*Tenant, error) {
	if err := validateTenantCode(code); err != nil {
		return nil, err
	}
	if err := validateTenantName(name); err != nil {
		return nil, err
	}

	tenant := &Tenant{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Code:              strings.ToUpper(code),
		Name:              strings.TrimSpace(name),
		Status:            TenantStatusActive,
	}
	tenant.AddDomainEvent(NewTenantCreatedEvent(tenant))
	return tenant, nil
}

// Rename changes the tenant display name
func (t *Tenant) Rename(name string) error {
	if err := validateTenantName(name); err != nil {
		return err
	}
	t.Name = strings.TrimSpace(name)
	t.Touch()
	t.IncrementVersion()
	return nil
}

// Activate activates the tenant
func (t *Tenant) Activate() error {
	if t.Status == TenantStatusActive {
		return shared.NewDomainError("ALREADY_ACTIVE", "Tenant is already active")
	}
	t.changeStatus(TenantStatusActive)
	return nil
}

// Deactivate deactivates the tenant
func (t *Tenant) Deactivate() error {
	if t.Status == TenantStatusInactive {
		return shared.NewDomainError("ALREADY_INACTIVE", "Tenant is already inactive")
	}
	t.changeStatus(TenantStatusInactive)
	return nil
}

func (t *Tenant) changeStatus(status TenantStatus) {
	old := t.Status
	t.Status = status
	t.Touch()
	t.IncrementVersion()
	t.AddDomainEvent(NewTenantStatusChangedEvent(t, old, status))
}

// IsActive reports whether the tenant may transact
func (t *Tenant) IsActive() bool {
	return t.Status == TenantStatusActive
}

// GetTenantID returns the tenant's own ID, tenants are their own scope
func (t *Tenant) GetTenantID() uuid.UUID {
	return t.ID
}

func validateTenantCode(code string) error {
	if code == "" {
		return shared.NewDomainError("INVALID_CODE", "Tenant code cannot be empty")
	}
	if len(code) > 50 {
		return shared.NewDomainError("INVALID_CODE", "Tenant code cannot exceed 50 characters")
	}
	for _, r := range code {
		if !((r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' || r == '-') {
			return shared.NewDomainError("INVALID_CODE", "Tenant code can only contain letters, numbers, underscores, and hyphens")
		}
	}
	return nil
}

func validateTenantName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return shared.NewDomainError("INVALID_NAME", "Tenant name cannot be empty")
	}
	if len(name) > 200 {
		return shared.NewDomainError("INVALID_NAME", "Tenant name cannot exceed 200 characters")
	}
	return nil
}
