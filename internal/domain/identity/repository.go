package identity

import (
	"context"

	"github.com/erp/accounting/internal/domain/shared"
	"github.com/google/uuid"
)

// TenantRepository defines persistence for tenants
type TenantRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Tenant, error)
	FindByCode(ctx context.Context, code string) (*Tenant, error)
	FindAll(ctx context.Context, filter shared.Filter) ([]Tenant, error)
	Count(ctx context.Context, filter shared.Filter) (int64, error)
	// FindActiveIDs lists every active tenant, used by scheduled jobs
	FindActiveIDs(ctx context.Context) ([]uuid.UUID, error)
	ExistsByCode(ctx context.Context, code string) (bool, error)
	Save(ctx context.Context, tenant *Tenant) error
	// SaveWithLock saves with an optimistic version check
	SaveWithLock(ctx context.Context, tenant *Tenant) error
}

// UserRepository defines persistence for API users
type UserRepository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*User, error)
	FindByUsername(ctx context.Context, tenantID uuid.UUID, username string) (*User, error)
	ExistsByUsername(ctx context.Context, tenantID uuid.UUID, username string) (bool, error)
	Save(ctx context.Context, user *User) error
}
