package company

import (
	"context"

	"github.com/erp/accounting/internal/domain/shared"
	"github.com/google/uuid"
)

// CompanyRepository defines persistence for companies
type CompanyRepository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Company, error)
	// FindByIDsForTenant returns the companies found, silently skipping unknown IDs
	FindByIDsForTenant(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]Company, error)
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]Company, error)
	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error)
	ExistsByCode(ctx context.Context, tenantID uuid.UUID, code string) (bool, error)
	Save(ctx context.Context, company *Company) error
	SaveWithLock(ctx context.Context, company *Company) error
}
