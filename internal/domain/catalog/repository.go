package catalog

import (
	"context"

	"github.com/erp/accounting/internal/domain/shared"
	"github.com/google/uuid"
)

// ProductRepository defines persistence for products
type ProductRepository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Product, error)
	FindByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]Product, error)
	FindByCode(ctx context.Context, tenantID, companyID uuid.UUID, code string) (*Product, error)
	FindByCompany(ctx context.Context, tenantID, companyID uuid.UUID, filter shared.Filter) ([]Product, error)
	CountByCompany(ctx context.Context, tenantID, companyID uuid.UUID, filter shared.Filter) (int64, error)
	ExistsByCode(ctx context.Context, tenantID, companyID uuid.UUID, code string) (bool, error)
	Save(ctx context.Context, product *Product) error
	SaveWithLock(ctx context.Context, product *Product) error
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
	// IsReferenced reports whether any order line points at the product
	IsReferenced(ctx context.Context, tenantID, id uuid.UUID) (bool, error)
}
