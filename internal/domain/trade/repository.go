package trade

import (
	"context"

	"github.com/erp/accounting/internal/domain/shared"
	"github.com/google/uuid"
)

// SalesOrderRepository defines persistence for sales orders
type SalesOrderRepository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*SalesOrder, error)
	FindByCompany(ctx context.Context, tenantID, companyID uuid.UUID, filter shared.Filter) ([]SalesOrder, error)
	CountByCompany(ctx context.Context, tenantID, companyID uuid.UUID, filter shared.Filter) (int64, error)
	SummarizeByStatus(ctx context.Context, tenantID, companyID uuid.UUID) ([]shared.StatusTotal, error)
	Save(ctx context.Context, order *SalesOrder) error
	SaveWithLock(ctx context.Context, order *SalesOrder) error
	GenerateOrderNumber(ctx context.Context, tenantID, companyID uuid.UUID) (string, error)
}

// PurchaseOrderRepository defines persistence for purchase orders
type PurchaseOrderRepository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*PurchaseOrder, error)
	FindByCompany(ctx context.Context, tenantID, companyID uuid.UUID, filter shared.Filter) ([]PurchaseOrder, error)
	CountByCompany(ctx context.Context, tenantID, companyID uuid.UUID, filter shared.Filter) (int64, error)
	SummarizeByStatus(ctx context.Context, tenantID, companyID uuid.UUID) ([]shared.StatusTotal, error)
	Save(ctx context.Context, order *PurchaseOrder) error
	SaveWithLock(ctx context.Context, order *PurchaseOrder) error
	GenerateOrderNumber(ctx context.Context, tenantID, companyID uuid.UUID) (string, error)
}
