package intercompany

import (
	"context"

	"github.com/erp/accounting/internal/domain/shared"
	"github.com/google/uuid"
)

// TransactionRepository defines persistence for intercompany transactions
type TransactionRepository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Transaction, error)
	FindByIdempotencyKey(ctx context.Context, tenantID uuid.UUID, key string) (*Transaction, error)
	// FindAllForTenant supports filters "company_id" (either side), "status", "source_company_id", "target_company_id"
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]Transaction, error)
	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error)
	FindBetween(ctx context.Context, tenantID, companyA, companyB uuid.UUID) ([]Transaction, error)
	Save(ctx context.Context, txn *Transaction) error
	SaveWithLock(ctx context.Context, txn *Transaction) error
	GenerateNumber(ctx context.Context, tenantID uuid.UUID) (string, error)
}
