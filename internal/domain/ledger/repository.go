package ledger

import (
	"context"
	"time"

	"github.com/erp/accounting/internal/domain/shared"
	"github.com/google/uuid"
)

// AccountRepository defines persistence for the chart of accounts
type AccountRepository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Account, error)
	FindByCompany(ctx context.Context, tenantID, companyID uuid.UUID, filter shared.Filter) ([]Account, error)
	CountByCompany(ctx context.Context, tenantID, companyID uuid.UUID, filter shared.Filter) (int64, error)
	// FindChart returns every account of the company, unpaginated
	FindChart(ctx context.Context, tenantID, companyID uuid.UUID) ([]Account, error)
	// FindByCodesForUpdate loads accounts by code and locks their rows until the transaction ends
	FindByCodesForUpdate(ctx context.Context, tenantID, companyID uuid.UUID, codes []string) ([]Account, error)
	ExistsByCode(ctx context.Context, tenantID, companyID uuid.UUID, code string) (bool, error)
	HasChildren(ctx context.Context, tenantID, id uuid.UUID) (bool, error)
	Save(ctx context.Context, account *Account) error
	SaveAll(ctx context.Context, accounts []*Account) error
	SaveWithLock(ctx context.Context, account *Account) error
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
}

// JournalEntryRepository defines persistence for journal entries
type JournalEntryRepository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*JournalEntry, error)
	FindByCompany(ctx context.Context, tenantID, companyID uuid.UUID, filter shared.Filter) ([]JournalEntry, error)
	CountByCompany(ctx context.Context, tenantID, companyID uuid.UUID, filter shared.Filter) (int64, error)
	FindBySource(ctx context.Context, tenantID uuid.UUID, source SourceType, sourceID uuid.UUID) ([]JournalEntry, error)
	HasPostings(ctx context.Context, tenantID, accountID uuid.UUID) (bool, error)
	// SumByAccount totals posted lines per account for entries dated in [from, to].
	// A zero from or to leaves that side open.
	SumByAccount(ctx context.Context, tenantID, companyID uuid.UUID, from, to time.Time) ([]AccountMovement, error)
	Save(ctx context.Context, entry *JournalEntry) error
	GenerateEntryNumber(ctx context.Context, tenantID, companyID uuid.UUID) (string, error)
}
