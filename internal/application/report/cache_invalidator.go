package report

import (
	"context"

	"github.com/erp/accounting/internal/domain/company"
	"github.com/erp/accounting/internal/domain/ledger"
	"github.com/erp/accounting/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CacheInvalidator drops cached reports of companies whose ledgers, charts or status changed
type CacheInvalidator struct {
	cache  Cache
	logger *zap.Logger
}

// NewCacheInvalidator creates a handler to subscribe on the event bus
func NewCacheInvalidator(cache Cache, logger *zap.Logger) *CacheInvalidator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CacheInvalidator{cache: cache, logger: logger}
}

// EventTypes implements shared.EventHandler
func (h *CacheInvalidator) EventTypes() []string {
	return []string{
		ledger.EventTypeJournalEntryPosted,
		ledger.EventTypeAccountChanged,
		company.EventTypeCompanyCreated,
		company.EventTypeCompanyUpdated,
		company.EventTypeCompanyStatusChanged,
	}
}

// Handle implements shared.EventHandler. Every change also stales the tenant's
// consolidated reports, whose default scope is all active companies.
func (h *CacheInvalidator) Handle(ctx context.Context, event shared.DomainEvent) error {
	if h.cache == nil {
		return nil
	}
	ce, ok := event.(shared.CompanyEvent)
	if !ok {
		return nil
	}
	return h.Invalidate(ctx, event.TenantID(), ce.AffectedCompanies()...)
}

// Invalidate drops the cached reports of the given companies
func (h *CacheInvalidator) Invalidate(ctx context.Context, tenantID uuid.UUID, companyIDs ...uuid.UUID) error {
	prefixes := make([]string, 0, len(companyIDs)+1)
	for _, id := range companyIDs {
		prefixes = append(prefixes, CompanyPrefix(tenantID, id))
	}
	prefixes = append(prefixes, ConsolidatedPrefix(tenantID))

	for _, prefix := range prefixes {
		if err := h.cache.DeletePrefix(ctx, prefix); err != nil {
			h.logger.Warn("Failed to invalidate report cache",
				zap.String("prefix", prefix),
				zap.Error(err))
			return err
		}
	}
	return nil
}
