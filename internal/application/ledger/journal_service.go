package ledger

import (
	"context"

	"github.com/erp/accounting/internal/application/event"
	"github.com/erp/accounting/internal/application/txscope"
	"github.com/erp/accounting/internal/domain/ledger"
	"github.com/erp/accounting/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// JournalService posts manual journal entries and reads the journal
type JournalService struct {
	scope          txscope.TransactionScope
	repos          txscope.Repositories
	poster         *Poster
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// NewJournalService creates a new JournalService
func NewJournalService(scope txscope.TransactionScope, repos txscope.Repositories, poster *Poster, logger *zap.Logger) *JournalService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if poster == nil {
		poster = NewPoster()
	}
	return &JournalService{scope: scope, repos: repos, poster: poster, logger: logger}
}

// SetEventPublisher sets the publisher that receives posting events after commit
func (s *JournalService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// Post records a balanced manual entry and moves the account balances in one transaction
func (s *JournalService) Post(ctx context.Context, tenantID, companyID uuid.UUID, req CreateJournalEntryRequest) (*JournalEntryResponse, error) {
	entry, err := ledger.NewJournalEntry(tenantID, companyID, req.EntryDate, req.Description, ledger.SourceManual, nil)
	if err != nil {
		return nil, err
	}
	for _, line := range req.Lines {
		switch {
		case line.Debit.IsPositive() && line.Credit.IsPositive():
			return nil, shared.NewDomainError("INVALID_AMOUNT", "A journal line is either a debit or a credit")
		case line.Debit.IsPositive():
			err = entry.Debit(line.AccountCode, line.Debit, line.Memo)
		default:
			err = entry.Credit(line.AccountCode, line.Credit, line.Memo)
		}
		if err != nil {
			return nil, err
		}
	}
	if err := entry.Validate(); err != nil {
		return nil, err
	}

	collector := event.NewCollector()
	err = s.scope.Execute(ctx, func(repos txscope.Repositories) error {
		collector.Reset()
		if _, err := repos.Companies().FindByIDForTenant(ctx, tenantID, companyID); err != nil {
			return err
		}
		if err := s.poster.Post(ctx, repos, entry); err != nil {
			return err
		}
		collector.Collect(entry)
		return nil
	})
	if err != nil {
		return nil, err
	}
	collector.Publish(ctx, s.eventPublisher, s.logger)

	s.logger.Info("Journal entry posted",
		zap.String("tenant_id", tenantID.String()),
		zap.String("company_id", companyID.String()),
		zap.String("entry_number", entry.EntryNumber),
		zap.String("amount", entry.TotalDebit().StringFixed(2)))

	response := ToJournalEntryResponse(entry)
	return &response, nil
}

// GetByID retrieves a journal entry of a company
func (s *JournalService) GetByID(ctx context.Context, tenantID, companyID, entryID uuid.UUID) (*JournalEntryResponse, error) {
	entry, err := s.repos.Journals().FindByIDForTenant(ctx, tenantID, entryID)
	if err != nil {
		return nil, err
	}
	if entry.CompanyID != companyID {
		return nil, shared.ErrNotFound
	}
	response := ToJournalEntryResponse(entry)
	return &response, nil
}

// List retrieves a page of a company's journal entries
func (s *JournalService) List(ctx context.Context, tenantID, companyID uuid.UUID, filter JournalEntryListFilter) ([]JournalEntryResponse, int64, error) {
	sf := filter.ToSharedFilter()
	entries, err := s.repos.Journals().FindByCompany(ctx, tenantID, companyID, sf)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.repos.Journals().CountByCompany(ctx, tenantID, companyID, sf)
	if err != nil {
		return nil, 0, err
	}
	out := make([]JournalEntryResponse, len(entries))
	for i := range entries {
		out[i] = ToJournalEntryResponse(&entries[i])
	}
	return out, total, nil
}

// ListBySource returns the entries a document produced
func (s *JournalService) ListBySource(ctx context.Context, tenantID uuid.UUID, source ledger.SourceType, sourceID uuid.UUID) ([]JournalEntryResponse, error) {
	entries, err := s.repos.Journals().FindBySource(ctx, tenantID, source, sourceID)
	if err != nil {
		return nil, err
	}
	out := make([]JournalEntryResponse, len(entries))
	for i := range entries {
		out[i] = ToJournalEntryResponse(&entries[i])
	}
	return out, nil
}
