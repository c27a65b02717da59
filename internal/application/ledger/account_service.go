package ledger

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/erp/accounting/internal/application/event"
	"github.com/erp/accounting/internal/application/txscope"
	"github.com/erp/accounting/internal/domain/ledger"
	"github.com/erp/accounting/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ChartSeeder creates a company's starting chart of accounts from a template
type ChartSeeder struct {
	template *ledger.ChartTemplate
}

// NewChartSeeder creates a seeder for the given template; nil uses the embedded default chart
func NewChartSeeder(template *ledger.ChartTemplate) *ChartSeeder {
	if template == nil {
		template = ledger.DefaultChartTemplate()
	}
	return &ChartSeeder{template: template}
}

// LoadChartSeeder reads a YAML template from path, falling back to the default chart when path is empty
func LoadChartSeeder(path string) (*ChartSeeder, error) {
	if path == "" {
		return NewChartSeeder(nil), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read chart template: %w", err)
	}
	tpl, err := ledger.ParseChartTemplate(data)
	if err != nil {
		return nil, err
	}
	return NewChartSeeder(tpl), nil
}

// SeedDefaultChart stores the template's accounts for a company.
// It is meant to run in the same transaction that creates the company.
func (s *ChartSeeder) SeedDefaultChart(ctx context.Context, accounts ledger.AccountRepository, tenantID, companyID uuid.UUID) (int, error) {
	created, err := s.template.Instantiate(tenantID, companyID)
	if err != nil {
		return 0, err
	}
	if err := accounts.SaveAll(ctx, created); err != nil {
		return 0, err
	}
	return len(created), nil
}

// AccountService handles chart of accounts operations
type AccountService struct {
	scope          txscope.TransactionScope
	repos          txscope.Repositories
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// NewAccountService creates a new AccountService
func NewAccountService(scope txscope.TransactionScope, repos txscope.Repositories, logger *zap.Logger) *AccountService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AccountService{scope: scope, repos: repos, logger: logger}
}

// SetEventPublisher sets the publisher for chart change events
func (s *AccountService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// ListAccountTypes returns the five account types with their normal balance side
func (s *AccountService) ListAccountTypes() []ledger.AccountTypeInfo {
	return ledger.AllAccountTypes()
}

// Create adds an account to a company's chart
func (s *AccountService) Create(ctx context.Context, tenantID, companyID uuid.UUID, req CreateAccountRequest) (*AccountResponse, error) {
	if _, err := s.repos.Companies().FindByIDForTenant(ctx, tenantID, companyID); err != nil {
		return nil, err
	}

	code := strings.TrimSpace(req.Code)
	exists, err := s.repos.Accounts().ExistsByCode(ctx, tenantID, companyID, code)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.NewDomainError("ALREADY_EXISTS", "Account with this code already exists")
	}

	var parent *ledger.Account
	if req.ParentID != nil {
		parent, err = s.repos.Accounts().FindByIDForTenant(ctx, tenantID, *req.ParentID)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return nil, shared.NewDomainError("INVALID_PARENT", "Parent account not found")
			}
			return nil, err
		}
	}

	var account *ledger.Account
	if req.IsHeader {
		account, err = ledger.NewHeaderAccount(tenantID, companyID, code, req.Name, req.Type, parent)
	} else {
		account, err = ledger.NewAccount(tenantID, companyID, code, req.Name, req.Type, parent)
	}
	if err != nil {
		return nil, err
	}
	if req.Description != "" {
		if err := account.Update(account.Name, req.Description); err != nil {
			return nil, err
		}
	}

	account.ClearDomainEvents()
	account.AddDomainEvent(ledger.NewAccountChangedEvent(account, ledger.AccountChangeCreated))
	if err := s.repos.Accounts().Save(ctx, account); err != nil {
		return nil, err
	}
	collector := event.NewCollector()
	collector.Collect(account)
	collector.Publish(ctx, s.eventPublisher, s.logger)

	s.logger.Info("Account created",
		zap.String("tenant_id", tenantID.String()),
		zap.String("company_id", companyID.String()),
		zap.String("code", account.Code))

	response := ToAccountResponse(account)
	return &response, nil
}

// GetByID retrieves an account of a company
func (s *AccountService) GetByID(ctx context.Context, tenantID, companyID, accountID uuid.UUID) (*AccountResponse, error) {
	account, err := s.find(ctx, tenantID, companyID, accountID)
	if err != nil {
		return nil, err
	}
	response := ToAccountResponse(account)
	return &response, nil
}

// List retrieves a page of a company's accounts
func (s *AccountService) List(ctx context.Context, tenantID, companyID uuid.UUID, filter AccountListFilter) ([]AccountResponse, int64, error) {
	sf := filter.ToSharedFilter()
	accounts, err := s.repos.Accounts().FindByCompany(ctx, tenantID, companyID, sf)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.repos.Accounts().CountByCompany(ctx, tenantID, companyID, sf)
	if err != nil {
		return nil, 0, err
	}
	return ToAccountResponses(accounts), total, nil
}

// Tree returns the chart as nested nodes with balances rolled up into headers
func (s *AccountService) Tree(ctx context.Context, tenantID, companyID uuid.UUID) ([]*AccountTreeNode, error) {
	accounts, err := s.repos.Accounts().FindChart(ctx, tenantID, companyID)
	if err != nil {
		return nil, err
	}
	return toTreeNodes(ledger.BuildTree(accounts)), nil
}

// Update changes an account's name, description or active flag
func (s *AccountService) Update(ctx context.Context, tenantID, companyID, accountID uuid.UUID, req UpdateAccountRequest) (*AccountResponse, error) {
	var account *ledger.Account
	collector := event.NewCollector()
	err := s.scope.Execute(ctx, func(repos txscope.Repositories) error {
		collector.Reset()
		var err error
		account, err = findAccount(ctx, repos, tenantID, companyID, accountID)
		if err != nil {
			return err
		}
		if req.Name != nil || req.Description != nil {
			name, description := account.Name, account.Description
			if req.Name != nil {
				name = *req.Name
			}
			if req.Description != nil {
				description = *req.Description
			}
			if err := account.Update(name, description); err != nil {
				return err
			}
		}
		if req.IsActive != nil && *req.IsActive != account.IsActive {
			if err := account.SetActive(*req.IsActive); err != nil {
				return err
			}
		}
		if err := repos.Accounts().SaveWithLock(ctx, account); err != nil {
			return err
		}
		collector.Collect(account)
		return nil
	})
	if err != nil {
		return nil, err
	}
	collector.Publish(ctx, s.eventPublisher, s.logger)
	response := ToAccountResponse(account)
	return &response, nil
}

// Delete removes an account that has no balance, children or postings
func (s *AccountService) Delete(ctx context.Context, tenantID, companyID, accountID uuid.UUID) error {
	collector := event.NewCollector()
	err := s.scope.Execute(ctx, func(repos txscope.Repositories) error {
		collector.Reset()
		account, err := findAccount(ctx, repos, tenantID, companyID, accountID)
		if err != nil {
			return err
		}
		hasChildren, err := repos.Accounts().HasChildren(ctx, tenantID, accountID)
		if err != nil {
			return err
		}
		hasPostings, err := repos.Journals().HasPostings(ctx, tenantID, accountID)
		if err != nil {
			return err
		}
		if err := account.CheckDeletable(hasChildren, hasPostings); err != nil {
			return err
		}
		if err := repos.Accounts().Delete(ctx, tenantID, accountID); err != nil {
			return err
		}
		s.logger.Info("Account deleted",
			zap.String("tenant_id", tenantID.String()),
			zap.String("company_id", companyID.String()),
			zap.String("code", account.Code))
		collector.Add(ledger.NewAccountChangedEvent(account, ledger.AccountChangeDeleted))
		return nil
	})
	if err != nil {
		return err
	}
	collector.Publish(ctx, s.eventPublisher, s.logger)
	return nil
}

// TrialBalance lists debit and credit balances per account.
// A non-zero asOf computes balances from postings dated on or before it.
func (s *AccountService) TrialBalance(ctx context.Context, tenantID, companyID uuid.UUID, asOf time.Time) (*TrialBalanceResponse, error) {
	if _, err := s.repos.Companies().FindByIDForTenant(ctx, tenantID, companyID); err != nil {
		return nil, err
	}
	accounts, err := s.repos.Accounts().FindChart(ctx, tenantID, companyID)
	if err != nil {
		return nil, err
	}
	if !asOf.IsZero() {
		movements, err := s.repos.Journals().SumByAccount(ctx, tenantID, companyID, time.Time{}, asOf)
		if err != nil {
			return nil, err
		}
		accounts = ledger.WithMovements(accounts, movements)
	}
	return ToTrialBalanceResponse(ledger.BuildTrialBalance(companyID, accounts)), nil
}

func (s *AccountService) find(ctx context.Context, tenantID, companyID, accountID uuid.UUID) (*ledger.Account, error) {
	return findAccount(ctx, s.repos, tenantID, companyID, accountID)
}

// findAccount loads an account and hides accounts of other companies as not found
func findAccount(ctx context.Context, repos txscope.Repositories, tenantID, companyID, accountID uuid.UUID) (*ledger.Account, error) {
	account, err := repos.Accounts().FindByIDForTenant(ctx, tenantID, accountID)
	if err != nil {
		return nil, err
	}
	if account.CompanyID != companyID {
		return nil, shared.ErrNotFound
	}
	return account, nil
}
