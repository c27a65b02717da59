package company

import (
	"context"
	"strings"

	"github.com/erp/accounting/internal/application/event"
	appledger "github.com/erp/accounting/internal/application/ledger"
	"github.com/erp/accounting/internal/application/txscope"
	"github.com/erp/accounting/internal/domain/company"
	"github.com/erp/accounting/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CompanyService handles company operations
type CompanyService struct {
	scope          txscope.TransactionScope
	companyRepo    company.CompanyRepository
	seeder         *appledger.ChartSeeder
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// NewCompanyService creates a new CompanyService
func NewCompanyService(scope txscope.TransactionScope, companyRepo company.CompanyRepository, seeder *appledger.ChartSeeder, logger *zap.Logger) *CompanyService {
	if seeder == nil {
		seeder = appledger.NewChartSeeder(nil)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CompanyService{
		scope:       scope,
		companyRepo: companyRepo,
		seeder:      seeder,
		logger:      logger,
	}
}

// SetEventPublisher sets the event publisher for cross-context integration
func (s *CompanyService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// Create creates a company and seeds its chart of accounts in the same transaction
func (s *CompanyService) Create(ctx context.Context, tenantID uuid.UUID, req CreateCompanyRequest) (*CompanyResponse, error) {
	c, err := company.NewCompany(tenantID, req.Code, req.Name, company.CompanyType(strings.ToLower(req.Type)), company.Profile{
		Currency: req.Currency,
		Phone:    req.Phone,
		Email:    req.Email,
		Address:  req.Address,
	})
	if err != nil {
		return nil, err
	}

	var seeded int
	collector := event.NewCollector()
	err = s.scope.Execute(ctx, func(repos txscope.Repositories) error {
		if _, err := repos.Tenants().FindByID(ctx, tenantID); err != nil {
			return err
		}
		exists, err := repos.Companies().ExistsByCode(ctx, tenantID, c.Code)
		if err != nil {
			return err
		}
		if exists {
			return shared.NewDomainError("ALREADY_EXISTS", "Company with this code already exists")
		}
		if err := repos.Companies().Save(ctx, c); err != nil {
			return err
		}
		seeded, err = s.seeder.SeedDefaultChart(ctx, repos.Accounts(), tenantID, c.ID)
		if err != nil {
			return err
		}
		collector.Collect(c)
		return nil
	})
	if err != nil {
		return nil, err
	}
	collector.Publish(ctx, s.eventPublisher, s.logger)

	s.logger.Info("Company created",
		zap.String("tenant_id", tenantID.String()),
		zap.String("company_id", c.ID.String()),
		zap.String("code", c.Code),
		zap.Int("accounts_seeded", seeded))

	response := ToCompanyResponse(c)
	return &response, nil
}

// GetByID retrieves a company of the tenant
func (s *CompanyService) GetByID(ctx context.Context, tenantID, companyID uuid.UUID) (*CompanyResponse, error) {
	c, err := s.companyRepo.FindByIDForTenant(ctx, tenantID, companyID)
	if err != nil {
		return nil, err
	}
	response := ToCompanyResponse(c)
	return &response, nil
}

// List retrieves a page of the tenant's companies
func (s *CompanyService) List(ctx context.Context, tenantID uuid.UUID, filter CompanyListFilter) ([]CompanyResponse, int64, error) {
	sf := filter.ToSharedFilter()
	companies, err := s.companyRepo.FindAllForTenant(ctx, tenantID, sf)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.companyRepo.CountForTenant(ctx, tenantID, sf)
	if err != nil {
		return nil, 0, err
	}

	out := make([]CompanyResponse, len(companies))
	for i := range companies {
		out[i] = ToCompanyResponse(&companies[i])
	}
	return out, total, nil
}

// Update changes a company's name, type and profile
func (s *CompanyService) Update(ctx context.Context, tenantID, companyID uuid.UUID, req UpdateCompanyRequest) (*CompanyResponse, error) {
	c, err := s.companyRepo.FindByIDForTenant(ctx, tenantID, companyID)
	if err != nil {
		return nil, err
	}
	if err := c.Update(req.Name, company.CompanyType(strings.ToLower(req.Type)), company.Profile{
		Currency: req.Currency,
		Phone:    req.Phone,
		Email:    req.Email,
		Address:  req.Address,
	}); err != nil {
		return nil, err
	}
	if err := s.companyRepo.SaveWithLock(ctx, c); err != nil {
		return nil, err
	}
	s.publish(ctx, c)
	response := ToCompanyResponse(c)
	return &response, nil
}

// Deactivate stops a company from taking part in new documents
func (s *CompanyService) Deactivate(ctx context.Context, tenantID, companyID uuid.UUID) (*CompanyResponse, error) {
	return s.setActive(ctx, tenantID, companyID, (*company.Company).Deactivate)
}

// Activate re-enables a company
func (s *CompanyService) Activate(ctx context.Context, tenantID, companyID uuid.UUID) (*CompanyResponse, error) {
	return s.setActive(ctx, tenantID, companyID, (*company.Company).Activate)
}

func (s *CompanyService) setActive(ctx context.Context, tenantID, companyID uuid.UUID, change func(*company.Company) error) (*CompanyResponse, error) {
	c, err := s.companyRepo.FindByIDForTenant(ctx, tenantID, companyID)
	if err != nil {
		return nil, err
	}
	if err := change(c); err != nil {
		return nil, err
	}
	if err := s.companyRepo.SaveWithLock(ctx, c); err != nil {
		return nil, err
	}
	s.publish(ctx, c)
	s.logger.Info("Company status changed",
		zap.String("company_id", c.ID.String()),
		zap.Bool("is_active", c.IsActive))
	response := ToCompanyResponse(c)
	return &response, nil
}

func (s *CompanyService) publish(ctx context.Context, c *company.Company) {
	collector := event.NewCollector()
	collector.Collect(c)
	collector.Publish(ctx, s.eventPublisher, s.logger)
}
