package identity

import (
	"context"
	"strings"

	"github.com/erp/accounting/internal/domain/identity"
	"github.com/erp/accounting/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TenantService handles tenant lifecycle operations
type TenantService struct {
	tenantRepo     identity.TenantRepository
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// NewTenantService creates a new TenantService
func NewTenantService(tenantRepo identity.TenantRepository, logger *zap.Logger) *TenantService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TenantService{
		tenantRepo: tenantRepo,
		logger:     logger,
	}
}

// SetEventPublisher sets the event publisher for cross-context integration
func (s *TenantService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// Create creates a new tenant
func (s *TenantService) Create(ctx context.Context, req CreateTenantRequest) (*TenantResponse, error) {
	exists, err := s.tenantRepo.ExistsByCode(ctx, strings.ToUpper(req.Code))
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.NewDomainError("ALREADY_EXISTS", "Tenant with this code already exists")
	}

	tenant, err := identity.NewTenant(req.Code, req.Name)
	if err != nil {
		return nil, err
	}
	if err := s.tenantRepo.Save(ctx, tenant); err != nil {
		return nil, err
	}
	s.publish(ctx, tenant)

	s.logger.Info("Tenant created",
		zap.String("tenant_id", tenant.ID.String()),
		zap.String("code", tenant.Code))

	response := ToTenantResponse(tenant)
	return &response, nil
}

// GetByID retrieves a tenant by ID
func (s *TenantService) GetByID(ctx context.Context, id uuid.UUID) (*TenantResponse, error) {
	tenant, err := s.tenantRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	response := ToTenantResponse(tenant)
	return &response, nil
}

// List retrieves a page of tenants
func (s *TenantService) List(ctx context.Context, filter TenantListFilter) ([]TenantResponse, int64, error) {
	sf := filter.ToSharedFilter()
	tenants, err := s.tenantRepo.FindAll(ctx, sf)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.tenantRepo.Count(ctx, sf)
	if err != nil {
		return nil, 0, err
	}

	out := make([]TenantResponse, len(tenants))
	for i := range tenants {
		out[i] = ToTenantResponse(&tenants[i])
	}
	return out, total, nil
}

// Update renames a tenant
func (s *TenantService) Update(ctx context.Context, id uuid.UUID, req UpdateTenantRequest) (*TenantResponse, error) {
	tenant, err := s.tenantRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := tenant.Rename(req.Name); err != nil {
		return nil, err
	}
	if err := s.tenantRepo.SaveWithLock(ctx, tenant); err != nil {
		return nil, err
	}
	response := ToTenantResponse(tenant)
	return &response, nil
}

// Activate re-enables a tenant
func (s *TenantService) Activate(ctx context.Context, id uuid.UUID) (*TenantResponse, error) {
	return s.changeStatus(ctx, id, (*identity.Tenant).Activate)
}

// Deactivate disables a tenant. Its data stays, but its users can no longer obtain tokens.
func (s *TenantService) Deactivate(ctx context.Context, id uuid.UUID) (*TenantResponse, error) {
	return s.changeStatus(ctx, id, (*identity.Tenant).Deactivate)
}

func (s *TenantService) changeStatus(ctx context.Context, id uuid.UUID, change func(*identity.Tenant) error) (*TenantResponse, error) {
	tenant, err := s.tenantRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := change(tenant); err != nil {
		return nil, err
	}
	if err := s.tenantRepo.SaveWithLock(ctx, tenant); err != nil {
		return nil, err
	}
	s.publish(ctx, tenant)

	s.logger.Info("Tenant status changed",
		zap.String("tenant_id", tenant.ID.String()),
		zap.String("status", string(tenant.Status)))

	response := ToTenantResponse(tenant)
	return &response, nil
}

// ActiveIDs lists the active tenants for scheduled jobs
func (s *TenantService) ActiveIDs(ctx context.Context) ([]uuid.UUID, error) {
	return s.tenantRepo.FindActiveIDs(ctx)
}

func (s *TenantService) publish(ctx context.Context, tenant *identity.Tenant) {
	events := tenant.GetDomainEvents()
	tenant.ClearDomainEvents()
	if s.eventPublisher == nil || len(events) == 0 {
		return
	}
	if err := s.eventPublisher.Publish(ctx, events...); err != nil {
		s.logger.Warn("Failed to publish tenant events",
			zap.String("tenant_id", tenant.ID.String()),
			zap.Error(err))
	}
}
