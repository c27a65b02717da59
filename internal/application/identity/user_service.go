package identity

import (
	"context"

	"github.com/erp/accounting/internal/domain/identity"
	"github.com/erp/accounting/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// UserService manages the API users of a tenant
type UserService struct {
	tenantRepo identity.TenantRepository
	userRepo   identity.UserRepository
	logger     *zap.Logger
}

// NewUserService creates a new UserService
func NewUserService(tenantRepo identity.TenantRepository, userRepo identity.UserRepository, logger *zap.Logger) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserService{tenantRepo: tenantRepo, userRepo: userRepo, logger: logger}
}

// Create adds an API user to a tenant
func (s *UserService) Create(ctx context.Context, tenantID uuid.UUID, req CreateUserRequest) (*UserResponse, error) {
	if _, err := s.tenantRepo.FindByID(ctx, tenantID); err != nil {
		return nil, err
	}

	user, err := identity.NewUser(tenantID, req.Username, req.Password, identity.UserRole(req.Role))
	if err != nil {
		return nil, err
	}
	exists, err := s.userRepo.ExistsByUsername(ctx, tenantID, user.Username)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.NewDomainError("ALREADY_EXISTS", "User with this username already exists")
	}
	if err := s.userRepo.Save(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("User created",
		zap.String("tenant_id", tenantID.String()),
		zap.String("username", user.Username),
		zap.String("role", string(user.Role)))

	response := ToUserResponse(user)
	return &response, nil
}

// GetByID retrieves a user of a tenant
func (s *UserService) GetByID(ctx context.Context, tenantID, userID uuid.UUID) (*UserResponse, error) {
	user, err := s.userRepo.FindByIDForTenant(ctx, tenantID, userID)
	if err != nil {
		return nil, err
	}
	response := ToUserResponse(user)
	return &response, nil
}
