package identity

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/erp/accounting/internal/domain/identity"
	"github.com/erp/accounting/internal/domain/shared"
	"github.com/erp/accounting/internal/infrastructure/auth"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var errInvalidCredentials = shared.NewDomainError("INVALID_CREDENTIALS", "Invalid tenant, username or password")

// AuthService issues tokens to tenant API users
type AuthService struct {
	tenantRepo  identity.TenantRepository
	userRepo    identity.UserRepository
	jwtService  *auth.JWTService
	revocations auth.RevocationList
	logger      *zap.Logger
	now         func() time.Time
}

// NewAuthService creates a new authentication service
func NewAuthService(
	tenantRepo identity.TenantRepository,
	userRepo identity.UserRepository,
	jwtService *auth.JWTService,
	revocations auth.RevocationList,
	logger *zap.Logger,
) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if revocations == nil {
		revocations = auth.NewMemoryRevocationList()
	}
	return &AuthService{
		tenantRepo:  tenantRepo,
		userRepo:    userRepo,
		jwtService:  jwtService,
		revocations: revocations,
		logger:      logger,
		now:         time.Now,
	}
}

// Token authenticates a user by tenant code, username and password
func (s *AuthService) Token(ctx context.Context, req TokenRequest) (*TokenResponse, error) {
	tenant, err := s.tenantRepo.FindByCode(ctx, strings.ToUpper(strings.TrimSpace(req.TenantCode)))
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			s.logger.Warn("Token request for unknown tenant", zap.String("tenant_code", req.TenantCode))
			return nil, errInvalidCredentials
		}
		return nil, err
	}
	if !tenant.IsActive() {
		return nil, shared.NewDomainError("TENANT_INACTIVE", "Tenant is not active")
	}

	user, err := s.userRepo.FindByUsername(ctx, tenant.ID, strings.ToLower(strings.TrimSpace(req.Username)))
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, errInvalidCredentials
		}
		return nil, err
	}

	now := s.now()
	if user.IsLocked(now) {
		s.logger.Warn("Token request for locked user",
			zap.String("tenant_id", tenant.ID.String()),
			zap.String("username", user.Username))
		return nil, shared.NewDomainError("ACCOUNT_LOCKED", "Account is locked. Please try again later")
	}

	ok := user.Authenticate(req.Password, now)
	if err := s.userRepo.Save(ctx, user); err != nil {
		s.logger.Error("Failed to record login attempt", zap.Error(err))
	}
	if !ok {
		s.logger.Warn("Invalid password",
			zap.String("tenant_id", tenant.ID.String()),
			zap.String("username", user.Username),
			zap.Int("failed_attempts", user.FailedAttempts))
		if user.IsLocked(now) {
			return nil, shared.NewDomainError("ACCOUNT_LOCKED", "Too many failed attempts. Account has been locked")
		}
		return nil, errInvalidCredentials
	}

	pair, err := s.jwtService.GenerateTokenPair(auth.GenerateTokenInput{
		TenantID: tenant.ID,
		UserID:   user.ID,
		Username: user.Username,
		Role:     string(user.Role),
	})
	if err != nil {
		s.logger.Error("Failed to generate token pair", zap.Error(err))
		return nil, err
	}

	s.logger.Info("Token issued",
		zap.String("tenant_id", tenant.ID.String()),
		zap.String("user_id", user.ID.String()))

	return toTokenResponse(pair, user), nil
}

// Refresh exchanges a refresh token for a new pair. The old refresh token is revoked.
func (s *AuthService) Refresh(ctx context.Context, req RefreshRequest) (*TokenResponse, error) {
	claims, err := s.jwtService.ValidateRefreshToken(req.RefreshToken)
	if err != nil {
		return nil, shared.NewDomainError("INVALID_TOKEN", err.Error())
	}
	revoked, err := s.revocations.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, shared.NewDomainError("INVALID_TOKEN", auth.ErrTokenRevoked.Error())
	}

	tenantID, _ := claims.GetTenantUUID()
	userID, _ := claims.GetUserUUID()
	user, err := s.userRepo.FindByIDForTenant(ctx, tenantID, userID)
	if err != nil {
		return nil, shared.NewDomainError("INVALID_TOKEN", "User no longer exists")
	}
	tenant, err := s.tenantRepo.FindByID(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if !tenant.IsActive() {
		return nil, shared.NewDomainError("TENANT_INACTIVE", "Tenant is not active")
	}

	pair, old, err := s.jwtService.RefreshTokenPair(req.RefreshToken)
	if err != nil {
		return nil, shared.NewDomainError("INVALID_TOKEN", err.Error())
	}
	if err := s.revocations.Revoke(ctx, old.ID, old.RemainingTTL(s.now())); err != nil {
		s.logger.Warn("Failed to revoke used refresh token", zap.Error(err))
	}
	return toTokenResponse(pair, user), nil
}

// Logout revokes an access token for the rest of its lifetime
func (s *AuthService) Logout(ctx context.Context, claims *auth.Claims) error {
	return s.revocations.Revoke(ctx, claims.ID, claims.RemainingTTL(s.now()))
}

// Verify validates an access token and rejects revoked ones
func (s *AuthService) Verify(ctx context.Context, token string) (*auth.Claims, error) {
	claims, err := s.jwtService.ValidateAccessToken(token)
	if err != nil {
		return nil, err
	}
	revoked, err := s.revocations.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, auth.ErrTokenRevoked
	}
	return claims, nil
}

// CurrentUser loads the user behind a token
func (s *AuthService) CurrentUser(ctx context.Context, tenantID, userID uuid.UUID) (*UserResponse, error) {
	user, err := s.userRepo.FindByIDForTenant(ctx, tenantID, userID)
	if err != nil {
		return nil, err
	}
	response := ToUserResponse(user)
	return &response, nil
}

func toTokenResponse(pair *auth.TokenPair, user *identity.User) *TokenResponse {
	return &TokenResponse{
		AccessToken:           pair.AccessToken,
		RefreshToken:          pair.RefreshToken,
		AccessTokenExpiresAt:  pair.AccessTokenExpiresAt,
		RefreshTokenExpiresAt: pair.RefreshTokenExpiresAt,
		TokenType:             pair.TokenType,
		User:                  ToUserResponse(user),
	}
}
