package identity

import (
	"time"

	"github.com/erp/accounting/internal/domain/identity"
	"github.com/erp/accounting/internal/domain/shared"
	"github.com/google/uuid"
)

// CreateTenantRequest represents a request to create a tenant
type CreateTenantRequest struct {
	Code string `json:"code" binding:"required,min=1,max=50"`
	Name string `json:"name" binding:"required,min=1,max=200"`
}

// UpdateTenantRequest represents a request to rename a tenant
type UpdateTenantRequest struct {
	Name string `json:"name" binding:"required,min=1,max=200"`
}

// TenantResponse represents a tenant in API responses
type TenantResponse struct {
	ID        uuid.UUID             `json:"id"`
	Code      string                `json:"code"`
	Name      string                `json:"name"`
	Status    identity.TenantStatus `json:"status"`
	CreatedAt time.Time             `json:"created_at"`
	UpdatedAt time.Time             `json:"updated_at"`
	Version   int                   `json:"version"`
}

// TenantListFilter represents filter options for listing tenants
type TenantListFilter struct {
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	Search   string `form:"search"`
	Status   string `form:"status" binding:"omitempty,oneof=active inactive"`
	OrderBy  string `form:"order_by"`
	OrderDir string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// ToSharedFilter converts the request filter to a repository filter
func (f TenantListFilter) ToSharedFilter() shared.Filter {
	filter := shared.DefaultFilter()
	if f.Page > 0 {
		filter.Page = f.Page
	}
	if f.PageSize > 0 {
		filter.PageSize = f.PageSize
	}
	if f.OrderBy != "" {
		filter.OrderBy = f.OrderBy
		filter.OrderDir = f.OrderDir
	}
	filter.Search = f.Search
	if f.Status != "" {
		filter.Filters["status"] = f.Status
	}
	return filter
}

// ToTenantResponse converts a domain tenant to a response
func ToTenantResponse(t *identity.Tenant) TenantResponse {
	return TenantResponse{
		ID:        t.ID,
		Code:      t.Code,
		Name:      t.Name,
		Status:    t.Status,
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
		Version:   t.Version,
	}
}

// CreateUserRequest represents a request to create an API user in the caller's tenant
type CreateUserRequest struct {
	Username string `json:"username" binding:"required,min=1,max=100"`
	Password string `json:"password" binding:"required,min=8,max=72"`
	Role     string `json:"role" binding:"required,oneof=admin accountant viewer"`
}

// UserResponse represents an API user in responses. The password hash never leaves the service.
type UserResponse struct {
	ID          uuid.UUID           `json:"id"`
	TenantID    uuid.UUID           `json:"tenant_id"`
	Username    string              `json:"username"`
	Role        identity.UserRole   `json:"role"`
	Status      identity.UserStatus `json:"status"`
	LastLoginAt *time.Time          `json:"last_login_at"`
	CreatedAt   time.Time           `json:"created_at"`
}

// ToUserResponse converts a domain user to a response
func ToUserResponse(u *identity.User) UserResponse {
	return UserResponse{
		ID:          u.ID,
		TenantID:    u.TenantID,
		Username:    u.Username,
		Role:        u.Role,
		Status:      u.Status,
		LastLoginAt: u.LastLoginAt,
		CreatedAt:   u.CreatedAt,
	}
}

// TokenRequest exchanges tenant credentials for a token pair
type TokenRequest struct {
	TenantCode string `json:"tenant_code" binding:"required,max=50"`
	Username   string `json:"username" binding:"required,max=100"`
	Password   string `json:"password" binding:"required,max=72"`
}

// RefreshRequest exchanges a refresh token for a new pair
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// TokenResponse contains an issued token pair
type TokenResponse struct {
	AccessToken           string       `json:"access_token"`
	RefreshToken          string       `json:"refresh_token"`
	AccessTokenExpiresAt  time.Time    `json:"access_token_expires_at"`
	RefreshTokenExpiresAt time.Time    `json:"refresh_token_expires_at"`
	TokenType             string       `json:"token_type"`
	User                  UserResponse `json:"user"`
}
