package company

import (
	"time"

	"github.com/erp/accounting/internal/domain/company"
	"github.com/erp/accounting/internal/domain/shared"
	"github.com/google/uuid"
)

// CreateCompanyRequest represents a request to create a company
type CreateCompanyRequest struct {
	Code     string `json:"code" binding:"required,min=1,max=50"`
	Name     string `json:"name" binding:"required,min=1,max=200"`
	Type     string `json:"type" binding:"required"`
	Currency string `json:"currency" binding:"omitempty,len=3"`
	Phone    string `json:"phone" binding:"max=50"`
	Email    string `json:"email" binding:"omitempty,email,max=200"`
	Address  string `json:"address" binding:"max=500"`
}

// UpdateCompanyRequest represents a request to update a company
type UpdateCompanyRequest struct {
	Name     string `json:"name" binding:"required,min=1,max=200"`
	Type     string `json:"type" binding:"required"`
	Currency string `json:"currency" binding:"omitempty,len=3"`
	Phone    string `json:"phone" binding:"max=50"`
	Email    string `json:"email" binding:"omitempty,email,max=200"`
	Address  string `json:"address" binding:"max=500"`
}

// CompanyResponse represents a company in API responses
type CompanyResponse struct {
	ID        uuid.UUID           `json:"id"`
	TenantID  uuid.UUID           `json:"tenant_id"`
	Code      string              `json:"code"`
	Name      string              `json:"name"`
	Type      company.CompanyType `json:"type"`
	Currency  string              `json:"currency"`
	Phone     string              `json:"phone"`
	Email     string              `json:"email"`
	Address   string              `json:"address"`
	IsActive  bool                `json:"is_active"`
	CreatedAt time.Time           `json:"created_at"`
	UpdatedAt time.Time           `json:"updated_at"`
	Version   int                 `json:"version"`
}

// CompanyListFilter represents filter options for listing companies
type CompanyListFilter struct {
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	Search   string `form:"search"`
	Type     string `form:"type" binding:"omitempty,oneof=manufacturer plant distributor"`
	IsActive *bool  `form:"is_active"`
	OrderBy  string `form:"order_by"`
	OrderDir string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// ToSharedFilter converts the request filter to a repository filter
func (f CompanyListFilter) ToSharedFilter() shared.Filter {
	filter := shared.DefaultFilter()
	if f.Page > 0 {
		filter.Page = f.Page
	}
	if f.PageSize > 0 {
		filter.PageSize = f.PageSize
	}
	filter.OrderBy = "code"
	filter.OrderDir = "asc"
	if f.OrderBy != "" {
		filter.OrderBy = f.OrderBy
		filter.OrderDir = f.OrderDir
	}
	filter.Search = f.Search
	if f.Type != "" {
		filter.Filters["type"] = f.Type
	}
	if f.IsActive != nil {
		filter.Filters["is_active"] = *f.IsActive
	}
	return filter
}

// ToCompanyResponse converts a domain company to a response
func ToCompanyResponse(c *company.Company) CompanyResponse {
	return CompanyResponse{
		ID:        c.ID,
		TenantID:  c.TenantID,
		Code:      c.Code,
		Name:      c.Name,
		Type:      c.Type,
		Currency:  c.Currency,
		Phone:     c.Phone,
		Email:     c.Email,
		Address:   c.Address,
		IsActive:  c.IsActive,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
		Version:   c.Version,
	}
}
