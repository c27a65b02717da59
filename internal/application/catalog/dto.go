package catalog

import (
	"time"

	"github.com/erp/accounting/internal/domain/catalog"
	"github.com/erp/accounting/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateProductRequest represents a request to create a product
type CreateProductRequest struct {
	Code          string          `json:"code" binding:"required,min=1,max=50"`
	Name          string          `json:"name" binding:"required,min=1,max=200"`
	Description   string          `json:"description" binding:"max=2000"`
	Unit          string          `json:"unit" binding:"max=20"`
	SalesPrice    decimal.Decimal `json:"sales_price"`
	PurchasePrice decimal.Decimal `json:"purchase_price"`
}

// UpdateProductRequest represents a request to update a product.
// Nil fields are left unchanged.
type UpdateProductRequest struct {
	Name          *string          `json:"name" binding:"omitempty,min=1,max=200"`
	Description   *string          `json:"description" binding:"omitempty,max=2000"`
	Unit          *string          `json:"unit" binding:"omitempty,max=20"`
	SalesPrice    *decimal.Decimal `json:"sales_price"`
	PurchasePrice *decimal.Decimal `json:"purchase_price"`
}

// ProductResponse represents a product in API responses
type ProductResponse struct {
	ID            uuid.UUID             `json:"id"`
	TenantID      uuid.UUID             `json:"tenant_id"`
	CompanyID     uuid.UUID             `json:"company_id"`
	Code          string                `json:"code"`
	Name          string                `json:"name"`
	Description   string                `json:"description"`
	Unit          string                `json:"unit"`
	SalesPrice    decimal.Decimal       `json:"sales_price"`
	PurchasePrice decimal.Decimal       `json:"purchase_price"`
	Margin        decimal.Decimal       `json:"margin"`
	Status        catalog.ProductStatus `json:"status"`
	CreatedAt     time.Time             `json:"created_at"`
	UpdatedAt     time.Time             `json:"updated_at"`
	Version       int                   `json:"version"`
}

// ProductListFilter represents filter options for listing products
type ProductListFilter struct {
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	Search   string `form:"search"`
	Status   string `form:"status" binding:"omitempty,oneof=active inactive"`
	OrderBy  string `form:"order_by"`
	OrderDir string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// ToSharedFilter converts the request filter to a repository filter
func (f ProductListFilter) ToSharedFilter() shared.Filter {
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
	if f.Status != "" {
		filter.Filters["status"] = f.Status
	}
	return filter
}

// ToProductResponse converts a domain product to a response
func ToProductResponse(p *catalog.Product) ProductResponse {
	return ProductResponse{
		ID:            p.ID,
		TenantID:      p.TenantID,
		CompanyID:     p.CompanyID,
		Code:          p.Code,
		Name:          p.Name,
		Description:   p.Description,
		Unit:          p.Unit,
		SalesPrice:    p.SalesPrice,
		PurchasePrice: p.PurchasePrice,
		Margin:        p.Margin(),
		Status:        p.Status,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
		Version:       p.Version,
	}
}

// ToProductResponses converts a slice of products
func ToProductResponses(products []catalog.Product) []ProductResponse {
	out := make([]ProductResponse, len(products))
	for i := range products {
		out[i] = ToProductResponse(&products[i])
	}
	return out
}
