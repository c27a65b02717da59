package handler

import (
	"context"

	"github.com/erp/accounting/internal/application/catalog"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ProductHandler manages the products of a company
type ProductHandler struct {
	BaseHandler
	productService *catalog.ProductService
}

// NewProductHandler creates a new ProductHandler
func NewProductHandler(productService *catalog.ProductService) *ProductHandler {
	return &ProductHandler{productService: productService}
}

// Create handles POST /companies/:company_id/products
func (h *ProductHandler) Create(c *gin.Context) {
	tenantID, companyID, ok := h.companyScope(c)
	if !ok {
		return
	}
	var req catalog.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	product, err := h.productService.Create(c.Request.Context(), tenantID, companyID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, product)
}

// List handles GET /companies/:company_id/products
func (h *ProductHandler) List(c *gin.Context) {
	tenantID, companyID, ok := h.companyScope(c)
	if !ok {
		return
	}
	var filter catalog.ProductListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BindError(c, err)
		return
	}
	products, total, err := h.productService.List(c.Request.Context(), tenantID, companyID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	p, size := page(filter.Page, filter.PageSize)
	h.SuccessWithMeta(c, products, total, p, size)
}

// Get handles GET /companies/:company_id/products/:id
func (h *ProductHandler) Get(c *gin.Context) {
	tenantID, companyID, id, ok := h.companyResource(c)
	if !ok {
		return
	}
	product, err := h.productService.GetByID(c.Request.Context(), tenantID, companyID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, product)
}

// Update handles PUT /companies/:company_id/products/:id
func (h *ProductHandler) Update(c *gin.Context) {
	tenantID, companyID, id, ok := h.companyResource(c)
	if !ok {
		return
	}
	var req catalog.UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	product, err := h.productService.Update(c.Request.Context(), tenantID, companyID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, product)
}

// Activate handles POST /companies/:company_id/products/:id/activate
func (h *ProductHandler) Activate(c *gin.Context) {
	h.changeStatus(c, h.productService.Activate)
}

// Deactivate handles POST /companies/:company_id/products/:id/deactivate
func (h *ProductHandler) Deactivate(c *gin.Context) {
	h.changeStatus(c, h.productService.Deactivate)
}

// Delete handles DELETE /companies/:company_id/products/:id
func (h *ProductHandler) Delete(c *gin.Context) {
	tenantID, companyID, id, ok := h.companyResource(c)
	if !ok {
		return
	}
	if err := h.productService.Delete(c.Request.Context(), tenantID, companyID, id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

func (h *ProductHandler) changeStatus(c *gin.Context, change func(context.Context, uuid.UUID, uuid.UUID, uuid.UUID) (*catalog.ProductResponse, error)) {
	tenantID, companyID, id, ok := h.companyResource(c)
	if !ok {
		return
	}
	product, err := change(c.Request.Context(), tenantID, companyID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, product)
}
