package handler

import (
	"context"

	"github.com/erp/accounting/internal/application/company"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// CompanyHandler manages the companies of a tenant
type CompanyHandler struct {
	BaseHandler
	companyService *company.CompanyService
}

// NewCompanyHandler creates a new CompanyHandler
func NewCompanyHandler(companyService *company.CompanyService) *CompanyHandler {
	return &CompanyHandler{companyService: companyService}
}

// Create handles POST /companies. The default chart of accounts is seeded with the company.
func (h *CompanyHandler) Create(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	var req company.CreateCompanyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	resp, err := h.companyService.Create(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// List handles GET /companies
func (h *CompanyHandler) List(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	var filter company.CompanyListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BindError(c, err)
		return
	}
	companies, total, err := h.companyService.List(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	p, size := page(filter.Page, filter.PageSize)
	h.SuccessWithMeta(c, companies, total, p, size)
}

// Get handles GET /companies/:company_id
func (h *CompanyHandler) Get(c *gin.Context) {
	tenantID, companyID, ok := h.companyScope(c)
	if !ok {
		return
	}
	resp, err := h.companyService.GetByID(c.Request.Context(), tenantID, companyID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Update handles PUT /companies/:company_id
func (h *CompanyHandler) Update(c *gin.Context) {
	tenantID, companyID, ok := h.companyScope(c)
	if !ok {
		return
	}
	var req company.UpdateCompanyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	resp, err := h.companyService.Update(c.Request.Context(), tenantID, companyID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Activate handles POST /companies/:company_id/activate
func (h *CompanyHandler) Activate(c *gin.Context) {
	h.changeStatus(c, h.companyService.Activate)
}

// Deactivate handles POST /companies/:company_id/deactivate
func (h *CompanyHandler) Deactivate(c *gin.Context) {
	h.changeStatus(c, h.companyService.Deactivate)
}

func (h *CompanyHandler) changeStatus(c *gin.Context, change func(context.Context, uuid.UUID, uuid.UUID) (*company.CompanyResponse, error)) {
	tenantID, companyID, ok := h.companyScope(c)
	if !ok {
		return
	}
	resp, err := change(c.Request.Context(), tenantID, companyID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}
