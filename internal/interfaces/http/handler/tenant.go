package handler

import (
	"context"

	"github.com/erp/accounting/internal/application/identity"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// TenantHandler manages tenants
type TenantHandler struct {
	BaseHandler
	tenantService *identity.TenantService
}

// NewTenantHandler creates a new TenantHandler
func NewTenantHandler(tenantService *identity.TenantService) *TenantHandler {
	return &TenantHandler{tenantService: tenantService}
}

// Create handles POST /tenants
func (h *TenantHandler) Create(c *gin.Context) {
	var req identity.CreateTenantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	tenant, err := h.tenantService.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, tenant)
}

// List handles GET /tenants
func (h *TenantHandler) List(c *gin.Context) {
	var filter identity.TenantListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BindError(c, err)
		return
	}
	tenants, total, err := h.tenantService.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	p, size := page(filter.Page, filter.PageSize)
	h.SuccessWithMeta(c, tenants, total, p, size)
}

// Get handles GET /tenants/:id
func (h *TenantHandler) Get(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	tenant, err := h.tenantService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, tenant)
}

// Update handles PUT /tenants/:id
func (h *TenantHandler) Update(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req identity.UpdateTenantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	tenant, err := h.tenantService.Update(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, tenant)
}

// Activate handles POST /tenants/:id/activate
func (h *TenantHandler) Activate(c *gin.Context) {
	h.changeStatus(c, h.tenantService.Activate)
}

// Deactivate handles POST /tenants/:id/deactivate
func (h *TenantHandler) Deactivate(c *gin.Context) {
	h.changeStatus(c, h.tenantService.Deactivate)
}

func (h *TenantHandler) changeStatus(c *gin.Context, change func(context.Context, uuid.UUID) (*identity.TenantResponse, error)) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	tenant, err := change(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, tenant)
}
