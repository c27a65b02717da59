package handler

import (
	"context"

	"github.com/erp/accounting/internal/application/trade"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// OrderService is the surface shared by the sales and purchase order services
type OrderService interface {
	Create(ctx context.Context, tenantID, companyID uuid.UUID, req trade.CreateOrderRequest) (*trade.OrderResponse, error)
	GetByID(ctx context.Context, tenantID, companyID, orderID uuid.UUID) (*trade.OrderResponse, error)
	List(ctx context.Context, tenantID, companyID uuid.UUID, filter trade.OrderListFilter) ([]trade.OrderResponse, int64, error)
	AddItem(ctx context.Context, tenantID, companyID, orderID uuid.UUID, req trade.OrderItemInput) (*trade.OrderResponse, error)
	RemoveItem(ctx context.Context, tenantID, companyID, orderID, itemID uuid.UUID) (*trade.OrderResponse, error)
	Confirm(ctx context.Context, tenantID, companyID, orderID uuid.UUID) (*trade.OrderResponse, error)
	Cancel(ctx context.Context, tenantID, companyID, orderID uuid.UUID, req trade.CancelOrderRequest) (*trade.OrderResponse, error)
	Summary(ctx context.Context, tenantID, companyID uuid.UUID) (*trade.OrderSummaryResponse, error)
}

var (
	_ OrderService = (*trade.SalesOrderService)(nil)
	_ OrderService = (*trade.PurchaseOrderService)(nil)
)

// OrderHandler serves sales orders or purchase orders, depending on the service it wraps
type OrderHandler struct {
	BaseHandler
	orderService OrderService
}

// NewOrderHandler creates a new OrderHandler
func NewOrderHandler(orderService OrderService) *OrderHandler {
	return &OrderHandler{orderService: orderService}
}

// Create handles POST /companies/:company_id/{sales,purchase}-orders
func (h *OrderHandler) Create(c *gin.Context) {
	tenantID, companyID, ok := h.companyScope(c)
	if !ok {
		return
	}
	var req trade.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	order, err := h.orderService.Create(c.Request.Context(), tenantID, companyID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, order)
}

// List handles GET /companies/:company_id/{sales,purchase}-orders
func (h *OrderHandler) List(c *gin.Context) {
	tenantID, companyID, ok := h.companyScope(c)
	if !ok {
		return
	}
	var filter trade.OrderListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BindError(c, err)
		return
	}
	if filter.CounterpartyCompanyID, ok = h.queryID(c, "counterparty_company_id"); !ok {
		return
	}
	orders, total, err := h.orderService.List(c.Request.Context(), tenantID, companyID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	p, size := page(filter.Page, filter.PageSize)
	h.SuccessWithMeta(c, orders, total, p, size)
}

// Summary handles GET /companies/:company_id/{sales,purchase}-orders/summary
func (h *OrderHandler) Summary(c *gin.Context) {
	tenantID, companyID, ok := h.companyScope(c)
	if !ok {
		return
	}
	summary, err := h.orderService.Summary(c.Request.Context(), tenantID, companyID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, summary)
}

// Get handles GET /companies/:company_id/{sales,purchase}-orders/:id
func (h *OrderHandler) Get(c *gin.Context) {
	tenantID, companyID, id, ok := h.companyResource(c)
	if !ok {
		return
	}
	order, err := h.orderService.GetByID(c.Request.Context(), tenantID, companyID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, order)
}

// AddItem handles POST /companies/:company_id/{sales,purchase}-orders/:id/items
func (h *OrderHandler) AddItem(c *gin.Context) {
	tenantID, companyID, id, ok := h.companyResource(c)
	if !ok {
		return
	}
	var req trade.OrderItemInput
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	order, err := h.orderService.AddItem(c.Request.Context(), tenantID, companyID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, order)
}

// RemoveItem handles DELETE /companies/:company_id/{sales,purchase}-orders/:id/items/:item_id
func (h *OrderHandler) RemoveItem(c *gin.Context) {
	tenantID, companyID, id, ok := h.companyResource(c)
	if !ok {
		return
	}
	itemID, ok := h.pathID(c, "item_id")
	if !ok {
		return
	}
	order, err := h.orderService.RemoveItem(c.Request.Context(), tenantID, companyID, id, itemID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, order)
}

// Confirm handles POST /companies/:company_id/{sales,purchase}-orders/:id/confirm
func (h *OrderHandler) Confirm(c *gin.Context) {
	tenantID, companyID, id, ok := h.companyResource(c)
	if !ok {
		return
	}
	order, err := h.orderService.Confirm(c.Request.Context(), tenantID, companyID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, order)
}

// Cancel handles POST /companies/:company_id/{sales,purchase}-orders/:id/cancel.
// The reason body is optional.
func (h *OrderHandler) Cancel(c *gin.Context) {
	tenantID, companyID, id, ok := h.companyResource(c)
	if !ok {
		return
	}
	var req trade.CancelOrderRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.BindError(c, err)
			return
		}
	}
	order, err := h.orderService.Cancel(c.Request.Context(), tenantID, companyID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, order)
}
