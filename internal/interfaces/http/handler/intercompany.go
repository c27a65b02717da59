package handler

import (
	"github.com/erp/accounting/internal/application/intercompany"
	"github.com/gin-gonic/gin"
)

// IdempotencyKeyHeader names the header that makes create and settle replay-safe
const IdempotencyKeyHeader = "Idempotency-Key"

// MaxIdempotencyKeyLength matches the stored idempotency_key column
const MaxIdempotencyKeyLength = 100

// IntercompanyHandler serves matched trades between two companies of a tenant
type IntercompanyHandler struct {
	BaseHandler
	service *intercompany.IntercompanyService
}

// NewIntercompanyHandler creates a new IntercompanyHandler
func NewIntercompanyHandler(service *intercompany.IntercompanyService) *IntercompanyHandler {
	return &IntercompanyHandler{service: service}
}

// Create handles POST /intercompany: both orders and the transaction in one commit
func (h *IntercompanyHandler) Create(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	var req intercompany.CreateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	if req.IdempotencyKey, ok = h.idempotencyKey(c); !ok {
		return
	}
	txn, err := h.service.Create(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, txn)
}

// List handles GET /intercompany?company_id=&source_company_id=&target_company_id=&status=
func (h *IntercompanyHandler) List(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	var filter intercompany.TransactionListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BindError(c, err)
		return
	}
	if filter.CompanyID, ok = h.queryID(c, "company_id"); !ok {
		return
	}
	if filter.SourceCompanyID, ok = h.queryID(c, "source_company_id"); !ok {
		return
	}
	if filter.TargetCompanyID, ok = h.queryID(c, "target_company_id"); !ok {
		return
	}
	txns, total, err := h.service.List(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	p, size := page(filter.Page, filter.PageSize)
	h.SuccessWithMeta(c, txns, total, p, size)
}

// Reconcile handles GET /intercompany/reconcile?company_a=&company_b=
func (h *IntercompanyHandler) Reconcile(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	a, ok := h.queryID(c, "company_a")
	if !ok {
		return
	}
	b, ok := h.queryID(c, "company_b")
	if !ok {
		return
	}
	if a == nil || b == nil {
		h.BadRequest(c, "company_a and company_b are required")
		return
	}
	result, err := h.service.Reconcile(c.Request.Context(), tenantID, intercompany.ReconcileRequest{CompanyA: *a, CompanyB: *b})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// Get handles GET /intercompany/:id
func (h *IntercompanyHandler) Get(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	txn, err := h.service.GetByID(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, txn)
}

// Invoice handles POST /intercompany/:id/invoice. The dates body is optional.
func (h *IntercompanyHandler) Invoice(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req intercompany.InvoiceTransactionRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.BindError(c, err)
			return
		}
	}
	txn, err := h.service.Invoice(c.Request.Context(), tenantID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, txn)
}

// Settle handles POST /intercompany/:id/settle
func (h *IntercompanyHandler) Settle(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req intercompany.SettleTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	if req.IdempotencyKey, ok = h.idempotencyKey(c); !ok {
		return
	}
	txn, err := h.service.Settle(c.Request.Context(), tenantID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, txn)
}

// Cancel handles POST /intercompany/:id/cancel
func (h *IntercompanyHandler) Cancel(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	txn, err := h.service.Cancel(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, txn)
}

func (h *IntercompanyHandler) idempotencyKey(c *gin.Context) (string, bool) {
	key := c.GetHeader(IdempotencyKeyHeader)
	if len(key) > MaxIdempotencyKeyLength {
		h.BadRequest(c, IdempotencyKeyHeader+" is too long")
		return "", false
	}
	return key, true
}
