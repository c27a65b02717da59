package handler

import (
	"context"

	"github.com/erp/accounting/internal/application/billing"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// DocumentBook is the surface shared by the invoice and bill services
type DocumentBook interface {
	CreateFromOrder(ctx context.Context, tenantID, companyID uuid.UUID, req billing.CreateFromOrderRequest) (*billing.DocumentResponse, error)
	Issue(ctx context.Context, tenantID, companyID, documentID uuid.UUID) (*billing.DocumentResponse, error)
	GetByID(ctx context.Context, tenantID, companyID, documentID uuid.UUID) (*billing.DocumentResponse, error)
	List(ctx context.Context, tenantID, companyID uuid.UUID, filter billing.DocumentListFilter) ([]billing.DocumentResponse, int64, error)
	Summary(ctx context.Context, tenantID, companyID uuid.UUID) (*billing.DocumentSummaryResponse, error)
}

type (
	recordFunc       func(ctx context.Context, tenantID, companyID, documentID uuid.UUID, req billing.RecordPaymentRequest) (*billing.PaymentResult, error)
	listPaymentsFunc func(ctx context.Context, tenantID, companyID, documentID uuid.UUID) ([]billing.PaymentResponse, error)
)

// DocumentHandler serves invoices with their receipts, or bills with their payments
type DocumentHandler struct {
	BaseHandler
	book         DocumentBook
	record       recordFunc
	listPayments listPaymentsFunc
	documents    *billing.DocumentService
}

// NewInvoiceHandler creates the handler for invoices and receipts.
// documents may be nil when invoice printing is not wired.
func NewInvoiceHandler(invoices *billing.InvoiceService, documents *billing.DocumentService) *DocumentHandler {
	return &DocumentHandler{
		book:         invoices,
		record:       invoices.RecordReceipt,
		listPayments: invoices.ListReceipts,
		documents:    documents,
	}
}

// NewBillHandler creates the handler for bills and bill payments
func NewBillHandler(bills *billing.BillService) *DocumentHandler {
	return &DocumentHandler{
		book:         bills,
		record:       bills.RecordPayment,
		listPayments: bills.ListPayments,
	}
}

// CreateFromOrder handles POST /companies/:company_id/{invoices,bills}/from-order
func (h *DocumentHandler) CreateFromOrder(c *gin.Context) {
	tenantID, companyID, ok := h.companyScope(c)
	if !ok {
		return
	}
	var req billing.CreateFromOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	doc, err := h.book.CreateFromOrder(c.Request.Context(), tenantID, companyID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, doc)
}

// List handles GET /companies/:company_id/{invoices,bills}
func (h *DocumentHandler) List(c *gin.Context) {
	tenantID, companyID, ok := h.companyScope(c)
	if !ok {
		return
	}
	var filter billing.DocumentListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BindError(c, err)
		return
	}
	if filter.OrderID, ok = h.queryID(c, "order_id"); !ok {
		return
	}
	if filter.CounterpartyCompanyID, ok = h.queryID(c, "counterparty_company_id"); !ok {
		return
	}
	docs, total, err := h.book.List(c.Request.Context(), tenantID, companyID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	p, size := page(filter.Page, filter.PageSize)
	h.SuccessWithMeta(c, docs, total, p, size)
}

// Summary handles GET /companies/:company_id/{invoices,bills}/summary
func (h *DocumentHandler) Summary(c *gin.Context) {
	tenantID, companyID, ok := h.companyScope(c)
	if !ok {
		return
	}
	summary, err := h.book.Summary(c.Request.Context(), tenantID, companyID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, summary)
}

// Get handles GET /companies/:company_id/{invoices,bills}/:id
func (h *DocumentHandler) Get(c *gin.Context) {
	tenantID, companyID, id, ok := h.companyResource(c)
	if !ok {
		return
	}
	doc, err := h.book.GetByID(c.Request.Context(), tenantID, companyID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, doc)
}

// Issue handles POST /companies/:company_id/{invoices,bills}/:id/issue
func (h *DocumentHandler) Issue(c *gin.Context) {
	tenantID, companyID, id, ok := h.companyResource(c)
	if !ok {
		return
	}
	doc, err := h.book.Issue(c.Request.Context(), tenantID, companyID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, doc)
}

// RecordPayment handles POST /companies/:company_id/invoices/:id/receipts and
// POST /companies/:company_id/bills/:id/payments
func (h *DocumentHandler) RecordPayment(c *gin.Context) {
	tenantID, companyID, id, ok := h.companyResource(c)
	if !ok {
		return
	}
	var req billing.RecordPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	result, err := h.record(c.Request.Context(), tenantID, companyID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, result)
}

// ListPayments handles GET on the receipts or payments of a document
func (h *DocumentHandler) ListPayments(c *gin.Context) {
	tenantID, companyID, id, ok := h.companyResource(c)
	if !ok {
		return
	}
	payments, err := h.listPayments(c.Request.Context(), tenantID, companyID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, payments)
}

// Document handles GET /companies/:company_id/invoices/:id/document, the printable invoice data
func (h *DocumentHandler) Document(c *gin.Context) {
	tenantID, companyID, id, ok := h.companyResource(c)
	if !ok {
		return
	}
	if h.documents == nil {
		h.ErrorWithCode(c, "PRINTING_DISABLED", "Invoice documents are not available")
		return
	}
	doc, err := h.documents.BuildInvoiceDocument(c.Request.Context(), tenantID, companyID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, doc)
}

// RenderDocument handles POST /companies/:company_id/invoices/:id/document: PDF rendering and upload
func (h *DocumentHandler) RenderDocument(c *gin.Context) {
	tenantID, companyID, id, ok := h.companyResource(c)
	if !ok {
		return
	}
	if h.documents == nil {
		h.ErrorWithCode(c, "PRINTING_DISABLED", "Invoice documents are not available")
		return
	}
	rendered, err := h.documents.RenderInvoiceDocument(c.Request.Context(), tenantID, companyID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, rendered)
}
