package handler

import (
	"github.com/erp/accounting/internal/application/ledger"
	"github.com/gin-gonic/gin"
)

// LedgerHandler serves the chart of accounts and the journal of a company
type LedgerHandler struct {
	BaseHandler
	accountService *ledger.AccountService
	journalService *ledger.JournalService
}

// NewLedgerHandler creates a new LedgerHandler
func NewLedgerHandler(accountService *ledger.AccountService, journalService *ledger.JournalService) *LedgerHandler {
	return &LedgerHandler{accountService: accountService, journalService: journalService}
}

// ListAccountTypes handles GET /account-types
func (h *LedgerHandler) ListAccountTypes(c *gin.Context) {
	h.Success(c, h.accountService.ListAccountTypes())
}

// CreateAccount handles POST /companies/:company_id/accounts
func (h *LedgerHandler) CreateAccount(c *gin.Context) {
	tenantID, companyID, ok := h.companyScope(c)
	if !ok {
		return
	}
	var req ledger.CreateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	account, err := h.accountService.Create(c.Request.Context(), tenantID, companyID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, account)
}

// ListAccounts handles GET /companies/:company_id/accounts
func (h *LedgerHandler) ListAccounts(c *gin.Context) {
	tenantID, companyID, ok := h.companyScope(c)
	if !ok {
		return
	}
	var filter ledger.AccountListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BindError(c, err)
		return
	}
	accounts, total, err := h.accountService.List(c.Request.Context(), tenantID, companyID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	p, size := page(filter.Page, filter.PageSize)
	h.SuccessWithMeta(c, accounts, total, p, size)
}

// AccountTree handles GET /companies/:company_id/accounts/tree
func (h *LedgerHandler) AccountTree(c *gin.Context) {
	tenantID, companyID, ok := h.companyScope(c)
	if !ok {
		return
	}
	tree, err := h.accountService.Tree(c.Request.Context(), tenantID, companyID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, tree)
}

// TrialBalance handles GET /companies/:company_id/accounts/trial-balance?as_of=
func (h *LedgerHandler) TrialBalance(c *gin.Context) {
	tenantID, companyID, ok := h.companyScope(c)
	if !ok {
		return
	}
	asOf, ok := h.queryDate(c, "as_of")
	if !ok {
		return
	}
	tb, err := h.accountService.TrialBalance(c.Request.Context(), tenantID, companyID, asOf)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, tb)
}

// GetAccount handles GET /companies/:company_id/accounts/:id
func (h *LedgerHandler) GetAccount(c *gin.Context) {
	tenantID, companyID, id, ok := h.companyResource(c)
	if !ok {
		return
	}
	account, err := h.accountService.GetByID(c.Request.Context(), tenantID, companyID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, account)
}

// UpdateAccount handles PUT /companies/:company_id/accounts/:id
func (h *LedgerHandler) UpdateAccount(c *gin.Context) {
	tenantID, companyID, id, ok := h.companyResource(c)
	if !ok {
		return
	}
	var req ledger.UpdateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	account, err := h.accountService.Update(c.Request.Context(), tenantID, companyID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, account)
}

// DeleteAccount handles DELETE /companies/:company_id/accounts/:id
func (h *LedgerHandler) DeleteAccount(c *gin.Context) {
	tenantID, companyID, id, ok := h.companyResource(c)
	if !ok {
		return
	}
	if err := h.accountService.Delete(c.Request.Context(), tenantID, companyID, id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// PostJournalEntry handles POST /companies/:company_id/journal-entries
func (h *LedgerHandler) PostJournalEntry(c *gin.Context) {
	tenantID, companyID, ok := h.companyScope(c)
	if !ok {
		return
	}
	var req ledger.CreateJournalEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	entry, err := h.journalService.Post(c.Request.Context(), tenantID, companyID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, entry)
}

// ListJournalEntries handles GET /companies/:company_id/journal-entries
func (h *LedgerHandler) ListJournalEntries(c *gin.Context) {
	tenantID, companyID, ok := h.companyScope(c)
	if !ok {
		return
	}
	var filter ledger.JournalEntryListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BindError(c, err)
		return
	}
	entries, total, err := h.journalService.List(c.Request.Context(), tenantID, companyID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	p, size := page(filter.Page, filter.PageSize)
	h.SuccessWithMeta(c, entries, total, p, size)
}

// GetJournalEntry handles GET /companies/:company_id/journal-entries/:id
func (h *LedgerHandler) GetJournalEntry(c *gin.Context) {
	tenantID, companyID, id, ok := h.companyResource(c)
	if !ok {
		return
	}
	entry, err := h.journalService.GetByID(c.Request.Context(), tenantID, companyID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, entry)
}
