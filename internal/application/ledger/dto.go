package ledger

import (
	"time"

	"github.com/erp/accounting/internal/domain/ledger"
	"github.com/erp/accounting/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateAccountRequest represents a request to add an account to a company's chart
type CreateAccountRequest struct {
	Code        string             `json:"code" binding:"required,min=1,max=20"`
	Name        string             `json:"name" binding:"required,min=1,max=200"`
	Description string             `json:"description" binding:"max=1000"`
	Type        ledger.AccountType `json:"type" binding:"required,oneof=ASSET LIABILITY EQUITY REVENUE EXPENSE"`
	ParentID    *uuid.UUID         `json:"parent_id"`
	IsHeader    bool               `json:"is_header"`
}

// UpdateAccountRequest represents a request to update an account
type UpdateAccountRequest struct {
	Name        *string `json:"name" binding:"omitempty,min=1,max=200"`
	Description *string `json:"description" binding:"omitempty,max=1000"`
	IsActive    *bool   `json:"is_active"`
}

// AccountResponse represents an account in API responses
type AccountResponse struct {
	ID          uuid.UUID          `json:"id"`
	CompanyID   uuid.UUID          `json:"company_id"`
	Code        string             `json:"code"`
	Name        string             `json:"name"`
	Description string             `json:"description"`
	Type        ledger.AccountType `json:"type"`
	ParentID    *uuid.UUID         `json:"parent_id"`
	Balance     decimal.Decimal    `json:"balance"`
	IsHeader    bool               `json:"is_header"`
	IsSystem    bool               `json:"is_system"`
	IsActive    bool               `json:"is_active"`
	CreatedAt   time.Time          `json:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"`
	Version     int                `json:"version"`
}

// AccountTreeNode is an account with its children and rolled-up balance
type AccountTreeNode struct {
	AccountResponse
	RolledBalance decimal.Decimal    `json:"rolled_balance"`
	Children      []*AccountTreeNode `json:"children"`
}

// AccountListFilter represents filter options for listing accounts
type AccountListFilter struct {
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=500"`
	Search   string `form:"search"`
	Type     string `form:"type" binding:"omitempty,oneof=ASSET LIABILITY EQUITY REVENUE EXPENSE"`
	IsActive *bool  `form:"is_active"`
	OrderBy  string `form:"order_by"`
	OrderDir string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// ToSharedFilter converts the request filter to a repository filter
func (f AccountListFilter) ToSharedFilter() shared.Filter {
	filter := shared.Filter{
		Page:     f.Page,
		PageSize: f.PageSize,
		OrderBy:  f.OrderBy,
		OrderDir: f.OrderDir,
		Search:   f.Search,
		Filters:  map[string]interface{}{},
	}
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 100
	}
	if filter.OrderBy == "" {
		filter.OrderBy = "code"
		filter.OrderDir = "asc"
	}
	if f.Type != "" {
		filter.Filters["type"] = f.Type
	}
	if f.IsActive != nil {
		filter.Filters["is_active"] = *f.IsActive
	}
	return filter
}

// TrialBalanceLineResponse is one row of a trial balance
type TrialBalanceLineResponse struct {
	AccountID uuid.UUID          `json:"account_id"`
	Code      string             `json:"code"`
	Name      string             `json:"name"`
	Type      ledger.AccountType `json:"type"`
	Debit     decimal.Decimal    `json:"debit"`
	Credit    decimal.Decimal    `json:"credit"`
}

// TrialBalanceResponse represents a company's trial balance
type TrialBalanceResponse struct {
	CompanyID   uuid.UUID                  `json:"company_id"`
	Lines       []TrialBalanceLineResponse `json:"lines"`
	TotalDebit  decimal.Decimal            `json:"total_debit"`
	TotalCredit decimal.Decimal            `json:"total_credit"`
	Difference  decimal.Decimal            `json:"difference"`
	Balanced    bool                       `json:"balanced"`
}

// JournalLineRequest is one line of a manual journal entry
type JournalLineRequest struct {
	AccountCode string          `json:"account_code" binding:"required,max=20"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
	Memo        string          `json:"memo" binding:"max=500"`
}

// CreateJournalEntryRequest represents a manual journal entry
type CreateJournalEntryRequest struct {
	EntryDate   time.Time            `json:"entry_date"`
	Description string               `json:"description" binding:"required,max=500"`
	Lines       []JournalLineRequest `json:"lines" binding:"required,min=2,dive"`
}

// JournalLineResponse represents a journal line in API responses
type JournalLineResponse struct {
	ID          uuid.UUID       `json:"id"`
	LineNo      int             `json:"line_no"`
	AccountID   uuid.UUID       `json:"account_id"`
	AccountCode string          `json:"account_code"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
	Memo        string          `json:"memo"`
}

// JournalEntryResponse represents a journal entry in API responses
type JournalEntryResponse struct {
	ID          uuid.UUID             `json:"id"`
	CompanyID   uuid.UUID             `json:"company_id"`
	EntryNumber string                `json:"entry_number"`
	EntryDate   time.Time             `json:"entry_date"`
	Description string                `json:"description"`
	SourceType  ledger.SourceType     `json:"source_type"`
	SourceID    *uuid.UUID            `json:"source_id"`
	TotalDebit  decimal.Decimal       `json:"total_debit"`
	TotalCredit decimal.Decimal       `json:"total_credit"`
	Lines       []JournalLineResponse `json:"lines"`
	PostedAt    *time.Time            `json:"posted_at"`
	CreatedAt   time.Time             `json:"created_at"`
}

// JournalEntryListFilter represents filter options for listing journal entries
type JournalEntryListFilter struct {
	Page       int        `form:"page" binding:"omitempty,min=1"`
	PageSize   int        `form:"page_size" binding:"omitempty,min=1,max=100"`
	Search     string     `form:"search"`
	SourceType string     `form:"source_type"`
	DateFrom   *time.Time `form:"date_from" time_format:"2006-01-02"`
	DateTo     *time.Time `form:"date_to" time_format:"2006-01-02"`
	OrderBy    string     `form:"order_by"`
	OrderDir   string     `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// ToSharedFilter converts the request filter to a repository filter
func (f JournalEntryListFilter) ToSharedFilter() shared.Filter {
	filter := shared.Filter{
		Page:     f.Page,
		PageSize: f.PageSize,
		OrderBy:  f.OrderBy,
		OrderDir: f.OrderDir,
		Search:   f.Search,
		Filters:  map[string]interface{}{},
	}
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	if filter.OrderBy == "" {
		filter.OrderBy = "entry_date"
		filter.OrderDir = "desc"
	}
	if f.SourceType != "" {
		filter.Filters["source_type"] = f.SourceType
	}
	if f.DateFrom != nil {
		filter.Filters["date_from"] = *f.DateFrom
	}
	if f.DateTo != nil {
		filter.Filters["date_to"] = *f.DateTo
	}
	return filter
}

// ToAccountResponse converts a domain account to a response
func ToAccountResponse(a *ledger.Account) AccountResponse {
	return AccountResponse{
		ID:          a.ID,
		CompanyID:   a.CompanyID,
		Code:        a.Code,
		Name:        a.Name,
		Description: a.Description,
		Type:        a.Type,
		ParentID:    a.ParentID,
		Balance:     a.Balance,
		IsHeader:    a.IsHeader,
		IsSystem:    a.IsSystem,
		IsActive:    a.IsActive,
		CreatedAt:   a.CreatedAt,
		UpdatedAt:   a.UpdatedAt,
		Version:     a.Version,
	}
}

// ToAccountResponses converts a slice of accounts
func ToAccountResponses(accounts []ledger.Account) []AccountResponse {
	out := make([]AccountResponse, len(accounts))
	for i := range accounts {
		out[i] = ToAccountResponse(&accounts[i])
	}
	return out
}

func toTreeNodes(nodes []*ledger.AccountNode) []*AccountTreeNode {
	out := make([]*AccountTreeNode, len(nodes))
	for i, n := range nodes {
		out[i] = &AccountTreeNode{
			AccountResponse: ToAccountResponse(n.Account),
			RolledBalance:   n.RolledBalance,
			Children:        toTreeNodes(n.Children),
		}
	}
	return out
}

// ToTrialBalanceResponse converts a domain trial balance
func ToTrialBalanceResponse(tb *ledger.TrialBalance) *TrialBalanceResponse {
	lines := make([]TrialBalanceLineResponse, len(tb.Lines))
	for i, l := range tb.Lines {
		lines[i] = TrialBalanceLineResponse{
			AccountID: l.AccountID,
			Code:      l.Code,
			Name:      l.Name,
			Type:      l.Type,
			Debit:     l.Debit,
			Credit:    l.Credit,
		}
	}
	return &TrialBalanceResponse{
		CompanyID:   tb.CompanyID,
		Lines:       lines,
		TotalDebit:  tb.TotalDebit,
		TotalCredit: tb.TotalCredit,
		Difference:  tb.Difference(),
		Balanced:    tb.IsBalanced(),
	}
}

// ToJournalEntryResponse converts a domain journal entry
func ToJournalEntryResponse(e *ledger.JournalEntry) JournalEntryResponse {
	lines := make([]JournalLineResponse, len(e.Lines))
	for i, l := range e.Lines {
		lines[i] = JournalLineResponse{
			ID:          l.ID,
			LineNo:      l.LineNo,
			AccountID:   l.AccountID,
			AccountCode: l.AccountCode,
			Debit:       l.Debit,
			Credit:      l.Credit,
			Memo:        l.Memo,
		}
	}
	return JournalEntryResponse{
		ID:          e.ID,
		CompanyID:   e.CompanyID,
		EntryNumber: e.EntryNumber,
		EntryDate:   e.EntryDate,
		Description: e.Description,
		SourceType:  e.SourceType,
		SourceID:    e.SourceID,
		TotalDebit:  e.TotalDebit(),
		TotalCredit: e.TotalCredit(),
		Lines:       lines,
		PostedAt:    e.PostedAt,
		CreatedAt:   e.CreatedAt,
	}
}
