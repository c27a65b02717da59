package billing

import (
	"time"

	"github.com/erp/accounting/internal/domain/billing"
	"github.com/erp/accounting/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var errIntercompanyDocument = shared.NewDomainError("INTERCOMPANY_DOCUMENT",
	"Intercompany documents are settled through their intercompany transaction")

// CreateFromOrderRequest raises an invoice or a bill for a confirmed order
type CreateFromOrderRequest struct {
	OrderID   uuid.UUID `json:"order_id" binding:"required"`
	IssueDate time.Time `json:"issue_date"`
	DueDate   time.Time `json:"due_date"`
	Notes     string    `json:"notes" binding:"max=2000"`
}

// RecordPaymentRequest records a receipt against an invoice or a payment against a bill
type RecordPaymentRequest struct {
	Amount      decimal.Decimal `json:"amount" binding:"required"`
	PaymentDate time.Time       `json:"payment_date"`
	Method      string          `json:"method" binding:"omitempty,oneof=cash bank_transfer check card other"`
	Reference   string          `json:"reference" binding:"max=200"`
}

// ToPaymentInput converts the request to the domain input. The number is drawn by the service.
func (r RecordPaymentRequest) ToPaymentInput(number string) billing.PaymentInput {
	return billing.PaymentInput{
		Number:      number,
		Amount:      r.Amount,
		PaymentDate: r.PaymentDate,
		Method:      billing.PaymentMethod(r.Method),
		Reference:   r.Reference,
	}
}

// DocumentResponse represents an invoice or a bill in API responses
type DocumentResponse struct {
	ID                    uuid.UUID              `json:"id"`
	TenantID              uuid.UUID              `json:"tenant_id"`
	CompanyID             uuid.UUID              `json:"company_id"`
	Kind                  billing.DocumentKind   `json:"kind"`
	Number                string                 `json:"number"`
	CounterpartyCompanyID *uuid.UUID             `json:"counterparty_company_id,omitempty"`
	OrderID               uuid.UUID              `json:"order_id"`
	IssueDate             time.Time              `json:"issue_date"`
	DueDate               time.Time              `json:"due_date"`
	TotalAmount           decimal.Decimal        `json:"total_amount"`
	PaidAmount            decimal.Decimal        `json:"paid_amount"`
	Outstanding           decimal.Decimal        `json:"outstanding"`
	Status                billing.DocumentStatus `json:"status"`
	Overdue               bool                   `json:"overdue"`
	IntercompanyID        *uuid.UUID             `json:"intercompany_id,omitempty"`
	IssuedAt              *time.Time             `json:"issued_at,omitempty"`
	PaidAt                *time.Time             `json:"paid_at,omitempty"`
	Notes                 string                 `json:"notes"`
	CreatedAt             time.Time              `json:"created_at"`
	UpdatedAt             time.Time              `json:"updated_at"`
	Version               int                    `json:"version"`
}

// PaymentResponse represents a receipt or a bill payment in API responses
type PaymentResponse struct {
	ID             uuid.UUID             `json:"id"`
	TenantID       uuid.UUID             `json:"tenant_id"`
	CompanyID      uuid.UUID             `json:"company_id"`
	Kind           billing.PaymentKind   `json:"kind"`
	Number         string                `json:"number"`
	DocumentID     uuid.UUID             `json:"document_id"`
	Amount         decimal.Decimal       `json:"amount"`
	PaymentDate    time.Time             `json:"payment_date"`
	Method         billing.PaymentMethod `json:"method"`
	Reference      string                `json:"reference"`
	IntercompanyID *uuid.UUID            `json:"intercompany_id,omitempty"`
	CreatedAt      time.Time             `json:"created_at"`
}

// PaymentResult is returned after recording a payment: the payment and the updated document
type PaymentResult struct {
	Payment  PaymentResponse  `json:"payment"`
	Document DocumentResponse `json:"document"`
}

// DocumentListFilter represents filter options for listing invoices or bills
type DocumentListFilter struct {
	Page                  int        `form:"page" binding:"omitempty,min=1"`
	PageSize              int        `form:"page_size" binding:"omitempty,min=1,max=100"`
	Search                string     `form:"search"`
	Status                string     `form:"status" binding:"omitempty,oneof=pending open partial paid"`
	Overdue               bool       `form:"overdue"`
	OrderID               *uuid.UUID `form:"-"`
	CounterpartyCompanyID *uuid.UUID `form:"-"`
	DateFrom              *time.Time `form:"date_from" time_format:"2006-01-02"`
	DateTo                *time.Time `form:"date_to" time_format:"2006-01-02"`
	OrderBy               string     `form:"order_by"`
	OrderDir              string     `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// ToSharedFilter converts the request filter to a repository filter.
// Overdue is computed against now rather than stored.
func (f DocumentListFilter) ToSharedFilter(now time.Time) shared.Filter {
	filter := shared.DefaultFilter()
	if f.Page > 0 {
		filter.Page = f.Page
	}
	if f.PageSize > 0 {
		filter.PageSize = f.PageSize
	}
	filter.OrderBy = "issue_date"
	filter.OrderDir = "desc"
	if f.OrderBy != "" {
		filter.OrderBy = f.OrderBy
		filter.OrderDir = f.OrderDir
	}
	filter.Search = f.Search
	if f.Status != "" {
		filter.Filters["status"] = f.Status
	}
	if f.Overdue {
		filter.Filters["overdue_as_of"] = now
	}
	if f.OrderID != nil {
		filter.Filters["order_id"] = *f.OrderID
	}
	if f.CounterpartyCompanyID != nil {
		filter.Filters["counterparty_company_id"] = *f.CounterpartyCompanyID
	}
	if f.DateFrom != nil {
		filter.Filters["date_from"] = *f.DateFrom
	}
	if f.DateTo != nil {
		y, m, d := f.DateTo.Date()
		filter.Filters["date_to"] = time.Date(y, m, d, 23, 59, 59, 0, f.DateTo.Location())
	}
	return filter
}

// DocumentSummaryResponse totals a company's invoices or bills
type DocumentSummaryResponse struct {
	CompanyID    uuid.UUID            `json:"company_id"`
	Kind         billing.DocumentKind `json:"kind"`
	Statuses     []shared.StatusTotal `json:"statuses"`
	Count        int64                `json:"count"`
	Total        decimal.Decimal      `json:"total"`
	Paid         decimal.Decimal      `json:"paid"`
	Outstanding  decimal.Decimal      `json:"outstanding"`
	OverdueCount int64                `json:"overdue_count"`
}

func newDocumentSummary(companyID uuid.UUID, kind billing.DocumentKind, totals []shared.StatusTotal, overdue int64) *DocumentSummaryResponse {
	summary := &DocumentSummaryResponse{
		CompanyID:    companyID,
		Kind:         kind,
		Statuses:     totals,
		Total:        decimal.Zero,
		Paid:         decimal.Zero,
		OverdueCount: overdue,
	}
	for _, t := range totals {
		summary.Count += t.Count
		summary.Total = summary.Total.Add(t.Total)
		summary.Paid = summary.Paid.Add(t.Paid)
	}
	summary.Outstanding = summary.Total.Sub(summary.Paid)
	return summary
}

// ToDocumentResponse converts an invoice or bill to a response
func ToDocumentResponse(d *billing.Document, now time.Time) DocumentResponse {
	return DocumentResponse{
		ID:                    d.ID,
		TenantID:              d.TenantID,
		CompanyID:             d.CompanyID,
		Kind:                  d.Kind,
		Number:                d.Number,
		CounterpartyCompanyID: d.CounterpartyCompanyID,
		OrderID:               d.OrderID,
		IssueDate:             d.IssueDate,
		DueDate:               d.DueDate,
		TotalAmount:           d.TotalAmount,
		PaidAmount:            d.PaidAmount,
		Outstanding:           d.Outstanding(),
		Status:                d.Status,
		Overdue:               d.IsOverdue(now),
		IntercompanyID:        d.IntercompanyID,
		IssuedAt:              d.IssuedAt,
		PaidAt:                d.PaidAt,
		Notes:                 d.Notes,
		CreatedAt:             d.CreatedAt,
		UpdatedAt:             d.UpdatedAt,
		Version:               d.Version,
	}
}

// ToPaymentResponse converts a receipt or bill payment to a response
func ToPaymentResponse(p *billing.Payment) PaymentResponse {
	return PaymentResponse{
		ID:             p.ID,
		TenantID:       p.TenantID,
		CompanyID:      p.CompanyID,
		Kind:           p.Kind,
		Number:         p.Number,
		DocumentID:     p.DocumentID,
		Amount:         p.Amount,
		PaymentDate:    p.PaymentDate,
		Method:         p.Method,
		Reference:      p.Reference,
		IntercompanyID: p.IntercompanyID,
		CreatedAt:      p.CreatedAt,
	}
}
