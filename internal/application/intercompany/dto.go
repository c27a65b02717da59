package intercompany

import (
	"time"

	apptrade "github.com/erp/accounting/internal/application/trade"
	"github.com/erp/accounting/internal/domain/billing"
	"github.com/erp/accounting/internal/domain/intercompany"
	"github.com/erp/accounting/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateTransactionRequest opens an intercompany trade. Lines are priced from the
// source company's catalog unless a unit price is given.
type CreateTransactionRequest struct {
	SourceCompanyID uuid.UUID                 `json:"source_company_id" binding:"required"`
	TargetCompanyID uuid.UUID                 `json:"target_company_id" binding:"required"`
	TransactionDate time.Time                 `json:"transaction_date"`
	Description     string                    `json:"description" binding:"max=2000"`
	Items           []apptrade.OrderItemInput `json:"items" binding:"required,min=1,dive"`
	IdempotencyKey  string                    `json:"-"`
}

// InvoiceTransactionRequest creates the mirrored invoice and bill
type InvoiceTransactionRequest struct {
	IssueDate time.Time  `json:"issue_date"`
	DueDate   *time.Time `json:"due_date"`
}

// SettleTransactionRequest records a matched receipt and bill payment
type SettleTransactionRequest struct {
	Amount         decimal.Decimal       `json:"amount" binding:"required"`
	PaymentDate    time.Time             `json:"payment_date"`
	Method         billing.PaymentMethod `json:"method"`
	Reference      string                `json:"reference" binding:"max=100"`
	IdempotencyKey string                `json:"-"`
}

// ReconcileRequest names the two companies to compare
type ReconcileRequest struct {
	CompanyA uuid.UUID `json:"company_a"`
	CompanyB uuid.UUID `json:"company_b"`
}

// TransactionListFilter filters intercompany transactions.
// CompanyID matches either side.
type TransactionListFilter struct {
	CompanyID       *uuid.UUID `form:"-"`
	SourceCompanyID *uuid.UUID `form:"-"`
	TargetCompanyID *uuid.UUID `form:"-"`
	Status          string     `form:"status" binding:"omitempty,oneof=ordered invoiced partially_settled settled cancelled"`
	Page            int        `form:"page" binding:"min=0"`
	PageSize        int        `form:"page_size" binding:"min=0,max=100"`
}

// ToSharedFilter converts to the repository filter
func (f TransactionListFilter) ToSharedFilter() shared.Filter {
	sf := shared.Filter{
		Page:     f.Page,
		PageSize: f.PageSize,
		OrderBy:  "transaction_date",
		OrderDir: "desc",
		Filters:  make(map[string]interface{}),
	}
	if sf.Page <= 0 {
		sf.Page = 1
	}
	if sf.PageSize <= 0 {
		sf.PageSize = 20
	}
	if f.CompanyID != nil {
		sf.Filters["company_id"] = *f.CompanyID
	}
	if f.SourceCompanyID != nil {
		sf.Filters["source_company_id"] = *f.SourceCompanyID
	}
	if f.TargetCompanyID != nil {
		sf.Filters["target_company_id"] = *f.TargetCompanyID
	}
	if f.Status != "" {
		sf.Filters["status"] = f.Status
	}
	return sf
}

// SettlementResponse is one matched receipt and bill payment
type SettlementResponse struct {
	ID            uuid.UUID       `json:"id"`
	ReceiptID     uuid.UUID       `json:"receipt_id"`
	BillPaymentID uuid.UUID       `json:"bill_payment_id"`
	Amount        decimal.Decimal `json:"amount"`
	SettledOn     time.Time       `json:"settled_on"`
}

// TransactionResponse represents an intercompany transaction in API responses
type TransactionResponse struct {
	ID              uuid.UUID            `json:"id"`
	TenantID        uuid.UUID            `json:"tenant_id"`
	Number          string               `json:"number"`
	SourceCompanyID uuid.UUID            `json:"source_company_id"`
	TargetCompanyID uuid.UUID            `json:"target_company_id"`
	SalesOrderID    uuid.UUID            `json:"sales_order_id"`
	PurchaseOrderID uuid.UUID            `json:"purchase_order_id"`
	InvoiceID       *uuid.UUID           `json:"invoice_id,omitempty"`
	BillID          *uuid.UUID           `json:"bill_id,omitempty"`
	Amount          decimal.Decimal      `json:"amount"`
	SettledAmount   decimal.Decimal      `json:"settled_amount"`
	Outstanding     decimal.Decimal      `json:"outstanding"`
	Status          intercompany.Status  `json:"status"`
	TransactionDate time.Time            `json:"transaction_date"`
	Description     string               `json:"description"`
	Settlements     []SettlementResponse `json:"settlements"`
	CreatedAt       time.Time            `json:"created_at"`
	UpdatedAt       time.Time            `json:"updated_at"`
	Version         int                  `json:"version"`
}

// ReconciliationResponse reports whether two companies agree on what they owe each other
type ReconciliationResponse struct {
	CompanyA     uuid.UUID               `json:"company_a"`
	CompanyB     uuid.UUID               `json:"company_b"`
	Transactions int                     `json:"transactions"`
	ReceivableAB decimal.Decimal         `json:"receivable_a_from_b"`
	PayableBA    decimal.Decimal         `json:"payable_b_to_a"`
	ReceivableBA decimal.Decimal         `json:"receivable_b_from_a"`
	PayableAB    decimal.Decimal         `json:"payable_a_to_b"`
	Reconciled   bool                    `json:"reconciled"`
	Mismatches   []intercompany.Mismatch `json:"mismatches"`
}

// ToTransactionResponse converts a transaction to its response
func ToTransactionResponse(t *intercompany.Transaction) TransactionResponse {
	settlements := make([]SettlementResponse, len(t.Settlements))
	for i, s := range t.Settlements {
		settlements[i] = SettlementResponse{
			ID:            s.ID,
			ReceiptID:     s.ReceiptID,
			BillPaymentID: s.BillPaymentID,
			Amount:        s.Amount,
			SettledOn:     s.SettledOn,
		}
	}
	return TransactionResponse{
		ID:              t.ID,
		TenantID:        t.TenantID,
		Number:          t.Number,
		SourceCompanyID: t.SourceCompanyID,
		TargetCompanyID: t.TargetCompanyID,
		SalesOrderID:    t.SalesOrderID,
		PurchaseOrderID: t.PurchaseOrderID,
		InvoiceID:       t.InvoiceID,
		BillID:          t.BillID,
		Amount:          t.Amount,
		SettledAmount:   t.SettledAmount,
		Outstanding:     t.Outstanding(),
		Status:          t.Status,
		TransactionDate: t.TransactionDate,
		Description:     t.Description,
		Settlements:     settlements,
		CreatedAt:       t.CreatedAt,
		UpdatedAt:       t.UpdatedAt,
		Version:         t.Version,
	}
}

func toReconciliationResponse(r *intercompany.Reconciliation) *ReconciliationResponse {
	return &ReconciliationResponse{
		CompanyA:     r.CompanyA,
		CompanyB:     r.CompanyB,
		Transactions: r.Transactions,
		ReceivableAB: r.ReceivableAB,
		PayableBA:    r.PayableBA,
		ReceivableBA: r.ReceivableBA,
		PayableAB:    r.PayableAB,
		Reconciled:   r.IsReconciled(),
		Mismatches:   r.Mismatches,
	}
}
