package intercompany

import (
	"github.com/erp/accounting/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const AggregateTypeTransaction = "IntercompanyTransaction"

const (
	EventTypeOrdered   = "IntercompanyOrdered"
	EventTypeInvoiced  = "IntercompanyInvoiced"
	EventTypeSettled   = "IntercompanySettled"
	EventTypeCancelled = "IntercompanyCancelled"
)

// TransactionEvent is published on every step of an intercompany transaction
type TransactionEvent struct {
	shared.BaseDomainEvent
	Number          string          `json:"number"`
	SourceCompanyID uuid.UUID       `json:"source_company_id"`
	TargetCompanyID uuid.UUID       `json:"target_company_id"`
	Status          Status          `json:"status"`
	Amount          decimal.Decimal `json:"amount"`
}

// NewTransactionEvent creates a new TransactionEvent
func NewTransactionEvent(eventType string, t *Transaction, amount decimal.Decimal) *TransactionEvent {
	return &TransactionEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, AggregateTypeTransaction, t.ID, t.TenantID),
		Number:          t.Number,
		SourceCompanyID: t.SourceCompanyID,
		TargetCompanyID: t.TargetCompanyID,
		Status:          t.Status,
		Amount:          amount,
	}
}

// AffectedCompanies implements shared.CompanyEvent
func (e *TransactionEvent) AffectedCompanies() []uuid.UUID {
	return []uuid.UUID{e.SourceCompanyID, e.TargetCompanyID}
}
