package billing

import (
	"github.com/erp/accounting/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	AggregateTypeInvoice     = "Invoice"
	AggregateTypeBill        = "Bill"
	AggregateTypeReceipt     = "Receipt"
	AggregateTypeBillPayment = "BillPayment"
)

const (
	EventTypeInvoiceCreated       = "InvoiceCreated"
	EventTypeInvoiceStatusChanged = "InvoiceStatusChanged"
	EventTypeBillCreated          = "BillCreated"
	EventTypeBillStatusChanged    = "BillStatusChanged"
	EventTypeReceiptRecorded      = "ReceiptRecorded"
	EventTypeBillPaymentRecorded  = "BillPaymentRecorded"
)

func documentAggregate(kind DocumentKind) (aggType, created, changed string) {
	if kind == DocumentKindBill {
		return AggregateTypeBill, EventTypeBillCreated, EventTypeBillStatusChanged
	}
	return AggregateTypeInvoice, EventTypeInvoiceCreated, EventTypeInvoiceStatusChanged
}

// DocumentCreatedEvent is published when an invoice or bill is raised
type DocumentCreatedEvent struct {
	shared.BaseDomainEvent
	CompanyID   uuid.UUID       `json:"company_id"`
	Number      string          `json:"number"`
	OrderID     uuid.UUID       `json:"order_id"`
	TotalAmount decimal.Decimal `json:"total_amount"`
}

// NewDocumentCreatedEvent creates a new DocumentCreatedEvent
func NewDocumentCreatedEvent(d *Document) *DocumentCreatedEvent {
	aggType, created, _ := documentAggregate(d.Kind)
	return &DocumentCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(created, aggType, d.ID, d.TenantID),
		CompanyID:       d.CompanyID,
		Number:          d.Number,
		OrderID:         d.OrderID,
		TotalAmount:     d.TotalAmount,
	}
}

// AffectedCompanies implements shared.CompanyEvent
func (e *DocumentCreatedEvent) AffectedCompanies() []uuid.UUID {
	return []uuid.UUID{e.CompanyID}
}

// DocumentStatusChangedEvent is published when an invoice or bill changes status
type DocumentStatusChangedEvent struct {
	shared.BaseDomainEvent
	CompanyID  uuid.UUID       `json:"company_id"`
	Number     string          `json:"number"`
	OldStatus  DocumentStatus  `json:"old_status"`
	NewStatus  DocumentStatus  `json:"new_status"`
	PaidAmount decimal.Decimal `json:"paid_amount"`
}

// NewDocumentStatusChangedEvent creates a new DocumentStatusChangedEvent
func NewDocumentStatusChangedEvent(d *Document, oldStatus DocumentStatus) *DocumentStatusChangedEvent {
	aggType, _, changed := documentAggregate(d.Kind)
	return &DocumentStatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(changed, aggType, d.ID, d.TenantID),
		CompanyID:       d.CompanyID,
		Number:          d.Number,
		OldStatus:       oldStatus,
		NewStatus:       d.Status,
		PaidAmount:      d.PaidAmount,
	}
}

// AffectedCompanies implements shared.CompanyEvent
func (e *DocumentStatusChangedEvent) AffectedCompanies() []uuid.UUID {
	return []uuid.UUID{e.CompanyID}
}

// PaymentRecordedEvent is published when a receipt or bill payment is recorded
type PaymentRecordedEvent struct {
	shared.BaseDomainEvent
	CompanyID  uuid.UUID       `json:"company_id"`
	DocumentID uuid.UUID       `json:"document_id"`
	Number     string          `json:"number"`
	Amount     decimal.Decimal `json:"amount"`
}

// NewPaymentRecordedEvent creates a new PaymentRecordedEvent
func NewPaymentRecordedEvent(p *Payment) *PaymentRecordedEvent {
	eventType, aggType := EventTypeReceiptRecorded, AggregateTypeReceipt
	if p.Kind == PaymentKindBillPayment {
		eventType, aggType = EventTypeBillPaymentRecorded, AggregateTypeBillPayment
	}
	return &PaymentRecordedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, aggType, p.ID, p.TenantID),
		CompanyID:       p.CompanyID,
		DocumentID:      p.DocumentID,
		Number:          p.Number,
		Amount:          p.Amount,
	}
}

// AffectedCompanies implements shared.CompanyEvent
func (e *PaymentRecordedEvent) AffectedCompanies() []uuid.UUID {
	return []uuid.UUID{e.CompanyID}
}
