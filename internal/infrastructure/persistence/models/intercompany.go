package models

import (
	"time"

	"github.com/erp/accounting/internal/domain/intercompany"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// IntercompanyTransactionModel is the persistence model for an intercompany transaction
type IntercompanyTransactionModel struct {
	TenantAggregateModel
	Number          string              `gorm:"type:varchar(50);not null;index"`
	SourceCompanyID uuid.UUID           `gorm:"type:uuid;not null;index"`
	TargetCompanyID uuid.UUID           `gorm:"type:uuid;not null;index"`
	SalesOrderID    uuid.UUID           `gorm:"type:uuid;not null"`
	PurchaseOrderID uuid.UUID           `gorm:"type:uuid;not null"`
	InvoiceID       *uuid.UUID          `gorm:"type:uuid"`
	BillID          *uuid.UUID          `gorm:"type:uuid"`
	Amount          decimal.Decimal     `gorm:"type:decimal(18,4);not null"`
	SettledAmount   decimal.Decimal     `gorm:"type:decimal(18,4);not null;default:0"`
	Status          intercompany.Status `gorm:"type:varchar(20);not null;index"`
	TransactionDate time.Time           `gorm:"not null"`
	Description     string              `gorm:"type:text"`
	// Empty keys are stored as NULL so the partial unique index ignores them
	IdempotencyKey *string                       `gorm:"type:varchar(100);index"`
	Settlements    []IntercompanySettlementModel `gorm:"foreignKey:TransactionID"`
}

// TableName returns the table name for GORM
func (IntercompanyTransactionModel) TableName() string {
	return "intercompany_transactions"
}

// IntercompanySettlementModel is one matched receipt and bill payment pair
type IntercompanySettlementModel struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey"`
	TransactionID uuid.UUID       `gorm:"type:uuid;not null;index"`
	ReceiptID     uuid.UUID       `gorm:"type:uuid;not null"`
	BillPaymentID uuid.UUID       `gorm:"type:uuid;not null"`
	Amount        decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	SettledOn     time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (IntercompanySettlementModel) TableName() string {
	return "intercompany_settlements"
}

// ToDomain converts the persistence model to a domain Transaction
func (m *IntercompanyTransactionModel) ToDomain() *intercompany.Transaction {
	t := &intercompany.Transaction{
		TenantAggregateRoot: m.ToTenantAggregate(),
		Number:              m.Number,
		SourceCompanyID:     m.SourceCompanyID,
		TargetCompanyID:     m.TargetCompanyID,
		SalesOrderID:        m.SalesOrderID,
		PurchaseOrderID:     m.PurchaseOrderID,
		InvoiceID:           m.InvoiceID,
		BillID:              m.BillID,
		Amount:              m.Amount,
		SettledAmount:       m.SettledAmount,
		Status:              m.Status,
		TransactionDate:     m.TransactionDate,
		Description:         m.Description,
		Settlements:         make([]intercompany.Settlement, 0, len(m.Settlements)),
	}
	if m.IdempotencyKey != nil {
		t.IdempotencyKey = *m.IdempotencyKey
	}
	for _, s := range m.Settlements {
		t.Settlements = append(t.Settlements, intercompany.Settlement{
			ID:            s.ID,
			ReceiptID:     s.ReceiptID,
			BillPaymentID: s.BillPaymentID,
			Amount:        s.Amount,
			SettledOn:     s.SettledOn,
		})
	}
	return t
}

// IntercompanyTransactionModelFromDomain creates a persistence model from a domain Transaction
func IntercompanyTransactionModelFromDomain(t *intercompany.Transaction) *IntercompanyTransactionModel {
	m := &IntercompanyTransactionModel{
		Number:          t.Number,
		SourceCompanyID: t.SourceCompanyID,
		TargetCompanyID: t.TargetCompanyID,
		SalesOrderID:    t.SalesOrderID,
		PurchaseOrderID: t.PurchaseOrderID,
		InvoiceID:       t.InvoiceID,
		BillID:          t.BillID,
		Amount:          t.Amount,
		SettledAmount:   t.SettledAmount,
		Status:          t.Status,
		TransactionDate: t.TransactionDate,
		Description:     t.Description,
		Settlements:     make([]IntercompanySettlementModel, 0, len(t.Settlements)),
	}
	if t.IdempotencyKey != "" {
		key := t.IdempotencyKey
		m.IdempotencyKey = &key
	}
	m.FromTenantAggregate(t.TenantAggregateRoot)
	for _, s := range t.Settlements {
		m.Settlements = append(m.Settlements, IntercompanySettlementModel{
			ID:            s.ID,
			TransactionID: t.ID,
			ReceiptID:     s.ReceiptID,
			BillPaymentID: s.BillPaymentID,
			Amount:        s.Amount,
			SettledOn:     s.SettledOn,
		})
	}
	return m
}
