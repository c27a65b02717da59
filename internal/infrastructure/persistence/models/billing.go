package models

import (
	"time"

	"github.com/erp/accounting/internal/domain/billing"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DocumentModel stores invoices and bills, told apart by Kind
type DocumentModel struct {
	CompanyAggregateModel
	Kind                  billing.DocumentKind   `gorm:"type:varchar(20);not null;index"`
	Number                string                 `gorm:"type:varchar(50);not null;index"`
	CounterpartyCompanyID *uuid.UUID             `gorm:"type:uuid;index"`
	OrderID               uuid.UUID              `gorm:"type:uuid;not null;index"`
	IssueDate             time.Time              `gorm:"not null"`
	DueDate               time.Time              `gorm:"not null;index"`
	TotalAmount           decimal.Decimal        `gorm:"type:decimal(18,4);not null"`
	PaidAmount            decimal.Decimal        `gorm:"type:decimal(18,4);not null;default:0"`
	Status                billing.DocumentStatus `gorm:"type:varchar(20);not null;default:'pending';index"`
	IntercompanyID        *uuid.UUID             `gorm:"type:uuid;index"`
	IssuedAt              *time.Time
	PaidAt                *time.Time
	Notes                 string `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (DocumentModel) TableName() string {
	return "documents"
}

// ToDomain converts the persistence model to a domain Document
func (m *DocumentModel) ToDomain() billing.Document {
	return billing.Document{
		CompanyAggregateRoot:  m.ToCompanyAggregate(),
		Kind:                  m.Kind,
		Number:                m.Number,
		CounterpartyCompanyID: m.CounterpartyCompanyID,
		OrderID:               m.OrderID,
		IssueDate:             m.IssueDate,
		DueDate:               m.DueDate,
		TotalAmount:           m.TotalAmount,
		PaidAmount:            m.PaidAmount,
		Status:                m.Status,
		IntercompanyID:        m.IntercompanyID,
		IssuedAt:              m.IssuedAt,
		PaidAt:                m.PaidAt,
		Notes:                 m.Notes,
	}
}

// DocumentModelFromDomain creates a persistence model from a domain Document
func DocumentModelFromDomain(d *billing.Document) *DocumentModel {
	m := &DocumentModel{
		Kind:                  d.Kind,
		Number:                d.Number,
		CounterpartyCompanyID: d.CounterpartyCompanyID,
		OrderID:               d.OrderID,
		IssueDate:             d.IssueDate,
		DueDate:               d.DueDate,
		TotalAmount:           d.TotalAmount,
		PaidAmount:            d.PaidAmount,
		Status:                d.Status,
		IntercompanyID:        d.IntercompanyID,
		IssuedAt:              d.IssuedAt,
		PaidAt:                d.PaidAt,
		Notes:                 d.Notes,
	}
	m.FromCompanyAggregate(d.CompanyAggregateRoot)
	return m
}

// PaymentModel stores receipts and bill payments, told apart by Kind
type PaymentModel struct {
	CompanyAggregateModel
	Kind           billing.PaymentKind   `gorm:"type:varchar(20);not null;index"`
	Number         string                `gorm:"type:varchar(50);not null;index"`
	DocumentID     uuid.UUID             `gorm:"type:uuid;not null;index"`
	Amount         decimal.Decimal       `gorm:"type:decimal(18,4);not null"`
	PaymentDate    time.Time             `gorm:"not null"`
	Method         billing.PaymentMethod `gorm:"type:varchar(20);not null"`
	Reference      string                `gorm:"type:varchar(200)"`
	IntercompanyID *uuid.UUID            `gorm:"type:uuid;index"`
}

// TableName returns the table name for GORM
func (PaymentModel) TableName() string {
	return "payments"
}

// ToDomain converts the persistence model to a domain Payment
func (m *PaymentModel) ToDomain() billing.Payment {
	return billing.Payment{
		CompanyAggregateRoot: m.ToCompanyAggregate(),
		Kind:                 m.Kind,
		Number:               m.Number,
		DocumentID:           m.DocumentID,
		Amount:               m.Amount,
		PaymentDate:          m.PaymentDate,
		Method:               m.Method,
		Reference:            m.Reference,
		IntercompanyID:       m.IntercompanyID,
	}
}

// PaymentModelFromDomain creates a persistence model from a domain Payment
func PaymentModelFromDomain(p *billing.Payment) *PaymentModel {
	m := &PaymentModel{
		Kind:           p.Kind,
		Number:         p.Number,
		DocumentID:     p.DocumentID,
		Amount:         p.Amount,
		PaymentDate:    p.PaymentDate,
		Method:         p.Method,
		Reference:      p.Reference,
		IntercompanyID: p.IntercompanyID,
	}
	m.FromCompanyAggregate(p.CompanyAggregateRoot)
	return m
}
