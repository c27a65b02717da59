package models

import (
	"time"

	"github.com/erp/accounting/internal/domain/ledger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AccountModel is the persistence model for a chart of accounts node
type AccountModel struct {
	CompanyAggregateModel
	Code        string             `gorm:"type:varchar(20);not null;index"`
	Name        string             `gorm:"type:varchar(200);not null"`
	Description string             `gorm:"type:text"`
	Type        ledger.AccountType `gorm:"type:varchar(20);not null"`
	ParentID    *uuid.UUID         `gorm:"type:uuid;index"`
	Balance     decimal.Decimal    `gorm:"type:decimal(18,4);not null;default:0"`
	IsHeader    bool               `gorm:"not null;default:false"`
	IsSystem    bool               `gorm:"not null;default:false"`
	IsActive    bool               `gorm:"not null;default:true"`
}

// TableName returns the table name for GORM
func (AccountModel) TableName() string {
	return "accounts"
}

// ToDomain converts the persistence model to a domain Account
func (m *AccountModel) ToDomain() *ledger.Account {
	return &ledger.Account{
		CompanyAggregateRoot: m.ToCompanyAggregate(),
		Code:                 m.Code,
		Name:                 m.Name,
		Description:          m.Description,
		Type:                 m.Type,
		ParentID:             m.ParentID,
		Balance:              m.Balance,
		IsHeader:             m.IsHeader,
		IsSystem:             m.IsSystem,
		IsActive:             m.IsActive,
	}
}

// AccountModelFromDomain creates a persistence model from a domain Account
func AccountModelFromDomain(a *ledger.Account) *AccountModel {
	m := &AccountModel{
		Code:        a.Code,
		Name:        a.Name,
		Description: a.Description,
		Type:        a.Type,
		ParentID:    a.ParentID,
		Balance:     a.Balance,
		IsHeader:    a.IsHeader,
		IsSystem:    a.IsSystem,
		IsActive:    a.IsActive,
	}
	m.FromCompanyAggregate(a.CompanyAggregateRoot)
	return m
}

// JournalEntryModel is the persistence model for a posted journal entry
type JournalEntryModel struct {
	CompanyAggregateModel
	EntryNumber string            `gorm:"type:varchar(50);not null;index"`
	EntryDate   time.Time         `gorm:"not null;index"`
	Description string            `gorm:"type:text"`
	SourceType  ledger.SourceType `gorm:"type:varchar(20);not null"`
	SourceID    *uuid.UUID        `gorm:"type:uuid;index"`
	PostedAt    *time.Time
	Lines       []JournalLineModel `gorm:"foreignKey:EntryID"`
}

// TableName returns the table name for GORM
func (JournalEntryModel) TableName() string {
	return "journal_entries"
}

// JournalLineModel is one debit or credit line of a journal entry
type JournalLineModel struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey"`
	EntryID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	AccountID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	AccountCode string          `gorm:"type:varchar(20);not null"`
	Debit       decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Credit      decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Memo        string          `gorm:"type:varchar(500)"`
	LineNo      int             `gorm:"not null"`
}

// TableName returns the table name for GORM
func (JournalLineModel) TableName() string {
	return "journal_lines"
}

// ToDomain converts the persistence model to a domain JournalEntry
func (m *JournalEntryModel) ToDomain() *ledger.JournalEntry {
	e := &ledger.JournalEntry{
		CompanyAggregateRoot: m.ToCompanyAggregate(),
		EntryNumber:          m.EntryNumber,
		EntryDate:            m.EntryDate,
		Description:          m.Description,
		SourceType:           m.SourceType,
		SourceID:             m.SourceID,
		PostedAt:             m.PostedAt,
		Lines:                make([]ledger.JournalLine, 0, len(m.Lines)),
	}
	for _, l := range m.Lines {
		e.Lines = append(e.Lines, ledger.JournalLine{
			ID:          l.ID,
			AccountID:   l.AccountID,
			AccountCode: l.AccountCode,
			Debit:       l.Debit,
			Credit:      l.Credit,
			Memo:        l.Memo,
			LineNo:      l.LineNo,
		})
	}
	return e
}

// JournalEntryModelFromDomain creates a persistence model from a domain JournalEntry
func JournalEntryModelFromDomain(e *ledger.JournalEntry) *JournalEntryModel {
	m := &JournalEntryModel{
		EntryNumber: e.EntryNumber,
		EntryDate:   e.EntryDate,
		Description: e.Description,
		SourceType:  e.SourceType,
		SourceID:    e.SourceID,
		PostedAt:    e.PostedAt,
		Lines:       make([]JournalLineModel, 0, len(e.Lines)),
	}
	m.FromCompanyAggregate(e.CompanyAggregateRoot)
	for _, l := range e.Lines {
		m.Lines = append(m.Lines, JournalLineModel{
			ID:          l.ID,
			EntryID:     e.ID,
			AccountID:   l.AccountID,
			AccountCode: l.AccountCode,
			Debit:       l.Debit,
			Credit:      l.Credit,
			Memo:        l.Memo,
			LineNo:      l.LineNo,
		})
	}
	return m
}
