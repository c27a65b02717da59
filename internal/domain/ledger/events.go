package ledger

import (
	"github.com/erp/accounting/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const AggregateTypeJournalEntry = "JournalEntry"

const EventTypeJournalEntryPosted = "JournalEntryPosted"

// JournalEntryPostedEvent is published once an entry has moved account balances
type JournalEntryPostedEvent struct {
	shared.BaseDomainEvent
	CompanyID   uuid.UUID       `json:"company_id"`
	EntryNumber string          `json:"entry_number"`
	SourceType  SourceType      `json:"source_type"`
	Amount      decimal.Decimal `json:"amount"`
}

// NewJournalEntryPostedEvent creates a new JournalEntryPostedEvent
func NewJournalEntryPostedEvent(e *JournalEntry) *JournalEntryPostedEvent {
	return &JournalEntryPostedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeJournalEntryPosted, AggregateTypeJournalEntry, e.ID, e.TenantID),
		CompanyID:       e.CompanyID,
		EntryNumber:     e.EntryNumber,
		SourceType:      e.SourceType,
		Amount:          e.TotalDebit(),
	}
}

// AffectedCompanies implements shared.CompanyEvent
func (e *JournalEntryPostedEvent) AffectedCompanies() []uuid.UUID {
	return []uuid.UUID{e.CompanyID}
}

const AggregateTypeAccount = "Account"

const EventTypeAccountChanged = "AccountChanged"

// AccountChange names what happened to an account
type AccountChange string

const (
	AccountChangeCreated AccountChange = "created"
	AccountChangeUpdated AccountChange = "updated"
	AccountChangeDeleted AccountChange = "deleted"
)

// AccountChangedEvent is published when a chart entry is added, renamed, toggled or removed
type AccountChangedEvent struct {
	shared.BaseDomainEvent
	CompanyID uuid.UUID     `json:"company_id"`
	Code      string        `json:"code"`
	Change    AccountChange `json:"change"`
}

// NewAccountChangedEvent creates a new AccountChangedEvent
func NewAccountChangedEvent(a *Account, change AccountChange) *AccountChangedEvent {
	return &AccountChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeAccountChanged, AggregateTypeAccount, a.ID, a.TenantID),
		CompanyID:       a.CompanyID,
		Code:            a.Code,
		Change:          change,
	}
}

// AffectedCompanies implements shared.CompanyEvent
func (e *AccountChangedEvent) AffectedCompanies() []uuid.UUID {
	return []uuid.UUID{e.CompanyID}
}
