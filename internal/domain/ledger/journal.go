package ledger

import (
	"strings"
	"time"

	"github.com/erp/accounting/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SourceType identifies the document that produced a journal entry
type SourceType string

const (
	SourceManual       SourceType = "manual"
	SourceInvoice      SourceType = "invoice"
	SourceBill         SourceType = "bill"
	SourceReceipt      SourceType = "receipt"
	SourceBillPayment  SourceType = "bill_payment"
	SourceIntercompany SourceType = "intercompany"
)

// IsValid reports whether the source type is known
func (s SourceType) IsValid() bool {
	switch s {
	case SourceManual, SourceInvoice, SourceBill, SourceReceipt, SourceBillPayment, SourceIntercompany:
		return true
	}
	return false
}

// JournalLine is one debit or credit against an account
type JournalLine struct {
	ID          uuid.UUID
	AccountID   uuid.UUID
	AccountCode string
	Debit       decimal.Decimal
	Credit      decimal.Decimal
	Memo        string
	LineNo      int
}

// JournalEntry is a balanced set of lines posted to one company's ledger
type JournalEntry struct {
	shared.CompanyAggregateRoot
	EntryNumber string
	EntryDate   time.Time
	Description string
	SourceType  SourceType
	SourceID    *uuid.UUID
	Lines       []JournalLine
	PostedAt    *time.Time
}

// NewJournalEntry starts an empty entry
func NewJournalEntry(tenantID, companyID uuid.UUID, entryDate time.Time, description string, source SourceType, sourceID *uuid.UUID) (*JournalEntry, error) {
	if companyID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_COMPANY", "Company ID cannot be empty")
	}
	if !source.IsValid() {
		return nil, shared.NewDomainError("INVALID_SOURCE", "Unknown journal source type")
	}
	if entryDate.IsZero() {
		entryDate = time.Now()
	}
	return &JournalEntry{
		CompanyAggregateRoot: shared.NewCompanyAggregateRoot(tenantID, companyID),
		EntryDate:            entryDate,
		Description:          strings.TrimSpace(description),
		SourceType:           source,
		SourceID:             sourceID,
		Lines:                make([]JournalLine, 0, 2),
	}, nil
}

// Debit appends a debit line
func (e *JournalEntry) Debit(accountCode string, amount decimal.Decimal, memo string) error {
	return e.addLine(accountCode, amount, decimal.Zero, memo)
}

// Credit appends a credit line
func (e *JournalEntry) Credit(accountCode string, amount decimal.Decimal, memo string) error {
	return e.addLine(accountCode, decimal.Zero, amount, memo)
}

func (e *JournalEntry) addLine(accountCode string, debit, credit decimal.Decimal, memo string) error {
	if e.PostedAt != nil {
		return shared.NewDomainError("ENTRY_POSTED", "Posted journal entries cannot be changed")
	}
	if strings.TrimSpace(accountCode) == "" {
		return shared.NewDomainError("INVALID_ACCOUNT", "Account code is required")
	}
	amount := debit.Add(credit)
	if debit.IsNegative() || credit.IsNegative() || !amount.IsPositive() {
		return shared.NewDomainError("INVALID_AMOUNT", "Journal line amount must be positive")
	}
	e.Lines = append(e.Lines, JournalLine{
		ID:          uuid.New(),
		AccountCode: strings.TrimSpace(accountCode),
		Debit:       debit,
		Credit:      credit,
		Memo:        memo,
		LineNo:      len(e.Lines) + 1,
	})
	return nil
}

// TotalDebit sums debit lines
func (e *JournalEntry) TotalDebit() decimal.Decimal {
	total := decimal.Zero
	for _, l := range e.Lines {
		total = total.Add(l.Debit)
	}
	return total
}

// TotalCredit sums credit lines
func (e *JournalEntry) TotalCredit() decimal.Decimal {
	total := decimal.Zero
	for _, l := range e.Lines {
		total = total.Add(l.Credit)
	}
	return total
}

// Validate checks the double-entry rule
func (e *JournalEntry) Validate() error {
	if len(e.Lines) < 2 {
		return shared.NewDomainError("INVALID_ENTRY", "Journal entry needs at least two lines")
	}
	debit, credit := e.TotalDebit(), e.TotalCredit()
	if !debit.IsPositive() || !debit.Equal(credit) {
		return shared.NewDomainError(shared.ErrUnbalancedEntry.Code,
			"Journal entry is unbalanced: debit "+debit.StringFixed(2)+" credit "+credit.StringFixed(2))
	}
	return nil
}

// AccountCodes lists the distinct account codes referenced by the lines
func (e *JournalEntry) AccountCodes() []string {
	seen := make(map[string]struct{}, len(e.Lines))
	codes := make([]string, 0, len(e.Lines))
	for _, l := range e.Lines {
		if _, ok := seen[l.AccountCode]; ok {
			continue
		}
		seen[l.AccountCode] = struct{}{}
		codes = append(codes, l.AccountCode)
	}
	return codes
}
