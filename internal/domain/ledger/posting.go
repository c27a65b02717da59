package ledger

import (
	"time"

	"github.com/erp/accounting/internal/domain/shared"
)

// Post validates the entry, binds each line to its account and moves the balances.
// accounts must contain every code the entry references, keyed by code, all from the entry's company.
// The caller persists the entry and the touched accounts in one transaction.
func Post(entry *JournalEntry, accounts map[string]*Account, now time.Time) ([]*Account, error) {
	if entry.PostedAt != nil {
		return nil, shared.NewDomainError("ENTRY_POSTED", "Journal entry is already posted")
	}
	if err := entry.Validate(); err != nil {
		return nil, err
	}

	for i := range entry.Lines {
		acct, ok := accounts[entry.Lines[i].AccountCode]
		if !ok {
			return nil, shared.NewDomainError("ACCOUNT_NOT_FOUND", "Account "+entry.Lines[i].AccountCode+" does not exist in this company")
		}
		if acct.CompanyID != entry.CompanyID {
			return nil, shared.NewDomainError("INVALID_ACCOUNT", "Account "+acct.Code+" belongs to another company")
		}
		if err := acct.CanPost(); err != nil {
			return nil, err
		}
	}

	touched := make([]*Account, 0, len(accounts))
	seen := make(map[string]bool, len(accounts))
	for i := range entry.Lines {
		line := &entry.Lines[i]
		acct := accounts[line.AccountCode]
		line.AccountID = acct.ID
		acct.Apply(line.Debit, line.Credit)
		if !seen[acct.Code] {
			seen[acct.Code] = true
			touched = append(touched, acct)
		}
	}

	entry.PostedAt = &now
	entry.AddDomainEvent(NewJournalEntryPostedEvent(entry))
	return touched, nil
}
