package ledger

import (
	"bytes"
	"context"
	"sort"
	"time"

	"github.com/erp/accounting/internal/application/txscope"
	"github.com/erp/accounting/internal/domain/ledger"
	"github.com/erp/accounting/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Poster moves account balances for journal entries inside an open transaction.
// Every document service posts through it so balances and journal rows never diverge.
type Poster struct {
	now func() time.Time
}

// NewPoster creates a Poster using the wall clock
func NewPoster() *Poster {
	return &Poster{now: time.Now}
}

// Post locks the referenced accounts, numbers the entry, applies it and stores the entry and balances.
// Entries are posted in company order so concurrent multi-company postings lock rows in the same order.
func (p *Poster) Post(ctx context.Context, repos txscope.Repositories, entries ...*ledger.JournalEntry) error {
	ordered := make([]*ledger.JournalEntry, len(entries))
	copy(ordered, entries)
	sort.SliceStable(ordered, func(i, j int) bool {
		return bytes.Compare(ordered[i].CompanyID[:], ordered[j].CompanyID[:]) < 0
	})

	for _, entry := range ordered {
		if err := p.postOne(ctx, repos, entry); err != nil {
			return err
		}
	}
	return nil
}

func (p *Poster) postOne(ctx context.Context, repos txscope.Repositories, entry *ledger.JournalEntry) error {
	if err := entry.Validate(); err != nil {
		return err
	}

	codes := entry.AccountCodes()
	sort.Strings(codes)
	found, err := repos.Accounts().FindByCodesForUpdate(ctx, entry.TenantID, entry.CompanyID, codes)
	if err != nil {
		return err
	}
	accounts := make(map[string]*ledger.Account, len(found))
	for i := range found {
		accounts[found[i].Code] = &found[i]
	}

	if entry.EntryNumber == "" {
		number, err := repos.Journals().GenerateEntryNumber(ctx, entry.TenantID, entry.CompanyID)
		if err != nil {
			return err
		}
		entry.EntryNumber = number
	}

	touched, err := ledger.Post(entry, accounts, p.now())
	if err != nil {
		return err
	}
	for _, acct := range touched {
		if err := repos.Accounts().SaveWithLock(ctx, acct); err != nil {
			return err
		}
	}
	return repos.Journals().Save(ctx, entry)
}

// Transfer builds a two-line entry debiting one account and crediting another
func Transfer(tenantID, companyID uuid.UUID, date time.Time, description string, source ledger.SourceType, sourceID uuid.UUID,
	debitCode, creditCode string, amount decimal.Decimal) (*ledger.JournalEntry, error) {
	if !amount.IsPositive() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Posting amount must be positive")
	}
	id := sourceID
	entry, err := ledger.NewJournalEntry(tenantID, companyID, date, description, source, &id)
	if err != nil {
		return nil, err
	}
	if err := entry.Debit(debitCode, amount, description); err != nil {
		return nil, err
	}
	if err := entry.Credit(creditCode, amount, description); err != nil {
		return nil, err
	}
	return entry, nil
}
