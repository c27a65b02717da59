package ledger

import (
	"strings"

	"github.com/erp/accounting/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Well-known account codes posted to by documents.
// Every company chart seeded from the default template carries them.
const (
	CodeAssets                 = "1000"
	CodeCash                   = "1010"
	CodeAccountsReceivable     = "1100"
	CodeIntercompanyReceivable = "1150"
	CodeInventory              = "1200"
	CodeLiabilities            = "2000"
	CodeAccountsPayable        = "2100"
	CodeIntercompanyPayable    = "2150"
	CodeEquity                 = "3000"
	CodeOwnersEquity           = "3100"
	CodeRetainedEarnings       = "3200"
	CodeRevenue                = "4000"
	CodeSalesRevenue           = "4100"
	CodeIntercompanyRevenue    = "4150"
	CodeExpenses               = "5000"
	CodeCostOfGoodsSold        = "5100"
	CodeIntercompanyPurchases  = "5150"
)

// Account is a node in a company's chart of accounts
type Account struct {
	shared.CompanyAggregateRoot
	Code        string
	Name        string
	Description string
	Type        AccountType
	ParentID    *uuid.UUID
	Balance     decimal.Decimal
	IsHeader    bool
	IsSystem    bool
	IsActive    bool
}

// NewAccount creates a postable account. parent may be nil for a root account.
func NewAccount(tenantID, companyID uuid.UUID, code, name string, accountType AccountType, parent *Account) (*Account, error) {
	if companyID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_COMPANY", "Company ID cannot be empty")
	}
	code = strings.TrimSpace(code)
	if code == "" || len(code) > 20 {
		return nil, shared.NewDomainError("INVALID_CODE", "Account code must be 1-20 characters")
	}
	name = strings.TrimSpace(name)
	if name == "" || len(name) > 200 {
		return nil, shared.NewDomainError("INVALID_NAME", "Account name must be 1-200 characters")
	}
	if !accountType.IsValid() {
		return nil, shared.NewDomainError("INVALID_ACCOUNT_TYPE", "Unknown account type")
	}

	a := &Account{
		CompanyAggregateRoot: shared.NewCompanyAggregateRoot(tenantID, companyID),
		Code:                 code,
		Name:                 name,
		Type:                 accountType,
		Balance:              decimal.Zero,
		IsActive:             true,
	}
	if parent != nil {
		if err := a.attachTo(parent); err != nil {
			return nil, err
		}
	}
	return a, nil
}

// NewHeaderAccount creates a grouping account that cannot be posted to
func NewHeaderAccount(tenantID, companyID uuid.UUID, code, name string, accountType AccountType, parent *Account) (*Account, error) {
	a, err := NewAccount(tenantID, companyID, code, name, accountType, parent)
	if err != nil {
		return nil, err
	}
	a.IsHeader = true
	return a, nil
}

func (a *Account) attachTo(parent *Account) error {
	if parent.CompanyID != a.CompanyID || parent.TenantID != a.TenantID {
		return shared.NewDomainError("INVALID_PARENT", "Parent account belongs to another company")
	}
	if parent.Type != a.Type {
		return shared.NewDomainError("INVALID_PARENT", "Parent account must have the same account type")
	}
	if parent.ID == a.ID {
		return shared.NewDomainError("INVALID_PARENT", "Account cannot be its own parent")
	}
	id := parent.ID
	a.ParentID = &id
	return nil
}

// Apply moves the balance by a debit and a credit amount.
// Balances are kept positive on the account type's normal side.
func (a *Account) Apply(debit, credit decimal.Decimal) {
	if a.Type.NormalBalance() == NormalBalanceDebit {
		a.Balance = a.Balance.Add(debit).Sub(credit)
	} else {
		a.Balance = a.Balance.Add(credit).Sub(debit)
	}
	a.Touch()
}

// CanPost reports whether journal lines may target this account
func (a *Account) CanPost() error {
	if a.IsHeader {
		return shared.NewDomainError("HEADER_ACCOUNT", "Cannot post to header account "+a.Code)
	}
	if !a.IsActive {
		return shared.NewDomainError("INACTIVE_ACCOUNT", "Cannot post to inactive account "+a.Code)
	}
	return nil
}

// Update changes the descriptive fields
func (a *Account) Update(name, description string) error {
	name = strings.TrimSpace(name)
	if name == "" || len(name) > 200 {
		return shared.NewDomainError("INVALID_NAME", "Account name must be 1-200 characters")
	}
	a.Name = name
	a.Description = strings.TrimSpace(description)
	a.Touch()
	a.IncrementVersion()
	a.AddDomainEvent(NewAccountChangedEvent(a, AccountChangeUpdated))
	return nil
}

// SetActive toggles whether the account accepts postings
func (a *Account) SetActive(active bool) error {
	if !active && a.IsSystem {
		return shared.NewDomainError("SYSTEM_ACCOUNT", "System accounts cannot be deactivated")
	}
	a.IsActive = active
	a.Touch()
	a.IncrementVersion()
	a.AddDomainEvent(NewAccountChangedEvent(a, AccountChangeUpdated))
	return nil
}

// CheckDeletable returns an error when the account still carries history or structure
func (a *Account) CheckDeletable(hasChildren, hasPostings bool) error {
	switch {
	case a.IsSystem:
		return shared.NewDomainError("SYSTEM_ACCOUNT", "System accounts cannot be deleted")
	case hasChildren:
		return shared.NewDomainError("HAS_CHILDREN", "Account has child accounts")
	case !a.Balance.IsZero():
		return shared.NewDomainError("NON_ZERO_BALANCE", "Account balance must be zero before deletion")
	case hasPostings:
		return shared.NewDomainError("HAS_POSTINGS", "Account has journal postings")
	}
	return nil
}
