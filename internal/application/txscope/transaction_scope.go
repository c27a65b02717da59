package txscope

import (
	"context"

	"github.com/erp/accounting/internal/domain/billing"
	"github.com/erp/accounting/internal/domain/catalog"
	"github.com/erp/accounting/internal/domain/company"
	"github.com/erp/accounting/internal/domain/identity"
	"github.com/erp/accounting/internal/domain/intercompany"
	"github.com/erp/accounting/internal/domain/ledger"
	"github.com/erp/accounting/internal/domain/trade"
)

// TransactionScope runs a unit of work in one database transaction.
// If fn returns an error, every write made through the repositories is rolled back.
type TransactionScope interface {
	Execute(ctx context.Context, fn func(repos Repositories) error) error
}

// Repositories gives access to every repository bound to the current transaction
type Repositories interface {
	Tenants() identity.TenantRepository
	Users() identity.UserRepository
	Companies() company.CompanyRepository
	Accounts() ledger.AccountRepository
	Journals() ledger.JournalEntryRepository
	Products() catalog.ProductRepository
	SalesOrders() trade.SalesOrderRepository
	PurchaseOrders() trade.PurchaseOrderRepository
	Invoices() billing.InvoiceRepository
	Bills() billing.BillRepository
	Receipts() billing.ReceiptRepository
	BillPayments() billing.BillPaymentRepository
	Intercompany() intercompany.TransactionRepository
}

// RepositorySet is a plain Repositories implementation, used by NoOpTransactionScope
type RepositorySet struct {
	TenantRepo        identity.TenantRepository
	UserRepo          identity.UserRepository
	CompanyRepo       company.CompanyRepository
	AccountRepo       ledger.AccountRepository
	JournalRepo       ledger.JournalEntryRepository
	ProductRepo       catalog.ProductRepository
	SalesOrderRepo    trade.SalesOrderRepository
	PurchaseOrderRepo trade.PurchaseOrderRepository
	InvoiceRepo       billing.InvoiceRepository
	BillRepo          billing.BillRepository
	ReceiptRepo       billing.ReceiptRepository
	BillPaymentRepo   billing.BillPaymentRepository
	IntercompanyRepo  intercompany.TransactionRepository
}

func (s *RepositorySet) Tenants() identity.TenantRepository               { return s.TenantRepo }
func (s *RepositorySet) Users() identity.UserRepository                   { return s.UserRepo }
func (s *RepositorySet) Companies() company.CompanyRepository             { return s.CompanyRepo }
func (s *RepositorySet) Accounts() ledger.AccountRepository               { return s.AccountRepo }
func (s *RepositorySet) Journals() ledger.JournalEntryRepository          { return s.JournalRepo }
func (s *RepositorySet) Products() catalog.ProductRepository              { return s.ProductRepo }
func (s *RepositorySet) SalesOrders() trade.SalesOrderRepository          { return s.SalesOrderRepo }
func (s *RepositorySet) PurchaseOrders() trade.PurchaseOrderRepository    { return s.PurchaseOrderRepo }
func (s *RepositorySet) Invoices() billing.InvoiceRepository              { return s.InvoiceRepo }
func (s *RepositorySet) Bills() billing.BillRepository                    { return s.BillRepo }
func (s *RepositorySet) Receipts() billing.ReceiptRepository              { return s.ReceiptRepo }
func (s *RepositorySet) BillPayments() billing.BillPaymentRepository      { return s.BillPaymentRepo }
func (s *RepositorySet) Intercompany() intercompany.TransactionRepository { return s.IntercompanyRepo }

// NoOpTransactionScope hands out fixed repositories without opening a transaction.
// This is useful for tests and for callers that do not need atomicity.
type NoOpTransactionScope struct {
	repos *RepositorySet
}

// NewNoOpTransactionScope creates a NoOpTransactionScope over the given repositories
func NewNoOpTransactionScope(repos *RepositorySet) *NoOpTransactionScope {
	return &NoOpTransactionScope{repos: repos}
}

// Execute runs fn directly against the fixed repositories
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos Repositories) error) error {
	return fn(s.repos)
}

var (
	_ Repositories     = (*RepositorySet)(nil)
	_ TransactionScope = (*NoOpTransactionScope)(nil)
)
