package persistence

import (
	"context"

	"github.com/erp/accounting/internal/application/txscope"
	"github.com/erp/accounting/internal/domain/billing"
	"github.com/erp/accounting/internal/domain/catalog"
	"github.com/erp/accounting/internal/domain/company"
	"github.com/erp/accounting/internal/domain/identity"
	"github.com/erp/accounting/internal/domain/intercompany"
	"github.com/erp/accounting/internal/domain/ledger"
	"github.com/erp/accounting/internal/domain/trade"
	"gorm.io/gorm"
)

// GormTransactionScope implements TransactionScope using GORM transactions.
// Nested Execute calls on a scope built from a transaction become savepoints.
type GormTransactionScope struct {
	db *gorm.DB
}

// NewGormTransactionScope creates a new GormTransactionScope
func NewGormTransactionScope(db *gorm.DB) *GormTransactionScope {
	return &GormTransactionScope{db: db}
}

// Execute runs fn within a database transaction, committing only if fn succeeds
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos txscope.Repositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewGormRepositories(tx))
	})
}

// GormRepositories builds every repository on one connection or transaction
type GormRepositories struct {
	db *gorm.DB
}

// NewGormRepositories binds the repositories to db
func NewGormRepositories(db *gorm.DB) *GormRepositories {
	return &GormRepositories{db: db}
}

func (r *GormRepositories) Tenants() identity.TenantRepository {
	return NewGormTenantRepository(r.db)
}

func (r *GormRepositories) Users() identity.UserRepository {
	return NewGormUserRepository(r.db)
}

func (r *GormRepositories) Companies() company.CompanyRepository {
	return NewGormCompanyRepository(r.db)
}

func (r *GormRepositories) Accounts() ledger.AccountRepository {
	return NewGormAccountRepository(r.db)
}

func (r *GormRepositories) Journals() ledger.JournalEntryRepository {
	return NewGormJournalEntryRepository(r.db)
}

func (r *GormRepositories) Products() catalog.ProductRepository {
	return NewGormProductRepository(r.db)
}

func (r *GormRepositories) SalesOrders() trade.SalesOrderRepository {
	return NewGormSalesOrderRepository(r.db)
}

func (r *GormRepositories) PurchaseOrders() trade.PurchaseOrderRepository {
	return NewGormPurchaseOrderRepository(r.db)
}

func (r *GormRepositories) Invoices() billing.InvoiceRepository {
	return NewGormInvoiceRepository(r.db)
}

func (r *GormRepositories) Bills() billing.BillRepository {
	return NewGormBillRepository(r.db)
}

func (r *GormRepositories) Receipts() billing.ReceiptRepository {
	return NewGormReceiptRepository(r.db)
}

func (r *GormRepositories) BillPayments() billing.BillPaymentRepository {
	return NewGormBillPaymentRepository(r.db)
}

func (r *GormRepositories) Intercompany() intercompany.TransactionRepository {
	return NewGormIntercompanyRepository(r.db)
}

var (
	_ txscope.TransactionScope = (*GormTransactionScope)(nil)
	_ txscope.Repositories     = (*GormRepositories)(nil)
)
