package testutil

import (
	"context"
	"testing"

	"github.com/erp/accounting/internal/domain/catalog"
	"github.com/erp/accounting/internal/domain/company"
	"github.com/erp/accounting/internal/domain/identity"
	"github.com/erp/accounting/internal/domain/ledger"
	"github.com/erp/accounting/internal/infrastructure/persistence"
	"github.com/erp/accounting/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewSQLiteDB opens a private in-memory SQLite database with every table migrated.
// A single connection keeps the in-memory database alive for the whole test.
func NewSQLiteDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err, "Failed to open SQLite database")

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(models.All()...), "Failed to migrate SQLite database")
	return db
}

// companyTypes is cycled through when Books seeds companies
var companyTypes = []company.CompanyType{
	company.CompanyTypeManufacturer,
	company.CompanyTypePlant,
	company.CompanyTypeDistributor,
}

// Books is a tenant with companies whose default charts are seeded, backed by SQLite
type Books struct {
	DB        *gorm.DB
	Scope     *persistence.GormTransactionScope
	Repos     *persistence.GormRepositories
	TenantID  uuid.UUID
	Companies map[string]*company.Company
}

// NewBooks seeds one tenant and a company with the default chart per code
func NewBooks(t *testing.T, companyCodes ...string) *Books {
	t.Helper()
	db := NewSQLiteDB(t)
	ctx := context.Background()
	repos := persistence.NewGormRepositories(db)

	tenant, err := identity.NewTenant("test", "Test Tenant")
	require.NoError(t, err)
	require.NoError(t, repos.Tenants().Save(ctx, tenant))

	b := &Books{
		DB:        db,
		Scope:     persistence.NewGormTransactionScope(db),
		Repos:     repos,
		TenantID:  tenant.ID,
		Companies: make(map[string]*company.Company, len(companyCodes)),
	}
	for i, code := range companyCodes {
		c, err := company.NewCompany(tenant.ID, code, "Company "+code, companyTypes[i%len(companyTypes)], company.Profile{})
		require.NoError(t, err)
		require.NoError(t, repos.Companies().Save(ctx, c))

		accounts, err := ledger.DefaultChartTemplate().Instantiate(tenant.ID, c.ID)
		require.NoError(t, err)
		require.NoError(t, repos.Accounts().SaveAll(ctx, accounts))
		b.Companies[c.Code] = c
	}
	return b
}

// CompanyID returns the ID of a seeded company
func (b *Books) CompanyID(t *testing.T, code string) uuid.UUID {
	t.Helper()
	c, ok := b.Companies[code]
	require.True(t, ok, "unknown company %s", code)
	return c.ID
}

// Product stores an active product in a company's catalog
func (b *Books) Product(t *testing.T, companyCode, code string, salesPrice, purchasePrice int64) *catalog.Product {
	t.Helper()
	p, err := catalog.NewProduct(b.TenantID, b.CompanyID(t, companyCode), code, "Product "+code,
		decimal.NewFromInt(salesPrice), decimal.NewFromInt(purchasePrice))
	require.NoError(t, err)
	require.NoError(t, b.Repos.Products().Save(context.Background(), p))
	return p
}

// Balance reads the stored balance of one account
func (b *Books) Balance(t *testing.T, companyCode, accountCode string) decimal.Decimal {
	t.Helper()
	found, err := b.Repos.Accounts().FindByCodesForUpdate(context.Background(), b.TenantID, b.CompanyID(t, companyCode), []string{accountCode})
	require.NoError(t, err)
	require.Len(t, found, 1, "account %s not found in %s", accountCode, companyCode)
	return found[0].Balance
}
