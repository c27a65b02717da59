package persistence

import (
	"context"

	"github.com/erp/accounting/internal/domain/ledger"
	"github.com/erp/accounting/internal/domain/shared"
	"github.com/erp/accounting/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var accountFilter = filterSpec{
	searchColumns: []string{"code", "name"},
	columns: map[string]string{
		"type":      "type",
		"parent_id": "parent_id",
		"is_header": "is_header",
		"is_active": "is_active",
	},
	sortFields:  AccountSortFields,
	defaultSort: "code",
}

// GormAccountRepository implements AccountRepository using GORM
type GormAccountRepository struct {
	db *gorm.DB
}

// NewGormAccountRepository creates a new GormAccountRepository
func NewGormAccountRepository(db *gorm.DB) *GormAccountRepository {
	return &GormAccountRepository{db: db}
}

// FindByIDForTenant finds an account by ID within a tenant
func (r *GormAccountRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*ledger.Account, error) {
	var model models.AccountModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindByCompany lists a company's accounts with filtering and pagination
func (r *GormAccountRepository) FindByCompany(ctx context.Context, tenantID, companyID uuid.UUID, filter shared.Filter) ([]ledger.Account, error) {
	var rows []models.AccountModel
	query := accountFilter.page(r.scope(ctx, tenantID, companyID), filter)
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return toAccounts(rows), nil
}

// CountByCompany counts a company's accounts matching the filter
func (r *GormAccountRepository) CountByCompany(ctx context.Context, tenantID, companyID uuid.UUID, filter shared.Filter) (int64, error) {
	var count int64
	if err := accountFilter.where(r.scope(ctx, tenantID, companyID), filter).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// FindChart returns the whole chart of a company ordered by code
func (r *GormAccountRepository) FindChart(ctx context.Context, tenantID, companyID uuid.UUID) ([]ledger.Account, error) {
	var rows []models.AccountModel
	if err := r.scope(ctx, tenantID, companyID).Order("code ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return toAccounts(rows), nil
}

// FindByCodesForUpdate loads the accounts with the given codes and locks them for the rest of the transaction
func (r *GormAccountRepository) FindByCodesForUpdate(ctx context.Context, tenantID, companyID uuid.UUID, codes []string) ([]ledger.Account, error) {
	if len(codes) == 0 {
		return []ledger.Account{}, nil
	}
	var rows []models.AccountModel
	if err := forUpdate(r.scope(ctx, tenantID, companyID)).
		Where("code IN ?", codes).
		Order("code ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return toAccounts(rows), nil
}

// ExistsByCode checks whether an account code is taken within a company
func (r *GormAccountRepository) ExistsByCode(ctx context.Context, tenantID, companyID uuid.UUID, code string) (bool, error) {
	var count int64
	if err := r.scope(ctx, tenantID, companyID).Where("code = ?", code).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// HasChildren reports whether any account hangs under the given one
func (r *GormAccountRepository) HasChildren(ctx context.Context, tenantID, id uuid.UUID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.AccountModel{}).
		Where("tenant_id = ? AND parent_id = ?", tenantID, id).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Save creates or updates an account
func (r *GormAccountRepository) Save(ctx context.Context, account *ledger.Account) error {
	if err := r.db.WithContext(ctx).Save(models.AccountModelFromDomain(account)).Error; err != nil {
		return translateError(err)
	}
	account.MarkStored()
	return nil
}

// SaveAll upserts accounts in the given order, so parents must come before their children
func (r *GormAccountRepository) SaveAll(ctx context.Context, accounts []*ledger.Account) error {
	if len(accounts) == 0 {
		return nil
	}
	rows := make([]*models.AccountModel, len(accounts))
	for i, a := range accounts {
		rows[i] = models.AccountModelFromDomain(a)
	}
	if err := r.db.WithContext(ctx).Save(&rows).Error; err != nil {
		return translateError(err)
	}
	for _, a := range accounts {
		a.MarkStored()
	}
	return nil
}

// SaveWithLock saves the account only if nobody changed it since it was loaded
func (r *GormAccountRepository) SaveWithLock(ctx context.Context, account *ledger.Account) error {
	next := account.NextStoredVersion()
	err := updateWithVersion(r.db.WithContext(ctx), &models.AccountModel{}, account.ID, account.StoredVersion(), next, map[string]any{
		"name":        account.Name,
		"description": account.Description,
		"balance":     account.Balance,
		"is_active":   account.IsActive,
	})
	if err != nil {
		return err
	}
	account.Version = next
	account.MarkStored()
	return nil
}

// Delete removes an account
func (r *GormAccountRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		Delete(&models.AccountModel{})
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *GormAccountRepository) scope(ctx context.Context, tenantID, companyID uuid.UUID) *gorm.DB {
	return r.db.WithContext(ctx).
		Model(&models.AccountModel{}).
		Where("tenant_id = ? AND company_id = ?", tenantID, companyID)
}

func toAccounts(rows []models.AccountModel) []ledger.Account {
	accounts := make([]ledger.Account, len(rows))
	for i := range rows {
		accounts[i] = *rows[i].ToDomain()
	}
	return accounts
}

// Ensure GormAccountRepository implements AccountRepository
var _ ledger.AccountRepository = (*GormAccountRepository)(nil)
