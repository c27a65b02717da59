package persistence

import (
	"context"

	"github.com/erp/accounting/internal/domain/company"
	"github.com/erp/accounting/internal/domain/shared"
	"github.com/erp/accounting/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var companyFilter = filterSpec{
	searchColumns: []string{"code", "name"},
	columns: map[string]string{
		"type":      "type",
		"is_active": "is_active",
	},
	sortFields:  CompanySortFields,
	defaultSort: "code",
}

// GormCompanyRepository implements CompanyRepository using GORM
type GormCompanyRepository struct {
	db *gorm.DB
}

// NewGormCompanyRepository creates a new GormCompanyRepository
func NewGormCompanyRepository(db *gorm.DB) *GormCompanyRepository {
	return &GormCompanyRepository{db: db}
}

// FindByIDForTenant finds a company by ID within a tenant
func (r *GormCompanyRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*company.Company, error) {
	var model models.CompanyModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindByIDsForTenant loads several companies at once, ordered by code
func (r *GormCompanyRepository) FindByIDsForTenant(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]company.Company, error) {
	if len(ids) == 0 {
		return []company.Company{}, nil
	}
	var rows []models.CompanyModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id IN ?", tenantID, ids).
		Order("code ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return toCompanies(rows), nil
}

// FindAllForTenant lists the companies of a tenant
func (r *GormCompanyRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]company.Company, error) {
	var rows []models.CompanyModel
	query := companyFilter.page(
		r.db.WithContext(ctx).Model(&models.CompanyModel{}).Where("tenant_id = ?", tenantID),
		filter,
	)
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return toCompanies(rows), nil
}

// CountForTenant counts the companies of a tenant matching the filter
func (r *GormCompanyRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	var count int64
	query := companyFilter.where(
		r.db.WithContext(ctx).Model(&models.CompanyModel{}).Where("tenant_id = ?", tenantID),
		filter,
	)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// ExistsByCode checks whether a company code is taken within a tenant
func (r *GormCompanyRepository) ExistsByCode(ctx context.Context, tenantID uuid.UUID, code string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.CompanyModel{}).
		Where("tenant_id = ? AND code = ?", tenantID, code).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Save creates or updates a company
func (r *GormCompanyRepository) Save(ctx context.Context, c *company.Company) error {
	if err := r.db.WithContext(ctx).Save(models.CompanyModelFromDomain(c)).Error; err != nil {
		return translateError(err)
	}
	c.MarkStored()
	return nil
}

// SaveWithLock saves the company only if nobody changed it since it was loaded
func (r *GormCompanyRepository) SaveWithLock(ctx context.Context, c *company.Company) error {
	next := c.NextStoredVersion()
	err := updateWithVersion(r.db.WithContext(ctx), &models.CompanyModel{}, c.ID, c.StoredVersion(), next, map[string]any{
		"name":      c.Name,
		"type":      c.Type,
		"currency":  c.Currency,
		"phone":     c.Phone,
		"email":     c.Email,
		"address":   c.Address,
		"is_active": c.IsActive,
	})
	if err != nil {
		return err
	}
	c.Version = next
	c.MarkStored()
	return nil
}

func toCompanies(rows []models.CompanyModel) []company.Company {
	companies := make([]company.Company, len(rows))
	for i := range rows {
		companies[i] = *rows[i].ToDomain()
	}
	return companies
}

// Ensure GormCompanyRepository implements CompanyRepository
var _ company.CompanyRepository = (*GormCompanyRepository)(nil)
