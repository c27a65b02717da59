package persistence

import (
	"context"
	"strings"

	"github.com/erp/accounting/internal/domain/identity"
	"github.com/erp/accounting/internal/domain/shared"
	"github.com/erp/accounting/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var tenantFilter = filterSpec{
	searchColumns: []string{"code", "name"},
	columns:       map[string]string{"status": "status"},
	sortFields:    TenantSortFields,
	defaultSort:   "created_at",
}

// GormTenantRepository implements TenantRepository using GORM
type GormTenantRepository struct {
	db *gorm.DB
}

// NewGormTenantRepository creates a new GormTenantRepository
func NewGormTenantRepository(db *gorm.DB) *GormTenantRepository {
	return &GormTenantRepository{db: db}
}

// FindByID finds a tenant by its ID
func (r *GormTenantRepository) FindByID(ctx context.Context, id uuid.UUID) (*identity.Tenant, error) {
	var model models.TenantModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindByCode finds a tenant by its unique code
func (r *GormTenantRepository) FindByCode(ctx context.Context, code string) (*identity.Tenant, error) {
	var model models.TenantModel
	if err := r.db.WithContext(ctx).Where("code = ?", strings.ToUpper(code)).First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindAll finds all tenants with filtering and pagination
func (r *GormTenantRepository) FindAll(ctx context.Context, filter shared.Filter) ([]identity.Tenant, error) {
	var rows []models.TenantModel
	query := tenantFilter.page(r.db.WithContext(ctx).Model(&models.TenantModel{}), filter)
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	tenants := make([]identity.Tenant, len(rows))
	for i := range rows {
		tenants[i] = *rows[i].ToDomain()
	}
	return tenants, nil
}

// Count counts tenants matching the filter
func (r *GormTenantRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	query := tenantFilter.where(r.db.WithContext(ctx).Model(&models.TenantModel{}), filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// FindActiveIDs lists the IDs of every active tenant
func (r *GormTenantRepository) FindActiveIDs(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	if err := r.db.WithContext(ctx).
		Model(&models.TenantModel{}).
		Where("status = ?", identity.TenantStatusActive).
		Order("created_at ASC").
		Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

// ExistsByCode checks whether a tenant code is taken
func (r *GormTenantRepository) ExistsByCode(ctx context.Context, code string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.TenantModel{}).
		Where("code = ?", strings.ToUpper(code)).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Save creates or updates a tenant
func (r *GormTenantRepository) Save(ctx context.Context, tenant *identity.Tenant) error {
	model := models.TenantModelFromDomain(tenant)
	if err := r.db.WithContext(ctx).Save(model).Error; err != nil {
		return translateError(err)
	}
	tenant.MarkStored()
	return nil
}

// SaveWithLock saves the tenant only if nobody changed it since it was loaded
func (r *GormTenantRepository) SaveWithLock(ctx context.Context, tenant *identity.Tenant) error {
	next := tenant.NextStoredVersion()
	err := updateWithVersion(r.db.WithContext(ctx), &models.TenantModel{}, tenant.ID, tenant.StoredVersion(), next, map[string]any{
		"name":   tenant.Name,
		"status": tenant.Status,
	})
	if err != nil {
		return err
	}
	tenant.Version = next
	tenant.MarkStored()
	return nil
}

// Ensure GormTenantRepository implements TenantRepository
var _ identity.TenantRepository = (*GormTenantRepository)(nil)
