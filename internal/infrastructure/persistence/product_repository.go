package persistence

import (
	"context"

	"github.com/erp/accounting/internal/domain/catalog"
	"github.com/erp/accounting/internal/domain/shared"
	"github.com/erp/accounting/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var productFilter = filterSpec{
	searchColumns: []string{"code", "name"},
	columns:       map[string]string{"status": "status"},
	sortFields:    ProductSortFields,
	defaultSort:   "code",
}

// GormProductRepository implements ProductRepository using GORM
type GormProductRepository struct {
	db *gorm.DB
}

// NewGormProductRepository creates a new GormProductRepository
func NewGormProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

// FindByIDForTenant finds a product by ID within a tenant
func (r *GormProductRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*catalog.Product, error) {
	var model models.ProductModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindByIDs loads several products at once
func (r *GormProductRepository) FindByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]catalog.Product, error) {
	if len(ids) == 0 {
		return []catalog.Product{}, nil
	}
	var rows []models.ProductModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id IN ?", tenantID, ids).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return toProducts(rows), nil
}

// FindByCode finds a product by code within a company
func (r *GormProductRepository) FindByCode(ctx context.Context, tenantID, companyID uuid.UUID, code string) (*catalog.Product, error) {
	var model models.ProductModel
	if err := r.scope(ctx, tenantID, companyID).Where("code = ?", code).First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindByCompany lists a company's products
func (r *GormProductRepository) FindByCompany(ctx context.Context, tenantID, companyID uuid.UUID, filter shared.Filter) ([]catalog.Product, error) {
	var rows []models.ProductModel
	if err := productFilter.page(r.scope(ctx, tenantID, companyID), filter).Find(&rows).Error; err != nil {
		return nil, err
	}
	return toProducts(rows), nil
}

// CountByCompany counts a company's products matching the filter
func (r *GormProductRepository) CountByCompany(ctx context.Context, tenantID, companyID uuid.UUID, filter shared.Filter) (int64, error) {
	var count int64
	if err := productFilter.where(r.scope(ctx, tenantID, companyID), filter).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// ExistsByCode checks whether a product code is taken within a company
func (r *GormProductRepository) ExistsByCode(ctx context.Context, tenantID, companyID uuid.UUID, code string) (bool, error) {
	var count int64
	if err := r.scope(ctx, tenantID, companyID).Where("code = ?", code).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Save creates or updates a product
func (r *GormProductRepository) Save(ctx context.Context, product *catalog.Product) error {
	if err := r.db.WithContext(ctx).Save(models.ProductModelFromDomain(product)).Error; err != nil {
		return translateError(err)
	}
	product.MarkStored()
	return nil
}

// SaveWithLock saves the product only if nobody changed it since it was loaded
func (r *GormProductRepository) SaveWithLock(ctx context.Context, product *catalog.Product) error {
	next := product.NextStoredVersion()
	err := updateWithVersion(r.db.WithContext(ctx), &models.ProductModel{}, product.ID, product.StoredVersion(), next, map[string]any{
		"name":           product.Name,
		"description":    product.Description,
		"unit":           product.Unit,
		"sales_price":    product.SalesPrice,
		"purchase_price": product.PurchasePrice,
		"status":         product.Status,
	})
	if err != nil {
		return err
	}
	product.Version = next
	product.MarkStored()
	return nil
}

// Delete removes a product
func (r *GormProductRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		Delete(&models.ProductModel{})
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// IsReferenced reports whether any order line points at the product
func (r *GormProductRepository) IsReferenced(ctx context.Context, tenantID, id uuid.UUID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Table("order_items AS i").
		Joins("JOIN orders AS o ON o.id = i.order_id").
		Where("o.tenant_id = ? AND i.product_id = ?", tenantID, id).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *GormProductRepository) scope(ctx context.Context, tenantID, companyID uuid.UUID) *gorm.DB {
	return r.db.WithContext(ctx).
		Model(&models.ProductModel{}).
		Where("tenant_id = ? AND company_id = ?", tenantID, companyID)
}

func toProducts(rows []models.ProductModel) []catalog.Product {
	products := make([]catalog.Product, len(rows))
	for i := range rows {
		products[i] = *rows[i].ToDomain()
	}
	return products
}

// Ensure GormProductRepository implements ProductRepository
var _ catalog.ProductRepository = (*GormProductRepository)(nil)
