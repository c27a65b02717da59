package catalog

import (
	"context"
	"testing"

	"github.com/erp/accounting/internal/domain/catalog"
	"github.com/erp/accounting/internal/domain/shared"
	"github.com/erp/accounting/tests/testutil"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockProductRepository is a mock implementation of catalog.ProductRepository
type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*catalog.Product, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Product), args.Error(1)
}

func (m *MockProductRepository) FindByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]catalog.Product, error) {
	args := m.Called(ctx, tenantID, ids)
	return args.Get(0).([]catalog.Product), args.Error(1)
}

func (m *MockProductRepository) FindByCode(ctx context.Context, tenantID, companyID uuid.UUID, code string) (*catalog.Product, error) {
	args := m.Called(ctx, tenantID, companyID, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Product), args.Error(1)
}

func (m *MockProductRepository) FindByCompany(ctx context.Context, tenantID, companyID uuid.UUID, filter shared.Filter) ([]catalog.Product, error) {
	args := m.Called(ctx, tenantID, companyID, filter)
	return args.Get(0).([]catalog.Product), args.Error(1)
}

func (m *MockProductRepository) CountByCompany(ctx context.Context, tenantID, companyID uuid.UUID, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, tenantID, companyID, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockProductRepository) ExistsByCode(ctx context.Context, tenantID, companyID uuid.UUID, code string) (bool, error) {
	args := m.Called(ctx, tenantID, companyID, code)
	return args.Bool(0), args.Error(1)
}

func (m *MockProductRepository) Save(ctx context.Context, product *catalog.Product) error {
	return m.Called(ctx, product).Error(0)
}

func (m *MockProductRepository) SaveWithLock(ctx context.Context, product *catalog.Product) error {
	return m.Called(ctx, product).Error(0)
}

func (m *MockProductRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	return m.Called(ctx, tenantID, id).Error(0)
}

func (m *MockProductRepository) IsReferenced(ctx context.Context, tenantID, id uuid.UUID) (bool, error) {
	args := m.Called(ctx, tenantID, id)
	return args.Bool(0), args.Error(1)
}

func TestProductService_CreateAndList(t *testing.T) {
	ctx := context.Background()
	books := testutil.NewBooks(t, "MFG", "PLANT")
	svc := NewProductService(books.Repos.Products(), books.Repos.Companies(), nil)
	mfg := books.CompanyID(t, "MFG")

	created, err := svc.Create(ctx, books.TenantID, mfg, CreateProductRequest{
		Code:          "widget-a",
		Name:          "Widget A",
		Unit:          "box",
		SalesPrice:    decimal.NewFromInt(120),
		PurchasePrice: decimal.NewFromInt(80),
	})
	require.NoError(t, err)
	assert.Equal(t, "WIDGET-A", created.Code)
	assert.Equal(t, "box", created.Unit)
	assert.True(t, decimal.NewFromInt(40).Equal(created.Margin))

	_, err = svc.Create(ctx, books.TenantID, mfg, CreateProductRequest{Code: "WIDGET-A", Name: "Copy"})
	assert.ErrorIs(t, err, shared.ErrAlreadyExists)

	// Codes are unique per company, not per tenant.
	_, err = svc.Create(ctx, books.TenantID, books.CompanyID(t, "PLANT"), CreateProductRequest{Code: "WIDGET-A", Name: "Plant widget"})
	require.NoError(t, err)

	_, err = svc.Create(ctx, books.TenantID, mfg, CreateProductRequest{Code: "NEG", Name: "Negative", SalesPrice: decimal.NewFromInt(-1)})
	var de *shared.DomainError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "INVALID_PRICE", de.Code)

	list, total, err := svc.List(ctx, books.TenantID, mfg, ProductListFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, list, 1)

	_, err = svc.GetByID(ctx, books.TenantID, books.CompanyID(t, "PLANT"), created.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound, "products of other companies are hidden")
}

func TestProductService_UpdateAndStatus(t *testing.T) {
	ctx := context.Background()
	books := testutil.NewBooks(t, "MFG")
	svc := NewProductService(books.Repos.Products(), books.Repos.Companies(), nil)
	mfg := books.CompanyID(t, "MFG")
	product := books.Product(t, "MFG", "BOLT", 2, 1)

	name := "Hex bolt"
	price := decimal.RequireFromString("2.5")
	updated, err := svc.Update(ctx, books.TenantID, mfg, product.ID, UpdateProductRequest{Name: &name, SalesPrice: &price})
	require.NoError(t, err)
	assert.Equal(t, "Hex bolt", updated.Name)
	assert.True(t, price.Equal(updated.SalesPrice))
	assert.True(t, decimal.NewFromInt(1).Equal(updated.PurchasePrice))

	inactive, err := svc.Deactivate(ctx, books.TenantID, mfg, product.ID)
	require.NoError(t, err)
	assert.Equal(t, catalog.ProductStatusInactive, inactive.Status)

	list, _, err := svc.List(ctx, books.TenantID, mfg, ProductListFilter{Status: "active"})
	require.NoError(t, err)
	assert.Empty(t, list)

	_, err = svc.Activate(ctx, books.TenantID, mfg, product.ID)
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, books.TenantID, mfg, product.ID))
	_, err = svc.GetByID(ctx, books.TenantID, mfg, product.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestProductService_DeleteReferenced(t *testing.T) {
	ctx := context.Background()
	tenantID, companyID := uuid.New(), uuid.New()
	product, err := catalog.NewProduct(tenantID, companyID, "P1", "Part", decimal.NewFromInt(5), decimal.NewFromInt(3))
	require.NoError(t, err)

	repo := new(MockProductRepository)
	repo.On("FindByIDForTenant", ctx, tenantID, product.ID).Return(product, nil)
	repo.On("IsReferenced", ctx, tenantID, product.ID).Return(true, nil)

	svc := NewProductService(repo, nil, nil)
	err = svc.Delete(ctx, tenantID, companyID, product.ID)
	var de *shared.DomainError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "PRODUCT_IN_USE", de.Code)
	repo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything, mock.Anything)
}

func TestProductService_UpdateConflict(t *testing.T) {
	ctx := context.Background()
	tenantID, companyID := uuid.New(), uuid.New()
	product, err := catalog.NewProduct(tenantID, companyID, "P1", "Part", decimal.NewFromInt(5), decimal.NewFromInt(3))
	require.NoError(t, err)

	repo := new(MockProductRepository)
	repo.On("FindByIDForTenant", ctx, tenantID, product.ID).Return(product, nil)
	repo.On("SaveWithLock", ctx, product).Return(shared.ErrConcurrencyConflict)

	svc := NewProductService(repo, nil, nil)
	name := "Renamed"
	_, err = svc.Update(ctx, tenantID, companyID, product.ID, UpdateProductRequest{Name: &name})
	assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
}
