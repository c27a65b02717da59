package catalog

import (
	"context"
	"errors"
	"strings"

	"github.com/erp/accounting/internal/domain/catalog"
	"github.com/erp/accounting/internal/domain/company"
	"github.com/erp/accounting/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ProductService handles product-related business operations
type ProductService struct {
	productRepo    catalog.ProductRepository
	companyRepo    company.CompanyRepository
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// NewProductService creates a new ProductService
func NewProductService(productRepo catalog.ProductRepository, companyRepo company.CompanyRepository, logger *zap.Logger) *ProductService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProductService{
		productRepo: productRepo,
		companyRepo: companyRepo,
		logger:      logger,
	}
}

// SetEventPublisher sets the event publisher for cross-context integration
func (s *ProductService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// Create creates a product in a company's catalog
func (s *ProductService) Create(ctx context.Context, tenantID, companyID uuid.UUID, req CreateProductRequest) (*ProductResponse, error) {
	c, err := s.companyRepo.FindByIDForTenant(ctx, tenantID, companyID)
	if err != nil {
		return nil, err
	}
	if !c.IsActive {
		return nil, shared.NewDomainError("COMPANY_INACTIVE", "Company is not active")
	}

	exists, err := s.productRepo.ExistsByCode(ctx, tenantID, companyID, strings.ToUpper(strings.TrimSpace(req.Code)))
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.NewDomainError("ALREADY_EXISTS", "Product with this code already exists")
	}

	product, err := catalog.NewProduct(tenantID, companyID, req.Code, req.Name, req.SalesPrice, req.PurchasePrice)
	if err != nil {
		return nil, err
	}
	if req.Description != "" || req.Unit != "" {
		if err := product.Update(req.Name, req.Description, req.Unit); err != nil {
			return nil, err
		}
	}

	if err := s.productRepo.Save(ctx, product); err != nil {
		return nil, err
	}
	s.publish(ctx, product)

	s.logger.Info("Product created",
		zap.String("company_id", companyID.String()),
		zap.String("code", product.Code))

	response := ToProductResponse(product)
	return &response, nil
}

// GetByID retrieves a product of the company
func (s *ProductService) GetByID(ctx context.Context, tenantID, companyID, productID uuid.UUID) (*ProductResponse, error) {
	product, err := s.find(ctx, tenantID, companyID, productID)
	if err != nil {
		return nil, err
	}
	response := ToProductResponse(product)
	return &response, nil
}

// List retrieves a page of the company's products
func (s *ProductService) List(ctx context.Context, tenantID, companyID uuid.UUID, filter ProductListFilter) ([]ProductResponse, int64, error) {
	sf := filter.ToSharedFilter()
	products, err := s.productRepo.FindByCompany(ctx, tenantID, companyID, sf)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.productRepo.CountByCompany(ctx, tenantID, companyID, sf)
	if err != nil {
		return nil, 0, err
	}
	return ToProductResponses(products), total, nil
}

// Update changes a product's descriptive fields and prices
func (s *ProductService) Update(ctx context.Context, tenantID, companyID, productID uuid.UUID, req UpdateProductRequest) (*ProductResponse, error) {
	product, err := s.find(ctx, tenantID, companyID, productID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil || req.Description != nil || req.Unit != nil {
		name, description, unit := product.Name, product.Description, product.Unit
		if req.Name != nil {
			name = *req.Name
		}
		if req.Description != nil {
			description = *req.Description
		}
		if req.Unit != nil {
			unit = *req.Unit
		}
		if err := product.Update(name, description, unit); err != nil {
			return nil, err
		}
	}

	if req.SalesPrice != nil || req.PurchasePrice != nil {
		sales, purchase := product.SalesPrice, product.PurchasePrice
		if req.SalesPrice != nil {
			sales = *req.SalesPrice
		}
		if req.PurchasePrice != nil {
			purchase = *req.PurchasePrice
		}
		if !sales.Equal(product.SalesPrice) || !purchase.Equal(product.PurchasePrice) {
			if err := product.UpdatePrices(sales, purchase); err != nil {
				return nil, err
			}
		}
	}

	if err := s.productRepo.SaveWithLock(ctx, product); err != nil {
		return nil, err
	}
	s.publish(ctx, product)

	response := ToProductResponse(product)
	return &response, nil
}

// Activate makes a product orderable again
func (s *ProductService) Activate(ctx context.Context, tenantID, companyID, productID uuid.UUID) (*ProductResponse, error) {
	return s.changeStatus(ctx, tenantID, companyID, productID, (*catalog.Product).Activate)
}

// Deactivate stops a product from being ordered. Existing orders keep their lines.
func (s *ProductService) Deactivate(ctx context.Context, tenantID, companyID, productID uuid.UUID) (*ProductResponse, error) {
	return s.changeStatus(ctx, tenantID, companyID, productID, (*catalog.Product).Deactivate)
}

// Delete removes a product that no order references
func (s *ProductService) Delete(ctx context.Context, tenantID, companyID, productID uuid.UUID) error {
	product, err := s.find(ctx, tenantID, companyID, productID)
	if err != nil {
		return err
	}
	referenced, err := s.productRepo.IsReferenced(ctx, tenantID, product.ID)
	if err != nil {
		return err
	}
	if referenced {
		return shared.NewDomainError("PRODUCT_IN_USE", "Product is referenced by orders. Deactivate it instead")
	}
	if err := s.productRepo.Delete(ctx, tenantID, product.ID); err != nil {
		return err
	}
	s.logger.Info("Product deleted",
		zap.String("company_id", companyID.String()),
		zap.String("code", product.Code))
	return nil
}

func (s *ProductService) changeStatus(ctx context.Context, tenantID, companyID, productID uuid.UUID, change func(*catalog.Product) error) (*ProductResponse, error) {
	product, err := s.find(ctx, tenantID, companyID, productID)
	if err != nil {
		return nil, err
	}
	if err := change(product); err != nil {
		return nil, err
	}
	if err := s.productRepo.SaveWithLock(ctx, product); err != nil {
		return nil, err
	}
	response := ToProductResponse(product)
	return &response, nil
}

// find hides products of other companies behind ErrNotFound
func (s *ProductService) find(ctx context.Context, tenantID, companyID, productID uuid.UUID) (*catalog.Product, error) {
	product, err := s.productRepo.FindByIDForTenant(ctx, tenantID, productID)
	if err != nil {
		return nil, err
	}
	if product.CompanyID != companyID {
		return nil, shared.ErrNotFound
	}
	return product, nil
}

func (s *ProductService) publish(ctx context.Context, product *catalog.Product) {
	events := product.GetDomainEvents()
	product.ClearDomainEvents()
	if s.eventPublisher == nil || len(events) == 0 {
		return
	}
	if err := s.eventPublisher.Publish(ctx, events...); err != nil && !errors.Is(err, context.Canceled) {
		s.logger.Warn("Failed to publish product events",
			zap.String("product_id", product.ID.String()),
			zap.Error(err))
	}
}
