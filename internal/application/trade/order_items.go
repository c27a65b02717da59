package trade

import (
	"context"
	"errors"

	"github.com/erp/accounting/internal/domain/catalog"
	"github.com/erp/accounting/internal/domain/company"
	"github.com/erp/accounting/internal/domain/shared"
	"github.com/erp/accounting/internal/domain/trade"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PriceList picks the list price an order line defaults to
type PriceList func(p *catalog.Product) decimal.Decimal

var (
	// SalesPrice is the default for sales order lines
	SalesPrice PriceList = func(p *catalog.Product) decimal.Decimal { return p.SalesPrice }
	// PurchasePrice is the default for purchase order lines
	PurchasePrice PriceList = func(p *catalog.Product) decimal.Decimal { return p.PurchasePrice }
)

// ResolvedItem is an order line with its product looked up and its price settled
type ResolvedItem struct {
	Product   *catalog.Product
	Quantity  decimal.Decimal
	UnitPrice decimal.Decimal
}

// ResolveItems loads the products of the lines. Every product must be an
// active product of companyID.
func ResolveItems(ctx context.Context, products catalog.ProductRepository, tenantID, companyID uuid.UUID, inputs []OrderItemInput, price PriceList) ([]ResolvedItem, error) {
	if len(inputs) == 0 {
		return nil, nil
	}
	ids := make([]uuid.UUID, 0, len(inputs))
	for _, in := range inputs {
		ids = append(ids, in.ProductID)
	}
	found, err := products.FindByIDs(ctx, tenantID, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]*catalog.Product, len(found))
	for i := range found {
		byID[found[i].ID] = &found[i]
	}

	items := make([]ResolvedItem, 0, len(inputs))
	for _, in := range inputs {
		p, ok := byID[in.ProductID]
		if !ok || p.CompanyID != companyID {
			return nil, shared.NewDomainError("INVALID_PRODUCT", "Product "+in.ProductID.String()+" not found in this company")
		}
		if !p.IsActive() {
			return nil, shared.NewDomainError("PRODUCT_INACTIVE", "Product "+p.Code+" is inactive")
		}
		unitPrice := price(p)
		if in.UnitPrice != nil {
			unitPrice = *in.UnitPrice
		}
		items = append(items, ResolvedItem{Product: p, Quantity: in.Quantity, UnitPrice: unitPrice})
	}
	return items, nil
}

// AddResolvedItems appends the lines to a draft order
func AddResolvedItems(order *trade.Order, items []ResolvedItem) error {
	for _, item := range items {
		if _, err := order.AddItem(item.Product.ID, item.Product.Code, item.Product.Name, item.Quantity, item.UnitPrice); err != nil {
			return err
		}
	}
	return nil
}

// requireActiveCompany loads a company of the tenant and rejects inactive ones
func requireActiveCompany(ctx context.Context, companies company.CompanyRepository, tenantID, companyID uuid.UUID) (*company.Company, error) {
	c, err := companies.FindByIDForTenant(ctx, tenantID, companyID)
	if err != nil {
		return nil, err
	}
	if !c.IsActive {
		return nil, shared.NewDomainError("COMPANY_INACTIVE", "Company "+c.Code+" is not active")
	}
	return c, nil
}

// setCounterparty links the order to another active company of the tenant
func setCounterparty(ctx context.Context, companies company.CompanyRepository, order *trade.Order, counterpartyID *uuid.UUID) error {
	if counterpartyID == nil || *counterpartyID == uuid.Nil {
		return nil
	}
	if _, err := requireActiveCompany(ctx, companies, order.TenantID, *counterpartyID); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return shared.NewDomainError("INVALID_COUNTERPARTY", "Counterparty company not found")
		}
		return err
	}
	return order.SetCounterparty(*counterpartyID)
}

// belongsTo hides orders of other companies behind ErrNotFound
func belongsTo(order *trade.Order, companyID uuid.UUID) error {
	if order.CompanyID != companyID {
		return shared.ErrNotFound
	}
	return nil
}
