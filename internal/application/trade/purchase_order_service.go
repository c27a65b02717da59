package trade

import (
	"context"

	"github.com/erp/accounting/internal/application/event"
	"github.com/erp/accounting/internal/application/txscope"
	"github.com/erp/accounting/internal/domain/shared"
	"github.com/erp/accounting/internal/domain/trade"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PurchaseOrderService handles purchase order business operations
type PurchaseOrderService struct {
	scope          txscope.TransactionScope
	repos          txscope.Repositories
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// NewPurchaseOrderService creates a new PurchaseOrderService
func NewPurchaseOrderService(scope txscope.TransactionScope, repos txscope.Repositories, logger *zap.Logger) *PurchaseOrderService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PurchaseOrderService{scope: scope, repos: repos, logger: logger}
}

// SetEventPublisher sets the event publisher for cross-context integration
func (s *PurchaseOrderService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// Create creates a draft purchase order. Line prices default to the product's purchase price.
func (s *PurchaseOrderService) Create(ctx context.Context, tenantID, companyID uuid.UUID, req CreateOrderRequest) (*OrderResponse, error) {
	var order *trade.PurchaseOrder
	collector := event.NewCollector()
	err := s.scope.Execute(ctx, func(repos txscope.Repositories) error {
		collector.Reset()
		if _, err := requireActiveCompany(ctx, repos.Companies(), tenantID, companyID); err != nil {
			return err
		}
		items, err := ResolveItems(ctx, repos.Products(), tenantID, companyID, req.Items, PurchasePrice)
		if err != nil {
			return err
		}
		number, err := repos.PurchaseOrders().GenerateOrderNumber(ctx, tenantID, companyID)
		if err != nil {
			return err
		}
		order, err = trade.NewPurchaseOrder(tenantID, companyID, number, req.OrderDate)
		if err != nil {
			return err
		}
		order.Notes = req.Notes
		if err := setCounterparty(ctx, repos.Companies(), &order.Order, req.CounterpartyCompanyID); err != nil {
			return err
		}
		if err := AddResolvedItems(&order.Order, items); err != nil {
			return err
		}
		if err := repos.PurchaseOrders().Save(ctx, order); err != nil {
			return err
		}
		collector.Collect(order)
		return nil
	})
	if err != nil {
		return nil, err
	}
	collector.Publish(ctx, s.eventPublisher, s.logger)

	s.logger.Info("Purchase order created",
		zap.String("company_id", companyID.String()),
		zap.String("order_number", order.OrderNumber),
		zap.String("total", order.TotalAmount.String()))

	response := ToOrderResponse(&order.Order)
	return &response, nil
}

// GetByID retrieves a purchase order of the company
func (s *PurchaseOrderService) GetByID(ctx context.Context, tenantID, companyID, orderID uuid.UUID) (*OrderResponse, error) {
	order, err := s.find(ctx, tenantID, companyID, orderID)
	if err != nil {
		return nil, err
	}
	response := ToOrderResponse(&order.Order)
	return &response, nil
}

// List retrieves a page of the company's purchase orders
func (s *PurchaseOrderService) List(ctx context.Context, tenantID, companyID uuid.UUID, filter OrderListFilter) ([]OrderResponse, int64, error) {
	sf := filter.ToSharedFilter()
	orders, err := s.repos.PurchaseOrders().FindByCompany(ctx, tenantID, companyID, sf)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.repos.PurchaseOrders().CountByCompany(ctx, tenantID, companyID, sf)
	if err != nil {
		return nil, 0, err
	}
	out := make([]OrderResponse, len(orders))
	for i := range orders {
		out[i] = ToOrderResponse(&orders[i].Order)
	}
	return out, total, nil
}

// AddItem appends a line to a draft purchase order
func (s *PurchaseOrderService) AddItem(ctx context.Context, tenantID, companyID, orderID uuid.UUID, req OrderItemInput) (*OrderResponse, error) {
	order, err := s.find(ctx, tenantID, companyID, orderID)
	if err != nil {
		return nil, err
	}
	items, err := ResolveItems(ctx, s.repos.Products(), tenantID, companyID, []OrderItemInput{req}, PurchasePrice)
	if err != nil {
		return nil, err
	}
	if err := AddResolvedItems(&order.Order, items); err != nil {
		return nil, err
	}
	return s.save(ctx, order)
}

// RemoveItem deletes a line from a draft purchase order
func (s *PurchaseOrderService) RemoveItem(ctx context.Context, tenantID, companyID, orderID, itemID uuid.UUID) (*OrderResponse, error) {
	order, err := s.find(ctx, tenantID, companyID, orderID)
	if err != nil {
		return nil, err
	}
	if err := order.RemoveItem(itemID); err != nil {
		return nil, err
	}
	return s.save(ctx, order)
}

// Confirm confirms a draft purchase order so it can be billed
func (s *PurchaseOrderService) Confirm(ctx context.Context, tenantID, companyID, orderID uuid.UUID) (*OrderResponse, error) {
	order, err := s.find(ctx, tenantID, companyID, orderID)
	if err != nil {
		return nil, err
	}
	if err := order.Confirm(); err != nil {
		return nil, err
	}
	return s.save(ctx, order)
}

// Cancel cancels a draft or confirmed purchase order
func (s *PurchaseOrderService) Cancel(ctx context.Context, tenantID, companyID, orderID uuid.UUID, req CancelOrderRequest) (*OrderResponse, error) {
	order, err := s.find(ctx, tenantID, companyID, orderID)
	if err != nil {
		return nil, err
	}
	if err := order.Cancel(req.Reason); err != nil {
		return nil, err
	}
	return s.save(ctx, order)
}

// Summary counts and totals the company's purchase orders per status
func (s *PurchaseOrderService) Summary(ctx context.Context, tenantID, companyID uuid.UUID) (*OrderSummaryResponse, error) {
	totals, err := s.repos.PurchaseOrders().SummarizeByStatus(ctx, tenantID, companyID)
	if err != nil {
		return nil, err
	}
	return newOrderSummary(companyID, trade.OrderKindPurchase, totals), nil
}

func (s *PurchaseOrderService) find(ctx context.Context, tenantID, companyID, orderID uuid.UUID) (*trade.PurchaseOrder, error) {
	order, err := s.repos.PurchaseOrders().FindByIDForTenant(ctx, tenantID, orderID)
	if err != nil {
		return nil, err
	}
	if err := belongsTo(&order.Order, companyID); err != nil {
		return nil, err
	}
	return order, nil
}

func (s *PurchaseOrderService) save(ctx context.Context, order *trade.PurchaseOrder) (*OrderResponse, error) {
	if err := s.repos.PurchaseOrders().SaveWithLock(ctx, order); err != nil {
		return nil, err
	}
	collector := event.NewCollector()
	collector.Collect(order)
	collector.Publish(ctx, s.eventPublisher, s.logger)

	response := ToOrderResponse(&order.Order)
	return &response, nil
}
