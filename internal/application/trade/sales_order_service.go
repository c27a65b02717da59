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

// SalesOrderService handles sales order business operations
type SalesOrderService struct {
	scope          txscope.TransactionScope
	repos          txscope.Repositories
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// NewSalesOrderService creates a new SalesOrderService
func NewSalesOrderService(scope txscope.TransactionScope, repos txscope.Repositories, logger *zap.Logger) *SalesOrderService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SalesOrderService{scope: scope, repos: repos, logger: logger}
}

// SetEventPublisher sets the event publisher for cross-context integration
func (s *SalesOrderService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// Create creates a draft sales order. Line prices default to the product's sales price.
func (s *SalesOrderService) Create(ctx context.Context, tenantID, companyID uuid.UUID, req CreateOrderRequest) (*OrderResponse, error) {
	var order *trade.SalesOrder
	collector := event.NewCollector()
	err := s.scope.Execute(ctx, func(repos txscope.Repositories) error {
		collector.Reset()
		if _, err := requireActiveCompany(ctx, repos.Companies(), tenantID, companyID); err != nil {
			return err
		}
		items, err := ResolveItems(ctx, repos.Products(), tenantID, companyID, req.Items, SalesPrice)
		if err != nil {
			return err
		}
		number, err := repos.SalesOrders().GenerateOrderNumber(ctx, tenantID, companyID)
		if err != nil {
			return err
		}
		order, err = trade.NewSalesOrder(tenantID, companyID, number, req.OrderDate)
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
		if err := repos.SalesOrders().Save(ctx, order); err != nil {
			return err
		}
		collector.Collect(order)
		return nil
	})
	if err != nil {
		return nil, err
	}
	collector.Publish(ctx, s.eventPublisher, s.logger)

	s.logger.Info("Sales order created",
		zap.String("company_id", companyID.String()),
		zap.String("order_number", order.OrderNumber),
		zap.String("total", order.TotalAmount.String()))

	response := ToOrderResponse(&order.Order)
	return &response, nil
}

// GetByID retrieves a sales order of the company
func (s *SalesOrderService) GetByID(ctx context.Context, tenantID, companyID, orderID uuid.UUID) (*OrderResponse, error) {
	order, err := s.find(ctx, tenantID, companyID, orderID)
	if err != nil {
		return nil, err
	}
	response := ToOrderResponse(&order.Order)
	return &response, nil
}

// List retrieves a page of the company's sales orders
func (s *SalesOrderService) List(ctx context.Context, tenantID, companyID uuid.UUID, filter OrderListFilter) ([]OrderResponse, int64, error) {
	sf := filter.ToSharedFilter()
	orders, err := s.repos.SalesOrders().FindByCompany(ctx, tenantID, companyID, sf)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.repos.SalesOrders().CountByCompany(ctx, tenantID, companyID, sf)
	if err != nil {
		return nil, 0, err
	}
	out := make([]OrderResponse, len(orders))
	for i := range orders {
		out[i] = ToOrderResponse(&orders[i].Order)
	}
	return out, total, nil
}

// AddItem appends a line to a draft sales order
func (s *SalesOrderService) AddItem(ctx context.Context, tenantID, companyID, orderID uuid.UUID, req OrderItemInput) (*OrderResponse, error) {
	order, err := s.find(ctx, tenantID, companyID, orderID)
	if err != nil {
		return nil, err
	}
	items, err := ResolveItems(ctx, s.repos.Products(), tenantID, companyID, []OrderItemInput{req}, SalesPrice)
	if err != nil {
		return nil, err
	}
	if err := AddResolvedItems(&order.Order, items); err != nil {
		return nil, err
	}
	return s.save(ctx, order)
}

// RemoveItem deletes a line from a draft sales order
func (s *SalesOrderService) RemoveItem(ctx context.Context, tenantID, companyID, orderID, itemID uuid.UUID) (*OrderResponse, error) {
	order, err := s.find(ctx, tenantID, companyID, orderID)
	if err != nil {
		return nil, err
	}
	if err := order.RemoveItem(itemID); err != nil {
		return nil, err
	}
	return s.save(ctx, order)
}

// Confirm confirms a draft sales order so it can be invoiced
func (s *SalesOrderService) Confirm(ctx context.Context, tenantID, companyID, orderID uuid.UUID) (*OrderResponse, error) {
	order, err := s.find(ctx, tenantID, companyID, orderID)
	if err != nil {
		return nil, err
	}
	if err := order.Confirm(); err != nil {
		return nil, err
	}
	return s.save(ctx, order)
}

// Cancel cancels a draft or confirmed sales order
func (s *SalesOrderService) Cancel(ctx context.Context, tenantID, companyID, orderID uuid.UUID, req CancelOrderRequest) (*OrderResponse, error) {
	order, err := s.find(ctx, tenantID, companyID, orderID)
	if err != nil {
		return nil, err
	}
	if err := order.Cancel(req.Reason); err != nil {
		return nil, err
	}
	return s.save(ctx, order)
}

// Summary counts and totals the company's sales orders per status
func (s *SalesOrderService) Summary(ctx context.Context, tenantID, companyID uuid.UUID) (*OrderSummaryResponse, error) {
	totals, err := s.repos.SalesOrders().SummarizeByStatus(ctx, tenantID, companyID)
	if err != nil {
		return nil, err
	}
	return newOrderSummary(companyID, trade.OrderKindSales, totals), nil
}

func (s *SalesOrderService) find(ctx context.Context, tenantID, companyID, orderID uuid.UUID) (*trade.SalesOrder, error) {
	order, err := s.repos.SalesOrders().FindByIDForTenant(ctx, tenantID, orderID)
	if err != nil {
		return nil, err
	}
	if err := belongsTo(&order.Order, companyID); err != nil {
		return nil, err
	}
	return order, nil
}

func (s *SalesOrderService) save(ctx context.Context, order *trade.SalesOrder) (*OrderResponse, error) {
	if err := s.repos.SalesOrders().SaveWithLock(ctx, order); err != nil {
		return nil, err
	}
	collector := event.NewCollector()
	collector.Collect(order)
	collector.Publish(ctx, s.eventPublisher, s.logger)

	response := ToOrderResponse(&order.Order)
	return &response, nil
}
