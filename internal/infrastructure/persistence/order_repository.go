package persistence

import (
	"context"

	"github.com/erp/accounting/internal/domain/shared"
	"github.com/erp/accounting/internal/domain/trade"
	"github.com/erp/accounting/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var orderFilter = filterSpec{
	searchColumns: []string{"order_number", "notes"},
	columns: map[string]string{
		"status":                  "status",
		"counterparty_company_id": "counterparty_company_id",
		"intercompany_id":         "intercompany_id",
	},
	dateColumn:  "order_date",
	sortFields:  OrderSortFields,
	defaultSort: "order_date",
}

// statusRow is the scan target of the per-status aggregate queries
type statusRow struct {
	Status string
	Count  int64
	Total  decimal.NullDecimal
	Paid   decimal.NullDecimal
}

// orderStore holds the queries shared by sales and purchase orders, which live in one table
type orderStore struct {
	db     *gorm.DB
	kind   trade.OrderKind
	prefix string
}

func (s orderStore) scope(ctx context.Context, tenantID uuid.UUID) *gorm.DB {
	return s.db.WithContext(ctx).
		Model(&models.OrderModel{}).
		Where("tenant_id = ? AND kind = ?", tenantID, s.kind)
}

func (s orderStore) find(ctx context.Context, tenantID, id uuid.UUID) (trade.Order, error) {
	var model models.OrderModel
	if err := s.scope(ctx, tenantID).
		Preload("Items", orderedLines).
		Where("id = ?", id).
		First(&model).Error; err != nil {
		return trade.Order{}, translateError(err)
	}
	return model.ToDomain(), nil
}

func (s orderStore) list(ctx context.Context, tenantID, companyID uuid.UUID, filter shared.Filter) ([]trade.Order, error) {
	var rows []models.OrderModel
	query := orderFilter.page(s.scope(ctx, tenantID).Where("company_id = ?", companyID), filter)
	if err := query.Preload("Items", orderedLines).Find(&rows).Error; err != nil {
		return nil, err
	}
	orders := make([]trade.Order, len(rows))
	for i := range rows {
		orders[i] = rows[i].ToDomain()
	}
	return orders, nil
}

func (s orderStore) count(ctx context.Context, tenantID, companyID uuid.UUID, filter shared.Filter) (int64, error) {
	var count int64
	query := orderFilter.where(s.scope(ctx, tenantID).Where("company_id = ?", companyID), filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (s orderStore) summarize(ctx context.Context, tenantID, companyID uuid.UUID) ([]shared.StatusTotal, error) {
	var rows []statusRow
	if err := s.scope(ctx, tenantID).
		Select("status, COUNT(*) AS count, SUM(total_amount) AS total").
		Where("company_id = ?", companyID).
		Group("status").
		Order("status ASC").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	return toStatusTotals(rows), nil
}

func (s orderStore) save(ctx context.Context, order *trade.Order) error {
	model := models.OrderModelFromDomain(order)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(model).Error; err != nil {
			return err
		}
		return replaceOrderItems(tx, order.ID, model.Items)
	})
	if err != nil {
		return translateError(err)
	}
	order.MarkStored()
	return nil
}

func (s orderStore) saveWithLock(ctx context.Context, order *trade.Order) error {
	model := models.OrderModelFromDomain(order)
	next := order.NextStoredVersion()
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := updateWithVersion(tx, &models.OrderModel{}, order.ID, order.StoredVersion(), next, map[string]any{
			"counterparty_company_id": order.CounterpartyCompanyID,
			"order_date":              order.OrderDate,
			"status":                  order.Status,
			"total_amount":            order.TotalAmount,
			"intercompany_id":         order.IntercompanyID,
			"notes":                   order.Notes,
			"confirmed_at":            order.ConfirmedAt,
			"cancelled_at":            order.CancelledAt,
			"cancel_reason":           order.CancelReason,
		}); err != nil {
			return err
		}
		return replaceOrderItems(tx, order.ID, model.Items)
	})
	if err != nil {
		return err
	}
	order.Version = next
	order.MarkStored()
	return nil
}

// replaceOrderItems deletes lines that left the order and upserts the rest
func replaceOrderItems(tx *gorm.DB, orderID uuid.UUID, items []models.OrderItemModel) error {
	stale := tx.Where("order_id = ?", orderID)
	if len(items) > 0 {
		ids := make([]uuid.UUID, len(items))
		for i := range items {
			ids[i] = items[i].ID
		}
		stale = stale.Where("id NOT IN ?", ids)
	}
	if err := stale.Delete(&models.OrderItemModel{}).Error; err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}
	return tx.Save(&items).Error
}

func toStatusTotals(rows []statusRow) []shared.StatusTotal {
	totals := make([]shared.StatusTotal, len(rows))
	for i, row := range rows {
		totals[i] = shared.StatusTotal{
			Status: row.Status,
			Count:  row.Count,
			Total:  row.Total.Decimal,
			Paid:   row.Paid.Decimal,
		}
	}
	return totals
}

// GormSalesOrderRepository implements SalesOrderRepository using GORM
type GormSalesOrderRepository struct {
	store orderStore
}

// NewGormSalesOrderRepository creates a new GormSalesOrderRepository
func NewGormSalesOrderRepository(db *gorm.DB) *GormSalesOrderRepository {
	return &GormSalesOrderRepository{store: orderStore{db: db, kind: trade.OrderKindSales, prefix: PrefixSalesOrder}}
}

// FindByIDForTenant finds a sales order with its items
func (r *GormSalesOrderRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*trade.SalesOrder, error) {
	order, err := r.store.find(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	return &trade.SalesOrder{Order: order}, nil
}

// FindByCompany lists a company's sales orders
func (r *GormSalesOrderRepository) FindByCompany(ctx context.Context, tenantID, companyID uuid.UUID, filter shared.Filter) ([]trade.SalesOrder, error) {
	orders, err := r.store.list(ctx, tenantID, companyID, filter)
	if err != nil {
		return nil, err
	}
	out := make([]trade.SalesOrder, len(orders))
	for i := range orders {
		out[i] = trade.SalesOrder{Order: orders[i]}
	}
	return out, nil
}

// CountByCompany counts a company's sales orders matching the filter
func (r *GormSalesOrderRepository) CountByCompany(ctx context.Context, tenantID, companyID uuid.UUID, filter shared.Filter) (int64, error) {
	return r.store.count(ctx, tenantID, companyID, filter)
}

// SummarizeByStatus counts and totals a company's sales orders per status
func (r *GormSalesOrderRepository) SummarizeByStatus(ctx context.Context, tenantID, companyID uuid.UUID) ([]shared.StatusTotal, error) {
	return r.store.summarize(ctx, tenantID, companyID)
}

// Save creates or updates a sales order and its items
func (r *GormSalesOrderRepository) Save(ctx context.Context, order *trade.SalesOrder) error {
	return r.store.save(ctx, &order.Order)
}

// SaveWithLock saves the sales order only if nobody changed it since it was loaded
func (r *GormSalesOrderRepository) SaveWithLock(ctx context.Context, order *trade.SalesOrder) error {
	return r.store.saveWithLock(ctx, &order.Order)
}

// GenerateOrderNumber draws the next SO number of a company
func (r *GormSalesOrderRepository) GenerateOrderNumber(ctx context.Context, tenantID, companyID uuid.UUID) (string, error) {
	return nextNumber(ctx, r.store.db, tenantID, companyID, r.store.prefix)
}

// GormPurchaseOrderRepository implements PurchaseOrderRepository using GORM
type GormPurchaseOrderRepository struct {
	store orderStore
}

// NewGormPurchaseOrderRepository creates a new GormPurchaseOrderRepository
func NewGormPurchaseOrderRepository(db *gorm.DB) *GormPurchaseOrderRepository {
	return &GormPurchaseOrderRepository{store: orderStore{db: db, kind: trade.OrderKindPurchase, prefix: PrefixPurchaseOrder}}
}

// FindByIDForTenant finds a purchase order with its items
func (r *GormPurchaseOrderRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*trade.PurchaseOrder, error) {
	order, err := r.store.find(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	return &trade.PurchaseOrder{Order: order}, nil
}

// FindByCompany lists a company's purchase orders
func (r *GormPurchaseOrderRepository) FindByCompany(ctx context.Context, tenantID, companyID uuid.UUID, filter shared.Filter) ([]trade.PurchaseOrder, error) {
	orders, err := r.store.list(ctx, tenantID, companyID, filter)
	if err != nil {
		return nil, err
	}
	out := make([]trade.PurchaseOrder, len(orders))
	for i := range orders {
		out[i] = trade.PurchaseOrder{Order: orders[i]}
	}
	return out, nil
}

// CountByCompany counts a company's purchase orders matching the filter
func (r *GormPurchaseOrderRepository) CountByCompany(ctx context.Context, tenantID, companyID uuid.UUID, filter shared.Filter) (int64, error) {
	return r.store.count(ctx, tenantID, companyID, filter)
}

// SummarizeByStatus counts and totals a company's purchase orders per status
func (r *GormPurchaseOrderRepository) SummarizeByStatus(ctx context.Context, tenantID, companyID uuid.UUID) ([]shared.StatusTotal, error) {
	return r.store.summarize(ctx, tenantID, companyID)
}

// Save creates or updates a purchase order and its items
func (r *GormPurchaseOrderRepository) Save(ctx context.Context, order *trade.PurchaseOrder) error {
	return r.store.save(ctx, &order.Order)
}

// SaveWithLock saves the purchase order only if nobody changed it since it was loaded
func (r *GormPurchaseOrderRepository) SaveWithLock(ctx context.Context, order *trade.PurchaseOrder) error {
	return r.store.saveWithLock(ctx, &order.Order)
}

// GenerateOrderNumber draws the next PO number of a company
func (r *GormPurchaseOrderRepository) GenerateOrderNumber(ctx context.Context, tenantID, companyID uuid.UUID) (string, error) {
	return nextNumber(ctx, r.store.db, tenantID, companyID, r.store.prefix)
}

// Ensure the order repositories implement their interfaces
var (
	_ trade.SalesOrderRepository    = (*GormSalesOrderRepository)(nil)
	_ trade.PurchaseOrderRepository = (*GormPurchaseOrderRepository)(nil)
)
