package trade

import (
	"time"

	"github.com/erp/accounting/internal/domain/shared"
	"github.com/erp/accounting/internal/domain/trade"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderItemInput is one line of a create or add-item request.
// UnitPrice defaults to the product's list price when omitted.
type OrderItemInput struct {
	ProductID uuid.UUID        `json:"product_id" binding:"required"`
	Quantity  decimal.Decimal  `json:"quantity" binding:"required"`
	UnitPrice *decimal.Decimal `json:"unit_price"`
}

// CreateOrderRequest represents a request to create a sales or purchase order
type CreateOrderRequest struct {
	CounterpartyCompanyID *uuid.UUID       `json:"counterparty_company_id"`
	OrderDate             time.Time        `json:"order_date"`
	Notes                 string           `json:"notes" binding:"max=2000"`
	Items                 []OrderItemInput `json:"items" binding:"dive"`
}

// CancelOrderRequest represents a request to cancel an order
type CancelOrderRequest struct {
	Reason string `json:"reason" binding:"max=500"`
}

// OrderItemResponse represents an order line in API responses
type OrderItemResponse struct {
	ID          uuid.UUID       `json:"id"`
	LineNo      int             `json:"line_no"`
	ProductID   uuid.UUID       `json:"product_id"`
	ProductCode string          `json:"product_code"`
	ProductName string          `json:"product_name"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Amount      decimal.Decimal `json:"amount"`
}

// OrderResponse represents a sales or purchase order in API responses
type OrderResponse struct {
	ID                    uuid.UUID           `json:"id"`
	TenantID              uuid.UUID           `json:"tenant_id"`
	CompanyID             uuid.UUID           `json:"company_id"`
	Kind                  trade.OrderKind     `json:"kind"`
	OrderNumber           string              `json:"order_number"`
	CounterpartyCompanyID *uuid.UUID          `json:"counterparty_company_id,omitempty"`
	OrderDate             time.Time           `json:"order_date"`
	Status                trade.OrderStatus   `json:"status"`
	TotalAmount           decimal.Decimal     `json:"total_amount"`
	IntercompanyID        *uuid.UUID          `json:"intercompany_id,omitempty"`
	Notes                 string              `json:"notes"`
	Items                 []OrderItemResponse `json:"items"`
	ConfirmedAt           *time.Time          `json:"confirmed_at,omitempty"`
	CancelledAt           *time.Time          `json:"cancelled_at,omitempty"`
	CancelReason          string              `json:"cancel_reason,omitempty"`
	CreatedAt             time.Time           `json:"created_at"`
	UpdatedAt             time.Time           `json:"updated_at"`
	Version               int                 `json:"version"`
}

// OrderListFilter represents filter options for listing orders
type OrderListFilter struct {
	Page                  int        `form:"page" binding:"omitempty,min=1"`
	PageSize              int        `form:"page_size" binding:"omitempty,min=1,max=100"`
	Search                string     `form:"search"`
	Status                string     `form:"status" binding:"omitempty,oneof=draft confirmed invoiced billed closed cancelled"`
	CounterpartyCompanyID *uuid.UUID `form:"-"`
	DateFrom              *time.Time `form:"date_from" time_format:"2006-01-02"`
	DateTo                *time.Time `form:"date_to" time_format:"2006-01-02"`
	OrderBy               string     `form:"order_by"`
	OrderDir              string     `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// ToSharedFilter converts the request filter to a repository filter
func (f OrderListFilter) ToSharedFilter() shared.Filter {
	filter := shared.DefaultFilter()
	if f.Page > 0 {
		filter.Page = f.Page
	}
	if f.PageSize > 0 {
		filter.PageSize = f.PageSize
	}
	filter.OrderBy = "order_date"
	filter.OrderDir = "desc"
	if f.OrderBy != "" {
		filter.OrderBy = f.OrderBy
		filter.OrderDir = f.OrderDir
	}
	filter.Search = f.Search
	if f.Status != "" {
		filter.Filters["status"] = f.Status
	}
	if f.CounterpartyCompanyID != nil {
		filter.Filters["counterparty_company_id"] = *f.CounterpartyCompanyID
	}
	if f.DateFrom != nil {
		filter.Filters["date_from"] = *f.DateFrom
	}
	if f.DateTo != nil {
		filter.Filters["date_to"] = endOfDay(*f.DateTo)
	}
	return filter
}

// OrderSummaryResponse is the per-status breakdown of a company's orders
type OrderSummaryResponse struct {
	CompanyID uuid.UUID            `json:"company_id"`
	Kind      trade.OrderKind      `json:"kind"`
	Statuses  []shared.StatusTotal `json:"statuses"`
	Count     int64                `json:"count"`
	Total     decimal.Decimal      `json:"total"`
}

func newOrderSummary(companyID uuid.UUID, kind trade.OrderKind, totals []shared.StatusTotal) *OrderSummaryResponse {
	summary := &OrderSummaryResponse{
		CompanyID: companyID,
		Kind:      kind,
		Statuses:  totals,
		Total:     decimal.Zero,
	}
	for _, t := range totals {
		if t.Status == string(trade.OrderStatusCancelled) {
			continue
		}
		summary.Count += t.Count
		summary.Total = summary.Total.Add(t.Total)
	}
	return summary
}

// ToOrderResponse converts a domain order to a response
func ToOrderResponse(o *trade.Order) OrderResponse {
	items := make([]OrderItemResponse, len(o.Items))
	for i, item := range o.Items {
		items[i] = OrderItemResponse{
			ID:          item.ID,
			LineNo:      item.LineNo,
			ProductID:   item.ProductID,
			ProductCode: item.ProductCode,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			Amount:      item.Amount,
		}
	}
	return OrderResponse{
		ID:                    o.ID,
		TenantID:              o.TenantID,
		CompanyID:             o.CompanyID,
		Kind:                  o.Kind,
		OrderNumber:           o.OrderNumber,
		CounterpartyCompanyID: o.CounterpartyCompanyID,
		OrderDate:             o.OrderDate,
		Status:                o.Status,
		TotalAmount:           o.TotalAmount,
		IntercompanyID:        o.IntercompanyID,
		Notes:                 o.Notes,
		Items:                 items,
		ConfirmedAt:           o.ConfirmedAt,
		CancelledAt:           o.CancelledAt,
		CancelReason:          o.CancelReason,
		CreatedAt:             o.CreatedAt,
		UpdatedAt:             o.UpdatedAt,
		Version:               o.Version,
	}
}

func endOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, 0, t.Location())
}
