package billing

import (
	"context"

	"github.com/erp/accounting/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InvoiceRepository defines persistence for invoices
type InvoiceRepository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Invoice, error)
	FindByOrder(ctx context.Context, tenantID, orderID uuid.UUID) (*Invoice, error)
	FindByCompany(ctx context.Context, tenantID, companyID uuid.UUID, filter shared.Filter) ([]Invoice, error)
	CountByCompany(ctx context.Context, tenantID, companyID uuid.UUID, filter shared.Filter) (int64, error)
	SummarizeByStatus(ctx context.Context, tenantID, companyID uuid.UUID) ([]shared.StatusTotal, error)
	Save(ctx context.Context, invoice *Invoice) error
	SaveWithLock(ctx context.Context, invoice *Invoice) error
	GenerateNumber(ctx context.Context, tenantID, companyID uuid.UUID) (string, error)
}

// BillRepository defines persistence for bills
type BillRepository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Bill, error)
	FindByOrder(ctx context.Context, tenantID, orderID uuid.UUID) (*Bill, error)
	FindByCompany(ctx context.Context, tenantID, companyID uuid.UUID, filter shared.Filter) ([]Bill, error)
	CountByCompany(ctx context.Context, tenantID, companyID uuid.UUID, filter shared.Filter) (int64, error)
	SummarizeByStatus(ctx context.Context, tenantID, companyID uuid.UUID) ([]shared.StatusTotal, error)
	Save(ctx context.Context, bill *Bill) error
	SaveWithLock(ctx context.Context, bill *Bill) error
	GenerateNumber(ctx context.Context, tenantID, companyID uuid.UUID) (string, error)
}

// ReceiptRepository defines persistence for receipts
type ReceiptRepository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Receipt, error)
	FindByInvoice(ctx context.Context, tenantID, invoiceID uuid.UUID) ([]Receipt, error)
	SumByInvoice(ctx context.Context, tenantID, invoiceID uuid.UUID) (decimal.Decimal, error)
	Save(ctx context.Context, receipt *Receipt) error
	GenerateNumber(ctx context.Context, tenantID, companyID uuid.UUID) (string, error)
}

// BillPaymentRepository defines persistence for bill payments
type BillPaymentRepository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*BillPayment, error)
	FindByBill(ctx context.Context, tenantID, billID uuid.UUID) ([]BillPayment, error)
	SumByBill(ctx context.Context, tenantID, billID uuid.UUID) (decimal.Decimal, error)
	Save(ctx context.Context, payment *BillPayment) error
	GenerateNumber(ctx context.Context, tenantID, companyID uuid.UUID) (string, error)
}
