package persistence

import (
	"context"
	"time"

	"github.com/erp/accounting/internal/domain/billing"
	"github.com/erp/accounting/internal/domain/shared"
	"github.com/erp/accounting/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var documentFilter = filterSpec{
	searchColumns: []string{"number", "notes"},
	columns: map[string]string{
		"status":                  "status",
		"order_id":                "order_id",
		"counterparty_company_id": "counterparty_company_id",
		"intercompany_id":         "intercompany_id",
	},
	dateColumn:  "issue_date",
	sortFields:  DocumentSortFields,
	defaultSort: "issue_date",
}

// overdueAsOf keeps open or partially paid documents due before the "overdue_as_of" time
func overdueAsOf(query *gorm.DB, filter shared.Filter) *gorm.DB {
	asOf, ok := filter.Filters["overdue_as_of"].(time.Time)
	if !ok {
		return query
	}
	return query.Where("status IN ? AND due_date < ?",
		[]billing.DocumentStatus{billing.DocumentStatusOpen, billing.DocumentStatusPartial}, asOf)
}

// documentStore holds the queries shared by invoices and bills, which live in one table
type documentStore struct {
	db     *gorm.DB
	kind   billing.DocumentKind
	prefix string
}

func (s documentStore) scope(ctx context.Context, tenantID uuid.UUID) *gorm.DB {
	return s.db.WithContext(ctx).
		Model(&models.DocumentModel{}).
		Where("tenant_id = ? AND kind = ?", tenantID, s.kind)
}

func (s documentStore) first(query *gorm.DB) (billing.Document, error) {
	var model models.DocumentModel
	if err := query.First(&model).Error; err != nil {
		return billing.Document{}, translateError(err)
	}
	return model.ToDomain(), nil
}

func (s documentStore) list(ctx context.Context, tenantID, companyID uuid.UUID, filter shared.Filter) ([]billing.Document, error) {
	var rows []models.DocumentModel
	query := documentFilter.page(overdueAsOf(s.scope(ctx, tenantID).Where("company_id = ?", companyID), filter), filter)
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	docs := make([]billing.Document, len(rows))
	for i := range rows {
		docs[i] = rows[i].ToDomain()
	}
	return docs, nil
}

func (s documentStore) count(ctx context.Context, tenantID, companyID uuid.UUID, filter shared.Filter) (int64, error) {
	var count int64
	query := documentFilter.where(overdueAsOf(s.scope(ctx, tenantID).Where("company_id = ?", companyID), filter), filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (s documentStore) summarize(ctx context.Context, tenantID, companyID uuid.UUID) ([]shared.StatusTotal, error) {
	var rows []statusRow
	if err := s.scope(ctx, tenantID).
		Select("status, COUNT(*) AS count, SUM(total_amount) AS total, SUM(paid_amount) AS paid").
		Where("company_id = ?", companyID).
		Group("status").
		Order("status ASC").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	return toStatusTotals(rows), nil
}

func (s documentStore) save(ctx context.Context, doc *billing.Document) error {
	if err := s.db.WithContext(ctx).Save(models.DocumentModelFromDomain(doc)).Error; err != nil {
		return translateError(err)
	}
	doc.MarkStored()
	return nil
}

func (s documentStore) saveWithLock(ctx context.Context, doc *billing.Document) error {
	next := doc.NextStoredVersion()
	err := updateWithVersion(s.db.WithContext(ctx), &models.DocumentModel{}, doc.ID, doc.StoredVersion(), next, map[string]any{
		"due_date":        doc.DueDate,
		"paid_amount":     doc.PaidAmount,
		"status":          doc.Status,
		"intercompany_id": doc.IntercompanyID,
		"issued_at":       doc.IssuedAt,
		"paid_at":         doc.PaidAt,
		"notes":           doc.Notes,
	})
	if err != nil {
		return err
	}
	doc.Version = next
	doc.MarkStored()
	return nil
}

// GormInvoiceRepository implements InvoiceRepository using GORM
type GormInvoiceRepository struct {
	store documentStore
}

// NewGormInvoiceRepository creates a new GormInvoiceRepository
func NewGormInvoiceRepository(db *gorm.DB) *GormInvoiceRepository {
	return &GormInvoiceRepository{store: documentStore{db: db, kind: billing.DocumentKindInvoice, prefix: PrefixInvoice}}
}

// FindByIDForTenant finds an invoice by ID within a tenant
func (r *GormInvoiceRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*billing.Invoice, error) {
	doc, err := r.store.first(r.store.scope(ctx, tenantID).Where("id = ?", id))
	if err != nil {
		return nil, err
	}
	return &billing.Invoice{Document: doc}, nil
}

// FindByOrder finds the invoice raised from a sales order
func (r *GormInvoiceRepository) FindByOrder(ctx context.Context, tenantID, orderID uuid.UUID) (*billing.Invoice, error) {
	doc, err := r.store.first(r.store.scope(ctx, tenantID).Where("order_id = ?", orderID))
	if err != nil {
		return nil, err
	}
	return &billing.Invoice{Document: doc}, nil
}

// FindByCompany lists a company's invoices
func (r *GormInvoiceRepository) FindByCompany(ctx context.Context, tenantID, companyID uuid.UUID, filter shared.Filter) ([]billing.Invoice, error) {
	docs, err := r.store.list(ctx, tenantID, companyID, filter)
	if err != nil {
		return nil, err
	}
	out := make([]billing.Invoice, len(docs))
	for i := range docs {
		out[i] = billing.Invoice{Document: docs[i]}
	}
	return out, nil
}

// CountByCompany counts a company's invoices matching the filter
func (r *GormInvoiceRepository) CountByCompany(ctx context.Context, tenantID, companyID uuid.UUID, filter shared.Filter) (int64, error) {
	return r.store.count(ctx, tenantID, companyID, filter)
}

// SummarizeByStatus counts and totals a company's invoices per status
func (r *GormInvoiceRepository) SummarizeByStatus(ctx context.Context, tenantID, companyID uuid.UUID) ([]shared.StatusTotal, error) {
	return r.store.summarize(ctx, tenantID, companyID)
}

// Save creates or updates an invoice
func (r *GormInvoiceRepository) Save(ctx context.Context, invoice *billing.Invoice) error {
	return r.store.save(ctx, &invoice.Document)
}

// SaveWithLock saves the invoice only if nobody changed it since it was loaded
func (r *GormInvoiceRepository) SaveWithLock(ctx context.Context, invoice *billing.Invoice) error {
	return r.store.saveWithLock(ctx, &invoice.Document)
}

// GenerateNumber draws the next INV number of a company
func (r *GormInvoiceRepository) GenerateNumber(ctx context.Context, tenantID, companyID uuid.UUID) (string, error) {
	return nextNumber(ctx, r.store.db, tenantID, companyID, r.store.prefix)
}

// GormBillRepository implements BillRepository using GORM
type GormBillRepository struct {
	store documentStore
}

// NewGormBillRepository creates a new GormBillRepository
func NewGormBillRepository(db *gorm.DB) *GormBillRepository {
	return &GormBillRepository{store: documentStore{db: db, kind: billing.DocumentKindBill, prefix: PrefixBill}}
}

// FindByIDForTenant finds a bill by ID within a tenant
func (r *GormBillRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*billing.Bill, error) {
	doc, err := r.store.first(r.store.scope(ctx, tenantID).Where("id = ?", id))
	if err != nil {
		return nil, err
	}
	return &billing.Bill{Document: doc}, nil
}

// FindByOrder finds the bill raised from a purchase order
func (r *GormBillRepository) FindByOrder(ctx context.Context, tenantID, orderID uuid.UUID) (*billing.Bill, error) {
	doc, err := r.store.first(r.store.scope(ctx, tenantID).Where("order_id = ?", orderID))
	if err != nil {
		return nil, err
	}
	return &billing.Bill{Document: doc}, nil
}

// FindByCompany lists a company's bills
func (r *GormBillRepository) FindByCompany(ctx context.Context, tenantID, companyID uuid.UUID, filter shared.Filter) ([]billing.Bill, error) {
	docs, err := r.store.list(ctx, tenantID, companyID, filter)
	if err != nil {
		return nil, err
	}
	out := make([]billing.Bill, len(docs))
	for i := range docs {
		out[i] = billing.Bill{Document: docs[i]}
	}
	return out, nil
}

// CountByCompany counts a company's bills matching the filter
func (r *GormBillRepository) CountByCompany(ctx context.Context, tenantID, companyID uuid.UUID, filter shared.Filter) (int64, error) {
	return r.store.count(ctx, tenantID, companyID, filter)
}

// SummarizeByStatus counts and totals a company's bills per status
func (r *GormBillRepository) SummarizeByStatus(ctx context.Context, tenantID, companyID uuid.UUID) ([]shared.StatusTotal, error) {
	return r.store.summarize(ctx, tenantID, companyID)
}

// Save creates or updates a bill
func (r *GormBillRepository) Save(ctx context.Context, bill *billing.Bill) error {
	return r.store.save(ctx, &bill.Document)
}

// SaveWithLock saves the bill only if nobody changed it since it was loaded
func (r *GormBillRepository) SaveWithLock(ctx context.Context, bill *billing.Bill) error {
	return r.store.saveWithLock(ctx, &bill.Document)
}

// GenerateNumber draws the next BILL number of a company
func (r *GormBillRepository) GenerateNumber(ctx context.Context, tenantID, companyID uuid.UUID) (string, error) {
	return nextNumber(ctx, r.store.db, tenantID, companyID, r.store.prefix)
}

// paymentStore holds the queries shared by receipts and bill payments, which live in one table
type paymentStore struct {
	db     *gorm.DB
	kind   billing.PaymentKind
	prefix string
}

func (s paymentStore) scope(ctx context.Context, tenantID uuid.UUID) *gorm.DB {
	return s.db.WithContext(ctx).
		Model(&models.PaymentModel{}).
		Where("tenant_id = ? AND kind = ?", tenantID, s.kind)
}

func (s paymentStore) find(ctx context.Context, tenantID, id uuid.UUID) (billing.Payment, error) {
	var model models.PaymentModel
	if err := s.scope(ctx, tenantID).Where("id = ?", id).First(&model).Error; err != nil {
		return billing.Payment{}, translateError(err)
	}
	return model.ToDomain(), nil
}

func (s paymentStore) byDocument(ctx context.Context, tenantID, documentID uuid.UUID) ([]billing.Payment, error) {
	var rows []models.PaymentModel
	if err := s.scope(ctx, tenantID).
		Where("document_id = ?", documentID).
		Order("payment_date ASC, number ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	payments := make([]billing.Payment, len(rows))
	for i := range rows {
		payments[i] = rows[i].ToDomain()
	}
	return payments, nil
}

func (s paymentStore) sum(ctx context.Context, tenantID, documentID uuid.UUID) (decimal.Decimal, error) {
	var row struct {
		Total decimal.NullDecimal
	}
	if err := s.scope(ctx, tenantID).
		Select("SUM(amount) AS total").
		Where("document_id = ?", documentID).
		Scan(&row).Error; err != nil {
		return decimal.Zero, err
	}
	return row.Total.Decimal, nil
}

func (s paymentStore) save(ctx context.Context, p *billing.Payment) error {
	if err := s.db.WithContext(ctx).Create(models.PaymentModelFromDomain(p)).Error; err != nil {
		return translateError(err)
	}
	p.MarkStored()
	return nil
}

// GormReceiptRepository implements ReceiptRepository using GORM
type GormReceiptRepository struct {
	store paymentStore
}

// NewGormReceiptRepository creates a new GormReceiptRepository
func NewGormReceiptRepository(db *gorm.DB) *GormReceiptRepository {
	return &GormReceiptRepository{store: paymentStore{db: db, kind: billing.PaymentKindReceipt, prefix: PrefixReceipt}}
}

// FindByIDForTenant finds a receipt by ID within a tenant
func (r *GormReceiptRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*billing.Receipt, error) {
	p, err := r.store.find(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	return &billing.Receipt{Payment: p}, nil
}

// FindByInvoice lists the receipts recorded against an invoice
func (r *GormReceiptRepository) FindByInvoice(ctx context.Context, tenantID, invoiceID uuid.UUID) ([]billing.Receipt, error) {
	payments, err := r.store.byDocument(ctx, tenantID, invoiceID)
	if err != nil {
		return nil, err
	}
	out := make([]billing.Receipt, len(payments))
	for i := range payments {
		out[i] = billing.Receipt{Payment: payments[i]}
	}
	return out, nil
}

// SumByInvoice totals the receipts recorded against an invoice
func (r *GormReceiptRepository) SumByInvoice(ctx context.Context, tenantID, invoiceID uuid.UUID) (decimal.Decimal, error) {
	return r.store.sum(ctx, tenantID, invoiceID)
}

// Save stores a new receipt. Receipts are never edited.
func (r *GormReceiptRepository) Save(ctx context.Context, receipt *billing.Receipt) error {
	return r.store.save(ctx, &receipt.Payment)
}

// GenerateNumber draws the next RCT number of a company
func (r *GormReceiptRepository) GenerateNumber(ctx context.Context, tenantID, companyID uuid.UUID) (string, error) {
	return nextNumber(ctx, r.store.db, tenantID, companyID, r.store.prefix)
}

// GormBillPaymentRepository implements BillPaymentRepository using GORM
type GormBillPaymentRepository struct {
	store paymentStore
}

// NewGormBillPaymentRepository creates a new GormBillPaymentRepository
func NewGormBillPaymentRepository(db *gorm.DB) *GormBillPaymentRepository {
	return &GormBillPaymentRepository{store: paymentStore{db: db, kind: billing.PaymentKindBillPayment, prefix: PrefixBillPayment}}
}

// FindByIDForTenant finds a bill payment by ID within a tenant
func (r *GormBillPaymentRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*billing.BillPayment, error) {
	p, err := r.store.find(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	return &billing.BillPayment{Payment: p}, nil
}

// FindByBill lists the payments recorded against a bill
func (r *GormBillPaymentRepository) FindByBill(ctx context.Context, tenantID, billID uuid.UUID) ([]billing.BillPayment, error) {
	payments, err := r.store.byDocument(ctx, tenantID, billID)
	if err != nil {
		return nil, err
	}
	out := make([]billing.BillPayment, len(payments))
	for i := range payments {
		out[i] = billing.BillPayment{Payment: payments[i]}
	}
	return out, nil
}

// SumByBill totals the payments recorded against a bill
func (r *GormBillPaymentRepository) SumByBill(ctx context.Context, tenantID, billID uuid.UUID) (decimal.Decimal, error) {
	return r.store.sum(ctx, tenantID, billID)
}

// Save stores a new bill payment. Payments are never edited.
func (r *GormBillPaymentRepository) Save(ctx context.Context, payment *billing.BillPayment) error {
	return r.store.save(ctx, &payment.Payment)
}

// GenerateNumber draws the next PAY number of a company
func (r *GormBillPaymentRepository) GenerateNumber(ctx context.Context, tenantID, companyID uuid.UUID) (string, error) {
	return nextNumber(ctx, r.store.db, tenantID, companyID, r.store.prefix)
}

// Ensure the billing repositories implement their interfaces
var (
	_ billing.InvoiceRepository     = (*GormInvoiceRepository)(nil)
	_ billing.BillRepository        = (*GormBillRepository)(nil)
	_ billing.ReceiptRepository     = (*GormReceiptRepository)(nil)
	_ billing.BillPaymentRepository = (*GormBillPaymentRepository)(nil)
)
