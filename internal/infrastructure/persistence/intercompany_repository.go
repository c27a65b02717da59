package persistence

import (
	"context"

	"github.com/erp/accounting/internal/domain/intercompany"
	"github.com/erp/accounting/internal/domain/shared"
	"github.com/erp/accounting/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var intercompanyFilter = filterSpec{
	searchColumns: []string{"number", "description"},
	columns: map[string]string{
		"status":            "status",
		"source_company_id": "source_company_id",
		"target_company_id": "target_company_id",
	},
	dateColumn:  "transaction_date",
	sortFields:  IntercompanySortFields,
	defaultSort: "transaction_date",
}

// tenantSequenceScope is the sequence scope of numbers shared by a whole tenant
var tenantSequenceScope = uuid.Nil

func orderedSettlements(db *gorm.DB) *gorm.DB {
	return db.Order("settled_on ASC, id ASC")
}

// GormIntercompanyRepository implements intercompany.TransactionRepository using GORM
type GormIntercompanyRepository struct {
	db *gorm.DB
}

// NewGormIntercompanyRepository creates a new GormIntercompanyRepository
func NewGormIntercompanyRepository(db *gorm.DB) *GormIntercompanyRepository {
	return &GormIntercompanyRepository{db: db}
}

// FindByIDForTenant finds a transaction with its settlements
func (r *GormIntercompanyRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*intercompany.Transaction, error) {
	var model models.IntercompanyTransactionModel
	if err := r.db.WithContext(ctx).
		Preload("Settlements", orderedSettlements).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindByIdempotencyKey finds the transaction created by a client request key
func (r *GormIntercompanyRepository) FindByIdempotencyKey(ctx context.Context, tenantID uuid.UUID, key string) (*intercompany.Transaction, error) {
	if key == "" {
		return nil, shared.ErrNotFound
	}
	var model models.IntercompanyTransactionModel
	if err := r.db.WithContext(ctx).
		Preload("Settlements", orderedSettlements).
		Where("tenant_id = ? AND idempotency_key = ?", tenantID, key).
		First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindAllForTenant lists transactions. The "company_id" filter matches either side.
func (r *GormIntercompanyRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]intercompany.Transaction, error) {
	var rows []models.IntercompanyTransactionModel
	query := intercompanyFilter.page(r.filtered(ctx, tenantID, filter), filter)
	if err := query.Preload("Settlements", orderedSettlements).Find(&rows).Error; err != nil {
		return nil, err
	}
	return toIntercompanyTransactions(rows), nil
}

// CountForTenant counts transactions matching the filter
func (r *GormIntercompanyRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	var count int64
	query := intercompanyFilter.where(r.filtered(ctx, tenantID, filter), filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// FindBetween lists every transaction between two companies, in either direction
func (r *GormIntercompanyRepository) FindBetween(ctx context.Context, tenantID, companyA, companyB uuid.UUID) ([]intercompany.Transaction, error) {
	var rows []models.IntercompanyTransactionModel
	if err := r.db.WithContext(ctx).
		Preload("Settlements", orderedSettlements).
		Where("tenant_id = ?", tenantID).
		Where("(source_company_id = ? AND target_company_id = ?) OR (source_company_id = ? AND target_company_id = ?)",
			companyA, companyB, companyB, companyA).
		Order("transaction_date ASC, number ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return toIntercompanyTransactions(rows), nil
}

// Save creates or updates a transaction and appends new settlements
func (r *GormIntercompanyRepository) Save(ctx context.Context, txn *intercompany.Transaction) error {
	model := models.IntercompanyTransactionModelFromDomain(txn)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(model).Error; err != nil {
			return err
		}
		return saveSettlements(tx, model.Settlements)
	})
	if err != nil {
		return translateError(err)
	}
	txn.MarkStored()
	return nil
}

// SaveWithLock saves the transaction only if nobody changed it since it was loaded
func (r *GormIntercompanyRepository) SaveWithLock(ctx context.Context, txn *intercompany.Transaction) error {
	model := models.IntercompanyTransactionModelFromDomain(txn)
	next := txn.NextStoredVersion()
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := updateWithVersion(tx, &models.IntercompanyTransactionModel{}, txn.ID, txn.StoredVersion(), next, map[string]any{
			"invoice_id":     txn.InvoiceID,
			"bill_id":        txn.BillID,
			"amount":         txn.Amount,
			"settled_amount": txn.SettledAmount,
			"status":         txn.Status,
			"description":    txn.Description,
		}); err != nil {
			return err
		}
		return saveSettlements(tx, model.Settlements)
	})
	if err != nil {
		return err
	}
	txn.Version = next
	txn.MarkStored()
	return nil
}

// GenerateNumber draws the next IC number of a tenant
func (r *GormIntercompanyRepository) GenerateNumber(ctx context.Context, tenantID uuid.UUID) (string, error) {
	return nextNumber(ctx, r.db, tenantID, tenantSequenceScope, PrefixIntercompany)
}

func (r *GormIntercompanyRepository) filtered(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) *gorm.DB {
	query := r.db.WithContext(ctx).
		Model(&models.IntercompanyTransactionModel{}).
		Where("tenant_id = ?", tenantID)
	if companyID, ok := filter.Filters["company_id"]; ok {
		query = query.Where("(source_company_id = ? OR target_company_id = ?)", companyID, companyID)
	}
	return query
}

// saveSettlements inserts settlements that are not stored yet. Settlements never change.
func saveSettlements(tx *gorm.DB, settlements []models.IntercompanySettlementModel) error {
	if len(settlements) == 0 {
		return nil
	}
	return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&settlements).Error
}

func toIntercompanyTransactions(rows []models.IntercompanyTransactionModel) []intercompany.Transaction {
	txns := make([]intercompany.Transaction, len(rows))
	for i := range rows {
		txns[i] = *rows[i].ToDomain()
	}
	return txns
}

// Ensure GormIntercompanyRepository implements TransactionRepository
var _ intercompany.TransactionRepository = (*GormIntercompanyRepository)(nil)
