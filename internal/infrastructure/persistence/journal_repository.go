package persistence

import (
	"context"
	"time"

	"github.com/erp/accounting/internal/domain/ledger"
	"github.com/erp/accounting/internal/domain/shared"
	"github.com/erp/accounting/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var journalFilter = filterSpec{
	searchColumns: []string{"entry_number", "description"},
	columns: map[string]string{
		"source_type": "source_type",
		"source_id":   "source_id",
	},
	dateColumn:  "entry_date",
	sortFields:  JournalEntrySortFields,
	defaultSort: "entry_date",
}

// GormJournalEntryRepository implements JournalEntryRepository using GORM
type GormJournalEntryRepository struct {
	db *gorm.DB
}

// NewGormJournalEntryRepository creates a new GormJournalEntryRepository
func NewGormJournalEntryRepository(db *gorm.DB) *GormJournalEntryRepository {
	return &GormJournalEntryRepository{db: db}
}

func orderedLines(db *gorm.DB) *gorm.DB {
	return db.Order("line_no ASC")
}

// FindByIDForTenant finds a journal entry with its lines
func (r *GormJournalEntryRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*ledger.JournalEntry, error) {
	var model models.JournalEntryModel
	if err := r.db.WithContext(ctx).
		Preload("Lines", orderedLines).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindByCompany lists a company's journal entries with their lines
func (r *GormJournalEntryRepository) FindByCompany(ctx context.Context, tenantID, companyID uuid.UUID, filter shared.Filter) ([]ledger.JournalEntry, error) {
	var rows []models.JournalEntryModel
	query := journalFilter.page(r.scope(ctx, tenantID, companyID), filter)
	if err := query.Preload("Lines", orderedLines).Find(&rows).Error; err != nil {
		return nil, err
	}
	return toJournalEntries(rows), nil
}

// CountByCompany counts a company's journal entries matching the filter
func (r *GormJournalEntryRepository) CountByCompany(ctx context.Context, tenantID, companyID uuid.UUID, filter shared.Filter) (int64, error) {
	var count int64
	if err := journalFilter.where(r.scope(ctx, tenantID, companyID), filter).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// FindBySource lists the entries posted for one business document
func (r *GormJournalEntryRepository) FindBySource(ctx context.Context, tenantID uuid.UUID, source ledger.SourceType, sourceID uuid.UUID) ([]ledger.JournalEntry, error) {
	var rows []models.JournalEntryModel
	if err := r.db.WithContext(ctx).
		Preload("Lines", orderedLines).
		Where("tenant_id = ? AND source_type = ? AND source_id = ?", tenantID, source, sourceID).
		Order("entry_date ASC, entry_number ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return toJournalEntries(rows), nil
}

// HasPostings reports whether any journal line references the account
func (r *GormJournalEntryRepository) HasPostings(ctx context.Context, tenantID, accountID uuid.UUID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Table("journal_lines AS l").
		Joins("JOIN journal_entries AS e ON e.id = l.entry_id").
		Where("e.tenant_id = ? AND l.account_id = ?", tenantID, accountID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

type movementRow struct {
	AccountID uuid.UUID
	Debit     decimal.Decimal
	Credit    decimal.Decimal
}

// SumByAccount totals debits and credits per account over entries dated within [from, to]
func (r *GormJournalEntryRepository) SumByAccount(ctx context.Context, tenantID, companyID uuid.UUID, from, to time.Time) ([]ledger.AccountMovement, error) {
	query := r.db.WithContext(ctx).
		Table("journal_lines AS l").
		Select("l.account_id AS account_id, SUM(l.debit) AS debit, SUM(l.credit) AS credit").
		Joins("JOIN journal_entries AS e ON e.id = l.entry_id").
		Where("e.tenant_id = ? AND e.company_id = ?", tenantID, companyID)
	if !from.IsZero() {
		query = query.Where("e.entry_date >= ?", from)
	}
	if !to.IsZero() {
		query = query.Where("e.entry_date <= ?", to)
	}

	var rows []movementRow
	if err := query.Group("l.account_id").Scan(&rows).Error; err != nil {
		return nil, err
	}

	movements := make([]ledger.AccountMovement, len(rows))
	for i, row := range rows {
		movements[i] = ledger.AccountMovement{AccountID: row.AccountID, Debit: row.Debit, Credit: row.Credit}
	}
	return movements, nil
}

// Save stores a posted entry with its lines. Entries are append-only.
func (r *GormJournalEntryRepository) Save(ctx context.Context, entry *ledger.JournalEntry) error {
	model := models.JournalEntryModelFromDomain(entry)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(model).Error; err != nil {
			return err
		}
		if len(model.Lines) == 0 {
			return nil
		}
		return tx.Create(&model.Lines).Error
	})
	if err != nil {
		return translateError(err)
	}
	entry.MarkStored()
	return nil
}

// GenerateEntryNumber draws the next JE number of a company
func (r *GormJournalEntryRepository) GenerateEntryNumber(ctx context.Context, tenantID, companyID uuid.UUID) (string, error) {
	return nextNumber(ctx, r.db, tenantID, companyID, PrefixJournalEntry)
}

func (r *GormJournalEntryRepository) scope(ctx context.Context, tenantID, companyID uuid.UUID) *gorm.DB {
	return r.db.WithContext(ctx).
		Model(&models.JournalEntryModel{}).
		Where("tenant_id = ? AND company_id = ?", tenantID, companyID)
}

func toJournalEntries(rows []models.JournalEntryModel) []ledger.JournalEntry {
	entries := make([]ledger.JournalEntry, len(rows))
	for i := range rows {
		entries[i] = *rows[i].ToDomain()
	}
	return entries
}

// Ensure GormJournalEntryRepository implements JournalEntryRepository
var _ ledger.JournalEntryRepository = (*GormJournalEntryRepository)(nil)
