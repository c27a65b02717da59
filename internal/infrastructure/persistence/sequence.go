package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/erp/accounting/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Document number prefixes
const (
	PrefixJournalEntry  = "JE"
	PrefixSalesOrder    = "SO"
	PrefixPurchaseOrder = "PO"
	PrefixInvoice       = "INV"
	PrefixBill          = "BILL"
	PrefixReceipt       = "RCT"
	PrefixBillPayment   = "PAY"
	PrefixIntercompany  = "IC"
)

// nextNumber draws the next value of a per-scope yearly counter and formats it as PREFIX-YYYY-NNNNN.
// The counter row stays locked until the surrounding transaction ends, so concurrent callers
// never see the same value and rolled back numbers are handed out again.
func nextNumber(ctx context.Context, db *gorm.DB, tenantID, scopeID uuid.UUID, prefix string) (string, error) {
	year := time.Now().UTC().Year()
	var value int64

	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		seed := models.DocumentSequenceModel{
			TenantID: tenantID,
			ScopeID:  scopeID,
			Prefix:   prefix,
			Year:     year,
		}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&seed).Error; err != nil {
			return err
		}

		where := "tenant_id = ? AND scope_id = ? AND prefix = ? AND year = ?"
		if err := tx.Model(&models.DocumentSequenceModel{}).
			Where(where, tenantID, scopeID, prefix, year).
			UpdateColumn("last_value", gorm.Expr("last_value + 1")).Error; err != nil {
			return err
		}

		return tx.Model(&models.DocumentSequenceModel{}).
			Where(where, tenantID, scopeID, prefix, year).
			Select("last_value").
			Scan(&value).Error
	})
	if err != nil {
		return "", fmt.Errorf("failed to draw %s number: %w", prefix, err)
	}

	return fmt.Sprintf("%s-%d-%05d", prefix, year, value), nil
}
