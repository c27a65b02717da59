package models

import "github.com/google/uuid"

// DocumentSequenceModel is the per-scope counter behind document numbers.
// ScopeID is the company for company documents and the tenant for tenant-wide ones.
type DocumentSequenceModel struct {
	TenantID  uuid.UUID `gorm:"type:uuid;primaryKey"`
	ScopeID   uuid.UUID `gorm:"type:uuid;primaryKey"`
	Prefix    string    `gorm:"type:varchar(10);primaryKey"`
	Year      int       `gorm:"primaryKey;autoIncrement:false"`
	LastValue int64     `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (DocumentSequenceModel) TableName() string {
	return "document_sequences"
}

// All lists every model in dependency order, for AutoMigrate in tests and tools
func All() []any {
	return []any{
		&TenantModel{},
		&UserModel{},
		&CompanyModel{},
		&AccountModel{},
		&JournalEntryModel{},
		&JournalLineModel{},
		&ProductModel{},
		&OrderModel{},
		&OrderItemModel{},
		&DocumentModel{},
		&PaymentModel{},
		&IntercompanyTransactionModel{},
		&IntercompanySettlementModel{},
		&DocumentSequenceModel{},
	}
}
