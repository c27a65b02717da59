package persistence

import (
	"strings"
)

// ValidateSortOrder validates and normalizes the sort order to ASC or DESC.
// Returns "DESC" as the default if the input is invalid or empty.
func ValidateSortOrder(orderDir string) string {
	normalized := strings.ToUpper(strings.TrimSpace(orderDir))
	if normalized == "ASC" {
		return "ASC"
	}
	return "DESC"
}

// ValidateSortField validates the sort field against a whitelist of allowed fields.
// Returns the defaultField if the input is invalid, empty, or not in the whitelist.
func ValidateSortField(sortField string, allowedFields map[string]bool, defaultField string) string {
	trimmed := strings.TrimSpace(sortField)
	if trimmed == "" {
		return defaultField
	}
	if allowedFields[trimmed] {
		return trimmed
	}
	return defaultField
}

// TenantSortFields contains allowed sort fields for tenants
var TenantSortFields = map[string]bool{
	"id":         true,
	"created_at": true,
	"updated_at": true,
	"code":       true,
	"name":       true,
	"status":     true,
}

// CompanySortFields contains allowed sort fields for companies
var CompanySortFields = map[string]bool{
	"id":         true,
	"created_at": true,
	"updated_at": true,
	"code":       true,
	"name":       true,
	"type":       true,
	"is_active":  true,
}

// AccountSortFields contains allowed sort fields for accounts
var AccountSortFields = map[string]bool{
	"id":         true,
	"created_at": true,
	"code":       true,
	"name":       true,
	"type":       true,
	"balance":    true,
}

// JournalEntrySortFields contains allowed sort fields for journal entries
var JournalEntrySortFields = map[string]bool{
	"id":           true,
	"created_at":   true,
	"entry_number": true,
	"entry_date":   true,
	"source_type":  true,
}

// ProductSortFields contains allowed sort fields for products
var ProductSortFields = map[string]bool{
	"id":             true,
	"created_at":     true,
	"updated_at":     true,
	"code":           true,
	"name":           true,
	"status":         true,
	"sales_price":    true,
	"purchase_price": true,
}

// OrderSortFields contains allowed sort fields for sales and purchase orders
var OrderSortFields = map[string]bool{
	"id":           true,
	"created_at":   true,
	"updated_at":   true,
	"order_number": true,
	"order_date":   true,
	"status":       true,
	"total_amount": true,
	"confirmed_at": true,
}

// DocumentSortFields contains allowed sort fields for invoices and bills
var DocumentSortFields = map[string]bool{
	"id":           true,
	"created_at":   true,
	"updated_at":   true,
	"number":       true,
	"issue_date":   true,
	"due_date":     true,
	"status":       true,
	"total_amount": true,
	"paid_amount":  true,
}

// IntercompanySortFields contains allowed sort fields for intercompany transactions
var IntercompanySortFields = map[string]bool{
	"id":               true,
	"created_at":       true,
	"number":           true,
	"transaction_date": true,
	"status":           true,
	"amount":           true,
	"settled_amount":   true,
}
