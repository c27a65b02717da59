package persistence

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateSortOrder(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"empty string returns DESC", "", "DESC"},
		{"ASC uppercase returns ASC", "ASC", "ASC"},
		{"asc lowercase returns ASC", "asc", "ASC"},
		{"desc lowercase returns DESC", "desc", "DESC"},
		{"invalid value returns DESC", "sideways", "DESC"},
		{"injection attempt returns DESC", "ASC; DROP TABLE accounts;--", "DESC"},
		{"whitespace around ASC returns ASC", "  asc  ", "ASC"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ValidateSortOrder(tt.input))
		})
	}
}

func TestValidateSortField(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		def      string
		expected string
	}{
		{"empty returns default", "", "order_date", "order_date"},
		{"allowed field passes", "total_amount", "order_date", "total_amount"},
		{"unknown field returns default", "customer_name", "order_date", "order_date"},
		{"case sensitive", "TOTAL_AMOUNT", "order_date", "order_date"},
		{"trimmed", "  status  ", "order_date", "status"},
		{"injection returns default", "status; DROP TABLE orders", "order_date", "order_date"},
		{"empty default with unknown field", "nope", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ValidateSortField(tt.input, OrderSortFields, tt.def))
		})
	}
}

func TestSortFieldWhitelists(t *testing.T) {
	whitelists := map[string]map[string]bool{
		"TenantSortFields":       TenantSortFields,
		"CompanySortFields":      CompanySortFields,
		"AccountSortFields":      AccountSortFields,
		"JournalEntrySortFields": JournalEntrySortFields,
		"ProductSortFields":      ProductSortFields,
		"OrderSortFields":        OrderSortFields,
		"DocumentSortFields":     DocumentSortFields,
		"IntercompanySortFields": IntercompanySortFields,
	}

	for name, whitelist := range whitelists {
		t.Run(name, func(t *testing.T) {
			assert.True(t, whitelist["id"], "%s should allow id", name)
			assert.True(t, whitelist["created_at"], "%s should allow created_at", name)
		})
	}
}

func TestSortInjectionPayloads(t *testing.T) {
	payloads := []string{
		"id' OR '1'='1",
		"id UNION SELECT * FROM users",
		"id, (SELECT password_hash FROM users)",
		"CASE WHEN 1=1 THEN id ELSE code END",
		"id\n; DROP TABLE journal_lines",
	}

	for _, payload := range payloads {
		assert.Equal(t, "code", ValidateSortField(payload, AccountSortFields, "code"), payload)
		assert.Equal(t, "DESC", ValidateSortOrder(payload), payload)
	}
}
