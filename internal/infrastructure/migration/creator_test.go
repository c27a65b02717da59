package migration

import (
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"
	"time"

	"github.com/erp/accounting/migrations"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"add users table", "add_users_table"},
		{"Add-Users-Table", "add_users_table"},
		{"add__users__table", "add_users_table"},
		{"   spaces   ", "spaces"},
		{"special!@#$chars", "specialchars"},
		{"_leading", "leading"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, sanitizeName(tt.input))
		})
	}
}

func TestList_EmbeddedMigrationsArePaired(t *testing.T) {
	files, err := List(migrations.FS)
	require.NoError(t, err)
	require.NotEmpty(t, files)

	for i, f := range files {
		assert.Equal(t, uint(i+1), f.Version, "versions are contiguous")
		assert.NotEmpty(t, f.UpPath, f.Name)
		assert.NotEmpty(t, f.DownPath, f.Name)
	}
}

func TestList_RejectsConflictingNames(t *testing.T) {
	source := fstest.MapFS{
		"000001_a.up.sql":   {Data: []byte("")},
		"000001_b.down.sql": {Data: []byte("")},
		"README.md":         {Data: []byte("")},
	}
	_, err := List(source)
	assert.Error(t, err)
}

func TestCreate(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	first, err := Create(dir, "Add budgets", now)
	require.NoError(t, err)
	assert.Equal(t, uint(1), first.Version)
	assert.Equal(t, filepath.Join(dir, "000001_add_budgets.up.sql"), first.UpPath)

	second, err := Create(dir, "budget lines", now)
	require.NoError(t, err)
	assert.Equal(t, uint(2), second.Version)

	up, err := os.ReadFile(first.UpPath)
	require.NoError(t, err)
	assert.Contains(t, string(up), "-- Add budgets")
	assert.Contains(t, string(up), "2026-03-01T12:00:00Z")

	down, err := os.ReadFile(second.DownPath)
	require.NoError(t, err)
	assert.Contains(t, string(down), "Rollback SQL")

	_, err = Create(dir, "!!!", now)
	assert.Error(t, err)
}
