//go:build integration

package integration

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	code := m.Run()
	CleanupSharedContainer()
	os.Exit(code)
}

func TestMigrations_UpDownUp(t *testing.T) {
	tdb := NewTestDB(t)
	m := tdb.Migrator()

	require.NoError(t, m.Up())
	version, dirty, err := m.Version()
	require.NoError(t, err)
	assert.False(t, dirty)
	assert.Equal(t, uint(4), version)

	assert.Equal(t, []string{
		"accounts", "companies", "document_sequences", "documents",
		"intercompany_settlements", "intercompany_transactions",
		"journal_entries", "journal_lines", "order_items", "orders",
		"payments", "products", "tenants", "users",
	}, tdb.Tables())

	require.NoError(t, m.Up(), "re-running up is a no-op")

	require.NoError(t, m.Down())
	assert.Empty(t, tdb.Tables())

	require.NoError(t, m.Up())
	assert.Len(t, tdb.Tables(), 14)
}

func TestMigrations_Steps(t *testing.T) {
	tdb := NewTestDB(t)
	m := tdb.Migrator()

	require.NoError(t, m.Steps(2))
	version, _, err := m.Version()
	require.NoError(t, err)
	assert.Equal(t, uint(2), version)
	assert.NotContains(t, tdb.Tables(), "orders")
	assert.Contains(t, tdb.Tables(), "journal_lines")

	require.NoError(t, m.Steps(-1))
	assert.NotContains(t, tdb.Tables(), "accounts")
	assert.Contains(t, tdb.Tables(), "users")
}
