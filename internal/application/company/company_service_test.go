package company

import (
	"context"
	"testing"

	"github.com/erp/accounting/internal/domain/company"
	"github.com/erp/accounting/internal/domain/ledger"
	"github.com/erp/accounting/internal/domain/shared"
	"github.com/erp/accounting/tests/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type capturePublisher struct {
	events []shared.DomainEvent
}

func (p *capturePublisher) Publish(_ context.Context, events ...shared.DomainEvent) error {
	p.events = append(p.events, events...)
	return nil
}

func TestCompanyService_Create(t *testing.T) {
	ctx := context.Background()
	books := testutil.NewBooks(t)
	pub := &capturePublisher{}
	svc := NewCompanyService(books.Scope, books.Repos.Companies(), nil, zap.NewNop())
	svc.SetEventPublisher(pub)

	resp, err := svc.Create(ctx, books.TenantID, CreateCompanyRequest{
		Code:  "mfg",
		Name:  "Northwind Manufacturing",
		Type:  "Manufacturer",
		Phone: "(415) 555-2671",
		Email: "books@northwind.example",
	})
	require.NoError(t, err)
	assert.Equal(t, "MFG", resp.Code)
	assert.Equal(t, company.CompanyTypeManufacturer, resp.Type)
	assert.Equal(t, "+14155552671", resp.Phone)
	assert.Equal(t, company.DefaultCurrency, resp.Currency)

	chart, err := books.Repos.Accounts().FindChart(ctx, books.TenantID, resp.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, chart)
	codes := make(map[string]bool, len(chart))
	for _, a := range chart {
		codes[a.Code] = true
	}
	assert.True(t, codes[ledger.CodeIntercompanyReceivable])
	assert.True(t, codes[ledger.CodeIntercompanyPayable])

	require.Len(t, pub.events, 1)

	t.Run("duplicate code rolls back", func(t *testing.T) {
		_, err := svc.Create(ctx, books.TenantID, CreateCompanyRequest{Code: "MFG", Name: "Again", Type: "plant"})
		assert.ErrorIs(t, err, shared.ErrAlreadyExists)

		count, err := books.Repos.Companies().CountForTenant(ctx, books.TenantID, shared.DefaultFilter())
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)
	})

	t.Run("unknown type", func(t *testing.T) {
		_, err := svc.Create(ctx, books.TenantID, CreateCompanyRequest{Code: "X", Name: "X", Type: "bank"})
		var de *shared.DomainError
		require.ErrorAs(t, err, &de)
		assert.Equal(t, "INVALID_TYPE", de.Code)
	})

	t.Run("invalid phone", func(t *testing.T) {
		_, err := svc.Create(ctx, books.TenantID, CreateCompanyRequest{Code: "Y", Name: "Y", Type: "plant", Phone: "12"})
		var de *shared.DomainError
		require.ErrorAs(t, err, &de)
		assert.Equal(t, "INVALID_PHONE", de.Code)
	})

	t.Run("unknown tenant", func(t *testing.T) {
		_, err := svc.Create(ctx, uuid.New(), CreateCompanyRequest{Code: "Z", Name: "Z", Type: "plant"})
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestCompanyService_Lifecycle(t *testing.T) {
	ctx := context.Background()
	books := testutil.NewBooks(t, "MFG", "PLANT", "DIST")
	svc := NewCompanyService(books.Scope, books.Repos.Companies(), nil, nil)

	list, total, err := svc.List(ctx, books.TenantID, CompanyListFilter{Type: "plant"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, list, 1)
	assert.Equal(t, "PLANT", list[0].Code)

	id := books.CompanyID(t, "DIST")
	updated, err := svc.Update(ctx, books.TenantID, id, UpdateCompanyRequest{Name: "Distribution West", Type: "distributor", Currency: "eur"})
	require.NoError(t, err)
	assert.Equal(t, "EUR", updated.Currency)
	assert.Equal(t, "Distribution West", updated.Name)

	deactivated, err := svc.Deactivate(ctx, books.TenantID, id)
	require.NoError(t, err)
	assert.False(t, deactivated.IsActive)

	_, err = svc.Deactivate(ctx, books.TenantID, id)
	var de *shared.DomainError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "ALREADY_INACTIVE", de.Code)

	activated, err := svc.Activate(ctx, books.TenantID, id)
	require.NoError(t, err)
	assert.True(t, activated.IsActive)

	_, err = svc.GetByID(ctx, uuid.New(), id)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}
