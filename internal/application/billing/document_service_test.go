package billing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/erp/accounting/internal/domain/shared"
	"github.com/erp/accounting/tests/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePrinter struct {
	printed []*InvoiceDocument
	err     error
}

func (p *fakePrinter) PrintInvoice(_ context.Context, doc *InvoiceDocument) ([]byte, error) {
	if p.err != nil {
		return nil, p.err
	}
	p.printed = append(p.printed, doc)
	return []byte("%PDF-1.4 " + doc.Invoice.Number), nil
}

type memoryStore struct {
	objects map[string][]byte
}

func (m *memoryStore) Upload(_ context.Context, key string, data []byte, _ string) error {
	if m.objects == nil {
		m.objects = make(map[string][]byte)
	}
	m.objects[key] = data
	return nil
}

func (m *memoryStore) GenerateDownloadURL(_ context.Context, key string, expiresIn time.Duration) (string, time.Time, error) {
	return "https://files.example.com/" + key, time.Now().Add(expiresIn), nil
}

func TestDocumentService_RenderInvoiceDocument(t *testing.T) {
	ctx := context.Background()
	books := testutil.NewBooks(t, "MFG")
	invoices := NewInvoiceService(books.Scope, books.Repos, nil, nil)
	mfg := books.CompanyID(t, "MFG")
	order := confirmedSalesOrder(t, books, "MFG", 2)
	invoice, err := invoices.CreateFromOrder(ctx, books.TenantID, mfg, CreateFromOrderRequest{OrderID: order.ID})
	require.NoError(t, err)

	t.Run("disabled without printer", func(t *testing.T) {
		svc := NewDocumentService(books.Repos, nil, &memoryStore{}, time.Hour, nil)
		_, err := svc.RenderInvoiceDocument(ctx, books.TenantID, mfg, invoice.ID)
		var de *shared.DomainError
		require.ErrorAs(t, err, &de)
		assert.Equal(t, "PRINTING_DISABLED", de.Code)
	})

	t.Run("prints and stores", func(t *testing.T) {
		printer := &fakePrinter{}
		store := &memoryStore{}
		svc := NewDocumentService(books.Repos, printer, store, time.Hour, nil)

		rendered, err := svc.RenderInvoiceDocument(ctx, books.TenantID, mfg, invoice.ID)
		require.NoError(t, err)
		assert.Contains(t, rendered.StorageKey, invoice.Number+".pdf")
		assert.Contains(t, rendered.URL, rendered.StorageKey)
		assert.Contains(t, store.objects, rendered.StorageKey)

		require.Len(t, printer.printed, 1)
		doc := printer.printed[0]
		assert.Equal(t, "MFG", doc.Issuer.Code)
		assert.Nil(t, doc.Customer)
		assert.Equal(t, order.OrderNumber, doc.OrderNumber)
		require.Len(t, doc.Lines, 1)
		assert.True(t, amount("200").Equal(doc.Lines[0].Amount))
	})

	t.Run("printer failure surfaces", func(t *testing.T) {
		svc := NewDocumentService(books.Repos, &fakePrinter{err: errors.New("chrome crashed")}, &memoryStore{}, time.Hour, nil)
		_, err := svc.RenderInvoiceDocument(ctx, books.TenantID, mfg, invoice.ID)
		assert.EqualError(t, err, "chrome crashed")
	})
}
