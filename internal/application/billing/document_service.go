package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/erp/accounting/internal/application/txscope"
	"github.com/erp/accounting/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const pdfContentType = "application/pdf"

var errPrintingDisabled = shared.NewDomainError("PRINTING_DISABLED", "Invoice documents are not configured on this server")

// DocumentParty is a company printed on a document
type DocumentParty struct {
	Code     string
	Name     string
	Address  string
	Phone    string
	Email    string
	Currency string
}

// DocumentLine is one printed order line
type DocumentLine struct {
	LineNo      int
	ProductCode string
	ProductName string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
	Amount      decimal.Decimal
}

// InvoiceDocument is everything printed on an invoice
type InvoiceDocument struct {
	Invoice     DocumentResponse
	Issuer      DocumentParty
	Customer    *DocumentParty
	OrderNumber string
	Lines       []DocumentLine
	Receipts    []PaymentResponse
	PrintedAt   time.Time
}

// InvoicePrinter renders an invoice to PDF bytes
type InvoicePrinter interface {
	PrintInvoice(ctx context.Context, doc *InvoiceDocument) ([]byte, error)
}

// DocumentStore keeps rendered documents and hands out download links
type DocumentStore interface {
	Upload(ctx context.Context, storageKey string, data []byte, contentType string) error
	GenerateDownloadURL(ctx context.Context, storageKey string, expiresIn time.Duration) (string, time.Time, error)
}

// RenderedDocumentResponse points at a stored invoice PDF
type RenderedDocumentResponse struct {
	InvoiceID  uuid.UUID `json:"invoice_id"`
	Number     string    `json:"number"`
	StorageKey string    `json:"storage_key"`
	URL        string    `json:"url"`
	ExpiresAt  time.Time `json:"expires_at"`
	Size       int       `json:"size"`
}

// DocumentService renders invoice PDFs and stores them
type DocumentService struct {
	repos     txscope.Repositories
	printer   InvoicePrinter
	store     DocumentStore
	urlExpiry time.Duration
	logger    *zap.Logger
	now       func() time.Time
}

// NewDocumentService creates a DocumentService. With a nil printer or store every
// render fails with PRINTING_DISABLED.
func NewDocumentService(repos txscope.Repositories, printer InvoicePrinter, store DocumentStore, urlExpiry time.Duration, logger *zap.Logger) *DocumentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DocumentService{
		repos:     repos,
		printer:   printer,
		store:     store,
		urlExpiry: urlExpiry,
		logger:    logger,
		now:       time.Now,
	}
}

// Enabled reports whether a printer and a store are wired
func (s *DocumentService) Enabled() bool {
	return s.printer != nil && s.store != nil
}

// RenderInvoiceDocument prints an invoice to PDF, uploads it and returns a download link
func (s *DocumentService) RenderInvoiceDocument(ctx context.Context, tenantID, companyID, invoiceID uuid.UUID) (*RenderedDocumentResponse, error) {
	if !s.Enabled() {
		return nil, errPrintingDisabled
	}
	doc, err := s.BuildInvoiceDocument(ctx, tenantID, companyID, invoiceID)
	if err != nil {
		return nil, err
	}

	pdf, err := s.printer.PrintInvoice(ctx, doc)
	if err != nil {
		s.logger.Error("Failed to print invoice",
			zap.String("invoice", doc.Invoice.Number),
			zap.Error(err))
		return nil, err
	}

	key := fmt.Sprintf("invoices/%s/%s/%s.pdf", tenantID, companyID, doc.Invoice.Number)
	if err := s.store.Upload(ctx, key, pdf, pdfContentType); err != nil {
		return nil, fmt.Errorf("upload invoice document: %w", err)
	}
	url, expiresAt, err := s.store.GenerateDownloadURL(ctx, key, s.urlExpiry)
	if err != nil {
		return nil, fmt.Errorf("sign invoice document url: %w", err)
	}

	s.logger.Info("Invoice document rendered",
		zap.String("invoice", doc.Invoice.Number),
		zap.Int("bytes", len(pdf)))

	return &RenderedDocumentResponse{
		InvoiceID:  invoiceID,
		Number:     doc.Invoice.Number,
		StorageKey: key,
		URL:        url,
		ExpiresAt:  expiresAt,
		Size:       len(pdf),
	}, nil
}

// BuildInvoiceDocument gathers the invoice, its order lines, both parties and the receipts
func (s *DocumentService) BuildInvoiceDocument(ctx context.Context, tenantID, companyID, invoiceID uuid.UUID) (*InvoiceDocument, error) {
	invoice, err := s.repos.Invoices().FindByIDForTenant(ctx, tenantID, invoiceID)
	if err != nil {
		return nil, err
	}
	if invoice.CompanyID != companyID {
		return nil, shared.ErrNotFound
	}
	order, err := s.repos.SalesOrders().FindByIDForTenant(ctx, tenantID, invoice.OrderID)
	if err != nil {
		return nil, err
	}

	ids := []uuid.UUID{invoice.CompanyID}
	if invoice.CounterpartyCompanyID != nil {
		ids = append(ids, *invoice.CounterpartyCompanyID)
	}
	companies, err := s.repos.Companies().FindByIDsForTenant(ctx, tenantID, ids)
	if err != nil {
		return nil, err
	}

	now := s.now()
	doc := &InvoiceDocument{
		Invoice:     ToDocumentResponse(&invoice.Document, now),
		OrderNumber: order.OrderNumber,
		Lines:       make([]DocumentLine, len(order.Items)),
		PrintedAt:   now,
	}
	for i := range companies {
		c := &companies[i]
		party := DocumentParty{
			Code:     c.Code,
			Name:     c.Name,
			Address:  c.Address,
			Phone:    c.Phone,
			Email:    c.Email,
			Currency: c.Currency,
		}
		if c.ID == invoice.CompanyID {
			doc.Issuer = party
		} else {
			doc.Customer = &party
		}
	}
	for i, item := range order.Items {
		doc.Lines[i] = DocumentLine{
			LineNo:      item.LineNo,
			ProductCode: item.ProductCode,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			Amount:      item.Amount,
		}
	}

	receipts, err := s.repos.Receipts().FindByInvoice(ctx, tenantID, invoice.ID)
	if err != nil {
		return nil, err
	}
	doc.Receipts = make([]PaymentResponse, len(receipts))
	for i := range receipts {
		doc.Receipts[i] = ToPaymentResponse(&receipts[i].Payment)
	}
	return doc, nil
}
