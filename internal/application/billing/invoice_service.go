package billing

import (
	"context"
	"errors"
	"time"

	"github.com/erp/accounting/internal/application/event"
	appledger "github.com/erp/accounting/internal/application/ledger"
	"github.com/erp/accounting/internal/application/txscope"
	"github.com/erp/accounting/internal/domain/billing"
	"github.com/erp/accounting/internal/domain/ledger"
	"github.com/erp/accounting/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// InvoiceService raises invoices from sales orders and records receipts
type InvoiceService struct {
	scope          txscope.TransactionScope
	repos          txscope.Repositories
	poster         *appledger.Poster
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
	now            func() time.Time
}

// NewInvoiceService creates a new InvoiceService
func NewInvoiceService(scope txscope.TransactionScope, repos txscope.Repositories, poster *appledger.Poster, logger *zap.Logger) *InvoiceService {
	if poster == nil {
		poster = appledger.NewPoster()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InvoiceService{
		scope:  scope,
		repos:  repos,
		poster: poster,
		logger: logger,
		now:    time.Now,
	}
}

// SetEventPublisher sets the event publisher for cross-context integration
func (s *InvoiceService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// CreateFromOrder invoices a confirmed sales order for its full total and posts
// Dr Accounts Receivable / Cr Sales Revenue in the same transaction.
func (s *InvoiceService) CreateFromOrder(ctx context.Context, tenantID, companyID uuid.UUID, req CreateFromOrderRequest) (*DocumentResponse, error) {
	var invoice *billing.Invoice
	collector := event.NewCollector()
	err := s.scope.Execute(ctx, func(repos txscope.Repositories) error {
		collector.Reset()
		order, err := repos.SalesOrders().FindByIDForTenant(ctx, tenantID, req.OrderID)
		if err != nil {
			return err
		}
		if order.CompanyID != companyID {
			return shared.ErrNotFound
		}
		if order.IsIntercompany() {
			return errIntercompanyDocument
		}
		if existing, err := repos.Invoices().FindByOrder(ctx, tenantID, order.ID); err == nil {
			return shared.NewDomainError("ALREADY_INVOICED", "Order is already invoiced by "+existing.Number)
		} else if !errors.Is(err, shared.ErrNotFound) {
			return err
		}

		number, err := repos.Invoices().GenerateNumber(ctx, tenantID, companyID)
		if err != nil {
			return err
		}
		invoice, err = billing.NewInvoiceFromOrder(order, number, req.IssueDate, req.DueDate)
		if err != nil {
			return err
		}
		invoice.Notes = req.Notes
		if err := invoice.MatchesOrderTotal(order.TotalAmount); err != nil {
			return err
		}
		if err := order.MarkInvoiced(); err != nil {
			return err
		}
		if err := repos.SalesOrders().SaveWithLock(ctx, order); err != nil {
			return err
		}
		if err := repos.Invoices().Save(ctx, invoice); err != nil {
			return err
		}

		entry, err := appledger.Transfer(tenantID, companyID, invoice.IssueDate, "Invoice "+invoice.Number,
			ledger.SourceInvoice, invoice.ID, ledger.CodeAccountsReceivable, ledger.CodeSalesRevenue, invoice.TotalAmount)
		if err != nil {
			return err
		}
		if err := s.poster.Post(ctx, repos, entry); err != nil {
			return err
		}
		collector.Collect(order, invoice, entry)
		return nil
	})
	if err != nil {
		return nil, err
	}
	collector.Publish(ctx, s.eventPublisher, s.logger)

	s.logger.Info("Invoice created",
		zap.String("company_id", companyID.String()),
		zap.String("number", invoice.Number),
		zap.String("total", invoice.TotalAmount.String()))

	response := ToDocumentResponse(&invoice.Document, s.now())
	return &response, nil
}

// Issue opens a pending invoice for receipts
func (s *InvoiceService) Issue(ctx context.Context, tenantID, companyID, invoiceID uuid.UUID) (*DocumentResponse, error) {
	invoice, err := s.find(ctx, s.repos, tenantID, companyID, invoiceID)
	if err != nil {
		return nil, err
	}
	if err := invoice.Issue(); err != nil {
		return nil, err
	}
	if err := s.repos.Invoices().SaveWithLock(ctx, invoice); err != nil {
		return nil, err
	}
	collector := event.NewCollector()
	collector.Collect(invoice)
	collector.Publish(ctx, s.eventPublisher, s.logger)

	response := ToDocumentResponse(&invoice.Document, s.now())
	return &response, nil
}

// RecordReceipt applies money received to an open invoice and posts
// Dr Cash / Cr Accounts Receivable. The receipt cannot exceed the outstanding amount.
func (s *InvoiceService) RecordReceipt(ctx context.Context, tenantID, companyID, invoiceID uuid.UUID, req RecordPaymentRequest) (*PaymentResult, error) {
	var (
		invoice *billing.Invoice
		receipt *billing.Receipt
	)
	collector := event.NewCollector()
	err := s.scope.Execute(ctx, func(repos txscope.Repositories) error {
		collector.Reset()
		var err error
		invoice, err = s.find(ctx, repos, tenantID, companyID, invoiceID)
		if err != nil {
			return err
		}
		if invoice.IntercompanyID != nil {
			return errIntercompanyDocument
		}
		number, err := repos.Receipts().GenerateNumber(ctx, tenantID, companyID)
		if err != nil {
			return err
		}
		receipt, err = billing.RecordReceipt(invoice, req.ToPaymentInput(number))
		if err != nil {
			return err
		}
		if err := repos.Invoices().SaveWithLock(ctx, invoice); err != nil {
			return err
		}
		if err := repos.Receipts().Save(ctx, receipt); err != nil {
			return err
		}

		entry, err := appledger.Transfer(tenantID, companyID, receipt.PaymentDate, "Receipt "+receipt.Number+" for "+invoice.Number,
			ledger.SourceReceipt, receipt.ID, ledger.CodeCash, ledger.CodeAccountsReceivable, receipt.Amount)
		if err != nil {
			return err
		}
		if err := s.poster.Post(ctx, repos, entry); err != nil {
			return err
		}
		collector.Collect(invoice, receipt, entry)
		return nil
	})
	if err != nil {
		return nil, err
	}
	collector.Publish(ctx, s.eventPublisher, s.logger)

	s.logger.Info("Receipt recorded",
		zap.String("invoice", invoice.Number),
		zap.String("receipt", receipt.Number),
		zap.String("amount", receipt.Amount.String()),
		zap.String("status", invoice.Status.String()))

	return &PaymentResult{
		Payment:  ToPaymentResponse(&receipt.Payment),
		Document: ToDocumentResponse(&invoice.Document, s.now()),
	}, nil
}

// GetByID retrieves an invoice of the company
func (s *InvoiceService) GetByID(ctx context.Context, tenantID, companyID, invoiceID uuid.UUID) (*DocumentResponse, error) {
	invoice, err := s.find(ctx, s.repos, tenantID, companyID, invoiceID)
	if err != nil {
		return nil, err
	}
	response := ToDocumentResponse(&invoice.Document, s.now())
	return &response, nil
}

// List retrieves a page of the company's invoices
func (s *InvoiceService) List(ctx context.Context, tenantID, companyID uuid.UUID, filter DocumentListFilter) ([]DocumentResponse, int64, error) {
	now := s.now()
	sf := filter.ToSharedFilter(now)
	invoices, err := s.repos.Invoices().FindByCompany(ctx, tenantID, companyID, sf)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.repos.Invoices().CountByCompany(ctx, tenantID, companyID, sf)
	if err != nil {
		return nil, 0, err
	}
	out := make([]DocumentResponse, len(invoices))
	for i := range invoices {
		out[i] = ToDocumentResponse(&invoices[i].Document, now)
	}
	return out, total, nil
}

// ListReceipts lists the receipts recorded against an invoice
func (s *InvoiceService) ListReceipts(ctx context.Context, tenantID, companyID, invoiceID uuid.UUID) ([]PaymentResponse, error) {
	invoice, err := s.find(ctx, s.repos, tenantID, companyID, invoiceID)
	if err != nil {
		return nil, err
	}
	receipts, err := s.repos.Receipts().FindByInvoice(ctx, tenantID, invoice.ID)
	if err != nil {
		return nil, err
	}
	out := make([]PaymentResponse, len(receipts))
	for i := range receipts {
		out[i] = ToPaymentResponse(&receipts[i].Payment)
	}
	return out, nil
}

// Summary totals the company's invoices per status, with paid, outstanding and overdue figures
func (s *InvoiceService) Summary(ctx context.Context, tenantID, companyID uuid.UUID) (*DocumentSummaryResponse, error) {
	totals, err := s.repos.Invoices().SummarizeByStatus(ctx, tenantID, companyID)
	if err != nil {
		return nil, err
	}
	overdue, err := s.repos.Invoices().CountByCompany(ctx, tenantID, companyID, DocumentListFilter{Overdue: true}.ToSharedFilter(s.now()))
	if err != nil {
		return nil, err
	}
	return newDocumentSummary(companyID, billing.DocumentKindInvoice, totals, overdue), nil
}

func (s *InvoiceService) find(ctx context.Context, repos txscope.Repositories, tenantID, companyID, invoiceID uuid.UUID) (*billing.Invoice, error) {
	invoice, err := repos.Invoices().FindByIDForTenant(ctx, tenantID, invoiceID)
	if err != nil {
		return nil, err
	}
	if invoice.CompanyID != companyID {
		return nil, shared.ErrNotFound
	}
	return invoice, nil
}
