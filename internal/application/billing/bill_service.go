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

// BillService raises bills from purchase orders and records bill payments
type BillService struct {
	scope          txscope.TransactionScope
	repos          txscope.Repositories
	poster         *appledger.Poster
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
	now            func() time.Time
}

// NewBillService creates a new BillService
func NewBillService(scope txscope.TransactionScope, repos txscope.Repositories, poster *appledger.Poster, logger *zap.Logger) *BillService {
	if poster == nil {
		poster = appledger.NewPoster()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BillService{
		scope:  scope,
		repos:  repos,
		poster: poster,
		logger: logger,
		now:    time.Now,
	}
}

// SetEventPublisher sets the event publisher for cross-context integration
func (s *BillService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// CreateFromOrder bills a confirmed purchase order for its full total and posts
// Dr Inventory / Cr Accounts Payable in the same transaction.
func (s *BillService) CreateFromOrder(ctx context.Context, tenantID, companyID uuid.UUID, req CreateFromOrderRequest) (*DocumentResponse, error) {
	var bill *billing.Bill
	collector := event.NewCollector()
	err := s.scope.Execute(ctx, func(repos txscope.Repositories) error {
		collector.Reset()
		order, err := repos.PurchaseOrders().FindByIDForTenant(ctx, tenantID, req.OrderID)
		if err != nil {
			return err
		}
		if order.CompanyID != companyID {
			return shared.ErrNotFound
		}
		if order.IsIntercompany() {
			return errIntercompanyDocument
		}
		if existing, err := repos.Bills().FindByOrder(ctx, tenantID, order.ID); err == nil {
			return shared.NewDomainError("ALREADY_BILLED", "Order is already billed by "+existing.Number)
		} else if !errors.Is(err, shared.ErrNotFound) {
			return err
		}

		number, err := repos.Bills().GenerateNumber(ctx, tenantID, companyID)
		if err != nil {
			return err
		}
		bill, err = billing.NewBillFromOrder(order, number, req.IssueDate, req.DueDate)
		if err != nil {
			return err
		}
		bill.Notes = req.Notes
		if err := bill.MatchesOrderTotal(order.TotalAmount); err != nil {
			return err
		}
		if err := order.MarkBilled(); err != nil {
			return err
		}
		if err := repos.PurchaseOrders().SaveWithLock(ctx, order); err != nil {
			return err
		}
		if err := repos.Bills().Save(ctx, bill); err != nil {
			return err
		}

		entry, err := appledger.Transfer(tenantID, companyID, bill.IssueDate, "Bill "+bill.Number,
			ledger.SourceBill, bill.ID, ledger.CodeInventory, ledger.CodeAccountsPayable, bill.TotalAmount)
		if err != nil {
			return err
		}
		if err := s.poster.Post(ctx, repos, entry); err != nil {
			return err
		}
		collector.Collect(order, bill, entry)
		return nil
	})
	if err != nil {
		return nil, err
	}
	collector.Publish(ctx, s.eventPublisher, s.logger)

	s.logger.Info("Bill created",
		zap.String("company_id", companyID.String()),
		zap.String("number", bill.Number),
		zap.String("total", bill.TotalAmount.String()))

	response := ToDocumentResponse(&bill.Document, s.now())
	return &response, nil
}

// Issue opens a pending bill for payments
func (s *BillService) Issue(ctx context.Context, tenantID, companyID, billID uuid.UUID) (*DocumentResponse, error) {
	bill, err := s.find(ctx, s.repos, tenantID, companyID, billID)
	if err != nil {
		return nil, err
	}
	if err := bill.Issue(); err != nil {
		return nil, err
	}
	if err := s.repos.Bills().SaveWithLock(ctx, bill); err != nil {
		return nil, err
	}
	collector := event.NewCollector()
	collector.Collect(bill)
	collector.Publish(ctx, s.eventPublisher, s.logger)

	response := ToDocumentResponse(&bill.Document, s.now())
	return &response, nil
}

// RecordPayment applies money paid to an open bill and posts
// Dr Accounts Payable / Cr Cash. The payment cannot exceed the outstanding amount.
func (s *BillService) RecordPayment(ctx context.Context, tenantID, companyID, billID uuid.UUID, req RecordPaymentRequest) (*PaymentResult, error) {
	var (
		bill    *billing.Bill
		payment *billing.BillPayment
	)
	collector := event.NewCollector()
	err := s.scope.Execute(ctx, func(repos txscope.Repositories) error {
		collector.Reset()
		var err error
		bill, err = s.find(ctx, repos, tenantID, companyID, billID)
		if err != nil {
			return err
		}
		if bill.IntercompanyID != nil {
			return errIntercompanyDocument
		}
		number, err := repos.BillPayments().GenerateNumber(ctx, tenantID, companyID)
		if err != nil {
			return err
		}
		payment, err = billing.RecordBillPayment(bill, req.ToPaymentInput(number))
		if err != nil {
			return err
		}
		if err := repos.Bills().SaveWithLock(ctx, bill); err != nil {
			return err
		}
		if err := repos.BillPayments().Save(ctx, payment); err != nil {
			return err
		}

		entry, err := appledger.Transfer(tenantID, companyID, payment.PaymentDate, "Payment "+payment.Number+" for "+bill.Number,
			ledger.SourceBillPayment, payment.ID, ledger.CodeAccountsPayable, ledger.CodeCash, payment.Amount)
		if err != nil {
			return err
		}
		if err := s.poster.Post(ctx, repos, entry); err != nil {
			return err
		}
		collector.Collect(bill, payment, entry)
		return nil
	})
	if err != nil {
		return nil, err
	}
	collector.Publish(ctx, s.eventPublisher, s.logger)

	s.logger.Info("Bill payment recorded",
		zap.String("bill", bill.Number),
		zap.String("payment", payment.Number),
		zap.String("amount", payment.Amount.String()),
		zap.String("status", bill.Status.String()))

	return &PaymentResult{
		Payment:  ToPaymentResponse(&payment.Payment),
		Document: ToDocumentResponse(&bill.Document, s.now()),
	}, nil
}

// GetByID retrieves a bill of the company
func (s *BillService) GetByID(ctx context.Context, tenantID, companyID, billID uuid.UUID) (*DocumentResponse, error) {
	bill, err := s.find(ctx, s.repos, tenantID, companyID, billID)
	if err != nil {
		return nil, err
	}
	response := ToDocumentResponse(&bill.Document, s.now())
	return &response, nil
}

// List retrieves a page of the company's bills
func (s *BillService) List(ctx context.Context, tenantID, companyID uuid.UUID, filter DocumentListFilter) ([]DocumentResponse, int64, error) {
	now := s.now()
	sf := filter.ToSharedFilter(now)
	bills, err := s.repos.Bills().FindByCompany(ctx, tenantID, companyID, sf)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.repos.Bills().CountByCompany(ctx, tenantID, companyID, sf)
	if err != nil {
		return nil, 0, err
	}
	out := make([]DocumentResponse, len(bills))
	for i := range bills {
		out[i] = ToDocumentResponse(&bills[i].Document, now)
	}
	return out, total, nil
}

// ListPayments lists the payments recorded against a bill
func (s *BillService) ListPayments(ctx context.Context, tenantID, companyID, billID uuid.UUID) ([]PaymentResponse, error) {
	bill, err := s.find(ctx, s.repos, tenantID, companyID, billID)
	if err != nil {
		return nil, err
	}
	payments, err := s.repos.BillPayments().FindByBill(ctx, tenantID, bill.ID)
	if err != nil {
		return nil, err
	}
	out := make([]PaymentResponse, len(payments))
	for i := range payments {
		out[i] = ToPaymentResponse(&payments[i].Payment)
	}
	return out, nil
}

// Summary totals the company's bills per status, with paid, outstanding and overdue figures
func (s *BillService) Summary(ctx context.Context, tenantID, companyID uuid.UUID) (*DocumentSummaryResponse, error) {
	totals, err := s.repos.Bills().SummarizeByStatus(ctx, tenantID, companyID)
	if err != nil {
		return nil, err
	}
	overdue, err := s.repos.Bills().CountByCompany(ctx, tenantID, companyID, DocumentListFilter{Overdue: true}.ToSharedFilter(s.now()))
	if err != nil {
		return nil, err
	}
	return newDocumentSummary(companyID, billing.DocumentKindBill, totals, overdue), nil
}

func (s *BillService) find(ctx context.Context, repos txscope.Repositories, tenantID, companyID, billID uuid.UUID) (*billing.Bill, error) {
	bill, err := repos.Bills().FindByIDForTenant(ctx, tenantID, billID)
	if err != nil {
		return nil, err
	}
	if bill.CompanyID != companyID {
		return nil, shared.ErrNotFound
	}
	return bill, nil
}
