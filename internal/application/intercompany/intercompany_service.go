package intercompany

import (
	"bytes"
	"context"
	"errors"
	"time"

	"github.com/erp/accounting/internal/application/event"
	appledger "github.com/erp/accounting/internal/application/ledger"
	apptrade "github.com/erp/accounting/internal/application/trade"
	"github.com/erp/accounting/internal/application/txscope"
	"github.com/erp/accounting/internal/domain/billing"
	"github.com/erp/accounting/internal/domain/company"
	"github.com/erp/accounting/internal/domain/intercompany"
	"github.com/erp/accounting/internal/domain/ledger"
	"github.com/erp/accounting/internal/domain/shared"
	"github.com/erp/accounting/internal/domain/trade"
	"github.com/erp/accounting/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	defaultIdempotencyTTL = 24 * time.Hour
	defaultLockTTL        = 30 * time.Second
)

var errRequestInProgress = shared.NewDomainError("IDEMPOTENCY_IN_PROGRESS", "A request with this idempotency key is still being processed")

// IntercompanyService creates, invoices and settles trades between two companies
// of a tenant. Every step writes both ledgers in one database transaction.
type IntercompanyService struct {
	scope          txscope.TransactionScope
	repos          txscope.Repositories
	poster         *appledger.Poster
	idempotency    shared.IdempotencyStore
	locker         shared.Locker
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
	idempotencyTTL time.Duration
	lockTTL        time.Duration
}

// NewIntercompanyService creates an IntercompanyService. idempotency and locker
// may be nil; without a store, create requests are still deduplicated through
// the stored idempotency key.
func NewIntercompanyService(
	scope txscope.TransactionScope,
	repos txscope.Repositories,
	poster *appledger.Poster,
	idempotency shared.IdempotencyStore,
	locker shared.Locker,
	logger *zap.Logger,
) *IntercompanyService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if poster == nil {
		poster = appledger.NewPoster()
	}
	return &IntercompanyService{
		scope:          scope,
		repos:          repos,
		poster:         poster,
		idempotency:    idempotency,
		locker:         locker,
		logger:         logger,
		idempotencyTTL: defaultIdempotencyTTL,
		lockTTL:        defaultLockTTL,
	}
}

// SetTTLs overrides how long idempotency keys replay and how long a company pair lock lives.
// Non-positive values keep the defaults.
func (s *IntercompanyService) SetTTLs(idempotencyTTL, lockTTL time.Duration) {
	if idempotencyTTL > 0 {
		s.idempotencyTTL = idempotencyTTL
	}
	if lockTTL > 0 {
		s.lockTTL = lockTTL
	}
}

// SetEventPublisher sets the event publisher for cross-context integration
func (s *IntercompanyService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// Create opens a transaction with a confirmed sales order on the source side and
// a mirrored confirmed purchase order on the target side
func (s *IntercompanyService) Create(ctx context.Context, tenantID uuid.UUID, req CreateTransactionRequest) (resp *TransactionResponse, err error) {
	ctx, span := telemetry.StartSpan(ctx, "intercompany", "create",
		telemetry.WithTenant(tenantID, req.SourceCompanyID),
		telemetry.WithAttribute("target_company.id", req.TargetCompanyID))
	defer func() { telemetry.End(span, err) }()

	if req.SourceCompanyID == req.TargetCompanyID {
		return nil, shared.NewDomainError("SAME_COMPANY", "Source and target companies must differ")
	}
	if req.IdempotencyKey != "" {
		if existing, err := s.repos.Intercompany().FindByIdempotencyKey(ctx, tenantID, req.IdempotencyKey); err == nil {
			response := ToTransactionResponse(existing)
			return &response, nil
		} else if !errors.Is(err, shared.ErrNotFound) {
			return nil, err
		}
	}

	storeKey := tenantID.String() + ":create:" + req.IdempotencyKey
	return s.once(ctx, tenantID, storeKey, req.IdempotencyKey != "", func() (*intercompany.Transaction, error) {
		return s.create(ctx, tenantID, req)
	})
}

func (s *IntercompanyService) create(ctx context.Context, tenantID uuid.UUID, req CreateTransactionRequest) (*intercompany.Transaction, error) {
	release, err := s.lockPair(ctx, tenantID, req.SourceCompanyID, req.TargetCompanyID)
	if err != nil {
		return nil, err
	}
	defer release()

	var txn *intercompany.Transaction
	collector := event.NewCollector()
	err = s.scope.Execute(ctx, func(repos txscope.Repositories) error {
		collector.Reset()
		if req.IdempotencyKey != "" {
			if existing, err := repos.Intercompany().FindByIdempotencyKey(ctx, tenantID, req.IdempotencyKey); err == nil {
				txn = existing
				return nil
			} else if !errors.Is(err, shared.ErrNotFound) {
				return err
			}
		}

		source, err := activeCompany(ctx, repos.Companies(), tenantID, req.SourceCompanyID)
		if err != nil {
			return err
		}
		target, err := activeCompany(ctx, repos.Companies(), tenantID, req.TargetCompanyID)
		if err != nil {
			return err
		}
		items, err := apptrade.ResolveItems(ctx, repos.Products(), tenantID, source.ID, req.Items, apptrade.SalesPrice)
		if err != nil {
			return err
		}
		if len(items) == 0 {
			return shared.NewDomainError("EMPTY_ORDER", "Intercompany transaction needs at least one item")
		}

		number, err := repos.Intercompany().GenerateNumber(ctx, tenantID)
		if err != nil {
			return err
		}
		txn, err = intercompany.NewTransaction(tenantID, source.ID, target.ID, number, req.TransactionDate)
		if err != nil {
			return err
		}
		txn.Description = req.Description
		txn.IdempotencyKey = req.IdempotencyKey

		so, err := s.buildSalesOrder(ctx, repos, txn, items)
		if err != nil {
			return err
		}
		po, err := s.buildPurchaseOrder(ctx, repos, txn, items)
		if err != nil {
			return err
		}
		if err := txn.AttachOrders(so, po); err != nil {
			return err
		}
		if err := repos.SalesOrders().Save(ctx, so); err != nil {
			return err
		}
		if err := repos.PurchaseOrders().Save(ctx, po); err != nil {
			return err
		}
		if err := repos.Intercompany().Save(ctx, txn); err != nil {
			return err
		}
		collector.Collect(so, po, txn)
		return nil
	})
	if err != nil {
		return nil, err
	}
	collector.Publish(ctx, s.eventPublisher, s.logger)

	s.logger.Info("Intercompany transaction created",
		zap.String("tenant_id", tenantID.String()),
		zap.String("number", txn.Number),
		zap.String("source_company_id", txn.SourceCompanyID.String()),
		zap.String("target_company_id", txn.TargetCompanyID.String()),
		zap.String("amount", txn.Amount.String()))
	return txn, nil
}

func (s *IntercompanyService) buildSalesOrder(ctx context.Context, repos txscope.Repositories, txn *intercompany.Transaction, items []apptrade.ResolvedItem) (*trade.SalesOrder, error) {
	number, err := repos.SalesOrders().GenerateOrderNumber(ctx, txn.TenantID, txn.SourceCompanyID)
	if err != nil {
		return nil, err
	}
	so, err := trade.NewSalesOrder(txn.TenantID, txn.SourceCompanyID, number, txn.TransactionDate)
	if err != nil {
		return nil, err
	}
	so.Notes = "Intercompany " + txn.Number
	if err := so.SetCounterparty(txn.TargetCompanyID); err != nil {
		return nil, err
	}
	if err := apptrade.AddResolvedItems(&so.Order, items); err != nil {
		return nil, err
	}
	if err := so.Confirm(); err != nil {
		return nil, err
	}
	return so, nil
}

// buildPurchaseOrder mirrors the sales lines. A line points at the target's own
// product when the target catalog has the same code.
func (s *IntercompanyService) buildPurchaseOrder(ctx context.Context, repos txscope.Repositories, txn *intercompany.Transaction, items []apptrade.ResolvedItem) (*trade.PurchaseOrder, error) {
	number, err := repos.PurchaseOrders().GenerateOrderNumber(ctx, txn.TenantID, txn.TargetCompanyID)
	if err != nil {
		return nil, err
	}
	po, err := trade.NewPurchaseOrder(txn.TenantID, txn.TargetCompanyID, number, txn.TransactionDate)
	if err != nil {
		return nil, err
	}
	po.Notes = "Intercompany " + txn.Number
	if err := po.SetCounterparty(txn.SourceCompanyID); err != nil {
		return nil, err
	}
	for _, item := range items {
		product := item.Product
		own, err := repos.Products().FindByCode(ctx, txn.TenantID, txn.TargetCompanyID, product.Code)
		switch {
		case err == nil:
			product = own
		case !errors.Is(err, shared.ErrNotFound):
			return nil, err
		}
		if _, err := po.AddItem(product.ID, product.Code, product.Name, item.Quantity, item.UnitPrice); err != nil {
			return nil, err
		}
	}
	if err := po.Confirm(); err != nil {
		return nil, err
	}
	return po, nil
}

// Invoice issues the source invoice and the target bill for the full amount and
// posts intercompany receivable/revenue and purchases/payable
func (s *IntercompanyService) Invoice(ctx context.Context, tenantID, txnID uuid.UUID, req InvoiceTransactionRequest) (*TransactionResponse, error) {
	current, err := s.repos.Intercompany().FindByIDForTenant(ctx, tenantID, txnID)
	if err != nil {
		return nil, err
	}
	release, err := s.lockPair(ctx, tenantID, current.SourceCompanyID, current.TargetCompanyID)
	if err != nil {
		return nil, err
	}
	defer release()

	var txn *intercompany.Transaction
	collector := event.NewCollector()
	err = s.scope.Execute(ctx, func(repos txscope.Repositories) error {
		collector.Reset()
		var err error
		txn, err = repos.Intercompany().FindByIDForTenant(ctx, tenantID, txnID)
		if err != nil {
			return err
		}
		if txn.Status != intercompany.StatusOrdered {
			return shared.NewDomainError("INVALID_STATE", "Transaction "+txn.Number+" is already "+txn.Status.String())
		}
		so, err := repos.SalesOrders().FindByIDForTenant(ctx, tenantID, txn.SalesOrderID)
		if err != nil {
			return err
		}
		po, err := repos.PurchaseOrders().FindByIDForTenant(ctx, tenantID, txn.PurchaseOrderID)
		if err != nil {
			return err
		}
		if err := intercompany.MatchOrders(txn.SourceCompanyID, txn.TargetCompanyID, so, po); err != nil {
			return err
		}

		issueDate := req.IssueDate
		if issueDate.IsZero() {
			issueDate = time.Now()
		}
		var dueDate time.Time
		if req.DueDate != nil {
			dueDate = *req.DueDate
		}

		invNumber, err := repos.Invoices().GenerateNumber(ctx, tenantID, txn.SourceCompanyID)
		if err != nil {
			return err
		}
		invoice, err := billing.NewInvoiceFromOrder(so, invNumber, issueDate, dueDate)
		if err != nil {
			return err
		}
		billNumber, err := repos.Bills().GenerateNumber(ctx, tenantID, txn.TargetCompanyID)
		if err != nil {
			return err
		}
		bill, err := billing.NewBillFromOrder(po, billNumber, issueDate, dueDate)
		if err != nil {
			return err
		}
		if err := invoice.Issue(); err != nil {
			return err
		}
		if err := bill.Issue(); err != nil {
			return err
		}
		if err := txn.AttachDocuments(invoice, bill); err != nil {
			return err
		}
		if err := so.MarkInvoiced(); err != nil {
			return err
		}
		if err := po.MarkBilled(); err != nil {
			return err
		}

		if err := repos.SalesOrders().SaveWithLock(ctx, so); err != nil {
			return err
		}
		if err := repos.PurchaseOrders().SaveWithLock(ctx, po); err != nil {
			return err
		}
		if err := repos.Invoices().Save(ctx, invoice); err != nil {
			return err
		}
		if err := repos.Bills().Save(ctx, bill); err != nil {
			return err
		}
		if err := repos.Intercompany().SaveWithLock(ctx, txn); err != nil {
			return err
		}

		sourceEntry, err := appledger.Transfer(tenantID, txn.SourceCompanyID, issueDate, "Intercompany invoice "+invoice.Number,
			ledger.SourceIntercompany, txn.ID, ledger.CodeIntercompanyReceivable, ledger.CodeIntercompanyRevenue, txn.Amount)
		if err != nil {
			return err
		}
		targetEntry, err := appledger.Transfer(tenantID, txn.TargetCompanyID, issueDate, "Intercompany bill "+bill.Number,
			ledger.SourceIntercompany, txn.ID, ledger.CodeIntercompanyPurchases, ledger.CodeIntercompanyPayable, txn.Amount)
		if err != nil {
			return err
		}
		if err := s.poster.Post(ctx, repos, sourceEntry, targetEntry); err != nil {
			return err
		}
		collector.Collect(so, po, invoice, bill, txn, sourceEntry, targetEntry)
		return nil
	})
	if err != nil {
		return nil, err
	}
	collector.Publish(ctx, s.eventPublisher, s.logger)

	s.logger.Info("Intercompany transaction invoiced",
		zap.String("number", txn.Number),
		zap.String("amount", txn.Amount.String()))

	response := ToTransactionResponse(txn)
	return &response, nil
}

// Settle records a bill payment on the target side and a receipt on the source
// side for the same amount and posts both cash movements
func (s *IntercompanyService) Settle(ctx context.Context, tenantID, txnID uuid.UUID, req SettleTransactionRequest) (resp *TransactionResponse, err error) {
	ctx, span := telemetry.StartSpan(ctx, "intercompany", "settle",
		telemetry.WithTenant(tenantID, uuid.Nil),
		telemetry.WithAttribute("transaction.id", txnID),
		telemetry.WithAttribute("amount", req.Amount))
	defer func() { telemetry.End(span, err) }()

	storeKey := tenantID.String() + ":settle:" + txnID.String() + ":" + req.IdempotencyKey
	return s.once(ctx, tenantID, storeKey, req.IdempotencyKey != "", func() (*intercompany.Transaction, error) {
		return s.settle(ctx, tenantID, txnID, req)
	})
}

func (s *IntercompanyService) settle(ctx context.Context, tenantID, txnID uuid.UUID, req SettleTransactionRequest) (*intercompany.Transaction, error) {
	current, err := s.repos.Intercompany().FindByIDForTenant(ctx, tenantID, txnID)
	if err != nil {
		return nil, err
	}
	release, err := s.lockPair(ctx, tenantID, current.SourceCompanyID, current.TargetCompanyID)
	if err != nil {
		return nil, err
	}
	defer release()

	var (
		txn     *intercompany.Transaction
		receipt *billing.Receipt
	)
	collector := event.NewCollector()
	err = s.scope.Execute(ctx, func(repos txscope.Repositories) error {
		collector.Reset()
		var err error
		txn, err = repos.Intercompany().FindByIDForTenant(ctx, tenantID, txnID)
		if err != nil {
			return err
		}
		if txn.InvoiceID == nil || txn.BillID == nil {
			return shared.NewDomainError("INVALID_STATE", "Transaction must be invoiced before settlement")
		}
		if req.Amount.GreaterThan(txn.Outstanding()) {
			return shared.NewDomainError(shared.ErrExceedsOutstanding.Code,
				"Settlement "+req.Amount.StringFixed(2)+" exceeds outstanding "+txn.Outstanding().StringFixed(2))
		}
		invoice, err := repos.Invoices().FindByIDForTenant(ctx, tenantID, *txn.InvoiceID)
		if err != nil {
			return err
		}
		bill, err := repos.Bills().FindByIDForTenant(ctx, tenantID, *txn.BillID)
		if err != nil {
			return err
		}

		paymentNumber, err := repos.BillPayments().GenerateNumber(ctx, tenantID, txn.TargetCompanyID)
		if err != nil {
			return err
		}
		payment, err := billing.RecordBillPayment(bill, s.paymentInput(paymentNumber, req))
		if err != nil {
			return err
		}
		receiptNumber, err := repos.Receipts().GenerateNumber(ctx, tenantID, txn.SourceCompanyID)
		if err != nil {
			return err
		}
		receipt, err = billing.RecordReceipt(invoice, s.paymentInput(receiptNumber, req))
		if err != nil {
			return err
		}
		if err := txn.RecordSettlement(receipt, payment); err != nil {
			return err
		}

		if err := repos.Invoices().SaveWithLock(ctx, invoice); err != nil {
			return err
		}
		if err := repos.Bills().SaveWithLock(ctx, bill); err != nil {
			return err
		}
		if err := repos.Receipts().Save(ctx, receipt); err != nil {
			return err
		}
		if err := repos.BillPayments().Save(ctx, payment); err != nil {
			return err
		}
		if err := repos.Intercompany().SaveWithLock(ctx, txn); err != nil {
			return err
		}

		targetEntry, err := appledger.Transfer(tenantID, txn.TargetCompanyID, payment.PaymentDate, "Intercompany payment "+payment.Number+" for "+bill.Number,
			ledger.SourceIntercompany, txn.ID, ledger.CodeIntercompanyPayable, ledger.CodeCash, payment.Amount)
		if err != nil {
			return err
		}
		sourceEntry, err := appledger.Transfer(tenantID, txn.SourceCompanyID, receipt.PaymentDate, "Intercompany receipt "+receipt.Number+" for "+invoice.Number,
			ledger.SourceIntercompany, txn.ID, ledger.CodeCash, ledger.CodeIntercompanyReceivable, receipt.Amount)
		if err != nil {
			return err
		}
		if err := s.poster.Post(ctx, repos, targetEntry, sourceEntry); err != nil {
			return err
		}
		collector.Collect(invoice, bill, receipt, payment, txn, targetEntry, sourceEntry)
		return nil
	})
	if err != nil {
		return nil, err
	}
	collector.Publish(ctx, s.eventPublisher, s.logger)

	s.logger.Info("Intercompany transaction settled",
		zap.String("number", txn.Number),
		zap.String("amount", receipt.Amount.String()),
		zap.String("status", txn.Status.String()))
	return txn, nil
}

func (s *IntercompanyService) paymentInput(number string, req SettleTransactionRequest) billing.PaymentInput {
	return billing.PaymentInput{
		Number:      number,
		Amount:      req.Amount,
		PaymentDate: req.PaymentDate,
		Method:      req.Method,
		Reference:   req.Reference,
	}
}

// Cancel cancels an ordered transaction and both of its orders
func (s *IntercompanyService) Cancel(ctx context.Context, tenantID, txnID uuid.UUID) (*TransactionResponse, error) {
	current, err := s.repos.Intercompany().FindByIDForTenant(ctx, tenantID, txnID)
	if err != nil {
		return nil, err
	}
	release, err := s.lockPair(ctx, tenantID, current.SourceCompanyID, current.TargetCompanyID)
	if err != nil {
		return nil, err
	}
	defer release()

	var txn *intercompany.Transaction
	collector := event.NewCollector()
	err = s.scope.Execute(ctx, func(repos txscope.Repositories) error {
		collector.Reset()
		var err error
		txn, err = repos.Intercompany().FindByIDForTenant(ctx, tenantID, txnID)
		if err != nil {
			return err
		}
		if err := txn.Cancel(); err != nil {
			return err
		}
		so, err := repos.SalesOrders().FindByIDForTenant(ctx, tenantID, txn.SalesOrderID)
		if err != nil {
			return err
		}
		po, err := repos.PurchaseOrders().FindByIDForTenant(ctx, tenantID, txn.PurchaseOrderID)
		if err != nil {
			return err
		}
		if err := so.CancelIntercompany(); err != nil {
			return err
		}
		if err := po.CancelIntercompany(); err != nil {
			return err
		}
		if err := repos.SalesOrders().SaveWithLock(ctx, so); err != nil {
			return err
		}
		if err := repos.PurchaseOrders().SaveWithLock(ctx, po); err != nil {
			return err
		}
		if err := repos.Intercompany().SaveWithLock(ctx, txn); err != nil {
			return err
		}
		collector.Collect(so, po, txn)
		return nil
	})
	if err != nil {
		return nil, err
	}
	collector.Publish(ctx, s.eventPublisher, s.logger)

	s.logger.Info("Intercompany transaction cancelled", zap.String("number", txn.Number))
	response := ToTransactionResponse(txn)
	return &response, nil
}

// GetByID retrieves a transaction of the tenant
func (s *IntercompanyService) GetByID(ctx context.Context, tenantID, txnID uuid.UUID) (*TransactionResponse, error) {
	txn, err := s.repos.Intercompany().FindByIDForTenant(ctx, tenantID, txnID)
	if err != nil {
		return nil, err
	}
	response := ToTransactionResponse(txn)
	return &response, nil
}

// List retrieves a page of the tenant's transactions
func (s *IntercompanyService) List(ctx context.Context, tenantID uuid.UUID, filter TransactionListFilter) ([]TransactionResponse, int64, error) {
	sf := filter.ToSharedFilter()
	txns, err := s.repos.Intercompany().FindAllForTenant(ctx, tenantID, sf)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.repos.Intercompany().CountForTenant(ctx, tenantID, sf)
	if err != nil {
		return nil, 0, err
	}
	out := make([]TransactionResponse, len(txns))
	for i := range txns {
		out[i] = ToTransactionResponse(&txns[i])
	}
	return out, total, nil
}

// Reconcile compares the mirrored documents of every transaction between two companies
func (s *IntercompanyService) Reconcile(ctx context.Context, tenantID uuid.UUID, req ReconcileRequest) (*ReconciliationResponse, error) {
	if req.CompanyA == req.CompanyB {
		return nil, shared.NewDomainError("SAME_COMPANY", "Reconciliation needs two different companies")
	}
	for _, id := range []uuid.UUID{req.CompanyA, req.CompanyB} {
		if _, err := s.repos.Companies().FindByIDForTenant(ctx, tenantID, id); err != nil {
			return nil, err
		}
	}

	txns, err := s.repos.Intercompany().FindBetween(ctx, tenantID, req.CompanyA, req.CompanyB)
	if err != nil {
		return nil, err
	}
	items := make([]intercompany.ReconcileItem, 0, len(txns))
	for i := range txns {
		t := &txns[i]
		if t.Status == intercompany.StatusCancelled {
			continue
		}
		amounts, err := s.documentAmounts(ctx, t)
		if err != nil {
			return nil, err
		}
		items = append(items, intercompany.ReconcileItem{Transaction: t, Amounts: amounts})
	}

	result := intercompany.Reconcile(req.CompanyA, req.CompanyB, items)
	if !result.IsReconciled() {
		s.logger.Warn("Intercompany balances do not reconcile",
			zap.String("company_a", req.CompanyA.String()),
			zap.String("company_b", req.CompanyB.String()),
			zap.Int("mismatches", len(result.Mismatches)))
	}
	return toReconciliationResponse(result), nil
}

func (s *IntercompanyService) documentAmounts(ctx context.Context, t *intercompany.Transaction) (intercompany.DocumentAmounts, error) {
	var amounts intercompany.DocumentAmounts
	so, err := s.repos.SalesOrders().FindByIDForTenant(ctx, t.TenantID, t.SalesOrderID)
	if err != nil {
		return amounts, err
	}
	po, err := s.repos.PurchaseOrders().FindByIDForTenant(ctx, t.TenantID, t.PurchaseOrderID)
	if err != nil {
		return amounts, err
	}
	amounts.SalesOrderTotal = so.TotalAmount
	amounts.PurchaseOrderTotal = po.TotalAmount

	if t.InvoiceID != nil {
		invoice, err := s.repos.Invoices().FindByIDForTenant(ctx, t.TenantID, *t.InvoiceID)
		if err != nil {
			return amounts, err
		}
		amounts.InvoiceTotal = invoice.TotalAmount
		amounts.InvoicePaid = invoice.PaidAmount
	}
	if t.BillID != nil {
		bill, err := s.repos.Bills().FindByIDForTenant(ctx, t.TenantID, *t.BillID)
		if err != nil {
			return amounts, err
		}
		amounts.BillTotal = bill.TotalAmount
		amounts.BillPaid = bill.PaidAmount
	}
	return amounts, nil
}

// once runs fn at most once per idempotency key. A replay returns the
// transaction the first call produced.
func (s *IntercompanyService) once(ctx context.Context, tenantID uuid.UUID, key string, keyed bool, fn func() (*intercompany.Transaction, error)) (*TransactionResponse, error) {
	if !keyed || s.idempotency == nil {
		txn, err := fn()
		if err != nil {
			return nil, err
		}
		response := ToTransactionResponse(txn)
		return &response, nil
	}

	reserved, err := s.idempotency.Reserve(ctx, key, s.idempotencyTTL)
	if err != nil {
		return nil, err
	}
	if !reserved {
		result, done, err := s.idempotency.Result(ctx, key)
		if err != nil {
			return nil, err
		}
		if !done {
			return nil, errRequestInProgress
		}
		id, err := uuid.Parse(result)
		if err != nil {
			return nil, err
		}
		s.logger.Info("Replaying intercompany request", zap.String("transaction_id", result))
		return s.GetByID(ctx, tenantID, id)
	}

	txn, err := fn()
	if err != nil {
		if releaseErr := s.idempotency.Release(ctx, key); releaseErr != nil {
			s.logger.Warn("Failed to release idempotency key", zap.Error(releaseErr))
		}
		return nil, err
	}
	if err := s.idempotency.Complete(ctx, key, txn.ID.String(), s.idempotencyTTL); err != nil {
		s.logger.Warn("Failed to store idempotency result", zap.Error(err))
	}
	response := ToTransactionResponse(txn)
	return &response, nil
}

// lockPair serializes postings between the same two companies
func (s *IntercompanyService) lockPair(ctx context.Context, tenantID, a, b uuid.UUID) (func(), error) {
	if s.locker == nil {
		return func() {}, nil
	}
	if bytes.Compare(a[:], b[:]) > 0 {
		a, b = b, a
	}
	return s.locker.Acquire(ctx, "intercompany:"+tenantID.String()+":"+a.String()+":"+b.String(), s.lockTTL)
}

func activeCompany(ctx context.Context, companies company.CompanyRepository, tenantID, companyID uuid.UUID) (*company.Company, error) {
	c, err := companies.FindByIDForTenant(ctx, tenantID, companyID)
	if err != nil {
		return nil, err
	}
	if !c.IsActive {
		return nil, shared.NewDomainError("COMPANY_INACTIVE", "Company "+c.Code+" is not active")
	}
	return c, nil
}
