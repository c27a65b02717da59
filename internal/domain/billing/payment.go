package billing

import (
	"strings"
	"time"

	"github.com/erp/accounting/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentKind tells receipts and bill payments apart
type PaymentKind string

const (
	PaymentKindReceipt     PaymentKind = "receipt"
	PaymentKindBillPayment PaymentKind = "bill_payment"
)

// PaymentMethod represents how money moved
type PaymentMethod string

const (
	PaymentMethodCash         PaymentMethod = "cash"
	PaymentMethodBankTransfer PaymentMethod = "bank_transfer"
	PaymentMethodCheck        PaymentMethod = "check"
	PaymentMethodCard         PaymentMethod = "card"
	PaymentMethodOther        PaymentMethod = "other"
)

// IsValid checks if the payment method is valid
func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentMethodCash, PaymentMethodBankTransfer, PaymentMethodCheck, PaymentMethodCard, PaymentMethodOther:
		return true
	}
	return false
}

// Payment holds what receipts and bill payments have in common
type Payment struct {
	shared.CompanyAggregateRoot
	Kind           PaymentKind
	Number         string
	DocumentID     uuid.UUID
	Amount         decimal.Decimal
	PaymentDate    time.Time
	Method         PaymentMethod
	Reference      string
	IntercompanyID *uuid.UUID
}

// Receipt is money received against an invoice
type Receipt struct {
	Payment
}

// BillPayment is money paid against a bill
type BillPayment struct {
	Payment
}

// PaymentInput carries the caller's side of a receipt or bill payment
type PaymentInput struct {
	Number      string
	Amount      decimal.Decimal
	PaymentDate time.Time
	Method      PaymentMethod
	Reference   string
}

// AmountScale is the number of decimal places a payment amount may carry
const AmountScale = 2

func (in *PaymentInput) normalize() error {
	if strings.TrimSpace(in.Number) == "" {
		return shared.NewDomainError("INVALID_NUMBER", "Payment number cannot be empty")
	}
	if !in.Amount.Equal(in.Amount.Round(AmountScale)) {
		return shared.NewDomainError("INVALID_AMOUNT", "Payment amount cannot have more than 2 decimal places")
	}
	if in.Method == "" {
		in.Method = PaymentMethodBankTransfer
	}
	if !in.Method.IsValid() {
		return shared.NewDomainError("INVALID_METHOD", "Unknown payment method")
	}
	if in.PaymentDate.IsZero() {
		in.PaymentDate = time.Now()
	}
	return nil
}

func newPayment(kind PaymentKind, doc *Document, in PaymentInput) (Payment, error) {
	if err := in.normalize(); err != nil {
		return Payment{}, err
	}
	if err := doc.applyPayment(in.Amount, in.PaymentDate); err != nil {
		return Payment{}, err
	}
	p := Payment{
		CompanyAggregateRoot: shared.NewCompanyAggregateRoot(doc.TenantID, doc.CompanyID),
		Kind:                 kind,
		Number:               in.Number,
		DocumentID:           doc.ID,
		Amount:               in.Amount,
		PaymentDate:          in.PaymentDate,
		Method:               in.Method,
		Reference:            strings.TrimSpace(in.Reference),
	}
	if doc.IntercompanyID != nil {
		id := *doc.IntercompanyID
		p.IntercompanyID = &id
	}
	return p, nil
}

// RecordReceipt applies a receipt to the invoice and returns it.
// The invoice is mutated and must be saved alongside the receipt.
func RecordReceipt(inv *Invoice, in PaymentInput) (*Receipt, error) {
	old := inv.Status
	p, err := newPayment(PaymentKindReceipt, &inv.Document, in)
	if err != nil {
		return nil, err
	}
	r := &Receipt{Payment: p}
	r.AddDomainEvent(NewPaymentRecordedEvent(&r.Payment))
	inv.AddDomainEvent(NewDocumentStatusChangedEvent(&inv.Document, old))
	return r, nil
}

// RecordBillPayment applies a payment to the bill and returns it.
// The bill is mutated and must be saved alongside the payment.
func RecordBillPayment(bill *Bill, in PaymentInput) (*BillPayment, error) {
	old := bill.Status
	p, err := newPayment(PaymentKindBillPayment, &bill.Document, in)
	if err != nil {
		return nil, err
	}
	bp := &BillPayment{Payment: p}
	bp.AddDomainEvent(NewPaymentRecordedEvent(&bp.Payment))
	bill.AddDomainEvent(NewDocumentStatusChangedEvent(&bill.Document, old))
	return bp, nil
}
