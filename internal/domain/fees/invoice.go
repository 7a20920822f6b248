package fees

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/schoolerp/backend/internal/domain/shared"
	"github.com/schoolerp/backend/internal/domain/shared/valueobject"
)

// InvoiceStatus represents the payment state of an invoice
type InvoiceStatus string

const (
	InvoiceStatusUnpaid    InvoiceStatus = "UNPAID"    // No payment received
	InvoiceStatusPartial   InvoiceStatus = "PARTIAL"   // 0 < paid < total
	InvoiceStatusPaid      InvoiceStatus = "PAID"      // paid >= total
	InvoiceStatusOverdue   InvoiceStatus = "OVERDUE"   // Past due date without any payment
	InvoiceStatusCancelled InvoiceStatus = "CANCELLED" // Voided; excluded from all balances
)

// IsValid checks if the status is a valid InvoiceStatus
func (s InvoiceStatus) IsValid() bool {
	switch s {
	case InvoiceStatusUnpaid, InvoiceStatusPartial, InvoiceStatusPaid,
		InvoiceStatusOverdue, InvoiceStatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of InvoiceStatus
func (s InvoiceStatus) String() string {
	return string(s)
}

// IsOutstanding returns true if the invoice still counts toward a
// student's balance and can receive payments.
func (s InvoiceStatus) IsOutstanding() bool {
	return s == InvoiceStatusUnpaid || s == InvoiceStatusPartial || s == InvoiceStatusOverdue
}

// OutstandingStatuses lists the statuses that count toward a balance
func OutstandingStatuses() []InvoiceStatus {
	return []InvoiceStatus{InvoiceStatusUnpaid, InvoiceStatusPartial, InvoiceStatusOverdue}
}

// InvoiceItem is one billed line on an invoice. Amount is the net after
// discount, floored at zero. Items are immutable once the invoice exists.
type InvoiceItem struct {
	FeeHeadID      uuid.UUID       `json:"fee_head_id"`
	FeeHeadName    string          `json:"fee_head_name"`
	OriginalAmount decimal.Decimal `json:"original_amount"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	Amount         decimal.Decimal `json:"amount"`
}

// NewInvoiceItem builds a billed line, clamping the discount so the net
// amount never goes negative.
func NewInvoiceItem(feeHeadID uuid.UUID, feeHeadName string, originalAmount, discountAmount decimal.Decimal) InvoiceItem {
	if discountAmount.IsNegative() {
		discountAmount = decimal.Zero
	}
	discountAmount = decimal.Min(discountAmount, originalAmount)
	return InvoiceItem{
		FeeHeadID:      feeHeadID,
		FeeHeadName:    feeHeadName,
		OriginalAmount: originalAmount,
		DiscountAmount: discountAmount,
		Amount:         originalAmount.Sub(discountAmount),
	}
}

// InvoiceItems is a slice of InvoiceItem stored as JSONB
type InvoiceItems []InvoiceItem

// Value implements driver.Valuer for JSONB storage
func (items InvoiceItems) Value() (driver.Value, error) {
	if items == nil {
		return "[]", nil
	}
	return json.Marshal(items)
}

// Scan implements sql.Scanner for JSONB retrieval
func (items *InvoiceItems) Scan(value interface{}) error {
	if value == nil {
		*items = InvoiceItems{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New("failed to scan InvoiceItems: unsupported type")
	}

	if len(bytes) == 0 {
		*items = InvoiceItems{}
		return nil
	}

	return json.Unmarshal(bytes, items)
}

// Total sums the net amounts of all lines
func (items InvoiceItems) Total() decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Amount)
	}
	return total
}

// HasFeeHead returns true if any line targets the given fee head
func (items InvoiceItems) HasFeeHead(feeHeadID uuid.UUID) bool {
	for _, item := range items {
		if item.FeeHeadID == feeHeadID {
			return true
		}
	}
	return false
}

// PaymentRecord is a payment applied to an invoice, kept as a value
// object inside the aggregate and stored as JSONB. The Payment ledger
// row is the authoritative record; this copy supports display without
// a join.
type PaymentRecord struct {
	PaymentID uuid.UUID       `json:"payment_id"`
	Amount    decimal.Decimal `json:"amount"`
	Method    PaymentMethod   `json:"method"`
	PaidAt    time.Time       `json:"paid_at"`
	Remarks   string          `json:"remarks,omitempty"`
}

// PaymentRecords is a slice of PaymentRecord stored as JSONB
type PaymentRecords []PaymentRecord

// Value implements driver.Valuer for JSONB storage
func (p PaymentRecords) Value() (driver.Value, error) {
	if p == nil {
		return "[]", nil
	}
	return json.Marshal(p)
}

// Scan implements sql.Scanner for JSONB retrieval
func (p *PaymentRecords) Scan(value interface{}) error {
	if value == nil {
		*p = PaymentRecords{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New("failed to scan PaymentRecords: unsupported type")
	}

	if len(bytes) == 0 {
		*p = PaymentRecords{}
		return nil
	}

	return json.Unmarshal(bytes, p)
}

// Invoice is the billing document for one student covering one period.
// Never physically deleted; cancellation is a status change.
type Invoice struct {
	shared.TenantAggregateRoot
	InvoiceNo      string               `json:"invoice_no"`
	StudentID      uuid.UUID            `json:"student_id"`
	StudentName    string               `json:"student_name"`
	Month          int                  `json:"month"`
	Year           int                  `json:"year"`
	DueDate        time.Time            `json:"due_date"`
	Items          InvoiceItems         `json:"items"`
	TotalAmount    decimal.Decimal      `json:"total_amount"`
	PaidAmount     decimal.Decimal      `json:"paid_amount"`
	Status         InvoiceStatus        `json:"status"`
	Currency       valueobject.Currency `json:"currency"`
	PaymentRecords PaymentRecords       `json:"payment_records"`
	Remarks        string               `json:"remarks"`
	PaidAt         *time.Time           `json:"paid_at"`
	CancelledAt    *time.Time           `json:"cancelled_at"`
}

// NewInvoice creates an invoice for a student and period. TotalAmount is
// derived from the items; callers never set it directly.
func NewInvoice(
	tenantID uuid.UUID,
	invoiceNo string,
	studentID uuid.UUID,
	studentName string,
	month, year int,
	dueDate time.Time,
	items InvoiceItems,
	currency valueobject.Currency,
) (*Invoice, error) {
	if invoiceNo == "" {
		return nil, shared.NewDomainError("INVALID_INVOICE_NO", "Invoice number cannot be empty")
	}
	if studentID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_STUDENT", "Student ID cannot be empty")
	}
	if month < 1 || month > 12 {
		return nil, shared.NewDomainError("INVALID_PERIOD", "Month must be between 1 and 12")
	}
	if year < 2000 || year > 2200 {
		return nil, shared.NewDomainError("INVALID_PERIOD", "Year is out of range")
	}
	if len(items) == 0 {
		return nil, shared.NewDomainError("INVALID_ITEMS", "Invoice must have at least one item")
	}
	for _, item := range items {
		if item.Amount.IsNegative() {
			return nil, shared.NewDomainError("INVALID_ITEMS", "Invoice item amount cannot be negative")
		}
	}
	if currency == "" {
		currency = valueobject.DefaultCurrency
	}

	return &Invoice{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		InvoiceNo:           invoiceNo,
		StudentID:           studentID,
		StudentName:         studentName,
		Month:               month,
		Year:                year,
		DueDate:             dueDate,
		Items:               items,
		TotalAmount:         items.Total(),
		PaidAmount:          decimal.Zero,
		Status:              InvoiceStatusUnpaid,
		Currency:            currency,
		PaymentRecords:      PaymentRecords{},
	}, nil
}

// Outstanding returns totalAmount - paidAmount, floored at zero.
// A cancelled invoice has no outstanding balance.
func (inv *Invoice) Outstanding() decimal.Decimal {
	if inv.Status == InvoiceStatusCancelled {
		return decimal.Zero
	}
	due := inv.TotalAmount.Sub(inv.PaidAmount)
	if due.IsNegative() {
		return decimal.Zero
	}
	return due
}

// GetTotalAmountMoney returns total amount as Money
func (inv *Invoice) GetTotalAmountMoney() valueobject.Money {
	m, _ := valueobject.NewMoney(inv.TotalAmount, inv.Currency)
	return m
}

// GetPaidAmountMoney returns paid amount as Money
func (inv *Invoice) GetPaidAmountMoney() valueobject.Money {
	m, _ := valueobject.NewMoney(inv.PaidAmount, inv.Currency)
	return m
}

// GetOutstandingMoney returns the outstanding balance as Money
func (inv *Invoice) GetOutstandingMoney() valueobject.Money {
	m, _ := valueobject.NewMoney(inv.Outstanding(), inv.Currency)
	return m
}

// ApplyPayment records a payment against the invoice. The amount is not
// clamped to the remaining balance: an overpayment is accepted as-is and
// the invoice becomes PAID with paidAmount > totalAmount.
func (inv *Invoice) ApplyPayment(paymentID uuid.UUID, amount decimal.Decimal, method PaymentMethod, remarks string) error {
	if !inv.Status.IsOutstanding() {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot apply payment to invoice in %s status", inv.Status))
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("INVALID_AMOUNT", "Payment amount must be positive")
	}
	if paymentID == uuid.Nil {
		return shared.NewDomainError("INVALID_PAYMENT", "Payment ID cannot be empty")
	}

	now := time.Now()
	inv.PaymentRecords = append(inv.PaymentRecords, PaymentRecord{
		PaymentID: paymentID,
		Amount:    amount,
		Method:    method,
		PaidAt:    now,
		Remarks:   remarks,
	})
	inv.PaidAmount = inv.PaidAmount.Add(amount)

	if inv.PaidAmount.GreaterThanOrEqual(inv.TotalAmount) {
		inv.Status = InvoiceStatusPaid
		inv.PaidAt = &now
	} else {
		inv.Status = InvoiceStatusPartial
	}

	inv.UpdatedAt = now
	inv.IncrementVersion()
	return nil
}

// Cancel voids the invoice. Cancelling an already-cancelled invoice is a
// no-op, not an error.
func (inv *Invoice) Cancel() {
	if inv.Status == InvoiceStatusCancelled {
		return
	}
	now := time.Now()
	inv.Status = InvoiceStatusCancelled
	inv.CancelledAt = &now
	inv.UpdatedAt = now
	inv.IncrementVersion()
}

// MarkPaid overrides the status to PAID, settling the full total
func (inv *Invoice) MarkPaid() error {
	if inv.Status == InvoiceStatusCancelled {
		return shared.ErrInvoiceCancelled
	}
	now := time.Now()
	inv.Status = InvoiceStatusPaid
	inv.PaidAmount = inv.TotalAmount
	inv.PaidAt = &now
	inv.UpdatedAt = now
	inv.IncrementVersion()
	return nil
}

// MarkUnpaid overrides the status back to UNPAID and clears payments
func (inv *Invoice) MarkUnpaid() error {
	if inv.Status == InvoiceStatusCancelled {
		return shared.ErrInvoiceCancelled
	}
	inv.Status = InvoiceStatusUnpaid
	inv.PaidAmount = decimal.Zero
	inv.PaidAt = nil
	inv.UpdatedAt = time.Now()
	inv.IncrementVersion()
	return nil
}

// MarkOverdue flags an unpaid invoice past its due date. Partial and
// paid invoices are left alone.
func (inv *Invoice) MarkOverdue(asOf time.Time) bool {
	if inv.Status != InvoiceStatusUnpaid {
		return false
	}
	if !asOf.After(inv.DueDate) {
		return false
	}
	inv.Status = InvoiceStatusOverdue
	inv.UpdatedAt = time.Now()
	inv.IncrementVersion()
	return true
}

// RefreshStatus re-derives the status from the paid/total amounts.
// CANCELLED is sticky; OVERDUE is preserved while nothing has been paid.
func (inv *Invoice) RefreshStatus() {
	if inv.Status == InvoiceStatusCancelled {
		return
	}
	switch {
	case inv.PaidAmount.GreaterThanOrEqual(inv.TotalAmount):
		inv.Status = InvoiceStatusPaid
	case inv.PaidAmount.IsPositive():
		inv.Status = InvoiceStatusPartial
	default:
		if inv.Status != InvoiceStatusOverdue {
			inv.Status = InvoiceStatusUnpaid
		}
	}
}

// IsPaid returns true if the invoice is fully paid
func (inv *Invoice) IsPaid() bool {
	return inv.Status == InvoiceStatusPaid
}

// IsCancelled returns true if the invoice has been voided
func (inv *Invoice) IsCancelled() bool {
	return inv.Status == InvoiceStatusCancelled
}

// NewInvoiceNumber builds the deterministic number for a generated
// invoice: INV-{year}{month:02d}-{admissionNo}.
func NewInvoiceNumber(year, month int, admissionNo string) string {
	return fmt.Sprintf("INV-%d%02d-%s", year, month, admissionNo)
}

// NewCustomInvoiceNumber builds the number for an ad-hoc invoice. A
// suffix from the current nanosecond clock keeps repeated custom
// invoices for the same period unique.
func NewCustomInvoiceNumber(year, month int, admissionNo string, now time.Time) string {
	suffix := now.UnixNano() % 1000000
	return fmt.Sprintf("INV-%d%02d-%s-%06d", year, month, admissionNo, suffix)
}
