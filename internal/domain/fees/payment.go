package fees

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/schoolerp/backend/internal/domain/shared"
	"github.com/schoolerp/backend/internal/domain/shared/valueobject"
)

// PaymentMethod represents how a payment was made
type PaymentMethod string

const (
	PaymentMethodCash         PaymentMethod = "CASH"
	PaymentMethodBankTransfer PaymentMethod = "BANK_TRANSFER"
	PaymentMethodMobileMoney  PaymentMethod = "MOBILE_MONEY"
	PaymentMethodCheque       PaymentMethod = "CHEQUE"
)

// IsValid checks if the payment method is valid
func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentMethodCash, PaymentMethodBankTransfer, PaymentMethodMobileMoney, PaymentMethodCheque:
		return true
	}
	return false
}

// String returns the string representation of PaymentMethod
func (m PaymentMethod) String() string {
	return string(m)
}

// Payment is an append-only ledger entry recording money received
// against one invoice. It is never updated or deleted; corrections are
// made through the invoice status overrides.
type Payment struct {
	shared.TenantAggregateRoot
	InvoiceID uuid.UUID            `json:"invoice_id"`
	InvoiceNo string               `json:"invoice_no"`
	StudentID uuid.UUID            `json:"student_id"`
	Amount    decimal.Decimal      `json:"amount"`
	Currency  valueobject.Currency `json:"currency"`
	Method    PaymentMethod        `json:"method"`
	PaidAt    time.Time            `json:"paid_at"`
	Remarks   string               `json:"remarks"`
}

// NewPayment records money received against an invoice
func NewPayment(tenantID, invoiceID uuid.UUID, invoiceNo string, studentID uuid.UUID, amount valueobject.Money, method PaymentMethod, remarks string) (*Payment, error) {
	if invoiceID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_INVOICE", "Invoice ID cannot be empty")
	}
	if amount.Amount().LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Payment amount must be positive")
	}
	if !method.IsValid() {
		return nil, shared.NewDomainError("INVALID_METHOD", "Payment method is not valid")
	}

	return &Payment{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		InvoiceID:           invoiceID,
		InvoiceNo:           invoiceNo,
		StudentID:           studentID,
		Amount:              amount.Amount(),
		Currency:            amount.Currency(),
		Method:              method,
		PaidAt:              time.Now(),
		Remarks:             remarks,
	}, nil
}

// GetAmountMoney returns the payment amount as Money
func (p *Payment) GetAmountMoney() valueobject.Money {
	m, _ := valueobject.NewMoney(p.Amount, p.Currency)
	return m
}
