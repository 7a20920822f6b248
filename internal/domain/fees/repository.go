package fees

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/schoolerp/backend/internal/domain/shared"
)

// InvoiceFilter defines filtering options for invoice queries
type InvoiceFilter struct {
	shared.Filter
	StudentID *uuid.UUID     // Filter by student
	Status    *InvoiceStatus // Filter by status
	Month     *int           // Filter by billing month
	Year      *int           // Filter by billing year
	DueFrom   *time.Time     // Filter by due date range start
	DueTo     *time.Time     // Filter by due date range end
}

// InvoiceRepository defines the interface for invoice persistence
type InvoiceRepository interface {
	// FindByIDForTenant finds an invoice by ID, or nil if none exists
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Invoice, error)

	// FindByInvoiceNo finds an invoice by its human-readable number, or
	// nil if none exists
	FindByInvoiceNo(ctx context.Context, tenantID uuid.UUID, invoiceNo string) (*Invoice, error)

	// FindAllForTenant finds invoices for a tenant with filtering
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter InvoiceFilter) ([]Invoice, error)

	// FindOutstandingByStudent finds a student's invoices that still
	// count toward their balance (UNPAID, PARTIAL, OVERDUE), ordered by
	// due date ascending then creation order.
	FindOutstandingByStudent(ctx context.Context, tenantID, studentID uuid.UUID) ([]Invoice, error)

	// FindOutstandingByStudents flattens outstanding invoices across
	// several students in one query, same ordering per student.
	FindOutstandingByStudents(ctx context.Context, tenantID uuid.UUID, studentIDs []uuid.UUID) ([]Invoice, error)

	// CountForPeriod counts non-cancelled invoices for the given
	// students in a billing period. Used as the duplicate-period
	// pre-check; the partial unique index is the backstop.
	CountForPeriod(ctx context.Context, tenantID uuid.UUID, studentIDs []uuid.UUID, month, year int) (int64, error)

	// FindActiveForPeriod finds a student's non-cancelled invoice for a
	// billing period, or nil if none exists.
	FindActiveForPeriod(ctx context.Context, tenantID, studentID uuid.UUID, month, year int) (*Invoice, error)

	// Save creates or updates an invoice
	Save(ctx context.Context, invoice *Invoice) error

	// SaveWithLock saves with optimistic locking (version check)
	SaveWithLock(ctx context.Context, invoice *Invoice) error

	// CreateBatch persists a set of invoices atomically; either all
	// rows commit or none do.
	CreateBatch(ctx context.Context, invoices []*Invoice) error

	// CreateWithCancel atomically cancels a prior invoice (may be nil)
	// and creates a new one in the same transaction.
	CreateWithCancel(ctx context.Context, invoice *Invoice, cancelled *Invoice) error

	// SaveWithPayment atomically updates an invoice and appends the
	// payment ledger entry that caused the update.
	SaveWithPayment(ctx context.Context, invoice *Invoice, payment *Payment) error

	// SaveAllWithPayments atomically updates several invoices and
	// appends their ledger entries. Used by family payment
	// distribution; a failure on any row rolls back the whole set.
	SaveAllWithPayments(ctx context.Context, invoices []*Invoice, payments []*Payment) error

	// CountForTenant counts invoices for a tenant with optional filters
	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter InvoiceFilter) (int64, error)

	// SumOutstandingByStudent calculates a student's total outstanding balance
	SumOutstandingByStudent(ctx context.Context, tenantID, studentID uuid.UUID) (decimal.Decimal, error)

	// MarkOverdueDue bulk-flags UNPAID invoices whose due date has
	// passed, across all tenants. Returns the number of rows updated.
	MarkOverdueDue(ctx context.Context, asOf time.Time) (int64, error)
}

// PaymentFilter defines filtering options for payment queries
type PaymentFilter struct {
	shared.Filter
	InvoiceID *uuid.UUID     // Filter by invoice
	StudentID *uuid.UUID     // Filter by student
	Method    *PaymentMethod // Filter by payment method
	FromDate  *time.Time     // Filter by payment date range start
	ToDate    *time.Time     // Filter by payment date range end
}

// PaymentRepository defines the interface for the payment ledger
type PaymentRepository interface {
	// FindByIDForTenant finds a payment by ID, or nil if none exists
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Payment, error)

	// FindAllForTenant finds payments for a tenant with filtering
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter PaymentFilter) ([]Payment, error)

	// FindByInvoice finds all payments recorded against an invoice
	FindByInvoice(ctx context.Context, tenantID, invoiceID uuid.UUID) ([]Payment, error)

	// Save persists a payment ledger entry
	Save(ctx context.Context, payment *Payment) error

	// CountForTenant counts payments for a tenant with optional filters
	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter PaymentFilter) (int64, error)

	// SumForTenant totals payment amounts for a tenant with optional filters
	SumForTenant(ctx context.Context, tenantID uuid.UUID, filter PaymentFilter) (decimal.Decimal, error)
}

// FeeHeadRepository defines the interface for fee head persistence
type FeeHeadRepository interface {
	// FindByIDForTenant finds a fee head by ID, or nil if none exists
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*FeeHead, error)

	// FindByIDs finds several fee heads at once, keyed by ID
	FindByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]FeeHead, error)

	// FindByName finds a fee head by case-insensitive name match, or nil
	// if none exists
	FindByName(ctx context.Context, tenantID uuid.UUID, name string) (*FeeHead, error)

	// FindAllForTenant finds all fee heads for a tenant
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]FeeHead, error)

	// Save creates or updates a fee head
	Save(ctx context.Context, feeHead *FeeHead) error

	// Delete soft deletes a fee head
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
}

// FeeStructureRepository defines the interface for class fee structures
type FeeStructureRepository interface {
	// FindByIDForTenant finds a fee structure row by ID, or nil if none
	// exists
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*FeeStructure, error)

	// FindByClass finds all fee structure rows for a class
	FindByClass(ctx context.Context, tenantID, classID uuid.UUID) ([]FeeStructure, error)

	// FindByClassAndFeeHead finds the row for one (class, fee head) pair,
	// or nil if none exists
	FindByClassAndFeeHead(ctx context.Context, tenantID, classID, feeHeadID uuid.UUID) (*FeeStructure, error)

	// Save creates or updates a fee structure row
	Save(ctx context.Context, structure *FeeStructure) error

	// Delete removes a fee structure row
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
}

// StudentFeeStructureRepository defines the interface for per-student overrides
type StudentFeeStructureRepository interface {
	// FindByStudent finds a student's fee override, or nil if none exists
	FindByStudent(ctx context.Context, tenantID, studentID uuid.UUID) (*StudentFeeStructure, error)

	// Save creates or updates a student's fee override
	Save(ctx context.Context, structure *StudentFeeStructure) error

	// Delete removes a student's fee override
	Delete(ctx context.Context, tenantID, studentID uuid.UUID) error
}

// DiscountRepository defines the interface for discounts and their assignments
type DiscountRepository interface {
	// FindByIDForTenant finds a discount by ID, or nil if none exists
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Discount, error)

	// FindAllForTenant finds all discounts for a tenant
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]Discount, error)

	// FindActiveByStudent resolves a student's active discounts keyed by
	// target fee head. At most one discount per fee head is returned.
	FindActiveByStudent(ctx context.Context, tenantID, studentID uuid.UUID) (map[uuid.UUID]Discount, error)

	// FindAssignment finds an active assignment of any discount
	// targeting the given fee head to the student, or nil if none.
	FindAssignment(ctx context.Context, tenantID, studentID, feeHeadID uuid.UUID) (*StudentDiscount, error)

	// Save creates or updates a discount
	Save(ctx context.Context, discount *Discount) error

	// SaveAssignment creates or updates a student discount assignment
	SaveAssignment(ctx context.Context, assignment *StudentDiscount) error

	// Delete soft deletes a discount
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
}
