package fees

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/schoolerp/backend/internal/domain/shared"
	"github.com/schoolerp/backend/internal/domain/shared/valueobject"
)

// AllocationTarget is one outstanding invoice eligible to receive part
// of a family payment. StudentName identifies which child it belongs to.
type AllocationTarget struct {
	InvoiceID   uuid.UUID
	InvoiceNo   string
	StudentName string
	Outstanding decimal.Decimal
	DueDate     time.Time
}

// Allocation is the slice of a payment assigned to one invoice
type Allocation struct {
	InvoiceID    uuid.UUID       `json:"invoice_id"`
	InvoiceNo    string          `json:"invoice_no"`
	StudentName  string          `json:"student_name"`
	Amount       decimal.Decimal `json:"amount"`
	FullySettled bool            `json:"fully_settled"`
}

// AllocationPlan is the complete outcome of distributing one payment
// across a family's outstanding invoices. Conservation holds:
// TotalAllocated + RemainingAmount equals the original payment.
type AllocationPlan struct {
	Allocations     []Allocation    `json:"allocations"`
	TotalAllocated  decimal.Decimal `json:"total_allocated"`
	RemainingAmount decimal.Decimal `json:"remaining_amount"`
	FullyAllocated  bool            `json:"fully_allocated"`
}

// FIFOAllocator distributes a lump payment across outstanding invoices
// oldest-debt-first by due date. Ties keep the order the targets were
// given in (stable sort), so invoices from different children with the
// same due date are settled in fetch order.
type FIFOAllocator struct{}

// NewFIFOAllocator creates a FIFO allocator
func NewFIFOAllocator() *FIFOAllocator {
	return &FIFOAllocator{}
}

// Allocate plans how to split the amount across the targets. It is a
// pure calculation; applying the plan to invoices is the caller's job.
func (a *FIFOAllocator) Allocate(amount valueobject.Money, targets []AllocationTarget) (*AllocationPlan, error) {
	if amount.Amount().LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Allocation amount must be positive")
	}
	if len(targets) == 0 {
		return &AllocationPlan{
			Allocations:     make([]Allocation, 0),
			TotalAllocated:  decimal.Zero,
			RemainingAmount: amount.Amount(),
			FullyAllocated:  false,
		}, nil
	}

	sorted := make([]AllocationTarget, len(targets))
	copy(sorted, targets)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].DueDate.Before(sorted[j].DueDate)
	})

	allocations := make([]Allocation, 0)
	remaining := amount.Amount()
	totalAllocated := decimal.Zero

	for _, target := range sorted {
		if remaining.IsZero() {
			break
		}
		if target.Outstanding.LessThanOrEqual(decimal.Zero) {
			continue
		}

		allocAmount := decimal.Min(remaining, target.Outstanding)

		allocations = append(allocations, Allocation{
			InvoiceID:    target.InvoiceID,
			InvoiceNo:    target.InvoiceNo,
			StudentName:  target.StudentName,
			Amount:       allocAmount,
			FullySettled: allocAmount.GreaterThanOrEqual(target.Outstanding),
		})

		totalAllocated = totalAllocated.Add(allocAmount)
		remaining = remaining.Sub(allocAmount)
	}

	return &AllocationPlan{
		Allocations:     allocations,
		TotalAllocated:  totalAllocated,
		RemainingAmount: remaining,
		FullyAllocated:  remaining.IsZero(),
	}, nil
}

// TargetsFromInvoices converts outstanding invoices into allocation
// targets, skipping any that cannot receive payments.
func TargetsFromInvoices(invoices []Invoice) []AllocationTarget {
	targets := make([]AllocationTarget, 0, len(invoices))
	for _, inv := range invoices {
		if !inv.Status.IsOutstanding() {
			continue
		}
		if inv.Outstanding().LessThanOrEqual(decimal.Zero) {
			continue
		}
		targets = append(targets, AllocationTarget{
			InvoiceID:   inv.ID,
			InvoiceNo:   inv.InvoiceNo,
			StudentName: inv.StudentName,
			Outstanding: inv.Outstanding(),
			DueDate:     inv.DueDate,
		})
	}
	return targets
}
