package billing

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/schoolerp/backend/internal/domain/fees"
	"github.com/schoolerp/backend/internal/domain/school"
	"github.com/schoolerp/backend/internal/domain/shared"
	"github.com/schoolerp/backend/internal/domain/shared/valueobject"
)

// PaymentService records payments against invoices and distributes
// family lump payments across children's outstanding invoices.
type PaymentService struct {
	invoiceRepo fees.InvoiceRepository
	paymentRepo fees.PaymentRepository
	kinshipRepo school.KinshipRepository
	parentRepo  school.ParentRepository
	allocator   *fees.FIFOAllocator
}

// NewPaymentService creates a new PaymentService
func NewPaymentService(
	invoiceRepo fees.InvoiceRepository,
	paymentRepo fees.PaymentRepository,
	kinshipRepo school.KinshipRepository,
	parentRepo school.ParentRepository,
) *PaymentService {
	return &PaymentService{
		invoiceRepo: invoiceRepo,
		paymentRepo: paymentRepo,
		kinshipRepo: kinshipRepo,
		parentRepo:  parentRepo,
		allocator:   fees.NewFIFOAllocator(),
	}
}

// RecordPaymentRequest records one payment against one invoice
type RecordPaymentRequest struct {
	TenantID  uuid.UUID
	InvoiceID uuid.UUID
	Amount    decimal.Decimal
	Method    fees.PaymentMethod
	Remarks   string
}

// RecordPayment creates a payment ledger entry and updates the invoice
// in the same transaction. The amount is not clamped: paying more than
// the remaining balance marks the invoice PAID with the excess kept on
// paidAmount.
func (s *PaymentService) RecordPayment(ctx context.Context, req RecordPaymentRequest) (*fees.Payment, error) {
	if req.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Payment amount must be positive")
	}
	if !req.Method.IsValid() {
		return nil, shared.NewDomainError("INVALID_METHOD", "Payment method is not valid")
	}

	invoice, err := s.invoiceRepo.FindByIDForTenant(ctx, req.TenantID, req.InvoiceID)
	if err != nil {
		return nil, fmt.Errorf("failed to load invoice: %w", err)
	}
	if invoice == nil {
		return nil, shared.NewDomainError("INVOICE_NOT_FOUND", "Invoice not found")
	}

	money, err := valueobject.NewMoney(req.Amount, invoice.Currency)
	if err != nil {
		return nil, shared.NewDomainError("INVALID_AMOUNT", err.Error())
	}
	payment, err := fees.NewPayment(req.TenantID, invoice.ID, invoice.InvoiceNo, invoice.StudentID, money, req.Method, req.Remarks)
	if err != nil {
		return nil, err
	}

	if err := invoice.ApplyPayment(payment.ID, req.Amount, req.Method, req.Remarks); err != nil {
		return nil, err
	}

	if err := s.invoiceRepo.SaveWithPayment(ctx, invoice, payment); err != nil {
		return nil, fmt.Errorf("failed to save payment: %w", err)
	}
	return payment, nil
}

// DistributeRequest distributes one lump payment from a parent across
// their children's outstanding invoices.
type DistributeRequest struct {
	TenantID uuid.UUID
	ParentID uuid.UUID
	Amount   decimal.Decimal
	Method   fees.PaymentMethod
	Remarks  string
}

// DistributeResult reports the per-invoice breakdown of a family
// payment. DistributedAmount + RemainingBalance always equals the
// original amount; a surplus beyond the family's total debt comes back
// in RemainingBalance.
type DistributeResult struct {
	DistributedAmount decimal.Decimal  `json:"distributed_amount"`
	RemainingBalance  decimal.Decimal  `json:"remaining_balance"`
	Breakdown         []BreakdownEntry `json:"breakdown"`
}

// BreakdownEntry is one invoice's share of a family payment
type BreakdownEntry struct {
	InvoiceNo   string             `json:"invoice_no"`
	StudentName string             `json:"student_name"`
	Paid        decimal.Decimal    `json:"paid"`
	Status      fees.InvoiceStatus `json:"status"`
}

// DistributeFamilyPayment walks the parent's children, flattens their
// outstanding invoices, and settles them oldest due date first. All
// invoice updates and ledger entries commit in one transaction.
func (s *PaymentService) DistributeFamilyPayment(ctx context.Context, req DistributeRequest) (*DistributeResult, error) {
	if req.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Payment amount must be positive")
	}
	if !req.Method.IsValid() {
		return nil, shared.NewDomainError("INVALID_METHOD", "Payment method is not valid")
	}

	parent, err := s.parentRepo.FindByIDForTenant(ctx, req.TenantID, req.ParentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load parent: %w", err)
	}
	if parent == nil {
		return nil, shared.NewDomainError("PARENT_NOT_FOUND", "Parent not found")
	}

	kinships, err := s.kinshipRepo.FindChildren(ctx, req.TenantID, req.ParentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load children: %w", err)
	}

	childIDs := make([]uuid.UUID, 0, len(kinships))
	for _, k := range kinships {
		childIDs = append(childIDs, k.StudentID)
	}

	var invoices []fees.Invoice
	if len(childIDs) > 0 {
		invoices, err = s.invoiceRepo.FindOutstandingByStudents(ctx, req.TenantID, childIDs)
		if err != nil {
			return nil, fmt.Errorf("failed to load outstanding invoices: %w", err)
		}
	}

	money := valueobject.NewMoneyUGX(req.Amount)
	plan, err := s.allocator.Allocate(money, fees.TargetsFromInvoices(invoices))
	if err != nil {
		return nil, err
	}

	invoiceByID := make(map[uuid.UUID]*fees.Invoice, len(invoices))
	for i := range invoices {
		invoiceByID[invoices[i].ID] = &invoices[i]
	}

	updated := make([]*fees.Invoice, 0, len(plan.Allocations))
	payments := make([]*fees.Payment, 0, len(plan.Allocations))
	breakdown := make([]BreakdownEntry, 0, len(plan.Allocations))

	for _, alloc := range plan.Allocations {
		invoice := invoiceByID[alloc.InvoiceID]
		if invoice == nil {
			return nil, shared.NewDomainError("INVOICE_NOT_FOUND",
				fmt.Sprintf("Invoice %s disappeared during allocation", alloc.InvoiceNo))
		}

		payMoney, err := valueobject.NewMoney(alloc.Amount, invoice.Currency)
		if err != nil {
			return nil, shared.NewDomainError("INVALID_AMOUNT", err.Error())
		}
		payment, err := fees.NewPayment(req.TenantID, invoice.ID, invoice.InvoiceNo, invoice.StudentID, payMoney, req.Method, req.Remarks)
		if err != nil {
			return nil, err
		}
		if err := invoice.ApplyPayment(payment.ID, alloc.Amount, req.Method, req.Remarks); err != nil {
			return nil, err
		}

		updated = append(updated, invoice)
		payments = append(payments, payment)
		breakdown = append(breakdown, BreakdownEntry{
			InvoiceNo:   invoice.InvoiceNo,
			StudentName: alloc.StudentName,
			Paid:        alloc.Amount,
			Status:      invoice.Status,
		})
	}

	if len(updated) > 0 {
		if err := s.invoiceRepo.SaveAllWithPayments(ctx, updated, payments); err != nil {
			return nil, fmt.Errorf("failed to persist allocation: %w", err)
		}
	}

	return &DistributeResult{
		DistributedAmount: plan.TotalAllocated,
		RemainingBalance:  plan.RemainingAmount,
		Breakdown:         breakdown,
	}, nil
}

// ChildOutstanding summarizes one child's open invoices
type ChildOutstanding struct {
	StudentID   uuid.UUID       `json:"student_id"`
	StudentName string          `json:"student_name"`
	Invoices    []fees.Invoice  `json:"invoices"`
	Outstanding decimal.Decimal `json:"outstanding"`
}

// FamilyOutstandingResult is the collect-screen summary for a parent
type FamilyOutstandingResult struct {
	ParentID         uuid.UUID          `json:"parent_id"`
	ParentName       string             `json:"parent_name"`
	Children         []ChildOutstanding `json:"children"`
	TotalOutstanding decimal.Decimal    `json:"total_outstanding"`
}

// FamilyOutstanding gathers the open invoices of all the parent's
// children, grouped per child, with the family total
func (s *PaymentService) FamilyOutstanding(ctx context.Context, tenantID, parentID uuid.UUID) (*FamilyOutstandingResult, error) {
	parent, err := s.parentRepo.FindByIDForTenant(ctx, tenantID, parentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load parent: %w", err)
	}
	if parent == nil {
		return nil, shared.NewDomainError("PARENT_NOT_FOUND", "Parent not found")
	}

	kinships, err := s.kinshipRepo.FindChildren(ctx, tenantID, parentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load children: %w", err)
	}

	result := &FamilyOutstandingResult{
		ParentID:         parentID,
		ParentName:       parent.FirstName + " " + parent.LastName,
		Children:         make([]ChildOutstanding, 0, len(kinships)),
		TotalOutstanding: decimal.Zero,
	}

	for _, k := range kinships {
		invoices, err := s.invoiceRepo.FindOutstandingByStudent(ctx, tenantID, k.StudentID)
		if err != nil {
			return nil, fmt.Errorf("failed to load outstanding invoices: %w", err)
		}

		child := ChildOutstanding{
			StudentID:   k.StudentID,
			Invoices:    invoices,
			Outstanding: decimal.Zero,
		}
		for i := range invoices {
			child.Outstanding = child.Outstanding.Add(invoices[i].Outstanding())
			child.StudentName = invoices[i].StudentName
		}
		result.Children = append(result.Children, child)
		result.TotalOutstanding = result.TotalOutstanding.Add(child.Outstanding)
	}

	return result, nil
}

// ListPayments lists ledger entries for a tenant with filtering
func (s *PaymentService) ListPayments(ctx context.Context, tenantID uuid.UUID, filter fees.PaymentFilter) (*shared.Paginated[fees.Payment], error) {
	payments, err := s.paymentRepo.FindAllForTenant(ctx, tenantID, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	total, err := s.paymentRepo.CountForTenant(ctx, tenantID, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to count payments: %w", err)
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize < 1 {
		pageSize = 20
	}
	result := shared.NewPaginated(payments, total, page, pageSize)
	return &result, nil
}

// InvoicePayments lists the ledger entries recorded against one invoice
func (s *PaymentService) InvoicePayments(ctx context.Context, tenantID, invoiceID uuid.UUID) ([]fees.Payment, error) {
	invoice, err := s.invoiceRepo.FindByIDForTenant(ctx, tenantID, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("failed to load invoice: %w", err)
	}
	if invoice == nil {
		return nil, shared.NewDomainError("INVOICE_NOT_FOUND", "Invoice not found")
	}
	return s.paymentRepo.FindByInvoice(ctx, tenantID, invoiceID)
}
