package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/schoolerp/backend/internal/domain/fees"
	"github.com/schoolerp/backend/internal/domain/school"
	"github.com/schoolerp/backend/internal/domain/shared"
	"github.com/schoolerp/backend/internal/domain/shared/valueobject"
)

// InvoiceService handles invoice generation, custom invoicing and
// status overrides.
type InvoiceService struct {
	invoiceRepo   fees.InvoiceRepository
	feeHeadRepo   fees.FeeHeadRepository
	structureRepo fees.FeeStructureRepository
	overrideRepo  fees.StudentFeeStructureRepository
	discountRepo  fees.DiscountRepository
	studentRepo   school.StudentRepository
}

// NewInvoiceService creates a new InvoiceService
func NewInvoiceService(
	invoiceRepo fees.InvoiceRepository,
	feeHeadRepo fees.FeeHeadRepository,
	structureRepo fees.FeeStructureRepository,
	overrideRepo fees.StudentFeeStructureRepository,
	discountRepo fees.DiscountRepository,
	studentRepo school.StudentRepository,
) *InvoiceService {
	return &InvoiceService{
		invoiceRepo:   invoiceRepo,
		feeHeadRepo:   feeHeadRepo,
		structureRepo: structureRepo,
		overrideRepo:  overrideRepo,
		discountRepo:  discountRepo,
		studentRepo:   studentRepo,
	}
}

// GenerateInvoicesRequest asks for one invoice per enrolled student of a
// class for a billing period.
type GenerateInvoicesRequest struct {
	TenantID uuid.UUID
	ClassID  uuid.UUID
	Month    int
	Year     int
	DueDate  time.Time
}

// GenerateInvoicesResult reports how many invoices were created
type GenerateInvoicesResult struct {
	InvoicesCreated int      `json:"invoices_created"`
	InvoiceNos      []string `json:"invoice_nos"`
}

// GenerateClassInvoices creates one invoice per active student of the
// class, sourcing line items from the student's fee override when
// present, else the class structure, with the student's discounts
// applied per line. The batch is all-or-nothing: any existing invoice
// for the period aborts the whole run.
func (s *InvoiceService) GenerateClassInvoices(ctx context.Context, req GenerateInvoicesRequest) (*GenerateInvoicesResult, error) {
	if req.Month < 1 || req.Month > 12 {
		return nil, shared.NewDomainError("INVALID_PERIOD", "Month must be between 1 and 12")
	}

	structures, err := s.structureRepo.FindByClass(ctx, req.TenantID, req.ClassID)
	if err != nil {
		return nil, fmt.Errorf("failed to load fee structure: %w", err)
	}
	if len(structures) == 0 {
		return nil, shared.ErrNoFeeStructure
	}

	students, err := s.studentRepo.FindActiveByClass(ctx, req.TenantID, req.ClassID)
	if err != nil {
		return nil, fmt.Errorf("failed to load students: %w", err)
	}
	if len(students) == 0 {
		return nil, shared.NewDomainError("NO_STUDENTS", "No enrolled students in this class")
	}

	studentIDs := make([]uuid.UUID, 0, len(students))
	for _, st := range students {
		studentIDs = append(studentIDs, st.ID)
	}

	existing, err := s.invoiceRepo.CountForPeriod(ctx, req.TenantID, studentIDs, req.Month, req.Year)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing invoices: %w", err)
	}
	if existing > 0 {
		return nil, shared.ErrDuplicatePeriod
	}

	seenHeads := make(map[uuid.UUID]struct{}, len(structures))
	feeHeadIDs := make([]uuid.UUID, 0, len(structures))
	for _, fs := range structures {
		if _, ok := seenHeads[fs.FeeHeadID]; !ok {
			seenHeads[fs.FeeHeadID] = struct{}{}
			feeHeadIDs = append(feeHeadIDs, fs.FeeHeadID)
		}
	}

	// Override lines can reference heads outside the class structure,
	// so their IDs join the batch lookup too.
	overrides := make(map[uuid.UUID]*fees.StudentFeeStructure, len(students))
	for _, student := range students {
		override, err := s.overrideRepo.FindByStudent(ctx, req.TenantID, student.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to load fee override for student %s: %w", student.AdmissionNo, err)
		}
		if override == nil || !override.HasItems() {
			continue
		}
		overrides[student.ID] = override
		for _, item := range override.Items {
			if _, ok := seenHeads[item.FeeHeadID]; !ok {
				seenHeads[item.FeeHeadID] = struct{}{}
				feeHeadIDs = append(feeHeadIDs, item.FeeHeadID)
			}
		}
	}

	feeHeads, err := s.feeHeadRepo.FindByIDs(ctx, req.TenantID, feeHeadIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load fee heads: %w", err)
	}

	invoices := make([]*fees.Invoice, 0, len(students))
	invoiceNos := make([]string, 0, len(students))

	for _, student := range students {
		items, err := s.buildStudentItems(ctx, req.TenantID, &student, overrides[student.ID], structures, feeHeads)
		if err != nil {
			return nil, err
		}

		invoiceNo := fees.NewInvoiceNumber(req.Year, req.Month, student.AdmissionNo)
		invoice, err := fees.NewInvoice(
			req.TenantID,
			invoiceNo,
			student.ID,
			student.FullName(),
			req.Month, req.Year,
			req.DueDate,
			items,
			valueobject.DefaultCurrency,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to build invoice for student %s: %w", student.AdmissionNo, err)
		}

		invoices = append(invoices, invoice)
		invoiceNos = append(invoiceNos, invoiceNo)
	}

	if err := s.invoiceRepo.CreateBatch(ctx, invoices); err != nil {
		// The partial unique index on (tenant, student, period) is the
		// backstop for two concurrent runs passing the pre-check.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, shared.ErrDuplicatePeriod
		}
		return nil, fmt.Errorf("failed to create invoices: %w", err)
	}

	return &GenerateInvoicesResult{
		InvoicesCreated: len(invoices),
		InvoiceNos:      invoiceNos,
	}, nil
}

// buildStudentItems resolves one student's billable lines: their fee
// override when present and non-empty, else the class structure, with
// the matching discount applied per line.
func (s *InvoiceService) buildStudentItems(
	ctx context.Context,
	tenantID uuid.UUID,
	student *school.Student,
	override *fees.StudentFeeStructure,
	structures []fees.FeeStructure,
	feeHeads map[uuid.UUID]fees.FeeHead,
) (fees.InvoiceItems, error) {
	discounts, err := s.discountRepo.FindActiveByStudent(ctx, tenantID, student.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load discounts for student %s: %w", student.AdmissionNo, err)
	}

	type sourceLine struct {
		feeHeadID uuid.UUID
		amount    decimal.Decimal
	}
	var lines []sourceLine

	if override != nil && override.HasItems() {
		for _, item := range override.Items {
			lines = append(lines, sourceLine{feeHeadID: item.FeeHeadID, amount: item.Amount})
		}
	} else {
		for _, fs := range structures {
			lines = append(lines, sourceLine{feeHeadID: fs.FeeHeadID, amount: fs.Amount})
		}
	}

	items := make(fees.InvoiceItems, 0, len(lines))
	for _, line := range lines {
		var discount *fees.Discount
		if d, ok := discounts[line.feeHeadID]; ok {
			discount = &d
		}
		discountAmount := fees.ComputeDiscount(line.amount, discount)

		name := ""
		if head, ok := feeHeads[line.feeHeadID]; ok {
			name = head.Name
		}

		items = append(items, fees.NewInvoiceItem(line.feeHeadID, name, line.amount, discountAmount))
	}
	return items, nil
}

// CustomItemInput is one caller-supplied line for an ad-hoc invoice
type CustomItemInput struct {
	FeeHeadID uuid.UUID
	Amount    decimal.Decimal
}

// CustomInvoiceRequest creates a single ad-hoc invoice, optionally
// cancelling a prior one by its number.
type CustomInvoiceRequest struct {
	TenantID        uuid.UUID
	StudentID       uuid.UUID
	Month           int
	Year            int
	DueDate         time.Time
	Items           []CustomItemInput
	CancelInvoiceNo string
}

// CreateCustomInvoice builds an ad-hoc invoice for one student. Prior
// outstanding balances are rolled into an "Arrears" line; the rolled-up
// invoices stay independently outstanding. If the student already has a
// non-cancelled invoice for the period the call fails with a conflict
// naming the existing number, unless that invoice is explicitly
// cancelled through CancelInvoiceNo.
func (s *InvoiceService) CreateCustomInvoice(ctx context.Context, req CustomInvoiceRequest) (*fees.Invoice, error) {
	if req.Month < 1 || req.Month > 12 {
		return nil, shared.NewDomainError("INVALID_PERIOD", "Month must be between 1 and 12")
	}
	if len(req.Items) == 0 {
		return nil, shared.NewDomainError("INVALID_ITEMS", "Custom invoice requires at least one item")
	}
	for _, item := range req.Items {
		if item.Amount.IsNegative() {
			return nil, shared.NewDomainError("INVALID_ITEMS", "Item amount cannot be negative")
		}
	}

	student, err := s.studentRepo.FindByIDForTenant(ctx, req.TenantID, req.StudentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load student: %w", err)
	}
	if student == nil {
		return nil, shared.NewDomainError("STUDENT_NOT_FOUND", "Student not found")
	}

	// Step 1: resolve the cancel target before any write.
	var cancelTarget *fees.Invoice
	if req.CancelInvoiceNo != "" {
		cancelTarget, err = s.invoiceRepo.FindByInvoiceNo(ctx, req.TenantID, req.CancelInvoiceNo)
		if err != nil {
			return nil, fmt.Errorf("failed to load cancel target: %w", err)
		}
		if cancelTarget != nil && cancelTarget.StudentID != req.StudentID {
			return nil, shared.NewDomainError("CANCEL_TARGET_MISMATCH",
				fmt.Sprintf("Invoice %s does not belong to this student", req.CancelInvoiceNo))
		}
	}

	// Step 2: duplicate-period guard. Re-billing a period requires an
	// explicit cancellation of the existing invoice.
	if req.CancelInvoiceNo == "" {
		existing, err := s.invoiceRepo.FindActiveForPeriod(ctx, req.TenantID, req.StudentID, req.Month, req.Year)
		if err != nil {
			return nil, fmt.Errorf("failed to check existing invoice: %w", err)
		}
		if existing != nil {
			return nil, shared.NewDomainError("DUPLICATE_PERIOD",
				fmt.Sprintf("Student already has invoice %s for this period; cancel it first", existing.InvoiceNo))
		}
	}

	items, err := s.buildCustomItems(ctx, req, cancelTarget)
	if err != nil {
		return nil, err
	}

	invoiceNo := fees.NewCustomInvoiceNumber(req.Year, req.Month, student.AdmissionNo, time.Now())
	invoice, err := fees.NewInvoice(
		req.TenantID,
		invoiceNo,
		student.ID,
		student.FullName(),
		req.Month, req.Year,
		req.DueDate,
		items,
		valueobject.DefaultCurrency,
	)
	if err != nil {
		return nil, err
	}

	if cancelTarget != nil {
		cancelTarget.Cancel()
	}
	if err := s.invoiceRepo.CreateWithCancel(ctx, invoice, cancelTarget); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, shared.ErrDuplicatePeriod
		}
		return nil, fmt.Errorf("failed to create invoice: %w", err)
	}

	return invoice, nil
}

// buildCustomItems turns the caller's lines into invoice items and
// appends the arrears roll-up when the student has prior dues.
func (s *InvoiceService) buildCustomItems(ctx context.Context, req CustomInvoiceRequest, cancelTarget *fees.Invoice) (fees.InvoiceItems, error) {
	feeHeadIDs := make([]uuid.UUID, 0, len(req.Items))
	for _, item := range req.Items {
		feeHeadIDs = append(feeHeadIDs, item.FeeHeadID)
	}
	feeHeads, err := s.feeHeadRepo.FindByIDs(ctx, req.TenantID, feeHeadIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load fee heads: %w", err)
	}

	items := make(fees.InvoiceItems, 0, len(req.Items)+1)
	callerHasArrears := false
	for _, input := range req.Items {
		head, ok := feeHeads[input.FeeHeadID]
		if !ok {
			return nil, shared.NewDomainError("FEE_HEAD_NOT_FOUND",
				fmt.Sprintf("Fee head %s not found", input.FeeHeadID))
		}
		if head.IsArrears() {
			callerHasArrears = true
		}
		items = append(items, fees.NewInvoiceItem(input.FeeHeadID, head.Name, input.Amount, decimal.Zero))
	}

	// Step 3: arrears roll-up across the student's other outstanding
	// invoices. The invoice being cancelled in this same operation is
	// excluded; everything else keeps its own balance.
	if !callerHasArrears {
		outstanding, err := s.invoiceRepo.FindOutstandingByStudent(ctx, req.TenantID, req.StudentID)
		if err != nil {
			return nil, fmt.Errorf("failed to load outstanding invoices: %w", err)
		}

		arrears := decimal.Zero
		for _, inv := range outstanding {
			if cancelTarget != nil && inv.ID == cancelTarget.ID {
				continue
			}
			arrears = arrears.Add(inv.Outstanding())
		}

		if arrears.IsPositive() {
			arrearsHead, err := s.ensureArrearsFeeHead(ctx, req.TenantID)
			if err != nil {
				return nil, err
			}
			items = append(items, fees.NewInvoiceItem(arrearsHead.ID, arrearsHead.Name, arrears, decimal.Zero))
		}
	}

	return items, nil
}

// ensureArrearsFeeHead finds the school's arrears fee head by
// case-insensitive name, creating it on first use.
func (s *InvoiceService) ensureArrearsFeeHead(ctx context.Context, tenantID uuid.UUID) (*fees.FeeHead, error) {
	head, err := s.feeHeadRepo.FindByName(ctx, tenantID, fees.ArrearsFeeHeadName)
	if err != nil {
		return nil, fmt.Errorf("failed to look up arrears fee head: %w", err)
	}
	if head != nil {
		return head, nil
	}

	head = fees.NewArrearsFeeHead(tenantID)
	if err := s.feeHeadRepo.Save(ctx, head); err != nil {
		return nil, fmt.Errorf("failed to create arrears fee head: %w", err)
	}
	return head, nil
}

// StatusAction is a manual override applied to an invoice
type StatusAction string

const (
	StatusActionCancel     StatusAction = "CANCEL"
	StatusActionMarkPaid   StatusAction = "MARK_PAID"
	StatusActionMarkUnpaid StatusAction = "MARK_UNPAID"
)

// IsValid checks if the action is a valid StatusAction
func (a StatusAction) IsValid() bool {
	return a == StatusActionCancel || a == StatusActionMarkPaid || a == StatusActionMarkUnpaid
}

// UpdateInvoiceStatus applies a manual status override. Cancelling an
// already-cancelled invoice succeeds without change.
func (s *InvoiceService) UpdateInvoiceStatus(ctx context.Context, tenantID, invoiceID uuid.UUID, action StatusAction) (*fees.Invoice, error) {
	if !action.IsValid() {
		return nil, shared.NewDomainError("INVALID_ACTION", "Unknown status action")
	}

	invoice, err := s.invoiceRepo.FindByIDForTenant(ctx, tenantID, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("failed to load invoice: %w", err)
	}
	if invoice == nil {
		return nil, shared.NewDomainError("INVOICE_NOT_FOUND", "Invoice not found")
	}

	switch action {
	case StatusActionCancel:
		invoice.Cancel()
	case StatusActionMarkPaid:
		if err := invoice.MarkPaid(); err != nil {
			return nil, err
		}
	case StatusActionMarkUnpaid:
		if err := invoice.MarkUnpaid(); err != nil {
			return nil, err
		}
	}

	if err := s.invoiceRepo.SaveWithLock(ctx, invoice); err != nil {
		return nil, fmt.Errorf("failed to save invoice: %w", err)
	}
	return invoice, nil
}

// GetInvoice loads one invoice for the tenant
func (s *InvoiceService) GetInvoice(ctx context.Context, tenantID, invoiceID uuid.UUID) (*fees.Invoice, error) {
	invoice, err := s.invoiceRepo.FindByIDForTenant(ctx, tenantID, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("failed to load invoice: %w", err)
	}
	if invoice == nil {
		return nil, shared.NewDomainError("INVOICE_NOT_FOUND", "Invoice not found")
	}
	return invoice, nil
}

// ListInvoices lists invoices for a tenant with filtering and paging
func (s *InvoiceService) ListInvoices(ctx context.Context, tenantID uuid.UUID, filter fees.InvoiceFilter) (*shared.Paginated[fees.Invoice], error) {
	invoices, err := s.invoiceRepo.FindAllForTenant(ctx, tenantID, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list invoices: %w", err)
	}
	total, err := s.invoiceRepo.CountForTenant(ctx, tenantID, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to count invoices: %w", err)
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize < 1 {
		pageSize = 20
	}
	result := shared.NewPaginated(invoices, total, page, pageSize)
	return &result, nil
}
