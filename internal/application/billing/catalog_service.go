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

// CatalogService manages the fee catalog: fee heads, class structures,
// per-student overrides, discounts and their assignments.
type CatalogService struct {
	feeHeadRepo   fees.FeeHeadRepository
	structureRepo fees.FeeStructureRepository
	overrideRepo  fees.StudentFeeStructureRepository
	discountRepo  fees.DiscountRepository
	studentRepo   school.StudentRepository
}

// NewCatalogService creates a new CatalogService
func NewCatalogService(
	feeHeadRepo fees.FeeHeadRepository,
	structureRepo fees.FeeStructureRepository,
	overrideRepo fees.StudentFeeStructureRepository,
	discountRepo fees.DiscountRepository,
	studentRepo school.StudentRepository,
) *CatalogService {
	return &CatalogService{
		feeHeadRepo:   feeHeadRepo,
		structureRepo: structureRepo,
		overrideRepo:  overrideRepo,
		discountRepo:  discountRepo,
		studentRepo:   studentRepo,
	}
}

// CreateFeeHead adds a fee head to the school's catalog
func (s *CatalogService) CreateFeeHead(ctx context.Context, tenantID uuid.UUID, name, description string, headType fees.FeeHeadType) (*fees.FeeHead, error) {
	existing, err := s.feeHeadRepo.FindByName(ctx, tenantID, name)
	if err != nil {
		return nil, fmt.Errorf("failed to check fee head name: %w", err)
	}
	if existing != nil {
		return nil, shared.NewDomainError("FEE_HEAD_EXISTS", fmt.Sprintf("Fee head %q already exists", existing.Name))
	}

	head, err := fees.NewFeeHead(tenantID, name, description, headType)
	if err != nil {
		return nil, err
	}
	if err := s.feeHeadRepo.Save(ctx, head); err != nil {
		return nil, fmt.Errorf("failed to save fee head: %w", err)
	}
	return head, nil
}

// ListFeeHeads lists the school's fee heads
func (s *CatalogService) ListFeeHeads(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]fees.FeeHead, error) {
	return s.feeHeadRepo.FindAllForTenant(ctx, tenantID, filter)
}

// SetClassFee creates or updates the amount billed for one fee head in
// one class.
func (s *CatalogService) SetClassFee(ctx context.Context, tenantID, classID, feeHeadID uuid.UUID, amount decimal.Decimal) (*fees.FeeStructure, error) {
	head, err := s.feeHeadRepo.FindByIDForTenant(ctx, tenantID, feeHeadID)
	if err != nil {
		return nil, fmt.Errorf("failed to load fee head: %w", err)
	}
	if head == nil {
		return nil, shared.NewDomainError("FEE_HEAD_NOT_FOUND", "Fee head not found")
	}

	money, err := valueobject.NewMoney(amount, valueobject.DefaultCurrency)
	if err != nil {
		return nil, shared.NewDomainError("INVALID_AMOUNT", err.Error())
	}

	existing, err := s.structureRepo.FindByClassAndFeeHead(ctx, tenantID, classID, feeHeadID)
	if err != nil {
		return nil, fmt.Errorf("failed to check fee structure: %w", err)
	}
	if existing != nil {
		if err := existing.UpdateAmount(money); err != nil {
			return nil, err
		}
		if err := s.structureRepo.Save(ctx, existing); err != nil {
			return nil, fmt.Errorf("failed to save fee structure: %w", err)
		}
		return existing, nil
	}

	structure, err := fees.NewFeeStructure(tenantID, classID, feeHeadID, money)
	if err != nil {
		return nil, err
	}
	if err := s.structureRepo.Save(ctx, structure); err != nil {
		return nil, fmt.Errorf("failed to save fee structure: %w", err)
	}
	return structure, nil
}

// ClassFees lists the fee structure rows for a class
func (s *CatalogService) ClassFees(ctx context.Context, tenantID, classID uuid.UUID) ([]fees.FeeStructure, error) {
	return s.structureRepo.FindByClass(ctx, tenantID, classID)
}

// SetStudentOverride replaces a student's personal fee structure
func (s *CatalogService) SetStudentOverride(ctx context.Context, tenantID, studentID uuid.UUID, items []fees.StudentFeeItem) (*fees.StudentFeeStructure, error) {
	student, err := s.studentRepo.FindByIDForTenant(ctx, tenantID, studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load student: %w", err)
	}
	if student == nil {
		return nil, shared.NewDomainError("STUDENT_NOT_FOUND", "Student not found")
	}

	existing, err := s.overrideRepo.FindByStudent(ctx, tenantID, studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to check fee override: %w", err)
	}
	if existing != nil {
		if err := existing.ReplaceItems(items); err != nil {
			return nil, err
		}
		if err := s.overrideRepo.Save(ctx, existing); err != nil {
			return nil, fmt.Errorf("failed to save fee override: %w", err)
		}
		return existing, nil
	}

	override, err := fees.NewStudentFeeStructure(tenantID, studentID, items)
	if err != nil {
		return nil, err
	}
	if err := s.overrideRepo.Save(ctx, override); err != nil {
		return nil, fmt.Errorf("failed to save fee override: %w", err)
	}
	return override, nil
}

// CreateDiscount adds a discount targeting one fee head
func (s *CatalogService) CreateDiscount(ctx context.Context, tenantID uuid.UUID, name string, discountType fees.DiscountType, value decimal.Decimal, feeHeadID uuid.UUID) (*fees.Discount, error) {
	head, err := s.feeHeadRepo.FindByIDForTenant(ctx, tenantID, feeHeadID)
	if err != nil {
		return nil, fmt.Errorf("failed to load fee head: %w", err)
	}
	if head == nil {
		return nil, shared.NewDomainError("FEE_HEAD_NOT_FOUND", "Fee head not found")
	}

	discount, err := fees.NewDiscount(tenantID, name, discountType, value, feeHeadID)
	if err != nil {
		return nil, err
	}
	if err := s.discountRepo.Save(ctx, discount); err != nil {
		return nil, fmt.Errorf("failed to save discount: %w", err)
	}
	return discount, nil
}

// ListDiscounts lists the school's discounts
func (s *CatalogService) ListDiscounts(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]fees.Discount, error) {
	return s.discountRepo.FindAllForTenant(ctx, tenantID, filter)
}

// AssignDiscount links a discount to a student. A student can hold at
// most one active discount per fee head; assigning a second one for the
// same fee head is rejected rather than silently picking a winner at
// invoice time.
func (s *CatalogService) AssignDiscount(ctx context.Context, tenantID, studentID, discountID uuid.UUID) (*fees.StudentDiscount, error) {
	student, err := s.studentRepo.FindByIDForTenant(ctx, tenantID, studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load student: %w", err)
	}
	if student == nil {
		return nil, shared.NewDomainError("STUDENT_NOT_FOUND", "Student not found")
	}

	discount, err := s.discountRepo.FindByIDForTenant(ctx, tenantID, discountID)
	if err != nil {
		return nil, fmt.Errorf("failed to load discount: %w", err)
	}
	if discount == nil {
		return nil, shared.NewDomainError("DISCOUNT_NOT_FOUND", "Discount not found")
	}
	if !discount.Active {
		return nil, shared.NewDomainError("DISCOUNT_INACTIVE", "Discount is no longer active")
	}

	conflict, err := s.discountRepo.FindAssignment(ctx, tenantID, studentID, discount.FeeHeadID)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing assignments: %w", err)
	}
	if conflict != nil {
		return nil, shared.NewDomainError("DISCOUNT_CONFLICT",
			"Student already has an active discount for this fee head")
	}

	assignment, err := fees.NewStudentDiscount(tenantID, studentID, discountID)
	if err != nil {
		return nil, err
	}
	if err := s.discountRepo.SaveAssignment(ctx, assignment); err != nil {
		return nil, fmt.Errorf("failed to save assignment: %w", err)
	}
	return assignment, nil
}

// RevokeDiscount deactivates a student's discount assignment for the
// fee head the discount targets.
func (s *CatalogService) RevokeDiscount(ctx context.Context, tenantID, studentID, discountID uuid.UUID) error {
	discount, err := s.discountRepo.FindByIDForTenant(ctx, tenantID, discountID)
	if err != nil {
		return fmt.Errorf("failed to load discount: %w", err)
	}
	if discount == nil {
		return shared.NewDomainError("DISCOUNT_NOT_FOUND", "Discount not found")
	}

	assignment, err := s.discountRepo.FindAssignment(ctx, tenantID, studentID, discount.FeeHeadID)
	if err != nil {
		return fmt.Errorf("failed to load assignment: %w", err)
	}
	if assignment == nil || assignment.DiscountID != discountID {
		return shared.NewDomainError("ASSIGNMENT_NOT_FOUND", "Student does not hold this discount")
	}

	assignment.Revoke()
	if err := s.discountRepo.SaveAssignment(ctx, assignment); err != nil {
		return fmt.Errorf("failed to save assignment: %w", err)
	}
	return nil
}
