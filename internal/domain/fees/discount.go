package fees

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/schoolerp/backend/internal/domain/shared"
)

// DiscountType represents how a discount value is interpreted
type DiscountType string

const (
	DiscountTypePercentage DiscountType = "PERCENTAGE" // value is a percent of the original amount
	DiscountTypeFlat       DiscountType = "FLAT"       // value is an absolute amount
)

// IsValid checks if the discount type is valid
func (t DiscountType) IsValid() bool {
	return t == DiscountTypePercentage || t == DiscountTypeFlat
}

// String returns the string representation of DiscountType
func (t DiscountType) String() string {
	return string(t)
}

// Discount is a reduction applied to a single fee head, scoped to a school.
// Students are linked to discounts through StudentDiscount assignments.
type Discount struct {
	shared.TenantAggregateRoot
	Name      string          `json:"name"`
	Type      DiscountType    `json:"type"`
	Value     decimal.Decimal `json:"value"`
	FeeHeadID uuid.UUID       `json:"fee_head_id"`
	Active    bool            `json:"active"`
}

// NewDiscount creates a new discount for a school
func NewDiscount(tenantID uuid.UUID, name string, discountType DiscountType, value decimal.Decimal, feeHeadID uuid.UUID) (*Discount, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewDomainError("INVALID_DISCOUNT_NAME", "Discount name cannot be empty")
	}
	if !discountType.IsValid() {
		return nil, shared.NewDomainError("INVALID_DISCOUNT_TYPE", "Discount type is not valid")
	}
	if value.IsNegative() {
		return nil, shared.NewDomainError("INVALID_DISCOUNT_VALUE", "Discount value cannot be negative")
	}
	if discountType == DiscountTypePercentage && value.GreaterThan(decimal.NewFromInt(100)) {
		return nil, shared.NewDomainError("INVALID_DISCOUNT_VALUE", "Percentage discount cannot exceed 100")
	}
	if feeHeadID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_FEE_HEAD", "Discount must target a fee head")
	}

	return &Discount{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Name:                name,
		Type:                discountType,
		Value:               value,
		FeeHeadID:           feeHeadID,
		Active:              true,
	}, nil
}

// Deactivate retires the discount; existing invoice lines are unaffected
func (d *Discount) Deactivate() {
	d.Active = false
	d.UpdatedAt = time.Now()
	d.IncrementVersion()
}

// StudentDiscount assigns a discount to a specific student.
// At most one active assignment per (student, fee head) is allowed;
// the catalog service enforces this at assignment time.
type StudentDiscount struct {
	shared.TenantAggregateRoot
	StudentID  uuid.UUID `json:"student_id"`
	DiscountID uuid.UUID `json:"discount_id"`
	Active     bool      `json:"active"`
}

// NewStudentDiscount assigns a discount to a student
func NewStudentDiscount(tenantID, studentID, discountID uuid.UUID) (*StudentDiscount, error) {
	if studentID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_STUDENT", "Student ID cannot be empty")
	}
	if discountID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_DISCOUNT", "Discount ID cannot be empty")
	}
	return &StudentDiscount{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		StudentID:           studentID,
		DiscountID:          discountID,
		Active:              true,
	}, nil
}

// Revoke deactivates the assignment
func (sd *StudentDiscount) Revoke() {
	sd.Active = false
	sd.UpdatedAt = time.Now()
	sd.IncrementVersion()
}

// ComputeDiscount returns the discount amount for an original charge.
// A nil discount yields zero. The result is clamped to [0, originalAmount]
// so the net amount can never go negative.
func ComputeDiscount(originalAmount decimal.Decimal, discount *Discount) decimal.Decimal {
	if discount == nil || originalAmount.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}

	var raw decimal.Decimal
	switch discount.Type {
	case DiscountTypePercentage:
		raw = originalAmount.Mul(discount.Value).Div(decimal.NewFromInt(100))
	case DiscountTypeFlat:
		raw = discount.Value
	default:
		return decimal.Zero
	}

	if raw.IsNegative() {
		return decimal.Zero
	}
	return decimal.Min(raw, originalAmount)
}
