package fees

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/schoolerp/backend/internal/domain/shared"
	"github.com/schoolerp/backend/internal/domain/shared/valueobject"
)

// FeeHeadType distinguishes recurring charges from one-time ones
type FeeHeadType string

const (
	FeeHeadTypeRecurring FeeHeadType = "RECURRING" // Billed every period (e.g. tuition)
	FeeHeadTypeOneTime   FeeHeadType = "ONE_TIME"  // Billed once (e.g. admission fee)
)

// IsValid checks if the fee head type is valid
func (t FeeHeadType) IsValid() bool {
	return t == FeeHeadTypeRecurring || t == FeeHeadTypeOneTime
}

// ArrearsFeeHeadName is the reserved fee head used for rolled-up prior dues.
// Matching is case-insensitive.
const ArrearsFeeHeadName = "Arrears"

// FeeHead is a named category of charge (tuition, transport, etc.)
// owned by a school.
type FeeHead struct {
	shared.TenantAggregateRoot
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Type        FeeHeadType `json:"type"`
	Active      bool        `json:"active"`
}

// NewFeeHead creates a new fee head for a school
func NewFeeHead(tenantID uuid.UUID, name, description string, headType FeeHeadType) (*FeeHead, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewDomainError("INVALID_FEE_HEAD_NAME", "Fee head name cannot be empty")
	}
	if len(name) > 100 {
		return nil, shared.NewDomainError("INVALID_FEE_HEAD_NAME", "Fee head name cannot exceed 100 characters")
	}
	if !headType.IsValid() {
		return nil, shared.NewDomainError("INVALID_FEE_HEAD_TYPE", "Fee head type is not valid")
	}

	return &FeeHead{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Name:                name,
		Description:         description,
		Type:                headType,
		Active:              true,
	}, nil
}

// NewArrearsFeeHead creates the reserved fee head for prior-dues roll-up
func NewArrearsFeeHead(tenantID uuid.UUID) *FeeHead {
	return &FeeHead{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Name:                ArrearsFeeHeadName,
		Description:         "Outstanding balance carried over from prior invoices",
		Type:                FeeHeadTypeOneTime,
		Active:              true,
	}
}

// IsArrears returns true if this is the reserved arrears fee head
func (f *FeeHead) IsArrears() bool {
	return strings.EqualFold(f.Name, ArrearsFeeHeadName)
}

// Rename updates the fee head name
func (f *FeeHead) Rename(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return shared.NewDomainError("INVALID_FEE_HEAD_NAME", "Fee head name cannot be empty")
	}
	f.Name = name
	f.UpdatedAt = time.Now()
	f.IncrementVersion()
	return nil
}

// Deactivate marks the fee head inactive; it stops appearing in new structures
// but existing invoice lines keep referencing it.
func (f *FeeHead) Deactivate() {
	f.Active = false
	f.UpdatedAt = time.Now()
	f.IncrementVersion()
}

// FeeStructure is the default amount charged for one fee head in one class.
// Unique per (class, fee head) within a school.
type FeeStructure struct {
	shared.TenantAggregateRoot
	ClassID   uuid.UUID            `json:"class_id"`
	FeeHeadID uuid.UUID            `json:"fee_head_id"`
	Amount    decimal.Decimal      `json:"amount"`
	Currency  valueobject.Currency `json:"currency"`
}

// NewFeeStructure creates a class-level fee amount for a fee head
func NewFeeStructure(tenantID, classID, feeHeadID uuid.UUID, amount valueobject.Money) (*FeeStructure, error) {
	if classID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_CLASS", "Class ID cannot be empty")
	}
	if feeHeadID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_FEE_HEAD", "Fee head ID cannot be empty")
	}
	if amount.IsNegative() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Fee amount cannot be negative")
	}

	return &FeeStructure{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		ClassID:             classID,
		FeeHeadID:           feeHeadID,
		Amount:              amount.Amount(),
		Currency:            amount.Currency(),
	}, nil
}

// GetAmountMoney returns the fee amount as Money
func (s *FeeStructure) GetAmountMoney() valueobject.Money {
	m, _ := valueobject.NewMoney(s.Amount, s.Currency)
	return m
}

// UpdateAmount changes the billed amount for this class/fee head
func (s *FeeStructure) UpdateAmount(amount valueobject.Money) error {
	if amount.IsNegative() {
		return shared.NewDomainError("INVALID_AMOUNT", "Fee amount cannot be negative")
	}
	s.Amount = amount.Amount()
	s.Currency = amount.Currency()
	s.UpdatedAt = time.Now()
	s.IncrementVersion()
	return nil
}

// StudentFeeItem is one line of a per-student fee override
type StudentFeeItem struct {
	FeeHeadID uuid.UUID       `json:"fee_head_id"`
	Amount    decimal.Decimal `json:"amount"`
}

// StudentFeeItems is a slice of StudentFeeItem stored as JSONB
type StudentFeeItems []StudentFeeItem

// Value implements driver.Valuer for JSONB storage
func (items StudentFeeItems) Value() (driver.Value, error) {
	if items == nil {
		return "[]", nil
	}
	return json.Marshal(items)
}

// Scan implements sql.Scanner for JSONB retrieval
func (items *StudentFeeItems) Scan(value interface{}) error {
	if value == nil {
		*items = StudentFeeItems{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New("failed to scan StudentFeeItems: unsupported type")
	}

	if len(bytes) == 0 {
		*items = StudentFeeItems{}
		return nil
	}

	return json.Unmarshal(bytes, items)
}

// StudentFeeStructure is an optional per-student override of the class
// defaults. When present and non-empty it fully replaces the class
// structure for that student's invoices.
type StudentFeeStructure struct {
	shared.TenantAggregateRoot
	StudentID uuid.UUID       `json:"student_id"`
	Items     StudentFeeItems `json:"items"`
}

// NewStudentFeeStructure creates a per-student fee override
func NewStudentFeeStructure(tenantID, studentID uuid.UUID, items []StudentFeeItem) (*StudentFeeStructure, error) {
	if studentID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_STUDENT", "Student ID cannot be empty")
	}
	for _, item := range items {
		if item.FeeHeadID == uuid.Nil {
			return nil, shared.NewDomainError("INVALID_FEE_HEAD", "Override item fee head ID cannot be empty")
		}
		if item.Amount.IsNegative() {
			return nil, shared.NewDomainError("INVALID_AMOUNT", "Override item amount cannot be negative")
		}
	}

	return &StudentFeeStructure{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		StudentID:           studentID,
		Items:               items,
	}, nil
}

// HasItems returns true if the override carries at least one line
func (s *StudentFeeStructure) HasItems() bool {
	return len(s.Items) > 0
}

// ReplaceItems swaps the override lines
func (s *StudentFeeStructure) ReplaceItems(items []StudentFeeItem) error {
	for _, item := range items {
		if item.FeeHeadID == uuid.Nil {
			return shared.NewDomainError("INVALID_FEE_HEAD", "Override item fee head ID cannot be empty")
		}
		if item.Amount.IsNegative() {
			return shared.NewDomainError("INVALID_AMOUNT", "Override item amount cannot be negative")
		}
	}
	s.Items = items
	s.UpdatedAt = time.Now()
	s.IncrementVersion()
	return nil
}
