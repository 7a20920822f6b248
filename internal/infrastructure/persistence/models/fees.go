package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/schoolerp/backend/internal/domain/fees"
	"github.com/schoolerp/backend/internal/domain/shared/valueobject"
)

// FeeHeadModel is the persistence model for the FeeHead aggregate root.
type FeeHeadModel struct {
	TenantAggregateModel
	Name        string           `gorm:"type:varchar(100);not null;uniqueIndex:idx_fee_head_tenant_name,priority:2"`
	Description string           `gorm:"type:text"`
	Type        fees.FeeHeadType `gorm:"type:varchar(20);not null"`
	Active      bool             `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (FeeHeadModel) TableName() string {
	return "fee_heads"
}

// ToDomain converts the persistence model to a domain FeeHead entity.
func (m *FeeHeadModel) ToDomain() *fees.FeeHead {
	head := &fees.FeeHead{
		Name:        m.Name,
		Description: m.Description,
		Type:        m.Type,
		Active:      m.Active,
	}
	m.PopulateTenantAggregateRoot(&head.TenantAggregateRoot)
	return head
}

// FromDomain populates the persistence model from a domain FeeHead entity.
func (m *FeeHeadModel) FromDomain(head *fees.FeeHead) {
	m.FromDomainTenantAggregateRoot(head.TenantAggregateRoot)
	m.Name = head.Name
	m.Description = head.Description
	m.Type = head.Type
	m.Active = head.Active
}

// FeeStructureModel is the persistence model for class-level fee amounts.
// One row per (tenant, class, fee head).
type FeeStructureModel struct {
	TenantAggregateModel
	ClassID   uuid.UUID            `gorm:"type:uuid;not null;uniqueIndex:idx_fee_structure_class_head,priority:2"`
	FeeHeadID uuid.UUID            `gorm:"type:uuid;not null;uniqueIndex:idx_fee_structure_class_head,priority:3"`
	Amount    decimal.Decimal      `gorm:"type:decimal(18,4);not null"`
	Currency  valueobject.Currency `gorm:"type:varchar(3);not null;default:'UGX'"`
}

// TableName returns the table name for GORM
func (FeeStructureModel) TableName() string {
	return "fee_structures"
}

// ToDomain converts the persistence model to a domain FeeStructure entity.
func (m *FeeStructureModel) ToDomain() *fees.FeeStructure {
	structure := &fees.FeeStructure{
		ClassID:   m.ClassID,
		FeeHeadID: m.FeeHeadID,
		Amount:    m.Amount,
		Currency:  m.Currency,
	}
	m.PopulateTenantAggregateRoot(&structure.TenantAggregateRoot)
	return structure
}

// FromDomain populates the persistence model from a domain FeeStructure entity.
func (m *FeeStructureModel) FromDomain(structure *fees.FeeStructure) {
	m.FromDomainTenantAggregateRoot(structure.TenantAggregateRoot)
	m.ClassID = structure.ClassID
	m.FeeHeadID = structure.FeeHeadID
	m.Amount = structure.Amount
	m.Currency = structure.Currency
}

// StudentFeeStructureModel is the persistence model for per-student fee
// overrides. At most one row per (tenant, student).
type StudentFeeStructureModel struct {
	TenantAggregateModel
	StudentID uuid.UUID            `gorm:"type:uuid;not null;uniqueIndex:idx_student_fee_structure,priority:2"`
	Items     fees.StudentFeeItems `gorm:"type:jsonb;default:'[]'"`
}

// TableName returns the table name for GORM
func (StudentFeeStructureModel) TableName() string {
	return "student_fee_structures"
}

// ToDomain converts the persistence model to a domain StudentFeeStructure entity.
func (m *StudentFeeStructureModel) ToDomain() *fees.StudentFeeStructure {
	structure := &fees.StudentFeeStructure{
		StudentID: m.StudentID,
		Items:     m.Items,
	}
	m.PopulateTenantAggregateRoot(&structure.TenantAggregateRoot)
	return structure
}

// FromDomain populates the persistence model from a domain StudentFeeStructure entity.
func (m *StudentFeeStructureModel) FromDomain(structure *fees.StudentFeeStructure) {
	m.FromDomainTenantAggregateRoot(structure.TenantAggregateRoot)
	m.StudentID = structure.StudentID
	m.Items = structure.Items
}

// DiscountModel is the persistence model for the Discount aggregate root.
type DiscountModel struct {
	TenantAggregateModel
	Name      string            `gorm:"type:varchar(100);not null"`
	Type      fees.DiscountType `gorm:"type:varchar(20);not null"`
	Value     decimal.Decimal   `gorm:"type:decimal(18,4);not null"`
	FeeHeadID uuid.UUID         `gorm:"type:uuid;not null;index"`
	Active    bool              `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (DiscountModel) TableName() string {
	return "discounts"
}

// ToDomain converts the persistence model to a domain Discount entity.
func (m *DiscountModel) ToDomain() *fees.Discount {
	discount := &fees.Discount{
		Name:      m.Name,
		Type:      m.Type,
		Value:     m.Value,
		FeeHeadID: m.FeeHeadID,
		Active:    m.Active,
	}
	m.PopulateTenantAggregateRoot(&discount.TenantAggregateRoot)
	return discount
}

// FromDomain populates the persistence model from a domain Discount entity.
func (m *DiscountModel) FromDomain(discount *fees.Discount) {
	m.FromDomainTenantAggregateRoot(discount.TenantAggregateRoot)
	m.Name = discount.Name
	m.Type = discount.Type
	m.Value = discount.Value
	m.FeeHeadID = discount.FeeHeadID
	m.Active = discount.Active
}

// StudentDiscountModel is the persistence model for discount assignments.
type StudentDiscountModel struct {
	TenantAggregateModel
	StudentID  uuid.UUID `gorm:"type:uuid;not null;index:idx_student_discount_student"`
	DiscountID uuid.UUID `gorm:"type:uuid;not null;index"`
	Active     bool      `gorm:"not null"`
}

// TableName returns the table name for GORM
func (StudentDiscountModel) TableName() string {
	return "student_discounts"
}

// ToDomain converts the persistence model to a domain StudentDiscount entity.
func (m *StudentDiscountModel) ToDomain() *fees.StudentDiscount {
	assignment := &fees.StudentDiscount{
		StudentID:  m.StudentID,
		DiscountID: m.DiscountID,
		Active:     m.Active,
	}
	m.PopulateTenantAggregateRoot(&assignment.TenantAggregateRoot)
	return assignment
}

// FromDomain populates the persistence model from a domain StudentDiscount entity.
func (m *StudentDiscountModel) FromDomain(assignment *fees.StudentDiscount) {
	m.FromDomainTenantAggregateRoot(assignment.TenantAggregateRoot)
	m.StudentID = assignment.StudentID
	m.DiscountID = assignment.DiscountID
	m.Active = assignment.Active
}

// InvoiceModel is the persistence model for the Invoice aggregate root.
// The duplicate-period guarantee is enforced by a partial unique index on
// (tenant_id, student_id, month, year) over non-cancelled rows, created
// by the schema migrations.
type InvoiceModel struct {
	TenantAggregateModel
	InvoiceNo      string               `gorm:"type:varchar(50);not null;uniqueIndex:idx_invoice_tenant_no,priority:2"`
	StudentID      uuid.UUID            `gorm:"type:uuid;not null;index"`
	StudentName    string               `gorm:"type:varchar(200);not null"`
	Month          int                  `gorm:"not null"`
	Year           int                  `gorm:"not null"`
	DueDate        time.Time            `gorm:"not null;index"`
	Items          fees.InvoiceItems    `gorm:"type:jsonb;default:'[]'"`
	TotalAmount    decimal.Decimal      `gorm:"type:decimal(18,4);not null"`
	PaidAmount     decimal.Decimal      `gorm:"type:decimal(18,4);not null"`
	Status         fees.InvoiceStatus   `gorm:"type:varchar(20);not null;default:'UNPAID';index"`
	Currency       valueobject.Currency `gorm:"type:varchar(3);not null;default:'UGX'"`
	PaymentRecords fees.PaymentRecords  `gorm:"type:jsonb;default:'[]'"`
	Remarks        string               `gorm:"type:text"`
	PaidAt         *time.Time
	CancelledAt    *time.Time
}

// TableName returns the table name for GORM
func (InvoiceModel) TableName() string {
	return "invoices"
}

// ToDomain converts the persistence model to a domain Invoice entity.
func (m *InvoiceModel) ToDomain() *fees.Invoice {
	invoice := &fees.Invoice{
		InvoiceNo:      m.InvoiceNo,
		StudentID:      m.StudentID,
		StudentName:    m.StudentName,
		Month:          m.Month,
		Year:           m.Year,
		DueDate:        m.DueDate,
		Items:          m.Items,
		TotalAmount:    m.TotalAmount,
		PaidAmount:     m.PaidAmount,
		Status:         m.Status,
		Currency:       m.Currency,
		PaymentRecords: m.PaymentRecords,
		Remarks:        m.Remarks,
		PaidAt:         m.PaidAt,
		CancelledAt:    m.CancelledAt,
	}
	m.PopulateTenantAggregateRoot(&invoice.TenantAggregateRoot)
	return invoice
}

// FromDomain populates the persistence model from a domain Invoice entity.
func (m *InvoiceModel) FromDomain(invoice *fees.Invoice) {
	m.FromDomainTenantAggregateRoot(invoice.TenantAggregateRoot)
	m.InvoiceNo = invoice.InvoiceNo
	m.StudentID = invoice.StudentID
	m.StudentName = invoice.StudentName
	m.Month = invoice.Month
	m.Year = invoice.Year
	m.DueDate = invoice.DueDate
	m.Items = invoice.Items
	m.TotalAmount = invoice.TotalAmount
	m.PaidAmount = invoice.PaidAmount
	m.Status = invoice.Status
	m.Currency = invoice.Currency
	m.PaymentRecords = invoice.PaymentRecords
	m.Remarks = invoice.Remarks
	m.PaidAt = invoice.PaidAt
	m.CancelledAt = invoice.CancelledAt
}

// InvoiceModelFromDomain creates a new persistence model from a domain Invoice.
func InvoiceModelFromDomain(invoice *fees.Invoice) *InvoiceModel {
	m := &InvoiceModel{}
	m.FromDomain(invoice)
	return m
}

// PaymentModel is the persistence model for the payment ledger.
// Rows are append-only.
type PaymentModel struct {
	TenantAggregateModel
	InvoiceID uuid.UUID            `gorm:"type:uuid;not null;index"`
	InvoiceNo string               `gorm:"type:varchar(50);not null"`
	StudentID uuid.UUID            `gorm:"type:uuid;not null;index"`
	Amount    decimal.Decimal      `gorm:"type:decimal(18,4);not null"`
	Currency  valueobject.Currency `gorm:"type:varchar(3);not null;default:'UGX'"`
	Method    fees.PaymentMethod   `gorm:"type:varchar(20);not null;index"`
	PaidAt    time.Time            `gorm:"not null;index"`
	Remarks   string               `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (PaymentModel) TableName() string {
	return "payments"
}

// ToDomain converts the persistence model to a domain Payment entity.
func (m *PaymentModel) ToDomain() *fees.Payment {
	payment := &fees.Payment{
		InvoiceID: m.InvoiceID,
		InvoiceNo: m.InvoiceNo,
		StudentID: m.StudentID,
		Amount:    m.Amount,
		Currency:  m.Currency,
		Method:    m.Method,
		PaidAt:    m.PaidAt,
		Remarks:   m.Remarks,
	}
	m.PopulateTenantAggregateRoot(&payment.TenantAggregateRoot)
	return payment
}

// FromDomain populates the persistence model from a domain Payment entity.
func (m *PaymentModel) FromDomain(payment *fees.Payment) {
	m.FromDomainTenantAggregateRoot(payment.TenantAggregateRoot)
	m.InvoiceID = payment.InvoiceID
	m.InvoiceNo = payment.InvoiceNo
	m.StudentID = payment.StudentID
	m.Amount = payment.Amount
	m.Currency = payment.Currency
	m.Method = payment.Method
	m.PaidAt = payment.PaidAt
	m.Remarks = payment.Remarks
}

// PaymentModelFromDomain creates a new persistence model from a domain Payment.
func PaymentModelFromDomain(payment *fees.Payment) *PaymentModel {
	m := &PaymentModel{}
	m.FromDomain(payment)
	return m
}
