package models

import (
	"github.com/google/uuid"

	"github.com/schoolerp/backend/internal/domain/school"
)

// StudentModel is the persistence model for the Student aggregate root.
type StudentModel struct {
	TenantAggregateModel
	FirstName   string    `gorm:"type:varchar(100);not null"`
	LastName    string    `gorm:"type:varchar(100)"`
	AdmissionNo string    `gorm:"type:varchar(50);not null;uniqueIndex:idx_student_tenant_admission,priority:2"`
	ClassID     uuid.UUID `gorm:"type:uuid;not null;index"`
	Active      bool      `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (StudentModel) TableName() string {
	return "students"
}

// ToDomain converts the persistence model to a domain Student entity.
func (m *StudentModel) ToDomain() *school.Student {
	student := &school.Student{
		FirstName:   m.FirstName,
		LastName:    m.LastName,
		AdmissionNo: m.AdmissionNo,
		ClassID:     m.ClassID,
		Active:      m.Active,
	}
	m.PopulateTenantAggregateRoot(&student.TenantAggregateRoot)
	return student
}

// FromDomain populates the persistence model from a domain Student entity.
func (m *StudentModel) FromDomain(student *school.Student) {
	m.FromDomainTenantAggregateRoot(student.TenantAggregateRoot)
	m.FirstName = student.FirstName
	m.LastName = student.LastName
	m.AdmissionNo = student.AdmissionNo
	m.ClassID = student.ClassID
	m.Active = student.Active
}

// ParentModel is the persistence model for guardian accounts.
type ParentModel struct {
	TenantAggregateModel
	FirstName string `gorm:"type:varchar(100);not null"`
	LastName  string `gorm:"type:varchar(100)"`
	Phone     string `gorm:"type:varchar(30);index"`
}

// TableName returns the table name for GORM
func (ParentModel) TableName() string {
	return "parents"
}

// ToDomain converts the persistence model to a domain Parent entity.
func (m *ParentModel) ToDomain() *school.Parent {
	parent := &school.Parent{
		FirstName: m.FirstName,
		LastName:  m.LastName,
		Phone:     m.Phone,
	}
	m.PopulateTenantAggregateRoot(&parent.TenantAggregateRoot)
	return parent
}

// FromDomain populates the persistence model from a domain Parent entity.
func (m *ParentModel) FromDomain(parent *school.Parent) {
	m.FromDomainTenantAggregateRoot(parent.TenantAggregateRoot)
	m.FirstName = parent.FirstName
	m.LastName = parent.LastName
	m.Phone = parent.Phone
}

// KinshipModel is the persistence model for parent-student links.
type KinshipModel struct {
	TenantAggregateModel
	ParentID  uuid.UUID          `gorm:"type:uuid;not null;index"`
	StudentID uuid.UUID          `gorm:"type:uuid;not null;index"`
	Type      school.KinshipType `gorm:"type:varchar(20);not null"`
	IsPrimary bool               `gorm:"not null"`
}

// TableName returns the table name for GORM
func (KinshipModel) TableName() string {
	return "kinships"
}

// ToDomain converts the persistence model to a domain Kinship entity.
func (m *KinshipModel) ToDomain() *school.Kinship {
	kinship := &school.Kinship{
		ParentID:  m.ParentID,
		StudentID: m.StudentID,
		Type:      m.Type,
		IsPrimary: m.IsPrimary,
	}
	m.PopulateTenantAggregateRoot(&kinship.TenantAggregateRoot)
	return kinship
}

// FromDomain populates the persistence model from a domain Kinship entity.
func (m *KinshipModel) FromDomain(kinship *school.Kinship) {
	m.FromDomainTenantAggregateRoot(kinship.TenantAggregateRoot)
	m.ParentID = kinship.ParentID
	m.StudentID = kinship.StudentID
	m.Type = kinship.Type
	m.IsPrimary = kinship.IsPrimary
}
