package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/schoolerp/backend/internal/domain/exams"
)

// ExamModel is the persistence model for the Exam aggregate root.
type ExamModel struct {
	TenantAggregateModel
	Name    string    `gorm:"type:varchar(200);not null"`
	ClassID uuid.UUID `gorm:"type:uuid;not null;index"`
	Year    int       `gorm:"not null"`
	HeldAt  time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (ExamModel) TableName() string {
	return "exams"
}

// ToDomain converts the persistence model to a domain Exam entity.
func (m *ExamModel) ToDomain() *exams.Exam {
	exam := &exams.Exam{
		Name:    m.Name,
		ClassID: m.ClassID,
		Year:    m.Year,
		HeldAt:  m.HeldAt,
	}
	m.PopulateTenantAggregateRoot(&exam.TenantAggregateRoot)
	return exam
}

// FromDomain populates the persistence model from a domain Exam entity.
func (m *ExamModel) FromDomain(exam *exams.Exam) {
	m.FromDomainTenantAggregateRoot(exam.TenantAggregateRoot)
	m.Name = exam.Name
	m.ClassID = exam.ClassID
	m.Year = exam.Year
	m.HeldAt = exam.HeldAt
}

// MarkModel is the persistence model for exam marks. One row per
// (exam, student, subject).
type MarkModel struct {
	TenantAggregateModel
	ExamID      uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_mark_exam_student_subject,priority:2"`
	StudentID   uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_mark_exam_student_subject,priority:3"`
	SubjectID   uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_mark_exam_student_subject,priority:4"`
	SubjectName string          `gorm:"type:varchar(100);not null"`
	Score       decimal.Decimal `gorm:"type:decimal(8,2);not null"`
	MaxScore    decimal.Decimal `gorm:"type:decimal(8,2);not null"`
}

// TableName returns the table name for GORM
func (MarkModel) TableName() string {
	return "marks"
}

// ToDomain converts the persistence model to a domain Mark entity.
func (m *MarkModel) ToDomain() *exams.Mark {
	mark := &exams.Mark{
		ExamID:      m.ExamID,
		StudentID:   m.StudentID,
		SubjectID:   m.SubjectID,
		SubjectName: m.SubjectName,
		Score:       m.Score,
		MaxScore:    m.MaxScore,
	}
	m.PopulateTenantAggregateRoot(&mark.TenantAggregateRoot)
	return mark
}

// FromDomain populates the persistence model from a domain Mark entity.
func (m *MarkModel) FromDomain(mark *exams.Mark) {
	m.FromDomainTenantAggregateRoot(mark.TenantAggregateRoot)
	m.ExamID = mark.ExamID
	m.StudentID = mark.StudentID
	m.SubjectID = mark.SubjectID
	m.SubjectName = mark.SubjectName
	m.Score = mark.Score
	m.MaxScore = mark.MaxScore
}

// GradingScaleModel is the persistence model for grading scales.
type GradingScaleModel struct {
	TenantAggregateModel
	Name  string           `gorm:"type:varchar(100);not null"`
	Bands exams.GradeBands `gorm:"type:jsonb;default:'[]'"`
}

// TableName returns the table name for GORM
func (GradingScaleModel) TableName() string {
	return "grading_scales"
}

// ToDomain converts the persistence model to a domain GradingScale entity.
func (m *GradingScaleModel) ToDomain() *exams.GradingScale {
	scale := &exams.GradingScale{
		Name:  m.Name,
		Bands: m.Bands,
	}
	m.PopulateTenantAggregateRoot(&scale.TenantAggregateRoot)
	return scale
}

// FromDomain populates the persistence model from a domain GradingScale entity.
func (m *GradingScaleModel) FromDomain(scale *exams.GradingScale) {
	m.FromDomainTenantAggregateRoot(scale.TenantAggregateRoot)
	m.Name = scale.Name
	m.Bands = scale.Bands
}
