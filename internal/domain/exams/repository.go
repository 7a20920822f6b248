package exams

import (
	"context"

	"github.com/google/uuid"
)

// ExamRepository defines the interface for exam persistence
type ExamRepository interface {
	// FindByIDForTenant finds an exam by ID, or nil if none exists
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Exam, error)

	// Save creates or updates an exam
	Save(ctx context.Context, exam *Exam) error
}

// MarkRepository defines the interface for exam marks
type MarkRepository interface {
	// FindByExam finds all marks recorded for an exam
	FindByExam(ctx context.Context, tenantID, examID uuid.UUID) ([]Mark, error)

	// FindByExamAndStudent finds one student's marks in an exam
	FindByExamAndStudent(ctx context.Context, tenantID, examID, studentID uuid.UUID) ([]Mark, error)

	// Save persists a mark
	Save(ctx context.Context, mark *Mark) error
}

// GradingScaleRepository defines the interface for grading scales
type GradingScaleRepository interface {
	// FindByIDForTenant finds a grading scale by ID, or nil if none exists
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*GradingScale, error)

	// Save creates or updates a grading scale
	Save(ctx context.Context, scale *GradingScale) error
}
