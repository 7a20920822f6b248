package exams

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"

	domexams "github.com/schoolerp/backend/internal/domain/exams"
	"github.com/schoolerp/backend/internal/domain/school"
	"github.com/schoolerp/backend/internal/domain/shared"
)

// GazetteService aggregates exam marks into a class gazette
type GazetteService struct {
	examRepo    domexams.ExamRepository
	markRepo    domexams.MarkRepository
	scaleRepo   domexams.GradingScaleRepository
	studentRepo school.StudentRepository
}

// NewGazetteService creates a new GazetteService
func NewGazetteService(
	examRepo domexams.ExamRepository,
	markRepo domexams.MarkRepository,
	scaleRepo domexams.GradingScaleRepository,
	studentRepo school.StudentRepository,
) *GazetteService {
	return &GazetteService{
		examRepo:    examRepo,
		markRepo:    markRepo,
		scaleRepo:   scaleRepo,
		studentRepo: studentRepo,
	}
}

// Gazette is the full class result sheet for one exam, ranked by total
// score descending.
type Gazette struct {
	ExamID   uuid.UUID             `json:"exam_id"`
	ExamName string                `json:"exam_name"`
	Rows     []domexams.GazetteRow `json:"rows"`
}

// BuildGazette resolves the grading scale, aggregates every student's
// marks and classifies each percentage into its grade band. Students
// enrolled in the class but without marks appear with zero totals.
func (s *GazetteService) BuildGazette(ctx context.Context, tenantID, examID, scaleID uuid.UUID) (*Gazette, error) {
	exam, err := s.examRepo.FindByIDForTenant(ctx, tenantID, examID)
	if err != nil {
		return nil, fmt.Errorf("failed to load exam: %w", err)
	}
	if exam == nil {
		return nil, shared.NewDomainError("EXAM_NOT_FOUND", "Exam not found")
	}

	scale, err := s.scaleRepo.FindByIDForTenant(ctx, tenantID, scaleID)
	if err != nil {
		return nil, fmt.Errorf("failed to load grading scale: %w", err)
	}
	if scale == nil {
		return nil, shared.NewDomainError("SCALE_NOT_FOUND", "Grading scale not found")
	}

	students, err := s.studentRepo.FindActiveByClass(ctx, tenantID, exam.ClassID)
	if err != nil {
		return nil, fmt.Errorf("failed to load students: %w", err)
	}

	marks, err := s.markRepo.FindByExam(ctx, tenantID, examID)
	if err != nil {
		return nil, fmt.Errorf("failed to load marks: %w", err)
	}

	marksByStudent := make(map[uuid.UUID][]domexams.Mark)
	for _, m := range marks {
		marksByStudent[m.StudentID] = append(marksByStudent[m.StudentID], m)
	}

	rows := make([]domexams.GazetteRow, 0, len(students))
	for _, student := range students {
		rows = append(rows, domexams.BuildGazetteRow(
			student.ID,
			student.FullName(),
			student.AdmissionNo,
			marksByStudent[student.ID],
			scale,
		))
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Total.GreaterThan(rows[j].Total)
	})

	return &Gazette{
		ExamID:   exam.ID,
		ExamName: exam.Name,
		Rows:     rows,
	}, nil
}
