package exams

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/schoolerp/backend/internal/domain/shared"
)

// Exam is a scheduled assessment for one class
type Exam struct {
	shared.TenantAggregateRoot
	Name    string    `json:"name"`
	ClassID uuid.UUID `json:"class_id"`
	Year    int       `json:"year"`
	HeldAt  time.Time `json:"held_at"`
}

// NewExam creates an exam record for a class
func NewExam(tenantID uuid.UUID, name string, classID uuid.UUID, year int, heldAt time.Time) (*Exam, error) {
	if name == "" {
		return nil, shared.NewDomainError("INVALID_EXAM_NAME", "Exam name cannot be empty")
	}
	if classID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_CLASS", "Class ID cannot be empty")
	}
	return &Exam{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Name:                name,
		ClassID:             classID,
		Year:                year,
		HeldAt:              heldAt,
	}, nil
}

// Mark is one student's score in one subject of an exam
type Mark struct {
	shared.TenantAggregateRoot
	ExamID      uuid.UUID       `json:"exam_id"`
	StudentID   uuid.UUID       `json:"student_id"`
	SubjectID   uuid.UUID       `json:"subject_id"`
	SubjectName string          `json:"subject_name"`
	Score       decimal.Decimal `json:"score"`
	MaxScore    decimal.Decimal `json:"max_score"`
}

// NewMark records a student's score in a subject
func NewMark(tenantID, examID, studentID, subjectID uuid.UUID, subjectName string, score, maxScore decimal.Decimal) (*Mark, error) {
	if examID == uuid.Nil || studentID == uuid.Nil || subjectID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_MARK", "Exam, student and subject IDs are required")
	}
	if maxScore.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_MARK", "Maximum score must be positive")
	}
	if score.IsNegative() || score.GreaterThan(maxScore) {
		return nil, shared.NewDomainError("INVALID_MARK", "Score must be between zero and the maximum score")
	}

	return &Mark{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		ExamID:              examID,
		StudentID:           studentID,
		SubjectID:           subjectID,
		SubjectName:         subjectName,
		Score:               score,
		MaxScore:            maxScore,
	}, nil
}

// SubjectResult is one subject line of a gazette row
type SubjectResult struct {
	SubjectID   uuid.UUID       `json:"subject_id"`
	SubjectName string          `json:"subject_name"`
	Score       decimal.Decimal `json:"score"`
	MaxScore    decimal.Decimal `json:"max_score"`
}

// GazetteRow is one student's aggregated exam result: subject scores,
// totals, overall percentage and the grade resolved from the scale.
type GazetteRow struct {
	StudentID   uuid.UUID       `json:"student_id"`
	StudentName string          `json:"student_name"`
	AdmissionNo string          `json:"admission_no"`
	Subjects    []SubjectResult `json:"subjects"`
	Total       decimal.Decimal `json:"total"`
	MaxTotal    decimal.Decimal `json:"max_total"`
	Percentage  decimal.Decimal `json:"percentage"`
	Grade       string          `json:"grade"`
	Remark      string          `json:"remark"`
}

// UngradedLabel marks a percentage no grade band covers
const UngradedLabel = "N/A"

// BuildGazetteRow aggregates one student's marks into a gazette row and
// classifies the overall percentage against the grading scale. A student
// with no marks gets zero totals; the zero percentage still classifies
// against the scale.
func BuildGazetteRow(studentID uuid.UUID, studentName, admissionNo string, marks []Mark, scale *GradingScale) GazetteRow {
	row := GazetteRow{
		StudentID:   studentID,
		StudentName: studentName,
		AdmissionNo: admissionNo,
		Subjects:    make([]SubjectResult, 0, len(marks)),
		Total:       decimal.Zero,
		MaxTotal:    decimal.Zero,
		Percentage:  decimal.Zero,
		Grade:       UngradedLabel,
	}

	for _, m := range marks {
		row.Subjects = append(row.Subjects, SubjectResult{
			SubjectID:   m.SubjectID,
			SubjectName: m.SubjectName,
			Score:       m.Score,
			MaxScore:    m.MaxScore,
		})
		row.Total = row.Total.Add(m.Score)
		row.MaxTotal = row.MaxTotal.Add(m.MaxScore)
	}

	if row.MaxTotal.IsPositive() {
		row.Percentage = row.Total.Div(row.MaxTotal).Mul(decimal.NewFromInt(100)).Round(2)
	}

	if scale != nil {
		if band := scale.Classify(row.Percentage); band != nil {
			row.Grade = band.Grade
			row.Remark = band.Remark
		}
	}

	return row
}
