package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/schoolerp/backend/internal/domain/exams"
	"github.com/schoolerp/backend/internal/domain/shared"
	"github.com/schoolerp/backend/internal/infrastructure/persistence/models"
)

// GormMarkRepository implements MarkRepository using GORM
type GormMarkRepository struct {
	db *gorm.DB
}

var _ exams.MarkRepository = (*GormMarkRepository)(nil)

// NewGormMarkRepository creates a new GormMarkRepository
func NewGormMarkRepository(db *gorm.DB) *GormMarkRepository {
	return &GormMarkRepository{db: db}
}

// FindByExam finds all marks recorded for an exam
func (r *GormMarkRepository) FindByExam(ctx context.Context, tenantID, examID uuid.UUID) ([]exams.Mark, error) {
	var markModels []models.MarkModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND exam_id = ?", tenantID, examID).
		Order("student_id ASC, subject_name ASC").
		Find(&markModels).Error; err != nil {
		return nil, err
	}
	return toDomainMarks(markModels), nil
}

// FindByExamAndStudent finds one student's marks in an exam
func (r *GormMarkRepository) FindByExamAndStudent(ctx context.Context, tenantID, examID, studentID uuid.UUID) ([]exams.Mark, error) {
	var markModels []models.MarkModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND exam_id = ? AND student_id = ?", tenantID, examID, studentID).
		Order("subject_name ASC").
		Find(&markModels).Error; err != nil {
		return nil, err
	}
	return toDomainMarks(markModels), nil
}

// Save persists a mark. An existing row for the same (exam, student,
// subject) is replaced.
func (r *GormMarkRepository) Save(ctx context.Context, mark *exams.Mark) error {
	model := &models.MarkModel{}
	model.FromDomain(mark)
	if err := r.db.WithContext(ctx).Save(model).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return shared.ErrAlreadyExists
		}
		return err
	}
	return nil
}

func toDomainMarks(markModels []models.MarkModel) []exams.Mark {
	marks := make([]exams.Mark, 0, len(markModels))
	for i := range markModels {
		marks = append(marks, *markModels[i].ToDomain())
	}
	return marks
}
