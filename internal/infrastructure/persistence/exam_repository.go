package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/schoolerp/backend/internal/domain/exams"
	"github.com/schoolerp/backend/internal/infrastructure/persistence/models"
)

// GormExamRepository implements ExamRepository using GORM
type GormExamRepository struct {
	db *gorm.DB
}

var _ exams.ExamRepository = (*GormExamRepository)(nil)

// NewGormExamRepository creates a new GormExamRepository
func NewGormExamRepository(db *gorm.DB) *GormExamRepository {
	return &GormExamRepository{db: db}
}

// FindByIDForTenant finds an exam by ID, or nil if none exists
func (r *GormExamRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*exams.Exam, error) {
	var model models.ExamModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Save creates or updates an exam
func (r *GormExamRepository) Save(ctx context.Context, exam *exams.Exam) error {
	model := &models.ExamModel{}
	model.FromDomain(exam)
	return r.db.WithContext(ctx).Save(model).Error
}
