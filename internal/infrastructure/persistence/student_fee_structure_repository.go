package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/schoolerp/backend/internal/domain/fees"
	"github.com/schoolerp/backend/internal/domain/shared"
	"github.com/schoolerp/backend/internal/infrastructure/persistence/models"
)

// GormStudentFeeStructureRepository implements StudentFeeStructureRepository using GORM
type GormStudentFeeStructureRepository struct {
	db *gorm.DB
}

var _ fees.StudentFeeStructureRepository = (*GormStudentFeeStructureRepository)(nil)

// NewGormStudentFeeStructureRepository creates a new GormStudentFeeStructureRepository
func NewGormStudentFeeStructureRepository(db *gorm.DB) *GormStudentFeeStructureRepository {
	return &GormStudentFeeStructureRepository{db: db}
}

// FindByStudent finds a student's fee override, or nil if none exists
func (r *GormStudentFeeStructureRepository) FindByStudent(ctx context.Context, tenantID, studentID uuid.UUID) (*fees.StudentFeeStructure, error) {
	var model models.StudentFeeStructureModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND student_id = ?", tenantID, studentID).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Save creates or updates a student's fee override
func (r *GormStudentFeeStructureRepository) Save(ctx context.Context, structure *fees.StudentFeeStructure) error {
	model := &models.StudentFeeStructureModel{}
	model.FromDomain(structure)
	return r.db.WithContext(ctx).Save(model).Error
}

// Delete removes a student's fee override
func (r *GormStudentFeeStructureRepository) Delete(ctx context.Context, tenantID, studentID uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Where("tenant_id = ? AND student_id = ?", tenantID, studentID).
		Delete(&models.StudentFeeStructureModel{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}
