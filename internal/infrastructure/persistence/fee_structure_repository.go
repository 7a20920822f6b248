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

// GormFeeStructureRepository implements FeeStructureRepository using GORM
type GormFeeStructureRepository struct {
	db *gorm.DB
}

var _ fees.FeeStructureRepository = (*GormFeeStructureRepository)(nil)

// NewGormFeeStructureRepository creates a new GormFeeStructureRepository
func NewGormFeeStructureRepository(db *gorm.DB) *GormFeeStructureRepository {
	return &GormFeeStructureRepository{db: db}
}

// FindByIDForTenant finds a fee structure row by ID, or nil if none
// exists
func (r *GormFeeStructureRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*fees.FeeStructure, error) {
	var model models.FeeStructureModel
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

// FindByClass finds all fee structure rows for a class
func (r *GormFeeStructureRepository) FindByClass(ctx context.Context, tenantID, classID uuid.UUID) ([]fees.FeeStructure, error) {
	var structureModels []models.FeeStructureModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND class_id = ?", tenantID, classID).
		Order("created_at ASC").
		Find(&structureModels).Error; err != nil {
		return nil, err
	}

	structures := make([]fees.FeeStructure, 0, len(structureModels))
	for i := range structureModels {
		structures = append(structures, *structureModels[i].ToDomain())
	}
	return structures, nil
}

// FindByClassAndFeeHead finds the row for one (class, fee head) pair,
// or nil if none exists
func (r *GormFeeStructureRepository) FindByClassAndFeeHead(ctx context.Context, tenantID, classID, feeHeadID uuid.UUID) (*fees.FeeStructure, error) {
	var model models.FeeStructureModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND class_id = ? AND fee_head_id = ?", tenantID, classID, feeHeadID).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Save creates or updates a fee structure row
func (r *GormFeeStructureRepository) Save(ctx context.Context, structure *fees.FeeStructure) error {
	model := &models.FeeStructureModel{}
	model.FromDomain(structure)
	if err := r.db.WithContext(ctx).Save(model).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return shared.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// Delete removes a fee structure row
func (r *GormFeeStructureRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		Delete(&models.FeeStructureModel{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}
