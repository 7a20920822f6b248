package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/schoolerp/backend/internal/domain/exams"
	"github.com/schoolerp/backend/internal/infrastructure/persistence/models"
)

// GormGradingScaleRepository implements GradingScaleRepository using GORM
type GormGradingScaleRepository struct {
	db *gorm.DB
}

var _ exams.GradingScaleRepository = (*GormGradingScaleRepository)(nil)

// NewGormGradingScaleRepository creates a new GormGradingScaleRepository
func NewGormGradingScaleRepository(db *gorm.DB) *GormGradingScaleRepository {
	return &GormGradingScaleRepository{db: db}
}

// FindByIDForTenant finds a grading scale by ID, or nil if none exists
func (r *GormGradingScaleRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*exams.GradingScale, error) {
	var model models.GradingScaleModel
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

// Save creates or updates a grading scale
func (r *GormGradingScaleRepository) Save(ctx context.Context, scale *exams.GradingScale) error {
	model := &models.GradingScaleModel{}
	model.FromDomain(scale)
	return r.db.WithContext(ctx).Save(model).Error
}
