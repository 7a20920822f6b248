package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/schoolerp/backend/internal/domain/school"
	"github.com/schoolerp/backend/internal/infrastructure/persistence/models"
	"github.com/schoolerp/backend/internal/infrastructure/persistence/tenant"
)

// GormParentRepository implements ParentRepository using GORM
type GormParentRepository struct {
	db *gorm.DB
}

var _ school.ParentRepository = (*GormParentRepository)(nil)

// NewGormParentRepository creates a new GormParentRepository
func NewGormParentRepository(db *gorm.DB) *GormParentRepository {
	return &GormParentRepository{db: db}
}

// FindByIDForTenant finds a parent by ID, or nil if none exists
func (r *GormParentRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*school.Parent, error) {
	var model models.ParentModel
	if err := r.db.WithContext(ctx).
		Scopes(tenant.TenantScope(tenantID)).
		Where("id = ?", id).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Save creates or updates a parent
func (r *GormParentRepository) Save(ctx context.Context, parent *school.Parent) error {
	model := &models.ParentModel{}
	model.FromDomain(parent)
	return r.db.WithContext(ctx).Save(model).Error
}
