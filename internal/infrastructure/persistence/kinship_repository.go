package persistence

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/schoolerp/backend/internal/domain/school"
	"github.com/schoolerp/backend/internal/domain/shared"
	"github.com/schoolerp/backend/internal/infrastructure/persistence/models"
	"github.com/schoolerp/backend/internal/infrastructure/persistence/tenant"
)

// GormKinshipRepository implements KinshipRepository using GORM
type GormKinshipRepository struct {
	db *gorm.DB
}

var _ school.KinshipRepository = (*GormKinshipRepository)(nil)

// NewGormKinshipRepository creates a new GormKinshipRepository
func NewGormKinshipRepository(db *gorm.DB) *GormKinshipRepository {
	return &GormKinshipRepository{db: db}
}

// FindChildren resolves all students linked to a parent
func (r *GormKinshipRepository) FindChildren(ctx context.Context, tenantID, parentID uuid.UUID) ([]school.Kinship, error) {
	var kinshipModels []models.KinshipModel
	if err := r.db.WithContext(ctx).
		Scopes(tenant.TenantScope(tenantID)).
		Where("parent_id = ?", parentID).
		Order("created_at ASC").
		Find(&kinshipModels).Error; err != nil {
		return nil, err
	}
	return toDomainKinships(kinshipModels), nil
}

// FindParents resolves all parents linked to a student
func (r *GormKinshipRepository) FindParents(ctx context.Context, tenantID, studentID uuid.UUID) ([]school.Kinship, error) {
	var kinshipModels []models.KinshipModel
	if err := r.db.WithContext(ctx).
		Scopes(tenant.TenantScope(tenantID)).
		Where("student_id = ?", studentID).
		Order("is_primary DESC, created_at ASC").
		Find(&kinshipModels).Error; err != nil {
		return nil, err
	}
	return toDomainKinships(kinshipModels), nil
}

// Save creates or updates a kinship record
func (r *GormKinshipRepository) Save(ctx context.Context, kinship *school.Kinship) error {
	model := &models.KinshipModel{}
	model.FromDomain(kinship)
	return r.db.WithContext(ctx).Save(model).Error
}

// Delete removes a kinship record
func (r *GormKinshipRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Scopes(tenant.TenantScope(tenantID)).
		Where("id = ?", id).
		Delete(&models.KinshipModel{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func toDomainKinships(kinshipModels []models.KinshipModel) []school.Kinship {
	kinships := make([]school.Kinship, 0, len(kinshipModels))
	for i := range kinshipModels {
		kinships = append(kinships, *kinshipModels[i].ToDomain())
	}
	return kinships
}
