package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/schoolerp/backend/internal/domain/fees"
	"github.com/schoolerp/backend/internal/domain/shared"
	"github.com/schoolerp/backend/internal/infrastructure/persistence/models"
)

// GormFeeHeadRepository implements FeeHeadRepository using GORM
type GormFeeHeadRepository struct {
	db *gorm.DB
}

var _ fees.FeeHeadRepository = (*GormFeeHeadRepository)(nil)

// NewGormFeeHeadRepository creates a new GormFeeHeadRepository
func NewGormFeeHeadRepository(db *gorm.DB) *GormFeeHeadRepository {
	return &GormFeeHeadRepository{db: db}
}

// FindByIDForTenant finds a fee head by ID, or nil if none exists
func (r *GormFeeHeadRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*fees.FeeHead, error) {
	var model models.FeeHeadModel
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

// FindByIDs finds several fee heads at once, keyed by ID
func (r *GormFeeHeadRepository) FindByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]fees.FeeHead, error) {
	result := make(map[uuid.UUID]fees.FeeHead, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	var headModels []models.FeeHeadModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id IN ?", tenantID, ids).
		Find(&headModels).Error; err != nil {
		return nil, err
	}

	for i := range headModels {
		result[headModels[i].ID] = *headModels[i].ToDomain()
	}
	return result, nil
}

// FindByName finds a fee head by case-insensitive name match, or nil
// if none exists
func (r *GormFeeHeadRepository) FindByName(ctx context.Context, tenantID uuid.UUID, name string) (*fees.FeeHead, error) {
	var model models.FeeHeadModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND LOWER(name) = ?", tenantID, strings.ToLower(strings.TrimSpace(name))).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAllForTenant finds all fee heads for a tenant
func (r *GormFeeHeadRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]fees.FeeHead, error) {
	var headModels []models.FeeHeadModel
	query := r.db.WithContext(ctx).Model(&models.FeeHeadModel{}).Where("tenant_id = ?", tenantID)

	if filter.Search != "" {
		query = query.Where("name ILIKE ?", "%"+filter.Search+"%")
	}
	if active, ok := filter.Filters["active"]; ok {
		query = query.Where("active = ?", active)
	}
	if filter.Page > 0 && filter.PageSize > 0 {
		query = query.Offset((filter.Page - 1) * filter.PageSize).Limit(filter.PageSize)
	}
	orderBy := ValidateSortField(filter.OrderBy, FeeHeadSortFields, "name")
	query = query.Order(orderBy + " " + ValidateSortOrder(filter.OrderDir))

	if err := query.Find(&headModels).Error; err != nil {
		return nil, err
	}

	heads := make([]fees.FeeHead, 0, len(headModels))
	for i := range headModels {
		heads = append(heads, *headModels[i].ToDomain())
	}
	return heads, nil
}

// Save creates or updates a fee head
func (r *GormFeeHeadRepository) Save(ctx context.Context, feeHead *fees.FeeHead) error {
	model := &models.FeeHeadModel{}
	model.FromDomain(feeHead)
	if err := r.db.WithContext(ctx).Save(model).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return shared.NewDomainError("FEE_HEAD_EXISTS", "A fee head with this name already exists")
		}
		return err
	}
	return nil
}

// Delete soft deletes a fee head by marking it inactive
func (r *GormFeeHeadRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Model(&models.FeeHeadModel{}).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		Update("active", false)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}
