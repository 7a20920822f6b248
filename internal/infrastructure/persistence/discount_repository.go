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

// GormDiscountRepository implements DiscountRepository using GORM
type GormDiscountRepository struct {
	db *gorm.DB
}

var _ fees.DiscountRepository = (*GormDiscountRepository)(nil)

// NewGormDiscountRepository creates a new GormDiscountRepository
func NewGormDiscountRepository(db *gorm.DB) *GormDiscountRepository {
	return &GormDiscountRepository{db: db}
}

// FindByIDForTenant finds a discount by ID, or nil if none exists
func (r *GormDiscountRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*fees.Discount, error) {
	var model models.DiscountModel
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

// FindAllForTenant finds all discounts for a tenant
func (r *GormDiscountRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]fees.Discount, error) {
	var discountModels []models.DiscountModel
	query := r.db.WithContext(ctx).Model(&models.DiscountModel{}).Where("tenant_id = ?", tenantID)

	if filter.Search != "" {
		query = query.Where("name ILIKE ?", "%"+filter.Search+"%")
	}
	if active, ok := filter.Filters["active"]; ok {
		query = query.Where("active = ?", active)
	}
	if filter.Page > 0 && filter.PageSize > 0 {
		query = query.Offset((filter.Page - 1) * filter.PageSize).Limit(filter.PageSize)
	}
	query = query.Order("name ASC")

	if err := query.Find(&discountModels).Error; err != nil {
		return nil, err
	}

	discounts := make([]fees.Discount, 0, len(discountModels))
	for i := range discountModels {
		discounts = append(discounts, *discountModels[i].ToDomain())
	}
	return discounts, nil
}

// FindActiveByStudent resolves a student's active discounts keyed by
// target fee head. The catalog service keeps assignments to one active
// discount per fee head; if historical data violates that, the most
// recently assigned one wins.
func (r *GormDiscountRepository) FindActiveByStudent(ctx context.Context, tenantID, studentID uuid.UUID) (map[uuid.UUID]fees.Discount, error) {
	var discountModels []models.DiscountModel
	err := r.db.WithContext(ctx).Model(&models.DiscountModel{}).
		Joins("JOIN student_discounts ON student_discounts.discount_id = discounts.id").
		Where("discounts.tenant_id = ? AND discounts.active = ?", tenantID, true).
		Where("student_discounts.tenant_id = ? AND student_discounts.student_id = ? AND student_discounts.active = ?",
			tenantID, studentID, true).
		Order("student_discounts.created_at ASC").
		Find(&discountModels).Error
	if err != nil {
		return nil, err
	}

	result := make(map[uuid.UUID]fees.Discount, len(discountModels))
	for i := range discountModels {
		discount := discountModels[i].ToDomain()
		result[discount.FeeHeadID] = *discount
	}
	return result, nil
}

// FindAssignment finds an active assignment of any discount targeting
// the given fee head to the student, or nil if none
func (r *GormDiscountRepository) FindAssignment(ctx context.Context, tenantID, studentID, feeHeadID uuid.UUID) (*fees.StudentDiscount, error) {
	var model models.StudentDiscountModel
	err := r.db.WithContext(ctx).Model(&models.StudentDiscountModel{}).
		Joins("JOIN discounts ON discounts.id = student_discounts.discount_id").
		Where("student_discounts.tenant_id = ? AND student_discounts.student_id = ? AND student_discounts.active = ?",
			tenantID, studentID, true).
		Where("discounts.fee_head_id = ?", feeHeadID).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Save creates or updates a discount
func (r *GormDiscountRepository) Save(ctx context.Context, discount *fees.Discount) error {
	model := &models.DiscountModel{}
	model.FromDomain(discount)
	return r.db.WithContext(ctx).Save(model).Error
}

// SaveAssignment creates or updates a student discount assignment
func (r *GormDiscountRepository) SaveAssignment(ctx context.Context, assignment *fees.StudentDiscount) error {
	model := &models.StudentDiscountModel{}
	model.FromDomain(assignment)
	return r.db.WithContext(ctx).Save(model).Error
}

// Delete soft deletes a discount by marking it inactive
func (r *GormDiscountRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Model(&models.DiscountModel{}).
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
