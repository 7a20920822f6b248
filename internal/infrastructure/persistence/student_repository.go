package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/schoolerp/backend/internal/domain/school"
	"github.com/schoolerp/backend/internal/domain/shared"
	"github.com/schoolerp/backend/internal/infrastructure/persistence/models"
	"github.com/schoolerp/backend/internal/infrastructure/persistence/tenant"
)

// GormStudentRepository implements StudentRepository using GORM
type GormStudentRepository struct {
	db *gorm.DB
}

var _ school.StudentRepository = (*GormStudentRepository)(nil)

// NewGormStudentRepository creates a new GormStudentRepository
func NewGormStudentRepository(db *gorm.DB) *GormStudentRepository {
	return &GormStudentRepository{db: db}
}

// FindByIDForTenant finds a student by ID, or nil if none exists
func (r *GormStudentRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*school.Student, error) {
	var model models.StudentModel
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

// FindByIDs finds several students at once, keyed by ID
func (r *GormStudentRepository) FindByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]school.Student, error) {
	result := make(map[uuid.UUID]school.Student, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	var studentModels []models.StudentModel
	if err := r.db.WithContext(ctx).
		Scopes(tenant.TenantScope(tenantID)).
		Where("id IN ?", ids).
		Find(&studentModels).Error; err != nil {
		return nil, err
	}

	for i := range studentModels {
		result[studentModels[i].ID] = *studentModels[i].ToDomain()
	}
	return result, nil
}

// FindActiveByClass finds all active students enrolled in a class
func (r *GormStudentRepository) FindActiveByClass(ctx context.Context, tenantID, classID uuid.UUID) ([]school.Student, error) {
	var studentModels []models.StudentModel
	if err := r.db.WithContext(ctx).
		Scopes(tenant.TenantScope(tenantID)).
		Where("class_id = ? AND active = ?", classID, true).
		Order("admission_no ASC").
		Find(&studentModels).Error; err != nil {
		return nil, err
	}
	return toDomainStudents(studentModels), nil
}

// FindAllForTenant finds students for a tenant with filtering
func (r *GormStudentRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]school.Student, error) {
	var studentModels []models.StudentModel
	query := r.db.WithContext(ctx).Model(&models.StudentModel{}).Scopes(tenant.TenantScope(tenantID))

	if filter.Search != "" {
		searchPattern := "%" + filter.Search + "%"
		query = query.Where("first_name ILIKE ? OR last_name ILIKE ? OR admission_no ILIKE ?",
			searchPattern, searchPattern, searchPattern)
	}
	if classID, ok := filter.Filters["class_id"]; ok {
		query = query.Where("class_id = ?", classID)
	}
	if active, ok := filter.Filters["active"]; ok {
		query = query.Where("active = ?", active)
	}
	if filter.Page > 0 && filter.PageSize > 0 {
		query = query.Offset((filter.Page - 1) * filter.PageSize).Limit(filter.PageSize)
	}
	orderBy := ValidateSortField(filter.OrderBy, StudentSortFields, "admission_no")
	query = query.Order(orderBy + " " + ValidateSortOrder(filter.OrderDir))

	if err := query.Find(&studentModels).Error; err != nil {
		return nil, err
	}
	return toDomainStudents(studentModels), nil
}

// Save creates or updates a student
func (r *GormStudentRepository) Save(ctx context.Context, student *school.Student) error {
	model := &models.StudentModel{}
	model.FromDomain(student)
	if err := r.db.WithContext(ctx).Save(model).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return shared.NewDomainError("ADMISSION_NO_EXISTS", "A student with this admission number already exists")
		}
		return err
	}
	return nil
}

func toDomainStudents(studentModels []models.StudentModel) []school.Student {
	students := make([]school.Student, 0, len(studentModels))
	for i := range studentModels {
		students = append(students, *studentModels[i].ToDomain())
	}
	return students
}
