package school

import (
	"context"

	"github.com/google/uuid"

	"github.com/schoolerp/backend/internal/domain/shared"
)

// StudentRepository defines the interface for student persistence
type StudentRepository interface {
	// FindByIDForTenant finds a student by ID, or nil if none exists
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Student, error)

	// FindByIDs finds several students at once, keyed by ID
	FindByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]Student, error)

	// FindActiveByClass finds all active students enrolled in a class
	FindActiveByClass(ctx context.Context, tenantID, classID uuid.UUID) ([]Student, error)

	// FindAllForTenant finds students for a tenant with filtering
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]Student, error)

	// Save creates or updates a student
	Save(ctx context.Context, student *Student) error
}

// KinshipRepository defines the interface for parent-student links
type KinshipRepository interface {
	// FindChildren resolves all students linked to a parent
	FindChildren(ctx context.Context, tenantID, parentID uuid.UUID) ([]Kinship, error)

	// FindParents resolves all parents linked to a student
	FindParents(ctx context.Context, tenantID, studentID uuid.UUID) ([]Kinship, error)

	// Save creates or updates a kinship record
	Save(ctx context.Context, kinship *Kinship) error

	// Delete removes a kinship record
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
}

// ParentRepository defines the interface for guardian accounts
type ParentRepository interface {
	// FindByIDForTenant finds a parent by ID, or nil if none exists
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Parent, error)

	// Save creates or updates a parent
	Save(ctx context.Context, parent *Parent) error
}
