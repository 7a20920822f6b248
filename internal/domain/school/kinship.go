package school

import (
	"time"

	"github.com/google/uuid"

	"github.com/schoolerp/backend/internal/domain/shared"
)

// KinshipType tags the relationship between a parent and a student
type KinshipType string

const (
	KinshipTypeFather   KinshipType = "FATHER"
	KinshipTypeMother   KinshipType = "MOTHER"
	KinshipTypeGuardian KinshipType = "GUARDIAN"
	KinshipTypeOther    KinshipType = "OTHER"
)

// IsValid checks if the kinship type is valid
func (k KinshipType) IsValid() bool {
	switch k {
	case KinshipTypeFather, KinshipTypeMother, KinshipTypeGuardian, KinshipTypeOther:
		return true
	}
	return false
}

// Kinship links a parent to a student. Many-to-many: a parent can have
// several children at the school and a student can have several
// registered parents. Family billing resolves children through these
// records.
type Kinship struct {
	shared.TenantAggregateRoot
	ParentID  uuid.UUID   `json:"parent_id"`
	StudentID uuid.UUID   `json:"student_id"`
	Type      KinshipType `json:"type"`
	IsPrimary bool        `json:"is_primary"`
}

// NewKinship links a parent to a student
func NewKinship(tenantID, parentID, studentID uuid.UUID, kinshipType KinshipType, isPrimary bool) (*Kinship, error) {
	if parentID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PARENT", "Parent ID cannot be empty")
	}
	if studentID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_STUDENT", "Student ID cannot be empty")
	}
	if !kinshipType.IsValid() {
		return nil, shared.NewDomainError("INVALID_KINSHIP_TYPE", "Kinship type is not valid")
	}

	return &Kinship{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		ParentID:            parentID,
		StudentID:           studentID,
		Type:                kinshipType,
		IsPrimary:           isPrimary,
	}, nil
}

// MakePrimary flags this parent as the primary contact for the student
func (k *Kinship) MakePrimary() {
	k.IsPrimary = true
	k.UpdatedAt = time.Now()
	k.IncrementVersion()
}

// Parent is a guardian account referenced by kinship records. Identity
// and authentication live elsewhere; only the fields family billing
// needs are modeled here.
type Parent struct {
	shared.TenantAggregateRoot
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
}

// NewParent registers a guardian
func NewParent(tenantID uuid.UUID, firstName, lastName, phone string) (*Parent, error) {
	if firstName == "" {
		return nil, shared.NewDomainError("INVALID_PARENT_NAME", "Parent first name cannot be empty")
	}
	return &Parent{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		FirstName:           firstName,
		LastName:            lastName,
		Phone:               phone,
	}, nil
}

// FullName returns the parent's display name
func (p *Parent) FullName() string {
	if p.LastName == "" {
		return p.FirstName
	}
	return p.FirstName + " " + p.LastName
}
