package school

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/schoolerp/backend/internal/domain/shared"
)

// Student is an enrolled learner. AdmissionNo is the school-issued
// identifier used in invoice numbers; unique within a school.
type Student struct {
	shared.TenantAggregateRoot
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
	AdmissionNo string    `json:"admission_no"`
	ClassID     uuid.UUID `json:"class_id"`
	Active      bool      `json:"active"`
}

// NewStudent enrolls a student into a class
func NewStudent(tenantID uuid.UUID, firstName, lastName, admissionNo string, classID uuid.UUID) (*Student, error) {
	firstName = strings.TrimSpace(firstName)
	lastName = strings.TrimSpace(lastName)
	admissionNo = strings.TrimSpace(admissionNo)

	if firstName == "" {
		return nil, shared.NewDomainError("INVALID_STUDENT_NAME", "Student first name cannot be empty")
	}
	if admissionNo == "" {
		return nil, shared.NewDomainError("INVALID_ADMISSION_NO", "Admission number cannot be empty")
	}
	if classID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_CLASS", "Class ID cannot be empty")
	}

	return &Student{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		FirstName:           firstName,
		LastName:            lastName,
		AdmissionNo:         admissionNo,
		ClassID:             classID,
		Active:              true,
	}, nil
}

// FullName returns the student's display name
func (s *Student) FullName() string {
	if s.LastName == "" {
		return s.FirstName
	}
	return s.FirstName + " " + s.LastName
}

// TransferTo moves the student to another class
func (s *Student) TransferTo(classID uuid.UUID) error {
	if classID == uuid.Nil {
		return shared.NewDomainError("INVALID_CLASS", "Class ID cannot be empty")
	}
	s.ClassID = classID
	s.UpdatedAt = time.Now()
	s.IncrementVersion()
	return nil
}

// Deactivate withdraws the student; they stop appearing in invoice
// generation but their billing history is retained.
func (s *Student) Deactivate() {
	s.Active = false
	s.UpdatedAt = time.Now()
	s.IncrementVersion()
}
