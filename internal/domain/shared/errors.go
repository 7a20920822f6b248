package shared

// DomainError is a business-rule violation with a stable code the
// HTTP layer maps to a status and clients can match on.
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a domain error with the given code and message.
func NewDomainError(code, message string) *DomainError {
	return &DomainError{Code: code, Message: message}
}

// Sentinel errors shared across the domain. Compare with errors.Is so
// wrapped errors still match.
var (
	ErrNotFound            = NewDomainError("NOT_FOUND", "Resource not found")
	ErrAlreadyExists       = NewDomainError("ALREADY_EXISTS", "Resource already exists")
	ErrInvalidInput        = NewDomainError("INVALID_INPUT", "Invalid input provided")
	ErrConcurrencyConflict = NewDomainError("CONCURRENCY_CONFLICT", "Resource was modified by another process")
	ErrUnauthorized        = NewDomainError("UNAUTHORIZED", "Not authorized to perform this action")
	ErrForbidden           = NewDomainError("FORBIDDEN", "Access to this resource is forbidden")
	ErrInvalidState        = NewDomainError("INVALID_STATE", "Operation not allowed in current state")
)

// Billing-specific errors raised by invoice and payment operations.
var (
	ErrDuplicatePeriod  = NewDomainError("DUPLICATE_PERIOD", "An active invoice already exists for this student and period")
	ErrInvoiceCancelled = NewDomainError("INVOICE_CANCELLED", "Invoice has been cancelled")
	ErrNoFeeStructure   = NewDomainError("NO_FEE_STRUCTURE", "No fee structure defined for this class")
)
