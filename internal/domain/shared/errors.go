package shared

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors
var (
	ErrNotFound          = NewDomainError("NOT_FOUND", "Resource not found")
	ErrAlreadyExists     = NewDomainError("ALREADY_EXISTS", "Resource already exists")
	ErrInvalidInput      = NewDomainError("INVALID_INPUT", "Invalid input provided")
	ErrInvalidState      = NewDomainError("INVALID_STATE", "Operation not allowed in current state")
	ErrCategoryInUse     = NewDomainError("CATEGORY_IN_USE", "Category is referenced by existing records")
	ErrValidationFailed  = NewDomainError("VALIDATION_FAILED", "Record failed validation")
	ErrMigrationFailed   = NewDomainError("MIGRATION_STEP_FAILED", "Migration step failed, store restored from backup")
	ErrIntegrityViolated = NewDomainError("INTEGRITY_VIOLATION", "Store failed integrity checks")
)
