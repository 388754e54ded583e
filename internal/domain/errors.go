package domain

import "fmt"

// DomainError represents a domain-specific error
type DomainError struct {
	Code    string
	Message string
	Err     error
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError creates a new DomainError
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// NewDomainErrorWithCause creates a new DomainError with an underlying cause
func NewDomainErrorWithCause(code, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Common domain error codes
const (
	ErrCodeValidation    = "VALIDATION_ERROR"
	ErrCodeNotFound      = "NOT_FOUND"
	ErrCodeUnreachable   = "SOURCE_UNREACHABLE"
	ErrCodeEmbedding     = "EMBEDDING_ERROR"
	ErrCodeInternalError = "INTERNAL_ERROR"
)

// Validation errors
var (
	ErrUnknownSource        = NewDomainError(ErrCodeValidation, "unknown ingestion source")
	ErrInvalidSectionRef    = NewDomainError(ErrCodeValidation, "section reference does not match source code")
	ErrContentTooShort      = NewDomainError(ErrCodeValidation, "section content below minimum length")
	ErrMissingRequiredField = NewDomainError(ErrCodeValidation, "missing required field")
)

// Not found errors
var (
	ErrEntryNotFound = NewDomainError(ErrCodeNotFound, "knowledge entry not found")
	ErrRunNotFound   = NewDomainError(ErrCodeNotFound, "ingestion run not found")
)

// Pre-flight errors
var (
	ErrSourceUnreachable = NewDomainError(ErrCodeUnreachable, "source index page is unreachable")
	ErrNoSectionsFound   = NewDomainError(ErrCodeUnreachable, "no section links discovered on index page")
)
