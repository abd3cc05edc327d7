package errs

import "errors"

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// Is matches the same error value, or one of the generic sentinels below by
// code. Two domain sentinels sharing a code stay distinct.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return t == e || (generic[t] && t.Code == e.Code)
}

func New(code, message string) *DomainError {
	return &DomainError{Code: code, Message: message}
}

const (
	CodeNotFound     = "NOT_FOUND"
	CodeInvalidInput = "INVALID_INPUT"
	CodeInvalidState = "INVALID_STATE"
	CodeForbidden    = "FORBIDDEN"
	CodeUnauthorized = "UNAUTHORIZED"
	CodeConflict     = "CONFLICT"
)

// Common domain errors
var (
	ErrNotFound     = New(CodeNotFound, "Resource not found")
	ErrInvalidInput = New(CodeInvalidInput, "Invalid input provided")
	ErrInvalidState = New(CodeInvalidState, "Operation not allowed in current state")
	ErrForbidden    = New(CodeForbidden, "Access to this resource is forbidden")
	ErrUnauthorized = New(CodeUnauthorized, "Login required")
	ErrConflict     = New(CodeConflict, "Resource already exists")
)

var generic = map[*DomainError]bool{
	ErrNotFound:     true,
	ErrInvalidInput: true,
	ErrInvalidState: true,
	ErrForbidden:    true,
	ErrUnauthorized: true,
	ErrConflict:     true,
}

func NotFound(message string) *DomainError     { return New(CodeNotFound, message) }
func InvalidInput(message string) *DomainError { return New(CodeInvalidInput, message) }
func InvalidState(message string) *DomainError { return New(CodeInvalidState, message) }
func Forbidden(message string) *DomainError    { return New(CodeForbidden, message) }

// CodeOf returns the code of the first DomainError in err's chain, or "".
func CodeOf(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}
