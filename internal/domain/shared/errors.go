package shared

import "net/http"

// DomainError represents a domain-level error. Status is the HTTP status the
// transport layer answers with when the error reaches it unmodified.
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"-"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// StatusCode returns the status code carried by the error
func (e *DomainError) StatusCode() int {
	if e.Status == 0 {
		return http.StatusBadRequest
	}
	return e.Status
}

// Is reports whether target is a DomainError of the same kind.
// Kinds are identified by code, so parameterised errors still match
// their sentinel.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a new domain error answered with 400 Bad Request
func NewDomainError(code, message string) *DomainError {
	return NewDomainErrorWithStatus(code, message, http.StatusBadRequest)
}

// NewDomainErrorWithStatus creates a new domain error with an explicit status code
func NewDomainErrorWithStatus(code, message string, status int) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Status:  status,
	}
}

// StatusCoder is implemented by errors that know which status code
// should be reported to the caller.
type StatusCoder interface {
	error
	StatusCode() int
}
