package apierrors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorType represents the type of error
type ErrorType string

const (
	ErrorTypeValidation         ErrorType = "validation"
	ErrorTypeNotFound           ErrorType = "not_found"
	ErrorTypePreconditionFailed ErrorType = "precondition_failed"
	ErrorTypeAdmissionDenied    ErrorType = "admission_denied"
	ErrorTypeAuthRequired       ErrorType = "auth_required"
	ErrorTypeUnauthorized       ErrorType = "unauthorized"
	ErrorTypeInternal           ErrorType = "internal"
	ErrorTypeDatabase           ErrorType = "database"
)

// APIError represents a structured API error
type APIError struct {
	Type        ErrorType `json:"type"`
	Code        string    `json:"code"`
	Message     string    `json:"message"`
	HTTPStatus  int       `json:"-"`
	InternalErr error     `json:"-"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	return fmt.Sprintf("%s (%s)", e.Message, e.Code)
}

// Unwrap returns the underlying error
func (e *APIError) Unwrap() error {
	return e.InternalErr
}

// New creates a new API error
func New(errorType ErrorType, code, message string, httpStatus int) *APIError {
	return &APIError{
		Type:       errorType,
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// NewWithCause creates a new API error with an underlying cause
func NewWithCause(errorType ErrorType, code, message string, httpStatus int, cause error) *APIError {
	return &APIError{
		Type:        errorType,
		Code:        code,
		Message:     message,
		HTTPStatus:  httpStatus,
		InternalErr: cause,
	}
}

// NotFound reports that an entity id does not resolve
func NotFound(resource string) *APIError {
	return New(ErrorTypeNotFound, "RESOURCE_NOT_FOUND", fmt.Sprintf("%s not found", resource), http.StatusNotFound)
}

// PreconditionFailed reports a transition requested from the wrong state,
// e.g. returning an already-returned loan.
func PreconditionFailed(message string) *APIError {
	return New(ErrorTypePreconditionFailed, "PRECONDITION_FAILED", message, http.StatusConflict)
}

// AdmissionDenied reports an eligibility check failure, e.g. no copies
// available or unpaid fines blocking a renewal.
func AdmissionDenied(message string) *APIError {
	return New(ErrorTypeAdmissionDenied, "ADMISSION_DENIED", message, http.StatusUnprocessableEntity)
}

// AuthRequired reports that no identity could be resolved for a
// self-service operation.
func AuthRequired(message string) *APIError {
	return New(ErrorTypeAuthRequired, "AUTH_REQUIRED", message, http.StatusUnauthorized)
}

// Unauthorized reports a caller lacking the role for an operation
func Unauthorized(message string) *APIError {
	return New(ErrorTypeUnauthorized, "UNAUTHORIZED", message, http.StatusForbidden)
}

// Validation reports a malformed request
func Validation(message string) *APIError {
	return New(ErrorTypeValidation, "VALIDATION_FAILED", message, http.StatusBadRequest)
}

// Internal reports an unexpected failure
func Internal(message string, cause error) *APIError {
	return NewWithCause(ErrorTypeInternal, "INTERNAL_ERROR", message, http.StatusInternalServerError, cause)
}

// Database reports a failed database operation
func Database(operation string, cause error) *APIError {
	return NewWithCause(ErrorTypeDatabase, "DATABASE_ERROR",
		fmt.Sprintf("database operation failed: %s", operation),
		http.StatusInternalServerError, cause)
}

// AsAPIError extracts an APIError from an error chain
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}
