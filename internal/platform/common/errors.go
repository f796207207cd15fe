package common

import (
	"fmt"
	"net/http"
)

// ErrorKind represents the category of use case error.
// Each kind maps to a specific HTTP status code.
type ErrorKind int

const (
	// ErrorKindValidation represents input validation failures.
	// Maps to HTTP 400 Bad Request.
	ErrorKindValidation ErrorKind = iota

	// ErrorKindBusinessRule represents business rule violations.
	// Maps to HTTP 409 Conflict.
	ErrorKindBusinessRule

	// ErrorKindNotFound represents entity not found errors.
	// Maps to HTTP 404 Not Found.
	ErrorKindNotFound

	// ErrorKindInvalidState represents a guarded state transition that was
	// attempted on a record no longer in the expected state.
	// Maps to HTTP 409 Conflict.
	ErrorKindInvalidState

	// ErrorKindUnauthorized represents authorization failures.
	// Maps to HTTP 403 Forbidden.
	ErrorKindUnauthorized

	// ErrorKindInternal represents unexpected internal errors.
	// Maps to HTTP 500 Internal Server Error.
	ErrorKindInternal
)

// String returns the string representation of the error kind.
func (k ErrorKind) String() string {
	switch k {
	case ErrorKindValidation:
		return "VALIDATION"
	case ErrorKindBusinessRule:
		return "BUSINESS_RULE"
	case ErrorKindNotFound:
		return "NOT_FOUND"
	case ErrorKindInvalidState:
		return "INVALID_STATE"
	case ErrorKindUnauthorized:
		return "UNAUTHORIZED"
	case ErrorKindInternal:
		return "INTERNAL"
	default:
		return "UNKNOWN"
	}
}

// HTTPStatus returns the HTTP status code for this error kind.
func (k ErrorKind) HTTPStatus() int {
	switch k {
	case ErrorKindValidation:
		return http.StatusBadRequest
	case ErrorKindBusinessRule, ErrorKindInvalidState:
		return http.StatusConflict
	case ErrorKindNotFound:
		return http.StatusNotFound
	case ErrorKindUnauthorized:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// UseCaseError represents an error from a use case execution.
// It contains structured information about what went wrong,
// suitable for both logging and API responses.
type UseCaseError struct {
	Kind    ErrorKind      `json:"kind"`
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// Error implements the error interface.
func (e *UseCaseError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Kind.String(), e.Code, e.Message)
}

// HTTPStatus returns the appropriate HTTP status code for this error.
func (e *UseCaseError) HTTPStatus() int {
	return e.Kind.HTTPStatus()
}

// WithDetail adds a detail to the error and returns it for chaining.
func (e *UseCaseError) WithDetail(key string, value any) *UseCaseError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

func newUseCaseError(kind ErrorKind, code, message string, details map[string]any) *UseCaseError {
	return &UseCaseError{Kind: kind, Code: code, Message: message, Details: details}
}

// ValidationError creates a new validation error (missing fields, bad URL, unknown enum value).
func ValidationError(code, message string, details map[string]any) *UseCaseError {
	return newUseCaseError(ErrorKindValidation, code, message, details)
}

// BusinessRuleError creates a new business rule violation error.
func BusinessRuleError(code, message string, details map[string]any) *UseCaseError {
	return newUseCaseError(ErrorKindBusinessRule, code, message, details)
}

// NotFoundError creates a new not found error.
func NotFoundError(code, message string, details map[string]any) *UseCaseError {
	return newUseCaseError(ErrorKindNotFound, code, message, details)
}

// InvalidStateError creates an error for a rejected state transition.
func InvalidStateError(code, message string, details map[string]any) *UseCaseError {
	return newUseCaseError(ErrorKindInvalidState, code, message, details)
}

// UnauthorizedError creates a new authorization error.
func UnauthorizedError(code, message string, details map[string]any) *UseCaseError {
	return newUseCaseError(ErrorKindUnauthorized, code, message, details)
}

// InternalError creates a new internal error.
func InternalError(code, message string, details map[string]any) *UseCaseError {
	return newUseCaseError(ErrorKindInternal, code, message, details)
}

// Common error codes for reuse across use cases
const (
	// Validation error codes
	ErrCodeRequired            = "REQUIRED"
	ErrCodeInvalidValue        = "INVALID_VALUE"
	ErrCodeMissingWorkflowName = "MISSING_WORKFLOW_NAME"
	ErrCodeInvalidTargetURL    = "INVALID_TARGET_URL"
	ErrCodeInvalidStatus       = "INVALID_STATUS"
	ErrCodeInvalidLimit        = "INVALID_LIMIT"
	ErrCodeInvalidBrandKey     = "INVALID_BRAND_KEY"
	ErrCodeInvalidEmail        = "INVALID_EMAIL"

	// Business rule error codes
	ErrCodeAlreadyExists        = "ALREADY_EXISTS"
	ErrCodeActiveEndpointExists = "ACTIVE_ENDPOINT_EXISTS"
	ErrCodeDuplicateBrandKey    = "DUPLICATE_BRAND_KEY"
	ErrCodeCommitFailed         = "COMMIT_FAILED"

	// Invalid state error codes
	ErrCodeInvalidState = "INVALID_STATE"

	// Not found error codes
	ErrCodeEntityNotFound    = "ENTITY_NOT_FOUND"
	ErrCodeEndpointNotFound  = "ENDPOINT_NOT_FOUND"
	ErrCodeExecutionNotFound = "EXECUTION_NOT_FOUND"
	ErrCodeBrandNotFound     = "BRAND_NOT_FOUND"

	// Authorization error codes
	ErrCodeAccessDenied            = "ACCESS_DENIED"
	ErrCodeInsufficientPermissions = "INSUFFICIENT_PERMISSIONS"
)
