package errors

import (
	"fmt"
	"sort"
	"strings"
)

// APIError represents a standardized API error response.
// Validation errors carry a field-keyed map that is rendered as the whole body.
type APIError struct {
	Code    ErrorCode
	Message string
	Fields  map[string]string
	Status  int
}

// Error implements the error interface
func (e *APIError) Error() string {
	if len(e.Fields) > 0 {
		keys := make([]string, 0, len(e.Fields))
		for k := range e.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, k+": "+e.Fields[k])
		}
		return fmt.Sprintf("%s: %s", e.Code, strings.Join(parts, ", "))
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Body returns the JSON body sent to the client
func (e *APIError) Body() any {
	if len(e.Fields) > 0 {
		return e.Fields
	}
	return map[string]string{
		"error": e.Message,
		"code":  string(e.Code),
	}
}

func newError(code ErrorCode, message string) *APIError {
	return &APIError{
		Code:    code,
		Message: message,
		Status:  code.StatusCode(),
	}
}

// NotFound creates a NOT_FOUND error
func NotFound(resource string) *APIError {
	return newError(ErrNotFound, fmt.Sprintf("%s not found", resource))
}

// Unauthorized creates an UNAUTHORIZED error
func Unauthorized(message string) *APIError {
	return newError(ErrUnauthorized, message)
}

// Forbidden creates a FORBIDDEN error
func Forbidden(message string) *APIError {
	return newError(ErrForbidden, message)
}

// BadRequest creates a BAD_REQUEST error
func BadRequest(message string) *APIError {
	return newError(ErrBadRequest, message)
}

// MethodNotAllowed mirrors the original API, which answers a wrong method with 400
func MethodNotAllowed(method string) *APIError {
	return newError(ErrMethodNotAllowed, fmt.Sprintf("%s method not allowed", method))
}

// Validation creates a VALIDATION_ERROR carrying one message per field
func Validation(fields map[string]string) *APIError {
	e := newError(ErrValidation, "validation failed")
	e.Fields = fields
	return e
}

// Field is shorthand for a single-field validation error
func Field(field, message string) *APIError {
	return Validation(map[string]string{field: message})
}

// InternalError creates an INTERNAL_ERROR
func InternalError(message string) *APIError {
	return newError(ErrInternalError, message)
}

// RateLimited creates a RATE_LIMITED error
func RateLimited(message string) *APIError {
	if message == "" {
		message = "rate limit exceeded"
	}
	return newError(ErrRateLimited, message)
}

// WithStatus overrides the HTTP status, e.g. the 403 the login route answers with
func (e *APIError) WithStatus(status int) *APIError {
	e.Status = status
	return e
}
