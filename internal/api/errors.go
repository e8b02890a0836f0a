package api

import (
	"fmt"
	"net/http"
)

// ErrorResponse represents an error response body.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// ErrorCode represents error codes used in API responses
type ErrorCode string

const (
	// ErrorCodeInvalidRequest represents invalid request parameters
	ErrorCodeInvalidRequest ErrorCode = "INVALID_REQUEST"

	// ErrorCodeNotFound represents a not found error
	ErrorCodeNotFound ErrorCode = "NOT_FOUND"

	// ErrorCodeInternalError represents an internal server error
	ErrorCodeInternalError ErrorCode = "INTERNAL_ERROR"

	// ErrorCodeMethodNotAllowed represents a rejected HTTP method
	ErrorCodeMethodNotAllowed ErrorCode = "METHOD_NOT_ALLOWED"
)

// APIError represents an API error with status code and message
type APIError struct {
	Code       ErrorCode
	StatusCode int
	Message    string
}

// NewAPIError creates a new API error
func NewAPIError(code ErrorCode, statusCode int, message string) *APIError {
	return &APIError{
		Code:       code,
		StatusCode: statusCode,
		Message:    message,
	}
}

// Error returns the error message
func (e *APIError) Error() string {
	return e.Message
}

// GetResponse returns the error response body
func (e *APIError) GetResponse() ErrorResponse {
	return ErrorResponse{
		Error:   string(e.Code),
		Message: e.Message,
	}
}

// GetStatusCode returns the HTTP status code
func (e *APIError) GetStatusCode() int {
	return e.StatusCode
}

// NewValidationError creates an invalid request error
func NewValidationError(message string, args ...interface{}) *APIError {
	return NewAPIError(
		ErrorCodeInvalidRequest,
		http.StatusBadRequest,
		fmt.Sprintf(message, args...),
	)
}

// NewNotFoundError creates a not found error
func NewNotFoundError(message string, args ...interface{}) *APIError {
	return NewAPIError(
		ErrorCodeNotFound,
		http.StatusNotFound,
		fmt.Sprintf(message, args...),
	)
}

// NewInternalServerError creates an internal server error
func NewInternalServerError(message string, args ...interface{}) *APIError {
	return NewAPIError(
		ErrorCodeInternalError,
		http.StatusInternalServerError,
		fmt.Sprintf(message, args...),
	)
}
