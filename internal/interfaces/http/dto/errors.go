package dto

import (
	"net/http"
	"strings"
)

// Error code constants organized by category
// Format: ERR_<CATEGORY>_<DESCRIPTION>

// General error codes
const (
	// ErrCodeUnknown is used when the error type is unknown
	ErrCodeUnknown = "ERR_UNKNOWN"
	// ErrCodeInternal is used for internal server errors
	ErrCodeInternal = "ERR_INTERNAL"
)

// Validation error codes
const (
	// ErrCodeValidation is the base code for validation errors
	ErrCodeValidation = "ERR_VALIDATION"
	// ErrCodeBadRequest is used for malformed requests
	ErrCodeBadRequest = "ERR_BAD_REQUEST"
)

// Resource error codes
const (
	// ErrCodeNotFound is used when a resource is not found
	ErrCodeNotFound = "ERR_NOT_FOUND"
	// ErrCodeAlreadyExists is used when trying to create a duplicate resource
	ErrCodeAlreadyExists = "ERR_ALREADY_EXISTS"
	// ErrCodeConflict is used for general resource conflicts
	ErrCodeConflict = "ERR_CONFLICT"
)

// Business rule error codes
const (
	// ErrCodeInvalidState is used when an operation is invalid for current state
	ErrCodeInvalidState = "ERR_INVALID_STATE"
	// ErrCodeCategoryInUse is used when removing a category that is referenced
	ErrCodeCategoryInUse = "ERR_CATEGORY_IN_USE"
	// ErrCodeMigrationFailed is used when a schema migration step fails
	ErrCodeMigrationFailed = "ERR_MIGRATION_FAILED"
	// ErrCodeIntegrityViolated is used when the integrity validator reports failures
	ErrCodeIntegrityViolated = "ERR_INTEGRITY_VIOLATED"
)

// domainCodeMap maps domain error codes to API error codes
var domainCodeMap = map[string]string{
	"NOT_FOUND":             ErrCodeNotFound,
	"ALREADY_EXISTS":        ErrCodeAlreadyExists,
	"INVALID_STATE":         ErrCodeInvalidState,
	"CATEGORY_IN_USE":       ErrCodeCategoryInUse,
	"VALIDATION_FAILED":     ErrCodeValidation,
	"MIGRATION_STEP_FAILED": ErrCodeMigrationFailed,
	"INTEGRITY_VIOLATION":   ErrCodeIntegrityViolated,
	"RESOLUTION_FAILED":     ErrCodeValidation,
	"EMPTY_SALE":            ErrCodeValidation,
	"INVALID_SCOPE":         ErrCodeBadRequest,
	"DUPLICATE_THRESHOLD":   ErrCodeConflict,
}

// statusMap maps API error codes to HTTP status codes
var statusMap = map[string]int{
	ErrCodeUnknown:           http.StatusInternalServerError,
	ErrCodeInternal:          http.StatusInternalServerError,
	ErrCodeValidation:        http.StatusBadRequest,
	ErrCodeBadRequest:        http.StatusBadRequest,
	ErrCodeNotFound:          http.StatusNotFound,
	ErrCodeAlreadyExists:     http.StatusConflict,
	ErrCodeConflict:          http.StatusConflict,
	ErrCodeInvalidState:      http.StatusConflict,
	ErrCodeCategoryInUse:     http.StatusConflict,
	ErrCodeMigrationFailed:   http.StatusInternalServerError,
	ErrCodeIntegrityViolated: http.StatusConflict,
}

// NormalizeErrorCode maps a domain error code onto the API error code
// vocabulary. The INVALID_* family all normalize to a validation error;
// anything unrecognized falls back to ERR_UNKNOWN.
func NormalizeErrorCode(code string) string {
	if mapped, ok := domainCodeMap[code]; ok {
		return mapped
	}
	if strings.HasPrefix(code, "INVALID_") {
		return ErrCodeValidation
	}
	return ErrCodeUnknown
}

// GetHTTPStatus returns the HTTP status for an API error code
func GetHTTPStatus(code string) int {
	if status, ok := statusMap[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}
