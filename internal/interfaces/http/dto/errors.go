package dto

import (
	"net/http"
	"strings"
)

// Transport-level error codes. Domain errors keep their own codes.
const (
	ErrCodeInternal       = "INTERNAL_ERROR"
	ErrCodeValidation     = "VALIDATION_ERROR"
	ErrCodeBadRequest     = "BAD_REQUEST"
	ErrCodeInvalidJSON    = "INVALID_JSON"
	ErrCodeInvalidID      = "INVALID_ID"
	ErrCodeUnauthorized   = "UNAUTHORIZED"
	ErrCodeTokenExpired   = "TOKEN_EXPIRED"
	ErrCodeTokenInvalid   = "INVALID_TOKEN"
	ErrCodeForbidden      = "FORBIDDEN"
	ErrCodeTenantRequired = "TENANT_REQUIRED"
	ErrCodeTenantMismatch = "TENANT_MISMATCH"
	ErrCodeNotFound       = "NOT_FOUND"
	ErrCodeRateLimited    = "RATE_LIMITED"
	ErrCodeTooLarge       = "REQUEST_TOO_LARGE"
)

// ErrorCodeHTTPStatus maps error codes with a fixed status
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeInternal:       http.StatusInternalServerError,
	ErrCodeValidation:     http.StatusBadRequest,
	ErrCodeBadRequest:     http.StatusBadRequest,
	ErrCodeInvalidJSON:    http.StatusBadRequest,
	ErrCodeInvalidID:      http.StatusBadRequest,
	ErrCodeTenantRequired: http.StatusBadRequest,
	ErrCodeRateLimited:    http.StatusTooManyRequests,
	ErrCodeTooLarge:       http.StatusRequestEntityTooLarge,

	ErrCodeUnauthorized:   http.StatusUnauthorized,
	ErrCodeTokenExpired:   http.StatusUnauthorized,
	ErrCodeTokenInvalid:   http.StatusUnauthorized,
	"INVALID_CREDENTIALS": http.StatusUnauthorized,
	ErrCodeForbidden:      http.StatusForbidden,
	ErrCodeTenantMismatch: http.StatusForbidden,
	"TENANT_INACTIVE":     http.StatusForbidden,
	"ACCOUNT_LOCKED":      http.StatusForbidden,

	ErrCodeNotFound:        http.StatusNotFound,
	"ALREADY_EXISTS":       http.StatusConflict,
	"CONCURRENCY_CONFLICT": http.StatusConflict,
	"DUPLICATE_REQUEST":    http.StatusConflict,
	"INVALID_STATE":        http.StatusUnprocessableEntity,

	"IDEMPOTENCY_IN_PROGRESS": http.StatusConflict,

	"PRINTING_DISABLED": http.StatusServiceUnavailable,
}

// GetHTTPStatus returns the status for an error code. Codes outside the table fall into
// families: INVALID_* is a 400, *_NOT_FOUND a 404 and any other domain rule a 422.
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	switch {
	case code == "":
		return http.StatusInternalServerError
	case strings.HasPrefix(code, "INVALID_"):
		return http.StatusBadRequest
	case strings.HasSuffix(code, "_NOT_FOUND"):
		return http.StatusNotFound
	default:
		return http.StatusUnprocessableEntity
	}
}
