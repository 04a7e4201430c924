package dto

import (
	"net/http"
	"strings"
)

// Codes produced by the HTTP layer itself
const (
	CodeInternal        = "INTERNAL_ERROR"
	CodeValidation      = "VALIDATION_ERROR"
	CodeBadRequest      = "BAD_REQUEST"
	CodeUnauthorized    = "UNAUTHORIZED"
	CodeTokenExpired    = "TOKEN_EXPIRED"
	CodeTokenInvalid    = "TOKEN_INVALID"
	CodeForbidden       = "FORBIDDEN"
	CodeTenantMismatch  = "TENANT_MISMATCH"
	CodeRateLimited     = "RATE_LIMITED"
	CodeRequestTooLarge = "REQUEST_TOO_LARGE"
	CodeNotFound        = "NOT_FOUND"
)

// codeStatus maps domain and HTTP codes to statuses. Unlisted codes fall
// back on their shape: *_NOT_FOUND is 404, INVALID_* is 400 and ALREADY_* is 409.
var codeStatus = map[string]int{
	CodeInternal:        http.StatusInternalServerError,
	CodeValidation:      http.StatusBadRequest,
	CodeBadRequest:      http.StatusBadRequest,
	CodeRequestTooLarge: http.StatusRequestEntityTooLarge,
	CodeRateLimited:     http.StatusTooManyRequests,

	"INVALID_INPUT":       http.StatusBadRequest,
	"PHONE_REQUIRED":      http.StatusBadRequest,
	"INVALID_STORAGE_KEY": http.StatusBadRequest,

	CodeUnauthorized:      http.StatusUnauthorized,
	CodeTokenExpired:      http.StatusUnauthorized,
	CodeTokenInvalid:      http.StatusUnauthorized,
	"INVALID_CREDENTIALS": http.StatusUnauthorized,
	"INVALID_API_KEY":     http.StatusUnauthorized,

	CodeForbidden:        http.StatusForbidden,
	CodeTenantMismatch:   http.StatusForbidden,
	"ACCOUNT_DISABLED":   http.StatusForbidden,
	"TENANT_SUSPENDED":   http.StatusForbidden,
	"INSUFFICIENT_SCOPE": http.StatusForbidden,

	CodeNotFound: http.StatusNotFound,

	"ALREADY_EXISTS": http.StatusConflict,
	"CONFLICT":       http.StatusConflict,
	"INVALID_STATE":  http.StatusConflict,

	"PROVIDER_MALFORMED_RESPONSE": http.StatusBadGateway,
	"PROVIDER_NOT_CONFIGURED":     http.StatusServiceUnavailable,
}

// StatusForCode returns the HTTP status for a code, 500 when unknown
func StatusForCode(code string) int {
	if status, ok := codeStatus[code]; ok {
		return status
	}
	switch {
	case strings.HasSuffix(code, "_NOT_FOUND"):
		return http.StatusNotFound
	case strings.HasPrefix(code, "INVALID_"):
		return http.StatusBadRequest
	case strings.HasPrefix(code, "ALREADY_"):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}
