package dto

import (
	"net/http"
	"strings"
)

// General error codes
const (
	ErrCodeInternal = "INTERNAL_ERROR"
	ErrCodeUnknown  = "UNKNOWN_ERROR"
)

// Input error codes
const (
	ErrCodeValidation    = "VALIDATION_ERROR"
	ErrCodeBadRequest    = "BAD_REQUEST"
	ErrCodeInvalidInput  = "INVALID_INPUT"
	ErrCodeInvalidJSON   = "INVALID_JSON"
	ErrCodePayloadTooBig = "PAYLOAD_TOO_LARGE"
)

// Authentication error codes
const (
	ErrCodeUnauthorized       = "UNAUTHORIZED"
	ErrCodeForbidden          = "FORBIDDEN"
	ErrCodeTokenExpired       = "TOKEN_EXPIRED"
	ErrCodeTokenInvalid       = "TOKEN_INVALID"
	ErrCodeInvalidCredentials = "INVALID_CREDENTIALS"
)

// Resource error codes
const (
	ErrCodeNotFound               = "NOT_FOUND"
	ErrCodeAlreadyExists          = "ALREADY_EXISTS"
	ErrCodeConcurrentModification = "CONCURRENT_MODIFICATION"
	ErrCodeDuplicateRequest       = "DUPLICATE_REQUEST"
)

// Workflow error codes
const (
	ErrCodeInvalidState = "INVALID_STATE"
	ErrCodeRateLimited  = "RATE_LIMITED"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes. Codes not
// listed here are resolved through NormalizeErrorCode.
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeInternal: http.StatusInternalServerError,
	ErrCodeUnknown:  http.StatusInternalServerError,

	ErrCodeValidation:             http.StatusBadRequest,
	ErrCodeBadRequest:             http.StatusBadRequest,
	ErrCodeInvalidInput:           http.StatusBadRequest,
	ErrCodeInvalidJSON:            http.StatusBadRequest,
	"DOCKET_REQUIRED":             http.StatusBadRequest,
	"DATE_REQUIRED":               http.StatusBadRequest,
	"DUPLICATE_SKU":               http.StatusBadRequest,
	"DUPLICATE_LINE_INPUT":        http.StatusBadRequest,
	ErrCodePayloadTooBig:          http.StatusRequestEntityTooLarge,
	ErrCodeRateLimited:            http.StatusTooManyRequests,
	ErrCodeUnauthorized:           http.StatusUnauthorized,
	ErrCodeTokenExpired:           http.StatusUnauthorized,
	ErrCodeTokenInvalid:           http.StatusUnauthorized,
	ErrCodeInvalidCredentials:     http.StatusUnauthorized,
	"INVALID_PASSWORD":            http.StatusUnauthorized,
	ErrCodeForbidden:              http.StatusForbidden,
	"ACCOUNT_LOCKED":              http.StatusForbidden,
	"ACCOUNT_DEACTIVATED":         http.StatusForbidden,
	"ACCOUNT_INACTIVE":            http.StatusForbidden,
	ErrCodeNotFound:               http.StatusNotFound,
	ErrCodeAlreadyExists:          http.StatusConflict,
	ErrCodeConcurrentModification: http.StatusConflict,
	ErrCodeDuplicateRequest:       http.StatusConflict,

	// workflow rule violations
	ErrCodeInvalidState:       http.StatusUnprocessableEntity,
	"NOTHING_TO_SUBMIT":       http.StatusUnprocessableEntity,
	"CANNOT_REMOVE_LAST_LINE": http.StatusUnprocessableEntity,
	"LINE_NOT_OUTSTANDING":    http.StatusUnprocessableEntity,
	"STATUS_UNCHANGED":        http.StatusUnprocessableEntity,
	"ITEM_INACTIVE":           http.StatusUnprocessableEntity,
	"NO_LINES":                http.StatusUnprocessableEntity,
}

// GetHTTPStatus returns the HTTP status for an error code, 500 if unknown
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	if status, ok := ErrorCodeHTTPStatus[NormalizeErrorCode(code)]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// NormalizeErrorCode folds a specific domain code into its category:
// X_NOT_FOUND to NOT_FOUND, INVALID_X to INVALID_INPUT, TOKEN_X to
// TOKEN_INVALID. Other codes are returned unchanged.
func NormalizeErrorCode(code string) string {
	switch {
	case code == ErrCodeNotFound || strings.HasSuffix(code, "_NOT_FOUND"):
		return ErrCodeNotFound
	case strings.HasPrefix(code, "INVALID_") && code != ErrCodeInvalidState && code != ErrCodeInvalidCredentials:
		return ErrCodeInvalidInput
	case strings.HasPrefix(code, "TOKEN_") && code != ErrCodeTokenExpired:
		return ErrCodeTokenInvalid
	}
	return code
}
