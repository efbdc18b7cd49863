package models

import (
	"net/http"
)

// ErrorResponse represents a standard error response
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
	Reason  string `json:"reason,omitempty"`
}

// NewErrorResponse creates a new error response
func NewErrorResponse(code, message, details string) *ErrorResponse {
	return &ErrorResponse{
		Code:    code,
		Message: message,
		Details: details,
	}
}

// Common error codes
const (
	ErrCodeBadRequest         = "BAD_REQUEST"
	ErrCodeUnauthorized       = "UNAUTHORIZED"
	ErrCodeForbidden          = "FORBIDDEN"
	ErrCodeNotFound           = "NOT_FOUND"
	ErrCodeConflict           = "CONFLICT"
	ErrCodeInternalError      = "INTERNAL_ERROR"
	ErrCodeDatabaseError      = "DATABASE_ERROR"
	ErrCodeValidationError    = "VALIDATION_ERROR"
	ErrCodeInvalidTransition  = "INVALID_TRANSITION"
	ErrCodeVerificationFailed = "VERIFICATION_FAILED"
	ErrCodeProviderDegraded   = "PROVIDER_DEGRADED"
	ErrCodeIntegrityError     = "INTEGRITY_ERROR"
	ErrCodeSigningDeclined    = "SIGNING_DECLINED"
	ErrCodeRequestNotFound    = "REQUEST_NOT_FOUND"
	ErrCodeFileNotFound       = "FILE_NOT_FOUND"
)

// Machine-readable reasons carried by 403 verification failures
const (
	ReasonProofVerificationFailed = "proof-verification-failed"
	ReasonAuditVerificationFailed = "audit-verification-failed"
)

// HTTPStatusForErrorCode returns the appropriate HTTP status code for an error code
func HTTPStatusForErrorCode(code string) int {
	switch code {
	case ErrCodeBadRequest, ErrCodeValidationError, ErrCodeInvalidTransition:
		return http.StatusBadRequest
	case ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case ErrCodeForbidden, ErrCodeVerificationFailed, ErrCodeSigningDeclined:
		return http.StatusForbidden
	case ErrCodeNotFound, ErrCodeRequestNotFound, ErrCodeFileNotFound:
		return http.StatusNotFound
	case ErrCodeConflict:
		return http.StatusConflict
	case ErrCodeInternalError, ErrCodeDatabaseError, ErrCodeIntegrityError:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
