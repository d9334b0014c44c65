package domain

import (
	"errors"
	"fmt"
)

// ErrorCode represents a machine-readable error code
type ErrorCode string

const (
	// Configuration errors (CONFIG_*)
	ErrorCodeConfigMissing       ErrorCode = "CONFIG_MISSING"
	ErrorCodeConfigInvalid       ErrorCode = "CONFIG_INVALID"
	ErrorCodeProviderUnsupported ErrorCode = "PROVIDER_UNSUPPORTED"

	// Provider errors (PROVIDER_*)
	ErrorCodeProviderUnavailable ErrorCode = "PROVIDER_UNAVAILABLE"
	ErrorCodeProviderAuthFailed  ErrorCode = "PROVIDER_AUTH_FAILED"
	ErrorCodeTxnNotFound         ErrorCode = "TXN_NOT_FOUND"

	// Signature errors (SIGNATURE_*)
	ErrorCodeSignatureMismatch ErrorCode = "SIGNATURE_MISMATCH"

	// Reservation errors (RESERVATION_*)
	ErrorCodeReservationNotFound     ErrorCode = "RESERVATION_NOT_FOUND"
	ErrorCodeReservationExpired      ErrorCode = "RESERVATION_EXPIRED"
	ErrorCodeReservationInvalidState ErrorCode = "RESERVATION_INVALID_STATE"
	ErrorCodeSeatsExhausted          ErrorCode = "RESERVATION_SEATS_EXHAUSTED"

	// Plan errors (PLAN_*)
	ErrorCodePlanNotFound ErrorCode = "PLAN_NOT_FOUND"

	// Validation errors (VALIDATION_*)
	ErrorCodeValidationFailed ErrorCode = "VALIDATION_FAILED"

	// Internal errors (INTERNAL_*)
	ErrorCodeInternalError ErrorCode = "INTERNAL_ERROR"
	ErrorCodeDatabaseError ErrorCode = "INTERNAL_DATABASE_ERROR"
)

// DomainError represents a structured domain error with error code and context
type DomainError struct {
	Err     error
	Details map[string]interface{}
	Code    ErrorCode
	Message string
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *DomainError) Unwrap() error {
	return e.Err
}

// WithDetail returns a copy of the error with a detail field added.
// Copying keeps the package-level error values immutable, so details
// attached on one request never leak into another.
func (e *DomainError) WithDetail(key string, value interface{}) *DomainError {
	details := make(map[string]interface{}, len(e.Details)+1)
	for k, v := range e.Details {
		details[k] = v
	}
	details[key] = value
	return &DomainError{
		Err:     e.Err,
		Details: details,
		Code:    e.Code,
		Message: e.Message,
	}
}

// NewDomainError creates a new domain error
func NewDomainError(code ErrorCode, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
	}
}

// WrapError wraps an existing error with a domain error code
func WrapError(code ErrorCode, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
		Err:     err,
	}
}

// IsDomainError checks if an error is a DomainError with the given code
func IsDomainError(err error, code ErrorCode) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code == code
	}
	return false
}

// GetErrorCode extracts the error code from an error, returns empty string if not a DomainError
func GetErrorCode(err error) ErrorCode {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code
	}
	return ""
}

// IsRetryable reports whether the caller should retry with backoff.
// Only transient provider failures qualify; everything else is either
// terminal for the attempt or a configuration bug.
func IsRetryable(err error) bool {
	return GetErrorCode(err) == ErrorCodeProviderUnavailable
}

// IsNotFoundError checks if an error represents a "not found" condition
func IsNotFoundError(err error) bool {
	code := GetErrorCode(err)
	return code == ErrorCodeTxnNotFound ||
		code == ErrorCodeReservationNotFound ||
		code == ErrorCodePlanNotFound
}

// IsConfigurationError checks if an error is a deployment configuration bug
func IsConfigurationError(err error) bool {
	code := GetErrorCode(err)
	return code == ErrorCodeConfigMissing ||
		code == ErrorCodeConfigInvalid ||
		code == ErrorCodeProviderUnsupported
}

// Structured error instances
var (
	ErrConfigurationMissing = NewDomainError(ErrorCodeConfigMissing, "no active gateway configured")
	ErrConfigurationInvalid = NewDomainError(ErrorCodeConfigInvalid, "gateway configuration is invalid")
	ErrUnsupportedProvider  = NewDomainError(ErrorCodeProviderUnsupported, "unsupported payment provider")

	ErrProviderUnavailable = NewDomainError(ErrorCodeProviderUnavailable, "payment provider unavailable")
	ErrProviderAuthFailed  = NewDomainError(ErrorCodeProviderAuthFailed, "payment provider rejected credentials")
	ErrTxnNotFound         = NewDomainError(ErrorCodeTxnNotFound, "provider transaction not found")

	ErrSignatureMismatch = NewDomainError(ErrorCodeSignatureMismatch, "signature validation failed")

	ErrReservationNotFound     = NewDomainError(ErrorCodeReservationNotFound, "reservation not found")
	ErrReservationExpired      = NewDomainError(ErrorCodeReservationExpired, "reservation has expired")
	ErrReservationInvalidState = NewDomainError(ErrorCodeReservationInvalidState, "reservation is in invalid state for this operation")
	ErrSeatsExhausted          = NewDomainError(ErrorCodeSeatsExhausted, "plan has no remaining seats")

	ErrPlanNotFound = NewDomainError(ErrorCodePlanNotFound, "plan not found")

	ErrValidationFailed = NewDomainError(ErrorCodeValidationFailed, "validation failed")

	ErrInternalError = NewDomainError(ErrorCodeInternalError, "internal server error")
	ErrDatabaseError = NewDomainError(ErrorCodeDatabaseError, "database error")
)
