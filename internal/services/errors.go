package services

import (
	"errors"
	"fmt"
)

// Stable machine-readable error codes surfaced to API callers. Invariant
// violations always carry one of these; they are never silently coerced.
const (
	CodeAmountLimitExceeded         = "AMOUNT_LIMIT_EXCEEDED"
	CodeLedgerValidationError       = "LEDGER_VALIDATION_ERROR"
	CodeInvalidStateTransition      = "INVALID_STATE_TRANSITION"
	CodeJurisdictionResolutionError = "JURISDICTION_RESOLUTION_ERROR"
	CodeRateResolutionError         = "RATE_RESOLUTION_ERROR"
	CodeRefundAmountExceeded        = "REFUND_AMOUNT_EXCEEDED"
	CodeSSRFBlocked                 = "SSRF_BLOCKED"
	CodeCalculationNotFound         = "CALCULATION_NOT_FOUND"
)

// TaxError is a domain failure with a stable code and a caller-safe
// message. Internal details stay in the wrapped cause and the logs.
type TaxError struct {
	Code    string
	Message string
	cause   error
}

func (e *TaxError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *TaxError) Unwrap() error {
	return e.cause
}

// NewTaxError builds a TaxError with an optional wrapped cause.
func NewTaxError(code, message string, cause error) *TaxError {
	return &TaxError{Code: code, Message: message, cause: cause}
}

// TaxErrorCode extracts the stable code from an error chain, or "" when
// the error is not a domain failure.
func TaxErrorCode(err error) string {
	var te *TaxError
	if errors.As(err, &te) {
		return te.Code
	}
	return ""
}

// IsTaxErrorCode reports whether err carries the given code.
func IsTaxErrorCode(err error, code string) bool {
	return TaxErrorCode(err) == code
}
