package errors

import (
	"errors"
	"fmt"
)

// ErrorType classifies failures of a case evaluation. The taxonomy is narrow
// because the engine is pure computation over already-validated inputs.
type ErrorType string

const (
	// ErrorTypeValidation covers malformed input: negative loan terms,
	// out-of-order ledgers, missing required fields.
	ErrorTypeValidation ErrorType = "validation"
	// ErrorTypeBusiness covers inputs that are well-formed but cannot be
	// evaluated under current policy.
	ErrorTypeBusiness ErrorType = "business"
	// ErrorTypeInternal covers invariant violations inside the engine,
	// such as a score breakdown that cannot be reconstructed from its
	// deduction records. These are programming errors, never corrected
	// silently.
	ErrorTypeInternal ErrorType = "internal"
)

// AppError represents a structured application error
type AppError struct {
	Type      ErrorType              `json:"type"`
	Code      string                 `json:"code"`
	Message   string                 `json:"message"`
	Details   map[string]interface{} `json:"details,omitempty"`
	Cause     error                  `json:"-"`
	Retryable bool                   `json:"retryable"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithDetails derives a new error carrying the given details. The receiver is
// never modified, so the package-level sentinels stay immutable and errors
// from concurrent case evaluations cannot bleed into each other.
func (e *AppError) WithDetails(details map[string]interface{}) *AppError {
	clone := *e
	clone.Details = details
	return &clone
}

// WithCause derives a new error wrapping the given cause. The receiver is
// never modified.
func (e *AppError) WithCause(cause error) *AppError {
	clone := *e
	clone.Cause = cause
	return &clone
}

// Error constructors
func NewValidationError(code, message string) *AppError {
	return &AppError{
		Type:      ErrorTypeValidation,
		Code:      code,
		Message:   message,
		Retryable: true, // caller may re-invoke with corrected input
	}
}

func NewBusinessError(code, message string) *AppError {
	return &AppError{
		Type:      ErrorTypeBusiness,
		Code:      code,
		Message:   message,
		Retryable: false,
	}
}

func NewInternalError(message string) *AppError {
	return &AppError{
		Type:      ErrorTypeInternal,
		Code:      "INTERNAL_ERROR",
		Message:   message,
		Retryable: false,
	}
}

// Predefined common errors
var (
	ErrInvalidInput       = NewValidationError("INVALID_INPUT", "invalid input provided")
	ErrLedgerOutOfOrder   = NewValidationError("LEDGER_OUT_OF_ORDER", "transaction ledger is not ordered by date ascending")
	ErrInvalidLoanTerm    = NewValidationError("INVALID_LOAN_TERM", "loan term must be a positive number of months")
	ErrScoreInconsistency = NewInternalError("score breakdown is not reconstructible from deduction records")
)

// Wrap wraps an error with a message using fmt.Errorf with %w
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// IsType checks if an error is of a specific type
func IsType(err error, errorType ErrorType) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type == errorType
	}
	return false
}

// AsAppError extracts an AppError from an error chain
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}
