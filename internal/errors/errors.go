package errors

import (
	"errors"
	"fmt"
)

// Error codes
const (
	ErrCodeNotFound          = "NOT_FOUND"
	ErrCodeValidation        = "VALIDATION_ERROR"
	ErrCodeInternal          = "INTERNAL_ERROR"
	ErrCodeConflict          = "CONFLICT"
	ErrCodeCorruptState      = "CORRUPT_STATE"
	ErrCodeInsufficientCards = "INSUFFICIENT_CARDS"
	ErrCodeInvalidResponse   = "INVALID_RESPONSE"
	ErrCodeInvalidGrade      = "INVALID_GRADE"
)

// AppError represents an application error with HTTP status code and error code
type AppError struct {
	Code    string // Error code (e.g., "NOT_FOUND", "CORRUPT_STATE")
	Message string // Human-readable error message
	Status  int    // HTTP status code
	Err     error  // Wrapped underlying error (optional)
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for error wrapping support
func (e *AppError) Unwrap() error {
	return e.Err
}

// HasCode reports whether err is an AppError carrying the given code.
func HasCode(err error, code string) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// NewNotFoundError creates a new NOT_FOUND error
func NewNotFoundError(resource string, id interface{}) *AppError {
	return &AppError{
		Code:    ErrCodeNotFound,
		Message: fmt.Sprintf("%s not found: %v", resource, id),
		Status:  404,
	}
}

// NewValidationError creates a new VALIDATION_ERROR
func NewValidationError(field string, reason string) *AppError {
	return &AppError{
		Code:    ErrCodeValidation,
		Message: fmt.Sprintf("validation failed for %s: %s", field, reason),
		Status:  400,
	}
}

// NewInternalError creates a new INTERNAL_ERROR
func NewInternalError(err error) *AppError {
	return &AppError{
		Code:    ErrCodeInternal,
		Message: "internal server error",
		Status:  500,
		Err:     err,
	}
}

// NewConflictError creates a new CONFLICT error
func NewConflictError(message string) *AppError {
	return &AppError{
		Code:    ErrCodeConflict,
		Message: message,
		Status:  409,
	}
}

// NewCorruptStateError signals an invariant violation in stored review
// state. Fatal for the affected card: callers must not retry or silently
// repair, only reset the card's state explicitly.
func NewCorruptStateError(cardID int64, reason string) *AppError {
	return &AppError{
		Code:    ErrCodeCorruptState,
		Message: fmt.Sprintf("review state for card %d is corrupt: %s", cardID, reason),
		Status:  500,
	}
}

// NewInsufficientCardsError creates a new INSUFFICIENT_CARDS error
func NewInsufficientCardsError(mode string, need, have int) *AppError {
	return &AppError{
		Code:    ErrCodeInsufficientCards,
		Message: fmt.Sprintf("%s mode needs at least %d cards, deck has %d eligible", mode, need, have),
		Status:  422,
	}
}

// NewInvalidResponseError creates a new INVALID_RESPONSE error
func NewInvalidResponseError(reason string) *AppError {
	return &AppError{
		Code:    ErrCodeInvalidResponse,
		Message: fmt.Sprintf("malformed response: %s", reason),
		Status:  400,
	}
}

// NewInvalidGradeError creates a new INVALID_GRADE error
func NewInvalidGradeError(grade int) *AppError {
	return &AppError{
		Code:    ErrCodeInvalidGrade,
		Message: fmt.Sprintf("grade %d out of range (0-3)", grade),
		Status:  400,
	}
}
