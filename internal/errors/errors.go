// Package errors provides custom error types for the inventory core.
// Service, repository and sync errors should use AppError so callers get a
// stable code and a message that never leaks storage details.
package errors

import "net/http"

// AppError represents a structured application error with an error code,
// human-readable message, HTTP status code, and optional internal error.
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	Internal   error  `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string { return e.Message }

// Unwrap returns the internal error for use with errors.Is/As.
func (e *AppError) Unwrap() error { return e.Internal }

// Is reports whether target is an AppError with the same code, so a wrapped
// copy still matches its sentinel.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// Wrap creates a new AppError with the same code/message/status but wraps an internal error.
func Wrap(sentinel *AppError, internal error) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    sentinel.Message,
		StatusCode: sentinel.StatusCode,
		Internal:   internal,
	}
}

// WithMessage creates a new AppError with a custom message.
func WithMessage(sentinel *AppError, message string) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    message,
		StatusCode: sentinel.StatusCode,
		Internal:   sentinel.Internal,
	}
}

// Authentication & authorization errors.
var (
	ErrUnauthorized = &AppError{Code: "UNAUTHORIZED", Message: "Authentication required", StatusCode: http.StatusUnauthorized}
)

// General errors.
var (
	ErrInvalidInput   = &AppError{Code: "INVALID_INPUT", Message: "Invalid input", StatusCode: http.StatusBadRequest}
	ErrNotFound       = &AppError{Code: "NOT_FOUND", Message: "Resource not found", StatusCode: http.StatusNotFound}
	ErrInternalServer = &AppError{Code: "INTERNAL_ERROR", Message: "An internal error occurred", StatusCode: http.StatusInternalServerError}
)

// Owner errors.
var (
	ErrOwnerNotFound = &AppError{Code: "OWNER_NOT_FOUND", Message: "Owner not found", StatusCode: http.StatusNotFound}
)

// Inventory errors.
var (
	ErrInvalidNumericInput = &AppError{Code: "INVALID_NUMERIC_INPUT", Message: "COST PER UNIT, CURRENT PRICE, and QUANTITY must be numbers", StatusCode: http.StatusBadRequest}
	// ErrItemNotFound covers both a missing item and an item owned by someone else.
	ErrItemNotFound   = &AppError{Code: "ITEM_NOT_FOUND", Message: "User cannot access this item", StatusCode: http.StatusNotFound}
	ErrStorageWrite   = &AppError{Code: "STORAGE_WRITE_FAILURE", Message: "Failed to write to the inventory store", StatusCode: http.StatusInternalServerError}
	ErrNameUnresolved = &AppError{Code: "INVALID_INPUT", Message: "Error getting name from link, please ensure link is correct", StatusCode: http.StatusBadRequest}
)

// Price sync errors.
var (
	ErrPriceUnavailable   = &AppError{Code: "PRICE_UNAVAILABLE", Message: "No price available for item", StatusCode: http.StatusBadGateway}
	ErrSyncInProgress     = &AppError{Code: "SYNC_IN_PROGRESS", Message: "A price sync cycle is already running", StatusCode: http.StatusConflict}
	ErrSyncStatusNotFound = &AppError{Code: "SYNC_STATUS_NOT_FOUND", Message: "No price sync has completed yet", StatusCode: http.StatusNotFound}
)
