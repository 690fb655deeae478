// Package apperror provides structured error handling for the ledger core.
// Every business-rule rejection carries a machine-readable code plus the
// numbers the caller needs to display (attempted amount, balance, limit, …).
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes.
const (
	// Infrastructure (5xx). Timeout and Storage are the only retryable kinds,
	// and only safely retryable with an idempotency key.
	CodeInternal = "INTERNAL_ERROR"
	CodeStorage  = "STORAGE_UNAVAILABLE"
	CodeTimeout  = "TIMEOUT_ERROR"

	// Validation (400)
	CodeValidation = "VALIDATION_ERROR"

	// Business rule violations (422). Deterministic, never auto-retried.
	CodeCreditLimitExceeded  = "CREDIT_LIMIT_EXCEEDED"
	CodeInsufficientStock    = "INSUFFICIENT_STOCK"
	CodeSessionClosed        = "SESSION_CLOSED"
	CodeSessionAlreadyClosed = "SESSION_ALREADY_CLOSED"
	CodeRegisterAlreadyOpen  = "REGISTER_ALREADY_OPEN"
	CodeOrderFinalized       = "ORDER_FINALIZED"

	// Authorization (401, 403)
	CodeUnauthorized = "UNAUTHORIZED"
	CodeForbidden    = "FORBIDDEN"

	// Not found (404)
	CodeNotFound = "NOT_FOUND"

	// Conflict (409)
	CodeConflict    = "CONFLICT"
	CodeIdempotency = "IDEMPOTENCY_CONFLICT"
)

// AppError is the standard error type for the service.
type AppError struct {
	// Code is a machine-readable error identifier
	Code string `json:"code"`

	// Message is a human-readable error description
	Message string `json:"message"`

	// Details contains additional context (field names, quantities, limits)
	Details map[string]any `json:"details,omitempty"`

	// HTTPStatus is the suggested HTTP status code
	HTTPStatus int `json:"-"`

	// Err is the underlying error (not exposed in JSON)
	Err error `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *AppError) Unwrap() error {
	return e.Err
}

// WithDetail adds a key-value pair to error details.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// WithCause sets the underlying error.
func (e *AppError) WithCause(err error) *AppError {
	e.Err = err
	return e
}

// --- Factory functions ---

// NewValidation creates a validation error (400).
func NewValidation(message string) *AppError {
	return &AppError{
		Code:       CodeValidation,
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
	}
}

// NewNotFound creates a not found error (404).
func NewNotFound(entity string, id any) *AppError {
	return &AppError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", entity),
		HTTPStatus: http.StatusNotFound,
		Details:    map[string]any{"entity": entity, "id": id},
	}
}

// NewCreditLimitExceeded reports a rejected CHARGE. Carries the attempted
// amount, the current balance and the limit for direct UI display.
func NewCreditLimitExceeded(accountID string, attempted, balance, limit string) *AppError {
	return &AppError{
		Code:       CodeCreditLimitExceeded,
		Message:    "Charge would exceed the customer credit limit",
		HTTPStatus: http.StatusUnprocessableEntity,
		Details: map[string]any{
			"account_id":       accountID,
			"attempted_amount": attempted,
			"current_balance":  balance,
			"credit_limit":     limit,
		},
	}
}

// NewInsufficientStock reports a rejected OUT movement.
func NewInsufficientStock(productID string, requested, available string) *AppError {
	return &AppError{
		Code:       CodeInsufficientStock,
		Message:    "Insufficient stock",
		HTTPStatus: http.StatusUnprocessableEntity,
		Details: map[string]any{
			"product_id": productID,
			"requested":  requested,
			"available":  available,
		},
	}
}

// NewSessionClosed reports a cash movement against a non-open session.
func NewSessionClosed(sessionID string) *AppError {
	return &AppError{
		Code:       CodeSessionClosed,
		Message:    "Cash session is not open",
		HTTPStatus: http.StatusUnprocessableEntity,
		Details:    map[string]any{"session_id": sessionID},
	}
}

// NewSessionAlreadyClosed reports a second close of a cash session.
func NewSessionAlreadyClosed(sessionID string) *AppError {
	return &AppError{
		Code:       CodeSessionAlreadyClosed,
		Message:    "Cash session is already closed",
		HTTPStatus: http.StatusUnprocessableEntity,
		Details:    map[string]any{"session_id": sessionID},
	}
}

// NewRegisterAlreadyOpen reports an open attempt while a session is open
// for the same register.
func NewRegisterAlreadyOpen(registerID, openSessionID string) *AppError {
	return &AppError{
		Code:       CodeRegisterAlreadyOpen,
		Message:    "Register already has an open cash session",
		HTTPStatus: http.StatusUnprocessableEntity,
		Details: map[string]any{
			"register_id":     registerID,
			"open_session_id": openSessionID,
		},
	}
}

// NewOrderFinalized reports a line mutation on a finalized order.
func NewOrderFinalized(orderID string) *AppError {
	return &AppError{
		Code:       CodeOrderFinalized,
		Message:    "Order is finalized; record a compensating movement instead",
		HTTPStatus: http.StatusUnprocessableEntity,
		Details:    map[string]any{"order_id": orderID},
	}
}

// NewTimeout reports a unit of work that could not acquire its aggregate key
// within the configured window. Retryable with backoff.
func NewTimeout(key string) *AppError {
	return &AppError{
		Code:       CodeTimeout,
		Message:    "Operation timed out waiting for the aggregate; retry with backoff",
		HTTPStatus: http.StatusServiceUnavailable,
		Details:    map[string]any{"aggregate_key": key},
	}
}

// NewStorage wraps an infrastructure failure. Retryable.
func NewStorage(err error) *AppError {
	return &AppError{
		Code:       CodeStorage,
		Message:    "Storage unavailable",
		HTTPStatus: http.StatusServiceUnavailable,
		Err:        err,
	}
}

// NewInternal creates an internal error (hides details from the client).
func NewInternal(err error) *AppError {
	return &AppError{
		Code:       CodeInternal,
		Message:    "Internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// NewUnauthorized creates an authentication error (401).
func NewUnauthorized(message string) *AppError {
	return &AppError{
		Code:       CodeUnauthorized,
		Message:    message,
		HTTPStatus: http.StatusUnauthorized,
	}
}

// NewForbidden creates an authorization error (403).
func NewForbidden(message string) *AppError {
	return &AppError{
		Code:       CodeForbidden,
		Message:    message,
		HTTPStatus: http.StatusForbidden,
	}
}

// NewConflict creates a conflict error (409).
func NewConflict(message string) *AppError {
	return &AppError{
		Code:       CodeConflict,
		Message:    message,
		HTTPStatus: http.StatusConflict,
	}
}

// NewIdempotencyConflict is returned while the same key is being processed.
func NewIdempotencyConflict(key string) *AppError {
	return &AppError{
		Code:       CodeIdempotency,
		Message:    "Operation already in progress or completed",
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"idempotency_key": key},
	}
}

// NewIdempotencyMismatch is returned when the same idempotency key is reused
// for a different request.
func NewIdempotencyMismatch(key string) *AppError {
	return &AppError{
		Code:       CodeIdempotency,
		Message:    "Idempotency key mismatch",
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"idempotency_key": key},
	}
}

// --- Helpers ---

// AsAppError extracts AppError from an error chain.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// GetHTTPStatus returns the appropriate HTTP status for any error.
func GetHTTPStatus(err error) int {
	if appErr, ok := AsAppError(err); ok {
		return appErr.HTTPStatus
	}
	return http.StatusInternalServerError
}

// Is reports whether err carries the given code.
func Is(err error, code string) bool {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Code == code
	}
	return false
}

// IsNotFound reports whether err is CodeNotFound.
func IsNotFound(err error) bool {
	return Is(err, CodeNotFound)
}

// IsRetryable reports whether the error kind may be retried by the caller.
// Only infrastructure failures qualify; business rejections are final.
func IsRetryable(err error) bool {
	return Is(err, CodeTimeout) || Is(err, CodeStorage)
}
