// Package errors defines the application error taxonomy shared by the queue,
// reconciler, dispatcher, and delivery layers.
package errors

import (
	"net/http"

	"medsync/internal/errors"
)

// AppError defines the interface for application-specific errors
type AppError interface {
	error
	HTTPCode() int     // HTTP status code
	ErrorCode() string // Business error code
	Message() string   // User-friendly error message
	Details() string   // Detailed error information (optional)
}

// BaseError is a basic error structure that implements the AppError interface
type BaseError struct {
	httpCode  int
	errorCode string
	message   string
	details   string
}

// NewBaseError creates a new base error
func NewBaseError(httpCode int, errorCode, message, details string) *BaseError {
	return &BaseError{
		httpCode:  httpCode,
		errorCode: errorCode,
		message:   message,
		details:   details,
	}
}

// Error implements the error interface
func (e *BaseError) Error() string {
	return e.message
}

// WrapMessage wraps the error with additional context message
func (e *BaseError) WrapMessage(message string) error {
	return errors.Wrap(e, message)
}

// HTTPCode returns the HTTP status code
func (e *BaseError) HTTPCode() int {
	return e.httpCode
}

// ErrorCode returns the business error code
func (e *BaseError) ErrorCode() string {
	return e.errorCode
}

// Message returns the user-friendly error message
func (e *BaseError) Message() string {
	return e.message
}

// Details returns detailed error information
func (e *BaseError) Details() string {
	return e.details
}

// Is matches on the business error code so errors.Is still recognizes a
// sentinel after WithDetails produced a detailed copy.
func (e *BaseError) Is(target error) bool {
	var base *BaseError
	if !errors.As(target, &base) {
		return false
	}

	return e.errorCode == base.errorCode
}

// WithDetails adds detailed error information
func (e *BaseError) WithDetails(details string) *BaseError {
	return &BaseError{
		httpCode:  e.httpCode,
		errorCode: e.errorCode,
		message:   e.message,
		details:   details,
	}
}

// Predefined error types. These carry the failure taxonomy: storage, network,
// remote rejection, and channel delivery are distinct kinds so callers can
// decide between retrying, waiting for connectivity, or fixing the data.
var (
	// ErrStorageUnavailable means the local persistence layer is inaccessible
	// (file locked, disk full). Surfaced to the caller, never swallowed.
	ErrStorageUnavailable = NewBaseError(
		http.StatusServiceUnavailable,
		"STORAGE_UNAVAILABLE",
		"Local storage is unavailable",
		"",
	)

	// ErrNetworkUnavailable means a remote call could not be attempted or
	// completed at the transport level. The entry stays pending.
	ErrNetworkUnavailable = NewBaseError(
		http.StatusServiceUnavailable,
		"NETWORK_UNAVAILABLE",
		"Remote API is unreachable",
		"",
	)

	// ErrRemoteRejected means the remote call completed but the server refused
	// the change. Retrying without a data fix would repeat the failure.
	ErrRemoteRejected = NewBaseError(
		http.StatusBadGateway,
		"REMOTE_REJECTED",
		"Remote API rejected the change",
		"",
	)

	// ErrDeliveryFailed means a channel adapter could not deliver a notification.
	ErrDeliveryFailed = NewBaseError(
		http.StatusBadGateway,
		"DELIVERY_FAILED",
		"Notification delivery failed",
		"",
	)

	ErrInvalidEntityType = NewBaseError(
		http.StatusBadRequest,
		"INVALID_ENTITY_TYPE",
		"Unknown entity type",
		"",
	)

	ErrValidationFailed = NewBaseError(
		http.StatusBadRequest,
		"VALIDATION_FAILED",
		"Request validation failed",
		"",
	)

	ErrMessageNotFound = NewBaseError(
		http.StatusNotFound,
		"MESSAGE_NOT_FOUND",
		"Notification message not found",
		"",
	)

	ErrNotFound = NewBaseError(
		http.StatusNotFound,
		"NOT_FOUND",
		"Resource not found",
		"",
	)

	ErrInternalError = NewBaseError(
		http.StatusInternalServerError,
		"INTERNAL_ERROR",
		"Internal error",
		"",
	)
)

// StorageExecuteError represents a local database execution error, implementing
// the AppError interface while preserving the underlying cause.
type StorageExecuteError struct {
	err     error
	details string
}

// NewStorageExecuteError creates a storage-related error
func NewStorageExecuteError(err error, details string) AppError {
	return &StorageExecuteError{
		err:     err,
		details: details,
	}
}

// Error implements the error interface
func (e *StorageExecuteError) Error() string {
	return errors.Wrap(e.err, "storage execution failed").Error()
}

// Unwrap exposes the underlying cause for errors.Is checks.
func (e *StorageExecuteError) Unwrap() error {
	return e.err
}

// HTTPCode returns the HTTP status code
func (e *StorageExecuteError) HTTPCode() int {
	return http.StatusServiceUnavailable
}

// ErrorCode returns the business error code
func (e *StorageExecuteError) ErrorCode() string {
	return "STORAGE_UNAVAILABLE"
}

// Message returns the user-friendly error message
func (e *StorageExecuteError) Message() string {
	return "Local storage is unavailable"
}

// Details returns detailed error information
func (e *StorageExecuteError) Details() string {
	return e.details
}
