// Package errors provides standardized error handling for the FAQ assistant.
package errors

import (
	"fmt"
	"time"
)

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeValidationFailed ErrorCode = "VALIDATION_FAILED"

	ErrCodeFAQNotFound     ErrorCode = "FAQ_NOT_FOUND"
	ErrCodeFAQQueryFailed  ErrorCode = "FAQ_QUERY_FAILED"
	ErrCodeFAQInsertFailed ErrorCode = "FAQ_INSERT_FAILED"

	ErrCodeSessionNotFound ErrorCode = "SESSION_NOT_FOUND"
	ErrCodeSessionExpired  ErrorCode = "SESSION_EXPIRED"
	ErrCodeSessionLimit    ErrorCode = "SESSION_QUESTION_LIMIT"

	ErrCodeProviderTimeout       ErrorCode = "PROVIDER_TIMEOUT"
	ErrCodeProviderCallFailed    ErrorCode = "PROVIDER_CALL_FAILED"
	ErrCodeProviderNotConfigured ErrorCode = "PROVIDER_NOT_CONFIGURED"

	ErrCodeDatabaseConnectionFailed ErrorCode = "DATABASE_CONNECTION_FAILED"
	ErrCodeInternal                 ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// NewValidationError creates a non-retryable request validation error.
func NewValidationError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeValidationFailed,
		Message:   "Request validation failed",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewFAQNotFoundError creates a non-retryable lookup error.
func NewFAQNotFoundError(id int64) *StandardError {
	return &StandardError{
		Code:      ErrCodeFAQNotFound,
		Message:   "FAQ entry not found",
		Details:   fmt.Sprintf("id=%d", id),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewFAQQueryError creates a retryable storage error.
func NewFAQQueryError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeFAQQueryFailed,
		Message:   "FAQ storage query failed",
		Details:   details,
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewSessionNotFoundError creates a non-retryable session error.
func NewSessionNotFoundError(sessionID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeSessionNotFound,
		Message:   "Session not found or already ended",
		Details:   fmt.Sprintf("session_id=%s", sessionID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewSessionLimitError signals that a session hit its question cap.
func NewSessionLimitError(sessionID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeSessionLimit,
		Message:   "Session question limit reached",
		Details:   fmt.Sprintf("session_id=%s", sessionID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewProviderTimeoutError creates a retryable provider error.
func NewProviderTimeoutError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeProviderTimeout,
		Message:   "Generative provider timed out",
		Details:   details,
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewProviderCallError creates a retryable provider error.
func NewProviderCallError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeProviderCallFailed,
		Message:   "Generative provider call failed",
		Details:   details,
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewInternalError wraps an unexpected error.
func NewInternalError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeInternal,
		Message:   "Unexpected error",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}
