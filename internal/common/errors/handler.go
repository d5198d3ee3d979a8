package errors

import (
	"errors"
	"net/http"
	"time"
)

// Normalize ensures we always have a StandardError.
func Normalize(err error) *StandardError {
	var stdErr *StandardError
	if errors.As(err, &stdErr) {
		return stdErr
	}
	return &StandardError{
		Code:      ErrCodeInternal,
		Message:   "Unexpected error",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// HTTPStatus maps an error code to the HTTP status the API surface returns.
func HTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeValidationFailed:
		return http.StatusBadRequest
	case ErrCodeFAQNotFound, ErrCodeSessionNotFound:
		return http.StatusNotFound
	case ErrCodeSessionExpired:
		return http.StatusGone
	case ErrCodeSessionLimit:
		return http.StatusTooManyRequests
	case ErrCodeProviderTimeout:
		return http.StatusGatewayTimeout
	case ErrCodeProviderCallFailed, ErrCodeProviderNotConfigured:
		return http.StatusBadGateway
	case ErrCodeFAQQueryFailed, ErrCodeFAQInsertFailed, ErrCodeDatabaseConnectionFailed:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
