package domain

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"
)

type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	Err        error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func (e *AppError) WithError(err error) *AppError {
	return &AppError{
		Code:       e.Code,
		Message:    e.Message,
		StatusCode: e.StatusCode,
		Err:        err,
	}
}

// Is matches any AppError carrying the same code, so errors.Is(err, ErrRateLimited)
// holds for copies produced by WithError.
func (e *AppError) Is(target error) bool {
	var t *AppError
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// Pre-defined errors
var (
	ErrInternal = &AppError{
		Code:       "INTERNAL_ERROR",
		Message:    "An unexpected error occurred",
		StatusCode: 500,
	}

	ErrBadRequest = &AppError{
		Code:       "BAD_REQUEST",
		Message:    "Invalid request",
		StatusCode: 400,
	}

	ErrUnauthorized = &AppError{
		Code:       "UNAUTHORIZED",
		Message:    "Invalid or missing credentials",
		StatusCode: 401,
	}

	ErrForbidden = &AppError{
		Code:       "FORBIDDEN",
		Message:    "Access denied",
		StatusCode: 403,
	}

	ErrNotFound = &AppError{
		Code:       "NOT_FOUND",
		Message:    "Resource not found",
		StatusCode: 404,
	}

	ErrNoCachedResult = &AppError{
		Code:       "NO_CACHED_RESULT",
		Message:    "No recent analysis result for this client",
		StatusCode: 404,
	}

	ErrInvalidImage = &AppError{
		Code:       "INVALID_IMAGE",
		Message:    "Invalid image format or corrupted file",
		StatusCode: 422,
	}

	ErrValidationFailed = &AppError{
		Code:       "VALIDATION_FAILED",
		Message:    "Request validation failed",
		StatusCode: 422,
	}

	ErrRateLimited = &AppError{
		Code:       "RATE_LIMITED",
		Message:    "Please wait before requesting another analysis",
		StatusCode: 429,
	}

	ErrHourlyQuotaExceeded = &AppError{
		Code:       "HOURLY_QUOTA_EXCEEDED",
		Message:    "Hourly analysis quota exhausted, try again later",
		StatusCode: 429,
	}

	ErrRateLimitExceeded = &AppError{
		Code:       "RATE_LIMIT_EXCEEDED",
		Message:    "Rate limit exceeded, please try again later",
		StatusCode: 429,
	}

	ErrRequestCanceled = &AppError{
		Code:       "REQUEST_CANCELED",
		Message:    "The request was canceled before the analysis started",
		StatusCode: 499,
	}

	ErrRequestTimeout = &AppError{
		Code:       "REQUEST_TIMEOUT",
		Message:    "The request timed out before the analysis started",
		StatusCode: 408,
	}

	ErrMaintenanceMode = &AppError{
		Code:       "MAINTENANCE_MODE",
		Message:    "OnlyFachas is under maintenance, come back soon",
		StatusCode: 503,
	}
)

// RetryableError is an AppError that tells the client how long to wait.
type RetryableError struct {
	*AppError
	RetryAfter time.Duration
}

func (e *RetryableError) Unwrap() error {
	return e.AppError
}

// RetryAfterSeconds rounds the wait up to whole seconds, never below 1.
func (e *RetryableError) RetryAfterSeconds() int {
	secs := int(math.Ceil(e.RetryAfter.Seconds()))
	if secs < 1 {
		return 1
	}
	return secs
}

// NewCooldownError builds the user facing "wait N seconds" error.
func NewCooldownError(remaining time.Duration) *RetryableError {
	e := &RetryableError{RetryAfter: remaining}
	e.AppError = &AppError{
		Code:       ErrRateLimited.Code,
		Message:    fmt.Sprintf("Please wait %d seconds before requesting another analysis", e.RetryAfterSeconds()),
		StatusCode: ErrRateLimited.StatusCode,
	}
	return e
}

// NewQuotaError reports an exhausted hourly window and when the next slot frees up.
func NewQuotaError(retryAfter time.Duration) *RetryableError {
	return &RetryableError{
		AppError:   ErrHourlyQuotaExceeded.WithError(nil),
		RetryAfter: retryAfter,
	}
}

// FromContext maps a context error to its request level AppError; other errors pass through.
func FromContext(err error) error {
	switch {
	case errors.Is(err, context.Canceled):
		return ErrRequestCanceled.WithError(err)
	case errors.Is(err, context.DeadlineExceeded):
		return ErrRequestTimeout.WithError(err)
	default:
		return err
	}
}
