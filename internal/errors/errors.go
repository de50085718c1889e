package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode represents application error codes.
type ErrorCode string

const (
	// General errors
	ErrInternal   ErrorCode = "INTERNAL_ERROR"
	ErrValidation ErrorCode = "VALIDATION_ERROR"
	ErrNotFound   ErrorCode = "NOT_FOUND"

	// Analysis pipeline errors. Each stage of the pipeline fails with exactly one
	// of these; none of them is retried.
	ErrMalformedReference ErrorCode = "MALFORMED_REFERENCE"
	ErrBlobNotFound       ErrorCode = "BLOB_NOT_FOUND"
	ErrTranscription      ErrorCode = "TRANSCRIPTION_FAILED"
	ErrRateLimited        ErrorCode = "PROVIDER_RATE_LIMITED"
	ErrBillingRequired    ErrorCode = "PROVIDER_BILLING_REQUIRED"
	ErrProvider           ErrorCode = "PROVIDER_ERROR"
	ErrUnparsableAnalysis ErrorCode = "UNPARSABLE_ANALYSIS"
	ErrSpeechNotFound     ErrorCode = "SPEECH_NOT_FOUND"
	ErrPersistence        ErrorCode = "PERSISTENCE_ERROR"
)

// AppError represents an application error with code and metadata.
type AppError struct {
	Code    ErrorCode              `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
	Err     error                  `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the wrapped error.
func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError.
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an existing error with an AppError.
func Wrap(code ErrorCode, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// WithDetails adds details to the error.
func (e *AppError) WithDetails(details map[string]interface{}) *AppError {
	e.Details = details
	return e
}

// HTTPStatus returns the HTTP status code for the error.
func (e *AppError) HTTPStatus() int {
	switch e.Code {
	case ErrValidation, ErrMalformedReference:
		return http.StatusBadRequest
	case ErrNotFound, ErrBlobNotFound, ErrSpeechNotFound:
		return http.StatusNotFound
	case ErrRateLimited:
		return http.StatusTooManyRequests
	case ErrBillingRequired:
		return http.StatusPaymentRequired
	case ErrUnparsableAnalysis:
		return http.StatusUnprocessableEntity
	case ErrTranscription, ErrProvider:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Code extracts the ErrorCode from any error, ErrInternal if it is not an AppError.
func Code(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ErrInternal
}

// Is reports whether err carries the given code.
func Is(err error, code ErrorCode) bool {
	return Code(err) == code
}

// Common error constructors
func Internal(message string) *AppError {
	return New(ErrInternal, message)
}

func InternalWrap(message string, err error) *AppError {
	return Wrap(ErrInternal, message, err)
}

func Validation(message string) *AppError {
	return New(ErrValidation, message)
}

func NotFound(resource string) *AppError {
	return New(ErrNotFound, fmt.Sprintf("%s not found", resource))
}

func MalformedReference(message string) *AppError {
	return New(ErrMalformedReference, message)
}

func SpeechNotFound(speechID string) *AppError {
	return New(ErrSpeechNotFound, fmt.Sprintf("speech %s not found", speechID))
}

// TranscriptionFailed records the provider status and message alongside the error.
func TranscriptionFailed(status int, providerMessage string) *AppError {
	return New(ErrTranscription, fmt.Sprintf("transcription failed: %d - %s", status, providerMessage)).
		WithDetails(map[string]interface{}{"provider_status": status})
}

// ProviderError maps a feedback-model provider status to the matching error kind:
// 429 is a rate limit, 402 a billing problem, anything else a generic failure.
func ProviderError(status int, providerMessage string) *AppError {
	switch status {
	case http.StatusTooManyRequests:
		return New(ErrRateLimited, "rate limit exceeded, please try again later")
	case http.StatusPaymentRequired:
		return New(ErrBillingRequired, "payment required, please add credits to your workspace")
	default:
		return New(ErrProvider, fmt.Sprintf("AI analysis failed: %d - %s", status, providerMessage)).
			WithDetails(map[string]interface{}{"provider_status": status})
	}
}
