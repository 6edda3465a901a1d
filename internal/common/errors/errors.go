// Package errors provides standardized error handling for the task pipeline.
package errors

import (
	"errors"
	"fmt"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeInvalidTaskRequest ErrorCode = "INVALID_TASK_REQUEST"
	ErrCodeUnsupportedRound   ErrorCode = "UNSUPPORTED_ROUND"

	ErrCodeGenerationFailed       ErrorCode = "GENERATION_FAILED"
	ErrCodeGenerationTimeout      ErrorCode = "GENERATION_TIMEOUT"
	ErrCodeInvalidGeneratedOutput ErrorCode = "INVALID_GENERATED_OUTPUT"

	ErrCodeRepoCreateFailed   ErrorCode = "REPO_CREATE_FAILED"
	ErrCodeFilePushFailed     ErrorCode = "FILE_PUSH_FAILED"
	ErrCodePagesConfigFailed  ErrorCode = "PAGES_CONFIG_FAILED"
	ErrCodeCommitLookupFailed ErrorCode = "COMMIT_LOOKUP_FAILED"

	ErrCodeDeliveryExhausted ErrorCode = "DELIVERY_EXHAUSTED"
	ErrCodeRunStoreFailed    ErrorCode = "RUN_STORE_FAILED"
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

// ==========================
// 2. Error Constructors
// ==========================

// NewInvalidTaskRequestError creates a non-retryable request validation error.
func NewInvalidTaskRequestError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidTaskRequest,
		Message:   "Task request failed validation",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewUnsupportedRoundError creates a non-retryable error for round values outside {1, 2}.
func NewUnsupportedRoundError(round int) *StandardError {
	return &StandardError{
		Code:      ErrCodeUnsupportedRound,
		Message:   "Unsupported round value",
		Details:   fmt.Sprintf("round: %d, supported: 1, 2", round),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewGenerationFailedError creates a non-retryable content generation error.
func NewGenerationFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeGenerationFailed,
		Message:   "Content generation failed",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewGenerationTimeoutError creates a retryable generation timeout error.
func NewGenerationTimeoutError() *StandardError {
	return &StandardError{
		Code:      ErrCodeGenerationTimeout,
		Message:   "Content generation timed out",
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidGeneratedOutputError creates a non-retryable error for model output
// that does not satisfy the deployable-site contract.
func NewInvalidGeneratedOutputError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidGeneratedOutput,
		Message:   "Generated output is not deployable",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewRepoCreateFailedError creates a non-retryable repository creation error.
func NewRepoCreateFailedError(name string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeRepoCreateFailed,
		Message:   "Repository creation failed",
		Details:   fmt.Sprintf("repo: %s, error: %s", name, err.Error()),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewFilePushFailedError creates a non-retryable file upload error.
func NewFilePushFailedError(path string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeFilePushFailed,
		Message:   "File push failed",
		Details:   fmt.Sprintf("path: %s, error: %s", path, err.Error()),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewPagesConfigFailedError creates a non-retryable pages configuration error.
func NewPagesConfigFailedError(fullName string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodePagesConfigFailed,
		Message:   "Pages configuration failed",
		Details:   fmt.Sprintf("repo: %s, error: %s", fullName, err.Error()),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewCommitLookupFailedError creates a non-retryable commit resolution error.
func NewCommitLookupFailedError(fullName string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeCommitLookupFailed,
		Message:   "Latest commit lookup failed",
		Details:   fmt.Sprintf("repo: %s, error: %s", fullName, err.Error()),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewDeliveryExhaustedError creates an error for an evaluation callback that
// never returned HTTP 200 within the retry budget.
func NewDeliveryExhaustedError(url string, attempts int) *StandardError {
	return &StandardError{
		Code:      ErrCodeDeliveryExhausted,
		Message:   "Evaluation callback delivery exhausted",
		Details:   fmt.Sprintf("url: %s, attempts: %d", url, attempts),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewRunStoreFailedError creates a retryable run-record persistence error.
func NewRunStoreFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeRunStoreFailed,
		Message:   "Run record persistence failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 3. Helpers
// ==========================

// Normalize ensures we always have a StandardError.
func Normalize(err error) *StandardError {
	var stdErr *StandardError
	if errors.As(err, &stdErr) {
		return stdErr
	}
	return &StandardError{
		Code:      "INTERNAL_ERROR",
		Message:   "Unexpected error",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// CodeOf extracts the error code, falling back to INTERNAL_ERROR.
func CodeOf(err error) ErrorCode {
	return Normalize(err).Code
}

// GetErrorCategory groups codes for logging and metrics.
func GetErrorCategory(code ErrorCode) string {
	switch code {
	case ErrCodeInvalidTaskRequest, ErrCodeUnsupportedRound:
		return "request"
	case ErrCodeGenerationFailed, ErrCodeGenerationTimeout, ErrCodeInvalidGeneratedOutput:
		return "generation"
	case ErrCodeRepoCreateFailed, ErrCodeFilePushFailed, ErrCodePagesConfigFailed, ErrCodeCommitLookupFailed:
		return "repository"
	case ErrCodeDeliveryExhausted:
		return "delivery"
	case ErrCodeRunStoreFailed:
		return "storage"
	default:
		return "internal"
	}
}
