package errors

import "fmt"

// ErrorCode represents a warden error code.
type ErrorCode string

const (
	ErrInvalidRequest       ErrorCode = "INVALID_REQUEST"        // 400
	ErrNotFound             ErrorCode = "NOT_FOUND"              // 404
	ErrPathOutsideWorkspace ErrorCode = "PATH_OUTSIDE_WORKSPACE" // 403
	ErrPayloadTooLarge      ErrorCode = "PAYLOAD_TOO_LARGE"      // 413
	ErrFileTooLarge         ErrorCode = "FILE_TOO_LARGE"         // 413
	ErrInternal             ErrorCode = "INTERNAL"               // 500
)

// WardenError represents a structured error with code, status, and details.
//
// Policy rejections and approval denials are NOT errors: the executor
// reports them as structured results. This package covers genuine request
// and I/O faults only.
type WardenError struct {
	Code    ErrorCode
	Status  int
	Message string
	Details map[string]any
}

// Error implements the error interface.
func (e *WardenError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewInvalidRequest creates a 400 error for invalid request parameters.
func NewInvalidRequest(msg string) *WardenError {
	return &WardenError{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: msg,
	}
}

// NewNotFound creates a 404 error for a missing file or record.
func NewNotFound(identifier string) *WardenError {
	return &WardenError{
		Code:    ErrNotFound,
		Status:  404,
		Message: fmt.Sprintf("not found: %s", identifier),
		Details: map[string]any{"identifier": identifier},
	}
}

// NewPathOutsideWorkspace creates a 403 error for a path that escapes the
// workspace root.
func NewPathOutsideWorkspace(path string) *WardenError {
	return &WardenError{
		Code:    ErrPathOutsideWorkspace,
		Status:  403,
		Message: fmt.Sprintf("path escapes the workspace root: %s", path),
		Details: map[string]any{"path": path},
	}
}

// NewPayloadTooLarge creates a 413 error when capability content exceeds the limit.
func NewPayloadTooLarge(max, actual int) *WardenError {
	return &WardenError{
		Code:    ErrPayloadTooLarge,
		Status:  413,
		Message: fmt.Sprintf("payload exceeds maximum size: %d bytes (max %d)", actual, max),
		Details: map[string]any{"max_bytes": max, "actual_bytes": actual},
	}
}

// NewFileTooLarge creates a 413 error when a file exceeds the indexing cap.
func NewFileTooLarge(path string, max, actual int64) *WardenError {
	return &WardenError{
		Code:    ErrFileTooLarge,
		Status:  413,
		Message: fmt.Sprintf("file exceeds maximum size: %s (%d bytes, max %d)", path, actual, max),
		Details: map[string]any{"path": path, "max_bytes": max, "actual_bytes": actual},
	}
}

// NewInternal creates a 500 error for unexpected internal errors.
func NewInternal(err error) *WardenError {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	return &WardenError{
		Code:    ErrInternal,
		Status:  500,
		Message: msg,
	}
}

// Is checks if an error is a WardenError with the given code.
func Is(err error, code ErrorCode) bool {
	if wErr, ok := err.(*WardenError); ok {
		return wErr.Code == code
	}
	return false
}
