package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents a unique error code for stable testing
type ErrorCode string

// Error codes for different error categories
const (
	// General errors
	ErrUnknown      ErrorCode = "UNKNOWN"
	ErrInternal     ErrorCode = "INTERNAL"
	ErrInvalidInput ErrorCode = "INVALID_INPUT"

	// Validation errors. These are never retried and always carry the
	// specific reason the path was rejected.
	ErrSymlinkDetected  ErrorCode = "SYMLINK_DETECTED"
	ErrHardlinkDetected ErrorCode = "HARDLINK_DETECTED"
	ErrPathTraversal    ErrorCode = "PATH_TRAVERSAL"
	ErrOutsideRoot      ErrorCode = "OUTSIDE_ALLOWED_ROOT"
	ErrNotRegularFile   ErrorCode = "NOT_REGULAR_FILE"
	ErrSourceNotFound   ErrorCode = "SOURCE_NOT_FOUND"
	ErrInvalidName      ErrorCode = "INVALID_NAME"

	// Conflict errors
	ErrAlreadyExists ErrorCode = "ALREADY_EXISTS"
	ErrNotFound      ErrorCode = "NOT_FOUND"

	// Concurrency errors. Transient: the whole operation may be
	// retried from scratch, never resumed mid-way.
	ErrConcurrentModification ErrorCode = "CONCURRENT_MODIFICATION"
	ErrLockTimeout            ErrorCode = "LOCK_TIMEOUT"

	// Resource errors
	ErrInsufficientSpace ErrorCode = "INSUFFICIENT_SPACE"
	ErrPermission        ErrorCode = "PERMISSION"
	ErrRemovalFailed     ErrorCode = "REMOVAL_FAILED"
	ErrCrossFilesystem   ErrorCode = "CROSS_FILESYSTEM"

	// History errors. A history failure never undoes an already
	// committed filesystem mutation.
	ErrHistoryOpen    ErrorCode = "HISTORY_OPEN"
	ErrHistoryAppend  ErrorCode = "HISTORY_APPEND"
	ErrHistoryCorrupt ErrorCode = "HISTORY_CORRUPT"
)

// BinstallError represents a structured error with code and details
type BinstallError struct {
	Code    ErrorCode
	Message string
	Details map[string]interface{}
	Wrapped error
}

// Error implements the error interface
func (e *BinstallError) Error() string {
	if e.Wrapped != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Wrapped)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap implements the errors.Unwrap interface
func (e *BinstallError) Unwrap() error {
	return e.Wrapped
}

// Is implements errors.Is interface
func (e *BinstallError) Is(target error) bool {
	var targetErr *BinstallError
	if errors.As(target, &targetErr) {
		return e.Code == targetErr.Code
	}
	return false
}

// New creates a new BinstallError with the given code and message
func New(code ErrorCode, message string) *BinstallError {
	return &BinstallError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
	}
}

// Newf creates a new BinstallError with a formatted message
func Newf(code ErrorCode, format string, args ...interface{}) *BinstallError {
	return &BinstallError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Details: make(map[string]interface{}),
	}
}

// Wrap wraps an existing error with a BinstallError
func Wrap(err error, code ErrorCode, message string) *BinstallError {
	if err == nil {
		return nil
	}
	return &BinstallError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
		Wrapped: err,
	}
}

// Wrapf wraps an existing error with a formatted message
func Wrapf(err error, code ErrorCode, format string, args ...interface{}) *BinstallError {
	if err == nil {
		return nil
	}
	return &BinstallError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Details: make(map[string]interface{}),
		Wrapped: err,
	}
}

// WithDetail adds a detail to the error
func (e *BinstallError) WithDetail(key string, value interface{}) *BinstallError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// IsErrorCode checks if an error has a specific error code
func IsErrorCode(err error, code ErrorCode) bool {
	var binErr *BinstallError
	if errors.As(err, &binErr) {
		return binErr.Code == code
	}
	return false
}

// GetErrorCode returns the error code from an error, or ErrUnknown if
// it is not a BinstallError
func GetErrorCode(err error) ErrorCode {
	var binErr *BinstallError
	if errors.As(err, &binErr) {
		return binErr.Code
	}
	return ErrUnknown
}

// IsValidation reports whether the error is one of the path validation
// failures.
func IsValidation(err error) bool {
	switch GetErrorCode(err) {
	case ErrSymlinkDetected, ErrHardlinkDetected, ErrPathTraversal,
		ErrOutsideRoot, ErrNotRegularFile, ErrSourceNotFound, ErrInvalidName:
		return true
	}
	return false
}
