package cli

import "github.com/arthur-debert/binstall/pkg/errors"

// Exit codes, stable for scripting against binstall.
const (
	ExitOK           = 0
	ExitFailure      = 1
	ExitValidation   = 2
	ExitConflict     = 3
	ExitNotFound     = 4
	ExitConcurrency  = 5
	ExitPermission   = 6
	ExitUnknownInput = 7
)

// ExitCode maps an error to the process exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	if errors.IsValidation(err) {
		return ExitValidation
	}
	switch errors.GetErrorCode(err) {
	case errors.ErrAlreadyExists:
		return ExitConflict
	case errors.ErrNotFound:
		return ExitNotFound
	case errors.ErrConcurrentModification, errors.ErrLockTimeout:
		return ExitConcurrency
	case errors.ErrPermission, errors.ErrInsufficientSpace:
		return ExitPermission
	case errors.ErrInvalidInput:
		return ExitUnknownInput
	default:
		return ExitFailure
	}
}
