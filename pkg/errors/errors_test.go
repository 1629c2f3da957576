// pkg/errors/errors_test.go
// TEST TYPE: Unit Test
// DEPENDENCIES: None
// PURPOSE: Test error creation, wrapping, and utility functions

package errors_test

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/arthur-debert/binstall/pkg/errors"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		code    errors.ErrorCode
		message string
		wantStr string
	}{
		{
			name:    "not_found_error",
			code:    errors.ErrNotFound,
			message: "no such installed file",
			wantStr: "[NOT_FOUND] no such installed file",
		},
		{
			name:    "symlink_error",
			code:    errors.ErrSymlinkDetected,
			message: "source is a symlink",
			wantStr: "[SYMLINK_DETECTED] source is a symlink",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := errors.New(tt.code, tt.message)

			if err.Code != tt.code {
				t.Errorf("New() code = %v, want %v", err.Code, tt.code)
			}

			if err.Message != tt.message {
				t.Errorf("New() message = %q, want %q", err.Message, tt.message)
			}

			if err.Details == nil {
				t.Error("New() details should be initialized")
			}

			if got := err.Error(); got != tt.wantStr {
				t.Errorf("Error() = %q, want %q", got, tt.wantStr)
			}
		})
	}
}

func TestWrap(t *testing.T) {
	baseErr := stderrors.New("base error")

	t.Run("wrap_non_nil_error", func(t *testing.T) {
		err := errors.Wrap(baseErr, errors.ErrInternal, "internal error")

		if err.Code != errors.ErrInternal {
			t.Errorf("Wrap() code = %v, want %v", err.Code, errors.ErrInternal)
		}

		if !stderrors.Is(err, baseErr) {
			t.Error("Wrap() should preserve the wrapped error chain")
		}

		want := "[INTERNAL] internal error: base error"
		if got := err.Error(); got != want {
			t.Errorf("Error() = %q, want %q", got, want)
		}
	})

	t.Run("wrap_nil_returns_nil", func(t *testing.T) {
		if err := errors.Wrap(nil, errors.ErrInternal, "should not exist"); err != nil {
			t.Errorf("Wrap(nil) = %v, want nil", err)
		}
	})
}

func TestIsErrorCode(t *testing.T) {
	err := errors.New(errors.ErrAlreadyExists, "file exists")

	if !errors.IsErrorCode(err, errors.ErrAlreadyExists) {
		t.Error("IsErrorCode() should match the error's own code")
	}

	if errors.IsErrorCode(err, errors.ErrNotFound) {
		t.Error("IsErrorCode() should not match a different code")
	}

	// Code lookup must survive wrapping in plain fmt errors.
	wrapped := fmt.Errorf("outer: %w", err)
	if !errors.IsErrorCode(wrapped, errors.ErrAlreadyExists) {
		t.Error("IsErrorCode() should unwrap standard error chains")
	}

	if errors.GetErrorCode(stderrors.New("plain")) != errors.ErrUnknown {
		t.Error("GetErrorCode() on a plain error should return ErrUnknown")
	}
}

func TestIsValidation(t *testing.T) {
	tests := []struct {
		code errors.ErrorCode
		want bool
	}{
		{errors.ErrSymlinkDetected, true},
		{errors.ErrHardlinkDetected, true},
		{errors.ErrPathTraversal, true},
		{errors.ErrOutsideRoot, true},
		{errors.ErrNotRegularFile, true},
		{errors.ErrSourceNotFound, true},
		{errors.ErrInvalidName, true},
		{errors.ErrAlreadyExists, false},
		{errors.ErrLockTimeout, false},
		{errors.ErrPermission, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			err := errors.New(tt.code, "x")
			if got := errors.IsValidation(err); got != tt.want {
				t.Errorf("IsValidation(%s) = %v, want %v", tt.code, got, tt.want)
			}
		})
	}
}

func TestWithDetail(t *testing.T) {
	err := errors.New(errors.ErrOutsideRoot, "escapes root").
		WithDetail("path", "/etc/passwd").
		WithDetail("root", "/usr/local/bin")

	if err.Details["path"] != "/etc/passwd" {
		t.Errorf("Details[path] = %v, want /etc/passwd", err.Details["path"])
	}
	if err.Details["root"] != "/usr/local/bin" {
		t.Errorf("Details[root] = %v, want /usr/local/bin", err.Details["root"])
	}
}
