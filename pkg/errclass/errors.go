package errclass

import (
	"context"
	"errors"
	"fmt"
)

// CopyFlowError is a stable, machine-readable error class.
type CopyFlowError struct {
	Code    string
	Message string
}

func (e *CopyFlowError) Error() string {
	if e.Message == "" {
		return e.Code
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *CopyFlowError) Is(target error) bool {
	t, ok := target.(*CopyFlowError)
	return ok && e.Code == t.Code
}

// WithMessage returns a new CopyFlowError with the same Code but a specific message.
func (e *CopyFlowError) WithMessage(msg string) *CopyFlowError {
	return &CopyFlowError{Code: e.Code, Message: msg}
}

// WithMessagef returns a new CopyFlowError with a formatted message.
func (e *CopyFlowError) WithMessagef(format string, args ...any) *CopyFlowError {
	return &CopyFlowError{Code: e.Code, Message: fmt.Sprintf(format, args...)}
}

var (
	// Recoverable: the buffer drifted away from the auditor's anchor text.
	ErrSegmentNotFound = &CopyFlowError{Code: "E_SEGMENT_NOT_FOUND"}
	// The audit response could not be decoded; a fallback report is used.
	ErrMalformedReport = &CopyFlowError{Code: "E_MALFORMED_REPORT"}
	// Network or API failure talking to the language model.
	ErrTransport = &CopyFlowError{Code: "E_TRANSPORT"}
	// User-initiated cancellation. Never shown as a failure.
	ErrCancelled = &CopyFlowError{Code: "E_CANCELLED"}

	ErrBusy                = &CopyFlowError{Code: "E_BUSY"}
	ErrEmptyInput          = &CopyFlowError{Code: "E_EMPTY_INPUT"}
	ErrReadOnly            = &CopyFlowError{Code: "E_READ_ONLY"}
	ErrEntryNotFound       = &CopyFlowError{Code: "E_ENTRY_NOT_FOUND"}
	ErrIssueNotFound       = &CopyFlowError{Code: "E_ISSUE_NOT_FOUND"}
	ErrNoReport            = &CopyFlowError{Code: "E_NO_REPORT"}
	ErrLanguageUnsupported = &CopyFlowError{Code: "E_LANGUAGE_UNSUPPORTED"}
	ErrToneUnsupported     = &CopyFlowError{Code: "E_TONE_UNSUPPORTED"}
)

// IsCancelled reports whether err stems from a cancellation rather than a failure.
func IsCancelled(err error) bool {
	return errors.Is(err, ErrCancelled) || errors.Is(err, context.Canceled)
}

// IsRecoverable reports whether err should be shown as a notice instead of a failure.
func IsRecoverable(err error) bool {
	return errors.Is(err, ErrSegmentNotFound) || errors.Is(err, ErrMalformedReport)
}
