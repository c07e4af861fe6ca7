// Package errors defines the typed errors produced while checking a
// document set.
//
// Checkers never abort a run on a finding: syntax, structural and link
// problems are advisory and are counted by the checker that found them.
// CheckError values exist so that the driver, the logger and the tests can
// tell those findings apart from I/O and internal-consistency failures.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind represents different categories of errors.
type ErrorKind string

const (
	ErrorKindSyntax     ErrorKind = "syntax"
	ErrorKindStructural ErrorKind = "structural"
	ErrorKindLink       ErrorKind = "link"
	ErrorKindIO         ErrorKind = "io"
	ErrorKindConfig     ErrorKind = "config"
	ErrorKindInternal   ErrorKind = "internal"
)

// Common error codes.
const (
	ErrCodeBadHTML         = "ERR_BAD_HTML"
	ErrCodeHeadingSkipped  = "ERR_HEADING_SKIPPED"
	ErrCodeUnmatchedRegion = "ERR_UNMATCHED_REGION"
	ErrCodeOutsideRegion   = "ERR_OUTSIDE_REGION"
	ErrCodeDuplicateID     = "ERR_DUPLICATE_ID"
	ErrCodeMissingID       = "ERR_MISSING_ID"
	ErrCodeMissingFile     = "ERR_MISSING_FILE"
	ErrCodeBadScheme       = "ERR_BAD_SCHEME"
	ErrCodeBadURI          = "ERR_BAD_URI"
	ErrCodeReadFailed      = "ERR_READ_FAILED"
	ErrCodeInvalidRoot     = "ERR_INVALID_ROOT"
	ErrCodeConfigInvalid   = "ERR_CONFIG_INVALID"
	ErrCodeTableSealed     = "ERR_TABLE_SEALED"
)

// CheckError is a structured error with an optional source location.
type CheckError struct {
	Kind     ErrorKind
	Code     string
	Message  string
	FilePath string
	Line     int
	Cause    error
}

// Error implements the error interface.
func (e *CheckError) Error() string {
	var parts []string

	if e.Code != "" {
		parts = append(parts, fmt.Sprintf("[%s]", e.Code))
	}

	if e.FilePath != "" {
		location := e.FilePath
		if e.Line > 0 {
			location += fmt.Sprintf(":%d", e.Line)
		}
		parts = append(parts, location)
	}

	parts = append(parts, e.Message)

	result := strings.Join(parts, " ")
	if e.Cause != nil {
		result += fmt.Sprintf(": %v", e.Cause)
	}

	return result
}

// Unwrap returns the underlying cause error.
func (e *CheckError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is a CheckError with the same kind and code.
func (e *CheckError) Is(target error) bool {
	var t *CheckError
	if errors.As(target, &t) {
		return e.Kind == t.Kind && e.Code == t.Code
	}

	return false
}

// WithLocation adds file location information.
func (e *CheckError) WithLocation(filePath string, line int) *CheckError {
	e.FilePath = filePath
	e.Line = line

	return e
}

// NewSyntaxError creates an error for malformed markup.
func NewSyntaxError(code, message string) *CheckError {
	return &CheckError{Kind: ErrorKindSyntax, Code: code, Message: message}
}

// NewStructuralError creates an error for heading or region violations.
func NewStructuralError(code, message string) *CheckError {
	return &CheckError{Kind: ErrorKindStructural, Code: code, Message: message}
}

// NewLinkError creates an error for link-integrity findings.
func NewLinkError(code, message string) *CheckError {
	return &CheckError{Kind: ErrorKindLink, Code: code, Message: message}
}

// NewIOError creates an I/O error.
func NewIOError(code, message string, cause error) *CheckError {
	return &CheckError{Kind: ErrorKindIO, Code: code, Message: message, Cause: cause}
}

// NewConfigError creates a configuration error.
func NewConfigError(code, message string) *CheckError {
	return &CheckError{Kind: ErrorKindConfig, Code: code, Message: message}
}

// NewInternalError creates an internal error.
func NewInternalError(code, message string, cause error) *CheckError {
	return &CheckError{Kind: ErrorKindInternal, Code: code, Message: message, Cause: cause}
}

// KindOf returns the kind of err, or "" when err is not a CheckError.
func KindOf(err error) ErrorKind {
	var ce *CheckError
	if errors.As(err, &ce) {
		return ce.Kind
	}

	return ""
}

// IsInternal checks if an error signals broken internal state.
func IsInternal(err error) bool {
	return KindOf(err) == ErrorKindInternal
}

// IsIO checks if an error is I/O related.
func IsIO(err error) bool {
	return KindOf(err) == ErrorKindIO
}

// IsFinding reports whether err describes a problem in the checked
// documents rather than in the checker itself.
func IsFinding(err error) bool {
	switch KindOf(err) {
	case ErrorKindSyntax, ErrorKindStructural, ErrorKindLink:
		return true
	default:
		return false
	}
}
