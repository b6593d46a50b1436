// Package errors implements the error taxonomy defined in spec.md §7:
// root-invalid is the only class that propagates to the caller of
// analyze(); every other class is captured as a Warning or Issue by the
// stage that encountered it and the run continues.
package errors

import (
	"fmt"
	"time"
)

// ErrorType enumerates the taxonomy from §7.
type ErrorType string

const (
	// ErrorTypeRootInvalid is fatal: the analyzed root is missing or not a
	// directory. This is the only type that ever escapes analyze().
	ErrorTypeRootInvalid ErrorType = "root-invalid"

	// ErrorTypeFilesystem covers per-entry stat/readdir/read failures
	// during traversal; always recorded as a warning, never fatal.
	ErrorTypeFilesystem ErrorType = "filesystem"

	// ErrorTypeParse covers AST parse failures; the parser falls back to a
	// file-scope symbol and raises no issue for this case (§7).
	ErrorTypeParse ErrorType = "parse"

	// ErrorTypeDependency covers unresolved import specifiers.
	ErrorTypeDependency ErrorType = "dependency"

	// ErrorTypeConfig covers malformed or out-of-range configuration.
	ErrorTypeConfig ErrorType = "config"

	// ErrorTypePermission covers requests that reach outside an allowed
	// boundary, such as a snippet path escaping its project root (§6).
	ErrorTypePermission ErrorType = "permission"

	// ErrorTypeInternal covers anything that doesn't fit the above.
	ErrorTypeInternal ErrorType = "internal"
)

// AnalysisError is the error type every pipeline stage wraps failures in
// before deciding whether to propagate (root-invalid only) or downgrade the
// failure to a warning/issue.
type AnalysisError struct {
	Type        ErrorType
	Path        string
	Operation   string
	Underlying  error
	Timestamp   time.Time
	Recoverable bool
}

// NewAnalysisError creates an AnalysisError wrapping err for operation op.
func NewAnalysisError(errType ErrorType, op string, err error) *AnalysisError {
	return &AnalysisError{
		Type:        errType,
		Operation:   op,
		Underlying:  err,
		Timestamp:   time.Now(),
		Recoverable: errType != ErrorTypeRootInvalid,
	}
}

// WithPath attaches the file or directory path the failure occurred at.
func (e *AnalysisError) WithPath(path string) *AnalysisError {
	e.Path = path
	return e
}

// WithRecoverable marks whether the caller may continue past this error.
// Every type except ErrorTypeRootInvalid is recoverable by construction.
func (e *AnalysisError) WithRecoverable(recoverable bool) *AnalysisError {
	e.Recoverable = recoverable
	return e
}

// Error implements the error interface.
func (e *AnalysisError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s failed for %s: %v", e.Type, e.Operation, e.Path, e.Underlying)
	}
	return fmt.Sprintf("%s: %s failed: %v", e.Type, e.Operation, e.Underlying)
}

// Unwrap returns the underlying error for errors.Is/errors.As.
func (e *AnalysisError) Unwrap() error {
	return e.Underlying
}

// IsFatal reports whether this error must propagate out of analyze().
func (e *AnalysisError) IsFatal() bool {
	return e.Type == ErrorTypeRootInvalid
}

// NewRootInvalid builds the one error class that analyze() returns instead
// of swallowing into warnings/issues.
func NewRootInvalid(path string, err error) *AnalysisError {
	return (&AnalysisError{
		Type:       ErrorTypeRootInvalid,
		Path:       path,
		Operation:  "open-root",
		Underlying: err,
		Timestamp:  time.Now(),
	})
}

// MultiError aggregates zero or more non-fatal errors collected while a
// stage kept running past individual failures.
type MultiError struct {
	Errors []error
}

// NewMultiError builds a MultiError, discarding any nil entries.
func NewMultiError(errs []error) *MultiError {
	filtered := make([]error, 0, len(errs))
	for _, err := range errs {
		if err != nil {
			filtered = append(filtered, err)
		}
	}
	return &MultiError{Errors: filtered}
}

// Error implements the error interface.
func (e *MultiError) Error() string {
	switch len(e.Errors) {
	case 0:
		return "no errors"
	case 1:
		return e.Errors[0].Error()
	default:
		return fmt.Sprintf("%d errors: %v", len(e.Errors), e.Errors)
	}
}

// Unwrap returns all wrapped errors, supporting errors.Is/As over the set.
func (e *MultiError) Unwrap() []error {
	return e.Errors
}
