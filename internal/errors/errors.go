package errors

import (
	"errors"
	"fmt"
)

// Code is a stable, machine-readable failure category.
type Code string

const (
	// MissingInput means an old or new revision path does not exist.
	MissingInput Code = "MISSING_INPUT"
	// ParseFailure means a single source unit could not be parsed.
	ParseFailure Code = "PARSE_FAILURE"
	// InvalidInput means a revision exists but is not a readable source kind.
	InvalidInput Code = "INVALID_INPUT"
	// ConfigInvalid means the configuration file failed validation.
	ConfigInvalid Code = "CONFIG_INVALID"
	// StorageFailure means the run history store could not be used.
	StorageFailure Code = "STORAGE_FAILURE"
	// InternalError indicates an unexpected error.
	InternalError Code = "INTERNAL_ERROR"
)

// FixAction is a suggested remedy attached to an error.
type FixAction struct {
	Command     string `json:"command,omitempty"`
	Description string `json:"description"`
}

// Error is a coded apidiff error.
type Error struct {
	Code           Code        `json:"code"`
	Message        string      `json:"message"`
	Path           string      `json:"path,omitempty"`
	SuggestedFixes []FixAction `json:"suggestedFixes,omitempty"`
	cause          error
}

// New creates a coded error. Suggested fixes default to the ones registered
// for the code.
func New(code Code, message string, cause error) *Error {
	return &Error{
		Code:           code,
		Message:        message,
		SuggestedFixes: SuggestedFixes(code),
		cause:          cause,
	}
}

// Error implements the error interface
func (e *Error) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Code, e.Message)
	if e.Path != "" {
		msg += " (" + e.Path + ")"
	}
	if e.cause != nil {
		msg += ": " + e.cause.Error()
	}
	return msg
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.cause
}

// WithPath records the file or directory the error refers to.
func (e *Error) WithPath(path string) *Error {
	e.Path = path
	return e
}

// Missing reports a revision path that does not exist.
func Missing(role, path string, cause error) *Error {
	return New(MissingInput, role+" revision not found", cause).WithPath(path)
}

// CodeOf returns the code of the first *Error in err's chain, or
// InternalError when there is none. A nil error has no code.
func CodeOf(err error) Code {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return InternalError
}

// Is reports whether err carries the given code.
func Is(err error, code Code) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == code
}

var fixActions = map[Code][]FixAction{
	MissingInput: {
		{Description: "Check that both the old and new revision paths exist"},
	},
	InvalidInput: {
		{Description: "Pass a directory of .java sources, a .java file, a .scip index or an .apisnap snapshot"},
		{Command: "apidiff snapshot SRC --out baseline.apisnap", Description: "Recreate the baseline snapshot"},
	},
	ConfigInvalid: {
		{Description: "Fix or remove .apidiff/config.json"},
	},
	StorageFailure: {
		{Command: "apidiff diff --no-history", Description: "Run without recording history"},
	},
}

// SuggestedFixes returns the registered fixes for a code.
func SuggestedFixes(code Code) []FixAction {
	return fixActions[code]
}
