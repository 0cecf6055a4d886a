package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents stable error codes for all failure modes
type ErrorCode string

const (
	// InvalidExtension indicates an empty or malformed file extension
	InvalidExtension ErrorCode = "INVALID_EXTENSION"
	// ExtensionKindMismatch indicates text data for a binary extension or the reverse
	ExtensionKindMismatch ErrorCode = "EXTENSION_KIND_MISMATCH"
	// EmptyName indicates a required name was empty
	EmptyName ErrorCode = "EMPTY_NAME"
	// DuplicateNamedToken indicates a value was registered twice as a named token
	DuplicateNamedToken ErrorCode = "DUPLICATE_NAMED_TOKEN"
	// WrongTargetKind indicates a target was read through the wrong accessor
	WrongTargetKind ErrorCode = "WRONG_TARGET_KIND"
	// UnresolvedType indicates a type reference could not be resolved
	UnresolvedType ErrorCode = "UNRESOLVED_TYPE"
	// UnsupportedValue indicates a value that cannot be rendered canonically
	UnsupportedValue ErrorCode = "UNSUPPORTED_VALUE"
	// SnapshotMismatch indicates received output differs from the verified file
	SnapshotMismatch ErrorCode = "SNAPSHOT_MISMATCH"
	// SnapshotMissing indicates no verified file exists yet
	SnapshotMissing ErrorCode = "SNAPSHOT_MISSING"
	// ConfigInvalid indicates invalid configuration or rules
	ConfigInvalid ErrorCode = "CONFIG_INVALID"
	// InternalError indicates unexpected error
	InternalError ErrorCode = "INTERNAL_ERROR"
)

// FixActionType represents the type of fix action
type FixActionType string

const (
	// RunCommand suggests running a command
	RunCommand FixActionType = "run-command"
	// EditFile suggests editing a file by hand
	EditFile FixActionType = "edit-file"
)

// FixAction represents a suggested fix for an error
type FixAction struct {
	Type        FixActionType `json:"type"`
	Command     string        `json:"command,omitempty"`
	Path        string        `json:"path,omitempty"`
	Safe        bool          `json:"safe,omitempty"`
	Description string        `json:"description,omitempty"`
}

// VerifyError represents an error with a stable code, message, and suggestions
type VerifyError struct {
	Code           ErrorCode   `json:"code"`
	Message        string      `json:"message"`
	Details        interface{} `json:"details,omitempty"`
	SuggestedFixes []FixAction `json:"suggestedFixes,omitempty"`
	cause          error       // Underlying error (not exported to JSON)
}

// New creates a VerifyError with the default fixes for its code
func New(code ErrorCode, message string) *VerifyError {
	return &VerifyError{
		Code:           code,
		Message:        message,
		SuggestedFixes: GetSuggestedFixes(code),
	}
}

// Newf is New with a format string
func Newf(code ErrorCode, format string, args ...interface{}) *VerifyError {
	return New(code, fmt.Sprintf(format, args...))
}

// Wrap creates a VerifyError around an underlying cause
func Wrap(code ErrorCode, message string, cause error) *VerifyError {
	e := New(code, message)
	e.cause = cause
	return e
}

// Error implements the error interface
func (e *VerifyError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *VerifyError) Unwrap() error {
	return e.cause
}

// WithDetails adds details to the error
func (e *VerifyError) WithDetails(details interface{}) *VerifyError {
	e.Details = details
	return e
}

// CodeOf returns the code of the first VerifyError in err's chain,
// or the empty code when there is none.
func CodeOf(err error) ErrorCode {
	var ve *VerifyError
	if errors.As(err, &ve) {
		return ve.Code
	}
	return ""
}

// Is reports whether err carries the given code.
func Is(err error, code ErrorCode) bool {
	return err != nil && CodeOf(err) == code
}

// ErrorActions maps error codes to suggested fix actions
var ErrorActions = map[ErrorCode][]FixAction{
	SnapshotMismatch: {
		{
			Type:        RunCommand,
			Command:     "verify accept --dir ${snapshot_dir}",
			Description: "Accept the received output as the new verified snapshot",
		},
		{
			Type:        RunCommand,
			Command:     "go test ./... -update",
			Description: "Re-run the tests and overwrite verified snapshots",
		},
	},
	SnapshotMissing: {
		{
			Type:        RunCommand,
			Command:     "verify accept --dir ${snapshot_dir}",
			Description: "Accept the received output as the first verified snapshot",
		},
	},
	ConfigInvalid: {
		{
			Type:        EditFile,
			Path:        ".verify/config.json",
			Safe:        true,
			Description: "Fix the configuration file",
		},
	},
}

// GetSuggestedFixes returns suggested fixes for an error code
func GetSuggestedFixes(code ErrorCode) []FixAction {
	if fixes, ok := ErrorActions[code]; ok {
		return fixes
	}
	return nil
}
