// Package errors defines the categorized error type used across the
// suggestion service. Errors carry a category, a stable code, a remediation
// hint for CLI users, optional context values, and a stack trace captured at
// construction.
package errors

import (
	stderrors "errors"
	"fmt"
	"strings"

	pkgerrors "github.com/pkg/errors"
)

// Category groups errors by the subsystem they originate from.
type Category string

const (
	CategoryFile          Category = "file"
	CategoryParse         Category = "parse"
	CategoryValidation    Category = "validation"
	CategoryConfiguration Category = "configuration"
	CategorySuggestion    Category = "suggestion"
)

// Code identifies a specific failure within a category.
type Code string

const (
	CodeFileNotFound   Code = "file_not_found"
	CodeFilePermission Code = "file_permission"

	CodeInvalidFormat Code = "invalid_format"
	CodeMissingColumn Code = "missing_column"
	CodeInvalidData   Code = "invalid_data"

	CodeInvalidRecord Code = "invalid_record"
	CodeMissingField  Code = "missing_field"

	CodeInvalidConfig Code = "invalid_config"

	CodeBatchFailed Code = "batch_failed"
)

// Context carries additional key-value detail about an error.
type Context map[string]interface{}

// SuggesterError is the application error type.
type SuggesterError struct {
	Category   Category `json:"category"`
	Code       Code     `json:"code"`
	Message    string   `json:"message"`
	Suggestion string   `json:"suggestion,omitempty"`
	Context    Context  `json:"context,omitempty"`
	Cause      error    `json:"-"`

	stack pkgerrors.StackTrace
}

// Error implements the error interface.
func (e *SuggesterError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s/%s] %s", e.Category, e.Code, e.Message)
	if e.Cause != nil {
		fmt.Fprintf(&b, ": %v", e.Cause)
	}
	return b.String()
}

// Unwrap returns the underlying cause.
func (e *SuggesterError) Unwrap() error { return e.Cause }

// WithContext attaches a key-value pair and returns the error.
func (e *SuggesterError) WithContext(key string, value interface{}) *SuggesterError {
	if e.Context == nil {
		e.Context = make(Context)
	}
	e.Context[key] = value
	return e
}

// WithSuggestion attaches a remediation hint and returns the error.
func (e *SuggesterError) WithSuggestion(s string) *SuggesterError {
	e.Suggestion = s
	return e
}

// StackTrace exposes the stack captured at construction.
func (e *SuggesterError) StackTrace() pkgerrors.StackTrace { return e.stack }

// UserMessage renders the error for CLI display: the message plus the
// remediation hint when one exists.
func (e *SuggesterError) UserMessage() string {
	if e.Suggestion == "" {
		return e.Message
	}
	return fmt.Sprintf("%s\n  hint: %s", e.Message, e.Suggestion)
}

type stackTracer interface {
	StackTrace() pkgerrors.StackTrace
}

func newError(category Category, code Code, message string, cause error) *SuggesterError {
	e := &SuggesterError{
		Category: category,
		Code:     code,
		Message:  message,
		Cause:    cause,
	}
	if st, ok := pkgerrors.WithStack(e).(stackTracer); ok {
		e.stack = st.StackTrace()
	}
	return e
}

// NewFileError builds a file-category error.
func NewFileError(code Code, message string, cause error) *SuggesterError {
	return newError(CategoryFile, code, message, cause)
}

// NewParseError builds a parse-category error.
func NewParseError(code Code, message string, cause error) *SuggesterError {
	return newError(CategoryParse, code, message, cause)
}

// NewValidationError builds a validation-category error.
func NewValidationError(code Code, message string, cause error) *SuggesterError {
	return newError(CategoryValidation, code, message, cause)
}

// NewConfigurationError builds a configuration-category error.
func NewConfigurationError(code Code, message string, cause error) *SuggesterError {
	return newError(CategoryConfiguration, code, message, cause)
}

// NewSuggestionError builds a suggestion-category error.
func NewSuggestionError(code Code, message string, cause error) *SuggesterError {
	return newError(CategorySuggestion, code, message, cause)
}

// Wrap annotates an arbitrary error as a SuggesterError, preserving an
// existing SuggesterError unchanged.
func Wrap(err error, category Category, code Code, message string) *SuggesterError {
	if err == nil {
		return nil
	}
	if se, ok := err.(*SuggesterError); ok {
		return se
	}
	return newError(category, code, message, err)
}

// AsSuggesterError extracts a *SuggesterError from anywhere in the chain.
func AsSuggesterError(err error) (*SuggesterError, bool) {
	var se *SuggesterError
	if stderrors.As(err, &se) {
		return se, true
	}
	return nil, false
}

// GetCategory extracts the category from an error, or "" for foreign errors.
func GetCategory(err error) Category {
	if se, ok := AsSuggesterError(err); ok {
		return se.Category
	}
	return ""
}

// IsCategory reports whether the error belongs to the given category.
func IsCategory(err error, category Category) bool {
	return GetCategory(err) == category
}

// ExitCode maps an error to a CLI process exit code.
func ExitCode(err error) int {
	switch GetCategory(err) {
	case "":
		if err == nil {
			return 0
		}
		return 1
	case CategoryConfiguration:
		return 2
	case CategoryFile:
		return 3
	case CategoryParse, CategoryValidation:
		return 4
	default:
		return 1
	}
}
