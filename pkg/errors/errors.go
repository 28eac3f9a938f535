// Package errors defines the categorized error type used across the
// allocation service.
//
// Errors carry a category, a code, an optional suggestion and arbitrary
// context, on top of a github.com/pkg/errors stack trace. The category
// determines how the caller reacts: schema errors on stock input abort the
// whole run, schema errors on order input skip the offending file, parse
// errors at cell level are always recovered locally, and validation errors
// signal unmet preconditions rather than crashes.
package errors

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// ErrorCategory represents different categories of errors
type ErrorCategory string

const (
	CategoryFile          ErrorCategory = "file"
	CategoryParse         ErrorCategory = "parse"
	CategorySchema        ErrorCategory = "schema"
	CategoryValidation    ErrorCategory = "validation"
	CategoryConfiguration ErrorCategory = "configuration"
	CategoryAllocation    ErrorCategory = "allocation"
	CategoryInternal      ErrorCategory = "internal"
)

// ErrorCode represents specific error codes within categories
type ErrorCode string

const (
	// File errors
	CodeFileNotFound      ErrorCode = "file_not_found"
	CodeFilePermission    ErrorCode = "file_permission"
	CodeFileCorrupted     ErrorCode = "file_corrupted"
	CodeUnsupportedFormat ErrorCode = "unsupported_format"

	// Parse errors (cell level, recoverable)
	CodeInvalidAmount ErrorCode = "invalid_amount"
	CodeInvalidData   ErrorCode = "invalid_data"
	CodeEncodingError ErrorCode = "encoding_error"

	// Schema errors (column resolution)
	CodeMissingColumn ErrorCode = "missing_column"
	CodeEmptyTable    ErrorCode = "empty_table"

	// Validation errors
	CodeEmptyInput   ErrorCode = "empty_input"
	CodeMissingField ErrorCode = "missing_field"
	CodeOutOfRange   ErrorCode = "out_of_range"

	// Configuration errors
	CodeInvalidConfig ErrorCode = "invalid_config"
	CodeMissingConfig ErrorCode = "missing_config"

	// Allocation errors
	CodeProcessingError ErrorCode = "processing_error"

	// Internal errors
	CodeUnexpectedError ErrorCode = "unexpected_error"
)

// AllocatorError is the base error type for all application errors
type AllocatorError struct {
	Category   ErrorCategory     `json:"category"`
	Code       ErrorCode         `json:"code"`
	Message    string            `json:"message"`
	Suggestion string            `json:"suggestion,omitempty"`
	Context    Context           `json:"context,omitempty"`
	Cause      error             `json:"-"`
	StackTrace errors.StackTrace `json:"-"`
}

// Context provides additional information about the error
type Context map[string]interface{}

// Error implements the error interface
func (e *AllocatorError) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("%s (suggestion: %s)", e.Message, e.Suggestion)
	}
	return e.Message
}

// Unwrap returns the underlying cause error
func (e *AllocatorError) Unwrap() error {
	return e.Cause
}

// GetExitCode returns an appropriate exit code for the error
func (e *AllocatorError) GetExitCode() int {
	switch e.Category {
	case CategoryFile:
		return 2
	case CategoryParse, CategorySchema, CategoryValidation:
		return 3
	case CategoryConfiguration:
		return 4
	case CategoryAllocation, CategoryInternal:
		return 5
	default:
		return 1
	}
}

// WithContext adds context information to the error
func (e *AllocatorError) WithContext(key string, value interface{}) *AllocatorError {
	if e.Context == nil {
		e.Context = make(Context)
	}
	e.Context[key] = value
	return e
}

// WithSuggestion adds a suggestion for fixing the error
func (e *AllocatorError) WithSuggestion(suggestion string) *AllocatorError {
	e.Suggestion = suggestion
	return e
}

// New creates a new AllocatorError
func New(category ErrorCategory, code ErrorCode, message string) *AllocatorError {
	return &AllocatorError{
		Category:   category,
		Code:       code,
		Message:    message,
		StackTrace: errors.New("").(stackTracer).StackTrace(),
	}
}

// Wrap wraps an existing error with AllocatorError context
func Wrap(err error, category ErrorCategory, code ErrorCode, message string) *AllocatorError {
	if err == nil {
		return nil
	}

	return &AllocatorError{
		Category:   category,
		Code:       code,
		Message:    message,
		Cause:      err,
		StackTrace: errors.WithStack(err).(stackTracer).StackTrace(),
	}
}

// stackTracer interface for extracting stack traces
type stackTracer interface {
	StackTrace() errors.StackTrace
}

// Specific error constructors

// FileError creates a file-related error
func FileError(code ErrorCode, path string, err error) *AllocatorError {
	var message string
	var suggestion string

	switch code {
	case CodeFileNotFound:
		message = fmt.Sprintf("file not found: %s", path)
		suggestion = "check if the file path is correct and the file exists"
	case CodeFilePermission:
		message = fmt.Sprintf("permission denied accessing file: %s", path)
		suggestion = "check file permissions and ensure you have read access"
	case CodeFileCorrupted:
		message = fmt.Sprintf("file appears to be corrupted: %s", path)
		suggestion = "verify the file integrity and try re-exporting it"
	case CodeUnsupportedFormat:
		message = fmt.Sprintf("unsupported file format: %s", path)
		suggestion = "supply a .csv (semicolon-delimited, Latin-1) or .xlsx file"
	default:
		message = fmt.Sprintf("file error: %s", path)
		suggestion = "check the file and try again"
	}

	var result *AllocatorError
	if err != nil {
		result = Wrap(err, CategoryFile, code, message)
	} else {
		result = New(CategoryFile, code, message)
	}

	return result.
		WithSuggestion(suggestion).
		WithContext("file_path", path)
}

// SchemaError creates a column-resolution error for a table. These are the
// fatal schema conditions: stock-side failures abort the run, order-side
// failures are scoped to the offending file by the caller.
func SchemaError(table string, missing []string) *AllocatorError {
	message := fmt.Sprintf("required columns could not be resolved in %s: %s",
		table, strings.Join(missing, ", "))

	return New(CategorySchema, CodeMissingColumn, message).
		WithSuggestion("check the spreadsheet headers against the known column aliases").
		WithContext("table", table).
		WithContext("missing_fields", missing)
}

// ParseError creates a value-level parsing error. Callers recover these
// locally by substituting a zero value; they never abort a run.
func ParseError(code ErrorCode, field, value string, err error) *AllocatorError {
	var message string
	var suggestion string

	switch code {
	case CodeInvalidAmount:
		message = fmt.Sprintf("invalid amount in field '%s': '%s'", field, value)
		suggestion = "amounts may use either '1.234,56' or '1,234.56' conventions"
	case CodeEncodingError:
		message = fmt.Sprintf("encoding error reading field '%s'", field)
		suggestion = "ensure the file is Latin-1 or UTF-8 encoded"
	default:
		message = fmt.Sprintf("invalid data in field '%s': '%s'", field, value)
		suggestion = "correct the cell value or leave it empty"
	}

	var result *AllocatorError
	if err != nil {
		result = Wrap(err, CategoryParse, code, message)
	} else {
		result = New(CategoryParse, code, message)
	}

	return result.
		WithSuggestion(suggestion).
		WithContext("field", field).
		WithContext("value", value)
}

// EmptyInputError creates a precondition error for a run with no stock or no
// order files.
func EmptyInputError(what string) *AllocatorError {
	return New(CategoryValidation, CodeEmptyInput,
		fmt.Sprintf("no %s supplied", what)).
		WithSuggestion(fmt.Sprintf("provide at least one %s file", what)).
		WithContext("input", what)
}

// ValidationError creates a validation-related error
func ValidationError(code ErrorCode, field string, value interface{}, err error) *AllocatorError {
	var message string
	var suggestion string

	switch code {
	case CodeMissingField:
		message = fmt.Sprintf("required field '%s' is missing or empty", field)
		suggestion = "provide a value for this required field"
	case CodeOutOfRange:
		message = fmt.Sprintf("value out of range in field '%s': %v", field, value)
		suggestion = "ensure the value is within the acceptable range"
	default:
		message = fmt.Sprintf("validation error in field '%s': %v", field, value)
		suggestion = "check the field value and format"
	}

	var result *AllocatorError
	if err != nil {
		result = Wrap(err, CategoryValidation, code, message)
	} else {
		result = New(CategoryValidation, code, message)
	}

	return result.
		WithSuggestion(suggestion).
		WithContext("field", field).
		WithContext("value", value)
}

// ConfigurationError creates a configuration-related error
func ConfigurationError(code ErrorCode, setting string, value interface{}, err error) *AllocatorError {
	var message string
	var suggestion string

	switch code {
	case CodeInvalidConfig:
		message = fmt.Sprintf("invalid configuration for '%s': %v", setting, value)
		suggestion = "check the configuration documentation for valid values"
	case CodeMissingConfig:
		message = fmt.Sprintf("missing required configuration: %s", setting)
		suggestion = "provide this configuration setting or use a config file"
	default:
		message = fmt.Sprintf("configuration error: %s", setting)
		suggestion = "check your configuration and try again"
	}

	var result *AllocatorError
	if err != nil {
		result = Wrap(err, CategoryConfiguration, code, message)
	} else {
		result = New(CategoryConfiguration, code, message)
	}

	return result.
		WithSuggestion(suggestion).
		WithContext("setting", setting).
		WithContext("value", value)
}

// AllocationError creates an allocation-run error
func AllocationError(operation string, err error) *AllocatorError {
	message := fmt.Sprintf("processing error during %s", operation)

	var result *AllocatorError
	if err != nil {
		result = Wrap(err, CategoryAllocation, CodeProcessingError, message)
	} else {
		result = New(CategoryAllocation, CodeProcessingError, message)
	}

	return result.
		WithSuggestion("review the input files and configuration").
		WithContext("operation", operation)
}

// InternalError creates an internal error
func InternalError(operation string, err error) *AllocatorError {
	message := fmt.Sprintf("unexpected error during %s", operation)

	var result *AllocatorError
	if err != nil {
		result = Wrap(err, CategoryInternal, CodeUnexpectedError, message)
	} else {
		result = New(CategoryInternal, CodeUnexpectedError, message)
	}

	return result.
		WithSuggestion("this is likely a bug - please report it with the error details").
		WithContext("operation", operation)
}

// ErrorSummary provides a summary of multiple errors
type ErrorSummary struct {
	Total        int                   `json:"total"`
	ByCategory   map[ErrorCategory]int `json:"by_category"`
	ByCode       map[ErrorCode]int     `json:"by_code"`
	Errors       []*AllocatorError     `json:"errors"`
	SampleErrors []*AllocatorError     `json:"sample_errors,omitempty"`
}

// NewErrorSummary creates a new error summary
func NewErrorSummary(errs []*AllocatorError) *ErrorSummary {
	summary := &ErrorSummary{
		Total:      len(errs),
		ByCategory: make(map[ErrorCategory]int),
		ByCode:     make(map[ErrorCode]int),
		Errors:     errs,
	}
	if len(errs) == 0 {
		summary.Errors = []*AllocatorError{}
		return summary
	}

	for _, err := range errs {
		summary.ByCategory[err.Category]++
		summary.ByCode[err.Code]++
	}

	// Include sample errors (max 5)
	maxSamples := 5
	if len(errs) > maxSamples {
		summary.SampleErrors = errs[:maxSamples]
	} else {
		summary.SampleErrors = errs
	}

	return summary
}

// Error returns a formatted error message for the summary
func (es *ErrorSummary) Error() string {
	if es.Total == 0 {
		return "no errors"
	}

	if es.Total == 1 {
		return es.Errors[0].Error()
	}

	var categories []string
	for category, count := range es.ByCategory {
		categories = append(categories, fmt.Sprintf("%s: %d", category, count))
	}

	return fmt.Sprintf("%d errors occurred (%s)", es.Total, strings.Join(categories, ", "))
}

// HasCategory checks if the summary contains errors of the given category
func (es *ErrorSummary) HasCategory(category ErrorCategory) bool {
	count, exists := es.ByCategory[category]
	return exists && count > 0
}

// GetExitCode returns the highest priority exit code from all errors
func (es *ErrorSummary) GetExitCode() int {
	if es.Total == 0 {
		return 0
	}

	maxCode := 1
	for _, err := range es.Errors {
		if code := err.GetExitCode(); code > maxCode {
			maxCode = code
		}
	}

	return maxCode
}

// Utility functions

// IsAllocatorError checks if an error is an AllocatorError
func IsAllocatorError(err error) bool {
	_, ok := err.(*AllocatorError)
	return ok
}

// AsAllocatorError extracts an AllocatorError from an error chain
func AsAllocatorError(err error) (*AllocatorError, bool) {
	var allocErr *AllocatorError
	if errors.As(err, &allocErr) {
		return allocErr, true
	}
	return nil, false
}

// IsSchemaError reports whether err is a schema (column resolution) error.
func IsSchemaError(err error) bool {
	if allocErr, ok := AsAllocatorError(err); ok {
		return allocErr.Category == CategorySchema
	}
	return false
}

// IsEmptyInputError reports whether err is an empty-input precondition error.
func IsEmptyInputError(err error) bool {
	if allocErr, ok := AsAllocatorError(err); ok {
		return allocErr.Code == CodeEmptyInput
	}
	return false
}

// WrapIfNeeded wraps an error if it's not already an AllocatorError
func WrapIfNeeded(err error, category ErrorCategory, code ErrorCode, message string) *AllocatorError {
	if err == nil {
		return nil
	}

	if allocErr, ok := AsAllocatorError(err); ok {
		return allocErr
	}

	return Wrap(err, category, code, message)
}
