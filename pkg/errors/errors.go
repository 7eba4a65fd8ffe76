// Package errors defines the structured error taxonomy shared by the
// reconciliation engine and its HTTP surface. Every failure that crosses a
// call boundary is one of these errors; handlers map them to status codes
// instead of inspecting message strings.
package errors

import (
	"fmt"
	"net/http"

	"github.com/pkg/errors"
)

// Category groups errors by the subsystem that produced them.
type Category string

const (
	CategoryParse  Category = "parse"
	CategoryConfig Category = "config"
	CategoryCache  Category = "cache"
	CategoryExport Category = "export"
	CategoryEngine Category = "engine"
)

// Code identifies a specific failure within a category.
type Code string

const (
	// Parse errors
	CodeParseFailure Code = "parse_failure"
	CodeEmptyDataset Code = "empty_dataset"
	CodeBadEncoding  Code = "bad_encoding"

	// Config errors
	CodeColumnNotFound Code = "column_not_found"
	CodeInvalidConfig  Code = "invalid_config"

	// Cache errors
	CodeUnknownToken Code = "unknown_token"

	// Export errors
	CodeExportFailure Code = "export_failure"

	// Engine errors
	CodeInternal Code = "internal"
)

// Error is the base error type for all application errors.
type Error struct {
	Category   Category          `json:"category"`
	Code       Code              `json:"code"`
	Message    string            `json:"message"`
	Suggestion string            `json:"suggestion,omitempty"`
	Context    Context           `json:"context,omitempty"`
	Cause      error             `json:"-"`
	StackTrace errors.StackTrace `json:"-"`
}

// Context carries additional key/value detail about the error.
type Context map[string]interface{}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("%s (suggestion: %s)", e.Message, e.Suggestion)
	}
	return e.Message
}

// Unwrap returns the underlying cause error.
func (e *Error) Unwrap() error {
	return e.Cause
}

// HTTPStatus returns the status code the API layer should respond with.
func (e *Error) HTTPStatus() int {
	switch e.Code {
	case CodeUnknownToken:
		return http.StatusNotFound
	case CodeParseFailure, CodeEmptyDataset, CodeBadEncoding,
		CodeColumnNotFound, CodeInvalidConfig:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// WithContext attaches a key/value pair to the error and returns it.
func (e *Error) WithContext(key string, value interface{}) *Error {
	if e.Context == nil {
		e.Context = make(Context)
	}
	e.Context[key] = value
	return e
}

// WithSuggestion sets a human-readable hint for fixing the error.
func (e *Error) WithSuggestion(suggestion string) *Error {
	e.Suggestion = suggestion
	return e
}

// New creates a new Error with a captured stack trace.
func New(category Category, code Code, message string) *Error {
	return &Error{
		Category:   category,
		Code:       code,
		Message:    message,
		StackTrace: errors.New("").(stackTracer).StackTrace(),
	}
}

// Wrap wraps an existing error with taxonomy information. Returns nil when
// err is nil.
func Wrap(err error, category Category, code Code, message string) *Error {
	if err == nil {
		return nil
	}
	return &Error{
		Category:   category,
		Code:       code,
		Message:    message,
		Cause:      err,
		StackTrace: errors.WithStack(err).(stackTracer).StackTrace(),
	}
}

type stackTracer interface {
	StackTrace() errors.StackTrace
}

// ParseError reports an input file that could not be decoded as tabular
// data. source names the upload ("file1", "splits", ...).
func ParseError(source string, err error) *Error {
	return Wrap(err, CategoryParse, CodeParseFailure,
		fmt.Sprintf("cannot parse %s as tabular data", source)).
		WithSuggestion("upload an .xlsx or .csv export with a header row").
		WithContext("source", source)
}

// EmptyDataset reports a file that decoded but contains no data rows.
func EmptyDataset(source string) *Error {
	return New(CategoryParse, CodeEmptyDataset,
		fmt.Sprintf("%s contains no data rows", source)).
		WithSuggestion("check that the export is not empty and the header row is present").
		WithContext("source", source)
}

// ColumnNotFound reports a mapped column that is absent from a dataset's
// header set. The offending column name is part of the message.
func ColumnNotFound(source, column string, available []string) *Error {
	return New(CategoryConfig, CodeColumnNotFound,
		fmt.Sprintf("column %q not found in %s", column, source)).
		WithSuggestion("check the column mapping against the file header").
		WithContext("source", source).
		WithContext("column", column).
		WithContext("available", available)
}

// InvalidConfig reports a rule or mapping setting that fails validation.
func InvalidConfig(setting string, value interface{}, reason string) *Error {
	return New(CategoryConfig, CodeInvalidConfig,
		fmt.Sprintf("invalid %s (%v): %s", setting, value, reason)).
		WithContext("setting", setting).
		WithContext("value", value)
}

// UnknownToken reports an export request for a token that was never issued
// or has expired.
func UnknownToken(token string) *Error {
	return New(CategoryCache, CodeUnknownToken,
		"result not found or expired, re-run the reconciliation").
		WithContext("token", token)
}

// ExportError wraps a workbook serialization failure.
func ExportError(err error) *Error {
	return Wrap(err, CategoryExport, CodeExportFailure, "failed to build export workbook")
}

// Internal wraps an unexpected engine failure.
func Internal(operation string, err error) *Error {
	return Wrap(err, CategoryEngine, CodeInternal,
		fmt.Sprintf("unexpected error during %s", operation)).
		WithContext("operation", operation)
}

// Is checks whether err carries the given code anywhere in its chain.
func Is(err error, code Code) bool {
	e, ok := As(err)
	return ok && e.Code == code
}

// As extracts an *Error from an error chain.
func As(err error) (*Error, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// WrapIfNeeded wraps err unless it is already an *Error.
func WrapIfNeeded(err error, category Category, code Code, message string) *Error {
	if err == nil {
		return nil
	}
	if appErr, ok := As(err); ok {
		return appErr
	}
	return Wrap(err, category, code, message)
}
