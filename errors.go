package csvingest

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/nao1215/csvingest/domain/model"
	"github.com/nao1215/csvingest/engine"
)

// Error kinds. Input, engine, memory, validation and configuration errors
// match exactly one of them through errors.Is. Errors returned by a
// BatchConsumer, including SQLiteSink, are wrapped with context only, and
// context cancellation is returned as the context's error.
var (
	// ErrNotFound indicates the input path does not exist
	ErrNotFound = errors.New("csvingest: file not found")

	// ErrMemoryLimitExceeded indicates the pre-flight estimate is above the memory ceiling
	ErrMemoryLimitExceeded = errors.New("csvingest: memory limit exceeded")

	// ErrParse indicates the engine could not turn the file into a table
	ErrParse = errors.New("csvingest: parse failure")

	// ErrValidation indicates an invalid option or argument
	ErrValidation = errors.New("csvingest: validation failed")

	// ErrThreadPool indicates the worker pool could not be built
	ErrThreadPool = errors.New("csvingest: thread pool error")

	// ErrConfig indicates an invalid configuration source
	ErrConfig = errors.New("csvingest: invalid configuration")

	// ErrIO indicates a file system failure other than a missing file
	ErrIO = errors.New("csvingest: I/O error")
)

// MemoryLimitError reports a file whose estimated footprint exceeds the ceiling
type MemoryLimitError struct {
	// Path is the rejected file
	Path string
	// Requested is the estimated peak memory in MB
	Requested int64
	// Limit is the ceiling in MB
	Limit int64
}

// Error implements error.
func (e *MemoryLimitError) Error() string {
	return fmt.Sprintf("csvingest: memory limit exceeded: %s needs an estimated %d MB, limit is %d MB",
		e.Path, e.Requested, e.Limit)
}

// Is reports whether target is ErrMemoryLimitExceeded.
func (e *MemoryLimitError) Is(target error) bool {
	return target == ErrMemoryLimitExceeded
}

// ValidationError reports an invalid option value
type ValidationError struct {
	// Field is the option name
	Field string
	// Reason describes what is wrong with the value
	Reason string
}

// Error implements error.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("csvingest: invalid %s: %s", e.Field, e.Reason)
}

// Is reports whether target is ErrValidation.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// ErrorContext provides context for where an error occurred
type ErrorContext struct {
	Operation string
	FilePath  string
	Details   string
}

// NewErrorContext creates a new error context
func NewErrorContext(operation, filePath string) *ErrorContext {
	return &ErrorContext{
		Operation: operation,
		FilePath:  filePath,
	}
}

// WithDetails adds details to the error context
func (ec *ErrorContext) WithDetails(details string) *ErrorContext {
	ec.Details = details
	return ec
}

// Error creates a formatted error with context
func (ec *ErrorContext) Error(baseErr error) error {
	parts := []string{fmt.Sprintf("csvingest: %s failed", ec.Operation)}
	if ec.FilePath != "" {
		parts = append(parts, "file: "+ec.FilePath)
	}
	if ec.Details != "" {
		parts = append(parts, "details: "+ec.Details)
	}

	msg := strings.Join(parts, ", ")
	if baseErr != nil {
		return fmt.Errorf("%s: %w", msg, baseErr)
	}
	return errors.New(msg)
}

// ErrorCategory is the coarse error class exposed at the host boundary
type ErrorCategory int

const (
	// CategoryNone is the category of a nil error
	CategoryNone ErrorCategory = iota
	// CategoryRuntime covers missing files, parse failures, pool and I/O errors
	CategoryRuntime
	// CategoryMemory covers memory ceiling rejections
	CategoryMemory
	// CategoryValidation covers invalid options and configuration
	CategoryValidation
)

// String returns string representation of the category
func (c ErrorCategory) String() string {
	switch c {
	case CategoryRuntime:
		return "runtime"
	case CategoryMemory:
		return "memory"
	case CategoryValidation:
		return "validation"
	default:
		return "none"
	}
}

// Classify maps an error returned by this package to its boundary category.
// Errors of unknown origin are runtime errors.
func Classify(err error) ErrorCategory {
	switch {
	case err == nil:
		return CategoryNone
	case errors.Is(err, ErrMemoryLimitExceeded):
		return CategoryMemory
	case errors.Is(err, ErrValidation), errors.Is(err, ErrConfig):
		return CategoryValidation
	default:
		return CategoryRuntime
	}
}

// engineError attaches an error kind to an error returned by the engine
func engineError(err error) error {
	var (
		parseErr *engine.ParseError
		csvErr   *csv.ParseError
		pathErr  *fs.PathError
	)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	case errors.Is(err, engine.ErrUnsupportedQuote):
		return &ValidationError{Field: "quote_char", Reason: err.Error()}
	case errors.Is(err, engine.ErrInvalidPoolSize):
		return fmt.Errorf("%w: %w", ErrThreadPool, err)
	case errors.As(err, &parseErr),
		errors.As(err, &csvErr),
		errors.Is(err, engine.ErrEmptyInput),
		errors.Is(err, model.ErrDuplicateColumnName):
		return fmt.Errorf("%w: %w", ErrParse, err)
	case errors.As(err, &pathErr):
		return fmt.Errorf("%w: %w", ErrIO, err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	default:
		// Decompression failures and malformed input
		return fmt.Errorf("%w: %w", ErrParse, err)
	}
}
