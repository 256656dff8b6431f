package engine

import (
	"errors"
	"fmt"
)

// Predefined errors
var (
	// ErrEmptyInput is returned when the input contains no header and no rows
	ErrEmptyInput = errors.New("engine: empty CSV data")

	// ErrUnsupportedQuote is returned when a quote character other than '"' is requested
	ErrUnsupportedQuote = errors.New(`engine: only '"' is supported as quote character`)

	// ErrInvalidPoolSize is returned when a pool is built with a non-positive size
	ErrInvalidPoolSize = errors.New("engine: pool size must be greater than 0")
)

// ParseError reports a value that does not fit the inferred column type.
type ParseError struct {
	// Row is the 1-based data row of the offending record, header excluded
	Row int
	// Column is the column name
	Column string
	// Value is the raw field text
	Value string
	// Type is the inferred column type the value failed to convert to
	Type string
	// Err is the underlying conversion error
	Err error
}

// Error implements error.
func (e *ParseError) Error() string {
	return fmt.Sprintf("engine: row %d, column %q: cannot parse %q as %s: %v", e.Row, e.Column, e.Value, e.Type, e.Err)
}

// Unwrap returns the underlying conversion error.
func (e *ParseError) Unwrap() error {
	return e.Err
}
