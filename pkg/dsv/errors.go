package dsv

import (
	"errors"
	"fmt"

	"github.com/shapestone/shape-dsv/internal/scan"
)

// Row-scoped quoting errors, re-exported so callers only need this package.
// Both leave the Reader usable: the offending row is skipped and the next
// Read returns the following row.
var (
	// ErrUnescapedQuote reports a quote inside a quoted field that was not
	// doubled and not followed by a delimiter or row terminator.
	ErrUnescapedQuote = scan.ErrUnescapedQuote

	// ErrUnexpectedQuote reports a quote in the middle of an unquoted field.
	ErrUnexpectedQuote = scan.ErrUnexpectedQuote
)

var (
	// ErrInvalidEncoding is returned by Columns and Fields when the row's
	// bytes are not valid UTF-8. BytesColumns remains available for such
	// rows.
	ErrInvalidEncoding = errors.New("row is not valid UTF-8")

	// ErrEndOfRow is returned when decoding requests a field but the row has
	// none left.
	ErrEndOfRow = errors.New("no fields left in row")

	// ErrInvalidDelimiter is returned by Read when the configured delimiter
	// is a quote or a row terminator byte.
	ErrInvalidDelimiter = errors.New("invalid delimiter")
)

// ColumnMismatchError reports a row whose field count differs from the count
// fixed by the first row. The offending row is discarded; unless the Reader
// is flexible, every later row must match. Reading may continue past it.
type ColumnMismatchError struct {
	// Line is the 1-indexed position the row would have had.
	Line int
	// Expected is the field count fixed by the first row.
	Expected int
	// Actual is the field count of the offending row.
	Actual int
}

// Error returns a formatted message naming both counts.
func (e *ColumnMismatchError) Error() string {
	return fmt.Sprintf("line %d: got %d fields, expected %d", e.Line, e.Actual, e.Expected)
}

// DecodeError reports a field that could not be decoded into the target
// shape. It carries the field's position and raw text for investigation.
type DecodeError struct {
	// Column is the 1-indexed position of the field within the row.
	Column int
	// Value is the field's raw text.
	Value string
	// Err is the underlying error.
	Err error
}

// Error returns a formatted message with the field position and text.
func (e *DecodeError) Error() string {
	return fmt.Sprintf("cannot decode field %d (%q): %v", e.Column, e.Value, e.Err)
}

// Unwrap returns the underlying error.
func (e *DecodeError) Unwrap() error {
	return e.Err
}
