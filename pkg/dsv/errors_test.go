package dsv_test

import (
	"errors"
	"testing"

	"github.com/shapestone/shape-dsv/pkg/dsv"
)

func TestColumnMismatchError(t *testing.T) {
	t.Run("message", func(t *testing.T) {
		err := &dsv.ColumnMismatchError{
			Line:     7,
			Expected: 3,
			Actual:   5,
		}

		got := err.Error()
		want := "line 7: got 5 fields, expected 3"
		if got != want {
			t.Errorf("ColumnMismatchError.Error() = %q, want %q", got, want)
		}
	})

	t.Run("as", func(t *testing.T) {
		var err error = &dsv.ColumnMismatchError{Line: 1, Expected: 2, Actual: 1}
		var mismatch *dsv.ColumnMismatchError
		if !errors.As(err, &mismatch) {
			t.Error("errors.As failed for ColumnMismatchError")
		}
	})
}

func TestDecodeErrorMessage(t *testing.T) {
	t.Run("message", func(t *testing.T) {
		err := &dsv.DecodeError{
			Column: 2,
			Value:  "forty",
			Err:    errors.New("not a number"),
		}

		got := err.Error()
		want := `cannot decode field 2 ("forty"): not a number`
		if got != want {
			t.Errorf("DecodeError.Error() = %q, want %q", got, want)
		}
	})

	t.Run("unwrap", func(t *testing.T) {
		underlying := errors.New("bad value")
		err := &dsv.DecodeError{Column: 1, Err: underlying}

		if !errors.Is(err, underlying) {
			t.Error("DecodeError.Unwrap() should return the underlying error")
		}
	})
}

func TestSentinelErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"unescaped quote", dsv.ErrUnescapedQuote, "unescaped quote in quoted field"},
		{"unexpected quote", dsv.ErrUnexpectedQuote, "unexpected quote in unquoted field"},
		{"invalid encoding", dsv.ErrInvalidEncoding, "row is not valid UTF-8"},
		{"end of row", dsv.ErrEndOfRow, "no fields left in row"},
		{"invalid delimiter", dsv.ErrInvalidDelimiter, "invalid delimiter"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}
