package dsv

import (
	"errors"
	"reflect"
	"testing"
)

// readRow reads a single row or fails the test.
func readRow(t *testing.T, input string) *Row {
	t.Helper()
	row, err := FromString(input).Read()
	if err != nil {
		t.Fatalf("Read(%q) error = %v", input, err)
	}
	return row
}

// TestColumnsNext tests walking a row's fields in order.
func TestColumnsNext(t *testing.T) {
	cols, err := readRow(t, "a,b,c").Columns()
	if err != nil {
		t.Fatalf("Columns() error = %v", err)
	}

	want := []string{"a", "b", "c"}
	for i, w := range want {
		if got := cols.Remaining(); got != len(want)-i {
			t.Errorf("Remaining() = %d, want %d", got, len(want)-i)
		}
		f, ok := cols.Next()
		if !ok || f != w {
			t.Fatalf("Next() = %q, %v, want %q, true", f, ok, w)
		}
	}
	if f, ok := cols.Next(); ok {
		t.Errorf("Next() past end = %q, true", f)
	}
	if got := cols.Remaining(); got != 0 {
		t.Errorf("Remaining() after end = %d, want 0", got)
	}
}

// TestColumnsPeek tests that Peek does not advance the cursor.
func TestColumnsPeek(t *testing.T) {
	cols, err := readRow(t, "x,y").Columns()
	if err != nil {
		t.Fatalf("Columns() error = %v", err)
	}
	for i := 0; i < 3; i++ {
		if f, ok := cols.Peek(); !ok || f != "x" {
			t.Fatalf("Peek() %d = %q, %v", i, f, ok)
		}
	}
	if f, _ := cols.Next(); f != "x" {
		t.Errorf("Next() after Peek = %q, want x", f)
	}
	if f, _ := cols.Peek(); f != "y" {
		t.Errorf("Peek() = %q, want y", f)
	}
	cols.Next()
	if _, ok := cols.Peek(); ok {
		t.Error("Peek() past end reported a field")
	}
}

// TestColumnsQuoteTrimming tests how surrounding quotes are removed from
// fields. Trimming is positional: when a field starts with a quote, its first
// and last bytes are dropped, whatever the last byte is.
func TestColumnsQuoteTrimming(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{name: "unquoted", input: "abc", want: []string{"abc"}},
		{name: "quoted", input: `"abc"`, want: []string{"abc"}},
		{name: "empty quoted", input: `""`, want: []string{""}},
		{name: "quoted delimiter", input: `"a,b",c`, want: []string{"a,b", "c"}},
		{name: "escaped quotes", input: `"a""b"`, want: []string{`a"b`}},
		{name: "only an escaped quote", input: `""""`, want: []string{`"`}},
		{name: "two escaped quotes", input: `""""""`, want: []string{`""`}},
		{name: "lone quote byte stays", input: `"`, want: []string{`"`}},
		{name: "unterminated quote drops the last byte", input: `"abc`, want: []string{"ab"}},
		{name: "mixed quoting", input: `plain,"quoted",""`, want: []string{"plain", "quoted", ""}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := readRow(t, tt.input).Fields()
			if err != nil {
				t.Fatalf("Fields() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Fields() = %q, want %q", got, tt.want)
			}
		})
	}
}

// TestColumnsIndependentCursors tests that cursors over one row do not
// interfere.
func TestColumnsIndependentCursors(t *testing.T) {
	row := readRow(t, "a,b")
	c1, _ := row.Columns()
	c2, _ := row.Columns()
	c1.Next()
	c1.Next()
	if f, ok := c2.Next(); !ok || f != "a" {
		t.Errorf("second cursor Next() = %q, %v, want a, true", f, ok)
	}
}

// TestColumnsZeroCopy tests that fields alias the row buffer rather than
// copying it.
func TestColumnsZeroCopy(t *testing.T) {
	row := readRow(t, `ab,"cd"`)
	line := row.Bytes()

	cols := row.BytesColumns()
	f, _ := cols.Next()
	if &f[0] != &line[0] {
		t.Error("unquoted field does not alias the row buffer")
	}
	f, _ = cols.Next()
	// A quoted field aliases the buffer one byte in.
	if &f[0] != &line[4] {
		t.Error("quoted field does not alias the row buffer")
	}
}

// TestColumnsInvalidEncoding tests the UTF-8 gate and its bypass.
func TestColumnsInvalidEncoding(t *testing.T) {
	row := readRow(t, "ok,\xff\xfe")

	if _, err := row.Columns(); !errors.Is(err, ErrInvalidEncoding) {
		t.Errorf("Columns() error = %v, want ErrInvalidEncoding", err)
	}
	if _, err := row.Fields(); !errors.Is(err, ErrInvalidEncoding) {
		t.Errorf("Fields() error = %v, want ErrInvalidEncoding", err)
	}

	// Raw access still works.
	cols := row.BytesColumns()
	f, ok := cols.Next()
	if !ok || string(f) != "ok" {
		t.Fatalf("BytesColumns Next() = %q, %v", f, ok)
	}
	f, ok = cols.Next()
	if !ok || !reflect.DeepEqual(f, []byte{0xff, 0xfe}) {
		t.Errorf("BytesColumns Next() = %v, %v, want raw bytes", f, ok)
	}
}

// TestRowBytes tests the raw row accessor.
func TestRowBytes(t *testing.T) {
	row := readRow(t, `a,"b,c"`)
	if got := string(row.Bytes()); got != `a,"b,c"` {
		t.Errorf("Bytes() = %q, want the raw row", got)
	}
	if row.Len() != 2 {
		t.Errorf("Len() = %d, want 2", row.Len())
	}
}
