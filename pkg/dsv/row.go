package dsv

import (
	"unicode/utf8"
)

// Row is one scanned row of delimiter-separated input. It keeps the row's
// raw bytes together with the position of every delimiter, so field access
// is a slice operation rather than a copy.
//
// The bytes are raw in the sense that quoted fields keep their surrounding
// quotes; doubled quotes inside them were already collapsed to single bytes
// during scanning. Columns and BytesColumns trim the surrounding quotes as
// fields are read.
//
// A Row returned by a Reader with row reuse enabled is only valid until the
// next Read call.
type Row struct {
	// line holds the row bytes without the terminator.
	line []byte
	// ends holds one offset per field: the position just past the field's
	// last byte. The final entry equals len(line).
	ends []int
}

// Len returns the number of fields in the row.
func (r *Row) Len() int {
	return len(r.ends)
}

// IsEmpty reports whether the row came from an empty line. Such a row has
// exactly one field, and that field is empty.
func (r *Row) IsEmpty() bool {
	return len(r.ends) == 1 && r.ends[0] == 0
}

// Bytes returns the row's raw bytes: delimiters and surrounding quotes
// included, terminator excluded. The slice must not be modified.
func (r *Row) Bytes() []byte {
	return r.line
}

// Columns returns a cursor over the row's fields as strings. It fails with
// ErrInvalidEncoding when the row is not valid UTF-8; use BytesColumns to
// read such rows anyway.
//
// The returned strings share the row's memory. They are valid as long as the
// Row is; copy them to retain them past the next Read on a reusing Reader.
func (r *Row) Columns() (*Columns, error) {
	if !utf8.Valid(r.line) {
		return nil, ErrInvalidEncoding
	}
	return &Columns{cursor{line: r.line, ends: r.ends}}, nil
}

// BytesColumns returns a cursor over the row's fields as byte slices. No
// encoding check is performed. The returned slices share the row's memory
// and must not be modified.
func (r *Row) BytesColumns() *BytesColumns {
	return &BytesColumns{cursor{line: r.line, ends: r.ends}}
}

// Fields returns all fields as freshly allocated strings, surrounding quotes
// trimmed. Unlike Columns, the result does not share the row's memory. It
// fails with ErrInvalidEncoding when the row is not valid UTF-8.
func (r *Row) Fields() ([]string, error) {
	if !utf8.Valid(r.line) {
		return nil, ErrInvalidEncoding
	}
	fields := make([]string, 0, len(r.ends))
	c := cursor{line: r.line, ends: r.ends}
	for {
		f, ok := c.next()
		if !ok {
			return fields, nil
		}
		fields = append(fields, string(f))
	}
}
