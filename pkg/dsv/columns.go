package dsv

import (
	"unsafe"
)

// cursor walks a row's fields left to right. Fields are subslices of the row
// buffer with surrounding quotes trimmed; no bytes are copied.
type cursor struct {
	line []byte
	ends []int
	pos  int // first byte of the next field
	idx  int // fields consumed so far
}

func (c *cursor) next() ([]byte, bool) {
	f, ok := c.peek()
	if ok {
		c.pos = c.ends[c.idx] + 1
		c.idx++
	}
	return f, ok
}

func (c *cursor) peek() ([]byte, bool) {
	if c.idx >= len(c.ends) {
		return nil, false
	}
	return unquote(c.line[c.pos:c.ends[c.idx]]), true
}

// index returns the 1-indexed position of the most recently consumed field.
func (c *cursor) index() int {
	return c.idx
}

// Remaining returns the number of fields not yet consumed.
func (c *cursor) Remaining() int {
	return len(c.ends) - c.idx
}

// unquote trims the surrounding quotes of a quoted field. Doubled quotes were
// already collapsed during scanning, so trimming is a re-slice, never a copy.
func unquote(f []byte) []byte {
	if len(f) > 1 && f[0] == '"' {
		return f[1 : len(f)-1]
	}
	return f
}

// Columns yields a row's fields as strings, in order. Obtain one from
// Row.Columns. The cursor only moves forward; multiple cursors over the same
// row are independent.
//
// Example:
//
//	cols, err := row.Columns()
//	if err != nil {
//		// handle non-UTF-8 row
//	}
//	for {
//		field, ok := cols.Next()
//		if !ok {
//			break
//		}
//		fmt.Println(field)
//	}
type Columns struct {
	cursor
}

// Next returns the next field and advances the cursor. It returns false when
// every field has been consumed.
//
// The string shares the row's memory; copy it to retain it past the row.
func (c *Columns) Next() (string, bool) {
	f, ok := c.next()
	return unsafeString(f), ok
}

// Peek returns the next field without advancing the cursor.
func (c *Columns) Peek() (string, bool) {
	f, ok := c.peek()
	return unsafeString(f), ok
}

// BytesColumns yields a row's fields as byte slices, in order. Obtain one
// from Row.BytesColumns. Unlike Columns it performs no encoding validation,
// so it also serves rows that are not valid UTF-8.
type BytesColumns struct {
	cursor
}

// Next returns the next field and advances the cursor. It returns false when
// every field has been consumed. The slice shares the row's memory and must
// not be modified.
func (c *BytesColumns) Next() ([]byte, bool) {
	return c.next()
}

// Peek returns the next field without advancing the cursor.
func (c *BytesColumns) Peek() ([]byte, bool) {
	return c.peek()
}

// unsafeString converts a []byte to a string without allocation. The byte
// slice must not be modified while the string is in use; cursors only hand
// out subslices of the immutable row buffer, so this holds.
func unsafeString(b []byte) string {
	return unsafe.String(unsafe.SliceData(b), len(b))
}
