// Package dsv reads delimiter-separated values from a stream, one row at a
// time. It is built for large inputs: rows are scanned incrementally, field
// access is zero-copy, and typed decoding pulls fields positionally into Go
// values.
//
// Reading is a three-step affair. A Reader scans rows:
//
//	r := dsv.NewReader(file).SetDelimiter(';').SetHasHeader(true)
//	for {
//		row, err := r.Read()
//		if err == io.EOF {
//			break
//		}
//		if err != nil {
//			// quoting and field-count errors are scoped to one row;
//			// reading may continue
//		}
//		// ...
//	}
//
// a cursor walks one row's fields:
//
//	cols, _ := row.Columns()
//	name, _ := cols.Next()
//
// and Decode fills Go values positionally:
//
//	var rec struct {
//		Name  string
//		Count int
//	}
//	err := row.Decode(&rec)
//
// Only a line feed terminates a row; a carriage return before it is dropped.
// Fields may be quoted per RFC 4180: delimiters and line breaks inside quotes
// are data, and a doubled quote is a literal quote. An empty line is a row
// with a single empty field.
package dsv

import (
	"io"
	"iter"
	"os"

	"github.com/shapestone/shape-dsv/internal/scan"
)

// Reader reads rows of delimiter-separated values from an input stream.
// Configure it with the SetX methods before the first Read.
//
// Errors fall into two classes. Quoting errors and field-count mismatches
// poison only the offending row: the row is discarded and the next Read
// returns the following row. Errors from the underlying stream are fatal:
// every later Read returns the same error.
type Reader struct {
	src    scan.Source
	closer io.Closer
	delim  byte

	flexible  bool
	hasHeader bool
	reuse     bool

	sc         *scan.RowScanner
	headers    []string
	headerDone bool
	want       int // field count fixed by the first row, 0 until bound
	lines      int
	err        error // latched stream-fatal error

	// scratch reused across Read calls when reuse is set
	row  *Row
	line []byte
	ends []int
}

// NewReader returns a Reader consuming r with the default buffer size and a
// comma delimiter.
//
// Example:
//
//	r := dsv.NewReader(file).SetHasHeader(true)
func NewReader(r io.Reader) *Reader {
	return NewReaderSize(r, 0)
}

// NewReaderSize is NewReader with an explicit buffer size in bytes. A size of
// zero or less selects the default.
func NewReaderSize(r io.Reader, size int) *Reader {
	return &Reader{src: scan.NewReaderSource(r, size), delim: ','}
}

// FromBytes returns a Reader over in-memory data. Rows reference b directly,
// so b must not be modified while reading.
func FromBytes(b []byte) *Reader {
	return &Reader{src: scan.NewBytesSource(b), delim: ','}
}

// FromString returns a Reader over an in-memory string.
//
// Example:
//
//	r := dsv.FromString("a,b,c\nd,e,f")
func FromString(s string) *Reader {
	return FromBytes([]byte(s))
}

// Open returns a Reader over the named file. Call Close when done with it.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	r := NewReader(f)
	r.closer = f
	return r, nil
}

// Close releases the underlying file of a Reader obtained from Open. It is a
// no-op for other Readers.
func (r *Reader) Close() error {
	if r.closer == nil {
		return nil
	}
	c := r.closer
	r.closer = nil
	return c.Close()
}

// SetDelimiter sets the field delimiter byte. The default is a comma. A
// quote or row terminator byte is rejected by the first Read with
// ErrInvalidDelimiter. Returns the Reader for method chaining.
//
// Example:
//
//	r := dsv.NewReader(file).SetDelimiter('\t')
func (r *Reader) SetDelimiter(d byte) *Reader {
	r.delim = d
	return r
}

// SetFlexible sets whether rows may have varying field counts. When false
// (the default), the first row fixes the expected count and any later row
// that differs is reported as a ColumnMismatchError and discarded. Returns
// the Reader for method chaining.
func (r *Reader) SetFlexible(flexible bool) *Reader {
	r.flexible = flexible
	return r
}

// SetHasHeader sets whether the first row holds field names rather than
// data. When true, the first row is consumed and made available through
// Headers instead of Read. Its field count still fixes the expected count.
// Returns the Reader for method chaining.
//
// Example:
//
//	r := dsv.NewReader(file).SetHasHeader(true)
func (r *Reader) SetHasHeader(hasHeader bool) *Reader {
	r.hasHeader = hasHeader
	return r
}

// SetReuseRow sets whether Read returns the same Row with its buffers reused
// between calls. This reduces allocations, but a returned Row and everything
// sharing its memory are only valid until the next Read. Returns the Reader
// for method chaining.
func (r *Reader) SetReuseRow(reuse bool) *Reader {
	r.reuse = reuse
	return r
}

// Read returns the next row. It returns io.EOF when the input is exhausted.
//
// A ColumnMismatchError, ErrUnescapedQuote, or ErrUnexpectedQuote concerns
// only the row it was reported for; calling Read again yields the following
// row. Any other error is fatal and repeats on every later call.
func (r *Reader) Read() (*Row, error) {
	if r.err != nil {
		return nil, r.err
	}
	if r.hasHeader && !r.headerDone {
		r.readHeader()
		if r.err != nil {
			return nil, r.err
		}
	}
	return r.read()
}

// All returns an iterator over the remaining rows. Row-scoped failures are
// yielded with a nil row and iteration continues past them; the iterator
// stops at end of input or on a fatal stream error (yielded last).
//
// Example:
//
//	for row, err := range r.All() {
//		if err != nil {
//			continue // skip malformed rows
//		}
//		// ...
//	}
func (r *Reader) All() iter.Seq2[*Row, error] {
	return func(yield func(*Row, error) bool) {
		for {
			row, err := r.Read()
			if err == io.EOF {
				return
			}
			if err != nil {
				if !yield(nil, err) || r.err != nil {
					return
				}
				continue
			}
			if !yield(row, nil) {
				return
			}
		}
	}
}

// Headers returns the field names from the header row. Without SetHasHeader
// it returns nil and consumes nothing. With headers enabled it consumes the
// header row on first use; empty input yields empty headers and no error.
func (r *Reader) Headers() []string {
	if r.hasHeader && !r.headerDone && r.err == nil {
		r.readHeader()
	}
	return r.headers
}

// Line returns the number of rows produced so far, the header row included.
// Useful to locate a reported error in the input. Rows rejected with an
// error do not count.
func (r *Reader) Line() int {
	return r.lines
}

// FieldCount returns the expected field count and whether it has been fixed
// by a first row yet.
func (r *Reader) FieldCount() (int, bool) {
	if r.want == 0 {
		return 0, false
	}
	return r.want, true
}

// readHeader consumes the first row and records its fields as headers. A row
// that cannot be read or decoded leaves the headers empty; it is consumed
// either way. Stream errors latch in read as usual.
func (r *Reader) readHeader() {
	r.headerDone = true
	r.headers = []string{}
	row, err := r.read()
	if err != nil {
		return
	}
	if fields, err := row.Fields(); err == nil {
		r.headers = fields
	}
}

func (r *Reader) init() error {
	if r.sc != nil {
		return nil
	}
	switch r.delim {
	case '"', '\n', '\r':
		return ErrInvalidDelimiter
	}
	r.sc = scan.NewRowScanner(r.src, r.delim)
	return nil
}

func (r *Reader) read() (*Row, error) {
	if err := r.init(); err != nil {
		r.err = err
		return nil, err
	}
	line, ends := r.scratch()
	line, ends, err := r.sc.Scan(line, ends)
	if err != nil {
		// A failed scan must not leak partial bytes into the next row.
		r.keep(line[:0], ends[:0])
		if err == io.EOF {
			return nil, io.EOF
		}
		if err == scan.ErrUnescapedQuote || err == scan.ErrUnexpectedQuote {
			return nil, err
		}
		r.err = err
		return nil, err
	}
	if n := len(line); n > 0 && line[n-1] == '\r' {
		line = line[:n-1]
	}
	ends = append(ends, len(line))
	r.keep(line, ends)
	if r.want == 0 {
		r.want = len(ends)
	} else if len(ends) != r.want && !r.flexible {
		mismatch := &ColumnMismatchError{Line: r.lines + 1, Expected: r.want, Actual: len(ends)}
		r.keep(line[:0], ends[:0])
		return nil, mismatch
	}
	r.lines++
	return r.rowFor(line, ends), nil
}

// scratch hands out the row buffers for the next scan: the reused ones,
// truncated, when reuse is on, fresh ones otherwise.
func (r *Reader) scratch() ([]byte, []int) {
	if r.reuse {
		return r.line[:0], r.ends[:0]
	}
	return nil, nil
}

func (r *Reader) keep(line []byte, ends []int) {
	if r.reuse {
		r.line, r.ends = line, ends
	}
}

func (r *Reader) rowFor(line []byte, ends []int) *Row {
	if !r.reuse {
		return &Row{line: line, ends: ends}
	}
	if r.row == nil {
		r.row = &Row{}
	}
	r.row.line, r.row.ends = line, ends
	return r.row
}
