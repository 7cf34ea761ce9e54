package scan

import (
	"errors"
	"io"
)

// Malformed-quoting errors. Both are scoped to the offending row: the scanner
// discards input through the next row terminator before returning, so the
// following Scan starts at the next row.
var (
	// ErrUnescapedQuote reports a quote inside a quoted field that was not
	// doubled and not followed by a delimiter or row terminator.
	ErrUnescapedQuote = errors.New("unescaped quote in quoted field")

	// ErrUnexpectedQuote reports a quote appearing in the middle of an
	// unquoted field.
	ErrUnexpectedQuote = errors.New("unexpected quote in unquoted field")
)

// RowScanner reads delimiter-separated rows from a Source, one row per Scan
// call. It accumulates the row's bytes and records the position of every
// delimiter, leaving field interpretation to the caller.
//
// Quoting follows RFC 4180: a field beginning with a double quote runs until
// the matching quote; delimiters, carriage returns, and line feeds inside it
// are data; a doubled quote is a literal quote and is collapsed to a single
// byte as the row is accumulated. The surrounding quotes themselves stay in
// the row bytes; trimming them is the reader's concern. Only a line feed
// terminates a row.
type RowScanner struct {
	src   Source
	delim byte

	// State for the row being scanned. read counts raw bytes consumed from
	// exhausted windows, dropped counts quote bytes omitted by escape
	// collapsing. pending means the previous window ended on a quote inside
	// a quoted field and the next byte decides its role. fieldStart means
	// the cursor sits at the beginning of a field, where an opening quote
	// is legal.
	line       []byte
	ends       []int
	read       int
	dropped    int
	inQuote    bool
	pending    bool
	fieldStart bool
}

// NewRowScanner returns a scanner reading rows from src split on delim.
func NewRowScanner(src Source, delim byte) *RowScanner {
	return &RowScanner{src: src, delim: delim}
}

// Scan reads one row. The row's bytes are appended to line and the position
// of each delimiter within the returned line is appended to ends; the final
// field has no entry. Both slices may be nil. Scan returns io.EOF when the
// input is exhausted, a quoting error for a malformed row (after skipping to
// the next row), or the source's error when the stream itself fails. Input
// that ends without a trailing terminator yields a final row from the
// remaining bytes.
//
// On any non-nil error the contents of the returned slices are undefined and
// the caller should truncate them before reuse.
func (s *RowScanner) Scan(line []byte, ends []int) ([]byte, []int, error) {
	s.line, s.ends = line, ends
	s.read, s.dropped = 0, 0
	s.inQuote, s.pending = false, false
	s.fieldStart = true
	err := s.scan()
	return s.line, s.ends, err
}

func (s *RowScanner) scan() error {
	for {
		win, err := s.src.Fill()
		if err != nil {
			if err == io.EOF && s.read > 0 {
				return nil
			}
			return err
		}
		done, err := s.window(win)
		if err != nil || done {
			return err
		}
	}
}

// window processes one window of input. It reports true when the row is
// complete (terminator consumed, or a malformed row skipped), false when the
// window was exhausted mid-row.
func (s *RowScanner) window(win []byte) (bool, error) {
	i, start := 0, 0
	if s.pending {
		s.pending = false
		switch c := win[0]; {
		case c == '"':
			// An escaped pair split across the refill. Its first half is in
			// the row already; drop the second and stay quoted.
			s.dropped++
			i, start = 1, 1
		case c == s.delim || c == '\n' || c == '\r':
			// The carried quote closed the field.
			s.inQuote = false
		default:
			s.resync(win, 1)
			return true, ErrUnescapedQuote
		}
	}
	if s.inQuote {
		var err error
		i, start, err = s.quoted(win, i, start)
		if err != nil {
			s.resync(win, i)
			return true, err
		}
	}
	for !s.inQuote && i < len(win) {
		switch c := win[i]; {
		case c == '\n':
			s.line = append(s.line, win[start:i]...)
			s.src.Discard(i + 1)
			return true, nil
		case c == s.delim:
			s.ends = append(s.ends, s.read+i-s.dropped)
			s.fieldStart = true
			i++
		case c == '"':
			if !s.fieldStart {
				s.resync(win, i+1)
				return true, ErrUnexpectedQuote
			}
			s.inQuote = true
			s.fieldStart = false
			var err error
			i, start, err = s.quoted(win, i+1, start)
			if err != nil {
				s.resync(win, i)
				return true, err
			}
		default:
			s.fieldStart = false
			i++
		}
	}
	s.line = append(s.line, win[start:]...)
	s.read += len(win)
	s.src.Discard(len(win))
	return false, nil
}

// quoted advances through the interior of a quoted field, collapsing doubled
// quotes as it goes. It returns the new cursor and span start. The field
// stays open when the window ends first; a quote as the final window byte
// sets pending, leaving its role to the next window.
func (s *RowScanner) quoted(win []byte, i, start int) (int, int, error) {
	for i < len(win) {
		if win[i] != '"' {
			i++
			continue
		}
		if i == len(win)-1 {
			s.pending = true
			return len(win), start, nil
		}
		switch c := win[i+1]; {
		case c == '"':
			// Doubled quote: keep the first byte, drop the second.
			s.line = append(s.line, win[start:i+1]...)
			s.dropped++
			i += 2
			start = i
		case c == s.delim || c == '\n' || c == '\r':
			s.inQuote = false
			return i + 1, start, nil
		default:
			return i + 2, start, ErrUnescapedQuote
		}
	}
	return len(win), start, nil
}

// resync discards the remainder of a malformed row so that the next Scan
// starts at the following one. from is the cursor just past the offending
// byte. Quote state is ignored while skipping; the row is already poisoned.
func (s *RowScanner) resync(win []byte, from int) {
	for {
		for i := from; i < len(win); i++ {
			if win[i] == '\n' {
				s.src.Discard(i + 1)
				return
			}
		}
		s.src.Discard(len(win))
		var err error
		win, err = s.src.Fill()
		if err != nil {
			return
		}
		from = 0
	}
}
