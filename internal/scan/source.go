// Package scan implements low-level row scanning for delimiter-separated
// text. It finds row boundaries and field offsets while honoring RFC 4180
// quoting, and leaves all interpretation of field contents to callers.
package scan

import (
	"bufio"
	"io"
)

// defaultWindowSize is the buffer size for reader-backed sources.
// 8KB balances cache efficiency against refill overhead.
const defaultWindowSize = 8 * 1024

// A Source hands out successive windows of a byte stream.
//
// Fill returns a non-empty window of not-yet-consumed bytes, or an error;
// io.EOF signals the end of input. The window remains valid until the next
// Fill or Discard call. Discard consumes the first n bytes of the current
// window; n must not exceed the window length.
type Source interface {
	Fill() ([]byte, error)
	Discard(n int)
}

// readerSource adapts an io.Reader through bufio. The window is the buffered
// region. Errors other than io.EOF latch: once the underlying stream fails,
// every later Fill reports the same error.
type readerSource struct {
	br  *bufio.Reader
	err error
}

// NewReaderSource returns a Source reading from r with a window of the given
// size. A size of zero or less selects the default.
func NewReaderSource(r io.Reader, size int) Source {
	if size <= 0 {
		size = defaultWindowSize
	}
	return &readerSource{br: bufio.NewReaderSize(r, size)}
}

func (s *readerSource) Fill() ([]byte, error) {
	if s.err != nil {
		return nil, s.err
	}
	if _, err := s.br.Peek(1); err != nil {
		if err != io.EOF {
			s.err = err
		}
		return nil, err
	}
	win, _ := s.br.Peek(s.br.Buffered())
	return win, nil
}

func (s *readerSource) Discard(n int) {
	if s.err == nil {
		// Cannot fail: n never exceeds the buffered window.
		s.br.Discard(n)
	}
}

// bytesSource serves an in-memory buffer as one big window. No copying: the
// window is the remaining slice itself.
type bytesSource struct {
	data []byte
	off  int
}

// NewBytesSource returns a Source over b. The caller must not modify b while
// scanning.
func NewBytesSource(b []byte) Source {
	return &bytesSource{data: b}
}

func (s *bytesSource) Fill() ([]byte, error) {
	if s.off >= len(s.data) {
		return nil, io.EOF
	}
	return s.data[s.off:], nil
}

func (s *bytesSource) Discard(n int) {
	s.off += n
}
