// Package bytesource provides a forward-only, buffered read/seek
// abstraction over a file or pipe: a buffered reader that can also "seek"
// a non-seekable source (e.g. stdin) by discarding bytes.
package bytesource

import (
	"io"

	"github.com/tivostream/tivodecode-go/tiverr"
)

const bufferSize = 64 * 1024

// Source wraps an io.Reader with an internal buffer, tracking the current
// absolute offset so callers can both read exact byte counts and seek
// forward — including over a non-seekable reader, where seeking is
// implemented by discarding bytes.
type Source struct {
	r   io.Reader
	pos int64

	buf   []byte
	start int64
	fill  int
}

// New wraps r for buffered forward reading.
func New(r io.Reader) *Source {
	return &Source{r: r, buf: make([]byte, bufferSize)}
}

// Tell returns the current absolute read offset.
func (s *Source) Tell() int64 { return s.pos }

// Read returns exactly n bytes from the source, or a tiverr.EOFError if
// fewer than n bytes remain.
func (s *Source) Read(n int) ([]byte, error) {
	out, read, err := s.readUpTo(n)
	if err != nil {
		return nil, &tiverr.EOFError{Context: "refilling buffer", Err: err}
	}
	if read < n {
		return nil, &tiverr.EOFError{Context: "read past end of input", Err: io.EOF}
	}
	return out, nil
}

// TryRead reads up to n bytes, as Read does, except that a clean
// end-of-stream with zero bytes available is reported as ok == false
// rather than an error. A short, truncated read (input ended partway
// through the requested n bytes) is still a tiverr.EOFError — only a read
// that starts exactly at end-of-stream is "clean".
func (s *Source) TryRead(n int) (data []byte, ok bool, err error) {
	out, read, rerr := s.readUpTo(n)
	if rerr != nil {
		return nil, false, &tiverr.EOFError{Context: "refilling buffer", Err: rerr}
	}
	if read == 0 {
		return nil, false, nil
	}
	if read < n {
		return nil, false, &tiverr.EOFError{Context: "read past end of input", Err: io.EOF}
	}
	return out, true, nil
}

// readUpTo reads up to n bytes without treating a short read as an error;
// callers interpret read < n themselves.
func (s *Source) readUpTo(n int) ([]byte, int, error) {
	out := make([]byte, n)
	if n == 0 {
		return out, 0, nil
	}

	read := 0
	if s.pos+int64(n)-s.start <= int64(s.fill) {
		copy(out, s.buf[s.pos-s.start:])
		s.pos += int64(n)
		return out, n, nil
	} else if s.pos < s.start+int64(s.fill) {
		avail := int(s.start + int64(s.fill) - s.pos)
		copy(out, s.buf[s.pos-s.start:s.pos-s.start+int64(avail)])
		read += avail
	}

	for read < n {
		s.start += int64(s.fill)
		nr, err := io.ReadFull(s.r, s.buf)
		if nr == 0 {
			if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
				return nil, 0, err
			}
			s.fill = 0
			break
		}
		s.fill = nr
		take := n - read
		if take > nr {
			take = nr
		}
		copy(out[read:], s.buf[:take])
		read += take
	}

	s.pos += int64(read)
	return out[:read], read, nil
}

// SeekForward advances the source to absolute offset target, discarding
// any intervening bytes. It returns tiverr.SeekError if target is behind
// the current position.
func (s *Source) SeekForward(target int64) error {
	if target < s.pos {
		return &tiverr.SeekError{Target: target, Current: s.pos}
	}
	const junkChunk = 4096
	remaining := target - s.pos
	for remaining > 0 {
		n := int64(junkChunk)
		if remaining < n {
			n = remaining
		}
		if _, err := s.Read(int(n)); err != nil {
			return err
		}
		remaining -= n
	}
	return nil
}
