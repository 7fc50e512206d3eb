package session

import (
	"bytes"
	"io"
)

const (
	maxLineBytes = 256
	readChunk    = 64
)

// lineReader splits a timeout-driven byte stream into lines.
// A Read returning (0, nil) is a read timeout, not an error.
// After ErrLineTooLong the rest of the oversized line, up to and
// including its '\n', is dropped.
type lineReader struct {
	r          io.Reader
	buf        []byte
	chunk      []byte
	discarding bool
}

func newLineReader(r io.Reader) *lineReader {
	return &lineReader{
		r:     r,
		buf:   make([]byte, 0, maxLineBytes),
		chunk: make([]byte, readChunk),
	}
}

// ReadLine returns the next line without its terminator. ok is false when
// the underlying read timed out before a full line arrived.
func (l *lineReader) ReadLine() (line string, ok bool, err error) {
	for {
		if i := bytes.IndexByte(l.buf, '\n'); i >= 0 {
			skip := l.discarding
			if !skip {
				line = string(bytes.TrimRight(l.buf[:i], "\r"))
			}
			l.buf = append(l.buf[:0], l.buf[i+1:]...)
			if skip {
				l.discarding = false
				continue
			}
			return line, true, nil
		}
		switch {
		case l.discarding:
			l.buf = l.buf[:0]
		case len(l.buf) > maxLineBytes:
			l.buf = l.buf[:0]
			l.discarding = true
			return "", false, ErrLineTooLong
		}

		n, err := l.r.Read(l.chunk)
		if n > 0 {
			l.buf = append(l.buf, l.chunk[:n]...)
			continue
		}
		if err != nil {
			return "", false, err
		}
		return "", false, nil
	}
}
