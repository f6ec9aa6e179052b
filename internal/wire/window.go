package wire

import (
	"errors"
	"io"
)

// DefaultWindowSize is the read-ahead used while parsing archive tables.
const DefaultWindowSize = 64 << 10

// Window is an io.ReaderAt that serves small reads from one cached region
// of its source, refilling the region on a miss. It turns the many small
// reads of a table parse into a few large ones against slow sources.
//
// A Window is not safe for concurrent use.
type Window struct {
	src io.ReaderAt
	buf []byte
	off int64
	n   int
	eof bool
}

// NewWindow returns a Window over src caching size bytes at a time.
func NewWindow(src io.ReaderAt, size int) *Window {
	if size <= 0 {
		size = DefaultWindowSize
	}
	return &Window{src: src, buf: make([]byte, size)}
}

// ReadAt implements io.ReaderAt.
func (w *Window) ReadAt(p []byte, off int64) (int, error) {
	if len(p) > len(w.buf) {
		return w.src.ReadAt(p, off)
	}
	if !w.covers(off, len(p)) {
		if err := w.fill(off); err != nil {
			return 0, err
		}
	}
	start := int(off - w.off)
	n := copy(p, w.buf[start:w.n])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func (w *Window) covers(off int64, n int) bool {
	if w.n == 0 && !w.eof || off < w.off {
		return false
	}
	end := off + int64(n)
	if end <= w.off+int64(w.n) {
		return true
	}
	// A short window ending at EOF covers everything past it too.
	return w.eof && off <= w.off+int64(w.n)
}

func (w *Window) fill(off int64) error {
	n, err := w.src.ReadAt(w.buf, off)
	w.off, w.n, w.eof = off, n, false
	switch {
	case err == nil:
	case errors.Is(err, io.EOF):
		w.eof = true
	default:
		w.n = 0
		return err
	}
	return nil
}
