package wire

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingReaderAt struct {
	r     io.ReaderAt
	calls int
}

func (c *countingReaderAt) ReadAt(p []byte, off int64) (int, error) {
	c.calls++
	return c.r.ReadAt(p, off)
}

func TestWindowServesFromCache(t *testing.T) {
	t.Parallel()

	data := make([]byte, 100)
	for i := range data {
		data[i] = byte(i)
	}
	src := &countingReaderAt{r: bytes.NewReader(data)}
	w := NewWindow(src, 32)

	c := NewCursor(w, 0, binary.BigEndian)
	for i := range 16 {
		v, err := c.Uint16()
		require.NoError(t, err)
		assert.Equal(t, uint16(2*i)<<8|uint16(2*i+1), v)
	}
	assert.Equal(t, 1, src.calls, "32 bytes of small reads should need one fill")

	_, err := c.Uint16()
	require.NoError(t, err)
	assert.Equal(t, 2, src.calls)
}

func TestWindowEOF(t *testing.T) {
	t.Parallel()

	w := NewWindow(bytes.NewReader([]byte("abcdef")), 16)

	p := make([]byte, 4)
	n, err := w.ReadAt(p, 4)
	assert.Equal(t, 2, n)
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, "ef", string(p[:n]))

	n, err = w.ReadAt(p, 6)
	assert.Zero(t, n)
	assert.ErrorIs(t, err, io.EOF)

	n, err = w.ReadAt(p[:2], 0)
	require.NoError(t, err)
	assert.Equal(t, "ab", string(p[:n]))

	c := NewCursor(w, 4, binary.BigEndian)
	_, err = c.Uint32()
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestWindowLargeReadBypasses(t *testing.T) {
	t.Parallel()

	data := bytes.Repeat([]byte("z"), 64)
	src := &countingReaderAt{r: bytes.NewReader(data)}
	w := NewWindow(src, 8)

	p := make([]byte, 40)
	n, err := w.ReadAt(p, 10)
	require.NoError(t, err)
	assert.Equal(t, 40, n)
	assert.Equal(t, 1, src.calls)
}

type failingReaderAt struct{ err error }

func (f failingReaderAt) ReadAt([]byte, int64) (int, error) { return 0, f.err }

func TestWindowSourceError(t *testing.T) {
	t.Parallel()

	errBoom := errors.New("boom")
	w := NewWindow(failingReaderAt{errBoom}, 0)
	_, err := w.ReadAt(make([]byte, 4), 0)
	assert.ErrorIs(t, err, errBoom)
}
