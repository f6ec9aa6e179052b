package wire

import (
	"bytes"
	"encoding/binary"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCursorBigEndian(t *testing.T) {
	t.Parallel()

	data := []byte{
		0x01, 0x02, // uint16
		0x03, 0x04, 0x05, // uint24
		0x06, 0x07, 0x08, 0x09, // uint32
		0x0A, 0x0B, 0x0C, 0x0D, 0x0E, 0x0F, 0x10, 0x11, // uint64
	}
	c := NewCursor(bytes.NewReader(data), 0, binary.BigEndian)

	v16, err := c.Uint16()
	require.NoError(t, err)
	assert.Equal(t, uint16(0x0102), v16)

	v24, err := c.Uint24()
	require.NoError(t, err)
	assert.Equal(t, uint32(0x030405), v24)

	v32, err := c.Uint32()
	require.NoError(t, err)
	assert.Equal(t, uint32(0x06070809), v32)

	v64, err := c.Uint64()
	require.NoError(t, err)
	assert.Equal(t, uint64(0x0A0B0C0D0E0F1011), v64)

	assert.Equal(t, int64(len(data)), c.Pos())
}

func TestCursorLittleEndian(t *testing.T) {
	t.Parallel()

	data := []byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08, 0x09}
	c := NewCursor(bytes.NewReader(data), 0, binary.LittleEndian)

	v16, err := c.Uint16()
	require.NoError(t, err)
	assert.Equal(t, uint16(0x0201), v16)

	v24, err := c.Uint24()
	require.NoError(t, err)
	assert.Equal(t, uint32(0x050403), v24)

	v32, err := c.Uint32()
	require.NoError(t, err)
	assert.Equal(t, uint32(0x09080706), v32)
}

func TestCursorUint24ZeroExtends(t *testing.T) {
	t.Parallel()

	c := NewCursor(bytes.NewReader([]byte{0xFF, 0xFF, 0xFF}), 0, binary.BigEndian)
	v, err := c.Uint24()
	require.NoError(t, err)
	assert.Equal(t, uint32(0x00FFFFFF), v)
}

func TestCursorShortRead(t *testing.T) {
	t.Parallel()

	c := NewCursor(bytes.NewReader([]byte{0x01, 0x02, 0x03}), 0, binary.BigEndian)
	_, err := c.Uint32()
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)

	c = NewCursor(bytes.NewReader(nil), 0, binary.BigEndian)
	_, err = c.Uint16()
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestCursorSeekAndIndependence(t *testing.T) {
	t.Parallel()

	src := bytes.NewReader([]byte{0xAA, 0xBB, 0xCC, 0xDD})
	a := NewCursor(src, 0, binary.BigEndian)
	b := NewCursor(src, 2, binary.BigEndian)

	va, err := a.Uint16()
	require.NoError(t, err)
	vb, err := b.Uint16()
	require.NoError(t, err)
	assert.Equal(t, uint16(0xAABB), va)
	assert.Equal(t, uint16(0xCCDD), vb)

	a.Seek(1)
	p, err := a.Bytes(2)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xBB, 0xCC}, p)
	assert.Equal(t, int64(3), a.Pos())
}
