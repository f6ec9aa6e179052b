// Package wire decodes fixed-width integers from a positioned cursor over an
// io.ReaderAt.
//
// A Cursor carries its own position, so independent cursors over the same
// source never disturb one another.
package wire

import (
	"encoding/binary"
	"errors"
	"io"
)

// Cursor reads sequentially from an io.ReaderAt starting at an explicit position.
type Cursor struct {
	src    io.ReaderAt
	pos    int64
	order  binary.ByteOrder
	little bool
	buf    [8]byte
}

// NewCursor returns a cursor over src positioned at off.
func NewCursor(src io.ReaderAt, off int64, order binary.ByteOrder) *Cursor {
	return &Cursor{
		src:    src,
		pos:    off,
		order:  order,
		little: order.Uint16([]byte{1, 0}) == 1,
	}
}

// Pos returns the absolute position of the next read.
func (c *Cursor) Pos() int64 {
	return c.pos
}

// Seek moves the cursor to an absolute position.
func (c *Cursor) Seek(off int64) {
	c.pos = off
}

// Read implements io.Reader.
func (c *Cursor) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	n, err := c.src.ReadAt(p, c.pos)
	c.pos += int64(n)
	if n == len(p) && errors.Is(err, io.EOF) {
		err = nil
	}
	return n, err
}

// Fill reads exactly len(p) bytes.
// It returns io.ErrUnexpectedEOF when the source ends early.
func (c *Cursor) Fill(p []byte) error {
	if _, err := io.ReadFull(c, p); err != nil {
		if errors.Is(err, io.EOF) {
			return io.ErrUnexpectedEOF
		}
		return err
	}
	return nil
}

// Bytes reads n bytes into a new slice.
func (c *Cursor) Bytes(n int) ([]byte, error) {
	p := make([]byte, n)
	if err := c.Fill(p); err != nil {
		return nil, err
	}
	return p, nil
}

// Uint16 reads a 16-bit unsigned integer.
func (c *Cursor) Uint16() (uint16, error) {
	if err := c.Fill(c.buf[:2]); err != nil {
		return 0, err
	}
	return c.order.Uint16(c.buf[:2]), nil
}

// Uint24 reads three bytes and combines them per the cursor's byte order.
// The result is zero-extended.
func (c *Cursor) Uint24() (uint32, error) {
	if err := c.Fill(c.buf[:3]); err != nil {
		return 0, err
	}
	b := c.buf[:3]
	if c.little {
		return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16, nil
	}
	return uint32(b[0])<<16 | uint32(b[1])<<8 | uint32(b[2]), nil
}

// Uint32 reads a 32-bit unsigned integer.
func (c *Cursor) Uint32() (uint32, error) {
	if err := c.Fill(c.buf[:4]); err != nil {
		return 0, err
	}
	return c.order.Uint32(c.buf[:4]), nil
}

// Uint64 reads a 64-bit unsigned integer.
func (c *Cursor) Uint64() (uint64, error) {
	if err := c.Fill(c.buf[:8]); err != nil {
		return 0, err
	}
	return c.order.Uint64(c.buf[:8]), nil
}
