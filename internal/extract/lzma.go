package extract

import (
	"encoding/binary"
	"io"
	"math"

	"github.com/ulikunitz/xz/lzma"

	"github.com/PMArkive/zarc/internal/zarctype"
)

// Decoder wraps the compressed bytes of one block and returns a reader of
// the decompressed bytes. The input holds exactly the block's stored bytes
// and is only valid until the block has been decoded.
type Decoder func(r io.Reader) (io.Reader, error)

// LZMA decodes classic LZMA streams: five property bytes, an 8-byte
// little-endian uncompressed length, then the range-coded data.
func LZMA(r io.Reader) (io.Reader, error) {
	return lzma.NewReader(r)
}

// declaredSize returns the uncompressed length recorded in an LZMA header,
// or -1 if the header marks the length as unknown.
func declaredSize(hdr []byte) int64 {
	if len(hdr) < zarctype.LZMAHeaderSize {
		return -1
	}
	v := binary.LittleEndian.Uint64(hdr[5:zarctype.LZMAHeaderSize])
	if v > math.MaxInt64 {
		return -1
	}
	return int64(v)
}
