package testutil

import (
	"bytes"
	"encoding/binary"
	"slices"
	"testing"

	"github.com/ulikunitz/xz/lzma"

	"github.com/PMArkive/zarc/internal/namehash"
	"github.com/PMArkive/zarc/internal/zarctype"
)

// TestBlock is one compression block of a test file.
type TestBlock struct {
	// Data is the uncompressed content of the block.
	Data []byte

	// Compress stores the block LZMA-compressed instead of raw.
	Compress bool

	// Stored, when non-nil, is written verbatim as the compressed payload
	// and its length is recorded in the block size table.
	Stored []byte
}

// TestFile holds data for building one archive entry.
type TestFile struct {
	// Name is hashed into FilenameHash unless Hash is set.
	Name string
	Hash uint64

	Blocks []TestBlock

	// Mutate adjusts the computed entry record before it is written.
	Mutate func(*zarctype.FileEntry)
}

// HashValue returns the filename hash the builder records for f.
func (f TestFile) HashValue() uint64 {
	if f.Hash != 0 {
		return f.Hash
	}
	return namehash.Sum(f.Name)
}

// Content returns the bytes extraction is expected to produce for f.
func (f TestFile) Content() []byte {
	out := []byte{}
	for _, b := range f.Blocks {
		out = append(out, b.Data...)
	}
	return out
}

type buildConfig struct {
	order      zarctype.ByteOrder
	alignment  uint32
	unsorted   bool
	tablePad   int
	header     func(*zarctype.Header)
	sizeHeader bool
}

// BuildOption configures BuildArchive.
type BuildOption func(*buildConfig)

// WithOrder sets the byte order of the archive (default big-endian).
func WithOrder(o zarctype.ByteOrder) BuildOption {
	return func(c *buildConfig) { c.order = o }
}

// WithAlignment sets the offset alignment (default 16).
func WithAlignment(n uint32) BuildOption {
	return func(c *buildConfig) { c.alignment = n }
}

// WithUnsorted keeps files in the given order instead of sorting by hash.
func WithUnsorted() BuildOption {
	return func(c *buildConfig) { c.unsorted = true }
}

// WithTablePadding appends n zero bytes to the block size table region.
func WithTablePadding(n int) BuildOption {
	return func(c *buildConfig) { c.tablePad = n }
}

// WithHeader adjusts the header after it is computed.
func WithHeader(fn func(*zarctype.Header)) BuildOption {
	return func(c *buildConfig) { c.header = fn }
}

// WithUnknownLZMASize leaves the LZMA length field at -1 (size unknown)
// instead of recording the uncompressed size.
func WithUnknownLZMASize() BuildOption {
	return func(c *buildConfig) { c.sizeHeader = false }
}

// BuildArchive assembles a ZARC archive from test files.
//
// Files are sorted by filename hash unless WithUnsorted is given.
func BuildArchive(tb testing.TB, files []TestFile, opts ...BuildOption) []byte {
	tb.Helper()

	cfg := buildConfig{order: zarctype.BigEndian, alignment: 16, sizeHeader: true}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.alignment == 0 {
		tb.Fatal("testutil: alignment must be > 0")
	}
	var order interface {
		binary.ByteOrder
		binary.AppendByteOrder
	} = binary.BigEndian
	if cfg.order == zarctype.LittleEndian {
		order = binary.LittleEndian
	}

	files = slices.Clone(files)
	if !cfg.unsorted {
		slices.SortStableFunc(files, func(a, b TestFile) int {
			ha, hb := a.HashValue(), b.HashValue()
			switch {
			case ha < hb:
				return -1
			case ha > hb:
				return 1
			}
			return 0
		})
	}

	// Encode payloads and block sizes first; offsets depend on the header size.
	type encoded struct {
		entry    zarctype.FileEntry
		payloads [][]byte
	}
	encodedFiles := make([]encoded, len(files))
	var blockSizes []uint16
	for i, f := range files {
		blocks := f.Blocks
		if len(blocks) == 0 {
			blocks = []TestBlock{{}}
		}
		last := blocks[len(blocks)-1]
		if len(last.Data) > 0xFFFF {
			tb.Fatalf("testutil: last block of %q is %d bytes; must fit 16 bits", f.Name, len(last.Data))
		}
		enc := encoded{entry: zarctype.FileEntry{
			FilenameHash:    f.HashValue(),
			BlockCount:      uint32(len(blocks) - 1),
			LastBlockLength: uint16(len(last.Data)),
			BlockSizeIndex:  uint32(len(blockSizes)),
		}}
		for _, b := range blocks {
			payload, compressedSize := encodeBlock(tb, b, cfg.sizeHeader)
			enc.payloads = append(enc.payloads, payload)
			blockSizes = append(blockSizes, compressedSize)
		}
		encodedFiles[i] = enc
	}

	headerSize := zarctype.HeaderFieldsSize + zarctype.RecordSize*len(files) + 2*len(blockSizes) + cfg.tablePad
	align := func(n int) int {
		a := int(cfg.alignment)
		return (n + a - 1) / a * a
	}

	var data bytes.Buffer
	pos := align(headerSize)
	for i := range encodedFiles {
		enc := &encodedFiles[i]
		enc.entry.FileOffset = uint32(pos / int(cfg.alignment))
		n := 0
		for _, p := range enc.payloads {
			data.Write(p)
			n += len(p)
		}
		padded := align(n)
		data.Write(make([]byte, padded-n))
		pos += padded
		if files[i].Mutate != nil {
			files[i].Mutate(&enc.entry)
		}
	}

	h := zarctype.Header{
		HeaderSize: uint32(headerSize),
		RecordSize: zarctype.RecordSize,
		FileCount:  uint32(len(files)),
		Alignment:  cfg.alignment,
	}
	copy(h.Magic[:], zarctype.Magic)
	if cfg.header != nil {
		cfg.header(&h)
	}

	var out bytes.Buffer
	out.Write(h.Magic[:])
	for _, v := range []uint32{h.Unknown1, h.HeaderSize, h.RecordSize, h.FileCount,
		h.Unknown2, h.Unknown3, h.Unknown4, h.Alignment, h.Unknown5} {
		out.Write(order.AppendUint32(nil, v))
	}
	for _, enc := range encodedFiles {
		e := enc.entry
		out.Write(order.AppendUint64(nil, e.FilenameHash))
		out.Write(putUint24(cfg.order, e.BlockCount))
		out.Write(order.AppendUint16(nil, e.LastBlockLength))
		out.Write(order.AppendUint16(nil, e.Unknown2))
		out.Write(order.AppendUint16(nil, e.Unknown3))
		out.Write(putUint24(cfg.order, e.BlockSizeIndex))
		out.Write(order.AppendUint32(nil, e.FileOffset))
	}
	for _, s := range blockSizes {
		out.Write(order.AppendUint16(nil, s))
	}
	out.Write(make([]byte, cfg.tablePad))
	out.Write(make([]byte, align(headerSize)-headerSize))
	out.Write(data.Bytes())
	return out.Bytes()
}

func encodeBlock(tb testing.TB, b TestBlock, sizeHeader bool) ([]byte, uint16) {
	tb.Helper()

	if b.Stored != nil {
		return b.Stored, checkedSize(tb, len(b.Stored))
	}
	if !b.Compress {
		return b.Data, 0
	}
	payload := CompressLZMA(tb, b.Data)
	if sizeHeader {
		binary.LittleEndian.PutUint64(payload[5:13], uint64(len(b.Data)))
	}
	return payload, checkedSize(tb, len(payload))
}

func checkedSize(tb testing.TB, n int) uint16 {
	tb.Helper()
	if n == 0 || n > 0xFFFF {
		tb.Fatalf("testutil: compressed block of %d bytes cannot be recorded", n)
	}
	return uint16(n)
}

// CompressLZMA encodes data as a classic LZMA stream: 5 property bytes,
// an 8-byte little-endian length (-1, unknown), then the compressed data
// terminated by an end marker.
func CompressLZMA(tb testing.TB, data []byte) []byte {
	tb.Helper()

	var buf bytes.Buffer
	w, err := lzma.NewWriter(&buf)
	if err != nil {
		tb.Fatalf("testutil: lzma writer: %v", err)
	}
	if _, err := w.Write(data); err != nil {
		tb.Fatalf("testutil: lzma write: %v", err)
	}
	if err := w.Close(); err != nil {
		tb.Fatalf("testutil: lzma close: %v", err)
	}
	return buf.Bytes()
}

// SplitBlocks cuts data into 64 KiB blocks, the last one holding the
// remainder.
func SplitBlocks(data []byte, compress bool) []TestBlock {
	var blocks []TestBlock
	for len(data) > zarctype.BlockSize {
		blocks = append(blocks, TestBlock{Data: data[:zarctype.BlockSize], Compress: compress})
		data = data[zarctype.BlockSize:]
	}
	return append(blocks, TestBlock{Data: data, Compress: compress})
}

// Pattern returns n bytes of compressible, position-dependent content.
func Pattern(n int, seed byte) []byte {
	out := make([]byte, n)
	for i := range out {
		out[i] = seed + byte(i/7) ^ byte(i%13)
	}
	return out
}

func putUint24(order zarctype.ByteOrder, v uint32) []byte {
	if order == zarctype.LittleEndian {
		return []byte{byte(v), byte(v >> 8), byte(v >> 16)}
	}
	return []byte{byte(v >> 16), byte(v >> 8), byte(v)}
}
