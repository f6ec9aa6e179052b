package extract

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"slices"
	"sync"

	"github.com/rs/zerolog"

	"github.com/PMArkive/zarc/internal/sizing"
	"github.com/PMArkive/zarc/internal/table"
	"github.com/PMArkive/zarc/internal/zarctype"
)

// DefaultMaxEntrySize is the default limit on the decoded size of one entry.
const DefaultMaxEntrySize = 256 << 20

// compressedPool holds scratch buffers for the stored bytes of one block.
var compressedPool = sync.Pool{
	New: func() any {
		b := make([]byte, 0xFFFF)
		return &b
	},
}

// Reader extracts entries from an archive.
//
// Reader holds no position state, so its methods are safe for concurrent use.
type Reader struct {
	source       io.ReaderAt
	table        *table.Table
	decode       Decoder
	maxEntrySize uint64
	log          zerolog.Logger
}

// Option configures a Reader.
type Option func(*Reader)

// WithMaxEntrySize limits the decoded size of a single entry.
// Zero disables the limit.
func WithMaxEntrySize(n uint64) Option {
	return func(r *Reader) {
		r.maxEntrySize = n
	}
}

// WithDecoder replaces the LZMA decoder used for compressed blocks.
func WithDecoder(d Decoder) Option {
	return func(r *Reader) {
		if d != nil {
			r.decode = d
		}
	}
}

// WithLogger sets the logger for extraction events.
func WithLogger(log zerolog.Logger) Option {
	return func(r *Reader) {
		r.log = log
	}
}

// NewReader returns a Reader over source using the parsed table.
func NewReader(source io.ReaderAt, tbl *table.Table, opts ...Option) *Reader {
	r := &Reader{
		source:       source,
		table:        tbl,
		decode:       LZMA,
		maxEntrySize: DefaultMaxEntrySize,
		log:          zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Block is the resolved location of one compression block.
type Block struct {
	// Index is the block's position within its entry.
	Index int

	// Offset is the absolute position of the block's first byte.
	Offset uint64

	// Length is the uncompressed length of the block.
	Length uint32

	// Compressed is the stored size of the block; zero means raw.
	Compressed uint16

	// Skipped marks a zero-length block. It consumes no table slot and no
	// bytes of the archive.
	Skipped bool
}

// Stored returns the number of archive bytes the block occupies.
func (b Block) Stored() uint64 {
	switch {
	case b.Skipped:
		return 0
	case b.Compressed == 0:
		return uint64(b.Length)
	default:
		return uint64(b.Compressed)
	}
}

// Plan resolves the block layout of entry i without reading payload bytes.
func (r *Reader) Plan(i int) ([]Block, error) {
	e, err := r.table.Entry(i)
	if err != nil {
		return nil, err
	}
	sizes, err := r.table.EntryBlockSizes(i)
	if err != nil {
		return nil, err
	}

	blocks := make([]Block, e.Blocks())
	p := e.Offset(r.table.Header.Alignment)
	for n := range blocks {
		b := Block{Index: n, Offset: p, Length: e.BlockLength(n)}
		if b.Length == 0 {
			b.Skipped = true
			blocks[n] = b
			continue
		}
		b.Compressed = sizes[n]
		next, ok := sizing.AddUint64(p, b.Stored())
		if !ok {
			return nil, fmt.Errorf("%w: entry %d block %d offset", zarctype.ErrSizeOverflow, i, n)
		}
		p = next
		blocks[n] = b
	}
	return blocks, nil
}

// ReadAll decodes entry i and returns its content.
//
// On failure no partial content is returned.
func (r *Reader) ReadAll(i int) ([]byte, error) {
	e, err := r.table.Entry(i)
	if err != nil {
		return nil, err
	}
	if r.maxEntrySize > 0 && e.Size() > r.maxEntrySize {
		return nil, fmt.Errorf("%w: entry %d is %d bytes, limit %d",
			zarctype.ErrSizeOverflow, i, e.Size(), r.maxEntrySize)
	}
	size, err := sizing.ToInt(e.Size(), zarctype.ErrSizeOverflow)
	if err != nil {
		return nil, err
	}
	blocks, err := r.Plan(i)
	if err != nil {
		return nil, err
	}

	out := make([]byte, 0, size)
	for _, b := range blocks {
		if b.Skipped {
			continue
		}
		out, err = r.readBlock(out, i, b)
		if err != nil {
			r.log.Debug().Err(err).Int("entry", i).Int("block", b.Index).Msg("block failed")
			return nil, err
		}
	}

	r.log.Debug().
		Int("entry", i).
		Uint64("hash", e.FilenameHash).
		Int("blocks", len(blocks)).
		Int("bytes", len(out)).
		Msg("entry extracted")
	return out, nil
}

// WriteTo decodes entry i and writes its content to w.
// Nothing is written unless every block decodes.
func (r *Reader) WriteTo(i int, w io.Writer) (int64, error) {
	data, err := r.ReadAll(i)
	if err != nil {
		return 0, err
	}
	n, err := w.Write(data)
	return int64(n), err
}

// readBlock appends the decoded content of block b of entry i to dst.
func (r *Reader) readBlock(dst []byte, i int, b Block) ([]byte, error) {
	fail := func(kind, cause error) ([]byte, error) {
		return nil, &zarctype.BlockError{Entry: i, Block: b.Index, Kind: kind, Err: cause}
	}

	off, err := sizing.ToInt64(b.Offset, zarctype.ErrSizeOverflow)
	if err != nil {
		return fail(zarctype.ErrSizeOverflow, nil)
	}

	start := len(dst)
	dst = slices.Grow(dst, int(b.Length))[:start+int(b.Length)]
	buf := dst[start:]

	if b.Compressed == 0 {
		n, err := r.source.ReadAt(buf, off)
		if n == len(buf) {
			return dst, nil
		}
		if err == nil || errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return fail(zarctype.ErrCorruptBlock, err)
	}

	bufp := compressedPool.Get().(*[]byte)
	defer compressedPool.Put(bufp)
	comp := (*bufp)[:b.Compressed]
	if n, err := r.source.ReadAt(comp, off); n < len(comp) {
		if err == nil || errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return fail(zarctype.ErrCorruptBlock, err)
	}

	r.log.Trace().
		Int("entry", i).
		Int("block", b.Index).
		Uint16("compressed", b.Compressed).
		Uint32("expected", b.Length).
		Int64("declared", declaredSize(comp)).
		Msg("decoding block")

	dec, err := r.decode(bytes.NewReader(comp))
	if err != nil {
		return fail(zarctype.ErrDecoder, err)
	}

	n, err := io.ReadFull(dec, buf)
	switch {
	case errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF):
		return fail(zarctype.ErrCorruptBlock, fmt.Errorf("decoded %d bytes, expected %d", n, b.Length))
	case err != nil:
		return fail(zarctype.ErrDecoder, err)
	}

	var extra [1]byte
	m, err := dec.Read(extra[:])
	for m == 0 && err == nil {
		m, err = dec.Read(extra[:])
	}
	if m > 0 {
		return fail(zarctype.ErrCorruptBlock, fmt.Errorf("decoded more than %d bytes", b.Length))
	}
	if !errors.Is(err, io.EOF) {
		return fail(zarctype.ErrDecoder, err)
	}
	return dst, nil
}
