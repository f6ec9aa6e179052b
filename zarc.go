package zarc

import (
	"bytes"
	"fmt"
	"io"
	"iter"
	"os"
	"slices"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/PMArkive/zarc/cache"
	"github.com/PMArkive/zarc/internal/extract"
	"github.com/PMArkive/zarc/internal/namehash"
	"github.com/PMArkive/zarc/internal/table"
	"github.com/PMArkive/zarc/internal/wire"
	"github.com/PMArkive/zarc/internal/zarctype"
)

// Re-export types from internal packages for the public API.
type (
	// Header is the fixed archive header.
	Header = zarctype.Header

	// FileEntry is the metadata record of one archive member.
	FileEntry = zarctype.FileEntry

	// ByteOrder selects how multi-byte integers are read.
	ByteOrder = zarctype.ByteOrder

	// Block is the resolved location of one compression block of an entry.
	Block = extract.Block

	// Decoder turns the stored bytes of a compressed block into a reader
	// of its decoded bytes.
	Decoder = extract.Decoder
)

// Byte orders.
const (
	BigEndian    = zarctype.BigEndian
	LittleEndian = zarctype.LittleEndian
)

// Archive format constants.
const (
	Magic      = zarctype.Magic
	RecordSize = zarctype.RecordSize
	BlockSize  = zarctype.BlockSize
)

// DefaultMaxEntrySize is the default limit on the decoded size of one entry.
const DefaultMaxEntrySize = extract.DefaultMaxEntrySize

// ParseByteOrder parses "big" or "little" (and common abbreviations).
func ParseByteOrder(s string) (ByteOrder, error) {
	return zarctype.ParseByteOrder(s)
}

// HashName returns the filename hash archives use to identify name.
// Names are compared case-insensitively; the empty name hashes to 0.
func HashName(name string) uint64 {
	return namehash.Sum(name)
}

// Archive provides read access to a parsed ZARC archive.
//
// Archive is safe for concurrent use.
type Archive struct {
	source ByteSource
	closer io.Closer
	table  *table.Table
	reader *extract.Reader
	sorted bool

	order        ByteOrder
	maxEntrySize uint64
	decoder      Decoder
	cache        cache.Cache        // nil = no caching
	group        singleflight.Group // zero value is valid
	logger       zerolog.Logger

	closeOnce sync.Once
	closeErr  error
}

// Open opens the archive file at path.
// The returned Archive owns the file; Close releases it.
func Open(path string, opts ...Option) (*Archive, error) {
	f, err := os.Open(path) //nolint:gosec // path is provided by the caller
	if err != nil {
		return nil, err
	}
	src, err := NewFileSource(f)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	a, err := New(src, opts...)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	a.closer = f
	return a, nil
}

// New parses the archive tables from source.
//
// Only the header and tables are read; entry content is read on demand.
// The caller keeps ownership of source unless it is passed via Open.
func New(source ByteSource, opts ...Option) (*Archive, error) {
	a := &Archive{
		source:       source,
		order:        BigEndian,
		maxEntrySize: DefaultMaxEntrySize,
		logger:       zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(a)
	}

	tbl, err := table.Parse(wire.NewWindow(source, wire.DefaultWindowSize), source.Size(), a.order)
	if err != nil {
		return nil, err
	}
	a.table = tbl
	a.sorted = tbl.Sorted()

	readerOpts := []extract.Option{
		extract.WithMaxEntrySize(a.maxEntrySize),
		extract.WithLogger(a.logger),
	}
	if a.decoder != nil {
		readerOpts = append(readerOpts, extract.WithDecoder(a.decoder))
	}
	a.reader = extract.NewReader(source, tbl, readerOpts...)

	a.logger.Debug().
		Str("source", source.SourceID()).
		Stringer("order", a.order).
		Uint32("files", tbl.Header.FileCount).
		Uint32("header_size", tbl.Header.HeaderSize).
		Uint32("alignment", tbl.Header.Alignment).
		Int("block_sizes", len(tbl.BlockSizes)).
		Msg("archive opened")
	if !a.sorted {
		a.logger.Warn().Str("source", source.SourceID()).Msg("entries not sorted by filename hash, lookups scan linearly")
	}
	return a, nil
}

// Close releases the underlying file if the archive was created by Open.
// Close is idempotent.
func (a *Archive) Close() error {
	a.closeOnce.Do(func() {
		if a.closer != nil {
			a.closeErr = a.closer.Close()
		}
	})
	return a.closeErr
}

// Source returns the byte source the archive reads from.
func (a *Archive) Source() ByteSource {
	return a.source
}

// Header returns the archive header.
func (a *Archive) Header() Header {
	return a.table.Header
}

// ByteOrder returns the byte order the archive was parsed with.
func (a *Archive) ByteOrder() ByteOrder {
	return a.order
}

// Len returns the number of entries.
func (a *Archive) Len() int {
	return a.table.Len()
}

// Entry returns the metadata of entry i.
func (a *Archive) Entry(i int) (FileEntry, error) {
	return a.table.Entry(i)
}

// Entries returns an iterator over entries in table order.
func (a *Archive) Entries() iter.Seq2[int, FileEntry] {
	return func(yield func(int, FileEntry) bool) {
		for i, e := range a.table.Entries {
			if !yield(i, e) {
				return
			}
		}
	}
}

// BlockSizes returns a copy of the compressed block size table.
func (a *Archive) BlockSizes() []uint16 {
	return slices.Clone(a.table.BlockSizes)
}

// Blocks returns the block layout of entry i.
func (a *Archive) Blocks(i int) ([]Block, error) {
	return a.reader.Plan(i)
}

// Lookup returns the index of the entry named name.
func (a *Archive) Lookup(name string) (int, bool) {
	return a.LookupHash(namehash.Sum(name))
}

// LookupHash returns the index of the entry with the given filename hash.
func (a *Archive) LookupHash(hash uint64) (int, bool) {
	if a.sorted {
		return a.table.Lookup(hash)
	}
	for i, e := range a.table.Entries {
		if e.FilenameHash == hash {
			return i, true
		}
	}
	return -1, false
}

// Extract decodes entry i and returns its content.
//
// On any failure no partial content is returned. Errors match ErrIndex,
// ErrFormat, ErrCorruptBlock, ErrDecoder, or ErrSizeOverflow.
func (a *Archive) Extract(i int) ([]byte, error) {
	if a.cache == nil {
		return a.reader.ReadAll(i)
	}

	e, err := a.table.Entry(i)
	if err != nil {
		return nil, err
	}
	key := cache.Key(a.source.SourceID(), e.FilenameHash, e.Offset(a.table.Header.Alignment))

	if data, ok := a.cache.Get(key); ok {
		if uint64(len(data)) == e.Size() {
			a.logger.Debug().Int("entry", i).Msg("entry cache hit")
			return data, nil
		}
		_ = a.cache.Delete(key) //nolint:errcheck // best-effort removal of a stale entry
	}
	a.logger.Debug().Int("entry", i).Msg("entry cache miss")

	result, err, shared := a.group.Do(key.String(), func() (any, error) {
		data, err := a.reader.ReadAll(i)
		if err != nil {
			return nil, err
		}
		if err := a.cache.Put(key, data); err != nil {
			a.logger.Warn().Err(err).Int("entry", i).Msg("cache put failed")
		}
		return data, nil
	})
	if err != nil {
		return nil, err
	}
	data := result.([]byte) //nolint:errcheck // type assertion always succeeds when err is nil
	if shared {
		data = bytes.Clone(data)
	}
	return data, nil
}

// ExtractTo decodes entry i and writes its content to w.
// Nothing is written unless the whole entry decodes.
func (a *Archive) ExtractTo(i int, w io.Writer) (int64, error) {
	data, err := a.Extract(i)
	if err != nil {
		return 0, err
	}
	n, err := w.Write(data)
	return int64(n), err
}

// ExtractName decodes the entry named name.
func (a *Archive) ExtractName(name string) ([]byte, error) {
	i, ok := a.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q (hash %016x)", ErrNotFound, name, namehash.Sum(name))
	}
	data, err := a.Extract(i)
	if err != nil {
		return nil, fmt.Errorf("extract %q: %w", name, err)
	}
	return data, nil
}

// Check validates the tables without decoding any entry: every entry's
// block range lies inside the block size table, the table holds exactly one
// slot per block, and entries are sorted by filename hash.
func (a *Archive) Check() error {
	return a.table.Check()
}
