package table

import (
	"fmt"
	"io"
	"sort"

	"github.com/PMArkive/zarc/internal/wire"
	"github.com/PMArkive/zarc/internal/zarctype"
)

// Re-export types from zarctype to keep signatures short.
type (
	Header    = zarctype.Header
	FileEntry = zarctype.FileEntry
	ByteOrder = zarctype.ByteOrder
)

// Table is the parsed, immutable metadata of an archive.
type Table struct {
	Header     Header
	Entries    []FileEntry
	BlockSizes []uint16
	Order      ByteOrder

	end int64
}

// Parse reads the header and tables from src.
//
// size is the total size of src, or -1 if unknown. Parse reads nothing
// beyond Header.HeaderSize; entry payloads are left for extraction.
func Parse(src io.ReaderAt, size int64, order ByteOrder) (*Table, error) {
	c := wire.NewCursor(src, 0, order.Binary())

	magic, err := c.Bytes(len(zarctype.Magic))
	if err != nil {
		return nil, fmt.Errorf("%w: reading magic: %w", zarctype.ErrFormat, err)
	}
	if string(magic) != zarctype.Magic {
		return nil, fmt.Errorf("%w: bad magic %q", zarctype.ErrFormat, magic)
	}

	t := &Table{Order: order}
	copy(t.Header.Magic[:], magic)
	if err := readHeader(c, &t.Header); err != nil {
		return nil, fmt.Errorf("%w: reading header: %w", zarctype.ErrFormat, err)
	}
	if err := validateHeader(&t.Header, size); err != nil {
		return nil, err
	}

	t.Entries = make([]FileEntry, t.Header.FileCount)
	for i := range t.Entries {
		if err := readEntry(c, &t.Entries[i]); err != nil {
			return nil, fmt.Errorf("%w: reading entry %d: %w", zarctype.ErrFormat, i, err)
		}
	}

	remaining := int64(t.Header.HeaderSize) - c.Pos()
	if remaining%2 != 0 {
		return nil, fmt.Errorf("%w: block size table ends on odd byte (%d bytes before header end)",
			zarctype.ErrFormat, remaining)
	}
	t.BlockSizes = make([]uint16, 0, remaining/2)
	for c.Pos() < int64(t.Header.HeaderSize) {
		v, err := c.Uint16()
		if err != nil {
			return nil, fmt.Errorf("%w: reading block size %d: %w", zarctype.ErrFormat, len(t.BlockSizes), err)
		}
		t.BlockSizes = append(t.BlockSizes, v)
	}
	t.end = c.Pos()

	return t, nil
}

func readHeader(c *wire.Cursor, h *Header) error {
	fields := []*uint32{
		&h.Unknown1,
		&h.HeaderSize,
		&h.RecordSize,
		&h.FileCount,
		&h.Unknown2,
		&h.Unknown3,
		&h.Unknown4,
		&h.Alignment,
		&h.Unknown5,
	}
	for _, f := range fields {
		v, err := c.Uint32()
		if err != nil {
			return err
		}
		*f = v
	}
	return nil
}

func validateHeader(h *Header, size int64) error {
	if h.RecordSize != zarctype.RecordSize {
		return fmt.Errorf("%w: record size %d, expected %d", zarctype.ErrFormat, h.RecordSize, zarctype.RecordSize)
	}
	tableEnd := uint64(zarctype.HeaderFieldsSize) + uint64(h.FileCount)*zarctype.RecordSize
	if uint64(h.HeaderSize) < tableEnd {
		return fmt.Errorf("%w: header size %d smaller than entry table end %d", zarctype.ErrFormat, h.HeaderSize, tableEnd)
	}
	if size >= 0 && int64(h.HeaderSize) > size {
		return fmt.Errorf("%w: header size %d exceeds archive size %d", zarctype.ErrFormat, h.HeaderSize, size)
	}
	return nil
}

func readEntry(c *wire.Cursor, e *FileEntry) (err error) {
	if e.FilenameHash, err = c.Uint64(); err != nil {
		return err
	}
	if e.BlockCount, err = c.Uint24(); err != nil {
		return err
	}
	if e.LastBlockLength, err = c.Uint16(); err != nil {
		return err
	}
	if e.Unknown2, err = c.Uint16(); err != nil {
		return err
	}
	if e.Unknown3, err = c.Uint16(); err != nil {
		return err
	}
	if e.BlockSizeIndex, err = c.Uint24(); err != nil {
		return err
	}
	e.FileOffset, err = c.Uint32()
	return err
}

// End returns the position the parser stopped at, which equals Header.HeaderSize.
func (t *Table) End() int64 {
	return t.end
}

// Len returns the number of entries.
func (t *Table) Len() int {
	return len(t.Entries)
}

// Entry returns the entry at index i.
func (t *Table) Entry(i int) (FileEntry, error) {
	if i < 0 || i >= len(t.Entries) {
		return FileEntry{}, fmt.Errorf("%w: %d not in [0, %d)", zarctype.ErrIndex, i, len(t.Entries))
	}
	return t.Entries[i], nil
}

// EntryBlockSizes returns the slice of the block-size table owned by entry i.
// The returned slice aliases the table and must be treated as read-only.
func (t *Table) EntryBlockSizes(i int) ([]uint16, error) {
	e, err := t.Entry(i)
	if err != nil {
		return nil, err
	}
	start := uint64(e.BlockSizeIndex)
	end := start + uint64(e.Blocks())
	if end > uint64(len(t.BlockSizes)) {
		return nil, fmt.Errorf("%w: entry %d blocks [%d, %d) exceed block size table of %d",
			zarctype.ErrFormat, i, start, end, len(t.BlockSizes))
	}
	return t.BlockSizes[start:end], nil
}

// Lookup returns the index of the entry with the given filename hash.
// It relies on entries being sorted ascending by hash.
func (t *Table) Lookup(hash uint64) (int, bool) {
	i := sort.Search(len(t.Entries), func(i int) bool {
		return t.Entries[i].FilenameHash >= hash
	})
	if i < len(t.Entries) && t.Entries[i].FilenameHash == hash {
		return i, true
	}
	return -1, false
}

// Sorted reports whether entries are in ascending hash order.
func (t *Table) Sorted() bool {
	return sort.SliceIsSorted(t.Entries, func(i, j int) bool {
		return t.Entries[i].FilenameHash < t.Entries[j].FilenameHash
	})
}

// CheckCoverage verifies that the block-size table holds exactly one slot
// per block of every entry.
func (t *Table) CheckCoverage() error {
	var total uint64
	for _, e := range t.Entries {
		total += uint64(e.Blocks())
	}
	if total != uint64(len(t.BlockSizes)) {
		return fmt.Errorf("%w: entries declare %d blocks, block size table has %d",
			zarctype.ErrFormat, total, len(t.BlockSizes))
	}
	return nil
}

// Check runs every structural check: coverage, per-entry block ranges, and
// hash ordering.
func (t *Table) Check() error {
	if err := t.CheckCoverage(); err != nil {
		return err
	}
	for i := range t.Entries {
		if _, err := t.EntryBlockSizes(i); err != nil {
			return err
		}
	}
	if !t.Sorted() {
		return zarctype.ErrNotSorted
	}
	return nil
}
