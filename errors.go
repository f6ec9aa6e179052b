package zarc

import "github.com/PMArkive/zarc/internal/zarctype"

// Sentinel errors re-exported from internal/zarctype.
var (
	// ErrFormat is returned when the archive structure is invalid: bad magic,
	// inconsistent header sizes, or a truncated table.
	ErrFormat = zarctype.ErrFormat

	// ErrIndex is returned when an entry index is outside [0, Len()).
	ErrIndex = zarctype.ErrIndex

	// ErrCorruptBlock is returned when a block does not decode to its expected length.
	ErrCorruptBlock = zarctype.ErrCorruptBlock

	// ErrDecoder is returned when the LZMA decoder rejects a block.
	// The decoder's own error is wrapped as well.
	ErrDecoder = zarctype.ErrDecoder

	// ErrNotSorted is returned by Verify when entries are not sorted by filename hash.
	ErrNotSorted = zarctype.ErrNotSorted

	// ErrSizeOverflow is returned when an entry exceeds the configured size
	// limit or an offset does not fit the platform.
	ErrSizeOverflow = zarctype.ErrSizeOverflow

	// ErrNotFound is returned when no entry matches a name.
	ErrNotFound = zarctype.ErrNotFound
)

// BlockError reports a failure while decoding one block of an entry.
// It matches ErrCorruptBlock or ErrDecoder with errors.Is.
type BlockError = zarctype.BlockError
