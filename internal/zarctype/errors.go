package zarctype

import (
	"errors"
	"fmt"
)

// Sentinel errors for archive operations.
var (
	// ErrFormat is returned when the archive structure is invalid.
	ErrFormat = errors.New("zarc: invalid format")

	// ErrIndex is returned when an entry index is out of range.
	ErrIndex = errors.New("zarc: entry index out of range")

	// ErrCorruptBlock is returned when a block does not produce its expected length.
	ErrCorruptBlock = errors.New("zarc: corrupt block")

	// ErrDecoder is returned when the block decoder rejects compressed data.
	ErrDecoder = errors.New("zarc: block decoder failed")

	// ErrNotSorted is returned when entries are not ascending by filename hash.
	ErrNotSorted = errors.New("zarc: entries not sorted by filename hash")

	// ErrNotFound is returned when no entry matches a filename hash.
	ErrNotFound = errors.New("zarc: entry not found")

	// ErrSizeOverflow is returned when offsets or sizes exceed supported limits.
	ErrSizeOverflow = errors.New("zarc: size overflow")
)

// BlockError reports a failure while reconstructing one block of an entry.
//
// Kind is one of the sentinel errors; Err is the underlying cause, if any.
// errors.Is and errors.As match both.
type BlockError struct {
	Entry int
	Block int
	Kind  error
	Err   error
}

func (e *BlockError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%v: entry %d block %d", e.Kind, e.Entry, e.Block)
	}
	return fmt.Sprintf("%v: entry %d block %d: %v", e.Kind, e.Entry, e.Block, e.Err)
}

// Unwrap returns the kind and the cause.
func (e *BlockError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}
