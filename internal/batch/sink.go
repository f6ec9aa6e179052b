package batch

import "io"

// Sink receives decoded entry content during batch processing.
//
// Implementations determine where content is written and can filter which
// items to process.
type Sink interface {
	// ShouldProcess returns false if this item should be skipped,
	// for example because its destination already exists.
	ShouldProcess(item *Item) bool

	// Writer returns a writer for the item's content.
	// The caller calls Commit after the whole entry is written,
	// or Discard on any error.
	Writer(item *Item) (Committer, error)
}

// Committer is a writer that can be committed or discarded.
//
// Implementations should stage writes until Commit is called.
type Committer interface {
	io.Writer

	// Commit finalizes the write, making content available.
	Commit() error

	// Discard aborts the write and cleans up any temporary resources.
	Discard() error
}

// Stats contains statistics from a batch processing operation.
type Stats struct {
	// Processed is the number of items successfully written to the sink.
	Processed int

	// Skipped is the number of items skipped (ShouldProcess returned false).
	Skipped int

	// TotalBytes is the number of decoded bytes written.
	TotalBytes uint64
}
