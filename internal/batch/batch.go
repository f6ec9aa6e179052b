// Package batch extracts many archive entries in parallel and hands each
// decoded entry to a Sink.
package batch

import (
	"context"
	"fmt"
	"io"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Item is one archive entry scheduled for extraction.
type Item struct {
	// Index is the entry's position in the archive table.
	Index int

	// Hash is the entry's filename hash.
	Hash uint64

	// Path is the slash-separated destination path relative to the sink root.
	Path string

	// Size is the decoded size of the entry.
	Size uint64
}

// Extractor decodes entries by index.
// Implementations must be safe for concurrent use.
type Extractor interface {
	Extract(i int) ([]byte, error)
}

// ProgressFunc is called after each item is written.
// Calls are serialized; done counts items written so far.
type ProgressFunc func(done, total int, item *Item)

// Processor extracts items with a bounded pool of workers.
type Processor struct {
	src      Extractor
	workers  int // 0 = GOMAXPROCS, <0 = serial, >0 = fixed count
	log      zerolog.Logger
	progress ProgressFunc
}

// ProcessorOption configures a Processor.
type ProcessorOption func(*Processor)

// WithWorkers sets the number of workers for parallel processing.
// Values < 0 force serial processing. Zero uses GOMAXPROCS.
// Values > 0 force a specific worker count.
func WithWorkers(n int) ProcessorOption {
	return func(p *Processor) {
		p.workers = n
	}
}

// WithLogger sets the logger for batch processing.
func WithLogger(log zerolog.Logger) ProcessorOption {
	return func(p *Processor) {
		p.log = log
	}
}

// WithProgress sets a callback invoked after each item is written.
func WithProgress(fn ProgressFunc) ProcessorOption {
	return func(p *Processor) {
		p.progress = fn
	}
}

// NewProcessor creates a processor that decodes entries with src.
func NewProcessor(src Extractor, opts ...ProcessorOption) *Processor {
	p := &Processor{
		src: src,
		log: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Process extracts items and writes them to sink.
//
// Items are filtered through sink.ShouldProcess first. Processing stops on
// the first error or when ctx is canceled; items already committed stay
// committed, and the item that failed is discarded.
func (p *Processor) Process(ctx context.Context, items []Item, sink Sink) (Stats, error) {
	var stats Stats
	todo := make([]*Item, 0, len(items))
	for i := range items {
		if sink.ShouldProcess(&items[i]) {
			todo = append(todo, &items[i])
		} else {
			stats.Skipped++
		}
	}
	if len(todo) == 0 {
		return stats, nil
	}

	workers := p.workerCount(len(todo))
	p.log.Debug().
		Int("items", len(todo)).
		Int("skipped", stats.Skipped).
		Int("workers", workers).
		Msg("batch processing")

	var (
		processed atomic.Int64
		written   atomic.Uint64
		mu        sync.Mutex
		done      int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, item := range todo {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			n, err := p.processItem(item, sink)
			if err != nil {
				return err
			}
			processed.Add(1)
			written.Add(n)
			if p.progress != nil {
				mu.Lock()
				done++
				p.progress(done, len(todo), item)
				mu.Unlock()
			}
			return nil
		})
	}
	err := g.Wait()
	if err == nil {
		err = ctx.Err()
	}

	stats.Processed = int(processed.Load())
	stats.TotalBytes = written.Load()
	return stats, err
}

// processItem decodes one item and commits it to the sink.
func (p *Processor) processItem(item *Item, sink Sink) (uint64, error) {
	data, err := p.src.Extract(item.Index)
	if err != nil {
		return 0, fmt.Errorf("batch: %s: %w", item.Path, err)
	}

	w, err := sink.Writer(item)
	if err != nil {
		return 0, fmt.Errorf("batch: %s: %w", item.Path, err)
	}
	if err := writeAll(w, data); err != nil {
		_ = w.Discard() //nolint:errcheck // best-effort cleanup
		return 0, fmt.Errorf("batch: %s: %w", item.Path, err)
	}
	if err := w.Commit(); err != nil {
		return 0, fmt.Errorf("batch: %s: commit: %w", item.Path, err)
	}

	p.log.Trace().Int("entry", item.Index).Str("path", item.Path).Int("bytes", len(data)).Msg("item written")
	return uint64(len(data)), nil
}

// workerCount determines the number of workers to use for n items.
func (p *Processor) workerCount(n int) int {
	if p.workers < 0 || n < 2 {
		return 1
	}
	workers := p.workers
	if workers == 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return max(1, min(workers, n))
}

// writeAll writes all data to w, handling partial writes.
func writeAll(w io.Writer, data []byte) error {
	for len(data) > 0 {
		n, err := w.Write(data)
		if err != nil {
			return err
		}
		if n == 0 {
			return io.ErrShortWrite
		}
		data = data[n:]
	}
	return nil
}
