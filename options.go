package zarc

import (
	"github.com/rs/zerolog"

	"github.com/PMArkive/zarc/cache"
)

// Option configures an Archive.
type Option func(*Archive)

// WithByteOrder sets the byte order used to read the archive.
// Archives are big-endian unless stated otherwise.
func WithByteOrder(order ByteOrder) Option {
	return func(a *Archive) {
		a.order = order
	}
}

// WithLogger sets the logger for archive operations.
// If not set, logging is disabled.
func WithLogger(log zerolog.Logger) Option {
	return func(a *Archive) {
		a.logger = log
	}
}

// WithMaxEntrySize limits the decoded size of a single entry.
// Set limit to 0 to disable the limit.
func WithMaxEntrySize(limit uint64) Option {
	return func(a *Archive) {
		a.maxEntrySize = limit
	}
}

// WithDecoder replaces the LZMA decoder used for compressed blocks.
func WithDecoder(d Decoder) Option {
	return func(a *Archive) {
		a.decoder = d
	}
}

// WithCache enables caching of decoded entries.
func WithCache(c cache.Cache) Option {
	return func(a *Archive) {
		a.cache = c
	}
}

// ExtractOption configures ExtractAll.
type ExtractOption func(*extractConfig)

type extractConfig struct {
	overwrite bool
	workers   int
	names     map[uint64]string
	progress  ProgressFunc
}

// ProgressFunc is called after each entry ExtractAll writes.
// Calls are serialized.
type ProgressFunc func(done, total int, path string)

// ExtractWithOverwrite allows overwriting existing files.
// By default, existing files are skipped.
func ExtractWithOverwrite(overwrite bool) ExtractOption {
	return func(c *extractConfig) {
		c.overwrite = overwrite
	}
}

// ExtractWithWorkers sets the number of workers for parallel extraction.
// Values < 0 force serial processing. Zero uses GOMAXPROCS.
func ExtractWithWorkers(n int) ExtractOption {
	return func(c *extractConfig) {
		c.workers = n
	}
}

// ExtractWithNames maps filename hashes to the names entries are written
// under. Entries without a name are written as their 16-digit hex hash.
func ExtractWithNames(names map[uint64]string) ExtractOption {
	return func(c *extractConfig) {
		c.names = names
	}
}

// ExtractWithProgress sets a callback invoked after each entry is written.
func ExtractWithProgress(fn ProgressFunc) ExtractOption {
	return func(c *extractConfig) {
		c.progress = fn
	}
}
