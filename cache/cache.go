// Package cache stores decoded archive entries so repeated extractions skip
// block decoding.
//
// Entries are keyed by a digest of the archive's SourceID and the entry's
// filename hash and offset. A SourceID must change whenever the archive
// content changes; the key says nothing about the entry's content.
package cache

import (
	"fmt"

	"github.com/opencontainers/go-digest"
)

// Cache provides keyed storage for decoded entry content.
//
// Implementations should handle their own size limits and eviction policies.
// Implementations must be safe for concurrent use.
type Cache interface {
	// Get returns the cached content for key.
	// Returns nil, false if the content is not cached or cannot be read back intact.
	Get(key digest.Digest) ([]byte, bool)

	// Put stores content under key.
	// The cache must not retain content after Put returns.
	Put(key digest.Digest, content []byte) error

	// Delete removes cached content for key.
	// Implementations should treat missing entries as a no-op.
	Delete(key digest.Digest) error

	// MaxBytes returns the configured cache size limit (0 = unlimited).
	MaxBytes() int64

	// SizeBytes returns the current cache size in bytes.
	SizeBytes() int64

	// Prune removes cached entries until the cache is at or below targetBytes.
	// Returns the number of bytes freed.
	Prune(targetBytes int64) (int64, error)
}

// Key returns the cache key of the entry with the given filename hash and
// absolute offset inside the archive identified by sourceID.
func Key(sourceID string, hash, offset uint64) digest.Digest {
	return digest.FromString(fmt.Sprintf("zarc\x00%s\x00%016x\x00%d", sourceID, hash, offset))
}
