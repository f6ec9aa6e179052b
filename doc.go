// Package zarc reads ZARC archives.
//
// A ZARC archive starts with a fixed header, a table of 24-byte entry
// records sorted by a 64-bit filename hash, and a table of 16-bit
// compressed block sizes. Entry content follows, split into 64 KiB blocks
// that are either stored raw or compressed with classic LZMA. Archives
// store no file names; callers look entries up by name through [HashName].
//
// # Quick Start
//
// Open an archive and extract an entry by name:
//
//	a, err := zarc.Open("data.zarc")
//	if err != nil {
//	    return err
//	}
//	defer a.Close()
//
//	content, err := a.ExtractName("data/chara/sophie.bin")
//
// Iterate over every entry:
//
//	for i, e := range a.Entries() {
//	    fmt.Printf("%d %016x %d\n", i, e.FilenameHash, e.Size())
//	}
//
// # Sources
//
// An archive can be read from any [ByteSource]: local files ([NewFileSource]),
// in-memory data ([NewBytesSource]), seekable streams
// ([NewReadSeekerSource]), or HTTP servers supporting range requests
// (package http).
//
// # Caching
//
// [WithCache] stores decoded entries in a [cache.Cache], keyed by the
// source's SourceID and the entry location. Concurrent extractions of the
// same entry share one decode.
//
// # Concurrency
//
// An Archive is safe for concurrent use. Each extraction reads at explicit
// offsets, so no read position is shared between calls.
package zarc
