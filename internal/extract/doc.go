// Package extract reconstructs archive entries from their compression blocks.
//
// An entry's blocks are laid out back to back starting at
// FileOffset*Alignment. Every block is 64 KiB uncompressed except the last,
// which is LastBlockLength bytes. A block whose recorded compressed size is
// zero is stored raw; any other block is a classic LZMA stream occupying
// exactly its compressed size.
package extract
