// Package namehash computes the 64-bit filename hash ZARC archives use as
// their lookup key.
//
// The hash runs two reflected CRC-32 style registers with different
// polynomials over the lower-cased UTF-8 name and packs both into one word.
package namehash

import (
	"math/bits"
	"strings"
)

const seed1 uint32 = 0x10215681

// seed2 is seed1 with its 16-bit halves swapped.
var seed2 = bits.RotateLeft32(seed1, 16)

// Sum returns the hash of name. Names are case-insensitive; the empty
// name hashes to 0.
func Sum(name string) uint64 {
	if name == "" {
		return 0
	}
	return SumBytes([]byte(strings.ToLower(name)))
}

// SumBytes hashes already case-folded UTF-8 bytes.
func SumBytes(b []byte) uint64 {
	if len(b) == 0 {
		return 0
	}
	h1, h2 := ^uint32(0), ^uint32(0)
	for _, c := range b {
		h1 ^= uint32(c)
		h2 ^= uint32(c)
		for range 8 {
			h1 = -(h1 & 1) & seed1 ^ h1>>1
			h2 = -(h2 & 1) & seed2 ^ h2>>1
		}
	}
	return uint64(^h1)<<32 | uint64(^h2)
}
