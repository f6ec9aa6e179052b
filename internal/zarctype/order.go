package zarctype

import (
	"encoding/binary"
	"fmt"
	"strings"
)

// ByteOrder selects how multi-byte fields in an archive are decoded.
//
// The same order applies to every field of the header, the entry table, and
// the block-size table. The embedded LZMA length field is always
// little-endian regardless of this setting.
type ByteOrder uint8

const (
	BigEndian ByteOrder = iota
	LittleEndian
)

// Binary returns the encoding/binary order matching o.
func (o ByteOrder) Binary() binary.ByteOrder {
	if o == LittleEndian {
		return binary.LittleEndian
	}
	return binary.BigEndian
}

// String returns the human-readable name of the byte order.
func (o ByteOrder) String() string {
	switch o {
	case BigEndian:
		return "big"
	case LittleEndian:
		return "little"
	default:
		return "unknown"
	}
}

// ParseByteOrder parses "big"/"be" or "little"/"le" (case-insensitive).
func ParseByteOrder(s string) (ByteOrder, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "big", "be", "bigendian", "big-endian":
		return BigEndian, nil
	case "little", "le", "littleendian", "little-endian":
		return LittleEndian, nil
	default:
		return BigEndian, fmt.Errorf("invalid byte order %q: must be one of: big, little", s)
	}
}
