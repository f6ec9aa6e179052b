package zarctype

const (
	// Magic is the ASCII tag at offset 0 of every archive.
	Magic = "ZARC"

	// HeaderFieldsSize is the size of the magic plus the nine 32-bit header fields.
	HeaderFieldsSize = 4 + 9*4

	// RecordSize is the on-disk size of one FileEntry record.
	RecordSize = 24

	// BlockSize is the uncompressed size of every block except an entry's last.
	BlockSize = 0x10000

	// LZMAHeaderSize is the size of the properties plus length prefix of a
	// compressed block.
	LZMAHeaderSize = 5 + 8
)

// Header is the fixed archive header.
//
// The Unknown fields are preserved verbatim; nothing depends on them.
type Header struct {
	Magic [4]byte

	Unknown1 uint32

	// HeaderSize is the absolute offset where the block-size table ends.
	HeaderSize uint32

	// RecordSize is the size of one entry record and is expected to be 24.
	RecordSize uint32

	// FileCount is the number of entry records.
	FileCount uint32

	Unknown2 uint32
	Unknown3 uint32
	Unknown4 uint32

	// Alignment scales FileEntry.FileOffset into a byte offset.
	Alignment uint32

	Unknown5 uint32
}

// FileEntry is the metadata record of one archive member.
type FileEntry struct {
	// FilenameHash is the lookup key; archives store no literal names.
	// Entries are sorted ascending by this value.
	FilenameHash uint64

	// BlockCount is the number of compression blocks minus one (24 bits on disk).
	BlockCount uint32

	// LastBlockLength is the uncompressed length of the final block.
	LastBlockLength uint16

	Unknown2 uint16
	Unknown3 uint16

	// BlockSizeIndex is where this entry's blocks start in the block-size table (24 bits on disk).
	BlockSizeIndex uint32

	// FileOffset is the entry's start in units of Header.Alignment.
	FileOffset uint32
}

// Blocks returns the number of compression blocks of the entry.
func (e FileEntry) Blocks() int {
	return int(e.BlockCount) + 1
}

// BlockLength returns the uncompressed length of block i.
func (e FileEntry) BlockLength(i int) uint32 {
	if i == int(e.BlockCount) {
		return uint32(e.LastBlockLength)
	}
	return BlockSize
}

// Offset returns the absolute byte offset of the entry's first block.
func (e FileEntry) Offset(alignment uint32) uint64 {
	return uint64(e.FileOffset) * uint64(alignment)
}

// Size returns the number of bytes extraction produces for the entry.
// A zero-length final block contributes nothing.
func (e FileEntry) Size() uint64 {
	return uint64(e.BlockCount)*BlockSize + uint64(e.LastBlockLength)
}
