package badger

import (
	"encoding/binary"

	"github.com/poiesic/searchit/core"
)

// Key prefixes for different data types
const (
	entryPrefix  = "txtent"
	vectorPrefix = "vecrec"
	metaPrefix   = "vecmeta"
)

// makeEntryKey generates a key for a text store entry by chunk ID.
// The ID is written in BigEndian order so lexicographic iteration visits
// entries in ascending ID order.
func makeEntryKey(id core.ID) []byte {
	prefix := entryPrefix + ":"
	buf := make([]byte, len(prefix)+8)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(id))
	return buf
}

// entryKeyID extracts the chunk ID from an entry key.
func entryKeyID(key []byte) core.ID {
	return core.ID(binary.BigEndian.Uint64(key[len(key)-8:]))
}

// MakeVectorKey generates a key for an index vector by chunk ID, BigEndian
// for ordered iteration. Exported for the flat index engine, which shares
// this backend.
func MakeVectorKey(id core.ID) []byte {
	prefix := vectorPrefix + ":"
	buf := make([]byte, len(prefix)+8)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(id))
	return buf
}

// VectorKeyID extracts the chunk ID from a vector key.
func VectorKeyID(key []byte) core.ID {
	return core.ID(binary.BigEndian.Uint64(key[len(key)-8:]))
}

// VectorKeyPrefix returns the iteration prefix for vector keys.
func VectorKeyPrefix() []byte {
	return []byte(vectorPrefix + ":")
}

// MakeMetaKey generates a key for engine metadata (dimension, counts).
func MakeMetaKey(name string) []byte {
	return []byte(metaPrefix + ":" + name)
}
