// Package record defines the on-disk and in-memory representation of a
// single LSM entry.
package record

import "encoding/binary"

// Record is a single versioned key-value entry. An empty Value is a
// tombstone: it marks Key as deleted as of Timestamp.
//
// Wire layout (little-endian), used both inside an SST's DATA region and
// as the unit the MemTable holds in memory:
//
//	+------------+---------------+----------+-...-+
//	| key (8B)   | timestamp(8B) | len (8B) | value |
//	+------------+---------------+----------+-...-+
const (
	KeySize       = 8
	TimestampSize = 8
	LengthSize    = 8
	HeaderSize    = KeySize + TimestampSize + LengthSize
)

type Record struct {
	Key       uint64
	Timestamp int64
	Value     []byte
}

// Tombstone reports whether r represents a deletion marker.
func (r Record) Tombstone() bool {
	return len(r.Value) == 0
}

// Size returns the number of bytes Serialize produces for r.
func (r Record) Size() int {
	return HeaderSize + len(r.Value)
}

// Estimate returns the per-record accounting unit used by the MemTable
// byte budget and by compaction's output-slicing rule: 40 bytes of fixed
// overhead (key 8 + timestamp 8 + length 8 + index-entry 16) plus the
// value length.
func Estimate(valueLen int) int {
	return 40 + valueLen
}

// Serialize encodes r in the DATA-region wire format.
func (r Record) Serialize() []byte {
	buf := make([]byte, r.Size())
	binary.LittleEndian.PutUint64(buf[0:8], r.Key)
	binary.LittleEndian.PutUint64(buf[8:16], uint64(r.Timestamp))
	binary.LittleEndian.PutUint64(buf[16:24], uint64(len(r.Value)))
	copy(buf[24:], r.Value)
	return buf
}

// Deserialize decodes a Record previously produced by Serialize. data
// must contain at least one full record starting at offset 0; trailing
// bytes beyond the record are ignored.
func Deserialize(data []byte) (Record, error) {
	if len(data) < HeaderSize {
		return Record{}, ErrShortRecord
	}
	key := binary.LittleEndian.Uint64(data[0:8])
	ts := int64(binary.LittleEndian.Uint64(data[8:16]))
	length := binary.LittleEndian.Uint64(data[16:24])
	if uint64(len(data)-HeaderSize) < length {
		return Record{}, ErrShortRecord
	}
	var value []byte
	if length > 0 {
		value = make([]byte, length)
		copy(value, data[HeaderSize:HeaderSize+int(length)])
	}
	return Record{Key: key, Timestamp: ts, Value: value}, nil
}
