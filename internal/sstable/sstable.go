// Package sstable implements the on-disk, immutable sorted table format:
// a DATA region of ascending serialized records, an INDEX region with
// exactly one (key, offset) entry per record in the same order, and an
// 8-byte FOOTER naming where INDEX begins.
//
// The package only deals in io.Writer/io.ReaderAt; it has no opinion on
// where the bytes live. internal/storagefs and internal/engine own file
// placement and the crash-safe rename that makes a table durable.
package sstable

import (
	"encoding/binary"
	"sort"

	"io"

	"ridgekv/internal/record"
)

const (
	footerSize     = 8  // a single u64: the byte offset at which INDEX begins
	indexEntrySize = 16 // key(8) + offset(8)
)

// IndexEntry names the byte offset, within the DATA region, of the
// record for Key.
type IndexEntry struct {
	Key    uint64
	Offset uint64
}

// Summary describes a table immediately after it was written, before a
// caller has reopened it for reads.
type Summary struct {
	Count     int
	MinKey    uint64
	MaxKey    uint64
	DataSize  int64
	IndexSize int64
}

// Write serializes records — which must already be sorted ascending by
// Key, with no duplicate keys — to w as a complete SST: DATA region,
// one IndexEntry per record, then the 8-byte FOOTER.
func Write(w io.Writer, records []record.Record) (Summary, error) {
	var dataSize int64
	entries := make([]IndexEntry, len(records))
	for i, r := range records {
		entries[i] = IndexEntry{Key: r.Key, Offset: uint64(dataSize)}
		buf := r.Serialize()
		if _, err := w.Write(buf); err != nil {
			return Summary{}, err
		}
		dataSize += int64(len(buf))
	}

	idxBuf := make([]byte, indexEntrySize)
	for _, e := range entries {
		binary.LittleEndian.PutUint64(idxBuf[0:8], e.Key)
		binary.LittleEndian.PutUint64(idxBuf[8:16], e.Offset)
		if _, err := w.Write(idxBuf); err != nil {
			return Summary{}, err
		}
	}

	footer := make([]byte, footerSize)
	binary.LittleEndian.PutUint64(footer, uint64(dataSize))
	if _, err := w.Write(footer); err != nil {
		return Summary{}, err
	}

	var minKey, maxKey uint64
	if len(records) > 0 {
		minKey = records[0].Key
		maxKey = records[len(records)-1].Key
	}
	return Summary{
		Count:     len(records),
		MinKey:    minKey,
		MaxKey:    maxKey,
		DataSize:  dataSize,
		IndexSize: int64(len(entries)) * indexEntrySize,
	}, nil
}

// Table is an opened, immutable SST: its index is resident in memory,
// its DATA region is read on demand through r.
type Table struct {
	r        io.ReaderAt
	dataSize int64
	index    []IndexEntry
	minKey   uint64
	maxKey   uint64
}

// Open reads the footer and index of the size-byte table backed by r.
// r must support random access over the full size bytes.
func Open(r io.ReaderAt, size int64) (*Table, error) {
	if size < footerSize {
		return nil, ErrCorruptFooter
	}
	footer := make([]byte, footerSize)
	if _, err := r.ReadAt(footer, size-footerSize); err != nil {
		return nil, err
	}
	dataSize := int64(binary.LittleEndian.Uint64(footer))
	if dataSize < 0 || dataSize > size-footerSize {
		return nil, ErrCorruptFooter
	}
	indexSize := size - footerSize - dataSize
	if indexSize%indexEntrySize != 0 {
		return nil, ErrCorruptFooter
	}

	n := int(indexSize / indexEntrySize)
	entries := make([]IndexEntry, n)
	if n > 0 {
		buf := make([]byte, indexSize)
		if _, err := r.ReadAt(buf, dataSize); err != nil {
			return nil, err
		}
		for i := 0; i < n; i++ {
			off := i * indexEntrySize
			entries[i] = IndexEntry{
				Key:    binary.LittleEndian.Uint64(buf[off : off+8]),
				Offset: binary.LittleEndian.Uint64(buf[off+8 : off+16]),
			}
		}
	}

	var minKey, maxKey uint64
	if n > 0 {
		minKey = entries[0].Key
		maxKey = entries[n-1].Key
	}

	return &Table{r: r, dataSize: dataSize, index: entries, minKey: minKey, maxKey: maxKey}, nil
}

// Count returns the number of records in the table.
func (t *Table) Count() int { return len(t.index) }

// MinKey and MaxKey return the table's key range. Both are zero for an
// empty table.
func (t *Table) MinKey() uint64 { return t.minKey }
func (t *Table) MaxKey() uint64 { return t.maxKey }

// Overlaps reports whether t's key range intersects [lo, hi].
func (t *Table) Overlaps(lo, hi uint64) bool {
	if len(t.index) == 0 {
		return false
	}
	return t.minKey <= hi && lo <= t.maxKey
}

// Get looks up key via binary search over the dense index, then fetches
// the value directly at its recorded offset.
func (t *Table) Get(key uint64) (record.Record, bool, error) {
	if len(t.index) == 0 || key < t.minKey || key > t.maxKey {
		return record.Record{}, false, nil
	}
	i := sort.Search(len(t.index), func(i int) bool { return t.index[i].Key >= key })
	if i >= len(t.index) || t.index[i].Key != key {
		return record.Record{}, false, nil
	}
	return t.readAt(t.index[i])
}

// readAt fetches the record named by entry, verifying that the key
// stored in DATA agrees with the index. A mismatch means the sparse
// index and the file contents have diverged, an invariant violation.
func (t *Table) readAt(entry IndexEntry) (record.Record, bool, error) {
	header := make([]byte, record.HeaderSize)
	if _, err := t.r.ReadAt(header, int64(entry.Offset)); err != nil {
		return record.Record{}, false, err
	}
	key := binary.LittleEndian.Uint64(header[0:8])
	if key != entry.Key {
		return record.Record{}, false, ErrIndexMismatch
	}
	ts := int64(binary.LittleEndian.Uint64(header[8:16]))
	length := binary.LittleEndian.Uint64(header[16:24])

	var value []byte
	if length > 0 {
		value = make([]byte, length)
		if _, err := t.r.ReadAt(value, int64(entry.Offset)+record.HeaderSize); err != nil {
			return record.Record{}, false, err
		}
	}
	return record.Record{Key: key, Timestamp: ts, Value: value}, true, nil
}

// All decodes and returns every record in the table, in ascending key
// order. It is used by compaction, which must merge entire tables
// rather than look up individual keys.
func (t *Table) All() ([]record.Record, error) {
	out := make([]record.Record, 0, len(t.index))
	if t.dataSize == 0 {
		return out, nil
	}
	buf := make([]byte, t.dataSize)
	if _, err := t.r.ReadAt(buf, 0); err != nil {
		return nil, err
	}
	var offset int
	for offset < len(buf) {
		r, err := record.Deserialize(buf[offset:])
		if err != nil {
			return nil, err
		}
		out = append(out, r)
		offset += r.Size()
	}
	return out, nil
}

// Close releases the underlying reader, if it supports closing.
func (t *Table) Close() error {
	if c, ok := t.r.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
