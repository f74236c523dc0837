package memtable

import "ridgekv/internal/record"

// MemTable is the ordered, in-memory write buffer in front of the SST
// levels. It tracks an approximate byte budget alongside the skip list
// so the engine can decide when a flush is due without walking every
// entry.
type MemTable struct {
	list      *skipList
	byteUsage int
	ceiling   int
}

// New returns an empty MemTable that reports itself full once its
// accumulated record estimate reaches ceiling bytes.
func New(ceiling int, seed int64) *MemTable {
	return &MemTable{
		list:    newSkipList(seed),
		ceiling: ceiling,
	}
}

// Put inserts or overwrites key with value, recorded at timestamp ts.
// An empty value is stored as a tombstone, same as any other value; the
// MemTable itself does not distinguish tombstones from live entries.
func (m *MemTable) Put(key uint64, ts int64, value []byte) {
	prevLen, existed := m.list.insert(key, ts, value)
	if existed {
		m.byteUsage += record.Estimate(len(value)) - record.Estimate(prevLen)
		return
	}
	m.byteUsage += record.Estimate(len(value))
}

// Get returns the most recent record stored under key, if any.
func (m *MemTable) Get(key uint64) (record.Record, bool) {
	return m.list.lookup(key)
}

// Remove physically deletes key from the table and returns the entry
// that was removed. This is distinct from writing a tombstone: callers
// that want delete-as-of-timestamp semantics should Put an empty value
// instead.
func (m *MemTable) Remove(key uint64) (record.Record, bool) {
	r, ok := m.list.remove(key)
	if ok {
		m.byteUsage -= record.Estimate(len(r.Value))
	}
	return r, ok
}

// DrainSorted returns every record in m in ascending key order and
// resets m to empty. It is the only way the engine reads a MemTable's
// contents out to flush them to an SST.
func (m *MemTable) DrainSorted() []record.Record {
	out := m.list.drainSorted()
	m.list.reset()
	m.byteUsage = 0
	return out
}

// Len reports the number of live keys currently held.
func (m *MemTable) Len() int {
	return m.list.size
}

// ByteUsage returns the current accumulated record-size estimate.
func (m *MemTable) ByteUsage() int {
	return m.byteUsage
}

// Full reports whether m has reached its configured byte ceiling and is
// due for a flush.
func (m *MemTable) Full() bool {
	return m.byteUsage >= m.ceiling
}
