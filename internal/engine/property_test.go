package engine

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"ridgekv/internal/catalog"
)

// TestLastWriteWinsAcrossFlushes drives enough puts through a tiny
// memtable ceiling to force several flushes and at least one
// compaction, then checks every key still resolves to its most recent
// write.
func TestLastWriteWinsAcrossFlushes(t *testing.T) {
	cfg := testConfig(t)
	cfg.Memtable.CeilingBytes = 64

	e := openEngine(t, cfg)
	want := map[uint64]string{}
	for round := 0; round < 3; round++ {
		for key := uint64(0); key < 10; key++ {
			v := fmt.Sprintf("round-%d-key-%d", round, key)
			require.NoError(t, e.Put(key, []byte(v)))
			want[key] = v
		}
	}

	for key, v := range want {
		got, err := e.Get(key)
		require.NoError(t, err)
		require.Equal(t, v, got)
	}
}

// TestLevelsStayWithinCapacityUnderSustainedWrites checks the
// invariant compaction exists to maintain: after any number of
// flushes, no level holds more SSTs than catalog.Capacity allows.
func TestLevelsStayWithinCapacityUnderSustainedWrites(t *testing.T) {
	cfg := testConfig(t)
	cfg.Memtable.CeilingBytes = 48

	e := openEngine(t, cfg)
	for key := uint64(0); key < 500; key++ {
		require.NoError(t, e.Put(key, []byte("v")))
	}

	for level := 0; level < e.cat.LevelCount(); level++ {
		require.LessOrEqual(t, e.cat.Count(level), catalog.Capacity(level),
			"level %d exceeded its capacity", level)
	}
}

// TestDeleteThenOverwriteResurrectsKey confirms a tombstone is just
// another versioned record: a later Put for the same key wins once the
// tombstone has reached disk, and still wins after the compaction that
// this later Put's flush triggers merges the versions together.
func TestDeleteThenOverwriteResurrectsKey(t *testing.T) {
	cfg := testConfig(t)
	cfg.Memtable.CeilingBytes = 1

	e := openEngine(t, cfg)
	require.NoError(t, e.Put(1, []byte("v1")))
	_, err := e.Delete(1)
	require.NoError(t, err)

	v, err := e.Get(1)
	require.NoError(t, err)
	require.Empty(t, v)

	require.NoError(t, e.Put(1, []byte("v2")))
	v, err = e.Get(1)
	require.NoError(t, err)
	require.Equal(t, "v2", v)
}

// TestDeletedKeyStaysGoneUnderSustainedWrites deletes a key while its
// value is still in the MemTable, so the tombstone replaces it there
// and is the only version ever flushed, then drives enough unrelated
// writes to run compaction many times over and confirms the key stays
// gone.
func TestDeletedKeyStaysGoneUnderSustainedWrites(t *testing.T) {
	cfg := testConfig(t)
	cfg.Memtable.CeilingBytes = 48

	e := openEngine(t, cfg)
	require.NoError(t, e.Put(1, []byte("v")))
	removed, err := e.Delete(1)
	require.NoError(t, err)
	require.True(t, removed)

	for key := uint64(2); key < 300; key++ {
		require.NoError(t, e.Put(key, []byte("filler")))
	}

	v, err := e.Get(1)
	require.NoError(t, err)
	require.Empty(t, v)
}

// TestReopenAfterSustainedWritesPreservesEveryKey recovers a multi-level
// catalog from disk and checks every key, not just the ones still in
// level 0, survives the round trip through Close and Open.
func TestReopenAfterSustainedWritesPreservesEveryKey(t *testing.T) {
	cfg := testConfig(t)
	cfg.Memtable.CeilingBytes = 48

	e := openEngine(t, cfg)
	want := map[uint64]string{}
	for key := uint64(0); key < 200; key++ {
		v := fmt.Sprintf("value-%d", key)
		require.NoError(t, e.Put(key, []byte(v)))
		want[key] = v
	}
	require.NoError(t, e.Close())

	reopened := openEngine(t, cfg)
	for key, v := range want {
		got, err := reopened.Get(key)
		require.NoError(t, err)
		require.Equal(t, v, got)
	}
}
