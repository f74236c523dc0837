package engine

import (
	"github.com/pkg/errors"

	"ridgekv/internal/cache"
	"ridgekv/internal/catalog"
	"ridgekv/internal/memtable"
)

// Put inserts or overwrites key with value at the current wall-clock
// timestamp. An empty value is a legal input, not an error: it's
// exactly how Delete tombstones a key. If the MemTable has reached its
// configured byte ceiling, Put flushes before returning.
func (e *Engine) Put(key uint64, value []byte) error {
	if err := e.checkFatal(); err != nil {
		return err
	}
	e.mem.Put(key, e.now(), value)
	if !e.mem.Full() {
		return nil
	}
	if err := e.flush(); err != nil {
		return e.fail(err)
	}
	return nil
}

// Get returns the value stored under key, or "" if key has no live
// value — whether because it was never written or because the most
// recent write was a deletion. The MemTable is consulted first; the
// catalog's leveled walk only runs on a miss there.
func (e *Engine) Get(key uint64) (string, error) {
	if err := e.checkFatal(); err != nil {
		return "", err
	}
	v, err := e.resolve(key)
	if err != nil {
		return "", e.fail(err)
	}
	return v, nil
}

// Delete removes key's current value by writing a tombstone, and
// reports whether there was a live value to remove. A key that is
// already absent, or already tombstoned, is not an error: Delete just
// returns false, since both cases resolve to the same empty string.
func (e *Engine) Delete(key uint64) (bool, error) {
	if err := e.checkFatal(); err != nil {
		return false, err
	}
	v, err := e.resolve(key)
	if err != nil {
		return false, e.fail(err)
	}
	if v == "" {
		return false, nil
	}
	if err := e.Put(key, nil); err != nil {
		return false, err
	}
	return true, nil
}

// Reset discards the MemTable, every level's SSTs, and the staging
// directory, returning the engine to the state Open would produce
// against an empty data directory.
func (e *Engine) Reset() error {
	if err := e.checkFatal(); err != nil {
		return err
	}
	if err := e.cat.Close(); err != nil {
		return e.fail(errors.WithMessage(err, "engine: closing tables during reset"))
	}
	for level := 0; level < e.cat.LevelCount(); level++ {
		if err := e.fs.RemoveAll(e.cat.LevelDir(level)); err != nil {
			return e.fail(errors.WithMessage(err, "engine: removing level directory during reset"))
		}
	}
	if err := e.fs.RemoveAll(e.tmpDir()); err != nil {
		return e.fail(errors.WithMessage(err, "engine: clearing staging directory during reset"))
	}

	e.mem = memtable.New(e.cfg.Memtable.CeilingBytes, e.now())
	e.cache = cache.New(e.cfg.Cache.Capacity)
	e.cat = catalog.New(e.cfg.DataDir)
	e.cat.UseCache(e.cache)
	e.nextSeq = 0
	return nil
}

// resolve looks up key's current value, checking the MemTable before
// falling through to the catalog.
func (e *Engine) resolve(key uint64) (string, error) {
	if r, ok := e.mem.Get(key); ok {
		return string(r.Value), nil
	}
	r, ok, err := e.cat.Get(key)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", nil
	}
	return string(r.Value), nil
}
