// Package catalog tracks which SSTs exist at which level and answers
// the point-lookup walk: scan level 0 newest-first (its tables may
// overlap), then binary-search each deeper, non-overlapping level by
// key range.
package catalog

import (
	"fmt"
	"path/filepath"
	"sort"

	"ridgekv/internal/cache"
	"ridgekv/internal/record"
	"ridgekv/internal/sstable"
)

// Entry names one on-disk SST and holds its opened, in-memory sparse
// index.
type Entry struct {
	Level int
	ID    uint64
	Path  string
	Table *sstable.Table

	// Seq is a process-lifetime creation order, used only to pick victims
	// at level >= 1: "oldest" there can't mean position in Entries, which
	// is kept in key order, not arrival order. Level 0 doesn't need it —
	// its own Entries order already is newest-first.
	Seq uint64
}

// Catalog is the in-memory directory of every live SST, grouped by
// level. Level 0 is kept newest-first (last flush at index 0); every
// deeper level is kept ascending by key range, since compaction
// guarantees those ranges never overlap.
type Catalog struct {
	baseDir string
	levels  [][]*Entry
	cache   *cache.LRU
}

// UseCache wires a read-path value cache into Get: every table probed
// during a lookup is checked (and, on a miss, populated) before
// touching disk. A nil lru disables caching, the default.
func (c *Catalog) UseCache(lru *cache.LRU) { c.cache = lru }

// New returns an empty catalog rooted at baseDir. baseDir/level-N holds
// level N's SST files. The number of levels grows on demand as data
// ages deeper; there is no fixed maximum (capacity(L) = 2^(L+1) grows
// geometrically, so in practice only a handful of levels are ever
// touched).
func New(baseDir string) *Catalog {
	return &Catalog{baseDir: baseDir}
}

// Capacity returns the maximum number of SSTs level L may hold before
// compaction must run on it: 2^(L+1).
func Capacity(level int) int {
	return 1 << (level + 1)
}

// LevelDir returns the directory an SST for level belongs in.
func (c *Catalog) LevelDir(level int) string {
	return filepath.Join(c.baseDir, fmt.Sprintf("level-%d", level))
}

// BaseDir returns the catalog's root directory.
func (c *Catalog) BaseDir() string { return c.baseDir }

// FileName returns the on-disk name an SST with the given id uses within
// its level directory.
func FileName(id uint64) string {
	return fmt.Sprintf("sstable-%d", id)
}

// FilePath returns the full path of the SST identified by (level, id).
func (c *Catalog) FilePath(level int, id uint64) string {
	return filepath.Join(c.LevelDir(level), FileName(id))
}

// LevelCount returns the number of levels the catalog currently tracks,
// i.e. one more than the deepest level ever passed to PrependL0 or
// ReplaceLevel, whether or not that level holds any SST.
func (c *Catalog) LevelCount() int { return len(c.levels) }

// ensureLevel grows the tracked level slice so index level is valid.
func (c *Catalog) ensureLevel(level int) {
	for len(c.levels) <= level {
		c.levels = append(c.levels, nil)
	}
}

// Entries returns level's entries in the catalog's tracking order.
// Callers must not mutate the returned slice. A level beyond what has
// ever been populated returns nil.
func (c *Catalog) Entries(level int) []*Entry {
	if level >= len(c.levels) {
		return nil
	}
	return c.levels[level]
}

// Count returns how many SSTs level currently holds.
func (c *Catalog) Count(level int) int {
	if level >= len(c.levels) {
		return 0
	}
	return len(c.levels[level])
}

// PrependL0 records a freshly flushed table as the newest SST in level
// 0.
func (c *Catalog) PrependL0(e *Entry) {
	c.ensureLevel(0)
	c.levels[0] = append([]*Entry{e}, c.levels[0]...)
}

// ReplaceLevel swaps level's entries wholesale, used after compaction
// produces a level's new contents. entries must already be in the
// order Get expects: newest-first for level 0, ascending by key range
// for every other level.
func (c *Catalog) ReplaceLevel(level int, entries []*Entry) {
	c.ensureLevel(level)
	c.levels[level] = entries
}

// FlatIndex returns the position of the posInLevel-th entry of level in
// a single linear ordering of the whole catalog, counting every entry
// at a shallower level first. Compaction does not use it: output files
// are named by renumber.
func (c *Catalog) FlatIndex(level, posInLevel int) int {
	total := posInLevel
	for k := 0; k < level; k++ {
		total += len(c.levels[k])
	}
	return total
}

// Get walks the catalog for key: every table in level 0, newest first,
// then a binary search over each deeper level's non-overlapping
// ranges. It returns the first record found, which may be a tombstone.
func (c *Catalog) Get(key uint64) (record.Record, bool, error) {
	for _, e := range c.Entries(0) {
		r, ok, err := c.getFrom(e, key)
		if err != nil {
			return record.Record{}, false, err
		}
		if ok {
			return r, true, nil
		}
	}

	for lvl := 1; lvl < len(c.levels); lvl++ {
		entries := c.levels[lvl]
		i := sort.Search(len(entries), func(i int) bool {
			return entries[i].Table.MaxKey() >= key
		})
		if i >= len(entries) || entries[i].Table.MinKey() > key {
			continue
		}
		r, ok, err := c.getFrom(entries[i], key)
		if err != nil {
			return record.Record{}, false, err
		}
		if ok {
			return r, true, nil
		}
	}
	return record.Record{}, false, nil
}

// getFrom fetches key from e's table, consulting and then populating
// the read-path cache if one is wired in. A cache hit only carries the
// value forward, not the original timestamp: Get's only caller cares
// about the resolved value, never about ordering cached hits against
// other versions of the same key.
func (c *Catalog) getFrom(e *Entry, key uint64) (record.Record, bool, error) {
	if c.cache != nil {
		if v, ok := c.cache.Get(cache.Key{Level: e.Level, ID: e.ID, Key: key}); ok {
			return record.Record{Key: key, Value: v}, true, nil
		}
	}
	r, ok, err := e.Table.Get(key)
	if err != nil {
		return record.Record{}, false, fmt.Errorf("catalog: reading %s: %w", e.Path, err)
	}
	if ok && c.cache != nil {
		c.cache.Put(cache.Key{Level: e.Level, ID: e.ID, Key: key}, r.Value)
	}
	return r, ok, err
}

// Close closes every open table in the catalog, returning the first
// error encountered, if any.
func (c *Catalog) Close() error {
	var first error
	for _, level := range c.levels {
		for _, e := range level {
			if err := e.Table.Close(); err != nil && first == nil {
				first = err
			}
		}
	}
	return first
}
