// Package compaction implements leveled compaction: selecting victims,
// computing the overlapping range at the next level,
// merging everything with the tie-break and tombstone-elimination
// rules, slicing the result into size-bounded outputs, and renumbering
// both the source level's survivors and the destination level so every
// level's filenames stay contiguous from 0 and first-key-ordered. It
// runs entirely on the caller's goroutine; there is no background
// worker.
package compaction

import (
	"fmt"
	"path/filepath"
	"sort"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"ridgekv/internal/catalog"
	"ridgekv/internal/obslog"
	"ridgekv/internal/ratelimit"
	"ridgekv/internal/record"
	"ridgekv/internal/sstio"
	"ridgekv/internal/storagefs"
)

// Params bundles what Run needs from the engine. NextSeq must return a
// process-wide strictly increasing sequence on every call; Invalidate
// is told about every (level, id) whose file compaction retires or
// renumbers away, so the caller's read cache can drop stale entries.
type Params struct {
	Catalog      *catalog.Catalog
	FS           storagefs.FS
	StagingDir   string
	Level        int
	CeilingBytes int
	Limiter      *ratelimit.TokenBucket
	NextSeq      func() uint64
	Invalidate   func(level int, id uint64)
	Log          *zap.SugaredLogger
}

// Run compacts level if it currently exceeds its capacity, then
// cascades into deeper levels for as long as each one it produces
// output for is itself over capacity. It returns once every level it
// touched is back within bounds.
func Run(p Params) error {
	if p.Log == nil {
		p.Log = obslog.Noop()
	}
	if p.Invalidate == nil {
		p.Invalidate = func(int, uint64) {}
	}

	for level := p.Level; ; level++ {
		if p.Catalog.Count(level) <= catalog.Capacity(level) {
			return nil
		}
		if err := compactOnce(p, level); err != nil {
			return err
		}
	}
}

func compactOnce(p Params, level int) error {
	entries := p.Catalog.Entries(level)
	victims := selectVictims(level, entries)
	if len(victims) == 0 {
		return nil
	}
	isVictim := make(map[*catalog.Entry]bool, len(victims))
	for _, v := range victims {
		isVictim[v] = true
	}

	minKey, maxKey := rangeOf(victims)
	target := level + 1

	targetEntries := p.Catalog.Entries(target)
	safeID := uint64(len(targetEntries))
	wasDeepest := target >= p.Catalog.LevelCount()-1

	var before, overlap, after []*catalog.Entry
	for _, e := range targetEntries {
		switch {
		case e.Table.Overlaps(minKey, maxKey):
			overlap = append(overlap, e)
		case e.Table.MaxKey() < minKey:
			before = append(before, e)
		default:
			after = append(after, e)
		}
	}
	insertPosition := len(before)

	sources, err := collectSources(level, target, victims, overlap)
	if err != nil {
		return err
	}

	merged := mergeSources(sources)
	if wasDeepest {
		merged = dropTombstones(merged)
	}

	outputs, err := sealOutputs(p, target, safeID, merged)
	if err != nil {
		return err
	}

	remaining := removeEntries(entries, isVictim)
	for _, v := range victims {
		p.Invalidate(v.Level, v.ID)
		if err := sstio.Delete(p.FS, v); err != nil {
			return err
		}
	}
	for _, o := range overlap {
		p.Invalidate(o.Level, o.ID)
		if err := sstio.Delete(p.FS, o); err != nil {
			return err
		}
	}

	// level 0 always loses every entry to compaction, so remaining is
	// empty there and this is a no-op. Deeper levels only give up the
	// overflow beyond capacity; whatever is left behind keeps its old
	// ids unless renumbered here too, which would otherwise leave a gap
	// that stops recovery's scan-until-missing-id walk short.
	if err := renumber(p, level, remaining); err != nil {
		return err
	}
	p.Catalog.ReplaceLevel(level, remaining)

	newTarget := make([]*catalog.Entry, 0, len(before)+len(outputs)+len(after))
	newTarget = append(newTarget, before...)
	newTarget = append(newTarget, outputs...)
	newTarget = append(newTarget, after...)

	if err := renumber(p, target, newTarget); err != nil {
		return err
	}
	p.Catalog.ReplaceLevel(target, newTarget)

	p.Log.Infow("compacted level",
		"level", level, "victims", len(victims), "overlap", len(overlap),
		"outputs", len(outputs), "insert_position", insertPosition,
		"target_level", target, "target_count", len(newTarget))
	return nil
}

// selectVictims picks the SSTs compaction will consume from level.
// Level 0's tables may overlap each other, so every one of them is
// taken at once. Deeper levels are disjoint; only the oldest tables
// beyond capacity are taken, identified by creation order (Seq) rather
// than position, since a level's slice is kept in key order, not
// arrival order.
func selectVictims(level int, entries []*catalog.Entry) []*catalog.Entry {
	if level == 0 {
		out := make([]*catalog.Entry, len(entries))
		copy(out, entries)
		return out
	}

	overflow := len(entries) - catalog.Capacity(level)
	if overflow <= 0 {
		return nil
	}
	sorted := make([]*catalog.Entry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Seq < sorted[j].Seq })
	return sorted[:overflow]
}

func rangeOf(entries []*catalog.Entry) (lo, hi uint64) {
	lo, hi = entries[0].Table.MinKey(), entries[0].Table.MaxKey()
	for _, e := range entries[1:] {
		if e.Table.MinKey() < lo {
			lo = e.Table.MinKey()
		}
		if e.Table.MaxKey() > hi {
			hi = e.Table.MaxKey()
		}
	}
	return lo, hi
}

func collectSources(level, target int, victims, overlap []*catalog.Entry) ([]*mergeSource, error) {
	sources := make([]*mergeSource, 0, len(victims)+len(overlap))
	for rank, v := range victims {
		recs, err := v.Table.All()
		if err != nil {
			return nil, err
		}
		sources = append(sources, &mergeSource{records: recs, level: level, rank: rank})
	}
	for _, o := range overlap {
		recs, err := o.Table.All()
		if err != nil {
			return nil, err
		}
		sources = append(sources, &mergeSource{records: recs, level: target, rank: 0})
	}
	return sources, nil
}

func removeEntries(entries []*catalog.Entry, remove map[*catalog.Entry]bool) []*catalog.Entry {
	out := make([]*catalog.Entry, 0, len(entries))
	for _, e := range entries {
		if !remove[e] {
			out = append(out, e)
		}
	}
	return out
}

// sealOutputs partitions merged into SSTs using the same per-record
// byte estimate the MemTable uses for its own ceiling, sealing a chunk
// every time the running total reaches it. Output ids start at safeID,
// a value guaranteed not to collide with any file currently in target's
// directory; renumber gives the whole level its final, contiguous ids
// afterward.
func sealOutputs(p Params, target int, safeID uint64, merged []record.Record) ([]*catalog.Entry, error) {
	var outputs []*catalog.Entry
	var chunk []record.Record
	size := 0

	seal := func() error {
		if len(chunk) == 0 {
			return nil
		}
		if p.Limiter != nil {
			p.Limiter.Wait()
		}
		id := safeID + uint64(len(outputs))
		e, err := sstio.Seal(p.FS, p.Catalog, p.StagingDir, target, id, p.NextSeq(), chunk)
		if err != nil {
			return err
		}
		outputs = append(outputs, e)
		chunk = nil
		size = 0
		return nil
	}

	for _, r := range merged {
		chunk = append(chunk, r)
		size += record.Estimate(len(r.Value))
		if size >= p.CeilingBytes {
			if err := seal(); err != nil {
				return nil, err
			}
		}
	}
	if err := seal(); err != nil {
		return nil, err
	}
	return outputs, nil
}

// renumber relocates every entry at target through the staging
// directory and back, so that by the time it returns ids are
// contiguous from 0 in entries' order (already first-key ascending).
// Routing every file through staging first, even ones whose id won't
// change, means no rename ever has to land on another entry's current
// name.
func renumber(p Params, target int, entries []*catalog.Entry) error {
	if len(entries) == 0 {
		return nil
	}
	if err := p.FS.MkdirAll(p.StagingDir); err != nil {
		return err
	}

	staged := make([]string, len(entries))
	for i, e := range entries {
		stagePath := filepath.Join(p.StagingDir, fmt.Sprintf("renumber-%s", uuid.NewString()))
		if err := p.FS.Rename(e.Path, stagePath); err != nil {
			return err
		}
		staged[i] = stagePath
	}

	if err := p.FS.MkdirAll(p.Catalog.LevelDir(target)); err != nil {
		return err
	}
	for i, e := range entries {
		finalPath := p.Catalog.FilePath(target, uint64(i))
		if err := p.FS.Rename(staged[i], finalPath); err != nil {
			return err
		}
		if e.ID != uint64(i) {
			p.Invalidate(e.Level, e.ID)
		}
		e.ID = uint64(i)
		e.Path = finalPath
	}
	return nil
}
