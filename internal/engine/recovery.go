package engine

import (
	"os"

	"github.com/pkg/errors"

	"ridgekv/internal/catalog"
	"ridgekv/internal/sstable"
)

// recover rebuilds the catalog from whatever SSTs already exist on
// disk: level-0, level-1, ... are walked until a missing level
// directory is found, and within each existing level sstable-0,
// sstable-1, ... are opened until a gap. The staging directory is
// removed unconditionally first, rolling back any rename a crash
// interrupted midway.
//
// Seq is not persisted, so recovered entries are stamped in the order
// this walk visits them: level 0 oldest-file-first, then level 1, and
// so on. That's only an approximation of true creation order, but it's
// a deterministic one, and it never ranks a recovered entry above
// anything written after this Open — allocSeq keeps counting up from
// wherever recovery leaves it.
func (e *Engine) recover() error {
	if err := e.fs.RemoveAll(e.tmpDir()); err != nil {
		return errors.WithMessage(err, "engine: clearing staging directory")
	}

	for level := 0; ; level++ {
		dir := e.cat.LevelDir(level)
		if _, err := e.fs.ReadDir(dir); err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return errors.WithMessagef(err, "engine: reading %s", dir)
		}

		var entries []*catalog.Entry
		for id := 0; ; id++ {
			path := e.cat.FilePath(level, uint64(id))
			r, size, err := e.fs.Open(path)
			if err != nil {
				if os.IsNotExist(err) {
					break
				}
				return errors.WithMessagef(err, "engine: opening %s", path)
			}
			tbl, err := sstable.Open(r, size)
			if err != nil {
				r.Close()
				return errors.Wrapf(ErrInvariantViolation, "%s: %v", path, err)
			}
			entries = append(entries, &catalog.Entry{
				Level: level,
				ID:    uint64(id),
				Path:  path,
				Table: tbl,
				Seq:   e.allocSeq(),
			})
		}

		// Level 0 files are named in flush order, id 0 oldest, but the
		// catalog keeps level 0 newest-first.
		if level == 0 {
			for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
				entries[i], entries[j] = entries[j], entries[i]
			}
		}
		e.cat.ReplaceLevel(level, entries)
	}
}
