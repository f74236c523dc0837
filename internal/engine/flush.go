package engine

import (
	"github.com/pkg/errors"

	"ridgekv/internal/catalog"
	"ridgekv/internal/compaction"
	"ridgekv/internal/sstio"
)

// flush drains the MemTable into a fresh level-0 SST, then runs
// compaction inline if level 0 now exceeds its capacity. By the time
// flush returns, every compaction it triggered — including any cascade
// into deeper levels — has already completed; there is no background
// worker to wait for.
func (e *Engine) flush() error {
	records := e.mem.DrainSorted()
	if len(records) == 0 {
		return nil
	}

	id := uint64(e.cat.Count(0))
	entry, err := sstio.Seal(e.fs, e.cat, e.tmpDir(), 0, id, e.allocSeq(), records)
	if err != nil {
		return errors.WithMessage(err, "engine: flushing memtable")
	}
	e.cat.PrependL0(entry)
	e.log.Infow("flushed memtable", "records", len(records), "level0_files", e.cat.Count(0))

	if e.cat.Count(0) <= catalog.Capacity(0) {
		return nil
	}
	return compaction.Run(compaction.Params{
		Catalog:      e.cat,
		FS:           e.fs,
		StagingDir:   e.tmpDir(),
		Level:        0,
		CeilingBytes: e.cfg.Memtable.CeilingBytes,
		Limiter:      e.limiter,
		NextSeq:      e.allocSeq,
		Invalidate:   e.cache.InvalidateTable,
		Log:          e.log,
	})
}
