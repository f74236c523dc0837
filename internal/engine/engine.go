// Package engine assembles the MemTable, the leveled catalog of SSTs,
// the read cache, and compaction into a single put/get/delete/reset
// facade. Every operation, flush and compaction included, runs on the
// calling goroutine: callers are responsible for serializing their own
// calls.
package engine

import (
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"ridgekv/internal/cache"
	"ridgekv/internal/catalog"
	"ridgekv/internal/config"
	"ridgekv/internal/memtable"
	"ridgekv/internal/obslog"
	"ridgekv/internal/ratelimit"
	"ridgekv/internal/storagefs"
)

// Store is the engine's public operation set. The CLI and the tests use
// the concrete *Engine, which implements it.
type Store interface {
	Put(key uint64, value []byte) error
	Get(key uint64) (string, error)
	Delete(key uint64) (bool, error)
	Reset() error
	Close() error
}

// Engine is the only implementation of Store. It is not safe for
// concurrent use: callers must serialize their own put/get/delete/reset
// calls. There is no locking anywhere in the package.
type Engine struct {
	cfg     *config.Config
	fs      storagefs.FS
	cat     *catalog.Catalog
	mem     *memtable.MemTable
	cache   *cache.LRU
	limiter *ratelimit.TokenBucket
	log     *zap.SugaredLogger
	now     func() int64

	nextSeq uint64
	fatal   error
}

var _ Store = (*Engine)(nil)

// Open builds an engine rooted at cfg.DataDir and recovers its catalog
// from whatever SSTs are already on disk. A nil log discards every
// message.
func Open(cfg *config.Config, fs storagefs.FS, log *zap.SugaredLogger) (*Engine, error) {
	if log == nil {
		log = obslog.Noop()
	}
	e := &Engine{
		cfg:   cfg,
		fs:    fs,
		cat:   catalog.New(cfg.DataDir),
		mem:   memtable.New(cfg.Memtable.CeilingBytes, time.Now().UnixNano()),
		cache: cache.New(cfg.Cache.Capacity),
		limiter: ratelimit.New(
			cfg.CompactionRate.Capacity,
			cfg.RefillInterval(),
			cfg.CompactionRate.RefillAmount,
		),
		log: log,
		now: func() int64 { return time.Now().Unix() },
	}
	e.cat.UseCache(e.cache)

	if err := e.recover(); err != nil {
		return nil, err
	}
	return e, nil
}

func (e *Engine) tmpDir() string { return filepath.Join(e.cfg.DataDir, "tmp") }

// allocSeq hands out the next process-lifetime creation-order stamp,
// shared by flush, compaction outputs, and recovered entries alike so
// that anything written after Open always outranks anything recovered
// from a previous run.
func (e *Engine) allocSeq() uint64 {
	v := e.nextSeq
	e.nextSeq++
	return v
}

func (e *Engine) checkFatal() error {
	if e.fatal != nil {
		return ErrClosed
	}
	return nil
}

// fail records err as the engine's permanent fatal state: once an
// invariant violation or I/O failure is observed, the engine refuses
// every further operation rather than risk compounding corrupted
// state.
func (e *Engine) fail(err error) error {
	e.fatal = err
	e.log.Errorw("engine entering fatal state", "error", err)
	return err
}

// Close flushes any buffered writes to a final SST and releases every
// open file handle. Without this, a one-shot CLI invocation — open,
// one Put, exit — would lose its write the moment the process ends,
// since nothing below the MemTable's ceiling ever reaches disk on its
// own.
func (e *Engine) Close() error {
	var flushErr error
	if err := e.checkFatal(); err == nil {
		if err := e.flush(); err != nil {
			flushErr = e.fail(err)
		}
	}
	if closeErr := e.cat.Close(); closeErr != nil && flushErr == nil {
		return closeErr
	}
	return flushErr
}
