package engine

import "github.com/pkg/errors"

var (
	// ErrInvariantViolation marks a fatal, unrecoverable inconsistency
	// spotted in durable state. It wraps only the failure to open an SST
	// during recovery, such as a footer naming a region outside the
	// file. An index entry disagreeing with the bytes at its offset
	// (sstable.ErrIndexMismatch) or a truncated record read during a
	// merge (record.ErrShortRecord) is returned as that error instead,
	// not wrapped in this one; both are still fatal to the engine.
	ErrInvariantViolation = errors.New("engine: invariant violation")

	// ErrClosed is returned by every operation once a previous one has
	// failed fatally. The engine never serves another request after
	// that point; a fresh Open against the same data directory is the
	// only way forward.
	ErrClosed = errors.New("engine: unusable after a previous fatal error")
)
