// Package sstio bridges internal/sstable's codec and internal/storagefs's
// atomic write with internal/catalog's bookkeeping, so both the flush
// path and compaction seal new SSTs the same way: write to staging,
// fsync, rename into place under the file's final name, then reopen it
// for reads. It depends on nothing in internal/engine or
// internal/compaction, so both of those can depend on it without a
// cycle.
package sstio

import (
	"io"

	"ridgekv/internal/catalog"
	"ridgekv/internal/record"
	"ridgekv/internal/sstable"
	"ridgekv/internal/storagefs"
)

// Seal writes records — already sorted ascending by key — as a new SST
// at (level, id), durably, and returns the catalog entry for it opened
// for reads. seq is the entry's creation-order stamp (see catalog.Entry).
func Seal(fs storagefs.FS, cat *catalog.Catalog, stagingDir string, level int, id, seq uint64, records []record.Record) (*catalog.Entry, error) {
	if err := fs.MkdirAll(cat.LevelDir(level)); err != nil {
		return nil, err
	}
	path := cat.FilePath(level, id)

	err := storagefs.WriteAtomic(fs, stagingDir, path, func(w io.Writer) error {
		_, err := sstable.Write(w, records)
		return err
	})
	if err != nil {
		return nil, err
	}

	r, size, err := fs.Open(path)
	if err != nil {
		return nil, err
	}
	tbl, err := sstable.Open(r, size)
	if err != nil {
		r.Close()
		return nil, err
	}

	return &catalog.Entry{Level: level, ID: id, Path: path, Table: tbl, Seq: seq}, nil
}

// Delete removes an entry's backing file and closes its table. Errors
// from closing are ignored: the file is already gone from the catalog's
// point of view, and a close failure on a file we're about to forget
// about carries no useful recovery action.
func Delete(fs storagefs.FS, e *catalog.Entry) error {
	e.Table.Close()
	return fs.Remove(e.Path)
}
