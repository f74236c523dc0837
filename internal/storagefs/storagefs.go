// Package storagefs narrows the engine's filesystem needs down to the
// handful of operations an LSM store actually uses, and provides the
// two-phase staging write every new SST goes through: write under a
// temporary name, fsync, then
// rename into place. A crash before the rename leaves only a stray
// staging file; a crash after leaves a complete one. Either way the
// final path never names a half-written file.
//
// There is no block-level cache or per-file mutex bookkeeping here: the
// engine is single-threaded, so there is nothing to lock, and read
// caching lives one layer up in internal/cache, scoped to values rather
// than raw blocks.
package storagefs

import (
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// ReaderAtCloser is what an opened, readable file offers callers that
// need random access, such as sstable.Open.
type ReaderAtCloser interface {
	io.ReaderAt
	io.Closer
}

// FS is the filesystem surface the engine depends on. OS is the
// production implementation; tests may substitute another.
type FS interface {
	Create(path string) (io.WriteCloser, error)
	Open(path string) (ReaderAtCloser, int64, error)
	Rename(oldPath, newPath string) error
	Remove(path string) error
	RemoveAll(path string) error
	MkdirAll(path string) error
	ReadDir(path string) ([]os.DirEntry, error)
}

// OS is the os-package-backed FS used outside of tests.
type OS struct{}

func (OS) Create(path string) (io.WriteCloser, error) {
	return os.Create(path)
}

func (OS) Open(path string) (ReaderAtCloser, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, 0, err
	}
	return f, info.Size(), nil
}

func (OS) Rename(oldPath, newPath string) error { return os.Rename(oldPath, newPath) }
func (OS) Remove(path string) error             { return os.Remove(path) }
func (OS) RemoveAll(path string) error          { return os.RemoveAll(path) }
func (OS) MkdirAll(path string) error           { return os.MkdirAll(path, 0o755) }
func (OS) ReadDir(path string) ([]os.DirEntry, error) {
	return os.ReadDir(path)
}

type syncer interface {
	Sync() error
}

// WriteAtomic writes the bytes produced by write into a fresh,
// uniquely-named file under stagingDir, fsyncs it if the underlying
// file supports that, and renames it to finalPath. On any failure the
// staging file is cleaned up and finalPath is left untouched.
func WriteAtomic(fs FS, stagingDir, finalPath string, write func(w io.Writer) error) error {
	if err := fs.MkdirAll(stagingDir); err != nil {
		return err
	}
	stagingPath := filepath.Join(stagingDir, uuid.NewString()+".tmp")

	wc, err := fs.Create(stagingPath)
	if err != nil {
		return err
	}

	if err := write(wc); err != nil {
		wc.Close()
		fs.Remove(stagingPath)
		return err
	}
	if s, ok := wc.(syncer); ok {
		if err := s.Sync(); err != nil {
			wc.Close()
			fs.Remove(stagingPath)
			return err
		}
	}
	if err := wc.Close(); err != nil {
		fs.Remove(stagingPath)
		return err
	}
	if err := fs.Rename(stagingPath, finalPath); err != nil {
		fs.Remove(stagingPath)
		return err
	}
	return nil
}
