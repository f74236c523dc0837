package storagefs

import (
	"bytes"
	"errors"
	"io"
	"os"
	"sort"
	"strings"
)

// memFS is an in-memory FS used only by this package's tests, so
// WriteAtomic's staging/rename contract can be exercised without
// touching disk.
type memFS struct {
	files map[string][]byte
	dirs  map[string]bool
	// failRename, if set, makes Rename fail for this many remaining calls.
	failRename int
}

func newMemFS() *memFS {
	return &memFS{files: map[string][]byte{}, dirs: map[string]bool{}}
}

type memWriter struct {
	fs   *memFS
	path string
	buf  bytes.Buffer
}

func (w *memWriter) Write(p []byte) (int, error) { return w.buf.Write(p) }
func (w *memWriter) Close() error {
	w.fs.files[w.path] = append([]byte(nil), w.buf.Bytes()...)
	return nil
}

type memReader struct {
	data []byte
}

func (r *memReader) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 || off > int64(len(r.data)) {
		return 0, errors.New("memfs: offset out of range")
	}
	n := copy(p, r.data[off:])
	if n < len(p) {
		return n, errors.New("memfs: short read")
	}
	return n, nil
}
func (r *memReader) Close() error { return nil }

func (fs *memFS) Create(path string) (io.WriteCloser, error) {
	return &memWriter{fs: fs, path: path}, nil
}

func (fs *memFS) Open(path string) (ReaderAtCloser, int64, error) {
	data, ok := fs.files[path]
	if !ok {
		return nil, 0, os.ErrNotExist
	}
	return &memReader{data: data}, int64(len(data)), nil
}

func (fs *memFS) Rename(oldPath, newPath string) error {
	if fs.failRename > 0 {
		fs.failRename--
		return errors.New("memfs: simulated rename failure")
	}
	data, ok := fs.files[oldPath]
	if !ok {
		return os.ErrNotExist
	}
	delete(fs.files, oldPath)
	fs.files[newPath] = data
	return nil
}

func (fs *memFS) Remove(path string) error {
	if _, ok := fs.files[path]; !ok {
		return os.ErrNotExist
	}
	delete(fs.files, path)
	return nil
}

func (fs *memFS) RemoveAll(path string) error {
	prefix := path + "/"
	for p := range fs.files {
		if p == path || strings.HasPrefix(p, prefix) {
			delete(fs.files, p)
		}
	}
	for d := range fs.dirs {
		if d == path || strings.HasPrefix(d, prefix) {
			delete(fs.dirs, d)
		}
	}
	return nil
}

func (fs *memFS) MkdirAll(path string) error {
	fs.dirs[path] = true
	return nil
}

func (fs *memFS) ReadDir(path string) ([]os.DirEntry, error) {
	return nil, nil
}

func (fs *memFS) paths() []string {
	out := make([]string, 0, len(fs.files))
	for p := range fs.files {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

var _ FS = (*memFS)(nil)
