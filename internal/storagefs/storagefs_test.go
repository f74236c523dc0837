package storagefs

import (
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWriteAtomicLeavesOnlyFinalFile(t *testing.T) {
	fs := newMemFS()

	err := WriteAtomic(fs, "tmp", "level0/0001.sst", func(w io.Writer) error {
		_, err := w.Write([]byte("payload"))
		return err
	})
	require.NoError(t, err)

	require.Equal(t, []string{"level0/0001.sst"}, fs.paths())

	r, size, err := fs.Open("level0/0001.sst")
	require.NoError(t, err)
	buf := make([]byte, size)
	_, err = r.ReadAt(buf, 0)
	require.NoError(t, err)
	require.Equal(t, "payload", string(buf))
}

func TestWriteAtomicCleansUpOnWriteFailure(t *testing.T) {
	fs := newMemFS()
	writeErr := errors.New("boom")

	err := WriteAtomic(fs, "tmp", "level0/0001.sst", func(w io.Writer) error {
		return writeErr
	})
	require.ErrorIs(t, err, writeErr)
	require.Empty(t, fs.paths())
}

func TestWriteAtomicCleansUpOnRenameFailure(t *testing.T) {
	fs := newMemFS()
	fs.failRename = 1

	err := WriteAtomic(fs, "tmp", "level0/0001.sst", func(w io.Writer) error {
		_, err := w.Write([]byte("payload"))
		return err
	})
	require.Error(t, err)
	require.Empty(t, fs.paths(), "staging file must be removed after a failed rename")
}
