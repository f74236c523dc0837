package sstable

import "errors"

// ErrCorruptFooter is returned when a file's footer describes regions
// that don't fit the file.
var ErrCorruptFooter = errors.New("sstable: corrupt or missing footer")

// ErrIndexMismatch is returned when an index entry's key does not match
// the key actually stored at its recorded offset in the DATA region.
var ErrIndexMismatch = errors.New("sstable: index entry disagrees with file contents")
