// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sstable

import (
	"fmt"
	"os"

	"github.com/bureau-foundation/lsm/lib/fileutil"
)

// FileObject is a read-only table file.
type FileObject struct {
	path string
	file *os.File
	size int64
}

// CreateFile durably writes data to path and opens it for reading.
func CreateFile(path string, data []byte) (*FileObject, error) {
	if err := fileutil.WriteAtomic(path, data); err != nil {
		return nil, err
	}
	return OpenFile(path)
}

// OpenFile opens an existing table file.
func OpenFile(path string) (*FileObject, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening table file: %w", err)
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("stat table file %s: %w", path, err)
	}
	return &FileObject{path: path, file: file, size: info.Size()}, nil
}

// ReadAt reads length bytes at offset. Short reads are errors.
func (f *FileObject) ReadAt(offset, length int64) ([]byte, error) {
	if offset < 0 || length < 0 || offset+length > f.size {
		return nil, fmt.Errorf("%w: read of %d bytes at %d beyond %s (%d bytes)", ErrCorrupt, length, offset, f.path, f.size)
	}
	buffer := make([]byte, length)
	if _, err := f.file.ReadAt(buffer, offset); err != nil {
		return nil, fmt.Errorf("reading %s at %d: %w", f.path, offset, err)
	}
	return buffer, nil
}

// Size returns the file size in bytes.
func (f *FileObject) Size() int64 { return f.size }

// Path returns the file path.
func (f *FileObject) Path() string { return f.path }

// Close closes the file handle.
func (f *FileObject) Close() error { return f.file.Close() }
