// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package wal implements the write-ahead log that backs each memtable.
//
// Every record is self-checking and padded to a multiple of
// [Alignment] bytes:
//
//	| crc32 (u32) | key_len (u16) | value_len (u16) | key | value | zero padding |
//
// The crc32 (IEEE) covers key_len through value. An all-zero header
// marks the end of the log.
//
// A crash can leave a partially written record at the tail; replay
// stops at the first record that is truncated or fails its checksum and
// truncates the file there so later appends start on a clean boundary.
//
// Padding amplifies writes: a small put still writes a full 4 KiB
// block, so the log grows by at least [Alignment] bytes per record and
// is usually many times larger than the memtable it backs.
package wal

import (
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
	"math"
	"os"
	"sync"
)

// Alignment is the unit every record is padded to.
const Alignment = 4096

const headerSize = 8

// ErrEmptyKey is returned by Append for a zero-length key, which the
// record format reserves as the end marker.
var ErrEmptyKey = errors.New("wal: empty key")

// ErrTooLarge is returned by Append when a key or value does not fit
// in the u16 length fields.
var ErrTooLarge = errors.New("wal: key or value too large")

// Options controls durability of appends.
type Options struct {
	// SyncWrites makes every Append wait for the record to reach
	// stable storage.
	SyncWrites bool
}

// WAL is an append-only record log. Appends are serialized internally.
type WAL struct {
	mu      sync.Mutex
	path    string
	file    *os.File
	options Options
	size    int64
	closed  bool
}

// Create creates (or truncates) the log at path.
func Create(path string, options Options) (*WAL, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("creating wal %s: %w", path, err)
	}
	return &WAL{path: path, file: file, options: options}, nil
}

// Open opens an existing log for replay. Appends after Replay continue
// from the last intact record.
func Open(path string, options Options) (*WAL, error) {
	file, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("opening wal %s: %w", path, err)
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("stat wal %s: %w", path, err)
	}
	return &WAL{path: path, file: file, options: options, size: info.Size()}, nil
}

// Path returns the file path of the log.
func (w *WAL) Path() string { return w.path }

// Size returns the number of bytes in the log.
func (w *WAL) Size() int64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.size
}

// Append writes one record. An empty value is a tombstone and is
// recorded like any other value.
func (w *WAL) Append(key, value []byte) error {
	if len(key) == 0 {
		return ErrEmptyKey
	}
	if len(key) > math.MaxUint16 || len(value) > math.MaxUint16 {
		return ErrTooLarge
	}
	record := encodeRecord(key, value)

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return os.ErrClosed
	}
	if _, err := w.file.WriteAt(record, w.size); err != nil {
		return fmt.Errorf("appending to wal %s: %w", w.path, err)
	}
	w.size += int64(len(record))
	if w.options.SyncWrites {
		if err := datasync(w.file); err != nil {
			return fmt.Errorf("syncing wal %s: %w", w.path, err)
		}
	}
	return nil
}

// Sync forces appended records to stable storage.
func (w *WAL) Sync() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}
	if err := datasync(w.file); err != nil {
		return fmt.Errorf("syncing wal %s: %w", w.path, err)
	}
	return nil
}

// Close syncs and closes the log. Closing twice is a no-op.
func (w *WAL) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}
	w.closed = true
	syncErr := datasync(w.file)
	closeErr := w.file.Close()
	if syncErr != nil {
		return fmt.Errorf("syncing wal %s: %w", w.path, syncErr)
	}
	if closeErr != nil {
		return fmt.Errorf("closing wal %s: %w", w.path, closeErr)
	}
	return nil
}

// Replay calls fn for each intact record in order and returns how many
// records were delivered. A torn tail is not an error: replay stops
// there and the log is truncated to the last intact record. An error
// from fn aborts replay and is returned.
func (w *WAL) Replay(fn func(key, value []byte) error) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return 0, os.ErrClosed
	}

	var (
		offset int64
		count  int
		header [headerSize]byte
	)
	for offset+headerSize <= w.size {
		if _, err := w.file.ReadAt(header[:], offset); err != nil {
			return count, fmt.Errorf("reading wal %s at %d: %w", w.path, offset, err)
		}
		checksum := binary.LittleEndian.Uint32(header[0:4])
		keyLength := int(binary.LittleEndian.Uint16(header[4:6]))
		valueLength := int(binary.LittleEndian.Uint16(header[6:8]))
		if keyLength == 0 {
			break
		}

		length := recordLength(keyLength, valueLength)
		if offset+int64(length) > w.size {
			break
		}
		body := make([]byte, keyLength+valueLength)
		if _, err := w.file.ReadAt(body, offset+headerSize); err != nil && !errors.Is(err, io.EOF) {
			return count, fmt.Errorf("reading wal %s at %d: %w", w.path, offset, err)
		}
		hasher := crc32.NewIEEE()
		hasher.Write(header[4:8])
		hasher.Write(body)
		if hasher.Sum32() != checksum {
			break
		}

		if err := fn(body[:keyLength], body[keyLength:]); err != nil {
			return count, err
		}
		count++
		offset += int64(length)
	}

	if offset < w.size {
		if err := w.file.Truncate(offset); err != nil {
			return count, fmt.Errorf("truncating torn tail of wal %s: %w", w.path, err)
		}
		w.size = offset
	}
	return count, nil
}

// recordLength rounds up to [Alignment]; a record is never smaller
// than one block.
func recordLength(keyLength, valueLength int) int {
	raw := headerSize + keyLength + valueLength
	return (raw + Alignment - 1) / Alignment * Alignment
}

func encodeRecord(key, value []byte) []byte {
	record := make([]byte, recordLength(len(key), len(value)))
	binary.LittleEndian.PutUint16(record[4:6], uint16(len(key)))
	binary.LittleEndian.PutUint16(record[6:8], uint16(len(value)))
	copy(record[headerSize:], key)
	copy(record[headerSize+len(key):], value)
	checksum := crc32.ChecksumIEEE(record[4 : headerSize+len(key)+len(value)])
	binary.LittleEndian.PutUint32(record[0:4], checksum)
	return record
}
