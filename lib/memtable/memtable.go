// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package memtable holds recent writes in memory, ordered by key, until
// they are flushed to a sorted string table. A memtable may be backed
// by a write-ahead log so its contents survive a crash.
package memtable

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"sync"
	"sync/atomic"

	"github.com/huandu/skiplist"

	"github.com/bureau-foundation/lsm/lib/iterator"
	"github.com/bureau-foundation/lsm/lib/wal"
)

// Memtable is a concurrent sorted map. An empty value is a tombstone.
type Memtable struct {
	id uint64

	// writeMu makes a log append and its insert one step, so the log
	// and the list agree on the order of writes to the same key.
	writeMu sync.Mutex

	// mu guards list, which is not synchronized itself.
	mu   sync.RWMutex
	list *skiplist.SkipList

	log *wal.WAL

	// approximateSize counts key and value bytes of every Put,
	// including overwrites.
	approximateSize atomic.Int64
}

// New returns an empty memtable without a log.
func New(id uint64) *Memtable {
	return &Memtable{id: id, list: skiplist.New(skiplist.Bytes)}
}

// NewWithWAL returns an empty memtable logging every Put to a new log
// at path.
func NewWithWAL(id uint64, path string, options wal.Options) (*Memtable, error) {
	log, err := wal.Create(path, options)
	if err != nil {
		return nil, err
	}
	table := New(id)
	table.log = log
	return table, nil
}

// Recover rebuilds a memtable from the log at path. The log stays
// attached so SyncWAL and Close reach it.
func Recover(id uint64, path string, options wal.Options) (*Memtable, error) {
	log, err := wal.Open(path, options)
	if err != nil {
		return nil, err
	}
	table := New(id)
	_, err = log.Replay(func(key, value []byte) error {
		table.insert(append([]byte(nil), key...), append([]byte(nil), value...))
		return nil
	})
	if err != nil {
		log.Close()
		return nil, fmt.Errorf("recovering memtable %d: %w", id, err)
	}
	table.log = log
	return table, nil
}

// ID returns the memtable id, which also names its log file.
func (m *Memtable) ID() uint64 { return m.id }

// Put logs then inserts key. The memtable keeps its own copies of key
// and value.
func (m *Memtable) Put(key, value []byte) error {
	m.writeMu.Lock()
	defer m.writeMu.Unlock()
	if m.log != nil {
		if err := m.log.Append(key, value); err != nil {
			return err
		}
	}
	m.insert(append([]byte(nil), key...), append([]byte(nil), value...))
	return nil
}

func (m *Memtable) insert(key, value []byte) {
	m.mu.Lock()
	m.list.Set(key, value)
	m.mu.Unlock()
	m.approximateSize.Add(int64(len(key) + len(value)))
}

// Get returns the value stored for key. The bool reports presence; a
// present empty value is a tombstone.
func (m *Memtable) Get(key []byte) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	found := m.list.Get(key)
	if found == nil {
		return nil, false
	}
	return found.Value.([]byte), true
}

// Scan returns an iterator over the entries within [lower, upper],
// tombstones included.
func (m *Memtable) Scan(lower, upper iterator.Bound) *Iterator {
	scan := &Iterator{table: m, upper: upper.Clone()}

	m.mu.RLock()
	var start *skiplist.Element
	switch lower.Kind {
	case iterator.KindIncluded:
		start = m.list.Find(lower.Key)
	case iterator.KindExcluded:
		start = m.list.Find(lower.Key)
		if start != nil && bytes.Equal(start.Key().([]byte), lower.Key) {
			start = start.Next()
		}
	default:
		start = m.list.Front()
	}
	scan.load(start)
	m.mu.RUnlock()
	return scan
}

// ApproximateSize returns the number of key and value bytes written.
func (m *Memtable) ApproximateSize() int64 {
	return m.approximateSize.Load()
}

// Len returns the number of distinct keys.
func (m *Memtable) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.list.Len()
}

// Empty reports whether nothing has been written.
func (m *Memtable) Empty() bool {
	return m.Len() == 0
}

// SyncWAL forces the log to stable storage.
func (m *Memtable) SyncWAL() error {
	if m.log == nil {
		return nil
	}
	return m.log.Sync()
}

// WALPath returns the log path, or "" for an unlogged memtable.
func (m *Memtable) WALPath() string {
	if m.log == nil {
		return ""
	}
	return m.log.Path()
}

// Close syncs and closes the log.
func (m *Memtable) Close() error {
	if m.log == nil {
		return nil
	}
	return m.log.Close()
}

// DiscardWAL closes and deletes the log once the contents are durable
// elsewhere.
func (m *Memtable) DiscardWAL() error {
	if m.log == nil {
		return nil
	}
	if err := m.log.Close(); err != nil {
		return err
	}
	if err := os.Remove(m.log.Path()); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing wal of memtable %d: %w", m.id, err)
	}
	return nil
}

// TableWriter receives entries in ascending key order.
type TableWriter interface {
	Add(key, value []byte)
}

// Flush adds every entry, tombstones included, to writer in key order.
func (m *Memtable) Flush(writer TableWriter) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for current := m.list.Front(); current != nil; current = current.Next() {
		writer.Add(current.Key().([]byte), current.Value.([]byte))
	}
}
