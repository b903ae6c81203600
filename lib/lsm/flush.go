// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package lsm

import (
	"fmt"

	"github.com/bureau-foundation/lsm/lib/memtable"
	"github.com/bureau-foundation/lsm/lib/sstable"
	"github.com/bureau-foundation/lsm/lib/wal"
)

func (s *Storage) tableOptions() sstable.Options {
	return sstable.Options{
		BlockSize:       s.options.BlockSize,
		Compression:     s.options.Compression,
		BloomBitsPerKey: s.options.BloomBitsPerKey,
	}
}

// publish installs next after its manifest is durable. Callers hold
// structureMu.
func (s *Storage) publish(next *state) error {
	if err := writeManifest(s.dir, next.manifest(s.nextID.Load())); err != nil {
		return err
	}
	s.mu.Lock()
	s.state = next
	s.mu.Unlock()
	return nil
}

// freezeIfFull freezes target if it is still the mutable memtable and
// still over the size limit, then flushes inline while too many frozen
// memtables are waiting.
func (s *Storage) freezeIfFull(target *memtable.Memtable) error {
	s.structureMu.Lock()
	defer s.structureMu.Unlock()
	if s.closed.Load() {
		return nil
	}

	current := s.snapshot()
	if current.memtable != target || target.ApproximateSize() < int64(s.options.MemtableSize) {
		return nil
	}
	if err := s.freezeLocked(); err != nil {
		return err
	}

	for len(s.snapshot().immutables) > s.options.MaxImmutableMemtables {
		s.logger.Warn("write stall: flushing inline",
			"immutables", len(s.snapshot().immutables),
			"limit", s.options.MaxImmutableMemtables,
		)
		if _, err := s.flushOldestLocked(); err != nil {
			return err
		}
	}
	return nil
}

// ForceFreezeMemtable freezes the mutable memtable and starts a new one
// with its own log.
func (s *Storage) ForceFreezeMemtable() error {
	if s.closed.Load() {
		return ErrClosed
	}
	s.structureMu.Lock()
	defer s.structureMu.Unlock()
	return s.freezeLocked()
}

func (s *Storage) freezeLocked() error {
	id := s.nextID.Add(1) - 1
	fresh, err := memtable.NewWithWAL(id, walPath(s.dir, id), wal.Options{SyncWrites: s.options.SyncWrites})
	if err != nil {
		return fmt.Errorf("lsm: %w", err)
	}

	current := s.snapshot()
	next := current.clone()
	next.immutables = append([]*memtable.Memtable{current.memtable}, current.immutables...)
	next.memtable = fresh
	if err := s.publish(next); err != nil {
		fresh.DiscardWAL()
		return fmt.Errorf("lsm: freezing memtable %d: %w", current.memtable.ID(), err)
	}

	// publish waited out every writer holding mu, so the frozen log is
	// complete.
	if err := current.memtable.SyncWAL(); err != nil {
		s.logger.Warn("syncing frozen memtable wal", "memtable_id", current.memtable.ID(), "error", err)
	}

	s.logger.Info("memtable frozen",
		"memtable_id", current.memtable.ID(),
		"bytes", current.memtable.ApproximateSize(),
		"immutables", len(next.immutables),
		"next_memtable_id", id,
	)
	return nil
}

// ForceFlushNextImmutable flushes the oldest frozen memtable to a new
// L0 table. It does nothing when no memtable is frozen.
func (s *Storage) ForceFlushNextImmutable() error {
	if s.closed.Load() {
		return ErrClosed
	}
	s.structureMu.Lock()
	defer s.structureMu.Unlock()
	_, err := s.flushOldestLocked()
	return err
}

// Flush freezes the mutable memtable if it holds data and flushes every
// frozen memtable to L0.
func (s *Storage) Flush() error {
	if s.closed.Load() {
		return ErrClosed
	}
	s.structureMu.Lock()
	defer s.structureMu.Unlock()

	if !s.snapshot().memtable.Empty() {
		if err := s.freezeLocked(); err != nil {
			return err
		}
	}
	return s.flushAllLocked()
}

func (s *Storage) flushAllLocked() error {
	for {
		flushed, err := s.flushOldestLocked()
		if err != nil || !flushed {
			return err
		}
	}
}

// flushOldestLocked writes the oldest frozen memtable to L0 and drops
// its log. It reports whether there was a memtable to flush.
func (s *Storage) flushOldestLocked() (bool, error) {
	current := s.snapshot()
	if len(current.immutables) == 0 {
		return false, nil
	}
	oldest := current.immutables[len(current.immutables)-1]

	next := current.clone()
	next.immutables = next.immutables[:len(next.immutables)-1]

	var table *sstable.Table
	if !oldest.Empty() {
		builder := sstable.NewBuilder(s.tableOptions())
		oldest.Flush(builder)
		var err error
		table, err = builder.Build(oldest.ID(), s.blockCache, tablePath(s.dir, oldest.ID()))
		if err != nil {
			return false, fmt.Errorf("lsm: flushing memtable %d: %w", oldest.ID(), err)
		}
		next.l0 = append([]*sstable.Table{table}, current.l0...)
	}

	if err := s.publish(next); err != nil {
		if table != nil {
			table.Remove()
		}
		return false, fmt.Errorf("lsm: flushing memtable %d: %w", oldest.ID(), err)
	}

	if err := oldest.DiscardWAL(); err != nil {
		s.logger.Warn("discarding flushed wal", "memtable_id", oldest.ID(), "error", err)
	}

	if table != nil {
		s.logger.Info("memtable flushed",
			"memtable_id", oldest.ID(),
			"table_bytes", table.Size(),
			"blocks", table.NumBlocks(),
			"l0_tables", len(next.l0),
		)
	}
	return true, nil
}
