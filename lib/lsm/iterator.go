// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package lsm

import (
	"fmt"

	"github.com/bureau-foundation/lsm/lib/iterator"
	"github.com/bureau-foundation/lsm/lib/sstable"
)

// Iterator walks live keys in ascending order. It reads from the view
// of the tree current when Scan was called; later writes may or may
// not be visible. Once Next fails the iterator stays invalid and Err
// reports the failure. Close releases the tables the view holds open.
type Iterator struct {
	fused   *iterator.FusedIterator
	storage *Storage
	view    *state
}

func (it *Iterator) Key() []byte { return it.fused.Key() }

func (it *Iterator) Value() []byte { return it.fused.Value() }

func (it *Iterator) Valid() bool { return it.fused.Valid() }

func (it *Iterator) Next() error { return it.fused.Next() }

// Err returns the error that stopped the iterator, if any.
func (it *Iterator) Err() error { return it.fused.Err() }

// Close releases the iterator's tables. Tables a compaction retired
// while the iterator was open are closed here. Later calls do nothing.
func (it *Iterator) Close() {
	if it.view == nil {
		return
	}
	it.storage.release(it.view)
	it.view = nil
}

// liveIterator hides tombstones.
type liveIterator struct {
	inner iterator.Iterator
}

func newLiveIterator(inner iterator.Iterator) (*liveIterator, error) {
	live := &liveIterator{inner: inner}
	if err := live.skipTombstones(); err != nil {
		return nil, err
	}
	return live, nil
}

func (l *liveIterator) skipTombstones() error {
	for l.inner.Valid() && len(l.inner.Value()) == 0 {
		if err := l.inner.Next(); err != nil {
			return err
		}
	}
	return nil
}

func (l *liveIterator) Key() []byte { return l.inner.Key() }

func (l *liveIterator) Value() []byte { return l.inner.Value() }

func (l *liveIterator) Valid() bool { return l.inner.Valid() }

func (l *liveIterator) Next() error {
	if err := l.inner.Next(); err != nil {
		return err
	}
	return l.skipTombstones()
}

// Scan returns an iterator over the live keys within [lower, upper].
func (s *Storage) Scan(lower, upper iterator.Bound) (scan *Iterator, err error) {
	current, err := s.acquire()
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			s.release(current)
		}
	}()

	memtables := make([]iterator.Iterator, 0, 1+len(current.immutables))
	memtables = append(memtables, current.memtable.Scan(lower, upper))
	for _, frozen := range current.immutables {
		memtables = append(memtables, frozen.Scan(lower, upper))
	}

	l0 := make([]iterator.Iterator, 0, len(current.l0))
	for _, table := range current.l0 {
		if !overlaps(table, lower, upper) {
			continue
		}
		it, err := sstable.NewRangeIterator(table, lower, upper)
		if err != nil {
			return nil, fmt.Errorf("lsm: scanning table %d: %w", table.ID(), err)
		}
		l0 = append(l0, it)
	}

	l1, err := sstable.NewConcatIterator(current.l1, lower, upper)
	if err != nil {
		return nil, fmt.Errorf("lsm: scanning L1: %w", err)
	}

	upperLevels, err := iterator.NewTwoMergeIterator(iterator.NewMergeIterator(memtables), iterator.NewMergeIterator(l0))
	if err != nil {
		return nil, fmt.Errorf("lsm: scanning: %w", err)
	}
	merged, err := iterator.NewTwoMergeIterator(upperLevels, l1)
	if err != nil {
		return nil, fmt.Errorf("lsm: scanning: %w", err)
	}
	live, err := newLiveIterator(merged)
	if err != nil {
		return nil, fmt.Errorf("lsm: scanning: %w", err)
	}
	return &Iterator{fused: iterator.NewFusedIterator(live), storage: s, view: current}, nil
}

// overlaps reports whether table may hold keys within [lower, upper].
func overlaps(table *sstable.Table, lower, upper iterator.Bound) bool {
	if lower.Kind != iterator.KindUnbounded && !iterator.AboveLower(lower, table.LastKey()) {
		return false
	}
	if upper.Kind != iterator.KindUnbounded && !iterator.BelowUpper(upper, table.FirstKey()) {
		return false
	}
	return true
}
