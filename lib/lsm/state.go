// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package lsm

import (
	"bytes"
	"errors"
	"slices"
	"sort"

	"github.com/bureau-foundation/lsm/lib/memtable"
	"github.com/bureau-foundation/lsm/lib/sstable"
)

// state is one immutable view of the tree. Structural changes build a
// new state and publish it; readers keep whichever state they loaded.
type state struct {
	memtable *memtable.Memtable

	// immutables are frozen memtables, newest first.
	immutables []*memtable.Memtable

	// l0 holds flushed tables, newest first. Their key ranges may
	// overlap.
	l0 []*sstable.Table

	// l1 is one sorted run: key ranges ascend and do not overlap.
	l1 []*sstable.Table
}

func (s *state) clone() *state {
	return &state{
		memtable:   s.memtable,
		immutables: slices.Clone(s.immutables),
		l0:         slices.Clone(s.l0),
		l1:         slices.Clone(s.l1),
	}
}

func (s *state) manifest(nextID uint64) *Manifest {
	manifest := &Manifest{Version: manifestVersion, NextID: nextID}
	manifest.Memtables = append(manifest.Memtables, s.memtable.ID())
	for _, frozen := range s.immutables {
		manifest.Memtables = append(manifest.Memtables, frozen.ID())
	}
	manifest.L0 = tableIDs(s.l0)
	manifest.L1 = tableIDs(s.l1)
	return manifest
}

// acquireTables takes a reader reference on every table. On failure
// it releases what it took and reports false.
func (s *state) acquireTables() bool {
	tables := slices.Concat(s.l0, s.l1)
	for i, table := range tables {
		if !table.Acquire() {
			for _, held := range tables[:i] {
				held.Release()
			}
			return false
		}
	}
	return true
}

func (s *state) releaseTables() error {
	var errs []error
	for _, table := range slices.Concat(s.l0, s.l1) {
		errs = append(errs, table.Release())
	}
	return errors.Join(errs...)
}

func tableIDs(tables []*sstable.Table) []uint64 {
	ids := make([]uint64, 0, len(tables))
	for _, table := range tables {
		ids = append(ids, table.ID())
	}
	return ids
}

// findRunTable returns the table of a sorted run whose range covers
// key, or nil.
func findRunTable(run []*sstable.Table, key []byte) *sstable.Table {
	index := sort.Search(len(run), func(i int) bool {
		return bytes.Compare(run[i].LastKey(), key) >= 0
	})
	if index == len(run) || bytes.Compare(run[index].FirstKey(), key) > 0 {
		return nil
	}
	return run[index]
}
