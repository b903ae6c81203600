// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package lsm

import (
	"fmt"
	"slices"

	"github.com/bureau-foundation/lsm/lib/iterator"
	"github.com/bureau-foundation/lsm/lib/sstable"
)

// Compact merges every L0 table with L1 into a new L1 run. Shadowed
// versions and tombstones are dropped: L1 is the bottom of the tree,
// so nothing older remains for a tombstone to hide.
func (s *Storage) Compact() error {
	if s.closed.Load() {
		return ErrClosed
	}
	s.compactMu.Lock()
	defer s.compactMu.Unlock()

	inputs := s.snapshot()
	if len(inputs.l0) == 0 {
		return nil
	}

	outputs, err := s.mergeTables(inputs.l0, inputs.l1)
	if err != nil {
		removeTables(outputs)
		return fmt.Errorf("lsm: compacting: %w", err)
	}

	compacted := make(map[uint64]bool, len(inputs.l0))
	for _, table := range inputs.l0 {
		compacted[table.ID()] = true
	}

	s.structureMu.Lock()
	latest := s.snapshot()
	next := latest.clone()
	next.l0 = next.l0[:0]
	for _, table := range latest.l0 {
		if !compacted[table.ID()] {
			next.l0 = append(next.l0, table)
		}
	}
	next.l1 = outputs
	err = s.publish(next)
	s.structureMu.Unlock()
	if err != nil {
		removeTables(outputs)
		return fmt.Errorf("lsm: installing compaction: %w", err)
	}

	var inputBytes, outputBytes int64
	for _, table := range inputs.l0 {
		inputBytes += table.Size()
	}
	for _, table := range inputs.l1 {
		inputBytes += table.Size()
	}
	for _, table := range outputs {
		outputBytes += table.Size()
	}
	for _, table := range slices.Concat(inputs.l0, inputs.l1) {
		if err := table.Remove(); err != nil {
			s.logger.Warn("removing compacted table", "table_id", table.ID(), "error", err)
		}
	}

	s.logger.Info("compaction finished",
		"l0_inputs", len(inputs.l0),
		"l1_inputs", len(inputs.l1),
		"outputs", len(outputs),
		"input_bytes", inputBytes,
		"output_bytes", outputBytes,
	)
	return nil
}

// mergeTables writes the live entries of l0 (newest first) over l1 as
// a new sorted run split at the target table size.
func (s *Storage) mergeTables(l0, l1 []*sstable.Table) ([]*sstable.Table, error) {
	l0Iterators := make([]iterator.Iterator, 0, len(l0))
	for _, table := range l0 {
		it, err := sstable.NewIteratorAtFirst(table)
		if err != nil {
			return nil, err
		}
		l0Iterators = append(l0Iterators, it)
	}
	run, err := sstable.NewConcatIterator(l1, iterator.Unbounded(), iterator.Unbounded())
	if err != nil {
		return nil, err
	}
	merged, err := iterator.NewTwoMergeIterator(iterator.NewMergeIterator(l0Iterators), run)
	if err != nil {
		return nil, err
	}

	var (
		outputs []*sstable.Table
		builder *sstable.Builder
	)
	finish := func() error {
		id := s.nextID.Add(1) - 1
		table, err := builder.Build(id, s.blockCache, tablePath(s.dir, id))
		if err != nil {
			return err
		}
		outputs = append(outputs, table)
		builder = nil
		return nil
	}

	for merged.Valid() {
		if value := merged.Value(); len(value) > 0 {
			if builder == nil {
				builder = sstable.NewBuilder(s.tableOptions())
			}
			builder.Add(merged.Key(), value)
			if builder.EstimatedSize() >= s.options.TargetSSTSize {
				if err := finish(); err != nil {
					return outputs, err
				}
			}
		}
		if err := merged.Next(); err != nil {
			return outputs, err
		}
	}
	if builder != nil {
		if err := finish(); err != nil {
			return outputs, err
		}
	}
	return outputs, nil
}

func removeTables(tables []*sstable.Table) {
	for _, table := range tables {
		table.Remove()
	}
}
