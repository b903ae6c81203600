// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sstable

import (
	"bytes"

	"github.com/bureau-foundation/lsm/lib/block"
	"github.com/bureau-foundation/lsm/lib/iterator"
)

// Iterator walks one table in key order, loading blocks through the
// block cache as it crosses block boundaries. It stops at an optional
// upper bound.
type Iterator struct {
	table      *Table
	blockIndex int
	current    *block.Iterator
	upper      iterator.Bound
}

// NewIteratorAtFirst returns an iterator on the first entry of table.
func NewIteratorAtFirst(table *Table) (*Iterator, error) {
	it := &Iterator{table: table, upper: iterator.Unbounded()}
	if err := it.SeekToFirst(); err != nil {
		return nil, err
	}
	return it, nil
}

// NewIteratorAtKey returns an iterator on the first entry >= key.
func NewIteratorAtKey(table *Table, key []byte) (*Iterator, error) {
	it := &Iterator{table: table, upper: iterator.Unbounded()}
	if err := it.SeekToKey(key); err != nil {
		return nil, err
	}
	return it, nil
}

// NewRangeIterator returns an iterator over the entries of table within
// [lower, upper].
func NewRangeIterator(table *Table, lower, upper iterator.Bound) (*Iterator, error) {
	it := &Iterator{table: table, upper: upper.Clone()}
	switch lower.Kind {
	case iterator.KindIncluded:
		if err := it.SeekToKey(lower.Key); err != nil {
			return nil, err
		}
	case iterator.KindExcluded:
		if err := it.SeekToKey(lower.Key); err != nil {
			return nil, err
		}
		if it.Valid() && bytes.Equal(it.Key(), lower.Key) {
			if err := it.Next(); err != nil {
				return nil, err
			}
		}
	default:
		if err := it.SeekToFirst(); err != nil {
			return nil, err
		}
	}
	return it, nil
}

// SeekToFirst positions the iterator on the first entry.
func (it *Iterator) SeekToFirst() error {
	return it.loadBlock(0, nil)
}

// SeekToKey positions the iterator on the first entry >= key.
func (it *Iterator) SeekToKey(key []byte) error {
	index := it.table.FindBlockIndex(key)
	if err := it.loadBlock(index, key); err != nil {
		return err
	}
	if !it.current.Valid() && index+1 < it.table.NumBlocks() {
		return it.loadBlock(index+1, nil)
	}
	return nil
}

// loadBlock positions on block index, at key when non-nil.
func (it *Iterator) loadBlock(index int, key []byte) error {
	loaded, err := it.table.ReadBlockCached(index)
	if err != nil {
		it.current = nil
		return err
	}
	it.blockIndex = index
	if key == nil {
		it.current = block.NewIteratorAtFirst(loaded)
	} else {
		it.current = block.NewIteratorAtKey(loaded, key)
	}
	return nil
}

func (it *Iterator) Key() []byte { return it.current.Key() }

func (it *Iterator) Value() []byte { return it.current.Value() }

func (it *Iterator) Valid() bool {
	return it.current != nil && it.current.Valid() && iterator.BelowUpper(it.upper, it.current.Key())
}

func (it *Iterator) Next() error {
	if !it.Valid() {
		return nil
	}
	it.current.Next()
	if !it.current.Valid() && it.blockIndex+1 < it.table.NumBlocks() {
		return it.loadBlock(it.blockIndex+1, nil)
	}
	return nil
}
