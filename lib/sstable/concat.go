// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sstable

import (
	"bytes"
	"sort"

	"github.com/bureau-foundation/lsm/lib/iterator"
)

// ConcatIterator walks a sorted run: tables whose key ranges do not
// overlap, in ascending order. Only the table under the cursor has an
// iterator; the next is created when the cursor reaches it.
type ConcatIterator struct {
	tables  []*Table
	next    int
	current *Iterator
	upper   iterator.Bound
}

// NewConcatIterator returns an iterator over the entries of the run
// within [lower, upper].
func NewConcatIterator(tables []*Table, lower, upper iterator.Bound) (*ConcatIterator, error) {
	concat := &ConcatIterator{tables: tables, upper: upper.Clone()}

	start := 0
	if lower.Kind != iterator.KindUnbounded {
		start = sort.Search(len(tables), func(i int) bool {
			return bytes.Compare(tables[i].LastKey(), lower.Key) >= 0
		})
	}
	if start >= len(tables) {
		return concat, nil
	}

	first, err := NewRangeIterator(tables[start], lower, concat.upper)
	if err != nil {
		return nil, err
	}
	concat.current = first
	concat.next = start + 1
	if err := concat.advanceTable(); err != nil {
		return nil, err
	}
	return concat, nil
}

// advanceTable moves to following tables while the current one is
// exhausted.
func (c *ConcatIterator) advanceTable() error {
	for c.current != nil && !c.current.Valid() {
		if c.next >= len(c.tables) || !iterator.BelowUpper(c.upper, c.tables[c.next].FirstKey()) {
			c.current = nil
			return nil
		}
		following, err := NewRangeIterator(c.tables[c.next], iterator.Unbounded(), c.upper)
		if err != nil {
			c.current = nil
			return err
		}
		c.current = following
		c.next++
	}
	return nil
}

func (c *ConcatIterator) Key() []byte { return c.current.Key() }

func (c *ConcatIterator) Value() []byte { return c.current.Value() }

func (c *ConcatIterator) Valid() bool {
	return c.current != nil && c.current.Valid()
}

func (c *ConcatIterator) Next() error {
	if !c.Valid() {
		return nil
	}
	if err := c.current.Next(); err != nil {
		c.current = nil
		return err
	}
	return c.advanceTable()
}
