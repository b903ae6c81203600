// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package iterator

import (
	"bytes"
	"container/heap"
)

// MergeIterator merges any number of iterators into one ascending
// stream. When several inputs hold the same key, the value from the
// input with the smallest index is produced and the others are skipped
// past that key.
type MergeIterator struct {
	pending mergeHeap
	current *mergeEntry
}

type mergeEntry struct {
	index    int
	iterator Iterator
}

type mergeHeap []*mergeEntry

func (h mergeHeap) Len() int { return len(h) }

func (h mergeHeap) Less(i, j int) bool {
	if order := bytes.Compare(h[i].iterator.Key(), h[j].iterator.Key()); order != 0 {
		return order < 0
	}
	return h[i].index < h[j].index
}

func (h mergeHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *mergeHeap) Push(x any) { *h = append(*h, x.(*mergeEntry)) }

func (h *mergeHeap) Pop() any {
	old := *h
	last := old[len(old)-1]
	old[len(old)-1] = nil
	*h = old[:len(old)-1]
	return last
}

// NewMergeIterator merges iterators, which are given in precedence
// order. Invalid inputs are dropped up front.
func NewMergeIterator(iterators []Iterator) *MergeIterator {
	merge := &MergeIterator{}
	for index, input := range iterators {
		if input != nil && input.Valid() {
			merge.pending = append(merge.pending, &mergeEntry{index: index, iterator: input})
		}
	}
	heap.Init(&merge.pending)
	if merge.pending.Len() > 0 {
		merge.current = heap.Pop(&merge.pending).(*mergeEntry)
	}
	return merge
}

func (m *MergeIterator) Key() []byte { return m.current.iterator.Key() }

func (m *MergeIterator) Value() []byte { return m.current.iterator.Value() }

func (m *MergeIterator) Valid() bool {
	return m.current != nil && m.current.iterator.Valid()
}

// Next advances past the current key in every input that holds it.
func (m *MergeIterator) Next() error {
	if !m.Valid() {
		return nil
	}

	currentKey := m.current.iterator.Key()
	for m.pending.Len() > 0 {
		top := m.pending[0]
		if !bytes.Equal(top.iterator.Key(), currentKey) {
			break
		}
		if err := top.iterator.Next(); err != nil {
			heap.Pop(&m.pending)
			return err
		}
		if top.iterator.Valid() {
			heap.Fix(&m.pending, 0)
		} else {
			heap.Pop(&m.pending)
		}
	}

	if err := m.current.iterator.Next(); err != nil {
		m.current = nil
		return err
	}
	if m.current.iterator.Valid() {
		heap.Push(&m.pending, m.current)
	}
	m.current = nil
	if m.pending.Len() > 0 {
		m.current = heap.Pop(&m.pending).(*mergeEntry)
	}
	return nil
}
