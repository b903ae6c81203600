// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package block

import (
	"bytes"
	"sort"
)

// Iterator walks the entries of one block in key order. It is invalid
// once it moves past the last entry or a seek finds no key at or above
// the target.
type Iterator struct {
	block *Block
	index int
	key   []byte
	value []byte
}

// NewIteratorAtFirst returns an iterator positioned on the first entry.
func NewIteratorAtFirst(block *Block) *Iterator {
	iterator := &Iterator{block: block}
	iterator.SeekToFirst()
	return iterator
}

// NewIteratorAtKey returns an iterator positioned on the first entry
// whose key is >= key.
func NewIteratorAtKey(block *Block, key []byte) *Iterator {
	iterator := &Iterator{block: block}
	iterator.SeekToKey(key)
	return iterator
}

// Key returns the current key. It aliases block memory.
func (it *Iterator) Key() []byte { return it.key }

// Value returns the current value. It aliases block memory.
func (it *Iterator) Value() []byte { return it.value }

// Valid reports whether the iterator is positioned on an entry.
func (it *Iterator) Valid() bool { return len(it.key) > 0 }

// Next advances to the following entry. It never fails; the error
// return satisfies iterator.Iterator.
func (it *Iterator) Next() error {
	if it.Valid() {
		it.seekTo(it.index + 1)
	}
	return nil
}

// SeekToFirst positions the iterator on the first entry.
func (it *Iterator) SeekToFirst() {
	it.seekTo(0)
}

// SeekToKey positions the iterator on the first entry with key >= key
// (a lower-bound binary search over the offset index).
func (it *Iterator) SeekToKey(key []byte) {
	index := sort.Search(it.block.Len(), func(i int) bool {
		candidate, _ := it.block.entryAt(i)
		return bytes.Compare(candidate, key) >= 0
	})
	it.seekTo(index)
}

func (it *Iterator) seekTo(index int) {
	it.index = index
	if index >= it.block.Len() {
		it.key, it.value = nil, nil
		return
	}
	it.key, it.value = it.block.entryAt(index)
}
