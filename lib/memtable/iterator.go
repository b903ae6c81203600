// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package memtable

import (
	"github.com/huandu/skiplist"

	"github.com/bureau-foundation/lsm/lib/iterator"
)

// Iterator walks a memtable in key order. Each step holds the read
// lock only long enough to follow one link, so concurrent writers are
// never blocked for a whole scan. Keys inserted behind the iterator's
// position are not seen; keys inserted ahead of it may be.
type Iterator struct {
	table   *Memtable
	upper   iterator.Bound
	current *skiplist.Element
	key     []byte
	value   []byte
}

func (it *Iterator) Key() []byte { return it.key }

func (it *Iterator) Value() []byte { return it.value }

func (it *Iterator) Valid() bool { return it.current != nil }

func (it *Iterator) Next() error {
	if it.current == nil {
		return nil
	}
	it.table.mu.RLock()
	it.load(it.current.Next())
	it.table.mu.RUnlock()
	return nil
}

// load positions on candidate. Callers hold the read lock.
func (it *Iterator) load(candidate *skiplist.Element) {
	if candidate == nil {
		it.current, it.key, it.value = nil, nil, nil
		return
	}
	key := candidate.Key().([]byte)
	if !iterator.BelowUpper(it.upper, key) {
		it.current, it.key, it.value = nil, nil, nil
		return
	}
	it.current = candidate
	it.key = key
	it.value = candidate.Value.([]byte)
}
