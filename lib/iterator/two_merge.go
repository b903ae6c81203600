// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package iterator

import "bytes"

// TwoMergeIterator merges two iterators of possibly different kinds.
// On equal keys the entry from a is produced and b's is skipped.
type TwoMergeIterator struct {
	a, b    Iterator
	chooseA bool
}

// NewTwoMergeIterator merges a (higher precedence) with b.
func NewTwoMergeIterator(a, b Iterator) (*TwoMergeIterator, error) {
	merge := &TwoMergeIterator{a: a, b: b}
	if err := merge.skipShadowed(); err != nil {
		return nil, err
	}
	merge.chooseA = merge.pickA()
	return merge, nil
}

// skipShadowed advances b past a key that a also holds.
func (m *TwoMergeIterator) skipShadowed() error {
	if m.a.Valid() && m.b.Valid() && bytes.Equal(m.a.Key(), m.b.Key()) {
		return m.b.Next()
	}
	return nil
}

func (m *TwoMergeIterator) pickA() bool {
	if !m.a.Valid() {
		return false
	}
	if !m.b.Valid() {
		return true
	}
	return bytes.Compare(m.a.Key(), m.b.Key()) < 0
}

func (m *TwoMergeIterator) Key() []byte {
	if m.chooseA {
		return m.a.Key()
	}
	return m.b.Key()
}

func (m *TwoMergeIterator) Value() []byte {
	if m.chooseA {
		return m.a.Value()
	}
	return m.b.Value()
}

func (m *TwoMergeIterator) Valid() bool {
	if m.chooseA {
		return m.a.Valid()
	}
	return m.b.Valid()
}

func (m *TwoMergeIterator) Next() error {
	var err error
	if m.chooseA {
		err = m.a.Next()
	} else {
		err = m.b.Next()
	}
	if err != nil {
		return err
	}
	if err := m.skipShadowed(); err != nil {
		return err
	}
	m.chooseA = m.pickA()
	return nil
}
