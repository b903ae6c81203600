// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package iterator defines the ordered key-value iterator shared by
// every layer of the store (blocks, tables, memtables, the engine) and
// the combinators that merge them.
//
// Precedence is positional: when several sources hold the same key,
// the source listed first wins. The engine lists sources newest first,
// so the most recent write of a key shadows older ones.
package iterator

import "bytes"

// Iterator walks key-value pairs in ascending key order.
//
// Key and Value are only meaningful while Valid is true, and the
// returned slices are only guaranteed until the next call to Next.
type Iterator interface {
	Key() []byte
	Value() []byte
	Valid() bool
	Next() error
}

// BoundKind selects how a Bound constrains a range.
type BoundKind uint8

const (
	KindUnbounded BoundKind = iota
	KindIncluded
	KindExcluded
)

// Bound is one end of a key range.
type Bound struct {
	Kind BoundKind
	Key  []byte
}

// Unbounded returns a bound that admits every key.
func Unbounded() Bound { return Bound{Kind: KindUnbounded} }

// Included returns a bound that admits key itself.
func Included(key []byte) Bound { return Bound{Kind: KindIncluded, Key: key} }

// Excluded returns a bound that stops short of key.
func Excluded(key []byte) Bound { return Bound{Kind: KindExcluded, Key: key} }

// AboveLower reports whether key lies at or after the lower bound.
func AboveLower(lower Bound, key []byte) bool {
	switch lower.Kind {
	case KindIncluded:
		return bytes.Compare(key, lower.Key) >= 0
	case KindExcluded:
		return bytes.Compare(key, lower.Key) > 0
	default:
		return true
	}
}

// BelowUpper reports whether key lies at or before the upper bound.
func BelowUpper(upper Bound, key []byte) bool {
	switch upper.Kind {
	case KindIncluded:
		return bytes.Compare(key, upper.Key) <= 0
	case KindExcluded:
		return bytes.Compare(key, upper.Key) < 0
	default:
		return true
	}
}

// Clone returns a bound that does not alias the caller's key slice.
func (b Bound) Clone() Bound {
	if b.Key != nil {
		b.Key = append([]byte(nil), b.Key...)
	}
	return b
}
