// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package iterator

// FusedIterator guards an iterator handed to callers outside the
// engine. Next on an exhausted iterator is a no-op, and after Next
// fails once the iterator stays invalid and keeps returning that error.
type FusedIterator struct {
	inner Iterator
	err   error
}

// NewFusedIterator wraps inner.
func NewFusedIterator(inner Iterator) *FusedIterator {
	return &FusedIterator{inner: inner}
}

func (f *FusedIterator) Key() []byte { return f.inner.Key() }

func (f *FusedIterator) Value() []byte { return f.inner.Value() }

func (f *FusedIterator) Valid() bool {
	return f.err == nil && f.inner.Valid()
}

func (f *FusedIterator) Next() error {
	if f.err != nil {
		return f.err
	}
	if !f.inner.Valid() {
		return nil
	}
	if err := f.inner.Next(); err != nil {
		f.err = err
		return err
	}
	return nil
}

// Err returns the error that fused the iterator, if any.
func (f *FusedIterator) Err() error {
	return f.err
}
