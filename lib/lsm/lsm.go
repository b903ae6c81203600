// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package lsm is an embedded, ordered key-value store built as a
// log-structured merge tree.
//
// Writes go to a write-ahead log and an in-memory memtable. Full
// memtables are frozen and flushed to level-0 sorted string tables;
// when level 0 accumulates enough tables they are compacted with the
// bottom level into one sorted run. Reads consult the memtables and
// then the tables from newest to oldest, so the most recent write of a
// key always wins. An empty value is a tombstone: Delete writes one,
// and reads treat it as absence.
//
// The set of live files is recorded in a CBOR manifest that is
// rewritten atomically on every structural change. Open replays the
// logs of unflushed memtables and deletes files the manifest does not
// reference.
package lsm

import (
	"errors"
	"math"
)

var (
	// ErrNotFound is returned by Get for a key that was never written
	// or whose latest write is a delete.
	ErrNotFound = errors.New("lsm: key not found")

	// ErrEmptyKey is returned for a zero-length key.
	ErrEmptyKey = errors.New("lsm: empty key")

	// ErrEmptyValue is returned by Put for a zero-length value, which
	// the store reserves for tombstones. Use Delete instead.
	ErrEmptyValue = errors.New("lsm: empty value")

	// ErrTooLarge is returned for a key or value longer than
	// MaxKeySize or MaxValueSize.
	ErrTooLarge = errors.New("lsm: key or value too large")

	// ErrClosed is returned by operations on a closed Storage.
	ErrClosed = errors.New("lsm: storage closed")
)

const (
	// MaxKeySize is the longest key the on-disk formats can hold.
	MaxKeySize = math.MaxUint16

	// MaxValueSize is the longest value the on-disk formats can hold.
	MaxValueSize = math.MaxUint16
)

func validateKey(key []byte) error {
	if len(key) == 0 {
		return ErrEmptyKey
	}
	if len(key) > MaxKeySize {
		return ErrTooLarge
	}
	return nil
}
