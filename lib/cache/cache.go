// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package cache provides the bounded LRU used as the block cache.
// Decoded blocks are shared between every table reader, so a hot block
// is decompressed and checksummed once rather than on every lookup.
package cache

import (
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
)

// BlockKey identifies a data block: the owning table's file id and the
// block's index within it.
type BlockKey struct {
	TableID    uint64
	BlockIndex int
}

// LRU is a least-recently-used cache with a fixed entry capacity that
// counts hits and misses. A capacity of zero disables caching: Add is
// a no-op and Get always misses. Safe for concurrent use.
type LRU[K comparable, V any] struct {
	// entries is nil when caching is disabled.
	entries *lru.Cache[K, V]

	hits   atomic.Uint64
	misses atomic.Uint64
}

// New returns an LRU holding at most capacity entries.
func New[K comparable, V any](capacity int) *LRU[K, V] {
	c := &LRU[K, V]{}
	if capacity > 0 {
		// lru.New fails only for a non-positive size.
		c.entries, _ = lru.New[K, V](capacity)
	}
	return c
}

// Get returns the cached value for key and marks it most recently used.
func (c *LRU[K, V]) Get(key K) (V, bool) {
	if c.entries != nil {
		if value, ok := c.entries.Get(key); ok {
			c.hits.Add(1)
			return value, true
		}
	}
	c.misses.Add(1)
	var zero V
	return zero, false
}

// Add inserts or replaces key, evicting the least recently used entry
// when full.
func (c *LRU[K, V]) Add(key K, value V) {
	if c.entries == nil {
		return
	}
	c.entries.Add(key, value)
}

// Remove drops key if present.
func (c *LRU[K, V]) Remove(key K) {
	if c.entries == nil {
		return
	}
	c.entries.Remove(key)
}

// RemoveFunc drops every entry whose key matches. Used to purge the
// blocks of a deleted table.
func (c *LRU[K, V]) RemoveFunc(match func(K) bool) {
	if c.entries == nil {
		return
	}
	for _, key := range c.entries.Keys() {
		if match(key) {
			c.entries.Remove(key)
		}
	}
}

// Len returns the number of cached entries.
func (c *LRU[K, V]) Len() int {
	if c.entries == nil {
		return 0
	}
	return c.entries.Len()
}

// Stats returns the cumulative hit and miss counts.
func (c *LRU[K, V]) Stats() (hits, misses uint64) {
	return c.hits.Load(), c.misses.Load()
}
