// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cache

import (
	"sync"
	"testing"
)

func TestLRUEvictsLeastRecentlyUsed(t *testing.T) {
	lru := New[string, int](2)
	lru.Add("a", 1)
	lru.Add("b", 2)

	// Touch "a" so "b" becomes the eviction candidate.
	if value, ok := lru.Get("a"); !ok || value != 1 {
		t.Fatalf("Get(a) = %d, %v", value, ok)
	}
	lru.Add("c", 3)

	if _, ok := lru.Get("b"); ok {
		t.Error("b should have been evicted")
	}
	if _, ok := lru.Get("a"); !ok {
		t.Error("a should still be cached")
	}
	if _, ok := lru.Get("c"); !ok {
		t.Error("c should be cached")
	}
	if lru.Len() != 2 {
		t.Errorf("Len = %d, want 2", lru.Len())
	}
}

func TestLRUReplace(t *testing.T) {
	lru := New[string, int](2)
	lru.Add("a", 1)
	lru.Add("a", 5)
	if value, _ := lru.Get("a"); value != 5 {
		t.Errorf("Get(a) = %d, want 5", value)
	}
	if lru.Len() != 1 {
		t.Errorf("Len = %d, want 1", lru.Len())
	}
}

func TestLRUZeroCapacityDisables(t *testing.T) {
	lru := New[string, int](0)
	lru.Add("a", 1)
	if _, ok := lru.Get("a"); ok {
		t.Error("zero-capacity cache returned a hit")
	}
}

func TestLRUStats(t *testing.T) {
	lru := New[BlockKey, string](4)
	key := BlockKey{TableID: 7, BlockIndex: 0}
	lru.Get(key)
	lru.Add(key, "block")
	lru.Get(key)
	lru.Get(key)

	hits, misses := lru.Stats()
	if hits != 2 || misses != 1 {
		t.Errorf("hits=%d misses=%d, want 2 and 1", hits, misses)
	}
}

func TestLRURemoveFunc(t *testing.T) {
	lru := New[BlockKey, int](10)
	for table := uint64(1); table <= 2; table++ {
		for index := 0; index < 3; index++ {
			lru.Add(BlockKey{TableID: table, BlockIndex: index}, index)
		}
	}
	lru.RemoveFunc(func(key BlockKey) bool { return key.TableID == 1 })
	if lru.Len() != 3 {
		t.Fatalf("Len = %d after purging table 1, want 3", lru.Len())
	}
	if _, ok := lru.Get(BlockKey{TableID: 1, BlockIndex: 0}); ok {
		t.Error("table 1 block survived RemoveFunc")
	}
	lru.Remove(BlockKey{TableID: 2, BlockIndex: 0})
	if lru.Len() != 2 {
		t.Errorf("Len = %d after Remove, want 2", lru.Len())
	}
}

func TestLRUConcurrentAccess(t *testing.T) {
	lru := New[int, int](64)
	var group sync.WaitGroup
	for worker := 0; worker < 8; worker++ {
		group.Add(1)
		go func(worker int) {
			defer group.Done()
			for i := 0; i < 1000; i++ {
				lru.Add(i%128, worker)
				lru.Get(i % 97)
			}
		}(worker)
	}
	group.Wait()
	if lru.Len() > 64 {
		t.Errorf("Len = %d exceeds capacity", lru.Len())
	}
}
