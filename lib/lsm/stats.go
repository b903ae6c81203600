// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package lsm

// Stats is a point-in-time summary of the tree.
type Stats struct {
	MemtableKeys  int
	MemtableBytes int64

	ImmutableMemtables int
	ImmutableBytes     int64

	L0Tables int
	L0Bytes  int64
	L1Tables int
	L1Bytes  int64

	CacheEntries int
	CacheHits    uint64
	CacheMisses  uint64

	NextID uint64
}

// TableBytes returns the total size of all table files.
func (s Stats) TableBytes() int64 {
	return s.L0Bytes + s.L1Bytes
}

// Stats reports the current shape of the tree.
func (s *Storage) Stats() Stats {
	current := s.snapshot()
	stats := Stats{
		MemtableKeys:       current.memtable.Len(),
		MemtableBytes:      current.memtable.ApproximateSize(),
		ImmutableMemtables: len(current.immutables),
		L0Tables:           len(current.l0),
		L1Tables:           len(current.l1),
		CacheEntries:       s.blockCache.Len(),
		NextID:             s.nextID.Load(),
	}
	for _, frozen := range current.immutables {
		stats.ImmutableBytes += frozen.ApproximateSize()
	}
	for _, table := range current.l0 {
		stats.L0Bytes += table.Size()
	}
	for _, table := range current.l1 {
		stats.L1Bytes += table.Size()
	}
	stats.CacheHits, stats.CacheMisses = s.blockCache.Stats()
	return stats
}
