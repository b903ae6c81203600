// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package lsm

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/bureau-foundation/lsm/lib/clock"
	"github.com/bureau-foundation/lsm/lib/compress"
)

// Options configures a Storage. Zero numeric fields take the values of
// DefaultOptions. Compression is taken as given: its zero value is
// compress.None.
type Options struct {
	// BlockSize is the target size of an SST data block before
	// compression.
	BlockSize int

	// TargetSSTSize is the size at which compaction output is split
	// into a new table.
	TargetSSTSize int

	// MemtableSize is the approximate size at which the mutable
	// memtable is frozen. Defaults to TargetSSTSize so a flush
	// produces one table of about the target size.
	MemtableSize int

	// MaxImmutableMemtables bounds the number of frozen memtables
	// waiting for a flush. A writer that freezes past the bound
	// flushes the oldest one itself before returning.
	MaxImmutableMemtables int

	// L0CompactionTrigger is the L0 table count at which the
	// background worker compacts L0 into L1.
	L0CompactionTrigger int

	// BlockCacheEntries is the number of decoded blocks kept in
	// memory. Negative disables the cache.
	BlockCacheEntries int

	// Compression is the codec for newly written blocks. Existing
	// tables keep the codec they were written with.
	Compression compress.Tag

	// BloomBitsPerKey sizes per-table bloom filters.
	BloomBitsPerKey int

	// SyncWrites makes every Put and Delete wait for its log record
	// to reach stable storage. Without it, durability comes from Sync
	// and Close.
	SyncWrites bool

	// BackgroundInterval is the period of the background flush and
	// compaction worker. Zero disables the worker; flushing and
	// compaction then happen only on explicit calls and write stalls.
	BackgroundInterval time.Duration

	// Logger receives flush, compaction, and recovery events. If nil,
	// a no-op logger is used.
	Logger *slog.Logger

	// Clock drives the background worker. If nil, the real clock is
	// used.
	Clock clock.Clock

	// afterBackgroundStep runs after every background pass. Tests use
	// it to wait for the worker.
	afterBackgroundStep func()
}

// DefaultOptions returns the default engine configuration.
func DefaultOptions() Options {
	return Options{
		BlockSize:             4096,
		TargetSSTSize:         2 << 20,
		MaxImmutableMemtables: 4,
		L0CompactionTrigger:   4,
		BlockCacheEntries:     1 << 12,
		Compression:           compress.LZ4,
		BloomBitsPerKey:       10,
	}
}

func (o Options) withDefaults() Options {
	defaults := DefaultOptions()
	if o.BlockSize <= 0 {
		o.BlockSize = defaults.BlockSize
	}
	if o.TargetSSTSize <= 0 {
		o.TargetSSTSize = defaults.TargetSSTSize
	}
	if o.MemtableSize <= 0 {
		o.MemtableSize = o.TargetSSTSize
	}
	if o.MaxImmutableMemtables <= 0 {
		o.MaxImmutableMemtables = defaults.MaxImmutableMemtables
	}
	if o.L0CompactionTrigger <= 0 {
		o.L0CompactionTrigger = defaults.L0CompactionTrigger
	}
	if o.BlockCacheEntries == 0 {
		o.BlockCacheEntries = defaults.BlockCacheEntries
	}
	if o.BlockCacheEntries < 0 {
		o.BlockCacheEntries = 0
	}
	if o.BloomBitsPerKey <= 0 {
		o.BloomBitsPerKey = defaults.BloomBitsPerKey
	}
	if o.Logger == nil {
		o.Logger = slog.New(slog.DiscardHandler)
	}
	if o.Clock == nil {
		o.Clock = clock.Real()
	}
	return o
}

func (o Options) validate() error {
	var errs []error
	if !o.Compression.Valid() {
		errs = append(errs, fmt.Errorf("compression: %w: %d", compress.ErrUnknownTag, o.Compression))
	}
	if o.BackgroundInterval < 0 {
		errs = append(errs, fmt.Errorf("background interval must not be negative, got %s", o.BackgroundInterval))
	}
	if o.BlockSize > 1<<16-1 {
		errs = append(errs, fmt.Errorf("block size %d exceeds the 64 KiB block format limit", o.BlockSize))
	}
	return errors.Join(errs...)
}
