// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package lsm

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/bureau-foundation/lsm/lib/memtable"
	"github.com/bureau-foundation/lsm/lib/sstable"
	"github.com/bureau-foundation/lsm/lib/wal"
)

// Storage is an open store. All methods are safe for concurrent use.
type Storage struct {
	dir     string
	options Options
	logger  *slog.Logger

	// mu guards the state pointer. Readers hold it only to load the
	// pointer; writers hold it shared while inserting into the mutable
	// memtable so a freeze cannot swap the memtable out from under
	// them.
	mu    sync.RWMutex
	state *state

	// structureMu serializes freezes, flushes, and compaction installs
	// along with the manifest writes that record them.
	structureMu sync.Mutex

	// compactMu serializes compactions. The merge runs without
	// structureMu so flushes continue meanwhile.
	compactMu sync.Mutex

	nextID     atomic.Uint64
	blockCache *sstable.BlockCache
	closed     atomic.Bool

	stopWorker chan struct{}
	workerDone chan struct{}
}

// Open opens or creates the store in dir.
func Open(dir string, options Options) (*Storage, error) {
	options = options.withDefaults()
	if err := options.validate(); err != nil {
		return nil, fmt.Errorf("lsm: invalid options: %w", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("lsm: creating %s: %w", dir, err)
	}

	manifest, err := ReadManifest(dir)
	if err != nil {
		return nil, fmt.Errorf("lsm: %w", err)
	}

	storage := &Storage{
		dir:        dir,
		options:    options,
		logger:     options.Logger,
		blockCache: sstable.NewBlockCache(options.BlockCacheEntries),
	}
	recovered, err := storage.recover(manifest)
	if err != nil {
		return nil, err
	}
	storage.state = recovered

	if err := writeManifest(dir, recovered.manifest(storage.nextID.Load())); err != nil {
		storage.closeState(recovered)
		return nil, fmt.Errorf("lsm: %w", err)
	}

	if err := storage.flushRecovered(); err != nil {
		storage.closeState(storage.snapshot())
		return nil, err
	}

	opened := storage.snapshot()
	storage.logger.Info("lsm storage opened",
		"dir", dir,
		"l0_tables", len(opened.l0),
		"l1_tables", len(opened.l1),
		"recovered_memtables", len(opened.immutables),
		"next_id", storage.nextID.Load(),
	)

	if options.BackgroundInterval > 0 {
		storage.startWorker()
	}
	return storage, nil
}

// recover opens every file the manifest lists, removes the ones it
// does not, and creates a fresh mutable memtable.
func (s *Storage) recover(manifest *Manifest) (*state, error) {
	recovered := &state{}
	nextID := manifest.NextID

	fail := func(err error) (*state, error) {
		s.closeState(recovered)
		return nil, err
	}

	for _, id := range manifest.L0 {
		table, err := sstable.OpenPath(id, s.blockCache, tablePath(s.dir, id))
		if err != nil {
			return fail(fmt.Errorf("lsm: opening L0 table %d: %w", id, err))
		}
		recovered.l0 = append(recovered.l0, table)
		nextID = max(nextID, id+1)
	}
	for _, id := range manifest.L1 {
		table, err := sstable.OpenPath(id, s.blockCache, tablePath(s.dir, id))
		if err != nil {
			return fail(fmt.Errorf("lsm: opening L1 table %d: %w", id, err))
		}
		recovered.l1 = append(recovered.l1, table)
		nextID = max(nextID, id+1)
	}

	walOptions := wal.Options{SyncWrites: s.options.SyncWrites}
	for _, id := range manifest.Memtables {
		nextID = max(nextID, id+1)
		path := walPath(s.dir, id)
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			// Crash between creating the manifest entry and the log.
			continue
		}
		table, err := memtable.Recover(id, path, walOptions)
		if err != nil {
			return fail(fmt.Errorf("lsm: %w", err))
		}
		if table.Empty() {
			if err := table.DiscardWAL(); err != nil {
				return fail(fmt.Errorf("lsm: %w", err))
			}
			continue
		}
		s.logger.Info("recovered memtable from wal",
			"memtable_id", id,
			"keys", table.Len(),
			"bytes", table.ApproximateSize(),
		)
		recovered.immutables = append(recovered.immutables, table)
	}

	if err := s.removeOrphans(manifest); err != nil {
		return fail(err)
	}

	id := nextID
	s.nextID.Store(nextID + 1)
	fresh, err := memtable.NewWithWAL(id, walPath(s.dir, id), walOptions)
	if err != nil {
		return fail(fmt.Errorf("lsm: %w", err))
	}
	recovered.memtable = fresh
	return recovered, nil
}

// flushRecovered flushes the oldest recovered memtables until no more
// than MaxImmutableMemtables remain. Without it every open that is not
// followed by a flush leaves one more log to replay next time.
func (s *Storage) flushRecovered() error {
	s.structureMu.Lock()
	defer s.structureMu.Unlock()
	for len(s.snapshot().immutables) > s.options.MaxImmutableMemtables {
		if _, err := s.flushOldestLocked(); err != nil {
			return err
		}
	}
	return nil
}

// removeOrphans deletes tables, logs, and temporary files the manifest
// does not reference: leftovers of a crash mid-flush or mid-compaction.
func (s *Storage) removeOrphans(manifest *Manifest) error {
	live := make(map[string]bool)
	for _, id := range manifest.L0 {
		live[tablePath(s.dir, id)] = true
	}
	for _, id := range manifest.L1 {
		live[tablePath(s.dir, id)] = true
	}
	for _, id := range manifest.Memtables {
		live[walPath(s.dir, id)] = true
	}

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return fmt.Errorf("lsm: listing %s: %w", s.dir, err)
	}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || name == ManifestName {
			continue
		}
		_, isTable := parseFileID(name, tableExtension)
		_, isWAL := parseFileID(name, walExtension)
		isTemp := strings.HasPrefix(name, ".") && strings.HasSuffix(name, ".tmp")
		if !isTable && !isWAL && !isTemp {
			continue
		}
		path := filepath.Join(s.dir, name)
		if live[path] {
			continue
		}
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("lsm: removing orphan %s: %w", name, err)
		}
		s.logger.Warn("removed orphan file", "path", path)
	}
	return nil
}

func (s *Storage) snapshot() *state {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// acquire returns the current state with a reader reference held on
// each of its tables. A table a compaction retired between loading the
// state and acquiring it forces a retry with the newer state.
func (s *Storage) acquire() (*state, error) {
	for {
		if s.closed.Load() {
			return nil, ErrClosed
		}
		if current := s.snapshot(); current.acquireTables() {
			return current, nil
		}
	}
}

// release drops the references taken by acquire.
func (s *Storage) release(current *state) {
	if err := current.releaseTables(); err != nil {
		s.logger.Warn("releasing tables", "dir", s.dir, "error", err)
	}
}

// Get returns the latest value of key, or ErrNotFound.
func (s *Storage) Get(key []byte) ([]byte, error) {
	if err := validateKey(key); err != nil {
		return nil, err
	}
	current, err := s.acquire()
	if err != nil {
		return nil, err
	}
	defer s.release(current)

	if value, present := current.memtable.Get(key); present {
		return liveValue(value)
	}
	for _, frozen := range current.immutables {
		if value, present := frozen.Get(key); present {
			return liveValue(value)
		}
	}
	for _, table := range current.l0 {
		value, present, err := table.Get(key)
		if err != nil {
			return nil, fmt.Errorf("lsm: reading table %d: %w", table.ID(), err)
		}
		if present {
			return liveValue(value)
		}
	}
	if table := findRunTable(current.l1, key); table != nil {
		value, present, err := table.Get(key)
		if err != nil {
			return nil, fmt.Errorf("lsm: reading table %d: %w", table.ID(), err)
		}
		if present {
			return liveValue(value)
		}
	}
	return nil, ErrNotFound
}

func liveValue(value []byte) ([]byte, error) {
	if len(value) == 0 {
		return nil, ErrNotFound
	}
	return append([]byte(nil), value...), nil
}

// Put sets key to value. The value must be non-empty.
func (s *Storage) Put(key, value []byte) error {
	if err := validateKey(key); err != nil {
		return err
	}
	if len(value) == 0 {
		return ErrEmptyValue
	}
	if len(value) > MaxValueSize {
		return ErrTooLarge
	}
	return s.write(key, value)
}

// Delete removes key by writing a tombstone. Deleting an absent key is
// not an error.
func (s *Storage) Delete(key []byte) error {
	if err := validateKey(key); err != nil {
		return err
	}
	return s.write(key, nil)
}

func (s *Storage) write(key, value []byte) error {
	if s.closed.Load() {
		return ErrClosed
	}
	s.mu.RLock()
	target := s.state.memtable
	err := target.Put(key, value)
	size := target.ApproximateSize()
	s.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("lsm: writing to memtable %d: %w", target.ID(), err)
	}

	if size >= int64(s.options.MemtableSize) {
		return s.freezeIfFull(target)
	}
	return nil
}

// Sync forces every acknowledged write to stable storage.
func (s *Storage) Sync() error {
	if s.closed.Load() {
		return ErrClosed
	}
	if err := s.snapshot().memtable.SyncWAL(); err != nil {
		return fmt.Errorf("lsm: %w", err)
	}
	return nil
}

// Close stops the background worker and closes every log and table.
// Unflushed memtables stay in their logs and are recovered by the next
// Open. Closing twice is a no-op.
func (s *Storage) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	if s.stopWorker != nil {
		close(s.stopWorker)
		<-s.workerDone
	}

	s.compactMu.Lock()
	defer s.compactMu.Unlock()
	s.structureMu.Lock()
	defer s.structureMu.Unlock()

	err := s.closeState(s.snapshot())
	if err != nil {
		s.logger.Error("lsm storage close error", "dir", s.dir, "error", err)
		return fmt.Errorf("lsm: closing %s: %w", s.dir, err)
	}
	s.logger.Info("lsm storage closed", "dir", s.dir)
	return nil
}

func (s *Storage) closeState(current *state) error {
	var errs []error
	if current.memtable != nil {
		errs = append(errs, current.memtable.Close())
	}
	for _, frozen := range current.immutables {
		errs = append(errs, frozen.Close())
	}
	for _, table := range current.l0 {
		errs = append(errs, table.Close())
	}
	for _, table := range current.l1 {
		errs = append(errs, table.Close())
	}
	return errors.Join(errs...)
}

// Dir returns the storage directory.
func (s *Storage) Dir() string { return s.dir }
