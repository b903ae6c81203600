// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package wal

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bureau-foundation/lsm/lib/testutil"
)

type record struct {
	key, value string
}

func replayAll(t *testing.T, path string) ([]record, *WAL) {
	t.Helper()
	log, err := Open(path, Options{})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	var records []record
	count, err := log.Replay(func(key, value []byte) error {
		records = append(records, record{string(key), string(value)})
		return nil
	})
	if err != nil {
		t.Fatalf("Replay: %v", err)
	}
	if count != len(records) {
		t.Fatalf("Replay count = %d, delivered %d", count, len(records))
	}
	return records, log
}

func TestAppendReplay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "00001.wal")
	log, err := Create(path, Options{SyncWrites: true})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	for i := 0; i < 10; i++ {
		if err := log.Append(testutil.KeyOf(i), testutil.ValueOf(i)); err != nil {
			t.Fatalf("Append %d: %v", i, err)
		}
	}
	if err := log.Append([]byte("deleted"), nil); err != nil {
		t.Fatalf("Append tombstone: %v", err)
	}
	if err := log.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	records, reopened := replayAll(t, path)
	defer reopened.Close()
	if len(records) != 11 {
		t.Fatalf("replayed %d records, want 11", len(records))
	}
	for i := 0; i < 10; i++ {
		want := record{string(testutil.KeyOf(i)), string(testutil.ValueOf(i))}
		if records[i] != want {
			t.Errorf("record %d = %v, want %v", i, records[i], want)
		}
	}
	if records[10] != (record{"deleted", ""}) {
		t.Errorf("tombstone record = %v", records[10])
	}
}

func TestRecordsAreAligned(t *testing.T) {
	path := filepath.Join(t.TempDir(), "aligned.wal")
	log, err := Create(path, Options{})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	defer log.Close()

	if err := log.Append([]byte("k"), []byte("v")); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := log.Append([]byte("big"), []byte(strings.Repeat("x", Alignment))); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if got, want := log.Size(), int64(3*Alignment); got != want {
		t.Errorf("Size = %d, want %d", got, want)
	}
}

func TestReplayStopsAtTornTail(t *testing.T) {
	path := filepath.Join(t.TempDir(), "torn.wal")
	log, err := Create(path, Options{})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	for i := 0; i < 3; i++ {
		if err := log.Append(testutil.KeyOf(i), testutil.ValueOf(i)); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}
	if err := log.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	// Cut the last record in half, as a crash mid-write would.
	if err := os.Truncate(path, 2*Alignment+Alignment/2); err != nil {
		t.Fatalf("Truncate: %v", err)
	}

	records, reopened := replayAll(t, path)
	if len(records) != 2 {
		t.Fatalf("replayed %d records, want 2", len(records))
	}
	if reopened.Size() != 2*Alignment {
		t.Errorf("Size after replay = %d, want torn tail trimmed to %d", reopened.Size(), 2*Alignment)
	}

	// Appending after recovery must produce a readable log.
	if err := reopened.Append([]byte("after"), []byte("crash")); err != nil {
		t.Fatalf("Append after replay: %v", err)
	}
	if err := reopened.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	records, again := replayAll(t, path)
	defer again.Close()
	if len(records) != 3 || records[2] != (record{"after", "crash"}) {
		t.Errorf("records after reappend = %v", records)
	}
}

func TestReplayStopsAtChecksumMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corrupt.wal")
	log, err := Create(path, Options{})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	for i := 0; i < 3; i++ {
		if err := log.Append(testutil.KeyOf(i), testutil.ValueOf(i)); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}
	log.Close()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	data[Alignment+headerSize] ^= 0xff
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	records, reopened := replayAll(t, path)
	defer reopened.Close()
	if len(records) != 1 {
		t.Errorf("replayed %d records, want 1 before the corrupt record", len(records))
	}
}

func TestReplayCallbackError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "callback.wal")
	log, err := Create(path, Options{})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	defer log.Close()
	for i := 0; i < 3; i++ {
		if err := log.Append(testutil.KeyOf(i), testutil.ValueOf(i)); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	stop := errors.New("stop")
	count, err := log.Replay(func(key, value []byte) error {
		if string(key) == string(testutil.KeyOf(1)) {
			return stop
		}
		return nil
	})
	if !errors.Is(err, stop) {
		t.Fatalf("Replay error = %v, want stop", err)
	}
	if count != 1 {
		t.Errorf("count = %d, want 1", count)
	}
}

func TestAppendRejects(t *testing.T) {
	log, err := Create(filepath.Join(t.TempDir(), "reject.wal"), Options{})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := log.Append(nil, []byte("v")); !errors.Is(err, ErrEmptyKey) {
		t.Errorf("empty key: %v", err)
	}
	if err := log.Append([]byte("k"), make([]byte, 1<<16)); !errors.Is(err, ErrTooLarge) {
		t.Errorf("oversized value: %v", err)
	}
	if err := log.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := log.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
	if err := log.Append([]byte("k"), []byte("v")); !errors.Is(err, os.ErrClosed) {
		t.Errorf("Append after Close: %v", err)
	}
}

func TestReplayEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.wal")
	log, err := Create(path, Options{})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	log.Close()

	records, reopened := replayAll(t, path)
	defer reopened.Close()
	if len(records) != 0 {
		t.Errorf("replayed %d records from empty log", len(records))
	}
}
