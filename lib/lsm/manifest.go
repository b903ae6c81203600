// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package lsm

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/bureau-foundation/lsm/lib/codec"
	"github.com/bureau-foundation/lsm/lib/fileutil"
)

// ManifestName is the file name of the manifest inside a storage
// directory.
const ManifestName = "MANIFEST"

const manifestVersion = 1

const (
	tableExtension = ".sst"
	walExtension   = ".wal"
)

// Manifest is the durable description of the tree. It is rewritten
// atomically on every structural change.
type Manifest struct {
	Version int    `cbor:"version"`
	NextID  uint64 `cbor:"next_id"`

	// L0 lists level-0 table ids, newest first.
	L0 []uint64 `cbor:"l0"`

	// L1 lists the bottom sorted run in key order.
	L1 []uint64 `cbor:"l1"`

	// Memtables lists the ids of memtables whose logs hold data not
	// yet in any table, newest first.
	Memtables []uint64 `cbor:"memtables"`
}

// ReadManifest loads the manifest of the storage directory dir. A
// directory without a manifest yields an empty one.
func ReadManifest(dir string) (*Manifest, error) {
	data, err := os.ReadFile(filepath.Join(dir, ManifestName))
	if errors.Is(err, os.ErrNotExist) {
		return &Manifest{Version: manifestVersion}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}
	var manifest Manifest
	if err := codec.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("decoding manifest: %w", err)
	}
	if manifest.Version != manifestVersion {
		return nil, fmt.Errorf("manifest version %d is not supported (want %d)", manifest.Version, manifestVersion)
	}
	return &manifest, nil
}

func writeManifest(dir string, manifest *Manifest) error {
	data, err := codec.Marshal(manifest)
	if err != nil {
		return fmt.Errorf("encoding manifest: %w", err)
	}
	if err := fileutil.WriteAtomic(filepath.Join(dir, ManifestName), data); err != nil {
		return fmt.Errorf("writing manifest: %w", err)
	}
	return nil
}

func tablePath(dir string, id uint64) string {
	return filepath.Join(dir, fmt.Sprintf("%05d%s", id, tableExtension))
}

func walPath(dir string, id uint64) string {
	return filepath.Join(dir, fmt.Sprintf("%05d%s", id, walExtension))
}

// parseFileID extracts the id from a table or log file name.
func parseFileID(name, extension string) (uint64, bool) {
	stem, found := strings.CutSuffix(name, extension)
	if !found {
		return 0, false
	}
	id, err := strconv.ParseUint(stem, 10, 64)
	return id, err == nil
}
