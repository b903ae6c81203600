// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

//go:build !darwin && !linux

package fileutil

import (
	"fmt"
	"os"
)

// SyncDir makes renames and unlinks inside directory durable where the
// platform supports syncing a directory handle.
func SyncDir(directory string) error {
	handle, err := os.Open(directory)
	if err != nil {
		return fmt.Errorf("opening directory %s: %w", directory, err)
	}
	defer handle.Close()
	handle.Sync()
	return nil
}
