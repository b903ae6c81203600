// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

//go:build darwin || linux

package fileutil

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// SyncDir makes renames and unlinks inside directory durable.
func SyncDir(directory string) error {
	fd, err := unix.Open(directory, unix.O_RDONLY|unix.O_DIRECTORY|unix.O_CLOEXEC, 0)
	if err != nil {
		return fmt.Errorf("opening directory %s: %w", directory, err)
	}
	defer unix.Close(fd)
	if err := unix.Fsync(fd); err != nil {
		return fmt.Errorf("syncing directory %s: %w", directory, err)
	}
	return nil
}
