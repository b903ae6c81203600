// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

//go:build linux

package wal

import (
	"os"

	"golang.org/x/sys/unix"
)

// datasync flushes file data without forcing a metadata update when
// the file size is unchanged.
func datasync(file *os.File) error {
	return unix.Fdatasync(int(file.Fd()))
}
