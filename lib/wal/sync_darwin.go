// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

//go:build darwin

package wal

import (
	"os"

	"golang.org/x/sys/unix"
)

// datasync issues F_FULLFSYNC: plain fsync on darwin does not flush
// the drive's write cache.
func datasync(file *os.File) error {
	_, err := unix.FcntlInt(file.Fd(), unix.F_FULLFSYNC, 0)
	return err
}
