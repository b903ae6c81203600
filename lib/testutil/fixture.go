// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"fmt"
	"sync/atomic"
)

// KeyOf returns the i-th fixture key. Keys are spaced five apart
// ("key_00000", "key_00005", ...) so tests can seek to keys that fall
// between entries.
func KeyOf(i int) []byte {
	return []byte(fmt.Sprintf("key_%05d", i*5))
}

// ValueOf returns the value paired with KeyOf(i).
func ValueOf(i int) []byte {
	return []byte(fmt.Sprintf("value_%010d", i))
}

var uniqueCounter atomic.Uint64

// UniqueID returns a string of the form "prefix-N" where N increases
// monotonically across the test binary.
func UniqueID(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, uniqueCounter.Add(1))
}
