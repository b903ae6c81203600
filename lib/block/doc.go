// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package block implements the data block: the smallest unit of reading
// and caching in a sorted string table. A block holds a sorted run of
// key-value entries followed by an offset index, so a reader can binary
// search without decoding every entry.
//
// Encoded layout (little-endian):
//
//	| entry 1 | ... | entry N | offset 1 | ... | offset N | N | crc32 |
//	entry  = key_len (u16) | key | value_len (u16) | value
//	offset = u16 byte position of the entry in the data section
//	N      = u16 entry count
//	crc32  = IEEE CRC-32 over every byte before it
//
// An empty value is a tombstone. Keys are never empty: the iterator
// uses an empty current key to mean "exhausted".
package block
