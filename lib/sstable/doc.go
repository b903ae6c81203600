// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package sstable reads and writes sorted string tables: immutable
// files holding a sorted run of key-value pairs split into blocks.
//
// File layout (integers little-endian):
//
//	| data block 1 | ... | data block N | meta section | bloom section | footer |
//
// Each data block is an encoded [block.Block], compressed on its own
// with the codec recorded in its meta entry:
//
//	offset (u32) | stored_len (u32) | raw_len (u32) | compression (u8)
//	| first_key_len (u16) | first_key | last_key_len (u16) | last_key
//
// The 56-byte footer locates the meta and bloom sections and carries a
// BLAKE3 digest over both, so index corruption is detected at open
// rather than surfacing as wrong answers:
//
//	meta_offset (u64) | bloom_offset (u64) | blake3(meta ‖ bloom) (32) | magic (8)
//
// Data blocks carry their own CRC and are verified when read.
package sstable
