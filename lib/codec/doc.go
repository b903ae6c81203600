// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec provides the CBOR encoding used for the store's on-disk
// metadata (the manifest).
//
// The encoder uses Core Deterministic Encoding (RFC 8949 §4.2): sorted
// map keys, smallest integer encoding, no indefinite-length items. The
// same manifest state always produces identical bytes, so two stores
// with the same layout have byte-identical MANIFEST files.
//
// Binary table and log formats (blocks, SSTs, WAL records) are
// hand-laid-out little-endian structures and do not go through this
// package. CBOR is only for small structured records where a
// self-describing, forward-compatible encoding is worth a few bytes.
//
//	data, err := codec.Marshal(manifest)
//	err = codec.Unmarshal(data, &manifest)
package codec
