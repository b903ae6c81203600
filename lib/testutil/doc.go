// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared test helpers for the storage
// packages.
//
// [KeyOf] and [ValueOf] generate the ordered fixture keys used across
// block, table, and engine tests: KeyOf(i) sorts in the same order as
// i, so tests can reason about positions without sorting.
//
// [RequireReceive] encapsulates the timeout safety valve (select with
// time.After fallback) so individual tests do not need direct
// time.After calls.
//
// [UniqueID] generates monotonically increasing identifiers for test
// disambiguation.
//
// All helpers call t.Fatalf on failure rather than returning errors.
//
// This package depends on no other packages in this module.
package testutil
