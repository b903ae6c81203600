// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock abstracts the time operations used by the storage
// engine's background worker so tests can drive it deterministically.
//
// Production code injects [Real]; tests inject [Fake] and call
// [FakeClock.Advance] to fire tickers. [FakeClock.WaitForWaiters]
// closes the race between a goroutine registering a ticker and the test
// advancing past its deadline.
package clock
