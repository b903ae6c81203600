// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package cli is the small command framework behind lsmctl: a tree of
// [Command] values with pflag-based flag parsing, generated help, and
// "did you mean" suggestions for mistyped commands and flags.
package cli
