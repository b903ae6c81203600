// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package config loads lsmctl and embedded-engine configuration.
//
// Configuration is loaded from a single file specified by either the
// LSM_CONFIG environment variable (via [Load]) or a --config flag
// (via [LoadFile]). There is no discovery and no file search. The file
// format follows the extension: .toml files are TOML, everything else
// is YAML.
//
// The file may contain development and production sections that
// override base values when [Config].Environment matches. Production
// defaults are stricter: writes are synced before they are
// acknowledged.
//
// Path fields are expanded after loading: ${HOME}, ${LSM_ROOT}, and
// ${VAR:-default} patterns. No other environment variables override
// config values.
//
// [Config.StorageOptions] turns the storage section into engine
// options, parsing human-readable sizes ("2MiB") and durations.
package config
