// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/dustin/go-humanize"
	"gopkg.in/yaml.v3"

	"github.com/bureau-foundation/lsm/lib/compress"
	"github.com/bureau-foundation/lsm/lib/lsm"
)

// EnvVar names the environment variable read by Load.
const EnvVar = "LSM_CONFIG"

// Environment represents the deployment environment.
type Environment string

const (
	// Development is for local experimentation.
	Development Environment = "development"
	// Production is for stores holding data that must survive a crash.
	Production Environment = "production"
)

// Config is the top-level configuration.
type Config struct {
	Environment Environment `yaml:"environment" toml:"environment"`

	Storage StorageConfig `yaml:"storage" toml:"storage"`

	Logging LoggingConfig `yaml:"logging" toml:"logging"`

	// Per-environment overrides, applied after the base config is
	// loaded.
	Development *ConfigOverrides `yaml:"development,omitempty" toml:"development,omitempty"`
	Production  *ConfigOverrides `yaml:"production,omitempty" toml:"production,omitempty"`
}

// ConfigOverrides contains fields that can be overridden per environment.
type ConfigOverrides struct {
	Storage *StorageOverrides `yaml:"storage,omitempty" toml:"storage,omitempty"`
	Logging *LoggingConfig    `yaml:"logging,omitempty" toml:"logging,omitempty"`
}

// StorageOverrides mirrors StorageConfig for an environment section.
// Zero values leave the base setting alone; SyncWrites is a pointer so
// an explicit false can still override a base true.
type StorageOverrides struct {
	Dir                   string `yaml:"dir" toml:"dir"`
	BlockSize             string `yaml:"block_size" toml:"block_size"`
	TargetSSTSize         string `yaml:"target_sst_size" toml:"target_sst_size"`
	MemtableSize          string `yaml:"memtable_size" toml:"memtable_size"`
	MaxImmutableMemtables int    `yaml:"max_immutable_memtables" toml:"max_immutable_memtables"`
	L0CompactionTrigger   int    `yaml:"l0_compaction_trigger" toml:"l0_compaction_trigger"`
	BlockCacheEntries     int    `yaml:"block_cache_entries" toml:"block_cache_entries"`
	BloomBitsPerKey       int    `yaml:"bloom_bits_per_key" toml:"bloom_bits_per_key"`
	Compression           string `yaml:"compression" toml:"compression"`
	SyncWrites            *bool  `yaml:"sync_writes" toml:"sync_writes"`
	BackgroundInterval    string `yaml:"background_interval" toml:"background_interval"`
}

// StorageConfig configures the engine. Sizes accept humanized values
// such as "4KiB" or "2MB".
type StorageConfig struct {
	// Dir is the storage directory.
	Dir string `yaml:"dir" toml:"dir"`

	BlockSize     string `yaml:"block_size" toml:"block_size"`
	TargetSSTSize string `yaml:"target_sst_size" toml:"target_sst_size"`

	// MemtableSize defaults to TargetSSTSize when empty.
	MemtableSize string `yaml:"memtable_size" toml:"memtable_size"`

	MaxImmutableMemtables int `yaml:"max_immutable_memtables" toml:"max_immutable_memtables"`
	L0CompactionTrigger   int `yaml:"l0_compaction_trigger" toml:"l0_compaction_trigger"`
	BlockCacheEntries     int `yaml:"block_cache_entries" toml:"block_cache_entries"`
	BloomBitsPerKey       int `yaml:"bloom_bits_per_key" toml:"bloom_bits_per_key"`

	// Compression is one of none, lz4, zstd, xz.
	Compression string `yaml:"compression" toml:"compression"`

	SyncWrites bool `yaml:"sync_writes" toml:"sync_writes"`

	// BackgroundInterval is a Go duration; "0s" disables the worker.
	BackgroundInterval string `yaml:"background_interval" toml:"background_interval"`
}

// LoggingConfig configures the slog handler of lsmctl.
type LoggingConfig struct {
	// Level is debug, info, warn, or error.
	Level string `yaml:"level" toml:"level"`
}

// Default returns the default configuration. It is the base that the
// loaded file is merged into.
func Default() *Config {
	homeDir, _ := os.UserHomeDir()
	defaultRoot := filepath.Join(homeDir, ".local", "share", "lsm")

	return &Config{
		Environment: Development,
		Storage: StorageConfig{
			Dir:                   defaultRoot,
			BlockSize:             "4KiB",
			TargetSSTSize:         "2MiB",
			MaxImmutableMemtables: 4,
			L0CompactionTrigger:   4,
			BlockCacheEntries:     1 << 12,
			BloomBitsPerKey:       10,
			Compression:           "lz4",
			BackgroundInterval:    "1s",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from the file named by LSM_CONFIG. There
// is no fallback: if the variable is unset, Load fails.
func Load() (*Config, error) {
	configPath := os.Getenv(EnvVar)
	if configPath == "" {
		return nil, fmt.Errorf("%s environment variable not set; "+
			"set it to the path of your lsm config file, or use --config flag", EnvVar)
	}
	return LoadFile(configPath)
}

// LoadFile loads configuration from a specific file path.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	if err := cfg.loadFile(path); err != nil {
		return nil, err
	}
	cfg.applyEnvironmentOverrides()
	cfg.expandVariables()
	return cfg, nil
}

// loadFile merges one configuration file into the current config.
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if _, err := toml.Decode(string(data), c); err != nil {
			return fmt.Errorf("parsing %s: %w", path, err)
		}
	default:
		if err := yaml.Unmarshal(data, c); err != nil {
			return fmt.Errorf("parsing %s: %w", path, err)
		}
	}
	return nil
}

// applyEnvironmentOverrides applies the section matching Environment.
func (c *Config) applyEnvironmentOverrides() {
	var overrides *ConfigOverrides

	switch c.Environment {
	case Development:
		overrides = c.Development
	case Production:
		overrides = c.Production
		if overrides == nil {
			syncWrites := true
			overrides = &ConfigOverrides{
				Storage: &StorageOverrides{SyncWrites: &syncWrites},
			}
		}
	}

	if overrides == nil {
		return
	}

	if storage := overrides.Storage; storage != nil {
		overrideString(&c.Storage.Dir, storage.Dir)
		overrideString(&c.Storage.BlockSize, storage.BlockSize)
		overrideString(&c.Storage.TargetSSTSize, storage.TargetSSTSize)
		overrideString(&c.Storage.MemtableSize, storage.MemtableSize)
		overrideString(&c.Storage.Compression, storage.Compression)
		overrideString(&c.Storage.BackgroundInterval, storage.BackgroundInterval)
		overrideInt(&c.Storage.MaxImmutableMemtables, storage.MaxImmutableMemtables)
		overrideInt(&c.Storage.L0CompactionTrigger, storage.L0CompactionTrigger)
		overrideInt(&c.Storage.BlockCacheEntries, storage.BlockCacheEntries)
		overrideInt(&c.Storage.BloomBitsPerKey, storage.BloomBitsPerKey)
		if storage.SyncWrites != nil {
			c.Storage.SyncWrites = *storage.SyncWrites
		}
	}

	if overrides.Logging != nil {
		overrideString(&c.Logging.Level, overrides.Logging.Level)
	}
}

func overrideString(target *string, value string) {
	if value != "" {
		*target = value
	}
}

func overrideInt(target *int, value int) {
	if value != 0 {
		*target = value
	}
}

// expandVariables expands ${VAR} and ${VAR:-default} patterns in paths.
func (c *Config) expandVariables() {
	vars := map[string]string{
		"HOME":     os.Getenv("HOME"),
		"LSM_ROOT": os.Getenv("LSM_ROOT"),
	}
	c.Storage.Dir = expandVars(c.Storage.Dir, vars)
}

var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

// expandVars expands ${VAR} and ${VAR:-default} patterns, consulting
// vars before the process environment.
func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		name := parts[1]
		defaultValue := ""
		if len(parts) >= 3 {
			defaultValue = parts[2]
		}

		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return defaultValue
	})
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if c.Environment != Development && c.Environment != Production {
		errs = append(errs, fmt.Errorf("invalid environment: %s", c.Environment))
	}
	if c.Storage.Dir == "" {
		errs = append(errs, errors.New("storage.dir is required"))
	}

	for _, size := range []struct{ field, value string }{
		{"storage.block_size", c.Storage.BlockSize},
		{"storage.target_sst_size", c.Storage.TargetSSTSize},
		{"storage.memtable_size", c.Storage.MemtableSize},
	} {
		if size.value == "" && size.field == "storage.memtable_size" {
			continue
		}
		if _, err := humanize.ParseBytes(size.value); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", size.field, err))
		}
	}
	if blockSize, err := humanize.ParseBytes(c.Storage.BlockSize); err == nil && blockSize >= 1<<16 {
		errs = append(errs, fmt.Errorf("storage.block_size must be below 64KiB, got %s", c.Storage.BlockSize))
	}

	if _, err := compress.ParseTag(c.Storage.Compression); err != nil {
		errs = append(errs, fmt.Errorf("storage.compression: %w", err))
	}
	if interval, err := time.ParseDuration(c.Storage.BackgroundInterval); err != nil {
		errs = append(errs, fmt.Errorf("storage.background_interval: %w", err))
	} else if interval < 0 {
		errs = append(errs, fmt.Errorf("storage.background_interval must not be negative, got %s", interval))
	}

	for _, count := range []struct {
		field string
		value int
	}{
		{"storage.max_immutable_memtables", c.Storage.MaxImmutableMemtables},
		{"storage.l0_compaction_trigger", c.Storage.L0CompactionTrigger},
		{"storage.bloom_bits_per_key", c.Storage.BloomBitsPerKey},
	} {
		if count.value < 0 {
			errs = append(errs, fmt.Errorf("%s must not be negative, got %d", count.field, count.value))
		}
	}

	if _, err := c.LogLevel(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// LogLevel parses Logging.Level.
func (c *Config) LogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Logging.Level)); err != nil {
		return 0, fmt.Errorf("logging.level: %w", err)
	}
	return level, nil
}

// StorageOptions converts the storage section into engine options.
// Logger and Clock are left for the caller.
func (c *Config) StorageOptions() (lsm.Options, error) {
	if err := c.Validate(); err != nil {
		return lsm.Options{}, err
	}

	blockSize, _ := humanize.ParseBytes(c.Storage.BlockSize)
	targetSize, _ := humanize.ParseBytes(c.Storage.TargetSSTSize)
	var memtableSize uint64
	if c.Storage.MemtableSize != "" {
		memtableSize, _ = humanize.ParseBytes(c.Storage.MemtableSize)
	}
	compression, _ := compress.ParseTag(c.Storage.Compression)
	interval, _ := time.ParseDuration(c.Storage.BackgroundInterval)

	return lsm.Options{
		BlockSize:             int(blockSize),
		TargetSSTSize:         int(targetSize),
		MemtableSize:          int(memtableSize),
		MaxImmutableMemtables: c.Storage.MaxImmutableMemtables,
		L0CompactionTrigger:   c.Storage.L0CompactionTrigger,
		BlockCacheEntries:     c.Storage.BlockCacheEntries,
		Compression:           compression,
		BloomBitsPerKey:       c.Storage.BloomBitsPerKey,
		SyncWrites:            c.Storage.SyncWrites,
		BackgroundInterval:    interval,
	}, nil
}

// EnsureDir creates the storage directory if it does not exist.
func (c *Config) EnsureDir() error {
	if err := os.MkdirAll(c.Storage.Dir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", c.Storage.Dir, err)
	}
	return nil
}
