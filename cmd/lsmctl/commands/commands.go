// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package commands builds the lsmctl command tree. Every command that
// touches data opens the store, does its work, and closes it again;
// lsmctl never runs the background worker.
package commands

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/lsm/cmd/lsmctl/cli"
	"github.com/bureau-foundation/lsm/lib/config"
	"github.com/bureau-foundation/lsm/lib/lsm"
	"github.com/bureau-foundation/lsm/lib/version"
)

// app carries the output streams and the global flags shared by every
// subcommand.
type app struct {
	stdout io.Writer
	stderr io.Writer

	dir        string
	configPath string
	logLevel   string
}

// Root builds the complete lsmctl command tree writing to stdout and
// stderr.
func Root(stdout, stderr io.Writer) *cli.Command {
	a := &app{stdout: stdout, stderr: stderr}

	return &cli.Command{
		Name: "lsmctl",
		Description: `lsmctl: inspect and modify an LSM key-value store.

The store directory comes from --dir, or from storage.dir in the config
file named by --config or $LSM_CONFIG.`,
		HelpOutput: stderr,
		Subcommands: []*cli.Command{
			a.putCommand(),
			a.getCommand(),
			a.deleteCommand(),
			a.scanCommand(),
			a.flushCommand(),
			a.compactCommand(),
			a.statsCommand(),
			a.manifestCommand(),
			{
				Name:    "version",
				Summary: "Print version information",
				Run: func(args []string) error {
					fmt.Fprintf(stdout, "lsmctl %s\n", version.Full())
					return nil
				},
			},
		},
		Examples: []cli.Example{
			{
				Description: "Store and read back a key",
				Command:     "lsmctl put --dir /tmp/db greeting hello && lsmctl get --dir /tmp/db greeting",
			},
			{
				Description: "List keys in [a, m)",
				Command:     "lsmctl scan --dir /tmp/db --from a --to m",
			},
			{
				Description: "Merge all tables into the bottom level",
				Command:     "lsmctl compact --dir /tmp/db",
			},
		},
	}
}

// flagSet returns a flag set for the named command with the global
// flags already registered.
func (a *app) flagSet(name string) *pflag.FlagSet {
	flagSet := pflag.NewFlagSet(name, pflag.ContinueOnError)
	flagSet.StringVar(&a.dir, "dir", "", "storage directory (overrides storage.dir)")
	flagSet.StringVar(&a.configPath, "config", "", "config file (default $"+config.EnvVar+")")
	flagSet.StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn, error")
	return flagSet
}

// loadConfig resolves the configuration for this run: --config, then
// $LSM_CONFIG, then built-in defaults, with --dir and --log-level
// applied on top.
func (a *app) loadConfig() (*config.Config, error) {
	var cfg *config.Config
	var err error
	switch {
	case a.configPath != "":
		cfg, err = config.LoadFile(a.configPath)
	case os.Getenv(config.EnvVar) != "":
		cfg, err = config.Load()
	default:
		cfg = config.Default()
		// Without a config file the open/close chatter is noise.
		cfg.Logging.Level = "warn"
	}
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	if a.dir != "" {
		cfg.Storage.Dir = a.dir
	}
	if a.logLevel != "" {
		cfg.Logging.Level = a.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// withStorage opens the configured store, calls fn, and closes the
// store. A close failure is reported alongside any error from fn.
func (a *app) withStorage(fn func(*lsm.Storage) error) (err error) {
	cfg, err := a.loadConfig()
	if err != nil {
		return err
	}
	options, err := cfg.StorageOptions()
	if err != nil {
		return err
	}
	level, err := cfg.LogLevel()
	if err != nil {
		return err
	}
	options.Logger = cli.NewLogger(a.stderr, level)
	options.BackgroundInterval = 0

	storage, err := lsm.Open(cfg.Storage.Dir, options)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := storage.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("closing store: %w", closeErr))
		}
	}()
	return fn(storage)
}

// expectArgs fails with a usage error unless args has exactly n
// entries.
func expectArgs(command string, args []string, n int, names string) error {
	if len(args) != n {
		return fmt.Errorf("%w: %s takes %s, got %d argument(s)", cli.ErrUsage, command, names, len(args))
	}
	return nil
}
