// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/pflag"

	"github.com/bureau-foundation/lsm/cmd/lsmctl/cli"
	"github.com/bureau-foundation/lsm/lib/codec"
	"github.com/bureau-foundation/lsm/lib/lsm"
)

func (a *app) flushCommand() *cli.Command {
	return &cli.Command{
		Name:    "flush",
		Summary: "Write every memtable to level 0",
		Usage:   "lsmctl flush [flags]",
		Flags:   func() *pflag.FlagSet { return a.flagSet("flush") },
		Run: func(args []string) error {
			if err := expectArgs("flush", args, 0, "no arguments"); err != nil {
				return err
			}
			return a.withStorage(func(storage *lsm.Storage) error {
				if err := storage.Flush(); err != nil {
					return err
				}
				stats := storage.Stats()
				fmt.Fprintf(a.stdout, "flushed: %d L0 tables, %s\n", stats.L0Tables, humanize.IBytes(uint64(stats.L0Bytes)))
				return nil
			})
		},
	}
}

func (a *app) compactCommand() *cli.Command {
	var noFlush bool
	return &cli.Command{
		Name:    "compact",
		Summary: "Merge all tables into the bottom level",
		Description: `Flush the memtables, then merge every level-0 table with level 1 into
a new level-1 run. Deleted keys are dropped from the output.`,
		Usage: "lsmctl compact [flags]",
		Flags: func() *pflag.FlagSet {
			flagSet := a.flagSet("compact")
			flagSet.BoolVar(&noFlush, "no-flush", false, "compact only what is already in level 0")
			return flagSet
		},
		Run: func(args []string) error {
			if err := expectArgs("compact", args, 0, "no arguments"); err != nil {
				return err
			}
			return a.withStorage(func(storage *lsm.Storage) error {
				if !noFlush {
					if err := storage.Flush(); err != nil {
						return err
					}
				}
				if err := storage.Compact(); err != nil {
					return err
				}
				stats := storage.Stats()
				fmt.Fprintf(a.stdout, "compacted: %d L1 tables, %s\n", stats.L1Tables, humanize.IBytes(uint64(stats.L1Bytes)))
				return nil
			})
		},
	}
}

func (a *app) statsCommand() *cli.Command {
	return &cli.Command{
		Name:    "stats",
		Summary: "Show the shape of the tree",
		Usage:   "lsmctl stats [flags]",
		Flags:   func() *pflag.FlagSet { return a.flagSet("stats") },
		Run: func(args []string) error {
			if err := expectArgs("stats", args, 0, "no arguments"); err != nil {
				return err
			}
			return a.withStorage(func(storage *lsm.Storage) error {
				return writeStats(a.stdout, storage.Stats())
			})
		},
	}
}

func writeStats(w io.Writer, stats lsm.Stats) error {
	tw := tabwriter.NewWriter(w, 2, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "memtable\t%s keys\t%s\n", humanize.Comma(int64(stats.MemtableKeys)), humanize.IBytes(uint64(stats.MemtableBytes)))
	fmt.Fprintf(tw, "immutable memtables\t%d\t%s\n", stats.ImmutableMemtables, humanize.IBytes(uint64(stats.ImmutableBytes)))
	fmt.Fprintf(tw, "L0 tables\t%d\t%s\n", stats.L0Tables, humanize.IBytes(uint64(stats.L0Bytes)))
	fmt.Fprintf(tw, "L1 tables\t%d\t%s\n", stats.L1Tables, humanize.IBytes(uint64(stats.L1Bytes)))
	fmt.Fprintf(tw, "block cache\t%d entries\t%s hits, %s misses\n", stats.CacheEntries,
		humanize.Comma(int64(stats.CacheHits)), humanize.Comma(int64(stats.CacheMisses)))
	fmt.Fprintf(tw, "next id\t%d\t\n", stats.NextID)
	return tw.Flush()
}

func (a *app) manifestCommand() *cli.Command {
	var raw bool
	return &cli.Command{
		Name:    "manifest",
		Summary: "Print the manifest without opening the store",
		Description: `Decode the MANIFEST file of the storage directory and print the
table and log ids it records. The store is not opened, so no recovery
runs and nothing on disk changes.

With --raw, print the CBOR diagnostic notation of the file instead.`,
		Usage: "lsmctl manifest [flags]",
		Flags: func() *pflag.FlagSet {
			flagSet := a.flagSet("manifest")
			flagSet.BoolVar(&raw, "raw", false, "print CBOR diagnostic notation")
			return flagSet
		},
		Run: func(args []string) error {
			if err := expectArgs("manifest", args, 0, "no arguments"); err != nil {
				return err
			}
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			path := filepath.Join(cfg.Storage.Dir, lsm.ManifestName)

			if raw {
				data, err := os.ReadFile(path)
				if err != nil {
					return fmt.Errorf("reading manifest: %w", err)
				}
				notation, err := codec.Diagnose(data)
				if err != nil {
					return fmt.Errorf("diagnosing %s: %w", path, err)
				}
				fmt.Fprintln(a.stdout, notation)
				return nil
			}

			if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
				return fmt.Errorf("no manifest in %s", cfg.Storage.Dir)
			}
			manifest, err := lsm.ReadManifest(cfg.Storage.Dir)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(a.stdout, 2, 0, 2, ' ', 0)
			fmt.Fprintf(tw, "version\t%d\n", manifest.Version)
			fmt.Fprintf(tw, "next id\t%d\n", manifest.NextID)
			fmt.Fprintf(tw, "memtables\t%v\n", manifest.Memtables)
			fmt.Fprintf(tw, "l0\t%v\n", manifest.L0)
			fmt.Fprintf(tw, "l1\t%v\n", manifest.L1)
			return tw.Flush()
		},
	}
}
