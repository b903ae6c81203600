// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"bufio"
	"errors"
	"fmt"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/lsm/cmd/lsmctl/cli"
	"github.com/bureau-foundation/lsm/lib/iterator"
	"github.com/bureau-foundation/lsm/lib/lsm"
)

func (a *app) putCommand() *cli.Command {
	return &cli.Command{
		Name:    "put",
		Summary: "Write a key",
		Usage:   "lsmctl put <key> <value> [flags]",
		Flags:   func() *pflag.FlagSet { return a.flagSet("put") },
		Run: func(args []string) error {
			if err := expectArgs("put", args, 2, "<key> <value>"); err != nil {
				return err
			}
			return a.withStorage(func(storage *lsm.Storage) error {
				return storage.Put([]byte(args[0]), []byte(args[1]))
			})
		},
	}
}

func (a *app) getCommand() *cli.Command {
	return &cli.Command{
		Name:    "get",
		Summary: "Read a key",
		Description: `Print the value stored under a key.

Exits with status 1 and prints nothing to stdout when the key is
absent or deleted.`,
		Usage: "lsmctl get <key> [flags]",
		Flags: func() *pflag.FlagSet { return a.flagSet("get") },
		Run: func(args []string) error {
			if err := expectArgs("get", args, 1, "<key>"); err != nil {
				return err
			}
			return a.withStorage(func(storage *lsm.Storage) error {
				value, err := storage.Get([]byte(args[0]))
				if errors.Is(err, lsm.ErrNotFound) {
					fmt.Fprintf(a.stderr, "%s: not found\n", args[0])
					return &cli.ExitError{Code: 1}
				}
				if err != nil {
					return err
				}
				fmt.Fprintf(a.stdout, "%s\n", value)
				return nil
			})
		},
	}
}

func (a *app) deleteCommand() *cli.Command {
	return &cli.Command{
		Name:    "delete",
		Summary: "Delete a key",
		Description: `Write a tombstone for a key. Deleting an absent key is not an
error.`,
		Usage: "lsmctl delete <key> [flags]",
		Flags: func() *pflag.FlagSet { return a.flagSet("delete") },
		Run: func(args []string) error {
			if err := expectArgs("delete", args, 1, "<key>"); err != nil {
				return err
			}
			return a.withStorage(func(storage *lsm.Storage) error {
				return storage.Delete([]byte(args[0]))
			})
		},
	}
}

func (a *app) scanCommand() *cli.Command {
	var (
		from     string
		to       string
		limit    int
		keysOnly bool
	)
	return &cli.Command{
		Name:    "scan",
		Summary: "Print live keys in order",
		Description: `Print live key/value pairs in ascending key order, one tab-separated
pair per line. --from is inclusive and --to is exclusive; either may be
omitted to leave that side open.`,
		Usage: "lsmctl scan [flags]",
		Flags: func() *pflag.FlagSet {
			flagSet := a.flagSet("scan")
			flagSet.StringVar(&from, "from", "", "first key to print (inclusive)")
			flagSet.StringVar(&to, "to", "", "stop before this key (exclusive)")
			flagSet.IntVar(&limit, "limit", 0, "maximum number of pairs to print (0 for all)")
			flagSet.BoolVar(&keysOnly, "keys-only", false, "print keys without values")
			return flagSet
		},
		Examples: []cli.Example{
			{
				Description: "Print the first ten keys",
				Command:     "lsmctl scan --limit 10 --keys-only",
			},
		},
		Run: func(args []string) error {
			if err := expectArgs("scan", args, 0, "no arguments"); err != nil {
				return err
			}
			lower, upper := iterator.Unbounded(), iterator.Unbounded()
			if from != "" {
				lower = iterator.Included([]byte(from))
			}
			if to != "" {
				upper = iterator.Excluded([]byte(to))
			}
			return a.withStorage(func(storage *lsm.Storage) error {
				it, err := storage.Scan(lower, upper)
				if err != nil {
					return err
				}
				defer it.Close()
				out := bufio.NewWriter(a.stdout)
				for count := 0; it.Valid() && (limit <= 0 || count < limit); count++ {
					if keysOnly {
						fmt.Fprintf(out, "%s\n", it.Key())
					} else {
						fmt.Fprintf(out, "%s\t%s\n", it.Key(), it.Value())
					}
					if err := it.Next(); err != nil {
						return err
					}
				}
				return out.Flush()
			})
		},
	}
}
