// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/spf13/pflag"
)

func TestCommand_Execute_DispatchesToSubcommand(t *testing.T) {
	var called string
	var receivedArgs []string

	root := &Command{
		Name: "lsmctl",
		Subcommands: []*Command{
			{Name: "get", Run: func(args []string) error { called = "get"; receivedArgs = args; return nil }},
			{Name: "put", Run: func(args []string) error { called = "put"; receivedArgs = args; return nil }},
		},
	}

	if err := root.Execute([]string{"put", "k", "v"}); err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if called != "put" {
		t.Errorf("dispatched to %q, want put", called)
	}
	if strings.Join(receivedArgs, " ") != "k v" {
		t.Errorf("args = %v, want [k v]", receivedArgs)
	}
}

func TestCommand_Execute_FlagParsing(t *testing.T) {
	var limit int
	var receivedArgs []string

	command := &Command{
		Name: "scan",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("scan", pflag.ContinueOnError)
			flagSet.IntVar(&limit, "limit", 0, "maximum entries")
			return flagSet
		},
		Run: func(args []string) error {
			receivedArgs = args
			return nil
		},
	}

	if err := command.Execute([]string{"extra", "--limit", "7"}); err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if limit != 7 {
		t.Errorf("limit = %d, want 7", limit)
	}
	if len(receivedArgs) != 1 || receivedArgs[0] != "extra" {
		t.Errorf("args = %v, want [extra]", receivedArgs)
	}
}

func TestCommand_Execute_UnknownFlagSuggestion(t *testing.T) {
	command := &Command{
		Name: "scan",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("scan", pflag.ContinueOnError)
			flagSet.Int("limit", 0, "")
			return flagSet
		},
		Run: func(args []string) error { return nil },
	}

	err := command.Execute([]string{"--limt", "3"})
	if !errors.Is(err, ErrUsage) {
		t.Fatalf("error = %v, want ErrUsage", err)
	}
	if !strings.Contains(err.Error(), "did you mean --limit?") {
		t.Errorf("error %q lacks suggestion", err)
	}
}

func TestCommand_Execute_UnknownSubcommandSuggestion(t *testing.T) {
	root := &Command{
		Name:        "lsmctl",
		Subcommands: []*Command{{Name: "compact", Run: func([]string) error { return nil }}},
	}
	err := root.Execute([]string{"compcat"})
	if !errors.Is(err, ErrUsage) {
		t.Fatalf("error = %v, want ErrUsage", err)
	}
	if !strings.Contains(err.Error(), `did you mean "compact"?`) {
		t.Errorf("error %q lacks suggestion", err)
	}
}

func TestCommand_Execute_RootRunHandlesFlags(t *testing.T) {
	var showVersion bool
	ran := false
	root := &Command{
		Name: "lsmctl",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("lsmctl", pflag.ContinueOnError)
			flagSet.BoolVar(&showVersion, "version", false, "")
			return flagSet
		},
		Subcommands: []*Command{{Name: "get", Run: func([]string) error { return nil }}},
		Run: func(args []string) error {
			ran = true
			return nil
		},
	}
	if err := root.Execute([]string{"--version"}); err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if !ran || !showVersion {
		t.Errorf("ran=%v version=%v", ran, showVersion)
	}
}

func TestCommand_Execute_HelpFlag(t *testing.T) {
	var help bytes.Buffer
	ran := false
	root := &Command{
		Name:       "lsmctl",
		Summary:    "Inspect and modify an LSM store",
		HelpOutput: &help,
		Subcommands: []*Command{
			{Name: "get", Summary: "Read a key", Run: func([]string) error { ran = true; return nil }},
		},
	}

	if err := root.Execute([]string{"get", "--help"}); err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if ran {
		t.Error("Run called for --help")
	}
	if !strings.Contains(help.String(), "lsmctl get") {
		t.Errorf("help output %q lacks the command path", help.String())
	}
}

func TestCommand_Execute_NoArgsShowsHelp(t *testing.T) {
	var help bytes.Buffer
	root := &Command{
		Name:        "lsmctl",
		HelpOutput:  &help,
		Subcommands: []*Command{{Name: "get", Summary: "Read a key"}},
	}
	if err := root.Execute(nil); !errors.Is(err, ErrUsage) {
		t.Fatalf("error = %v, want ErrUsage", err)
	}
	if !strings.Contains(help.String(), "Commands:") {
		t.Errorf("help output %q lacks command list", help.String())
	}
}

func TestCommand_PrintHelp(t *testing.T) {
	command := &Command{
		Name:        "scan",
		Description: "Print live keys in order.",
		Usage:       "lsmctl scan [flags]",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("scan", pflag.ContinueOnError)
			flagSet.String("from", "", "first key to print")
			return flagSet
		},
		Examples: []Example{{Description: "Print ten keys", Command: "lsmctl scan --limit 10"}},
	}

	var output bytes.Buffer
	command.PrintHelp(&output)
	for _, want := range []string{"Print live keys in order.", "Usage:\n  lsmctl scan [flags]", "--from", "first key to print", "# Print ten keys"} {
		if !strings.Contains(output.String(), want) {
			t.Errorf("help output missing %q:\n%s", want, output.String())
		}
	}
}

func TestCommand_FullName(t *testing.T) {
	root := &Command{Name: "lsmctl"}
	child := &Command{Name: "scan", parent: root}
	if got := child.fullName(); got != "lsmctl scan" {
		t.Errorf("fullName() = %q", got)
	}
}
