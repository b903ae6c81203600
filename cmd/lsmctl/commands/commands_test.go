// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bureau-foundation/lsm/cmd/lsmctl/cli"
	"github.com/bureau-foundation/lsm/lib/config"
)

// execute runs one lsmctl invocation and returns its stdout and stderr.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	err := Root(&stdout, &stderr).Execute(args)
	return stdout.String(), stderr.String(), err
}

// mustExecute runs one invocation and fails the test on error.
func mustExecute(t *testing.T, args ...string) string {
	t.Helper()
	stdout, stderr, err := execute(t, args...)
	if err != nil {
		t.Fatalf("lsmctl %s: %v\nstderr: %s", strings.Join(args, " "), err, stderr)
	}
	return stdout
}

// field returns the first column after label on the line of a
// tabwriter listing that starts with label.
func field(listing, label string) string {
	for _, line := range strings.Split(listing, "\n") {
		rest, ok := strings.CutPrefix(line, label)
		if !ok || !strings.HasPrefix(rest, " ") {
			continue
		}
		if fields := strings.Fields(rest); len(fields) > 0 {
			return fields[0]
		}
	}
	return ""
}

func TestPutGetDelete(t *testing.T) {
	t.Setenv(config.EnvVar, "")
	dir := t.TempDir()

	mustExecute(t, "put", "--dir", dir, "greeting", "hello")
	if got := mustExecute(t, "get", "--dir", dir, "greeting"); got != "hello\n" {
		t.Errorf("get = %q, want %q", got, "hello\n")
	}

	mustExecute(t, "delete", "--dir", dir, "greeting")
	stdout, stderr, err := execute(t, "get", "--dir", dir, "greeting")
	var exitErr *cli.ExitError
	if !errors.As(err, &exitErr) || exitErr.Code != 1 {
		t.Fatalf("get after delete: error = %v, want exit code 1", err)
	}
	if stdout != "" {
		t.Errorf("get after delete printed %q", stdout)
	}
	if !strings.Contains(stderr, "not found") {
		t.Errorf("stderr = %q, want a not found message", stderr)
	}
}

func TestScan(t *testing.T) {
	t.Setenv(config.EnvVar, "")
	dir := t.TempDir()
	for _, key := range []string{"a", "b", "c", "d"} {
		mustExecute(t, "put", "--dir", dir, key, "v"+key)
	}
	mustExecute(t, "flush", "--dir", dir)
	mustExecute(t, "delete", "--dir", dir, "c")

	if got := mustExecute(t, "scan", "--dir", dir); got != "a\tva\nb\tvb\nd\tvd\n" {
		t.Errorf("scan = %q", got)
	}
	if got := mustExecute(t, "scan", "--dir", dir, "--from", "b", "--to", "d", "--keys-only"); got != "b\n" {
		t.Errorf("bounded scan = %q, want %q", got, "b\n")
	}
	if got := mustExecute(t, "scan", "--dir", dir, "--limit", "2", "--keys-only"); got != "a\nb\n" {
		t.Errorf("limited scan = %q, want %q", got, "a\nb\n")
	}
}

func TestCompactAndStats(t *testing.T) {
	t.Setenv(config.EnvVar, "")
	dir := t.TempDir()
	mustExecute(t, "put", "--dir", dir, "k1", "v1")
	mustExecute(t, "put", "--dir", dir, "k2", "v2")

	if got := mustExecute(t, "compact", "--dir", dir); !strings.HasPrefix(got, "compacted: 1 L1 tables") {
		t.Errorf("compact = %q", got)
	}

	stats := mustExecute(t, "stats", "--dir", dir)
	if got := field(stats, "L0 tables"); got != "0" {
		t.Errorf("L0 tables = %q, want 0:\n%s", got, stats)
	}
	if got := field(stats, "L1 tables"); got != "1" {
		t.Errorf("L1 tables = %q, want 1:\n%s", got, stats)
	}
	if got := mustExecute(t, "get", "--dir", dir, "k2"); got != "v2\n" {
		t.Errorf("get after compact = %q", got)
	}
}

func TestManifest(t *testing.T) {
	t.Setenv(config.EnvVar, "")
	dir := t.TempDir()

	if _, _, err := execute(t, "manifest", "--dir", dir); err == nil {
		t.Fatal("manifest of an empty directory succeeded")
	}

	mustExecute(t, "put", "--dir", dir, "k", "v")
	mustExecute(t, "flush", "--dir", dir)

	summary := mustExecute(t, "manifest", "--dir", dir)
	if got := field(summary, "version"); got != "1" {
		t.Errorf("version = %q, want 1:\n%s", got, summary)
	}
	if got := field(summary, "l0"); got == "" || got == "[]" {
		t.Errorf("l0 = %q, want the flushed table:\n%s", got, summary)
	}

	raw := mustExecute(t, "manifest", "--dir", dir, "--raw")
	if !strings.Contains(raw, `"next_id"`) {
		t.Errorf("raw manifest = %q, want diagnostic notation with next_id", raw)
	}
}

func TestConfigFile(t *testing.T) {
	t.Setenv(config.EnvVar, "")
	dir := filepath.Join(t.TempDir(), "store")
	configPath := filepath.Join(t.TempDir(), "lsm.yaml")
	contents := "storage:\n  dir: " + dir + "\n  compression: zstd\nlogging:\n  level: error\n"
	if err := os.WriteFile(configPath, []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}

	mustExecute(t, "put", "--config", configPath, "k", "v")
	if _, err := os.Stat(filepath.Join(dir, "MANIFEST")); err != nil {
		t.Errorf("store not created at configured dir: %v", err)
	}

	t.Setenv(config.EnvVar, configPath)
	if got := mustExecute(t, "get", "k"); got != "v\n" {
		t.Errorf("get via %s = %q", config.EnvVar, got)
	}
}

func TestUsageErrors(t *testing.T) {
	t.Setenv(config.EnvVar, "")
	dir := t.TempDir()

	tests := []struct {
		name string
		args []string
	}{
		{"put missing value", []string{"put", "--dir", dir, "k"}},
		{"get extra arg", []string{"get", "--dir", dir, "a", "b"}},
		{"scan positional", []string{"scan", "--dir", dir, "x"}},
		{"unknown command", []string{"gett"}},
		{"unknown flag", []string{"scan", "--limt", "3"}},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, _, err := execute(t, test.args...)
			if !errors.Is(err, cli.ErrUsage) {
				t.Errorf("error = %v, want ErrUsage", err)
			}
		})
	}
}

func TestInvalidLogLevel(t *testing.T) {
	t.Setenv(config.EnvVar, "")
	_, _, err := execute(t, "stats", "--dir", t.TempDir(), "--log-level", "loud")
	if err == nil || !strings.Contains(err.Error(), "logging.level") {
		t.Errorf("error = %v, want a logging.level error", err)
	}
}

func TestVersion(t *testing.T) {
	if got := mustExecute(t, "version"); !strings.HasPrefix(got, "lsmctl ") {
		t.Errorf("version = %q", got)
	}
}
