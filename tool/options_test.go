// Copyright 2026 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package tool

import (
	"bytes"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

const testOptionsFile = `
[Version]
  rocksdb_version=4.3.0

[DBOptions]
  max_background_compactions=1

[CFOptions "default"]
  compression=kSnappyCompression
  num_levels=4
  target_file_size_base=1000000
  target_file_size_multiplier=10
  max_bytes_for_level_base=10000000
  max_bytes_for_level_multiplier=10
`

// runTool runs the tool with the given arguments and returns everything
// written to stdout and stderr.
func runTool(t *testing.T, args ...string) string {
	var buf bytes.Buffer
	stdout = &buf
	stderr = &buf
	defer func() {
		stdout = os.Stdout
		stderr = os.Stderr
	}()

	c := &cobra.Command{}
	c.AddCommand(New().Commands...)
	c.SetArgs(args)
	c.SetOutput(&buf)
	require.NoError(t, c.Execute())
	return buf.String()
}

func writeOptionsFile(t *testing.T, contents string) string {
	path := filepath.Join(t.TempDir(), "OPTIONS-000005")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0644))
	return path
}

func TestOptionsLevels(t *testing.T) {
	path := writeOptionsFile(t, testOptionsFile)

	out := runTool(t, "options", "levels", path)
	require.Contains(t, out, "LEVEL")
	require.Contains(t, out, "GRANDPARENT OVERLAP")
	require.Contains(t, out, "L3")
	require.NotContains(t, out, "L4")
	require.Contains(t, out, "100000000 (")
	require.Contains(t, out, "2500000000 (")

	out = runTool(t, "options", "levels", "--num-levels=6", path)
	require.Contains(t, out, "L5")
	require.Contains(t, out, "10000000000 (")

	out = runTool(t, "options", "levels", "--strict", path)
	require.Contains(t, out, "unknown option: Version.rocksdb_version")

	out = runTool(t, "options", "levels", filepath.Join(t.TempDir(), "missing"))
	require.Contains(t, out, "no such file or directory")
}

func TestOptionsDump(t *testing.T) {
	path := writeOptionsFile(t, testOptionsFile)

	out := runTool(t, "options", "dump", path)
	require.Contains(t, out, "[Options]\n")
	require.Contains(t, out, "  compression=Snappy\n")
	require.Contains(t, out, "  target_file_size_multiplier=10\n")
	// Options missing from the file have their defaults.
	require.Contains(t, out, "  level0_stop_writes_trigger=24\n")
	require.Contains(t, out, "[Level \"3\"]\n  max_file_size=100000000\n  max_bytes=1000000000\n")
	require.NotContains(t, out, "\n\n")
}

func TestOptionsSet(t *testing.T) {
	path := writeOptionsFile(t, testOptionsFile)

	out := runTool(t, "options", "set", path, "target_file_size_multiplier=2", "write_buffer_size=32m")
	require.Contains(t, out, "[default] SetOptions succeeded: target_file_size_multiplier=2;write_buffer_size=32m\n")
	require.Contains(t, out, "  write_buffer_size=33554432\n")
	require.Contains(t, out, "[Level \"3\"]\n  max_file_size=4000000\n")

	out = runTool(t, "options", "set", path, "target_file_size_multiplier=10")
	require.Equal(t, "options unchanged\n", out)

	out = runTool(t, "options", "set", "--name=users", path, "num_levels=7")
	require.Contains(t, out, "[users] SetOptions failed: cfopts: option num_levels is fixed when the column family is opened\n")

	out = runTool(t, "options", "set", path, "=1")
	require.Equal(t, "malformed option \"=1\", expected key=value\n", out)
}

func TestFormatBytes(t *testing.T) {
	require.Equal(t, "unbounded", formatBytes(math.MaxUint64))
	s := formatBytes(2 << 20)
	require.True(t, strings.HasPrefix(s, "2097152 ("), s)
	require.True(t, strings.HasSuffix(s, "B)"), s)
}
